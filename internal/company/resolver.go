// Package company resolves the employer behind a job posting: its name,
// its LinkedIn page and, when discoverable, its own website.
package company

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/amishk599/careerscout/internal/model"
)

// Resolver tries the structured company-data API first and falls back to
// parsing the posting's own HTML.
type Resolver struct {
	api     model.CompanyDataAPI // nil when no API key is configured
	fetcher model.PageFetcher
	logger  *slog.Logger
}

// NewResolver creates a resolver. api may be nil.
func NewResolver(api model.CompanyDataAPI, fetcher model.PageFetcher, logger *slog.Logger) *Resolver {
	return &Resolver{api: api, fetcher: fetcher, logger: logger}
}

var errNoAPI = errors.New("no company-data API configured")

// Resolve returns job enriched with company fields. It fails with a
// *model.ResolutionError only when no company name could be established;
// a missing website is not an error.
func (r *Resolver) Resolve(ctx context.Context, job model.JobRecord) (model.JobRecord, error) {
	info, apiErr := r.fromAPI(ctx, job.JobURL)
	if apiErr == nil {
		out := job.WithCompany(info)
		if out.CompanyWebsite == "" {
			out.CompanyWebsite = r.findWebsite(ctx, out.CompanyName, out.CompanyLinkedInURL)
		}
		r.logger.Debug("company resolved via api", "job", job.JobURL, "company", out.CompanyName, "website", out.CompanyWebsite)
		return out, nil
	}
	if !errors.Is(apiErr, errNoAPI) {
		r.logger.Warn("company api failed, falling back to html", "job", job.JobURL, "error", apiErr)
	}
	if err := ctx.Err(); err != nil {
		return job, &model.ResolutionError{JobURL: job.JobURL, Err: err}
	}

	info, htmlErr := r.fromHTML(ctx, job)
	if htmlErr != nil {
		return job, &model.ResolutionError{JobURL: job.JobURL, Err: errors.Join(apiErr, htmlErr)}
	}
	out := job.WithCompany(info)
	r.logger.Debug("company resolved via html", "job", job.JobURL, "company", out.CompanyName, "website", out.CompanyWebsite)
	return out, nil
}

func (r *Resolver) fromAPI(ctx context.Context, jobURL string) (model.CompanyInfo, error) {
	if r.api == nil {
		return model.CompanyInfo{}, errNoAPI
	}
	info, err := r.api.ResolveCompany(ctx, jobURL)
	if err != nil {
		return model.CompanyInfo{}, err
	}
	if strings.TrimSpace(info.Name) == "" {
		return model.CompanyInfo{}, errors.New("company-data API returned no name")
	}
	return info, nil
}

// fromHTML reads the posting page. A name already carried by the discovered
// record is used when the page cannot be read or does not show one.
func (r *Resolver) fromHTML(ctx context.Context, job model.JobRecord) (model.CompanyInfo, error) {
	info := model.CompanyInfo{
		Name:        job.CompanyName,
		Website:     job.CompanyWebsite,
		LinkedInURL: job.CompanyLinkedInURL,
	}

	page, fetchErr := r.fetcher.Fetch(ctx, job.JobURL, model.FetchHTTP)
	if fetchErr == nil {
		parsed := parseJobPage(page.HTML, page.FinalURL)
		info.Name = firstNonEmpty(parsed.Name, info.Name)
		info.LinkedInURL = firstNonEmpty(info.LinkedInURL, parsed.LinkedInURL)
		info.Website = firstNonEmpty(info.Website, parsed.Website)
	} else {
		r.logger.Debug("job page fetch failed", "job", job.JobURL, "error", fetchErr)
	}

	if info.Name == "" {
		if fetchErr != nil {
			return model.CompanyInfo{}, fmt.Errorf("company html for %s: %w", job.JobURL, fetchErr)
		}
		return model.CompanyInfo{}, fmt.Errorf("company html for %s: no company name on page", job.JobURL)
	}

	if info.Website == "" {
		info.Website = r.findWebsite(ctx, info.Name, info.LinkedInURL)
	}
	return info, nil
}

// findWebsite looks for the company's own site on its LinkedIn company page,
// then in the well-known list. Returns "" when neither knows.
func (r *Resolver) findWebsite(ctx context.Context, name, linkedInURL string) string {
	if linkedInURL != "" {
		page, err := r.fetcher.Fetch(ctx, linkedInURL, model.FetchHTTP)
		if err == nil {
			if site := parseCompanyPage(page.HTML, page.FinalURL); site != "" {
				return site
			}
		} else {
			r.logger.Debug("company page fetch failed", "url", linkedInURL, "error", err)
		}
	}
	return WellKnownWebsite(name)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
