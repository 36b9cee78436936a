package adapter

import (
	"context"
	"fmt"

	"github.com/amishk599/careerscout/internal/model"
)

// Unconfigured stands in for a source whose credentials are absent. It always
// fails with an unsupported DiscoveryError so the cascade moves on while the
// attempt log still shows the source as "not configured".
type Unconfigured struct {
	name   string
	reason string
}

// NewUnconfigured returns a placeholder adapter for name.
func NewUnconfigured(name, reason string) *Unconfigured {
	return &Unconfigured{name: name, reason: reason}
}

// Name returns the source name.
func (u *Unconfigured) Name() string { return u.name }

// Discover always reports the source as unsupported.
func (u *Unconfigured) Discover(_ context.Context, _ model.Query) ([]model.JobRecord, error) {
	return nil, &model.DiscoveryError{
		Kind:   model.DiscoveryUnsupported,
		Source: u.name,
		Err:    fmt.Errorf("not configured: %s", u.reason),
	}
}

// Configured always reports false.
func (u *Unconfigured) Configured() bool { return false }
