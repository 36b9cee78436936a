package store

import (
	"context"

	"github.com/amishk599/careerscout/internal/model"
)

// NopSink discards results. Used in dry-run mode and when no store is configured.
type NopSink struct{}

func NewNopSink() *NopSink { return &NopSink{} }

func (s *NopSink) Save(_ context.Context, _ string, _ []model.PipelineResult) error { return nil }
