package metrics

import (
	"context"
	"time"

	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/core/domain"
)

var _ domain.InferenceService = (*InstrumentedInference)(nil)

// InstrumentedInference wraps an InferenceService with call counters and timings.
type InstrumentedInference struct {
	next domain.InferenceService
}

func NewInstrumentedInference(next domain.InferenceService) *InstrumentedInference {
	return &InstrumentedInference{next: next}
}

func (i *InstrumentedInference) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	text, err := i.next.Generate(ctx, prompt)
	observe("generate", start, err)
	return text, err
}

func (i *InstrumentedInference) GenerateStructured(ctx context.Context, prompt string, schema domain.Schema, out any) error {
	start := time.Now()
	err := i.next.GenerateStructured(ctx, prompt, schema, out)
	observe("generate_structured", start, err)
	return err
}

func observe(operation string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	inferenceRequests.WithLabelValues(operation, outcome).Inc()
	inferenceDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
