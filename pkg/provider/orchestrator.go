package provider

import (
	"context"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultCallTimeout bounds each individual provider call.
const DefaultCallTimeout = 10 * time.Second

// Orchestrator turns one validated shipment request into the single
// cheapest label across all currently configured providers.
//
// The fan-out is strict-fail: any individual provider failure aborts
// the whole operation and is surfaced as that provider's CallError.
// The orchestrator never writes to storage; persisting the winning
// result is the caller's job.
type Orchestrator struct {
	registry    *Registry
	logger      *otelzap.Logger
	callTimeout time.Duration
}

// NewOrchestrator creates an orchestrator over the given registry.
// A non-positive timeout falls back to DefaultCallTimeout.
func NewOrchestrator(registry *Registry, logger *otelzap.Logger, callTimeout time.Duration) *Orchestrator {
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}
	return &Orchestrator{
		registry:    registry,
		logger:      logger,
		callTimeout: callTimeout,
	}
}

// GenerateCheapestLabel validates the request, fans it out to every
// configured provider concurrently, and returns the minimum-rate
// result. Ties go to the provider earliest in catalog order.
func (o *Orchestrator) GenerateCheapestLabel(ctx context.Context, req *ShipmentRequest) (*LabelResult, error) {
	if errs := Validate(req); len(errs) > 0 {
		return nil, &ValidationFailedError{Fields: errs}
	}

	ids := o.registry.ConfiguredIDs()
	if len(ids) == 0 {
		return nil, ErrNoProvidersConfigured
	}

	o.logger.Info("Rate shopping shipment",
		zap.Strings("providers", ids),
		zap.String("from_zip", req.From.Zip),
		zap.String("to_zip", req.To.Zip),
	)

	// One result slot per provider, indexed by catalog position, so
	// completion order cannot affect selection.
	results := make([]*LabelResult, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		i, id := i, id
		client, err := o.registry.Client(id)
		if err != nil {
			return nil, err
		}
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gctx, o.callTimeout)
			defer cancel()

			res, err := client.GenerateLabel(callCtx, req)
			if err != nil {
				o.logger.Error("Provider label generation failed",
					zap.String("provider", id),
					zap.Error(err),
				)
				return wrapCallError(id, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	winner := results[0]
	for _, res := range results[1:] {
		if res.Rate < winner.Rate {
			winner = res
		}
	}

	o.logger.Info("Selected cheapest label",
		zap.String("provider", winner.Provider),
		zap.Float64("rate", winner.Rate),
	)
	return winner, nil
}

func wrapCallError(providerID string, err error) error {
	if ce, ok := err.(*CallError); ok {
		return ce
	}
	return NewCallError(providerID, "generate_label", err)
}
