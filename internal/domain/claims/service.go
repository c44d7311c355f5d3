package claims

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrMissingClaimID is returned when a process request carries no claim id.
var ErrMissingClaimID = errors.New("claim id is required")

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithConcurrency bounds how many claims a batch pass assesses in parallel.
// Claims touch disjoint records, so parallel passes are safe; result order
// is not guaranteed when n > 1.
func WithConcurrency(n int) ProcessorOption {
	return func(p *Processor) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// Processor drives the fetch -> score -> decide -> write pipeline for single
// claims and pending batches.
type Processor struct {
	source DataSource
	sink   Sink
	loader *Loader
	scorer Scorer
	engine *Engine
	logger zerolog.Logger

	concurrency int
}

func NewProcessor(source DataSource, sink Sink, scorer Scorer, engine *Engine, logger zerolog.Logger, opts ...ProcessorOption) *Processor {
	p := &Processor{
		source:      source,
		sink:        sink,
		loader:      NewLoader(source, logger),
		scorer:      scorer,
		engine:      engine,
		logger:      logger,
		concurrency: 1,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// ProcessClaim runs one assessment pass over a single claim and persists the
// decision. Reprocessing an already-decided claim with unchanged inputs is
// idempotent: the pipeline recomputes from scratch and the rules are
// deterministic.
func (p *Processor) ProcessClaim(ctx context.Context, claimID string) (*Claim, error) {
	if claimID == "" {
		return nil, ErrMissingClaimID
	}

	bundle, err := p.loader.Load(ctx, claimID)
	if err != nil {
		return nil, err
	}

	decision := p.assess(ctx, bundle)

	if err := p.sink.UpdateClaim(ctx, claimID, decision); err != nil {
		return nil, fmt.Errorf("persist decision for claim %s: %w", claimID, err)
	}

	updated := *bundle.Claim
	applyDecision(&updated, decision)

	p.logger.Info().
		Str("claim_id", claimID).
		Str("status", string(decision.Status)).
		Str("reason_code", decision.ReasonCode).
		Float64("confidence", decision.ConfidenceScore).
		Msg("claim assessed")

	return &updated, nil
}

// ProcessPending assesses every claim currently in Pending status. Each
// claim's failure is logged with its identifier and reported in the result;
// it never aborts the remaining claims.
func (p *Processor) ProcessPending(ctx context.Context) (*BatchResult, error) {
	pending, err := p.source.GetPendingClaims(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending claims: %w", err)
	}

	result := &BatchResult{
		Succeeded: make([]*Claim, 0, len(pending)),
		Failed:    []BatchFailure{},
	}

	if p.concurrency <= 1 {
		for _, claim := range pending {
			p.processInto(ctx, claim.ClaimID, result, nil)
		}
		return result, nil
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, p.concurrency)
	)
	for _, claim := range pending {
		wg.Add(1)
		sem <- struct{}{}
		go func(id string) {
			defer wg.Done()
			defer func() { <-sem }()
			p.processInto(ctx, id, result, &mu)
		}(claim.ClaimID)
	}
	wg.Wait()

	return result, nil
}

func (p *Processor) processInto(ctx context.Context, claimID string, result *BatchResult, mu *sync.Mutex) {
	updated, err := p.ProcessClaim(ctx, claimID)
	if mu != nil {
		mu.Lock()
		defer mu.Unlock()
	}
	if err != nil {
		p.logger.Error().
			Str("claim_id", claimID).
			Err(err).
			Msg("claim skipped during batch pass")
		result.Failed = append(result.Failed, BatchFailure{ClaimID: claimID, Error: err.Error()})
		return
	}
	result.Succeeded = append(result.Succeeded, updated)
}

// GetClaim exposes a read-through to the data source for the API layer.
func (p *Processor) GetClaim(ctx context.Context, claimID string) (*Claim, error) {
	if claimID == "" {
		return nil, ErrMissingClaimID
	}
	return p.source.GetClaim(ctx, claimID)
}

// ListClaims exposes a filtered, paginated claim listing.
func (p *Processor) ListClaims(ctx context.Context, status Status, limit, offset int) ([]*Claim, int, error) {
	return p.source.ListClaims(ctx, status, limit, offset)
}

// assess runs the configured scoring strategy and derives the decision. A
// scorer error is an external-assessment failure and degrades to the
// conservative fallback; it never propagates.
func (p *Processor) assess(ctx context.Context, b *Bundle) Decision {
	assessment, err := p.scorer.Assess(ctx, b)
	if err != nil {
		p.logger.Error().
			Str("claim_id", b.Claim.ClaimID).
			Err(err).
			Msg("scorer failed, falling back to manual review")
		return FallbackDecision()
	}
	if assessment.Decision != nil {
		return Canonicalize(*assessment.Decision)
	}
	return p.engine.Decide(assessment.Score, b)
}

func applyDecision(c *Claim, d Decision) {
	c.Status = d.Status
	c.ReasonCode = d.ReasonCode
	c.ReasonDescription = d.ReasonDescription
	confidence := d.ConfidenceScore
	c.ConfidenceScore = &confidence
	c.UpdatedAt = time.Now().UTC()
}
