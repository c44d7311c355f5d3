package main

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/jayawardhanm/jay-claimsub-ai/internal/config"
	"github.com/jayawardhanm/jay-claimsub-ai/internal/domain/claims"
	"github.com/jayawardhanm/jay-claimsub-ai/internal/platform/advisory"
	"github.com/jayawardhanm/jay-claimsub-ai/internal/platform/backend"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:            "development",
		StoreBackend:   "backend",
		BackendURL:     "http://backend.local",
		ScorerStrategy: "rule",
		RiskLow:        0.3,
		RiskMedium:     0.7,
		RiskHigh:       1.0,
	}
}

func TestBuildScorer_RuleStrategy(t *testing.T) {
	scorer := buildScorer(testConfig(), zerolog.Nop())
	if _, ok := scorer.(*claims.RuleScorer); !ok {
		t.Errorf("expected *claims.RuleScorer, got %T", scorer)
	}
}

func TestBuildScorer_AdvisoryStrategy(t *testing.T) {
	cfg := testConfig()
	cfg.ScorerStrategy = "advisory"
	cfg.AdvisoryURL = "http://advisory.local"
	cfg.AdvisoryTimeoutSeconds = 30

	scorer := buildScorer(cfg, zerolog.Nop())
	if _, ok := scorer.(*advisory.Client); !ok {
		t.Errorf("expected *advisory.Client, got %T", scorer)
	}
}

func TestBuildStore_BackendNeedsNoPool(t *testing.T) {
	source, sink, pinger, pool, err := buildStore(context.Background(), testConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("buildStore: %v", err)
	}
	if pool != nil {
		t.Error("backend store must not open a database pool")
	}
	if _, ok := source.(*backend.Client); !ok {
		t.Errorf("expected *backend.Client source, got %T", source)
	}
	if sink == nil || pinger == nil {
		t.Error("sink and pinger must be set")
	}
}

func TestBuildProcessor(t *testing.T) {
	cfg := testConfig()
	cfg.ProcessConcurrency = 4

	source, sink, _, _, err := buildStore(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("buildStore: %v", err)
	}
	scorer := buildScorer(cfg, zerolog.Nop())
	if proc := buildProcessor(cfg, source, sink, scorer, zerolog.Nop()); proc == nil {
		t.Fatal("expected a processor")
	}
}
