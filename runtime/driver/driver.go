// Package driver implements the bounded-retry orchestration of
// spec.md §4.7: a single derivation attempt can fail recoverably
// (NoCandidates, MaxStepsExceeded) when randomness happens to walk
// into a corner the grammar allows but this particular attempt
// couldn't escape from within its step budget. The Driver retries with
// a fresh Derivation State up to a configured attempt ceiling before
// giving up; any other engine error is treated as fatal and returned
// immediately, since retrying cannot fix a programming error.
//
// Grounded on opal-lang-opal's runtime/driver (bounded-retry loop
// around a fallible step function, with a Report of how many attempts
// it took) adapted from its request-replay domain to derivation
// attempts.
package driver

import (
	"errors"
	"fmt"
	"time"

	"github.com/bnfgen/bnfgen/core/checked"
	"github.com/bnfgen/bnfgen/core/rng"
	"github.com/bnfgen/bnfgen/runtime/engine"
)

// Opt configures a Driver run.
type Opt func(*config)

type config struct {
	maxSteps    int
	maxAttempts int
	telemetry   bool
}

// WithMaxSteps bounds each individual derivation attempt's worklist
// reductions (passed straight through to engine.WithMaxSteps).
func WithMaxSteps(n int) Opt { return func(c *config) { c.maxSteps = n } }

// WithMaxAttempts bounds how many times the Driver retries a
// recoverable failure before giving up. Defaults to 1 (no retry) if
// never set or set to a non-positive value.
func WithMaxAttempts(n int) Opt { return func(c *config) { c.maxAttempts = n } }

// WithTelemetry requests a Report alongside the result.
func WithTelemetry() Opt { return func(c *config) { c.telemetry = true } }

// Report summarizes a completed (successful) derivation run.
type Report struct {
	Attempts int
	Steps    int
	Duration time.Duration
}

// ErrExhausted is returned when every retry attempt failed
// recoverably; it wraps the last recoverable error seen.
var ErrExhausted = errors.New("driver: exhausted all retry attempts")

func defaultConfig() config {
	return config{maxAttempts: 1}
}

// DeriveString runs the engine's string derivation under the Driver's
// bounded-retry policy, drawing all randomness from src across every
// attempt (attempts are not independently reseeded; they continue
// drawing from the same stream, so a Driver run as a whole is still
// fully determined by src's initial seed).
func DeriveString(cg *checked.CheckedGrammar, src rng.Source, opts ...Opt) (string, *Report, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.maxAttempts <= 0 {
		cfg.maxAttempts = 1
	}

	var start time.Time
	if cfg.telemetry {
		start = time.Now()
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.maxAttempts; attempt++ {
		st := engine.NewState(src)
		engOpts := []engine.Opt{}
		if cfg.maxSteps > 0 {
			engOpts = append(engOpts, engine.WithMaxSteps(cfg.maxSteps))
		}
		if cfg.telemetry {
			engOpts = append(engOpts, engine.WithTelemetryBasic())
		}

		out, tel, err := engine.DeriveString(cg, st, engOpts...)
		if err == nil {
			var report *Report
			if cfg.telemetry {
				report = &Report{Attempts: attempt, Duration: time.Since(start)}
				if tel != nil {
					report.Steps = tel.Steps
				}
			}
			return out, report, nil
		}

		if !recoverable(err) {
			return "", nil, fmt.Errorf("driver: fatal derivation error: %w", err)
		}
		lastErr = err
	}

	return "", nil, fmt.Errorf("%w after %d attempts: %v", ErrExhausted, cfg.maxAttempts, lastErr)
}

// DeriveTree is DeriveString's tree-shaped counterpart, for callers
// that need the derivation structure rather than only its flattened
// text (e.g. a future syntax-highlighting consumer).
func DeriveTree(cg *checked.CheckedGrammar, src rng.Source, opts ...Opt) (*engine.Tree, *Report, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.maxAttempts <= 0 {
		cfg.maxAttempts = 1
	}

	var start time.Time
	if cfg.telemetry {
		start = time.Now()
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.maxAttempts; attempt++ {
		st := engine.NewState(src)
		engOpts := []engine.Opt{}
		if cfg.maxSteps > 0 {
			engOpts = append(engOpts, engine.WithMaxSteps(cfg.maxSteps))
		}
		if cfg.telemetry {
			engOpts = append(engOpts, engine.WithTelemetryBasic())
		}

		tree, tel, err := engine.DeriveTree(cg, st, engOpts...)
		if err == nil {
			var report *Report
			if cfg.telemetry {
				report = &Report{Attempts: attempt, Duration: time.Since(start)}
				if tel != nil {
					report.Steps = tel.Steps
				}
			}
			return tree, report, nil
		}

		if !recoverable(err) {
			return nil, nil, fmt.Errorf("driver: fatal derivation error: %w", err)
		}
		lastErr = err
	}

	return nil, nil, fmt.Errorf("%w after %d attempts: %v", ErrExhausted, cfg.maxAttempts, lastErr)
}

func recoverable(err error) bool {
	return errors.Is(err, engine.ErrNoCandidates) || errors.Is(err, engine.ErrMaxStepsExceeded)
}
