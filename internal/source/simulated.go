// Package source provides simulated fetch operations for previewing and
// exercising loaders without a real backend.
package source

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rshade/fetchview/internal/logging"
)

// Error domain and codes reported by Simulated.
const (
	Domain = "fetchview.source"

	CodeUnavailable = 503
)

// Error is a fetch failure with a stable domain and code. It implements
// loadable.Coded so equal failures compare equal across attempts.
type Error struct {
	domain  string
	code    int
	message string
}

// NewError returns an Error in domain with the given code and message.
func NewError(domain string, code int, message string) *Error {
	return &Error{domain: domain, code: code, message: message}
}

func (e *Error) Error() string  { return e.message }
func (e *Error) Domain() string { return e.domain }
func (e *Error) Code() int      { return e.code }

// Config controls a Simulated source.
type Config struct {
	// Name labels the items produced and the source in logs.
	Name string
	// Delay is how long each fetch takes.
	Delay time.Duration
	// Items is the number of items returned per fetch.
	Items int
	// FailFirst makes the first N calls fail.
	FailFirst int
	// FailEvery makes every N-th call fail (0 disables).
	FailEvery int
}

// Simulated is a fetch operation that returns generated items after a delay
// and fails on a configurable schedule. It is safe for concurrent use.
type Simulated struct {
	cfg Config

	mu    sync.Mutex
	calls int
}

// NewSimulated returns a Simulated source for cfg.
func NewSimulated(cfg Config) *Simulated {
	if cfg.Name == "" {
		cfg.Name = "item"
	}
	return &Simulated{cfg: cfg}
}

// Calls returns how many times Fetch has been invoked.
func (s *Simulated) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Fetch waits for the configured delay, then returns items or a scheduled
// failure. It returns ctx.Err() if ctx is done first.
func (s *Simulated) Fetch(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	s.calls++
	call := s.calls
	s.mu.Unlock()

	log := logging.FromContext(ctx)
	log.Debug().Ctx(ctx).Str("source", s.cfg.Name).Int("call", call).Msg("simulated fetch")

	if s.cfg.Delay > 0 {
		timer := time.NewTimer(s.cfg.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if s.shouldFail(call) {
		return nil, NewError(Domain, CodeUnavailable, fmt.Sprintf("%s: backend unavailable", s.cfg.Name))
	}

	items := make([]string, s.cfg.Items)
	for i := range items {
		items[i] = fmt.Sprintf("%s-%d (fetch #%d)", s.cfg.Name, i+1, call)
	}
	return items, nil
}

func (s *Simulated) shouldFail(call int) bool {
	if call <= s.cfg.FailFirst {
		return true
	}
	return s.cfg.FailEvery > 0 && call%s.cfg.FailEvery == 0
}
