// Package dialog models confirmation prompts. Opening a prompt returns a Future that
// resolves to the user's Decision; a dismissed or abandoned prompt resolves to Declined.
package dialog

import (
	"context"
	"sync"
)

// Decision is the outcome of a prompt.
type Decision int

const (
	Declined Decision = iota
	Accepted
)

func (d Decision) String() string {
	if d == Accepted {
		return "accepted"
	}
	return "declined"
}

// Prompt describes a confirmation.
type Prompt struct {
	Title   string
	Message string
	// Details are listed below the message, one per line.
	Details      []string
	ConfirmLabel string
}

// Future is a pending Decision.
type Future struct {
	done     chan struct{}
	decision Decision
	once     sync.Once
}

// NewFuture returns an unresolved future and the function resolving it. Only the first
// resolution counts.
func NewFuture() (*Future, func(Decision)) {
	f := &Future{done: make(chan struct{})}
	return f, f.resolve
}

// Resolved returns a future that already holds d.
func Resolved(d Decision) *Future {
	f, resolve := NewFuture()
	resolve(d)
	return f
}

func (f *Future) resolve(d Decision) {
	f.once.Do(func() {
		f.decision = d
		close(f.done)
	})
}

// Done is closed once the future is resolved.
func (f *Future) Done() <-chan struct{} { return f.done }

// Wait blocks until the decision is made. A cancelled context counts as Declined.
func (f *Future) Wait(ctx context.Context) Decision {
	if f == nil {
		return Declined
	}
	select {
	case <-f.done:
		return f.decision
	case <-ctx.Done():
		f.resolve(Declined)
		<-f.done
		return f.decision
	}
}

// Confirmer opens confirmation prompts.
type Confirmer interface {
	Confirm(ctx context.Context, prompt Prompt) *Future
}

// ConfirmerFunc adapts a function to Confirmer.
type ConfirmerFunc func(ctx context.Context, prompt Prompt) *Future

// Confirm implements Confirmer.
func (fn ConfirmerFunc) Confirm(ctx context.Context, prompt Prompt) *Future {
	return fn(ctx, prompt)
}

// Scripted answers prompts from a fixed list of decisions and records what was asked.
// Once the list is exhausted it declines.
type Scripted struct {
	mu        sync.Mutex
	decisions []Decision
	prompts   []Prompt
}

// NewScripted returns a Scripted confirmer.
func NewScripted(decisions ...Decision) *Scripted {
	return &Scripted{decisions: decisions}
}

// Confirm implements Confirmer.
func (s *Scripted) Confirm(_ context.Context, prompt Prompt) *Future {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	if len(s.decisions) == 0 {
		return Resolved(Declined)
	}
	d := s.decisions[0]
	s.decisions = s.decisions[1:]
	return Resolved(d)
}

// Prompts returns the prompts shown so far.
func (s *Scripted) Prompts() []Prompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Prompt(nil), s.prompts...)
}
