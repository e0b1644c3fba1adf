// Package ledger enforces per-subject daily usage ceilings. Every
// enhancement session and validation run consumes one unit; the ledger
// decides whether a subject has budget left today and records consumption
// after the work succeeds.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/brightloop/ideaforge/internal/model"
)

// ErrQuotaExceeded is returned by Check when the subject has used up
// today's allowance for the requested kind.
var ErrQuotaExceeded = errors.New("ledger: daily quota exceeded")

// Status reports a subject's standing for one usage kind.
type Status struct {
	Kind      model.UsageKind `json:"kind"`
	Used      int             `json:"used"`
	Limit     int             `json:"limit"`
	Remaining int             `json:"remaining"`
	ResetsAt  time.Time       `json:"resets_at"`
}

// Ledger wraps a Store with quota arithmetic. Days roll over at midnight
// UTC regardless of the subject's locale, so a subject in any timezone
// gets the same window.
type Ledger struct {
	store  Store
	limits map[model.UsageKind]int
	now    func() time.Time
}

// Option configures the Ledger.
type Option func(*Ledger)

// WithClock overrides the time source. Tests use this to pin the day.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New creates a Ledger. A limit of zero or less means the kind is
// unmetered.
func New(store Store, limits map[model.UsageKind]int, opts ...Option) *Ledger {
	l := &Ledger{
		store:  store,
		limits: limits,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check reports whether the subject may consume one unit of the given kind
// right now. A storage failure is returned as an error and callers must
// treat it as a denial: an unreadable ledger never grants free usage.
func (l *Ledger) Check(ctx context.Context, subject string, kind model.UsageKind) (Status, error) {
	if !kind.Valid() {
		return Status{}, eris.Errorf("ledger: unknown usage kind %q", kind)
	}

	limit := l.limits[kind]
	start, end := dayWindow(l.now())
	status := Status{Kind: kind, Limit: limit, ResetsAt: end}

	if limit <= 0 {
		status.Remaining = -1
		return status, nil
	}

	used, err := l.store.CountRange(ctx, subject, kind, start, end)
	if err != nil {
		return Status{}, eris.Wrap(err, "ledger: count usage")
	}

	status.Used = used
	status.Remaining = limit - used
	if status.Remaining < 0 {
		status.Remaining = 0
	}

	if used >= limit {
		zap.L().Info("ledger: quota exhausted",
			zap.String("subject", subject),
			zap.String("kind", string(kind)),
			zap.Int("used", used),
			zap.Int("limit", limit),
		)
		return status, ErrQuotaExceeded
	}
	return status, nil
}

// Record writes one consumed unit. It is called only after the metered
// operation produced a usable result, so a failed upstream call never
// burns quota.
func (l *Ledger) Record(ctx context.Context, subject string, kind model.UsageKind) (*model.UsageRecord, error) {
	if !kind.Valid() {
		return nil, eris.Errorf("ledger: unknown usage kind %q", kind)
	}
	rec, err := l.store.Record(ctx, subject, kind, l.now())
	if err != nil {
		return nil, eris.Wrap(err, "ledger: record usage")
	}
	zap.L().Debug("ledger: usage recorded",
		zap.String("subject", subject),
		zap.String("kind", string(kind)),
	)
	return rec, nil
}

// StatusAll reports the subject's standing for every metered kind.
func (l *Ledger) StatusAll(ctx context.Context, subject string) ([]Status, error) {
	kinds := []model.UsageKind{model.UsageEnhancement, model.UsageValidation}
	out := make([]Status, 0, len(kinds))
	for _, kind := range kinds {
		st, err := l.Check(ctx, subject, kind)
		if err != nil && !errors.Is(err, ErrQuotaExceeded) {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// dayWindow returns the UTC day [start, end) containing t.
func dayWindow(t time.Time) (time.Time, time.Time) {
	u := t.UTC()
	start := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}
