// Package numbering generates sequential, month-scoped invoice numbers of the
// form YYYY-MM-NNN and reconciles the persisted counter against manual edits.
package numbering

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"time"
)

var (
	datePattern   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	numberPattern = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{3})$`)
)

// CounterStore persists the allocator's month key and sequence. A store with
// no counter yet reports ("", 0, nil). The sqlite record store and the
// KV-backed counter both satisfy this.
type CounterStore interface {
	Counter(ctx context.Context) (monthKey string, sequence int, err error)
	SetCounter(ctx context.Context, monthKey string, sequence int) error
}

// Allocator owns the persisted invoice counter. Allocation is not guarded
// against concurrent sessions; two simultaneous editors can draw the same
// number. Known limitation of the numbering scheme, not handled here.
type Allocator struct {
	store CounterStore
	now   func() time.Time
}

// New creates an allocator over the given counter store.
func New(store CounterStore) *Allocator {
	return &Allocator{store: store, now: time.Now}
}

// MonthKey derives the YYYY-MM key from an ISO issue date. A missing or
// malformed date falls back to the current date.
func (a *Allocator) MonthKey(issueDate string) string {
	if !datePattern.MatchString(issueDate) {
		issueDate = a.now().Format("2006-01-02")
	}
	return issueDate[:7]
}

// Allocate returns the next invoice number for the given issue date and
// persists the advanced counter. The sequence resets to 1 whenever the month
// key changes; a malformed or absent stored counter also resets to 1.
func (a *Allocator) Allocate(ctx context.Context, issueDate string) (string, error) {
	key := a.MonthKey(issueDate)

	lastKey, seq, err := a.store.Counter(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read invoice counter: %w", err)
	}

	if lastKey != key || seq < 1 {
		seq = 1
	} else {
		seq++
	}

	if err := a.store.SetCounter(ctx, key, seq); err != nil {
		return "", fmt.Errorf("failed to persist invoice counter: %w", err)
	}
	return Format(key, seq), nil
}

// ReconcileManualEntry adjusts the persisted counter after the user edited
// the invoice number directly, so a later Allocate cannot hand out a
// duplicate. Numbers not matching YYYY-MM-NNN are ignored. A different month
// key is adopted outright; within the same month the stored sequence only
// ever moves up (high-water mark).
func (a *Allocator) ReconcileManualEntry(ctx context.Context, invoiceNumber string) error {
	m := numberPattern.FindStringSubmatch(invoiceNumber)
	if m == nil {
		return nil
	}
	key := m[1] + "-" + m[2]
	n, _ := strconv.Atoi(m[3])

	lastKey, seq, err := a.store.Counter(ctx)
	if err != nil {
		return fmt.Errorf("failed to read invoice counter: %w", err)
	}

	if lastKey != key {
		return a.store.SetCounter(ctx, key, n)
	}
	if n > seq {
		return a.store.SetCounter(ctx, key, n)
	}
	return nil
}

// Format renders a month key and sequence as an invoice number, with the
// sequence zero-padded to three digits.
func Format(monthKey string, sequence int) string {
	return fmt.Sprintf("%s-%03d", monthKey, sequence)
}

// Fallback produces a best-effort local number with a random three-digit
// suffix, for when the counter store is unreachable. Neither unique nor
// monotonic.
func Fallback(issueDate string) string {
	if !datePattern.MatchString(issueDate) {
		issueDate = time.Now().Format("2006-01-02")
	}
	return fmt.Sprintf("%s-%03d", issueDate[:7], rand.Intn(1000))
}
