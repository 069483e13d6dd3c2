package numbering

import (
	"context"
	"errors"
	"strconv"

	"github.com/qalinsara/rechnung/internal/storage"
)

const (
	counterKey  = "invoice_counter"
	monthKeyKey = "last_month_key"
)

// KVCounter stores the invoice counter as two scalar entries in a key-value
// backend, the way the standalone editor keeps them on device.
type KVCounter struct {
	kv storage.KV
}

// NewKVCounter wraps a key-value backend as a CounterStore.
func NewKVCounter(kv storage.KV) *KVCounter {
	return &KVCounter{kv: kv}
}

// Counter reads the persisted month key and sequence. Absent entries read as
// ("", 0); a corrupt sequence reads as 0, which the allocator treats the same
// as no counter at all.
func (c *KVCounter) Counter(ctx context.Context) (string, int, error) {
	key, err := c.kv.Get(ctx, monthKeyKey)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return "", 0, err
	}
	raw, err := c.kv.Get(ctx, counterKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return string(key), 0, nil
		}
		return "", 0, err
	}
	seq, err := strconv.Atoi(string(raw))
	if err != nil || seq < 0 {
		seq = 0
	}
	return string(key), seq, nil
}

// SetCounter persists both scalar entries.
func (c *KVCounter) SetCounter(ctx context.Context, monthKey string, sequence int) error {
	if err := c.kv.Set(ctx, monthKeyKey, monthKey); err != nil {
		return err
	}
	return c.kv.Set(ctx, counterKey, strconv.Itoa(sequence))
}
