package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/qalinsara/rechnung/internal/models"
	"github.com/qalinsara/rechnung/internal/storage"
)

// LoadSettings reads the persisted settings record from the key-value
// backend, merging defaults under any partial stored value. Absent or
// corrupt records come back as plain defaults.
func LoadSettings(ctx context.Context, kv storage.KV) (models.Settings, error) {
	defaults := models.DefaultSettings()
	raw, err := kv.Get(ctx, settingsKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return defaults, nil
		}
		return defaults, err
	}
	var stored models.Settings
	if err := json.Unmarshal(raw, &stored); err != nil {
		return defaults, nil
	}
	return models.MergeSettings(defaults, stored), nil
}

// SaveSettings persists the settings record.
func SaveSettings(ctx context.Context, kv storage.KV, s models.Settings) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	return kv.Set(ctx, settingsKey, string(raw))
}
