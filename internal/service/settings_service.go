package service

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/qalinsara/rechnung/internal/models"
	"github.com/qalinsara/rechnung/internal/sanitize"
	"github.com/qalinsara/rechnung/internal/storage"
)

// SettingsService handles the tenant-wide settings endpoints.
type SettingsService struct {
	store storage.Store
}

// NewSettingsService creates a new SettingsService.
func NewSettingsService(store storage.Store) *SettingsService {
	return &SettingsService{store: store}
}

// RegisterRoutes mounts the settings endpoints on an auth-required router.
func (s *SettingsService) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/settings", s.Get).Methods(http.MethodGet)
	r.HandleFunc("/api/settings", s.Save).Methods(http.MethodPut)
}

// Get returns the stored settings merged over the defaults. A store with no
// settings row yet returns the defaults.
func (s *SettingsService) Get(w http.ResponseWriter, r *http.Request) {
	stored, err := s.store.GetSettings(r.Context())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeJSON(w, http.StatusOK, models.DefaultSettings())
			return
		}
		slog.Error("GetSettings failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, models.MergeSettings(models.DefaultSettings(), *stored))
}

// Save replaces the stored settings.
func (s *SettingsService) Save(w http.ResponseWriter, r *http.Request) {
	var settings models.Settings
	if err := decodeJSON(r, &settings); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	settings.DefaultVATPercent = sanitize.Number(settings.DefaultVATPercent)

	if err := s.store.SaveSettings(r.Context(), &settings); err != nil {
		slog.Error("SaveSettings failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	slog.Info("Settings saved")
	writeJSON(w, http.StatusOK, settings)
}
