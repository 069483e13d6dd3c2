package service

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qalinsara/rechnung/internal/auth"
	"github.com/qalinsara/rechnung/internal/middleware"
	"github.com/qalinsara/rechnung/internal/models"
	"github.com/qalinsara/rechnung/internal/numbering"
	"github.com/qalinsara/rechnung/internal/pdf"
	"github.com/qalinsara/rechnung/internal/storage"
	"github.com/qalinsara/rechnung/internal/storage/sqlite"
)

// newTestServer wires the full router the way cmd/server does, backed by a
// throwaway database.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store)
	alloc := numbering.New(store)
	renderer := pdf.NewRenderer(pdf.Company{
		Name:   "Qalin Sara",
		Street: "Industriestraße 17",
		City:   "65474 Bischofsheim",
	})

	router := mux.NewRouter()
	NewAuthService(authenticator, jwtManager).RegisterRoutes(router)

	protected := router.NewRoute().Subrouter()
	protected.Use(middleware.RequireAuth(jwtManager))
	NewInvoiceService(store, alloc, renderer, "").RegisterRoutes(protected)
	NewSettingsService(store).RegisterRoutes(protected)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func registerUser(t *testing.T, srv *httptest.Server, email string) string {
	t.Helper()
	body := map[string]string{
		"email":       email,
		"displayName": "Test User",
		"password":    "hunter22!",
		"role":        "employee",
	}
	var resp struct {
		Token string `json:"token"`
	}
	status := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", body, &resp)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func doJSON(t *testing.T, srv *httptest.Server, method, path, token string, body, out any) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestRegisterAndLogin(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv, "anna@example.com")

	var resp struct {
		Token string `json:"token"`
		Email string `json:"email"`
	}
	status := doJSON(t, srv, http.MethodPost, "/api/auth/login", "",
		map[string]string{"email": "anna@example.com", "password": "hunter22!"}, &resp)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "anna@example.com", resp.Email)
	assert.NotEmpty(t, resp.Token)
}

func TestLoginWrongPassword(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv, "anna@example.com")

	status := doJSON(t, srv, http.MethodPost, "/api/auth/login", "",
		map[string]string{"email": "anna@example.com", "password": "wrong-password"}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv, "anna@example.com")

	status := doJSON(t, srv, http.MethodPost, "/api/auth/register", "",
		map[string]string{
			"email":       "anna@example.com",
			"displayName": "Other",
			"password":    "hunter22!",
		}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestInvoiceRoutesRequireAuth(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/api/invoices", "/api/settings"} {
		status := doJSON(t, srv, http.MethodGet, path, "", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, status, path)
	}
}

func TestInvoiceLifecycle(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "anna@example.com")

	invoice := map[string]any{
		"invoiceNumber": "2025-06-001",
		"issueDate":     "2025-06-15",
		"customerName":  "Familie Özdemir",
		"vatPercent":    19,
		"items": []map[string]any{
			{"description": "Teppichboden", "quantity": 24.5, "unitPrice": 18.9},
		},
	}

	var created invoiceResponse
	status := doJSON(t, srv, http.MethodPost, "/api/invoices", token, invoice, &created)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, created.Invoice.ID)
	assert.Equal(t, models.StatusDraft, created.Invoice.Status)
	assert.InDelta(t, 24.5*18.9, created.Totals.Subtotal, 0.001)
	assert.True(t, created.Totals.HasTax)

	id := created.Invoice.ID

	var fetched invoiceResponse
	status = doJSON(t, srv, http.MethodGet, "/api/invoices/"+id, token, nil, &fetched)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Familie Özdemir", fetched.Invoice.CustomerName)
	assert.Len(t, fetched.Invoice.Items, 1)

	var list []storage.InvoiceSummary
	status = doJSON(t, srv, http.MethodGet, "/api/invoices", token, nil, &list)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, list, 1)
	assert.Equal(t, "2025-06-001", list[0].InvoiceNumber)

	invoice["customerName"] = "Familie Weber"
	var updated invoiceResponse
	status = doJSON(t, srv, http.MethodPut, "/api/invoices/"+id, token, invoice, &updated)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Familie Weber", updated.Invoice.CustomerName)

	status = doJSON(t, srv, http.MethodDelete, "/api/invoices/"+id, token, nil, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status = doJSON(t, srv, http.MethodGet, "/api/invoices/"+id, token, nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestUpdateDeletedInvoiceNotFound(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "anna@example.com")

	invoice := map[string]any{
		"invoiceNumber": "2025-06-003",
		"customerName":  "Familie Weber",
		"items":         []map[string]any{{"description": "Verlegung", "quantity": 1, "unitPrice": 100}},
	}
	var created invoiceResponse
	status := doJSON(t, srv, http.MethodPost, "/api/invoices", token, invoice, &created)
	require.Equal(t, http.StatusOK, status)

	id := created.Invoice.ID
	status = doJSON(t, srv, http.MethodDelete, "/api/invoices/"+id, token, nil, nil)
	require.Equal(t, http.StatusNoContent, status)

	invoice["customerName"] = "Andere Kundin"
	status = doJSON(t, srv, http.MethodPut, "/api/invoices/"+id, token, invoice, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status = doJSON(t, srv, http.MethodGet, "/api/invoices/"+id, token, nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestSubmitRequiresCustomerAndNumber(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "anna@example.com")

	var created invoiceResponse
	status := doJSON(t, srv, http.MethodPost, "/api/invoices", token, map[string]any{
		"invoiceNumber": "2025-06-001",
		"items":         []map[string]any{{"description": "", "quantity": 0, "unitPrice": 0}},
	}, &created)
	require.Equal(t, http.StatusOK, status)

	status = doJSON(t, srv, http.MethodPost, "/api/invoices/"+created.Invoice.ID+"/submit", token, nil, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	var submitted invoiceResponse
	doJSON(t, srv, http.MethodPut, "/api/invoices/"+created.Invoice.ID, token, map[string]any{
		"invoiceNumber": "2025-06-001",
		"customerName":  "Familie Weber",
		"items":         []map[string]any{{"description": "Verlegung", "quantity": 1, "unitPrice": 100}},
	}, &submitted)

	status = doJSON(t, srv, http.MethodPost, "/api/invoices/"+created.Invoice.ID+"/submit", token, nil, &submitted)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.StatusSubmitted, submitted.Invoice.Status)
}

func TestSubmitUnknownInvoice(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "anna@example.com")

	status := doJSON(t, srv, http.MethodPost, "/api/invoices/no-such-id/submit", token, nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestNextNumberAdvancesPastManualEntry(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "anna@example.com")

	doJSON(t, srv, http.MethodPost, "/api/invoices", token, map[string]any{
		"invoiceNumber": "2025-06-041",
		"issueDate":     "2025-06-15",
		"customerName":  "Familie Weber",
		"items":         []map[string]any{{"description": "Verlegung", "quantity": 1, "unitPrice": 100}},
	}, nil)

	var resp struct {
		InvoiceNumber string `json:"invoiceNumber"`
	}
	status := doJSON(t, srv, http.MethodGet, "/api/invoices/next-number?issue_date=2025-06-20", token, nil, &resp)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "2025-06-042", resp.InvoiceNumber)
}

func TestLegacyItemFieldNames(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "anna@example.com")

	var created invoiceResponse
	status := doJSON(t, srv, http.MethodPost, "/api/invoices", token, map[string]any{
		"invoiceNumber": "2025-06-001",
		"customerName":  "Familie Weber",
		"items": []map[string]any{
			{"description": "Teppich", "area": 12.0, "pricePerSqm": 25.0},
		},
	}, &created)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, created.Invoice.Items, 1)
	assert.Equal(t, 12.0, created.Invoice.Items[0].Quantity)
	assert.Equal(t, 25.0, created.Invoice.Items[0].UnitPrice)
	assert.InDelta(t, 300.0, created.Totals.Subtotal, 0.001)
}

func TestSettingsDefaultsAndSave(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "anna@example.com")

	var settings models.Settings
	status := doJSON(t, srv, http.MethodGet, "/api/settings", token, nil, &settings)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.DefaultSettings(), settings)

	settings.TaxID = "21/815/12345"
	settings.BankOwner = "Qalin Sara"
	settings.BankIBAN = "DE02120300000000202051"
	settings.SmallBusinessNote = true
	status = doJSON(t, srv, http.MethodPut, "/api/settings", token, settings, nil)
	require.Equal(t, http.StatusOK, status)

	var reloaded models.Settings
	status = doJSON(t, srv, http.MethodGet, "/api/settings", token, nil, &reloaded)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "21/815/12345", reloaded.TaxID)
	assert.True(t, reloaded.SmallBusinessNote)
}

func TestPDFDownload(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "anna@example.com")

	var created invoiceResponse
	status := doJSON(t, srv, http.MethodPost, "/api/invoices", token, map[string]any{
		"invoiceNumber": "2025-06-007",
		"issueDate":     "2025-06-15",
		"customerName":  "Familie Weber",
		"items":         []map[string]any{{"description": "Verlegung", "quantity": 1, "unitPrice": 100}},
	}, &created)
	require.Equal(t, http.StatusOK, status)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/invoices/"+created.Invoice.ID+"/pdf", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "2025-06-007.pdf")

	head := make([]byte, 5)
	_, err = io.ReadFull(resp.Body, head)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-", string(head))
}
