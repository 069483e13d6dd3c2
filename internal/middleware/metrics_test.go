package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsLabelsUseRouteTemplate(t *testing.T) {
	router := mux.NewRouter()
	router.Use(Metrics)
	router.HandleFunc("/api/invoices/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	srv := httptest.NewServer(router)
	defer srv.Close()

	// Distinct IDs must land in one label value, not one series each.
	for _, id := range []string{"11111111-aaaa", "22222222-bbbb", "33333333-cccc"} {
		resp, err := srv.Client().Get(srv.URL + "/api/invoices/" + id)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
	}

	got := testutil.ToFloat64(requestsTotal.WithLabelValues(http.MethodGet, "/api/invoices/{id}", "200"))
	if got != 3 {
		t.Errorf("template-labeled counter = %v, want 3", got)
	}
	raw := testutil.ToFloat64(requestsTotal.WithLabelValues(http.MethodGet, "/api/invoices/11111111-aaaa", "200"))
	if raw != 0 {
		t.Errorf("raw-path counter = %v, want 0", raw)
	}
}
