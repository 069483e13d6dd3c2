package pdf

import (
	"bytes"
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qalinsara/rechnung/internal/models"
)

var testCompany = Company{
	Name:   "Qalin Sara",
	Street: "Industriestraße 17",
	City:   "65474 Bischofsheim",
	Phone:  "Tel: 0176 72465789",
}

func testInvoice() *models.Invoice {
	return &models.Invoice{
		InvoiceNumber:   "2025-03-007",
		IssueDate:       "2025-03-14",
		ServiceDate:     "2025-03-10",
		CustomerName:    "Familie Özdemir",
		CustomerAddress: "Hauptstraße 5\n65474 Bischofsheim",
		CustomerPhone:   "0612 3456",
		Deposit:         40,
		Items: []models.LineItem{
			{Description: "Teppichboden verlegen", Quantity: 12.5, UnitPrice: 18.9},
			{Description: "Sockelleisten", Quantity: 30, UnitPrice: 4.5},
		},
	}
}

func TestRenderProducesPDF(t *testing.T) {
	r := NewRenderer(testCompany)
	data, err := r.Render(testInvoice(), models.Settings{TaxID: "DE123456789", SmallBusinessNote: true}, nil)
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")), "output should start with PDF magic")
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "2025-03-007.pdf", Filename(testInvoice()))
	assert.Equal(t, "rechnung.pdf", Filename(&models.Invoice{}))
}

func TestFormatAmount(t *testing.T) {
	tests := map[float64]string{
		0:       "0,00",
		12.5:    "12,50",
		1234.5:  "1.234,50",
		1234567: "1.234.567,00",
	}
	for in, want := range tests {
		assert.Equal(t, want, formatAmount(in))
	}

	// Non-finite values render as zero instead of panicking.
	assert.Equal(t, "0,00", formatAmount(math.NaN()))
	assert.Equal(t, "0,00", formatAmount(math.Inf(1)))
	assert.Equal(t, "0,00", formatAmount(math.Inf(-1)))
}

// minimal valid 1x1 PNG
var tinyPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x02, 0x00, 0x00, 0x00, 0x90, 0x77, 0x53, 0xde, 0x00, 0x00, 0x00,
	0x0c, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0xf8, 0xcf, 0xc0, 0x00,
	0x00, 0x03, 0x01, 0x01, 0x00, 0xc9, 0xfe, 0x92, 0xef, 0x00, 0x00, 0x00,
	0x00, 0x49, 0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func TestFetchLogoFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logo.png")
	require.NoError(t, os.WriteFile(path, tinyPNG, 0644))

	got := FetchLogo(context.Background(), path)
	assert.Equal(t, tinyPNG, got)
}

func TestFetchLogoAbsentOnFailure(t *testing.T) {
	ctx := context.Background()

	assert.Nil(t, FetchLogo(ctx, ""))
	assert.Nil(t, FetchLogo(ctx, filepath.Join(t.TempDir(), "missing.png")))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()
	assert.Nil(t, FetchLogo(ctx, srv.URL+"/logo.png"))
}

func TestFetchLogoFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(tinyPNG)
	}))
	defer srv.Close()

	got := FetchLogo(context.Background(), srv.URL+"/logo.png")
	assert.Equal(t, tinyPNG, got)
}

func TestRenderWithLogo(t *testing.T) {
	r := NewRenderer(testCompany)
	data, err := r.Render(testInvoice(), models.Settings{}, tinyPNG)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
