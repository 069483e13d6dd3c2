package pdf

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const logoFetchTimeout = 5 * time.Second

// FetchLogo loads the optional logo image from a URL or a local file path.
// Any failure (missing source, timeout, bad status, unsupported format)
// resolves to nil: the document renders without a logo, nothing else is
// affected.
func FetchLogo(ctx context.Context, src string) []byte {
	if src == "" {
		return nil
	}
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return fetchLogoURL(ctx, src)
	}
	data, err := os.ReadFile(src)
	if err != nil || imageType(data) == "" {
		return nil
	}
	return data
}

func fetchLogoURL(ctx context.Context, url string) []byte {
	ctx, cancel := context.WithTimeout(ctx, logoFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 5<<20))
	if err != nil || imageType(data) == "" {
		return nil
	}
	return data
}

// imageType sniffs the gofpdf image type from raw bytes, "" if unsupported.
func imageType(data []byte) string {
	switch http.DetectContentType(data) {
	case "image/png":
		return "PNG"
	case "image/jpeg":
		return "JPG"
	case "image/gif":
		return "GIF"
	default:
		return ""
	}
}
