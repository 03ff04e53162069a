// Package seed provides the one-shot data sources the catalog is initialized
// from when the persistent store is empty.
package seed

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/avelaine/storefront/internal/domain/catalog"
)

const fetchTimeout = 30 * time.Second

var _ catalog.SeedSource = (*HTTP)(nil)

// HTTP fetches the seed payload from a URL. A non-2xx response or transport
// failure is reported as an error; the repository treats that as a soft
// failure and substitutes empty collections.
type HTTP struct {
	client *http.Client
	url    string
}

// NewHTTP returns an HTTP seed source for the given URL.
func NewHTTP(url string) *HTTP {
	return &HTTP{
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   fetchTimeout,
		},
		url: url,
	}
}

// Fetch downloads and decodes the seed payload.
func (h *HTTP) Fetch(ctx context.Context) (catalog.SeedData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return catalog.SeedData{}, errors.Wrap(err, "build seed request")
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return catalog.SeedData{}, errors.Wrap(err, "fetch seed data")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return catalog.SeedData{}, errors.Errorf("fetch seed data: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return catalog.SeedData{}, errors.Wrap(err, "read seed body")
	}
	data, err := catalog.DecodeSeed(body)
	if err != nil {
		return catalog.SeedData{}, errors.Wrap(err, "decode seed body")
	}
	return data, nil
}

var _ catalog.SeedSource = (*File)(nil)

// File reads the seed payload from a local JSON file, gunzipping when the
// name ends in .gz.
type File struct {
	path string
}

// NewFile returns a file seed source for the given path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Fetch reads and decodes the seed file.
func (f *File) Fetch(ctx context.Context) (catalog.SeedData, error) {
	if err := ctx.Err(); err != nil {
		return catalog.SeedData{}, err
	}

	src, err := os.Open(f.path)
	if err != nil {
		return catalog.SeedData{}, errors.Wrap(err, "open seed file")
	}
	defer src.Close()

	var r io.Reader = src
	if strings.HasSuffix(f.path, ".gz") {
		gz, err := pgzip.NewReader(src)
		if err != nil {
			return catalog.SeedData{}, errors.Wrap(err, "open gzip stream")
		}
		defer gz.Close()
		r = gz
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return catalog.SeedData{}, errors.Wrap(err, "read seed file")
	}
	data, err := catalog.DecodeSeed(body)
	if err != nil {
		return catalog.SeedData{}, errors.Wrap(err, "decode seed file")
	}
	return data, nil
}

// Empty is a SeedSource returning empty collections. Used when no seed is
// configured.
type Empty struct{}

// Fetch returns the empty-both shape.
func (Empty) Fetch(context.Context) (catalog.SeedData, error) {
	return catalog.SeedData{}, nil
}
