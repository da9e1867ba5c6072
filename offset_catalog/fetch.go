package offset_catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

const (
	DefaultURL = "https://raw.githubusercontent.com/denverquane/amonguscapture/master/Offsets.json"

	// the published file is a few kilobytes
	maxDocumentSize = 8 << 20
)

// Fetcher downloads and parses the catalog from a fixed URL
type Fetcher struct {
	url     string
	client  *http.Client
	maxSize int64
	log     *logger.Logger
}

func NewFetcher(url string, timeout time.Duration) *Fetcher {
	return &Fetcher{
		url:     url,
		client:  &http.Client{Timeout: timeout},
		maxSize: maxDocumentSize,
		log:     logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "offset-catalog")),
	}
}

// Fetch issues a single GET. Transport failures, non-2xx responses and oversized
// bodies wrap ErrFetchFailed; an undecodable body wraps ErrParseFailed.
func (f *Fetcher) Fetch(ctx context.Context) (*Catalog, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	f.log.Debugln("Fetching offset catalog from", f.url)
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned %s", ErrFetchFailed, f.url, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", ErrFetchFailed, err)
	}
	if int64(len(body)) > f.maxSize {
		return nil, fmt.Errorf("%w: %s body exceeds %d bytes", ErrFetchFailed, f.url, f.maxSize)
	}

	c, err := Parse(body)
	if err != nil {
		return nil, err
	}

	f.log.Infoln("Offset catalog loaded with", c.Len(), "entries")
	return c, nil
}
