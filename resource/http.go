package resource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// HTTPFetcher loads stylesheets over http(s). It does not retry.
type HTTPFetcher struct {
	Client    *http.Client
	UserAgent string
	// Authorization, when not empty, is sent with every request.
	Authorization string
	// MaxSize limits stylesheet size in bytes, 0 means no limit.
	MaxSize int64
	Decoder Decoder
	log     *zap.Logger
}

// NewHTTPFetcher creates remote fetcher with given request timeout.
func NewHTTPFetcher(timeout time.Duration, userAgent string, maxSize int64, dec Decoder, log *zap.Logger) *HTTPFetcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPFetcher{
		Client:    &http.Client{Timeout: timeout},
		UserAgent: userAgent,
		MaxSize:   maxSize,
		Decoder:   dec,
		log:       log.Named("http-fetcher"),
	}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*Resource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to prepare request: %w", err)
	}
	if len(f.UserAgent) > 0 {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	if len(f.Authorization) > 0 {
		req.Header.Set("Authorization", f.Authorization)
	}
	req.Header.Set("Accept", "text/css,*/*;q=0.1")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to request stylesheet: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected response status: %s", resp.Status)
	}

	var body io.Reader = resp.Body
	if f.MaxSize > 0 {
		body = io.LimitReader(resp.Body, f.MaxSize+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("unable to read response: %w", err)
	}
	if f.MaxSize > 0 && int64(len(data)) > f.MaxSize {
		return nil, fmt.Errorf("stylesheet is larger than %d bytes", f.MaxSize)
	}

	content, err := f.Decoder.Decode(data)
	if err != nil {
		return nil, err
	}

	// references inside are relative to where the stylesheet was found
	file := url
	if resp.Request != nil && resp.Request.URL != nil {
		file = resp.Request.URL.String()
	}

	f.log.Debug("Downloaded stylesheet",
		zap.String("url", url),
		zap.String("location", file),
		zap.String("content-type", resp.Header.Get("Content-Type")),
		zap.Int("bytes", len(data)))
	return &Resource{File: file, Content: content}, nil
}
