// ABOUTME: Byte sources for the playback pipeline: files, stdin, HTTP, WebSocket and S3
// ABOUTME: Open picks a transport from the location and applies optional read timeouts
package source

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

// Options configures Open.
type Options struct {
	// ReadTimeout fails any single Read that takes longer. Zero disables it.
	ReadTimeout time.Duration
	// HTTPClient is used for http(s) locations; nil means http.DefaultClient.
	HTTPClient *http.Client
	// UserAgent is sent with network requests.
	UserAgent string
	// S3 serves s3://bucket/key locations; nil rejects them.
	S3 S3Client
}

// UnavailableError reports that a source could not be acquired.
type UnavailableError struct {
	Location string
	Err      error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("source %s unavailable: %v", e.Location, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// Open acquires a byte source for location: "-" for stdin, an http(s),
// ws(s) or s3 URL, or a file path.
func Open(ctx context.Context, location string, opts Options) (io.ReadCloser, error) {
	var (
		rc  io.ReadCloser
		err error
	)
	switch {
	case location == "-":
		rc = io.NopCloser(os.Stdin)
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		rc, err = OpenHTTP(ctx, location, opts)
	case strings.HasPrefix(location, "ws://"), strings.HasPrefix(location, "wss://"):
		rc, err = OpenWebSocket(ctx, location, opts)
	case strings.HasPrefix(location, "s3://"):
		rc, err = openS3Location(ctx, location, opts.S3)
	default:
		rc, err = OpenFile(location)
	}
	if err != nil {
		return nil, &UnavailableError{Location: location, Err: err}
	}

	if opts.ReadTimeout > 0 {
		rc = WithTimeout(rc, opts.ReadTimeout)
	}
	log.Printf("[source] opened %s", location)
	return rc, nil
}

// OpenFile opens a local file.
func OpenFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// OpenHTTP issues a GET and returns the response body.
func OpenHTTP(ctx context.Context, url string, opts Options) (io.ReadCloser, error) {
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if opts.UserAgent != "" {
		req.Header.Set("User-Agent", opts.UserAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP error: %s", resp.Status)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !isOggContentType(ct) {
		log.Printf("[source] unexpected content type %q for %s", ct, url)
	}
	return resp.Body, nil
}

func isOggContentType(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "ogg") || strings.Contains(ct, "opus") ||
		strings.HasPrefix(ct, "application/octet-stream")
}
