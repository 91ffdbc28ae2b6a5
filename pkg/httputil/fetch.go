package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/matzehuels/masonry/pkg/errors"
)

// Fetch defaults.
const (
	DefaultAttempts = 3
	DefaultDelay    = time.Second
	DefaultTimeout  = 30 * time.Second

	// MaxDocumentSize bounds documents downloaded by Fetch.
	MaxDocumentSize = 64 << 20
)

// Client is the client used when Fetch is given nil.
var Client = &http.Client{Timeout: DefaultTimeout}

// fetchDelay is the initial retry delay of Fetch.
var fetchDelay = DefaultDelay

// Fetch downloads url with retries. A 404 is an ErrCodeNotFound error;
// exhausted retries surface as ErrCodeNetwork.
func Fetch(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if err := errors.ValidateURL(url); err != nil {
		return nil, err
	}
	if client == nil {
		client = Client
	}

	var body []byte
	err := Retry(ctx, DefaultAttempts, fetchDelay, func() error {
		data, err := fetchOnce(ctx, client, url)
		if err != nil {
			return err
		}
		body = data
		return nil
	})
	switch {
	case err == nil:
		return body, nil
	case errors.GetCode(err) != "":
		return nil, err
	case ctx.Err() != nil:
		return nil, errors.Wrap(errors.ErrCodeTimeout, err, "fetch %s", url)
	default:
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "fetch %s", url)
	}
}

func fetchOnce(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &RetryableError{Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.New(errors.ErrCodeNotFound, "%s: not found", url)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, &RetryableError{Err: fmt.Errorf("%s: %s", url, resp.Status)}
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("%s: %s", url, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDocumentSize+1))
	if err != nil {
		return nil, &RetryableError{Err: err}
	}
	if len(data) > MaxDocumentSize {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s: document exceeds %d bytes", url, MaxDocumentSize)
	}
	return data, nil
}
