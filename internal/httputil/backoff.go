// Copyright Awele Larsen, 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across source adapters.
package httputil

import (
	"context"
	"io"
	"net/http"
	"time"
)

// BackoffBase controls the base duration for exponential backoff on
// HTTP 429 responses. Tests override this to avoid real sleeps.
var BackoffBase = 5 * time.Second

const defaultMaxRetries = 3

// DoWithBackoff executes an HTTP request and retries on HTTP 429 (Too
// Many Requests) with bounded exponential backoff: the delay is
// BackoffBase * factor^attempt, so with the 5 s base and factor 2.0 the
// waits are 5 s, 10 s, 20 s.
//
// When maxRetries is 0 the default (3) is used; a factor <= 1 falls
// back to 2.0. On each 429 the response body is drained and closed
// before sleeping. If the context is cancelled during a backoff wait
// the function returns ctx.Err(). After exhausting retries the last
// 429 is reported through rateLimited rather than looping forever, so
// an unattended pipeline never stalls on a persistently limited source.
func DoWithBackoff(ctx context.Context, client *http.Client, req *http.Request, maxRetries int, factor float64) (resp *http.Response, rateLimited bool, err error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	if factor <= 1 {
		factor = 2.0
	}

	backoff := BackoffBase
	for attempt := 0; ; attempt++ {
		resp, err = client.Do(req.Clone(ctx))
		if err != nil {
			return nil, false, err
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, false, nil
		}

		// Drain and close the body whether retrying or giving up.
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if attempt >= maxRetries {
			return nil, true, nil
		}

		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case <-time.After(backoff):
		}
		backoff = time.Duration(float64(backoff) * factor)
	}
}
