// Package scanner drives camera scanning sessions: waiting for a code and
// routing each decoded code to the right toggle.
package scanner

import (
	"context"
	"errors"
	"strings"
	"time"
)

const DefaultTimeout = 30 * time.Second

var (
	ErrCaptureTimeout = errors.New("scanner: no code read before timeout")
	ErrClosed         = errors.New("scanner: code source closed")
)

// Capture waits for the first non-blank code. The caller releases the
// camera or socket once Capture returns, whatever the outcome.
func Capture(ctx context.Context, timeout time.Duration, codes <-chan string) (string, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
			return "", ErrCaptureTimeout
		case code, ok := <-codes:
			if !ok {
				return "", ErrClosed
			}
			if code = strings.TrimSpace(code); code != "" {
				return code, nil
			}
		}
	}
}
