package login

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"
)

// DefaultTimeout bounds how long Run waits for the browser.
const DefaultTimeout = 5 * time.Minute

// ErrStateMismatch means the redirect does not belong to this attempt.
var ErrStateMismatch = errors.New("login state mismatch: the callback does not belong to this sign-in attempt")

// Flow runs one browser sign-in.
type Flow struct {
	// Port for the loopback callback; 0 picks a free port.
	Port    int
	Timeout time.Duration
	// Open launches the browser; defaults to OpenBrowser.
	Open func(url string) error
	// OnURL is told the sign-in URL before the browser opens, so it can be
	// printed for headless machines.
	OnURL func(url string)
}

// Run starts the callback server, opens the URL built by loginURL from the
// redirect URI and a fresh state, and returns the verified redirect.
func (f *Flow) Run(ctx context.Context, loginURL func(redirectURI, state string) string) (*CallbackResult, error) {
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	state, err := GenerateState()
	if err != nil {
		return nil, err
	}

	server := NewCallbackServer(f.Port)
	redirectURI, err := server.Start(ctx)
	if err != nil {
		return nil, err
	}
	defer server.Stop()

	target := loginURL(redirectURI, state)
	if f.OnURL != nil {
		f.OnURL(target)
	}
	open := f.Open
	if open == nil {
		open = OpenBrowser
	}
	if err := open(target); err != nil && f.OnURL == nil {
		return nil, err
	}

	result, err := server.WaitForCallback(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("timed out after %s waiting for the browser sign-in", timeout)
		}
		return nil, err
	}
	if result.IsError() {
		if result.ErrorDescription != "" {
			return nil, fmt.Errorf("sign-in failed: %s: %s", result.Error, result.ErrorDescription)
		}
		return nil, fmt.Errorf("sign-in failed: %s", result.Error)
	}
	if result.State != "" && subtle.ConstantTimeCompare([]byte(result.State), []byte(state)) != 1 {
		return nil, ErrStateMismatch
	}
	return result, nil
}
