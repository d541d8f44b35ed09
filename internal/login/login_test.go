package login

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, rawURL string) (int, string) {
	t.Helper()
	resp, err := http.Get(rawURL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestGenerateState(t *testing.T) {
	a, err := GenerateState()
	require.NoError(t, err)
	b, err := GenerateState()
	require.NoError(t, err)

	assert.Len(t, a, 43)
	assert.NotEqual(t, a, b)
}

func TestCallbackServer_ReceivesToken(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	server := NewCallbackServer(0)
	redirect, err := server.Start(ctx)
	require.NoError(t, err)
	defer server.Stop()

	assert.NotZero(t, server.Port())
	assert.Equal(t, redirect, server.RedirectURI())

	status, body := get(t, redirect+"?token=jwt-1&state=s-1")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Signed in")

	result, err := server.WaitForCallback(ctx)
	require.NoError(t, err)
	assert.Equal(t, "jwt-1", result.Token)
	assert.Equal(t, "s-1", result.State)
	assert.False(t, result.IsError())
}

func TestCallbackServer_OnlyFirstCallbackCounts(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	server := NewCallbackServer(0)
	redirect, err := server.Start(ctx)
	require.NoError(t, err)
	defer server.Stop()

	status, _ := get(t, redirect+"?code=c-1")
	assert.Equal(t, http.StatusOK, status)
	status, _ = get(t, redirect+"?code=c-2")
	assert.Equal(t, http.StatusBadRequest, status)

	result, err := server.WaitForCallback(ctx)
	require.NoError(t, err)
	assert.Equal(t, "c-1", result.Code)
}

func TestCallbackServer_ErrorRedirect(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	server := NewCallbackServer(0)
	redirect, err := server.Start(ctx)
	require.NoError(t, err)
	defer server.Stop()

	q := url.Values{"error": {"access_denied"}, "error_description": {"User <b>declined</b>"}}
	status, body := get(t, redirect+"?"+q.Encode())
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body, "access_denied")
	assert.NotContains(t, body, "<b>declined</b>")

	result, err := server.WaitForCallback(ctx)
	require.NoError(t, err)
	assert.True(t, result.IsError())
}

func TestCallbackServer_MissingTokenIsError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	server := NewCallbackServer(0)
	redirect, err := server.Start(ctx)
	require.NoError(t, err)
	defer server.Stop()

	get(t, redirect)

	result, err := server.WaitForCallback(ctx)
	require.NoError(t, err)
	assert.Equal(t, "missing_token", result.Error)
}

// browserThat follows the sign-in URL straight to the callback, the way
// the backend would after approval.
func browserThat(t *testing.T, query func(state string) url.Values) func(string) error {
	return func(target string) error {
		u, err := url.Parse(target)
		if err != nil {
			return err
		}
		redirect := u.Query().Get("redirect_uri")
		state := u.Query().Get("state")
		go func() {
			resp, err := http.Get(redirect + "?" + query(state).Encode())
			if err == nil {
				_ = resp.Body.Close()
			}
		}()
		return nil
	}
}

func loginURL(redirectURI, state string) string {
	return "https://backend.test/auth/github/login?" + url.Values{"redirect_uri": {redirectURI}, "state": {state}}.Encode()
}

func TestFlow_Run(t *testing.T) {
	var shown string
	flow := &Flow{
		Timeout: 5 * time.Second,
		OnURL:   func(u string) { shown = u },
		Open: browserThat(t, func(state string) url.Values {
			return url.Values{"token": {"jwt-9"}, "state": {state}}
		}),
	}

	result, err := flow.Run(context.Background(), loginURL)
	require.NoError(t, err)

	assert.Equal(t, "jwt-9", result.Token)
	assert.Contains(t, shown, "https://backend.test/auth/github/login?")
}

func TestFlow_RejectsForeignState(t *testing.T) {
	flow := &Flow{
		Timeout: 5 * time.Second,
		Open: browserThat(t, func(string) url.Values {
			return url.Values{"token": {"jwt-9"}, "state": {"forged"}}
		}),
	}

	_, err := flow.Run(context.Background(), loginURL)
	assert.ErrorIs(t, err, ErrStateMismatch)
}

func TestFlow_ProviderError(t *testing.T) {
	flow := &Flow{
		Timeout: 5 * time.Second,
		Open: browserThat(t, func(string) url.Values {
			return url.Values{"error": {"access_denied"}}
		}),
	}

	_, err := flow.Run(context.Background(), loginURL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access_denied")
}

func TestFlow_Timeout(t *testing.T) {
	flow := &Flow{
		Timeout: 50 * time.Millisecond,
		Open:    func(string) error { return nil },
	}

	_, err := flow.Run(context.Background(), loginURL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}
