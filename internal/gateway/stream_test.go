package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_StreamSSE(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Accept"), "text/event-stream")
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		_, _ = w.Write([]byte("data: {\"type\":\"connected\"}\n\n"))
		flusher.Flush()
		_, _ = w.Write([]byte(": keepalive\n\n"))
		_, _ = w.Write([]byte("event: progress\nid: 2\ndata: line one\ndata: line two\n\n"))
		_, _ = w.Write([]byte("data: {\"status\":\"completed\"}"))
	}))
	defer server.Close()

	var got []StreamEvent
	err := New(server.URL, nil).Stream(context.Background(), http.MethodPost, "/trigger-regression",
		&RequestOptions{Body: map[string]string{"project_id": "p1"}},
		func(ev StreamEvent) error {
			got = append(got, ev)
			return nil
		})
	require.NoError(t, err)

	assert.Equal(t, []StreamEvent{
		{Data: `{"type":"connected"}`},
		{Event: "progress", ID: "2", Data: "line one\nline two"},
		{Data: `{"status":"completed"}`},
	}, got)
}

func TestClient_StreamPlainLines(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Running suite...\r\n\nPASSED test_login\nFAILED test_checkout\n"))
	}))
	defer server.Close()

	var lines []string
	err := New(server.URL, nil).Stream(context.Background(), http.MethodPost, "/trigger-regression", nil,
		func(ev StreamEvent) error {
			lines = append(lines, ev.Data)
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, []string{"Running suite...", "PASSED test_login", "FAILED test_checkout"}, lines)
}

func TestClient_StreamCallbackErrorStops(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("a\nb\nc\n"))
	}))
	defer server.Close()

	stop := errors.New("stop")
	count := 0
	err := New(server.URL, nil).Stream(context.Background(), http.MethodPost, "/trigger-regression", nil,
		func(StreamEvent) error {
			count++
			return stop
		})

	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, count)
}

func TestClient_StreamErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail": "No regression suite configured"}`))
	}))
	defer server.Close()

	err := New(server.URL, nil).Stream(context.Background(), http.MethodPost, "/trigger-regression", nil,
		func(StreamEvent) error { return nil })
	require.Error(t, err)
	assert.Equal(t, "No regression suite configured", err.Error())
}
