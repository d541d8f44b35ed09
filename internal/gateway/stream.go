package gateway

import (
	"bufio"
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
)

// maxStreamLine bounds a single line of a streamed response.
const maxStreamLine = 1 << 20

// StreamEvent is one message of a streamed response. For text/event-stream
// responses Event and ID carry the SSE fields; for plain line streams every
// non-empty line is one event with only Data set.
type StreamEvent struct {
	Event string
	ID    string
	Data  string
}

// Stream sends a request and calls onEvent for every event of the response
// body until the body ends, ctx is done, or onEvent returns an error. The
// per-request timeout does not apply; cancel ctx to stop a long stream.
func (c *Client) Stream(ctx context.Context, method, path string, opts *RequestOptions, onEvent func(StreamEvent) error) error {
	var req RequestOptions
	if opts != nil {
		req = *opts
	}
	req.Header = req.Header.Clone()
	if req.Header == nil {
		req.Header = http.Header{}
	}
	req.Header.Set("Accept", "text/event-stream, application/x-ndjson, text/plain")

	resp, err := c.send(ctx, method, path, &req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType == "text/event-stream" {
		err = readSSE(resp.Body, onEvent)
	} else {
		err = readLines(resp.Body, onEvent)
	}

	switch {
	case err == nil:
		return nil
	case isCallbackError(err):
		return unwrapCallbackError(err)
	default:
		return c.transportError(ctx, method, path, err)
	}
}

// callbackError marks errors returned by the caller's onEvent so they are
// passed through untouched.
type callbackError struct{ err error }

func (e callbackError) Error() string { return e.err.Error() }
func (e callbackError) Unwrap() error { return e.err }

func isCallbackError(err error) bool {
	var cb callbackError
	return errors.As(err, &cb)
}

func unwrapCallbackError(err error) error {
	var cb callbackError
	if errors.As(err, &cb) {
		return cb.err
	}
	return err
}

func newScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxStreamLine)
	return sc
}

func readLines(r io.Reader, onEvent func(StreamEvent) error) error {
	sc := newScanner(r)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := onEvent(StreamEvent{Data: line}); err != nil {
			return callbackError{err}
		}
	}
	return sc.Err()
}

// readSSE parses the text/event-stream framing: "field: value" lines, events
// separated by a blank line, ":" comments ignored (keepalives).
func readSSE(r io.Reader, onEvent func(StreamEvent) error) error {
	sc := newScanner(r)

	var ev StreamEvent
	var data []string
	dispatch := func() error {
		if len(data) == 0 {
			ev = StreamEvent{}
			return nil
		}
		ev.Data = strings.Join(data, "\n")
		out := ev
		ev, data = StreamEvent{}, nil
		if err := onEvent(out); err != nil {
			return callbackError{err}
		}
		return nil
	}

	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			if err := dispatch(); err != nil {
				return err
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, found := strings.Cut(line, ":")
		if found {
			value = strings.TrimPrefix(value, " ")
		}
		switch field {
		case "data":
			data = append(data, value)
		case "event":
			ev.Event = value
		case "id":
			ev.ID = value
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	// A stream may end without the trailing blank line.
	return dispatch()
}
