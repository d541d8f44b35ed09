package gateway

import (
	"context"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// User-facing messages produced by the gateway.
const (
	MessageNetwork      = "Network error. Please check your connection."
	MessageServer       = "Server error. Please try again later."
	MessageUnauthorized = "Your session has expired. Please log in again."
	MessageCanceled     = "Request canceled."
)

// Kind classifies a failed backend call.
type Kind int

const (
	// KindServer is any non-2xx response other than 401.
	KindServer Kind = iota
	// KindNetwork means no response was received.
	KindNetwork
	// KindUnauthorized is a 401 response; the session was purged.
	KindUnauthorized
	// KindCanceled means the caller's context ended before a response arrived.
	KindCanceled
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindUnauthorized:
		return "unauthorized"
	case KindCanceled:
		return "canceled"
	default:
		return "server"
	}
}

// APIError is the single error type returned for failed backend calls.
// Message is always safe to show to the user.
type APIError struct {
	Kind    Kind
	Status  int
	Method  string
	Path    string
	Message string
	// Connection refines KindNetwork errors.
	Connection ConnectionErrorType
	// Err is the underlying transport or decoding error, if any.
	Err error
}

// Error returns the user-facing message.
func (e *APIError) Error() string {
	return e.Message
}

// Unwrap returns the underlying error.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is matches another *APIError of the same Kind, so callers can write
// errors.Is(err, gateway.ErrUnauthorized).
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrNetwork      = &APIError{Kind: KindNetwork}
	ErrUnauthorized = &APIError{Kind: KindUnauthorized}
	ErrServer       = &APIError{Kind: KindServer}
	ErrCanceled     = &APIError{Kind: KindCanceled}
)

// StatusCode returns the HTTP status of err, or 0 when err did not come from
// a backend response.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// ConnectionErrorType categorizes the type of connection error.
type ConnectionErrorType int

const (
	// ConnectionErrorUnknown indicates an unclassified connection error.
	ConnectionErrorUnknown ConnectionErrorType = iota
	// ConnectionErrorTLS indicates a TLS/certificate verification error.
	ConnectionErrorTLS
	// ConnectionErrorNetwork indicates a network connectivity error (e.g., refused, unreachable).
	ConnectionErrorNetwork
	// ConnectionErrorTimeout indicates a connection timeout.
	ConnectionErrorTimeout
	// ConnectionErrorDNS indicates a DNS resolution failure.
	ConnectionErrorDNS
)

// String returns a human-readable name for the connection error type.
func (t ConnectionErrorType) String() string {
	switch t {
	case ConnectionErrorTLS:
		return "TLS certificate error"
	case ConnectionErrorNetwork:
		return "Network error"
	case ConnectionErrorTimeout:
		return "Connection timeout"
	case ConnectionErrorDNS:
		return "DNS resolution error"
	default:
		return "Connection error"
	}
}

// classifyConnectionError inspects a transport error.
func classifyConnectionError(err error) ConnectionErrorType {
	var certErr *x509.CertificateInvalidError
	var hostErr *x509.HostnameError
	var unknownAuthErr *x509.UnknownAuthorityError
	if errors.As(err, &certErr) || errors.As(err, &hostErr) || errors.As(err, &unknownAuthErr) {
		return ConnectionErrorTLS
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ConnectionErrorDNS
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return ConnectionErrorTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ConnectionErrorTimeout
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ConnectionErrorNetwork
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "x509:") || strings.Contains(msg, "tls:"):
		return ConnectionErrorTLS
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "no route to host"),
		strings.Contains(msg, "network is unreachable"):
		return ConnectionErrorNetwork
	}
	return ConnectionErrorUnknown
}

// detailFromBody extracts the server-provided message from an error body.
// It understands {"detail": "..."}, FastAPI validation lists
// {"detail": [{"msg": "..."}]}, and {"message"|"error": "..."}.
func detailFromBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	for _, key := range []string{"detail", "message", "error"} {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		if msg := rawMessageText(raw); msg != "" {
			return msg
		}
	}
	return ""
}

func rawMessageText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var list []struct {
		Msg string `json:"msg"`
		Loc []any  `json:"loc"`
	}
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			if item.Msg == "" {
				continue
			}
			if len(item.Loc) > 0 {
				parts = append(parts, fmt.Sprintf("%v: %s", item.Loc[len(item.Loc)-1], item.Msg))
			} else {
				parts = append(parts, item.Msg)
			}
		}
		return strings.Join(parts, "; ")
	}

	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return strings.TrimSpace(obj.Message)
	}
	return ""
}
