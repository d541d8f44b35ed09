package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"testagent/internal/gateway"
	"testagent/pkg/models"

	"github.com/mitchellh/mapstructure"
)

// API is the subset of *gateway.Client the adapters use.
type API interface {
	Get(ctx context.Context, path string, opts *gateway.RequestOptions, out any) error
	Post(ctx context.Context, path string, opts *gateway.RequestOptions, out any) error
	Patch(ctx context.Context, path string, opts *gateway.RequestOptions, out any) error
	Delete(ctx context.Context, path string, opts *gateway.RequestOptions, out any) error
	Bytes(ctx context.Context, method, path string, opts *gateway.RequestOptions) ([]byte, string, error)
	Upload(ctx context.Context, path string, fields map[string]string, files []gateway.FormFile, progress gateway.ProgressFunc, out any) error
	Stream(ctx context.Context, method, path string, opts *gateway.RequestOptions, onEvent func(gateway.StreamEvent) error) error
	BaseURL() string
}

// Set bundles every adapter over one gateway.
type Set struct {
	Projects    *Projects
	TestCases   *TestCases
	Integration *Integration
	E2E         *E2E
	Regression  *Regression
	Smoke       *Smoke
	Performance *Performance
	Auth        *Auth
}

// NewSet returns all adapters sharing api.
func NewSet(api API) *Set {
	return &Set{
		Projects:    &Projects{api: api},
		TestCases:   &TestCases{api: api},
		Integration: &Integration{api: api},
		E2E:         &E2E{api: api},
		Regression:  &Regression{api: api},
		Smoke:       &Smoke{api: api},
		Performance: &Performance{api: api},
		Auth:        &Auth{api: api},
	}
}

func escape(s string) string {
	return url.PathEscape(s)
}

func projectQuery(projectID string) *gateway.RequestOptions {
	if projectID == "" {
		return nil
	}
	return &gateway.RequestOptions{Query: url.Values{"project_id": {projectID}}}
}

// envelopeKeys are the wrapper fields a list may arrive under, tried after
// the domain-specific keys.
var envelopeKeys = []string{"data", "items", "results"}

// decodeRecords accepts either a bare JSON array of objects or an object
// holding the array under one of keys (then the common envelope keys). An
// object without any list is a single record only when it carries an id or
// a timestamp; status bodies such as {"success":true,"message":"..."} are an
// empty list. null or an empty body is an empty list.
func decodeRecords(raw json.RawMessage, keys ...string) ([]models.Record, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var list []models.Record
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("unexpected response shape: %w", err)
	}

	candidates := make([]string, 0, len(keys)+len(envelopeKeys))
	candidates = append(candidates, keys...)
	candidates = append(candidates, envelopeKeys...)
	for _, k := range candidates {
		inner, ok := obj[k]
		if !ok {
			continue
		}
		var nested []models.Record
		if err := json.Unmarshal(inner, &nested); err == nil {
			return nested, nil
		}
	}

	var single models.Record
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, fmt.Errorf("unexpected response shape: %w", err)
	}
	if single.ID() == "" && single.Timestamp() == "" {
		return nil, nil
	}
	return []models.Record{single}, nil
}

// getRecords issues a GET and normalizes the list envelope.
func getRecords(ctx context.Context, api API, path string, opts *gateway.RequestOptions, keys ...string) ([]models.Record, error) {
	var raw json.RawMessage
	if err := api.Get(ctx, path, opts, &raw); err != nil {
		return nil, err
	}
	records, err := decodeRecords(raw, keys...)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	return records, nil
}

// DecodeRecord fills out (a pointer to a struct with mapstructure tags) from
// a loosely typed record. Numbers sent as strings and similar drift are
// accepted.
func DecodeRecord(r models.Record, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	return dec.Decode(map[string]any(r))
}
