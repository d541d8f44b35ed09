package history

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"testagent/internal/adapters"
	"testagent/internal/gateway"
	"testagent/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func static(records ...models.Record) ListFunc {
	return func(context.Context, string) ([]models.Record, error) {
		return records, nil
	}
}

func failing(err error) ListFunc {
	return func(context.Context, string) ([]models.Record, error) {
		return nil, err
	}
}

func agentsByID(s Summary) map[Domain]AgentSummary {
	out := make(map[Domain]AgentSummary, len(s.Agents))
	for _, a := range s.Agents {
		out[a.ID] = a
	}
	return out
}

func TestSummarize_OneFailingDomainKeepsTheRest(t *testing.T) {
	agg := NewAggregator(
		Source{Domain: DomainTestCases, List: static(
			models.Record{"testcase_id": "g2", "created_at": "2024-03-15T10:30:00Z"},
			models.Record{"testcase_id": "g1", "created_at": "2024-03-01T08:00:00Z"},
		)},
		Source{Domain: DomainIntegration, List: failing(errors.New("Server error. Please try again later."))},
		Source{Domain: DomainE2E, List: static(models.Record{"id": "e1", "timestamp": "2024-02-10T12:00:00"})},
		Source{Domain: DomainSmoke, List: static()},
		Source{Domain: DomainPerformance, List: static(models.Record{"id": "p1"})},
	)

	summary := agg.Summarize(context.Background(), "p-1")

	assert.Equal(t, "p-1", summary.ProjectID)
	agents := agentsByID(summary)
	require.Len(t, agents, 3)

	tc := agents[DomainTestCases]
	assert.Equal(t, "Test Case Generator", tc.Name)
	assert.NotEmpty(t, tc.Icon)
	assert.Equal(t, 2, tc.TotalTests)
	assert.Equal(t, "2024-03-15", tc.LastRun)

	assert.Equal(t, "2024-02-10", agents[DomainE2E].LastRun)
	assert.Equal(t, NotAvailable, agents[DomainPerformance].LastRun)
	assert.NotContains(t, agents, DomainSmoke)
	assert.NotContains(t, agents, DomainIntegration)

	require.Len(t, summary.Failures, 1)
	assert.Equal(t, DomainIntegration, summary.Failures[0].Domain)
	assert.Equal(t, "Server error. Please try again later.", summary.Failures[0].Message)
}

func TestSummarize_AllFailing(t *testing.T) {
	agg := NewAggregator(
		Source{Domain: DomainE2E, List: failing(errors.New("down"))},
		Source{Domain: DomainSmoke, List: failing(errors.New("down"))},
	)

	summary := agg.Summarize(context.Background(), "p-1")

	assert.Empty(t, summary.Agents)
	assert.NotNil(t, summary.Agents)
	assert.Len(t, summary.Failures, 2)
}

func TestSummarize_NoProject(t *testing.T) {
	called := false
	agg := NewAggregator(Source{Domain: DomainE2E, List: func(context.Context, string) ([]models.Record, error) {
		called = true
		return nil, nil
	}})

	summary := agg.Summarize(context.Background(), "")

	assert.False(t, called)
	assert.Empty(t, summary.Agents)
}

func TestLastRunDate(t *testing.T) {
	tests := []struct {
		name   string
		record models.Record
		want   string
	}{
		{name: "rfc3339", record: models.Record{"created_at": "2024-03-15T10:30:00Z"}, want: "2024-03-15"},
		{name: "offset keeps written date", record: models.Record{"created_at": "2024-03-15T23:30:00-05:00"}, want: "2024-03-15"},
		{name: "naive with fraction", record: models.Record{"created_at": "2024-03-15T10:30:00.123456"}, want: "2024-03-15"},
		{name: "timestamp fallback", record: models.Record{"timestamp": "2024-01-02 03:04:05"}, want: "2024-01-02"},
		{name: "unparseable tail", record: models.Record{"created_at": "2024-03-15 at noon"}, want: "2024-03-15"},
		{name: "missing", record: models.Record{"id": "x"}, want: NotAvailable},
		{name: "garbage", record: models.Record{"created_at": "yesterday"}, want: NotAvailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LastRunDate(tt.record))
		})
	}
}

func TestSources_OverAdapters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/e2e-reports":
			_, _ = w.Write([]byte(`[{"id":"e1","created_at":"2024-03-15T10:30:00Z","total_tests":5},{"id":"e2","total_tests":3}]`))
		case "/test-runs/p-1":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{}`))
		case "/api/smoke-tests/project/p-1":
			_, _ = w.Write([]byte(`{"success":true,"message":"No smoke tests found for this project"}`))
		default:
			_, _ = w.Write([]byte(`[]`))
		}
	}))
	defer server.Close()

	sources := Sources(adapters.NewSet(gateway.New(server.URL, nil)))
	summary := NewAggregator(sources...).Summarize(context.Background(), "p-1")

	require.Len(t, summary.Agents, 1)
	assert.Equal(t, DomainE2E, summary.Agents[0].ID)
	assert.Equal(t, 2, summary.Agents[0].TotalTests)
	assert.Equal(t, "2024-03-15", summary.Agents[0].LastRun)

	var failed []string
	for _, f := range summary.Failures {
		failed = append(failed, string(f.Domain))
	}
	sort.Strings(failed)
	assert.Equal(t, []string{"integration"}, failed)
	assert.Equal(t, gateway.MessageServer, summary.Failures[0].Message)

	_, ok := Lookup(sources, DomainSmoke)
	assert.True(t, ok)
}

func TestParseDomain(t *testing.T) {
	d, err := ParseDomain("E2E")
	require.NoError(t, err)
	assert.Equal(t, DomainE2E, d)

	d, err = ParseDomain("perf")
	require.NoError(t, err)
	assert.Equal(t, DomainPerformance, d)

	_, err = ParseDomain("security")
	assert.Error(t, err)
}
