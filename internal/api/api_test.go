package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprite-ai/coderefine/internal/api"
	"github.com/sprite-ai/coderefine/internal/api/apitest"
	"github.com/sprite-ai/coderefine/internal/logging"
	"github.com/sprite-ai/coderefine/internal/model"
)

func newClient(srv *apitest.Server) *api.Client {
	return api.New(srv.URL, api.WithLogger(logging.Discard()), api.WithTimeout(5*time.Second))
}

func TestAnalyzeSendsContract(t *testing.T) {
	srv := apitest.New(t)
	c := newClient(srv)

	res, err := c.Analyze(context.Background(), "sess-1", model.AnalysisRequest{
		Code:     "print(1)",
		Language: "python",
		Model:    "m1",
	})
	require.NoError(t, err)
	assert.Equal(t, 45, res.Analysis.OverallScore)
	assert.Equal(t, "sess-1", res.SessionID)

	reqs := srv.Requests(http.MethodPost, api.PathAnalyze)
	require.Len(t, reqs, 1)
	assert.Equal(t, "sess-1", reqs[0].SessionID)

	var body map[string]any
	require.NoError(t, reqs[0].Decode(&body))
	assert.Equal(t, map[string]any{"code": "print(1)", "language": "python", "model": "m1"}, body)
}

func TestAnalyzeNormalizesIssues(t *testing.T) {
	srv := apitest.New(t)
	res, err := newClient(srv).Analyze(context.Background(), "s", model.AnalysisRequest{Code: "x", Language: "python"})
	require.NoError(t, err)

	a := res.Analysis
	assert.Equal(t, model.SeverityHigh, a.Bugs[0].Severity)
	assert.Equal(t, model.SeverityMedium, a.Performance[1].Severity)
	assert.Equal(t, "Use sum()", a.Performance[0].Fix)
	assert.Equal(t, "Use a context manager", a.BestPractices[0].Fix)
	assert.Equal(t, "CWE-89", a.Security[0].CWE)
	assert.Empty(t, a.Security[1].CWE)
}

func TestStatusErrorDetail(t *testing.T) {
	tests := []struct {
		name  string
		reply apitest.Reply
		want  string
	}{
		{"string detail", apitest.Fail(http.StatusServiceUnavailable, "model unavailable"), "model unavailable"},
		{"no body", apitest.Reply{Status: http.StatusBadGateway}, "HTTP 502"},
		{"non-json body", apitest.Reply{Status: http.StatusInternalServerError, Body: "<html>oops</html>"}, "HTTP 500"},
		{
			"validation list",
			apitest.Reply{Status: http.StatusUnprocessableEntity, Body: map[string]any{
				"detail": []map[string]any{{"loc": []string{"body", "code"}, "msg": "Code cannot be empty"}},
			}},
			"Code cannot be empty",
		},
		{"error key", apitest.Reply{Status: http.StatusBadRequest, Body: map[string]any{"error": "bad input"}}, "bad input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := apitest.New(t)
			srv.OnAnalyze(tt.reply)

			_, err := newClient(srv).Analyze(context.Background(), "s", model.AnalysisRequest{Code: "x"})
			require.Error(t, err)

			var se *api.StatusError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.reply.Status, se.StatusCode)
			assert.Equal(t, tt.want, api.Message(err))
		})
	}
}

func TestTransportErrorMessage(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c := api.New(url, api.WithLogger(logging.Discard()))
	_, err := c.History(context.Background(), "s")
	require.Error(t, err)

	var te *api.TransportError
	assert.True(t, errors.As(err, &te))
	assert.Equal(t, api.GenericNetworkMessage, api.Message(err))
}

func TestAnalyzeAcceptsLooseNumbers(t *testing.T) {
	srv := apitest.New(t)
	srv.OnAnalyze(apitest.AnalyzeOK(`{"overallScore": 72.5, "grade": "B",
		"metrics": {"maintainability": "65.5", "testability": 40, "readability": 70.2, "linesOfCode": 12}}`))

	res, err := newClient(srv).Analyze(context.Background(), "s", model.AnalysisRequest{Code: "x", Language: "python"})
	require.NoError(t, err)
	assert.Equal(t, 73, res.Analysis.OverallScore)
	require.NotNil(t, res.Analysis.Metrics)
	assert.Equal(t, 66, res.Analysis.Metrics.Maintainability)
	assert.Equal(t, 70, res.Analysis.Metrics.Readability)
}

func TestDecodeErrorOnMissingEnvelope(t *testing.T) {
	srv := apitest.New(t)
	srv.OnRewrite(apitest.Reply{Status: http.StatusOK, Body: map[string]any{"success": true}})

	_, err := newClient(srv).Rewrite(context.Background(), "s", api.RewriteRequest{Code: "x"})
	var de *api.DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "Invalid response from analysis service", api.Message(err))
}

func TestRewriteSendsIssues(t *testing.T) {
	srv := apitest.New(t)
	rw, err := newClient(srv).Rewrite(context.Background(), "s", api.RewriteRequest{
		Code:     "x",
		Language: "go",
		Issues:   []model.ReviewContext{{Title: "t", Description: "d"}},
	})
	require.NoError(t, err)
	assert.Len(t, rw.Changes, 3)

	var body struct {
		Issues []model.ReviewContext `json:"issues"`
	}
	require.NoError(t, srv.Requests(http.MethodPost, api.PathRewrite)[0].Decode(&body))
	assert.Equal(t, []model.ReviewContext{{Title: "t", Description: "d"}}, body.Issues)
}

func TestHistoryRoundTrip(t *testing.T) {
	srv := apitest.New(t)
	c := newClient(srv)
	ctx := context.Background()

	entries, err := c.History(ctx, "s")
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = c.Analyze(ctx, "s", model.AnalysisRequest{Code: "x", Language: "go"})
	require.NoError(t, err)

	entries, err = c.History(ctx, "s")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "go", entries[0].Language)

	require.NoError(t, c.ClearHistory(ctx, "s"))
	entries, err = c.History(ctx, "s")
	require.NoError(t, err)
	assert.Empty(t, entries)

	del := srv.Requests(http.MethodDelete, api.PathHistory)
	require.Len(t, del, 1)
	assert.Equal(t, "s", del[0].SessionID)
}
