package workflow

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprite-ai/coderefine/internal/api"
	"github.com/sprite-ai/coderefine/internal/api/apitest"
	"github.com/sprite-ai/coderefine/internal/logging"
	"github.com/sprite-ai/coderefine/internal/model"
	"github.com/sprite-ai/coderefine/internal/notify"
	"github.com/sprite-ai/coderefine/internal/session"
)

const secondAnalysis = `{
	"overallScore": 91,
	"grade": "A",
	"summary": "clean",
	"bugs": [], "security": [], "performance": [], "bestPractices": [],
	"positives": ["tidy"]
}`

type note struct {
	msg  string
	kind notify.Kind
}

type recorder struct {
	mu    sync.Mutex
	notes []note
}

func (r *recorder) Push(msg string, kind notify.Kind) notify.Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, note{msg, kind})
	return notify.Toast{Message: msg, Kind: kind}
}

func (r *recorder) all() []note {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]note(nil), r.notes...)
}

type fakeTicker struct {
	ch      chan time.Time
	stopped chan struct{}
	once    sync.Once
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }
func (f *fakeTicker) Stop()               { f.once.Do(func() { close(f.stopped) }) }

type tickers struct {
	mu  sync.Mutex
	all []*fakeTicker
}

func (ts *tickers) factory(time.Duration) Ticker {
	t := &fakeTicker{ch: make(chan time.Time, 1), stopped: make(chan struct{})}
	ts.mu.Lock()
	ts.all = append(ts.all, t)
	ts.mu.Unlock()
	return t
}

func (ts *tickers) last(t *testing.T) *fakeTicker {
	t.Helper()
	ts.mu.Lock()
	defer ts.mu.Unlock()
	require.NotEmpty(t, ts.all)
	return ts.all[len(ts.all)-1]
}

type fixture struct {
	srv   *apitest.Server
	ctl   *Controller
	notes *recorder
	ticks *tickers
	kv    *session.MemoryKV
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := apitest.New(t)
	kv := session.NewMemoryKV()
	f := &fixture{srv: srv, notes: &recorder{}, ticks: &tickers{}, kv: kv}
	f.ctl = New(
		api.New(srv.URL, api.WithLogger(logging.Discard())),
		session.NewStore(kv, logging.Discard()),
		f.notes,
		WithLogger(logging.Discard()),
		WithStatusTicker(time.Second, f.ticks.factory),
	)
	return f
}

func pythonRequest(code string) model.AnalysisRequest {
	return model.AnalysisRequest{Code: code, Language: "python", Model: "m1"}
}

func TestAnalyzeSuccess(t *testing.T) {
	f := newFixture(t)

	res, err := f.ctl.Analyze(context.Background(), pythonRequest("  print(1)\n"))
	require.NoError(t, err)
	assert.Equal(t, 45, res.OverallScore)

	st := f.ctl.State()
	assert.Equal(t, PhaseReady, st.Phase)
	assert.Equal(t, model.CategoryBugs, st.Category)
	assert.Nil(t, st.Rewrite)

	reqs := f.srv.Requests(http.MethodPost, api.PathAnalyze)
	require.Len(t, reqs, 1)
	var body map[string]any
	require.NoError(t, reqs[0].Decode(&body))
	assert.Equal(t, "print(1)", body["code"], "code is trimmed")

	id, ok, _ := f.kv.Get(session.Key)
	require.True(t, ok)
	assert.Equal(t, id, reqs[0].SessionID)

	assert.Equal(t, []note{{"Analysis complete!", notify.KindSuccess}}, f.notes.all())
}

func TestEmptyCodeNeverHitsNetwork(t *testing.T) {
	f := newFixture(t)

	for _, code := range []string{"", "   \n\t"} {
		_, err := f.ctl.SubmitAnalyze(pythonRequest(code))
		assert.ErrorIs(t, err, ErrEmptyCode)
	}

	assert.Zero(t, f.srv.Count(http.MethodPost, api.PathAnalyze))
	assert.Equal(t, PhaseIdle, f.ctl.State().Phase)
	notes := f.notes.all()
	require.Len(t, notes, 2)
	assert.Equal(t, notify.KindError, notes[0].kind)
}

func TestCodeTooLarge(t *testing.T) {
	f := newFixture(t)

	code := make([]rune, MaxCodeLength+1)
	for i := range code {
		code[i] = 'é'
	}
	_, err := f.ctl.SubmitAnalyze(pythonRequest(string(code)))
	assert.ErrorIs(t, err, ErrCodeTooLarge)

	_, err = f.ctl.SubmitAnalyze(pythonRequest(string(code[:MaxCodeLength])))
	assert.NoError(t, err, "limit counts characters, not bytes")
}

func TestDuplicateAnalyzeIsRejected(t *testing.T) {
	f := newFixture(t)

	op, err := f.ctl.SubmitAnalyze(pythonRequest("x = 1"))
	require.NoError(t, err)
	before := f.ctl.State()

	again, err := f.ctl.SubmitAnalyze(pythonRequest("y = 2"))
	assert.ErrorIs(t, err, ErrBusy)
	assert.Nil(t, again)
	assert.Equal(t, before, f.ctl.State())
	assert.Zero(t, f.srv.Count(http.MethodPost, api.PathAnalyze))

	require.NoError(t, op.Do(context.Background()))
	assert.Equal(t, 1, f.srv.Count(http.MethodPost, api.PathAnalyze))
}

func TestDuplicateAnalyzeIgnoresEditorContents(t *testing.T) {
	f := newFixture(t)

	op, err := f.ctl.SubmitAnalyze(pythonRequest("print(1)"))
	require.NoError(t, err)
	before := f.ctl.State()

	tooLarge := make([]rune, MaxCodeLength+1)
	for i := range tooLarge {
		tooLarge[i] = 'x'
	}
	for _, code := range []string{"", "  \n", string(tooLarge)} {
		_, err := f.ctl.SubmitAnalyze(pythonRequest(code))
		assert.ErrorIs(t, err, ErrBusy)
	}

	assert.Empty(t, f.notes.all(), "no toast while busy")
	assert.Equal(t, before, f.ctl.State())
	require.NoError(t, op.Do(context.Background()))
}

func TestSubscribeDuringPublishWaitsForNextChange(t *testing.T) {
	f := newFixture(t)

	var late []Phase
	added := false
	f.ctl.Subscribe(func(State) {
		if !added {
			added = true
			f.ctl.Subscribe(func(s State) { late = append(late, s.Phase) })
		}
	})

	_, err := f.ctl.Analyze(context.Background(), pythonRequest("print(1)"))
	require.NoError(t, err)
	assert.Equal(t, []Phase{PhaseReady}, late, "a subscriber added mid-publish misses that publish")
}

func TestServiceErrorReturnsToIdle(t *testing.T) {
	f := newFixture(t)
	f.srv.OnAnalyze(apitest.Fail(http.StatusServiceUnavailable, "model unavailable"))

	var phases []Phase
	var errs []string
	f.ctl.Subscribe(func(s State) {
		phases = append(phases, s.Phase)
		errs = append(errs, s.Err)
	})

	_, err := f.ctl.Analyze(context.Background(), pythonRequest("x = 1"))
	var se *api.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)

	assert.Equal(t, []Phase{PhaseLoading, PhaseError, PhaseIdle}, phases)
	assert.Equal(t, "model unavailable", errs[1])
	assert.Equal(t, PhaseIdle, f.ctl.State().Phase)
	assert.Nil(t, f.ctl.State().Result)
	assert.Equal(t, []note{{"Error: model unavailable", notify.KindError}}, f.notes.all())
}

func TestTransportErrorUsesGenericMessage(t *testing.T) {
	f := newFixture(t)
	f.srv.Close()

	_, err := f.ctl.Analyze(context.Background(), pythonRequest("x = 1"))
	require.Error(t, err)
	assert.Equal(t, PhaseIdle, f.ctl.State().Phase)
	assert.Equal(t, []note{{"Error: " + api.GenericNetworkMessage, notify.KindError}}, f.notes.all())
}

func TestRewriteRequiresAnalysis(t *testing.T) {
	f := newFixture(t)

	_, err := f.ctl.SubmitRewrite(pythonRequest("x = 1"))
	assert.ErrorIs(t, err, ErrNoAnalysis)
	assert.Zero(t, f.srv.Count(http.MethodPost, api.PathRewrite))
}

func TestRewriteSuccessKeepsResult(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.ctl.Analyze(ctx, pythonRequest("x = 1"))
	require.NoError(t, err)

	op, err := f.ctl.SubmitRewrite(pythonRequest("x = 1"))
	require.NoError(t, err)
	loading := f.ctl.State()
	assert.True(t, loading.IsLoading(KindRewrite))
	assert.Same(t, result, loading.Result, "result stays on screen during rewrite")

	_, err = f.ctl.SubmitRewrite(pythonRequest("x = 1"))
	assert.ErrorIs(t, err, ErrBusy)

	require.NoError(t, op.Do(ctx))
	st := f.ctl.State()
	assert.True(t, st.Rewritten())
	assert.Same(t, result, st.Result)
	assert.Len(t, st.Rewrite.Changes, 3)

	reqs := f.srv.Requests(http.MethodPost, api.PathRewrite)
	require.Len(t, reqs, 1)
	var body api.RewriteRequest
	require.NoError(t, reqs[0].Decode(&body))
	assert.Equal(t, []model.ReviewContext{
		{Title: result.Bugs[0].Title, Description: result.Bugs[0].Description},
		{Title: result.Security[0].Title, Description: result.Security[0].Description},
		{Title: result.Security[1].Title, Description: result.Security[1].Description},
		{Title: result.Performance[0].Title, Description: result.Performance[0].Description},
		{Title: result.Performance[1].Title, Description: result.Performance[1].Description},
	}, body.Issues)

	notes := f.notes.all()
	assert.Equal(t, note{"Optimized code ready!", notify.KindSuccess}, notes[len(notes)-1])
}

func TestRewriteFailureKeepsResult(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.srv.OnRewrite(apitest.Fail(http.StatusInternalServerError, "Internal error: boom"))

	result, err := f.ctl.Analyze(ctx, pythonRequest("x = 1"))
	require.NoError(t, err)

	_, err = f.ctl.Rewrite(ctx, pythonRequest("x = 1"))
	require.Error(t, err)

	st := f.ctl.State()
	assert.Equal(t, PhaseReady, st.Phase)
	assert.Same(t, result, st.Result)
	assert.Nil(t, st.Rewrite)

	notes := f.notes.all()
	assert.Equal(t, note{"Rewrite failed: Internal error: boom", notify.KindError}, notes[len(notes)-1])
}

func TestStaleRewriteIsDiscarded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ctl.Analyze(ctx, pythonRequest("x = 1"))
	require.NoError(t, err)

	gate := make(chan struct{})
	slow := apitest.RewriteOK(apitest.SampleRewriteJSON)
	slow.Gate = gate
	f.srv.OnRewrite(slow)
	f.srv.OnAnalyze(apitest.AnalyzeOK(secondAnalysis))

	rewrite, err := f.ctl.SubmitRewrite(pythonRequest("x = 1"))
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- rewrite.Do(ctx) }()

	newer, err := f.ctl.Analyze(ctx, pythonRequest("x = 2"))
	require.NoError(t, err)
	assert.Equal(t, 91, newer.OverallScore)

	close(gate)
	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrStale)
	case <-time.After(5 * time.Second):
		t.Fatal("rewrite never returned")
	}

	st := f.ctl.State()
	assert.Equal(t, PhaseReady, st.Phase)
	assert.Same(t, newer, st.Result)
	assert.Nil(t, st.Rewrite)

	for _, n := range f.notes.all() {
		assert.NotEqual(t, "Optimized code ready!", n.msg)
	}
}

func TestResetDiscardsInFlightAnalysis(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	gate := make(chan struct{})
	slow := apitest.AnalyzeOK(apitest.SampleAnalysisJSON)
	slow.Gate = gate
	f.srv.OnAnalyze(slow)

	op, err := f.ctl.SubmitAnalyze(pythonRequest("x = 1"))
	require.NoError(t, err)
	f.ctl.Reset()
	close(gate)

	assert.ErrorIs(t, op.Do(ctx), ErrStale)
	assert.Equal(t, PhaseIdle, f.ctl.State().Phase)
	assert.Nil(t, f.ctl.State().Result)
	assert.Empty(t, f.notes.all())
}

func TestSelectCategoryPersistsAcrossAnalyses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.Error(t, f.ctl.SelectCategory("style"))
	require.NoError(t, f.ctl.SelectCategory(model.CategorySecurity))

	_, err := f.ctl.Analyze(ctx, pythonRequest("x = 1"))
	require.NoError(t, err)
	assert.Equal(t, model.CategorySecurity, f.ctl.State().Category)

	require.NoError(t, f.ctl.SelectCategory(model.CategoryPositives))
	_, err = f.ctl.Analyze(ctx, pythonRequest("x = 1"))
	require.NoError(t, err)
	assert.Equal(t, model.CategoryPositives, f.ctl.State().Category)
}

func TestAdoptsSessionFromService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.srv.OnAnalyze(apitest.Reply{Status: http.StatusOK, Body: map[string]any{
		"analysis":  map[string]any{"overallScore": 50, "grade": "C"},
		"sessionId": "server-assigned",
	}})

	_, err := f.ctl.Analyze(ctx, pythonRequest("x = 1"))
	require.NoError(t, err)
	assert.Equal(t, "server-assigned", f.ctl.SessionID())

	_, err = f.ctl.Analyze(ctx, pythonRequest("x = 1"))
	require.NoError(t, err)
	reqs := f.srv.Requests(http.MethodPost, api.PathAnalyze)
	require.Len(t, reqs, 2)
	assert.Equal(t, "server-assigned", reqs[1].SessionID)

	persisted, _, _ := f.kv.Get(session.Key)
	assert.NotEqual(t, "server-assigned", persisted)
}

func TestStatusRotationStopsWithLoading(t *testing.T) {
	for _, tc := range []struct {
		name  string
		reply apitest.Reply
	}{
		{"success", apitest.AnalyzeOK(apitest.SampleAnalysisJSON)},
		{"failure", apitest.Fail(http.StatusBadGateway, "bad gateway")},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			gate := make(chan struct{})
			reply := tc.reply
			reply.Gate = gate
			f.srv.OnAnalyze(reply)

			op, err := f.ctl.SubmitAnalyze(pythonRequest("x = 1"))
			require.NoError(t, err)
			assert.Equal(t, StatusMessages[0], f.ctl.State().Status)

			tk := f.ticks.last(t)
			tk.ch <- time.Now()
			require.Eventually(t, func() bool {
				return f.ctl.State().Status == StatusMessages[1]
			}, 2*time.Second, 5*time.Millisecond)

			close(gate)
			_ = op.Do(context.Background())

			select {
			case <-tk.stopped:
			case <-time.After(2 * time.Second):
				t.Fatal("status rotation outlived the loading state")
			}
			assert.Empty(t, f.ctl.State().Status)
		})
	}
}

func TestReviewContextCapsAtTen(t *testing.T) {
	mk := func(prefix string, n int) []model.Issue {
		out := make([]model.Issue, n)
		for i := range out {
			out[i] = model.Issue{Title: prefix, Description: prefix + " d"}
		}
		return out
	}
	r := &model.AnalysisResult{
		Bugs:          mk("bug", 4),
		Security:      mk("sec", 4),
		Performance:   mk("perf", 4),
		BestPractices: mk("bp", 4),
	}

	got := ReviewContext(r)
	require.Len(t, got, MaxReviewContext)
	assert.Equal(t, "bug", got[0].Title)
	assert.Equal(t, "sec", got[4].Title)
	assert.Equal(t, "perf", got[9].Title)

	assert.Empty(t, ReviewContext(&model.AnalysisResult{}))
}
