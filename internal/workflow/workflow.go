// Package workflow owns the analyze/rewrite request lifecycle and the
// single WorkflowState that the result surface renders.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/sprite-ai/coderefine/internal/api"
	"github.com/sprite-ai/coderefine/internal/logging"
	"github.com/sprite-ai/coderefine/internal/model"
	"github.com/sprite-ai/coderefine/internal/notify"
)

// MaxCodeLength is the largest submission, in characters.
const MaxCodeLength = 50000

// MaxReviewContext caps the findings sent along with a rewrite.
const MaxReviewContext = 10

var (
	ErrEmptyCode    = errors.New("please enter some code to analyze")
	ErrCodeTooLarge = fmt.Errorf("code too large (max %d characters)", MaxCodeLength)
	ErrBusy         = errors.New("request already in progress")
	ErrNoAnalysis   = errors.New("no analysis to rewrite")
	ErrStale        = errors.New("response superseded")
)

// Toast texts.
const (
	msgEmptyCode       = "Please enter some code to analyze"
	msgTooLarge        = "Code too large (max 50,000 characters)"
	msgAnalyzeOK       = "Analysis complete!"
	msgRewriteOK       = "Optimized code ready!"
	prefixAnalyzeError = "Error: "
	prefixRewriteError = "Rewrite failed: "
)

// Service is the subset of the remote API the controller drives.
type Service interface {
	Analyze(ctx context.Context, sessionID string, req model.AnalysisRequest) (*api.AnalyzeResult, error)
	Rewrite(ctx context.Context, sessionID string, req api.RewriteRequest) (*model.RewriteResult, error)
}

// SessionSource hands out the session id attached to every request.
type SessionSource interface {
	GetOrCreate() string
}

// Controller is the single authority over WorkflowState. Submit methods
// validate and transition synchronously and return an Op that performs
// the network call; callers decide where the Op runs.
type Controller struct {
	svc      Service
	sessions SessionSource
	notes    notify.Notifier
	logger   *log.Logger

	statusEvery time.Duration
	newTicker   func(time.Duration) Ticker

	mu        sync.Mutex
	state     State
	gen       uint64 // bumped whenever the held result is superseded
	sessionID string // adopted from the service, overrides sessions
	category  model.Category
	stopRot   context.CancelFunc
	subs      []func(State)
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithStatusTicker overrides the progress rotation interval and ticker.
func WithStatusTicker(every time.Duration, newTicker func(time.Duration) Ticker) Option {
	return func(c *Controller) {
		c.statusEvery = every
		c.newTicker = newTicker
	}
}

// New constructs a controller in the Idle state.
func New(svc Service, sessions SessionSource, notes notify.Notifier, opts ...Option) *Controller {
	c := &Controller{
		svc:         svc,
		sessions:    sessions,
		notes:       notes,
		logger:      logging.Default(),
		statusEvery: StatusInterval,
		newTicker:   NewTimeTicker,
		category:    model.DefaultCategory,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.state = State{Phase: PhaseIdle, Category: c.category}
	return c
}

// Subscribe registers f to receive every state change. f is called
// outside the controller lock and may call back into the controller.
// Deliveries from different goroutines can interleave; call State for
// the latest snapshot.
func (c *Controller) Subscribe(f func(State)) {
	c.mu.Lock()
	c.subs = append(c.subs, f)
	c.mu.Unlock()
}

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SessionID returns the id used for outbound requests.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionIDLocked()
}

func (c *Controller) sessionIDLocked() string {
	if c.sessionID != "" {
		return c.sessionID
	}
	return c.sessions.GetOrCreate()
}

// Op is one accepted request waiting to be performed.
type Op struct {
	c         *Controller
	kind      Kind
	gen       uint64
	sessionID string
	analyze   model.AnalysisRequest
	rewrite   api.RewriteRequest
	basis     *model.AnalysisResult
}

// Kind reports which request the op performs.
func (op *Op) Kind() Kind { return op.kind }

// Do performs the request and applies its outcome. It returns ErrStale
// when the outcome was discarded because a newer operation superseded it.
func (op *Op) Do(ctx context.Context) error {
	if op.kind == KindRewrite {
		res, err := op.c.svc.Rewrite(ctx, op.sessionID, op.rewrite)
		return op.c.finishRewrite(op, res, err)
	}
	res, err := op.c.svc.Analyze(ctx, op.sessionID, op.analyze)
	return op.c.finishAnalyze(op, res, err)
}

// validate trims the code and checks it against the submission limits.
func (c *Controller) validate(req *model.AnalysisRequest) error {
	req.Code = strings.TrimSpace(req.Code)
	switch {
	case req.Code == "":
		c.notes.Push(msgEmptyCode, notify.KindError)
		return ErrEmptyCode
	case utf8.RuneCountInString(req.Code) > MaxCodeLength:
		c.notes.Push(msgTooLarge, notify.KindError)
		return ErrCodeTooLarge
	}
	return nil
}

// SubmitAnalyze moves to Loading(Analyze) and drops any held result and
// rewrite. It fails with ErrBusy while an analysis is already loading,
// before the code is looked at.
func (c *Controller) SubmitAnalyze(req model.AnalysisRequest) (*Op, error) {
	c.mu.Lock()
	busy := c.state.IsLoading(KindAnalyze)
	c.mu.Unlock()
	if busy {
		return nil, ErrBusy
	}

	if err := c.validate(&req); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.state.IsLoading(KindAnalyze) {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	c.gen++
	op := &Op{c: c, kind: KindAnalyze, gen: c.gen, sessionID: c.sessionIDLocked(), analyze: req}
	c.setLocked(State{
		Phase:    PhaseLoading,
		Loading:  KindAnalyze,
		Status:   StatusMessages[0],
		Category: c.category,
	})
	c.startRotationLocked(op.gen)
	s, subs := c.state, c.subscribersLocked()
	c.mu.Unlock()

	c.logger.Debug("analyze submitted", logging.FieldLanguage, req.Language, logging.FieldModel, req.Model)
	publish(subs, s)
	return op, nil
}

// SubmitRewrite moves to Loading(Rewrite), keeping the held result on
// screen. It requires a result and fails with ErrBusy while a rewrite is
// already loading.
func (c *Controller) SubmitRewrite(req model.AnalysisRequest) (*Op, error) {
	c.mu.Lock()
	switch {
	case c.state.IsLoading(KindRewrite):
		c.mu.Unlock()
		return nil, ErrBusy
	case c.state.Phase != PhaseReady || c.state.Result == nil:
		c.mu.Unlock()
		return nil, ErrNoAnalysis
	}
	c.mu.Unlock()

	if err := c.validate(&req); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.state.Phase != PhaseReady || c.state.Result == nil {
		c.mu.Unlock()
		return nil, ErrNoAnalysis
	}
	result := c.state.Result
	op := &Op{
		c:         c,
		kind:      KindRewrite,
		gen:       c.gen,
		sessionID: c.sessionIDLocked(),
		basis:     result,
		rewrite: api.RewriteRequest{
			Code:     req.Code,
			Language: req.Language,
			Model:    req.Model,
			Issues:   ReviewContext(result),
		},
	}
	c.setLocked(State{
		Phase:    PhaseLoading,
		Loading:  KindRewrite,
		Result:   result,
		Category: c.category,
	})
	s, subs := c.state, c.subscribersLocked()
	c.mu.Unlock()

	c.logger.Debug("rewrite submitted", logging.FieldCount, len(op.rewrite.Issues))
	publish(subs, s)
	return op, nil
}

func (c *Controller) finishAnalyze(op *Op, res *api.AnalyzeResult, err error) error {
	c.mu.Lock()
	if op.gen != c.gen || !c.state.IsLoading(KindAnalyze) {
		c.mu.Unlock()
		c.logger.Debug("discarding stale analysis", logging.FieldError, err)
		return ErrStale
	}

	if err != nil {
		msg := api.Message(err)
		c.setLocked(State{Phase: PhaseError, Err: msg, Category: c.category})
		failed := c.state
		c.setLocked(State{Phase: PhaseIdle, Category: c.category})
		idle, subs := c.state, c.subscribersLocked()
		c.mu.Unlock()

		c.logger.Error("analysis failed", logging.FieldError, err)
		publish(subs, failed)
		publish(subs, idle)
		c.notes.Push(prefixAnalyzeError+msg, notify.KindError)
		return err
	}

	if res.SessionID != "" && res.SessionID != c.sessionIDLocked() {
		c.sessionID = res.SessionID
		c.logger.Debug("adopted session id", logging.FieldSession, res.SessionID)
	}
	c.setLocked(State{Phase: PhaseReady, Result: res.Analysis, Category: c.category})
	s, subs := c.state, c.subscribersLocked()
	c.mu.Unlock()

	c.logger.Info("analysis complete", logging.FieldScore, res.Analysis.OverallScore)
	publish(subs, s)
	c.notes.Push(msgAnalyzeOK, notify.KindSuccess)
	return nil
}

func (c *Controller) finishRewrite(op *Op, res *model.RewriteResult, err error) error {
	c.mu.Lock()
	if op.gen != c.gen || c.state.Result != op.basis || !c.state.IsLoading(KindRewrite) {
		c.mu.Unlock()
		c.logger.Debug("discarding stale rewrite", logging.FieldError, err)
		return ErrStale
	}

	if err != nil {
		msg := api.Message(err)
		c.setLocked(State{Phase: PhaseReady, Result: op.basis, Category: c.category})
		s, subs := c.state, c.subscribersLocked()
		c.mu.Unlock()

		c.logger.Error("rewrite failed", logging.FieldError, err)
		publish(subs, s)
		c.notes.Push(prefixRewriteError+msg, notify.KindError)
		return err
	}

	c.setLocked(State{Phase: PhaseReady, Result: op.basis, Rewrite: res, Category: c.category})
	s, subs := c.state, c.subscribersLocked()
	c.mu.Unlock()

	c.logger.Info("rewrite complete", logging.FieldCount, len(res.Changes))
	publish(subs, s)
	c.notes.Push(msgRewriteOK, notify.KindSuccess)
	return nil
}

// Reset returns to Idle and discards the held result and rewrite. Any
// in-flight response is discarded when it arrives.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.gen++
	c.setLocked(State{Phase: PhaseIdle, Category: c.category})
	s, subs := c.state, c.subscribersLocked()
	c.mu.Unlock()
	publish(subs, s)
}

// SelectCategory changes the displayed issue grouping. The choice is
// remembered for later analyses.
func (c *Controller) SelectCategory(cat model.Category) error {
	if !cat.Valid() {
		return fmt.Errorf("unknown category %q", cat)
	}
	c.mu.Lock()
	c.category = cat
	c.state.Category = cat
	s, subs := c.state, c.subscribersLocked()
	c.mu.Unlock()
	publish(subs, s)
	return nil
}

// Analyze submits and performs an analysis, blocking until it completes.
func (c *Controller) Analyze(ctx context.Context, req model.AnalysisRequest) (*model.AnalysisResult, error) {
	op, err := c.SubmitAnalyze(req)
	if err != nil {
		return nil, err
	}
	if err := op.Do(ctx); err != nil {
		return nil, err
	}
	return c.State().Result, nil
}

// Rewrite submits and performs a rewrite of the held analysis, blocking
// until it completes.
func (c *Controller) Rewrite(ctx context.Context, req model.AnalysisRequest) (*model.RewriteResult, error) {
	op, err := c.SubmitRewrite(req)
	if err != nil {
		return nil, err
	}
	if err := op.Do(ctx); err != nil {
		return nil, err
	}
	return c.State().Rewrite, nil
}

// setLocked replaces the state. Leaving Loading(Analyze) always stops the
// status rotation.
func (c *Controller) setLocked(s State) {
	if !s.IsLoading(KindAnalyze) && c.stopRot != nil {
		c.stopRot()
		c.stopRot = nil
	}
	c.state = s
}

func (c *Controller) startRotationLocked(gen uint64) {
	if c.stopRot != nil {
		c.stopRot()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.stopRot = cancel
	t := c.newTicker(c.statusEvery)
	go rotate(ctx, t, func(msg string) { c.setStatus(gen, msg) })
}

func (c *Controller) setStatus(gen uint64, msg string) {
	c.mu.Lock()
	if gen != c.gen || !c.state.IsLoading(KindAnalyze) {
		c.mu.Unlock()
		return
	}
	c.state.Status = msg
	s, subs := c.state, c.subscribersLocked()
	c.mu.Unlock()
	publish(subs, s)
}

func (c *Controller) subscribersLocked() []func(State) {
	return slices.Clone(c.subs)
}

func publish(subs []func(State), s State) {
	for _, f := range subs {
		f(s)
	}
}

// ReviewContext reduces the first findings of a result, drawn in order
// from bugs, security and performance, to the context sent with a rewrite.
func ReviewContext(r *model.AnalysisResult) []model.ReviewContext {
	out := make([]model.ReviewContext, 0, MaxReviewContext)
	for _, cat := range []model.Category{model.CategoryBugs, model.CategorySecurity, model.CategoryPerformance} {
		for _, is := range r.Issues(cat) {
			if len(out) == MaxReviewContext {
				return out
			}
			out = append(out, model.ReviewContext{Title: is.Title, Description: is.Description})
		}
	}
	return out
}
