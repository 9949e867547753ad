package workflow

import "github.com/sprite-ai/coderefine/internal/model"

// Phase is the coarse workflow state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseReady
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// Kind identifies a request type.
type Kind int

const (
	KindAnalyze Kind = iota
	KindRewrite
)

func (k Kind) String() string {
	if k == KindRewrite {
		return "rewrite"
	}
	return "analyze"
}

// State is a snapshot of the workflow. Result and Rewrite are shared with
// the controller and must be treated as read-only.
type State struct {
	Phase Phase
	// Loading is the in-flight request kind while Phase is PhaseLoading.
	Loading Kind
	// Status is the rotating progress line shown during an analysis.
	Status string
	// Result is held in PhaseReady and while a rewrite is loading.
	Result *model.AnalysisResult
	// Rewrite is set once a rewrite for Result has arrived.
	Rewrite *model.RewriteResult
	// Category is the selected issue grouping.
	Category model.Category
	// Err is the failure message in PhaseError.
	Err string
}

// IsLoading reports whether a request of kind k is in flight.
func (s State) IsLoading(k Kind) bool {
	return s.Phase == PhaseLoading && s.Loading == k
}

// Rewritten reports whether the state holds a rewrite of the current result.
func (s State) Rewritten() bool {
	return s.Phase == PhaseReady && s.Rewrite != nil
}

// HasResult reports whether an analysis is available for display.
func (s State) HasResult() bool {
	return s.Result != nil
}
