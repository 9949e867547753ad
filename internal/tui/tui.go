// Package tui implements the Bubble Tea result surface. It dispatches user
// intents to the workflow controller and renders whatever state the
// controller holds.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/sprite-ai/coderefine/internal/editor"
	"github.com/sprite-ai/coderefine/internal/history"
	"github.com/sprite-ai/coderefine/internal/logging"
	"github.com/sprite-ai/coderefine/internal/model"
	"github.com/sprite-ai/coderefine/internal/notify"
	"github.com/sprite-ai/coderefine/internal/workflow"
)

const (
	msgUsedOptimized   = "Optimized code moved to editor"
	msgCodeCopied      = "Code copied!"
	msgOptimizedCopied = "Optimized code copied!"
	msgNothingToCopy   = "Nothing to copy"
	msgCopyFailed      = "Copy failed"
)

type tab int

const (
	tabAnalyze tab = iota
	tabHistory
)

type focus int

const (
	focusEditor focus = iota
	focusResults
)

type stateMsg struct{}

type toastsMsg struct{}

type opDoneMsg struct {
	kind workflow.Kind
	err  error
}

type historyMsg struct {
	entries []model.HistoryEntry
}

type historyClearedMsg struct {
	err error
}

// Deps are the collaborators the surface drives.
type Deps struct {
	Controller *workflow.Controller
	History    *history.Sync
	Notes      *notify.Queue
	Logger     *log.Logger
	// Clipboard writes copied text; defaults to the system clipboard.
	Clipboard func(string) error
}

// Options seed the surface.
type Options struct {
	// Code preloads the editor; the language sample is used when empty.
	Code     string
	Language model.LanguageTag
	Model    string
	// Path is the file Code was read from, if any.
	Path string
	// Location renders history timestamps; defaults to time.Local.
	Location *time.Location
}

// Model is the top-level Bubble Tea model for coderefine.
type Model struct {
	ctx    context.Context
	ctl    *workflow.Controller
	hist   *history.Sync
	notes  *notify.Queue
	logger *log.Logger
	clip   func(string) error

	editor  *editor.Area
	spinner spinner.Model
	phase   float64 // status pulse animation

	state    workflow.State
	language model.LanguageTag
	aiModel  string
	path     string
	original string

	// UI state
	width  int
	height int
	tab    tab
	focus  focus
	scroll int

	rewriteOpen bool
	accepted    int

	history        []model.HistoryEntry
	historyLoading bool
	loc            *time.Location

	showHelp bool
}

// New creates the surface in the Idle state.
func New(deps Deps, opts Options) Model {
	lang := opts.Language
	if lang == "" {
		lang = "python"
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.Default()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	copyFn := deps.Clipboard
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}

	ed := editor.New("Paste or type code to review...")
	if opts.Code != "" {
		ed.SetText(opts.Code)
		ed.SetSyntaxMode(lang)
	} else {
		editor.LoadSample(ed, lang)
	}
	ed.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorPurple)

	return Model{
		ctx:      context.Background(),
		ctl:      deps.Controller,
		hist:     deps.History,
		notes:    deps.Notes,
		logger:   logger,
		clip:     copyFn,
		editor:   ed,
		spinner:  sp,
		state:    deps.Controller.State(),
		language: lang,
		aiModel:  opts.Model,
		path:     opts.Path,
		original: ed.Text(),
		loc:      loc,

		historyLoading: true,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.loadHistory()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case stateMsg:
		m.state = m.ctl.State()
		return m, nil

	case toastsMsg:
		return m, nil

	case opDoneMsg:
		m.state = m.ctl.State()
		if msg.err == nil && msg.kind == workflow.KindRewrite {
			m.rewriteOpen = true
		}
		if msg.err != nil {
			m.logger.Debug("operation finished with error", logging.FieldKind, msg.kind, logging.FieldError, msg.err)
		}
		return m, nil

	case historyMsg:
		m.history = msg.entries
		m.historyLoading = false
		return m, nil

	case historyClearedMsg:
		if msg.err == nil {
			m.history = m.hist.Entries()
		}
		return m, nil

	case spinner.TickMsg:
		if m.state.Phase != workflow.PhaseLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.phase += 0.35
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.focus == focusEditor && m.tab == tabAnalyze {
		return m, m.editor.Update(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.ForceQuit) {
		return m, tea.Quit
	}

	if m.showHelp {
		if key.Matches(msg, keys.Help, keys.Focus, keys.Quit) {
			m.showHelp = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Analyze):
		return m.submitAnalyze()
	case key.Matches(msg, keys.Rewrite):
		return m.submitRewrite()
	case key.Matches(msg, keys.SwitchTab):
		return m.switchTab()
	case key.Matches(msg, keys.Clear):
		m.clear()
		return m, nil
	}

	if m.focus == focusEditor && m.tab == tabAnalyze {
		if key.Matches(msg, keys.Focus) {
			m.setFocus(focusResults)
			return m, nil
		}
		cmd := m.editor.Update(msg)
		m.layout()
		return m, cmd
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Help):
		m.showHelp = true

	case key.Matches(msg, keys.Focus):
		if m.tab == tabHistory {
			m.tab = tabAnalyze
		}
		m.setFocus(focusEditor)

	case key.Matches(msg, keys.Down):
		if m.scroll < m.scrollLimit() {
			m.scroll++
		}

	case key.Matches(msg, keys.Up):
		if m.scroll > 0 {
			m.scroll--
		}
	}

	if m.tab == tabHistory {
		return m.handleHistoryKey(msg)
	}
	return m.handleResultsKey(msg)
}

func (m Model) handleResultsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Category):
		idx := int(msg.Runes[0] - '1')
		m.selectCategory(model.Categories[idx])

	case key.Matches(msg, keys.NextCat):
		m.selectCategory(m.shiftCategory(1))

	case key.Matches(msg, keys.PrevCat):
		m.selectCategory(m.shiftCategory(-1))

	case key.Matches(msg, keys.UseOptim):
		m.useOptimized()

	case key.Matches(msg, keys.CopyCode):
		return m, m.copyText(m.editor.Text(), msgCodeCopied)

	case key.Matches(msg, keys.CopyOptim):
		var code string
		if m.state.Rewritten() {
			code = m.state.Rewrite.OptimizedCode
		}
		return m, m.copyText(code, msgOptimizedCopied)

	case key.Matches(msg, keys.ClosePanel):
		m.rewriteOpen = false

	case key.Matches(msg, keys.Sample):
		editor.LoadSample(m.editor, m.language)
		m.notes.Info("Sample code loaded")

	case key.Matches(msg, keys.NextLang):
		m.setLanguage(m.shiftLanguage(1))

	case key.Matches(msg, keys.PrevLang):
		m.setLanguage(m.shiftLanguage(-1))
	}
	return m, nil
}

func (m Model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.ClearHist):
		return m, m.clearHistory()
	case key.Matches(msg, keys.RefreshHist):
		return m, m.loadHistory()
	}
	return m, nil
}

func (m *Model) request() model.AnalysisRequest {
	return model.AnalysisRequest{
		Code:     m.editor.Text(),
		Language: m.language,
		Model:    m.aiModel,
	}
}

func (m Model) submitAnalyze() (tea.Model, tea.Cmd) {
	op, err := m.ctl.SubmitAnalyze(m.request())
	m.state = m.ctl.State()
	if err != nil {
		m.logger.Debug("analyze not submitted", logging.FieldError, err)
		return m, nil
	}
	m.tab = tabAnalyze
	m.rewriteOpen = false
	m.scroll = 0
	return m, tea.Batch(m.run(op), m.spinner.Tick)
}

func (m Model) submitRewrite() (tea.Model, tea.Cmd) {
	op, err := m.ctl.SubmitRewrite(m.request())
	m.state = m.ctl.State()
	if err != nil {
		m.logger.Debug("rewrite not submitted", logging.FieldError, err)
		return m, nil
	}
	m.rewriteOpen = false
	return m, tea.Batch(m.run(op), m.spinner.Tick)
}

func (m *Model) run(op *workflow.Op) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{kind: op.Kind(), err: op.Do(ctx)}
	}
}

func (m *Model) selectCategory(c model.Category) {
	if err := m.ctl.SelectCategory(c); err != nil {
		return
	}
	m.state = m.ctl.State()
	m.scroll = 0
}

func (m *Model) shiftCategory(delta int) model.Category {
	cats := model.Categories
	idx := 0
	for i, c := range cats {
		if c == m.state.Category {
			idx = i
		}
	}
	return cats[(idx+delta+len(cats))%len(cats)]
}

func (m *Model) shiftLanguage(delta int) model.LanguageTag {
	langs := model.Languages
	idx := -1
	for i, l := range langs {
		if l == m.language {
			idx = i
		}
	}
	if idx < 0 {
		return langs[0]
	}
	return langs[(idx+delta+len(langs))%len(langs)]
}

func (m *Model) setLanguage(l model.LanguageTag) {
	m.language = l
	m.editor.SetSyntaxMode(l)
}

func (m *Model) useOptimized() {
	if !m.rewriteOpen || !m.state.Rewritten() {
		return
	}
	m.editor.SetText(m.state.Rewrite.OptimizedCode)
	m.rewriteOpen = false
	m.accepted++
	m.notes.Success(msgUsedOptimized)
}

// copyText writes text to the clipboard off the event loop and reports
// the outcome as a toast.
func (m *Model) copyText(text, done string) tea.Cmd {
	if text == "" {
		m.notes.Error(msgNothingToCopy)
		return nil
	}
	write, notes, logger := m.clip, m.notes, m.logger
	return func() tea.Msg {
		if err := write(text); err != nil {
			logger.Warn("clipboard write failed", logging.FieldError, err)
			notes.Error(msgCopyFailed)
			return nil
		}
		notes.Success(done)
		return nil
	}
}

func (m *Model) clear() {
	m.editor.SetText("")
	m.ctl.Reset()
	m.state = m.ctl.State()
	m.rewriteOpen = false
	m.scroll = 0
}

func (m Model) switchTab() (tea.Model, tea.Cmd) {
	m.scroll = 0
	if m.tab == tabAnalyze {
		m.tab = tabHistory
		m.setFocus(focusResults)
		return m, m.loadHistory()
	}
	m.tab = tabAnalyze
	return m, nil
}

func (m *Model) setFocus(f focus) {
	m.focus = f
	if f == focusEditor {
		m.editor.Focus()
	} else {
		m.editor.Blur()
	}
}

func (m *Model) loadHistory() tea.Cmd {
	m.historyLoading = true
	hist, ctx := m.hist, m.ctx
	return func() tea.Msg {
		return historyMsg{entries: hist.Load(ctx)}
	}
}

func (m *Model) clearHistory() tea.Cmd {
	hist, ctx := m.hist, m.ctx
	return func() tea.Msg {
		return historyClearedMsg{err: hist.Clear(ctx)}
	}
}

// layout sizes the editor to the left pane.
func (m *Model) layout() {
	if m.width == 0 {
		return
	}
	w, h := m.editorPaneWidth()-4, m.bodyHeight()-3
	if h < 1 {
		h = 1
	}
	m.editor.SetSize(w, h)
}

func (m Model) editorPaneWidth() int {
	w := m.width / 2
	if w < 30 {
		w = 30
	}
	return w
}

func (m Model) bodyHeight() int {
	// header + toasts + status bar
	return m.height - 2 - m.toastHeight()
}

// scrollLimit is the largest useful scroll offset of the active pane.
func (m Model) scrollLimit() int {
	innerHeight := m.bodyHeight() - 2
	if m.tab == tabHistory {
		return maxScroll(m.historyLines(m.width-4), innerHeight)
	}
	return maxScroll(m.resultsLines(m.width-m.editorPaneWidth()-1-4), innerHeight)
}

func (m Model) toastHeight() int {
	return len(m.notes.Toasts())
}

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	header := m.renderHeader()

	var body string
	if m.tab == tabHistory {
		body = m.renderHistory(m.width, m.bodyHeight())
	} else {
		left := m.renderEditor(m.editorPaneWidth(), m.bodyHeight())
		right := m.renderResults(m.width-m.editorPaneWidth()-1, m.bodyHeight())
		body = lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)
	}

	parts := []string{header, body}
	if toasts := m.renderToasts(); toasts != "" {
		parts = append(parts, toasts)
	}
	parts = append(parts, m.renderStatusBar())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderHeader() string {
	tabs := []string{"Analyze", "History"}
	var b strings.Builder
	b.WriteString(brandStyle.Render("CodeRefine"))
	for i, name := range tabs {
		if tab(i) == m.tab {
			b.WriteString(tabActiveStyle.Render(name))
		} else {
			b.WriteString(tabStyle.Render(name))
		}
	}

	aiModel := m.aiModel
	if aiModel == "" {
		aiModel = "default model"
	}
	sid := m.ctl.SessionID()
	if len(sid) > 8 {
		sid = sid[:8]
	}
	right := dimStyle.Render(fmt.Sprintf("%s · %s · session %s ", m.language, aiModel, sid))

	left := b.String()
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) renderStatusBar() string {
	var left string
	switch {
	case m.state.IsLoading(workflow.KindAnalyze):
		left = " Analyzing..."
	case m.state.IsLoading(workflow.KindRewrite):
		left = " Generating optimized code..."
	default:
		left = " " + m.editor.CharCount()
	}
	if m.path != "" {
		left += "  " + m.path
	}

	hints := []key.Binding{keys.Analyze, keys.Rewrite, keys.SwitchTab, keys.Focus, keys.Help}
	var parts []string
	for _, h := range hints {
		parts = append(parts, statusKeyStyle.Render(h.Help().Key)+statusBarStyle.UnsetPadding().Render(" "+h.Help().Desc))
	}
	right := strings.Join(parts, "  ") + " "

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 0 {
		gap = 0
	}
	return statusBarStyle.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderHelp() string {
	var b strings.Builder

	b.WriteString(helpHeaderStyle.Render("coderefine — Keyboard Shortcuts"))
	b.WriteString("\n\n")

	helpItems := []key.Binding{
		keys.Analyze, keys.Rewrite, keys.SwitchTab, keys.Focus, keys.Clear,
		keys.Category, keys.NextCat, keys.PrevCat, keys.Up, keys.Down,
		keys.UseOptim, keys.CopyCode, keys.CopyOptim, keys.ClosePanel, keys.Sample, keys.NextLang, keys.PrevLang,
		keys.ClearHist, keys.RefreshHist, keys.Help, keys.Quit,
	}

	for _, item := range helpItems {
		b.WriteString(fmt.Sprintf("  %s  %s\n",
			helpKeyStyle.Width(12).Render(item.Help().Key),
			item.Help().Desc,
		))
	}

	b.WriteString("\n")
	b.WriteString(helpBarStyle.Render("Press ? to close help"))

	return b.String()
}

// Outcome reports the editor contents when the surface exits.
func (m Model) Outcome() Outcome {
	return Outcome{
		Path:     m.path,
		Language: m.language,
		Original: m.original,
		Code:     m.editor.Text(),
		Accepted: m.accepted,
	}
}

// Run starts the interactive surface and blocks until the user quits.
func Run(ctx context.Context, deps Deps, opts Options) (Outcome, error) {
	m := New(deps, opts)
	m.ctx = ctx

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	// Sends happen off the event loop: callbacks may fire from within Update.
	deps.Controller.Subscribe(func(workflow.State) { go p.Send(stateMsg{}) })
	deps.Notes.OnChange(func() { go p.Send(toastsMsg{}) })

	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		return fm.Outcome(), err
	}
	return m.Outcome(), err
}
