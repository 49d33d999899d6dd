package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"booksum/internal/catalog"
	"booksum/internal/service"
	"booksum/internal/session"
)

// SummaryPort is the TUI-facing subset of the summary service.
type SummaryPort interface {
	Summarize(ctx context.Context, req service.SummaryRequest) service.SummaryResult
}

type view int

const (
	viewBrowse view = iota
	viewSummary
	viewTemplate
)

type summaryMsg struct {
	result service.SummaryResult
}

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	ctx       context.Context
	service   SummaryPort
	session   *session.Session
	outputDir string

	input    textinput.Model
	editor   textarea.Model
	viewport viewport.Model
	spinner  spinner.Model

	view     view
	previous view
	cursor  int
	busy    bool
	status  string
	ready   bool
	listMax int
}

// New creates a new TUI model instance.
func New(ctx context.Context, svc SummaryPort, sess *session.Session, outputDir string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type to filter books"
	ti.Focus()
	ti.CharLimit = 0
	ta := textarea.New()
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.ShowLineNumbers = false
	ta.Placeholder = "Prompt template"
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	vp := viewport.New(0, 0)
	status := fmt.Sprintf("%d books loaded.", len(sess.Books))
	if len(sess.Books) == 0 {
		status = "No books found in the catalog."
	}
	return Model{
		ctx:       ctx,
		service:   svc,
		session:   sess,
		outputDir: outputDir,
		input:     ti,
		editor:    ta,
		viewport:  vp,
		spinner:   sp,
		status:    status,
		listMax:   10,
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, bh := boxStyle.GetFrameSize()
		reserved := 4 + bh // header, mode line, input, status
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = vh
		m.listMax = max(3, vh-2)
		m.editor.SetWidth(max(20, msg.Width-4))
		m.editor.SetHeight(vh)
		return m, nil
	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case summaryMsg:
		m.busy = false
		m.session.Record(msg.result)
		switch {
		case msg.result.Empty:
			m.status = "No content found for this book."
		case msg.result.Failed:
			m.status = "Generation failed, ctrl+g retries."
		default:
			m.status = fmt.Sprintf("Summary ready (%s). ctrl+s saves markdown, esc returns.", msg.result.Duration.Round(1e6))
		}
		m.view = viewSummary
		m.viewport.SetContent(m.renderSummary())
		m.viewport.GotoTop()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		if m.view == viewTemplate {
			return m.updateTemplate(msg)
		}
		switch msg.String() {
		case "ctrl+e":
			return m.editTemplate()
		case "tab":
			lang := m.session.NextLanguage()
			m.status = "Language: " + lang
			return m, nil
		case "ctrl+g":
			return m.generate()
		case "ctrl+s":
			p, err := m.session.SaveMarkdown(m.outputDir)
			if err != nil {
				m.status = "Error: " + err.Error()
			} else {
				m.status = "Saved " + p
			}
			return m, nil
		}
		if m.view == viewSummary {
			return m.updateSummary(msg)
		}
		return m.updateBrowse(msg)
	}
	var cmd tea.Cmd
	if m.view == viewTemplate {
		m.editor, cmd = m.editor.Update(msg)
		return m, cmd
	}
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// editTemplate opens the prompt template in the editor. The default for the
// current language is shown until the user changes it.
func (m Model) editTemplate() (tea.Model, tea.Cmd) {
	tmpl, err := m.session.EditableTemplate()
	if err != nil {
		m.status = "Error: " + err.Error()
		return m, nil
	}
	m.editor.SetValue(tmpl)
	m.previous = m.view
	m.view = viewTemplate
	m.input.Blur()
	m.status = "Editing the prompt template. Keep {{title}}, {{author}} and {{content}}. ctrl+s applies, esc discards."
	cmd := m.editor.Focus()
	return m, cmd
}

func (m Model) updateTemplate(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.status = "Template unchanged."
		return m.closeEditor()
	case "ctrl+s":
		missing := m.session.SetTemplate(m.editor.Value())
		switch {
		case m.session.Template == "":
			m.status = "Using the default template for " + m.session.Language + "."
		case len(missing) > 0:
			m.status = "Template applied, but it does not use " + strings.Join(missing, ", ") + "."
		default:
			m.status = "Template applied."
		}
		return m.closeEditor()
	}
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m Model) closeEditor() (tea.Model, tea.Cmd) {
	m.editor.Blur()
	m.view = m.previous
	cmd := m.input.Focus()
	return m, cmd
}

func (m Model) updateSummary(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.view = viewBrowse
		m.status = "Select a book."
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+t":
		m.session.Mode = m.session.Mode.Next()
		m.refilter()
		m.status = "Search by: " + m.session.Mode.String()
		return m, nil
	case "down":
		if n := len(m.session.Matches); n > 0 {
			m.cursor = (m.cursor + 1) % n
		}
		return m, nil
	case "up":
		if n := len(m.session.Matches); n > 0 {
			m.cursor = (m.cursor - 1 + n) % n
		}
		return m, nil
	case "enter":
		b, err := m.session.Select(m.cursor)
		if err != nil {
			m.status = "Error: " + err.Error()
			return m, nil
		}
		m.status = fmt.Sprintf("Selected %s. ctrl+g generates the summary.", b.Label())
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.refilter()
	return m, cmd
}

// refilter applies the input to the catalog. In "Both" mode the input is
// read as "title / author".
func (m *Model) refilter() {
	q := m.input.Value()
	title, author := q, q
	if m.session.Mode == catalog.ModeBoth {
		title, author = q, ""
		if i := strings.Index(q, "/"); i >= 0 {
			title, author = q[:i], q[i+1:]
		}
	}
	m.session.Search(title, author)
	if m.cursor >= len(m.session.Matches) {
		m.cursor = 0
	}
}

func (m Model) generate() (tea.Model, tea.Cmd) {
	req, err := m.session.Request()
	if err != nil {
		m.status = "Error: " + err.Error()
		return m, nil
	}
	m.busy = true
	m.status = fmt.Sprintf("Summarising %q in %s...", req.Book.Title, req.Language)
	ctx, svc := m.ctx, m.service
	run := func() tea.Msg {
		return summaryMsg{result: svc.Summarize(ctx, req)}
	}
	return m, tea.Batch(m.spinner.Tick, run)
}

// View renders the TUI layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("Book Summarizer") + "  " +
		dimStyle.Render(fmt.Sprintf("[%s] language: %s", m.session.Mode, m.session.Language))
	var body string
	switch m.view {
	case viewSummary:
		body = boxStyle.Render(m.viewport.View())
	case viewTemplate:
		body = boxStyle.Render(m.editor.View())
	default:
		body = boxStyle.Render(m.renderList())
	}
	status := m.status
	if m.busy {
		status = m.spinner.View() + " " + status
	}
	help := dimStyle.Render("enter: select  ctrl+g: summarise  tab: language  ctrl+t: search mode  ctrl+e: edit prompt  ctrl+s: save  esc: back  ctrl+c: quit")
	if m.view == viewTemplate {
		help = dimStyle.Render("ctrl+s: apply template  esc: discard  ctrl+c: quit")
	}
	return header + "\n" + body + "\n" + m.input.View() + "\n" + statusStyle.Render(status) + "\n" + help
}

func (m Model) renderList() string {
	matches := m.session.Matches
	if len(matches) == 0 {
		return "No matching books."
	}
	start := 0
	if m.cursor >= m.listMax {
		start = m.cursor - m.listMax + 1
	}
	end := min(len(matches), start+m.listMax)
	lines := make([]string, 0, end-start+1)
	lines = append(lines, dimStyle.Render(fmt.Sprintf("Found %d matching book(s)", len(matches))))
	for i := start; i < end; i++ {
		label := matches[i].Label()
		if m.session.Selected != nil && matches[i].Filename == m.session.Selected.Filename {
			label += " ✓"
		}
		if i == m.cursor {
			lines = append(lines, highlightStyle.Render("▸ "+label))
		} else {
			lines = append(lines, "  "+label)
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderSummary() string {
	last := m.session.Last
	if last == nil {
		return "No summary yet."
	}
	title := headerStyle.Render("Summary: " + last.Book.Title)
	text := last.Text
	if last.Failed || last.Empty {
		text = errorStyle.Render(text)
	}
	w := m.viewport.Width
	if w <= 0 {
		w = 80
	}
	return title + "\n\n" + lipgloss.NewStyle().Width(w).Render(text)
}

var (
	boxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	headerStyle    = lipgloss.NewStyle().Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)
