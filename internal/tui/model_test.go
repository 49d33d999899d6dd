package tui

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booksum/internal/catalog"
	"booksum/internal/domain"
	"booksum/internal/service"
	"booksum/internal/session"
)

type fakeService struct {
	requests []service.SummaryRequest
	result   service.SummaryResult
}

func (f *fakeService) Summarize(_ context.Context, req service.SummaryRequest) service.SummaryResult {
	f.requests = append(f.requests, req)
	res := f.result
	res.Book = req.Book
	res.Language = req.Language
	return res
}

var books = []domain.BookInfo{
	{Filename: "a.pdf", Title: "Atomic Habits", Author: "James Clear"},
	{Filename: "b.pdf", Title: "Deep Work", Author: "Cal Newport"},
}

func newTestModel(t *testing.T, svc SummaryPort) Model {
	t.Helper()
	m := New(context.Background(), svc, session.New(books, "English"), t.TempDir())
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model)
}

func press(t *testing.T, m Model, msg tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestSelectAndGenerate(t *testing.T) {
	svc := &fakeService{result: service.SummaryResult{Text: "A fine summary."}}
	m := newTestModel(t, svc)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, m.session.Selected)
	assert.Equal(t, "Deep Work", m.session.Selected.Title)

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlG})
	require.NotNil(t, cmd)
	assert.True(t, m.busy)

	// Keys other than quit are ignored while a summary is being generated.
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "English", m.session.Language)

	req, err := m.session.Request()
	require.NoError(t, err)
	next, _ := m.Update(summaryMsg{result: svc.Summarize(context.Background(), req)})
	m = next.(Model)

	assert.False(t, m.busy)
	assert.Equal(t, viewSummary, m.view)
	require.NotNil(t, m.session.Last)
	assert.Equal(t, "A fine summary.", m.session.Last.Text)
	assert.Contains(t, m.View(), "Summary: Deep Work")
}

func TestGenerateWithoutSelection(t *testing.T) {
	m := newTestModel(t, &fakeService{})
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlG})
	assert.Nil(t, cmd)
	assert.False(t, m.busy)
	assert.Contains(t, m.status, session.ErrNoSelection.Error())
}

func TestFailedSummaryStaysUsable(t *testing.T) {
	svc := &fakeService{result: service.SummaryResult{Text: "Error: summary generation failed: boom", Failed: true}}
	m := newTestModel(t, svc)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	next, _ := m.Update(summaryMsg{result: service.SummaryResult{Book: books[0].Metadata(), Text: "Error: summary generation failed: boom", Failed: true}})
	m = next.(Model)
	assert.Contains(t, m.status, "failed")
	assert.Contains(t, m.View(), "boom")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Contains(t, m.status, session.ErrNotSummary.Error())
	entries, err := os.ReadDir(m.outputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, viewBrowse, m.view)
	_, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlG})
	assert.NotNil(t, cmd)
}

func TestEditTemplate(t *testing.T) {
	svc := &fakeService{result: service.SummaryResult{Text: "ok"}}
	m := newTestModel(t, svc)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlE})
	require.Equal(t, viewTemplate, m.view)
	assert.Contains(t, m.editor.Value(), "{{content}}")
	assert.Contains(t, m.View(), "ctrl+s: apply template")

	// Keys go to the editor, not to the global bindings.
	m.editor.SetValue("")
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("Summarise {{title}}")})
	assert.Equal(t, "Summarise {{title}}", m.editor.Value())
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "English", m.session.Language)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Equal(t, viewBrowse, m.view)
	assert.Equal(t, "Summarise {{title}}", m.session.Template)
	assert.Contains(t, m.status, "{author}, {content}")

	_, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlG})
	require.NotNil(t, cmd)
	req, err := m.session.Request()
	require.NoError(t, err)
	assert.Equal(t, "Summarise {{title}}", req.Template)
}

func TestEditTemplateDiscard(t *testing.T) {
	m := newTestModel(t, &fakeService{})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlE})
	m.editor.SetValue("something else")
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, viewBrowse, m.view)
	assert.Empty(t, m.session.Template)
	assert.Contains(t, m.status, "unchanged")
}

func TestFilterAndModes(t *testing.T) {
	m := newTestModel(t, &fakeService{})
	assert.Equal(t, catalog.ModeAll, m.session.Mode)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	assert.Equal(t, catalog.ModeTitle, m.session.Mode)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("deep")})
	require.Len(t, m.session.Matches, 1)
	assert.Equal(t, "Deep Work", m.session.Matches[0].Title)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	assert.Equal(t, catalog.ModeAuthor, m.session.Mode)
	assert.Empty(t, m.session.Matches)
}

func TestBothModeSplitsInput(t *testing.T) {
	m := newTestModel(t, &fakeService{})
	m.session.Mode = catalog.ModeBoth
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("habits/clear")})
	require.Len(t, m.session.Matches, 1)
	assert.Equal(t, "Atomic Habits", m.session.Matches[0].Title)
}

func TestLanguageCycle(t *testing.T) {
	m := newTestModel(t, &fakeService{})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "Spanish", m.session.Language)
	assert.Contains(t, m.View(), "language: Spanish")
}

func TestSaveMarkdown(t *testing.T) {
	m := newTestModel(t, &fakeService{})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Contains(t, m.status, session.ErrNoSummary.Error())

	m.session.Record(service.SummaryResult{Book: books[0].Metadata(), Language: "English", Text: "text"})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Contains(t, m.status, filepath.Join(m.outputDir, "atomic-habits.english.md"))
}

func TestQuit(t *testing.T) {
	m := newTestModel(t, &fakeService{})
	_, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
