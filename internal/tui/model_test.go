package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"ragchat/internal/domain"
	"ragchat/internal/service"
)

type askCall struct {
	question string
	k        int
}

type fakeSession struct {
	asks    []askCall
	loaded  []domain.Document
	resets  int
	records []domain.ChatRecord
	loadErr error
	askErr  error
}

func (f *fakeSession) LoadDocument(ctx context.Context, doc domain.Document) (*service.LoadedDocument, error) {
	f.loaded = append(f.loaded, doc)
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	f.records = nil
	return &service.LoadedDocument{
		Name:    doc.Name,
		Stats:   domain.Stats{Characters: 2500, Words: 400, Chunks: 3, AvgChunkSize: 833},
		Summary: "A short overview.",
	}, nil
}

func (f *fakeSession) Ask(ctx context.Context, q string, k int) (domain.ChatRecord, error) {
	f.asks = append(f.asks, askCall{q, k})
	rec := domain.ChatRecord{
		Question: q,
		Answer:   "answer to " + q,
		Context:  []domain.SearchResult{{Chunk: domain.Chunk{Text: "Relevant passage about " + q + "."}, Score: 0.8}},
	}
	if f.askErr != nil {
		rec.Answer = "❌ Error getting LLM response: " + f.askErr.Error()
		rec.Failed = true
	}
	f.records = append(f.records, rec)
	return rec, f.askErr
}

func (f *fakeSession) Reset() {
	f.resets++
	f.records = nil
}

func (f *fakeSession) Records() []domain.ChatRecord {
	out := make([]domain.ChatRecord, len(f.records))
	for i, r := range f.records {
		out[len(f.records)-1-i] = r
	}
	return out
}

func newTestModel(s *fakeSession, opts Options) Model {
	m := New(context.Background(), s, opts)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model)
}

func send(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func typeText(m Model, s string) Model {
	m, _ = send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

// results runs cmd and returns the async results it produces, ignoring
// spinner ticks and other UI messages.
func results(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	var out []tea.Msg
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			out = append(out, results(c)...)
		}
	case answerMsg, docLoadedMsg:
		out = append(out, msg)
	}
	return out
}

func runOne(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	msgs := results(cmd)
	if len(msgs) != 1 {
		t.Fatalf("expected one async result, got %d", len(msgs))
	}
	return msgs[0]
}

func TestAskFlow(t *testing.T) {
	s := &fakeSession{}
	m := newTestModel(s, Options{TopK: 4, MaxTopK: 8, ShowContext: true})

	m, cmd := send(m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil || len(s.asks) != 0 {
		t.Fatal("empty input must not ask")
	}

	m = typeText(m, "what is covered")
	m, cmd = send(m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.Busy() {
		t.Fatal("model should be busy while answering")
	}
	msg := runOne(t, cmd)
	if len(s.asks) != 1 || s.asks[0] != (askCall{"what is covered", 4}) {
		t.Fatalf("unexpected asks %+v", s.asks)
	}
	m, _ = send(m, msg)
	if m.Busy() {
		t.Error("model should be idle after the answer")
	}
	view := m.View()
	for _, want := range []string{"Q: what is covered", "A: answer to what is covered", "Sources (1):", "score=0.800"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestQuestionsWaitForInFlightAnswer(t *testing.T) {
	s := &fakeSession{}
	m := newTestModel(s, Options{})

	m = typeText(m, "first")
	m, first := send(m, tea.KeyMsg{Type: tea.KeyEnter})
	m = typeText(m, "second")
	m, queued := send(m, tea.KeyMsg{Type: tea.KeyEnter})
	if queued != nil {
		t.Fatal("second question must not start while the first is in flight")
	}

	m, next := send(m, runOne(t, first))
	if !m.Busy() {
		t.Fatal("queued question should start after the first answer")
	}
	m, _ = send(m, runOne(t, next))
	if len(s.asks) != 2 || s.asks[0].question != "first" || s.asks[1].question != "second" {
		t.Errorf("questions out of order: %+v", s.asks)
	}
	if m.Busy() {
		t.Error("expected idle after the queue drained")
	}
}

func TestTopKBoundsAndContextToggle(t *testing.T) {
	s := &fakeSession{}
	m := newTestModel(s, Options{TopK: 7, MaxTopK: 8, ShowContext: true})

	for i := 0; i < 3; i++ {
		m, _ = send(m, tea.KeyMsg{Type: tea.KeyCtrlN})
	}
	if m.TopK() != 8 {
		t.Errorf("k = %d, want 8", m.TopK())
	}
	for i := 0; i < 10; i++ {
		m, _ = send(m, tea.KeyMsg{Type: tea.KeyCtrlP})
	}
	if m.TopK() != 1 {
		t.Errorf("k = %d, want 1", m.TopK())
	}

	m = typeText(m, "q")
	m, cmd := send(m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = send(m, runOne(t, cmd))
	if s.asks[0].k != 1 {
		t.Errorf("question used k=%d", s.asks[0].k)
	}

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyCtrlT})
	if m.ShowContext() || strings.Contains(m.View(), "Sources") {
		t.Error("sources should be hidden after toggling")
	}
}

func TestResetClearsConversation(t *testing.T) {
	s := &fakeSession{}
	m := newTestModel(s, Options{})
	m = typeText(m, "hello")
	m, cmd := send(m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = send(m, runOne(t, cmd))

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyCtrlR})
	if s.resets != 1 {
		t.Fatal("reset not forwarded to the session")
	}
	if strings.Contains(m.View(), "Q: hello") {
		t.Error("cleared records still displayed")
	}
}

func TestLoadDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manual.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := &fakeSession{}
	m := newTestModel(s, Options{InitialFile: path})
	msgs := results(m.Init())
	if len(msgs) != 1 {
		t.Fatalf("expected the initial load, got %d results", len(msgs))
	}
	m, _ = send(m, msgs[0])
	if len(s.loaded) != 1 || s.loaded[0].Name != "manual.pdf" || string(s.loaded[0].Data) != "%PDF-1.4" {
		t.Fatalf("unexpected load %+v", s.loaded)
	}
	view := m.View()
	for _, want := range []string{"manual.pdf · 2500 characters · 400 words · 3 chunks · avg 833 chars/chunk", "A short overview."} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestQuestionDuringInitialLoadIsQueued(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manual.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := &fakeSession{}
	m := newTestModel(s, Options{TopK: 3, InitialFile: path})
	if !m.Busy() {
		t.Fatal("model should be busy until the initial load finishes")
	}
	if !strings.Contains(m.View(), "Processing manual.pdf") {
		t.Errorf("status should show the load: %s", m.View())
	}
	initCmd := m.Init()

	m = typeText(m, "q1")
	m, cmd := send(m, tea.KeyMsg{Type: tea.KeyEnter})
	if msgs := results(cmd); len(msgs) != 0 || len(s.asks) != 0 {
		t.Fatalf("question must wait for the load, got %d results and asks %+v", len(msgs), s.asks)
	}
	if len(m.queue) != 1 {
		t.Fatalf("expected one queued question, got %d", len(m.queue))
	}

	m, cmd = send(m, runOne(t, initCmd))
	if len(s.loaded) != 1 {
		t.Fatalf("expected one load, got %d", len(s.loaded))
	}
	if _, ok := runOne(t, cmd).(answerMsg); !ok || len(s.asks) != 1 || s.asks[0] != (askCall{"q1", 3}) {
		t.Fatalf("queued question not asked after load: %+v", s.asks)
	}
}

func TestLoadErrorIsShown(t *testing.T) {
	s := &fakeSession{loadErr: domain.E(domain.KindEmptyDocument, "load scan.pdf", errors.New("the document contains no extractable text"))}
	m := newTestModel(s, Options{})
	m, _ = send(m, docLoadedMsg{path: "scan.pdf", err: s.loadErr})
	if !strings.Contains(m.View(), "no text extracted") {
		t.Errorf("error not shown: %s", m.View())
	}
	if m.doc != nil {
		t.Error("failed load should leave no document")
	}
}

func TestFailedAnswerIsDisplayed(t *testing.T) {
	s := &fakeSession{askErr: errors.New("timeout")}
	m := newTestModel(s, Options{})
	m = typeText(m, "why")
	m, cmd := send(m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = send(m, runOne(t, cmd))
	view := m.View()
	if !strings.Contains(view, "Q: why") || !strings.Contains(view, "Error getting LLM response: timeout") {
		t.Errorf("failed record not displayed: %s", view)
	}
}

func TestFileChangeReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.docx")
	_ = os.WriteFile(path, []byte("v2"), 0o644)

	changes := make(chan string)
	s := &fakeSession{}
	m := newTestModel(s, Options{Changes: changes})
	// the re-armed listener returns at once instead of blocking the test
	close(changes)

	m, cmd := send(m, fileChangedMsg{path: path})
	msgs := results(cmd)
	if len(msgs) != 1 {
		t.Fatalf("expected a reload, got %d results", len(msgs))
	}
	m, _ = send(m, msgs[0])
	if len(s.loaded) != 1 || s.loaded[0].Name != "notes.docx" {
		t.Errorf("unexpected loads %+v", s.loaded)
	}
	if m.docPath != path {
		t.Errorf("docPath = %q", m.docPath)
	}
}

func TestHighlightBestSentence(t *testing.T) {
	got := highlightBestSentence("Cats purr.\nDogs   bark loudly.", "why do dogs bark")
	if !strings.Contains(got, "Dogs bark loudly.") || !strings.HasPrefix(got, "Cats purr.") {
		t.Errorf("got %q", got)
	}
	if highlightBestSentence("  ", "x") != "" {
		t.Error("expected empty output for blank text")
	}
}
