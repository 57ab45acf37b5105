package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"ragchat/internal/domain"
	"ragchat/internal/service"
)

// SessionPort is the TUI-facing subset of the chat session.
type SessionPort interface {
	LoadDocument(ctx context.Context, doc domain.Document) (*service.LoadedDocument, error)
	Ask(ctx context.Context, question string, k int) (domain.ChatRecord, error)
	Reset()
	Records() []domain.ChatRecord
}

// Options configures a Model.
type Options struct {
	TopK        int
	MaxTopK     int
	ShowContext bool
	// StartDir is where the file picker opens.
	StartDir string
	// InitialFile is loaded on start when set.
	InitialFile string
	// Changes delivers paths of the loaded file after it changed on disk.
	Changes <-chan string
}

type mode int

const (
	modeChat mode = iota
	modePicker
)

type docLoadedMsg struct {
	path string
	doc  *service.LoadedDocument
	err  error
}

type answerMsg struct {
	rec domain.ChatRecord
	err error
}

type fileChangedMsg struct{ path string }

// Model is the Bubble Tea model for the chat application.
type Model struct {
	ctx     context.Context
	session SessionPort
	opts    Options
	keys    keyMap

	mode     mode
	input    textinput.Model
	viewport viewport.Model
	picker   filepicker.Model
	spinner  spinner.Model
	help     help.Model

	doc         *service.LoadedDocument
	docPath     string
	topK        int
	showContext bool
	busy        bool
	queue       []string
	reload      string
	status      string
	width       int
	ready       bool
}

// New creates a new TUI model instance.
func New(ctx context.Context, session SessionPort, opts Options) Model {
	if opts.MaxTopK <= 0 {
		opts.MaxTopK = 8
	}
	if opts.TopK < 1 || opts.TopK > opts.MaxTopK {
		opts.TopK = min(4, opts.MaxTopK)
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question about the document"
	ti.Focus()
	ti.CharLimit = 0

	fp := filepicker.New()
	fp.AllowedTypes = []string{".pdf", ".docx", ".PDF", ".DOCX"}
	fp.CurrentDirectory = opts.StartDir
	if fp.CurrentDirectory == "" {
		fp.CurrentDirectory, _ = os.Getwd()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:         ctx,
		session:     session,
		opts:        opts,
		keys:        defaultKeyMap(),
		input:       ti,
		viewport:    viewport.New(0, 0),
		picker:      fp,
		spinner:     sp,
		help:        help.New(),
		topK:        opts.TopK,
		showContext: opts.ShowContext,
		status:      "Press ctrl+o to open a PDF or DOCX file.",
	}
	// Init issues the initial load; questions typed before it lands are queued.
	if opts.InitialFile != "" {
		m.busy = true
		m.status = fmt.Sprintf("Processing %s...", filepath.Base(opts.InitialFile))
	}
	return m
}

// Init starts the cursor blink, the picker directory listing, the optional
// initial load and the watch listener.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.picker.Init()}
	if m.opts.InitialFile != "" {
		cmds = append(cmds, m.loadCmd(m.opts.InitialFile), m.spinner.Tick)
	}
	if m.opts.Changes != nil {
		cmds = append(cmds, waitForChange(m.opts.Changes))
	}
	return tea.Batch(cmds...)
}

// TopK is the number of chunks retrieved per question.
func (m Model) TopK() int { return m.topK }

// ShowContext reports whether retrieved chunks are displayed.
func (m Model) ShowContext() bool { return m.showContext }

// Busy reports whether a load or a question is in flight.
func (m Model) Busy() bool { return m.busy }

// Update handles key, window and async result messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.resize(msg.Width, msg.Height)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		if m.mode == modePicker {
			return m.updatePicker(msg)
		}
		return m.updateChat(msg)

	case docLoadedMsg:
		m.busy = false
		if msg.err != nil {
			m.doc = nil
			m.docPath = ""
			m.status = "Error: " + msg.err.Error()
		} else {
			m.doc = msg.doc
			m.docPath = msg.path
			m.status = fmt.Sprintf("Loaded %s. Ask away.", msg.doc.Name)
		}
		m.refresh()
		return m, m.next()

	case answerMsg:
		m.busy = false
		switch {
		case msg.err != nil:
			m.status = "Answer failed."
		case msg.rec.Notice != "":
			m.status = msg.rec.Notice
		default:
			m.status = "Done."
		}
		m.refresh()
		m.viewport.GotoTop()
		return m, m.next()

	case fileChangedMsg:
		cmd := waitForChange(m.opts.Changes)
		if m.busy {
			m.reload = msg.path
			return m, cmd
		}
		m.status = "File changed on disk, reloading..."
		return m, tea.Batch(cmd, m.startLoad(msg.path))

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	// cursor blinks and picker directory listings
	var inputCmd, pickerCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	m.picker, pickerCmd = m.picker.Update(msg)
	return m, tea.Batch(inputCmd, pickerCmd)
}

func (m Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Back) {
		m.mode = modeChat
		m.status = "Open cancelled."
		return m, nil
	}
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.mode = modeChat
		return m, tea.Batch(cmd, m.startLoad(path))
	}
	if ok, path := m.picker.DidSelectDisabledFile(msg); ok {
		m.status = fmt.Sprintf("%s is not a PDF or DOCX file.", filepath.Base(path))
	}
	return m, cmd
}

func (m Model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Ask):
		q := strings.TrimSpace(m.input.Value())
		if q == "" {
			return m, nil
		}
		m.input.Reset()
		if m.busy {
			m.queue = append(m.queue, q)
			m.status = fmt.Sprintf("Queued (%d waiting).", len(m.queue))
			return m, nil
		}
		return m, m.startAsk(q)

	case key.Matches(msg, m.keys.Open):
		if m.busy {
			m.status = "Busy, try again when the current request finishes."
			return m, nil
		}
		m.mode = modePicker
		m.status = "Select a PDF or DOCX file (esc to cancel)."
		return m, m.picker.Init()

	case key.Matches(msg, m.keys.Reset):
		if m.busy {
			m.status = "Busy, try again when the current request finishes."
			return m, nil
		}
		m.session.Reset()
		m.status = "Conversation cleared."
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.ToggleCtx):
		m.showContext = !m.showContext
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.MoreContext):
		m.topK = min(m.topK+1, m.opts.MaxTopK)
		return m, nil

	case key.Matches(msg, m.keys.LessContext):
		m.topK = max(m.topK-1, 1)
		return m, nil

	case key.Matches(msg, m.keys.ScrollUp, m.keys.ScrollDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) startAsk(q string) tea.Cmd {
	m.busy = true
	m.status = "Thinking..."
	session, ctx, k := m.session, m.ctx, m.topK
	ask := func() tea.Msg {
		rec, err := session.Ask(ctx, q, k)
		return answerMsg{rec: rec, err: err}
	}
	return tea.Batch(ask, m.spinner.Tick)
}

func (m *Model) startLoad(path string) tea.Cmd {
	m.busy = true
	m.queue = nil
	m.status = fmt.Sprintf("Processing %s...", filepath.Base(path))
	return tea.Batch(m.loadCmd(path), m.spinner.Tick)
}

func (m Model) loadCmd(path string) tea.Cmd {
	session, ctx := m.session, m.ctx
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return docLoadedMsg{path: path, err: err}
		}
		doc, err := session.LoadDocument(ctx, domain.Document{Name: filepath.Base(path), Data: data})
		return docLoadedMsg{path: path, doc: doc, err: err}
	}
}

// next starts deferred work: a pending reload first, then queued questions.
func (m *Model) next() tea.Cmd {
	if m.reload != "" {
		path := m.reload
		m.reload = ""
		return m.startLoad(path)
	}
	if len(m.queue) > 0 {
		q := m.queue[0]
		m.queue = m.queue[1:]
		return m.startAsk(q)
	}
	return nil
}

func waitForChange(ch <-chan string) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		path, ok := <-ch
		if !ok {
			return nil
		}
		return fileChangedMsg{path: path}
	}
}
