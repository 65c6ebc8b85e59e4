package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"pdfchat/internal/controller"
	"pdfchat/internal/domain"
	"pdfchat/internal/render"
)

// Options configures rendering.
type Options struct {
	Markdown      bool
	MarkdownStyle string
}

type field int

const (
	fieldPath field = iota
	fieldChat
)

// refreshMsg asks the model to resync with the screen.
type refreshMsg struct{}

// doneMsg marks the end of a dispatched event.
type doneMsg struct{ event domain.Event }

// Model is the Bubble Tea model for the chat interface.
type Model struct {
	ctx        context.Context
	screen     *screen
	dispatcher *controller.Dispatcher
	ctrl       *controller.Controller
	opts       Options
	renderer   render.Renderer

	pathInput textinput.Model
	chatInput textinput.Model
	viewport  viewport.Model
	focus     field
	snap      snapshot
	ready     bool
}

// New creates a model whose controller talks to backend.
func New(ctx context.Context, backend controller.Backend, opts Options, log *zap.Logger) Model {
	sc := newScreen()
	ctrl := controller.New(backend, sc.surfaces(), log)
	d := controller.NewDispatcher()
	ctrl.Bind(d)

	pi := textinput.New()
	pi.Prompt = "PDF > "
	pi.Placeholder = "path/to/document.pdf, Enter to upload"
	pi.CharLimit = 0
	pi.Focus()

	ci := textinput.New()
	ci.Prompt = "> "
	ci.Placeholder = "Ask a question about the PDF..."
	ci.CharLimit = 0

	m := Model{
		ctx:        ctx,
		screen:     sc,
		dispatcher: d,
		ctrl:       ctrl,
		opts:       opts,
		renderer:   render.NewStyled(opts.Markdown, opts.MarkdownStyle, 0),
		pathInput:  pi,
		chatInput:  ci,
		viewport:   viewport.New(0, 0),
	}
	m.snap = sc.take()
	return m
}

// Attach routes surface updates to p as redraw messages.
func (m Model) Attach(p *tea.Program) {
	m.screen.mu.Lock()
	m.screen.notify = func() { p.Send(refreshMsg{}) }
	m.screen.mu.Unlock()
}

// Controller exposes the controller driving this model.
func (m Model) Controller() *controller.Controller { return m.ctrl }

// Init fires the page-load event.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.fire(domain.EventLoad, ""))
}

func (m Model) fire(e domain.Event, payload string) tea.Cmd {
	ctx, d := m.ctx, m.dispatcher
	return func() tea.Msg {
		d.Fire(ctx, e, payload)
		return doneMsg{event: e}
	}
}

// Update handles key, window and surface events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, mh := messagesBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 1 + 2*(1+ih) + 2 // header, two input boxes, status + help
		vh := msg.Height - reserved - mh
		m.viewport.Width = max(20, msg.Width-4)
		m.viewport.Height = max(3, vh)
		m.pathInput.Width = max(10, msg.Width-12)
		m.chatInput.Width = max(10, msg.Width-8)
		m.renderer = render.NewStyled(m.opts.Markdown, m.opts.MarkdownStyle, m.viewport.Width)
		m.sync(m.screen.take())
		return m, nil
	case refreshMsg, doneMsg:
		m.sync(m.screen.take())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "tab", "shift+tab":
			m.toggleFocus()
			return m, nil
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case "enter":
			return m, m.submit()
		}
		return m.updateInput(msg)
	}
	return m.updateInput(msg)
}

func (m Model) submit() tea.Cmd {
	switch m.focus {
	case fieldPath:
		if m.snap.upload != domain.Enabled {
			return nil
		}
		return m.fire(domain.EventUpload, strings.TrimSpace(m.pathInput.Value()))
	default:
		if m.snap.chat != domain.Enabled {
			return nil
		}
		return m.fire(domain.EventChat, m.chatInput.Value())
	}
}

func (m Model) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case m.focus == fieldPath && m.snap.upload == domain.Enabled:
		m.pathInput, cmd = m.pathInput.Update(msg)
	case m.focus == fieldChat && m.snap.chat == domain.Enabled:
		m.chatInput, cmd = m.chatInput.Update(msg)
	}
	return m, cmd
}

func (m *Model) toggleFocus() {
	if m.focus == fieldPath {
		m.setFocus(fieldChat)
	} else {
		m.setFocus(fieldPath)
	}
}

func (m *Model) setFocus(f field) {
	m.focus = f
	if f == fieldChat {
		m.pathInput.Blur()
		m.chatInput.Focus()
	} else {
		m.chatInput.Blur()
		m.pathInput.Focus()
	}
}

// sync applies a screen snapshot to the widgets.
func (m *Model) sync(s snapshot) {
	m.snap = s
	if s.clearInput {
		m.chatInput.SetValue("")
	}
	if s.focusChat && s.chat == domain.Enabled {
		m.setFocus(fieldChat)
	}
	m.viewport.SetContent(m.renderMessages())
	if s.follow {
		m.viewport.GotoBottom()
	}
}

func (m Model) renderMessages() string {
	if len(m.snap.entries) == 0 {
		return ""
	}
	blocks := make([]string, len(m.snap.entries))
	for i, e := range m.snap.entries {
		blocks[i] = m.renderer.Render(e)
	}
	return strings.Join(blocks, "\n\n")
}

// View renders the layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("PDF Chat")
	messages := messagesBoxStyle.Render(m.viewport.View())
	upload := boxFor(m.snap.upload, m.focus == fieldPath).Render(m.pathInput.View())
	chat := boxFor(m.snap.chat, m.focus == fieldChat).Render(m.chatInput.View())
	status := statusStyle(m.snap.kind).Render(m.snap.status)
	help := helpStyle.Render("tab switch field • enter submit • pgup/pgdown scroll • ctrl+c quit")
	return header + "\n" + messages + "\n" + upload + "\n" + chat + "\n" + status + "\n" + help
}

var (
	messagesBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	helpStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func boxFor(s domain.ControlState, focused bool) lipgloss.Style {
	switch {
	case s == domain.Disabled:
		return inputBoxStyle.BorderForeground(lipgloss.Color("238")).Foreground(lipgloss.Color("240"))
	case focused:
		return inputBoxStyle.BorderForeground(lipgloss.Color("12"))
	default:
		return inputBoxStyle
	}
}

func statusStyle(k controller.StatusKind) lipgloss.Style {
	switch k {
	case controller.StatusError:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	case controller.StatusSuccess:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	}
}

// Run starts the program and blocks until the user quits.
func Run(ctx context.Context, backend controller.Backend, opts Options, altScreen bool, log *zap.Logger) error {
	m := New(ctx, backend, opts, log)
	var popts []tea.ProgramOption
	if altScreen {
		popts = append(popts, tea.WithAltScreen())
	}
	popts = append(popts, tea.WithContext(ctx))
	p := tea.NewProgram(m, popts...)
	m.Attach(p)
	_, err := p.Run()
	return err
}
