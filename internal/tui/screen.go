package tui

import (
	"sync"

	"pdfchat/internal/controller"
	"pdfchat/internal/domain"
	"pdfchat/internal/render"
)

// screen is the shared state behind the controller surfaces. Controller
// operations run inside tea.Cmds, so every mutation is guarded and followed
// by a redraw request.
type screen struct {
	mu      sync.Mutex
	entries []render.Entry
	status  string
	kind    controller.StatusKind
	upload  domain.ControlState
	chat    domain.ControlState

	clearInput bool
	focusChat  bool
	follow     bool

	notify func()
}

func newScreen() *screen {
	return &screen{upload: domain.Enabled, chat: domain.Disabled}
}

func (s *screen) surfaces() controller.Surfaces {
	return controller.Surfaces{Messages: s, Status: s, Controls: s}
}

func (s *screen) update(fn func()) {
	s.mu.Lock()
	fn()
	notify := s.notify
	s.mu.Unlock()
	if notify != nil {
		notify()
	}
}

func (s *screen) Append(e render.Entry) { s.update(func() { s.entries = append(s.entries, e) }) }
func (s *screen) Clear()                { s.update(func() { s.entries = nil }) }
func (s *screen) ScrollToEnd()          { s.update(func() { s.follow = true }) }

func (s *screen) SetStatus(text string, kind controller.StatusKind) {
	s.update(func() { s.status, s.kind = text, kind })
}

func (s *screen) SetUpload(st domain.ControlState) { s.update(func() { s.upload = st }) }
func (s *screen) SetChat(st domain.ControlState)   { s.update(func() { s.chat = st }) }
func (s *screen) ClearChatInput()                  { s.update(func() { s.clearInput = true }) }
func (s *screen) FocusChatInput()                  { s.update(func() { s.focusChat = true }) }

// snapshot is a consistent copy of the screen taken on redraw. Pending
// one-shot requests are consumed.
type snapshot struct {
	entries    []render.Entry
	status     string
	kind       controller.StatusKind
	upload     domain.ControlState
	chat       domain.ControlState
	clearInput bool
	focusChat  bool
	follow     bool
}

func (s *screen) take() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{
		entries:    append([]render.Entry(nil), s.entries...),
		status:     s.status,
		kind:       s.kind,
		upload:     s.upload,
		chat:       s.chat,
		clearInput: s.clearInput,
		focusChat:  s.focusChat,
		follow:     s.follow,
	}
	s.clearInput, s.focusChat, s.follow = false, false, false
	return snap
}
