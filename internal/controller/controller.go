package controller

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"pdfchat/internal/domain"
	"pdfchat/internal/render"
)

// User-visible texts.
const (
	WelcomeMessage  = "Hi there! Upload a PDF to start chatting."
	ReadyMessage    = "PDF processed successfully! You can now ask questions."
	NoFileStatus    = "Please select a PDF file."
	UploadingStatus = "Uploading and processing PDF... This may take a moment."
	ReportedPrefix  = "Error: "
	UnexpectedText  = "An unexpected error occurred: "
)

var errNoAnswer = errors.New("response carries no answer")

// StatusKind classifies the upload status line.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusError
)

// MessageList is the scrolling list of rendered messages.
type MessageList interface {
	Append(e render.Entry)
	Clear()
	ScrollToEnd()
}

// StatusLine shows the outcome of the last upload.
type StatusLine interface {
	SetStatus(text string, kind StatusKind)
}

// Controls are the upload button and the chat input/send pair.
type Controls interface {
	SetUpload(s domain.ControlState)
	SetChat(s domain.ControlState)
	ClearChatInput()
	FocusChatInput()
}

// Backend is the subset of the HTTP client the controller needs.
type Backend interface {
	Upload(ctx context.Context, path string) (*domain.UploadResult, error)
	Chat(ctx context.Context, message string) (*domain.ChatResult, error)
	History(ctx context.Context) (*domain.HistoryResult, error)
}

// Surfaces groups the UI handles a controller drives.
type Surfaces struct {
	Messages MessageList
	Status   StatusLine
	Controls Controls
}

// State is the pair of control group states.
type State struct {
	Upload domain.ControlState
	Chat   domain.ControlState
}

// Controller mediates between the upload form, the chat form and the message
// list on one side and the backend on the other.
type Controller struct {
	backend Backend
	ui      Surfaces
	log     *zap.Logger

	mu        sync.Mutex
	state     State
	uploading bool
	chatting  bool
}

// New returns a controller with upload enabled and chat disabled, and pushes
// that state to the controls.
func New(backend Backend, ui Surfaces, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Controller{
		backend: backend,
		ui:      ui,
		log:     log.Named("controller"),
	}
	c.setUpload(domain.Enabled)
	c.setChat(domain.Disabled)
	return c
}

// State reports the current control states.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Bind registers the controller's handlers on d.
func (c *Controller) Bind(d *Dispatcher) {
	d.On(domain.EventLoad, func(ctx context.Context, _ string) { c.LoadHistory(ctx) })
	d.On(domain.EventUpload, c.SubmitUpload)
	d.On(domain.EventChat, c.SubmitChatMessage)
}

// Start performs the page-load step: one history fetch.
func (c *Controller) Start(ctx context.Context) {
	c.LoadHistory(ctx)
}

// RenderMessage appends one message and its citation block, then scrolls to
// the newest entry. Content is not escaped.
func (c *Controller) RenderMessage(role domain.Role, content string, sources []domain.Source) {
	c.ui.Messages.Append(render.NewEntry(role, content, sources))
	c.ui.Messages.ScrollToEnd()
}

// LoadHistory replaces the list with the backend's history. Citations are not
// rendered for historical messages. Failures are logged and leave the list as
// it was.
func (c *Controller) LoadHistory(ctx context.Context) {
	res, err := c.backend.History(ctx)
	if err != nil {
		c.log.Error("loading chat history", zap.Error(err))
		return
	}
	if !res.Success || res.History == nil {
		c.log.Warn("history not available", zap.Bool("success", res.Success))
		return
	}
	c.ui.Messages.Clear()
	if len(res.History) == 0 {
		c.RenderMessage(domain.RoleAssistant, WelcomeMessage, nil)
		return
	}
	for _, m := range res.History {
		c.RenderMessage(m.Role, m.Content, nil)
	}
}

// SubmitUpload uploads the PDF at path. The upload control is re-enabled in
// every outcome; chat is enabled only on reported success.
func (c *Controller) SubmitUpload(ctx context.Context, path string) {
	if strings.TrimSpace(path) == "" {
		c.ui.Status.SetStatus(NoFileStatus, StatusError)
		return
	}
	if !c.begin(&c.uploading) {
		c.log.Debug("upload already in flight")
		return
	}
	defer c.end(&c.uploading)

	c.ui.Status.SetStatus(UploadingStatus, StatusInfo)
	c.setUpload(domain.Disabled)
	c.setChat(domain.Disabled)
	defer c.setUpload(domain.Enabled)

	res, err := c.backend.Upload(ctx, path)
	switch {
	case err != nil:
		c.log.Error("uploading pdf", zap.String("path", path), zap.Error(err))
		c.ui.Status.SetStatus(UnexpectedText+err.Error(), StatusError)
		c.setChat(domain.Disabled)
	case res.Success:
		c.log.Info("pdf uploaded", zap.String("path", path))
		c.ui.Status.SetStatus(res.Message, StatusSuccess)
		c.setChat(domain.Enabled)
		c.RenderMessage(domain.RoleAssistant, ReadyMessage, nil)
		c.LoadHistory(ctx)
	default:
		c.log.Warn("upload rejected", zap.String("path", path), zap.String("message", res.Message))
		c.ui.Status.SetStatus(ReportedPrefix+res.Message, StatusError)
		c.setChat(domain.Disabled)
	}
}

// SubmitChatMessage sends text to the backend. The user's message is rendered
// before the request; chat controls come back enabled and focused in every
// outcome.
func (c *Controller) SubmitChatMessage(ctx context.Context, text string) {
	msg := strings.TrimSpace(text)
	if msg == "" {
		return
	}
	if !c.begin(&c.chatting) {
		c.log.Debug("chat request already in flight")
		return
	}
	defer c.end(&c.chatting)

	c.RenderMessage(domain.RoleUser, msg, nil)
	c.ui.Controls.ClearChatInput()
	c.setChat(domain.Disabled)
	defer func() {
		c.setChat(domain.Enabled)
		c.ui.Controls.FocusChatInput()
	}()

	res, err := c.backend.Chat(ctx, msg)
	switch {
	case err != nil:
		c.log.Error("sending chat message", zap.Error(err))
		c.RenderMessage(domain.RoleAssistant, UnexpectedText+err.Error(), nil)
	case res.Success && res.Response != nil:
		c.RenderMessage(domain.RoleAssistant, res.Response.Answer, res.Response.Sources)
	case res.Success:
		c.log.Error("sending chat message", zap.Error(errNoAnswer))
		c.RenderMessage(domain.RoleAssistant, UnexpectedText+errNoAnswer.Error(), nil)
	default:
		c.RenderMessage(domain.RoleAssistant, ReportedPrefix+res.Message, nil)
	}
}

func (c *Controller) begin(flag *bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if *flag {
		return false
	}
	*flag = true
	return true
}

func (c *Controller) end(flag *bool) {
	c.mu.Lock()
	*flag = false
	c.mu.Unlock()
}

func (c *Controller) setUpload(s domain.ControlState) {
	c.mu.Lock()
	c.state.Upload = s
	c.mu.Unlock()
	c.ui.Controls.SetUpload(s)
}

func (c *Controller) setChat(s domain.ControlState) {
	c.mu.Lock()
	c.state.Chat = s
	c.mu.Unlock()
	c.ui.Controls.SetChat(s)
}
