package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"pdfchat/internal/domain"
	"pdfchat/internal/render"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// recorder implements all surfaces and logs every call in order.
type recorder struct {
	mu      sync.Mutex
	events  []string
	entries []render.Entry
	status  string
	kind    StatusKind
	upload  domain.ControlState
	chat    domain.ControlState
}

func (r *recorder) log(format string, args ...any) {
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recorder) Append(e render.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	r.log("append %s %s", e.Role, e.Content)
}

func (r *recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
	r.log("clear")
}

func (r *recorder) ScrollToEnd() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log("scroll")
}

func (r *recorder) SetStatus(text string, kind StatusKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status, r.kind = text, kind
	r.log("status %d %s", kind, text)
}

func (r *recorder) SetUpload(s domain.ControlState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upload = s
	r.log("upload %s", s)
}

func (r *recorder) SetChat(s domain.ControlState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chat = s
	r.log("chat %s", s)
}

func (r *recorder) ClearChatInput() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log("clear-input")
}

func (r *recorder) FocusChatInput() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log("focus")
}

func (r *recorder) surfaces() Surfaces {
	return Surfaces{Messages: r, Status: r, Controls: r}
}

func (r *recorder) contents() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = string(e.Role) + ": " + e.Content
	}
	return out
}

func (r *recorder) indexOf(prefix string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.events {
		if strings.HasPrefix(e, prefix) {
			return i
		}
	}
	return -1
}

// fakeBackend answers from fields and records what the surfaces looked like
// while each request was in flight.
type fakeBackend struct {
	ui *recorder

	upload    *domain.UploadResult
	uploadErr error
	chat      *domain.ChatResult
	chatErr   error
	history   *domain.HistoryResult
	histErr   error

	uploads, chats, histories int
	chatSeen                  []string
	duringChat                State
	duringUpload              State
	eventsAtChat              int
}

func (b *fakeBackend) Upload(_ context.Context, path string) (*domain.UploadResult, error) {
	b.uploads++
	b.ui.mu.Lock()
	b.duringUpload = State{Upload: b.ui.upload, Chat: b.ui.chat}
	b.ui.mu.Unlock()
	return b.upload, b.uploadErr
}

func (b *fakeBackend) Chat(_ context.Context, msg string) (*domain.ChatResult, error) {
	b.chats++
	b.chatSeen = append(b.chatSeen, msg)
	b.ui.mu.Lock()
	b.duringChat = State{Upload: b.ui.upload, Chat: b.ui.chat}
	b.eventsAtChat = len(b.ui.events)
	b.ui.mu.Unlock()
	return b.chat, b.chatErr
}

func (b *fakeBackend) History(context.Context) (*domain.HistoryResult, error) {
	b.histories++
	return b.history, b.histErr
}

func setup() (*Controller, *fakeBackend, *recorder) {
	ui := &recorder{}
	be := &fakeBackend{ui: ui, history: &domain.HistoryResult{Success: true, History: []domain.ChatMessage{}}}
	return New(be, ui.surfaces(), nil), be, ui
}

func TestNew_InitialState(t *testing.T) {
	c, _, ui := setup()
	assert.Equal(t, State{Upload: domain.Enabled, Chat: domain.Disabled}, c.State())
	assert.Equal(t, domain.Disabled, ui.chat)
	assert.Equal(t, domain.Enabled, ui.upload)
}

func TestRenderMessage_AppendsAndScrolls(t *testing.T) {
	c, _, ui := setup()
	sources := []domain.Source{
		{Source: "a.pdf", ContentPreview: "first"},
		{Source: "b.pdf", ContentPreview: "<b>second</b>"},
	}
	c.RenderMessage(domain.RoleAssistant, "answer", sources)

	require.Len(t, ui.entries, 1)
	assert.Equal(t, sources, ui.entries[0].Sources)
	assert.NotEmpty(t, ui.entries[0].ID)
	assert.Greater(t, ui.indexOf("scroll"), ui.indexOf("append"))
}

func TestLoadHistory(t *testing.T) {
	t.Run("empty history shows only the welcome message", func(t *testing.T) {
		c, _, ui := setup()
		c.RenderMessage(domain.RoleUser, "stale", nil)
		c.LoadHistory(context.Background())
		assert.Equal(t, []string{"assistant: " + WelcomeMessage}, ui.contents())
	})

	t.Run("entries replace the list without citations", func(t *testing.T) {
		c, be, ui := setup()
		be.history = &domain.HistoryResult{Success: true, History: []domain.ChatMessage{
			{Role: domain.RoleUser, Content: "q"},
			{Role: domain.RoleAssistant, Content: "a", Sources: []domain.Source{{Source: "x", ContentPreview: "y"}}},
		}}
		c.RenderMessage(domain.RoleUser, "stale", nil)
		c.LoadHistory(context.Background())

		assert.Equal(t, []string{"user: q", "assistant: a"}, ui.contents())
		for _, e := range ui.entries {
			assert.Empty(t, e.Sources)
		}
	})

	t.Run("transport failure leaves the list unchanged", func(t *testing.T) {
		c, be, ui := setup()
		be.history, be.histErr = nil, errors.New("connection refused")
		c.RenderMessage(domain.RoleUser, "kept", nil)
		c.LoadHistory(context.Background())
		assert.Equal(t, []string{"user: kept"}, ui.contents())
		assert.Equal(t, -1, ui.indexOf("clear"))
	})

	t.Run("reported failure leaves the list unchanged", func(t *testing.T) {
		c, be, ui := setup()
		be.history = &domain.HistoryResult{Success: false}
		c.RenderMessage(domain.RoleUser, "kept", nil)
		c.LoadHistory(context.Background())
		assert.Equal(t, []string{"user: kept"}, ui.contents())
	})
}

func TestSubmitUpload_NoFile(t *testing.T) {
	c, be, ui := setup()
	for _, path := range []string{"", "   "} {
		c.SubmitUpload(context.Background(), path)
	}
	assert.Zero(t, be.uploads)
	assert.Equal(t, NoFileStatus, ui.status)
	assert.Equal(t, StatusError, ui.kind)
	assert.Equal(t, State{Upload: domain.Enabled, Chat: domain.Disabled}, c.State())
}

func TestSubmitUpload_Success(t *testing.T) {
	c, be, ui := setup()
	be.upload = &domain.UploadResult{Success: true, Message: "PDF uploaded and processed successfully!"}

	c.SubmitUpload(context.Background(), "doc.pdf")

	assert.Equal(t, 1, be.uploads)
	assert.Equal(t, State{Upload: domain.Disabled, Chat: domain.Disabled}, be.duringUpload)
	assert.Equal(t, State{Upload: domain.Enabled, Chat: domain.Enabled}, c.State())
	assert.Equal(t, "PDF uploaded and processed successfully!", ui.status)
	assert.Equal(t, StatusSuccess, ui.kind)
	assert.Equal(t, 1, be.histories, "exactly one history reload")

	ready := ui.indexOf("append assistant " + ReadyMessage)
	require.NotEqual(t, -1, ready)
	assert.Greater(t, ui.indexOf("clear"), ready, "history reload follows the ready message")
}

func TestSubmitUpload_Failures(t *testing.T) {
	tests := []struct {
		name   string
		result *domain.UploadResult
		err    error
		status string
	}{
		{
			name:   "reported",
			result: &domain.UploadResult{Success: false, Message: "Invalid file type. Please upload a PDF."},
			status: "Error: Invalid file type. Please upload a PDF.",
		},
		{
			name:   "transport",
			err:    errors.New("dial tcp: connection refused"),
			status: "An unexpected error occurred: dial tcp: connection refused",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, be, ui := setup()
			be.upload, be.uploadErr = tt.result, tt.err

			c.SubmitUpload(context.Background(), "doc.pdf")

			assert.Equal(t, tt.status, ui.status)
			assert.Equal(t, StatusError, ui.kind)
			assert.Equal(t, State{Upload: domain.Enabled, Chat: domain.Disabled}, c.State())
			assert.Zero(t, be.histories)
			assert.Empty(t, ui.entries)
		})
	}
}

func TestSubmitUpload_FailureAfterSuccessDisablesChat(t *testing.T) {
	c, be, _ := setup()
	be.upload = &domain.UploadResult{Success: true, Message: "ok"}
	c.SubmitUpload(context.Background(), "a.pdf")
	require.Equal(t, domain.Enabled, c.State().Chat)

	be.upload = &domain.UploadResult{Success: false, Message: "bad"}
	c.SubmitUpload(context.Background(), "b.pdf")
	assert.Equal(t, State{Upload: domain.Enabled, Chat: domain.Disabled}, c.State())
}

func TestSubmitChatMessage_Blank(t *testing.T) {
	c, be, ui := setup()
	for _, text := range []string{"", "  ", "\n\t"} {
		c.SubmitChatMessage(context.Background(), text)
	}
	assert.Zero(t, be.chats)
	assert.Empty(t, ui.entries)
}

func TestSubmitChatMessage_Success(t *testing.T) {
	c, be, ui := setup()
	sources := []domain.Source{{Source: "doc.pdf", ContentPreview: "page 1"}}
	be.chat = &domain.ChatResult{Success: true, Response: &domain.ChatAnswer{Answer: "42", Sources: sources}}

	c.SubmitChatMessage(context.Background(), "  what is it?  ")

	require.Equal(t, []string{"what is it?"}, be.chatSeen)
	assert.Equal(t, []string{"user: what is it?", "assistant: 42"}, ui.contents())
	assert.Equal(t, sources, ui.entries[1].Sources)
	assert.Empty(t, ui.entries[0].Sources)

	assert.Equal(t, domain.Disabled, be.duringChat.Chat)
	assert.Less(t, ui.indexOf("append user"), be.eventsAtChat, "user message rendered before the request")
	assert.Less(t, ui.indexOf("clear-input"), be.eventsAtChat)
	assert.Equal(t, domain.Enabled, c.State().Chat)
	assert.Greater(t, ui.indexOf("focus"), ui.indexOf("append assistant"))
}

func TestSubmitChatMessage_Failures(t *testing.T) {
	tests := []struct {
		name   string
		result *domain.ChatResult
		err    error
		want   string
	}{
		{
			name:   "reported",
			result: &domain.ChatResult{Success: false, Message: "limit exceeded"},
			want:   "assistant: Error: limit exceeded",
		},
		{
			name: "transport",
			err:  errors.New("unexpected EOF"),
			want: "assistant: An unexpected error occurred: unexpected EOF",
		},
		{
			name:   "success without answer",
			result: &domain.ChatResult{Success: true},
			want:   "assistant: An unexpected error occurred: response carries no answer",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, be, ui := setup()
			be.chat, be.chatErr = tt.result, tt.err

			c.SubmitChatMessage(context.Background(), "hello")

			assert.Equal(t, []string{"user: hello", tt.want}, ui.contents())
			assert.Equal(t, domain.Disabled, be.duringChat.Chat)
			assert.Equal(t, domain.Enabled, c.State().Chat)
			assert.NotEqual(t, -1, ui.indexOf("focus"))
			assert.Empty(t, ui.status, "chat errors are inline, not status text")
		})
	}
}

func TestBind_RoutesEvents(t *testing.T) {
	c, be, ui := setup()
	be.upload = &domain.UploadResult{Success: true, Message: "ok"}
	be.chat = &domain.ChatResult{Success: true, Response: &domain.ChatAnswer{Answer: "hi"}}
	d := NewDispatcher()
	c.Bind(d)

	ctx := context.Background()
	assert.True(t, d.Fire(ctx, domain.EventLoad, ""))
	assert.True(t, d.Fire(ctx, domain.EventUpload, "doc.pdf"))
	assert.True(t, d.Fire(ctx, domain.EventChat, "hello"))

	assert.Equal(t, 2, be.histories)
	assert.Equal(t, 1, be.uploads)
	assert.Equal(t, 1, be.chats)
	assert.Contains(t, ui.contents(), "assistant: hi")
}

func TestStart_LoadsHistoryOnce(t *testing.T) {
	c, be, ui := setup()
	c.Start(context.Background())
	assert.Equal(t, 1, be.histories)
	assert.Equal(t, []string{"assistant: " + WelcomeMessage}, ui.contents())
}

// blockingBackend holds a chat request open until released.
type blockingBackend struct {
	fakeBackend
	entered chan struct{}
	release chan struct{}
}

func (b *blockingBackend) Chat(ctx context.Context, msg string) (*domain.ChatResult, error) {
	b.entered <- struct{}{}
	<-b.release
	return &domain.ChatResult{Success: true, Response: &domain.ChatAnswer{Answer: "done"}}, nil
}

func TestSubmitChatMessage_IgnoresDuplicateWhileInFlight(t *testing.T) {
	ui := &recorder{}
	be := &blockingBackend{
		fakeBackend: fakeBackend{ui: ui},
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	c := New(be, ui.surfaces(), nil)

	done := make(chan struct{})
	go func() {
		c.SubmitChatMessage(context.Background(), "first")
		close(done)
	}()
	<-be.entered
	assert.Equal(t, domain.Disabled, c.State().Chat)

	c.SubmitChatMessage(context.Background(), "second")
	close(be.release)
	<-done

	assert.Equal(t, []string{"user: first", "assistant: done"}, ui.contents())
	assert.Equal(t, domain.Enabled, c.State().Chat)
}
