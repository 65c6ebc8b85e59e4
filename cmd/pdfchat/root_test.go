package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfchat/internal/controller"
	"pdfchat/internal/domain"
	"pdfchat/internal/stubserver"
)

type harness struct {
	stub *stubserver.Server
	url  string
	dir  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	stub := stubserver.New()
	srv := httptest.NewServer(stub.Handler())
	t.Cleanup(srv.Close)
	return &harness{stub: stub, url: srv.URL, dir: t.TempDir()}
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	base := []string{
		"--config", filepath.Join(h.dir, "config.yaml"),
		"--server", h.url,
		"--log-file", filepath.Join(h.dir, "pdfchat.log"),
		"--no-markdown",
	}
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(base, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestUpload(t *testing.T) {
	h := newHarness(t)
	pdf := filepath.Join(h.dir, "doc.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.4"), 0o644))

	out, err := h.run(t, "upload", pdf)
	require.NoError(t, err)
	assert.Contains(t, out, "[ok] PDF uploaded and processed successfully!")
	assert.Contains(t, out, controller.ReadyMessage)
	assert.Contains(t, out, controller.WelcomeMessage)
	assert.Equal(t, 1, h.stub.Hits("/history"))
}

func TestUpload_NoFile(t *testing.T) {
	h := newHarness(t)
	out, err := h.run(t, "upload")
	assert.Error(t, err)
	assert.Contains(t, out, "[error] "+controller.NoFileStatus)
	assert.Zero(t, h.stub.Hits("/upload"))
}

func TestUpload_Rejected(t *testing.T) {
	h := newHarness(t)
	txt := filepath.Join(h.dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("plain"), 0o644))

	out, err := h.run(t, "upload", txt)
	assert.Error(t, err)
	assert.Contains(t, out, "[error] Error: Invalid file type. Please upload a PDF.")
}

func TestAsk(t *testing.T) {
	h := newHarness(t)
	h.stub.Load("doc.pdf")

	out, err := h.run(t, "ask", "what", "is", "this?")
	require.NoError(t, err)
	assert.Contains(t, out, "🧑 You: what is this?")
	assert.Contains(t, out, "🤖 Assistant: You asked: what is this?")
	assert.Contains(t, out, "1. From: document.pdf")
}

func TestAsk_ReportedError(t *testing.T) {
	h := newHarness(t)
	h.stub.Load("doc.pdf")
	h.stub.FailChat("limit exceeded")

	out, err := h.run(t, "ask", "hi")
	require.NoError(t, err)
	assert.Contains(t, out, "🤖 Assistant: Error: limit exceeded")
}

func TestHistory(t *testing.T) {
	h := newHarness(t)
	h.stub.SetHistory([]domain.ChatMessage{
		{Role: domain.RoleUser, Content: "q"},
		{Role: domain.RoleAssistant, Content: "a"},
	})

	out, err := h.run(t, "history")
	require.NoError(t, err)
	assert.Equal(t, "🧑 You: q\n🤖 Assistant: a\n", out)
}

func TestStatus(t *testing.T) {
	h := newHarness(t)
	out, err := h.run(t, "status")
	require.NoError(t, err)
	assert.Equal(t, "GROQ_API_KEY is set.\n", out)
}

func TestServerFromEnvironment(t *testing.T) {
	h := newHarness(t)
	t.Setenv("PDFCHAT_SERVER_BASE_URL", h.url)

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{
		"--config", filepath.Join(h.dir, "config.yaml"),
		"--log-file", filepath.Join(h.dir, "pdfchat.log"),
		"status",
	})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "GROQ_API_KEY is set.\n", out.String())
}
