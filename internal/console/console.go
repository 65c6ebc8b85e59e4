// Package console implements the controller surfaces as plain lines on a
// writer, for the non-interactive subcommands.
package console

import (
	"fmt"
	"io"
	"sync"

	"pdfchat/internal/controller"
	"pdfchat/internal/domain"
	"pdfchat/internal/render"
)

// Console prints every appended entry once. Clear starts a new block with a
// separator so earlier output stays readable on a scrolling terminal.
type Console struct {
	mu       sync.Mutex
	out      io.Writer
	renderer render.Renderer
	printed  int
	lastKind controller.StatusKind
	status   string
}

func New(out io.Writer, r render.Renderer) *Console {
	if r == nil {
		r = render.Plain{}
	}
	return &Console{out: out, renderer: r}
}

// Surfaces returns c wired as all three controller surfaces.
func (c *Console) Surfaces() controller.Surfaces {
	return controller.Surfaces{Messages: c, Status: c, Controls: c}
}

func (c *Console) Append(e render.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, c.renderer.Render(e))
	c.printed++
}

func (c *Console) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.printed > 0 {
		fmt.Fprintln(c.out, "---")
	}
	c.printed = 0
}

func (c *Console) ScrollToEnd() {}

func (c *Console) SetStatus(text string, kind controller.StatusKind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status, c.lastKind = text, kind
	switch kind {
	case controller.StatusError:
		fmt.Fprintf(c.out, "[error] %s\n", text)
	case controller.StatusSuccess:
		fmt.Fprintf(c.out, "[ok] %s\n", text)
	default:
		fmt.Fprintf(c.out, "%s\n", text)
	}
}

// Failed reports whether the last status was an error.
func (c *Console) Failed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastKind == controller.StatusError && c.status != ""
}

// Controls have no terminal counterpart in one-shot mode.
func (c *Console) SetUpload(domain.ControlState) {}
func (c *Console) SetChat(domain.ControlState)   {}
func (c *Console) ClearChatInput()               {}
func (c *Console) FocusChatInput()               {}
