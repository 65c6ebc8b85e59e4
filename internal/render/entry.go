package render

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"pdfchat/internal/domain"
)

const (
	UserPrefix      = "🧑 You: "
	AssistantPrefix = "🤖 Assistant: "
	SourcesHeader   = "Sources:"
)

// Entry is one rendered block in the message list.
type Entry struct {
	ID      string
	Role    domain.Role
	Content string
	Sources []domain.Source
}

// NewEntry builds an entry with a fresh id. Sources are copied.
func NewEntry(role domain.Role, content string, sources []domain.Source) Entry {
	e := Entry{ID: uuid.NewString(), Role: role, Content: content}
	if len(sources) > 0 {
		e.Sources = append([]domain.Source(nil), sources...)
	}
	return e
}

// Prefix returns the speaker label for role.
func Prefix(role domain.Role) string {
	if role == domain.RoleUser {
		return UserPrefix
	}
	return AssistantPrefix
}

// Renderer turns an entry into the text shown in the message list.
type Renderer interface {
	Render(e Entry) string
}

// Plain renders entries as unstyled text.
type Plain struct{}

func (Plain) Render(e Entry) string {
	var b strings.Builder
	b.WriteString(Prefix(e.Role))
	b.WriteString(e.Content)
	if len(e.Sources) > 0 {
		b.WriteString("\n")
		b.WriteString(Citations(e.Sources))
	}
	return b.String()
}

// Citations formats the numbered source block. Labels and previews are kept
// verbatim.
func Citations(sources []domain.Source) string {
	lines := make([]string, 0, 1+2*len(sources))
	lines = append(lines, SourcesHeader)
	for i, s := range sources {
		lines = append(lines,
			fmt.Sprintf("%d. From: %s", i+1, s.Source),
			fmt.Sprintf("Content: %s", s.ContentPreview),
		)
	}
	return strings.Join(lines, "\n")
}
