package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"pdfchat/internal/domain"
)

var (
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	sourcesStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).PaddingLeft(2)
	codeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// Styled renders entries with lipgloss colors. When markdown is enabled,
// assistant content goes through glamour, so markup in answers is interpreted
// rather than shown literally.
type Styled struct {
	md *glamour.TermRenderer
}

// NewStyled returns a styled renderer. A zero width disables wrapping.
func NewStyled(markdown bool, style string, width int) *Styled {
	s := &Styled{}
	if !markdown {
		return s
	}
	if style == "" {
		style = "dark"
	}
	opts := []glamour.TermRendererOption{glamour.WithStandardStyle(style)}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	if r, err := glamour.NewTermRenderer(opts...); err == nil {
		s.md = r
	}
	return s
}

func (s *Styled) Render(e Entry) string {
	var b strings.Builder
	if e.Role == domain.RoleUser {
		b.WriteString(userStyle.Render(UserPrefix))
		b.WriteString(e.Content)
	} else {
		b.WriteString(assistantStyle.Render(AssistantPrefix))
		b.WriteString(s.markdown(e.Content))
	}
	if len(e.Sources) > 0 {
		b.WriteString("\n")
		b.WriteString(sourcesStyle.Render(s.citations(e.Sources)))
	}
	return b.String()
}

func (s *Styled) markdown(content string) string {
	if s.md == nil {
		return content
	}
	out, err := s.md.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n ")
}

func (s *Styled) citations(sources []domain.Source) string {
	lines := []string{lipgloss.NewStyle().Bold(true).Render(SourcesHeader)}
	for i, src := range sources {
		lines = append(lines,
			fmt.Sprintf("%d. From: %s", i+1, codeStyle.Render(src.Source)),
			"Content: "+codeStyle.Render(src.ContentPreview),
		)
	}
	return strings.Join(lines, "\n")
}
