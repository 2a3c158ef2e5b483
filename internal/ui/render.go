// Package ui renders trees for the terminal.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/arborhq/arbor/internal/tree"
)

// Renderer formats trees and breadcrumbs for terminal output. Styling is
// disabled automatically when the terminal reports no color support.
type Renderer struct {
	name      lipgloss.Style
	born      lipgloss.Style
	collapsed lipgloss.Style
	guide     lipgloss.Style
}

// NewRenderer builds a renderer matched to the terminal's color profile.
func NewRenderer() *Renderer {
	r := &Renderer{}
	if termenv.ColorProfile() == termenv.Ascii {
		return r
	}
	r.name = lipgloss.NewStyle().Bold(true)
	r.born = lipgloss.NewStyle().Faint(true)
	r.collapsed = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	r.guide = lipgloss.NewStyle().Faint(true)
	return r
}

// Render returns the tree as an indented listing. Collapsed subtrees are
// folded behind a count marker instead of being printed.
func (r *Renderer) Render(root *tree.Node) string {
	if root == nil {
		return "(empty tree)\n"
	}
	var b strings.Builder
	r.renderNode(&b, root, "", "")
	return b.String()
}

func (r *Renderer) renderNode(b *strings.Builder, n *tree.Node, branch, childPrefix string) {
	b.WriteString(r.guide.Render(branch))
	b.WriteString(r.name.Render(n.Name))
	if n.Born != "" {
		b.WriteString(" ")
		b.WriteString(r.born.Render("b. " + n.Born))
	}
	if n.Collapsed && len(n.Children) > 0 {
		b.WriteString(" ")
		b.WriteString(r.collapsed.Render(fmt.Sprintf("[+%d]", tree.Count(n)-1)))
	}
	b.WriteString("\n")

	if n.Collapsed {
		return
	}
	for i, c := range n.Children {
		if i == len(n.Children)-1 {
			r.renderNode(b, c, childPrefix+"└─ ", childPrefix+"   ")
		} else {
			r.renderNode(b, c, childPrefix+"├─ ", childPrefix+"│  ")
		}
	}
}

// Breadcrumb joins an ancestor chain into a single line, root first.
func (r *Renderer) Breadcrumb(path []*tree.Node) string {
	parts := make([]string, 0, len(path))
	for _, n := range path {
		parts = append(parts, n.Name)
	}
	return strings.Join(parts, r.guide.Render(" > "))
}
