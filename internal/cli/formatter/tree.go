package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// TreeItem represents a single node in a tree display.
type TreeItem struct {
	Title  string
	Kind   string // type label, shown dimmed after the title
	Level  int
	IsLast bool
	Full   bool
	Detail string
}

const (
	treeBranch = "├─ "
	treeCorner = "└─ "
	treePipe   = "│  "
	treeBlank  = "   "
)

// RenderTree renders TreeItems as an indented tree using box-drawing
// connectors. Items are expected in pre-order. Full items are marked with a
// red ● and detail badges are right-aligned.
func RenderTree(items []TreeItem) string {
	if len(items) == 0 {
		return ""
	}

	type lineInfo struct {
		content string
		badge   string
	}

	lines := make([]lineInfo, len(items))
	maxContentWidth := 0

	// lastAt[l] records whether the most recent item at level l closed its
	// sibling list, which decides between a pipe and a blank for deeper rows.
	var lastAt []bool

	for idx, item := range items {
		if item.Level >= len(lastAt) {
			lastAt = append(lastAt, make([]bool, item.Level-len(lastAt)+1)...)
		}
		lastAt[item.Level] = item.IsLast

		var prefix strings.Builder
		if item.Level > 0 {
			for l := 1; l < item.Level; l++ {
				if lastAt[l] {
					prefix.WriteString(treeBlank)
				} else {
					prefix.WriteString(treePipe)
				}
			}
			if item.IsLast {
				prefix.WriteString(treeCorner)
			} else {
				prefix.WriteString(treeBranch)
			}
		}

		title := item.Title
		if item.Level == 0 {
			title = Bold(title)
		}
		if item.Full {
			title = StyleRed.Render("● ") + title
		}
		if item.Kind != "" {
			title += " " + Dim(item.Kind)
		}

		content := prefix.String() + title
		lines[idx].content = content
		if item.Detail != "" {
			lines[idx].badge = StyleBlue.Render(fmt.Sprintf("[ %s ]", item.Detail))
		}

		if w := lipgloss.Width(content); w > maxContentWidth {
			maxContentWidth = w
		}
	}

	var b strings.Builder
	for _, li := range lines {
		if li.badge == "" {
			b.WriteString(li.content + "\n")
			continue
		}
		pad := max(maxContentWidth-lipgloss.Width(li.content), 0)
		b.WriteString(li.content + strings.Repeat(" ", pad) + "  " + li.badge + "\n")
	}

	return b.String()
}
