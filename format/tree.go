package format

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
)

var (
	treeRootStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	treeKeyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

func renderTree(data any, title string) string {
	root := tree.Root(treeRootStyle.Render(title))
	addTreeNodes(root, data)
	return root.String()
}

func addTreeNodes(parent *tree.Tree, data any) {
	switch t := data.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for key := range t {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			value := t[key]
			label := treeKeyStyle.Render(key)
			switch value.(type) {
			case map[string]any, []any:
				branch := tree.Root(label)
				addTreeNodes(branch, value)
				parent.Child(branch)
			default:
				parent.Child(fmt.Sprintf("%s: %s", label, cell(value)))
			}
		}
	case []any:
		for i, item := range t {
			label := treeKeyStyle.Render(fmt.Sprintf("[%d]", i))
			switch item.(type) {
			case map[string]any, []any:
				branch := tree.Root(label)
				addTreeNodes(branch, item)
				parent.Child(branch)
			default:
				parent.Child(fmt.Sprintf("%s: %s", label, cell(item)))
			}
		}
	default:
		parent.Child(cell(t))
	}
}
