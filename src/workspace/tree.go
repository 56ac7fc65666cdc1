package workspace

import (
	"fmt"
	"sort"
	"strings"
)

// Tree renders the included files as an indented listing.
func (c Context) Tree() string {
	type node struct {
		children map[string]*node
		file     bool
	}
	root := &node{children: map[string]*node{}}

	for _, f := range c.Files {
		cur := root
		parts := strings.Split(f.Rel, "/")
		for i, p := range parts {
			next, ok := cur.children[p]
			if !ok {
				next = &node{children: map[string]*node{}}
				cur.children[p] = next
			}
			cur = next
			if i == len(parts)-1 {
				cur.file = true
			}
		}
	}

	var lines []string
	var walk func(prefix string, n *node)
	walk = func(prefix string, n *node) {
		keys := make([]string, 0, len(n.children))
		for k := range n.children {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			child := n.children[k]
			line := prefix + "└─ " + k
			if !child.file {
				line += "/"
			}
			lines = append(lines, line)
			if len(child.children) > 0 {
				walk(prefix+"  ", child)
			}
		}
	}
	walk("", root)
	return strings.Join(lines, "\n")
}

// Summary is a one-line description of the snapshot.
func (c Context) Summary() string {
	s := fmt.Sprintf("%d archivos (%s)", len(c.Files), HumanSize(c.Bytes))
	if len(c.Skipped) > 0 {
		s += fmt.Sprintf(", %d omitidos", len(c.Skipped))
	}
	return s
}

func HumanSize(n int64) string {
	const (
		kb = 1024
		mb = 1024 * kb
		gb = 1024 * mb
	)
	switch {
	case n >= gb:
		return fmt.Sprintf("%.2f GB", float64(n)/float64(gb))
	case n >= mb:
		return fmt.Sprintf("%.1f MB", float64(n)/float64(mb))
	case n >= kb:
		return fmt.Sprintf("%.0f KB", float64(n)/float64(kb))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
