package analyzer

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// hiddenText holds elements whose character data is never rendered.
var hiddenText = map[atom.Atom]struct{}{
	atom.Script:   {},
	atom.Style:    {},
	atom.Noscript: {},
	atom.Template: {},
}

// visibleTextLength returns the rune length of root's rendered text with
// whitespace runs collapsed to a single space and the ends trimmed. The walk
// uses an explicit stack so document depth is unbounded.
func visibleTextLength(root *html.Node) int {
	if root == nil {
		return 0
	}

	var b strings.Builder
	stack := []*html.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			continue
		case html.ElementNode:
			if _, ok := hiddenText[n.DataAtom]; ok {
				continue
			}
		}

		// Push children in reverse so they pop in document order.
		for child := n.LastChild; child != nil; child = child.PrevSibling {
			stack = append(stack, child)
		}
	}

	return utf8.RuneCountInString(strings.Join(strings.Fields(b.String()), " "))
}
