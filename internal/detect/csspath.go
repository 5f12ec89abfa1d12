package detect

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var plainID = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// cssPath builds a selector that addresses n uniquely in its document,
// anchored at the nearest ancestor with a usable id or at the root.
func cssPath(n *html.Node) string {
	var parts []string
	for cur := n; cur != nil && cur.Type == html.ElementNode; cur = cur.Parent {
		if id := attr(cur, "id"); id != "" {
			if plainID.MatchString(id) {
				parts = append(parts, "#"+id)
			} else {
				parts = append(parts, fmt.Sprintf(`%s[id=%q]`, cur.Data, id))
			}
			break
		}
		if cur.Parent == nil || cur.Parent.Type != html.ElementNode {
			parts = append(parts, cur.Data)
			break
		}
		parts = append(parts, fmt.Sprintf("%s:nth-child(%d)", cur.Data, elementIndex(cur)))
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " > ")
}

// elementIndex is the 1-based position of n among its element siblings.
func elementIndex(n *html.Node) int {
	idx := 1
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode {
			idx++
		}
	}
	return idx
}
