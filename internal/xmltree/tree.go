// Package xmltree builds a minimal read-only element tree from an XML
// document using the standard library tokenizer.
//
// The tree keeps only what the report interpreters need: local tag names,
// child order, and per-element text content. Namespaces and attributes are
// ignored. Lookups are first-match among direct children, mirroring how the
// inspection reports cross-reference their sections.
package xmltree

import (
	"bufio"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Node is one element of the parsed document.
type Node struct {
	Tag      string
	Text     string
	Children []*Node
}

// Parse reads an XML document and returns its root element.
//
// The decoder runs in non-strict mode and a truncated trailing element is
// tolerated: the tree built so far is returned. A document without any root
// element is an error.
func Parse(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(bufio.NewReaderSize(r, 64<<10))
	dec.Strict = false

	var root *Node
	var stack []*Node
	var bufs [][]byte

	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF || isTruncErr(err) {
				break
			}
			return nil, fmt.Errorf("xmltree: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Tag: t.Name.Local}
			if len(stack) == 0 {
				if root != nil {
					// Trailing siblings of the root are ignored.
					if err := dec.Skip(); err != nil && err != io.EOF && !isTruncErr(err) {
						return nil, fmt.Errorf("xmltree: %w", err)
					}
					continue
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)
			bufs = append(bufs, nil)
		case xml.CharData:
			if len(stack) > 0 {
				bufs[len(bufs)-1] = append(bufs[len(bufs)-1], t...)
			}
		case xml.EndElement:
			if len(stack) > 0 {
				stack[len(stack)-1].Text = string(trimSpace(bufs[len(bufs)-1]))
				stack = stack[:len(stack)-1]
				bufs = bufs[:len(bufs)-1]
			}
		}
	}

	// Commit text of elements left open by a truncated document.
	for len(stack) > 0 {
		stack[len(stack)-1].Text = string(trimSpace(bufs[len(bufs)-1]))
		stack = stack[:len(stack)-1]
		bufs = bufs[:len(bufs)-1]
	}

	if root == nil {
		return nil, errors.New("xmltree: no root element")
	}
	return root, nil
}

// Child returns the first direct child with the given tag, or nil.
func (n *Node) Child(tag string) *Node {
	for _, c := range n.Children {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

// HasChild reports whether a direct child with the given tag exists.
func (n *Node) HasChild(tag string) bool { return n.Child(tag) != nil }

// ChildText returns the text content of the first direct child with the
// given tag, or "" when the child is absent or textless.
func (n *Node) ChildText(tag string) string {
	if c := n.Child(tag); c != nil {
		return c.Text
	}
	return ""
}

// isTruncErr returns true when a tokenization error indicates a truncated or
// partial XML stream. encoding/xml does not expose a sentinel, so we match
// the common message substrings used by its errors.
func isTruncErr(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "unexpected EOF") ||
		strings.Contains(s, "XML syntax error")
}

// trimSpace is an ASCII-focused trim that avoids string round-trips.
func trimSpace(b []byte) []byte {
	i, j := 0, len(b)-1
	for i <= j && (b[i] == ' ' || b[i] == '\n' || b[i] == '\r' || b[i] == '\t') {
		i++
	}
	for j >= i && (b[j] == ' ' || b[j] == '\n' || b[j] == '\r' || b[j] == '\t') {
		j--
	}
	if i > j {
		return nil
	}
	return b[i : j+1]
}
