package route

import (
	"fmt"
	"strings"
)

type nodeTyp uint8

const (
	ntStatic   nodeTyp = iota // /docs
	ntParam                   // /[id]
	ntCatchAll                // /[...rest]
)

// node is one path segment of the routing tree. Children are grouped by type so
// lookups try static segments before params and params before catch-alls.
type node struct {
	typ nodeTyp
	// key is the literal segment for static nodes and the parameter name otherwise
	key      string
	children [ntCatchAll + 1][]*node
	route    *Route
}

// segment is a parsed pattern segment.
type segment struct {
	typ   nodeTyp
	value string
}

// parsePattern splits a pattern such as "/blog/[slug]/[...rest]" into segments.
func parsePattern(pattern string) ([]segment, error) {
	if !strings.HasPrefix(pattern, "/") {
		return nil, fmt.Errorf("%w: %q must start with /", ErrInvalidPattern, pattern)
	}

	parts := splitPath(pattern)
	segs := make([]segment, 0, len(parts))
	seen := make(map[string]bool, len(parts))

	for i, part := range parts {
		if !strings.HasPrefix(part, "[") {
			if strings.ContainsAny(part, "[]") {
				return nil, fmt.Errorf("%w: %q has a partial parameter segment", ErrInvalidPattern, pattern)
			}
			segs = append(segs, segment{typ: ntStatic, value: part})
			continue
		}

		if !strings.HasSuffix(part, "]") {
			return nil, fmt.Errorf("%w: %q has an unclosed parameter", ErrInvalidPattern, pattern)
		}
		name := part[1 : len(part)-1]
		typ := ntParam
		if rest, ok := strings.CutPrefix(name, "..."); ok {
			if i != len(parts)-1 {
				return nil, fmt.Errorf("%w: %q catch-all must be the last segment", ErrInvalidPattern, pattern)
			}
			name, typ = rest, ntCatchAll
		}
		if name == "" || strings.ContainsAny(name, "[]./") {
			return nil, fmt.Errorf("%w: %q has an invalid parameter name", ErrInvalidPattern, pattern)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: %q repeats parameter %q", ErrInvalidPattern, pattern, name)
		}
		seen[name] = true
		segs = append(segs, segment{typ: typ, value: name})
	}
	return segs, nil
}

// splitPath returns the non-empty path segments.
func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// insert adds a route below n. It returns false when the leaf is already taken.
func (n *node) insert(segs []segment, r *Route) bool {
	cur := n
	for _, seg := range segs {
		cur = cur.child(seg)
	}
	if cur.route != nil {
		return false
	}
	cur.route = r
	return true
}

// child returns the child for seg, creating it if needed.
func (n *node) child(seg segment) *node {
	for _, c := range n.children[seg.typ] {
		if c.key == seg.value {
			return c
		}
	}
	c := &node{typ: seg.typ, key: seg.value}
	n.children[seg.typ] = append(n.children[seg.typ], c)
	return c
}

// find walks the tree with backtracking. Values of matched parameters are
// appended to params in pattern order.
func (n *node) find(parts []string, params map[string]string) *Route {
	if len(parts) == 0 {
		if n.route != nil {
			return n.route
		}
		// An empty catch-all still matches
		for _, c := range n.children[ntCatchAll] {
			if c.route != nil {
				params[c.key] = ""
				return c.route
			}
		}
		return nil
	}

	head, rest := parts[0], parts[1:]

	for _, c := range n.children[ntStatic] {
		if c.key != head {
			continue
		}
		if r := c.find(rest, params); r != nil {
			return r
		}
	}

	for _, c := range n.children[ntParam] {
		if r := c.find(rest, params); r != nil {
			params[c.key] = head
			return r
		}
	}

	for _, c := range n.children[ntCatchAll] {
		if c.route != nil {
			params[c.key] = strings.Join(parts, "/")
			return c.route
		}
	}
	return nil
}
