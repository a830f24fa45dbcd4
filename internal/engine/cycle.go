package engine

import "strings"

// resolveStack tracks the types currently being resolved, outermost first.
//
// A type that contains itself, directly or through other types, would need
// infinite size. Resolution pushes each type before resolving its fields,
// so meeting a type that is already on the stack means recursive
// containment.
//
// Not safe for concurrent use; Seal owns the only instance.
type resolveStack struct {
	names   []string
	onStack map[string]bool
}

func newResolveStack() *resolveStack {
	return &resolveStack{onStack: make(map[string]bool)}
}

// WouldCycle reports whether resolving name now would recurse into itself.
func (s *resolveStack) WouldCycle(name string) bool {
	return s.onStack[name]
}

func (s *resolveStack) Push(name string) {
	s.names = append(s.names, name)
	s.onStack[name] = true
}

func (s *resolveStack) Pop() {
	last := s.names[len(s.names)-1]
	s.names = s.names[:len(s.names)-1]
	delete(s.onStack, last)
}

// Path renders the containment chain from the first occurrence of name back
// to name, e.g. "Node -> Pair -> Node".
func (s *resolveStack) Path(name string) string {
	start := 0
	for i, n := range s.names {
		if n == name {
			start = i
			break
		}
	}
	chain := append([]string{}, s.names[start:]...)
	chain = append(chain, name)
	return strings.Join(chain, " -> ")
}
