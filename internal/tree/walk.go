package tree

// Walk visits the subtree in pre-order. Returning false skips the node's children.
func Walk(n *Node, fn func(n *Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

// WalkWith visits the subtree in pre-order, threading inherited state downward.
// fn receives the state computed by the parent and returns the state its children inherit.
// Nodes are never annotated with traversal bookkeeping.
func WalkWith[T any](n *Node, inherited T, fn func(n *Node, inherited T) T) {
	if n == nil {
		return
	}
	next := fn(n, inherited)
	for _, c := range n.Children {
		WalkWith(c, next, fn)
	}
}

// Find returns the first node in pre-order that matches
func Find(n *Node, match func(*Node) bool) *Node {
	var found *Node
	Walk(n, func(c *Node) bool {
		if found != nil {
			return false
		}
		if match(c) {
			found = c
			return false
		}
		return true
	})
	return found
}
