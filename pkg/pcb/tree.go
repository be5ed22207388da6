package pcb

// InsertChild attaches child as a new child of parent. Ordering among
// siblings is unspecified (spec §4.1); this implementation prepends,
// giving O(1) insertion.
func InsertChild(parent, child *PCB) {
	child.parent = parent
	child.leftSibling = nil
	child.rightSibling = parent.firstChild
	if parent.firstChild != nil {
		parent.firstChild.leftSibling = child
	}
	parent.firstChild = child
}

// RemoveChild detaches child from its parent's sibling list. child
// must currently have a parent. After RemoveChild, child's tree links
// are cleared; child itself still exists (it is not freed here).
func RemoveChild(child *PCB) {
	parent := child.parent
	if parent == nil {
		return
	}
	if child.leftSibling != nil {
		child.leftSibling.rightSibling = child.rightSibling
	} else {
		parent.firstChild = child.rightSibling
	}
	if child.rightSibling != nil {
		child.rightSibling.leftSibling = child.leftSibling
	}
	child.parent = nil
	child.leftSibling = nil
	child.rightSibling = nil
}
