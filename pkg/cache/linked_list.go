package cache

// linkedListNode is a node of the doubly linked list below.
type linkedListNode[V any] struct {
	next  *linkedListNode[V]
	prev  *linkedListNode[V]
	Value V
}

// Next returns the node after n, or nil at the tail.
func (n *linkedListNode[V]) Next() *linkedListNode[V] {
	return n.next
}

// Prev returns the node before n, or nil at the head.
func (n *linkedListNode[V]) Prev() *linkedListNode[V] {
	return n.prev
}

// linkedList is a doubly linked list used as the recency order of the bounded LRU cache: the head
// holds the most recently used entry and the tail the next eviction victim.
type linkedList[V any] struct {
	head *linkedListNode[V]
	tail *linkedListNode[V]
	size int
}

// Len returns the number of nodes in the list.
func (l *linkedList[V]) Len() int {
	return l.size
}

// Front returns the head of the list, or nil if the list is empty.
func (l *linkedList[V]) Front() *linkedListNode[V] {
	return l.head
}

// Back returns the tail of the list, or nil if the list is empty.
func (l *linkedList[V]) Back() *linkedListNode[V] {
	return l.tail
}

// unlink detaches n from its neighbors without touching the size counter.
func (l *linkedList[V]) unlink(n *linkedListNode[V]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else { // n is the head.
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else { // n is the tail.
		l.tail = n.prev
	}
	n.next = nil
	n.prev = nil
}

// Remove removes n from the list. The node must belong to this list.
func (l *linkedList[V]) Remove(n *linkedListNode[V]) {
	l.unlink(n)
	l.size--
}

// PushFront prepends a new value and returns its node.
func (l *linkedList[V]) PushFront(v V) *linkedListNode[V] {
	n := &linkedListNode[V]{Value: v, next: l.head}
	if l.head != nil {
		l.head.prev = n
	} else { // List was empty.
		l.tail = n
	}
	l.head = n
	l.size++
	return n
}

// PushBack appends a new value and returns its node.
func (l *linkedList[V]) PushBack(v V) *linkedListNode[V] {
	n := &linkedListNode[V]{Value: v, prev: l.tail}
	if l.tail != nil {
		l.tail.next = n
	} else { // List was empty.
		l.head = n
	}
	l.tail = n
	l.size++
	return n
}

// MoveToFront relinks n as the new head, marking its value as the most recently used. The node must
// belong to this list.
func (l *linkedList[V]) MoveToFront(n *linkedListNode[V]) {
	if l.head == n {
		return
	}
	l.unlink(n)
	n.next = l.head
	if l.head != nil {
		l.head.prev = n
	} else {
		l.tail = n
	}
	l.head = n
}
