package queue

import "strings"

// Sort orders the elements ascending by byte-wise comparison of their values.
// The sort is stable.
func (q *Queue) Sort() {
	q.SortFunc(strings.Compare)
}

// SortFunc orders the elements ascending according to cmp, which must return
// a negative number when a < b, zero when a == b and a positive number when
// a > b. Elements comparing equal keep their relative order.
//
// The elements are relinked by a top-down merge sort; no element is allocated
// or released. Recursion depth is logarithmic in the queue size.
func (q *Queue) SortFunc(cmp func(a, b string) int) {
	if !q.valid() || q.count < 2 {
		return
	}

	q.head = mergeSort(q.head, cmp)

	tail := q.head
	for tail.next != nil {
		tail = tail.next
	}
	q.tail = tail
}

func mergeSort(head *Element, cmp func(a, b string) int) *Element {
	if head == nil || head.next == nil {
		return head
	}

	second := split(head)
	return merge(mergeSort(head, cmp), mergeSort(second, cmp), cmp)
}

// split cuts the chain after its midpoint and returns the second half. The
// first half keeps the extra element of an odd-length chain.
func split(head *Element) *Element {
	slow, fast := head, head.next
	for fast != nil && fast.next != nil {
		slow = slow.next
		fast = fast.next.next
	}

	second := slow.next
	slow.next = nil
	return second
}

// merge interleaves two sorted chains. On ties the element from left goes
// first.
func merge(left, right *Element, cmp func(a, b string) int) *Element {
	var head *Element
	link := &head

	for left != nil && right != nil {
		if cmp(right.value, left.value) < 0 {
			*link = right
			right = right.next
		} else {
			*link = left
			left = left.next
		}
		link = &(*link).next
	}

	if left != nil {
		*link = left
	} else {
		*link = right
	}
	return head
}
