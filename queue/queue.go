// Package queue implements a singly linked queue of strings with head and tail
// insertion, head removal, in-place reversal and a stable merge sort.
//
// A nil *Queue is a valid receiver for every method and behaves as an absent
// queue: mutations fail with ErrInvalidQueue, Size reports 0 and Reverse and
// Sort do nothing. A Queue is not safe for concurrent use.
package queue

import (
	"fmt"
	"iter"
	"strings"
)

type Element struct {
	value string
	next  *Element
}

type Queue struct {
	head, tail *Element
	count      int

	alloc Allocator
	freed bool
}

// New returns an empty queue. It fails with ErrAllocation if the allocator
// refuses storage for the queue itself.
func New(opts ...Option) (*Queue, error) {
	q := &Queue{alloc: HeapAllocator}
	for _, opt := range opts {
		opt(q)
	}

	if err := q.alloc.Alloc(KindQueue, queueSize); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrAllocation, KindQueue, err)
	}
	return q, nil
}

func (q *Queue) valid() bool {
	return q != nil && !q.freed
}

// Free releases every element, head to tail, and then the queue. The queue
// must not be used afterwards; if it is, it behaves as an absent queue.
func (q *Queue) Free() {
	if !q.valid() {
		return
	}

	for e := q.head; e != nil; {
		next := e.next
		q.release(e)
		e = next
	}
	q.head, q.tail, q.count = nil, nil, 0

	q.alloc.Free(KindQueue, queueSize)
	q.freed = true
}

// newElement obtains a detached element holding a private copy of value.
// Nothing is left allocated when it fails.
func (q *Queue) newElement(value string) (*Element, error) {
	if !q.valid() {
		return nil, ErrInvalidQueue
	}

	if err := q.alloc.Alloc(KindElement, elementSize); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrAllocation, KindElement, err)
	}
	if err := q.alloc.Alloc(KindValue, len(value)+1); err != nil {
		q.alloc.Free(KindElement, elementSize)
		return nil, fmt.Errorf("%w: %s: %w", ErrAllocation, KindValue, err)
	}

	return &Element{value: strings.Clone(value)}, nil
}

func (q *Queue) release(e *Element) {
	q.alloc.Free(KindValue, len(e.value)+1)
	q.alloc.Free(KindElement, elementSize)
	e.value = ""
	e.next = nil
}

func (q *Queue) InsertHead(value string) error {
	e, err := q.newElement(value)
	if err != nil {
		return err
	}

	e.next = q.head
	q.head = e
	if q.tail == nil {
		q.tail = e
	}
	q.count += 1
	return nil
}

func (q *Queue) InsertTail(value string) error {
	e, err := q.newElement(value)
	if err != nil {
		return err
	}

	if q.tail != nil {
		q.tail.next = e
	} else {
		q.head = e
	}
	q.tail = e
	q.count += 1
	return nil
}

// RemoveHead detaches the first element and releases it.
//
// If sp is not empty, the removed value is copied into it, truncated to
// len(sp)-1 bytes, followed by a 0 terminator. A nil sp discards the value;
// an empty, non-nil sp has no room for the terminator and is left untouched.
func (q *Queue) RemoveHead(sp []byte) error {
	if !q.valid() {
		return ErrInvalidQueue
	}
	if q.count == 0 {
		return ErrEmptyQueue
	}

	e := q.head
	if len(sp) > 0 {
		n := copy(sp[:len(sp)-1], e.value)
		sp[n] = 0
	}

	q.head = e.next
	if q.head == nil {
		q.tail = nil
	}
	q.count -= 1
	q.release(e)
	return nil
}

// PopHead removes the first element and returns its whole value.
func (q *Queue) PopHead() (string, error) {
	if !q.valid() {
		return "", ErrInvalidQueue
	}
	if q.count == 0 {
		return "", ErrEmptyQueue
	}

	// the element's value is cleared on release
	value := q.head.value
	if err := q.RemoveHead(nil); err != nil {
		return "", err
	}
	return value, nil
}

func (q *Queue) Size() int {
	if !q.valid() {
		return 0
	}
	return q.count
}

// Reverse relinks the elements in place so that the head becomes the tail.
func (q *Queue) Reverse() {
	if !q.valid() || q.count < 2 {
		return
	}

	var prev *Element
	current := q.head
	q.tail = current
	for current != nil {
		next := current.next
		current.next = prev
		prev, current = current, next
	}
	q.head = prev
}

// All yields the values from head to tail. The queue must not be modified
// during iteration.
func (q *Queue) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		if !q.valid() {
			return
		}
		for e := q.head; e != nil; e = e.next {
			if !yield(e.value) {
				return
			}
		}
	}
}

// Values returns a snapshot of the values from head to tail.
func (q *Queue) Values() []string {
	result := make([]string, 0, q.Size())
	for value := range q.All() {
		result = append(result, value)
	}
	return result
}
