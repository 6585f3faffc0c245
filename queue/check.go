package queue

import "fmt"

// Check verifies the structural invariants of the queue: head, tail and count
// agree on emptiness, the chain from head reaches tail in exactly count steps,
// and tail terminates the chain. A nil or freed queue is trivially consistent.
func (q *Queue) Check() error {
	if !q.valid() {
		return nil
	}

	if q.count < 0 {
		return fmt.Errorf("%w: negative count %d", ErrCorrupt, q.count)
	}
	if (q.head == nil) != (q.tail == nil) || (q.head == nil) != (q.count == 0) {
		return fmt.Errorf("%w: head set=%t, tail set=%t, count=%d", ErrCorrupt, q.head != nil, q.tail != nil, q.count)
	}
	if q.head == nil {
		return nil
	}

	// walking at most count elements keeps the check finite on a cycle
	e := q.head
	for steps := 1; steps < q.count; steps += 1 {
		if e == q.tail {
			return fmt.Errorf("%w: reached tail after %d of %d elements", ErrCorrupt, steps, q.count)
		}
		e = e.next
		if e == nil {
			return fmt.Errorf("%w: chain ends after %d of %d elements", ErrCorrupt, steps, q.count)
		}
	}

	if e != q.tail {
		return fmt.Errorf("%w: element %d is not the tail", ErrCorrupt, q.count)
	}
	if q.tail.next != nil {
		return fmt.Errorf("%w: tail has a successor", ErrCorrupt)
	}
	return nil
}
