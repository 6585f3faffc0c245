package queue

import "unsafe"

type Error string

func (err Error) Error() string {
	return string(err)
}

const (
	// ErrInvalidQueue is returned when an operation is invoked on a nil or
	// freed queue.
	ErrInvalidQueue = Error("invalid queue")
	// ErrAllocation is returned when storage for the queue, an element or a
	// value could not be obtained.
	ErrAllocation = Error("allocation failed")
	// ErrEmptyQueue is returned when removing from a queue without elements.
	ErrEmptyQueue = Error("queue is empty")
	// ErrCorrupt is returned by Check when a structural invariant is broken.
	ErrCorrupt = Error("queue is corrupt")
)

// Kind identifies the type of storage a queue obtains from its Allocator.
type Kind int

const (
	KindQueue Kind = iota
	KindElement
	KindValue
)

func (k Kind) String() string {
	switch k {
	case KindQueue:
		return "queue"
	case KindElement:
		return "element"
	case KindValue:
		return "value"
	default:
		return "unknown"
	}
}

var (
	queueSize   = int(unsafe.Sizeof(Queue{}))
	elementSize = int(unsafe.Sizeof(Element{}))
)

// An Allocator is consulted whenever a queue obtains or releases storage.
// Alloc may refuse a request by returning an error, in which case the queue
// reports ErrAllocation and leaves its structure untouched. Every successful
// Alloc is matched by exactly one Free with the same kind and size.
type Allocator interface {
	Alloc(kind Kind, size int) error
	Free(kind Kind, size int)
}

type heapAllocator struct{}

func (heapAllocator) Alloc(Kind, int) error { return nil }

func (heapAllocator) Free(Kind, int) {}

// HeapAllocator never refuses a request and keeps no accounting.
var HeapAllocator Allocator = heapAllocator{}

type Option func(*Queue)

// WithAllocator routes the queue's storage accounting through a.
func WithAllocator(a Allocator) Option {
	return func(q *Queue) {
		if a != nil {
			q.alloc = a
		}
	}
}
