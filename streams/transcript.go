// Package streams records console sessions.
package streams

import (
	"fmt"
	"io"

	"github.com/djherbis/stream"
)

// Reader reads a transcript from the start, blocking for output that has
// not been written yet until the transcript is closed.
type Reader interface {
	io.ReadSeekCloser
	io.ReaderAt
	Size() (int64, bool)
}

// Create records to a file at path.
func Create(path string) (*Transcript, error) {
	s, err := stream.New(path)
	if err != nil {
		return nil, fmt.Errorf("error creating transcript %s - %w", path, err)
	}
	return NewTranscript(s), nil
}

// InMemory records to memory.
func InMemory(name string) (*Transcript, error) {
	s, err := stream.NewStream(name, stream.NewMemFS())
	if err != nil {
		return nil, fmt.Errorf("error creating transcript %s - %w", name, err)
	}
	return NewTranscript(s), nil
}

func NewTranscript(stream *stream.Stream) *Transcript {
	return &Transcript{Stream: stream}
}

// A Transcript is an io.Writer that any number of readers can replay.
type Transcript struct {
	*stream.Stream
}

func (t *Transcript) Available() bool {
	return t != nil && t.Stream != nil
}

func (t *Transcript) Write(p []byte) (int, error) {
	if !t.Available() {
		return len(p), nil
	}
	return t.Stream.Write(p)
}

func (t *Transcript) Reader() (Reader, error) {
	if !t.Available() {
		return nil, fmt.Errorf("no transcript available")
	}

	r, err := t.NextReader()
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (t *Transcript) Close() error {
	if !t.Available() {
		return nil
	}

	return t.Stream.Close()
}
