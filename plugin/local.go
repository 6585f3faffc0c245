package plugin

import (
	"bytes"
	"fmt"
	"strconv"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/reeveci/strqueue/config"
	"github.com/reeveci/strqueue/harness"
	"github.com/reeveci/strqueue/queue"
)

const SETTING_FAIL = "fail"

// Local is an in-process Driver. Its queues share one harness.Tracker, so
// Stats covers every queue the driver ever created. Calls are serialised.
type Local struct {
	lock    sync.Mutex
	logger  hclog.Logger
	tracker *harness.Tracker
	queues  map[Handle]*queue.Queue
	last    Handle
}

func NewLocal(logger hclog.Logger) *Local {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Local{
		logger:  logger,
		tracker: harness.NewTracker(0),
		queues:  make(map[Handle]*queue.Queue),
	}
}

// get returns nil for handles that do not refer to a live queue, which the
// queue treats as absent.
func (l *Local) get(h Handle) *queue.Queue {
	return l.queues[h]
}

func (l *Local) New() (Handle, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	q, err := queue.New(queue.WithAllocator(l.tracker))
	if err != nil {
		return 0, err
	}

	l.last += 1
	l.queues[l.last] = q
	l.logger.Debug("queue created", "handle", l.last)
	return l.last, nil
}

func (l *Local) Free(h Handle) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	q := l.get(h)
	if q == nil {
		return nil
	}

	size := q.Size()
	q.Free()
	delete(l.queues, h)
	l.logger.Debug("queue freed", "handle", h, "elements", size)
	return nil
}

func (l *Local) InsertHead(h Handle, value string) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	return l.get(h).InsertHead(value)
}

func (l *Local) InsertTail(h Handle, value string) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	return l.get(h).InsertTail(value)
}

func (l *Local) RemoveHead(h Handle, bufsize int) (string, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	if bufsize > config.MAX_BUFSIZE {
		return "", fmt.Errorf("buffer size %d exceeds %d", bufsize, config.MAX_BUFSIZE)
	}

	var sp []byte
	if bufsize >= 0 {
		sp = make([]byte, bufsize)
	}

	if err := l.get(h).RemoveHead(sp); err != nil {
		return "", err
	}

	if i := bytes.IndexByte(sp, 0); i >= 0 {
		return string(sp[:i]), nil
	}
	return "", nil
}

func (l *Local) Size(h Handle) (int, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	return l.get(h).Size(), nil
}

func (l *Local) Reverse(h Handle) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	l.get(h).Reverse()
	return nil
}

func (l *Local) Sort(h Handle) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	l.get(h).Sort()
	return nil
}

func (l *Local) Values(h Handle) ([]string, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	q := l.get(h)
	if q == nil {
		return nil, queue.ErrInvalidQueue
	}
	return q.Values(), nil
}

func (l *Local) Check(h Handle) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	return l.get(h).Check()
}

// Configure applies driver settings. SETTING_FAIL sets the percentage of
// allocations the driver refuses.
func (l *Local) Configure(settings map[string]string) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	for key, value := range settings {
		switch key {
		case SETTING_FAIL:
			percent, err := strconv.Atoi(value)
			if err != nil || percent < 0 || percent > 100 {
				return fmt.Errorf("invalid %s setting %q - expected a percentage between 0 and 100", key, value)
			}
			l.tracker.SetFailPercent(percent)
			l.logger.Debug("allocation failure rate changed", "percent", percent)

		default:
			return fmt.Errorf("unknown driver setting %q", key)
		}
	}
	return nil
}

func (l *Local) Stats() (harness.Stats, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	return l.tracker.Stats(), nil
}

// Close frees every queue that is still live.
func (l *Local) Close() error {
	l.lock.Lock()
	defer l.lock.Unlock()

	for h, q := range l.queues {
		q.Free()
		delete(l.queues, h)
	}
	return l.tracker.Err()
}

var _ Driver = (*Local)(nil)
