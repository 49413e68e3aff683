package sqlqueue

// DefaultQueueLimit is the queue length above which Driver.Queue flushes implicitly
const DefaultQueueLimit = 64

// Limiter is an interface that can be passed as an option to New
//
// and decides when the queued statements are flushed without an explicit call
type Limiter interface {
	// LimitReached should return true if the queue length exceeds the maximum
	LimitReached(queued int) bool
}

// QueueLimit is a Limiter that flushes once more than the given number of statements are queued
//
// a QueueLimit of zero (or less) never flushes implicitly
type QueueLimit int

var _ Limiter = QueueLimit(0)

func (l QueueLimit) LimitReached(queued int) bool {
	return l > 0 && queued > int(l)
}
