// Bounded FIFO of guests waiting for a console.

package sim

import (
	"fmt"
	"strings"
)

// MaxQueueLength is the most guests a single console queue holds.
const MaxQueueLength = 4

// GuestQueue is the ordered line in front of a console. The queue holds weak
// references: guests are owned by the Venue, not by the queue.
// Every mutation re-indexes the queue positions of the remaining guests.
type GuestQueue struct {
	queue []*Guest
}

// Len returns the number of guests in line.
func (q *GuestQueue) Len() int {
	return len(q.queue)
}

// Full reports whether the queue holds MaxQueueLength guests.
func (q *GuestQueue) Full() bool {
	return len(q.queue) >= MaxQueueLength
}

// Peek returns the guest at the head of the line, or nil if empty.
func (q *GuestQueue) Peek() *Guest {
	if len(q.queue) == 0 {
		return nil
	}
	return q.queue[0]
}

// Items returns the queue contents in order.
// The returned slice is the queue's internal storage; callers MUST NOT modify it.
func (q *GuestQueue) Items() []*Guest {
	return q.queue
}

// IndexOf returns the position of g in line, or -1 if absent.
func (q *GuestQueue) IndexOf(g *Guest) int {
	for i, queued := range q.queue {
		if queued == g {
			return i
		}
	}
	return -1
}

// Enqueue appends g to the back of the line. It is a no-op returning false if
// g is already queued or the queue is full.
func (q *GuestQueue) Enqueue(g *Guest) bool {
	if g == nil {
		panic("Enqueue: guest must not be nil")
	}
	if q.IndexOf(g) >= 0 || q.Full() {
		return false
	}
	q.queue = append(q.queue, g)
	q.reindex()
	return true
}

// Remove takes g out of the line. It is a no-op returning false if g is not queued.
func (q *GuestQueue) Remove(g *Guest) bool {
	idx := q.IndexOf(g)
	if idx < 0 {
		return false
	}
	q.queue = append(q.queue[:idx], q.queue[idx+1:]...)
	g.queuePosition = -1
	q.reindex()
	return true
}

// Dequeue removes and returns the head of the line, or nil if empty.
func (q *GuestQueue) Dequeue() *Guest {
	if len(q.queue) == 0 {
		return nil
	}
	head := q.queue[0]
	q.queue = q.queue[1:]
	head.queuePosition = -1
	q.reindex()
	return head
}

func (q *GuestQueue) reindex() {
	for i, g := range q.queue {
		g.queuePosition = i
	}
}

func (q *GuestQueue) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, g := range q.queue {
		sb.WriteString(fmt.Sprint(g))
		if i < len(q.queue)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}
