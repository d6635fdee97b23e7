// Package ev implements the queue that carries decoded protocol
// events from the connection goroutine to the goroutine that consumes
// them.
package ev

import (
	"errors"

	"deedles.dev/xsync/cq"
)

// Queue collects events as they are added and hands them out in
// batches. Adding never blocks on the consumer.
type Queue = cq.BulkQueue[func() error, *Events]

func NewQueue() *Queue {
	return cq.New(func(v []func() error) *Events {
		return &Events{
			events: v,
		}
	})
}

// Events represents a series of events from a Client's event queue.
type Events struct {
	events []func() error
}

// Len returns the number of events that have not been processed yet.
func (q *Events) Len() int {
	return len(q.events)
}

// Flush processess all of the events represented by q.
func (q *Events) Flush() error {
	return errors.Join(Flush(q)...)
}

// Flush processes the events in queue in order and returns every error
// they produced. An event that is processed is removed from queue.
func Flush(queue *Events) (errs []error) {
	for len(queue.events) > 0 {
		ev := queue.events[0]
		queue.events = queue.events[1:]
		err := ev()
		if err != nil {
			errs = append(errs, err)
		}
	}
	queue.events = nil
	return errs
}
