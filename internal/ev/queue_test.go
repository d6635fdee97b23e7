package ev_test

import (
	"errors"
	"testing"

	"deedles.dev/wlbackend/internal/ev"
	"github.com/stretchr/testify/assert"
)

func TestQueue(t *testing.T) {
	q := ev.NewQueue()
	defer q.Stop()

	errBad := errors.New("bad")
	var order []int
	for i := range 4 {
		q.Add() <- func() error {
			order = append(order, i)
			if i == 2 {
				return errBad
			}
			return nil
		}
	}

	var errs []error
	for len(order) < 4 {
		events := <-q.Get()
		assert.NotZero(t, events.Len())
		errs = append(errs, ev.Flush(events)...)
		assert.Zero(t, events.Len())
	}

	assert.Equal(t, []int{0, 1, 2, 3}, order)
	assert.Equal(t, []error{errBad}, errs)
}
