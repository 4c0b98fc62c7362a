package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var allStatuses = []Status{StatusOrdered, StatusShipped, StatusReceived, StatusCanceled}

func TestParseStatus(t *testing.T) {
	for _, st := range allStatuses {
		got, ok := ParseStatus(st.String())
		assert.True(t, ok, st)
		assert.Equal(t, st, got)
	}

	for _, s := range []string{"", "ordered", "Canceled", "CANCELLED", "DELIVERED"} {
		_, ok := ParseStatus(s)
		assert.False(t, ok, s)
	}
}

func TestTransitionTable(t *testing.T) {
	for _, current := range allStatuses {
		for _, target := range allStatuses {
			got := transition(current, target)

			var want verdict
			switch {
			case current == StatusCanceled:
				want = denyCanceled
			case target == StatusCanceled && current != StatusOrdered:
				want = denyProcessed
			default:
				want = allow
			}
			assert.Equal(t, want, got, "%s -> %s", current, target)
		}
	}
}
