package order

// Status is the lifecycle state of an order.
type Status string

const (
	StatusOrdered  Status = "ORDERED"
	StatusShipped  Status = "SHIPPED"
	StatusReceived Status = "RECEIVED"
	StatusCanceled Status = "CANCELED"
)

// ParseStatus returns the Status named by s. The match is exact.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusOrdered, StatusShipped, StatusReceived, StatusCanceled:
		return st, true
	default:
		return "", false
	}
}

func (s Status) String() string { return string(s) }

// verdict is the outcome of a requested transition.
type verdict uint8

const (
	allow verdict = iota
	denyCanceled
	denyProcessed
)

// transitions[current][target]. Every target is reachable from every
// non-canceled state, except that CANCELED is only reachable from ORDERED.
// Nothing leaves CANCELED.
var transitions = map[Status]map[Status]verdict{
	StatusOrdered: {
		StatusOrdered:  allow,
		StatusShipped:  allow,
		StatusReceived: allow,
		StatusCanceled: allow,
	},
	StatusShipped: {
		StatusOrdered:  allow,
		StatusShipped:  allow,
		StatusReceived: allow,
		StatusCanceled: denyProcessed,
	},
	StatusReceived: {
		StatusOrdered:  allow,
		StatusShipped:  allow,
		StatusReceived: allow,
		StatusCanceled: denyProcessed,
	},
	StatusCanceled: {
		StatusOrdered:  denyCanceled,
		StatusShipped:  denyCanceled,
		StatusReceived: denyCanceled,
		StatusCanceled: denyCanceled,
	},
}

func transition(current, target Status) verdict {
	return transitions[current][target]
}
