package response

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// CanTransition follows pending → processing → shipped → delivered, with
// cancellation allowed before shipping.
func (s Status) CanTransition(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Predecessors lists the statuses that may move to s.
func (s Status) Predecessors() []Status {
	from := []Status{}
	for _, candidate := range []Status{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled} {
		if candidate.CanTransition(s) {
			from = append(from, candidate)
		}
	}
	return from
}

func (s Status) IsCancellable() bool {
	return s.CanTransition(StatusCancelled)
}

func (s Status) IsFinal() bool {
	return len(transitions[s]) == 0
}
