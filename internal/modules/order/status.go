package order

// validTransitions defines the allowed status state machine. DISPATCHED is terminal.
var validTransitions = map[Status][]Status{
	StatusCreated:            {StatusAWBGenerated, StatusPartiallyAllocated, StatusNoPartnerFailure},
	StatusPartiallyAllocated: {StatusAllocated, StatusPartiallyAllocated},
	StatusNoPartnerFailure:   {StatusCreated},
	StatusAWBGenerated:       {StatusDispatched},
	StatusAllocated:          {StatusDispatched},
	StatusDispatched:         {},
}

// CanTransition reports whether from → to is allowed.
func CanTransition(from, to Status) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsFulfilled reports whether the order holds a complete allocation and an AWB.
func (s Status) IsFulfilled() bool {
	return s == StatusAWBGenerated || s == StatusAllocated
}
