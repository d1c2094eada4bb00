package booking

// AllowedTransitions is the commercial booking flow. Completed is only reached
// through the journey lifecycle.
var AllowedTransitions = map[Status][]Status{
	StatusRequested: {StatusQuoted, StatusCancelled},
	StatusQuoted:    {StatusQuoted, StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	for _, s := range AllowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
