package booking

import "errors"

// conflictAttempts bounds how often a read-modify-save is replayed after losing a race.
const conflictAttempts = 3

// RetryOnConflict runs op again while it fails with ErrConflict. op must re-read
// the booking on every call and have no side effects before its Save succeeds.
func RetryOnConflict[T any](op func() (T, error)) (T, error) {
	var (
		out T
		err error
	)
	for attempt := 0; attempt < conflictAttempts; attempt++ {
		out, err = op()
		if !errors.Is(err, ErrConflict) {
			return out, err
		}
	}
	return out, err
}
