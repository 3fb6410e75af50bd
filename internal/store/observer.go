package store

import "time"

// Observer receives transaction outcomes. Implementations must be safe for
// concurrent use and must not call back into the store.
type Observer interface {
	Committed(changes int, elapsed time.Duration)
	RolledBack(changes int)
	CommitFailed(err error)
}

type nopObserver struct{}

func (nopObserver) Committed(int, time.Duration) {}
func (nopObserver) RolledBack(int)               {}
func (nopObserver) CommitFailed(error)           {}
