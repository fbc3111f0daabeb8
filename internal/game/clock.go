package game

import "time"

// Clock supplies the current time and schedules deadline callbacks
type Clock interface {
	Now() time.Time
	// AfterFunc runs f after d on its own goroutine. The returned func cancels
	// the callback and reports whether it was still pending.
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

type systemClock struct{}

// SystemClock is the wall clock backed by time.AfterFunc
func SystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}
