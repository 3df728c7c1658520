package service

import "time"

// Scheduler arms cancelable one-shot tasks. Injected so tests can drive
// virtual time instead of sleeping through real grace periods.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) (cancel func())
}

type TimerScheduler struct{}

func (TimerScheduler) Schedule(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}
