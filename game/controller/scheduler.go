package controller

import "time"

// Timer is a pending scheduled task
type Timer interface {
	// Stop prevents the task from firing. It returns false if the task
	// already fired or was stopped.
	Stop() bool
}

// Scheduler runs f once after d elapses, on its own goroutine
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// RealScheduler schedules tasks with time.AfterFunc
type RealScheduler struct{}

// AfterFunc implements Scheduler
func (RealScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
