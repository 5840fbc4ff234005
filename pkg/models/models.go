package models

import "time"

// Sample is one value returned by the service during a sampling run.
type Sample struct {
	Iteration int // 1-based
	Value     int
	Timestamp time.Time
	Duration  time.Duration // time spent in the service call
}
