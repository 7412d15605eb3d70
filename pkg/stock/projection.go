package stock

import (
	"math"
	"time"
)

const DefaultWindowDays = 30

type Projection struct {
	WindowDays    int
	TotalOut      int
	DailyRate     float64
	DaysRemaining int
	DepletionDate time.Time
	// Exhausted marks a current stock at or below zero, where DaysRemaining
	// is zero or negative and the depletion date is today or in the past.
	Exhausted bool
}

// Project estimates when current stock runs out given the stock-out total
// over the trailing window. ok is false when there was no consumption.
func Project(current, totalOut, windowDays int, now time.Time) (Projection, bool) {
	if totalOut <= 0 || windowDays <= 0 {
		return Projection{}, false
	}

	rate := float64(totalOut) / float64(windowDays)
	days := int(math.Floor(float64(current) / rate))

	return Projection{
		WindowDays:    windowDays,
		TotalOut:      totalOut,
		DailyRate:     rate,
		DaysRemaining: days,
		DepletionDate: now.AddDate(0, 0, days),
		Exhausted:     current <= 0,
	}, true
}

// WindowStart is the first day counted by Project.
func WindowStart(now time.Time, windowDays int) time.Time {
	return now.AddDate(0, 0, -windowDays)
}
