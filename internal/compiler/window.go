package compiler

import (
	"errors"
	"time"

	"divcompiler/models"
)

// DefaultPeriod is the number of days on each side of the last payment.
const DefaultPeriod = 7

var ErrNegativePeriod = errors.New("period must not be negative")

// Window is a half-open range of calendar dates [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// DividendWindow centers a window on payDate. End is one day past
// payDate+period so that day itself is included.
func DividendWindow(payDate time.Time, period int) (Window, error) {
	if period < 0 {
		return Window{}, ErrNegativePeriod
	}
	d := models.Date(payDate)
	return Window{
		Start: d.AddDate(0, 0, -period),
		End:   d.AddDate(0, 0, period+1),
	}, nil
}

// Contains reports whether the calendar date of t lies in the window.
func (w Window) Contains(t time.Time) bool {
	d := models.Date(t)
	return !d.Before(w.Start) && d.Before(w.End)
}

func (w Window) String() string {
	return "[" + w.Start.Format(models.DateFormat) + ", " + w.End.Format(models.DateFormat) + ")"
}
