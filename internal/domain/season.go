package domain

import "time"

// Season is the scan window for one batch run.
type Season struct {
	// Start is October 1 of the preceding autumn.
	Start time.Time
	// Today is the run date; history sources stop here.
	Today time.Time
	// End is the last forecast day.
	End time.Time
	// TargetYear selects the reset dates handed to Compute.
	TargetYear int
}

// SeasonFor derives the scan window for a run on now. A positive
// targetYear overrides the derived one.
func SeasonFor(now time.Time, forecastDays, targetYear int) Season {
	today := Day(now)
	startYear := today.Year()
	if today.Month() < time.October {
		startYear--
	}
	if targetYear <= 0 {
		targetYear = startYear + 1
	}
	return Season{
		Start:      time.Date(startYear, time.October, 1, 0, 0, 0, 0, time.UTC),
		Today:      today,
		End:        today.AddDate(0, 0, forecastDays),
		TargetYear: targetYear,
	}
}

// CurrentSeason is SeasonFor at the package clock's current time.
func CurrentSeason(forecastDays, targetYear int) Season {
	return SeasonFor(clock.Now(), forecastDays, targetYear)
}
