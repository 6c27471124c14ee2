/*
sbd.go - Service-by-date (SBD) configuration and verdict

PURPOSE:
  SBD answers "did the first order activity happen before the
  country's cutoff?" for a case. The configuration is a small set of
  ordered, non-overlapping date periods, each carrying per-country
  cutoff times; it is user-edited and validated at save time.

VERDICT RULES:
  1. Find the period whose [start, end] (inclusive, date-only)
     contains the case's creation date.
  2. Find that period's row for the case's country (case-insensitive).
  3. The effective cutoff is the creation date at the configured time;
     if the case was created after that time-of-day, the cutoff rolls
     to the next calendar day.
  4. First order activity at-or-before the cutoff -> "Met",
     after -> "Not Met".
  Any missing piece (period, country row, cutoff time, first-activity
  timestamp) independently yields "NA".
*/
package engine

import (
	"fmt"
	"time"
)

// MaxSBDPeriods caps how many date periods a configuration carries.
const MaxSBDPeriods = 3

const dateLayout = "2006-01-02"

// =============================================================================
// CONFIGURATION
// =============================================================================

// SBDCutoff is one country's cutoff time within a period.
type SBDCutoff struct {
	Country string `json:"country"`
	Time    string `json:"time"` // "HH:MM", 24-hour
}

// SBDPeriod is one configured date period with its cutoff rows.
// Start and End are date-only ("2006-01-02"), inclusive.
type SBDPeriod struct {
	Start string      `json:"startDate"`
	End   string      `json:"endDate"`
	Rows  []SBDCutoff `json:"rows"`
}

// SBDConfig is the full user-edited configuration.
type SBDConfig struct {
	Periods []SBDPeriod `json:"periods"`
}

// EmptySBDConfig returns the editable default: three blank periods.
func EmptySBDConfig() SBDConfig {
	return SBDConfig{Periods: make([]SBDPeriod, MaxSBDPeriods)}
}

func (p SBDPeriod) bounds() (start, end time.Time, ok bool) {
	start, err := time.Parse(dateLayout, p.Start)
	if err != nil {
		return start, end, false
	}
	end, err = time.Parse(dateLayout, p.End)
	if err != nil {
		return start, end, false
	}
	return start, end, true
}

// Validate rejects configurations whose periods overlap. Periods with
// blank or malformed bounds are treated as unset and never conflict.
func (c SBDConfig) Validate() error {
	if len(c.Periods) > MaxSBDPeriods {
		return fmt.Errorf("at most %d sbd periods are supported, got %d", MaxSBDPeriods, len(c.Periods))
	}
	for i := 0; i < len(c.Periods); i++ {
		aStart, aEnd, ok := c.Periods[i].bounds()
		if !ok {
			continue
		}
		for j := i + 1; j < len(c.Periods); j++ {
			bStart, bEnd, ok := c.Periods[j].bounds()
			if !ok {
				continue
			}
			if !aEnd.Before(bStart) && !bEnd.Before(aStart) {
				return &PeriodOverlapError{First: i, Second: j}
			}
		}
	}
	return nil
}

// =============================================================================
// VERDICT
// =============================================================================

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// periodFor returns the period containing the date, or nil.
func (c SBDConfig) periodFor(date time.Time) *SBDPeriod {
	for i := range c.Periods {
		start, end, ok := c.Periods[i].bounds()
		if !ok {
			continue
		}
		if !date.Before(start) && !date.After(end) {
			return &c.Periods[i]
		}
	}
	return nil
}

// cutoffFor returns the period's cutoff time for a country.
func (p *SBDPeriod) cutoffFor(country string) (hour, minute int, ok bool) {
	key := Fold(country)
	for _, row := range p.Rows {
		if Fold(row.Country) != key {
			continue
		}
		if _, err := fmt.Sscanf(row.Time, "%d:%d", &hour, &minute); err != nil {
			return 0, 0, false
		}
		return hour, minute, true
	}
	return 0, 0, false
}

// EvaluateSBD computes the SBD verdict for a case.
func (c SBDConfig) EvaluateSBD(caseCreatedOn, country string, firstActivity time.Time, hasActivity bool) string {
	created, ok := ParseTime(caseCreatedOn)
	if !ok {
		return NotApplicable
	}

	period := c.periodFor(dateOnly(created))
	if period == nil {
		return NotApplicable
	}

	hour, minute, ok := period.cutoffFor(country)
	if !ok {
		return NotApplicable
	}

	if !hasActivity {
		return NotApplicable
	}

	cutoff := time.Date(created.Year(), created.Month(), created.Day(), hour, minute, 0, 0, created.Location())
	if created.After(cutoff) {
		cutoff = cutoff.AddDate(0, 0, 1)
	}

	if !firstActivity.After(cutoff) {
		return "Met"
	}
	return "Not Met"
}
