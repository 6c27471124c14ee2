/*
cagroup.go - Case-age (CA Group) bucketing

PURPOSE:
  Buckets a case's age - from creation to "now" - into the fixed
  ranges the reporting layer groups by. Age is measured as elapsed
  duration so a case created three days and one second ago already
  falls in the next bucket.
*/
package engine

import "time"

const dayDuration = 24 * time.Hour

// CAGroup returns the case-age bucket for a creation timestamp.
// Unparseable timestamps yield "NA"; negative ages clamp to zero.
func CAGroup(createdOn string, now time.Time) string {
	created, ok := ParseTime(createdOn)
	if !ok {
		return NotApplicable
	}

	age := now.Sub(created)
	if age < 0 {
		age = 0
	}
	days := float64(age) / float64(dayDuration)

	switch {
	case days <= 3:
		return "0-3 Days"
	case days <= 5:
		return "3-5 Days"
	case days <= 10:
		return "5-10 Days"
	case days <= 15:
		return "10-15 Days"
	case days <= 30:
		return "15-30 Days"
	case days <= 60:
		return "30-60 Days"
	case days <= 90:
		return "60-90 Days"
	default:
		return "> 90 Days"
	}
}
