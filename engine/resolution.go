/*
resolution.go - Cross-table resolution recalculation

PURPOSE:
  The resolution code declared on a Dump record can be stale relative
  to what actually happened operationally. Recency of cross-table
  order activity is the ground truth: whichever order table owns the
  single most recent activity timestamp for the case determines the
  true resolution.

RULE:
  WorkOrder     -> Onsite Solution
  ServiceOrder  -> Offsite Solution
  MaterialOrder -> Parts Shipped
  No order activity at all -> the declared resolution, unchanged.
  The Dump record's own modified-on timestamp never participates.
*/
package engine

import "time"

// RecalculateResolution derives a case's true current resolution from
// order activity, falling back to the declared code when the case has
// no order rows with parseable timestamps.
//
// Later tables win exact-timestamp ties in the order WO < SO < MO, so
// the result is deterministic for identical inputs.
func RecalculateResolution(caseID, declared string, wos []WorkOrder, mos []MaterialOrder, sos []ServiceOrder) string {
	var bestAt time.Time
	resolution := declared
	found := false

	consider := func(at time.Time, ok bool, candidate string) {
		if !ok {
			return
		}
		if !found || at.After(bestAt) || at.Equal(bestAt) {
			bestAt = at
			resolution = candidate
			found = true
		}
	}

	for _, wo := range wos {
		if wo.CaseID == caseID {
			at, ok := ParseTime(wo.CreatedOn)
			consider(at, ok, ResolutionOnsite)
		}
	}
	for _, so := range sos {
		if so.CaseID == caseID {
			at, ok := ParseTime(so.SubmittedOn)
			consider(at, ok, ResolutionOffsite)
		}
	}
	for _, mo := range mos {
		if mo.CaseID == caseID {
			at, ok := ParseTime(mo.CreatedOn)
			consider(at, ok, ResolutionParts)
		}
	}

	return resolution
}

// FirstOrderActivity returns the earliest order activity timestamp for
// the case across all three order tables. ok is false when the case
// has no order rows with parseable timestamps.
func FirstOrderActivity(caseID string, wos []WorkOrder, mos []MaterialOrder, sos []ServiceOrder) (time.Time, bool) {
	var first time.Time
	found := false

	consider := func(at time.Time, ok bool) {
		if !ok {
			return
		}
		if !found || at.Before(first) {
			first = at
			found = true
		}
	}

	for _, wo := range wos {
		if wo.CaseID == caseID {
			at, ok := ParseTime(wo.CreatedOn)
			consider(at, ok)
		}
	}
	for _, mo := range mos {
		if mo.CaseID == caseID {
			at, ok := ParseTime(mo.CreatedOn)
			consider(at, ok)
		}
	}
	for _, so := range sos {
		if so.CaseID == caseID {
			at, ok := ParseTime(so.SubmittedOn)
			consider(at, ok)
		}
	}

	return first, found
}
