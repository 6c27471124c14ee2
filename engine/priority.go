/*
priority.go - Status ranking and time-window selection primitives

PURPOSE:
  Pure selection rules reused by the higher-level calculators:
  - A total order over the material-order status vocabulary
  - Time-window grouping: near-simultaneous system writes (within five
    minutes of the newest record) collapse into one logical event
  - Latest-with-priority: within that window, the best-ranked status
    wins; ties keep the original order, so selection is deterministic

SEE ALSO:
  - tracking.go:  Uses SelectLatestMO for shipment state
  - reconcile.go: Uses SelectLatestMO for CSR RFC and part extraction
*/
package engine

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// TEXT FOLDING
// =============================================================================

// Fold normalizes a value for comparison: trim, lower-case, and strip
// diacritics (NFD decompose, drop combining marks) so that externally
// supplied agent and country names match regardless of accent forms.
func Fold(value string) string {
	s := strings.ToLower(strings.TrimSpace(value))
	if s == "" {
		return s
	}
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return norm.NFC.String(b.String())
}

// =============================================================================
// STATUS PRIORITY - Total order over the MO status vocabulary
// =============================================================================

const unknownStatusRank = 9

var statusRanks = map[string]int{
	"closed":            1,
	"pod":               2, // proof of delivery
	"shipped":           3,
	"ordered":           4,
	"partially ordered": 5,
	"order pending":     6,
	"new":               7,
	"cancelled":         8,
}

// StatusRank returns the priority rank for a material-order status.
// Lower is better; unrecognized statuses rank last.
func StatusRank(status string) int {
	if rank, ok := statusRanks[Fold(status)]; ok {
		return rank
	}
	return unknownStatusRank
}

// =============================================================================
// TIME-WINDOW SELECTION
// =============================================================================

// selectionWindow models near-simultaneous writes by the ordering
// system as a single logical event.
const selectionWindow = 5 * time.Minute

// SelectLatestMO picks the material order representing a case's
// current parts-shipment state: group the case's orders within five
// minutes of the newest one, then take the best-ranked status. Orders
// with unparseable timestamps are ignored. Returns nil when the case
// has no usable orders.
func SelectLatestMO(caseID string, orders []MaterialOrder) *MaterialOrder {
	type timed struct {
		order MaterialOrder
		at    time.Time
	}

	var candidates []timed
	var latest time.Time
	for _, mo := range orders {
		if mo.CaseID != caseID {
			continue
		}
		at, ok := ParseTime(mo.CreatedOn)
		if !ok {
			continue
		}
		candidates = append(candidates, timed{order: mo, at: at})
		if at.After(latest) {
			latest = at
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	var best *timed
	for i := range candidates {
		c := &candidates[i]
		if latest.Sub(c.at) > selectionWindow {
			continue
		}
		// Strict < keeps the earliest-seen order on rank ties.
		if best == nil || StatusRank(c.order.OrderStatus) < StatusRank(best.order.OrderStatus) {
			best = c
		}
	}
	if best == nil {
		return nil
	}
	selected := best.order
	return &selected
}

// LatestWorkOrder returns the case's most recently created work order,
// or nil when none has a parseable timestamp.
func LatestWorkOrder(caseID string, orders []WorkOrder) *WorkOrder {
	var best *WorkOrder
	var bestAt time.Time
	for i := range orders {
		wo := &orders[i]
		if wo.CaseID != caseID {
			continue
		}
		at, ok := ParseTime(wo.CreatedOn)
		if !ok {
			continue
		}
		if best == nil || at.After(bestAt) {
			best, bestAt = wo, at
		}
	}
	if best == nil {
		return nil
	}
	selected := *best
	return &selected
}

// LatestServiceOrder returns the case's most recently submitted
// service order, or nil when none has a parseable timestamp.
func LatestServiceOrder(caseID string, orders []ServiceOrder) *ServiceOrder {
	var best *ServiceOrder
	var bestAt time.Time
	for i := range orders {
		so := &orders[i]
		if so.CaseID != caseID {
			continue
		}
		at, ok := ParseTime(so.SubmittedOn)
		if !ok {
			continue
		}
		if best == nil || at.After(bestAt) {
			best, bestAt = so, at
		}
	}
	if best == nil {
		return nil
	}
	selected := *best
	return &selected
}
