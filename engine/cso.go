/*
cso.go - CSO status reconciliation

PURPOSE:
  The CSO Status table tracks offsite (bench) repairs per case. It is
  rebuilt each time a fresh external CSO extract is processed:

  - The eligible case set is the current offsite cases that have at
    least one service order; everything else drops out.
  - A case whose prior status was already terminal ("delivered",
    "order cancelled, not to be reopened") keeps its prior row
    verbatim - terminal means no further changes are accepted.
  - Otherwise the fresh extract's status/tracking/repair-status are
    adopted; a case in neither source gets the "Not Found" sentinel.
*/
package engine

import "regexp"

// orderSuffixRe matches the revision suffix CRM appends to service
// order references ("-01", "-02", ...).
var orderSuffixRe = regexp.MustCompile(`-0\d$`)

// StripOrderSuffix removes the numeric revision suffix from an order
// reference: "SO-12345-01" -> "SO-12345". References without the
// suffix pass through unchanged.
func StripOrderSuffix(orderRef string) string {
	return orderSuffixRe.ReplaceAllString(orderRef, "")
}

// CSOExtractRow is one parsed row of the external CSO status CSV.
type CSOExtractRow struct {
	Status         string
	TrackingNumber string
	RepairStatus   string
}

// ReconcileCSO merges the previously persisted CSO Status rows with a
// freshly parsed extract, keyed by case id.
func ReconcileCSO(
	dump []DumpCase,
	serviceOrders []ServiceOrder,
	prior []CSOStatus,
	extract map[string]CSOExtractRow,
) []CSOStatus {
	priorByCase := make(map[string]CSOStatus, len(prior))
	for _, row := range prior {
		priorByCase[row.CaseID] = row
	}

	var result []CSOStatus
	seen := make(map[string]bool)

	for _, c := range dump {
		if Fold(c.ResolutionCode) != "offsite solution" || seen[c.CaseID] {
			continue
		}
		seen[c.CaseID] = true

		latest := LatestServiceOrder(c.CaseID, serviceOrders)
		if latest == nil {
			continue
		}
		orderRef := StripOrderSuffix(latest.OrderRefID)

		if old, ok := priorByCase[c.CaseID]; ok && old.Terminal() {
			old.OrderRef = orderRef
			result = append(result, old)
			continue
		}

		row := CSOStatus{CaseID: c.CaseID, OrderRef: orderRef, Status: NotFound}
		if fresh, ok := extract[c.CaseID]; ok {
			row.Status = fresh.Status
			row.TrackingNumber = fresh.TrackingNumber
			row.RepairStatus = fresh.RepairStatus
		}
		result = append(result, row)
	}

	return result
}
