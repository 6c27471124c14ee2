/*
delivery.go - Delivery detail upsert

PURPOSE:
  Applies a tracking-results extract (case id -> current status) to the
  Delivery Details table. The table only carries cases that are still
  worth tracking: parts-shipped cases whose selected material order is
  closed/pod with a tracked primary line item, plus CSO-delivered
  cases. Entries outside that candidate set are pruned.

PRECEDENCE PER CANDIDATE:
  1. A previously recorded non-empty status is kept - delivery
     confirmations don't regress.
  2. Else the fresh extract's status is adopted.
  3. Else "No Status Found".
*/
package engine

// UpsertDeliveries rebuilds the Delivery Details table from the
// current candidate set and a freshly parsed tracking extract.
func UpsertDeliveries(
	dump []DumpCase,
	orders []MaterialOrder,
	items []MaterialOrderItem,
	cso []CSOStatus,
	prior []DeliveryDetail,
	extract map[string]string,
) []DeliveryDetail {
	priorByCase := make(map[string]string, len(prior))
	for _, d := range prior {
		priorByCase[d.CaseID] = d.CurrentStatus
	}

	var candidates []string
	seen := make(map[string]bool)
	add := func(caseID string) {
		if caseID != "" && !seen[caseID] {
			seen[caseID] = true
			candidates = append(candidates, caseID)
		}
	}

	for _, caseID := range partsShippedCaseIDs(dump) {
		if resolveMOTrackingURL(caseID, orders, items) != "" {
			add(caseID)
		}
	}
	for _, row := range cso {
		if Fold(row.Status) == "delivered" {
			add(row.CaseID)
		}
	}

	result := make([]DeliveryDetail, 0, len(candidates))
	for _, caseID := range candidates {
		status := priorByCase[caseID]
		if status == "" {
			status = extract[caseID]
		}
		if status == "" {
			status = NoStatusFound
		}
		result = append(result, DeliveryDetail{CaseID: caseID, CurrentStatus: status})
	}
	return result
}
