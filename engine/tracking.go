/*
tracking.go - Tracking-URL resolution and copy exports

PURPOSE:
  Builds the two ad-hoc text exports the agents paste into external
  tools, and the tracking-URL precedence rules behind them:

  Copy SO Orders:     "caseID,orderRef" for offsite cases still worth
                      chasing (terminal CSO statuses excluded).
  Copy Tracking URLs: "caseID | url" resolved in three stages -
    1. the selected material order is closed/pod and its primary line
       item carries a tracking URL;
    2. else CSO reports "delivered" with a tracking number, so a UPS
       URL is synthesized from the carrier template;
    3. cases whose delivery detail already reports a confirmed status
       are suppressed - they no longer need manual tracking.
*/
package engine

import (
	"fmt"
	"strings"
)

// upsTrackingURL is the carrier template used when only a tracking
// number is known.
const upsTrackingURL = "http://wwwapps.ups.com/WebTracking/processInputRequest" +
	"?TypeOfInquiryNumber=T&InquiryNumber1=%s"

// offsiteCaseIDs returns the distinct case ids declared offsite, in
// dump order.
func offsiteCaseIDs(dump []DumpCase) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, c := range dump {
		if Fold(c.ResolutionCode) == "offsite solution" && !seen[c.CaseID] {
			seen[c.CaseID] = true
			ids = append(ids, c.CaseID)
		}
	}
	return ids
}

// partsShippedCaseIDs returns the distinct case ids declared parts
// shipped, in dump order.
func partsShippedCaseIDs(dump []DumpCase) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, c := range dump {
		if Fold(c.ResolutionCode) == "parts shipped" && !seen[c.CaseID] {
			seen[c.CaseID] = true
			ids = append(ids, c.CaseID)
		}
	}
	return ids
}

// BuildCopySOOrders builds the comma-joined (case id, stripped order
// id) lines for offsite cases that still need chasing.
func BuildCopySOOrders(dump []DumpCase, serviceOrders []ServiceOrder, cso []CSOStatus) []string {
	csoByCase := make(map[string]CSOStatus, len(cso))
	for _, row := range cso {
		csoByCase[row.CaseID] = row
	}

	var lines []string
	for _, caseID := range offsiteCaseIDs(dump) {
		latest := LatestServiceOrder(caseID, serviceOrders)
		if latest == nil {
			continue
		}
		orderRef := StripOrderSuffix(latest.OrderRefID)
		if orderRef == "" {
			continue
		}
		if status, ok := csoByCase[caseID]; ok && status.Terminal() {
			continue
		}
		lines = append(lines, caseID+","+orderRef)
	}
	return lines
}

// resolveMOTrackingURL returns the tracking URL for a parts-shipped
// case via its selected material order, or "" when the order isn't in
// a shipped-terminal state or the primary item carries no URL.
func resolveMOTrackingURL(caseID string, orders []MaterialOrder, items []MaterialOrderItem) string {
	selected := SelectLatestMO(caseID, orders)
	if selected == nil {
		return ""
	}
	switch Fold(selected.OrderStatus) {
	case "closed", "pod":
	default:
		return ""
	}
	item := PrimaryLineItem(selected.OrderNumber, items)
	if item == nil {
		return ""
	}
	return item.TrackingURL
}

// BuildCopyTrackingURLs builds the pipe-joined (case id, tracking URL)
// lines using the three-stage precedence described above. Order is
// deterministic: MO-resolved cases in dump order, then CSO-resolved
// cases in CSO table order.
func BuildCopyTrackingURLs(
	dump []DumpCase,
	orders []MaterialOrder,
	items []MaterialOrderItem,
	cso []CSOStatus,
	deliveries []DeliveryDetail,
) []string {
	urls := make(map[string]string)
	var order []string

	for _, caseID := range partsShippedCaseIDs(dump) {
		if url := resolveMOTrackingURL(caseID, orders, items); url != "" {
			urls[caseID] = url
			order = append(order, caseID)
		}
	}

	for _, row := range cso {
		if _, ok := urls[row.CaseID]; ok {
			continue
		}
		if Fold(row.Status) == "delivered" && row.TrackingNumber != "" {
			urls[row.CaseID] = fmt.Sprintf(upsTrackingURL, row.TrackingNumber)
			order = append(order, row.CaseID)
		}
	}

	// Confirmed deliveries no longer need manual tracking.
	for _, d := range deliveries {
		if d.Confirmed() {
			delete(urls, d.CaseID)
		}
	}

	var lines []string
	for _, caseID := range order {
		if url, ok := urls[caseID]; ok {
			lines = append(lines, caseID+" | "+url)
		}
	}
	return lines
}

// JoinLines renders export lines the way the clipboard consumers
// expect: newline-delimited, no trailing newline.
func JoinLines(lines []string) string {
	return strings.Join(lines, "\n")
}
