/*
Package engine provides the case reconciliation engine.

PURPOSE:
  This package turns the seven loosely-related source tables of a KCI
  extract (keyed only by a shared Case ID) into two authoritative
  derived tables: open Repair Cases and terminal Closed Case records.
  It owns the join, precedence and upsert rules, and the lifecycle that
  migrates a case from "open repair" to "permanently closed".

KEY CONCEPTS IN THIS FILE (types.go):
  - Source records: DumpCase, WorkOrder, MaterialOrder,
    MaterialOrderItem, ServiceOrder, ClosedCase
  - Reconciled inputs: CSOStatus, DeliveryDetail
  - Derived records: RepairCase, ClosedCaseRecord
  - Configuration: TLMapping, MarketMapping (see sbd.go for SBDConfig)

DESIGN PRINCIPLES:
  1. Typed records: every table row is a named-field struct, never a
     positionally-indexed array. The column-schema registry lives only
     at the extract boundary.
  2. Sentinels over errors: missing join targets yield "Not Found" /
     "NA" / "" rather than failing, because the upstream exports are
     uncontrolled.
  3. Team isolation: every table access is scoped to a team; no read
     or write crosses that boundary.

SEE ALSO:
  - reconcile.go: The reconciliation engine and case lifecycle
  - priority.go:  Status ranking and time-window selection
  - resolution.go: Cross-table resolution recalculation
  - store.go:     The durable snapshot store contract
*/
package engine

import "time"

// Timestamps travel through the system as the fixed extract format
// produced by the normalization layer.
const TimeLayout = "2006-01-02 15:04"

// ParseTime parses an extract timestamp. The second return is false
// for empty or malformed values; callers treat those as "no activity".
func ParseTime(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{TimeLayout, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// =============================================================================
// TABLE NAMES - One durable snapshot per (team, table)
// =============================================================================

const (
	TableDump         = "Dump"
	TableWO           = "WO"
	TableMO           = "MO"
	TableMOItems      = "MO Items"
	TableSO           = "SO"
	TableClosedCases  = "Closed Cases"
	TableCSOStatus    = "CSO Status"
	TableDelivery     = "Delivery Details"
	TableRepairCases  = "Repair Cases"
	TableClosedReport = "Closed Cases Report"
	TableTLMap        = "TL_MAP"
	TableMarketMap    = "MARKET_MAP"
	TableSBDConfig    = "SBD Cut Off Times"
)

// ExtractTables are the six tables replaced wholesale by a primary
// extract upload.
var ExtractTables = []string{
	TableDump, TableWO, TableMO, TableMOItems, TableSO, TableClosedCases,
}

// =============================================================================
// RESOLUTIONS AND SENTINELS
// =============================================================================

const (
	ResolutionOnsite  = "Onsite Solution"
	ResolutionOffsite = "Offsite Solution"
	ResolutionParts   = "Parts Shipped"
)

const (
	NotFound      = "Not Found"
	NotApplicable = "NA"
	NoStatusFound = "No Status Found"
)

// IsRepairable reports whether a resolution code is one of the three
// repairable types, compared case-insensitively.
func IsRepairable(resolution string) bool {
	switch Fold(resolution) {
	case "onsite solution", "offsite solution", "parts shipped":
		return true
	}
	return false
}

// =============================================================================
// SOURCE RECORDS - Replaced wholesale on each primary extract upload
// =============================================================================

// DumpCase is one case as declared by the source-of-record system.
type DumpCase struct {
	CaseID            string `json:"caseId"`
	CustomerName      string `json:"customerName"`
	CreatedOn         string `json:"createdOn"`
	CreatedBy         string `json:"createdBy"`
	ModifiedOn        string `json:"modifiedOn"`
	BusinessSegment   string `json:"businessSegment"`
	Country           string `json:"country"`
	IncomingChannel   string `json:"incomingChannel"`
	ResolutionCode    string `json:"resolutionCode"`
	CaseOwner         string `json:"caseOwner"`
	EmailStatus       string `json:"emailStatus"`
	ReadyForClosure   string `json:"readyForClosure"`
	RequiresAutoClose string `json:"requiresAutoClose"`
	IsOrderCreated    string `json:"isOrderCreated"`
	Queue             string `json:"queue"`
	OTCCode           string `json:"otcCode"`
	SerialNumber      string `json:"serialNumber"`
	ProductName       string `json:"productName"`
}

// WorkOrder is an onsite work order tied to a case.
type WorkOrder struct {
	CaseID          string `json:"caseId"`
	OrderNumber     string `json:"orderNumber"`
	BusinessSegment string `json:"businessSegment"`
	ServiceAccount  string `json:"serviceAccount"`
	CaseStatus      string `json:"caseStatus"`
	SystemStatus    string `json:"systemStatus"`
	CreatedOn       string `json:"createdOn"`
	Workgroup       string `json:"workgroup"`
	Country         string `json:"country"`
	ResolutionNotes string `json:"resolutionNotes"`
}

// MaterialOrder is a parts order tied to a case.
type MaterialOrder struct {
	OrderNumber         string `json:"orderNumber"`
	CaseID              string `json:"caseId"`
	CreatedOn           string `json:"createdOn"`
	OrderStatus         string `json:"orderStatus"`
	OrderType           string `json:"orderType"`
	ReadyForClosureDate string `json:"readyForClosureDate"`
}

// MaterialOrderItem is a shipped line item of a MaterialOrder.
type MaterialOrderItem struct {
	OrderNumber    string `json:"orderNumber"`
	LineName       string `json:"lineName"`
	PartNumber     string `json:"partNumber"`
	Description    string `json:"description"`
	TrackingNumber string `json:"trackingNumber"`
	CreatedOn      string `json:"createdOn"`
	TrackingURL    string `json:"trackingUrl"`
}

// ServiceOrder is an offsite/bench service order tied to a case.
type ServiceOrder struct {
	CaseID        string `json:"caseId"`
	ServiceStatus string `json:"serviceStatus"`
	SubmittedOn   string `json:"submittedOn"`
	Name          string `json:"name"`
	OrderRefID    string `json:"orderRefId"`
}

// ClosedCase is a row of the Closed Cases source feed.
type ClosedCase struct {
	CaseID          string `json:"caseId"`
	CreatedOn       string `json:"createdOn"`
	ModifiedBy      string `json:"modifiedBy"`
	ModifiedOn      string `json:"modifiedOn"`
	ClosedOn        string `json:"closedOn"`
	ResolutionCode  string `json:"resolutionCode"`
	CreatedBy       string `json:"createdBy"`
	IncomingChannel string `json:"incomingChannel"`
	Owner           string `json:"owner"`
	Country         string `json:"country"`
	OTCCode         string `json:"otcCode"`
}

// =============================================================================
// RECONCILED INPUTS - Maintained incrementally across uploads
// =============================================================================

// CSOStatus is the externally reconciled offsite-repair status per case.
type CSOStatus struct {
	CaseID         string `json:"caseId"`
	OrderRef       string `json:"orderRef"`
	Status         string `json:"status"`
	TrackingNumber string `json:"trackingNumber"`
	RepairStatus   string `json:"repairStatus"`
}

// Terminal statuses are never overwritten by a later CSO extract.
func (s CSOStatus) Terminal() bool {
	switch Fold(s.Status) {
	case "delivered", "order cancelled, not to be reopened":
		return true
	}
	return false
}

// DeliveryDetail is a tracking/delivery confirmation per case.
type DeliveryDetail struct {
	CaseID        string `json:"caseId"`
	CurrentStatus string `json:"currentStatus"`
}

// Confirmed reports whether the detail carries a real status, i.e.
// anything non-empty other than the "No Status Found" placeholder.
func (d DeliveryDetail) Confirmed() bool {
	status := Fold(d.CurrentStatus)
	return status != "" && status != "no status found"
}

// =============================================================================
// CONFIGURATION - User-edited, persists until edited again
// =============================================================================

// TLMapping maps a team-lead name to the agents reporting to them.
type TLMapping struct {
	Name   string   `json:"name"`
	Agents []string `json:"agents"`
}

// MarketMapping maps a market name to its countries.
type MarketMapping struct {
	Name      string   `json:"name"`
	Countries []string `json:"countries"`
}

// =============================================================================
// DERIVED RECORDS
// =============================================================================

// RepairCase is a currently-open, actionable case record. It is fully
// recomputed (upsert, not field-merge) on every reconciliation run.
type RepairCase struct {
	CaseID         string `json:"caseId"`
	CustomerName   string `json:"customerName"`
	CreatedOn      string `json:"createdOn"`
	CreatedBy      string `json:"createdBy"`
	Country        string `json:"country"`
	ResolutionCode string `json:"resolutionCode"`
	CaseOwner      string `json:"caseOwner"`
	OTCCode        string `json:"otcCode"`
	CAGroup        string `json:"caGroup"`
	TL             string `json:"tl"`
	SBD            string `json:"sbd"`
	OnsiteRFC      string `json:"onsiteRfc"`
	CSRRFC         string `json:"csrRfc"`
	BenchRFC       string `json:"benchRfc"`
	Market         string `json:"market"`
	WOClosureNotes string `json:"woClosureNotes"`
	TrackingStatus string `json:"trackingStatus"`
	PartNumber     string `json:"partNumber"`
	PartName       string `json:"partName"`
	SerialNumber   string `json:"serialNumber"`
	ProductName    string `json:"productName"`
	EmailStatus    string `json:"emailStatus"`
	DNAP           string `json:"dnap"`
}

// ClosedCaseRecord is a permanently closed case's trimmed summary.
// Once written it is never overwritten (first-write-wins) and is
// pruned six months after its close date.
type ClosedCaseRecord struct {
	CaseID         string `json:"caseId"`
	CustomerName   string `json:"customerName"`
	CreatedOn      string `json:"createdOn"`
	CreatedBy      string `json:"createdBy"`
	ModifiedBy     string `json:"modifiedBy"`
	ModifiedOn     string `json:"modifiedOn"`
	ClosedOn       string `json:"closedOn"`
	ClosedBy       string `json:"closedBy"`
	Country        string `json:"country"`
	ResolutionCode string `json:"resolutionCode"`
	CaseOwner      string `json:"caseOwner"`
	OTCCode        string `json:"otcCode"`
	TL             string `json:"tl"`
	SBD            string `json:"sbd"`
	Market         string `json:"market"`
}
