/*
reconcile.go - The reconciliation engine (case lifecycle core)

PURPOSE:
  Joins all source tables per case, applies the calculators, and
  upserts the two derived tables. Each case moves through three
  states:

    Not Repairable --> Open --> Closed (terminal)

  - Not Repairable -> Open: the recalculated resolution is one of the
    three repairable types and the case id is not already closed.
  - Open -> Open: every run fully recomputes the Repair Cases snapshot
    (upsert, not field-merge).
  - Open -> Closed: the case id appears in the Closed Cases feed; a
    new immutable record is written (first-write-wins) and the repair
    row is removed in the same operation.
  - Closed -> pruned: records older than six months are deleted on the
    next run. There is no Closed -> Open transition.

CONCURRENCY:
  Single-writer, run-to-completion per reconciler. A whole run executes
  inside one store Update scope, so readers only ever observe complete
  snapshots. Overlapping user-initiated runs are rejected with
  ErrRunInProgress rather than raced.

SEE ALSO:
  - resolution.go, cagroup.go, sbd.go, lookup.go: the calculators
  - cso.go, delivery.go, tracking.go: reconciled inputs and exports
  - store.go: the snapshot store contract
*/
package engine

import (
	"context"
	"strings"
	"sync"
	"time"
)

// retentionMonths bounds how long closed-case records are retained.
const retentionMonths = 6

// Reconciler executes reconciliation runs against a store. Every
// operation takes an explicit team; there is no ambient current-team
// state, so reconcilers are safe to use across teams between runs.
type Reconciler struct {
	store Store

	// Now supplies "now" for age, SBD and retention math. Tests
	// override it for deterministic output.
	Now func() time.Time

	mu      sync.Mutex
	running bool
}

// NewReconciler creates a reconciler bound to a store.
func NewReconciler(store Store) *Reconciler {
	return &Reconciler{store: store, Now: time.Now}
}

// begin claims the single run slot. Callers must pair it with end.
func (r *Reconciler) begin(team string) error {
	if team == "" {
		return ErrNoTeam
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return ErrRunInProgress
	}
	r.running = true
	return nil
}

func (r *Reconciler) end() {
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
}

// =============================================================================
// SOURCE TABLE INGESTION
// =============================================================================

// ExtractData is the normalized content of a primary extract upload.
type ExtractData struct {
	Dump        []DumpCase
	WorkOrders  []WorkOrder
	Orders      []MaterialOrder
	OrderItems  []MaterialOrderItem
	ServiceOrds []ServiceOrder
	Closed      []ClosedCase
}

// ReplaceExtract replaces all six workbook tables wholesale for the
// team. Derived tables are untouched until the next reconciliation
// run.
func (r *Reconciler) ReplaceExtract(ctx context.Context, team string, data ExtractData) error {
	if err := r.begin(team); err != nil {
		return err
	}
	defer r.end()

	now := r.Now()
	return r.store.Update(ctx, team, func(scope WriteScope) error {
		if err := SaveTable(scope, TableDump, data.Dump, now); err != nil {
			return err
		}
		if err := SaveTable(scope, TableWO, data.WorkOrders, now); err != nil {
			return err
		}
		if err := SaveTable(scope, TableMO, data.Orders, now); err != nil {
			return err
		}
		if err := SaveTable(scope, TableMOItems, data.OrderItems, now); err != nil {
			return err
		}
		if err := SaveTable(scope, TableSO, data.ServiceOrds, now); err != nil {
			return err
		}
		return SaveTable(scope, TableClosedCases, data.Closed, now)
	})
}

// IngestCSO rebuilds the CSO Status table from a freshly parsed
// external extract, preserving terminal prior statuses.
func (r *Reconciler) IngestCSO(ctx context.Context, team string, extract map[string]CSOExtractRow) error {
	if err := r.begin(team); err != nil {
		return err
	}
	defer r.end()

	now := r.Now()
	return r.store.Update(ctx, team, func(scope WriteScope) error {
		dump, err := LoadTable[DumpCase](scope, TableDump)
		if err != nil {
			return err
		}
		serviceOrds, err := LoadTable[ServiceOrder](scope, TableSO)
		if err != nil {
			return err
		}
		prior, err := LoadTable[CSOStatus](scope, TableCSOStatus)
		if err != nil {
			return err
		}
		return SaveTable(scope, TableCSOStatus, ReconcileCSO(dump, serviceOrds, prior, extract), now)
	})
}

// IngestTracking applies a tracking-results extract to the Delivery
// Details table, pruning entries outside the active candidate set.
func (r *Reconciler) IngestTracking(ctx context.Context, team string, extract map[string]string) error {
	if err := r.begin(team); err != nil {
		return err
	}
	defer r.end()

	now := r.Now()
	return r.store.Update(ctx, team, func(scope WriteScope) error {
		dump, err := LoadTable[DumpCase](scope, TableDump)
		if err != nil {
			return err
		}
		orders, err := LoadTable[MaterialOrder](scope, TableMO)
		if err != nil {
			return err
		}
		items, err := LoadTable[MaterialOrderItem](scope, TableMOItems)
		if err != nil {
			return err
		}
		cso, err := LoadTable[CSOStatus](scope, TableCSOStatus)
		if err != nil {
			return err
		}
		prior, err := LoadTable[DeliveryDetail](scope, TableDelivery)
		if err != nil {
			return err
		}
		return SaveTable(scope, TableDelivery, UpsertDeliveries(dump, orders, items, cso, prior, extract), now)
	})
}

// =============================================================================
// RECONCILIATION RUN
// =============================================================================

// RunSummary reports what one reconciliation run did.
type RunSummary struct {
	RepairCases  int `json:"repairCases"`
	ClosedNew    int `json:"closedNew"`
	ClosedPruned int `json:"closedPruned"`
}

// Process executes a full reconciliation run: recompute Repair Cases,
// migrate newly closed cases into the retained Closed Cases Report,
// and sweep retention. Everything happens in one read-write scope so
// the store moves between consistent snapshots.
func (r *Reconciler) Process(ctx context.Context, team string) (RunSummary, error) {
	if err := r.begin(team); err != nil {
		return RunSummary{}, err
	}
	defer r.end()

	var summary RunSummary
	now := r.Now()
	err := r.store.Update(ctx, team, func(scope WriteScope) error {
		repair, err := r.buildRepairCases(scope, now)
		if err != nil {
			return err
		}

		retained, added, pruned, err := r.mergeClosedCases(scope, repair, now)
		if err != nil {
			return err
		}

		// Mutual exclusion: a closed case id never stays in Repair Cases.
		closedIDs := make(map[string]bool, len(retained))
		for _, rec := range retained {
			closedIDs[rec.CaseID] = true
		}
		open := repair[:0]
		for _, rc := range repair {
			if !closedIDs[rc.CaseID] {
				open = append(open, rc)
			}
		}

		summary = RunSummary{RepairCases: len(open), ClosedNew: added, ClosedPruned: pruned}

		if err := SaveTable(scope, TableRepairCases, open, now); err != nil {
			return err
		}
		return SaveTable(scope, TableClosedReport, retained, now)
	})
	return summary, err
}

// buildRepairCases recomputes every open repair case from the current
// source tables.
func (r *Reconciler) buildRepairCases(scope ReadScope, now time.Time) ([]RepairCase, error) {
	dump, err := LoadTable[DumpCase](scope, TableDump)
	if err != nil {
		return nil, err
	}
	wos, err := LoadTable[WorkOrder](scope, TableWO)
	if err != nil {
		return nil, err
	}
	mos, err := LoadTable[MaterialOrder](scope, TableMO)
	if err != nil {
		return nil, err
	}
	items, err := LoadTable[MaterialOrderItem](scope, TableMOItems)
	if err != nil {
		return nil, err
	}
	sos, err := LoadTable[ServiceOrder](scope, TableSO)
	if err != nil {
		return nil, err
	}
	cso, err := LoadTable[CSOStatus](scope, TableCSOStatus)
	if err != nil {
		return nil, err
	}
	deliveries, err := LoadTable[DeliveryDetail](scope, TableDelivery)
	if err != nil {
		return nil, err
	}
	closed, err := LoadTable[ClosedCaseRecord](scope, TableClosedReport)
	if err != nil {
		return nil, err
	}

	var tlMap []TLMapping
	if _, err := LoadConfig(scope, TableTLMap, &tlMap); err != nil {
		return nil, err
	}
	var marketMap []MarketMapping
	if _, err := LoadConfig(scope, TableMarketMap, &marketMap); err != nil {
		return nil, err
	}
	var sbd SBDConfig
	if _, err := LoadConfig(scope, TableSBDConfig, &sbd); err != nil {
		return nil, err
	}

	closedIDs := make(map[string]bool, len(closed))
	for _, rec := range closed {
		closedIDs[rec.CaseID] = true
	}
	csoByCase := make(map[string]CSOStatus, len(cso))
	for _, row := range cso {
		csoByCase[row.CaseID] = row
	}
	deliveryByCase := make(map[string]DeliveryDetail, len(deliveries))
	for _, d := range deliveries {
		deliveryByCase[d.CaseID] = d
	}

	var result []RepairCase
	seen := make(map[string]bool, len(dump))

	for _, c := range dump {
		if c.CaseID == "" || seen[c.CaseID] {
			continue
		}
		seen[c.CaseID] = true

		resolution := RecalculateResolution(c.CaseID, c.ResolutionCode, wos, mos, sos)
		if !IsRepairable(resolution) {
			continue
		}
		// Closing is terminal: a closed case never reopens.
		if closedIDs[c.CaseID] {
			continue
		}

		firstActivity, hasActivity := FirstOrderActivity(c.CaseID, wos, mos, sos)

		rc := RepairCase{
			CaseID:         c.CaseID,
			CustomerName:   c.CustomerName,
			CreatedOn:      c.CreatedOn,
			CreatedBy:      c.CreatedBy,
			Country:        c.Country,
			ResolutionCode: resolution,
			CaseOwner:      c.CaseOwner,
			OTCCode:        c.OTCCode,
			CAGroup:        CAGroup(c.CreatedOn, now),
			TL:             FindTL(c.CaseOwner, tlMap),
			SBD:            sbd.EvaluateSBD(c.CreatedOn, c.Country, firstActivity, hasActivity),
			OnsiteRFC:      NotFound,
			CSRRFC:         NotFound,
			BenchRFC:       NotFound,
			Market:         FindMarket(c.Country, marketMap),
			WOClosureNotes: NotFound,
			TrackingStatus: NotFound,
			PartNumber:     NotFound,
			PartName:       NotFound,
			SerialNumber:   c.SerialNumber,
			ProductName:    c.ProductName,
			EmailStatus:    c.EmailStatus,
			DNAP:           "False",
		}

		switch Fold(resolution) {
		case "onsite solution":
			if wo := LatestWorkOrder(c.CaseID, wos); wo != nil {
				rc.OnsiteRFC = wo.SystemStatus
				rc.WOClosureNotes = wo.ResolutionNotes
			}
		case "parts shipped":
			if mo := SelectLatestMO(c.CaseID, mos); mo != nil {
				rc.CSRRFC = mo.OrderStatus
				rc.PartNumber, rc.PartName = PartDetails(mo.OrderNumber, items)
			}
		case "offsite solution":
			if status, ok := csoByCase[c.CaseID]; ok {
				rc.BenchRFC = status.Status
				if strings.Contains(Fold(status.RepairStatus), "product returned unrepaired to customer") {
					rc.DNAP = "True"
				}
			}
		}

		if d, ok := deliveryByCase[c.CaseID]; ok && d.CurrentStatus != "" {
			rc.TrackingStatus = d.CurrentStatus
		}

		result = append(result, rc)
	}

	return result, nil
}

// mergeClosedCases applies the Closed Cases feed to the retained
// report: first-write-wins for existing ids, retention pruning for
// records past the six-month cutoff.
func (r *Reconciler) mergeClosedCases(scope ReadScope, repair []RepairCase, now time.Time) (retained []ClosedCaseRecord, added, pruned int, err error) {
	feed, err := LoadTable[ClosedCase](scope, TableClosedCases)
	if err != nil {
		return nil, 0, 0, err
	}
	existing, err := LoadTable[ClosedCaseRecord](scope, TableClosedReport)
	if err != nil {
		return nil, 0, 0, err
	}

	cutoff := retentionCutoff(now)
	repairByCase := make(map[string]RepairCase, len(repair))
	for _, rc := range repair {
		repairByCase[rc.CaseID] = rc
	}

	// Retention sweep over already-retained records. Unparseable close
	// dates are kept: only provably old records are pruned.
	have := make(map[string]bool, len(existing))
	for _, rec := range existing {
		if at, ok := ParseTime(rec.ClosedOn); ok && at.Before(cutoff) {
			pruned++
			continue
		}
		retained = append(retained, rec)
		have[rec.CaseID] = true
	}

	for _, cc := range feed {
		if cc.CaseID == "" {
			continue
		}
		// First-write-wins: a retained record is never recomputed.
		if have[cc.CaseID] {
			continue
		}
		if at, ok := ParseTime(cc.ClosedOn); ok && at.Before(cutoff) {
			continue
		}

		rec := ClosedCaseRecord{
			CaseID:         cc.CaseID,
			CreatedOn:      cc.CreatedOn,
			CreatedBy:      cc.CreatedBy,
			ModifiedBy:     cc.ModifiedBy,
			ModifiedOn:     cc.ModifiedOn,
			ClosedOn:       cc.ClosedOn,
			ClosedBy:       closedByValue(cc.ModifiedBy, cc.Owner),
			Country:        cc.Country,
			ResolutionCode: cc.ResolutionCode,
			CaseOwner:      cc.Owner,
			OTCCode:        cc.OTCCode,
		}
		if rc, ok := repairByCase[cc.CaseID]; ok {
			rec.CustomerName = rc.CustomerName
			rec.TL = rc.TL
			rec.SBD = rc.SBD
			rec.Market = rc.Market
		}

		retained = append(retained, rec)
		have[cc.CaseID] = true
		added++
	}

	return retained, added, pruned, nil
}

// retentionCutoff is the start of the month six months before now.
func retentionCutoff(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month()-retentionMonths, 1, 0, 0, 0, 0, now.Location())
}

// autoCloseUser closes cases on behalf of the CRM batch job; the
// admin users below mask who actually closed the case, so the feed's
// owner is reported instead.
const autoCloseUser = "# CrmWebJobUser-Prod"

var ownerOverrideUsers = map[string]bool{
	"# MSFT-ServiceSystemAdmin":    true,
	"# CrmEEGUser-Prod":            true,
	"# MSFT-ServiceSystemAdminDev": true,
	"SYSTEM":                       true,
}

func closedByValue(modifiedBy, owner string) string {
	if modifiedBy == autoCloseUser {
		return "CRM Auto Closed"
	}
	if ownerOverrideUsers[modifiedBy] {
		return owner
	}
	return modifiedBy
}

// =============================================================================
// EXPORTS AND READS
// =============================================================================

// CopySOOrders builds the offsite chase list for the team.
func (r *Reconciler) CopySOOrders(ctx context.Context, team string) ([]string, error) {
	if team == "" {
		return nil, ErrNoTeam
	}
	var lines []string
	err := r.store.View(ctx, team, func(scope ReadScope) error {
		dump, err := LoadTable[DumpCase](scope, TableDump)
		if err != nil {
			return err
		}
		sos, err := LoadTable[ServiceOrder](scope, TableSO)
		if err != nil {
			return err
		}
		cso, err := LoadTable[CSOStatus](scope, TableCSOStatus)
		if err != nil {
			return err
		}
		lines = BuildCopySOOrders(dump, sos, cso)
		return nil
	})
	return lines, err
}

// CopyTrackingURLs builds the manual tracking list for the team.
func (r *Reconciler) CopyTrackingURLs(ctx context.Context, team string) ([]string, error) {
	if team == "" {
		return nil, ErrNoTeam
	}
	var lines []string
	err := r.store.View(ctx, team, func(scope ReadScope) error {
		dump, err := LoadTable[DumpCase](scope, TableDump)
		if err != nil {
			return err
		}
		mos, err := LoadTable[MaterialOrder](scope, TableMO)
		if err != nil {
			return err
		}
		items, err := LoadTable[MaterialOrderItem](scope, TableMOItems)
		if err != nil {
			return err
		}
		cso, err := LoadTable[CSOStatus](scope, TableCSOStatus)
		if err != nil {
			return err
		}
		deliveries, err := LoadTable[DeliveryDetail](scope, TableDelivery)
		if err != nil {
			return err
		}
		lines = BuildCopyTrackingURLs(dump, mos, items, cso, deliveries)
		return nil
	})
	return lines, err
}

// Table returns a raw snapshot for the rendering layer.
func (r *Reconciler) Table(ctx context.Context, team, name string) (Snapshot, error) {
	if team == "" {
		return Snapshot{}, ErrNoTeam
	}
	var snap Snapshot
	err := r.store.View(ctx, team, func(scope ReadScope) error {
		s, ok, err := scope.Get(name)
		if err != nil {
			return err
		}
		if !ok {
			return ErrTableNotFound
		}
		snap = s
		return nil
	})
	return snap, err
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// SaveSBDConfig validates and persists the SBD configuration. Invalid
// configurations are never persisted.
func (r *Reconciler) SaveSBDConfig(ctx context.Context, team string, cfg SBDConfig) error {
	if team == "" {
		return ErrNoTeam
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	now := r.Now()
	return r.store.Update(ctx, team, func(scope WriteScope) error {
		return SaveConfig(scope, TableSBDConfig, cfg, now)
	})
}

// LoadSBDConfig returns the team's SBD configuration, or the editable
// empty default when none has been saved.
func (r *Reconciler) LoadSBDConfig(ctx context.Context, team string) (SBDConfig, error) {
	if team == "" {
		return SBDConfig{}, ErrNoTeam
	}
	cfg := EmptySBDConfig()
	err := r.store.View(ctx, team, func(scope ReadScope) error {
		var stored SBDConfig
		ok, err := LoadConfig(scope, TableSBDConfig, &stored)
		if err != nil {
			return err
		}
		if ok {
			cfg = stored
		}
		return nil
	})
	return cfg, err
}

// SaveTLMap persists the agent -> team-lead mapping.
func (r *Reconciler) SaveTLMap(ctx context.Context, team string, mappings []TLMapping) error {
	if team == "" {
		return ErrNoTeam
	}
	now := r.Now()
	return r.store.Update(ctx, team, func(scope WriteScope) error {
		return SaveConfig(scope, TableTLMap, mappings, now)
	})
}

// LoadTLMap returns the team's agent -> team-lead mapping.
func (r *Reconciler) LoadTLMap(ctx context.Context, team string) ([]TLMapping, error) {
	if team == "" {
		return nil, ErrNoTeam
	}
	var mappings []TLMapping
	err := r.store.View(ctx, team, func(scope ReadScope) error {
		_, err := LoadConfig(scope, TableTLMap, &mappings)
		return err
	})
	return mappings, err
}

// SaveMarketMap persists the country -> market mapping.
func (r *Reconciler) SaveMarketMap(ctx context.Context, team string, mappings []MarketMapping) error {
	if team == "" {
		return ErrNoTeam
	}
	now := r.Now()
	return r.store.Update(ctx, team, func(scope WriteScope) error {
		return SaveConfig(scope, TableMarketMap, mappings, now)
	})
}

// LoadMarketMap returns the team's country -> market mapping.
func (r *Reconciler) LoadMarketMap(ctx context.Context, team string) ([]MarketMapping, error) {
	if team == "" {
		return nil, ErrNoTeam
	}
	var mappings []MarketMapping
	err := r.store.View(ctx, team, func(scope ReadScope) error {
		_, err := LoadConfig(scope, TableMarketMap, &mappings)
		return err
	})
	return mappings, err
}
