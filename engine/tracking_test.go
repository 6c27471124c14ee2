package engine_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suchithrkar/kci-upload-creation-tool/engine"
)

func partsShippedDump(caseIDs ...string) []engine.DumpCase {
	var dump []engine.DumpCase
	for _, id := range caseIDs {
		dump = append(dump, engine.DumpCase{CaseID: id, ResolutionCode: "Parts Shipped"})
	}
	return dump
}

func shippedOrderWithURL(caseID, orderNumber, url string) ([]engine.MaterialOrder, []engine.MaterialOrderItem) {
	orders := []engine.MaterialOrder{
		{OrderNumber: orderNumber, CaseID: caseID, CreatedOn: "2024-06-01 10:00", OrderStatus: "Closed"},
	}
	items := []engine.MaterialOrderItem{
		{OrderNumber: orderNumber, LineName: orderNumber + " - 1", TrackingURL: url},
	}
	return orders, items
}

// =============================================================================
// COPY SO ORDERS
// =============================================================================

func TestBuildCopySOOrders_SkipsTerminalCSO(t *testing.T) {
	// GIVEN: Two offsite cases with service orders, one already delivered
	// WHEN: The chase list is built
	// THEN: Only the undelivered case appears, with its suffix stripped

	dump := offsiteDump("CAS-1", "CAS-2")
	sos := []engine.ServiceOrder{
		{CaseID: "CAS-1", SubmittedOn: "2024-06-01 10:00", OrderRefID: "SO-100-01"},
		{CaseID: "CAS-2", SubmittedOn: "2024-06-01 10:00", OrderRefID: "SO-200-01"},
	}
	cso := []engine.CSOStatus{
		{CaseID: "CAS-2", Status: "Delivered"},
	}

	lines := engine.BuildCopySOOrders(dump, sos, cso)
	assert.Equal(t, []string{"CAS-1,SO-100"}, lines)
}

// =============================================================================
// COPY TRACKING URLS
// =============================================================================

func TestBuildCopyTrackingURLs_MOResolved(t *testing.T) {
	dump := partsShippedDump("CAS-1")
	orders, items := shippedOrderWithURL("CAS-1", "MO-1", "https://track.example/abc")

	lines := engine.BuildCopyTrackingURLs(dump, orders, items, nil, nil)
	assert.Equal(t, []string{"CAS-1 | https://track.example/abc"}, lines)
}

func TestBuildCopyTrackingURLs_SynthesizesUPSFromCSO(t *testing.T) {
	cso := []engine.CSOStatus{
		{CaseID: "CAS-9", Status: "Delivered", TrackingNumber: "1Z999"},
	}

	lines := engine.BuildCopyTrackingURLs(nil, nil, nil, cso, nil)
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "CAS-9 | http://wwwapps.ups.com/"))
	assert.Contains(t, lines[0], "InquiryNumber1=1Z999")
}

func TestBuildCopyTrackingURLs_ConfirmedDeliverySuppressed(t *testing.T) {
	// GIVEN: Two trackable cases, one with a confirmed delivery status
	//        and one whose delivery row still says "No Status Found"
	// WHEN: The manual tracking list is built
	// THEN: The confirmed case is suppressed, the unconfirmed one kept

	dump := partsShippedDump("CAS-1", "CAS-2")
	orders1, items1 := shippedOrderWithURL("CAS-1", "MO-1", "https://track.example/1")
	orders2, items2 := shippedOrderWithURL("CAS-2", "MO-2", "https://track.example/2")
	orders := append(orders1, orders2...)
	items := append(items1, items2...)

	deliveries := []engine.DeliveryDetail{
		{CaseID: "CAS-1", CurrentStatus: "In Transit"},
		{CaseID: "CAS-2", CurrentStatus: engine.NoStatusFound},
	}

	lines := engine.BuildCopyTrackingURLs(dump, orders, items, nil, deliveries)
	assert.Equal(t, []string{"CAS-2 | https://track.example/2"}, lines)
}

func TestBuildCopyTrackingURLs_RequiresShippedTerminalState(t *testing.T) {
	// An order still in "Ordered" has nothing worth tracking yet.
	dump := partsShippedDump("CAS-1")
	orders := []engine.MaterialOrder{
		{OrderNumber: "MO-1", CaseID: "CAS-1", CreatedOn: "2024-06-01 10:00", OrderStatus: "Ordered"},
	}
	items := []engine.MaterialOrderItem{
		{OrderNumber: "MO-1", LineName: "MO-1 - 1", TrackingURL: "https://track.example/abc"},
	}

	lines := engine.BuildCopyTrackingURLs(dump, orders, items, nil, nil)
	assert.Empty(t, lines)
}

// =============================================================================
// DELIVERY UPSERT
// =============================================================================

func TestUpsertDeliveries_Precedence(t *testing.T) {
	// Prior non-empty status wins over the extract; extract fills new
	// candidates; candidates absent everywhere get "No Status Found".
	dump := partsShippedDump("CAS-1", "CAS-2", "CAS-3")
	var orders []engine.MaterialOrder
	var items []engine.MaterialOrderItem
	for _, id := range []string{"CAS-1", "CAS-2", "CAS-3"} {
		o, i := shippedOrderWithURL(id, "MO-"+id, "https://track.example/"+id)
		orders = append(orders, o...)
		items = append(items, i...)
	}

	prior := []engine.DeliveryDetail{{CaseID: "CAS-1", CurrentStatus: "Delivered"}}
	extract := map[string]string{
		"CAS-1": "In Transit",
		"CAS-2": "Out For Delivery",
	}

	rows := engine.UpsertDeliveries(dump, orders, items, nil, prior, extract)
	require.Len(t, rows, 3)
	byCase := map[string]string{}
	for _, d := range rows {
		byCase[d.CaseID] = d.CurrentStatus
	}
	assert.Equal(t, "Delivered", byCase["CAS-1"])
	assert.Equal(t, "Out For Delivery", byCase["CAS-2"])
	assert.Equal(t, engine.NoStatusFound, byCase["CAS-3"])
}

func TestUpsertDeliveries_PrunesNonCandidates(t *testing.T) {
	// A previously tracked case that left the candidate set drops out.
	prior := []engine.DeliveryDetail{{CaseID: "CAS-OLD", CurrentStatus: "Delivered"}}

	rows := engine.UpsertDeliveries(nil, nil, nil, nil, prior, nil)
	assert.Empty(t, rows)
}

func TestUpsertDeliveries_CSODeliveredIsCandidate(t *testing.T) {
	cso := []engine.CSOStatus{{CaseID: "CAS-7", Status: "Delivered"}}

	rows := engine.UpsertDeliveries(nil, nil, nil, cso, nil, map[string]string{"CAS-7": "Delivered"})
	require.Len(t, rows, 1)
	assert.Equal(t, "CAS-7", rows[0].CaseID)
	assert.Equal(t, "Delivered", rows[0].CurrentStatus)
}
