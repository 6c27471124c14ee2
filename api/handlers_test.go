package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suchithrkar/kci-upload-creation-tool/api"
	"github.com/suchithrkar/kci-upload-creation-tool/engine"
	"github.com/suchithrkar/kci-upload-creation-tool/engine/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	reconciler := engine.NewReconciler(store.NewMemory())
	reconciler.Now = func() time.Time {
		return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	}

	server := httptest.NewServer(api.NewRouter(api.NewHandler(reconciler)))
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))

	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// metadataRow prefixes the three export metadata columns.
func metadataRow(cells ...string) []string {
	return append([]string{"", "", ""}, cells...)
}

func extractBody() api.ExtractUploadRequest {
	return api.ExtractUploadRequest{
		Filename: "KCI - Open Repair Case Data 2024-06-15.xlsx",
		Sheets: map[string][][]string{
			engine.TableDump: {
				metadataRow("header"),
				metadataRow(
					"CAS-1", "Jane Customer", "2024-06-10 09:00", "creator", "2024-06-11 09:00",
					"Consumer", "United States", "Email", "Parts Shipped", "jane owner",
					"Sent", "No", "No", "Yes", "Queue A", "OTC-1", "SN-1", "Laptop 15",
				),
			},
			engine.TableMO: {
				metadataRow("header"),
				metadataRow("MO-1", "CAS-1", "2024-06-11 10:00", "Shipped", "Standard", ""),
			},
		},
	}
}

// =============================================================================
// UPLOAD + PROCESS FLOW
// =============================================================================

func TestUploadExtractAndProcess(t *testing.T) {
	// GIVEN: A valid workbook upload for one team
	// WHEN: The extract is replaced and a run is processed
	// THEN: The repair cases table is readable over HTTP

	server := newTestServer(t)
	base := server.URL + "/api/teams/emea"

	resp := doJSON(t, http.MethodPost, base+"/extract", extractBody())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, base+"/process", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	summary := decode[engine.RunSummary](t, resp)
	assert.Equal(t, 1, summary.RepairCases)

	resp, err := http.Get(base + "/tables/" + url.PathEscape(engine.TableRepairCases))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	table := decode[api.TableDTO](t, resp)

	var rows []engine.RepairCase
	require.NoError(t, json.Unmarshal(table.Rows, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "CAS-1", rows[0].CaseID)
	assert.Equal(t, engine.ResolutionParts, rows[0].ResolutionCode)
}

func TestUploadExtract_BadFilenameRejected(t *testing.T) {
	server := newTestServer(t)

	body := extractBody()
	body.Filename = "random.xlsx"
	resp := doJSON(t, http.MethodPost, server.URL+"/api/teams/emea/extract", body)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUploadCSO_BadFilenameRejected(t *testing.T) {
	server := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/teams/emea/cso", api.CSVUploadRequest{
		Filename: "not-a-cso.csv",
		Content:  "Case ID,CSO,Status\n",
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// conflictStore fires a hook from inside the first Update, so a test
// can issue requests while a run holds the reconciler's run slot.
type conflictStore struct {
	*store.Memory
	during func()
}

func (s *conflictStore) Update(ctx context.Context, team string, fn func(engine.WriteScope) error) error {
	if s.during != nil {
		hook := s.during
		s.during = nil
		hook()
	}
	return s.Memory.Update(ctx, team, fn)
}

func TestProcessEndpoint_OverlappingRunIs409(t *testing.T) {
	// GIVEN: A reconciliation run in flight
	// WHEN: A second process request arrives before it finishes
	// THEN: The second request gets 409 Conflict

	st := &conflictStore{Memory: store.NewMemory()}
	server := httptest.NewServer(api.NewRouter(api.NewHandler(engine.NewReconciler(st))))
	t.Cleanup(server.Close)
	endpoint := server.URL + "/api/teams/emea/process"

	var overlapStatus int
	st.during = func() {
		resp, err := http.Post(endpoint, "application/json", nil)
		require.NoError(t, err)
		resp.Body.Close()
		overlapStatus = resp.StatusCode
	}

	resp, err := http.Post(endpoint, "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, http.StatusConflict, overlapStatus)
}

func TestGetTable_UnknownIs404(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/teams/emea/tables/Nope")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// =============================================================================
// CONFIG ENDPOINTS
// =============================================================================

func TestSBDConfigEndpoint_RejectsOverlap(t *testing.T) {
	server := newTestServer(t)
	endpoint := server.URL + "/api/teams/emea/config/sbd"

	resp := doJSON(t, http.MethodPut, endpoint, api.SBDConfigDTO{Periods: []engine.SBDPeriod{
		{Start: "2024-01-01", End: "2024-01-31"},
		{Start: "2024-01-15", End: "2024-02-15"},
	}})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSBDConfigEndpoint_RoundTrip(t *testing.T) {
	server := newTestServer(t)
	endpoint := server.URL + "/api/teams/emea/config/sbd"

	want := []engine.SBDPeriod{{
		Start: "2024-01-01",
		End:   "2024-01-31",
		Rows:  []engine.SBDCutoff{{Country: "United States", Time: "17:00"}},
	}}
	resp := doJSON(t, http.MethodPut, endpoint, api.SBDConfigDTO{Periods: want})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err := http.Get(endpoint)
	require.NoError(t, err)
	got := decode[api.SBDConfigDTO](t, resp)
	assert.Equal(t, want, got.Periods)
}

func TestTLMapEndpoint_RoundTrip(t *testing.T) {
	server := newTestServer(t)
	endpoint := server.URL + "/api/teams/emea/config/tl"

	want := []engine.TLMapping{{Name: "Lead A", Agents: []string{"jane owner"}}}
	resp := doJSON(t, http.MethodPut, endpoint, api.TLMapDTO{Mappings: want})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err := http.Get(endpoint)
	require.NoError(t, err)
	got := decode[api.TLMapDTO](t, resp)
	assert.Equal(t, want, got.Mappings)
}

// =============================================================================
// EXPORT ENDPOINTS
// =============================================================================

func TestCopyTrackingEndpoint(t *testing.T) {
	server := newTestServer(t)
	base := server.URL + "/api/teams/emea"

	body := extractBody()
	body.Sheets[engine.TableMO] = [][]string{
		metadataRow("header"),
		metadataRow("MO-1", "CAS-1", "2024-06-11 10:00", "Closed", "Standard", ""),
	}
	body.Sheets[engine.TableMOItems] = [][]string{
		metadataRow("header"),
		metadataRow("MO-1", "MO-1 - 1", "P-1", "X1 - Keyboard", "1Z1", "2024-06-11 10:00", "https://track.example/1"),
	}
	resp := doJSON(t, http.MethodPost, base+"/extract", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err := http.Get(base + "/copy/tracking")
	require.NoError(t, err)
	got := decode[api.CopyDTO](t, resp)
	assert.Equal(t, 1, got.Lines)
	assert.Equal(t, "CAS-1 | https://track.example/1", got.Text)
}
