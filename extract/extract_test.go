package extract_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suchithrkar/kci-upload-creation-tool/engine"
	"github.com/suchithrkar/kci-upload-creation-tool/extract"
)

// =============================================================================
// CELL NORMALIZATION
// =============================================================================

func TestCleanCell(t *testing.T) {
	assert.Equal(t, "hello world", extract.CleanCell(" hello world "))
	assert.Equal(t, "abc", extract.CleanCell("a\x00b\x1fc\x7f"))
	assert.Equal(t, "", extract.CleanCell("  \t\n "))
}

func TestSentenceCase(t *testing.T) {
	assert.Equal(t, "Delivered", extract.SentenceCase("DELIVERED"))
	assert.Equal(t, "In repair", extract.SentenceCase("in REPAIR"))
	assert.Equal(t, "", extract.SentenceCase("  "))
}

func TestNormalizeCell_SerialDates(t *testing.T) {
	// GIVEN: A numeric cell in the spreadsheet serial-date window
	// WHEN: It is normalized
	// THEN: It converts to the canonical timestamp, without the float
	//       drift that would turn 17:00 into 16:59

	assert.Equal(t, "2024-01-01 18:00", extract.NormalizeCell("45292.75"))
	assert.Equal(t, "2024-01-01 17:00", extract.NormalizeCell("45292.7083333333"))
	assert.Equal(t, "2024-01-01 00:00", extract.NormalizeCell("45292"))
}

func TestNormalizeCell_NonSerialsPassThrough(t *testing.T) {
	// Outside the window, numbers are just numbers.
	assert.Equal(t, "12345", extract.NormalizeCell("12345"))
	assert.Equal(t, "99999", extract.NormalizeCell("99999"))
	assert.Equal(t, "CAS-100", extract.NormalizeCell(" CAS-100 "))
}

// =============================================================================
// WORKBOOK DECODING
// =============================================================================

// grid builds a sheet grid with a header row and the three leading
// metadata columns every export carries.
func grid(rows ...[]string) [][]string {
	out := [][]string{{"meta1", "meta2", "meta3", "header..."}}
	for _, row := range rows {
		out = append(out, append([]string{"m1", "m2", "m3"}, row...))
	}
	return out
}

func TestDecodeWorkbook_SkipsMetadataAndBlankRows(t *testing.T) {
	sheets := map[string][][]string{
		engine.TableSO: grid(
			[]string{"CAS-1", "Submitted", "2024-06-01 10:00", "SO name", "SO-1-01"},
			[]string{"", "", "", "", ""},
			[]string{"CAS-2", "Submitted", "2024-06-02 10:00"},
		),
		"Unknown Sheet": grid([]string{"ignored"}),
	}

	data := extract.DecodeWorkbook(sheets)
	require.Len(t, data.ServiceOrds, 2)
	assert.Equal(t, engine.ServiceOrder{
		CaseID:        "CAS-1",
		ServiceStatus: "Submitted",
		SubmittedOn:   "2024-06-01 10:00",
		Name:          "SO name",
		OrderRefID:    "SO-1-01",
	}, data.ServiceOrds[0])

	// Short rows pad with empty fields.
	assert.Equal(t, "", data.ServiceOrds[1].OrderRefID)
}

func TestDecodeWorkbook_MissingSheetsDecodeEmpty(t *testing.T) {
	data := extract.DecodeWorkbook(map[string][][]string{})
	assert.Empty(t, data.Dump)
	assert.Empty(t, data.Closed)
}

func TestDecodeWorkbook_DumpFieldOrder(t *testing.T) {
	sheets := map[string][][]string{
		engine.TableDump: grid([]string{
			"CAS-1", "Jane Customer", "2024-06-01 09:00", "creator", "2024-06-02 09:00",
			"Consumer", "Germany", "Email", "Parts Shipped", "jane owner",
			"Sent", "No", "No", "Yes", "Queue A", "OTC-1", "SN-1", "Laptop 15",
		}),
	}

	data := extract.DecodeWorkbook(sheets)
	require.Len(t, data.Dump, 1)
	c := data.Dump[0]
	assert.Equal(t, "CAS-1", c.CaseID)
	assert.Equal(t, "Jane Customer", c.CustomerName)
	assert.Equal(t, "Germany", c.Country)
	assert.Equal(t, "Parts Shipped", c.ResolutionCode)
	assert.Equal(t, "jane owner", c.CaseOwner)
	assert.Equal(t, "SN-1", c.SerialNumber)
	assert.Equal(t, "Laptop 15", c.ProductName)
}

// =============================================================================
// CSV PARSING
// =============================================================================

func TestParseCSOCSV(t *testing.T) {
	text := "Case ID,CSO,Status,Tracking Number,Repair Status\n" +
		"CAS-1,SO-1,DELIVERED,1Z999,repair complete\n" +
		",SO-2,ignored,,\n" +
		"CAS-3,SO-3,in repair\n"

	rows, err := extract.ParseCSOCSV(text)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, engine.CSOExtractRow{
		Status:         "Delivered",
		TrackingNumber: "1Z999",
		RepairStatus:   "repair complete",
	}, rows["CAS-1"])

	// Ragged rows are fine; missing columns read as empty.
	assert.Equal(t, "In repair", rows["CAS-3"].Status)
	assert.Equal(t, "", rows["CAS-3"].TrackingNumber)
}

func TestParseTrackingCSV(t *testing.T) {
	text := "Case ID,Current Status\nCAS-1,In Transit\nCAS-2,Delivered\n"

	rows, err := extract.ParseTrackingCSV(text)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"CAS-1": "In Transit",
		"CAS-2": "Delivered",
	}, rows)
}

// =============================================================================
// FILE-NAME VALIDATION
// =============================================================================

func TestValidateFileNames(t *testing.T) {
	assert.NoError(t, extract.ValidateWorkbookName("KCI - Open Repair Case Data 2024-06-15.xlsx"))
	assert.ErrorIs(t, extract.ValidateWorkbookName("cases.xlsx"), engine.ErrInvalidUpload)

	assert.NoError(t, extract.ValidateCSOName("GNPro_Case_CSO_Status_2024-06-15.csv"))
	assert.ErrorIs(t, extract.ValidateCSOName("CSO_Status.csv"), engine.ErrInvalidUpload)

	assert.NoError(t, extract.ValidateTrackingName("Tracking_Results_2024-06-15.csv"))
	assert.ErrorIs(t, extract.ValidateTrackingName("Results_2024-06-15.csv"), engine.ErrInvalidUpload)
}
