/*
schema.go - Per-sheet positional schemas and typed decoding

PURPOSE:
  The workbook arrives as per-sheet cell grids. Each sheet prepends
  three metadata columns and a header row; after skipping those, the
  remaining columns are positional per the export's fixed layout.
  This is the only place positional indexing exists - everything past
  this boundary is a named-field struct.
*/
package extract

import (
	"github.com/suchithrkar/kci-upload-creation-tool/engine"
)

// metadataColumns is the count of leading export-metadata columns on
// every workbook sheet.
const metadataColumns = 3

// alignRows drops the header row, skips the metadata columns,
// normalizes every cell, drops rows that are blank after the skip,
// and pads each row to the schema's column count.
func alignRows(grid [][]string, columns int) [][]string {
	if len(grid) < 2 {
		return nil
	}

	var rows [][]string
	for _, raw := range grid[1:] {
		if len(raw) > metadataColumns {
			raw = raw[metadataColumns:]
		} else {
			raw = nil
		}

		row := make([]string, columns)
		blank := true
		for i := 0; i < columns && i < len(raw); i++ {
			row[i] = NormalizeCell(raw[i])
			if row[i] != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

// DecodeWorkbook decodes the six workbook sheets into typed records.
// Unknown sheet names are ignored; missing sheets decode as empty.
func DecodeWorkbook(sheets map[string][][]string) engine.ExtractData {
	return engine.ExtractData{
		Dump:        decodeDump(sheets[engine.TableDump]),
		WorkOrders:  decodeWorkOrders(sheets[engine.TableWO]),
		Orders:      decodeMaterialOrders(sheets[engine.TableMO]),
		OrderItems:  decodeMaterialOrderItems(sheets[engine.TableMOItems]),
		ServiceOrds: decodeServiceOrders(sheets[engine.TableSO]),
		Closed:      decodeClosedCases(sheets[engine.TableClosedCases]),
	}
}

func decodeDump(grid [][]string) []engine.DumpCase {
	var out []engine.DumpCase
	for _, row := range alignRows(grid, 18) {
		out = append(out, engine.DumpCase{
			CaseID:            row[0],
			CustomerName:      row[1],
			CreatedOn:         row[2],
			CreatedBy:         row[3],
			ModifiedOn:        row[4],
			BusinessSegment:   row[5],
			Country:           row[6],
			IncomingChannel:   row[7],
			ResolutionCode:    row[8],
			CaseOwner:         row[9],
			EmailStatus:       row[10],
			ReadyForClosure:   row[11],
			RequiresAutoClose: row[12],
			IsOrderCreated:    row[13],
			Queue:             row[14],
			OTCCode:           row[15],
			SerialNumber:      row[16],
			ProductName:       row[17],
		})
	}
	return out
}

func decodeWorkOrders(grid [][]string) []engine.WorkOrder {
	var out []engine.WorkOrder
	for _, row := range alignRows(grid, 10) {
		out = append(out, engine.WorkOrder{
			CaseID:          row[0],
			OrderNumber:     row[1],
			BusinessSegment: row[2],
			ServiceAccount:  row[3],
			CaseStatus:      row[4],
			SystemStatus:    row[5],
			CreatedOn:       row[6],
			Workgroup:       row[7],
			Country:         row[8],
			ResolutionNotes: row[9],
		})
	}
	return out
}

func decodeMaterialOrders(grid [][]string) []engine.MaterialOrder {
	var out []engine.MaterialOrder
	for _, row := range alignRows(grid, 6) {
		out = append(out, engine.MaterialOrder{
			OrderNumber:         row[0],
			CaseID:              row[1],
			CreatedOn:           row[2],
			OrderStatus:         row[3],
			OrderType:           row[4],
			ReadyForClosureDate: row[5],
		})
	}
	return out
}

func decodeMaterialOrderItems(grid [][]string) []engine.MaterialOrderItem {
	var out []engine.MaterialOrderItem
	for _, row := range alignRows(grid, 7) {
		out = append(out, engine.MaterialOrderItem{
			OrderNumber:    row[0],
			LineName:       row[1],
			PartNumber:     row[2],
			Description:    row[3],
			TrackingNumber: row[4],
			CreatedOn:      row[5],
			TrackingURL:    row[6],
		})
	}
	return out
}

func decodeServiceOrders(grid [][]string) []engine.ServiceOrder {
	var out []engine.ServiceOrder
	for _, row := range alignRows(grid, 5) {
		out = append(out, engine.ServiceOrder{
			CaseID:        row[0],
			ServiceStatus: row[1],
			SubmittedOn:   row[2],
			Name:          row[3],
			OrderRefID:    row[4],
		})
	}
	return out
}

func decodeClosedCases(grid [][]string) []engine.ClosedCase {
	var out []engine.ClosedCase
	for _, row := range alignRows(grid, 11) {
		out = append(out, engine.ClosedCase{
			CaseID:          row[0],
			CreatedOn:       row[1],
			ModifiedBy:      row[2],
			ModifiedOn:      row[3],
			ClosedOn:        row[4],
			ResolutionCode:  row[5],
			CreatedBy:       row[6],
			IncomingChannel: row[7],
			Owner:           row[8],
			Country:         row[9],
			OTCCode:         row[10],
		})
	}
	return out
}
