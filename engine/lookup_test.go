package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/suchithrkar/kci-upload-creation-tool/engine"
)

func TestFindTL_FoldedMatch(t *testing.T) {
	mappings := []engine.TLMapping{
		{Name: "Lead A", Agents: []string{"José García", "Ann Smith"}},
		{Name: "Lead B", Agents: []string{"Bo Chen"}},
	}

	assert.Equal(t, "Lead A", engine.FindTL("jose garcia", mappings))
	assert.Equal(t, "Lead B", engine.FindTL("  BO CHEN ", mappings))
	assert.Equal(t, engine.NotFound, engine.FindTL("nobody", mappings))
}

func TestFindMarket_FoldedMatch(t *testing.T) {
	mappings := []engine.MarketMapping{
		{Name: "DACH", Countries: []string{"Germany", "Austria", "Switzerland"}},
	}

	assert.Equal(t, "DACH", engine.FindMarket("GERMANY", mappings))
	assert.Equal(t, engine.NotFound, engine.FindMarket("France", mappings))
}

func TestPartDetails(t *testing.T) {
	items := []engine.MaterialOrderItem{
		{OrderNumber: "MO-1", LineName: "MO-1 - 2", PartNumber: "P-2", Description: "X2-Spare"},
		{OrderNumber: "MO-1", LineName: "MO-1 - 1", PartNumber: "P-1", Description: "X1 - Keyboard Module"},
	}

	number, name := engine.PartDetails("MO-1", items)
	assert.Equal(t, "P-1", number)
	assert.Equal(t, "Keyboard Module", name)
}

func TestPartDetails_DashlessDescriptionUsedWhole(t *testing.T) {
	items := []engine.MaterialOrderItem{
		{OrderNumber: "MO-1", LineName: "MO-1 - 1", PartNumber: "P-1", Description: "Keyboard"},
	}

	_, name := engine.PartDetails("MO-1", items)
	assert.Equal(t, "Keyboard", name)
}

func TestPartDetails_MissingPrimaryItem(t *testing.T) {
	items := []engine.MaterialOrderItem{
		{OrderNumber: "MO-1", LineName: "MO-1 - 2", PartNumber: "P-2", Description: "Spare"},
	}

	number, name := engine.PartDetails("MO-1", items)
	assert.Equal(t, engine.NotFound, number)
	assert.Equal(t, engine.NotFound, name)
}
