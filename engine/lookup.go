/*
lookup.go - TL and Market mapping lookups

PURPOSE:
  Resolves the user-edited configuration maps: a case owner to their
  team-lead name, and a country to its market name. Matching is exact
  after folding (trim, lower-case, strip diacritics), because both
  sides come from uncontrolled external exports.
*/
package engine

import "strings"

// FindTL returns the team-lead name whose agent list contains the
// case owner, or "Not Found".
func FindTL(caseOwner string, mappings []TLMapping) string {
	key := Fold(caseOwner)
	for _, m := range mappings {
		for _, agent := range m.Agents {
			if Fold(agent) == key {
				return m.Name
			}
		}
	}
	return NotFound
}

// FindMarket returns the market name whose country list contains the
// case country, or "Not Found".
func FindMarket(country string, mappings []MarketMapping) string {
	key := Fold(country)
	for _, m := range mappings {
		for _, c := range m.Countries {
			if Fold(c) == key {
				return m.Name
			}
		}
	}
	return NotFound
}

// primaryLineSuffix marks the primary line item of a material order by
// naming convention.
const primaryLineSuffix = "- 1"

// PrimaryLineItem returns the first line item of the order whose name
// carries the primary-line suffix, or nil.
func PrimaryLineItem(orderNumber string, items []MaterialOrderItem) *MaterialOrderItem {
	for i := range items {
		item := &items[i]
		if item.OrderNumber != orderNumber {
			continue
		}
		if strings.HasSuffix(Fold(item.LineName), primaryLineSuffix) {
			selected := *item
			return &selected
		}
	}
	return nil
}

// PartDetails extracts the part number and part name from the selected
// material order's primary line item. The part name is the description
// after its first dash; a dashless description is used whole. Misses
// yield "Not Found" for both fields.
func PartDetails(orderNumber string, items []MaterialOrderItem) (partNumber, partName string) {
	item := PrimaryLineItem(orderNumber, items)
	if item == nil {
		return NotFound, NotFound
	}

	partNumber = item.PartNumber
	if partNumber == "" {
		partNumber = NotFound
	}

	description := item.Description
	if _, after, found := strings.Cut(description, "-"); found {
		partName = strings.TrimSpace(after)
	} else {
		partName = strings.TrimSpace(description)
	}
	if partName == "" {
		partName = NotFound
	}
	return partNumber, partName
}
