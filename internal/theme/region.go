// Package theme partitions a generated labyrinth into thematic areas.
package theme

// Region is a named thematic area with its share of the labyrinth.
type Region struct {
	Code    string // Single-letter prefix used in tile codes
	Name    string // Display name
	Percent int    // Target share of all tiles
}

// Regions in assignment order. The order is part of the output contract: quotas,
// remainder distribution and BFS seeding all walk it front to back.
var Regions = []Region{
	{Code: "C", Name: "Command", Percent: 15},
	{Code: "M", Name: "Technical", Percent: 35},
	{Code: "Y", Name: "Living Quarters", Percent: 30},
	{Code: "K", Name: "Laboratory", Percent: 20},
}

// DefaultRegion receives any tile the quota pass failed to cover.
var DefaultRegion = Regions[1]

// RegionByName looks up a region by display name.
func RegionByName(name string) (Region, bool) {
	for _, r := range Regions {
		if r.Name == name {
			return r, true
		}
	}
	return Region{}, false
}

// Quotas returns the tile count per region, aligned with Regions.
// Each region gets floor(total*percent/100); the remainder is handed out one tile
// at a time in region order, so the quotas always sum to total.
func Quotas(total int) []int {
	quotas := make([]int, len(Regions))
	if total <= 0 {
		return quotas
	}

	assigned := 0
	for i, r := range Regions {
		quotas[i] = total * r.Percent / 100
		assigned += quotas[i]
	}

	for remaining := total - assigned; remaining > 0; {
		for i := range quotas {
			if remaining == 0 {
				break
			}
			quotas[i]++
			remaining--
		}
	}

	return quotas
}
