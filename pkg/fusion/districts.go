package fusion

import (
	"maps"
	"slices"
)

// SectorDistricts maps a budget sector to the Paris districts it is spread over.
// The table is a coarse approximation: budget data carries no geography.
type SectorDistricts map[string][]int

// DefaultSectorDistricts returns the built-in sector to district table.
func DefaultSectorDistricts() SectorDistricts {
	return SectorDistricts{
		"Éducation":         {1, 5, 6, 7},
		"Transport":         {1, 2, 8, 9},
		"Logement":          {10, 11, 18, 19, 20},
		"Santé":             {3, 4, 12, 13},
		"Environnement":     {14, 15, 16, 17},
		"Culture et Sports": {1, 4, 5, 6, 7, 8},
	}
}

// Sectors returns the mapped sectors in sorted order.
func (s SectorDistricts) Sectors() []string {
	return slices.Sorted(maps.Keys(s))
}
