package trees

import (
	"errors"
	"strings"
)

// ClimateAll matches every tree.
const ClimateAll = "All"

// Climates lists the accepted filter values, ClimateAll first.
var Climates = []string{ClimateAll, "Tropical", "Temperate", "Mediterranean", "Continental", "Arid"}

var ErrUnknownClimate = errors.New("unknown climate")

type Tree struct {
	Name                string `json:"name"`
	ScientificName      string `json:"scientificName"`
	GrowthRate          string `json:"growthRate"`
	CarbonSequestration string `json:"carbonSequestration"`
	SuitableClimate     string `json:"suitableClimate"`
}

var catalog = []Tree{
	{Name: "Oak", ScientificName: "Quercus spp.", GrowthRate: "Medium", CarbonSequestration: "High", SuitableClimate: "Temperate"},
	{Name: "Pine", ScientificName: "Pinus spp.", GrowthRate: "Fast", CarbonSequestration: "Medium", SuitableClimate: "Continental"},
	{Name: "Maple", ScientificName: "Acer spp.", GrowthRate: "Medium", CarbonSequestration: "Medium", SuitableClimate: "Temperate"},
	{Name: "Cedar", ScientificName: "Cedrus spp.", GrowthRate: "Slow", CarbonSequestration: "High", SuitableClimate: "Mediterranean"},
	{Name: "Eucalyptus", ScientificName: "Eucalyptus spp.", GrowthRate: "Very Fast", CarbonSequestration: "Medium", SuitableClimate: "Tropical"},
	{Name: "Birch", ScientificName: "Betula spp.", GrowthRate: "Fast", CarbonSequestration: "Low", SuitableClimate: "Continental"},
}

// All returns a copy of the catalog.
func All() []Tree {
	out := make([]Tree, len(catalog))
	copy(out, catalog)
	return out
}

// Filter returns the trees suited to climate, in catalog order. An empty
// climate or ClimateAll returns the whole catalog.
func Filter(climate string) ([]Tree, error) {
	climate = strings.TrimSpace(climate)
	if climate == "" || strings.EqualFold(climate, ClimateAll) {
		return All(), nil
	}

	var known bool
	for _, c := range Climates {
		if strings.EqualFold(c, climate) {
			known = true
			break
		}
	}
	if !known {
		return nil, ErrUnknownClimate
	}

	out := []Tree{}
	for _, t := range catalog {
		if strings.EqualFold(t.SuitableClimate, climate) {
			out = append(out, t)
		}
	}
	return out, nil
}
