// Package schema holds the column vocabulary of the pipeline: header
// normalization, the fixed emissions layout and the predicates that decide
// which headers of a wide table carry a year.
package schema

import "strings"

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\uFEFF"

// Canonical key and output column names.
const (
	Entity         = "entity"
	Year           = "year"
	TotalEmissions = "total_emissions"
	Population     = "population"
	GDP            = "gdp"
	PerCapita      = "emissions_per_capita"
	PerGDP         = "emissions_per_gdp"
)

// SectorColumns lists the nine sectoral emission columns, normalized, in
// output order.
var SectorColumns = [...]string{
	"carbon_dioxide_emissions_from_buildings",
	"carbon_dioxide_emissions_from_industry",
	"carbon_dioxide_emissions_from_land_use_change_and_forestry",
	"carbon_dioxide_emissions_from_other_fuel_combustion",
	"carbon_dioxide_emissions_from_transport",
	"carbon_dioxide_emissions_from_manufacturing_and_construction",
	"fugitive_emissions_of_carbon_dioxide_from_energy_production",
	"carbon_dioxide_emissions_from_electricity_and_heat",
	"carbon_dioxide_emissions_from_bunker_fuels",
}

// NumSectors is the number of sectoral fields in an emissions record.
const NumSectors = len(SectorColumns)

// OutputColumns returns the exported column order.
func OutputColumns() []string {
	cols := make([]string, 0, NumSectors+7)
	cols = append(cols, Entity, Year)
	cols = append(cols, SectorColumns[:]...)
	cols = append(cols, TotalEmissions, Population, GDP, PerCapita, PerGDP)
	return cols
}

// NormalizeHeader canonicalizes a raw header: surrounding whitespace is
// trimmed, the text is lower-cased and every inner space becomes '_'.
func NormalizeHeader(h string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
}

// NormalizeHeaders applies NormalizeHeader to every header and strips a
// UTF-8 BOM from the first cell. The input slice is not modified.
func NormalizeHeaders(h []string) []string {
	res := make([]string, len(h))
	for i, col := range h {
		if i == 0 {
			col = strings.TrimPrefix(col, utf8BOM)
		}
		res[i] = NormalizeHeader(col)
	}
	return res
}
