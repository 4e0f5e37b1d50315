package vin

import "strings"

// Region is the continent-level origin encoded by the first VIN character.
type Region string

// Regions assigned by ISO 3780.
const (
	RegionAfrica       Region = "Africa"
	RegionAsia         Region = "Asia"
	RegionEurope       Region = "Europe"
	RegionNorthAmerica Region = "North America"
	RegionOceania      Region = "Oceania"
	RegionSouthAmerica Region = "South America"
	RegionUnknown      Region = ""
)

// RegionOf returns the region assigned to the first WMI character.
func RegionOf(c byte) Region {
	switch {
	case c >= 'A' && c <= 'H':
		return RegionAfrica
	case c >= 'J' && c <= 'R':
		return RegionAsia
	case c >= 'S' && c <= 'Z':
		return RegionEurope
	case c >= '1' && c <= '5':
		return RegionNorthAmerica
	case c == '6' || c == '7':
		return RegionOceania
	case c == '8' || c == '9' || c == '0':
		return RegionSouthAmerica
	}
	return RegionUnknown
}

// alphabet is the ordering ISO 3780 uses for WMI country ranges.
const alphabet = "ABCDEFGHJKLMNPRSTUVWXYZ1234567890"

type countryRange struct {
	first    byte
	from, to byte
	country  string
}

// countryRanges is a subset of the ISO 3780 WMI country allocation.
var countryRanges = []countryRange{
	{'A', 'A', 'H', "South Africa"},
	{'J', 'A', '0', "Japan"},
	{'K', 'L', 'R', "South Korea"},
	{'L', 'A', '0', "China"},
	{'M', 'A', 'E', "India"},
	{'M', 'F', 'K', "Indonesia"},
	{'M', 'L', 'R', "Thailand"},
	{'S', 'A', 'M', "United Kingdom"},
	{'S', 'N', 'T', "Germany"},
	{'T', 'A', 'H', "Switzerland"},
	{'T', 'J', 'P', "Czech Republic"},
	{'T', 'R', 'V', "Hungary"},
	{'V', 'A', 'E', "Austria"},
	{'V', 'F', 'R', "France"},
	{'V', 'S', 'W', "Spain"},
	{'W', 'A', '0', "Germany"},
	{'X', 'L', 'R', "Netherlands"},
	{'X', 'S', 'W', "Russia"},
	{'Y', 'A', 'E', "Belgium"},
	{'Y', 'F', 'K', "Finland"},
	{'Y', 'S', 'W', "Sweden"},
	{'Z', 'A', 'R', "Italy"},
	{'1', 'A', '0', "United States"},
	{'2', 'A', '0', "Canada"},
	{'3', 'A', 'W', "Mexico"},
	{'4', 'A', '0', "United States"},
	{'5', 'A', '0', "United States"},
	{'6', 'A', 'W', "Australia"},
	{'7', 'A', 'E', "New Zealand"},
	{'8', 'A', 'E', "Argentina"},
	{'8', 'F', 'J', "Chile"},
	{'9', 'A', 'E', "Brazil"},
	{'9', '3', '9', "Brazil"},
}

// CountryOf returns the country allocated to the first two WMI characters,
// or "" when the pair falls outside the known ranges.
func CountryOf(wmi string) string {
	if len(wmi) < 2 {
		return ""
	}
	idx := strings.IndexByte(alphabet, wmi[1])
	if idx < 0 {
		return ""
	}
	for _, r := range countryRanges {
		if r.first != wmi[0] {
			continue
		}
		lo := strings.IndexByte(alphabet, r.from)
		hi := strings.IndexByte(alphabet, r.to)
		if idx >= lo && idx <= hi {
			return r.country
		}
	}
	return ""
}

// yearCodes lists the position 10 codes of one 30-year cycle starting at 1980.
const yearCodes = "ABCDEFGHJKLMNPRSTVWXY123456789"

// ModelYear decodes position 10. A digit at position 7 selects the
// 1980-2009 cycle, a letter selects 2010-2039. ok is false for codes that
// never denote a year (0, U, Z, I, O, Q).
func ModelYear(v VIN) (year int, ok bool) {
	if len(v) != Length {
		return 0, false
	}
	idx := strings.IndexByte(yearCodes, v[9])
	if idx < 0 {
		return 0, false
	}
	year = 1980 + idx
	if c := v[6]; c < '0' || c > '9' {
		year += 30
	}
	return year, true
}

// Parts is the positional breakdown of a VIN.
type Parts struct {
	VIN        VIN    `json:"vin" yaml:"vin"`
	WMI        string `json:"wmi" yaml:"wmi"`
	VDS        string `json:"vds" yaml:"vds"`
	VIS        string `json:"vis" yaml:"vis"`
	CheckDigit string `json:"check_digit" yaml:"check_digit"`
	YearCode   string `json:"year_code" yaml:"year_code"`
	ModelYear  int    `json:"model_year,omitempty" yaml:"model_year,omitempty"`
	PlantCode  string `json:"plant_code" yaml:"plant_code"`
	Serial     string `json:"serial" yaml:"serial"`
	Region     Region `json:"region,omitempty" yaml:"region,omitempty"`
	Country    string `json:"country,omitempty" yaml:"country,omitempty"`
}

// Parse splits a validated VIN into its positional parts.
func Parse(v VIN) Parts {
	s := string(v)
	p := Parts{
		VIN:        v,
		WMI:        s[0:3],
		VDS:        s[3:9],
		VIS:        s[9:17],
		CheckDigit: s[8:9],
		YearCode:   s[9:10],
		PlantCode:  s[10:11],
		Serial:     s[11:17],
		Region:     RegionOf(s[0]),
		Country:    CountryOf(s[0:2]),
	}
	if y, ok := ModelYear(v); ok {
		p.ModelYear = y
	}
	return p
}
