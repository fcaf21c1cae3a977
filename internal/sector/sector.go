// Package sector classifies deals by property sector and derives the
// sector-specific metrics used to check a deal against market benchmarks.
package sector

import (
	"fmt"
	"strings"
)

// Sector is a closed set of property sectors.
type Sector string

const (
	Multifamily         Sector = "MULTIFAMILY"
	StudentHousing      Sector = "STUDENT_HOUSING"
	SeniorHousing       Sector = "SENIOR_HOUSING"
	ManufacturedHousing Sector = "MANUFACTURED_HOUSING"
	SingleFamilyRental  Sector = "SINGLE_FAMILY_RENTAL"
	Office              Sector = "OFFICE"
	MedicalOffice       Sector = "MEDICAL_OFFICE"
	LifeScience         Sector = "LIFE_SCIENCE"
	Retail              Sector = "RETAIL"
	NetLease            Sector = "NET_LEASE"
	GroundLease         Sector = "GROUND_LEASE"
	Industrial          Sector = "INDUSTRIAL"
	ColdStorage         Sector = "COLD_STORAGE"
	FlexRD              Sector = "FLEX_RD"
	SelfStorage         Sector = "SELF_STORAGE"
	Hotel               Sector = "HOTEL"
	DataCenter          Sector = "DATA_CENTER"
	MixedUse            Sector = "MIXED_USE"
	Land                Sector = "LAND"
	Parking             Sector = "PARKING"
)

// Default is used when a profile cannot be classified.
const Default = Multifamily

var all = []Sector{
	Multifamily, StudentHousing, SeniorHousing, ManufacturedHousing, SingleFamilyRental,
	Office, MedicalOffice, LifeScience, Retail, NetLease, GroundLease,
	Industrial, ColdStorage, FlexRD, SelfStorage, Hotel, DataCenter,
	MixedUse, Land, Parking,
}

// All returns every sector in catalog order.
func All() []Sector {
	out := make([]Sector, len(all))
	copy(out, all)
	return out
}

// Valid reports whether s is a known sector.
func (s Sector) Valid() bool {
	for _, known := range all {
		if s == known {
			return true
		}
	}
	return false
}

// Parse accepts a sector code in any case, with spaces or hyphens for underscores.
func Parse(value string) (Sector, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	normalized = strings.NewReplacer(" ", "_", "-", "_", "/", "_").Replace(normalized)
	s := Sector(normalized)
	if !s.Valid() {
		return "", fmt.Errorf("unknown sector %q", value)
	}
	return s, nil
}
