package sector

import "sort"

// Space describes rentable area and units.
type Space struct {
	SquareFeet       *float64 `json:"squareFeet,omitempty" yaml:"squareFeet,omitempty" mapstructure:"squareFeet"`
	LeasedSquareFeet *float64 `json:"leasedSquareFeet,omitempty" yaml:"leasedSquareFeet,omitempty" mapstructure:"leasedSquareFeet"`
	Units            *float64 `json:"units,omitempty" yaml:"units,omitempty" mapstructure:"units"`
	OccupiedUnits    *float64 `json:"occupiedUnits,omitempty" yaml:"occupiedUnits,omitempty" mapstructure:"occupiedUnits"`
}

// Housing holds residential variant inputs.
type Housing struct {
	Beds         *float64 `json:"beds,omitempty" yaml:"beds,omitempty" mapstructure:"beds"`
	PreleaseRate *float64 `json:"preleaseRate,omitempty" yaml:"preleaseRate,omitempty" mapstructure:"preleaseRate"`
	CareRevenue  *float64 `json:"careRevenue,omitempty" yaml:"careRevenue,omitempty" mapstructure:"careRevenue"`
	Pads         *float64 `json:"pads,omitempty" yaml:"pads,omitempty" mapstructure:"pads"`
	OccupiedPads *float64 `json:"occupiedPads,omitempty" yaml:"occupiedPads,omitempty" mapstructure:"occupiedPads"`
	Homes        *float64 `json:"homes,omitempty" yaml:"homes,omitempty" mapstructure:"homes"`
}

// Lease is one tenant lease used for WALT.
type Lease struct {
	Tenant             string  `json:"tenant,omitempty" yaml:"tenant,omitempty" mapstructure:"tenant"`
	SquareFeet         float64 `json:"squareFeet" yaml:"squareFeet" mapstructure:"squareFeet"`
	AnnualRent         float64 `json:"annualRent" yaml:"annualRent" mapstructure:"annualRent"`
	RemainingTermYears float64 `json:"remainingTermYears" yaml:"remainingTermYears" mapstructure:"remainingTermYears"`
}

// Leasing holds commercial lease inputs.
type Leasing struct {
	WALTYears        *float64 `json:"waltYears,omitempty" yaml:"waltYears,omitempty" mapstructure:"waltYears"`
	Leases           []Lease  `json:"leases,omitempty" yaml:"leases,omitempty" mapstructure:"leases"`
	TenantSales      *float64 `json:"tenantSales,omitempty" yaml:"tenantSales,omitempty" mapstructure:"tenantSales"`
	AnchorSquareFeet *float64 `json:"anchorSquareFeet,omitempty" yaml:"anchorSquareFeet,omitempty" mapstructure:"anchorSquareFeet"`
	TenantEBITDAR    *float64 `json:"tenantEbitdar,omitempty" yaml:"tenantEbitdar,omitempty" mapstructure:"tenantEbitdar"`
	TIPerSF          *float64 `json:"tiPerSf,omitempty" yaml:"tiPerSf,omitempty" mapstructure:"tiPerSf"`
	LCPerSF          *float64 `json:"lcPerSf,omitempty" yaml:"lcPerSf,omitempty" mapstructure:"lcPerSf"`
	HealthSystemSF   *float64 `json:"healthSystemSf,omitempty" yaml:"healthSystemSf,omitempty" mapstructure:"healthSystemSf"`
}

// Facility holds industrial and lab building characteristics.
type Facility struct {
	ClearHeight     *float64 `json:"clearHeight,omitempty" yaml:"clearHeight,omitempty" mapstructure:"clearHeight"`
	DockDoors       *float64 `json:"dockDoors,omitempty" yaml:"dockDoors,omitempty" mapstructure:"dockDoors"`
	PalletPositions *float64 `json:"palletPositions,omitempty" yaml:"palletPositions,omitempty" mapstructure:"palletPositions"`
	OfficeFinishSF  *float64 `json:"officeFinishSf,omitempty" yaml:"officeFinishSf,omitempty" mapstructure:"officeFinishSf"`
	LabSquareFeet   *float64 `json:"labSquareFeet,omitempty" yaml:"labSquareFeet,omitempty" mapstructure:"labSquareFeet"`
}

// Hospitality holds hotel operating statistics.
type Hospitality struct {
	Rooms                 *float64 `json:"rooms,omitempty" yaml:"rooms,omitempty" mapstructure:"rooms"`
	ADR                   *float64 `json:"adr,omitempty" yaml:"adr,omitempty" mapstructure:"adr"`
	Occupancy             *float64 `json:"occupancy,omitempty" yaml:"occupancy,omitempty" mapstructure:"occupancy"`
	TotalRevenue          *float64 `json:"totalRevenue,omitempty" yaml:"totalRevenue,omitempty" mapstructure:"totalRevenue"`
	DepartmentalExpenses  *float64 `json:"departmentalExpenses,omitempty" yaml:"departmentalExpenses,omitempty" mapstructure:"departmentalExpenses"`
	UndistributedExpenses *float64 `json:"undistributedExpenses,omitempty" yaml:"undistributedExpenses,omitempty" mapstructure:"undistributedExpenses"`
	ManagementFees        *float64 `json:"managementFees,omitempty" yaml:"managementFees,omitempty" mapstructure:"managementFees"`
}

// Power holds data center capacity inputs.
type Power struct {
	CriticalLoadKW  *float64 `json:"criticalLoadKw,omitempty" yaml:"criticalLoadKw,omitempty" mapstructure:"criticalLoadKw"`
	TotalFacilityKW *float64 `json:"totalFacilityKw,omitempty" yaml:"totalFacilityKw,omitempty" mapstructure:"totalFacilityKw"`
	LeasedKW        *float64 `json:"leasedKw,omitempty" yaml:"leasedKw,omitempty" mapstructure:"leasedKw"`
}

// Site holds land, ground lease, mixed-use and parking inputs.
type Site struct {
	Acres            *float64 `json:"acres,omitempty" yaml:"acres,omitempty" mapstructure:"acres"`
	EntitledUnits    *float64 `json:"entitledUnits,omitempty" yaml:"entitledUnits,omitempty" mapstructure:"entitledUnits"`
	LandValue        *float64 `json:"landValue,omitempty" yaml:"landValue,omitempty" mapstructure:"landValue"`
	GroundRent       *float64 `json:"groundRent,omitempty" yaml:"groundRent,omitempty" mapstructure:"groundRent"`
	GroundLeaseYears *float64 `json:"groundLeaseYears,omitempty" yaml:"groundLeaseYears,omitempty" mapstructure:"groundLeaseYears"`
	ResidentialSF    *float64 `json:"residentialSf,omitempty" yaml:"residentialSf,omitempty" mapstructure:"residentialSf"`
	CommercialSF     *float64 `json:"commercialSf,omitempty" yaml:"commercialSf,omitempty" mapstructure:"commercialSf"`
	Spaces           *float64 `json:"spaces,omitempty" yaml:"spaces,omitempty" mapstructure:"spaces"`
}

// Profile is the deal profile: descriptive type strings plus the
// sector-specific physical and operating inputs, all optional.
type Profile struct {
	PropertyType string `json:"propertyType,omitempty" yaml:"propertyType,omitempty" mapstructure:"propertyType"`
	AssetType    string `json:"assetType,omitempty" yaml:"assetType,omitempty" mapstructure:"assetType"`

	Space       `yaml:",inline" mapstructure:",squash"`
	Housing     `yaml:",inline" mapstructure:",squash"`
	Leasing     `yaml:",inline" mapstructure:",squash"`
	Facility    `yaml:",inline" mapstructure:",squash"`
	Hospitality `yaml:",inline" mapstructure:",squash"`
	Power       `yaml:",inline" mapstructure:",squash"`
	Site        `yaml:",inline" mapstructure:",squash"`
}

var profileFields = map[string]func(Profile) bool{
	"squareFeet":            func(p Profile) bool { return p.SquareFeet != nil },
	"leasedSquareFeet":      func(p Profile) bool { return p.LeasedSquareFeet != nil },
	"units":                 func(p Profile) bool { return p.Units != nil },
	"occupiedUnits":         func(p Profile) bool { return p.OccupiedUnits != nil },
	"beds":                  func(p Profile) bool { return p.Beds != nil },
	"preleaseRate":          func(p Profile) bool { return p.PreleaseRate != nil },
	"careRevenue":           func(p Profile) bool { return p.CareRevenue != nil },
	"pads":                  func(p Profile) bool { return p.Pads != nil },
	"occupiedPads":          func(p Profile) bool { return p.OccupiedPads != nil },
	"homes":                 func(p Profile) bool { return p.Homes != nil },
	"waltYears":             func(p Profile) bool { return p.WALTYears != nil || len(p.Leases) > 0 },
	"leases":                func(p Profile) bool { return len(p.Leases) > 0 },
	"tenantSales":           func(p Profile) bool { return p.TenantSales != nil },
	"anchorSquareFeet":      func(p Profile) bool { return p.AnchorSquareFeet != nil },
	"tenantEbitdar":         func(p Profile) bool { return p.TenantEBITDAR != nil },
	"tiPerSf":               func(p Profile) bool { return p.TIPerSF != nil },
	"lcPerSf":               func(p Profile) bool { return p.LCPerSF != nil },
	"healthSystemSf":        func(p Profile) bool { return p.HealthSystemSF != nil },
	"clearHeight":           func(p Profile) bool { return p.ClearHeight != nil },
	"dockDoors":             func(p Profile) bool { return p.DockDoors != nil },
	"palletPositions":       func(p Profile) bool { return p.PalletPositions != nil },
	"officeFinishSf":        func(p Profile) bool { return p.OfficeFinishSF != nil },
	"labSquareFeet":         func(p Profile) bool { return p.LabSquareFeet != nil },
	"rooms":                 func(p Profile) bool { return p.Rooms != nil },
	"adr":                   func(p Profile) bool { return p.ADR != nil },
	"occupancy":             func(p Profile) bool { return p.Occupancy != nil },
	"totalRevenue":          func(p Profile) bool { return p.TotalRevenue != nil },
	"departmentalExpenses":  func(p Profile) bool { return p.DepartmentalExpenses != nil },
	"undistributedExpenses": func(p Profile) bool { return p.UndistributedExpenses != nil },
	"managementFees":        func(p Profile) bool { return p.ManagementFees != nil },
	"criticalLoadKw":        func(p Profile) bool { return p.CriticalLoadKW != nil },
	"totalFacilityKw":       func(p Profile) bool { return p.TotalFacilityKW != nil },
	"leasedKw":              func(p Profile) bool { return p.LeasedKW != nil },
	"acres":                 func(p Profile) bool { return p.Acres != nil },
	"entitledUnits":         func(p Profile) bool { return p.EntitledUnits != nil },
	"landValue":             func(p Profile) bool { return p.LandValue != nil },
	"groundRent":            func(p Profile) bool { return p.GroundRent != nil },
	"groundLeaseYears":      func(p Profile) bool { return p.GroundLeaseYears != nil },
	"residentialSf":         func(p Profile) bool { return p.ResidentialSF != nil },
	"commercialSf":          func(p Profile) bool { return p.CommercialSF != nil },
	"spaces":                func(p Profile) bool { return p.Spaces != nil },
}

// ProfileFieldNames lists the profile inputs a catalog may reference.
func ProfileFieldNames() []string {
	names := make([]string, 0, len(profileFields))
	for name := range profileFields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether the named profile input is present.
func (p Profile) Has(name string) bool {
	present, ok := profileFields[name]
	return ok && present(p)
}
