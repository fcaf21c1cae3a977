package sector

import (
	"github.com/iwvelando/cre-underwriter/internal/model"
	"github.com/iwvelando/cre-underwriter/internal/underwriting"
	"github.com/iwvelando/cre-underwriter/pkg/constants"
	"github.com/iwvelando/cre-underwriter/pkg/mathutil"
)

// Metrics is a flat map of metric name to value.
type Metrics map[string]float64

func (m Metrics) rate(name string, v *float64) {
	if v != nil {
		m[name] = mathutil.Rate(*v)
	}
}

func (m Metrics) money(name string, v *float64) {
	if v != nil {
		m[name] = mathutil.Dollars(*v)
	}
}

func (m Metrics) cents(name string, v *float64) {
	if v != nil {
		m[name] = mathutil.Cents(*v)
	}
}

// Base holds the deal-level figures every sector calculation starts from.
type Base struct {
	PurchasePrice        *float64
	GrossPotentialRent   *float64
	EffectiveGrossIncome *float64
	TotalExpenses        *float64
	NetOperatingIncome   *float64
	Occupancy            *float64
	DSCR                 *float64
	CapRate              *float64
	LTV                  *float64
	DebtYield            *float64
	ExpenseRatio         *float64
}

// NewBase derives the common figures through the underwriting calculator.
func NewBase(in model.Inputs) Base {
	res := underwriting.CalculateUnderwriting(in)
	b := Base{
		PurchasePrice:      in.PurchasePrice,
		GrossPotentialRent: in.GrossPotentialRent,
	}
	if in.VacancyRate != nil {
		b.Occupancy = mathutil.Ptr(1 - *in.VacancyRate)
	}
	if res.Income != nil {
		b.EffectiveGrossIncome = mathutil.Ptr(res.Income.EffectiveGrossIncome)
	}
	if res.Expenses != nil {
		b.TotalExpenses = mathutil.Ptr(res.Expenses.TotalOperatingExpenses)
		b.NetOperatingIncome = res.Expenses.NetOperatingIncome
		b.ExpenseRatio = res.Expenses.ExpenseRatio
	}
	if res.DebtMetrics != nil {
		b.DSCR = res.DebtMetrics.DSCR
		b.LTV = res.DebtMetrics.LTV
		b.DebtYield = res.DebtMetrics.DebtYield
	}
	if res.Returns != nil {
		b.CapRate = res.Returns.GoingInCapRate
	}
	return b
}

func (b Base) common() Metrics {
	m := Metrics{}
	m.rate("dscr", b.DSCR)
	m.rate("capRate", b.CapRate)
	m.rate("ltv", b.LTV)
	m.rate("debtYield", b.DebtYield)
	m.rate("expenseRatio", b.ExpenseRatio)
	m.rate("occupancy", b.Occupancy)
	return m
}

// perUnit adds price, NOI and monthly rent per unit of count.
func (b Base) perUnit(m Metrics, noun string, count *float64) {
	m.money("pricePer"+noun, mathutil.DivPtr(b.PurchasePrice, count))
	m.money("noiPer"+noun, mathutil.DivPtr(b.NetOperatingIncome, count))
	if rent := mathutil.DivPtr(b.GrossPotentialRent, count); rent != nil {
		m.money("monthlyRentPer"+noun, mathutil.Ptr(*rent/constants.MonthsPerYear))
	}
}

// perSF adds price, rent and NOI per square foot.
func (b Base) perSF(m Metrics, sf *float64) {
	m.cents("pricePerSf", mathutil.DivPtr(b.PurchasePrice, sf))
	m.cents("rentPerSf", mathutil.DivPtr(b.GrossPotentialRent, sf))
	m.cents("noiPerSf", mathutil.DivPtr(b.NetOperatingIncome, sf))
}

// calculators maps every sector to its metric function. Each function reads
// only the profile subset it declares.
var calculators = map[Sector]func(Base, Profile) Metrics{
	Multifamily:         func(b Base, p Profile) Metrics { return multifamilyMetrics(b, p.Space) },
	StudentHousing:      func(b Base, p Profile) Metrics { return studentHousingMetrics(b, p.Space, p.Housing) },
	SeniorHousing:       func(b Base, p Profile) Metrics { return seniorHousingMetrics(b, p.Space, p.Housing) },
	ManufacturedHousing: func(b Base, p Profile) Metrics { return manufacturedHousingMetrics(b, p.Housing) },
	SingleFamilyRental:  func(b Base, p Profile) Metrics { return singleFamilyMetrics(b, p.Housing) },
	Office:              func(b Base, p Profile) Metrics { return officeMetrics(b, p.Space, p.Leasing) },
	MedicalOffice:       func(b Base, p Profile) Metrics { return medicalOfficeMetrics(b, p.Space, p.Leasing) },
	LifeScience:         func(b Base, p Profile) Metrics { return lifeScienceMetrics(b, p.Space, p.Leasing, p.Facility) },
	Retail:              func(b Base, p Profile) Metrics { return retailMetrics(b, p.Space, p.Leasing) },
	NetLease:            func(b Base, p Profile) Metrics { return netLeaseMetrics(b, p.Space, p.Leasing) },
	GroundLease:         func(b Base, p Profile) Metrics { return groundLeaseMetrics(b, p.Site) },
	Industrial:          func(b Base, p Profile) Metrics { return industrialMetrics(b, p.Space, p.Facility) },
	ColdStorage:         func(b Base, p Profile) Metrics { return coldStorageMetrics(b, p.Space, p.Facility) },
	FlexRD:              func(b Base, p Profile) Metrics { return flexMetrics(b, p.Space, p.Facility) },
	SelfStorage:         func(b Base, p Profile) Metrics { return selfStorageMetrics(b, p.Space) },
	Hotel:               func(b Base, p Profile) Metrics { return hotelMetrics(b, p.Hospitality) },
	DataCenter:          func(b Base, p Profile) Metrics { return dataCenterMetrics(b, p.Power) },
	MixedUse:            func(b Base, p Profile) Metrics { return mixedUseMetrics(b, p.Space, p.Site) },
	Land:                func(b Base, p Profile) Metrics { return landMetrics(b, p.Site) },
	Parking:             func(b Base, p Profile) Metrics { return parkingMetrics(b, p.Site) },
}

func spaceOccupancy(m Metrics, s Space) {
	if occ := mathutil.DivPtr(s.OccupiedUnits, s.Units); occ != nil {
		m["physicalOccupancy"] = mathutil.Rate(*occ)
	}
	if leased := mathutil.DivPtr(s.LeasedSquareFeet, s.SquareFeet); leased != nil {
		m["leasedPercent"] = mathutil.Rate(*leased)
	}
}

func multifamilyMetrics(b Base, s Space) Metrics {
	m := b.common()
	b.perUnit(m, "Unit", s.Units)
	m.cents("pricePerSf", mathutil.DivPtr(b.PurchasePrice, s.SquareFeet))
	m.money("expensePerUnit", mathutil.DivPtr(b.TotalExpenses, s.Units))
	if avg := mathutil.DivPtr(s.SquareFeet, s.Units); avg != nil {
		m["averageUnitSf"] = mathutil.Dollars(*avg)
	}
	spaceOccupancy(m, s)
	return m
}

func studentHousingMetrics(b Base, s Space, h Housing) Metrics {
	m := b.common()
	b.perUnit(m, "Bed", h.Beds)
	m.rate("bedsPerUnit", mathutil.DivPtr(h.Beds, s.Units))
	m.rate("preleaseRate", h.PreleaseRate)
	return m
}

func seniorHousingMetrics(b Base, s Space, h Housing) Metrics {
	m := b.common()
	b.perUnit(m, "Unit", s.Units)
	spaceOccupancy(m, s)
	m.rate("noiMargin", mathutil.DivPtr(b.NetOperatingIncome, b.EffectiveGrossIncome))
	m.rate("careRevenueShare", mathutil.DivPtr(h.CareRevenue, b.EffectiveGrossIncome))
	if rev := mathutil.DivPtr(b.EffectiveGrossIncome, s.OccupiedUnits); rev != nil {
		m["monthlyRevenuePerOccupiedUnit"] = mathutil.Dollars(*rev / constants.MonthsPerYear)
	}
	return m
}

func manufacturedHousingMetrics(b Base, h Housing) Metrics {
	m := b.common()
	b.perUnit(m, "Pad", h.Pads)
	m.rate("padOccupancy", mathutil.DivPtr(h.OccupiedPads, h.Pads))
	return m
}

func singleFamilyMetrics(b Base, h Housing) Metrics {
	m := b.common()
	b.perUnit(m, "Home", h.Homes)
	m.rate("grossYield", mathutil.DivPtr(b.GrossPotentialRent, b.PurchasePrice))
	return m
}

// walt returns the rent-weighted average remaining lease term when leases are
// listed, otherwise the supplied figure.
func walt(l Leasing) *float64 {
	var rent, weighted float64
	for _, lease := range l.Leases {
		rent += lease.AnnualRent
		weighted += lease.AnnualRent * lease.RemainingTermYears
	}
	if w := mathutil.Div(weighted, rent); w != nil {
		return w
	}
	return l.WALTYears
}

func leasedArea(l Leasing) *float64 {
	var sf float64
	for _, lease := range l.Leases {
		sf += lease.SquareFeet
	}
	if sf <= 0 {
		return nil
	}
	return &sf
}

func officeMetrics(b Base, s Space, l Leasing) Metrics {
	m := b.common()
	b.perSF(m, s.SquareFeet)
	spaceOccupancy(m, s)
	if _, ok := m["leasedPercent"]; !ok {
		m.rate("leasedPercent", mathutil.DivPtr(leasedArea(l), s.SquareFeet))
	}
	m.rate("waltYears", walt(l))
	if l.TIPerSF != nil || l.LCPerSF != nil {
		m["leasingCostPerSf"] = mathutil.Cents(mathutil.Value(l.TIPerSF, 0) + mathutil.Value(l.LCPerSF, 0))
	}
	return m
}

func medicalOfficeMetrics(b Base, s Space, l Leasing) Metrics {
	m := officeMetrics(b, s, l)
	m.rate("healthSystemShare", mathutil.DivPtr(l.HealthSystemSF, s.SquareFeet))
	return m
}

func lifeScienceMetrics(b Base, s Space, l Leasing, f Facility) Metrics {
	m := officeMetrics(b, s, l)
	m.rate("labShare", mathutil.DivPtr(f.LabSquareFeet, s.SquareFeet))
	return m
}

func retailMetrics(b Base, s Space, l Leasing) Metrics {
	m := b.common()
	b.perSF(m, s.SquareFeet)
	spaceOccupancy(m, s)
	m.rate("waltYears", walt(l))
	m.cents("salesPerSf", mathutil.DivPtr(l.TenantSales, s.SquareFeet))
	m.rate("occupancyCostRatio", mathutil.DivPtr(b.GrossPotentialRent, l.TenantSales))
	m.rate("anchorShare", mathutil.DivPtr(l.AnchorSquareFeet, s.SquareFeet))
	return m
}

func netLeaseMetrics(b Base, s Space, l Leasing) Metrics {
	m := b.common()
	b.perSF(m, s.SquareFeet)
	m.rate("waltYears", walt(l))
	m.rate("rentCoverage", mathutil.DivPtr(l.TenantEBITDAR, b.GrossPotentialRent))
	return m
}

func groundLeaseMetrics(b Base, site Site) Metrics {
	m := b.common()
	m.rate("groundRentYield", mathutil.DivPtr(site.GroundRent, b.PurchasePrice))
	m.rate("landValueRatio", mathutil.DivPtr(b.PurchasePrice, site.LandValue))
	m.rate("groundLeaseYears", site.GroundLeaseYears)
	m.money("pricePerAcre", mathutil.DivPtr(b.PurchasePrice, site.Acres))
	return m
}

func industrialMetrics(b Base, s Space, f Facility) Metrics {
	m := b.common()
	b.perSF(m, s.SquareFeet)
	spaceOccupancy(m, s)
	m.rate("clearHeight", f.ClearHeight)
	if doors := mathutil.DivPtr(f.DockDoors, s.SquareFeet); doors != nil {
		m["dockDoorsPer10kSf"] = mathutil.Rate(*doors * 10000)
	}
	return m
}

func coldStorageMetrics(b Base, s Space, f Facility) Metrics {
	m := industrialMetrics(b, s, f)
	m.money("pricePerPallet", mathutil.DivPtr(b.PurchasePrice, f.PalletPositions))
	m.money("revenuePerPallet", mathutil.DivPtr(b.EffectiveGrossIncome, f.PalletPositions))
	return m
}

func flexMetrics(b Base, s Space, f Facility) Metrics {
	m := industrialMetrics(b, s, f)
	m.rate("officeFinishShare", mathutil.DivPtr(f.OfficeFinishSF, s.SquareFeet))
	return m
}

func selfStorageMetrics(b Base, s Space) Metrics {
	m := b.common()
	b.perSF(m, s.SquareFeet)
	spaceOccupancy(m, s)
	m.rate("economicOccupancy", mathutil.DivPtr(b.EffectiveGrossIncome, b.GrossPotentialRent))
	m.money("pricePerUnit", mathutil.DivPtr(b.PurchasePrice, s.Units))
	return m
}

// hotelMetrics computes RevPAR = ADR x occupancy, GOP = revenue less
// departmental, undistributed and management costs, GOPPAR = GOP / rooms / 365.
func hotelMetrics(b Base, h Hospitality) Metrics {
	m := b.common()
	if h.ADR != nil && h.Occupancy != nil {
		m["revpar"] = mathutil.Cents(*h.ADR * *h.Occupancy)
		m["occupancy"] = mathutil.Rate(*h.Occupancy)
	}
	m.cents("adr", h.ADR)
	m.money("pricePerKey", mathutil.DivPtr(b.PurchasePrice, h.Rooms))

	revenue := h.TotalRevenue
	if revenue == nil {
		revenue = b.EffectiveGrossIncome
	}
	if revenue != nil && (h.DepartmentalExpenses != nil || h.UndistributedExpenses != nil || h.ManagementFees != nil) {
		gop := *revenue - mathutil.Value(h.DepartmentalExpenses, 0) -
			mathutil.Value(h.UndistributedExpenses, 0) - mathutil.Value(h.ManagementFees, 0)
		m["gop"] = mathutil.Dollars(gop)
		m.rate("gopMargin", mathutil.Div(gop, *revenue))
		if perRoom := mathutil.DivPtr(&gop, h.Rooms); perRoom != nil {
			m["goppar"] = mathutil.Cents(*perRoom / constants.DaysPerYear)
		}
	}
	return m
}

func dataCenterMetrics(b Base, p Power) Metrics {
	m := b.common()
	m.rate("pue", mathutil.DivPtr(p.TotalFacilityKW, p.CriticalLoadKW))
	m.money("pricePerKw", mathutil.DivPtr(b.PurchasePrice, p.CriticalLoadKW))
	m.rate("leasedCapacity", mathutil.DivPtr(p.LeasedKW, p.CriticalLoadKW))
	if rev := mathutil.DivPtr(b.EffectiveGrossIncome, p.LeasedKW); rev != nil {
		m["monthlyRevenuePerKw"] = mathutil.Cents(*rev / constants.MonthsPerYear)
	}
	return m
}

func mixedUseMetrics(b Base, s Space, site Site) Metrics {
	m := b.common()
	b.perSF(m, s.SquareFeet)
	total := s.SquareFeet
	if site.ResidentialSF != nil && site.CommercialSF != nil {
		total = mathutil.Ptr(*site.ResidentialSF + *site.CommercialSF)
	}
	m.rate("residentialShare", mathutil.DivPtr(site.ResidentialSF, total))
	m.rate("commercialShare", mathutil.DivPtr(site.CommercialSF, total))
	spaceOccupancy(m, s)
	return m
}

func landMetrics(b Base, site Site) Metrics {
	m := b.common()
	m.money("pricePerAcre", mathutil.DivPtr(b.PurchasePrice, site.Acres))
	m.money("pricePerEntitledUnit", mathutil.DivPtr(b.PurchasePrice, site.EntitledUnits))
	if acres := mathutil.DivPtr(site.EntitledUnits, site.Acres); acres != nil {
		m["unitsPerAcre"] = mathutil.Rate(*acres)
	}
	return m
}

func parkingMetrics(b Base, site Site) Metrics {
	m := b.common()
	b.perUnit(m, "Space", site.Spaces)
	m.money("revenuePerSpace", mathutil.DivPtr(b.EffectiveGrossIncome, site.Spaces))
	return m
}
