package sector

import (
	"regexp"
	"strings"
)

type rule struct {
	sector  Sector
	pattern *regexp.Regexp
}

func keywords(s Sector, words ...string) rule {
	return rule{sector: s, pattern: regexp.MustCompile(`\b(?:` + strings.Join(words, "|") + `)\b`)}
}

// rules are evaluated in order: lease structures, specific subtypes, broad
// categories, then the residential fallback.
var rules = []rule{
	keywords(GroundLease, `ground[- ]lease(?:d)?`),
	keywords(NetLease, `net[- ]lease(?:d)?`, `nnn`, `triple[- ]net`, `absolute net`),

	keywords(MedicalOffice, `medical office`, `medical building`, `mob`, `outpatient`, `healthcare office`),
	keywords(ColdStorage, `cold storage`, `cold chain`, `refrigerated`, `freezer`),
	keywords(FlexRD, `flex`, `r ?& ?d`, `research and development`),
	keywords(LifeScience, `life sciences?`, `lab(?:s|oratory)?`, `biotech`),
	keywords(StudentHousing, `student`, `purpose[- ]built student`),
	keywords(SeniorHousing, `senior`, `assisted living`, `memory care`, `independent living`, `skilled nursing`, `ccrc`),
	keywords(ManufacturedHousing, `manufactured`, `mobile home`, `mhc`, `rv park`),
	keywords(SingleFamilyRental, `single[- ]family`, `sfr`, `build[- ]to[- ]rent`, `btr`),
	keywords(DataCenter, `data ?cent(?:er|re)s?`, `colocation`, `hyperscale`),
	keywords(SelfStorage, `self[- ]storage`, `mini[- ]storage`),
	keywords(Parking, `parking`, `garage`),
	keywords(MixedUse, `mixed[- ]use`),

	keywords(Hotel, `hotels?`, `hospitality`, `motel`, `resort`, `inn`, `lodging`),
	keywords(Industrial, `industrial`, `warehouse`, `distribution`, `logistics`, `manufacturing`, `fulfillment`),
	keywords(SelfStorage, `storage`),
	keywords(Retail, `retail`, `shopping`, `strip`, `mall`, `grocery`, `power cent(?:er|re)`),
	keywords(Office, `office`, `cbd`),
	keywords(Land, `land`, `lots?`, `development site`, `acreage`),

	keywords(Multifamily, `multi[- ]?family`, `apartments?`, `residential`, `garden`, `mid[- ]rise`, `high[- ]rise`, `duplex`, `fourplex`),
}

// Classify matches the property and asset type descriptions against the
// keyword rules. It returns "" when nothing matches.
func Classify(propertyType, assetType string) Sector {
	text := strings.ToLower(strings.TrimSpace(propertyType + " " + assetType))
	if text == "" {
		return ""
	}
	for _, r := range rules {
		if r.pattern.MatchString(text) {
			return r.sector
		}
	}
	return ""
}
