package models

import "strings"

// Section identifies one of the fixed dataset categories. Each section owns a
// manifest and a directory convention.
type Section string

const (
	SectionCurrentStatus     Section = "CrSt"
	SectionEconomicStructure Section = "EcSt"
	SectionStateSpace        Section = "StSp"
	SectionProductSpace      Section = "PrSp"
	SectionLatentFactors     Section = "Latent"
)

// Sections lists every section in manifest build order.
var Sections = []Section{
	SectionCurrentStatus,
	SectionEconomicStructure,
	SectionStateSpace,
	SectionProductSpace,
	SectionLatentFactors,
}

// sectionAliases maps lowercased request tokens to their section.
var sectionAliases = map[string]Section{
	"crst":               SectionCurrentStatus,
	"curst":              SectionCurrentStatus,
	"current-status":     SectionCurrentStatus,
	"currentstatus":      SectionCurrentStatus,
	"ecst":               SectionEconomicStructure,
	"economic-structure": SectionEconomicStructure,
	"economicstructure":  SectionEconomicStructure,
	"stsp":               SectionStateSpace,
	"state-space":        SectionStateSpace,
	"statespace":         SectionStateSpace,
	"prsp":               SectionProductSpace,
	"product-space":      SectionProductSpace,
	"productspace":       SectionProductSpace,
	"latent":             SectionLatentFactors,
	"latent-factors":     SectionLatentFactors,
	"latentfactors":      SectionLatentFactors,
}

// ParseSection resolves a request token (abbreviation or long name, any case)
// to a Section.
func ParseSection(token string) (Section, bool) {
	s, ok := sectionAliases[strings.ToLower(strings.TrimSpace(token))]
	return s, ok
}

// IsValid reports whether s is one of the known sections.
func (s Section) IsValid() bool {
	for _, known := range Sections {
		if s == known {
			return true
		}
	}
	return false
}

// ManifestPath is the storage path of the section's manifest document.
func (s Section) ManifestPath() string {
	return "repo/" + string(s) + "/manifest.json"
}

func (s Section) String() string {
	return string(s)
}
