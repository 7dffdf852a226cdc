package domain

import (
	"fmt"
	"slices"
	"strings"
)

// FeatureType names what a feature modifies.
type FeatureType string

const (
	FeatureAttributeBonus FeatureType = "attribute_bonus"
	FeatureSkillBonus     FeatureType = "skill_bonus"
	FeatureDRBonus        FeatureType = "dr_bonus"
	FeatureCostReduction  FeatureType = "cost_reduction"
)

var validFeatureTypes = []FeatureType{
	FeatureAttributeBonus,
	FeatureSkillBonus,
	FeatureDRBonus,
	FeatureCostReduction,
}

// Feature is a bonus or modifier an entry grants.
type Feature struct {
	Type   FeatureType `json:"type"`
	Target string      `json:"target"`
	Amount int         `json:"amount"`
}

// Valid reports whether the feature type is known.
func (f Feature) Valid() bool {
	return slices.Contains(validFeatureTypes, f.Type)
}

// String renders the feature for listings, e.g. "skill_bonus stealth +2".
func (f Feature) String() string {
	if f.Target == "" {
		return fmt.Sprintf("%s %+d", f.Type, f.Amount)
	}
	return fmt.Sprintf("%s %s %+d", f.Type, f.Target, f.Amount)
}

// NormalizeFeatures trims targets and splits features into known and unknown
// types. Unknown features are returned separately so callers can report them.
func NormalizeFeatures(in []Feature) (kept, skipped []Feature) {
	for _, f := range in {
		f.Type = FeatureType(strings.ToLower(strings.TrimSpace(string(f.Type))))
		f.Target = strings.TrimSpace(f.Target)
		if !f.Valid() {
			skipped = append(skipped, f)
			continue
		}
		kept = append(kept, f)
	}
	return kept, skipped
}
