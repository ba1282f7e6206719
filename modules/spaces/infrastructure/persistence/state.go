package persistence

import (
	"github.com/sergiofbsilva/fenixedu-spaces-migration/modules/spaces/domain"
)

const (
	BucketClassifications       = "classifications"
	BucketSpaces                = "spaces"
	BucketOccupations           = "occupations"
	BucketBridges               = "bridges"
	BucketGroups                = "groups"
	BucketLegacySpaces          = "legacy_spaces"
	BucketLegacyInformations    = "legacy_informations"
	BucketLegacyClassifications = "legacy_classifications"
	BucketAllocations           = "allocations"
)

// Buckets lists every bucket in persistence order.
var Buckets = []string{
	BucketClassifications,
	BucketSpaces,
	BucketOccupations,
	BucketBridges,
	BucketGroups,
	BucketLegacySpaces,
	BucketLegacyInformations,
	BucketLegacyClassifications,
	BucketAllocations,
}

// Snapshot is the serializable form of the whole store.
type Snapshot struct {
	Classifications       map[string]domain.Classification         `json:"classifications"`
	Spaces                map[string]domain.Space                  `json:"spaces"`
	Occupations           map[string]domain.Occupation             `json:"occupations"`
	Bridges               map[string]domain.Bridge                 `json:"bridges"`
	Groups                map[string]domain.PersistentGroup        `json:"groups"`
	LegacySpaces          map[string]domain.LegacySpace            `json:"legacy_spaces"`
	LegacyInformations    map[string]domain.LegacySpaceInformation `json:"legacy_informations"`
	LegacyClassifications map[string]domain.LegacyClassification   `json:"legacy_classifications"`
	Allocations           map[string]domain.ResourceAllocation     `json:"allocations"`
}

func newSnapshot() Snapshot {
	return Snapshot{
		Classifications:       map[string]domain.Classification{},
		Spaces:                map[string]domain.Space{},
		Occupations:           map[string]domain.Occupation{},
		Bridges:               map[string]domain.Bridge{},
		Groups:                map[string]domain.PersistentGroup{},
		LegacySpaces:          map[string]domain.LegacySpace{},
		LegacyInformations:    map[string]domain.LegacySpaceInformation{},
		LegacyClassifications: map[string]domain.LegacyClassification{},
		Allocations:           map[string]domain.ResourceAllocation{},
	}
}

// normalize replaces nil maps so a partially filled snapshot file loads cleanly.
func (s Snapshot) normalize() Snapshot {
	if s.Classifications == nil {
		s.Classifications = map[string]domain.Classification{}
	}
	if s.Spaces == nil {
		s.Spaces = map[string]domain.Space{}
	}
	if s.Occupations == nil {
		s.Occupations = map[string]domain.Occupation{}
	}
	if s.Bridges == nil {
		s.Bridges = map[string]domain.Bridge{}
	}
	if s.Groups == nil {
		s.Groups = map[string]domain.PersistentGroup{}
	}
	if s.LegacySpaces == nil {
		s.LegacySpaces = map[string]domain.LegacySpace{}
	}
	if s.LegacyInformations == nil {
		s.LegacyInformations = map[string]domain.LegacySpaceInformation{}
	}
	if s.LegacyClassifications == nil {
		s.LegacyClassifications = map[string]domain.LegacyClassification{}
	}
	if s.Allocations == nil {
		s.Allocations = map[string]domain.ResourceAllocation{}
	}
	return s
}

func (s Snapshot) clone() Snapshot {
	return Snapshot{
		Classifications:       cloneMap(s.Classifications),
		Spaces:                cloneMap(s.Spaces),
		Occupations:           cloneMap(s.Occupations),
		Bridges:               cloneMap(s.Bridges),
		Groups:                cloneMap(s.Groups),
		LegacySpaces:          cloneMap(s.LegacySpaces),
		LegacyInformations:    cloneMap(s.LegacyInformations),
		LegacyClassifications: cloneMap(s.LegacyClassifications),
		Allocations:           cloneMap(s.Allocations),
	}
}

// bucket returns the map stored under name, for marshalling.
func (s Snapshot) bucket(name string) any {
	switch name {
	case BucketClassifications:
		return s.Classifications
	case BucketSpaces:
		return s.Spaces
	case BucketOccupations:
		return s.Occupations
	case BucketBridges:
		return s.Bridges
	case BucketGroups:
		return s.Groups
	case BucketLegacySpaces:
		return s.LegacySpaces
	case BucketLegacyInformations:
		return s.LegacyInformations
	case BucketLegacyClassifications:
		return s.LegacyClassifications
	case BucketAllocations:
		return s.Allocations
	}
	return nil
}

// bucketTarget returns a pointer to the map stored under name, for unmarshalling.
func (s *Snapshot) bucketTarget(name string) any {
	switch name {
	case BucketClassifications:
		return &s.Classifications
	case BucketSpaces:
		return &s.Spaces
	case BucketOccupations:
		return &s.Occupations
	case BucketBridges:
		return &s.Bridges
	case BucketGroups:
		return &s.Groups
	case BucketLegacySpaces:
		return &s.LegacySpaces
	case BucketLegacyInformations:
		return &s.LegacyInformations
	case BucketLegacyClassifications:
		return &s.LegacyClassifications
	case BucketAllocations:
		return &s.Allocations
	}
	return nil
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
