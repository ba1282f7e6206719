package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type SpaceType string

const (
	SpaceTypeRoom            SpaceType = "Room"
	SpaceTypeCampus          SpaceType = "Campus"
	SpaceTypeRoomSubdivision SpaceType = "RoomSubdivision"
	SpaceTypeBuilding        SpaceType = "Building"
	SpaceTypeFloor           SpaceType = "Floor"
)

var SpaceTypes = []SpaceType{
	SpaceTypeRoom,
	SpaceTypeCampus,
	SpaceTypeRoomSubdivision,
	SpaceTypeBuilding,
	SpaceTypeFloor,
}

func ParseSpaceType(v string) (SpaceType, error) {
	for _, t := range SpaceTypes {
		if string(t) == v {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown space type %q", v)
}

// Information is a time-bounded record of a space's attributes.
type Information struct {
	Capacity         *int               `json:"capacity"`
	BlueprintNumber  *string            `json:"blueprint_number"`
	ValidFrom        time.Time          `json:"valid_from"`
	ValidUntil       *time.Time         `json:"valid_until"`
	Area             *decimal.Decimal   `json:"area"`
	Identification   *string            `json:"identification"`
	Name             string             `json:"name"`
	ClassificationID string             `json:"classification_id"`
	Metadata         map[string]*string `json:"metadata"`
	RawBlueprint     []byte             `json:"raw_blueprint"`

	Emails       *string `json:"emails,omitempty"`
	Description  *string `json:"description,omitempty"`
	Observations *string `json:"observations,omitempty"`
}

func (i Information) Interval() Interval {
	return Interval{From: i.ValidFrom, Until: i.ValidUntil}
}

func (i Information) MetadataValue(key string) (string, bool) {
	v, ok := i.Metadata[key]
	if !ok || v == nil {
		return "", false
	}
	return *v, true
}

// Blueprint is a time-bounded floor plan attached to a space.
type Blueprint struct {
	ValidFrom  time.Time  `json:"valid_from"`
	ValidUntil *time.Time `json:"valid_until"`
	Raw        []byte     `json:"raw"`
}

func (b Blueprint) Interval() Interval {
	return Interval{From: b.ValidFrom, Until: b.ValidUntil}
}

// Space is a node of the migrated space tree. LegacyXID keeps the identity of the
// legacy object it was built from.
type Space struct {
	ID             string        `json:"id"`
	LegacyXID      string        `json:"legacy_xid"`
	ParentID       string        `json:"parent_id,omitempty"`
	Type           SpaceType     `json:"type"`
	CreatedOn      *time.Time    `json:"created_on"`
	ExamCapacity   *int          `json:"exam_capacity"`
	NormalCapacity *int          `json:"normal_capacity"`
	Informations   []Information `json:"informations"`
	Blueprints     []Blueprint   `json:"blueprints"`

	OccupationsAccessGroup *Group `json:"occupations_access_group"`
	ManagementAccessGroup  *Group `json:"management_access_group"`
}

func (s Space) IsRoot() bool {
	return s.ParentID == ""
}
