package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sergiofbsilva/fenixedu-spaces-migration/pkg/intl"
)

// Legacy entities are read by the exporter and the bridge installer. They enter
// the store through state snapshots and are never written by the pipeline.

type LegacyBlueprint struct {
	ValidFrom       time.Time  `json:"valid_from"`
	ValidUntil      *time.Time `json:"valid_until"`
	CreatorUsername *string    `json:"creator_username"`
	Content         []byte     `json:"content"`
}

type LegacySpace struct {
	XID            string     `json:"xid"`
	Type           SpaceType  `json:"type"`
	ParentXID      *string    `json:"parent_xid"`
	CreatedOn      *time.Time `json:"created_on"`
	ExamCapacity   *int       `json:"exam_capacity"`
	NormalCapacity *int       `json:"normal_capacity"`

	OccupationGroupXID                         *string `json:"occupation_group_xid"`
	ManagementGroupXID                         *string `json:"management_group_xid"`
	LessonOccupationsAccessGroupXID            *string `json:"lesson_occupations_access_group_xid"`
	WrittenEvaluationOccupationsAccessGroupXID *string `json:"written_evaluation_occupations_access_group_xid"`

	Blueprints []LegacyBlueprint `json:"blueprints"`
}

// LegacySpaceInformation flattens the per-type information subclasses. Which
// fields are meaningful depends on the type of the owning space.
type LegacySpaceInformation struct {
	XID             string     `json:"xid"`
	SpaceXID        string     `json:"space_xid"`
	Capacity        *int       `json:"capacity"`
	BlueprintNumber *string    `json:"blueprint_number"`
	ValidFrom       time.Time  `json:"valid_from"`
	ValidUntil      *time.Time `json:"valid_until"`
	Emails          *string    `json:"emails"`

	AgeQuality                              *bool            `json:"age_quality,omitempty"`
	Area                                    *decimal.Decimal `json:"area,omitempty"`
	Description                             *string          `json:"description,omitempty"`
	DistanceFromSanitaryInstalationsQuality *bool            `json:"distance_from_sanitary_instalations_quality,omitempty"`
	DoorNumber                              *string          `json:"door_number,omitempty"`
	HeightQuality                           *bool            `json:"height_quality,omitempty"`
	Identification                          *string          `json:"identification,omitempty"`
	IlluminationQuality                     *bool            `json:"illumination_quality,omitempty"`
	Observations                            *string          `json:"observations,omitempty"`
	SecurityQuality                         *bool            `json:"security_quality,omitempty"`
	ClassificationXID                       *string          `json:"classification_xid,omitempty"`

	Name  *string `json:"name,omitempty"`
	Level *int    `json:"level,omitempty"`
}

type LegacyClassification struct {
	XID       string               `json:"xid"`
	Code      int                  `json:"code"`
	Name      intl.LocalizedString `json:"name"`
	ParentXID *string              `json:"parent_xid"`
}

type AllocationKind string

const (
	AllocationLesson            AllocationKind = "LessonSpaceOccupation"
	AllocationLessonInstance    AllocationKind = "LessonInstanceSpaceOccupation"
	AllocationWrittenEvaluation AllocationKind = "WrittenEvaluationSpaceOccupation"
	AllocationGenericEvent      AllocationKind = "GenericEventSpaceOccupation"
	AllocationPerson            AllocationKind = "PersonSpaceOccupation"
	AllocationUnit              AllocationKind = "UnitSpaceOccupation"
)

type GenericEvent struct {
	Title              intl.LocalizedString `json:"title"`
	Description        intl.LocalizedString `json:"description"`
	Frequency          *string              `json:"frequency"`
	BeginDate          *time.Time           `json:"begin_date"`
	EndDate            *time.Time           `json:"end_date"`
	StartTime          TimeOfDay            `json:"start_time"`
	EndTime            TimeOfDay            `json:"end_time"`
	Saturday           *bool                `json:"saturday"`
	Sunday             *bool                `json:"sunday"`
	AssociatedRoomXIDs []string             `json:"associated_room_xids"`
}

// ResourceAllocation is a legacy allocation tagged by Kind.
type ResourceAllocation struct {
	XID         string         `json:"xid"`
	Kind        AllocationKind `json:"kind"`
	ResourceXID *string        `json:"resource_xid"`
	Event       *GenericEvent  `json:"event,omitempty"`
	Intervals   []Interval     `json:"intervals,omitempty"`
}

func (a ResourceAllocation) IsEventSpaceOccupation() bool {
	switch a.Kind {
	case AllocationLesson, AllocationLessonInstance, AllocationWrittenEvaluation, AllocationGenericEvent:
		return true
	}
	return false
}

func (a ResourceAllocation) IsLessonSpaceOccupation() bool {
	return a.Kind == AllocationLesson
}

func (a ResourceAllocation) IsLessonInstanceSpaceOccupation() bool {
	return a.Kind == AllocationLessonInstance
}

func (a ResourceAllocation) IsWrittenEvaluationSpaceOccupation() bool {
	return a.Kind == AllocationWrittenEvaluation
}

func (a ResourceAllocation) IsGenericEventSpaceOccupation() bool {
	return a.Kind == AllocationGenericEvent
}
