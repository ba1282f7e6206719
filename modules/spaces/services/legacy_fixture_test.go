package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/sergiofbsilva/fenixedu-spaces-migration/modules/spaces/domain"
	"github.com/sergiofbsilva/fenixedu-spaces-migration/modules/spaces/infrastructure/persistence"
	"github.com/sergiofbsilva/fenixedu-spaces-migration/pkg/intl"
)

func pt(v string) intl.LocalizedString {
	return intl.NewLocalizedString().With(intl.PT, v)
}

func legacySnapshot() persistence.Snapshot {
	area := decimal.RequireFromString("25.75")
	created := day(2005, 3, 1)
	nine, _ := domain.ParseTimeOfDay("09:00:00")
	eleven, _ := domain.ParseTimeOfDay("11:00:00")

	return persistence.Snapshot{
		LegacyClassifications: map[string]domain.LegacyClassification{
			"lc1":  {XID: "lc1", Code: 1, Name: pt("Ensino")},
			"lc2":  {XID: "lc2", Code: 2, Name: pt("Sala de Aula"), ParentXID: strPtr("lc1")},
			"lc3":  {XID: "lc3", Code: 3, Name: pt("Apoio ao Ensino")},
			"lc4":  {XID: "lc4", Code: 6, Name: pt("Outros"), ParentXID: strPtr("lc3")},
			"lc11": {XID: "lc11", Code: 11, Name: pt("Outros Espaços")},
		},
		LegacySpaces: map[string]domain.LegacySpace{
			"s-campus": {XID: "s-campus", Type: domain.SpaceTypeCampus},
			"s-bld":    {XID: "s-bld", Type: domain.SpaceTypeBuilding, ParentXID: strPtr("s-campus"), ManagementGroupXID: strPtr("g-managers")},
			"s-floor":  {XID: "s-floor", Type: domain.SpaceTypeFloor, ParentXID: strPtr("s-bld")},
			"s-room": {
				XID:                "s-room",
				Type:               domain.SpaceTypeRoom,
				ParentXID:          strPtr("s-floor"),
				CreatedOn:          &created,
				ExamCapacity:       intPtr(20),
				NormalCapacity:     intPtr(50),
				OccupationGroupXID: strPtr("g-occupants"),
				Blueprints: []domain.LegacyBlueprint{{
					ValidFrom:       day(2004, 1, 1),
					CreatorUsername: strPtr("ist100"),
					Content:         []byte("%PDF-plan"),
				}},
			},
			"s-sub":   {XID: "s-sub", Type: domain.SpaceTypeRoomSubdivision, ParentXID: strPtr("s-room")},
			"s-empty": {XID: "s-empty", Type: domain.SpaceTypeRoom},
		},
		LegacyInformations: map[string]domain.LegacySpaceInformation{
			"i-campus": {XID: "i-campus", SpaceXID: "s-campus", ValidFrom: day(2000, 1, 1), Name: strPtr("Alameda")},
			"i-bld":    {XID: "i-bld", SpaceXID: "s-bld", ValidFrom: day(2000, 1, 1), Name: strPtr("Torre Norte"), BlueprintNumber: strPtr("TN")},
			"i-floor":  {XID: "i-floor", SpaceXID: "s-floor", ValidFrom: day(2000, 1, 1), Level: intPtr(1)},
			"i-room-old": {
				XID:               "i-room-old",
				SpaceXID:          "s-room",
				Capacity:          intPtr(30),
				ValidFrom:         day(2001, 1, 1),
				ValidUntil:        dayPtr(2006, 1, 1),
				Identification:    strPtr("QA"),
				ClassificationXID: strPtr("lc4"),
			},
			"i-room": {
				XID:               "i-room",
				SpaceXID:          "s-room",
				Capacity:          intPtr(30),
				ValidFrom:         day(2006, 1, 1),
				Emails:            strPtr("qa@example.org"),
				AgeQuality:        boolPtr(true),
				Area:              &area,
				Description:       strPtr("Anfiteatro"),
				DoorNumber:        strPtr("3"),
				Identification:    strPtr("QA"),
				Observations:      strPtr("projector"),
				SecurityQuality:   boolPtr(false),
				ClassificationXID: strPtr("lc2"),
			},
			"i-sub": {XID: "i-sub", SpaceXID: "s-sub", ValidFrom: day(2007, 1, 1), Identification: strPtr("QA.1")},
		},
		Allocations: map[string]domain.ResourceAllocation{
			"a-event": {
				XID:  "a-event",
				Kind: domain.AllocationGenericEvent,
				Event: &domain.GenericEvent{
					Title:              pt("Conferência"),
					Description:        pt("Abertura"),
					Frequency:          strPtr("WEEKLY"),
					BeginDate:          dayPtr(2014, 3, 3),
					EndDate:            dayPtr(2014, 3, 10),
					StartTime:          nine,
					EndTime:            eleven,
					Saturday:           boolPtr(false),
					Sunday:             boolPtr(false),
					AssociatedRoomXIDs: []string{"s-room"},
				},
				Intervals: []domain.Interval{
					{From: day(2014, 3, 3).Add(9 * time.Hour), Until: ptrTime(day(2014, 3, 3).Add(11 * time.Hour))},
					{From: day(2014, 3, 10).Add(9 * time.Hour), Until: ptrTime(day(2014, 3, 10).Add(11 * time.Hour))},
				},
			},
			"a-eventless":  {XID: "a-eventless", Kind: domain.AllocationGenericEvent},
			"a-lesson":     {XID: "a-lesson", Kind: domain.AllocationLesson, ResourceXID: strPtr("s-room")},
			"a-instance":   {XID: "a-instance", Kind: domain.AllocationLessonInstance, ResourceXID: strPtr("s-room")},
			"a-evaluation": {XID: "a-evaluation", Kind: domain.AllocationWrittenEvaluation, ResourceXID: strPtr("s-gone")},
			"a-person":     {XID: "a-person", Kind: domain.AllocationPerson, ResourceXID: strPtr("s-room")},
		},
	}
}

func ptrTime(t time.Time) *time.Time { return &t }

func newLegacyStore(t *testing.T) *persistence.Store {
	t.Helper()
	store := persistence.NewMemoryStore()
	require.NoError(t, store.ImportState(context.Background(), legacySnapshot()))
	return store
}
