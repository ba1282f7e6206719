package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/sergiofbsilva/fenixedu-spaces-migration/modules/spaces/domain"
	"github.com/sergiofbsilva/fenixedu-spaces-migration/modules/spaces/infrastructure/persistence"
)

func processAll(t *testing.T, r *SpaceReconstructor, descs []SpaceDescriptor) {
	t.Helper()
	r.Register(descs)
	for i := range descs {
		d, _ := r.Lookup(descs[i].ExternalID)
		if _, err := r.Process(context.Background(), d); err != nil {
			t.Fatalf("process %s: %v", descs[i].ExternalID, err)
		}
	}
}

func TestProcess_ParentAfterChild(t *testing.T) {
	store := newImportedStore(t)
	r := NewSpaceReconstructor(store)
	processAll(t, r, []SpaceDescriptor{
		roomDescriptor("B", strPtr("A"), nil),
		typedDescriptor("A", nil, "Building", "Torre Norte"),
	})

	a, ok := r.SpaceFor("A")
	require.True(t, ok)
	b, ok := r.SpaceFor("B")
	require.True(t, ok)
	require.Equal(t, a.ID, b.ParentID)
	require.True(t, a.IsRoot())
	require.Equal(t, 2, r.Created())

	require.NoError(t, store.View(context.Background(), func(v domain.View) error {
		stored, ok := v.SpaceByLegacyXID("B")
		require.True(t, ok)
		parent, ok := v.Space(stored.ParentID)
		require.True(t, ok)
		require.Equal(t, "A", parent.LegacyXID)
		return nil
	}))
}

func TestProcess_IsMemoized(t *testing.T) {
	store := newImportedStore(t)
	r := NewSpaceReconstructor(store)
	descs := []SpaceDescriptor{roomDescriptor("A", nil, nil)}
	r.Register(descs)

	first, err := r.Process(context.Background(), &descs[0])
	require.NoError(t, err)
	second, err := r.Process(context.Background(), &descs[0])
	require.NoError(t, err)
	require.Same(t, first, second)

	nilSpace, err := r.Process(context.Background(), nil)
	require.NoError(t, err)
	require.Nil(t, nilSpace)
}

func TestProcess_ClassificationResolution(t *testing.T) {
	cases := []struct {
		name string
		code *string
		want string
	}{
		{name: "missing code", code: nil, want: "3.6"},
		{name: "empty code", code: strPtr(""), want: "3.6"},
		{name: "leading zeros", code: strPtr("03.06"), want: "3.6"},
		{name: "plain code", code: strPtr("1.2"), want: "1.2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newImportedStore(t)
			r := NewSpaceReconstructor(store)
			processAll(t, r, []SpaceDescriptor{roomDescriptor("R", nil, tc.code)})
			space, _ := r.SpaceFor("R")
			require.NoError(t, store.View(context.Background(), func(v domain.View) error {
				c, ok := v.Classification(space.Informations[0].ClassificationID)
				require.True(t, ok)
				require.Equal(t, tc.want, c.AbsoluteCode)
				return nil
			}))
		})
	}
}

func TestProcess_TypeClassification(t *testing.T) {
	store := newImportedStore(t)
	r := NewSpaceReconstructor(store)
	processAll(t, r, []SpaceDescriptor{typedDescriptor("F", nil, "Floor", "2")})
	space, _ := r.SpaceFor("F")
	info := space.Informations[0]
	require.Equal(t, "2", info.Name)
	level, ok := info.MetadataValue(MetaLevel)
	require.True(t, ok)
	require.Equal(t, "2", level)
	require.NoError(t, store.View(context.Background(), func(v domain.View) error {
		c, _ := v.Classification(info.ClassificationID)
		require.Equal(t, "11.6", c.AbsoluteCode)
		return nil
	}))
}

func TestProcess_UnknownClassification(t *testing.T) {
	store := newImportedStore(t)
	r := NewSpaceReconstructor(store)
	descs := []SpaceDescriptor{roomDescriptor("R", nil, strPtr("9.9"))}
	r.Register(descs)

	_, err := r.Process(context.Background(), &descs[0])
	require.ErrorIs(t, err, ErrUnknownClassification)
	require.Equal(t, "R", XIDOf(err))
	require.Contains(t, err.Error(), "code doesnt exist: 9.9")
	require.Zero(t, r.Created())
}

func TestProcess_Cycle(t *testing.T) {
	store := newImportedStore(t)
	r := NewSpaceReconstructor(store)
	descs := []SpaceDescriptor{
		roomDescriptor("A", strPtr("B"), nil),
		roomDescriptor("B", strPtr("A"), nil),
	}
	r.Register(descs)

	_, err := r.Process(context.Background(), &descs[0])
	require.ErrorIs(t, err, ErrCyclicSpaceGraph)
	require.Zero(t, r.Created())
	require.Empty(t, r.visiting)
}

func TestProcess_DanglingParentBecomesRoot(t *testing.T) {
	store := newImportedStore(t)
	r := NewSpaceReconstructor(store)
	processAll(t, r, []SpaceDescriptor{roomDescriptor("A", strPtr("gone"), nil)})
	a, _ := r.SpaceFor("A")
	require.True(t, a.IsRoot())
}

func TestProcess_InformationFields(t *testing.T) {
	store := newImportedStore(t)
	r := NewSpaceReconstructor(store)

	area := decimal.RequireFromString("42.5")
	desc := roomDescriptor("R", nil, strPtr("1.1"))
	desc.ExamCapacity = intPtr(20)
	desc.NormalCapacity = intPtr(40)
	desc.Informations[0].Area = &area
	desc.Informations[0].ValidUntil = strPtr("31/12/2012")
	desc.Informations[0].AgeQuality = boolPtr(true)
	desc.Informations[0].SecurityQuality = boolPtr(false)
	desc.Informations[0].DoorNumber = strPtr("12A")
	processAll(t, r, []SpaceDescriptor{desc})

	space, _ := r.SpaceFor("R")
	info := space.Informations[0]
	require.Equal(t, 40, *info.Capacity)
	require.True(t, area.Equal(*info.Area))
	require.Equal(t, "01/01/2010", domain.FormatDate(info.ValidFrom))
	require.Equal(t, "31/12/2012", domain.FormatDate(*info.ValidUntil))
	require.Equal(t, "R-R", *info.Identification)

	want := map[string]string{
		MetaAgeQuality:          "true",
		MetaSecurityQuality:     "false",
		MetaHeightQuality:       "false",
		MetaIlluminationQuality: "false",
		MetaDoorNumber:          "12A",
		MetaExamCapacity:        "20",

		MetaDistanceFromSanitaryInstalationsQuality: "false",
	}
	for key, value := range want {
		got, ok := info.MetadataValue(key)
		require.True(t, ok, key)
		require.Equal(t, value, got, key)
	}
	require.Len(t, info.Metadata, len(want))
}

func TestProcess_BlueprintAttached(t *testing.T) {
	store := newImportedStore(t)
	r := NewSpaceReconstructor(store)

	desc := roomDescriptor("R", nil, nil)
	desc.Informations[0].ValidFrom = "01/06/2012"
	desc.Informations[0].ValidUntil = strPtr("01/06/2013")
	desc.Blueprints = []BlueprintDescriptor{
		{ValidFrom: "01/01/2000", ValidUntil: strPtr("01/01/2005"), Raw: []byte("old")},
		{ValidFrom: "01/01/2010", ValidUntil: strPtr("01/01/2015"), CreationPerson: strPtr("ist1"), Raw: []byte("plan")},
	}
	processAll(t, r, []SpaceDescriptor{desc})

	space, _ := r.SpaceFor("R")
	require.Equal(t, []byte("plan"), space.Informations[0].RawBlueprint)
	require.Len(t, space.Blueprints, 2)
}

func TestProcess_AccessGroups(t *testing.T) {
	ctx := context.Background()
	store := persistence.NewMemoryStore()
	require.NoError(t, store.ImportState(ctx, persistence.Snapshot{Groups: map[string]domain.PersistentGroup{
		"g1":      {XID: "g1", Kind: domain.GroupKindCustom},
		"g2":      {XID: "g2", Kind: domain.GroupKindCustom},
		"nobody":  {XID: "nobody", Kind: domain.GroupKindNobody},
		"deleted": {XID: "deleted", Kind: domain.GroupKindCustom, Deleted: true},
	}}))
	_, err := NewClassificationImporter(store, nil, nil).Import(ctx, classificationForest())
	require.NoError(t, err)

	union := roomDescriptor("union", nil, nil)
	union.OccupationGroup = strPtr("g2")
	union.LessonOccupationsAccessGroup = strPtr("g1")
	union.WrittenEvaluationOccupationsAccessGroup = strPtr("missing")
	union.ManagementSpaceGroup = strPtr("g1")

	absent := roomDescriptor("absent", nil, nil)

	nobody := roomDescriptor("nobody", nil, nil)
	nobody.OccupationGroup = strPtr("nobody")
	nobody.ManagementSpaceGroup = strPtr("deleted")

	r := NewSpaceReconstructor(store)
	processAll(t, r, []SpaceDescriptor{union, absent, nobody})

	s, _ := r.SpaceFor("union")
	require.NotNil(t, s.OccupationsAccessGroup)
	require.Equal(t, []string{"g1", "g2"}, s.OccupationsAccessGroup.Members)
	require.NotNil(t, s.ManagementAccessGroup)
	require.Equal(t, "g1", s.ManagementAccessGroup.Expression())

	s, _ = r.SpaceFor("absent")
	require.Nil(t, s.OccupationsAccessGroup)
	require.Nil(t, s.ManagementAccessGroup)

	s, _ = r.SpaceFor("nobody")
	require.Nil(t, s.OccupationsAccessGroup)
	require.Nil(t, s.ManagementAccessGroup)
}
