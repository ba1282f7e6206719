package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sergiofbsilva/fenixedu-spaces-migration/modules/spaces/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dayPtr(y int, m time.Month, d int) *time.Time {
	t := day(y, m, d)
	return &t
}

func TestMatchBlueprint(t *testing.T) {
	plan := domain.Blueprint{ValidFrom: day(2010, 1, 1), ValidUntil: dayPtr(2015, 1, 1), Raw: []byte("plan")}
	old := domain.Blueprint{ValidFrom: day(2000, 1, 1), ValidUntil: dayPtr(2005, 1, 1), Raw: []byte("old")}
	current := domain.Blueprint{ValidFrom: day(2014, 1, 1), Raw: []byte("current")}

	cases := []struct {
		name       string
		info       domain.Interval
		blueprints []domain.Blueprint
		want       []byte
	}{
		{
			name:       "contained",
			info:       domain.Interval{From: day(2012, 6, 1), Until: dayPtr(2013, 6, 1)},
			blueprints: []domain.Blueprint{old, plan},
			want:       []byte("plan"),
		},
		{
			name:       "first overlap wins",
			info:       domain.Interval{From: day(2014, 6, 1)},
			blueprints: []domain.Blueprint{plan, current},
			want:       []byte("plan"),
		},
		{
			name:       "touching intervals do not overlap",
			info:       domain.Interval{From: day(2005, 1, 1), Until: dayPtr(2010, 1, 1)},
			blueprints: []domain.Blueprint{old, plan},
			want:       nil,
		},
		{
			name:       "open ended information",
			info:       domain.Interval{From: day(2020, 1, 1)},
			blueprints: []domain.Blueprint{old, plan, current},
			want:       []byte("current"),
		},
		{
			name: "no blueprints",
			info: domain.Interval{From: day(2020, 1, 1)},
			want: nil,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, MatchBlueprint(tc.info, tc.blueprints))
		})
	}
}

func TestMatchBlueprint_ReturnsCopy(t *testing.T) {
	bp := domain.Blueprint{ValidFrom: day(2010, 1, 1), Raw: []byte("plan")}
	got := MatchBlueprint(domain.Interval{From: day(2011, 1, 1)}, []domain.Blueprint{bp})
	got[0] = 'X'
	require.Equal(t, []byte("plan"), bp.Raw)
}
