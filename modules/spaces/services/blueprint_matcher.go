package services

import "github.com/sergiofbsilva/fenixedu-spaces-migration/modules/spaces/domain"

// MatchBlueprint returns a copy of the raw content of the first blueprint whose
// validity overlaps interval, or nil when none does.
func MatchBlueprint(interval domain.Interval, blueprints []domain.Blueprint) []byte {
	for _, bp := range blueprints {
		if !bp.Interval().Overlaps(interval) {
			continue
		}
		out := make([]byte, len(bp.Raw))
		copy(out, bp.Raw)
		return out
	}
	return nil
}
