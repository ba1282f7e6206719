package domain

type BridgeKind string

const (
	BridgeLessonInstance    BridgeKind = "LessonInstanceOccupationBridge"
	BridgeLesson            BridgeKind = "LessonOccupationBridge"
	BridgeWrittenEvaluation BridgeKind = "WrittenEvaluationOccupationBridge"
)

// Bridge joins a legacy event space occupation to the migrated space it occupies.
type Bridge struct {
	ID            string     `json:"id"`
	Kind          BridgeKind `json:"kind"`
	AllocationXID string     `json:"allocation_xid"`
	SpaceID       string     `json:"space_id,omitempty"`
}

// BridgeKindFor returns the bridge type of an allocation, false for generic
// events and non-event allocations.
func BridgeKindFor(a ResourceAllocation) (BridgeKind, bool) {
	if !a.IsEventSpaceOccupation() {
		return "", false
	}
	switch {
	case a.IsLessonInstanceSpaceOccupation():
		return BridgeLessonInstance, true
	case a.IsLessonSpaceOccupation():
		return BridgeLesson, true
	case a.IsWrittenEvaluationSpaceOccupation():
		return BridgeWrittenEvaluation, true
	}
	return "", false
}
