package services

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/sergiofbsilva/fenixedu-spaces-migration/modules/spaces/domain"
)

type BridgeResult struct {
	Created    map[domain.BridgeKind]int `json:"created"`
	Existing   int                       `json:"existing"`
	Unresolved int                       `json:"unresolved"`
	Skipped    int                       `json:"skipped"`
}

func (r BridgeResult) Total() int {
	n := 0
	for _, c := range r.Created {
		n += c
	}
	return n
}

type BridgeInstaller struct {
	store     domain.Store
	publisher Publisher
}

func NewBridgeInstaller(store domain.Store, publisher Publisher) *BridgeInstaller {
	return &BridgeInstaller{store: store, publisher: publisherOrNop(publisher)}
}

// Install creates one bridge for every event space occupation that has none,
// in a single write transaction.
func (b *BridgeInstaller) Install(ctx context.Context) (BridgeResult, error) {
	res := BridgeResult{Created: map[domain.BridgeKind]int{}}
	var created []domain.Bridge

	err := b.store.RunInTransaction(ctx, func(_ context.Context, tx domain.Tx) error {
		for _, a := range tx.ResourceAllocations() {
			if !a.IsEventSpaceOccupation() {
				res.Skipped++
				continue
			}
			kind, ok := domain.BridgeKindFor(a)
			if !ok {
				res.Skipped++
				continue
			}
			if _, exists := tx.BridgeForAllocation(a.XID); exists {
				res.Existing++
				continue
			}
			bridge := domain.Bridge{Kind: kind, AllocationXID: a.XID}
			if a.ResourceXID != nil {
				if space, ok := tx.SpaceByLegacyXID(*a.ResourceXID); ok {
					bridge.SpaceID = space.ID
				}
			}
			if bridge.SpaceID == "" {
				res.Unresolved++
			}
			bridge, err := tx.CreateBridge(bridge)
			if err != nil {
				return errors.Wrapf(err, "bridge %s", a.XID)
			}
			created = append(created, bridge)
		}
		return nil
	})
	if err != nil {
		return BridgeResult{Created: map[domain.BridgeKind]int{}}, err
	}

	for _, bridge := range created {
		res.Created[bridge.Kind]++
		bridgesCreated.WithLabelValues(string(bridge.Kind)).Inc()
		b.publisher.Publish(&BridgeCreated{AllocationXID: bridge.AllocationXID, Kind: bridge.Kind, SpaceID: bridge.SpaceID})
	}
	logWithFields(ctx, logrus.InfoLevel, "bridges installed", logrus.Fields{
		"created":    res.Total(),
		"existing":   res.Existing,
		"unresolved": res.Unresolved,
	})
	return res, nil
}
