package services

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/sergiofbsilva/fenixedu-spaces-migration/modules/spaces/domain"
)

type OccupationResult struct {
	Created          int `json:"created"`
	UnresolvedSpaces int `json:"unresolved_spaces"`
	WithoutSpaces    int `json:"without_spaces"`
}

type OccupationImporter struct {
	store         domain.Store
	reconstructor *SpaceReconstructor
	publisher     Publisher
}

func NewOccupationImporter(store domain.Store, reconstructor *SpaceReconstructor, publisher Publisher) *OccupationImporter {
	return &OccupationImporter{store: store, reconstructor: reconstructor, publisher: publisherOrNop(publisher)}
}

// Import creates one occupation per descriptor in a single write transaction.
// Space references that did not produce a space in this run are skipped.
func (i *OccupationImporter) Import(ctx context.Context, descs []OccupationDescriptor) (OccupationResult, error) {
	var res OccupationResult
	var created []domain.Occupation

	err := i.store.RunInTransaction(ctx, func(_ context.Context, tx domain.Tx) error {
		for n, d := range descs {
			intervals, err := parseIntervals(d.Intervals)
			if err != nil {
				return malformed("", "occupations[%d].intervals: %v", n, err)
			}
			config, err := domain.NewExplicitConfig(intervals)
			if err != nil {
				return malformed("", "occupations[%d]: %v", n, err)
			}
			occ := domain.Occupation{Title: d.Title, Description: d.Description, Config: config}
			for _, xid := range d.Spaces {
				space, ok := i.reconstructor.SpaceFor(xid)
				if !ok {
					res.UnresolvedSpaces++
					logWithFields(ctx, logrus.DebugLevel, "occupation space not migrated", logrus.Fields{"xid": xid, "title": d.Title})
					continue
				}
				occ.AddSpace(space.ID)
			}
			if len(occ.SpaceIDs) == 0 {
				res.WithoutSpaces++
			}
			o, err := tx.CreateOccupation(occ)
			if err != nil {
				return errors.Wrapf(err, "create occupation %q", d.Title)
			}
			created = append(created, o)
		}
		return nil
	})
	if err != nil {
		return OccupationResult{}, err
	}

	res.Created = len(created)
	occupationsCreated.Add(float64(res.Created))
	for _, o := range created {
		i.publisher.Publish(&OccupationCreated{OccupationID: o.ID, Spaces: len(o.SpaceIDs)})
	}
	logWithFields(ctx, logrus.InfoLevel, "occupations imported", logrus.Fields{
		"created":    res.Created,
		"unresolved": res.UnresolvedSpaces,
	})
	return res, nil
}
