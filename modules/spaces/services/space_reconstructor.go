package services

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/sergiofbsilva/fenixedu-spaces-migration/modules/spaces/domain"
)

// SpaceReconstructor rebuilds the space forest from a flat descriptor list.
// It is not safe for concurrent use; one reconstructor serves one run.
type SpaceReconstructor struct {
	store       domain.Store
	idToBean    map[string]*SpaceDescriptor
	beanToSpace map[*SpaceDescriptor]*domain.Space
	visiting    map[*SpaceDescriptor]struct{}
	journal     []*SpaceDescriptor
}

func NewSpaceReconstructor(store domain.Store) *SpaceReconstructor {
	return &SpaceReconstructor{
		store:       store,
		idToBean:    map[string]*SpaceDescriptor{},
		beanToSpace: map[*SpaceDescriptor]*domain.Space{},
		visiting:    map[*SpaceDescriptor]struct{}{},
	}
}

// Register indexes every descriptor by XID so parents resolve regardless of
// input order. The reconstructor keeps pointers into descs.
func (r *SpaceReconstructor) Register(descs []SpaceDescriptor) {
	for i := range descs {
		r.idToBean[descs[i].ExternalID] = &descs[i]
	}
}

func (r *SpaceReconstructor) Lookup(xid string) (*SpaceDescriptor, bool) {
	d, ok := r.idToBean[xid]
	return d, ok
}

// SpaceFor returns the space created for xid during this run.
func (r *SpaceReconstructor) SpaceFor(xid string) (*domain.Space, bool) {
	d, ok := r.idToBean[xid]
	if !ok {
		return nil, false
	}
	s, ok := r.beanToSpace[d]
	return s, ok
}

func (r *SpaceReconstructor) Created() int {
	return len(r.beanToSpace)
}

// Process returns the space built for desc, creating its ancestors first.
func (r *SpaceReconstructor) Process(ctx context.Context, desc *SpaceDescriptor) (*domain.Space, error) {
	if desc == nil {
		return nil, nil
	}
	if s, ok := r.beanToSpace[desc]; ok {
		return s, nil
	}
	if _, ok := r.visiting[desc]; ok {
		return nil, newMigrationError(KindCyclicSpaceGraph, desc.ExternalID, "space is its own ancestor", nil)
	}
	r.visiting[desc] = struct{}{}
	defer delete(r.visiting, desc)

	var parentDesc *SpaceDescriptor
	if desc.ParentExternalID != nil {
		parentDesc = r.idToBean[*desc.ParentExternalID]
		if parentDesc == nil {
			logWithFields(ctx, logrus.WarnLevel, "parent not in input, space becomes a root", logrus.Fields{
				"xid":    desc.ExternalID,
				"parent": *desc.ParentExternalID,
			})
		}
	}
	parent, err := r.Process(ctx, parentDesc)
	if err != nil {
		return nil, err
	}
	space, err := r.create(ctx, parent, desc)
	if err != nil {
		return nil, err
	}
	r.beanToSpace[desc] = space
	r.journal = append(r.journal, desc)
	return space, nil
}

func (r *SpaceReconstructor) create(ctx context.Context, parent *domain.Space, desc *SpaceDescriptor) (*domain.Space, error) {
	spaceType, err := domain.ParseSpaceType(desc.Type)
	if err != nil {
		return nil, malformed(desc.ExternalID, "%v", err)
	}
	createdOn, err := domain.ParseOptionalDate(desc.CreatedOn)
	if err != nil {
		return nil, malformed(desc.ExternalID, "createdOn: %v", err)
	}
	blueprints, err := parseBlueprints(desc.ExternalID, desc.Blueprints)
	if err != nil {
		return nil, err
	}

	var created domain.Space
	err = r.store.RunInTransaction(ctx, func(ctx context.Context, tx domain.Tx) error {
		space := domain.Space{
			LegacyXID:      desc.ExternalID,
			Type:           spaceType,
			CreatedOn:      createdOn,
			ExamCapacity:   desc.ExamCapacity,
			NormalCapacity: desc.NormalCapacity,
			Informations:   make([]domain.Information, 0, len(desc.Informations)),
			Blueprints:     blueprints,
		}
		if parent != nil {
			space.ParentID = parent.ID
		}
		for _, info := range desc.Informations {
			built, err := buildInformation(tx, desc, spaceType, info, blueprints)
			if err != nil {
				return err
			}
			space.Informations = append(space.Informations, built)
		}
		space.OccupationsAccessGroup = occupationsAccessGroup(tx, desc)
		space.ManagementAccessGroup = managementAccessGroup(ctx, tx, desc)

		s, err := tx.CreateSpace(space)
		if err != nil {
			return errors.Wrapf(err, "create space %s", desc.ExternalID)
		}
		created = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// occupationsAccessGroup is the disjunction of the three legacy occupation
// groups. Nil when none resolves or when the union is nobody.
func occupationsAccessGroup(v domain.View, desc *SpaceDescriptor) *domain.Group {
	refs := []*string{
		desc.OccupationGroup,
		desc.LessonOccupationsAccessGroup,
		desc.WrittenEvaluationOccupationsAccessGroup,
	}
	group := domain.Nobody()
	found := false
	for _, xid := range refs {
		if xid == nil {
			continue
		}
		pg, ok := v.PersistentGroup(*xid)
		if !ok || !pg.Valid() {
			continue
		}
		group = group.Or(pg.ToGroup())
		found = true
	}
	if !found || group.IsNobody() {
		return nil
	}
	return &group
}

func managementAccessGroup(ctx context.Context, v domain.View, desc *SpaceDescriptor) *domain.Group {
	if desc.ManagementSpaceGroup == nil {
		return nil
	}
	pg, ok := v.PersistentGroup(*desc.ManagementSpaceGroup)
	if ok && pg.Valid() {
		g := pg.ToGroup()
		return &g
	}
	err := newMigrationError(KindInvalidGroupReference, desc.ExternalID, "managementSpaceGroup "+*desc.ManagementSpaceGroup, nil)
	logWithFields(ctx, logrus.WarnLevel, "management group dropped", logrus.Fields{
		"xid":   desc.ExternalID,
		"group": *desc.ManagementSpaceGroup,
		"error": err.Error(),
	})
	recordInvalidGroup("managementSpaceGroup")
	return nil
}

// mark returns a position in the creation journal for rollback.
func (r *SpaceReconstructor) mark() int {
	return len(r.journal)
}

// rollback forgets every space created after m. Used when the transaction
// that created them was discarded.
func (r *SpaceReconstructor) rollback(m int) {
	for _, d := range r.journal[m:] {
		delete(r.beanToSpace, d)
	}
	r.journal = r.journal[:m]
}

// createdSince returns the descriptors created after m, in creation order.
func (r *SpaceReconstructor) createdSince(m int) []*SpaceDescriptor {
	out := make([]*SpaceDescriptor, len(r.journal)-m)
	copy(out, r.journal[m:])
	return out
}
