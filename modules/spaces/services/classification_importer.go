package services

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/sergiofbsilva/fenixedu-spaces-migration/modules/spaces/domain"
	"github.com/sergiofbsilva/fenixedu-spaces-migration/pkg/intl"
)

// OtherSpacesCode is the root that receives the synthetic type classifications.
const OtherSpacesCode = "11"

type typeClassification struct {
	code      string
	spaceType domain.SpaceType
	pt        string
	en        string
}

var typeClassifications = []typeClassification{
	{code: "3", spaceType: domain.SpaceTypeCampus, pt: "Campus", en: "Campus"},
	{code: "4", spaceType: domain.SpaceTypeRoomSubdivision, pt: "Subdivisão de Sala", en: "Room Subdivision"},
	{code: "5", spaceType: domain.SpaceTypeBuilding, pt: "Edifício", en: "Building"},
	{code: "6", spaceType: domain.SpaceTypeFloor, pt: "Piso", en: "Floor"},
}

// TypeClassificationCode maps a non-room space type to its synthetic classification.
func TypeClassificationCode(t domain.SpaceType) (string, bool) {
	for _, tc := range typeClassifications {
		if tc.spaceType == t {
			return domain.JoinCode(OtherSpacesCode, tc.code), true
		}
	}
	return "", false
}

func isTypeClassification(c domain.Classification) bool {
	for _, tc := range typeClassifications {
		if c.AbsoluteCode == domain.JoinCode(OtherSpacesCode, tc.code) {
			_, hasEN := c.Name.Content(intl.EN)
			return hasEN
		}
	}
	return false
}

type ClassificationResult struct {
	Skipped bool
	Created int
	Total   int
}

type ClassificationImporter struct {
	store     domain.Store
	specs     MetadataSpecCatalog
	publisher Publisher
}

func NewClassificationImporter(store domain.Store, specs MetadataSpecCatalog, publisher Publisher) *ClassificationImporter {
	if specs == nil {
		specs = DefaultMetadataSpecs()
	}
	return &ClassificationImporter{store: store, specs: specs, publisher: publisherOrNop(publisher)}
}

// Import materializes the classification forest unless the store already has
// root classifications.
func (i *ClassificationImporter) Import(ctx context.Context, nodes []ClassificationNode) (ClassificationResult, error) {
	var res ClassificationResult
	if err := i.store.View(ctx, func(v domain.View) error {
		res.Skipped = len(v.RootClassifications()) > 0
		return nil
	}); err != nil {
		return res, err
	}

	if res.Skipped {
		logWithFields(ctx, logrus.InfoLevel, "classifications already imported", logrus.Fields{})
	} else {
		logWithFields(ctx, logrus.InfoLevel, "No classifications, import classifications", logrus.Fields{"roots": len(nodes)})
		err := i.store.RunInTransaction(ctx, func(_ context.Context, tx domain.Tx) error {
			created := 0
			for _, node := range nodes {
				n, err := i.createNode(tx, "", node)
				if err != nil {
					return err
				}
				created += n
			}
			room := i.specs.For(string(domain.SpaceTypeRoom))
			for _, c := range tx.Classifications() {
				if _, err := tx.SetMetadataSpecs(c.ID, room); err != nil {
					return err
				}
			}
			n, err := i.createTypeClassifications(tx)
			if err != nil {
				return err
			}
			res.Created = created + n
			return nil
		})
		if err != nil {
			res.Created = 0
			return res, err
		}
		classificationsCreated.Add(float64(res.Created))
	}

	i.publisher.Publish(&ClassificationsImported{Created: res.Created, Skipped: res.Skipped})
	return res, i.store.View(ctx, func(v domain.View) error {
		all := v.Classifications()
		res.Total = len(all)
		for _, c := range all {
			logWithFields(ctx, logrus.InfoLevel, "code "+c.AbsoluteCode+" name "+c.Name.JSON(), logrus.Fields{
				"absolute_code": c.AbsoluteCode,
			})
		}
		return nil
	})
}

func (i *ClassificationImporter) createNode(tx domain.Tx, parentID string, node ClassificationNode) (int, error) {
	c, err := tx.CreateClassification(domain.Classification{
		Code:     strconv.Itoa(node.Code),
		Name:     intl.NewLocalizedString().With(intl.PT, node.Name),
		ParentID: parentID,
	})
	if err != nil {
		return 0, newMigrationError(KindMalformedInput, "", "classification "+strconv.Itoa(node.Code), err)
	}
	created := 1
	for _, child := range node.Childs {
		n, err := i.createNode(tx, c.ID, child)
		if err != nil {
			return 0, err
		}
		created += n
	}
	return created, nil
}

func (i *ClassificationImporter) createTypeClassifications(tx domain.Tx) (int, error) {
	other, ok := tx.ClassificationByAbsoluteCode(OtherSpacesCode)
	if !ok {
		return 0, newMigrationError(KindClassificationRootMissing, "", "can't find other spaces", nil)
	}
	for _, tc := range typeClassifications {
		_, err := tx.CreateClassification(domain.Classification{
			Code:          tc.code,
			Name:          intl.NewLocalizedString().With(intl.PT, tc.pt).With(intl.EN, tc.en),
			ParentID:      other.ID,
			MetadataSpecs: i.specs.For(string(tc.spaceType)),
		})
		if err != nil {
			return 0, errors.Wrapf(err, "create %s classification", tc.spaceType)
		}
	}
	return len(typeClassifications), nil
}
