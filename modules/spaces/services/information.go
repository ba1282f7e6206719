package services

import (
	"strconv"
	"strings"

	"github.com/sergiofbsilva/fenixedu-spaces-migration/modules/spaces/domain"
)

// Metadata keys written on imported informations. ageQualitity is the wire
// spelling of the target model.
const (
	MetaAgeQuality                              = "ageQualitity"
	MetaHeightQuality                           = "heightQuality"
	MetaIlluminationQuality                     = "illuminationQuality"
	MetaSecurityQuality                         = "securityQuality"
	MetaDistanceFromSanitaryInstalationsQuality = "distanceFromSanitaryInstalationsQuality"
	MetaDoorNumber                              = "doorNumber"
	MetaExamCapacity                            = "examCapacity"
	MetaLevel                                   = "level"
)

// DefaultRoomClassification is "Apoio ao Ensino - Outros".
const DefaultRoomClassification = "3.6"

func boolString(v *bool) *string {
	s := "false"
	if v != nil && *v {
		s = "true"
	}
	return &s
}

func intString(v *int) *string {
	if v == nil {
		return nil
	}
	s := strconv.Itoa(*v)
	return &s
}

// classificationCodeFor returns the absolute code an information of the given
// space type is classified under.
func classificationCodeFor(t domain.SpaceType, info InformationDescriptor) string {
	if t != domain.SpaceTypeRoom {
		code, _ := TypeClassificationCode(t)
		return code
	}
	if info.ClassificationCode == nil || strings.TrimSpace(*info.ClassificationCode) == "" {
		return DefaultRoomClassification
	}
	return domain.NormalizeCode(*info.ClassificationCode)
}

func resolveClassification(v domain.View, xid string, t domain.SpaceType, info InformationDescriptor) (domain.Classification, error) {
	code := classificationCodeFor(t, info)
	c, ok := v.ClassificationByAbsoluteCode(code)
	if !ok {
		return domain.Classification{}, newMigrationError(KindUnknownClassification, xid, "code doesnt exist: "+code, nil)
	}
	return c, nil
}

func informationMetadata(t domain.SpaceType, desc *SpaceDescriptor, info InformationDescriptor) map[string]*string {
	meta := map[string]*string{
		MetaExamCapacity: intString(desc.ExamCapacity),
	}
	switch t {
	case domain.SpaceTypeRoom:
		meta[MetaAgeQuality] = boolString(info.AgeQuality)
		meta[MetaHeightQuality] = boolString(info.HeightQuality)
		meta[MetaIlluminationQuality] = boolString(info.IlluminationQuality)
		meta[MetaSecurityQuality] = boolString(info.SecurityQuality)
		meta[MetaDistanceFromSanitaryInstalationsQuality] = boolString(info.DistanceFromSanitaryInstalationsQuality)
		meta[MetaDoorNumber] = info.DoorNumber
	case domain.SpaceTypeFloor:
		if info.Name != nil {
			if level, err := strconv.Atoi(strings.TrimSpace(*info.Name)); err == nil {
				meta[MetaLevel] = intString(&level)
			}
		}
	}
	return meta
}

func parseBlueprints(xid string, in []BlueprintDescriptor) ([]domain.Blueprint, error) {
	out := make([]domain.Blueprint, 0, len(in))
	for i, d := range in {
		from, err := domain.ParseDate(d.ValidFrom)
		if err != nil {
			return nil, malformed(xid, "blueprints[%d].validFrom: %v", i, err)
		}
		until, err := domain.ParseOptionalDate(d.ValidUntil)
		if err != nil {
			return nil, malformed(xid, "blueprints[%d].validUntil: %v", i, err)
		}
		raw := make([]byte, len(d.Raw))
		copy(raw, d.Raw)
		out = append(out, domain.Blueprint{ValidFrom: from, ValidUntil: until, Raw: raw})
	}
	return out, nil
}

// buildInformation converts one information descriptor of desc into the target
// model, resolving its classification against v.
func buildInformation(v domain.View, desc *SpaceDescriptor, t domain.SpaceType, info InformationDescriptor, blueprints []domain.Blueprint) (domain.Information, error) {
	from, err := domain.ParseDate(info.ValidFrom)
	if err != nil {
		return domain.Information{}, malformed(desc.ExternalID, "validFrom: %v", err)
	}
	until, err := domain.ParseOptionalDate(info.ValidUntil)
	if err != nil {
		return domain.Information{}, malformed(desc.ExternalID, "validUntil: %v", err)
	}
	c, err := resolveClassification(v, desc.ExternalID, t, info)
	if err != nil {
		return domain.Information{}, err
	}

	capacity := info.Capacity
	if desc.NormalCapacity != nil {
		n := *desc.NormalCapacity
		capacity = &n
	}
	name := ""
	if info.Name != nil {
		name = *info.Name
	}

	out := domain.Information{
		Capacity:         capacity,
		BlueprintNumber:  info.BlueprintNumber,
		ValidFrom:        from,
		ValidUntil:       until,
		Area:             info.Area,
		Identification:   info.Identification,
		Name:             name,
		ClassificationID: c.ID,
		Metadata:         informationMetadata(t, desc, info),
		Emails:           info.Emails,
		Description:      info.Description,
		Observations:     info.Observations,
	}
	out.RawBlueprint = MatchBlueprint(out.Interval(), blueprints)
	return out, nil
}
