package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/sergiofbsilva/fenixedu-spaces-migration/modules/spaces/domain"
)

// Document names shared by the exporter and the importer.
const (
	SpacesDocument                = "spaces.json"
	OccupationsDocument           = "occupations.json"
	ClassificationsDocument       = "classifications.json"
	EventSpaceOccupationsDocument = "event_space_occupations.json"
)

var Documents = []string{
	SpacesDocument,
	OccupationsDocument,
	EventSpaceOccupationsDocument,
	ClassificationsDocument,
}

func init() {
	// area is a JSON number on the wire
	decimal.MarshalJSONWithoutQuotes = true
}

type SpaceDescriptor struct {
	ParentExternalID                        *string                 `json:"parentExternalId"`
	ExternalID                              string                  `json:"externalId" validate:"required"`
	CreatedOn                               *string                 `json:"createdOn"`
	ExamCapacity                            *int                    `json:"examCapacity"`
	NormalCapacity                          *int                    `json:"normalCapacity"`
	Type                                    string                  `json:"type" validate:"required"`
	OccupationGroup                         *string                 `json:"occupationGroup"`
	ManagementSpaceGroup                    *string                 `json:"managementSpaceGroup"`
	LessonOccupationsAccessGroup            *string                 `json:"lessonOccupationsAccessGroup"`
	WrittenEvaluationOccupationsAccessGroup *string                 `json:"writtenEvaluationOccupationsAccessGroup"`
	Informations                            []InformationDescriptor `json:"informations"`
	Blueprints                              []BlueprintDescriptor   `json:"blueprints"`
}

type InformationDescriptor struct {
	Capacity                                *int             `json:"capacity"`
	BlueprintNumber                         *string          `json:"blueprintNumber"`
	ValidFrom                               string           `json:"validFrom"`
	ValidUntil                              *string          `json:"validUntil"`
	Emails                                  *string          `json:"emails"`
	AgeQuality                              *bool            `json:"ageQuality"`
	Area                                    *decimal.Decimal `json:"area"`
	Description                             *string          `json:"description"`
	DistanceFromSanitaryInstalationsQuality *bool            `json:"distanceFromSanitaryInstalationsQuality"`
	DoorNumber                              *string          `json:"doorNumber"`
	HeightQuality                           *bool            `json:"heightQuality"`
	Identification                          *string          `json:"identification"`
	IlluminationQuality                     *bool            `json:"illuminationQuality"`
	Observations                            *string          `json:"observations"`
	SecurityQuality                         *bool            `json:"securityQuality"`
	ClassificationCode                      *string          `json:"classificationCode"`
	Name                                    *string          `json:"name"`
}

// BlueprintDescriptor carries the raw payload base64 encoded.
type BlueprintDescriptor struct {
	ValidFrom      string  `json:"validFrom"`
	ValidUntil     *string `json:"validUntil"`
	CreationPerson *string `json:"creationPerson"`
	Raw            []byte  `json:"raw"`
}

type OccupationDescriptor struct {
	Description string               `json:"description"`
	Title       string               `json:"title"`
	Frequency   *string              `json:"frequency"`
	BeginDate   *string              `json:"beginDate"`
	EndDate     *string              `json:"endDate"`
	BeginTime   string               `json:"beginTime" validate:"required"`
	EndTime     string               `json:"endTime" validate:"required"`
	Saturday    *bool                `json:"saturday"`
	Sunday      *bool                `json:"sunday"`
	Intervals   []IntervalDescriptor `json:"intervals"`
	Spaces      []string             `json:"spaces"`
}

type IntervalDescriptor struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type EventSpaceOccupationDescriptor struct {
	EventSpaceOccupation string `json:"eventSpaceOccupation" validate:"required"`
	Space                string `json:"space" validate:"required"`
}

type ClassificationNode struct {
	Name   string               `json:"name"`
	Childs []ClassificationNode `json:"childs"`
	Code   int                  `json:"code"`
}

// UnmarshalJSON also accepts "children" for the child list.
func (n *ClassificationNode) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name     string               `json:"name"`
		Childs   []ClassificationNode `json:"childs"`
		Children []ClassificationNode `json:"children"`
		Code     *int                 `json:"code"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	if raw.Code == nil {
		return errors.Errorf("classification %q has no code", raw.Name)
	}
	n.Name = raw.Name
	n.Code = *raw.Code
	n.Childs = append(raw.Childs, raw.Children...)
	return nil
}

// Size counts the node and all its descendants.
func (n ClassificationNode) Size() int {
	size := 1
	for _, c := range n.Childs {
		size += c.Size()
	}
	return size
}

// DecodeDocument strictly decodes one document. Failures are MalformedInput.
func DecodeDocument(name string, data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return newMigrationError(KindMalformedInput, "", name, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return newMigrationError(KindMalformedInput, "", name, errors.New("trailing data after document"))
	}
	return nil
}

// EncodeDocument pretty prints v with two-space indentation and nulls kept.
func EncodeDocument(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func malformed(xid, format string, args ...any) error {
	return newMigrationError(KindMalformedInput, xid, fmt.Sprintf(format, args...), nil)
}

// ValidateSpaces checks the schema of every descriptor: unique non-empty
// XIDs, known types and parseable dates.
func ValidateSpaces(descs []SpaceDescriptor) error {
	seen := make(map[string]struct{}, len(descs))
	for _, d := range descs {
		if msg := checkRequired(d); msg != "" {
			return malformed(d.ExternalID, "space descriptor: %s", msg)
		}
		if _, dup := seen[d.ExternalID]; dup {
			return malformed(d.ExternalID, "duplicate externalId")
		}
		seen[d.ExternalID] = struct{}{}
		if _, err := domain.ParseSpaceType(d.Type); err != nil {
			return malformed(d.ExternalID, "%v", err)
		}
		if _, err := domain.ParseOptionalDate(d.CreatedOn); err != nil {
			return malformed(d.ExternalID, "createdOn: %v", err)
		}
		for i, info := range d.Informations {
			if _, err := domain.ParseDate(info.ValidFrom); err != nil {
				return malformed(d.ExternalID, "informations[%d].validFrom: %v", i, err)
			}
			if _, err := domain.ParseOptionalDate(info.ValidUntil); err != nil {
				return malformed(d.ExternalID, "informations[%d].validUntil: %v", i, err)
			}
		}
		for i, bp := range d.Blueprints {
			if _, err := domain.ParseDate(bp.ValidFrom); err != nil {
				return malformed(d.ExternalID, "blueprints[%d].validFrom: %v", i, err)
			}
			if _, err := domain.ParseOptionalDate(bp.ValidUntil); err != nil {
				return malformed(d.ExternalID, "blueprints[%d].validUntil: %v", i, err)
			}
		}
	}
	return nil
}

func ValidateOccupations(descs []OccupationDescriptor) error {
	for i, d := range descs {
		if msg := checkRequired(d); msg != "" {
			return malformed("", "occupations[%d]: %s", i, msg)
		}
		if _, err := domain.ParseOptionalDate(d.BeginDate); err != nil {
			return malformed("", "occupations[%d].beginDate: %v", i, err)
		}
		if _, err := domain.ParseOptionalDate(d.EndDate); err != nil {
			return malformed("", "occupations[%d].endDate: %v", i, err)
		}
		if _, err := domain.ParseTimeOfDay(d.BeginTime); err != nil {
			return malformed("", "occupations[%d].beginTime: %v", i, err)
		}
		if _, err := domain.ParseTimeOfDay(d.EndTime); err != nil {
			return malformed("", "occupations[%d].endTime: %v", i, err)
		}
		if _, err := parseIntervals(d.Intervals); err != nil {
			return malformed("", "occupations[%d].intervals: %v", i, err)
		}
	}
	return nil
}

func ValidateEventSpaceOccupations(descs []EventSpaceOccupationDescriptor) error {
	for i, d := range descs {
		if msg := checkRequired(d); msg != "" {
			return malformed(d.EventSpaceOccupation, "event_space_occupations[%d]: %s", i, msg)
		}
	}
	return nil
}

func parseIntervals(in []IntervalDescriptor) ([]domain.Interval, error) {
	out := make([]domain.Interval, 0, len(in))
	for _, d := range in {
		start, err := domain.ParseDateTime(d.Start)
		if err != nil {
			return nil, err
		}
		end, err := domain.ParseDateTime(d.End)
		if err != nil {
			return nil, err
		}
		interval, err := domain.ClosedInterval(start, end)
		if err != nil {
			return nil, err
		}
		out = append(out, interval)
	}
	return out, nil
}
