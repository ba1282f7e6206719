package services

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/wI2L/jsondiff"

	"github.com/sergiofbsilva/fenixedu-spaces-migration/modules/spaces/domain"
	"github.com/sergiofbsilva/fenixedu-spaces-migration/pkg/intl"
)

// VerifyReport compares the import documents with what the target model holds.
type VerifyReport struct {
	Checked         int               `json:"checked"`
	Missing         []string          `json:"missing,omitempty"`
	Differences     map[string]string `json:"differences,omitempty"`
	Classifications string            `json:"classifications,omitempty"`
}

func (r VerifyReport) OK() bool {
	return len(r.Missing) == 0 && len(r.Differences) == 0 && r.Classifications == ""
}

// Verify re-exports every input space and the classification tree from the
// migrated model and diffs them against the inputs, ignoring the fields the
// import drops on purpose.
func Verify(ctx context.Context, store domain.Store, in *Inputs) (VerifyReport, error) {
	report := VerifyReport{Differences: map[string]string{}}
	err := store.View(ctx, func(v domain.View) error {
		for _, src := range in.Spaces {
			space, ok := v.SpaceByLegacyXID(src.ExternalID)
			if !ok {
				report.Missing = append(report.Missing, src.ExternalID)
				continue
			}
			report.Checked++
			diff, err := diffDocuments(normalizeDescriptor(src), normalizeDescriptor(DescribeSpace(v, space)))
			if err != nil {
				return errors.Wrapf(err, "diff %s", src.ExternalID)
			}
			if diff != "" {
				report.Differences[src.ExternalID] = diff
			}
		}
		diff, err := diffDocuments(normalizeClassifications(in.Classifications), DescribeClassifications(v))
		if err != nil {
			return errors.Wrap(err, "diff classifications")
		}
		report.Classifications = diff
		return nil
	})
	sort.Strings(report.Missing)
	return report, err
}

func diffDocuments(src, tgt any) (string, error) {
	a, err := json.Marshal(src)
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(tgt)
	if err != nil {
		return "", err
	}
	patch, err := jsondiff.CompareJSON(a, b, jsondiff.Equivalent())
	if err != nil {
		return "", err
	}
	if len(patch) == 0 {
		return "", nil
	}
	return patch.String(), nil
}

func metadataBool(info domain.Information, key string) *bool {
	v, ok := info.MetadataValue(key)
	if !ok {
		return nil
	}
	b := v == "true"
	return &b
}

// DescribeSpace renders a migrated space in the import document format.
func DescribeSpace(v domain.View, space domain.Space) SpaceDescriptor {
	desc := SpaceDescriptor{
		ExternalID:     space.LegacyXID,
		CreatedOn:      domain.FormatOptionalDate(space.CreatedOn),
		ExamCapacity:   space.ExamCapacity,
		NormalCapacity: space.NormalCapacity,
		Type:           string(space.Type),
		Informations:   make([]InformationDescriptor, 0, len(space.Informations)),
		Blueprints:     make([]BlueprintDescriptor, 0, len(space.Blueprints)),
	}
	if parent, ok := v.Space(space.ParentID); ok {
		xid := parent.LegacyXID
		desc.ParentExternalID = &xid
	}
	for _, info := range space.Informations {
		name := info.Name
		out := InformationDescriptor{
			Capacity:        info.Capacity,
			BlueprintNumber: info.BlueprintNumber,
			ValidFrom:       domain.FormatDate(info.ValidFrom),
			ValidUntil:      domain.FormatOptionalDate(info.ValidUntil),
			Emails:          info.Emails,
			Area:            info.Area,
			Description:     info.Description,
			Identification:  info.Identification,
			Observations:    info.Observations,
			Name:            &name,
		}
		if space.Type == domain.SpaceTypeRoom {
			out.AgeQuality = metadataBool(info, MetaAgeQuality)
			out.HeightQuality = metadataBool(info, MetaHeightQuality)
			out.IlluminationQuality = metadataBool(info, MetaIlluminationQuality)
			out.SecurityQuality = metadataBool(info, MetaSecurityQuality)
			out.DistanceFromSanitaryInstalationsQuality = metadataBool(info, MetaDistanceFromSanitaryInstalationsQuality)
			if door, ok := info.MetadataValue(MetaDoorNumber); ok {
				out.DoorNumber = &door
			}
			if c, ok := v.Classification(info.ClassificationID); ok {
				code := c.AbsoluteCode
				out.ClassificationCode = &code
			}
		}
		desc.Informations = append(desc.Informations, out)
	}
	for _, bp := range space.Blueprints {
		desc.Blueprints = append(desc.Blueprints, BlueprintDescriptor{
			ValidFrom:  domain.FormatDate(bp.ValidFrom),
			ValidUntil: domain.FormatOptionalDate(bp.ValidUntil),
			Raw:        bp.Raw,
		})
	}
	return desc
}

func dateBefore(a, b string) bool {
	ta, errA := domain.ParseDate(a)
	tb, errB := domain.ParseDate(b)
	if errA != nil || errB != nil {
		return a < b
	}
	return ta.Before(tb)
}

func falseIfNil(v *bool) *bool {
	if v != nil {
		return v
	}
	f := false
	return &f
}

func nilIfEmpty(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	return v
}

// normalizeDescriptor clears the fields the import drops or rewrites so a
// source and a re-exported descriptor compare equal.
func normalizeDescriptor(d SpaceDescriptor) SpaceDescriptor {
	d.OccupationGroup = nil
	d.ManagementSpaceGroup = nil
	d.LessonOccupationsAccessGroup = nil
	d.WrittenEvaluationOccupationsAccessGroup = nil

	infos := make([]InformationDescriptor, len(d.Informations))
	for i, info := range d.Informations {
		if d.NormalCapacity != nil {
			n := *d.NormalCapacity
			info.Capacity = &n
		}
		info.Name = nilIfEmpty(info.Name)
		if d.Type == string(domain.SpaceTypeRoom) {
			info.AgeQuality = falseIfNil(info.AgeQuality)
			info.HeightQuality = falseIfNil(info.HeightQuality)
			info.IlluminationQuality = falseIfNil(info.IlluminationQuality)
			info.SecurityQuality = falseIfNil(info.SecurityQuality)
			info.DistanceFromSanitaryInstalationsQuality = falseIfNil(info.DistanceFromSanitaryInstalationsQuality)
			code := DefaultRoomClassification
			if info.ClassificationCode != nil && strings.TrimSpace(*info.ClassificationCode) != "" {
				code = domain.NormalizeCode(*info.ClassificationCode)
			}
			info.ClassificationCode = &code
		} else {
			info.AgeQuality = nil
			info.HeightQuality = nil
			info.IlluminationQuality = nil
			info.SecurityQuality = nil
			info.DistanceFromSanitaryInstalationsQuality = nil
			info.DoorNumber = nil
			info.ClassificationCode = nil
		}
		infos[i] = info
	}
	sort.SliceStable(infos, func(i, j int) bool { return dateBefore(infos[i].ValidFrom, infos[j].ValidFrom) })
	d.Informations = infos

	bps := make([]BlueprintDescriptor, len(d.Blueprints))
	for i, bp := range d.Blueprints {
		bp.CreationPerson = nil
		if len(bp.Raw) == 0 {
			bp.Raw = nil
		}
		bps[i] = bp
	}
	sort.SliceStable(bps, func(i, j int) bool { return dateBefore(bps[i].ValidFrom, bps[j].ValidFrom) })
	d.Blueprints = bps
	return d
}

// DescribeClassifications renders the migrated classification forest with
// Portuguese names, leaving out the synthetic type classifications.
func DescribeClassifications(v domain.View) []ClassificationNode {
	children := map[string][]domain.Classification{}
	for _, c := range v.Classifications() {
		if c.ParentID != "" && !isTypeClassification(c) {
			children[c.ParentID] = append(children[c.ParentID], c)
		}
	}
	var build func(c domain.Classification) ClassificationNode
	build = func(c domain.Classification) ClassificationNode {
		code, _ := strconv.Atoi(c.Code)
		pt, _ := c.Name.Content(intl.PT)
		node := ClassificationNode{Name: pt, Code: code, Childs: []ClassificationNode{}}
		for _, child := range children[c.ID] {
			node.Childs = append(node.Childs, build(child))
		}
		sortNodes(node.Childs)
		return node
	}
	roots := v.RootClassifications()
	out := make([]ClassificationNode, 0, len(roots))
	for _, r := range roots {
		out = append(out, build(r))
	}
	sortNodes(out)
	return out
}

func normalizeClassifications(in []ClassificationNode) []ClassificationNode {
	out := make([]ClassificationNode, 0, len(in))
	for _, n := range in {
		out = append(out, ClassificationNode{Name: n.Name, Code: n.Code, Childs: normalizeClassifications(n.Childs)})
	}
	sortNodes(out)
	return out
}

func sortNodes(nodes []ClassificationNode) {
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].Code < nodes[j].Code })
}
