package services

import (
	"context"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/sergiofbsilva/fenixedu-spaces-migration/modules/spaces/domain"
	"github.com/sergiofbsilva/fenixedu-spaces-migration/pkg/blob"
	"github.com/sergiofbsilva/fenixedu-spaces-migration/pkg/intl"
)

const DefaultProgressEvery = 100

// SpaceGroups are the group XIDs written on an exported space.
type SpaceGroups struct {
	Occupation                   *string
	Management                   *string
	LessonOccupations            *string
	WrittenEvaluationOccupations *string
}

// GroupResolver supplies the group XIDs of a legacy space.
type GroupResolver func(space domain.LegacySpace) SpaceGroups

// LegacyGroupResolver returns the XIDs recorded on the legacy space.
func LegacyGroupResolver(space domain.LegacySpace) SpaceGroups {
	return SpaceGroups{
		Occupation:                   space.OccupationGroupXID,
		Management:                   space.ManagementGroupXID,
		LessonOccupations:            space.LessonOccupationsAccessGroupXID,
		WrittenEvaluationOccupations: space.WrittenEvaluationOccupationsAccessGroupXID,
	}
}

type ExporterOptions struct {
	Resolver      GroupResolver
	ProgressEvery int
	Publisher     Publisher
}

type Exporter struct {
	store domain.Store
	sink  blob.Store
	opts  ExporterOptions
}

func NewExporter(store domain.Store, sink blob.Store, opts ExporterOptions) *Exporter {
	if opts.Resolver == nil {
		opts.Resolver = LegacyGroupResolver
	}
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = DefaultProgressEvery
	}
	opts.Publisher = publisherOrNop(opts.Publisher)
	return &Exporter{store: store, sink: sink, opts: opts}
}

// ExportResult counts the records written per document.
type ExportResult map[string]int

// Export writes the four documents from one consistent read of the legacy graph.
func (e *Exporter) Export(ctx context.Context) (ExportResult, error) {
	type document struct {
		name    string
		records int
		value   any
	}
	var docs []document

	err := e.store.View(ctx, func(v domain.View) error {
		spaces := e.exportSpaces(ctx, v)
		occupations := e.exportOccupations(ctx, v)
		pairs := exportEventSpaceOccupations(v)
		classifications := ExportClassifications(v)
		size := 0
		for _, c := range classifications {
			size += c.Size()
		}
		docs = []document{
			{SpacesDocument, len(spaces), spaces},
			{OccupationsDocument, len(occupations), occupations},
			{EventSpaceOccupationsDocument, len(pairs), pairs},
			{ClassificationsDocument, size, classifications},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := ExportResult{}
	for _, doc := range docs {
		data, err := EncodeDocument(doc.value)
		if err != nil {
			return result, errors.Wrapf(err, "encode %s", doc.name)
		}
		if err := e.sink.Put(ctx, doc.name, data); err != nil {
			return result, errors.Wrapf(err, "write %s", doc.name)
		}
		result[doc.name] = doc.records
		exportRecords.WithLabelValues(doc.name).Add(float64(doc.records))
		logWithFields(ctx, logrus.InfoLevel, "document exported", logrus.Fields{
			"document": doc.name,
			"records":  doc.records,
			"bytes":    len(data),
		})
		e.opts.Publisher.Publish(&DocumentExported{Name: doc.name, Records: doc.records, Bytes: len(data)})
	}
	return result, nil
}

func (e *Exporter) progress(ctx context.Context, document string, n, total int) {
	if n%e.opts.ProgressEvery == 0 || n == total {
		logWithFields(ctx, logrus.InfoLevel, "export progress", logrus.Fields{
			"document": document,
			"done":     n,
			"total":    total,
		})
	}
}

func (e *Exporter) exportSpaces(ctx context.Context, v domain.View) []SpaceDescriptor {
	byspace := map[string][]domain.LegacySpaceInformation{}
	for _, info := range v.LegacySpaceInformations() {
		byspace[info.SpaceXID] = append(byspace[info.SpaceXID], info)
	}

	legacy := v.LegacySpaces()
	out := make([]SpaceDescriptor, 0, len(byspace))
	for n, space := range legacy {
		infos := byspace[space.XID]
		if len(infos) == 0 {
			continue
		}
		sort.SliceStable(infos, func(i, j int) bool { return infos[i].ValidFrom.Before(infos[j].ValidFrom) })

		groups := e.opts.Resolver(space)
		desc := SpaceDescriptor{
			ParentExternalID:                        space.ParentXID,
			ExternalID:                              space.XID,
			CreatedOn:                               domain.FormatOptionalDate(space.CreatedOn),
			ExamCapacity:                            space.ExamCapacity,
			NormalCapacity:                          space.NormalCapacity,
			Type:                                    string(space.Type),
			OccupationGroup:                         groups.Occupation,
			ManagementSpaceGroup:                    groups.Management,
			LessonOccupationsAccessGroup:            groups.LessonOccupations,
			WrittenEvaluationOccupationsAccessGroup: groups.WrittenEvaluationOccupations,
			Informations:                            make([]InformationDescriptor, 0, len(infos)),
			Blueprints:                              make([]BlueprintDescriptor, 0, len(space.Blueprints)),
		}
		for _, info := range infos {
			desc.Informations = append(desc.Informations, describeLegacyInformation(v, space.Type, info))
		}
		for _, bp := range space.Blueprints {
			desc.Blueprints = append(desc.Blueprints, BlueprintDescriptor{
				ValidFrom:      domain.FormatDate(bp.ValidFrom),
				ValidUntil:     domain.FormatOptionalDate(bp.ValidUntil),
				CreationPerson: bp.CreatorUsername,
				Raw:            bp.Content,
			})
		}
		out = append(out, desc)
		e.progress(ctx, SpacesDocument, n+1, len(legacy))
	}
	return out
}

func describeLegacyInformation(v domain.View, t domain.SpaceType, info domain.LegacySpaceInformation) InformationDescriptor {
	out := InformationDescriptor{
		Capacity:        info.Capacity,
		BlueprintNumber: info.BlueprintNumber,
		ValidFrom:       domain.FormatDate(info.ValidFrom),
		ValidUntil:      domain.FormatOptionalDate(info.ValidUntil),
		Emails:          info.Emails,
	}
	switch t {
	case domain.SpaceTypeRoom:
		out.AgeQuality = info.AgeQuality
		out.Area = info.Area
		out.Description = info.Description
		out.DistanceFromSanitaryInstalationsQuality = info.DistanceFromSanitaryInstalationsQuality
		out.DoorNumber = info.DoorNumber
		out.HeightQuality = info.HeightQuality
		out.Identification = info.Identification
		out.IlluminationQuality = info.IlluminationQuality
		out.Observations = info.Observations
		out.SecurityQuality = info.SecurityQuality
		out.Name = info.Identification
		if info.ClassificationXID != nil {
			if code, ok := legacyAbsoluteCode(v, *info.ClassificationXID); ok {
				out.ClassificationCode = &code
			}
		}
	case domain.SpaceTypeRoomSubdivision:
		out.Name = info.Identification
	case domain.SpaceTypeCampus, domain.SpaceTypeBuilding:
		out.Name = info.Name
	case domain.SpaceTypeFloor:
		if info.Level != nil {
			level := strconv.Itoa(*info.Level)
			out.Name = &level
		}
	}
	return out
}

// legacyAbsoluteCode joins the codes from the root down to xid.
func legacyAbsoluteCode(v domain.View, xid string) (string, bool) {
	var codes []string
	seen := map[string]struct{}{}
	cur, ok := v.LegacyClassification(xid)
	if !ok {
		return "", false
	}
	for {
		if _, loop := seen[cur.XID]; loop {
			return "", false
		}
		seen[cur.XID] = struct{}{}
		codes = append(codes, strconv.Itoa(cur.Code))
		if cur.ParentXID == nil {
			break
		}
		parent, ok := v.LegacyClassification(*cur.ParentXID)
		if !ok {
			break
		}
		cur = parent
	}
	code := ""
	for i := len(codes) - 1; i >= 0; i-- {
		code = domain.JoinCode(code, codes[i])
	}
	return code, true
}

func (e *Exporter) exportOccupations(ctx context.Context, v domain.View) []OccupationDescriptor {
	allocations := v.ResourceAllocations()
	out := make([]OccupationDescriptor, 0)
	for n, a := range allocations {
		if !a.IsGenericEventSpaceOccupation() || a.Event == nil {
			continue
		}
		ev := a.Event
		title, _ := ev.Title.Content(intl.PT)
		description, _ := ev.Description.Content(intl.PT)
		desc := OccupationDescriptor{
			Description: description,
			Title:       title,
			Frequency:   ev.Frequency,
			BeginDate:   domain.FormatOptionalDate(ev.BeginDate),
			EndDate:     domain.FormatOptionalDate(ev.EndDate),
			BeginTime:   ev.StartTime.String(),
			EndTime:     ev.EndTime.String(),
			Saturday:    ev.Saturday,
			Sunday:      ev.Sunday,
			Intervals:   make([]IntervalDescriptor, 0, len(a.Intervals)),
			Spaces:      append([]string{}, ev.AssociatedRoomXIDs...),
		}
		for _, interval := range a.Intervals {
			if interval.Until == nil {
				logWithFields(ctx, logrus.WarnLevel, "open interval dropped from occupation", logrus.Fields{"xid": a.XID})
				continue
			}
			desc.Intervals = append(desc.Intervals, IntervalDescriptor{
				Start: domain.FormatDateTime(interval.From),
				End:   domain.FormatDateTime(*interval.Until),
			})
		}
		out = append(out, desc)
		e.progress(ctx, OccupationsDocument, n+1, len(allocations))
	}
	return out
}

func exportEventSpaceOccupations(v domain.View) []EventSpaceOccupationDescriptor {
	out := make([]EventSpaceOccupationDescriptor, 0)
	for _, a := range v.ResourceAllocations() {
		if _, ok := domain.BridgeKindFor(a); !ok || a.ResourceXID == nil {
			continue
		}
		out = append(out, EventSpaceOccupationDescriptor{EventSpaceOccupation: a.XID, Space: *a.ResourceXID})
	}
	return out
}

// ExportClassifications renders the legacy classification forest rooted at
// parentless nodes, children ordered by code.
func ExportClassifications(v domain.View) []ClassificationNode {
	children := map[string][]domain.LegacyClassification{}
	var roots []domain.LegacyClassification
	for _, c := range v.LegacyClassifications() {
		if c.ParentXID == nil {
			roots = append(roots, c)
			continue
		}
		children[*c.ParentXID] = append(children[*c.ParentXID], c)
	}
	var build func(c domain.LegacyClassification, depth int) ClassificationNode
	build = func(c domain.LegacyClassification, depth int) ClassificationNode {
		node := ClassificationNode{Name: c.Name.Get(intl.PT), Code: c.Code, Childs: []ClassificationNode{}}
		if depth > len(children) {
			return node
		}
		kids := children[c.XID]
		sortLegacyClassifications(kids)
		for _, k := range kids {
			node.Childs = append(node.Childs, build(k, depth+1))
		}
		return node
	}
	sortLegacyClassifications(roots)
	out := make([]ClassificationNode, 0, len(roots))
	for _, r := range roots {
		out = append(out, build(r, 0))
	}
	return out
}

func sortLegacyClassifications(in []domain.LegacyClassification) {
	sort.SliceStable(in, func(i, j int) bool {
		if in[i].Code != in[j].Code {
			return in[i].Code < in[j].Code
		}
		return in[i].XID < in[j].XID
	})
}
