package services

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/sergiofbsilva/fenixedu-spaces-migration/modules/spaces/domain"
	"github.com/sergiofbsilva/fenixedu-spaces-migration/pkg/blob"
)

// Inputs are the four decoded import documents.
type Inputs struct {
	Spaces                []SpaceDescriptor
	Occupations           []OccupationDescriptor
	EventSpaceOccupations []EventSpaceOccupationDescriptor
	Classifications       []ClassificationNode
}

func readDocument(ctx context.Context, src blob.Store, name string, v any) error {
	data, err := src.Get(ctx, name)
	if errors.Is(err, blob.ErrNotFound) {
		return newMigrationError(KindMissingInput, "", name, err)
	}
	if err != nil {
		return errors.Wrapf(err, "read %s", name)
	}
	return DecodeDocument(name, data, v)
}

// ReadInputs reads, decodes and validates every import document. Any missing or
// malformed document aborts the run.
func ReadInputs(ctx context.Context, src blob.Store) (*Inputs, error) {
	in := &Inputs{}
	if err := readDocument(ctx, src, SpacesDocument, &in.Spaces); err != nil {
		return nil, err
	}
	if err := readDocument(ctx, src, OccupationsDocument, &in.Occupations); err != nil {
		return nil, err
	}
	if err := readDocument(ctx, src, EventSpaceOccupationsDocument, &in.EventSpaceOccupations); err != nil {
		return nil, err
	}
	if err := readDocument(ctx, src, ClassificationsDocument, &in.Classifications); err != nil {
		return nil, err
	}
	if err := ValidateSpaces(in.Spaces); err != nil {
		return nil, err
	}
	if err := ValidateOccupations(in.Occupations); err != nil {
		return nil, err
	}
	if err := ValidateEventSpaceOccupations(in.EventSpaceOccupations); err != nil {
		return nil, err
	}
	return in, nil
}

type GraphReport struct {
	Spaces          int      `json:"spaces"`
	Roots           int      `json:"roots"`
	DanglingParents []string `json:"dangling_parents,omitempty"`
	Cycles          []string `json:"cycles,omitempty"`
}

func (r GraphReport) OK() bool {
	return len(r.Cycles) == 0
}

// CheckGraph walks every descriptor's parent chain without touching the store.
// Cycles lists the XID at which each cycle was closed; DanglingParents lists the
// descriptors whose parent is not part of the input.
func CheckGraph(descs []SpaceDescriptor) GraphReport {
	const (
		unseen = iota
		visiting
		done
	)
	byXID := make(map[string]*SpaceDescriptor, len(descs))
	for i := range descs {
		byXID[descs[i].ExternalID] = &descs[i]
	}
	state := make(map[string]int, len(descs))
	report := GraphReport{Spaces: len(descs)}

	for i := range descs {
		var path []string
		cur := &descs[i]
		for cur != nil && state[cur.ExternalID] == unseen {
			state[cur.ExternalID] = visiting
			path = append(path, cur.ExternalID)
			if cur.ParentExternalID == nil {
				report.Roots++
				cur = nil
				break
			}
			parent, ok := byXID[*cur.ParentExternalID]
			if !ok {
				report.DanglingParents = append(report.DanglingParents, cur.ExternalID)
				report.Roots++
				cur = nil
				break
			}
			cur = parent
		}
		if cur != nil && state[cur.ExternalID] == visiting {
			report.Cycles = append(report.Cycles, cur.ExternalID)
		}
		for _, xid := range path {
			state[xid] = done
		}
	}
	sort.Strings(report.DanglingParents)
	sort.Strings(report.Cycles)
	return report
}

type PairReport struct {
	Total      int      `json:"total"`
	Resolvable int      `json:"resolvable"`
	Dangling   []string `json:"dangling,omitempty"`
}

// CheckEventSpaceOccupations counts the pairs whose space is part of the input.
func CheckEventSpaceOccupations(pairs []EventSpaceOccupationDescriptor, descs []SpaceDescriptor) PairReport {
	known := make(map[string]struct{}, len(descs))
	for _, d := range descs {
		known[d.ExternalID] = struct{}{}
	}
	report := PairReport{Total: len(pairs)}
	for _, p := range pairs {
		if _, ok := known[p.Space]; ok {
			report.Resolvable++
			continue
		}
		report.Dangling = append(report.Dangling, p.EventSpaceOccupation)
	}
	return report
}

type ImporterOptions struct {
	BatchSize         int
	ImportOccupations bool
	Specs             MetadataSpecCatalog
	Publisher         Publisher
}

type Importer struct {
	store domain.Store
	opts  ImporterOptions
}

func NewImporter(store domain.Store, opts ImporterOptions) *Importer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Specs == nil {
		opts.Specs = DefaultMetadataSpecs()
	}
	opts.Publisher = publisherOrNop(opts.Publisher)
	return &Importer{store: store, opts: opts}
}

type ImportReport struct {
	Classifications       ClassificationResult `json:"classifications"`
	Batches               BatchSummary         `json:"batches"`
	EventSpaceOccupations PairReport           `json:"event_space_occupations"`
	Occupations           *OccupationResult    `json:"occupations,omitempty"`
}

// Partial reports whether some batch was rolled back.
func (r ImportReport) Partial() bool {
	return len(r.Batches.Failed) > 0
}

// Plan is the dry run: it checks the inputs and reports without writing.
func (i *Importer) Plan(in *Inputs) (GraphReport, PairReport) {
	return CheckGraph(in.Spaces), CheckEventSpaceOccupations(in.EventSpaceOccupations, in.Spaces)
}

// Run imports classifications, then spaces in batches, then occupations when
// enabled. Classification failures abort the run; batch failures do not.
func (i *Importer) Run(ctx context.Context, in *Inputs) (ImportReport, error) {
	var report ImportReport

	classifications, err := NewClassificationImporter(i.store, i.opts.Specs, i.opts.Publisher).Import(ctx, in.Classifications)
	report.Classifications = classifications
	if err != nil {
		return report, err
	}

	reconstructor := NewSpaceReconstructor(i.store)
	batches, err := NewBatchExecutor(i.store, reconstructor, i.opts.BatchSize, i.opts.Publisher).Run(ctx, in.Spaces)
	report.Batches = batches
	if err != nil {
		return report, err
	}

	report.EventSpaceOccupations = CheckEventSpaceOccupations(in.EventSpaceOccupations, in.Spaces)
	if len(report.EventSpaceOccupations.Dangling) > 0 {
		logWithFields(ctx, logrus.WarnLevel, "event space occupations reference spaces outside the input", logrus.Fields{
			"dangling": len(report.EventSpaceOccupations.Dangling),
		})
	}

	if !i.opts.ImportOccupations {
		logWithFields(ctx, logrus.InfoLevel, "occupation import disabled", logrus.Fields{"occupations": len(in.Occupations)})
		return report, nil
	}
	occupations, err := NewOccupationImporter(i.store, reconstructor, i.opts.Publisher).Import(ctx, in.Occupations)
	if err != nil {
		return report, err
	}
	report.Occupations = &occupations
	return report, nil
}
