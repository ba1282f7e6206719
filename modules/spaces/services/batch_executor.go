package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sergiofbsilva/fenixedu-spaces-migration/modules/spaces/domain"
)

const DefaultBatchSize = 1000

type FailedBatch struct {
	Index int       `json:"index"`
	Size  int       `json:"size"`
	XID   string    `json:"xid"`
	Kind  ErrorKind `json:"kind,omitempty"`
	Error string    `json:"error"`
}

type BatchSummary struct {
	Batches      int           `json:"batches"`
	Committed    int           `json:"committed"`
	Spaces       int           `json:"spaces"`
	Informations int           `json:"informations"`
	Failed       []FailedBatch `json:"failed,omitempty"`
}

type BatchExecutor struct {
	store         domain.Store
	reconstructor *SpaceReconstructor
	batchSize     int
	publisher     Publisher
}

func NewBatchExecutor(store domain.Store, reconstructor *SpaceReconstructor, batchSize int, publisher Publisher) *BatchExecutor {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &BatchExecutor{
		store:         store,
		reconstructor: reconstructor,
		batchSize:     batchSize,
		publisher:     publisherOrNop(publisher),
	}
}

// Run registers descs and processes them in fixed-size batches, each in one
// write transaction. A failed batch is discarded and the next one proceeds.
// Cancellation stops the run between batches.
func (e *BatchExecutor) Run(ctx context.Context, descs []SpaceDescriptor) (BatchSummary, error) {
	e.reconstructor.Register(descs)

	var summary BatchSummary
	err := e.store.ReadOnly(ctx, func(ctx context.Context) error {
		for index, start := 0, 0; start < len(descs); index, start = index+1, start+e.batchSize {
			if err := ctx.Err(); err != nil {
				return err
			}
			end := start + e.batchSize
			if end > len(descs) {
				end = len(descs)
			}
			summary.Batches++
			e.runBatch(ctx, index, descs[start:end], &summary)
		}
		return nil
	})
	return summary, err
}

func (e *BatchExecutor) runBatch(ctx context.Context, index int, batch []SpaceDescriptor, summary *BatchSummary) {
	started := time.Now()
	mark := e.reconstructor.mark()
	var failedXID string

	err := e.store.RunInTransaction(ctx, func(ctx context.Context, _ domain.Tx) error {
		for i := range batch {
			if err := ctx.Err(); err != nil {
				return err
			}
			desc, ok := e.reconstructor.Lookup(batch[i].ExternalID)
			if !ok {
				desc = &batch[i]
			}
			if _, err := e.reconstructor.Process(ctx, desc); err != nil {
				failedXID = desc.ExternalID
				if xid := XIDOf(err); xid != "" {
					failedXID = xid
				}
				return err
			}
		}
		return nil
	})

	if err != nil {
		e.reconstructor.rollback(mark)
		kind, _ := KindOf(err)
		logWithFields(ctx, logrus.ErrorLevel, "batch rolled back", logrus.Fields{
			"batch": index,
			"size":  len(batch),
			"xid":   failedXID,
			"kind":  kind,
			"error": err.Error(),
		})
		recordBatch(false)
		summary.Failed = append(summary.Failed, FailedBatch{
			Index: index,
			Size:  len(batch),
			XID:   failedXID,
			Kind:  kind,
			Error: err.Error(),
		})
		e.publisher.Publish(&BatchFailed{Index: index, Size: len(batch), XID: failedXID, Kind: kind, Err: err})
		return
	}

	created := e.reconstructor.createdSince(mark)
	informations := 0
	for _, d := range created {
		space := e.reconstructor.beanToSpace[d]
		spacesCreated.WithLabelValues(string(space.Type)).Inc()
		informations += len(space.Informations)
		e.publisher.Publish(&SpaceCreated{XID: d.ExternalID, SpaceID: space.ID, Type: space.Type})
	}
	informationsCreated.Add(float64(informations))
	recordBatch(true)
	summary.Committed++
	summary.Spaces += len(created)
	summary.Informations += informations

	logWithFields(ctx, logrus.InfoLevel, "batch committed", logrus.Fields{
		"batch":    index,
		"size":     len(batch),
		"spaces":   len(created),
		"duration": time.Since(started).String(),
	})
	e.publisher.Publish(&BatchCommitted{Index: index, Size: len(batch), Spaces: len(created)})
}
