package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sergiofbsilva/fenixedu-spaces-migration/modules/spaces/services"
	"github.com/sergiofbsilva/fenixedu-spaces-migration/pkg/blob"
	"github.com/sergiofbsilva/fenixedu-spaces-migration/pkg/eventbus"
)

const manifestVersion = 1

type importManifestV1 struct {
	Version    int       `json:"version"`
	RunID      uuid.UUID `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Storage    string    `json:"storage"`
	Input      struct {
		Location string   `json:"location"`
		Driver   string   `json:"driver"`
		Files    []string `json:"files"`
	} `json:"input"`
	Created struct {
		Classifications int            `json:"classifications"`
		Spaces          int            `json:"spaces"`
		SpacesByType    map[string]int `json:"spaces_by_type"`
		Occupations     int            `json:"occupations"`
	} `json:"created"`
	FailedBatches []services.FailedBatch `json:"failed_batches"`
	Summary       map[string]any         `json:"summary"`
}

// runRecorder collects the migration events of one run into a manifest.
type runRecorder struct {
	mu          sync.Mutex
	manifest    *importManifestV1
	unsubscribe []func()
}

func newRunRecorder(bus *eventbus.Bus, runID uuid.UUID, startedAt time.Time) *runRecorder {
	m := &importManifestV1{
		Version:       manifestVersion,
		RunID:         runID,
		StartedAt:     startedAt,
		FailedBatches: []services.FailedBatch{},
		Summary:       map[string]any{},
	}
	m.Created.SpacesByType = map[string]int{}
	r := &runRecorder{manifest: m}
	r.unsubscribe = append(r.unsubscribe,
		bus.Subscribe(r.onClassifications),
		bus.Subscribe(r.onSpace),
		bus.Subscribe(r.onBatchFailed),
		bus.Subscribe(r.onOccupation),
	)
	return r
}

func (r *runRecorder) onClassifications(e *services.ClassificationsImported) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.manifest.Created.Classifications += e.Created
}

func (r *runRecorder) onSpace(e *services.SpaceCreated) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.manifest.Created.Spaces++
	r.manifest.Created.SpacesByType[string(e.Type)]++
}

func (r *runRecorder) onBatchFailed(e *services.BatchFailed) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	r.manifest.FailedBatches = append(r.manifest.FailedBatches, services.FailedBatch{
		Index: e.Index,
		Size:  e.Size,
		XID:   e.XID,
		Kind:  e.Kind,
		Error: msg,
	})
}

func (r *runRecorder) onOccupation(*services.OccupationCreated) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.manifest.Created.Occupations++
}

// finish detaches the recorder and returns the completed manifest.
func (r *runRecorder) finish() *importManifestV1 {
	for _, unsubscribe := range r.unsubscribe {
		unsubscribe()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.manifest.FinishedAt = time.Now().UTC()
	return r.manifest
}

func manifestName(m *importManifestV1) string {
	ts := m.FinishedAt.UTC().Format("20060102T150405Z")
	return fmt.Sprintf("import_manifest_%s_%s.json", ts, m.RunID.String())
}

func writeManifest(ctx context.Context, sink blob.Store, m *importManifestV1) (string, error) {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", err
	}
	name := manifestName(m)
	return name, sink.Put(ctx, name, b)
}
