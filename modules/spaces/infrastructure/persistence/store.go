package persistence

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/sergiofbsilva/fenixedu-spaces-migration/modules/spaces/domain"
)

// Persister durably records committed state. Persist receives the full
// snapshot and the buckets the transaction touched.
type Persister interface {
	Load(ctx context.Context) (Snapshot, error)
	Persist(ctx context.Context, snapshot Snapshot, buckets []string) error
	Driver() string
	Close() error
}

// Store is an in-memory implementation of domain.Store. Write transactions run
// against a copy of the state that replaces the committed state only after the
// persister (if any) accepted it.
type Store struct {
	mu        sync.RWMutex
	current   *view
	persister Persister
	newID     func() string
}

var _ domain.Store = (*Store)(nil)

type Option func(*Store)

func WithPersister(p Persister) Option {
	return func(s *Store) { s.persister = p }
}

func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

func NewMemoryStore(opts ...Option) *Store {
	s := &Store{current: newView(newSnapshot()), newID: uuid.NewString}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open builds a store and loads the persister's last committed state.
func Open(ctx context.Context, p Persister, opts ...Option) (*Store, error) {
	s := NewMemoryStore(append(opts, WithPersister(p))...)
	snap, err := p.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s state: %w", p.Driver(), err)
	}
	s.current = newView(snap.normalize())
	return s, nil
}

func (s *Store) Driver() string {
	if s.persister == nil {
		return "memory"
	}
	return s.persister.Driver()
}

func (s *Store) Close() error {
	if s.persister == nil {
		return nil
	}
	return s.persister.Close()
}

type txKey struct{}

type txScope struct {
	store *Store
	tx    *transaction
}

func (s *Store) joined(ctx context.Context) *transaction {
	scope, ok := ctx.Value(txKey{}).(*txScope)
	if !ok || scope == nil || scope.store != s {
		return nil
	}
	return scope.tx
}

func (s *Store) View(ctx context.Context, fn func(v domain.View) error) error {
	if tx := s.joined(ctx); tx != nil {
		return fn(tx)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.current)
}

// ReadOnly cannot be opened inside one of the store's write transactions.
func (s *Store) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.joined(ctx) != nil {
		return fmt.Errorf("read-only scope inside a write transaction: %w", domain.ErrReadOnly)
	}
	return fn(context.WithValue(ctx, txKey{}, (*txScope)(nil)))
}

func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx domain.Tx) error) error {
	if tx := s.joined(ctx); tx != nil {
		return fn(ctx, tx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		view:    newView(s.current.state.clone()),
		newID:   s.newID,
		touched: map[string]struct{}{},
	}
	txCtx := context.WithValue(ctx, txKey{}, &txScope{store: s, tx: tx})
	if err := fn(txCtx, tx); err != nil {
		return err
	}
	if len(tx.touched) == 0 {
		return nil
	}
	if s.persister != nil {
		if err := s.persister.Persist(ctx, tx.state, tx.buckets()); err != nil {
			return fmt.Errorf("persist %s: %w", s.persister.Driver(), err)
		}
	}
	s.current = tx.view
	return nil
}

// ExportState returns a copy of the committed state.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.state.clone()
}

// ImportState replaces the whole state and persists every bucket.
func (s *Store) ImportState(ctx context.Context, snap Snapshot) error {
	snap = snap.normalize().clone()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.persister != nil {
		if err := s.persister.Persist(ctx, snap, Buckets); err != nil {
			return fmt.Errorf("persist %s: %w", s.persister.Driver(), err)
		}
	}
	s.current = newView(snap)
	return nil
}

type view struct {
	state       Snapshot
	spaceIndex  map[string]string // legacy XID -> space ID
	codeIndex   map[string]string // absolute code -> classification ID
	bridgeIndex map[string]string // allocation XID -> bridge ID
}

func newView(state Snapshot) *view {
	v := &view{
		state:       state,
		spaceIndex:  make(map[string]string, len(state.Spaces)),
		codeIndex:   make(map[string]string, len(state.Classifications)),
		bridgeIndex: make(map[string]string, len(state.Bridges)),
	}
	for id, sp := range state.Spaces {
		if sp.LegacyXID != "" {
			v.spaceIndex[sp.LegacyXID] = id
		}
	}
	for id, c := range state.Classifications {
		v.codeIndex[c.AbsoluteCode] = id
	}
	for id, b := range state.Bridges {
		v.bridgeIndex[b.AllocationXID] = id
	}
	return v
}

func sortedValues[V any](m map[string]V, less func(a, b V) bool) []V {
	out := make([]V, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func (v *view) Classifications() []domain.Classification {
	return sortedValues(v.state.Classifications, func(a, b domain.Classification) bool {
		return a.AbsoluteCode < b.AbsoluteCode
	})
}

func (v *view) RootClassifications() []domain.Classification {
	var roots []domain.Classification
	for _, c := range v.Classifications() {
		if c.IsRoot() {
			roots = append(roots, c)
		}
	}
	return roots
}

func (v *view) Classification(id string) (domain.Classification, bool) {
	c, ok := v.state.Classifications[id]
	return c, ok
}

func (v *view) ClassificationByAbsoluteCode(code string) (domain.Classification, bool) {
	id, ok := v.codeIndex[code]
	if !ok {
		return domain.Classification{}, false
	}
	return v.Classification(id)
}

func (v *view) Spaces() []domain.Space {
	return sortedValues(v.state.Spaces, func(a, b domain.Space) bool {
		if a.LegacyXID != b.LegacyXID {
			return a.LegacyXID < b.LegacyXID
		}
		return a.ID < b.ID
	})
}

func (v *view) Space(id string) (domain.Space, bool) {
	sp, ok := v.state.Spaces[id]
	return sp, ok
}

func (v *view) SpaceByLegacyXID(xid string) (domain.Space, bool) {
	id, ok := v.spaceIndex[xid]
	if !ok || xid == "" {
		return domain.Space{}, false
	}
	return v.Space(id)
}

func (v *view) Occupations() []domain.Occupation {
	return sortedValues(v.state.Occupations, func(a, b domain.Occupation) bool { return a.ID < b.ID })
}

func (v *view) Bridges() []domain.Bridge {
	return sortedValues(v.state.Bridges, func(a, b domain.Bridge) bool {
		return a.AllocationXID < b.AllocationXID
	})
}

func (v *view) BridgeForAllocation(xid string) (domain.Bridge, bool) {
	id, ok := v.bridgeIndex[xid]
	if !ok {
		return domain.Bridge{}, false
	}
	b, ok := v.state.Bridges[id]
	return b, ok
}

func (v *view) PersistentGroup(xid string) (domain.PersistentGroup, bool) {
	if xid == "" {
		return domain.PersistentGroup{}, false
	}
	g, ok := v.state.Groups[xid]
	return g, ok
}

func (v *view) LegacySpaces() []domain.LegacySpace {
	return sortedValues(v.state.LegacySpaces, func(a, b domain.LegacySpace) bool { return a.XID < b.XID })
}

func (v *view) LegacySpace(xid string) (domain.LegacySpace, bool) {
	sp, ok := v.state.LegacySpaces[xid]
	return sp, ok
}

func (v *view) LegacySpaceInformations() []domain.LegacySpaceInformation {
	return sortedValues(v.state.LegacyInformations, func(a, b domain.LegacySpaceInformation) bool {
		return a.XID < b.XID
	})
}

func (v *view) LegacyClassifications() []domain.LegacyClassification {
	return sortedValues(v.state.LegacyClassifications, func(a, b domain.LegacyClassification) bool {
		return a.XID < b.XID
	})
}

func (v *view) LegacyClassification(xid string) (domain.LegacyClassification, bool) {
	c, ok := v.state.LegacyClassifications[xid]
	return c, ok
}

func (v *view) ResourceAllocations() []domain.ResourceAllocation {
	return sortedValues(v.state.Allocations, func(a, b domain.ResourceAllocation) bool { return a.XID < b.XID })
}

type transaction struct {
	*view
	newID   func() string
	touched map[string]struct{}
}

var _ domain.Tx = (*transaction)(nil)

func (t *transaction) touch(bucket string) {
	t.touched[bucket] = struct{}{}
}

func (t *transaction) buckets() []string {
	out := make([]string, 0, len(t.touched))
	for _, b := range Buckets {
		if _, ok := t.touched[b]; ok {
			out = append(out, b)
		}
	}
	return out
}

func (t *transaction) CreateClassification(c domain.Classification) (domain.Classification, error) {
	if err := domain.ValidateCode(c.Code); err != nil {
		return domain.Classification{}, err
	}
	parentCode := ""
	if c.ParentID != "" {
		parent, ok := t.Classification(c.ParentID)
		if !ok {
			return domain.Classification{}, fmt.Errorf("classification parent %s: %w", c.ParentID, domain.ErrNotFound)
		}
		parentCode = parent.AbsoluteCode
	}
	c.AbsoluteCode = domain.JoinCode(parentCode, c.Code)
	if _, exists := t.ClassificationByAbsoluteCode(c.AbsoluteCode); exists {
		return domain.Classification{}, fmt.Errorf("classification %s: %w", c.AbsoluteCode, domain.ErrAlreadyExists)
	}
	if c.ID == "" {
		c.ID = t.newID()
	}
	c.MetadataSpecs = domain.CloneSpecs(c.MetadataSpecs)
	t.state.Classifications[c.ID] = c
	t.codeIndex[c.AbsoluteCode] = c.ID
	t.touch(BucketClassifications)
	return c, nil
}

func (t *transaction) SetMetadataSpecs(id string, specs []domain.MetadataSpec) (domain.Classification, error) {
	c, ok := t.Classification(id)
	if !ok {
		return domain.Classification{}, fmt.Errorf("classification %s: %w", id, domain.ErrNotFound)
	}
	c.MetadataSpecs = domain.CloneSpecs(specs)
	t.state.Classifications[id] = c
	t.touch(BucketClassifications)
	return c, nil
}

func (t *transaction) CreateSpace(sp domain.Space) (domain.Space, error) {
	if sp.ParentID != "" {
		if _, ok := t.Space(sp.ParentID); !ok {
			return domain.Space{}, fmt.Errorf("space parent %s: %w", sp.ParentID, domain.ErrNotFound)
		}
	}
	if sp.LegacyXID != "" {
		if _, exists := t.SpaceByLegacyXID(sp.LegacyXID); exists {
			return domain.Space{}, fmt.Errorf("space for %s: %w", sp.LegacyXID, domain.ErrAlreadyExists)
		}
	}
	for _, info := range sp.Informations {
		if _, ok := t.Classification(info.ClassificationID); !ok {
			return domain.Space{}, fmt.Errorf("information classification %q: %w", info.ClassificationID, domain.ErrNotFound)
		}
	}
	if sp.ID == "" {
		sp.ID = t.newID()
	}
	t.state.Spaces[sp.ID] = sp
	if sp.LegacyXID != "" {
		t.spaceIndex[sp.LegacyXID] = sp.ID
	}
	t.touch(BucketSpaces)
	return sp, nil
}

func (t *transaction) CreateOccupation(o domain.Occupation) (domain.Occupation, error) {
	for _, id := range o.SpaceIDs {
		if _, ok := t.Space(id); !ok {
			return domain.Occupation{}, fmt.Errorf("occupation space %s: %w", id, domain.ErrNotFound)
		}
	}
	if o.ID == "" {
		o.ID = t.newID()
	}
	t.state.Occupations[o.ID] = o
	t.touch(BucketOccupations)
	return o, nil
}

func (t *transaction) CreateBridge(b domain.Bridge) (domain.Bridge, error) {
	if b.AllocationXID == "" {
		return domain.Bridge{}, fmt.Errorf("bridge allocation is required")
	}
	if _, exists := t.BridgeForAllocation(b.AllocationXID); exists {
		return domain.Bridge{}, fmt.Errorf("bridge for %s: %w", b.AllocationXID, domain.ErrAlreadyExists)
	}
	if b.ID == "" {
		b.ID = t.newID()
	}
	t.state.Bridges[b.ID] = b
	t.bridgeIndex[b.AllocationXID] = b.ID
	t.touch(BucketBridges)
	return b, nil
}
