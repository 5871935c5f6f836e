package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/indiafamilytree/familytree/application/ports"
	"github.com/indiafamilytree/familytree/infrastructure/persistence/snapshot"
	"github.com/indiafamilytree/familytree/pkg/observability"
)

// SnapshotSource provides a consistent persisted projection of the tree
type SnapshotSource interface {
	Snapshot() *snapshot.Snapshot
}

// SyncService pushes tree changes to the remote stores. It keeps a
// content hash per synced record; a pass only touches records whose
// hash moved, and a hash only advances after the remote write is
// confirmed, so a rejected record is retried on the next pass.
//
// Passes are debounced: a burst of mutations collapses into one pass.
// Mutations arriving while a pass runs schedule a follow-up pass rather
// than cancel anything.
type SyncService struct {
	source  SnapshotSource
	data    ports.DataService
	blobs   ports.BlobStore
	mirror  ports.GraphMirror
	metrics *observability.Collector
	logger  *zap.Logger

	debounce time.Duration

	mu           sync.Mutex
	timer        *time.Timer
	personHashes map[string]string
	familyHashes map[string]string
	lastTreeHash string

	// serializes passes so two flushes never interleave remote writes
	flushMu sync.Mutex
}

// NewSyncService creates a sync service. The mirror is optional; pass
// nil to disable the secondary graph projection.
func NewSyncService(
	source SnapshotSource,
	data ports.DataService,
	blobs ports.BlobStore,
	mirror ports.GraphMirror,
	metrics *observability.Collector,
	debounce time.Duration,
	logger *zap.Logger,
) *SyncService {
	return &SyncService{
		source:       source,
		data:         data,
		blobs:        blobs,
		mirror:       mirror,
		metrics:      metrics,
		debounce:     debounce,
		logger:       logger,
		personHashes: make(map[string]string),
		familyHashes: make(map[string]string),
	}
}

// LoadBaseline seeds the hash caches from a freshly loaded snapshot so
// the first pass after a load pushes nothing that is already remote.
func (s *SyncService) LoadBaseline(snap *snapshot.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range snap.Persons {
		s.personHashes[record.ID] = record.ContentHash()
	}
	for _, record := range snap.Families {
		s.familyHashes[record.ID] = record.ContentHash()
	}
	s.lastTreeHash = snap.ContentHash()
}

// MarkDirty schedules a debounced sync pass. Safe to call from the
// tree's change hook on every mutation.
func (s *SyncService) MarkDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		if err := s.Flush(context.Background()); err != nil {
			s.logger.Warn("Sync pass finished with failures", zap.Error(err))
		}
	})
}

// Stop cancels any pending debounced pass
func (s *SyncService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Flush runs one sync pass immediately: upsert changed persons, then
// changed families, then write the full snapshot document. The overall
// tree hash advances only when every record push and the snapshot write
// succeeded; anything less leaves state behind for the next pass.
func (s *SyncService) Flush(ctx context.Context) error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	snap := s.source.Snapshot()
	overall := snap.ContentHash()
	s.metrics.TreePersons.Set(float64(len(snap.Persons)))
	s.metrics.TreeFamilies.Set(float64(len(snap.Families)))

	s.mu.Lock()
	unchanged := overall == s.lastTreeHash
	s.mu.Unlock()
	if unchanged {
		s.metrics.SyncPassesSkipped.Inc()
		return nil
	}

	s.metrics.SyncPasses.Inc()
	s.logger.Debug("Starting sync pass",
		zap.Int("persons", len(snap.Persons)),
		zap.Int("families", len(snap.Families)),
	)

	personFailures := s.upsertPersons(ctx, snap.Persons)
	familyFailures := s.upsertFamilies(ctx, snap.Families)

	data, err := snap.Encode()
	if err != nil {
		return err
	}
	if err := s.blobs.PutSnapshot(ctx, data); err != nil {
		s.metrics.SnapshotFailures.Inc()
		return fmt.Errorf("write snapshot: %w", err)
	}
	s.metrics.SnapshotWrites.Inc()

	if personFailures > 0 || familyFailures > 0 {
		return fmt.Errorf("sync pass left %d person and %d family records unconfirmed", personFailures, familyFailures)
	}

	s.mu.Lock()
	s.lastTreeHash = overall
	s.mu.Unlock()
	return nil
}

func (s *SyncService) upsertPersons(ctx context.Context, records []snapshot.PersonRecord) int {
	failures := 0
	for _, record := range records {
		newHash := record.ContentHash()

		s.mu.Lock()
		stored, known := s.personHashes[record.ID]
		s.mu.Unlock()

		var err error
		var outcome, mirrorOp string
		switch {
		case !known:
			err = s.data.CreatePerson(ctx, record)
			outcome, mirrorOp = "created", "createPerson"
		case stored == newHash:
			s.metrics.SyncRecords.WithLabelValues("person", "skipped").Inc()
			continue
		default:
			err = s.data.UpdatePerson(ctx, record)
			outcome, mirrorOp = "updated", "updatePerson"
		}

		if err != nil {
			failures++
			s.metrics.SyncFailures.WithLabelValues("person").Inc()
			s.logger.Warn("Person record not confirmed",
				zap.String("personId", record.ID),
				zap.Error(err),
			)
			continue
		}

		s.metrics.SyncRecords.WithLabelValues("person", outcome).Inc()
		s.mirrorRecord(ctx, mirrorOp, record)
		s.mu.Lock()
		s.personHashes[record.ID] = newHash
		s.mu.Unlock()
	}
	return failures
}

func (s *SyncService) upsertFamilies(ctx context.Context, records []snapshot.FamilyRecord) int {
	failures := 0
	for _, record := range records {
		newHash := record.ContentHash()

		s.mu.Lock()
		stored, known := s.familyHashes[record.ID]
		s.mu.Unlock()

		var err error
		var outcome, mirrorOp string
		switch {
		case !known:
			err = s.data.CreateFamily(ctx, record)
			outcome, mirrorOp = "created", "createFamily"
		case stored == newHash:
			s.metrics.SyncRecords.WithLabelValues("family", "skipped").Inc()
			continue
		default:
			err = s.data.UpdateFamily(ctx, record)
			outcome, mirrorOp = "updated", "updateFamily"
		}

		if err != nil {
			failures++
			s.metrics.SyncFailures.WithLabelValues("family").Inc()
			s.logger.Warn("Family record not confirmed",
				zap.String("familyId", record.ID),
				zap.Error(err),
			)
			continue
		}

		s.metrics.SyncRecords.WithLabelValues("family", outcome).Inc()
		s.mirrorRecord(ctx, mirrorOp, record)
		s.mu.Lock()
		s.familyHashes[record.ID] = newHash
		s.mu.Unlock()
	}
	return failures
}

// mirrorRecord forwards a confirmed write to the graph mirror. Mirror
// failures are logged and dropped; the mirror catches up on a later
// update because its data is a projection, not a source of truth.
func (s *SyncService) mirrorRecord(ctx context.Context, fieldName string, payload interface{}) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.Operation(ctx, fieldName, payload); err != nil {
		s.logger.Warn("Graph mirror rejected operation",
			zap.String("fieldName", fieldName),
			zap.Error(err),
		)
	}
}
