package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/indiafamilytree/familytree/application/ports"
	"github.com/indiafamilytree/familytree/infrastructure/persistence/snapshot"
	"github.com/indiafamilytree/familytree/pkg/observability"
)

type fakeDataService struct {
	mu            sync.Mutex
	personCreates int
	personUpdates int
	familyCreates int
	familyUpdates int
	failPersonIDs map[string]bool
}

func (f *fakeDataService) CreatePerson(ctx context.Context, record snapshot.PersonRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPersonIDs[record.ID] {
		return errors.New("rejected")
	}
	f.personCreates++
	return nil
}

func (f *fakeDataService) UpdatePerson(ctx context.Context, record snapshot.PersonRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPersonIDs[record.ID] {
		return errors.New("rejected")
	}
	f.personUpdates++
	return nil
}

func (f *fakeDataService) CreateFamily(ctx context.Context, record snapshot.FamilyRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.familyCreates++
	return nil
}

func (f *fakeDataService) UpdateFamily(ctx context.Context, record snapshot.FamilyRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.familyUpdates++
	return nil
}

type fakeBlobStore struct {
	mu      sync.Mutex
	puts    int
	failPut bool
	data    []byte
}

func (f *fakeBlobStore) GetSnapshot(ctx context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data, nil
}

func (f *fakeBlobStore) PutSnapshot(ctx context.Context, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPut {
		return errors.New("bucket unavailable")
	}
	f.puts++
	f.data = data
	return nil
}

type fakeMirror struct {
	mu   sync.Mutex
	ops  []string
	fail bool
}

func (f *fakeMirror) Operation(ctx context.Context, fieldName string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("mirror down")
	}
	f.ops = append(f.ops, fieldName)
	return nil
}

type staticSource struct {
	mu   sync.Mutex
	snap *snapshot.Snapshot
}

func (s *staticSource) Snapshot() *snapshot.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

func (s *staticSource) set(snap *snapshot.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
}

func newTestSync(source SnapshotSource, data *fakeDataService, blobs *fakeBlobStore, mirror *fakeMirror) *SyncService {
	var m ports.GraphMirror
	if mirror != nil {
		m = mirror
	}
	return NewSyncService(source, data, blobs, m, observability.NewCollector("test"), 5*time.Millisecond, zap.NewNop())
}

func singlePersonSnapshot(name string) *snapshot.Snapshot {
	return &snapshot.Snapshot{
		Persons: []snapshot.PersonRecord{
			{ID: "p1", Name: name, Gender: "male"},
		},
	}
}

func TestSyncService_Flush_CreateThenNoop(t *testing.T) {
	data := &fakeDataService{}
	blobs := &fakeBlobStore{}
	source := &staticSource{snap: singlePersonSnapshot("X")}
	svc := newTestSync(source, data, blobs, nil)

	require.NoError(t, svc.Flush(context.Background()))
	assert.Equal(t, 1, data.personCreates)
	assert.Equal(t, 1, blobs.puts)

	// Nothing changed, so the whole second pass is a no-op.
	require.NoError(t, svc.Flush(context.Background()))
	assert.Equal(t, 1, data.personCreates)
	assert.Equal(t, 0, data.personUpdates)
	assert.Equal(t, 1, blobs.puts)
}

func TestSyncService_Flush_OnlyChangedRecordsTravel(t *testing.T) {
	data := &fakeDataService{}
	blobs := &fakeBlobStore{}
	source := &staticSource{snap: singlePersonSnapshot("X")}
	svc := newTestSync(source, data, blobs, nil)

	require.NoError(t, svc.Flush(context.Background()))

	source.set(&snapshot.Snapshot{
		Persons: []snapshot.PersonRecord{
			{ID: "p1", Name: "X", Gender: "male"},
			{ID: "p2", Name: "Y", Gender: "female"},
		},
	})
	require.NoError(t, svc.Flush(context.Background()))

	// p1 is unchanged and skipped; only p2 is created.
	assert.Equal(t, 2, data.personCreates)
	assert.Equal(t, 0, data.personUpdates)
}

func TestSyncService_Flush_UpdatesChangedRecord(t *testing.T) {
	data := &fakeDataService{}
	blobs := &fakeBlobStore{}
	source := &staticSource{snap: singlePersonSnapshot("X")}
	svc := newTestSync(source, data, blobs, nil)

	require.NoError(t, svc.Flush(context.Background()))

	source.set(singlePersonSnapshot("X renamed"))
	require.NoError(t, svc.Flush(context.Background()))

	assert.Equal(t, 1, data.personCreates)
	assert.Equal(t, 1, data.personUpdates)
}

func TestSyncService_FailedRecordRetriesNextPass(t *testing.T) {
	data := &fakeDataService{failPersonIDs: map[string]bool{"p1": true}}
	blobs := &fakeBlobStore{}
	source := &staticSource{snap: singlePersonSnapshot("X")}
	svc := newTestSync(source, data, blobs, nil)

	err := svc.Flush(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, data.personCreates)

	// The backend recovers; the unadvanced hash forces a retry.
	data.mu.Lock()
	data.failPersonIDs = nil
	data.mu.Unlock()

	require.NoError(t, svc.Flush(context.Background()))
	assert.Equal(t, 1, data.personCreates)
}

func TestSyncService_LoadBaselinePreventsRepush(t *testing.T) {
	data := &fakeDataService{}
	blobs := &fakeBlobStore{}
	snap := singlePersonSnapshot("X")
	source := &staticSource{snap: snap}
	svc := newTestSync(source, data, blobs, nil)

	svc.LoadBaseline(snap)

	require.NoError(t, svc.Flush(context.Background()))
	assert.Equal(t, 0, data.personCreates)
	assert.Equal(t, 0, blobs.puts)
}

func TestSyncService_MirrorSpeaksDataServiceVocabulary(t *testing.T) {
	data := &fakeDataService{}
	blobs := &fakeBlobStore{}
	mirror := &fakeMirror{}
	source := &staticSource{snap: &snapshot.Snapshot{
		Persons:  []snapshot.PersonRecord{{ID: "p1", Name: "X", Gender: "male"}},
		Families: []snapshot.FamilyRecord{{ID: "f1", Signature: "X"}},
	}}
	svc := newTestSync(source, data, blobs, mirror)

	require.NoError(t, svc.Flush(context.Background()))
	assert.Equal(t, []string{"createPerson", "createFamily"}, mirror.ops)
}

func TestSyncService_MirrorFailureIsNonFatal(t *testing.T) {
	data := &fakeDataService{}
	blobs := &fakeBlobStore{}
	mirror := &fakeMirror{fail: true}
	source := &staticSource{snap: singlePersonSnapshot("X")}
	svc := newTestSync(source, data, blobs, mirror)

	require.NoError(t, svc.Flush(context.Background()))
	assert.Equal(t, 1, data.personCreates)
}

func TestSyncService_BlobFailureRetries(t *testing.T) {
	data := &fakeDataService{}
	blobs := &fakeBlobStore{failPut: true}
	source := &staticSource{snap: singlePersonSnapshot("X")}
	svc := newTestSync(source, data, blobs, nil)

	require.Error(t, svc.Flush(context.Background()))

	blobs.mu.Lock()
	blobs.failPut = false
	blobs.mu.Unlock()

	require.NoError(t, svc.Flush(context.Background()))
	assert.Equal(t, 1, blobs.puts)
}

func TestSyncService_MarkDirtyCoalesces(t *testing.T) {
	data := &fakeDataService{}
	blobs := &fakeBlobStore{}
	source := &staticSource{snap: singlePersonSnapshot("X")}
	svc := newTestSync(source, data, blobs, nil)
	defer svc.Stop()

	svc.MarkDirty()
	svc.MarkDirty()
	svc.MarkDirty()

	assert.Eventually(t, func() bool {
		data.mu.Lock()
		defer data.mu.Unlock()
		return data.personCreates == 1
	}, time.Second, 10*time.Millisecond)
}
