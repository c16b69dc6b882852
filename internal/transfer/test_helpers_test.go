package transfer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rohits-web03/transferly/internal/config"
	"github.com/rohits-web03/transferly/internal/models"
	"github.com/rohits-web03/transferly/internal/repositories"
)

// memoryBlobStore keeps blobs in memory and fails on demand, keyed by file name.
type memoryBlobStore struct {
	mu       sync.Mutex
	blobs    map[string][]byte
	deleted  []string
	failPut  map[string]error
	failSign map[string]error
	// blockPut makes Put of that file name wait until its context is done.
	blockPut map[string]bool
}

func newMemoryBlobStore() *memoryBlobStore {
	return &memoryBlobStore{
		blobs:    make(map[string][]byte),
		failPut:  make(map[string]error),
		failSign: make(map[string]error),
		blockPut: make(map[string]bool),
	}
}

func fileNameOf(path string) string {
	return path[strings.LastIndex(path, "/")+1:]
}

// Put stores the body after checking for injected failures.
func (s *memoryBlobStore) Put(ctx context.Context, path string, body io.Reader, size int64, _ string) error {
	name := fileNameOf(path)

	s.mu.Lock()
	failure, block := s.failPut[name], s.blockPut[name]
	s.mu.Unlock()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	if failure != nil {
		return failure
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if int64(len(data)) != size {
		return errors.Wrapf(repositories.ErrSizeMismatch, "%q", path)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[path] = data
	return nil
}

// Delete removes a blob and records the call.
func (s *memoryBlobStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, path)
	s.deleted = append(s.deleted, path)
	return nil
}

// SignURL returns a fake URL unless a failure was injected.
func (s *memoryBlobStore) SignURL(_ context.Context, path string, ttl time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failSign[fileNameOf(path)]; err != nil {
		return "", err
	}
	return fmt.Sprintf("memory://transfers/%s?ttl=%d", path, int(ttl.Seconds())), nil
}

func (s *memoryBlobStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}

// testClock is a controllable clock.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)}
}

// Now returns the frozen time.
func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t.
func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// newTestDB creates a migrated in-memory sqlite database.
func newTestDB(t *testing.T) *gorm.DB {
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s-%d?mode=memory&cache=shared", name, time.Now().UTC().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, repositories.Migrate(db))
	return db
}

func testSettings() Settings {
	return Settings{
		Tiers: config.Tiers{
			config.TierFree:    {MaxTotalSizeBytes: 10_000, MaxExpiryDays: 7, ShowAds: true},
			config.TierPremium: {MaxTotalSizeBytes: 1_000_000, MaxExpiryDays: 90, CustomBranding: true},
		},
		DefaultTier:       config.TierFree,
		SignedURLTTL:      time.Hour,
		BlobTimeout:       5 * time.Second,
		UploadConcurrency: 4,
		PasswordCost:      bcrypt.MinCost,
	}
}

type testEnv struct {
	db      *gorm.DB
	repo    *repositories.GormTransferRepository
	blobs   *memoryBlobStore
	clock   *testClock
	manager *Manager
}

// newTestEnv wires a manager to sqlite, an in-memory blob store and a frozen clock.
func newTestEnv(t *testing.T, settings Settings) *testEnv {
	db := newTestDB(t)
	env := &testEnv{
		db:    db,
		repo:  repositories.NewTransferRepository(db),
		blobs: newMemoryBlobStore(),
		clock: newTestClock(),
	}
	var err error
	env.manager, err = NewManager(env.repo, env.blobs, settings, nil, env.clock.Now)
	require.NoError(t, err)
	return env
}

// rowCounts returns the number of transfer and file rows.
func (e *testEnv) rowCounts(t *testing.T) (transfers, files int64) {
	require.NoError(t, e.db.Model(&models.Transfer{}).Count(&transfers).Error)
	require.NoError(t, e.db.Model(&models.File{}).Count(&files).Error)
	return transfers, files
}

func upload(name string, size int) FileUpload {
	return FileUpload{
		Name:     name,
		Size:     int64(size),
		MimeType: "application/octet-stream",
		Content:  bytes.NewReader(bytes.Repeat([]byte{'x'}, size)),
	}
}
