package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hakchin/ppst/internal/models"
)

func newTestRepo(t *testing.T) *FileContactRepository {
	t.Helper()
	return NewFileContactRepository(filepath.Join(t.TempDir(), "data", "contacts"))
}

func sampleInquiry(ts time.Time) models.ContactInquiry {
	email := "test@example.com"
	subject := "Test Subject"
	return models.NewContactInquiry(models.ContactFields{
		Name:    "Test User",
		Email:   &email,
		Subject: &subject,
		Message: "This is a test message for integration testing.",
	}, ts, "TestAgent/1.0", "127.0.0.1")
}

func writeRaw(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestFileContactRepositorySaveCreatesDirectoryAndFile(t *testing.T) {
	repo := newTestRepo(t)
	_, err := os.Stat(repo.Dir())
	require.True(t, os.IsNotExist(err))

	inquiry := sampleInquiry(time.Date(2025, time.January, 22, 12, 0, 0, 0, time.UTC))
	path, err := repo.Save(context.Background(), inquiry)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(repo.Dir(), "2025-01-22T12-00-00-000Z.json"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(raw), "\n  \"name\": \"Test User\"")
	require.Contains(t, string(raw), "\"phone\": null")

	var saved models.ContactInquiry
	require.NoError(t, json.Unmarshal(raw, &saved))
	require.Equal(t, inquiry, saved)

	entries, err := os.ReadDir(repo.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestFileContactRepositorySaveNeverOverwrites(t *testing.T) {
	repo := newTestRepo(t)
	inquiry := sampleInquiry(time.Date(2025, time.January, 22, 12, 30, 0, 0, time.UTC))

	_, err := repo.Save(context.Background(), inquiry)
	require.NoError(t, err)

	_, err = repo.Save(context.Background(), inquiry)
	require.ErrorIs(t, err, ErrInquiryExists)

	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	require.Equal(t, "link", storageErr.Op)
}

func TestFileContactRepositorySaveRejectsUnsafeID(t *testing.T) {
	repo := newTestRepo(t)

	for _, id := range []string{"", "..", "../escape", "a/b", ".hidden"} {
		_, err := repo.Save(context.Background(), models.ContactInquiry{ID: id, Name: "n", Message: "m"})
		require.ErrorIs(t, err, ErrInvalidInquiryID, "id %q", id)
	}
}

func TestFileContactRepositorySaveHonoursCancelledContext(t *testing.T) {
	repo := newTestRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Save(ctx, sampleInquiry(time.Now()))
	require.ErrorIs(t, err, context.Canceled)
}

func TestFileContactRepositoryDirectoryFailureIsStorageError(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "data")
	require.NoError(t, os.WriteFile(blocker, []byte("not a directory"), 0o644))

	repo := NewFileContactRepository(filepath.Join(blocker, "contacts"))
	require.Error(t, repo.EnsureDir())

	_, err := repo.Save(context.Background(), sampleInquiry(time.Now()))
	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	require.Equal(t, "mkdir", storageErr.Op)
}

func TestFileContactRepositoryProbeDoesNotCreateDirectory(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.Probe()
	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	require.Equal(t, "stat", storageErr.Op)
	_, statErr := os.Stat(repo.Dir())
	require.True(t, os.IsNotExist(statErr))

	require.NoError(t, repo.EnsureDir())
	require.NoError(t, repo.Probe())

	file := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
	require.Error(t, NewFileContactRepository(file).Probe())
}

func TestFileContactRepositoryListMissingDirectory(t *testing.T) {
	repo := newTestRepo(t)

	docs, err := repo.List(context.Background())
	require.NoError(t, err)
	require.NotNil(t, docs)
	require.Empty(t, docs)
}

func TestFileContactRepositoryRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	inquiry := sampleInquiry(time.Date(2025, time.November, 22, 15, 50, 22, 729296000, time.UTC))

	_, err := repo.Save(context.Background(), inquiry)
	require.NoError(t, err)

	docs, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)

	var decoded models.ContactInquiry
	require.NoError(t, docs[0].decodeInto(&decoded))
	require.Equal(t, inquiry, decoded)
}

func TestFileContactRepositoryListOrdersByFileName(t *testing.T) {
	repo := newTestRepo(t)
	times := []time.Time{
		time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC),
		time.Date(2024, time.December, 31, 23, 59, 59, 999000000, time.UTC),
		time.Date(2025, time.March, 3, 9, 0, 0, 1000000, time.UTC),
	}
	for _, ts := range times {
		_, err := repo.Save(context.Background(), sampleInquiry(ts))
		require.NoError(t, err)
	}
	writeRaw(t, repo.Dir(), "notes.txt", "ignored")
	writeRaw(t, repo.Dir(), ".2025-01-01T00-00-00-000Z-123.tmp", "{")
	require.NoError(t, os.Mkdir(filepath.Join(repo.Dir(), "archive.json"), 0o755))

	docs, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 3)
	require.Equal(t, "2024-12-31T23-59-59-999Z", docs[0]["id"])
	require.Equal(t, "2025-03-03T09-00-00-000Z", docs[1]["id"])
	require.Equal(t, "2025-03-03T09-00-00-001Z", docs[2]["id"])
}

func TestFileContactRepositoryNormalizesExpandedYear(t *testing.T) {
	repo := newTestRepo(t)
	writeRaw(t, repo.Dir(), "2025-11-22T15-50-22-729Z.json", `{
  "id": "2025-11-22T15-50-22-729Z",
  "submitted_at": "+002025-11-22T15:50:22.729296000Z",
  "name": "Unit",
  "email": null,
  "phone": null,
  "subject": null,
  "message": "M",
  "user_agent": null,
  "ip_address": null
}`)

	docs, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "2025-11-22T15:50:22.729296000Z", docs[0]["submitted_at"])

	var decoded models.ContactInquiry
	require.NoError(t, docs[0].decodeInto(&decoded))
	require.Equal(t, 2025, decoded.SubmittedAt.Year())
}

func TestFileContactRepositoryReadsLegacyDocuments(t *testing.T) {
	repo := newTestRepo(t)
	writeRaw(t, repo.Dir(), "2025-01-05T08-00-00Z.json", `{
  "name": "Legacy",
  "phone": "01012345678",
  "message": "from the first release",
  "submitted_at": "2025-01-05T08:00:00Z",
  "priority": 3
}`)

	docs, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, json.Number("3"), docs[0]["priority"])
	require.Equal(t, "01012345678", docs[0]["phone"])
}

func TestFileContactRepositoryCorruptFileFailsList(t *testing.T) {
	cases := map[string]string{
		"unparseable":   `{"name": "broken"`,
		"not an object": `["a", "b"]`,
		"trailing data": `{"name":"a","message":"b","submitted_at":"2025-01-01T00:00:00Z"} {}`,
		"missing field": `{"name":"a","submitted_at":"2025-01-01T00:00:00Z"}`,
		"wrong type":    `{"name":"a","message":"b","submitted_at":"2025-01-01T00:00:00Z","email":42}`,
		"bad timestamp": `{"name":"a","message":"b","submitted_at":"yesterday"}`,
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			repo := newTestRepo(t)
			_, err := repo.Save(context.Background(), sampleInquiry(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)))
			require.NoError(t, err)
			writeRaw(t, repo.Dir(), "2025-06-01T00-00-00-000Z.json", content)

			docs, err := repo.List(context.Background())
			require.Nil(t, docs)

			var serializationErr *SerializationError
			require.ErrorAs(t, err, &serializationErr)
			require.Contains(t, serializationErr.Path, "2025-06-01T00-00-00-000Z.json")

			var storageErr *StorageError
			require.False(t, errors.As(err, &storageErr))
		})
	}
}

func TestFileContactRepositoryConcurrentSaves(t *testing.T) {
	repo := newTestRepo(t)
	base := time.Date(2025, time.May, 5, 5, 5, 5, 0, time.UTC)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Save(context.Background(), sampleInquiry(base.Add(time.Duration(i)*time.Millisecond)))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	docs, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 20)
	for i, doc := range docs {
		require.Equal(t, models.InquiryID(base.Add(time.Duration(i)*time.Millisecond)), doc["id"], fmt.Sprintf("position %d", i))
	}
}

func TestMarshalCompactKeepsMarkup(t *testing.T) {
	out, err := MarshalCompact(map[string]string{"message": "x<3 & y>2"})
	require.NoError(t, err)
	require.Equal(t, `{"message":"x<3 & y>2"}`, string(out))
}
