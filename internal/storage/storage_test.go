package storage

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/csvsentry/internal/config"
	"github.com/KaramelBytes/csvsentry/internal/utils"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

// exerciseStore runs the behavior every backend must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Fetch(ctx, "missing.csv")
	require.ErrorIs(t, err, ErrNotFound)

	ok, err := s.Exists(ctx, "missing.csv")
	require.NoError(t, err)
	assert.False(t, ok)

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	url, err := s.Put(ctx, "b.csv", []byte("ID\n1\n"), "text/csv")
	require.NoError(t, err)
	assert.Contains(t, url, "b.csv")
	_, err = s.Put(ctx, "a.json", []byte(`{"x":1}`), "application/json")
	require.NoError(t, err)

	got, err := s.Fetch(ctx, "b.csv")
	require.NoError(t, err)
	assert.Equal(t, "ID\n1\n", string(got))

	ok, err = s.Exists(ctx, "a.json")
	require.NoError(t, err)
	assert.True(t, ok)

	// Overwrite keeps a single entry.
	_, err = s.Put(ctx, "a.json", []byte(`{"x":2}`), "application/json")
	require.NoError(t, err)
	got, err = s.Fetch(ctx, "a.json")
	require.NoError(t, err)
	assert.Equal(t, `{"x":2}`, string(got))

	list, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b.csv", list[0].Name)
	assert.Equal(t, "text/csv", list[0].ContentType)
	assert.EqualValues(t, 5, list[0].Size)
	assert.Equal(t, "a.json", list[1].Name)
	assert.Equal(t, "application/json", list[1].ContentType)
	assert.False(t, list[1].CreatedOn.IsZero())
}

func TestLocalStore(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocal(root, "uploads")
	require.NoError(t, err)
	c := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s.now = c.now

	exerciseStore(t, s)

	// Sidecars are not listed and the files live under the container directory.
	_, err = os.Stat(filepath.Join(root, "uploads", "b.csv"+metaSuffix))
	require.NoError(t, err)
}

func TestLocalStoreRejectsUnsafeNames(t *testing.T) {
	s, err := NewLocal(t.TempDir(), "uploads")
	require.NoError(t, err)
	ctx := context.Background()

	for _, name := range []string{"../escape.csv", "x.csv.meta.json", "a/b"} {
		_, err := s.Put(ctx, name, []byte("x"), "text/plain")
		assert.ErrorIs(t, err, utils.ErrInvalidName, name)
	}
	_, err = s.Fetch(ctx, "../../etc/passwd")
	assert.ErrorIs(t, err, utils.ErrInvalidName)
}

func TestLocalStoreConcurrentPutSameName(t *testing.T) {
	l, err := NewLocal(t.TempDir(), "uploads")
	require.NoError(t, err)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = l.Put(ctx, "analysis-result-a.csv", []byte(`{"n":1}`), "application/json")
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	files, err := l.List(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "application/json", files[0].ContentType)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisWithClient(client, "test", "uploads")
	c := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s.now = c.now
	defer s.Close()

	exerciseStore(t, s)
	assert.True(t, mr.Exists("test:uploads:blob:b.csv"))
}

func TestNewSelectsBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.Global{StorageBackend: "local", StorageDir: t.TempDir(), StorageContainer: "uploads"}
	s, err := New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &Local{}, s)

	cfg.StorageBackend = "redis"
	cfg.RedisAddr = mr.Addr()
	s, err = New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &Redis{}, s)

	cfg.StorageBackend = "azure"
	_, err = New(cfg)
	assert.Error(t, err)

	cfg.StorageBackend = "ftp"
	_, err = New(cfg)
	assert.ErrorContains(t, err, "unknown storage backend")
}

func TestAzureStoreMapsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/devacct/uploads/"), r.URL.Path)
		w.Header().Set("x-ms-error-code", "BlobNotFound")
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s, err := NewAzure(AzureOptions{
		Account:   "devacct",
		Key:       base64.StdEncoding.EncodeToString([]byte("secret")),
		Endpoint:  srv.URL + "/devacct/",
		Container: "uploads",
	})
	require.NoError(t, err)

	_, err = s.Fetch(context.Background(), "nope.csv")
	require.ErrorIs(t, err, ErrNotFound)

	ok, err := s.Exists(context.Background(), "nope.csv")
	require.NoError(t, err)
	assert.False(t, ok)
}
