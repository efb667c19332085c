package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	failKey string
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: make(map[string][]byte)}
}

func (m *memoryStorage) ListObjects(_ context.Context, prefix string) ([]ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ObjectInfo
	for k, v := range m.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, ObjectInfo{Key: k, Size: int64(len(v))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *memoryStorage) DownloadObject(_ context.Context, key, destPath string) error {
	m.mu.Lock()
	data, ok := m.objects[key]
	m.mu.Unlock()
	if !ok {
		return errors.New("not found")
	}
	return os.WriteFile(destPath, data, 0o644)
}

func (m *memoryStorage) UploadObject(_ context.Context, key string, data []byte) error {
	if key == m.failKey {
		return errors.New("upload refused")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func TestDownloadInputs(t *testing.T) {
	store := newMemoryStorage()
	store.objects["inputs/sales.csv"] = []byte("s")
	store.objects["inputs/stock.xlsx"] = []byte("x")
	store.objects["inputs/notes.txt"] = []byte("n")
	store.objects["inputs/other.csv"] = []byte("o")
	dir := t.TempDir()

	paths, err := DownloadInputs(context.Background(), store, "inputs/", dir, []string{"sales", "stock", "products"})
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(dir, "sales.csv"), filepath.Join(dir, "stock.xlsx")}, paths)
	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Equal(t, "s", string(data))
}

func TestUploadFiles(t *testing.T) {
	store := newMemoryStorage()
	dir := t.TempDir()
	a := filepath.Join(dir, "ai_alerts.csv")
	b := filepath.Join(dir, "transfer_suggestions.csv")
	require.NoError(t, os.WriteFile(a, []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("b"), 0o644))

	keys, err := UploadFiles(context.Background(), store, "signals/run-1", []string{a, b})
	require.NoError(t, err)

	assert.Equal(t, []string{"signals/run-1/ai_alerts.csv", "signals/run-1/transfer_suggestions.csv"}, keys)
	assert.Equal(t, []byte("b"), store.objects["signals/run-1/transfer_suggestions.csv"])
}

func TestUploadFilesPropagatesErrors(t *testing.T) {
	store := newMemoryStorage()
	store.failKey = "out/x.csv"
	file := filepath.Join(t.TempDir(), "x.csv")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := UploadFiles(context.Background(), store, "out", []string{file})
	assert.ErrorContains(t, err, "upload refused")
}

func TestSplitEndpoint(t *testing.T) {
	host, secure := splitEndpoint("https://s3.example.com", false)
	assert.Equal(t, "s3.example.com", host)
	assert.True(t, secure)

	host, secure = splitEndpoint("http://minio:9000", true)
	assert.Equal(t, "minio:9000", host)
	assert.False(t, secure)

	host, secure = splitEndpoint("minio:9000", true)
	assert.Equal(t, "minio:9000", host)
	assert.True(t, secure)
}

func TestNewS3ClientValidates(t *testing.T) {
	_, err := NewS3Client(S3Config{})
	assert.ErrorContains(t, err, "endpoint")

	_, err = NewS3Client(S3Config{Endpoint: "minio:9000"})
	assert.ErrorContains(t, err, "credentials")

	_, err = NewS3Client(S3Config{Endpoint: "minio:9000", AccessKey: "a", SecretKey: "b"})
	assert.ErrorContains(t, err, "bucket")

	client, err := NewS3Client(S3Config{Endpoint: "minio:9000", AccessKey: "a", SecretKey: "b", Bucket: "signals"})
	require.NoError(t, err)
	assert.Equal(t, "signals", client.bucket)
}

func TestRunPrefix(t *testing.T) {
	assert.Equal(t, "signals/run-7", RunPrefix("signals/", 7))
	assert.Equal(t, "run-7", RunPrefix("", 7))
}
