package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/KaramelBytes/csvsentry/internal/storage"
)

type memStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	types    map[string]string
	putFails int // fail this many Put calls before succeeding
	putCalls int
	fetchErr error
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memStore) Fetch(_ context.Context, name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	b, ok := m.objects[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, storage.ErrNotFound)
	}
	return b, nil
}

func (m *memStore) Put(_ context.Context, name string, data []byte, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putCalls++
	if m.putFails > 0 {
		m.putFails--
		return "", errors.New("transient store failure")
	}
	m.objects[name] = append([]byte(nil), data...)
	m.types[name] = contentType
	return "mem://" + name, nil
}

func (m *memStore) Exists(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[name]
	return ok, nil
}

func (m *memStore) List(_ context.Context) ([]storage.BlobInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]storage.BlobInfo, 0, len(m.objects))
	for name, b := range m.objects {
		out = append(out, storage.BlobInfo{Name: name, ContentType: m.types[name], Size: int64(len(b))})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type fakeSender struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (f *fakeSender) Send(_ context.Context, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, message)
	return nil
}

var fixedNow = time.Date(2024, 5, 6, 7, 8, 9, 10_000_000, time.UTC)

func fastRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}
