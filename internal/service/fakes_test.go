package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"wisefido-room-locator/internal/models"
	"wisefido-room-locator/internal/scanner"
)

// fakeScanSource 仅用于单元测试：按队列返回预置读数
type fakeScanSource struct {
	mu       sync.Mutex
	readings []models.AccessPointReading
	scans    int // Results 调用计数
	triggers int // StartScan 调用计数
}

func (f *fakeScanSource) Start(ctx context.Context) error { return nil }
func (f *fakeScanSource) Stop(ctx context.Context) error  { return nil }

func (f *fakeScanSource) StartScan(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggers++
	return nil
}

func (f *fakeScanSource) Results(ctx context.Context) (models.AccessPointReading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scans++
	if len(f.readings) == 0 {
		return nil, scanner.ErrScanTimeout
	}
	reading := f.readings[0]
	f.readings = f.readings[1:]
	return reading, nil
}

func (f *fakeScanSource) queue(readings ...models.AccessPointReading) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readings = append(f.readings, readings...)
}

// fakeKVStore 仅用于单元测试（内存 KV）
type fakeKVStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeKVStore() *fakeKVStore {
	return &fakeKVStore{data: make(map[string]string)}
}

func (f *fakeKVStore) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	val, ok := f.data[key]
	if !ok {
		return "", errors.New("cache miss")
	}
	return val, nil
}

func (f *fakeKVStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return nil
}

// fakeListStore 仅用于单元测试（内存字符串列表）
type fakeListStore struct {
	mu   sync.Mutex
	data map[string][]string
}

func newFakeListStore() *fakeListStore {
	return &fakeListStore{data: make(map[string][]string)}
}

func (f *fakeListStore) GetStringList(ctx context.Context, key string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	values := make([]string, len(f.data[key]))
	copy(values, f.data[key])
	return values, nil
}

func (f *fakeListStore) SetStringList(ctx context.Context, key string, values []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := make([]string, len(values))
	copy(stored, values)
	f.data[key] = stored
	return nil
}

// fakePublisher 仅用于单元测试：收集发布的事件
type fakePublisher struct {
	mu     sync.Mutex
	events []interface{}
}

func (f *fakePublisher) Publish(ctx context.Context, event interface{}) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return "1-1", nil
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}
