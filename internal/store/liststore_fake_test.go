package store_test

import (
	"context"
	"errors"
	"sync"
)

// fakeListStore 仅用于单元测试（内存字符串列表存储）
type fakeListStore struct {
	mu    sync.Mutex
	data  map[string][]string
	fail  bool // 置为 true 时 SetStringList 返回错误，模拟写失败
	saves int  // SetStringList 调用计数
}

func newFakeListStore() *fakeListStore {
	return &fakeListStore{
		data: make(map[string][]string),
	}
}

func (f *fakeListStore) GetStringList(ctx context.Context, key string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, ok := f.data[key]
	if !ok {
		return nil, nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out, nil
}

func (f *fakeListStore) SetStringList(ctx context.Context, key string, values []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.saves++
	if f.fail {
		return errors.New("write failed")
	}
	stored := make([]string, len(values))
	copy(stored, values)
	f.data[key] = stored
	return nil
}
