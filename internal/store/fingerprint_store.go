// Package store 管理指纹集合及其持久化
//
// 指纹集合整个进程生命周期由 FingerprintStore 持有：
// 启动时 Load 一次，之后每次变更（采样、删除房间）立即整体写回，
// 持久化状态最多落后内存状态一次操作。
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"wisefido-room-locator/internal/models"

	"go.uber.org/zap"
)

// FingerprintStore 指纹存储
//
// 集合仅由定位服务的单一处理循环修改，因此不做内部加锁，
// 串行化由调用方（service 层的循环互斥）保证。
type FingerprintStore struct {
	key          string
	list         ListStore
	logger       *zap.Logger
	fingerprints []models.Fingerprint
}

// NewFingerprintStore 创建指纹存储
func NewFingerprintStore(key string, list ListStore, logger *zap.Logger) *FingerprintStore {
	return &FingerprintStore{
		key:    key,
		list:   list,
		logger: logger,
	}
}

// Load 从持久化层加载指纹集合
//
// 键不存在时得到空集合；单条记录损坏时跳过该条并继续，
// 不因个别坏记录丢弃其余有效数据
func (s *FingerprintStore) Load(ctx context.Context) error {
	records, err := s.list.GetStringList(ctx, s.key)
	if err != nil {
		return fmt.Errorf("failed to load fingerprints: %w", err)
	}

	s.fingerprints = s.fingerprints[:0]
	for i, record := range records {
		var fp models.Fingerprint
		if err := json.Unmarshal([]byte(record), &fp); err != nil {
			s.logger.Warn("Skipping malformed fingerprint record",
				zap.Int("index", i),
				zap.Error(err),
			)
			continue
		}
		if err := fp.Validate(); err != nil {
			s.logger.Warn("Skipping invalid fingerprint record",
				zap.Int("index", i),
				zap.String("room", fp.Room),
				zap.String("location", fp.Location),
			)
			continue
		}
		s.fingerprints = append(s.fingerprints, fp)
	}

	s.logger.Info("Loaded fingerprint collection",
		zap.Int("records", len(records)),
		zap.Int("fingerprints", len(s.fingerprints)),
	)
	return nil
}

// save 将完整集合序列化写回持久化层（同步）
func (s *FingerprintStore) save(ctx context.Context) error {
	records := make([]string, 0, len(s.fingerprints))
	for _, fp := range s.fingerprints {
		data, err := json.Marshal(fp)
		if err != nil {
			return fmt.Errorf("failed to marshal fingerprint: %w", err)
		}
		records = append(records, string(data))
	}

	if err := s.list.SetStringList(ctx, s.key, records); err != nil {
		return fmt.Errorf("failed to persist fingerprints: %w", err)
	}
	return nil
}

// AddOrReplace 添加指纹；同一 (room, location) 的旧记录被替换
//
// 写失败时错误返回给调用方，内存集合仍保留本次变更
func (s *FingerprintStore) AddOrReplace(ctx context.Context, fp models.Fingerprint) error {
	if err := fp.Validate(); err != nil {
		return err
	}

	kept := s.fingerprints[:0]
	for _, existing := range s.fingerprints {
		if existing.Room == fp.Room && existing.Location == fp.Location {
			continue
		}
		kept = append(kept, existing)
	}
	s.fingerprints = append(kept, fp)

	return s.save(ctx)
}

// DeleteRoom 删除某房间的全部指纹（级联删除）
//
// 删除不存在的房间是幂等的：集合不变，也不触发写回
func (s *FingerprintStore) DeleteRoom(ctx context.Context, room string) error {
	kept := s.fingerprints[:0]
	removed := 0
	for _, fp := range s.fingerprints {
		if fp.Room == room {
			removed++
			continue
		}
		kept = append(kept, fp)
	}
	s.fingerprints = kept

	if removed == 0 {
		return nil
	}

	s.logger.Info("Deleted room fingerprints",
		zap.String("room", room),
		zap.Int("removed", removed),
	)
	return s.save(ctx)
}

// Fingerprints 返回集合的副本
func (s *FingerprintStore) Fingerprints() []models.Fingerprint {
	out := make([]models.Fingerprint, len(s.fingerprints))
	copy(out, s.fingerprints)
	return out
}

// Rooms 返回去重后的房间名列表，按首次出现顺序排列
// 分类器按同一顺序遍历，保证首个匹配结果确定
func (s *FingerprintStore) Rooms() []string {
	seen := make(map[string]bool)
	var rooms []string
	for _, fp := range s.fingerprints {
		if !seen[fp.Room] {
			seen[fp.Room] = true
			rooms = append(rooms, fp.Room)
		}
	}
	return rooms
}

// Len 返回集合中的指纹数量
func (s *FingerprintStore) Len() int {
	return len(s.fingerprints)
}
