package service

import (
	"sync"
	"time"
)

// Metrics 监控指标
type Metrics struct {
	mu sync.RWMutex

	// 处理循环统计
	TicksProcessed  int64 // 处理的周期总数
	ScanFailures    int64 // 扫描失败（出错或超时）次数
	Classifications int64 // 执行的分类次数
	RoomChanges     int64 // 定位结果变化次数

	// 校准统计
	CapturesProcessed int64 // 成功的采样次数

	// 时间指标
	LastTickTime time.Time // 最后一次处理时间
	StartTime    time.Time // 启动时间
}

// GetSnapshot 获取指标快照（线程安全）
func (m *Metrics) GetSnapshot() Metrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Metrics{
		TicksProcessed:    m.TicksProcessed,
		ScanFailures:      m.ScanFailures,
		Classifications:   m.Classifications,
		RoomChanges:       m.RoomChanges,
		CapturesProcessed: m.CapturesProcessed,
		LastTickTime:      m.LastTickTime,
		StartTime:         m.StartTime,
	}
}

// IncrementTicks 增加周期计数
func (m *Metrics) IncrementTicks() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TicksProcessed++
	m.LastTickTime = time.Now()
}

// IncrementScanFailures 增加扫描失败计数
func (m *Metrics) IncrementScanFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ScanFailures++
}

// IncrementClassifications 增加分类计数
func (m *Metrics) IncrementClassifications() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Classifications++
}

// IncrementRoomChanges 增加房间变化计数
func (m *Metrics) IncrementRoomChanges() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RoomChanges++
}

// IncrementCaptures 增加采样计数
func (m *Metrics) IncrementCaptures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CapturesProcessed++
}
