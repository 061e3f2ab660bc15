// Package locator 实现基于信号包络的房间分类
//
// 每个房间的包络由该房间全部指纹按接入点取信号强度的最小/最大值得到。
// 分类时只约束实时读数中出现、且包络中也有记录的接入点；
// 双方任一缺失该接入点都不构成约束。
package locator

import (
	"wisefido-room-locator/internal/models"

	"go.uber.org/zap"
)

// RoomUnknown 分类失败时的返回值
const RoomUnknown = "unknown"

// Classifier 房间分类器
type Classifier struct {
	logger *zap.Logger
}

// NewClassifier 创建分类器
func NewClassifier(logger *zap.Logger) *Classifier {
	return &Classifier{logger: logger}
}

// RoomEnvelope 计算某房间的信号包络（按需派生，不持久化）
func RoomEnvelope(fingerprints []models.Fingerprint, room string) map[string]models.SignalRange {
	envelope := make(map[string]models.SignalRange)
	for _, fp := range fingerprints {
		if fp.Room != room {
			continue
		}
		for bssid, rssi := range fp.Signals {
			r, ok := envelope[bssid]
			if !ok {
				envelope[bssid] = models.SignalRange{Min: rssi, Max: rssi}
				continue
			}
			if rssi < r.Min {
				r.Min = rssi
			}
			if rssi > r.Max {
				r.Max = rssi
			}
			envelope[bssid] = r
		}
	}
	return envelope
}

// Classify 将实时读数匹配到房间，无匹配时返回 RoomUnknown
//
// 房间按指纹集合中的首次出现顺序遍历，返回第一个兼容的房间。
// 不做打分或最优选择：首个匹配即结果。
// 空读数对任何包络都无约束，会命中遍历顺序中的第一个房间。
// 集合为空时直接返回 RoomUnknown；调用方负责区分
// "无数据" 与 "有数据但未匹配" 两种可观测结果。
func (c *Classifier) Classify(reading models.AccessPointReading, fingerprints []models.Fingerprint) string {
	if len(fingerprints) == 0 {
		return RoomUnknown
	}

	seen := make(map[string]bool)
	for _, fp := range fingerprints {
		if seen[fp.Room] {
			continue
		}
		seen[fp.Room] = true

		envelope := RoomEnvelope(fingerprints, fp.Room)
		if matches(reading, envelope) {
			c.logger.Debug("Classified reading",
				zap.String("room", fp.Room),
				zap.Int("access_points", len(reading)),
			)
			return fp.Room
		}
	}

	return RoomUnknown
}

// matches 判断读数是否与包络兼容
// 只检查读数和包络中同时存在的接入点
func matches(reading models.AccessPointReading, envelope map[string]models.SignalRange) bool {
	for bssid, rssi := range reading {
		r, ok := envelope[bssid]
		if !ok {
			continue
		}
		if !r.Contains(rssi) {
			return false
		}
	}
	return true
}
