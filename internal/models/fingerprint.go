package models

import "errors"

// AccessPointReading 一次扫描得到的接入点信号读数
// 键为接入点标识（BSSID 等稳定字符串），值为信号强度（dBm，通常为负数，越大越强）
type AccessPointReading map[string]int

// Fingerprint 一条校准采样指纹
// 同一 (room, location) 只保留最新一条，重新采样时替换旧值
type Fingerprint struct {
	Room     string             `json:"room"`
	Location string             `json:"location"`
	Signals  AccessPointReading `json:"signals"`
}

// ErrInvalidFingerprint 指纹记录缺少必要字段
var ErrInvalidFingerprint = errors.New("invalid fingerprint record")

// Validate 校验指纹记录的必要字段
func (f *Fingerprint) Validate() error {
	if f.Room == "" || f.Location == "" || f.Signals == nil {
		return ErrInvalidFingerprint
	}
	return nil
}

// SignalRange 某接入点在某房间内观测到的信号强度闭区间
type SignalRange struct {
	Min int
	Max int
}

// Contains 判断信号强度是否落在区间内（含边界）
func (r SignalRange) Contains(rssi int) bool {
	return rssi >= r.Min && rssi <= r.Max
}
