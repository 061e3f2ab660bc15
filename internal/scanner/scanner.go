// Package scanner 提供扫描源抽象及其 MQTT 实现
//
// 扫描源是外部协作者：触发一次扫描（可能失败），
// 稍后取回一组 (接入点标识, 信号强度) 读数。
// 扫描可能很慢、可能超时、结果可能为空，上层必须容忍。
package scanner

import (
	"context"
	"errors"

	"wisefido-room-locator/internal/models"
)

// ErrScanTimeout 等待扫描结果超时
var ErrScanTimeout = errors.New("timed out waiting for scan results")

// ScanSource 扫描源
type ScanSource interface {
	// Start 建立对扫描结果的订阅
	Start(ctx context.Context) error
	// Stop 释放订阅
	Stop(ctx context.Context) error
	// StartScan 触发一次扫描（fire-and-forget）
	StartScan(ctx context.Context) error
	// Results 等待并返回最新一次扫描读数
	Results(ctx context.Context) (models.AccessPointReading, error)
}
