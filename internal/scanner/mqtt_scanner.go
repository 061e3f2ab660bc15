package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"wisefido-room-locator/internal/config"
	"wisefido-room-locator/internal/models"
	mqttcommon "wisefido-room-locator/internal/mqtt"
	"wisefido-room-locator/internal/repository"

	"go.uber.org/zap"
)

// DeviceResolver 解析上报扫描数据的设备（允许在单元测试中替换数据库仓库）
type DeviceResolver interface {
	GetDeviceBySerialNumber(serialNumber string) (*repository.Device, error)
}

// MQTTScanSource 基于 MQTT 的扫描源
//
// 被跟踪设备在 wifi/{serial}/scan 上报扫描结果；
// StartScan 向 wifi/{serial}/command 发布扫描命令。
// 未登记设备的上报被丢弃。
type MQTTScanSource struct {
	config     *config.Config
	mqttClient *mqttcommon.Client
	devices    DeviceResolver
	logger     *zap.Logger

	// 最新一次扫描读数，容量 1，新结果覆盖旧结果
	pending chan models.AccessPointReading
}

// NewMQTTScanSource 创建 MQTT 扫描源
func NewMQTTScanSource(
	cfg *config.Config,
	mqttClient *mqttcommon.Client,
	devices DeviceResolver,
	logger *zap.Logger,
) *MQTTScanSource {
	return &MQTTScanSource{
		config:     cfg,
		mqttClient: mqttClient,
		devices:    devices,
		logger:     logger,
		pending:    make(chan models.AccessPointReading, 1),
	}
}

// Start 订阅扫描结果主题
func (s *MQTTScanSource) Start(ctx context.Context) error {
	if err := s.mqttClient.Subscribe(s.config.Locator.Topics.Scan, 1, s.handleMessage); err != nil {
		return fmt.Errorf("failed to subscribe to scan topic: %w", err)
	}

	s.logger.Info("Scan source started",
		zap.String("topic", s.config.Locator.Topics.Scan),
	)
	return nil
}

// Stop 取消订阅
func (s *MQTTScanSource) Stop(ctx context.Context) error {
	if err := s.mqttClient.Unsubscribe(s.config.Locator.Topics.Scan); err != nil {
		s.logger.Error("Failed to unsubscribe", zap.Error(err))
	}

	s.logger.Info("Scan source stopped")
	return nil
}

// StartScan 向被跟踪设备发布扫描命令
//
// 未配置设备序列号时设备按自身周期上报，命令发布被跳过
func (s *MQTTScanSource) StartScan(ctx context.Context) error {
	serial := s.config.Locator.DeviceSerial
	if serial == "" {
		s.logger.Debug("No device serial configured, skipping scan command")
		return nil
	}

	topic := strings.Replace(s.config.Locator.Topics.Command, "+", serial, 1)
	payload := []byte(`{"command":"scan"}`)

	if err := s.mqttClient.Publish(topic, 1, false, payload); err != nil {
		return fmt.Errorf("failed to publish scan command: %w", err)
	}
	return nil
}

// Results 等待下一份扫描读数
//
// 超过配置的扫描超时仍无结果时返回 ErrScanTimeout，
// 由调用方按"本周期读数为空"处理
func (s *MQTTScanSource) Results(ctx context.Context) (models.AccessPointReading, error) {
	timeout := time.Duration(s.config.Locator.ScanTimeout) * time.Second
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case reading := <-s.pending:
		return reading, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ErrScanTimeout
	}
}

// handleMessage 处理扫描结果报文
// 主题格式: wifi/{serial}/scan
func (s *MQTTScanSource) handleMessage(topic string, payload []byte) error {
	parts := strings.Split(topic, "/")
	if len(parts) < 3 {
		return fmt.Errorf("invalid topic format: %s", topic)
	}
	serial := parts[1]

	// 只接受已登记设备的上报
	if s.devices != nil {
		if _, err := s.devices.GetDeviceBySerialNumber(serial); err != nil {
			s.logger.Warn("Discarding scan report from unknown device",
				zap.String("serial", serial),
			)
			return fmt.Errorf("device not registered: %s", serial)
		}
	}

	var report models.ScanReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return fmt.Errorf("failed to unmarshal scan report: %w", err)
	}

	reading := report.Reading()
	s.logger.Debug("Received scan report",
		zap.String("serial", serial),
		zap.Int("access_points", len(reading)),
	)

	// 丢弃未被消费的旧读数，始终只保留最新一份
	select {
	case <-s.pending:
	default:
	}
	s.pending <- reading

	return nil
}
