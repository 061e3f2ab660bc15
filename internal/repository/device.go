package repository

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// DeviceRepository 被跟踪设备仓库
//
// 定位服务只处理已登记设备上报的扫描数据，
// 未登记的发布者被丢弃
type DeviceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDeviceRepository 创建设备仓库
func NewDeviceRepository(db *sql.DB, logger *zap.Logger) *DeviceRepository {
	return &DeviceRepository{
		db:     db,
		logger: logger,
	}
}

// GetDeviceBySerialNumber 根据序列号获取设备
func (r *DeviceRepository) GetDeviceBySerialNumber(serialNumber string) (*Device, error) {
	query := `
		SELECT
			d.device_id,
			d.tenant_id,
			d.serial_number,
			d.mac_address,
			d.device_name,
			d.status
		FROM tracked_devices d
		WHERE d.serial_number = $1
		LIMIT 1
	`

	device := &Device{}
	err := r.db.QueryRow(query, serialNumber).Scan(
		&device.DeviceID,
		&device.TenantID,
		&device.SerialNumber,
		&device.MACAddress,
		&device.DeviceName,
		&device.Status,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("device not found: %s", serialNumber)
		}
		return nil, fmt.Errorf("failed to query device: %w", err)
	}

	return device, nil
}

// GetDeviceByMAC 根据 MAC 地址获取设备
func (r *DeviceRepository) GetDeviceByMAC(mac string) (*Device, error) {
	query := `
		SELECT
			d.device_id,
			d.tenant_id,
			d.serial_number,
			d.mac_address,
			d.device_name,
			d.status
		FROM tracked_devices d
		WHERE d.mac_address = $1
		LIMIT 1
	`

	device := &Device{}
	err := r.db.QueryRow(query, mac).Scan(
		&device.DeviceID,
		&device.TenantID,
		&device.SerialNumber,
		&device.MACAddress,
		&device.DeviceName,
		&device.Status,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("device not found: %s", mac)
		}
		return nil, fmt.Errorf("failed to query device: %w", err)
	}

	return device, nil
}

// Device 被跟踪设备模型
type Device struct {
	DeviceID     string
	TenantID     string
	SerialNumber string
	MACAddress   string
	DeviceName   string
	Status       string
}
