package scanner

import (
	"context"
	"fmt"
	"testing"
	"time"

	"wisefido-room-locator/internal/config"
	"wisefido-room-locator/internal/models"
	"wisefido-room-locator/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeResolver 仅用于单元测试：按序列号白名单解析设备
type fakeResolver struct {
	known map[string]bool
}

func (f *fakeResolver) GetDeviceBySerialNumber(serial string) (*repository.Device, error) {
	if f.known[serial] {
		return &repository.Device{DeviceID: "dev-1", SerialNumber: serial}, nil
	}
	return nil, fmt.Errorf("device not found: %s", serial)
}

func newTestSource(known ...string) *MQTTScanSource {
	cfg, _ := config.Load()
	cfg.Locator.ScanTimeout = 1

	resolver := &fakeResolver{known: make(map[string]bool)}
	for _, s := range known {
		resolver.known[s] = true
	}

	// mqttClient 只在 Start/Stop/StartScan 中使用，报文解析测试不需要
	return NewMQTTScanSource(cfg, nil, resolver, zap.NewNop())
}

func TestHandleMessage_ParsesReading(t *testing.T) {
	src := newTestSource("phone-001")

	payload := []byte(`{"aps":[{"bssid":"aa:aa","rssi":-50},{"bssid":"bb:bb","rssi":-72}]}`)
	require.NoError(t, src.handleMessage("wifi/phone-001/scan", payload))

	reading, err := src.Results(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.AccessPointReading{"aa:aa": -50, "bb:bb": -72}, reading)
}

func TestHandleMessage_InvalidTopic(t *testing.T) {
	src := newTestSource("phone-001")

	err := src.handleMessage("wifi", []byte(`{"aps":[]}`))
	require.Error(t, err)
}

func TestHandleMessage_UnknownDevice(t *testing.T) {
	src := newTestSource("phone-001")

	err := src.handleMessage("wifi/stranger/scan", []byte(`{"aps":[{"bssid":"aa:aa","rssi":-50}]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestHandleMessage_MalformedPayload(t *testing.T) {
	src := newTestSource("phone-001")

	err := src.handleMessage("wifi/phone-001/scan", []byte(`not-json`))
	require.Error(t, err)
}

func TestHandleMessage_KeepsLatestReading(t *testing.T) {
	src := newTestSource("phone-001")

	require.NoError(t, src.handleMessage("wifi/phone-001/scan", []byte(`{"aps":[{"bssid":"aa:aa","rssi":-50}]}`)))
	require.NoError(t, src.handleMessage("wifi/phone-001/scan", []byte(`{"aps":[{"bssid":"aa:aa","rssi":-60}]}`)))

	// 未消费的旧读数被新读数覆盖
	reading, err := src.Results(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.AccessPointReading{"aa:aa": -60}, reading)
}

func TestResults_Timeout(t *testing.T) {
	src := newTestSource("phone-001")

	start := time.Now()
	_, err := src.Results(context.Background())
	require.ErrorIs(t, err, ErrScanTimeout)
	assert.GreaterOrEqual(t, time.Since(start), time.Second)
}

func TestResults_EmptyReport(t *testing.T) {
	src := newTestSource("phone-001")

	// 空扫描结果合法，上层按空读数处理
	require.NoError(t, src.handleMessage("wifi/phone-001/scan", []byte(`{"aps":[]}`)))

	reading, err := src.Results(context.Background())
	require.NoError(t, err)
	assert.Empty(t, reading)
}
