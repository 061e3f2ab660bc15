package calibration_test

import (
	"context"
	"errors"
	"testing"

	"wisefido-room-locator/internal/calibration"
	"wisefido-room-locator/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recordingStore 仅用于单元测试：记录提交的指纹
type recordingStore struct {
	captured []models.Fingerprint
	fail     error
}

func (r *recordingStore) AddOrReplace(ctx context.Context, fp models.Fingerprint) error {
	if r.fail != nil {
		return r.fail
	}
	r.captured = append(r.captured, fp)
	return nil
}

func newController(store *recordingStore) *calibration.Controller {
	return calibration.NewController(nil, store, zap.NewNop())
}

func TestStart_EmptyRoomName(t *testing.T) {
	c := newController(&recordingStore{})

	_, err := c.Start("")
	require.ErrorIs(t, err, calibration.ErrEmptyRoomName)
	assert.False(t, c.Active())
}

func TestStart_ReturnsFirstLocation(t *testing.T) {
	c := newController(&recordingStore{})

	first, err := c.Start("Office")
	require.NoError(t, err)
	assert.Equal(t, "corner1", first)

	room, next, active := c.Progress()
	assert.True(t, active)
	assert.Equal(t, "Office", room)
	assert.Equal(t, "corner1", next)
}

func TestCapture_WhileIdle(t *testing.T) {
	c := newController(&recordingStore{})

	// 空闲状态下采样是状态误用，必须显式报错
	_, _, err := c.Capture(context.Background(), models.AccessPointReading{"AP1": -50})
	require.ErrorIs(t, err, calibration.ErrNotCalibrating)
}

func TestCapture_AdvancesOneLocationPerCall(t *testing.T) {
	store := &recordingStore{}
	c := newController(store)
	ctx := context.Background()

	_, err := c.Start("Office")
	require.NoError(t, err)

	next, done, err := c.Capture(ctx, models.AccessPointReading{"AP1": -40})
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, "corner2", next)

	require.Len(t, store.captured, 1)
	assert.Equal(t, "Office", store.captured[0].Room)
	assert.Equal(t, "corner1", store.captured[0].Location)
}

func TestCalibration_FullSequenceReturnsToIdle(t *testing.T) {
	store := &recordingStore{}
	c := newController(store)
	ctx := context.Background()

	_, err := c.Start("Office")
	require.NoError(t, err)

	// 五个位置依次采样，最后一次返回 done，控制器回到空闲
	reading := models.AccessPointReading{"AP1": -40}
	var done bool
	for i := 0; i < len(calibration.DefaultLocations); i++ {
		_, done, err = c.Capture(ctx, reading)
		require.NoError(t, err)
	}

	assert.True(t, done)
	assert.False(t, c.Active())

	require.Len(t, store.captured, len(calibration.DefaultLocations))
	for i, loc := range calibration.DefaultLocations {
		assert.Equal(t, loc, store.captured[i].Location)
	}
}

func TestStart_OverwritesActiveSession(t *testing.T) {
	store := &recordingStore{}
	c := newController(store)
	ctx := context.Background()

	_, err := c.Start("Office")
	require.NoError(t, err)
	_, _, err = c.Capture(ctx, models.AccessPointReading{"AP1": -40})
	require.NoError(t, err)

	// 重新开始会覆盖进行中的会话，位置序列从头开始
	first, err := c.Start("Kitchen")
	require.NoError(t, err)
	assert.Equal(t, "corner1", first)

	room, next, active := c.Progress()
	assert.True(t, active)
	assert.Equal(t, "Kitchen", room)
	assert.Equal(t, "corner1", next)
}

func TestCapture_StoreFailureDoesNotAdvance(t *testing.T) {
	store := &recordingStore{fail: errors.New("persist failed")}
	c := newController(store)
	ctx := context.Background()

	_, err := c.Start("Office")
	require.NoError(t, err)

	_, _, err = c.Capture(ctx, models.AccessPointReading{"AP1": -40})
	require.Error(t, err)

	// 持久化失败时位置不推进，重试采的还是同一个位置
	_, next, active := c.Progress()
	assert.True(t, active)
	assert.Equal(t, "corner1", next)
}

func TestNewController_CustomLocations(t *testing.T) {
	store := &recordingStore{}
	c := calibration.NewController([]string{"door", "window"}, store, zap.NewNop())
	ctx := context.Background()

	first, err := c.Start("Hall")
	require.NoError(t, err)
	assert.Equal(t, "door", first)

	next, done, err := c.Capture(ctx, models.AccessPointReading{"AP1": -40})
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, "window", next)

	_, done, err = c.Capture(ctx, models.AccessPointReading{"AP1": -42})
	require.NoError(t, err)
	assert.True(t, done)
}
