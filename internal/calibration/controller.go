// Package calibration 实现校准工作流状态机
//
// 操作员按固定位置序列（默认四角加中心）在目标房间内逐点采样，
// 每次采样生成一条指纹并立即持久化。
package calibration

import (
	"context"
	"errors"

	"wisefido-room-locator/internal/models"

	"go.uber.org/zap"
)

var (
	// ErrNotCalibrating 未处于校准状态时调用采样
	ErrNotCalibrating = errors.New("capture called while not calibrating")
	// ErrEmptyRoomName 房间名为空
	ErrEmptyRoomName = errors.New("room name must not be empty")
)

// DefaultLocations 默认的房间内采样位置序列
var DefaultLocations = []string{"corner1", "corner2", "corner3", "corner4", "center"}

// Store 校准采样写入的指纹存储
type Store interface {
	AddOrReplace(ctx context.Context, fp models.Fingerprint) error
}

// Controller 校准控制器；两个状态：空闲 / 校准中
//
// 只在定位服务的处理循环内使用，不做内部加锁
type Controller struct {
	locations []string
	store     Store
	logger    *zap.Logger

	active        bool
	targetRoom    string
	locationIndex int
}

// NewController 创建校准控制器；locations 为空时使用 DefaultLocations
func NewController(locations []string, store Store, logger *zap.Logger) *Controller {
	if len(locations) == 0 {
		locations = DefaultLocations
	}
	return &Controller{
		locations: locations,
		store:     store,
		logger:    logger,
	}
}

// Start 开始校准某房间，返回第一个采样位置
//
// 已在校准中时重新 Start 会覆盖进行中的会话（现行策略，只记日志不报错）
func (c *Controller) Start(room string) (string, error) {
	if room == "" {
		return "", ErrEmptyRoomName
	}

	if c.active {
		c.logger.Warn("Restarting calibration, discarding in-progress session",
			zap.String("previous_room", c.targetRoom),
			zap.String("room", room),
		)
	}

	c.active = true
	c.targetRoom = room
	c.locationIndex = 0

	c.logger.Info("Calibration started",
		zap.String("room", room),
		zap.Int("locations", len(c.locations)),
	)
	return c.locations[0], nil
}

// Capture 用一次扫描读数采样当前位置并推进序列
//
// 返回下一个采样位置；done 为 true 表示序列完成，控制器回到空闲。
// 空闲状态下调用返回 ErrNotCalibrating，不允许静默忽略。
// 持久化失败时错误原样返回，采样位置不推进。
func (c *Controller) Capture(ctx context.Context, reading models.AccessPointReading) (next string, done bool, err error) {
	if !c.active {
		return "", false, ErrNotCalibrating
	}
	if reading == nil {
		reading = models.AccessPointReading{}
	}

	location := c.locations[c.locationIndex]
	fp := models.Fingerprint{
		Room:     c.targetRoom,
		Location: location,
		Signals:  reading,
	}

	if err := c.store.AddOrReplace(ctx, fp); err != nil {
		return "", false, err
	}

	c.logger.Info("Captured calibration location",
		zap.String("room", c.targetRoom),
		zap.String("location", location),
		zap.Int("access_points", len(reading)),
	)

	c.locationIndex++
	if c.locationIndex >= len(c.locations) {
		room := c.targetRoom
		c.active = false
		c.targetRoom = ""
		c.locationIndex = 0
		c.logger.Info("Calibration completed", zap.String("room", room))
		return "", true, nil
	}

	return c.locations[c.locationIndex], false, nil
}

// Active 是否处于校准状态
func (c *Controller) Active() bool {
	return c.active
}

// Progress 返回展示层需要的校准进度：目标房间、下一个采样位置、是否在校准中
func (c *Controller) Progress() (room string, next string, active bool) {
	if !c.active {
		return "", "", false
	}
	return c.targetRoom, c.locations[c.locationIndex], true
}
