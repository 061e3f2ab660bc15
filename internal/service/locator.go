// Package service 组装定位服务并驱动周期性的扫描-分类循环
//
// 单一处理循环：定时器触发一次扫描，结果交给分类器（校准期间
// 分类暂停，采样由展示层的 CaptureLocation 同步驱动）。
// 循环与展示层操作通过同一把互斥锁串行化，周期之间不重叠，
// 指纹集合因此只被串行修改。
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"wisefido-room-locator/internal/calibration"
	"wisefido-room-locator/internal/config"
	"wisefido-room-locator/internal/database"
	"wisefido-room-locator/internal/locator"
	"wisefido-room-locator/internal/models"
	mqttcommon "wisefido-room-locator/internal/mqtt"
	"wisefido-room-locator/internal/rediscommon"
	"wisefido-room-locator/internal/repository"
	"wisefido-room-locator/internal/scanner"
	"wisefido-room-locator/internal/store"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventPublisher 房间变化事件发布器（允许在单元测试中替换 Redis Streams）
type EventPublisher interface {
	Publish(ctx context.Context, event interface{}) (string, error)
}

// streamPublisher 基于 Redis Streams 的事件发布实现
type streamPublisher struct {
	client *redis.Client
	stream string
}

func (p *streamPublisher) Publish(ctx context.Context, event interface{}) (string, error) {
	return rediscommon.PublishJSONToStream(ctx, p.client, p.stream, event)
}

// LocatorService 房间定位服务
type LocatorService struct {
	config      *config.Config
	logger      *zap.Logger
	db          *sql.DB
	redisClient *redis.Client
	mqttClient  *mqttcommon.Client

	store      *store.FingerprintStore
	classifier *locator.Classifier
	controller *calibration.Controller
	scanner    scanner.ScanSource
	statusKV   store.KVStore
	events     EventPublisher
	metrics    *Metrics

	// mu 串行化处理循环与展示层操作
	mu          sync.Mutex
	currentRoom string
	hasFix      bool

	cancel context.CancelFunc
	done   chan struct{}
}

// NewLocatorService 创建定位服务并接好全部外部依赖
func NewLocatorService(cfg *config.Config, logger *zap.Logger) (*LocatorService, error) {
	// 初始化数据库
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// 初始化Redis
	redisClient := rediscommon.NewRedisClient(&cfg.Redis)
	if err := rediscommon.Ping(context.Background(), redisClient); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	// 初始化MQTT
	mqttClient, err := mqttcommon.NewClient(&cfg.MQTT, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT: %w", err)
	}

	deviceRepo := repository.NewDeviceRepository(db, logger)
	scanSource := scanner.NewMQTTScanSource(cfg, mqttClient, deviceRepo, logger)

	fpStore := store.NewFingerprintStore(
		cfg.Locator.FingerprintKey,
		store.NewRedisListStore(redisClient),
		logger,
	)

	svc := newLocatorService(
		cfg,
		fpStore,
		scanSource,
		store.NewRedisKVStore(redisClient),
		&streamPublisher{client: redisClient, stream: cfg.Locator.EventStream},
		logger,
	)
	svc.db = db
	svc.redisClient = redisClient
	svc.mqttClient = mqttClient

	return svc, nil
}

// newLocatorService 按依赖注入方式组装服务（单元测试入口）
func newLocatorService(
	cfg *config.Config,
	fpStore *store.FingerprintStore,
	scanSource scanner.ScanSource,
	statusKV store.KVStore,
	events EventPublisher,
	logger *zap.Logger,
) *LocatorService {
	return &LocatorService{
		config:     cfg,
		logger:     logger,
		store:      fpStore,
		classifier: locator.NewClassifier(logger),
		controller: calibration.NewController(cfg.Locator.Locations, fpStore, logger),
		scanner:    scanSource,
		statusKV:   statusKV,
		events:     events,
		metrics:    &Metrics{StartTime: time.Now()},
	}
}

// Start 加载指纹集合、订阅扫描源并启动处理循环
func (s *LocatorService) Start(ctx context.Context) error {
	if err := s.store.Load(ctx); err != nil {
		return fmt.Errorf("failed to load fingerprint collection: %w", err)
	}

	if err := s.scanner.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scan source: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(runCtx)

	s.logger.Info("Locator service started",
		zap.Int("fingerprints", s.store.Len()),
		zap.Int("scan_interval_seconds", s.config.Locator.ScanInterval),
	)
	return nil
}

// Stop 停止处理循环并释放外部连接
func (s *LocatorService) Stop(ctx context.Context) error {
	s.logger.Info("Stopping locator service")

	if s.cancel != nil {
		s.cancel()
		select {
		case <-s.done:
		case <-time.After(5 * time.Second):
			s.logger.Warn("Timed out waiting for processing loop to stop")
		}
	}

	if s.scanner != nil {
		if err := s.scanner.Stop(ctx); err != nil {
			s.logger.Error("Error stopping scan source", zap.Error(err))
		}
	}

	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}

	if s.redisClient != nil {
		rediscommon.Close(s.redisClient)
	}

	if s.db != nil {
		database.Close(s.db)
	}

	s.logger.Info("Locator service stopped")
	return nil
}

// run 处理循环：每个周期一次扫描-分类
func (s *LocatorService) run(ctx context.Context) {
	defer close(s.done)

	interval := time.Duration(s.config.Locator.ScanInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick 执行一个处理周期
func (s *LocatorService) tick(ctx context.Context) {
	s.metrics.IncrementTicks()

	// 校准期间循环让出扫描通道，采样由 CaptureLocation 驱动
	s.mu.Lock()
	calibrating := s.controller.Active()
	s.mu.Unlock()
	if calibrating {
		return
	}

	reading, ok := s.scan(ctx)
	if !ok {
		// 扫描失败：本周期不更新定位结果，等下一个周期
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.controller.Active() {
		// 扫描期间开始了校准
		return
	}
	s.classifyLocked(ctx, reading)
}

// scan 触发一次扫描并等待结果
// 返回 ok=false 表示扫描失败（出错或超时）
func (s *LocatorService) scan(ctx context.Context) (models.AccessPointReading, bool) {
	if err := s.scanner.StartScan(ctx); err != nil {
		s.logger.Warn("Failed to trigger scan", zap.Error(err))
	}

	reading, err := s.scanner.Results(ctx)
	if err != nil {
		s.metrics.IncrementScanFailures()
		s.logger.Debug("Scan yielded no results", zap.Error(err))
		return nil, false
	}
	return reading, true
}

// classifyLocked 对一份读数执行分类并更新当前房间（调用方持锁）
func (s *LocatorService) classifyLocked(ctx context.Context, reading models.AccessPointReading) {
	// 无指纹数据时不产生定位结果：当前房间保持未设置，
	// 区别于 "有数据但分类为 unknown"
	if s.store.Len() == 0 {
		return
	}

	room := s.classifier.Classify(reading, s.store.Fingerprints())
	s.metrics.IncrementClassifications()

	previous := s.currentRoom
	changed := !s.hasFix || room != previous
	s.currentRoom = room
	s.hasFix = true

	if !changed {
		return
	}

	s.metrics.IncrementRoomChanges()
	s.logger.Info("Current room changed",
		zap.String("room", room),
		zap.String("previous", previous),
	)
	s.publishRoomChange(ctx, room, previous)
	s.updateStatusLocked(ctx)
}

// publishRoomChange 发布房间变化事件（尽力而为，失败只记日志）
func (s *LocatorService) publishRoomChange(ctx context.Context, room, previous string) {
	if s.events == nil {
		return
	}

	event := models.RoomChangeEvent{
		EventID:   uuid.NewString(),
		Room:      room,
		Previous:  previous,
		Timestamp: time.Now().Unix(),
	}
	if _, err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish room change event",
			zap.String("room", room),
			zap.Error(err),
		)
	}
}

// updateStatusLocked 刷新展示层状态缓存（调用方持锁）
func (s *LocatorService) updateStatusLocked(ctx context.Context) {
	if s.statusKV == nil {
		return
	}

	room, next, active := s.controller.Progress()
	status := models.LocatorStatus{
		CurrentRoom:  s.currentRoom,
		HasFix:       s.hasFix,
		Rooms:        s.store.Rooms(),
		Calibrating:  active,
		TargetRoom:   room,
		NextLocation: next,
		UpdatedAt:    time.Now().Unix(),
	}

	data, err := json.Marshal(status)
	if err != nil {
		s.logger.Error("Failed to marshal status", zap.Error(err))
		return
	}
	if err := s.statusKV.Set(ctx, s.config.Locator.StatusKey, string(data), 0); err != nil {
		s.logger.Warn("Failed to update status cache", zap.Error(err))
	}
}

// CurrentRoom 当前房间；ok 为 false 表示尚未产生定位结果
func (s *LocatorService) CurrentRoom() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentRoom, s.hasFix
}

// Rooms 已知房间名列表
func (s *LocatorService) Rooms() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Rooms()
}

// CalibrationStatus 校准进度：目标房间、下一个采样位置、是否在校准中
func (s *LocatorService) CalibrationStatus() (room string, next string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controller.Progress()
}

// StartCalibration 开始校准某房间，返回第一个采样位置
func (s *LocatorService) StartCalibration(ctx context.Context, room string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	first, err := s.controller.Start(room)
	if err != nil {
		return "", err
	}
	s.updateStatusLocked(ctx)
	return first, nil
}

// CaptureLocation 对当前校准位置执行一次扫描-采样
//
// 扫描失败按空读数采样（本周期策略），采样本身不会因此中断。
// 未处于校准状态时返回 calibration.ErrNotCalibrating。
func (s *LocatorService) CaptureLocation(ctx context.Context) (next string, done bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.controller.Active() {
		return "", false, calibration.ErrNotCalibrating
	}

	reading, ok := s.scan(ctx)
	if !ok {
		s.logger.Warn("Capturing with empty reading after scan failure")
		reading = models.AccessPointReading{}
	}

	next, done, err = s.controller.Capture(ctx, reading)
	if err != nil {
		return "", false, err
	}

	s.metrics.IncrementCaptures()
	s.updateStatusLocked(ctx)
	return next, done, nil
}

// DeleteRoom 删除房间及其全部指纹
//
// 若当前定位结果指向被删除的房间，结果被清除而不是悬挂在已删房间上。
// 持久化失败时错误返回给调用方。
func (s *LocatorService) DeleteRoom(ctx context.Context, room string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.store.DeleteRoom(ctx, room)

	if s.hasFix && s.currentRoom == room {
		s.currentRoom = ""
		s.hasFix = false
		s.logger.Info("Cleared current room after deletion", zap.String("room", room))
	}
	s.updateStatusLocked(ctx)

	return err
}

// Metrics 返回监控指标快照
func (s *LocatorService) Metrics() Metrics {
	return s.metrics.GetSnapshot()
}
