package models

// LocatorStatus 暴露给展示层的当前状态快照
// HasFix 为 false 表示尚未产生任何定位结果（区别于分类结果为 unknown）
type LocatorStatus struct {
	CurrentRoom  string   `json:"current_room"`
	HasFix       bool     `json:"has_fix"`
	Rooms        []string `json:"rooms"`
	Calibrating  bool     `json:"calibrating"`
	TargetRoom   string   `json:"target_room,omitempty"`
	NextLocation string   `json:"next_location,omitempty"`
	UpdatedAt    int64    `json:"updated_at"`
}

// RoomChangeEvent 房间变化事件（发布到 Redis Streams）
type RoomChangeEvent struct {
	EventID   string `json:"event_id"`
	Room      string `json:"room"`
	Previous  string `json:"previous"`
	Timestamp int64  `json:"timestamp"`
}
