package config

import (
	"os"
	"strconv"
	"strings"
)

// Config 定位服务配置
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	MQTT     MQTTConfig

	// 定位服务特定配置
	Locator struct {
		Topics struct {
			Scan    string // 扫描结果主题，如 "wifi/+/scan"
			Command string // 扫描命令主题，如 "wifi/+/command"
		}

		// 被跟踪设备的序列号（命令主题中替换 "+" 通配符）
		DeviceSerial string

		// 扫描周期配置
		ScanInterval int // 扫描间隔（秒），默认 1 秒
		ScanTimeout  int // 等待扫描结果的超时（秒），默认 3 秒

		// 校准位置序列（逗号分隔），默认四角加中心
		Locations []string

		// Redis 持久化配置
		FingerprintKey string // 指纹列表键，如 "locator:fingerprints"
		StatusKey      string // 当前状态缓存键，如 "locator:status:current"
		EventStream    string // 房间变化事件流，如 "locator:events:stream"
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置
func Load() (*Config, error) {
	cfg := &Config{}

	// 从环境变量加载（默认值）
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = 5432
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "owlrd")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = 0

	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "wisefido-room-locator")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")

	// 定位服务配置
	cfg.Locator.Topics.Scan = getEnv("LOCATOR_TOPIC_SCAN", "wifi/+/scan")
	cfg.Locator.Topics.Command = getEnv("LOCATOR_TOPIC_COMMAND", "wifi/+/command")
	cfg.Locator.DeviceSerial = getEnv("LOCATOR_DEVICE_SERIAL", "")

	cfg.Locator.ScanInterval = getEnvInt("LOCATOR_SCAN_INTERVAL", 1)
	cfg.Locator.ScanTimeout = getEnvInt("LOCATOR_SCAN_TIMEOUT", 3)

	locations := getEnv("LOCATOR_LOCATIONS", "corner1,corner2,corner3,corner4,center")
	for _, loc := range strings.Split(locations, ",") {
		if loc = strings.TrimSpace(loc); loc != "" {
			cfg.Locator.Locations = append(cfg.Locator.Locations, loc)
		}
	}

	cfg.Locator.FingerprintKey = getEnv("LOCATOR_FINGERPRINT_KEY", "locator:fingerprints")
	cfg.Locator.StatusKey = getEnv("LOCATOR_STATUS_KEY", "locator:status:current")
	cfg.Locator.EventStream = getEnv("LOCATOR_EVENT_STREAM", "locator:events:stream")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return defaultValue
}
