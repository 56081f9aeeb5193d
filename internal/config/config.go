package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Storage backends.
const (
	BackendFile = "file"
	BackendS3   = "s3"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Log     LogConfig
	CORS    CORSConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	storage, err := loadStorageConfig()
	if err != nil {
		return nil, err
	}

	logCfg, err := loadLogConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Storage: storage, Log: logCfg, CORS: loadCORSConfig()}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "3000"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":3000" 或 "127.0.0.1:3000"。
		return ServerConfig{Addr: port}, nil
	}

	if _, err := strconv.Atoi(port); err != nil {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// StorageConfig 描述提交记录文档的存放位置与失败策略。
type StorageConfig struct {
	Backend    string
	Path       string
	Quarantine bool
	FailOpen   bool
	S3Bucket   string
	S3Key      string
	S3Region   string
}

func loadStorageConfig() (StorageConfig, error) {
	backend := strings.ToLower(getEnvOrDefault("STORAGE_BACKEND", BackendFile))
	if backend != BackendFile && backend != BackendS3 {
		return StorageConfig{}, fmt.Errorf("invalid STORAGE_BACKEND value %q: want %q or %q", backend, BackendFile, BackendS3)
	}

	quarantine, err := parseBoolEnv("STORAGE_QUARANTINE", true)
	if err != nil {
		return StorageConfig{}, err
	}

	failOpen, err := parseBoolEnv("STORAGE_FAIL_OPEN", true)
	if err != nil {
		return StorageConfig{}, err
	}

	cfg := StorageConfig{
		Backend:    backend,
		Path:       getEnvOrDefault("DB_FILE", "db.json"),
		Quarantine: quarantine,
		FailOpen:   failOpen,
		S3Bucket:   strings.TrimSpace(os.Getenv("S3_BUCKET")),
		S3Key:      getEnvOrDefault("S3_KEY", "db.json"),
		S3Region:   strings.TrimSpace(os.Getenv("AWS_REGION")),
	}
	if cfg.Backend == BackendS3 && cfg.S3Bucket == "" {
		return StorageConfig{}, fmt.Errorf("S3_BUCKET is required when STORAGE_BACKEND=%s", BackendS3)
	}
	return cfg, nil
}

// LogConfig 描述日志输出。
type LogConfig struct {
	Level   slog.Level
	JSON    bool
	Concise bool
}

func loadLogConfig() (LogConfig, error) {
	var level slog.Level
	raw := getEnvOrDefault("LOG_LEVEL", "info")
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return LogConfig{}, fmt.Errorf("invalid LOG_LEVEL value %q: %w", raw, err)
	}

	jsonOut, err := parseBoolEnv("LOG_JSON", false)
	if err != nil {
		return LogConfig{}, err
	}

	concise, err := parseBoolEnv("LOG_CONCISE", true)
	if err != nil {
		return LogConfig{}, err
	}

	return LogConfig{Level: level, JSON: jsonOut, Concise: concise}, nil
}

// CORSConfig 描述允许的跨域来源，空列表表示允许全部。
type CORSConfig struct {
	AllowedOrigins []string
}

func loadCORSConfig() CORSConfig {
	var origins []string
	for _, origin := range strings.Split(os.Getenv("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return CORSConfig{AllowedOrigins: origins}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}
