package config

import (
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，例如 JARSCAN_SCANNER_WORKERS
const EnvPrefix = "JARSCAN"

type Config struct {
	Scanner  ScannerConfig  `mapstructure:"scanner"`
	Log      LogConfig      `mapstructure:"log"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Watcher  WatcherConfig  `mapstructure:"watcher"`
}

// ScannerConfig 扫描配置
type ScannerConfig struct {
	Verbose            bool     `mapstructure:"verbose"`
	CacheCapacity      int      `mapstructure:"cache_capacity"`
	Workers            int      `mapstructure:"workers"` // 0 表示使用全部 CPU
	ReportThreshold    int      `mapstructure:"report_threshold"`
	MaxStringsPerClass int      `mapstructure:"max_strings_per_class"`
	IgnoreKeywordsFile string   `mapstructure:"ignore_keywords_file"`
	IncludePatterns    []string `mapstructure:"include_patterns"`
	ExcludePatterns    []string `mapstructure:"exclude_patterns"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

type ServerConfig struct {
	Port        int    `mapstructure:"port"`
	Mode        string `mapstructure:"mode"` // debug, release
	MaxUploadMB int    `mapstructure:"max_upload_mb"`
	APIToken    string `mapstructure:"api_token"` // 为空时不校验
}

type DatabaseConfig struct {
	Type     string `mapstructure:"type"` // sqlite, mysql
	Path     string `mapstructure:"path"` // sqlite 文件
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"db_name"`
}

// WatcherConfig 目录监控配置
type WatcherConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Dir        string `mapstructure:"dir"`
	Pattern    string `mapstructure:"pattern"`
	DebounceMs int    `mapstructure:"debounce_ms"`
}

// SetDefaults 写入默认值
func SetDefaults(v *viper.Viper) {
	v.SetDefault("scanner.verbose", false)
	v.SetDefault("scanner.cache_capacity", 10000)
	v.SetDefault("scanner.workers", 0)
	v.SetDefault("scanner.report_threshold", 4)
	v.SetDefault("scanner.max_strings_per_class", 500)
	v.SetDefault("scanner.include_patterns", []string{})
	v.SetDefault("scanner.exclude_patterns", []string{})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.max_upload_mb", 256)
	v.SetDefault("server.api_token", "")

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.path", "./data/jarscan.db")
	v.SetDefault("database.port", 3306)

	v.SetDefault("watcher.enabled", false)
	v.SetDefault("watcher.pattern", "*.jar")
	v.SetDefault("watcher.debounce_ms", 2000)
}

// Load 读取配置文件，path 为空时只使用默认值和环境变量
func Load(path string) (*Config, error) {
	return LoadWithViper(viper.New(), path)
}

// LoadWithViper 使用调用方的 viper 实例加载（命令行参数已绑定到该实例）
func LoadWithViper(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)

	// 环境变量覆盖（支持嵌套配置）
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 数据库常用变量名
	_ = v.BindEnv("database.host", "MYSQL_HOST")
	_ = v.BindEnv("database.port", "MYSQL_PORT")
	_ = v.BindEnv("database.user", "MYSQL_USER")
	_ = v.BindEnv("database.password", "MYSQL_PASS")
	_ = v.BindEnv("database.db_name", "MYSQL_DB")

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
