package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Game     GameConfig     `mapstructure:"game"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	LogLevel string `mapstructure:"log_level"`
}

type NATSConfig struct {
	URL           string        `mapstructure:"url"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type HTTPConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin 模式：debug / release / test

	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// 网关签发只读令牌的 HS256 密钥，为空时只提供观众视图
	JWTSecret string `mapstructure:"jwt_secret"`
}

// GameConfig 对局相关配置
type GameConfig struct {
	MaxGames           int           `mapstructure:"max_games"`
	EvictTimeout       time.Duration `mapstructure:"evict_timeout"`
	EvictCheckInterval time.Duration `mapstructure:"evict_check_interval"`
	TradeTimeout       time.Duration `mapstructure:"trade_timeout"`
	DiscardTimeout     time.Duration `mapstructure:"discard_timeout"`
	FinishedRoomTTL    time.Duration `mapstructure:"finished_room_ttl"`
	SnapshotTTL        time.Duration `mapstructure:"snapshot_ttl"`
	VictoryPoints      int           `mapstructure:"victory_points"`
	ShuffleBoard       bool          `mapstructure:"shuffle_board"`
	ShuffleTurnOrder   bool          `mapstructure:"shuffle_turn_order"`
	BoardFile          string        `mapstructure:"board_file"`
	Seed               uint64        `mapstructure:"seed"`
	WorkerCount        int           `mapstructure:"worker_count"`
	BufferSize         int           `mapstructure:"buffer_size"`
	SchedulerWorkers   int           `mapstructure:"scheduler_workers"`
	SchedulerTick      time.Duration `mapstructure:"scheduler_tick"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "settlers-logic")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("nats.url", "nats://127.0.0.1:4222")
	v.SetDefault("nats.max_reconnects", -1)
	v.SetDefault("nats.reconnect_wait", 2*time.Second)
	v.SetDefault("http.port", 8081)
	v.SetDefault("http.mode", "release")
	v.SetDefault("http.allowed_origins", []string{"*"})
	v.SetDefault("http.jwt_secret", "")
	v.SetDefault("game.max_games", 10000)
	v.SetDefault("game.evict_timeout", 30*time.Minute)
	v.SetDefault("game.evict_check_interval", time.Minute)
	v.SetDefault("game.trade_timeout", 60*time.Second)
	v.SetDefault("game.discard_timeout", 90*time.Second)
	v.SetDefault("game.finished_room_ttl", 24*time.Hour)
	v.SetDefault("game.snapshot_ttl", 48*time.Hour)
	v.SetDefault("game.victory_points", 10)
	v.SetDefault("game.worker_count", 64)
	v.SetDefault("game.buffer_size", 256)
	v.SetDefault("game.scheduler_workers", 4)
	v.SetDefault("game.scheduler_tick", time.Second)
}

// Load 从指定路径加载配置，环境变量 SETTLERS_<SECTION>_<KEY> 覆盖文件中的值
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("settlers")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
