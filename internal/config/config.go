package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Redis     RedisConfig     `mapstructure:"redis"`
	MySQL     MySQLConfig     `mapstructure:"mysql"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Services  ServicesConfig  `mapstructure:"services"`
	Leader    LeaderConfig    `mapstructure:"leader"`
	Outbox    OutboxConfig    `mapstructure:"outbox"`
	Lifecycle LifecycleConfig `mapstructure:"lifecycle"`
	Instance  InstanceConfig  `mapstructure:"instance"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MySQLConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type AuthConfig struct {
	JWTSecret       string        `mapstructure:"jwt_secret"`
	ServiceTokenTTL time.Duration `mapstructure:"service_token_ttl"`
}

// ServicesConfig holds the base URLs of the other services plus the timeout
// applied to every outbound call.
type ServicesConfig struct {
	AuctionURL    string        `mapstructure:"auction_url"`
	PaymentURL    string        `mapstructure:"payment_url"`
	ClientTimeout time.Duration `mapstructure:"client_timeout"`
}

type LeaderConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type OutboxConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	BatchSize    int           `mapstructure:"batch_size"`
	BaseBackoff  time.Duration `mapstructure:"base_backoff"`
	MaxBackoff   time.Duration `mapstructure:"max_backoff"`
}

type LifecycleConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type InstanceConfig struct {
	ID string `mapstructure:"id"`
}

func Load() (*Config, error) {
	// Set default values
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("redis.address", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("mysql.dsn", "auction_user:auction_pass@tcp(localhost:3306)/auction_db?parseTime=true")
	viper.SetDefault("mysql.max_open_conns", 25)
	viper.SetDefault("mysql.max_idle_conns", 10)
	viper.SetDefault("mysql.conn_max_lifetime", 5*time.Minute)
	viper.SetDefault("auth.jwt_secret", "dev-secret-change-me")
	viper.SetDefault("auth.service_token_ttl", 2*time.Minute)
	viper.SetDefault("services.auction_url", "http://localhost:8081")
	viper.SetDefault("services.payment_url", "http://localhost:8083")
	viper.SetDefault("services.client_timeout", 5*time.Second)
	viper.SetDefault("leader.ttl", 30*time.Second)
	viper.SetDefault("outbox.poll_interval", 15*time.Second)
	viper.SetDefault("outbox.batch_size", 50)
	viper.SetDefault("outbox.base_backoff", 30*time.Second)
	viper.SetDefault("outbox.max_backoff", 30*time.Minute)
	viper.SetDefault("lifecycle.poll_interval", 30*time.Second)
	viper.SetDefault("instance.id", "instance-1")

	// Configuration file settings
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/auction-marketplace/")

	// Environment variable support
	viper.AutomaticEnv()

	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.host", "SERVER_HOST")
	viper.BindEnv("redis.address", "REDIS_ADDRESS")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")
	viper.BindEnv("mysql.dsn", "MYSQL_DSN")
	viper.BindEnv("mysql.max_open_conns", "MYSQL_MAX_OPEN_CONNS")
	viper.BindEnv("mysql.max_idle_conns", "MYSQL_MAX_IDLE_CONNS")
	viper.BindEnv("mysql.conn_max_lifetime", "MYSQL_CONN_MAX_LIFETIME")
	viper.BindEnv("auth.jwt_secret", "JWT_SECRET")
	viper.BindEnv("services.auction_url", "AUCTION_SERVICE_URL")
	viper.BindEnv("services.payment_url", "PAYMENT_SERVICE_URL")
	viper.BindEnv("services.client_timeout", "SERVICE_CLIENT_TIMEOUT")
	viper.BindEnv("leader.ttl", "LEADER_TTL")
	viper.BindEnv("outbox.poll_interval", "OUTBOX_POLL_INTERVAL")
	viper.BindEnv("instance.id", "INSTANCE_ID")

	// Read configuration file (optional - defaults/env vars apply if absent)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
