package config

import (
	"bytes"
	_ "embed"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed defaults.yaml
var defaults []byte

// ---- Root ----

type Config struct {
	Log            LogConfig            `mapstructure:"log"`
	HTTP           HTTPConfig           `mapstructure:"http"`
	MySQL          DatabaseConfig       `mapstructure:"mysql"`
	ClickHouse     DatabaseConfig       `mapstructure:"clickhouse"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Kafka          KafkaConfig          `mapstructure:"kafka"`
	Inbound        InboundConfig        `mapstructure:"inbound"`
	Command        CommandConfig        `mapstructure:"command"`
	WalletProvider WalletProviderConfig `mapstructure:"wallet_provider"`
	Secret         SecretConfig         `mapstructure:"secret"`
	QR             QRConfig             `mapstructure:"qr"`
	RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`
	Reports        ReportsConfig        `mapstructure:"reports"`
	Dispatcher     DispatcherConfig     `mapstructure:"dispatcher"`
	Providers      []ProviderConfig     `mapstructure:"providers"`
}

// ---- Leaf structs ----

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type HTTPConfig struct {
	Addr          string `mapstructure:"addr"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}

type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idletime"`
	PingTimeout     time.Duration `mapstructure:"ping_timeout"`
}

type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

type KafkaConfig struct {
	Brokers        []string `mapstructure:"brokers"`
	Topic          string   `mapstructure:"topic"`
	GroupID        string   `mapstructure:"group_id"`
	MinBytes       int      `mapstructure:"min_bytes"`
	MaxBytes       int      `mapstructure:"max_bytes"`
	CommitInterval int      `mapstructure:"commit_interval_ms"`
	Workers        int      `mapstructure:"workers"`
}

// InboundConfig selects how webhook messages reach the command router.
// "inline" dispatches inside the webhook request, "kafka" publishes to
// Kafka and leaves dispatch to `worker commands`. AuthToken verifies the
// X-Twilio-Signature header on every webhook request.
type InboundConfig struct {
	Mode      string        `mapstructure:"mode"`
	DedupTTL  time.Duration `mapstructure:"dedup_ttl"`
	AuthToken string        `mapstructure:"auth_token"`
}

type CommandConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type WalletProviderConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APICode     string        `mapstructure:"api_code"`
	Timeout     time.Duration `mapstructure:"timeout"`
	ReadRetries int           `mapstructure:"read_retries"`
}

type SecretConfig struct {
	// Key is a 64 char hex string (32 bytes) used to seal wallet credentials.
	Key string `mapstructure:"key"`
}

type QRConfig struct {
	Size int           `mapstructure:"size"`
	TTL  time.Duration `mapstructure:"ttl"`
}

type RateLimitConfig struct {
	PerSender int           `mapstructure:"per_sender"`
	Window    time.Duration `mapstructure:"window"`
}

type ReportsConfig struct {
	APIKeys []string `mapstructure:"api_keys"`
}

type DispatcherConfig struct {
	MaxAttempts int    `mapstructure:"max_attempts"`
	From        string `mapstructure:"from"`
}

type BreakerConfig struct {
	FailThreshold int `mapstructure:"fail_threshold" yaml:"fail_threshold"`
	OpenForMs     int `mapstructure:"open_for_ms"    yaml:"open_for_ms"`
}

type ProviderConfig struct {
	Name      string        `mapstructure:"name"`
	Enabled   bool          `mapstructure:"enabled"`
	BaseURL   string        `mapstructure:"base_url"`
	Path      string        `mapstructure:"path"`
	Username  string        `mapstructure:"username"`
	Password  string        `mapstructure:"password"`
	TimeoutMs int           `mapstructure:"timeout_ms"`
	Breaker   BreakerConfig `mapstructure:"breaker"`
}

// Load reads embedded defaults, merges user YAML (if provided), and applies env overrides (TXTCOIN_*).
func Load(path string) (Config, error) {
	v := viper.New()

	// embedded defaults
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		_ = v.MergeInConfig()
	}

	// env override (TXTCOIN_*), e.g. TXTCOIN_WALLET_PROVIDER_API_CODE
	v.SetEnvPrefix("TXTCOIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
