// Package config loads the master's static and hot-reloadable settings,
// generalizing the teacher's absent config package from the same
// layered source precedence documented across the example pack
// (env > file > defaults, viper-backed): station rotation and wire
// policy, AMQP ingestion, ops server, and logging.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	validator "github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// StationConfig names one polled station and its remote UDP address.
type StationConfig struct {
	Address      int    `mapstructure:"address" validate:"required,min=1,max=255"`
	RemoteAddr   string `mapstructure:"remote_addr" validate:"required,hostname_port"`
	DatabaseSize int    `mapstructure:"database_size" validate:"omitempty,min=1,max=32"`
}

// WireConfig controls the polling cadence and CRC policy shared by
// every station.
type WireConfig struct {
	ListenAddr            string        `mapstructure:"listen_addr" validate:"required,hostname_port"`
	SecurePolls           bool          `mapstructure:"secure_polls"`
	ControlCheckback      bool          `mapstructure:"control_checkback"`
	ResponseTimeout       time.Duration `mapstructure:"response_timeout" validate:"required,gt=0"`
	ControlCoalesceWindow time.Duration `mapstructure:"control_coalesce_window" validate:"required,gt=0"`
}

// AMQPConfig configures the control-intent ingestion bus.
type AMQPConfig struct {
	URL        string `mapstructure:"url" validate:"required"`
	Exchange   string `mapstructure:"exchange" validate:"required"`
	Queue      string `mapstructure:"queue" validate:"required"`
	RoutingKey string `mapstructure:"routing_key" validate:"required"`
}

// OpsServerConfig configures the HTTP/gRPC operational surface.
type OpsServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr" validate:"required,hostname_port"`
	GRPCAddr string `mapstructure:"grpc_addr" validate:"required,hostname_port"`
}

// LoggingConfig controls structured log output.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=text json"`
}

// ObservabilityConfig sizes the bounded in-memory event ring kept for
// the status/monitor CLI and names the optional journal file.
// OTLPEndpoint is validated but no component reads it; no OTLP export
// is set up from it.
type ObservabilityConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint" validate:"omitempty,hostname_port"`
	RingSize     int    `mapstructure:"ring_size" validate:"required,gt=0"`
	JournalPath  string `mapstructure:"journal_path" validate:"omitempty"`
}

// Config is the complete configuration surface of the master.
type Config struct {
	Stations      []StationConfig     `mapstructure:"stations" validate:"required,min=1,dive"`
	Wire          WireConfig          `mapstructure:"wire" validate:"required"`
	AMQP          AMQPConfig          `mapstructure:"amqp" validate:"required"`
	OpsServer     OpsServerConfig     `mapstructure:"ops_server" validate:"required"`
	Logging       LoggingConfig       `mapstructure:"logging" validate:"required"`
	Observability ObservabilityConfig `mapstructure:"observability" validate:"required"`
}

var validate = validator.New()

// Load reads configuration from the file at path (if non-empty),
// environment variables prefixed GENISYS_, and the defaults set by
// applyDefaults, then validates the result.
func Load(path string) (*Config, error) {
	cfg, _, err := LoadWithViper(path)
	return cfg, err
}

// LoadWithViper is Load plus the backing *viper.Viper, so a caller
// (the composition root) can pass it to WatchTimingPolicy for
// hot-reload without re-parsing the file from scratch.
func LoadWithViper(path string) (*Config, *viper.Viper, error) {
	v := viper.New()
	setupViper(v, path)
	applyDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, nil, fmt.Errorf("config: read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, v, nil
}

func setupViper(v *viper.Viper, path string) {
	v.SetEnvPrefix("GENISYS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		return
	}
	v.SetConfigName("genisys")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/genisys")
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("wire.listen_addr", "0.0.0.0:9100")
	v.SetDefault("wire.secure_polls", false)
	v.SetDefault("wire.control_checkback", true)
	v.SetDefault("wire.response_timeout", "2s")
	v.SetDefault("wire.control_coalesce_window", "200ms")
	v.SetDefault("ops_server.http_addr", "0.0.0.0:8080")
	v.SetDefault("ops_server.grpc_addr", "0.0.0.0:9090")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("observability.ring_size", 4096)
}

// WatchTimingPolicy re-reads only the hot-reloadable timing subset
// (wire.response_timeout, wire.control_coalesce_window) on file
// change and invokes onChange with the updated WireConfig. Station
// rotation, addresses, and the ops/AMQP surfaces are immutable for the
// process lifetime: reshaping the rotation while the reducer owns
// per-station state would require a coordinated restart, not a
// config hook.
func WatchTimingPolicy(v *viper.Viper, onChange func(WireConfig)) {
	v.OnConfigChange(func(fsnotify.Event) {
		var wire WireConfig
		if err := v.UnmarshalKey("wire", &wire); err != nil {
			return
		}
		if err := validate.Struct(&wire); err != nil {
			return
		}
		onChange(wire)
	})
	v.WatchConfig()
}
