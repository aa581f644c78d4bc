package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/moonfall/colonysim/internal/chase"
	"github.com/moonfall/colonysim/internal/combat"
	"github.com/moonfall/colonysim/internal/daycycle"
	"github.com/moonfall/colonysim/internal/presentation"
	"github.com/moonfall/colonysim/pkg/core"
)

// FileName is the config file looked up in the config directory.
const FileName = "colonysim.cfg.json"

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds SQLite storage backend settings
type SQLiteConfig struct {
	OutputDir    string        `json:"outputDir" mapstructure:"outputDir"`
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
}

// StorageConfig selects and configures the journal backend
type StorageConfig struct {
	Type   string       `json:"type" mapstructure:"type"`
	Memory MemoryConfig `json:"memory" mapstructure:"memory"`
	SQLite SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
}

// DBConfig holds Postgres connection settings
type DBConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
	SSLMode  string
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool
	ServiceName  string
	BatchTimeout time.Duration
	Endpoint     string
	Insecure     bool
}

// InfluxConfig holds InfluxDB settings
type InfluxConfig struct {
	Enabled  bool
	Protocol string
	Host     string
	Port     string
	Token    string
	Org      string
	Bucket   string
}

// GraylogConfig holds the GELF sink settings
type GraylogConfig struct {
	Enabled bool
	Address string
}

// StreamConfig holds the websocket journal stream settings
type StreamConfig struct {
	URL    string
	Secret string
}

// APIConfig holds the upload endpoint settings
type APIConfig struct {
	ServerURL string
	APIKey    string
	Tag       string
}

// MonitorConfig holds the status file settings
type MonitorConfig struct {
	StatusFile string
	Interval   time.Duration
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Dir    string
	Format string
}

// SimConfig holds runner settings
type SimConfig struct {
	TickRate     int
	Seed         uint64
	Autopilot    bool
	CatalogPath  string
	BaseCapacity int
	Speeds       []float64
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")
	viper.SetDefault("logFormat", "json")

	viper.SetDefault("day.length", "120s")
	viper.SetDefault("day.start", 1)
	viper.SetDefault("day.resultHold", "2s")
	viper.SetDefault("day.recoveryHP", 1)

	viper.SetDefault("clock.speeds", []float64{1, 2})

	viper.SetDefault("combat.attackInterval", "600ms")
	viper.SetDefault("combat.settleDelay", "500ms")
	viper.SetDefault("combat.formationSpacing", 0.6)
	viper.SetDefault("combat.formationOffset", 0.7)
	viper.SetDefault("combat.lootOffsetX", 0.7)
	viper.SetDefault("combat.lootOffsetY", 0.0)
	viper.SetDefault("combat.lootScatter", 0.2)

	viper.SetDefault("colony.baseCapacity", 20)

	viper.SetDefault("chase.speed", 1.5)
	viper.SetDefault("chase.engageRadius", 0.6)
	viper.SetDefault("chase.hopInterval", "400ms")

	viper.SetDefault("presentation.feedDelay", "300ms")
	viper.SetDefault("presentation.foodMove", "350ms")
	viper.SetDefault("presentation.foodHold", "200ms")
	viper.SetDefault("presentation.bitePause", "100ms")
	viper.SetDefault("presentation.betweenUnits", "300ms")
	viper.SetDefault("presentation.starveDelay", "300ms")
	viper.SetDefault("presentation.starvePerUnit", "600ms")

	viper.SetDefault("sim.tickRate", 60)
	viper.SetDefault("sim.seed", 0)
	viper.SetDefault("sim.autopilot", false)
	viper.SetDefault("catalog.path", "")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./runs")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.outputDir", "./runs")
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "colonysim")
	viper.SetDefault("db.sslmode", "disable")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "colonysim")
	viper.SetDefault("influx.bucket", "colony_days")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "colonysim")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetDefault("stream.url", "")
	viper.SetDefault("stream.secret", "")

	viper.SetDefault("api.serverUrl", "")
	viper.SetDefault("api.apiKey", "")
	viper.SetDefault("api.tag", "colony")

	viper.SetDefault("monitor.statusFile", "./status.json")
	viper.SetDefault("monitor.interval", "1s")
}

// Load sets default values and reads colonysim.cfg.json from configDir.
// A missing file leaves the defaults in place; a malformed one is an error.
func Load(configDir string) error {
	setDefaults()

	viper.SetConfigName(FileName)
	viper.SetConfigType("json")
	viper.AddConfigPath(configDir)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDayConfig returns the day cycle timings.
func GetDayConfig() daycycle.Config {
	return daycycle.Config{
		DayLength:  viper.GetDuration("day.length"),
		StartDay:   viper.GetInt("day.start"),
		ResultHold: viper.GetDuration("day.resultHold"),
		RecoveryHP: viper.GetInt("day.recoveryHP"),
	}
}

// GetCombatConfig returns combat timings, the battle formation and loot
// placement. Loot tables come from the catalog.
func GetCombatConfig() combat.Config {
	return combat.Config{
		AttackInterval:   viper.GetDuration("combat.attackInterval"),
		SettleDelay:      viper.GetDuration("combat.settleDelay"),
		FormationSpacing: viper.GetFloat64("combat.formationSpacing"),
		FormationOffset:  viper.GetFloat64("combat.formationOffset"),
		LootOffset: core.Position{
			X: viper.GetFloat64("combat.lootOffsetX"),
			Y: viper.GetFloat64("combat.lootOffsetY"),
		},
		LootScatter: viper.GetFloat64("combat.lootScatter"),
	}
}

// GetChaseConfig returns the hostile chase rule settings.
func GetChaseConfig() chase.Config {
	return chase.Config{
		Speed:        viper.GetFloat64("chase.speed"),
		EngageRadius: viper.GetFloat64("chase.engageRadius"),
		HopInterval:  viper.GetDuration("chase.hopInterval"),
	}
}

// GetPresentationConfig returns the animator timings.
func GetPresentationConfig() presentation.Timings {
	return presentation.Timings{
		FeedDelay:     viper.GetDuration("presentation.feedDelay"),
		FoodMove:      viper.GetDuration("presentation.foodMove"),
		FoodHold:      viper.GetDuration("presentation.foodHold"),
		BitePause:     viper.GetDuration("presentation.bitePause"),
		BetweenUnits:  viper.GetDuration("presentation.betweenUnits"),
		StarveDelay:   viper.GetDuration("presentation.starveDelay"),
		StarvePerUnit: viper.GetDuration("presentation.starvePerUnit"),
	}
}

// GetSimConfig returns runner settings.
func GetSimConfig() SimConfig {
	var speeds []float64
	if err := viper.UnmarshalKey("clock.speeds", &speeds); err != nil || len(speeds) == 0 {
		speeds = []float64{1, 2}
	}
	return SimConfig{
		TickRate:     viper.GetInt("sim.tickRate"),
		Seed:         viper.GetUint64("sim.seed"),
		Autopilot:    viper.GetBool("sim.autopilot"),
		CatalogPath:  viper.GetString("catalog.path"),
		BaseCapacity: viper.GetInt("colony.baseCapacity"),
		Speeds:       speeds,
	}
}

// GetStorageConfig returns the journal backend settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			OutputDir:    viper.GetString("storage.sqlite.outputDir"),
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
	}
}

// GetDBConfig returns the Postgres connection settings.
func GetDBConfig() DBConfig {
	return DBConfig{
		Host:     viper.GetString("db.host"),
		Port:     viper.GetString("db.port"),
		Username: viper.GetString("db.username"),
		Password: viper.GetString("db.password"),
		Database: viper.GetString("db.database"),
		SSLMode:  viper.GetString("db.sslmode"),
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetInfluxConfig returns the InfluxDB settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		Protocol: viper.GetString("influx.protocol"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
		Bucket:   viper.GetString("influx.bucket"),
	}
}

// GetGraylogConfig returns the GELF sink settings.
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}

// GetStreamConfig returns the websocket stream settings.
func GetStreamConfig() StreamConfig {
	return StreamConfig{
		URL:    viper.GetString("stream.url"),
		Secret: viper.GetString("stream.secret"),
	}
}

// GetAPIConfig returns the upload endpoint settings.
func GetAPIConfig() APIConfig {
	return APIConfig{
		ServerURL: viper.GetString("api.serverUrl"),
		APIKey:    viper.GetString("api.apiKey"),
		Tag:       viper.GetString("api.tag"),
	}
}

// GetMonitorConfig returns the status file settings.
func GetMonitorConfig() MonitorConfig {
	return MonitorConfig{
		StatusFile: viper.GetString("monitor.statusFile"),
		Interval:   viper.GetDuration("monitor.interval"),
	}
}

// GetLogConfig returns the logging settings.
func GetLogConfig() LogConfig {
	return LogConfig{
		Level:  viper.GetString("logLevel"),
		Dir:    viper.GetString("logsDir"),
		Format: viper.GetString("logFormat"),
	}
}
