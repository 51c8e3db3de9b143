package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigFile = "./config.yml"
	DefaultEnvFile    = "./config.env"
	EnvPrefix         = "BKRG"
)

// Config defines the structure of the configuration file.
type Config struct {
	GitCommit    string         `yaml:"git_commit" envconfig:"BKRG_GIT_COMMIT"`
	GitTag       string         `yaml:"git_tag" envconfig:"BKRG_GIT_TAG"`
	BuildTime    string         `yaml:"build_time" envconfig:"BKRG_BUILD_TIME"`
	IsProduction bool           `yaml:"is_production" envconfig:"BKRG_IS_PRODUCTION"`
	LogLevel     zapcore.Level  `yaml:"log_level" envconfig:"BKRG_LOG_LEVEL"`
	LogFolder    string         `yaml:"log_folder" envconfig:"BKRG_LOG_FOLDER"`
	LogMaxSize   int            `yaml:"log_max_size" envconfig:"BKRG_LOG_MAX_SIZE"` // in megabytes
	Register     RegisterConfig `yaml:"register"`
	Journal      JournalConfig  `yaml:"journal"`
	BoltDB       BoltDBConfig   `yaml:"boltdb"`
	Redis        RedisConfig    `yaml:"redis"`
	Ops          OpsConfig      `yaml:"ops"`
}

type RegisterConfig struct {
	File        string `yaml:"file" envconfig:"BKRG_REGISTER_FILE"`
	UniqueISBN  bool   `yaml:"unique_isbn" envconfig:"BKRG_REGISTER_UNIQUE_ISBN"`
	EditInPlace bool   `yaml:"edit_in_place" envconfig:"BKRG_REGISTER_EDIT_IN_PLACE"`
}

type JournalConfig struct {
	Enabled bool `yaml:"enabled" envconfig:"BKRG_JOURNAL_ENABLED"`
	// Buffer is the capacity of the in-memory events queue.
	Buffer int `yaml:"buffer" envconfig:"BKRG_JOURNAL_BUFFER"`
}

type BoltDBConfig struct {
	FilePath       string        `yaml:"filepath" envconfig:"BKRG_BOLTDB_FILE_PATH"`
	Timeout        time.Duration `yaml:"timeout" envconfig:"BKRG_BOLTDB_TIMEOUT"`
	JournalBucket  string        `yaml:"journal_bucket" envconfig:"BKRG_BOLTDB_JOURNAL_BUCKET"`
	SnapshotBucket string        `yaml:"snapshot_bucket" envconfig:"BKRG_BOLTDB_SNAPSHOT_BUCKET"`
	MaxSnapshots   int           `yaml:"max_snapshots" envconfig:"BKRG_BOLTDB_MAX_SNAPSHOTS"`
}

type RedisConfig struct {
	Enabled       bool          `yaml:"enabled" envconfig:"BKRG_REDIS_ENABLED"`
	Host          string        `yaml:"host" envconfig:"BKRG_REDIS_HOST"`
	Port          string        `yaml:"port" envconfig:"BKRG_REDIS_PORT"`
	DialTimeout   time.Duration `yaml:"dial_timeout" envconfig:"BKRG_REDIS_DIAL_TIMEOUT"`
	ReadTimeout   time.Duration `yaml:"read_timeout" envconfig:"BKRG_REDIS_READ_TIMEOUT"`
	WriteTimeout  time.Duration `yaml:"write_timeout" envconfig:"BKRG_REDIS_WRITE_TIMEOUT"`
	PoolSize      int           `yaml:"pool_size" envconfig:"BKRG_REDIS_POOL_SIZE"`
	PoolTimeout   time.Duration `yaml:"pool_timeout" envconfig:"BKRG_REDIS_POOL_TIMEOUT"`
	Username      string        `yaml:"username" envconfig:"BKRG_REDIS_USERNAME"`
	Password      string        `yaml:"password" envconfig:"BKRG_REDIS_PASSWORD"`
	DatabaseIndex int           `yaml:"db_index" envconfig:"BKRG_REDIS_DATABASE_INDEX"`
	KeyPrefix     string        `yaml:"key_prefix" envconfig:"BKRG_REDIS_KEY_PREFIX"`
}

type OpsConfig struct {
	Enabled         bool          `yaml:"enabled" envconfig:"BKRG_OPS_ENABLED"`
	Host            string        `yaml:"host" envconfig:"BKRG_OPS_HOST"`
	Port            string        `yaml:"port" envconfig:"BKRG_OPS_PORT"`
	ProfilerEnable  bool          `yaml:"profiler_enable" envconfig:"BKRG_OPS_PROFILER_ENABLE"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"BKRG_OPS_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"BKRG_OPS_WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"BKRG_OPS_SHUTDOWN_TIMEOUT"`
}

// LoadConfigFile provides an instance of config structure for the all application.
func LoadConfigFile(configFile string) (*Config, error) {
	file, err := os.Open(configFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	cfg := &Config{}
	yd := yaml.NewDecoder(file)
	err = yd.Decode(cfg)

	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigEnvs reads the environments variables and overrides the App config.
func LoadConfigEnvs(prefix string, config *Config) error {
	return envconfig.Process(prefix, config)
}

// InitConfig setup defaults values for non provided parameters
// and configures build tags values to be used if provided.
func InitConfig(config *Config, gitCommit, gitTag, buildTime string) error {
	if len(gitCommit) != 0 {
		config.GitCommit = gitCommit
	}

	if len(gitTag) != 0 {
		config.GitTag = gitTag
	}

	if len(buildTime) != 0 {
		config.BuildTime = buildTime
	}

	if len(config.Register.File) == 0 {
		return errors.New("make sure to set a valid register file in configuration file")
	}

	if len(config.LogFolder) == 0 {
		config.LogFolder = "./logs"
	}

	if config.LogMaxSize <= 0 {
		config.LogMaxSize = 10
	}

	if config.Journal.Buffer <= 0 {
		config.Journal.Buffer = 64
	}

	if config.Journal.Enabled && len(config.BoltDB.FilePath) == 0 {
		return errors.New("make sure to set a valid boltdb file path when the journal is enabled")
	}

	if len(config.BoltDB.JournalBucket) == 0 {
		config.BoltDB.JournalBucket = "journal"
	}

	if len(config.BoltDB.SnapshotBucket) == 0 {
		config.BoltDB.SnapshotBucket = "snapshots"
	}

	if config.BoltDB.Timeout == 0 {
		config.BoltDB.Timeout = 5 * time.Second
	}

	if config.Redis.Enabled && (len(config.Redis.Host) == 0 || len(config.Redis.Port) == 0) {
		return errors.New("make sure to set valid redis address and port in configuration file")
	}

	if config.Ops.Enabled && len(config.Ops.Port) == 0 {
		return errors.New("make sure to set a valid ops server port in configuration file")
	}

	if len(config.Ops.Host) == 0 {
		config.Ops.Host = "127.0.0.1"
	}

	if config.Ops.ShutdownTimeout == 0 {
		config.Ops.ShutdownTimeout = 5 * time.Second
	}

	return nil
}

// LoadAndInitConfigs loads in order the configs from various predefined sources
// then build the App configuration data. The env file is optional.
func LoadAndInitConfigs(configFile, envFile, gitCommit, gitTag, buildTime string) (*Config, error) {
	// Setup the yaml configuration from file.
	config, err := LoadConfigFile(configFile)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from file: %s", err)
	}

	// Set the environment configuration.
	err = godotenv.Load(envFile)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return config, fmt.Errorf("failed to set environment configurations: %s", err)
	}

	// Use environment variables with prefix `BKRG`.
	err = LoadConfigEnvs(EnvPrefix, config)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from environment: %s", err)
	}

	err = InitConfig(config, gitCommit, gitTag, buildTime)
	if err != nil {
		return config, fmt.Errorf("failed to initialize configurations: %s", err)
	}
	return config, nil
}
