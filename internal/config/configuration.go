package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultChunkSize             = 5 * 1024 * 1024
	DefaultSessionTTLHours       = 24
	DefaultDirectUploadThreshold = 5 * 1024 * 1024
	DefaultPasswordIterations    = 210000
	DefaultSignedURLTTLSeconds   = 3600
	DefaultCleanSchedule         = "@every 15m"
	DefaultRetentionHours        = 72
	DefaultCleanWorkers          = 4

	// MinioMinChunkSize is the smallest part ComposeObject accepts for all but the last source.
	MinioMinChunkSize = 5 * 1024 * 1024
)

type Configuration struct {
	Storage  StorageConfig  `yaml:"storage"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Upload   UploadConfig   `yaml:"upload"`
	Share    ShareConfig    `yaml:"share"`
}

type StorageConfig struct {
	Driver string             `yaml:"driver"`
	Local  LocalStorageConfig `yaml:"local"`
	Minio  MinioStorageConfig `yaml:"minio"`
}

type LocalStorageConfig struct {
	Path       string `yaml:"path"`
	BaseURL    string `yaml:"base_url"`
	SigningKey string `yaml:"signing_key"`
}

type MinioStorageConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type ServerConfig struct {
	Port          int           `yaml:"port"`
	Concurrency   int           `yaml:"concurrency"`
	RequestConfig RequestConfig `yaml:"request"`
	LogConfig     LogConfig     `yaml:"log"`
	CleanConfig   CleanConfig   `yaml:"clean"`
}

type RequestConfig struct {
	// SizeLimit is the request body limit in megabytes.
	SizeLimit int `yaml:"size_limit"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
	Output  string `yaml:"output"`
	LogPath string `yaml:"path"`
}

type CleanConfig struct {
	Schedule       string `yaml:"schedule"`
	RetentionHours int    `yaml:"retention_hours"`
	Workers        int    `yaml:"workers"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	// DSN is used as-is when set; otherwise the DB_* environment variables are used.
	DSN string `yaml:"dsn"`
}

type UploadConfig struct {
	ChunkSize             int64 `yaml:"chunk_size"`
	SessionTTLHours       int   `yaml:"session_ttl_hours"`
	DirectUploadThreshold int64 `yaml:"direct_upload_threshold"`
}

type ShareConfig struct {
	PasswordIterations  int `yaml:"password_iterations"`
	SignedURLTTLSeconds int `yaml:"signed_url_ttl_seconds"`
}

func LoadConfiguration(configurationFilePath string) (*Configuration, error) {
	// .env is optional
	_ = godotenv.Load()

	data, err := os.ReadFile(configurationFilePath)
	if err != nil {
		return nil, err
	}
	return ParseConfiguration(data)
}

// ParseConfiguration expands ${VAR} references against the environment before decoding.
func ParseConfiguration(data []byte) (*Configuration, error) {
	var config Configuration
	err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &config)
	if err != nil {
		return nil, err
	}
	config.applyDefaults()
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Configuration) validate() error {
	if c.Storage.Driver == "minio" && c.Upload.ChunkSize < MinioMinChunkSize {
		return fmt.Errorf("upload.chunk_size %d is below the %d byte minimum of the minio driver", c.Upload.ChunkSize, MinioMinChunkSize)
	}
	return nil
}

func (c *Configuration) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Concurrency == 0 {
		c.Server.Concurrency = 256
	}
	if c.Server.RequestConfig.SizeLimit == 0 {
		c.Server.RequestConfig.SizeLimit = 16
	}
	if c.Server.CleanConfig.Schedule == "" {
		c.Server.CleanConfig.Schedule = DefaultCleanSchedule
	}
	if c.Server.CleanConfig.RetentionHours == 0 {
		c.Server.CleanConfig.RetentionHours = DefaultRetentionHours
	}
	if c.Server.CleanConfig.Workers == 0 {
		c.Server.CleanConfig.Workers = DefaultCleanWorkers
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "local"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.Upload.ChunkSize == 0 {
		c.Upload.ChunkSize = DefaultChunkSize
	}
	if c.Upload.SessionTTLHours == 0 {
		c.Upload.SessionTTLHours = DefaultSessionTTLHours
	}
	if c.Upload.DirectUploadThreshold == 0 {
		c.Upload.DirectUploadThreshold = DefaultDirectUploadThreshold
	}
	if c.Share.PasswordIterations == 0 {
		c.Share.PasswordIterations = DefaultPasswordIterations
	}
	if c.Share.SignedURLTTLSeconds == 0 {
		c.Share.SignedURLTTLSeconds = DefaultSignedURLTTLSeconds
	}
}
