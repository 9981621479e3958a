// Package config loads the stowage configuration from defaults, an optional
// JSON/YAML file, and STOWAGE_* environment variables, in ascending
// precedence. A .env file in the working directory is honored when present.
package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full configuration surface consumed by stowage.
type Config struct {
	Storage  StorageConfig
	S3       S3Config
	DynamoDB DynamoDBConfig
	Download DownloadConfig
}

// StorageConfig selects the backend and the dataset address space.
type StorageConfig struct {
	// Backend is one of "s3", "minio", "gcs", "filesystem".
	Backend string
	// DatasetsRootPath is the URL-form root under which all dataset
	// artifacts live, e.g. "s3://my-bucket/datasets".
	DatasetsRootPath string
	// PrefixReplacePath, when set, is a local mount root standing in for
	// the scheme+bucket portion of dataset addresses.
	PrefixReplacePath string
	// DatasetScoped nests concatenated bytes files under a per-dataset
	// segment instead of a shared root.
	DatasetScoped bool
}

// S3Config carries transport tuning forwarded opaquely to the S3 client.
//
// Endpoint, AccessKey, SecretKey and UseSSL only matter for self-hosted
// S3-compatible stores (MinIO, Ceph, Garage); against AWS they stay empty and
// the SDK default credential chain applies.
type S3Config struct {
	Region             string
	Endpoint           string
	AccessKey          string
	SecretKey          string
	UseSSL             bool
	MaxPoolConnections int
	ConnectTimeout     time.Duration
	ReadTimeout        time.Duration
	MaxRetries         int
}

// DynamoDBConfig locates the row index table.
type DynamoDBConfig struct {
	TableName string
	Region    string
}

// DownloadConfig tunes file fetches from object storage.
type DownloadConfig struct {
	Retries      int
	RetryDelay   time.Duration
	RetryBackoff float64
	Timeout      time.Duration
	PartSizeMB   int
	Concurrency  int
}

var (
	once     sync.Once
	instance *Config
)

// Load returns the process-wide configuration, reading it on first use.
//
// A config file named by STOWAGE_CONFIG_PATH is merged when readable;
// otherwise defaults plus environment variables apply. Use LoadFile when a
// missing file must be an error.
func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		v := newViper()
		if path := v.GetString("config_path"); path != "" {
			v.SetConfigFile(path)
			_ = v.ReadInConfig()
		}

		instance = fromViper(v)
	})

	return instance
}

// LoadFile reads configuration from the given JSON/YAML file, applying
// defaults underneath and STOWAGE_* environment overrides on top.
func LoadFile(path string) (*Config, error) {
	_ = godotenv.Load()

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	return fromViper(v), nil
}

// Default returns a configuration populated with defaults only, ignoring the
// environment. Useful as a starting point in tests.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	return fromViper(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("STOWAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("storage.backend", "s3")
	v.SetDefault("storage.datasets_root_path", "")
	v.SetDefault("storage.prefix_replace_path", "")
	v.SetDefault("storage.dataset_scoped", false)

	v.SetDefault("s3.region", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("s3.max_pool_connections", 10)
	v.SetDefault("s3.connect_timeout_s", 140)
	v.SetDefault("s3.read_timeout_s", 140)
	v.SetDefault("s3.max_retries", 3)

	v.SetDefault("dynamodb.table_name", "")
	v.SetDefault("dynamodb.region", "")

	v.SetDefault("download.retries", 2)
	v.SetDefault("download.retry_delay_s", 3)
	v.SetDefault("download.retry_backoff", 2.0)
	v.SetDefault("download.timeout_s", 150)
	v.SetDefault("download.part_size_mb", 8)
	v.SetDefault("download.concurrency", 5)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Storage: StorageConfig{
			Backend:           v.GetString("storage.backend"),
			DatasetsRootPath:  v.GetString("storage.datasets_root_path"),
			PrefixReplacePath: v.GetString("storage.prefix_replace_path"),
			DatasetScoped:     v.GetBool("storage.dataset_scoped"),
		},
		S3: S3Config{
			Region:             v.GetString("s3.region"),
			Endpoint:           v.GetString("s3.endpoint"),
			AccessKey:          v.GetString("s3.access_key"),
			SecretKey:          v.GetString("s3.secret_key"),
			UseSSL:             v.GetBool("s3.use_ssl"),
			MaxPoolConnections: v.GetInt("s3.max_pool_connections"),
			ConnectTimeout:     time.Duration(v.GetInt("s3.connect_timeout_s")) * time.Second,
			ReadTimeout:        time.Duration(v.GetInt("s3.read_timeout_s")) * time.Second,
			MaxRetries:         v.GetInt("s3.max_retries"),
		},
		DynamoDB: DynamoDBConfig{
			TableName: v.GetString("dynamodb.table_name"),
			Region:    v.GetString("dynamodb.region"),
		},
		Download: DownloadConfig{
			Retries:      v.GetInt("download.retries"),
			RetryDelay:   time.Duration(v.GetInt("download.retry_delay_s")) * time.Second,
			RetryBackoff: v.GetFloat64("download.retry_backoff"),
			Timeout:      time.Duration(v.GetInt("download.timeout_s")) * time.Second,
			PartSizeMB:   v.GetInt("download.part_size_mb"),
			Concurrency:  v.GetInt("download.concurrency"),
		},
	}
}
