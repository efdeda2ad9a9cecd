package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-yaml/yaml"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type Config struct {
	Server  Server  `yaml:"server"`
	Storage Storage `yaml:"storage"`
	Board   Board   `yaml:"board"`
	Media   Media   `yaml:"media"`
}

type Server struct {
	Port          string `yaml:"port"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDB"`
	MemcachedAddr string `yaml:"memcachedAddr"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
	LogLevel      string `yaml:"logLevel"`
}

type Storage struct {
	Driver        string        `yaml:"driver"` // postgres, mongo
	PostgresDsn   string        `yaml:"postgresDsn"`
	MongoURI      string        `yaml:"mongoURI"`
	MongoDatabase string        `yaml:"mongoDatabase"`
	Timeout       time.Duration `yaml:"timeout"`
}

type Board struct {
	TimeZone          string        `yaml:"timeZone"`
	CacheTTL          time.Duration `yaml:"cacheTTL"`
	MaxUpsertAttempts int           `yaml:"maxUpsertAttempts"`
}

type Media struct {
	Backend      string `yaml:"backend"` // local, objectstore, none
	MaxBytes     int64  `yaml:"maxBytes"`
	Dir          string `yaml:"dir"`
	PublicPrefix string `yaml:"publicPrefix"`
	Endpoint     string `yaml:"endpoint"`
	Bucket       string `yaml:"bucket"`
	Token        string `yaml:"token"`
	PublicURL    string `yaml:"publicURL"`
	KeyPrefix    string `yaml:"keyPrefix"`
}

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"

	MediaLocal       = "local"
	MediaObjectStore = "objectstore"
	MediaNone        = "none"
)

// Load reads the YAML file at path, then .env and the process environment on
// top of it. A missing file is not an error; everything can come from the
// environment.
func Load(path string) (Config, error) {
	var config Config

	file, err := os.Open(path)
	switch {
	case err == nil:
		defer file.Close()
		err = yaml.NewDecoder(file).Decode(&config)
		if err != nil {
			return Config{}, errors.Wrap(err, "config.Load: decode failed")
		}
	case os.IsNotExist(err):
	default:
		return Config{}, errors.Wrap(err, "config.Load")
	}

	err = godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		return Config{}, errors.Wrap(err, "config.Load: .env")
	}

	if err := config.applyEnv(); err != nil {
		return Config{}, err
	}
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c *Config) applyEnv() error {
	setString := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setString(&c.Server.Port, "PORT")
	setString(&c.Server.RedisAddr, "MESSBOARD_REDIS_ADDR")
	setString(&c.Server.RedisPassword, "MESSBOARD_REDIS_PASSWORD")
	setString(&c.Server.MemcachedAddr, "MESSBOARD_MEMCACHED_ADDR")
	setString(&c.Server.TraceEndpoint, "MESSBOARD_TRACE_ENDPOINT")
	setString(&c.Storage.Driver, "MESSBOARD_STORAGE_DRIVER")
	setString(&c.Storage.PostgresDsn, "MESSBOARD_POSTGRES_DSN")
	setString(&c.Storage.MongoURI, "MESSBOARD_MONGO_URI")
	setString(&c.Media.Backend, "MESSBOARD_MEDIA_BACKEND")
	setString(&c.Media.Token, "MESSBOARD_MEDIA_TOKEN")

	if v := os.Getenv("MESSBOARD_ENABLE_TRACE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrap(err, "config.Load: MESSBOARD_ENABLE_TRACE")
		}
		c.Server.EnableTrace = b
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8000"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverPostgres
	}
	if c.Storage.MongoDatabase == "" {
		c.Storage.MongoDatabase = "messboard"
	}
	if c.Storage.Timeout <= 0 {
		c.Storage.Timeout = 5 * time.Second
	}
	if c.Board.TimeZone == "" {
		c.Board.TimeZone = "Asia/Kolkata"
	}
	if c.Board.CacheTTL <= 0 {
		c.Board.CacheTTL = time.Minute
	}
	if c.Board.MaxUpsertAttempts <= 0 {
		c.Board.MaxUpsertAttempts = 5
	}
	if c.Media.Backend == "" {
		c.Media.Backend = MediaLocal
	}
	if c.Media.MaxBytes <= 0 {
		if c.Media.Backend == MediaObjectStore {
			c.Media.MaxBytes = 10 << 20
		} else {
			c.Media.MaxBytes = 3 << 20
		}
	}
	if c.Media.Dir == "" {
		c.Media.Dir = "uploads"
	}
	if c.Media.PublicPrefix == "" {
		c.Media.PublicPrefix = "/uploads"
	}
}

func (c Config) Validate() error {
	switch c.Storage.Driver {
	case DriverPostgres:
		if c.Storage.PostgresDsn == "" {
			return fmt.Errorf("config: storage.postgresDsn is required for the postgres driver")
		}
	case DriverMongo:
		if c.Storage.MongoURI == "" {
			return fmt.Errorf("config: storage.mongoURI is required for the mongo driver")
		}
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}

	switch c.Media.Backend {
	case MediaLocal, MediaNone:
	case MediaObjectStore:
		if c.Media.Endpoint == "" || c.Media.Bucket == "" {
			return fmt.Errorf("config: media.endpoint and media.bucket are required for the objectstore backend")
		}
	default:
		return fmt.Errorf("config: unknown media backend %q", c.Media.Backend)
	}

	if c.Server.EnableTrace && c.Server.TraceEndpoint == "" {
		return fmt.Errorf("config: server.traceEndpoint is required when tracing is enabled")
	}
	return nil
}
