package configuration

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/iota-uz/utils/fs"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/sergiofbsilva/fenixedu-spaces-migration/pkg/logging"
)

var singleton = sync.OnceValue(func() *Configuration {
	c, err := Load([]string{".env", ".env.local"})
	if err != nil {
		panic(err)
	}
	return c
})

// LoadEnv loads the env files that exist, looking first in the working
// directory and then in the enclosing go module root.
func LoadEnv(envFiles []string) (int, error) {
	existingFiles := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if path, ok := resolveEnvFile(file); ok {
			existingFiles = append(existingFiles, path)
		}
	}
	if len(existingFiles) == 0 {
		return 0, nil
	}
	return len(existingFiles), godotenv.Load(existingFiles...)
}

func resolveEnvFile(file string) (string, bool) {
	if fs.FileExists(file) {
		return file, true
	}
	if filepath.IsAbs(file) {
		return "", false
	}
	root, ok := moduleRoot()
	if !ok {
		return "", false
	}
	candidate := filepath.Join(root, file)
	if fs.FileExists(candidate) {
		return candidate, true
	}
	return "", false
}

func moduleRoot() (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for {
		if fs.FileExists(filepath.Join(dir, "go.mod")) {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

type SpacesOptions struct {
	ImportDir         string `env:"SPACES_IMPORT_DIR" envDefault:"import"`
	ExportDir         string `env:"SPACES_EXPORT_DIR" envDefault:"export"`
	BatchSize         int    `env:"SPACES_BATCH_SIZE" envDefault:"1000"`
	ProgressEvery     int    `env:"SPACES_PROGRESS_EVERY" envDefault:"100"`
	ImportOccupations bool   `env:"SPACES_IMPORT_OCCUPATIONS" envDefault:"false"`
	MetadataSpecsPath string `env:"SPACES_METADATA_SPECS"`
}

func (s *SpacesOptions) Validate() error {
	if s.BatchSize <= 0 {
		return fmt.Errorf("SPACES_BATCH_SIZE must be positive, got %d", s.BatchSize)
	}
	if s.ProgressEvery <= 0 {
		return fmt.Errorf("SPACES_PROGRESS_EVERY must be positive, got %d", s.ProgressEvery)
	}
	return nil
}

type StorageOptions struct {
	Driver     string `env:"STORAGE_DRIVER" envDefault:"memory"` // memory, sqlite or postgres
	SQLitePath string `env:"STORAGE_SQLITE_PATH" envDefault:"data/spaces.db"`
}

func (s *StorageOptions) Validate() error {
	driver := strings.ToLower(strings.TrimSpace(s.Driver))
	if driver == "" {
		driver = "memory"
	}
	switch driver {
	case "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("invalid STORAGE_DRIVER=%q (expected memory|sqlite|postgres)", s.Driver)
	}
	if driver == "sqlite" && strings.TrimSpace(s.SQLitePath) == "" {
		return fmt.Errorf("STORAGE_SQLITE_PATH is required when STORAGE_DRIVER is 'sqlite'")
	}
	s.Driver = driver
	return nil
}

type DatabaseOptions struct {
	Opts     string `env:"-"`
	Name     string `env:"DB_NAME" envDefault:"fenix_spaces"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
}

func (d *DatabaseOptions) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Name, d.Password,
	)
}

type BlobOptions struct {
	Driver    string `env:"BLOB_DRIVER" envDefault:"fs"` // fs, s3 or memory
	Bucket    string `env:"BLOB_S3_BUCKET"`
	Prefix    string `env:"BLOB_S3_PREFIX"`
	Region    string `env:"BLOB_S3_REGION" envDefault:"us-east-1"`
	Endpoint  string `env:"BLOB_S3_ENDPOINT"`
	PathStyle bool   `env:"BLOB_S3_PATH_STYLE" envDefault:"false"`
}

func (b *BlobOptions) Validate() error {
	driver := strings.ToLower(strings.TrimSpace(b.Driver))
	if driver == "" {
		driver = "fs"
	}
	switch driver {
	case "fs", "memory":
	case "s3":
		if strings.TrimSpace(b.Bucket) == "" {
			return fmt.Errorf("BLOB_S3_BUCKET is required when BLOB_DRIVER is 's3'")
		}
	default:
		return fmt.Errorf("invalid BLOB_DRIVER=%q (expected fs|s3|memory)", b.Driver)
	}
	b.Driver = driver
	return nil
}

type MetricsOptions struct {
	Addr     string `env:"METRICS_ADDR"`
	Path     string `env:"METRICS_PATH" envDefault:"/metrics"`
	Textfile string `env:"METRICS_TEXTFILE"`
}

type Configuration struct {
	Spaces   SpacesOptions
	Storage  StorageOptions
	Database DatabaseOptions
	Blob     BlobOptions
	Metrics  MetricsOptions

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogPath  string `env:"LOG_PATH"`

	logFile io.Closer
	logger  *logrus.Logger
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch c.LogLevel {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.ErrorLevel
	}
}

func Use() *Configuration {
	return singleton()
}

// Load builds a configuration from the env files and the process environment.
func Load(envFiles []string) (*Configuration, error) {
	c := &Configuration{}
	if err := c.load(envFiles); err != nil {
		c.Unload()
		return nil, err
	}
	return c, nil
}

func (c *Configuration) load(envFiles []string) error {
	n, err := LoadEnv(envFiles)
	if err != nil {
		return err
	}
	if n == 0 && len(envFiles) > 0 {
		wd, _ := os.Getwd()
		log.Println("No .env files found. Tried:")
		for _, file := range envFiles {
			log.Println(filepath.Join(wd, file))
		}
	}
	if err := env.Parse(c); err != nil {
		return err
	}

	if err := c.Spaces.Validate(); err != nil {
		return fmt.Errorf("spaces configuration error: %w", err)
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage configuration error: %w", err)
	}
	if err := c.Blob.Validate(); err != nil {
		return fmt.Errorf("blob configuration error: %w", err)
	}

	if strings.TrimSpace(c.LogPath) == "" {
		c.logger = logging.ConsoleLogger(c.LogrusLogLevel())
	} else {
		f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.LogPath)
		if err != nil {
			return err
		}
		c.logFile = f
		c.logger = logger
	}

	c.Database.Opts = c.Database.ConnectionString()
	return nil
}

// Unload handles a graceful shutdown.
func (c *Configuration) Unload() {
	if c.logFile != nil {
		if err := c.logFile.Close(); err != nil {
			log.Printf("Failed to close log file: %v", err)
		}
	}
}
