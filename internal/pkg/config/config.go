package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, etc.), security settings
// - default: Values common across all environments (timezone, timeout, etc.), standard settings
// -----------------------------------------------------------------------------

type Config struct {
	Server    ServerConfig
	DB        DBConfig
	CORS      CORSConfig
	Log       LogConfig
	JWT       JWTConfig
	Redis     RedisConfig
	Cache     CacheConfig
	Kafka     KafkaConfig
	Beds24    Beds24Config
	ICal      ICalConfig
	Jobs      JobsConfig
	Scheduler SchedulerConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
	// Public host used in iCal UIDs (booking-<id>@<host>)
	PublicHost string `envconfig:"PUBLIC_HOST" default:"stayhub.local"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	TimeZone string `envconfig:"DB_TIMEZONE" default:"UTC"`
	MaxConns int32  `envconfig:"DB_MAX_CONNS" default:"20"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization,Idempotency-Key"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level          string `envconfig:"LOG_LEVEL" default:"info"`
	TimeZone       string `envconfig:"LOG_TIMEZONE" default:"UTC"`
	TimeFormat     string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
	TimeZoneOffset int    `envconfig:"LOG_TIMEZONE_OFFSET" default:"0"`
}

// Tokens are issued by the identity service; this service only validates them.
type JWTConfig struct {
	Secret   string `envconfig:"JWT_SECRET" required:"true"`
	Duration string `envconfig:"JWT_DURATION" default:"24h"`
}

type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

type CacheConfig struct {
	KeyPrefix           string        `envconfig:"CACHE_KEY_PREFIX" default:"stayhub:"`
	DiscountTTL         time.Duration `envconfig:"CACHE_DISCOUNT_TTL" default:"5m"`
	AccessiblePropsTTL  time.Duration `envconfig:"CACHE_ACCESSIBLE_PROPERTIES_TTL" default:"5m"`
	ExternalCalendarTTL time.Duration `envconfig:"CACHE_EXTERNAL_CALENDAR_TTL" default:"2m"`
	CalendarFeedTTL     time.Duration `envconfig:"CACHE_CALENDAR_FEED_TTL" default:"5m"`
}

type KafkaConfig struct {
	Brokers     []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	TopicPrefix string   `envconfig:"KAFKA_TOPIC_PREFIX" default:""`
	ClientID    string   `envconfig:"KAFKA_CLIENT_ID" default:"stayhub"`
	Source      string   `envconfig:"KAFKA_EVENT_SOURCE" default:"app://stayhub"`
}

type Beds24Config struct {
	BaseURL      string        `envconfig:"BEDS24_API_URL" default:"https://api.beds24.com/v2"`
	RefreshToken string        `envconfig:"BEDS24_REFRESH_TOKEN" default:""`
	Timeout      time.Duration `envconfig:"BEDS24_TIMEOUT" default:"30s"`
	RatePerSec   float64       `envconfig:"BEDS24_RATE_PER_SEC" default:"2"`
	RateBurst    int           `envconfig:"BEDS24_RATE_BURST" default:"5"`
}

type ICalConfig struct {
	Timeout time.Duration `envconfig:"ICAL_FETCH_TIMEOUT" default:"20s"`
	MaxSize int64         `envconfig:"ICAL_MAX_BYTES" default:"5242880"`
}

type JobsConfig struct {
	Workers          int           `envconfig:"JOBS_WORKERS" default:"2"`
	PollInterval     time.Duration `envconfig:"JOBS_POLL_INTERVAL" default:"1s"`
	LeaseTimeout     time.Duration `envconfig:"JOBS_LEASE_TIMEOUT" default:"5m"`
	SyncMaxAttempts  int           `envconfig:"JOBS_SYNC_MAX_ATTEMPTS" default:"3"`
	SyncBaseDelay    time.Duration `envconfig:"JOBS_SYNC_BASE_DELAY" default:"60s"`
	NotifMaxAttempts int           `envconfig:"JOBS_NOTIFICATION_MAX_ATTEMPTS" default:"5"`
	NotifBaseDelay   time.Duration `envconfig:"JOBS_NOTIFICATION_BASE_DELAY" default:"10s"`
}

type SchedulerConfig struct {
	Enabled            bool          `envconfig:"SCHEDULER_ENABLED" default:"true"`
	StatusInterval     time.Duration `envconfig:"SCHEDULER_STATUS_INTERVAL" default:"10m"`
	SyncRetryInterval  time.Duration `envconfig:"SCHEDULER_SYNC_RETRY_INTERVAL" default:"15m"`
	CompletionInterval time.Duration `envconfig:"SCHEDULER_COMPLETION_INTERVAL" default:"1h"`
	ReminderInterval   time.Duration `envconfig:"SCHEDULER_REMINDER_INTERVAL" default:"24h"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&timezone=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.TimeZone,
	)
}

// LoadConfig reads an optional .env file and then the process environment.
// Variables already present in the environment win over .env values.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:       "8889", // Test port
			PublicHost: "stayhub.test",
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433", // Test DB port
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
			TimeZone: "UTC",
			MaxConns: 20,
		},
		Log: LogConfig{
			Level:          "error", // Error level only for tests
			TimeZone:       "UTC",
			TimeFormat:     "2006-01-02 15:04:05.000",
			TimeZoneOffset: 0,
		},
		JWT: JWTConfig{
			Secret:   "test-secret",
			Duration: "1h",
		},
		Cache: CacheConfig{
			KeyPrefix:           "test:",
			DiscountTTL:         5 * time.Minute,
			AccessiblePropsTTL:  5 * time.Minute,
			ExternalCalendarTTL: 0,
			CalendarFeedTTL:     time.Minute,
		},
		ICal: ICalConfig{
			Timeout: 5 * time.Second,
			MaxSize: 1 << 20,
		},
		Jobs: JobsConfig{
			Workers:          1,
			PollInterval:     50 * time.Millisecond,
			LeaseTimeout:     time.Minute,
			SyncMaxAttempts:  3,
			SyncBaseDelay:    60 * time.Second,
			NotifMaxAttempts: 5,
			NotifBaseDelay:   10 * time.Second,
		},
		Scheduler: SchedulerConfig{
			Enabled: false,
		},
	}
}
