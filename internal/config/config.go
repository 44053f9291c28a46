package config

import (
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rkarimi/tutordesk/pkg/logger"
)

const ConfigTagName = "env"
const ConfigDefaultTagName = "default"

var config *Config

// Configuration This struct holds config envs and values
// which are used across the dashboard services. Only this struct must be
// used to hold any configuration values, no direct access to
// env, ini or any other config source should be made
type Config struct {
	AppEnv              string `env:"APP_ENV" default:"dev"`
	AppName             string `env:"APP_NAME" default:"tutordesk"`
	AppDebug            bool   `env:"APP_DEBUG" default:"1"`
	AppDebugMetricsAddr string `env:"APP_DEBUG_METRIC_ADDR"`
	AppDebugMetricsURI  string `env:"APP_DEBUG_METRIC_URI"`
	AppBaseUrl          string `env:"APP_BASE_URL"`

	HttpListenAddr            string `env:"HTTP_LISTEN_ADDR" validation:"mustExists"`
	HttpBaseRequestUrl        string `env:"HTTP_BASE_REQUEST_URI" validation:"mustExists"`
	HttpServerReadTimeout     int    `env:"HTTP_SERVER_READ_TIMEOUT"`
	HttpServerWriteTimeout    int    `env:"HTTP_SERVER_WRITE_TIMEOUT"`
	HttpServerReadBufferSize  int    `env:"HTTP_SERVER_READ_BUFFER_SIZE"`
	HttpServerWriteBufferSize int    `env:"HTTP_SERVER_WRITE_BUFFER_SIZE"`

	PostgresReadHost     string `env:"POSTGRES_READ_HOST"`
	PostgresReadPort     string `env:"POSTGRES_READ_PORT"`
	PostgresReadUser     string `env:"POSTGRES_READ_USER"`
	PostgresReadPassword string `env:"POSTGRES_READ_PASSWORD"`
	PostgresReadDatabase string `env:"POSTGRES_READ_DBNAME"`

	PostgresWriteHost     string `env:"POSTGRES_WRITE_HOST"`
	PostgresWritePort     string `env:"POSTGRES_WRITE_PORT"`
	PostgresWriteUser     string `env:"POSTGRES_WRITE_USER"`
	PostgresWritePassword string `env:"POSTGRES_WRITE_PASSWORD"`
	PostgresWriteDatabase string `env:"POSTGRES_WRITE_DBNAME"`

	RedisAddr               string `env:"REDIS_ADDR"`
	RedisUsername           string `env:"REDIS_USER"`
	RedisPassword           string `env:"REDIS_PASS"`
	RedisDatabase           int    `env:"REDIS_DATABASE"`
	RedisUniversalKeyPrefix string `env:"REDIS_UNIVERSAL_KEY_PREFIX"`

	PromNamespace string `env:"PROM_NAMESPACE"`

	ProfilerEnable bool `env:"PROFILER_ENABLE"`
	ProfilerPort   int  `env:"PROFILER_PORT"`

	LogLevel []string `env:"LOG_LEVEL"`

	ScanStreamName    string        `env:"SCAN_STREAM_NAME" default:"scan_events"`
	ScanConsumerGroup string        `env:"SCAN_CONSUMER_GROUP" default:"scan_workers"`
	ScanConsumerName  string        `env:"SCAN_CONSUMER_NAME"`
	ScanPollInterval  time.Duration `env:"SCAN_POLL_INTERVAL"`
	ScanBatchSize     int64         `env:"SCAN_BATCH_SIZE" default:"16"`
	ScanMaxLen        int64         `env:"SCAN_MAX_LEN" default:"10000"`
	ScanClaimIdle     time.Duration `env:"SCAN_CLAIM_IDLE"`

	ScanDebounceWindow time.Duration `env:"SCAN_DEBOUNCE_WINDOW"`
	ScanFeedbackWindow time.Duration `env:"SCAN_FEEDBACK_WINDOW"`

	ReportIssuerName string `env:"REPORT_ISSUER_NAME" default:"Tutordesk"`

	TextGenURL        string        `env:"TEXTGEN_URL"`
	TextGenTimeout    time.Duration `env:"TEXTGEN_TIMEOUT"`
	TextGenMaxRetries int           `env:"TEXTGEN_MAX_RETRIES" default:"2"`
	TextGenRetryDelay time.Duration `env:"TEXTGEN_RETRY_DELAY"`

	DeliveryURL     string        `env:"DELIVERY_URL"`
	DeliveryTimeout time.Duration `env:"DELIVERY_TIMEOUT"`

	SpeechURL     string        `env:"SPEECH_URL"`
	SpeechTimeout time.Duration `env:"SPEECH_TIMEOUT"`
}

func Load(path string) error {
	logger.Info("loading configs..", "path", path)
	c := &Config{}
	var err error
	if path != "" {
		logger.Info("trying to publish env from file", "path", path)
		err = godotenv.Load(path)
		if err != nil {
			return errors.New("failed to load configuration file " + path + " error: " + err.Error())
		}
	}

	_, err = env.UnmarshalFromEnviron(c)

	if err != nil {
		return errors.New("failed to map env variables to Configuration object " + " error: " + err.Error())
	}

	config = c
	return nil
}

func Get() *Config {
	if config == nil {
		logger.Panic("Config is not initialized")
	}
	return config
}
