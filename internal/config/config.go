package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Document store.
	MongoURI     string
	MongoDB      string
	StoreTimeout time.Duration

	// Media object store. Uploads are disabled when S3Bucket is empty.
	AWSRegion       string
	S3Bucket        string
	S3PublicBaseURL string
	AWSEndpointURL  string
	PresignTTL      time.Duration
	MaxImages       int
	MaxImageBytes   int64

	// Map display settings.
	MapAPIKey    string
	MapCenterLat float64
	MapCenterLon float64
	MapZoom      int

	// Recent reports feed.
	FeedInterval time.Duration
	FeedLimit    int

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	// Event publishing. Disabled when KafkaBrokers is empty.
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	var errs []error
	duration := func(key, def string) time.Duration {
		d, err := parseDuration(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return d
	}
	positiveInt := func(key string, def int) int {
		n, err := parsePositiveInt(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return n
	}
	float := func(key string, def float64) float64 {
		f, err := parseFloat(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return f
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		errs = append(errs, err)
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		MongoURI:     sharedcfg.EnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:      sharedcfg.EnvOrDefault("MONGO_DB", "sightings"),
		StoreTimeout: duration("STORE_TIMEOUT", "8s"),

		AWSRegion:       sharedcfg.EnvOrDefault("AWS_REGION", "us-east-1"),
		S3Bucket:        os.Getenv("S3_BUCKET"),
		S3PublicBaseURL: strings.TrimRight(os.Getenv("S3_PUBLIC_BASE_URL"), "/"),
		AWSEndpointURL:  os.Getenv("AWS_ENDPOINT_URL"),
		PresignTTL:      duration("PRESIGN_TTL", "168h"),
		MaxImages:       positiveInt("MAX_IMAGES", 3),
		MaxImageBytes:   int64(positiveInt("MAX_IMAGE_MB", 5)) << 20,

		MapAPIKey:    os.Getenv("MAP_API_KEY"),
		MapCenterLat: float("MAP_CENTER_LAT", 34.0522),
		MapCenterLon: float("MAP_CENTER_LON", -118.2437),
		MapZoom:      positiveInt("MAP_ZOOM", 9),

		FeedInterval: duration("FEED_INTERVAL", "30s"),
		FeedLimit:    positiveInt("FEED_LIMIT", 5),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   duration("MAPBOX_TIMEOUT", "5s"),
		MapboxCacheSize: parseMapboxCacheSize(),

		KafkaBrokers: sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "report-events"),
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if cfg.MongoURI == "" {
		return nil, errors.New("MONGO_URI is required")
	}
	if cfg.MongoDB == "" {
		return nil, errors.New("MONGO_DB is required")
	}
	if cfg.MapCenterLat < -90 || cfg.MapCenterLat > 90 {
		return nil, errors.New("MAP_CENTER_LAT must be between -90 and 90")
	}
	if cfg.MapCenterLon < -180 || cfg.MapCenterLon > 180 {
		return nil, errors.New("MAP_CENTER_LON must be between -180 and 180")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// UploadsEnabled reports whether an object store bucket is configured.
func (c *Config) UploadsEnabled() bool { return c.S3Bucket != "" }

// EventsEnabled reports whether report events should be published.
func (c *Config) EventsEnabled() bool { return len(c.KafkaBrokers) > 0 }

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}

func parseFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return f, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
