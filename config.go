package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"hemtjan.st/openaq/internal/logging"
	"hemtjan.st/openaq/internal/openaq"
	"hemtjan.st/openaq/internal/plugin"
)

type config struct {
	Latitude  float64
	Longitude float64
	RadiusKm  int
	Token     string
	Limit     int
	Endpoint  string
	Timeout   time.Duration

	DeviceID   string
	DeviceName string

	Interval  time.Duration
	Heartbeat time.Duration

	AppEnv   string
	LogLevel slog.Level
	EnvFile  string
}

// envDefaults reads flag defaults from the environment, remembering the first
// malformed value.
type envDefaults struct {
	getenv func(string) string
	err    error
}

func (e *envDefaults) fail(key, value string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
}

func (e *envDefaults) lookup(key, def string) string {
	if v := strings.TrimSpace(e.getenv(key)); v != "" {
		return v
	}
	return def
}

func (e *envDefaults) lookupInt(key string, def int) int {
	v := strings.TrimSpace(e.getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return i
}

func (e *envDefaults) lookupDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(e.getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return d
}

// parseConfig registers the application flags on fs, using the environment
// for their defaults, and parses args.
func parseConfig(fs *flag.FlagSet, args []string, getenv func(string) string) (config, error) {
	env := &envDefaults{getenv: getenv}

	location := fs.String("location", env.lookup("OPENAQ_LOCATION", "REQUIRED"), "Coordinates to search around, as \"lat;lon\"")
	radius := fs.Int("radius", env.lookupInt("OPENAQ_RADIUS", 10), "Search radius in km")
	token := fs.String("token", env.lookup("OPENAQ_API_KEY", ""), "OpenAQ API key")
	limit := fs.Int("limit", env.lookupInt("OPENAQ_LIMIT", 100), "Maximum number of stations to request")
	endpoint := fs.String("endpoint", env.lookup("OPENAQ_ENDPOINT", openaq.Endpoint), "OpenAQ API base URL")
	timeout := fs.Duration("timeout", env.lookupDuration("OPENAQ_TIMEOUT", 30*time.Second), "HTTP request timeout")
	id := fs.String("id", env.lookup("DEVICE_ID", "home"), "Device ID used in the hemtjanst topic")
	name := fs.String("name", env.lookup("DEVICE_NAME", "Air quality"), "Device name")
	interval := fs.Duration("interval", env.lookupDuration("POLL_INTERVAL", time.Hour), "How often to poll the API")
	heartbeat := fs.Duration("heartbeat", env.lookupDuration("HEARTBEAT", 10*time.Second), "Heartbeat period")
	appEnv := fs.String("app-env", env.lookup("APP_ENV", "prod"), "Environment: dev or prod")
	logLevel := fs.String("log-level", env.lookup("LOG_LEVEL", "info"), "Log level: debug, info, warn or error")
	envFile := fs.String("env-file", envFileFromArgs(args, getenv), "File to load environment variables from")

	if err := fs.Parse(args); err != nil {
		return config{}, err
	}
	if env.err != nil {
		return config{}, env.err
	}

	if *location == "REQUIRED" {
		return config{}, errors.New("a location is required to be able to query the OpenAQ API")
	}
	lat, lon, err := plugin.ParseLocation(*location)
	if err != nil {
		return config{}, err
	}

	switch *appEnv {
	case "dev", "prod":
	default:
		return config{}, fmt.Errorf("invalid app env %q (allowed: dev, prod)", *appEnv)
	}
	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		return config{}, err
	}

	if *heartbeat <= 0 {
		return config{}, fmt.Errorf("heartbeat must be positive, got %v", *heartbeat)
	}
	if *interval < *heartbeat {
		return config{}, fmt.Errorf("interval %v must not be shorter than heartbeat %v", *interval, *heartbeat)
	}

	return config{
		Latitude:   lat,
		Longitude:  lon,
		RadiusKm:   *radius,
		Token:      *token,
		Limit:      *limit,
		Endpoint:   *endpoint,
		Timeout:    *timeout,
		DeviceID:   *id,
		DeviceName: *name,
		Interval:   *interval,
		Heartbeat:  *heartbeat,
		AppEnv:     *appEnv,
		LogLevel:   level,
		EnvFile:    *envFile,
	}, nil
}

// envFileFromArgs returns the -env-file value without parsing flags, falling
// back to ENV_FILE and then .env.
func envFileFromArgs(args []string, getenv func(string) string) string {
	path := strings.TrimSpace(getenv("ENV_FILE"))
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			break
		}
		if !strings.HasPrefix(a, "-") {
			continue
		}
		name, value, ok := strings.Cut(strings.TrimLeft(a, "-"), "=")
		if name != "env-file" {
			continue
		}
		if !ok && i+1 < len(args) {
			i++
			value = args[i]
		}
		path = strings.TrimSpace(value)
	}
	if path == "" {
		return ".env"
	}
	return path
}

// loadEnvFile loads path into the process environment. A missing file is
// not an error.
func loadEnvFile(path string) error {
	err := godotenv.Load(path)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// credentialFromEnvFile returns a func that re-reads the API key from path,
// falling back to the process environment.
func credentialFromEnvFile(path string, getenv func(string) string) func() string {
	return func() string {
		if vals, err := godotenv.Read(path); err == nil {
			if v := strings.TrimSpace(vals["OPENAQ_API_KEY"]); v != "" {
				return v
			}
		}
		return strings.TrimSpace(getenv("OPENAQ_API_KEY"))
	}
}
