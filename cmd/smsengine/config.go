package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	ini "github.com/vaughan0/go-ini"
)

// Config holds the application configuration.
type Config struct {
	// BindAddress is the address the HTTP server listens on.
	BindAddress string
	// StoreLocation is the SQLite queue file (a path, or a sqlite://
	// / sqlite: URI).
	StoreLocation string
	// ModemsFile is the path to the JSON file describing configured
	// modems.
	ModemsFile string
	// Strategy is the dispatch strategy tag: failover, single_carrier,
	// or round_robin.
	Strategy string
	// RetryLimit bounds how many cooled-down FAILED records are
	// eligible for reclaiming per worker cycle (each cycle claims at
	// most one record); zero disables retrying.
	RetryLimit int
	// LogLevel sets the logging level (debug, info, warn, error).
	LogLevel string
	// MQTTBroker is the broker URL for inbound submission, e.g.
	// "tcp://localhost:1883". Empty disables MQTT ingestion.
	MQTTBroker string
	// MQTTTopic is the topic subscribed to for JSON {"to","message"}
	// submissions.
	MQTTTopic string
}

// ConfigOption mutates a Config during LoadConfig.
type ConfigOption func(*Config) error

// LoadConfig builds a Config by applying opts in order; later options
// override earlier ones.
func LoadConfig(opts ...ConfigOption) (*Config, error) {
	config := &Config{}
	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}
	return config, nil
}

// WithDefaults applies built-in defaults.
func WithDefaults() ConfigOption {
	return func(c *Config) error {
		c.BindAddress = "0.0.0.0:8080"
		c.StoreLocation = "sqlite:///var/lib/smsengine/queue.db"
		c.ModemsFile = "/etc/smsengine/modems.json"
		c.Strategy = "failover"
		c.RetryLimit = 0
		c.LogLevel = "info"
		c.MQTTTopic = "sms/send"
		return nil
	}
}

// WithIniFile loads overrides from an INI file's [smsengine] section.
// A missing file is not an error; operators may rely on flags/env
// alone.
func WithIniFile(path string) ConfigOption {
	return func(c *Config) error {
		if path == "" {
			return nil
		}
		file, err := ini.LoadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return fmt.Errorf("load ini file %s: %w", path, err)
		}

		section := file.Section("smsengine")
		if v, ok := section["bind_address"]; ok {
			c.BindAddress = v
		}
		if v, ok := section["store_location"]; ok {
			c.StoreLocation = v
		}
		if v, ok := section["modems_file"]; ok {
			c.ModemsFile = v
		}
		if v, ok := section["strategy"]; ok {
			c.Strategy = v
		}
		if v, ok := section["retry_limit"]; ok {
			if n, err := strconv.Atoi(v); err == nil {
				c.RetryLimit = n
			}
		}
		if v, ok := section["log_level"]; ok {
			c.LogLevel = v
		}
		if v, ok := section["mqtt_broker"]; ok {
			c.MQTTBroker = v
		}
		if v, ok := section["mqtt_topic"]; ok {
			c.MQTTTopic = v
		}
		return nil
	}
}

// WithEnv loads overrides from environment variables.
func WithEnv() ConfigOption {
	return func(c *Config) error {
		if v := os.Getenv("BIND_ADDRESS"); v != "" {
			c.BindAddress = v
		}
		if v := os.Getenv("STORE_LOCATION"); v != "" {
			c.StoreLocation = v
		}
		if v := os.Getenv("MODEMS_FILE"); v != "" {
			c.ModemsFile = v
		}
		if v := os.Getenv("SMS_STRATEGY"); v != "" {
			c.Strategy = v
		}
		if v := os.Getenv("RETRY_LIMIT"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.RetryLimit = n
			}
		}
		if v := os.Getenv("LOG_LEVEL"); v != "" {
			c.LogLevel = v
		}
		if v := os.Getenv("MQTT_BROKER"); v != "" {
			c.MQTTBroker = v
		}
		if v := os.Getenv("MQTT_TOPIC"); v != "" {
			c.MQTTTopic = v
		}
		return nil
	}
}

// WithFlags loads overrides from explicitly-set command-line flags.
func WithFlags(fSet *flag.FlagSet) ConfigOption {
	return func(c *Config) error {
		fSet.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "bind-address":
				c.BindAddress = f.Value.String()
			case "store-location":
				c.StoreLocation = f.Value.String()
			case "modems-file":
				c.ModemsFile = f.Value.String()
			case "strategy":
				c.Strategy = f.Value.String()
			case "retry-limit":
				if n, err := strconv.Atoi(f.Value.String()); err == nil {
					c.RetryLimit = n
				}
			case "log-level":
				c.LogLevel = f.Value.String()
			case "mqtt-broker":
				c.MQTTBroker = f.Value.String()
			case "mqtt-topic":
				c.MQTTTopic = f.Value.String()
			}
		})
		return nil
	}
}
