// Package config loads service configuration from an optional YAML file with
// environment-variable overrides, so main stays lean and deployments can use
// either style.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

type EthereumConfig struct {
	// RPCURLs is an ordered fallback list; calls advance to the next endpoint
	// on transport failure.
	RPCURLs     []string `yaml:"rpc_urls"`
	SubgraphURL string   `yaml:"subgraph_url"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Ethereum EthereumConfig `yaml:"ethereum"`
	Kafka    KafkaConfig    `yaml:"kafka"`
}

// Default public endpoints, in fallback order. A custom endpoint from config
// or ENSGRAPH_RPC_URL is tried first.
var defaultRPCURLs = []string{
	"https://eth.llamarpc.com",
	"https://rpc.ankr.com/eth",
	"https://ethereum.publicnode.com",
	"https://eth.drpc.org",
	"https://cloudflare-eth.com",
}

const defaultSubgraphURL = "https://api.thegraph.com/subgraphs/name/ensdomains/ens"

// Load reads the YAML file at path (skipped when path is empty or missing),
// applies environment overrides, then fills defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("ENSGRAPH_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.Redis.URL = v
	}
	if v := os.Getenv("ENSGRAPH_RPC_URL"); v != "" {
		c.Ethereum.RPCURLs = append([]string{v}, c.Ethereum.RPCURLs...)
	}
	if v := os.Getenv("ENSGRAPH_SUBGRAPH_URL"); v != "" {
		c.Ethereum.SubgraphURL = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Redis.CacheTTL <= 0 {
		c.Redis.CacheTTL = 5 * time.Minute
	}
	if len(c.Ethereum.RPCURLs) == 0 {
		c.Ethereum.RPCURLs = defaultRPCURLs
	}
	if c.Ethereum.SubgraphURL == "" {
		c.Ethereum.SubgraphURL = defaultSubgraphURL
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "ensgraph.audit"
	}
}
