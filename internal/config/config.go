package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"poolLedger/internal/chain"
	"poolLedger/internal/dex"
)

const (
	SourceNode     = "node"
	SourceExplorer = "explorer"

	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Defaults for the tracked BSC pair.
const (
	DefaultPair        = "0x98882c197445a025824f6f403363a3fdb200ddad"
	DefaultSwapTopic   = "0xd78ad95fa46c994b6551d0da85fc275fe613ce37657fb8d5e3d130840159d822"
	DefaultMintTopic   = "0x4c209b5fc8ad50758f13e2e1088ba56a560dff690a1c6fef26394f4c03821c4f"
	DefaultBurnTopic   = "0xdccd412f0b1252819cb1fd330b93224ca42612892bb3f4f789976e6d81936496"
	DefaultRPCURL      = "https://bsc-dataseed.binance.org/"
	DefaultExplorerURL = "https://api.bscscan.com/api"
)

// Chain describes the pair being tracked and how to read it.
type Chain struct {
	Pair        common.Address
	Topics      dex.Topics
	Decimals    int32
	BlockTime   time.Duration
	PacingDelay time.Duration
	BlockRange  uint64
}

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	Chain Chain

	Source         string
	RPCURL         string
	ExplorerURL    string
	ExplorerAPIKey string
	PageSize       int
	MaxPages       int
	MaxRetries     int
	RetryBackoff   time.Duration

	Store       string
	SQLitePath  string
	PostgresDSN string
	ArchiveDir  string

	Interval    time.Duration
	MetricsAddr string
	LogLevel    string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("source", SourceNode)
	v.SetDefault("rpc", DefaultRPCURL)
	v.SetDefault("explorer-url", DefaultExplorerURL)
	v.SetDefault("page-size", 1000)
	v.SetDefault("max-pages", 1)
	v.SetDefault("max-retries", 3)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("pair", DefaultPair)
	v.SetDefault("topic-swap", DefaultSwapTopic)
	v.SetDefault("topic-mint", DefaultMintTopic)
	v.SetDefault("topic-burn", DefaultBurnTopic)
	v.SetDefault("decimals", 18)
	v.SetDefault("block-time", 3*time.Second)
	v.SetDefault("pacing-delay", 4*time.Second)
	v.SetDefault("block-range", uint64(2000))
	v.SetDefault("store", StoreSQLite)
	v.SetDefault("sqlite-path", "./data/ledger.db")
	v.SetDefault("interval", 5*time.Minute)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	chainCfg, err := loadChain(v)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Chain:          chainCfg,
		Source:         strings.ToLower(strings.TrimSpace(v.GetString("source"))),
		RPCURL:         strings.TrimSpace(v.GetString("rpc")),
		ExplorerURL:    strings.TrimSpace(v.GetString("explorer-url")),
		ExplorerAPIKey: strings.TrimSpace(v.GetString("explorer-api-key")),
		PageSize:       v.GetInt("page-size"),
		MaxPages:       v.GetInt("max-pages"),
		MaxRetries:     v.GetInt("max-retries"),
		RetryBackoff:   v.GetDuration("retry-backoff"),
		Store:          strings.ToLower(strings.TrimSpace(v.GetString("store"))),
		SQLitePath:     v.GetString("sqlite-path"),
		PostgresDSN:    v.GetString("pg-dsn"),
		ArchiveDir:     v.GetString("archive-dir"),
		Interval:       v.GetDuration("interval"),
		MetricsAddr:    v.GetString("metrics-addr"),
		LogLevel:       v.GetString("log-level"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadChain(v *viper.Viper) (Chain, error) {
	pair, err := chain.ParseAddress(v.GetString("pair"))
	if err != nil {
		return Chain{}, fmt.Errorf("pair: %w", err)
	}

	var topics dex.Topics
	for _, item := range []struct {
		key string
		dst *common.Hash
	}{
		{"topic-swap", &topics.Swap},
		{"topic-mint", &topics.Mint},
		{"topic-burn", &topics.Burn},
	} {
		topic, err := chain.ParseTopic(v.GetString(item.key))
		if err != nil {
			return Chain{}, fmt.Errorf("%s: %w", item.key, err)
		}
		*item.dst = topic
	}

	return Chain{
		Pair:        pair,
		Topics:      topics,
		Decimals:    v.GetInt32("decimals"),
		BlockTime:   v.GetDuration("block-time"),
		PacingDelay: v.GetDuration("pacing-delay"),
		BlockRange:  v.GetUint64("block-range"),
	}, nil
}

// Validate checks settings that are wrong regardless of which command runs.
// Provider credentials are checked by the provider itself.
func (c Config) Validate() error {
	switch c.Source {
	case SourceNode:
		if c.RPCURL == "" {
			return fmt.Errorf("rpc url is required for the node source")
		}
	case SourceExplorer:
	default:
		return fmt.Errorf("unknown source %q (want %s or %s)", c.Source, SourceNode, SourceExplorer)
	}

	switch c.Store {
	case StoreMemory:
	case StoreSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("sqlite-path is required for the sqlite store")
		}
	case StorePostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return fmt.Errorf("pg-dsn is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown store %q (want %s, %s or %s)", c.Store, StoreMemory, StoreSQLite, StorePostgres)
	}

	if c.Chain.Decimals < 0 || c.Chain.Decimals > 77 {
		return fmt.Errorf("decimals must be between 0 and 77")
	}
	if c.Chain.BlockRange == 0 {
		return fmt.Errorf("block range must be greater than zero")
	}
	if c.Chain.BlockTime < 0 || c.Chain.PacingDelay < 0 {
		return fmt.Errorf("block time and pacing delay must not be negative")
	}
	if c.MaxPages <= 0 {
		return fmt.Errorf("max pages must be greater than zero")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page size must be greater than zero")
	}
	return nil
}
