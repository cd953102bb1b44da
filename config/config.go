// Package config loads daemon configuration from a YAML file with
// FUNDROUND_ environment overrides.
package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/blockberries/fundround/types"
)

const (
	ConfigName = "fundround"
	ConfigType = "yaml"
	EnvPrefix  = "FUNDROUND"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Configuration is the full daemon configuration.
type Configuration struct {
	GRPC     Listener  `mapstructure:"grpc" yaml:"grpc"`
	HTTP     Listener  `mapstructure:"http" yaml:"http"`
	Store    Store     `mapstructure:"store" yaml:"store"`
	Identity Identity  `mapstructure:"identity" yaml:"identity"`
	Round    Round     `mapstructure:"round" yaml:"round"`
	Log      Log       `mapstructure:"log" yaml:"log"`
	Genesis  []Balance `mapstructure:"genesis" yaml:"genesis"`
}

type Listener struct {
	Listen string `mapstructure:"listen" yaml:"listen"`
}

type Store struct {
	Driver string `mapstructure:"driver" yaml:"driver"`
	DSN    string `mapstructure:"dsn" yaml:"dsn"`
}

// Identity selects the address codec. An empty Bech32Prefix selects
// plain addresses.
type Identity struct {
	Bech32Prefix string `mapstructure:"bech32_prefix" yaml:"bech32_prefix"`
	CacheSize    int    `mapstructure:"cache_size" yaml:"cache_size"`
}

type Round struct {
	ContractAddress string `mapstructure:"contract_address" yaml:"contract_address"`
	// BudgetDenom, when set, fixes the denomination of the matching pool.
	BudgetDenom  string `mapstructure:"budget_denom" yaml:"budget_denom"`
	TransferCost uint64 `mapstructure:"transfer_cost" yaml:"transfer_cost"`
}

type Log struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Balance is an account balance minted when the daemon starts on an
// empty store.
type Balance struct {
	Address string `mapstructure:"address" yaml:"address"`
	Denom   string `mapstructure:"denom" yaml:"denom"`
	Amount  string `mapstructure:"amount" yaml:"amount"`
}

// Coin returns b as a coin.
func (b Balance) Coin() types.Coin {
	return types.Coin{Denom: b.Denom, Amount: b.Amount}
}

// Default returns the configuration used when no file is present.
func Default() *Configuration {
	return &Configuration{
		GRPC:     Listener{Listen: ":9090"},
		HTTP:     Listener{Listen: ":8080"},
		Store:    Store{Driver: DriverMemory},
		Identity: Identity{CacheSize: 1024},
		Round: Round{
			ContractAddress: "fundround",
			TransferCost:    1000,
		},
		Log: Log{Level: "info", Format: "text"},
	}
}

// Load reads the configuration. An empty path searches for
// fundround.yaml in the working directory and in .artifacts; a missing
// file there falls back to Default. Environment variables such as
// FUNDROUND_GRPC_LISTEN override file values in both cases.
func Load(path string, log logrus.FieldLogger) (*Configuration, error) {
	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType(ConfigType)
		v.AddConfigPath(".")
		v.AddConfigPath(".artifacts")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
		log.Warnf("config file not found (file=%s.%s), default configuration is used", ConfigName, ConfigType)
	}

	cfg := &Configuration{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Configuration) {
	v.SetDefault("grpc.listen", d.GRPC.Listen)
	v.SetDefault("http.listen", d.HTTP.Listen)
	v.SetDefault("store.driver", d.Store.Driver)
	v.SetDefault("store.dsn", d.Store.DSN)
	v.SetDefault("identity.bech32_prefix", d.Identity.Bech32Prefix)
	v.SetDefault("identity.cache_size", d.Identity.CacheSize)
	v.SetDefault("round.contract_address", d.Round.ContractAddress)
	v.SetDefault("round.budget_denom", d.Round.BudgetDenom)
	v.SetDefault("round.transfer_cost", d.Round.TransferCost)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Validate checks values that would otherwise fail late at startup.
func (c *Configuration) Validate() error {
	switch c.Store.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Store.DSN == "" {
			return errors.New("store.dsn is required for the postgres driver")
		}
	default:
		return errors.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "log.level")
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.Errorf("unknown log format %q", c.Log.Format)
	}
	if c.Round.ContractAddress == "" {
		return errors.New("round.contract_address is required")
	}
	for i, b := range c.Genesis {
		if b.Address == "" || b.Denom == "" {
			return errors.Errorf("genesis[%d]: address and denom are required", i)
		}
		if _, err := b.Coin().Int(); err != nil {
			return errors.Wrapf(err, "genesis[%d]", i)
		}
	}
	return nil
}

// Logger builds a logger writing to stderr at the configured level and
// format.
func (c *Configuration) Logger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, errors.Wrap(err, "log.level")
	}
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(level)
	if c.Log.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log, nil
}

// YAML renders the configuration, with the store DSN masked.
func (c *Configuration) YAML() (string, error) {
	masked := *c
	if masked.Store.DSN != "" {
		masked.Store.DSN = "****"
	}
	out, err := yaml.Marshal(&masked)
	if err != nil {
		return "", errors.Wrap(err, "marshal config")
	}
	return string(out), nil
}
