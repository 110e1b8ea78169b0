// Package config loads the governor daemon configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math/big"
	"net/url"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	chainsel "github.com/smartcontractkit/chain-selectors"

	voting "github.com/bjoernek/multi-chain-voting"
	"github.com/bjoernek/multi-chain-voting/internal/logging"
	"github.com/bjoernek/multi-chain-voting/sdk/evm"
	"github.com/bjoernek/multi-chain-voting/sdk/evm/aggregator"
	"github.com/bjoernek/multi-chain-voting/types"
)

// EnvPrefix prefixes every environment variable read by Load, e.g. GOVERNOR_CHAIN_ID.
const EnvPrefix = "GOVERNOR"

const (
	SignerModeLocal  = "local"
	SignerModeRemote = "remote"
)

type Config struct {
	ChainID         uint64   `envconfig:"CHAIN_ID"         default:"11155111" validate:"required"`
	ContractAddress string   `envconfig:"CONTRACT_ADDRESS" validate:"required"`
	Providers       []string `envconfig:"PROVIDERS"        validate:"required,min=1,dive,url"`

	MaxResponseBytes     int64  `envconfig:"MAX_RESPONSE_BYTES"       default:"2048"         validate:"gt=0"`
	GasLimit             uint64 `envconfig:"GAS_LIMIT"                default:"80000"        validate:"gt=0"`
	MaxFeePerGas         string `envconfig:"MAX_FEE_PER_GAS"          default:"156083066522" validate:"number"`
	MaxPriorityFeePerGas string `envconfig:"MAX_PRIORITY_FEE_PER_GAS" default:"3000000000"   validate:"number"`

	SweepInterval types.Duration `envconfig:"SWEEP_INTERVAL" default:"1m"`
	DataDir       string         `envconfig:"DATA_DIR"`
	ListenAddress string         `envconfig:"LISTEN_ADDRESS" default:"127.0.0.1:8080" validate:"hostname_port"`

	// Identities links caller identities to ledger addresses, "alice:0x...,bob:0x...".
	Identities map[string]string `envconfig:"IDENTITIES"`

	Signer SignerConfig `envconfig:"SIGNER"`
	Log    LogConfig    `envconfig:"LOG"`
}

// SignerConfig selects the signing service. A local signer holds the key in the process and
// is meant for development networks.
type SignerConfig struct {
	Mode           string   `envconfig:"MODE"            default:"local" validate:"oneof=local remote"`
	PrivateKey     string   `envconfig:"PRIVATE_KEY"     validate:"required_if=Mode local"`
	URL            string   `envconfig:"URL"             validate:"required_if=Mode remote,omitempty,url"`
	KeyID          string   `envconfig:"KEY_ID"          default:"governor"`
	DerivationPath []string `envconfig:"DERIVATION_PATH"`
}

type LogConfig struct {
	Level  string `envconfig:"LEVEL"  default:"info" validate:"oneof=debug info warn error"`
	Format string `envconfig:"FORMAT" default:"json" validate:"oneof=json console"`
	File   string `envconfig:"FILE"`
}

// Load reads the given .env files, then decodes and validates the environment. Variables that
// are already set take precedence over the files. Missing files are skipped.
func Load(envFiles ...string) (*Config, error) {
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	cfg := &Config{}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the struct tags and the values they can not express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if _, err := evm.ParseAddress(c.ContractAddress); err != nil {
		return fmt.Errorf("contract address: %w", err)
	}

	if _, err := c.ChainName(); err != nil {
		return err
	}

	if c.SweepInterval.Duration <= 0 {
		return fmt.Errorf("sweep interval must be positive, got %s", c.SweepInterval)
	}

	if _, err := c.TxParams(); err != nil {
		return err
	}

	if _, err := voting.NewStaticResolver(c.Identities); err != nil {
		return fmt.Errorf("identities: %w", err)
	}

	return nil
}

// ChainName returns the name of the configured EVM chain. Chain ids unknown to the chain
// selector registry are rejected.
func (c *Config) ChainName() (string, error) {
	details, err := chainsel.GetChainDetailsByChainIDAndFamily(strconv.FormatUint(c.ChainID, 10), chainsel.FamilyEVM)
	if err != nil {
		return "", fmt.Errorf("unknown EVM chain id %d: %w", c.ChainID, err)
	}

	return details.ChainName, nil
}

// TxParams returns the transaction parameters of the engine.
func (c *Config) TxParams() (voting.TxParams, error) {
	maxFee, ok := new(big.Int).SetString(c.MaxFeePerGas, 10)
	if !ok {
		return voting.TxParams{}, fmt.Errorf("invalid max fee per gas: %s", c.MaxFeePerGas)
	}
	tip, ok := new(big.Int).SetString(c.MaxPriorityFeePerGas, 10)
	if !ok {
		return voting.TxParams{}, fmt.Errorf("invalid max priority fee per gas: %s", c.MaxPriorityFeePerGas)
	}
	if tip.Cmp(maxFee) > 0 {
		return voting.TxParams{}, fmt.Errorf("max priority fee per gas %s exceeds max fee per gas %s", tip, maxFee)
	}

	return voting.TxParams{
		ChainID:              new(big.Int).SetUint64(c.ChainID),
		GasLimit:             new(big.Int).SetUint64(c.GasLimit),
		MaxFeePerGas:         maxFee,
		MaxPriorityFeePerGas: tip,
	}, nil
}

// ProviderList names each provider after its host.
func (c *Config) ProviderList() []aggregator.Provider {
	providers := make([]aggregator.Provider, 0, len(c.Providers))
	for i, raw := range c.Providers {
		name := fmt.Sprintf("provider-%d", i)
		if u, err := url.Parse(raw); err == nil && u.Host != "" {
			name = fmt.Sprintf("%s-%d", u.Hostname(), i)
		}
		providers = append(providers, aggregator.Provider{Name: name, URL: raw})
	}

	return providers
}

// LoggingOptions returns the options of the daemon logger.
func (c *Config) LoggingOptions() logging.Options {
	return logging.Options{
		Level:  c.Log.Level,
		Format: c.Log.Format,
		File:   c.Log.File,
	}
}
