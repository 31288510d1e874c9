package bitcoin

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the node's runtime configuration: which network to
// follow, where to persist the UTXO set, which script verification
// policy to enforce, and how verbosely to log. Loaded via viper so a
// config file, environment variables, and defaults layer together the
// way the rest of the ambient stack expects.
type Config struct {
	Network      string `mapstructure:"network"`
	DataDir      string `mapstructure:"data_dir"`
	LogLevel     string `mapstructure:"log_level"`
	ScriptPolicy ScriptFlags
}

// DefaultConfig returns the configuration a node starts with before any
// file or environment overrides are applied.
func DefaultConfig() *Config {
	return &Config{
		Network:  "mainnet",
		DataDir:  "./data",
		LogLevel: "info",
		ScriptPolicy: ScriptVerifyStrictEnc | ScriptVerifyDERSig | ScriptVerifyLowS |
			ScriptVerifyNullDummy | ScriptVerifyNullFail | ScriptVerifyMinimalData |
			ScriptVerifyCleanStack,
	}
}

// LoadConfig reads node configuration from configPath (if non-empty),
// layering in BITCOINECHO_-prefixed environment variables and falling
// back to DefaultConfig's values for anything unset.
func LoadConfig(configPath string) (*Config, error) {
	def := DefaultConfig()

	v := viper.New()
	v.SetDefault("network", def.Network)
	v.SetDefault("data_dir", def.DataDir)
	v.SetDefault("log_level", def.LogLevel)

	v.SetEnvPrefix("BITCOINECHO")
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	cfg := &Config{ScriptPolicy: def.ScriptPolicy}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// String renders the config for startup logging.
func (c *Config) String() string {
	return fmt.Sprintf("network=%s data_dir=%s log_level=%s script_policy=%#x",
		c.Network, c.DataDir, c.LogLevel, uint32(c.ScriptPolicy))
}
