package configs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/illarion/lockpass/internal/crypto"
	"github.com/illarion/lockpass/internal/generate"
)

// EnvFile overrides vault_path.
const EnvFile = "LOCKPASS_FILE"

type Config struct {
	VaultPath string          `toml:"vault_path"`
	Generator GeneratorConfig `toml:"generator"`
	KDF       KDFConfig       `toml:"kdf"`
	Clipboard ClipboardConfig `toml:"clipboard"`
}

type GeneratorConfig struct {
	Length       int  `toml:"length"`
	AllowSymbols bool `toml:"allow_symbols"`
}

// KDFConfig is the Argon2id cost for new vaults and passphrase changes.
// Existing vaults keep the cost stored in their header.
type KDFConfig struct {
	Time      uint32 `toml:"time"`
	MemoryKiB uint32 `toml:"memory_kib"`
	Threads   uint8  `toml:"threads"`
}

type ClipboardConfig struct {
	Enabled bool `toml:"enabled"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	spec := generate.DefaultSpec()
	return &Config{
		VaultPath: DefaultVaultPath(),
		Generator: GeneratorConfig{
			Length:       spec.Length,
			AllowSymbols: spec.AllowSymbols,
		},
		KDF: KDFConfig{
			Time:      crypto.DefaultTime,
			MemoryKiB: crypto.DefaultMemory,
			Threads:   crypto.DefaultThreads,
		},
		Clipboard: ClipboardConfig{Enabled: true},
	}
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/lockpass/config.toml or the
// platform equivalent.
func DefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("error getting config directory: %w", err)
	}
	return filepath.Join(configDir, "lockpass", "config.toml"), nil
}

// DefaultVaultPath returns $XDG_DATA_HOME/lockpass/vault.lockpass, falling
// back to ~/.local/share.
func DefaultVaultPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "vault.lockpass"
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}
	return filepath.Join(dataDir, "lockpass", "vault.lockpass")
}

// Load reads the config file at path on top of the defaults. A missing
// file is not an error.
func Load(path string) (*Config, error) {
	config := Default()

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return config, nil
	}

	undecoded, err := LoadTOML(path, config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	if len(undecoded) > 0 {
		return nil, fmt.Errorf("failed to load config %s: unknown keys %s", path, strings.Join(undecoded, ", "))
	}

	config.VaultPath = expandHome(config.VaultPath)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return config, nil
}

// Save writes config to path, creating the directory if needed.
func Save(path string, config *Config) error {
	if err := SaveTOML(path, config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// ApplyEnv applies environment overrides.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvFile); ok && v != "" {
		c.VaultPath = expandHome(v)
	}
}

// Validate checks generator and KDF settings.
func (c *Config) Validate() error {
	if c.VaultPath == "" {
		return errors.New("vault_path is empty")
	}
	if err := c.GeneratorSpec().Validate(); err != nil {
		return fmt.Errorf("generator: %w", err)
	}
	if err := crypto.ValidateArgon2Cost(c.KDF.Time, c.KDF.MemoryKiB, c.KDF.Threads); err != nil {
		return fmt.Errorf("kdf: %w", err)
	}
	return nil
}

// GeneratorSpec returns the default password spec.
func (c *Config) GeneratorSpec() generate.Spec {
	return generate.Spec{Length: c.Generator.Length, AllowSymbols: c.Generator.AllowSymbols}
}

// NewKDF creates key derivation parameters with the configured cost.
func (c *Config) NewKDF() (*crypto.KDF, error) {
	return crypto.NewKDFWithCost(c.KDF.Time, c.KDF.MemoryKiB, c.KDF.Threads)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
}
