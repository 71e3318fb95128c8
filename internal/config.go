// internal/config.go
package internal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrNoConfig is returned when no configuration file exists at any of the
// known locations, so the CLI can suggest generating one.
var ErrNoConfig = errors.New("no configuration file found")

// Config is the process-wide configuration. It is populated once at startup
// (defaults overridden by the persisted file) and treated as read-only for
// the rest of the run.
type Config struct {
	// BackendOrder lists backend registry names in priority order.
	BackendOrder []string      `yaml:"backend_order"`
	Output       OutputOptions `yaml:"output"`
	Pacman       PacmanOptions `yaml:"pacman"`
	AUR          AUROptions    `yaml:"aur"`
}

// OutputOptions controls search/query result rendering.
type OutputOptions struct {
	// DescWrap is the wrap column for descriptions; -1 disables wrapping.
	DescWrap   int `yaml:"desc_wrap"`
	DescIndent int `yaml:"desc_indent"`
}

// PacmanOptions configures the local manager proxy backend.
type PacmanOptions struct {
	Binary string `yaml:"binary"`
	// SyncPrecheck asks the sync database whether it knows a package
	// before invoking the manager as root, deferring early when it
	// doesn't.
	SyncPrecheck     bool `yaml:"sync_precheck"`
	ParseOutput      bool `yaml:"parse_output"`
	ParseDescOnQuery bool `yaml:"parse_desc_on_query"`
}

// AUROptions configures the remote repository backend.
type AUROptions struct {
	BaseURL string `yaml:"base_url"`
	// RPCURL carries {type} and {arg} placeholders.
	RPCURL      string `yaml:"rpc_url"`
	StagingArea string `yaml:"staging_area"`
	// RepoPrefix renders the repo column for results, with a {category}
	// placeholder.
	RepoPrefix string `yaml:"repo_prefix"`
	// SourceTimeoutSeconds bounds build-recipe sourcing.
	SourceTimeoutSeconds int `yaml:"source_timeout"`
}

// DefaultConfig returns the built-in defaults every consumer contributes.
func DefaultConfig() *Config {
	return &Config{
		BackendOrder: []string{"pacman", "aur"},
		Output: OutputOptions{
			DescWrap:   80,
			DescIndent: 10,
		},
		Pacman: PacmanOptions{
			Binary:           "/usr/bin/pacman",
			SyncPrecheck:     true,
			ParseOutput:      true,
			ParseDescOnQuery: false,
		},
		AUR: AUROptions{
			BaseURL:              "https://aur.archlinux.org/",
			RPCURL:               "https://aur.archlinux.org/rpc.php?type={type}&arg={arg}",
			StagingArea:          "$HOME/Build",
			RepoPrefix:           "aur:{category}",
			SourceTimeoutSeconds: 5,
		},
	}
}

// configLocations returns the candidate configuration paths, system first.
func configLocations() []string {
	locations := []string{"/etc/aurora.yaml"}
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		if home, err := os.UserHomeDir(); err == nil {
			configHome = filepath.Join(home, ".config")
		}
	}
	if configHome != "" {
		locations = append(locations, filepath.Join(configHome, "aurora", "aurora.yaml"))
	}
	return locations
}

// LoadConfig reads the configuration file at path, or from the first of the
// default locations when path is empty, merging file values over defaults.
// A missing file yields ErrNoConfig.
func LoadConfig(path string) (*Config, error) {
	paths := []string{path}
	if path == "" {
		paths = configLocations()
	}
	for _, candidate := range paths {
		data, err := os.ReadFile(candidate)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read config %s: %w", candidate, err)
		}
		cfg := DefaultConfig()
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", candidate, err)
		}
		logger.Debugf("loaded configuration from %s", candidate)
		return cfg, nil
	}
	return nil, fmt.Errorf("%w (looked in %v)", ErrNoConfig, paths)
}

// Dump writes the configuration as YAML.
func (c *Config) Dump(w io.Writer) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	_, err = w.Write(data)
	return err
}
