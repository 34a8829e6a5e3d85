// Package config loads the terminal's settings file and translates it into
// the runtime types the supervisor needs.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/AUTODROPCENTRAL/Nexus-Bot-Automation/pkg/proxy"
)

// DefaultPath is consulted when no settings file is given on the command
// line. A missing default file is not an error; defaults apply.
const DefaultPath = "config.yaml"

// Settings is the on-disk configuration.
type Settings struct {
	// AccountsFile is the path to the JSON account list.
	AccountsFile string `yaml:"accounts_file"`

	// Proxies assigns upstream proxy URLs to accounts by position.
	// Missing or empty entries mean a direct connection.
	Proxies []string `yaml:"proxies"`

	// Filter restricts the run to accounts whose address matches the
	// glob pattern. Empty means all accounts.
	Filter string `yaml:"filter"`

	// Headless controls whether browsers run without a visible window.
	Headless bool `yaml:"headless"`

	// ScreenshotDir is where failure screenshots are written.
	ScreenshotDir string `yaml:"screenshot_dir"`
}

// Defaults returns the settings used when no file is present.
func Defaults() Settings {
	return Settings{
		AccountsFile:  "accounts.json",
		Headless:      true,
		ScreenshotDir: ".",
	}
}

// Load reads settings from path, filling unset fields with defaults.
// When path is empty the default path is tried and may be absent.
func Load(path string) (Settings, error) {
	settings := Defaults()

	optional := false
	if path == "" {
		path = DefaultPath
		optional = true
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return settings, nil
		}
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(raw, &settings); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if settings.AccountsFile == "" {
		settings.AccountsFile = Defaults().AccountsFile
	}
	if settings.ScreenshotDir == "" {
		settings.ScreenshotDir = Defaults().ScreenshotDir
	}
	return settings, nil
}

// ProxySpecs parses the configured proxy URLs into specs, keeping the
// positional mapping. Empty entries produce nil specs, meaning direct.
func (s Settings) ProxySpecs() ([]*proxy.Spec, error) {
	specs := make([]*proxy.Spec, len(s.Proxies))
	for i, raw := range s.Proxies {
		if raw == "" {
			continue
		}
		spec, err := proxy.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("proxy %d: %w", i+1, err)
		}
		specs[i] = spec
	}
	return specs, nil
}
