// Package config provides internal configuration loading and processing.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	tomlparser "github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/joosthooz/smarttimers/pkg/clock"
	"github.com/joosthooz/smarttimers/pkg/config"
)

var (
	// ErrInvalidTOML is returned when the TOML file cannot be parsed.
	ErrInvalidTOML = errors.New("invalid TOML")

	// ErrInvalidPermissions is returned when config file has insecure permissions.
	ErrInvalidPermissions = errors.New("config file has insecure permissions")
)

const (
	// GlobalConfigFile is the name of the global configuration file.
	GlobalConfigFile = "config.toml"

	// GlobalConfigDir is the directory name for global configuration.
	GlobalConfigDir = ".smarttimers"

	// ProjectConfigDir is the directory name for project configuration.
	ProjectConfigDir = ".smarttimers"

	// ProjectConfigFile is the primary project configuration file name.
	ProjectConfigFile = "config.toml"

	// ProjectConfigFileAlt is the alternative project configuration file name.
	ProjectConfigFileAlt = "smarttimers.toml"
)

// Loader handles configuration loading from multiple sources using koanf.
// Precedence order (highest to lowest):
// 1. CLI Flags
// 2. Environment Variables (SMARTTIMERS_*)
// 3. Project Config (.smarttimers/config.toml or smarttimers.toml)
// 4. Global Config (~/.smarttimers/config.toml)
// 5. Defaults
type Loader struct {
	k        *koanf.Koanf
	homeDir  string
	workDir  string
	tomlOpts koanf.UnmarshalConf
}

// NewLoader creates a new Loader with default directories.
func NewLoader() (*Loader, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get home directory")
	}

	workDir, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get working directory")
	}

	return NewLoaderWithDirs(homeDir, workDir)
}

// NewLoaderWithDirs creates a new Loader with custom directories (for testing).
func NewLoaderWithDirs(homeDir, workDir string) (*Loader, error) {
	k := koanf.New(".")

	return &Loader{
		k:       k,
		homeDir: homeDir,
		workDir: workDir,
		tomlOpts: koanf.UnmarshalConf{
			Tag:       "koanf",
			FlatPaths: false,
		},
	}, nil
}

// Load loads configuration from all sources with precedence.
// Defaults → Global TOML → Project TOML → Env Vars → CLI Flags
func (l *Loader) Load(flags map[string]any) (*config.Config, error) {
	cfg, err := l.LoadWithoutValidation(flags)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return cfg, nil
}

// LoadWithoutValidation loads configuration without running validation.
func (l *Loader) LoadWithoutValidation(flags map[string]any) (*config.Config, error) {
	// Reset koanf instance for fresh load
	l.k = koanf.New(".")

	// 1. Load defaults first (lowest priority)
	if err := l.k.Load(confmap.Provider(defaultsToMap(), "."), nil); err != nil {
		return nil, errors.Wrap(err, "failed to load defaults")
	}

	// 2. Global config: ~/.smarttimers/config.toml
	globalPath := l.GlobalConfigPath()
	if err := l.loadTOMLFile(globalPath); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "failed to load global config")
	}

	// 3. Project config: .smarttimers/config.toml or smarttimers.toml
	projectPath := l.findProjectConfig()
	if projectPath != "" {
		if err := l.loadTOMLFile(projectPath); err != nil {
			return nil, errors.Wrap(err, "failed to load project config")
		}
	}

	// 4. Environment variables: SMARTTIMERS_*
	envOpt := env.Opt{
		Prefix:        "SMARTTIMERS_",
		TransformFunc: l.envTransform,
	}

	if err := l.k.Load(env.Provider(".", envOpt), nil); err != nil {
		return nil, errors.Wrap(err, "failed to load env vars")
	}

	// 5. CLI flags (highest priority)
	if len(flags) > 0 {
		flagConfig := l.flagsToConfig(flags)
		if err := l.k.Load(confmap.Provider(flagConfig, "."), nil); err != nil {
			return nil, errors.Wrap(err, "failed to load flags")
		}
	}

	// Unmarshal into config struct
	var cfg config.Config

	decoderConfig := CustomDecoderConfig()
	decoderConfig.Result = &cfg

	unmarshalConf := l.tomlOpts
	unmarshalConf.DecoderConfig = decoderConfig

	if err := l.k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	return &cfg, nil
}

// loadTOMLFile loads a TOML configuration file with security checks.
func (l *Loader) loadTOMLFile(path string) error {
	// Check if file exists
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	// Security check: reject world-writable files
	if info.Mode().Perm()&0o002 != 0 {
		return errors.Wrapf(
			ErrInvalidPermissions,
			"%s is world-writable (mode: %s)",
			path,
			info.Mode().Perm(),
		)
	}

	if err := l.k.Load(file.Provider(path), tomlparser.Parser()); err != nil {
		return errors.Mark(errors.Wrapf(err, "parsing %s", path), ErrInvalidTOML)
	}

	return nil
}

// envTransform transforms environment variable names to config paths.
// SMARTTIMERS_SESSION_CLOCK → session.clock
func (*Loader) envTransform(key, value string) (string, any) {
	key = strings.TrimPrefix(key, "SMARTTIMERS_")
	key = strings.ToLower(key)
	key = strings.ReplaceAll(key, "_", ".")

	return key, value
}

// GlobalConfigPath returns the path to the global configuration file.
func (l *Loader) GlobalConfigPath() string {
	return filepath.Join(l.homeDir, GlobalConfigDir, GlobalConfigFile)
}

// ProjectConfigPaths returns the paths to check for project configuration.
func (l *Loader) ProjectConfigPaths() []string {
	return []string{
		filepath.Join(l.workDir, ProjectConfigDir, ProjectConfigFile),
		filepath.Join(l.workDir, ProjectConfigFileAlt),
	}
}

// findProjectConfig checks for project config files and returns the first found.
func (l *Loader) findProjectConfig() string {
	for _, path := range l.ProjectConfigPaths() {
		if fileExists(path) {
			return path
		}
	}

	return ""
}

// HasGlobalConfig checks if a global configuration file exists.
func (l *Loader) HasGlobalConfig() bool {
	return fileExists(l.GlobalConfigPath())
}

// HasProjectConfig checks if a project configuration file exists.
func (l *Loader) HasProjectConfig() bool {
	return l.findProjectConfig() != ""
}

// flagsToConfig converts CLI flags to a configuration map.
func (*Loader) flagsToConfig(flags map[string]any) map[string]any {
	result := make(map[string]any)

	for key, value := range flags {
		switch key {
		case "clock":
			if strVal, ok := value.(string); ok && strVal != "" {
				sessionMap := ensureMapKey(result, "session")
				sessionMap["clock"] = strVal
			}

		case "name":
			if strVal, ok := value.(string); ok && strVal != "" {
				sessionMap := ensureMapKey(result, "session")
				sessionMap["name"] = strVal
			}

		case "output":
			if strVal, ok := value.(string); ok && strVal != "" {
				exportMap := ensureMapKey(result, "export")
				exportMap["path"] = strVal
			}

		case "append":
			if boolVal, ok := value.(bool); ok && boolVal {
				exportMap := ensureMapKey(result, "export")
				exportMap["append"] = boolVal
			}

		case "debug":
			if boolVal, ok := value.(bool); ok && boolVal {
				logMap := ensureMapKey(result, "log")
				logMap["debug"] = boolVal
			}

		case "trace":
			if boolVal, ok := value.(bool); ok && boolVal {
				logMap := ensureMapKey(result, "log")
				logMap["trace"] = boolVal
			}
		}
	}

	return result
}

// ensureMapKey ensures a key exists as a map and returns it.
func ensureMapKey(cfg map[string]any, key string) map[string]any {
	if _, ok := cfg[key]; !ok {
		cfg[key] = make(map[string]any)
	}

	result, _ := cfg[key].(map[string]any)

	return result
}

// defaultsToMap returns the default configuration as a map for koanf loading.
func defaultsToMap() map[string]any {
	return map[string]any{
		"version": config.CurrentConfigVersion,
		"session": map[string]any{
			"name":           "smarttimers",
			"clock":          clock.DefaultID,
			"warn_threshold": "0s",
		},
		"export": map[string]any{
			"path":   "",
			"append": false,
		},
		"log": map[string]any{
			"file":  "",
			"debug": false,
			"trace": false,
		},
	}
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	return !info.IsDir()
}
