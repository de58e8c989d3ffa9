package feed

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// SourceCache loads and caches RSS watch source configurations from a
// directory of per-source YAML files.
type SourceCache struct {
	sourcesDir string
	cache      map[string]*SourceConfig
	mu         sync.RWMutex
}

func NewSourceCache(sourcesDir string) *SourceCache {
	return &SourceCache{
		sourcesDir: sourcesDir,
		cache:      make(map[string]*SourceConfig),
	}
}

func (sc *SourceCache) Run() error {
	if _, err := os.Stat(sc.sourcesDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(sc.sourcesDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		sourceName := strings.TrimSuffix(filepath.Base(file), ".yml")

		config, err := sc.LoadConfig(sourceName)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Source configuration loaded", "source", sourceName, "enabled", config.Settings.Enabled, "refresh_interval", config.Settings.RefreshInterval)
	}

	return nil
}

func (sc *SourceCache) LoadConfig(sourceName string) (*SourceConfig, error) {
	configFile := sc.getConfigFilePath(sourceName)
	sourceConfig, err := sc.parseConfig(configFile)
	if err != nil {
		return nil, err
	}

	sourceConfig.Name = sourceName

	if err := sc.validateConfig(sourceConfig); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.cache[sourceConfig.Name] = sourceConfig

	return sourceConfig, nil
}

func (sc *SourceCache) GetConfig(sourceName string) (*SourceConfig, error) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	sourceConfig, ok := sc.cache[sourceName]
	if !ok {
		return nil, fmt.Errorf("source config with name '%s' not found", sourceName)
	}
	return sourceConfig, nil
}

func (sc *SourceCache) GetConfigs() map[string]*SourceConfig {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	configsCopy := make(map[string]*SourceConfig, len(sc.cache))
	for k, v := range sc.cache {
		configsCopy[k] = v
	}
	return configsCopy
}

func (sc *SourceCache) GetEnabledConfigs() map[string]*SourceConfig {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	enabledConfigs := make(map[string]*SourceConfig)
	for k, v := range sc.cache {
		if v.Settings.Enabled {
			enabledConfigs[k] = v
		}
	}
	return enabledConfigs
}

func (sc *SourceCache) GetConfigCount() int {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return len(sc.cache)
}

func (sc *SourceCache) parseConfig(configFile string) (*SourceConfig, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var sourceConfig SourceConfig
	if err := yaml.Unmarshal(data, &sourceConfig); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if sourceConfig.Settings.RefreshInterval == 0 {
		sourceConfig.Settings.RefreshInterval = 300
	}
	if sourceConfig.Settings.MaxItems == 0 {
		sourceConfig.Settings.MaxItems = 50
	}
	if sourceConfig.Settings.Timeout == 0 {
		sourceConfig.Settings.Timeout = 30
	}

	return &sourceConfig, nil
}

func (sc *SourceCache) validateConfig(sourceConfig *SourceConfig) error {
	if sourceConfig == nil {
		return fmt.Errorf("sourceConfig is nil")
	}

	requiredFields := map[string]string{
		"source name": sourceConfig.Name,
		"source URL":  sourceConfig.URL,
	}

	for fieldName, fieldValue := range requiredFields {
		if fieldValue == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
	}

	nonNegativeFields := map[string]int{
		"refresh interval": sourceConfig.Settings.RefreshInterval,
		"max items":        sourceConfig.Settings.MaxItems,
		"timeout":          sourceConfig.Settings.Timeout,
	}

	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	return nil
}

func (sc *SourceCache) getConfigFilePath(sourceName string) string {
	return filepath.Join(sc.sourcesDir, sourceName+".yml")
}
