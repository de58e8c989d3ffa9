package alert

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Settings holds the user-maintained alerting configuration: the focus tag
// marking important items, monitored keywords, sound identifiers, and the
// per-category broadcast toggles. It is passed explicitly into the engine
// and the dispatcher; nothing reads it through a global.
type Settings struct {
	FocusTag   string            `yaml:"focus_tag"`
	Keywords   []string          `yaml:"keywords"`
	SpeechRate float64           `yaml:"speech_rate"` // characters per minute
	Sounds     SoundSettings     `yaml:"sounds"`
	Important  BroadcastSettings `yaml:"important"`
	Keyword    BroadcastSettings `yaml:"keyword"`
}

type SoundSettings struct {
	Important string `yaml:"important"`
	Keyword   string `yaml:"keyword"`
}

type BroadcastSettings struct {
	Speech      bool `yaml:"speech"`
	FullContent bool `yaml:"full_content"` // false speaks the title only
}

func defaultSettings() Settings {
	return Settings{
		FocusTag:   "焦点",
		SpeechRate: 240,
		Sounds: SoundSettings{
			Important: "important.wav",
			Keyword:   "keyword.wav",
		},
		Important: BroadcastSettings{Speech: true},
		Keyword:   BroadcastSettings{Speech: true},
	}
}

// SettingsStore loads the settings file, hands out copies, and saves
// keyword-list mutations back atomically.
type SettingsStore struct {
	path     string
	mu       sync.RWMutex
	settings Settings
}

func NewSettingsStore(path string) *SettingsStore {
	return &SettingsStore{
		path:     path,
		settings: defaultSettings(),
	}
}

// Load reads the settings file. A missing file is not an error; defaults
// apply and the file is created on first save.
func (s *SettingsStore) Load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read settings file: %w", err)
	}

	settings := defaultSettings()
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return fmt.Errorf("failed to parse settings file: %w", err)
	}

	if settings.FocusTag == "" {
		settings.FocusTag = defaultSettings().FocusTag
	}
	if settings.SpeechRate <= 0 {
		settings.SpeechRate = defaultSettings().SpeechRate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings

	return nil
}

// Get returns a copy; the keyword slice is cloned so callers never share
// backing arrays with the store.
func (s *SettingsStore) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	settings := s.settings
	settings.Keywords = append([]string(nil), s.settings.Keywords...)
	return settings
}

// AddKeyword inserts a trimmed, non-empty keyword. Uniqueness is enforced
// with a case-sensitive compare; case folding happens only at match time.
func (s *SettingsStore) AddKeyword(keyword string) error {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return fmt.Errorf("keyword is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.settings.Keywords {
		if existing == keyword {
			return fmt.Errorf("keyword %q already monitored", keyword)
		}
	}

	s.settings.Keywords = append(s.settings.Keywords, keyword)

	return s.save()
}

func (s *SettingsStore) RemoveKeyword(keyword string) error {
	keyword = strings.TrimSpace(keyword)

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.settings.Keywords {
		if existing == keyword {
			s.settings.Keywords = append(s.settings.Keywords[:i], s.settings.Keywords[i+1:]...)
			return s.save()
		}
	}

	return fmt.Errorf("keyword %q not monitored", keyword)
}

// save writes the settings file atomically. Caller holds the lock.
func (s *SettingsStore) save() error {
	data, err := yaml.Marshal(s.settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace settings file: %w", err)
	}

	return nil
}
