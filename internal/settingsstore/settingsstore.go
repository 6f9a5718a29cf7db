package settingsstore

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/mrlokans/scripture/internal/entities"
	"github.com/mrlokans/scripture/internal/speech"
)

const (
	SourceDatabase    = "database"
	SourceEnvironment = "environment"
	SourceDefault     = "default"
)

var ErrInvalidPreference = errors.New("invalid preference")

var (
	validThemes    = []string{"light", "dark", "sepia"}
	validFontSizes = []string{"small", "medium", "large", "x-large"}
)

// Backend is the settings table. database/settings.Repository implements it.
type Backend interface {
	GetSetting(key string) (*entities.Setting, error)
	SetSetting(key, value string) error
	SetMany(values map[string]string) error
	DeleteKeys(keys ...string) error
}

// Priority: database > environment > default
type SettingsStore struct {
	db Backend

	mu    sync.Mutex
	hooks []func(speech.VoiceSettings)
}

func New(db Backend) *SettingsStore {
	return &SettingsStore{db: db}
}

// lookup resolves key against the database, then env, then fallback.
func (s *SettingsStore) lookup(key, env, fallback string) (string, string) {
	setting, err := s.db.GetSetting(key)
	if err == nil && setting.Value != "" {
		return setting.Value, SourceDatabase
	}
	if envVal := os.Getenv(env); envVal != "" {
		return envVal, SourceEnvironment
	}
	return fallback, SourceDefault
}

func (s *SettingsStore) GetLanguage() string {
	v, _ := s.lookup(entities.SettingKeyLanguage, "CORPUS_DEFAULT_LANGUAGE", "en")
	return v
}

// SetLanguage stores the reader language and notifies voice hooks.
func (s *SettingsStore) SetLanguage(lang string) error {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return fmt.Errorf("%w: language must not be empty", ErrInvalidPreference)
	}
	if err := s.db.SetSetting(entities.SettingKeyLanguage, lang); err != nil {
		return err
	}
	s.notifyVoiceChange()
	return nil
}

// GetSpeechRate returns the playback rate clamped to the supported range.
func (s *SettingsStore) GetSpeechRate() float64 {
	v, _ := s.lookup(entities.SettingKeySpeechRate, "SPEECH_DEFAULT_RATE", "1.0")
	rate, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return speech.DefaultRate
	}
	return speech.ClampRate(rate)
}

func (s *SettingsStore) SetSpeechRate(rate float64) error {
	if rate < speech.MinRate || rate > speech.MaxRate {
		return fmt.Errorf("%w: speech rate must be between %.1f and %.1f", ErrInvalidPreference, speech.MinRate, speech.MaxRate)
	}
	if err := s.db.SetSetting(entities.SettingKeySpeechRate, strconv.FormatFloat(rate, 'f', -1, 64)); err != nil {
		return err
	}
	s.notifyVoiceChange()
	return nil
}

func (s *SettingsStore) GetTheme() string {
	v, _ := s.lookup(entities.SettingKeyTheme, "READER_THEME", "light")
	return v
}

func (s *SettingsStore) SetTheme(theme string) error {
	if !oneOf(theme, validThemes) {
		return fmt.Errorf("%w: theme must be one of %s", ErrInvalidPreference, strings.Join(validThemes, ", "))
	}
	return s.db.SetSetting(entities.SettingKeyTheme, theme)
}

func (s *SettingsStore) GetFontSize() string {
	v, _ := s.lookup(entities.SettingKeyFontSize, "READER_FONT_SIZE", "medium")
	return v
}

func (s *SettingsStore) SetFontSize(size string) error {
	if !oneOf(size, validFontSizes) {
		return fmt.Errorf("%w: font size must be one of %s", ErrInvalidPreference, strings.Join(validFontSizes, ", "))
	}
	return s.db.SetSetting(entities.SettingKeyFontSize, size)
}

// VoiceSettings returns the preferences the speech sequencer depends on.
func (s *SettingsStore) VoiceSettings() speech.VoiceSettings {
	return speech.VoiceSettings{Language: s.GetLanguage(), Rate: s.GetSpeechRate()}
}

// OnVoiceChange registers fn to run after the language or speech rate changes.
func (s *SettingsStore) OnVoiceChange(fn func(speech.VoiceSettings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

func (s *SettingsStore) notifyVoiceChange() {
	s.mu.Lock()
	hooks := append([]func(speech.VoiceSettings){}, s.hooks...)
	s.mu.Unlock()

	vs := s.VoiceSettings()
	for _, fn := range hooks {
		fn(vs)
	}
}

type Preference struct {
	Value  any    `json:"value"`
	Source string `json:"source"` // "database", "environment", or "default"
}

type PreferencesInfo struct {
	Language   Preference `json:"language"`
	SpeechRate Preference `json:"speech_rate"`
	Theme      Preference `json:"theme"`
	FontSize   Preference `json:"font_size"`
}

func (s *SettingsStore) GetPreferencesInfo() PreferencesInfo {
	_, langSrc := s.lookup(entities.SettingKeyLanguage, "CORPUS_DEFAULT_LANGUAGE", "en")
	_, rateSrc := s.lookup(entities.SettingKeySpeechRate, "SPEECH_DEFAULT_RATE", "1.0")
	_, themeSrc := s.lookup(entities.SettingKeyTheme, "READER_THEME", "light")
	_, sizeSrc := s.lookup(entities.SettingKeyFontSize, "READER_FONT_SIZE", "medium")
	return PreferencesInfo{
		Language:   Preference{Value: s.GetLanguage(), Source: langSrc},
		SpeechRate: Preference{Value: s.GetSpeechRate(), Source: rateSrc},
		Theme:      Preference{Value: s.GetTheme(), Source: themeSrc},
		FontSize:   Preference{Value: s.GetFontSize(), Source: sizeSrc},
	}
}

// PreferencesUpdate is a partial update; nil fields are left alone.
type PreferencesUpdate struct {
	Language   *string  `json:"language"`
	SpeechRate *float64 `json:"speech_rate"`
	Theme      *string  `json:"theme"`
	FontSize   *string  `json:"font_size"`
}

// Apply validates every field before writing any of them. Voice hooks run at
// most once.
func (s *SettingsStore) Apply(u PreferencesUpdate) error {
	if u.Language != nil && strings.TrimSpace(*u.Language) == "" {
		return fmt.Errorf("%w: language must not be empty", ErrInvalidPreference)
	}
	if u.SpeechRate != nil && (*u.SpeechRate < speech.MinRate || *u.SpeechRate > speech.MaxRate) {
		return fmt.Errorf("%w: speech rate must be between %.1f and %.1f", ErrInvalidPreference, speech.MinRate, speech.MaxRate)
	}
	if u.Theme != nil && !oneOf(*u.Theme, validThemes) {
		return fmt.Errorf("%w: theme must be one of %s", ErrInvalidPreference, strings.Join(validThemes, ", "))
	}
	if u.FontSize != nil && !oneOf(*u.FontSize, validFontSizes) {
		return fmt.Errorf("%w: font size must be one of %s", ErrInvalidPreference, strings.Join(validFontSizes, ", "))
	}

	values := make(map[string]string, 4)
	if u.Language != nil {
		values[entities.SettingKeyLanguage] = strings.TrimSpace(*u.Language)
	}
	if u.SpeechRate != nil {
		values[entities.SettingKeySpeechRate] = strconv.FormatFloat(*u.SpeechRate, 'f', -1, 64)
	}
	if u.Theme != nil {
		values[entities.SettingKeyTheme] = *u.Theme
	}
	if u.FontSize != nil {
		values[entities.SettingKeyFontSize] = *u.FontSize
	}
	if err := s.db.SetMany(values); err != nil {
		return err
	}
	if u.Language != nil || u.SpeechRate != nil {
		s.notifyVoiceChange()
	}
	return nil
}

// ClearPreferences removes database overrides, reverting to env/default.
func (s *SettingsStore) ClearPreferences() error {
	err := s.db.DeleteKeys(
		entities.SettingKeyLanguage,
		entities.SettingKeySpeechRate,
		entities.SettingKeyTheme,
		entities.SettingKeyFontSize,
	)
	if err != nil {
		return err
	}
	s.notifyVoiceChange()
	return nil
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
