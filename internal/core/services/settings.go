package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/frods/trufflepig/internal/core/domain"
	"github.com/frods/trufflepig/internal/core/ports/driven"
	"github.com/frods/trufflepig/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	KeyPaths             = "paths"
	KeyPattern           = "pattern"
	KeyDebounce          = "debounce"
	KeyReconcileInterval = "reconcile_interval"
	KeyIdentityField     = "identity_field"
	KeyDeploymentsField  = "deployments_field"
	KeyNotifyBuffer      = "notify_buffer"
	KeyHost              = "host"
	KeyPort              = "port"
	KeyEndpoint          = "endpoint"
	KeyJournal           = "journal"
	KeyJournalDir        = "journal_dir"
	KeyJournalSize       = "journal_size"
)

type valueKind int

const (
	kindString valueKind = iota
	kindList
	kindInt
	kindDuration
	kindJournal
)

type settingDef struct {
	key         string
	kind        valueKind
	description string
	value       func(s *domain.AppSettings) string
}

// settingDefs lists every known key in display order.
var settingDefs = []settingDef{
	{KeyPaths, kindList, "Comma-separated directories to watch",
		func(s *domain.AppSettings) string { return strings.Join(s.Cache.Roots, ",") }},
	{KeyPattern, kindString, "Glob matched against artifact file names",
		func(s *domain.AppSettings) string { return s.Cache.Pattern }},
	{KeyDebounce, kindDuration, "Quiet period before a changed file is re-read",
		func(s *domain.AppSettings) string { return s.Cache.Debounce.String() }},
	{KeyReconcileInterval, kindDuration, "Full rescan interval (0 disables)",
		func(s *domain.AppSettings) string { return s.Cache.ReconcileInterval.String() }},
	{KeyIdentityField, kindString, "Document field holding the component name",
		func(s *domain.AppSettings) string { return s.Cache.Parser.IdentityField }},
	{KeyDeploymentsField, kindString, "Document field holding per-network deployments",
		func(s *domain.AppSettings) string { return s.Cache.Parser.DeploymentsField }},
	{KeyNotifyBuffer, kindInt, "Notifications buffered per subscriber",
		func(s *domain.AppSettings) string { return strconv.Itoa(s.Cache.NotifyBuffer) }},
	{KeyHost, kindString, "HTTP listen host",
		func(s *domain.AppSettings) string { return s.Server.Host }},
	{KeyPort, kindInt, "HTTP listen port",
		func(s *domain.AppSettings) string { return strconv.Itoa(s.Server.Port) }},
	{KeyEndpoint, kindString, "HTTP endpoint path",
		func(s *domain.AppSettings) string { return s.Server.Endpoint }},
	{KeyJournal, kindJournal, "Notification journal: memory, sqlite or off",
		func(s *domain.AppSettings) string { return s.Journal.Backend.String() }},
	{KeyJournalDir, kindString, "Directory for the sqlite journal",
		func(s *domain.AppSettings) string { return s.Journal.Dir }},
	{KeyJournalSize, kindInt, "Notifications kept in the journal",
		func(s *domain.AppSettings) string { return strconv.Itoa(s.Journal.Size) }},
}

func lookupSetting(key string) (settingDef, bool) {
	for _, def := range settingDefs {
		if def.key == key {
			return def, true
		}
	}
	return settingDef{}, false
}

// SettingsService reads and writes application settings in a config store.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get returns stored values layered over the defaults.
// A stored value of the wrong type is an error rather than silently ignored.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := domain.DefaultAppSettings()

	if roots := s.configStore.GetStringSlice(KeyPaths); len(roots) > 0 {
		settings.Cache.Roots = roots
	}
	settings.Cache.Pattern = s.getString(KeyPattern, settings.Cache.Pattern)
	settings.Cache.Parser.IdentityField = s.getString(KeyIdentityField, settings.Cache.Parser.IdentityField)
	settings.Cache.Parser.DeploymentsField = s.getString(KeyDeploymentsField, settings.Cache.Parser.DeploymentsField)
	settings.Cache.NotifyBuffer = s.getInt(KeyNotifyBuffer, settings.Cache.NotifyBuffer)

	var err error
	if settings.Cache.Debounce, err = s.getDuration(KeyDebounce, settings.Cache.Debounce); err != nil {
		return nil, err
	}
	if settings.Cache.ReconcileInterval, err = s.getDuration(KeyReconcileInterval, settings.Cache.ReconcileInterval); err != nil {
		return nil, err
	}

	settings.Server.Host = s.getString(KeyHost, settings.Server.Host)
	settings.Server.Port = s.getInt(KeyPort, settings.Server.Port)
	settings.Server.Endpoint = s.getString(KeyEndpoint, settings.Server.Endpoint)

	if v := s.configStore.GetString(KeyJournal); v != "" {
		backend := domain.JournalBackend(v)
		if !backend.IsValid() {
			return nil, fmt.Errorf("%w: %s: unknown journal backend %q", domain.ErrInvalidInput, KeyJournal, v)
		}
		settings.Journal.Backend = backend
	}
	settings.Journal.Dir = s.getString(KeyJournalDir, settings.Journal.Dir)
	settings.Journal.Size = s.getInt(KeyJournalSize, settings.Journal.Size)

	return &settings, nil
}

// Set validates value for key and stores it in its typed form.
func (s *SettingsService) Set(key, value string) error {
	def, ok := lookupSetting(key)
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	stored, err := parseSetting(def, value)
	if err != nil {
		return err
	}
	if err := s.configStore.Set(key, stored); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func parseSetting(def settingDef, value string) (any, error) {
	value = strings.TrimSpace(value)
	invalid := func(reason string) error {
		return fmt.Errorf("%w: %s: %s", domain.ErrInvalidInput, def.key, reason)
	}

	switch def.kind {
	case kindList:
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		if len(items) == 0 {
			return nil, invalid("at least one value required")
		}
		return items, nil
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return nil, invalid(fmt.Sprintf("%q is not a non-negative integer", value))
		}
		return n, nil
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil || d < 0 {
			return nil, invalid(fmt.Sprintf("%q is not a duration like 250ms", value))
		}
		return d.String(), nil
	case kindJournal:
		if !domain.JournalBackend(value).IsValid() {
			return nil, invalid(fmt.Sprintf("%q is not one of memory, sqlite, off", value))
		}
		return value, nil
	default:
		if value == "" {
			return nil, invalid("empty value")
		}
		return value, nil
	}
}

// Unset removes a stored value.
func (s *SettingsService) Unset(key string) error {
	if _, ok := lookupSetting(key); !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	if err := s.configStore.Delete(key); err != nil {
		return fmt.Errorf("unset %s: %w", key, err)
	}
	return nil
}

// Value returns the effective value of key.
func (s *SettingsService) Value(key string) (string, error) {
	def, ok := lookupSetting(key)
	if !ok {
		return "", fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	settings, err := s.Get()
	if err != nil {
		return "", err
	}
	return def.value(settings), nil
}

// List describes every known key. Invalid stored values are shown as
// the defaults they fall back to.
func (s *SettingsService) List() []domain.Setting {
	defaults := domain.DefaultAppSettings()
	current, err := s.Get()
	if err != nil {
		current = &defaults
	}

	out := make([]domain.Setting, 0, len(settingDefs))
	for _, def := range settingDefs {
		_, isSet := s.configStore.Get(def.key)
		out = append(out, domain.Setting{
			Key:         def.key,
			Value:       def.value(current),
			Default:     def.value(&defaults),
			Description: def.description,
			IsSet:       isSet,
		})
	}
	return out
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal, nil
	}
	d, ok := s.configStore.GetDuration(key)
	if !ok {
		return 0, fmt.Errorf("%w: %s: not a duration", domain.ErrInvalidInput, key)
	}
	return d, nil
}
