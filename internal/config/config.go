package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/m4sc0/new/internal/branding"
)

const (
	fileName = "config"
	fileType = "json"

	// NoToken is the stored upload_token meaning "not configured".
	NoToken = "no-token"
)

// Setting keys.
const (
	KeyStoreRoot           = "store_root"
	KeyRemote              = "remote"
	KeyAllowMissingVersion = "allow_missing_version"
	KeyOpenMainFile        = "open_main_file"
	KeyUploadToken         = "upload_token"
	KeyLogLevel            = "log_level"
	KeyTemplatePaths       = "template_paths"
)

var boolKeys = map[string]bool{
	KeyAllowMissingVersion: true,
	KeyOpenMainFile:        true,
}

var listKeys = map[string]bool{
	KeyTemplatePaths: true,
}

// Config is the resolved configuration, built once per invocation and
// passed to the components that need it.
type Config struct {
	StoreRoot           string   `mapstructure:"store_root" json:"store_root" validate:"required"`
	Remote              string   `mapstructure:"remote" json:"remote" validate:"required,http_url"`
	AllowMissingVersion bool     `mapstructure:"allow_missing_version" json:"allow_missing_version"`
	OpenMainFile        bool     `mapstructure:"open_main_file" json:"open_main_file"`
	Token               string   `mapstructure:"upload_token" json:"upload_token"`
	LogLevel            string   `mapstructure:"log_level" json:"log_level" validate:"oneof=debug info warn error"`
	TemplatePaths       []string `mapstructure:"template_paths" json:"template_paths" validate:"dive,required"`

	path string
}

// Dir returns the config directory (~/.config/new).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.ConfigDir())
	}
	return filepath.Join(home, branding.ConfigDir())
}

// FilePath returns the config file path, honoring NEW_CONFIG.
func FilePath() string {
	if p := os.Getenv(branding.EnvVar("CONFIG")); p != "" {
		return p
	}
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// DefaultStoreRoot returns ~/.cache/new/images.
func DefaultStoreRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.CacheDir(), "images")
	}
	return filepath.Join(home, branding.CacheDir(), "images")
}

// Defaults returns the value of every setting when neither the file nor
// the environment provides one.
func Defaults() map[string]any {
	return map[string]any{
		KeyStoreRoot:           DefaultStoreRoot(),
		KeyRemote:              branding.DefaultRemote(),
		KeyAllowMissingVersion: true,
		KeyOpenMainFile:        false,
		KeyUploadToken:         NoToken,
		KeyLogLevel:            "info",
		KeyTemplatePaths:       []string{},
	}
}

// Keys returns every known setting key, sorted.
func Keys() []string {
	keys := make([]string, 0, len(Defaults()))
	for k := range Defaults() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsKey reports whether key is a known setting.
func IsKey(key string) bool {
	_, ok := Defaults()[key]
	return ok
}

// newViper returns an isolated viper instance reading path with defaults
// and environment overrides applied.
func newViper(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType(fileType)
	v.SetEnvPrefix(branding.EnvPrefix())
	v.AutomaticEnv()
	for k, val := range Defaults() {
		v.SetDefault(k, val)
	}

	if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	return v, nil
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
}

// Load reads the config file at path (it need not exist), applies
// environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	v, err := newViper(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.path = path
	cfg.StoreRoot = expandHome(cfg.StoreRoot)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	for i, p := range cfg.TemplatePaths {
		cfg.TemplatePaths[i] = expandHome(strings.TrimSpace(p))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Path returns the file the config was loaded from.
func (c *Config) Path() string { return c.path }

// TemplateDir is the template folder that is always searched after the
// configured template_paths (~/.config/new/templates).
func TemplateDir() string {
	return filepath.Join(Dir(), "templates")
}

// TemplateDirs returns the configured template paths followed by
// TemplateDir, without duplicates.
func (c *Config) TemplateDirs() []string {
	seen := map[string]bool{}
	var dirs []string
	for _, d := range append(slices.Clone(c.TemplatePaths), TemplateDir()) {
		d = filepath.Clean(d)
		if d == "." || seen[d] {
			continue
		}
		seen[d] = true
		dirs = append(dirs, d)
	}
	return dirs
}

// UploadToken returns the configured upload token. ok is false when no
// usable token is set.
func (c *Config) UploadToken() (string, bool) {
	t := strings.TrimSpace(c.Token)
	if t == "" || t == NoToken {
		return "", false
	}
	return t, true
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func init() {
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("mapstructure")
	})
}

// Validate checks the config for missing or malformed values.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("invalid config %s: %s", c.path, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " must be set"
	case "http_url":
		return fmt.Sprintf("%s must be an http(s) URL, got %q", fe.Field(), fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", fe.Field(), fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}

// Get returns the effective value of key, including defaults and
// environment overrides.
func Get(path, key string) (string, error) {
	if !IsKey(key) {
		return "", unknownKey(key)
	}
	v, err := newViper(path)
	if err != nil {
		return "", err
	}
	return stringValue(v, key), nil
}

// All returns the effective value of every setting.
func All(path string) (map[string]string, error) {
	v, err := newViper(path)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(Defaults()))
	for _, k := range Keys() {
		out[k] = stringValue(v, k)
	}
	return out, nil
}

// Set stores key=value in the config file at path, creating it if needed.
// Only values already in the file and the new value are written; defaults
// and environment overrides are never persisted.
func Set(path, key, value string) error {
	if !IsKey(key) {
		return unknownKey(key)
	}

	var stored any = value
	switch {
	case boolKeys[key]:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s expects true or false, got %q", key, value)
		}
		stored = b
	case listKeys[key]:
		stored = splitList(value)
	}

	v, err := fileViper(path)
	if err != nil {
		return err
	}
	v.Set(key, stored)
	return write(v, path)
}

// AddTemplatePath appends dir to template_paths in the config file at path
// unless it is already listed. It reports whether the file changed.
func AddTemplatePath(path, dir string) (bool, error) {
	v, err := fileViper(path)
	if err != nil {
		return false, err
	}
	paths := v.GetStringSlice(KeyTemplatePaths)
	if slices.Contains(paths, dir) {
		return false, nil
	}
	v.Set(KeyTemplatePaths, append(paths, dir))
	return true, write(v, path)
}

// fileViper reads only the config file, without defaults or environment.
func fileViper(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType(fileType)
	if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	return v, nil
}

func write(v *viper.Viper, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// stringValue formats a setting for display. Lists are comma-separated.
func stringValue(v *viper.Viper, key string) string {
	if !listKeys[key] {
		return v.GetString(key)
	}
	if s, ok := v.Get(key).(string); ok {
		return strings.Join(splitList(s), ",")
	}
	return strings.Join(v.GetStringSlice(key), ",")
}

// splitList splits a comma-separated value, dropping blank items.
func splitList(s string) []string {
	out := []string{}
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func unknownKey(key string) error {
	return fmt.Errorf("unknown config key %q (known keys: %s)", key, strings.Join(Keys(), ", "))
}

// expandHome replaces a leading "~" with the user's home directory.
func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
