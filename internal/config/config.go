// Package config contains the configuration for the spk CLI
//
// Configuration comes from a user config file and from SPK_ environment variables, which take
// precedence. Command line flags are merged on top by the commands themselves.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	bkErrors "github.com/bnookala/spk/internal/errors"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const (
	OrgURLKey          = "azdo.org_url"
	AccessTokenKey     = "azdo.access_token"
	ProjectKey         = "azdo.project"
	PlatformKey        = "platform"
	LogLevelKey        = "log_level"
	LogFormatKey       = "log_format"
	BuildkiteTokenKey  = "buildkite.api_token"
	BuildkiteOrgKey    = "buildkite.org"
	BuildkiteAPIURLKey = "buildkite.api_url"

	PlatformAzureDevOps = "azdo"
	PlatformBuildkite   = "buildkite"

	envPrefix      = "SPK"
	appData        = "AppData"
	configDir      = "spk"
	configFileName = "config.yaml"
	xdgConfigHome  = "XDG_CONFIG_HOME"
)

// keys that are never written back to the config file
var secretKeys = []string{AccessTokenKey, BuildkiteTokenKey}

// Config is the merged file and environment configuration.
type Config struct {
	v    *viper.Viper
	fs   afero.Fs
	path string
}

// New loads the config file at path from fs. A missing file is not an error. An empty path
// uses ConfigFile().
func New(fs afero.Fs, path string) (*Config, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if path == "" {
		path = ConfigFile()
	}

	v := viper.New()
	v.SetFs(fs)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(PlatformKey, PlatformAzureDevOps)
	v.SetDefault(LogLevelKey, "info")
	v.SetDefault(LogFormatKey, "text")

	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, bkErrors.NewConfigurationError(err, fmt.Sprintf("checking %s", path))
	}
	if exists {
		if err := v.ReadInConfig(); err != nil {
			return nil, bkErrors.NewConfigurationError(err,
				fmt.Sprintf("reading %s", path),
				"Fix or remove the config file")
		}
	}

	return &Config{v: v, fs: fs, path: path}, nil
}

// Path is the config file this Config reads and writes.
func (c *Config) Path() string { return c.path }

func (c *Config) OrgURL() string         { return c.v.GetString(OrgURLKey) }
func (c *Config) AccessToken() string    { return c.v.GetString(AccessTokenKey) }
func (c *Config) Project() string        { return c.v.GetString(ProjectKey) }
func (c *Config) Platform() string       { return c.v.GetString(PlatformKey) }
func (c *Config) LogLevel() string       { return c.v.GetString(LogLevelKey) }
func (c *Config) LogFormat() string      { return c.v.GetString(LogFormatKey) }
func (c *Config) BuildkiteToken() string { return c.v.GetString(BuildkiteTokenKey) }
func (c *Config) BuildkiteOrg() string   { return c.v.GetString(BuildkiteOrgKey) }

func (c *Config) BuildkiteAPIURL() string { return c.v.GetString(BuildkiteAPIURLKey) }

// Token is the access token for platform.
func (c *Config) Token(platform string) string {
	if platform == PlatformBuildkite {
		return firstNonEmpty(c.BuildkiteToken(), c.AccessToken())
	}
	return c.AccessToken()
}

// Save stores values in the config file. Access tokens are kept in memory only.
func (c *Config) Save(values map[string]string) error {
	for key, value := range values {
		c.v.Set(key, value)
	}

	settings := c.v.AllSettings()
	for _, key := range secretKeys {
		deleteKey(settings, key)
	}

	out := viper.New()
	out.SetFs(c.fs)
	out.SetConfigType("yaml")
	out.SetConfigPermissions(0o600)
	if err := out.MergeConfigMap(settings); err != nil {
		return bkErrors.NewInternalError(err, "preparing config")
	}

	if err := c.fs.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return bkErrors.NewConfigurationError(err, fmt.Sprintf("creating %s", filepath.Dir(c.path)))
	}
	if err := out.WriteConfigAs(c.path); err != nil {
		return bkErrors.NewConfigurationError(err, fmt.Sprintf("writing %s", c.path))
	}
	return nil
}

func deleteKey(settings map[string]any, key string) {
	section, leaf, nested := strings.Cut(key, ".")
	if !nested {
		delete(settings, key)
		return
	}
	if m, ok := settings[section].(map[string]any); ok {
		delete(m, leaf)
	}
}

func firstNonEmpty(s ...string) string {
	for _, k := range s {
		if k != "" {
			return k
		}
	}

	return ""
}

// ConfigFile returns the user config path. Precedence: XDG_CONFIG_HOME, AppData (windows
// only), HOME.
func ConfigFile() string {
	if a := os.Getenv(xdgConfigHome); a != "" {
		return filepath.Join(a, configDir, configFileName)
	}
	if b := os.Getenv(appData); runtime.GOOS == "windows" && b != "" {
		return filepath.Join(b, configDir, configFileName)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("."+configDir, configFileName)
	}
	return filepath.Join(home, "."+configDir, configFileName)
}

// IsNotConfigured reports whether err came from a missing required setting.
func IsNotConfigured(err error) bool {
	return errors.Is(err, bkErrors.ErrConfiguration)
}
