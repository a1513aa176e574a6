// Package config holds the paths and identities newsctl operates on.
//
// Values come from built-in defaults, then an optional TOML file, then
// NEWSCTL_* environment variables. Nothing downstream reads globals: each
// operation receives a Config.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultPath is read when neither --config nor NEWSCTL_CONFIG is given.
const DefaultPath = "/etc/newsctl/config.toml"

// Log file names inside LogDir.
const (
	OutputLogName = "bot.log"
	ErrorLogName  = "bot_error.log"
)

// Config is the recognized set of options.
type Config struct {
	InstallRoot string `toml:"install_root"`
	LogDir      string `toml:"log_dir"`
	ServiceName string `toml:"service_name"`
	// RunAsUser is the account the unit runs as. When empty the invoking
	// user behind sudo (SUDO_USER) is used.
	RunAsUser string `toml:"run_as_user"`
	UnitDir   string `toml:"unit_dir"`
	// UnitSource is an optional hand-written unit file copied verbatim
	// instead of rendering the built-in template.
	UnitSource       string   `toml:"unit_source"`
	Interpreter      string   `toml:"interpreter"`
	EntryScript      string   `toml:"entry_script"`
	EnvFile          string   `toml:"env_file"`
	RequirementsFile string   `toml:"requirements_file"`
	RestartSec       Duration `toml:"restart_sec"`
}

// Duration wraps time.Duration for TOML strings such as "10s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the stock layout under /opt/newscaster-bot.
func Default() Config {
	return Config{
		InstallRoot:      "/opt/newscaster-bot",
		ServiceName:      "newscaster-bot",
		UnitDir:          "/etc/systemd/system",
		Interpreter:      "/usr/bin/python3",
		EntryScript:      "main.py",
		EnvFile:          ".env",
		RequirementsFile: "requirements.txt",
		RestartSec:       Duration{10 * time.Second},
	}
}

// Load builds a Config from defaults, the TOML file at path and the
// environment. A missing file is not an error unless the path was given
// explicitly.
func Load(path string, getenv func(string) string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = getenv("NEWSCTL_CONFIG")
		explicit = path != ""
	}
	if path == "" {
		path = DefaultPath
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !errors.Is(err, os.ErrNotExist) || explicit {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return Config{}, err
	}

	cfg.resolve()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	strs := map[string]*string{
		"NEWSCTL_INSTALL_ROOT":      &c.InstallRoot,
		"NEWSCTL_LOG_DIR":           &c.LogDir,
		"NEWSCTL_SERVICE_NAME":      &c.ServiceName,
		"NEWSCTL_RUN_AS_USER":       &c.RunAsUser,
		"NEWSCTL_UNIT_DIR":          &c.UnitDir,
		"NEWSCTL_UNIT_SOURCE":       &c.UnitSource,
		"NEWSCTL_INTERPRETER":       &c.Interpreter,
		"NEWSCTL_ENTRY_SCRIPT":      &c.EntryScript,
		"NEWSCTL_ENV_FILE":          &c.EnvFile,
		"NEWSCTL_REQUIREMENTS_FILE": &c.RequirementsFile,
	}
	for key, dst := range strs {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	if v := getenv("NEWSCTL_RESTART_SEC"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			// Plain integers are seconds, as in unit files.
			n, nerr := strconv.Atoi(v)
			if nerr != nil {
				return fmt.Errorf("invalid NEWSCTL_RESTART_SEC %q: %w", v, err)
			}
			d = time.Duration(n) * time.Second
		}
		c.RestartSec = Duration{d}
	}

	if c.RunAsUser == "" {
		c.RunAsUser = getenv("SUDO_USER")
	}
	return nil
}

// resolve makes relative paths absolute against InstallRoot.
func (c *Config) resolve() {
	if c.LogDir == "" {
		c.LogDir = filepath.Join(c.InstallRoot, "logs")
	}
	for _, p := range []*string{&c.LogDir, &c.EntryScript, &c.EnvFile, &c.RequirementsFile, &c.UnitSource} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(c.InstallRoot, *p)
		}
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	var errs []error
	if !filepath.IsAbs(c.InstallRoot) {
		errs = append(errs, fmt.Errorf("install_root must be an absolute path, got %q", c.InstallRoot))
	}
	if !filepath.IsAbs(c.UnitDir) {
		errs = append(errs, fmt.Errorf("unit_dir must be an absolute path, got %q", c.UnitDir))
	}
	if c.ServiceName == "" || strings.ContainsAny(c.ServiceName, "/ \t") {
		errs = append(errs, fmt.Errorf("service_name %q is not a valid unit name", c.ServiceName))
	}
	if c.Interpreter == "" {
		errs = append(errs, errors.New("interpreter is required"))
	}
	if c.RestartSec.Duration < 0 {
		errs = append(errs, fmt.Errorf("restart_sec must not be negative, got %s", c.RestartSec))
	}
	return errors.Join(errs...)
}

// UnitName returns the service name with the .service suffix.
func (c Config) UnitName() string {
	if strings.HasSuffix(c.ServiceName, ".service") {
		return c.ServiceName
	}
	return c.ServiceName + ".service"
}

// UnitPath is where the unit definition lives once installed.
func (c Config) UnitPath() string {
	return filepath.Join(c.UnitDir, c.UnitName())
}

// OutputLog is the bot's standard output log.
func (c Config) OutputLog() string {
	return filepath.Join(c.LogDir, OutputLogName)
}

// ErrorLog is the bot's standard error log.
func (c Config) ErrorLog() string {
	return filepath.Join(c.LogDir, ErrorLogName)
}
