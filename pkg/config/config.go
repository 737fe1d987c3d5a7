// Package config loads and saves the homelink configuration file. Loading
// goes through koanf with the TOML parser so defaults, file content, and
// future providers merge uniformly; saving serializes back with go-toml.
//
// The engine never parses files itself: this package turns the declared
// tool/file tables into absolute-path TrackedFiles and hands them over.
package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	gotoml "github.com/pelletier/go-toml/v2"

	"github.com/arthur-debert/homelink/pkg/errors"
	"github.com/arthur-debert/homelink/pkg/logging"
	"github.com/arthur-debert/homelink/pkg/types"
)

// EnvConfigPath overrides config file discovery.
const EnvConfigPath = "HOMELINK_CONFIG"

// GeneralConfig is the [general] table.
type GeneralConfig struct {
	RepoPath          string `koanf:"repo_path" toml:"repo_path"`
	CurrentProfile    string `koanf:"current_profile" toml:"current_profile"`
	BackupDir         string `koanf:"backup_dir" toml:"backup_dir"`
	SymlinkResolution string `koanf:"symlink_resolution" toml:"symlink_resolution"`
	BackupKeepCount   int    `koanf:"backup_keep_count" toml:"backup_keep_count"`
	BackupKeepDays    int    `koanf:"backup_keep_days" toml:"backup_keep_days"`
}

// FileEntry is one declared mapping inside a tool table. Repo is relative to
// the repo root, Dest relative to home.
type FileEntry struct {
	Repo    string `koanf:"repo" toml:"repo"`
	Dest    string `koanf:"dest" toml:"dest"`
	Profile string `koanf:"profile" toml:"profile,omitempty"`
}

// ToolConfig is one [tools.<name>] table.
type ToolConfig struct {
	Files []FileEntry `koanf:"files" toml:"files"`
}

// Config is the full configuration document.
type Config struct {
	General GeneralConfig         `koanf:"general" toml:"general"`
	Tools   map[string]ToolConfig `koanf:"tools" toml:"tools"`

	// path the config was loaded from, for Save.
	path string
}

const defaultConfig = `
[general]
repo_path = "~/.dotfiles"
current_profile = "default"
backup_dir = ""
symlink_resolution = "auto"
backup_keep_count = 10
backup_keep_days = 7
`

// Load reads configuration from the first location that exists:
// $HOMELINK_CONFIG, <repo>/config.toml under ~/.dotfiles, then the XDG
// config dir. Defaults apply underneath whatever is found; a missing file is
// not an error (the defaults alone are a valid, empty configuration).
func Load() (*Config, error) {
	path, found, err := findConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path, found)
}

// LoadFrom loads defaults and, when present is true, merges the file at path
// over them.
func LoadFrom(path string, present bool) (*Config, error) {
	logger := logging.GetLogger("config")

	k := koanf.New(".")
	if err := k.Load(rawBytesProvider{[]byte(defaultConfig)}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load defaults")
	}

	if present {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to parse %s", path)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to decode configuration")
	}
	cfg.path = path

	if _, err := types.ParseSymlinkResolution(cfg.General.SymlinkResolution); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigValid, "invalid symlink_resolution")
	}

	logger.Debug().Str("path", path).Bool("present", present).
		Int("tools", len(cfg.Tools)).Msg("Configuration loaded")
	return &cfg, nil
}

// Save writes the configuration back to the path it was loaded from.
func (c *Config) Save() error {
	if c.path == "" {
		return errors.New(errors.ErrConfigLoad, "configuration has no backing file")
	}
	data, err := gotoml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to serialize configuration")
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "cannot create %s", filepath.Dir(c.path))
	}
	return os.WriteFile(c.path, data, 0644)
}

// RepoPath returns the absolute dotfiles repo root.
func (c *Config) RepoPath() (string, error) {
	return expandPath(c.General.RepoPath)
}

// BackupDir returns the absolute backup root. Empty backup_dir defaults to
// <repo>/.backups.
func (c *Config) BackupDir() (string, error) {
	if c.General.BackupDir != "" {
		return expandPath(c.General.BackupDir)
	}
	repo, err := c.RepoPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(repo, ".backups"), nil
}

// SymlinkResolution returns the declared resolution policy.
func (c *Config) SymlinkResolution() types.SymlinkResolution {
	r, err := types.ParseSymlinkResolution(c.General.SymlinkResolution)
	if err != nil {
		return types.ResolutionAuto
	}
	return r
}

// TrackedFiles resolves the declared mappings for a profile into absolute
// TrackedFiles. Base entries (no profile) come first; profile-specific
// entries override base entries that share a destination. Empty profile
// means the configured current profile.
func (c *Config) TrackedFiles(profile string) ([]types.TrackedFile, error) {
	if profile == "" {
		profile = c.General.CurrentProfile
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrPathResolve, "could not determine home directory")
	}
	repoPath, err := c.RepoPath()
	if err != nil {
		return nil, err
	}

	toolNames := make([]string, 0, len(c.Tools))
	for name := range c.Tools {
		toolNames = append(toolNames, name)
	}
	sort.Strings(toolNames)

	var tracked []types.TrackedFile
	byDest := make(map[string]int)

	for _, tool := range toolNames {
		for _, entry := range c.Tools[tool].Files {
			if entry.Profile != "" {
				continue
			}
			tracked = append(tracked, types.TrackedFile{
				Tool:     tool,
				RepoPath: filepath.Join(repoPath, entry.Repo),
				DestPath: filepath.Join(home, entry.Dest),
			})
			byDest[entry.Dest] = len(tracked) - 1
		}
	}

	for _, tool := range toolNames {
		for _, entry := range c.Tools[tool].Files {
			if entry.Profile == "" || entry.Profile != profile {
				continue
			}
			// Profile entries live under profiles/<name>/<tool>/ unless the
			// declared repo path already points there.
			repoFile := filepath.Join(repoPath, "profiles", profile, tool, entry.Repo)
			if strings.HasPrefix(entry.Repo, "profiles/") {
				repoFile = filepath.Join(repoPath, entry.Repo)
			}
			tf := types.TrackedFile{
				Tool:     tool,
				RepoPath: repoFile,
				DestPath: filepath.Join(home, entry.Dest),
				Profile:  entry.Profile,
			}
			if idx, ok := byDest[entry.Dest]; ok {
				tracked[idx] = tf
				continue
			}
			tracked = append(tracked, tf)
			byDest[entry.Dest] = len(tracked) - 1
		}
	}

	return tracked, nil
}

// AddFile registers a new mapping under a tool. Paths are stored relative
// (repo-relative and home-relative respectively).
func (c *Config) AddFile(tool, repoRel, destRel, profile string) {
	if c.Tools == nil {
		c.Tools = make(map[string]ToolConfig)
	}
	tc := c.Tools[tool]
	tc.Files = append(tc.Files, FileEntry{Repo: repoRel, Dest: destRel, Profile: profile})
	c.Tools[tool] = tc
}

func findConfigPath() (string, bool, error) {
	if env := os.Getenv(EnvConfigPath); env != "" {
		if _, err := os.Stat(env); err == nil {
			return env, true, nil
		}
		return env, false, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", false, errors.Wrap(err, errors.ErrPathResolve, "could not determine home directory")
	}

	repoConfig := filepath.Join(home, ".dotfiles", "config.toml")
	if _, err := os.Stat(repoConfig); err == nil {
		return repoConfig, true, nil
	}

	xdgConfig := filepath.Join(home, ".config", "homelink", "config.toml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, true, nil
	}

	// Default creation location when nothing exists yet.
	return xdgConfig, false, nil
}

func expandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(err, errors.ErrPathResolve, "could not determine home directory")
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrPathResolve, "cannot resolve %s", path)
	}
	return abs, nil
}

// rawBytesProvider feeds in-memory TOML to koanf.
type rawBytesProvider struct {
	bytes []byte
}

func (r rawBytesProvider) ReadBytes() ([]byte, error) {
	return r.bytes, nil
}

func (r rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New(errors.ErrInternal, "rawBytesProvider does not support Read")
}
