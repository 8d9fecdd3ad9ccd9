// Package channel resolves a channel recipe, the user config file, and
// CLI overrides into one effective Config, the way peco's config.go and
// options.go resolve a single config file plus CLI flags, generalized to
// a four-layer precedence: defaults, then user config, then the channel
// recipe, then CLI flags.
package channel

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// ActionMode is an External Action's execution strategy.
type ActionMode string

const (
	ActionFork    ActionMode = "fork"
	ActionExecute ActionMode = "execute"
)

// Metadata is the channel recipe's [metadata] section.
type Metadata struct {
	Name         string   `toml:"name"`
	Description  string   `toml:"description"`
	Requirements []string `toml:"requirements"`
}

// Source is the channel recipe's [source] section. Command holds the
// single-string form, read from the `command` key; CommandList holds the
// array form, read from a separate `commands` key. The `command` key
// accepts only a string: an array under it fails to parse.
type Source struct {
	Command        string   `toml:"command"`
	CommandList    []string `toml:"commands"`
	ANSI           bool     `toml:"ansi"`
	Display        string   `toml:"display"`
	Output         string   `toml:"output"`
	Watch          float64  `toml:"watch"`
	WatchPath      string   `toml:"watch_path"`
	EntryDelimiter string   `toml:"entry_delimiter"`
	NoSort         bool     `toml:"no_sort"`
	Frecency       bool     `toml:"frecency"`
}

// Preview is the channel recipe's [preview] section.
type Preview struct {
	Command     string            `toml:"command"`
	CommandList []string          `toml:"commands"`
	Env         map[string]string `toml:"env"`
	Offset      string            `toml:"offset"`
	Header      string            `toml:"header"`
	Footer      string            `toml:"footer"`
	Language    string            `toml:"language"`
}

// PanelConfig configures border/padding/visibility for one UI panel.
type PanelConfig struct {
	Border  bool `toml:"border"`
	Padding int  `toml:"padding"`
	Hidden  bool `toml:"hidden"`
}

// UI is the channel recipe's [ui] section.
type UI struct {
	UIScale          float64     `toml:"ui_scale"`
	Layout           string      `toml:"layout"` // landscape | portrait
	InputBarPosition string      `toml:"input_bar_position"`
	InputHeader      string      `toml:"input_header"`
	InputPrompt      string      `toml:"input_prompt"`
	PreviewPanel     PanelConfig `toml:"preview_panel"`
	ResultsPanel     PanelConfig `toml:"results_panel"`
	InputBar         PanelConfig `toml:"input_bar"`
	StatusBar        PanelConfig `toml:"status_bar"`
	HelpPanel        PanelConfig `toml:"help_panel"`
	RemoteControl    PanelConfig `toml:"remote_control"`
}

// ActionDef is one [actions.<name>] section: a user-defined External
// Action.
type ActionDef struct {
	Description   string     `toml:"description"`
	Command       string     `toml:"command"`
	Mode          ActionMode `toml:"mode"`
	Separator     string     `toml:"separator"`
	ShellEscaping bool       `toml:"shell_escaping"`
}

// Selection is the channel recipe's [selection] section: how a
// multi-entry selection set is joined through the output template on
// confirm_selection/select_and_exit, mirroring an ActionDef's own
// mode/separator/shell_escaping triplet.
type Selection struct {
	Mode          string `toml:"mode"`
	Separator     string `toml:"separator"`
	ShellEscaping bool   `toml:"shell_escaping"`
}

// Recipe is one parsed channel TOML file.
type Recipe struct {
	Metadata     Metadata             `toml:"metadata"`
	Source       Source               `toml:"source"`
	Preview      Preview              `toml:"preview"`
	UI           UI                   `toml:"ui"`
	Keybindings  map[string]any       `toml:"keybindings"`
	Actions      map[string]ActionDef `toml:"actions"`
	Selection    Selection            `toml:"selection"`

	// Path is the name passed to ParseRecipe (LoadRecipe passes the file's
	// base name without the .toml extension); not part of the TOML.
	Path string `toml:"-"`
}

// Name derives the channel name from Metadata.Name if set, or the
// filename (without extension) otherwise.
func (r *Recipe) Name() string {
	if r.Metadata.Name != "" {
		return r.Metadata.Name
	}
	return r.Path
}

// Commands returns the source command(s) as a cycle list: CommandList if
// set, otherwise a single-element list built from Command.
func (s Source) Commands() []string {
	if len(s.CommandList) > 0 {
		return s.CommandList
	}
	if s.Command != "" {
		return []string{s.Command}
	}
	return nil
}

// Commands returns the preview command(s) as a cycle list, same rule as
// Source.Commands.
func (p Preview) Commands() []string {
	if len(p.CommandList) > 0 {
		return p.CommandList
	}
	if p.Command != "" {
		return []string{p.Command}
	}
	return nil
}

// ParseRecipe parses TOML channel recipe bytes.
func ParseRecipe(data []byte, path string) (*Recipe, error) {
	var r Recipe
	if err := toml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing channel recipe %s: %w", path, err)
	}
	r.Path = path
	return &r, nil
}

// LoadRecipe reads and parses a channel recipe file from disk.
func LoadRecipe(path string) (*Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading channel recipe %s: %w", path, err)
	}
	name := path
	if i := lastSlash(path); i >= 0 {
		name = path[i+1:]
	}
	name = trimTOMLExt(name)
	r, err := ParseRecipe(data, name)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func lastSlash(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return i
		}
	}
	return -1
}

func trimTOMLExt(s string) string {
	const ext = ".toml"
	if len(s) > len(ext) && s[len(s)-len(ext):] == ext {
		return s[:len(s)-len(ext)]
	}
	return s
}

// UserConfig is the YAML user configuration file: global defaults and
// cross-channel settings (shell_integration, frecency tuning, history).
type UserConfig struct {
	CableDir      string            `yaml:"cable_dir"`
	DefaultChannel string           `yaml:"default_channel"`
	GlobalHistory bool              `yaml:"global_history"`
	HistorySize   int               `yaml:"history_size"`
	Frecency      FrecencyConfig    `yaml:"frecency"`
	ShellIntegration ShellIntegration `yaml:"shell_integration"`
	UI            UI                `yaml:"ui"`
	Action        map[string][]string `yaml:"Action"`
}

// FrecencyConfig tunes the matcher's frecency bonus.
type FrecencyConfig struct {
	HalfLifeDays float64 `yaml:"half_life"`
}

// ShellIntegration resolves --autocomplete-prompt to a channel.
type ShellIntegration struct {
	ChannelTriggers map[string][]string `yaml:"channel_triggers"`
	FallbackChannel string              `yaml:"fallback_channel"`
}

// ParseUserConfig parses YAML user config bytes.
func ParseUserConfig(data []byte) (*UserConfig, error) {
	var c UserConfig
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing user config: %w", err)
	}
	return &c, nil
}

// LoadUserConfig reads and parses the user config file, returning an
// empty UserConfig (not an error) if path does not exist.
func LoadUserConfig(path string) (*UserConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &UserConfig{}, nil
		}
		return nil, fmt.Errorf("reading user config %s: %w", path, err)
	}
	return ParseUserConfig(data)
}
