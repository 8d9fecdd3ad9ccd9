package channel

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/jessevdk/go-flags"
)

// CLIOptions mirrors peco's options.go shape, generalized to the full
// channel/preview/layout/keybinding flag surface a session needs.
type CLIOptions struct {
	Channel string `long:"autocomplete-prompt" description:"resolve a channel from shell_integration.channel_triggers against this prompt text"`

	SourceCommand        string `long:"source-command" description:"override the channel's source command"`
	SourceDisplay        string `long:"source-display" description:"override the display template"`
	SourceOutput         string `long:"source-output" description:"override the output template"`
	SourceEntryDelimiter string `long:"source-entry-delimiter" description:"override the entry delimiter"`
	ANSI                 bool   `long:"ansi" description:"parse ANSI SGR codes in source output"`

	PreviewCommand         string `long:"preview-command" description:"override the preview command"`
	PreviewHeader          string `long:"preview-header" description:"override the preview header"`
	PreviewFooter          string `long:"preview-footer" description:"override the preview footer"`
	PreviewOffset          string `long:"preview-offset" description:"override the preview offset template"`
	PreviewSize            string `long:"preview-size" description:"preview panel size"`
	PreviewBorder          bool   `long:"preview-border" description:"draw a border around the preview panel"`
	PreviewPadding         int    `long:"preview-padding" description:"preview panel padding"`
	PreviewWordWrap        bool   `long:"preview-word-wrap" description:"word-wrap preview content"`
	HidePreviewScrollbar   bool   `long:"hide-preview-scrollbar" description:"hide the preview scrollbar"`
	CachePreview           bool   `long:"cache-preview" description:"cache preview artifacts by fingerprint" default:"true"`
	NoPreview              bool   `long:"no-preview" description:"disable the preview panel entirely"`
	HidePreview            bool   `long:"hide-preview" description:"start with the preview panel hidden"`
	ShowPreview            bool   `long:"show-preview" description:"start with the preview panel shown"`

	NoStatusBar   bool `long:"no-status-bar" description:"disable the status bar"`
	HideStatusBar bool `long:"hide-status-bar" description:"start with the status bar hidden"`
	ShowStatusBar bool `long:"show-status-bar" description:"start with the status bar shown"`

	NoRemote   bool `long:"no-remote" description:"disable the remote control panel"`
	HideRemote bool `long:"hide-remote" description:"start with the remote control panel hidden"`
	ShowRemote bool `long:"show-remote" description:"start with the remote control panel shown"`

	NoHelpPanel   bool `long:"no-help-panel" description:"disable the help panel"`
	HideHelpPanel bool `long:"hide-help-panel" description:"start with the help panel hidden"`
	ShowHelpPanel bool `long:"show-help-panel" description:"start with the help panel shown"`

	Layout string `long:"layout" description:"landscape or portrait"`

	Input         string `long:"input" description:"initial value for query"`
	InputHeader   string `long:"input-header" description:"override the input bar header"`
	InputPrompt   string `long:"input-prompt" description:"override the input bar prompt"`
	InputPosition string `long:"input-position" description:"input bar position"`
	InputBorder   bool   `long:"input-border" description:"draw a border around the input bar"`
	InputPadding  int    `long:"input-padding" description:"input bar padding"`

	ResultsBorder  bool `long:"results-border" description:"draw a border around the results panel"`
	ResultsPadding int  `long:"results-padding" description:"results panel padding"`

	UIScale float64 `long:"ui-scale" description:"scale factor applied to the whole UI"`
	Height  string  `long:"height" description:"display height in lines or percentage"`
	Width   string  `long:"width" description:"display width in columns or percentage"`
	Inline  bool    `long:"inline" description:"render inline instead of using the alternate screen"`

	TickRate float64 `short:"t" long:"tick-rate" description:"event loop tick rate in Hz"`

	Watch float64 `long:"watch" description:"re-run the source every N seconds"`

	Exact bool `long:"exact" description:"use exact (substring) matching instead of fuzzy"`

	Select1     bool `long:"select-1" description:"select first item and exit immediately if the stream has exactly one entry"`
	Take1       bool `long:"take-1" description:"same as select-1, waiting for end-of-stream"`
	Take1Fast   bool `long:"take-1-fast" description:"select first item as soon as it arrives, without waiting for end-of-stream"`

	Keybindings string   `short:"k" long:"keybindings" description:"path to a keybindings file in the bindings DSL"`
	Expect      []string `long:"expect" description:"comma-separated list of keys that, if pressed, are reported on their own output line"`

	ConfigFile string `long:"config-file" description:"path to the user config file"`
	CableDir   string `long:"cable-dir" description:"path to the channel recipe directory"`

	GlobalHistory bool `long:"global-history" description:"share query history across all channels"`

	Help    bool `short:"h" long:"help" description:"show this help message and exit"`
	Version bool `long:"version" description:"print the version and exit"`
}

// ParseArgs parses argv (excluding argv[0]) and returns the remaining
// positional arguments.
func ParseArgs(opts *CLIOptions, argv []string) ([]string, error) {
	p := flags.NewParser(opts, flags.PrintErrors)
	args, err := p.ParseArgs(argv)
	if err != nil {
		return nil, fmt.Errorf("invalid command line options: %w", err)
	}
	return args, nil
}

// previewVisibilityCount, statusBarCount, remoteCount, helpCount and
// selectionTripletCount each return how many members of their mutually
// exclusive triplet were set, for Validate's enforcement.
func (o *CLIOptions) previewVisibilityCount() int {
	return boolCount(o.NoPreview, o.HidePreview, o.ShowPreview)
}

func (o *CLIOptions) statusBarCount() int {
	return boolCount(o.NoStatusBar, o.HideStatusBar, o.ShowStatusBar)
}

func (o *CLIOptions) remoteCount() int {
	return boolCount(o.NoRemote, o.HideRemote, o.ShowRemote)
}

func (o *CLIOptions) helpPanelCount() int {
	return boolCount(o.NoHelpPanel, o.HideHelpPanel, o.ShowHelpPanel)
}

func (o *CLIOptions) selectionTripletCount() int {
	return boolCount(o.Select1, o.Take1, o.Take1Fast)
}

func boolCount(bs ...bool) int {
	n := 0
	for _, b := range bs {
		if b {
			n++
		}
	}
	return n
}

// Validate enforces the mutually exclusive option groups and channel-mode
// vs ad-hoc-mode requirements.
func (o *CLIOptions) Validate(channelResolved bool) error {
	if o.previewVisibilityCount() > 1 {
		return errors.New("--no-preview, --hide-preview and --show-preview are mutually exclusive")
	}
	if o.statusBarCount() > 1 {
		return errors.New("--no-status-bar, --hide-status-bar and --show-status-bar are mutually exclusive")
	}
	if o.remoteCount() > 1 {
		return errors.New("--no-remote, --hide-remote and --show-remote are mutually exclusive")
	}
	if o.helpPanelCount() > 1 {
		return errors.New("--no-help-panel, --hide-help-panel and --show-help-panel are mutually exclusive")
	}
	if o.selectionTripletCount() > 1 {
		return errors.New("--select-1, --take-1 and --take-1-fast are mutually exclusive")
	}
	if o.Watch > 0 && o.selectionTripletCount() > 0 {
		return errors.New("--watch excludes --select-1/--take-1/--take-1-fast")
	}
	if o.Layout != "" && o.Layout != "landscape" && o.Layout != "portrait" {
		return fmt.Errorf("invalid --layout %q: must be landscape or portrait", o.Layout)
	}
	if !channelResolved && o.SourceCommand == "" {
		return errors.New("ad-hoc mode requires --source-command when no channel is resolved")
	}
	return nil
}

// ResolveAutocompleteChannel picks the channel whose longest trigger
// prefix matches prompt, falling back to si.FallbackChannel.
func ResolveAutocompleteChannel(si ShellIntegration, prompt string) string {
	best := ""
	bestLen := -1
	for channelName, prefixes := range si.ChannelTriggers {
		for _, prefix := range prefixes {
			if strings.HasPrefix(prompt, prefix) && len(prefix) > bestLen {
				best = channelName
				bestLen = len(prefix)
			}
		}
	}
	if best == "" {
		return si.FallbackChannel
	}
	return best
}

// SmartFirstPositional reinterprets a positional argument that names an
// existing filesystem path as a working directory selector rather than a
// channel name.
func SmartFirstPositional(arg string) (path string, isPath bool) {
	if arg == "" {
		return "", false
	}
	if _, err := os.Stat(arg); err == nil {
		return arg, true
	}
	return "", false
}

// CheckRequirements probes each required tool via PATH lookup, returning
// the subset that could not be found. Missing tools are a soft warning,
// never a hard failure.
func CheckRequirements(requirements []string) (missing []string) {
	for _, tool := range requirements {
		if _, err := exec.LookPath(tool); err != nil {
			missing = append(missing, tool)
		}
	}
	return missing
}
