package channel

import "time"

// Effective is the fully resolved configuration driving one session,
// merged defaults ← user config ← channel recipe ← CLI overrides.
type Effective struct {
	ChannelName string

	SourceCommands []string
	ANSI           bool
	Display        string
	Output         string
	EntryDelimiter string
	Watch          time.Duration
	WatchPath      string
	NoSort         bool
	FrecencyOn     bool
	FrecencyHalfLife time.Duration

	PreviewCommands []string
	PreviewEnv      map[string]string
	PreviewOffset   string
	PreviewHeader   string
	PreviewFooter   string
	PreviewLanguage string
	CachePreview    bool
	ShowPreview     bool

	ShowStatusBar     bool
	ShowRemoteControl bool
	ShowHelpPanel     bool

	Layout  string
	UIScale float64

	Exact         bool
	GlobalHistory bool
	HistorySize   int

	OutputMode          string
	OutputSeparator     string
	OutputShellEscaping bool

	Actions map[string]ActionDef

	MissingRequirements []string
}

// defaults returns the built-in defaults, the lowest precedence layer.
func defaults() Effective {
	return Effective{
		EntryDelimiter:    "\n",
		Display:           "{}",
		Output:            "{}",
		CachePreview:      true,
		ShowPreview:       true,
		ShowStatusBar:     true,
		ShowRemoteControl: false,
		ShowHelpPanel:     false,
		Layout:            "landscape",
		UIScale:           1.0,
		HistorySize:       200,
		FrecencyHalfLife:  14 * 24 * time.Hour,
		OutputMode:        "concatenate",
		OutputSeparator:   "\n",
		Actions:           map[string]ActionDef{},
	}
}

// Resolve merges the four layers, lowest to highest precedence: built-in
// defaults, the user config file, the channel recipe (nil in ad-hoc
// mode), and CLI overrides.
func Resolve(user *UserConfig, recipe *Recipe, cli *CLIOptions) *Effective {
	eff := defaults()

	if user != nil {
		if user.HistorySize != 0 {
			eff.HistorySize = user.HistorySize
		}
		eff.GlobalHistory = user.GlobalHistory
		if user.Frecency.HalfLifeDays > 0 {
			eff.FrecencyHalfLife = time.Duration(user.Frecency.HalfLifeDays * float64(24*time.Hour))
		}
		if user.UI.Layout != "" {
			eff.Layout = user.UI.Layout
		}
		if user.UI.UIScale != 0 {
			eff.UIScale = user.UI.UIScale
		}
	}

	if recipe != nil {
		eff.ChannelName = recipe.Name()
		if cmds := recipe.Source.Commands(); len(cmds) > 0 {
			eff.SourceCommands = cmds
		}
		eff.ANSI = recipe.Source.ANSI
		if recipe.Source.Display != "" {
			eff.Display = recipe.Source.Display
		}
		if recipe.Source.Output != "" {
			eff.Output = recipe.Source.Output
		}
		if recipe.Source.EntryDelimiter != "" {
			eff.EntryDelimiter = recipe.Source.EntryDelimiter
		}
		if recipe.Source.Watch > 0 {
			eff.Watch = time.Duration(recipe.Source.Watch * float64(time.Second))
		}
		if recipe.Source.WatchPath != "" {
			eff.WatchPath = recipe.Source.WatchPath
		}
		eff.NoSort = recipe.Source.NoSort
		eff.FrecencyOn = recipe.Source.Frecency

		if cmds := recipe.Preview.Commands(); len(cmds) > 0 {
			eff.PreviewCommands = cmds
		}
		eff.PreviewEnv = recipe.Preview.Env
		eff.PreviewOffset = recipe.Preview.Offset
		eff.PreviewHeader = recipe.Preview.Header
		eff.PreviewFooter = recipe.Preview.Footer
		eff.PreviewLanguage = recipe.Preview.Language

		if recipe.UI.Layout != "" {
			eff.Layout = recipe.UI.Layout
		}
		if recipe.UI.UIScale != 0 {
			eff.UIScale = recipe.UI.UIScale
		}
		eff.ShowPreview = !recipe.UI.PreviewPanel.Hidden
		eff.ShowStatusBar = !recipe.UI.StatusBar.Hidden
		eff.ShowRemoteControl = !recipe.UI.RemoteControl.Hidden
		eff.ShowHelpPanel = !recipe.UI.HelpPanel.Hidden

		if len(recipe.Actions) > 0 {
			eff.Actions = recipe.Actions
		}

		if recipe.Selection.Mode != "" {
			eff.OutputMode = recipe.Selection.Mode
		}
		if recipe.Selection.Separator != "" {
			eff.OutputSeparator = recipe.Selection.Separator
		}
		eff.OutputShellEscaping = recipe.Selection.ShellEscaping

		eff.MissingRequirements = CheckRequirements(recipe.Metadata.Requirements)
	}

	if cli != nil {
		applyCLIOverrides(&eff, cli)
	}

	return &eff
}

func applyCLIOverrides(eff *Effective, cli *CLIOptions) {
	if cli.SourceCommand != "" {
		eff.SourceCommands = []string{cli.SourceCommand}
	}
	if cli.SourceDisplay != "" {
		eff.Display = cli.SourceDisplay
	}
	if cli.SourceOutput != "" {
		eff.Output = cli.SourceOutput
	}
	if cli.SourceEntryDelimiter != "" {
		eff.EntryDelimiter = cli.SourceEntryDelimiter
	}
	if cli.ANSI {
		eff.ANSI = true
	}

	if cli.PreviewCommand != "" {
		eff.PreviewCommands = []string{cli.PreviewCommand}
	}
	if cli.PreviewHeader != "" {
		eff.PreviewHeader = cli.PreviewHeader
	}
	if cli.PreviewFooter != "" {
		eff.PreviewFooter = cli.PreviewFooter
	}
	if cli.PreviewOffset != "" {
		eff.PreviewOffset = cli.PreviewOffset
	}
	eff.CachePreview = cli.CachePreview

	switch {
	case cli.NoPreview:
		eff.ShowPreview = false
	case cli.HidePreview:
		eff.ShowPreview = false
	case cli.ShowPreview:
		eff.ShowPreview = true
	}

	switch {
	case cli.NoStatusBar, cli.HideStatusBar:
		eff.ShowStatusBar = false
	case cli.ShowStatusBar:
		eff.ShowStatusBar = true
	}

	switch {
	case cli.NoRemote, cli.HideRemote:
		eff.ShowRemoteControl = false
	case cli.ShowRemote:
		eff.ShowRemoteControl = true
	}

	switch {
	case cli.NoHelpPanel, cli.HideHelpPanel:
		eff.ShowHelpPanel = false
	case cli.ShowHelpPanel:
		eff.ShowHelpPanel = true
	}

	if cli.Layout != "" {
		eff.Layout = cli.Layout
	}
	if cli.UIScale > 0 {
		eff.UIScale = cli.UIScale
	}
	if cli.Watch > 0 {
		eff.Watch = time.Duration(cli.Watch * float64(time.Second))
	}

	eff.Exact = cli.Exact
	eff.GlobalHistory = eff.GlobalHistory || cli.GlobalHistory
}
