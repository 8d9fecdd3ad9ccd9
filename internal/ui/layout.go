package ui

// Orientation is the top-level panel arrangement.
type Orientation string

const (
	OrientationLandscape Orientation = "landscape"
	OrientationPortrait  Orientation = "portrait"
)

// InputBarPosition places the query prompt relative to the results
// list, the same top/bottom choice peco's NewDefaultLayout vs.
// NewBottomUpLayout/NewTopDownQueryBottomLayout encode as distinct
// layout factories; here it is one axis of a single computed layout
// instead of a family of registered factories.
type InputBarPosition string

const (
	InputBarTop    InputBarPosition = "top"
	InputBarBottom InputBarPosition = "bottom"
)

// BorderStyle is a panel's border rendering.
type BorderStyle string

const (
	BorderNone   BorderStyle = "none"
	BorderPlain  BorderStyle = "plain"
	BorderRounded BorderStyle = "rounded"
	BorderThick  BorderStyle = "thick"
)

// Padding is per-side panel padding.
type Padding struct {
	Top, Right, Bottom, Left int
}

// PanelStyle configures one panel's frame.
type PanelStyle struct {
	Enabled bool
	Visible bool
	Border  BorderStyle
	Padding Padding
}

// Config is the subset of Effective Configuration the layout computer
// reads. It is a deliberately narrow view (rather than taking
// *channel.Effective directly) so this package has no import-time
// dependency on internal/channel.
type Config struct {
	Orientation      Orientation
	UIScale          int // clamped 10-100
	InputBarPosition InputBarPosition
	Preview          PanelStyle
	StatusBar        PanelStyle
	Help             PanelStyle
	RemoteControl    PanelStyle

	// InlineHeight and InlineWidth, when non-zero, bound the UI's height
	// and width instead of taking the full screen (--inline/--height).
	InlineHeight int
	InlineWidth  int
}

// ClampUIScale enforces the 10-100 percent bound on ui_scale.
func ClampUIScale(v int) int {
	if v < 10 {
		return 10
	}
	if v > 100 {
		return 100
	}
	return v
}

// Rect is an inclusive screen region in cells.
type Rect struct {
	X, Y, W, H int
}

// Inset shrinks r by a border (1 cell per side, if not BorderNone) and
// padding.
func (r Rect) Inset(border BorderStyle, p Padding) Rect {
	b := 0
	if border != BorderNone {
		b = 1
	}
	x := r.X + b + p.Left
	y := r.Y + b + p.Top
	w := r.W - 2*b - p.Left - p.Right
	h := r.H - 2*b - p.Top - p.Bottom
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return Rect{X: x, Y: y, W: w, H: h}
}

// Plan is the computed render plan for one repaint: the screen region
// assigned to each panel, plus which optional panels are actually
// present this frame.
type Plan struct {
	Screen Rect

	Input   Rect
	Results Rect
	Preview Rect // zero Rect if preview is not visible this frame

	StatusBar     Rect // zero Rect if not visible
	HelpPanel     Rect // zero Rect if not visible
	RemoteControl Rect // zero Rect if not visible, otherwise covers Results+Preview
}

// Compute derives a Plan from the current screen size and Config. It
// is a pure function so it can be unit tested without a Screen.
func Compute(screenW, screenH int, cfg Config) Plan {
	root := Rect{X: 0, Y: 0, W: screenW, H: screenH}
	if cfg.InlineWidth > 0 && cfg.InlineWidth < screenW {
		root.W = cfg.InlineWidth
	}
	if cfg.InlineHeight > 0 && cfg.InlineHeight < screenH {
		root.H = cfg.InlineHeight
	}

	var plan Plan
	plan.Screen = root

	area := root
	if cfg.StatusBar.Enabled && cfg.StatusBar.Visible && area.H > 1 {
		plan.StatusBar = Rect{X: area.X, Y: area.Y + area.H - 1, W: area.W, H: 1}
		area.H--
	}

	const inputHeight = 1
	if cfg.InputBarPosition == InputBarBottom {
		if area.H > inputHeight {
			plan.Input = Rect{X: area.X, Y: area.Y + area.H - inputHeight, W: area.W, H: inputHeight}
			area.H -= inputHeight
		}
	} else {
		if area.H > inputHeight {
			plan.Input = Rect{X: area.X, Y: area.Y, W: area.W, H: inputHeight}
			area.Y += inputHeight
			area.H -= inputHeight
		}
	}

	showPreview := cfg.Preview.Enabled && cfg.Preview.Visible
	scale := float64(ClampUIScale(cfg.UIScale)) / 100.0

	switch {
	case showPreview && cfg.Orientation == OrientationPortrait:
		previewH := int(float64(area.H) * scale)
		if previewH < 1 {
			previewH = 1
		}
		if previewH > area.H-1 {
			previewH = area.H - 1
		}
		plan.Preview = Rect{X: area.X, Y: area.Y, W: area.W, H: previewH}.Inset(cfg.Preview.Border, cfg.Preview.Padding)
		plan.Results = Rect{X: area.X, Y: area.Y + previewH, W: area.W, H: area.H - previewH}
	case showPreview:
		previewW := int(float64(area.W) * scale)
		if previewW < 1 {
			previewW = 1
		}
		if previewW > area.W-1 {
			previewW = area.W - 1
		}
		plan.Preview = Rect{X: area.X + area.W - previewW, Y: area.Y, W: previewW, H: area.H}.Inset(cfg.Preview.Border, cfg.Preview.Padding)
		plan.Results = Rect{X: area.X, Y: area.Y, W: area.W - previewW, H: area.H}
	default:
		plan.Results = area
	}

	if cfg.Help.Enabled && cfg.Help.Visible {
		plan.HelpPanel = root.Inset(cfg.Help.Border, cfg.Help.Padding)
	}
	if cfg.RemoteControl.Enabled && cfg.RemoteControl.Visible {
		plan.RemoteControl = root.Inset(cfg.RemoteControl.Border, cfg.RemoteControl.Padding)
	}

	return plan
}
