package ui

import "testing"

func TestClampUIScale(t *testing.T) {
	cases := map[int]int{5: 10, 10: 10, 50: 50, 100: 100, 150: 100}
	for in, want := range cases {
		if got := ClampUIScale(in); got != want {
			t.Fatalf("ClampUIScale(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestComputeReservesInputAndStatus(t *testing.T) {
	cfg := Config{
		InputBarPosition: InputBarTop,
		StatusBar:        PanelStyle{Enabled: true, Visible: true},
	}
	plan := Compute(80, 24, cfg)

	if plan.Input.H != 1 || plan.Input.Y != 0 {
		t.Fatalf("input = %+v, want top row", plan.Input)
	}
	if plan.StatusBar.H != 1 || plan.StatusBar.Y != 23 {
		t.Fatalf("status bar = %+v, want bottom row", plan.StatusBar)
	}
	if plan.Results.Y != 1 || plan.Results.H != 22 {
		t.Fatalf("results = %+v, want rows 1..22", plan.Results)
	}
}

func TestComputeInputBarBottom(t *testing.T) {
	cfg := Config{InputBarPosition: InputBarBottom}
	plan := Compute(40, 10, cfg)
	if plan.Input.Y != 9 {
		t.Fatalf("input.Y = %d, want 9 (bottom row)", plan.Input.Y)
	}
	if plan.Results.Y != 0 || plan.Results.H != 9 {
		t.Fatalf("results = %+v, want rows 0..8", plan.Results)
	}
}

func TestComputePreviewLandscapeSplitsColumns(t *testing.T) {
	cfg := Config{
		Orientation: OrientationLandscape,
		UIScale:     50,
		Preview:     PanelStyle{Enabled: true, Visible: true},
	}
	plan := Compute(100, 20, cfg)
	if plan.Preview.W <= 0 {
		t.Fatalf("expected a preview column, got %+v", plan.Preview)
	}
	if plan.Results.W+plan.Preview.W > 100 {
		t.Fatalf("results(%d) + preview(%d) should not exceed screen width", plan.Results.W, plan.Preview.W)
	}
	if plan.Preview.X <= plan.Results.X {
		t.Fatalf("expected preview to sit right of results in landscape")
	}
}

func TestComputePreviewPortraitSplitsRows(t *testing.T) {
	cfg := Config{
		Orientation: OrientationPortrait,
		UIScale:     30,
		Preview:     PanelStyle{Enabled: true, Visible: true},
	}
	plan := Compute(100, 20, cfg)
	if plan.Preview.H <= 0 {
		t.Fatalf("expected a preview row band, got %+v", plan.Preview)
	}
	if plan.Preview.Y >= plan.Results.Y {
		t.Fatalf("expected preview above results in portrait, got preview=%+v results=%+v", plan.Preview, plan.Results)
	}
}

func TestComputePreviewHiddenLeavesFullResults(t *testing.T) {
	cfg := Config{Preview: PanelStyle{Enabled: true, Visible: false}}
	plan := Compute(80, 20, cfg)
	if plan.Preview.W != 0 || plan.Preview.H != 0 {
		t.Fatalf("expected zero preview rect when not visible, got %+v", plan.Preview)
	}
	if plan.Results.W != 80 {
		t.Fatalf("expected results to take the full width, got %+v", plan.Results)
	}
}

func TestRectInsetShrinksForBorderAndPadding(t *testing.T) {
	r := Rect{X: 0, Y: 0, W: 10, H: 10}
	inset := r.Inset(BorderPlain, Padding{Top: 1, Left: 1})
	if inset.X != 2 || inset.Y != 2 {
		t.Fatalf("inset origin = (%d,%d), want (2,2)", inset.X, inset.Y)
	}
	if inset.W != 7 || inset.H != 7 {
		t.Fatalf("inset size = (%d,%d), want (7,7)", inset.W, inset.H)
	}
}

func TestRectInsetNoBorder(t *testing.T) {
	r := Rect{X: 0, Y: 0, W: 5, H: 5}
	inset := r.Inset(BorderNone, Padding{})
	if inset != r {
		t.Fatalf("inset = %+v, want unchanged %+v", inset, r)
	}
}
