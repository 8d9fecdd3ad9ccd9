package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEntry string

func (f fakeEntry) Raw() string { return string(f) }

func TestRenderRoundTrip(t *testing.T) {
	e := fakeEntry("hello world")
	out, err := Render("{}", e)
	require.NoError(t, err)
	assert.Equal(t, e.Raw(), out)
}

func TestRenderIdempotence(t *testing.T) {
	e := fakeEntry("plain text, no special ops")
	out1, err := Render("{trim}", e)
	require.NoError(t, err)
	out2, err := Render("{trim}", fakeEntry(out1))
	require.NoError(t, err)
	assert.Equal(t, out1, out2)
}

func TestPositionalShorthand(t *testing.T) {
	e := fakeEntry("a:b:c")
	out, err := Render("{1}", e)
	require.NoError(t, err)
	assert.Equal(t, "b", out)
}

func TestSplitRange(t *testing.T) {
	e := fakeEntry("a:b:c:d:e")
	cases := map[string]string{
		"{split::0}":     "a",
		"{split::1..3}":  "bc",
		"{split::1..=3}": "bcd",
		"{split::2..}":   "cde",
		"{split::..2}":   "ab",
		"{split::-1}":    "e",
		"{split::-2..}":  "de",
	}
	for tmpl, want := range cases {
		out, err := Render(tmpl, e)
		require.NoError(t, err, tmpl)
		assert.Equal(t, want, out, tmpl)
	}
}

func TestChainedOps(t *testing.T) {
	e := fakeEntry("  Hello World  ")
	out, err := Render("{trim|lower}", e)
	require.NoError(t, err)
	assert.Equal(t, "hello world", out)
}

func TestJoinAfterSplit(t *testing.T) {
	e := fakeEntry("a:b:c")
	out, err := Render("{split:::1..|join:-}", e)
	require.NoError(t, err)
	assert.Equal(t, "b-c", out)
}

func TestFilterSortUnique(t *testing.T) {
	e := fakeEntry("banana:apple:cherry:apple")
	out, err := Render("{split::..|sort|unique|join:,}", e)
	require.NoError(t, err)
	assert.Equal(t, "apple,banana,cherry", out)
}

func TestReplace(t *testing.T) {
	e := fakeEntry("foo.txt")
	out, err := Render("{replace:s/\\.txt$/.md/}", e)
	require.NoError(t, err)
	assert.Equal(t, "foo.md", out)
}

func TestRegexExtract(t *testing.T) {
	e := fakeEntry("v1.2.3-beta")
	out, err := Render(`{regex_extract:v(\d+\.\d+\.\d+):1}`, e)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", out)
}

func TestPad(t *testing.T) {
	e := fakeEntry("7")
	out, err := Render("{pad:3:0}", e)
	require.NoError(t, err)
	assert.Equal(t, "007", out)
}

func TestMapOverList(t *testing.T) {
	e := fakeEntry("a:b:c")
	out, err := Render("{split::..|map:{upper}|join:,}", e)
	require.NoError(t, err)
	assert.Equal(t, "A,B,C", out)
}

func TestUnbalancedBraces(t *testing.T) {
	e := fakeEntry("x")
	_, err := Render("{upper", e)
	require.Error(t, err)
}

func TestUnknownOperation(t *testing.T) {
	e := fakeEntry("x")
	_, err := Render("{bogus}", e)
	require.Error(t, err)
}

func TestShellEscaping(t *testing.T) {
	e := fakeEntry("it's a test")
	out, err := RenderAll("{}", []Entry{e}, Options{Mode: ModeSingle, ShellEscaping: true})
	require.NoError(t, err)
	assert.Equal(t, "'it'\\''s a test'", out)
}

func TestConcatenateMode(t *testing.T) {
	entries := []Entry{fakeEntry("a"), fakeEntry("b"), fakeEntry("c")}
	out, err := RenderAll("{}", entries, Options{Mode: ModeConcatenate, Separator: ","})
	require.NoError(t, err)
	assert.Equal(t, "a,b,c", out)
}

func TestOneToOneMode(t *testing.T) {
	entries := []Entry{fakeEntry("a"), fakeEntry("b")}
	out, err := RenderAll("[{}]", entries, Options{Mode: ModeOneToOne, Separator: " "})
	require.NoError(t, err)
	assert.Equal(t, "[a] [b]", out)
}

func TestLiteralTextPreserved(t *testing.T) {
	e := fakeEntry("x:y")
	out, err := Render("prefix-{0}-mid-{1}-suffix", e)
	require.NoError(t, err)
	assert.Equal(t, "prefix-x-mid-y-suffix", out)
}
