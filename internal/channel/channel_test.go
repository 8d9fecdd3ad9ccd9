package channel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRecipe = `
[metadata]
name = "files"
description = "find files"

[source]
command = "find . -type f"
entry_delimiter = "\n"

[preview]
command = "cat {}"

[ui]
layout = "portrait"

[actions.open]
command = "vim {}"
mode = "fork"
`

func TestParseRecipe(t *testing.T) {
	r, err := ParseRecipe([]byte(sampleRecipe), "files")
	require.NoError(t, err)
	assert.Equal(t, "files", r.Name())
	assert.Equal(t, []string{"find . -type f"}, r.Source.Commands())
	assert.Equal(t, []string{"cat {}"}, r.Preview.Commands())
	assert.Equal(t, "portrait", r.UI.Layout)
	assert.Equal(t, ActionFork, r.Actions["open"].Mode)
}

func TestResolvePrecedence(t *testing.T) {
	user := &UserConfig{HistorySize: 50}
	recipe, err := ParseRecipe([]byte(sampleRecipe), "files")
	require.NoError(t, err)

	cli := &CLIOptions{}
	cli.SourceCommand = "find . -type f -name '*.go'"

	eff := Resolve(user, recipe, cli)
	assert.Equal(t, 50, eff.HistorySize)
	assert.Equal(t, []string{"find . -type f -name '*.go'"}, eff.SourceCommands)
	assert.Equal(t, "portrait", eff.Layout)
}

func TestResolveDefaultsOnly(t *testing.T) {
	eff := Resolve(nil, nil, nil)
	assert.Equal(t, "\n", eff.EntryDelimiter)
	assert.Equal(t, "{}", eff.Display)
	assert.True(t, eff.CachePreview)
}

func TestValidateMutualExclusion(t *testing.T) {
	cli := &CLIOptions{NoPreview: true, HidePreview: true, SourceCommand: "x"}
	err := cli.Validate(true)
	assert.Error(t, err)
}

func TestValidateAdHocRequiresSourceCommand(t *testing.T) {
	cli := &CLIOptions{}
	err := cli.Validate(false)
	assert.Error(t, err)
}

func TestResolveAutocompleteChannel(t *testing.T) {
	si := ShellIntegration{
		ChannelTriggers: map[string][]string{
			"git-branch": {"git checkout"},
		},
		FallbackChannel: "files",
	}
	assert.Equal(t, "git-branch", ResolveAutocompleteChannel(si, "git checkout "))
	assert.Equal(t, "files", ResolveAutocompleteChannel(si, "something else"))
}

func TestSmartFirstPositional(t *testing.T) {
	path, ok := SmartFirstPositional("/tmp")
	assert.True(t, ok)
	assert.Equal(t, "/tmp", path)

	_, ok = SmartFirstPositional("definitely-not-a-channel-name-or-path")
	assert.False(t, ok)
}
