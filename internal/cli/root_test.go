package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/collected/internal/content"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "collected", cmd.Use)
	assert.Contains(t, cmd.Long, "sha256/<media type>/<hex digest>")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"build", "query", "identify", "push", "list"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	require.NotNil(t, cmd.PersistentFlags().Lookup("store"))
}

func TestBuildCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	buildCmd, _, err := cmd.Find([]string{"build"})
	require.NoError(t, err)

	outputFlag := buildCmd.Flags().Lookup("output")
	require.NotNil(t, outputFlag)
	assert.Equal(t, "o", outputFlag.Shorthand)

	pushFlag := buildCmd.Flags().Lookup("push")
	require.NotNil(t, pushFlag)
	assert.Equal(t, "false", pushFlag.DefValue)
}

func TestListCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	listCmd, _, err := cmd.Find([]string{"list"})
	require.NoError(t, err)

	categoryFlag := listCmd.Flags().Lookup("category")
	require.NotNil(t, categoryFlag)
	assert.Equal(t, "all", categoryFlag.DefValue)
}

func TestInvalidFormatRejected(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"identify", "--format", "yaml", "testdata/hello.txt"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid format")
}

func TestConfigFileApplies(t *testing.T) {
	dir := t.TempDir()
	storeDir := filepath.Join(dir, "store")
	require.NoError(t, os.Mkdir(storeDir, 0o755))

	configPath := filepath.Join(dir, "collected.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(
		"store: file://"+storeDir+"\nformat: json\nmedia_type: application/x-sqlite3\n"), 0o644))

	opts := &RootOptions{ConfigPath: configPath}
	cmd := &cobra.Command{}
	cmd.SetErr(&bytes.Buffer{})
	cmd.Flags().StringVar(&opts.Format, "format", "text", "")
	require.NoError(t, opts.resolve(cmd))

	assert.Equal(t, "json", opts.Format, "config format applies when --format is not given")
	url, err := opts.storeURL()
	require.NoError(t, err)
	assert.Equal(t, "file://"+storeDir, url)
	assert.Equal(t, content.MediaType{Type: "application", Subtype: "x-sqlite3"}, opts.mediaType())
}

func TestConfigFileInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "collected.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("colour: blue\n"), 0o644))

	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", configPath, "identify", "testdata/hello.txt"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestStoreURLRequired(t *testing.T) {
	opts := &RootOptions{}
	_, err := opts.storeURL()
	assert.ErrorContains(t, err, "no object store configured")
	assert.Equal(t, content.SQLite3, opts.mediaType())
}
