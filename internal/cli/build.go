package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/roach88/collected/internal/content"
	"github.com/roach88/collected/internal/objectstore"
	"github.com/roach88/collected/internal/sqlengine"
)

// BuildOptions holds flags for the build command.
type BuildOptions struct {
	*RootOptions
	Output string // output file path
	Push   bool
}

// BuildResult describes a built database image.
type BuildResult struct {
	Output  string `json:"output,omitempty"`
	Bytes   int    `json:"bytes"`
	Key     string `json:"key"`
	Pushed  bool   `json:"pushed"`
	Created bool   `json:"created"`
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "build <script.sql>...",
		Short: "Build a SQLite database from SQL scripts",
		Long: `Build a fresh in-memory SQLite database by running each SQL script in
order, then export the database image.

The image is written to --output, published to the object store with --push,
or both. Published images are keyed by their content, so pushing an
unchanged database twice stores it once.

Example:
  collected build schema.sql seed.sql -o contacts.sqlite
  collected build schema.sql --push --store s3://bucket/exports/?region=us-east-1`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	cmd.Flags().BoolVar(&opts.Push, "push", false, "upload the image to the object store")

	return cmd
}

func runBuild(opts *BuildOptions, scripts []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := commandContext(cmd)

	if opts.Output == "" && !opts.Push {
		return formatter.fail(ExitCommandError, ErrCodeInvalidInput, "nothing to do: pass --output, --push, or both", nil)
	}

	conn := sqlengine.New(sqlengine.Memory(), sqlengine.WithLogger(slog.Default()))
	if err := conn.Open(ctx); err != nil {
		return formatter.fail(ExitFailure, ErrCodeGeneric, "failed to open database", err)
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	for _, path := range scripts {
		script, err := os.ReadFile(path)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeReadFailed, "failed to read script", err)
		}
		formatter.VerboseLog("Running %s", path)
		if err := conn.ExecScript(ctx, string(script)); err != nil {
			return formatter.fail(ExitFailure, ErrCodeGeneric, fmt.Sprintf("script %s failed", path), err)
		}
	}

	image, err := conn.Serialize(ctx)
	if err != nil {
		return formatter.fail(ExitFailure, ErrCodeGeneric, "failed to export database", err)
	}
	resource := content.NewResource(image, opts.mediaType())

	result := BuildResult{Output: opts.Output, Bytes: len(image), Key: resource.Key()}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, image, 0o644); err != nil {
			return formatter.fail(ExitCommandError, ErrCodeWriteFailed, "failed to write database", err)
		}
	}

	if opts.Push {
		store, err := openStore(opts.RootOptions)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeStoreFailed, "failed to open object store", err)
		}
		if _, result.Created, err = objectstore.Upload(ctx, store, resource); err != nil {
			return formatter.fail(ExitFailure, ErrCodeStoreFailed, "failed to upload database", err)
		}
		result.Pushed = true
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	// Human-readable text output
	fmt.Fprintf(formatter.Writer, "✓ Built %s database from %d script(s)\n", humanize.IBytes(uint64(result.Bytes)), len(scripts))
	if result.Output != "" {
		fmt.Fprintf(formatter.Writer, "Wrote %s\n", result.Output)
	}
	fmt.Fprintf(formatter.Writer, "Key: %s\n", result.Key)
	if result.Pushed {
		if result.Created {
			fmt.Fprintln(formatter.Writer, "Uploaded")
		} else {
			fmt.Fprintln(formatter.Writer, "Already stored")
		}
	}
	return nil
}

// openStore opens the configured object store. memory:// is refused: every
// invocation would see a new empty store and the upload would be lost.
func openStore(opts *RootOptions) (objectstore.Store, error) {
	url, err := opts.storeURL()
	if err != nil {
		return nil, err
	}
	store, err := objectstore.Open(url)
	if err != nil {
		return nil, err
	}
	if store.Provider() == "memory" {
		return nil, fmt.Errorf("store %q does not persist between commands; use file:// or s3://", url)
	}
	return store, nil
}
