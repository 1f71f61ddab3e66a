package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/collected/internal/objectstore"
)

// PushOptions holds flags for the push command.
type PushOptions struct {
	*RootOptions
	Type string // media type override
}

// PushResult reports the upload of one file.
type PushResult struct {
	File    string `json:"file"`
	Key     string `json:"key"`
	Created bool   `json:"created"`
}

// NewPushCommand creates the push command.
func NewPushCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PushOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "push <file>...",
		Short: "Upload files to the object store under their storage keys",
		Long: `Upload each file to the object store under its content-addressed key.

Files already present under their key are not uploaded again.

Example:
  collected push --store file:///srv/collected notes.md photo.png`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPush(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Type, "type", "t", "", "media type (default: detect)")

	return cmd
}

func runPush(opts *PushOptions, paths []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := commandContext(cmd)

	resources, err := loadResources(opts.RootOptions, opts.Type, paths)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeReadFailed, "failed to read files", err)
	}

	store, err := openStore(opts.RootOptions)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStoreFailed, "failed to open object store", err)
	}

	results := make([]PushResult, len(resources))
	for i, r := range resources {
		key, created, err := objectstore.Upload(ctx, store, r)
		if err != nil {
			return formatter.fail(ExitFailure, ErrCodeStoreFailed, fmt.Sprintf("failed to upload %s", paths[i]), err)
		}
		results[i] = PushResult{File: paths[i], Key: key, Created: created}
		formatter.VerboseLog("Pushed %s as %s", paths[i], key)
	}

	if formatter.Format == "json" {
		return formatter.Success(results)
	}
	for _, r := range results {
		status := "uploaded"
		if !r.Created {
			status = "exists"
		}
		fmt.Fprintf(formatter.Writer, "%-8s %s  %s\n", status, r.Key, r.File)
	}
	return nil
}
