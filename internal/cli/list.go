package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/roach88/collected/internal/content"
	"github.com/roach88/collected/internal/objectstore"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Category string
}

// ListEntry is one stored object.
type ListEntry struct {
	Key       string    `json:"key"`
	MediaType string    `json:"media_type"`
	Bytes     int64     `json:"bytes"`
	Modified  time.Time `json:"modified"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List content in the object store",
		Long: `List content-addressed objects in the object store.

--category narrows the listing to texts, images, or pdfs.

Example:
  collected list --store s3://bucket/exports/?region=us-east-1 --category texts`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Category, "category", "c", string(content.CategoryAll), fmt.Sprintf("content category %v", content.Categories))

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := commandContext(cmd)

	category, err := content.ParseCategory(opts.Category)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeInvalidInput, "invalid --category", err)
	}

	store, err := openStore(opts.RootOptions)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStoreFailed, "failed to open object store", err)
	}

	entries := []ListEntry{}
	err = objectstore.ListCategory(ctx, store, category, func(id content.Identifier, info objectstore.ObjectInfo) error {
		entries = append(entries, ListEntry{
			Key:       info.Key,
			MediaType: id.MediaType.String(),
			Bytes:     info.Size,
			Modified:  info.ModTime,
		})
		return nil
	})
	if err != nil {
		return formatter.fail(ExitFailure, ErrCodeStoreFailed, "failed to list object store", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(entries)
	}

	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{e.Key, e.MediaType, humanize.IBytes(uint64(e.Bytes)), humanize.Time(e.Modified)}
	}
	if err := formatter.Table([]string{"Key", "Type", "Size", "Modified"}, rows); err != nil {
		return err
	}
	fmt.Fprintf(formatter.Writer, "(%d object(s))\n", len(entries))
	return nil
}
