package cli

import (
	"bytes"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/collected/internal/content"
)

// sqliteMagic is the first 16 bytes of every SQLite database file.
var sqliteMagic = []byte("SQLite format 3\x00")

// IdentifyOptions holds flags for the identify command.
type IdentifyOptions struct {
	*RootOptions
	Type string // media type override
}

// IdentifyResult is the content address of one file.
type IdentifyResult struct {
	File      string `json:"file"`
	MediaType string `json:"media_type"`
	Digest    string `json:"sha256"`
	Bytes     int    `json:"bytes"`
	Key       string `json:"key"`
}

// NewIdentifyCommand creates the identify command.
func NewIdentifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IdentifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "identify <file>...",
		Short: "Print the storage key of each file",
		Long: `Compute the content address of each file without uploading it.

The media type comes from --type, or is detected from the file's extension
and contents. SQLite database files are identified as the configured
database media type (application/vnd.sqlite3 by default).

Example:
  collected identify notes.md
  collected identify --type text/markdown README`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIdentify(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Type, "type", "t", "", "media type (default: detect)")

	return cmd
}

func runIdentify(opts *IdentifyOptions, paths []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	resources, err := loadResources(opts.RootOptions, opts.Type, paths)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeReadFailed, "failed to identify", err)
	}

	results := make([]IdentifyResult, len(resources))
	for i, r := range resources {
		results[i] = IdentifyResult{
			File:      paths[i],
			MediaType: r.ID.MediaType.String(),
			Digest:    r.ID.Digest,
			Bytes:     len(r.Data),
			Key:       r.Key(),
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(results)
	}
	for _, r := range results {
		fmt.Fprintf(formatter.Writer, "%s  %s\n", r.Key, r.File)
	}
	return nil
}

// loadResources reads each path as a Resource. typeFlag, when set, applies
// to every file.
func loadResources(opts *RootOptions, typeFlag string, paths []string) ([]content.Resource, error) {
	var override content.MediaType
	if typeFlag != "" {
		var err error
		if override, err = content.ParseMediaType(typeFlag); err != nil {
			return nil, err
		}
	}

	resources := make([]content.Resource, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		mt := override
		if mt.IsZero() {
			mt = detectMediaType(path, data, opts.mediaType())
		}
		if mt.IsText() {
			resources = append(resources, content.NewTextResource(mt, string(data)))
		} else {
			resources = append(resources, content.NewResource(data, mt))
		}
	}
	return resources, nil
}

// detectMediaType guesses a file's media type: SQLite images by their
// header, then by extension, then by sniffing the content.
func detectMediaType(path string, data []byte, database content.MediaType) content.MediaType {
	if bytes.HasPrefix(data, sqliteMagic) {
		return database
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".md", ".markdown":
		return content.TextMarkdown
	case ".json":
		return content.TextJSON
	case "":
	default:
		if mt, err := content.ParseMediaType(mime.TypeByExtension(ext)); err == nil {
			return mt
		}
	}

	if mt, err := content.ParseMediaType(http.DetectContentType(data)); err == nil {
		return mt
	}
	return content.ApplicationOctetStream
}
