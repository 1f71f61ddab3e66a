package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/collected/internal/config"
	"github.com/roach88/collected/internal/content"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	Store      string // overrides the configured store URL

	// Config is resolved from ConfigPath and the flags above before any
	// subcommand runs. Commands built directly (as in tests) see the zero
	// value, which storeURL and mediaType treat as the defaults.
	Config config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the collected CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "collected",
		Short: "collected - build, query, and publish SQLite databases",
		Long: `Build SQLite databases from SQL scripts, query exported database images,
and publish content to an object store under content-addressed keys of the
form sha256/<media type>/<hex digest>.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.Store, "store", "", "object store URL (file:///dir, s3://bucket/prefix/)")

	// Add subcommands
	cmd.AddCommand(NewBuildCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewIdentifyCommand(opts))
	cmd.AddCommand(NewPushCommand(opts))
	cmd.AddCommand(NewListCommand(opts))

	return cmd
}

// resolve loads the config file, applies flag overrides, and configures
// logging.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	cfg := config.Default()
	if o.ConfigPath != "" {
		var err error
		if cfg, err = config.Load(o.ConfigPath); err != nil {
			return WrapExitError(ExitCommandError, "failed to load config", err)
		}
	}

	if o.Store != "" {
		cfg.Store = o.Store
	}
	if cmd.Flags().Changed("format") || o.ConfigPath == "" {
		cfg.Format = o.Format
	}
	if !isValidFormat(cfg.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", cfg.Format, ValidFormats))
	}
	o.Format = cfg.Format

	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid log level", err)
	}
	if o.Verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))

	o.Config = cfg
	return nil
}

// storeURL returns the object store URL, or an error if none is configured.
func (o *RootOptions) storeURL() (string, error) {
	switch {
	case o.Store != "":
		return o.Store, nil
	case o.Config.Store != "":
		return o.Config.Store, nil
	default:
		return "", fmt.Errorf("no object store configured: pass --store or set store in the config file")
	}
}

// mediaType returns the media type exported databases are published as.
func (o *RootOptions) mediaType() content.MediaType {
	if o.Config.MediaType.IsZero() {
		return content.SQLite3
	}
	return o.Config.MediaType
}

// formatter returns an OutputFormatter writing to cmd's streams.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
