package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/collected/internal/sqlengine"
)

// nullText is how NULL is shown in text output.
const nullText = "NULL"

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Args   []string // "int:<n>" or "text:<s>"
	Stream bool
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <database> <sql>",
		Short: "Query an exported SQLite database image",
		Long: `Load a database image read-only and run one query against it.

Positional parameters ("?") are bound from --arg flags in order. Each flag
is "int:<32-bit integer>" or "text:<string>".

By default all rows are read before printing a table. With --stream, rows
are printed as they are read: tab-separated in text format, one JSON array
per line in json format.

Example:
  collected query contacts.sqlite "SELECT * FROM contact"
  collected query contacts.sqlite "SELECT name FROM contact WHERE id = ?" --arg int:7`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Args, "arg", nil, "positional parameter (int:<n> or text:<s>), repeatable")
	cmd.Flags().BoolVar(&opts.Stream, "stream", false, "print rows as they are read")

	return cmd
}

func runQuery(opts *QueryOptions, dbPath, sql string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	bindings, err := parseBindings(opts.Args)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeInvalidInput, "invalid --arg", err)
	}

	image, err := os.ReadFile(dbPath)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeReadFailed, "failed to read database", err)
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn := sqlengine.New(sqlengine.Deserialize(image), sqlengine.WithLogger(slog.Default()))
	if err := conn.Open(ctx); err != nil {
		return formatter.fail(ExitFailure, ErrCodeGeneric, "failed to open database", err)
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	stmt := sqlengine.Statement(sql)
	if opts.Stream {
		return streamQuery(ctx, formatter, conn.QueryRows(stmt, bindings...))
	}

	out, err := conn.QueryStrings(ctx, stmt, bindings...)
	if err != nil {
		return formatter.fail(ExitFailure, ErrCodeGeneric, "query failed", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(out)
	}

	rows := make([][]string, len(out.Rows))
	for i, row := range out.Rows {
		rows[i] = row.Strings(nullText)
	}
	if err := formatter.Table(out.Columns, rows); err != nil {
		return err
	}
	fmt.Fprintf(formatter.Writer, "(%d row(s))\n", len(out.Rows))
	return nil
}

// streamQuery prints rows as they are pulled from the connection.
func streamQuery(ctx context.Context, formatter *OutputFormatter, rows *sqlengine.Rows) error {
	defer rows.Close()

	enc := json.NewEncoder(formatter.Writer)
	header := false
	for rows.Next(ctx) {
		if !header && formatter.Format != "json" {
			fmt.Fprintln(formatter.Writer, strings.Join(rows.Columns(), "\t"))
		}
		header = true

		if formatter.Format == "json" {
			if err := enc.Encode(rows.Row()); err != nil {
				return err
			}
		} else {
			fmt.Fprintln(formatter.Writer, strings.Join(rows.Row().Strings(nullText), "\t"))
		}
	}
	if err := rows.Err(); err != nil {
		return formatter.fail(ExitFailure, ErrCodeGeneric, "query failed", err)
	}
	if !header && formatter.Format != "json" {
		fmt.Fprintln(formatter.Writer, strings.Join(rows.Columns(), "\t"))
	}
	return nil
}

// parseBindings converts --arg values to bindings, in order.
func parseBindings(args []string) ([]sqlengine.Binding, error) {
	bindings := make([]sqlengine.Binding, 0, len(args))
	for i, arg := range args {
		kind, value, ok := strings.Cut(arg, ":")
		if !ok {
			return nil, fmt.Errorf("argument %d %q: want int:<n> or text:<s>", i+1, arg)
		}
		switch kind {
		case "int":
			n, err := strconv.ParseInt(value, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("argument %d %q: %w", i+1, arg, err)
			}
			bindings = append(bindings, sqlengine.Int32(int32(n)))
		case "text":
			bindings = append(bindings, sqlengine.Text(value))
		default:
			return nil, fmt.Errorf("argument %d %q: unknown kind %q", i+1, arg, kind)
		}
	}
	return bindings, nil
}

// commandContext returns cmd's context, or Background when it has none
// (commands executed directly in tests).
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
