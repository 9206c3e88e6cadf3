package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/codekandis/persistence"
	"github.com/codekandis/persistence/internal/logging"
)

type options struct {
	configFile string
	logLevel   string
	named      bool
	first      bool
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCommand(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand(out io.Writer) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "persistence",
		Short:         "Run statements against a database described by a YAML configuration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "persistence.yaml", "Path to the YAML configuration file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&opts.named, "named", false, "Treat arguments as name=value pairs bound to :name placeholders")

	root.AddCommand(&cobra.Command{
		Use:   "ping",
		Short: "Check that a connection can be established",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConnector(cmd.Context(), opts, func(ctx context.Context, c *persistence.Connector) error {
				_, err := fmt.Fprintln(out, "ok")
				return err
			})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "exec <statement> [args...]",
		Short: "Execute a statement inside a transaction",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stmtArgs, err := statementArgs(args[1:], opts.named)
			if err != nil {
				return err
			}
			return withConnector(cmd.Context(), opts, func(ctx context.Context, c *persistence.Connector) error {
				id, err := persistence.AsTransaction(ctx, c, func(ctx context.Context) (string, error) {
					if err := c.Execute(ctx, args[0], stmtArgs...); err != nil {
						return "", err
					}
					id, err := c.LastInsertID()
					if err != nil {
						// not every backend reports generated ids (e.g. pgsql)
						return "", nil
					}
					return id, nil
				})
				if err != nil {
					return err
				}
				result := map[string]any{"executed": true}
				if id != "" {
					result["lastInsertId"] = id
				}
				return writeJSON(out, result)
			})
		},
	})

	queryCmd := &cobra.Command{
		Use:   "query <statement> [args...]",
		Short: "Run a query and print the rows as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stmtArgs, err := statementArgs(args[1:], opts.named)
			if err != nil {
				return err
			}
			return withConnector(cmd.Context(), opts, func(ctx context.Context, c *persistence.Connector) error {
				if opts.first {
					row, err := c.QueryFirst(ctx, args[0], stmtArgs...)
					if err != nil {
						return err
					}
					return writeJSON(out, row)
				}
				rows, err := c.Query(ctx, args[0], stmtArgs...)
				if err != nil {
					return err
				}
				return writeJSON(out, rows)
			})
		},
	}
	queryCmd.Flags().BoolVar(&opts.first, "first", false, "Print only the first row")
	root.AddCommand(queryCmd)

	return root
}

func withConnector(ctx context.Context, opts *options, fn func(ctx context.Context, c *persistence.Connector) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger, err := logging.New(logging.Config{Level: opts.logLevel})
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()
	cfg, err := persistence.LoadConfiguration(opts.configFile)
	if err != nil {
		return err
	}
	c, err := persistence.NewConnector(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Warn("closing connection failed", zap.Error(err))
		}
	}()
	return fn(ctx, c)
}

// statementArgs converts command line arguments to statement arguments
//
// with named set every argument must be a name=value pair
func statementArgs(args []string, named bool) ([]any, error) {
	if !named {
		result := make([]any, 0, len(args))
		for _, arg := range args {
			result = append(result, arg)
		}
		return result, nil
	}
	arguments := persistence.Arguments{}
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("argument %q is not a name=value pair", arg)
		}
		arguments[strings.TrimPrefix(name, ":")] = value
	}
	return arguments.Named(), nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
