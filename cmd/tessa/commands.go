package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/JonMunkholm/tessa/internal/config"
	"github.com/JonMunkholm/tessa/internal/core"
	"github.com/JonMunkholm/tessa/internal/history"
	"github.com/JonMunkholm/tessa/internal/logging"
	"github.com/spf13/cobra"
)

// errImportsFailed is returned after the summary has reported the failures.
var errImportsFailed = errors.New("one or more imports failed")

type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "tessa",
		Short: "Import school finance and attainment extracts into Parquet",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logging.Setup(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
			a.logger.Debug("configuration loaded", "config", cfg.String())
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRunCmd(a), newTablesCmd(a), newHistoryCmd(a))
	return root
}

func newRunCmd(a *app) *cobra.Command {
	var (
		parallel bool
		workers  int
		group    string
	)

	cmd := &cobra.Command{
		Use:   "run [table...]",
		Short: "Run import routines (all of them when no table is named)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if group != "" {
				keys, err := core.GroupKeys(group)
				if err != nil {
					fmt.Fprintln(cmd.OutOrStdout(), core.FormatUserError(err))
					return core.NewUserError(err)
				}
				args = append(args, keys...)
			}
			if cmd.Flags().Changed("parallel") {
				a.cfg.Run.Parallel = parallel
			}
			if cmd.Flags().Changed("workers") {
				if workers <= 0 {
					return fmt.Errorf("--workers (%d) must be positive", workers)
				}
				a.cfg.Run.MaxWorkers = workers
			}
			return a.run(cmd.Context(), cmd.OutOrStdout(), args)
		},
	}

	cmd.Flags().BoolVar(&parallel, "parallel", false, "Run routines concurrently (default from RUN_PARALLEL)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Maximum concurrent routines (default from RUN_MAX_WORKERS)")
	cmd.Flags().StringVar(&group, "group", "", "Also run every table of this group")
	return cmd
}

func (a *app) run(ctx context.Context, w io.Writer, keys []string) error {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Run.Timeout)
	defer cancel()
	ctx = logging.WithLogger(ctx, a.logger)

	var opts []core.Option
	if a.cfg.History.Enabled() {
		store, closeStore, err := a.openHistory(ctx)
		if err != nil {
			return err
		}
		defer closeStore()
		opts = append(opts, core.WithRecorder(store))
	}

	svc := core.NewService(a.cfg, opts...)
	results, err := svc.ImportAll(ctx, keys...)
	if results == nil && err != nil {
		fmt.Fprintln(w, core.FormatUserError(err))
		return core.NewUserError(err)
	}

	printResults(w, results)
	if err != nil {
		return errImportsFailed
	}
	return nil
}

func (a *app) openHistory(ctx context.Context) (*history.Store, func(), error) {
	pool, err := history.Connect(ctx, a.cfg.History.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("run history: %w", err)
	}
	store := history.NewStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run history: %w", err)
	}
	return store, pool.Close, nil
}

func printResults(w io.Writer, results []core.ImportResult) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tSTATUS\tROWS IN\tROWS OUT\tCOLUMNS\tNULLS\tDURATION")
	for _, r := range results {
		status := "ok"
		if !r.Succeeded() {
			status = "failed"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			r.Key, status, r.RowsIn, r.RowsOut, r.Columns, r.Nulls, r.Duration.Round(time.Millisecond))
	}
	tw.Flush()

	for _, r := range results {
		if r.Err == nil {
			continue
		}
		fmt.Fprintln(w, core.FormatUserError(r.Err))
		if !core.IsUserFacing(r.Err) {
			fmt.Fprintf(w, "  %v\n", r.Err)
		}
	}
}

func newTablesCmd(a *app) *cobra.Command {
	var group string

	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List the registered import routines in run order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defs := core.All()
			if group != "" {
				if _, err := core.GroupKeys(group); err != nil {
					return core.NewUserError(err)
				}
				defs = core.ByGroup(group)
			}

			svc := core.NewService(a.cfg)
			w := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TABLE\tGROUP\tINPUT\tOUTPUT")
			for _, def := range defs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
					def.Info.Key, def.Info.Group, svc.InputPath(def), svc.OutputPath(def))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			_, err := fmt.Fprintf(w, "%d of %d tables, groups: %s\n",
				len(defs), core.TableCount(), strings.Join(core.Groups(), ", "))
			return err
		},
	}

	cmd.Flags().StringVar(&group, "group", "", "Only list tables of this group")
	return cmd
}

func newHistoryCmd(a *app) *cobra.Command {
	var (
		table string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent import runs recorded in DATABASE_URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.cfg.History.Enabled() {
				return errors.New("run history is disabled: set DATABASE_URL")
			}
			ctx := logging.WithLogger(cmd.Context(), a.logger)

			store, closeStore, err := a.openHistory(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			entries, err := store.Recent(ctx, table, limit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "STARTED\tTABLE\tSTATUS\tROWS OUT\tNULLS\tDURATION\tERROR")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
					e.StartedAt.Local().Format(time.DateTime), e.TableKey, e.Status,
					e.RowsOut, e.Nulls, e.Duration, core.MapError(errorText(e.Error)).Code)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&table, "table", "", "Only show runs of this table")
	cmd.Flags().IntVar(&limit, "limit", history.DefaultLimit, "Maximum runs to show")
	return cmd
}

// errorText turns a stored error message back into an error for code lookup.
func errorText(s string) error {
	if s == "" {
		return nil
	}
	return errors.New(s)
}
