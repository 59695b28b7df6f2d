package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yungbote/learnpath-backend/internal/app"
	"github.com/yungbote/learnpath-backend/internal/data/filestore"
	"github.com/yungbote/learnpath-backend/internal/data/pgstore"
	"github.com/yungbote/learnpath-backend/internal/pathengine"
	"github.com/yungbote/learnpath-backend/internal/platform/envutil"
	"github.com/yungbote/learnpath-backend/internal/platform/logger"
	"github.com/yungbote/learnpath-backend/internal/platform/pgdb"
	"github.com/yungbote/learnpath-backend/internal/services"
)

type rootOptions struct {
	logMode string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "learnpath",
		Short:         "Learning path synthesis over a skill prerequisite graph",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.logMode, "log-mode", envutil.String("LOG_MODE", "development"),
		"logger mode (development or production)")

	skills := &cobra.Command{
		Use:   "skills",
		Short: "Query the skill catalog",
	}
	skills.AddCommand(newSkillsSearchCmd(opts))

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newComputeCmd(opts))
	root.AddCommand(newImportCmd(opts))
	root.AddCommand(skills)
	return root
}

func (o *rootOptions) logger() (*logger.Logger, error) {
	log, err := logger.New(o.logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return log, nil
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if !cmd.Flags().Changed("log-mode") {
				opts.logMode = cfg.Env
			}
			log, err := opts.logger()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, log, cfg)
			if err != nil {
				log.Error("startup failed", "error", err)
				log.Sync()
				return err
			}
			defer a.Close()
			return a.Run(ctx)
		},
	}
}

type computeOptions struct {
	snapshot   string
	job        string
	have       []string
	cycleLimit int
}

func newComputeCmd(opts *rootOptions) *cobra.Command {
	co := &computeOptions{}
	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute learning paths for a job from a snapshot file and print them as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := opts.logger()
			if err != nil {
				return err
			}
			defer log.Sync()

			store, err := filestore.Load(co.snapshot)
			if err != nil {
				return err
			}
			engine := pathengine.New(log, pathengine.WithCycleLimit(co.cycleLimit))
			res, err := services.NewLearningPathService(log, store, engine, nil).Generate(cmd.Context(), co.job, co.have)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&co.snapshot, "snapshot", envutil.String("SNAPSHOT_PATH", ""), "graph snapshot file (.yaml, .yml or .json)")
	cmd.Flags().StringVar(&co.job, "job", "", "job id")
	cmd.Flags().StringSliceVar(&co.have, "have", nil, "skill ids the user already has")
	cmd.Flags().IntVar(&co.cycleLimit, "cycle-limit", pathengine.DefaultCycleLimit, "maximum simple cycles to enumerate")
	_ = cmd.MarkFlagRequired("job")
	return cmd
}

func newSkillsSearchCmd(opts *rootOptions) *cobra.Command {
	var snapshot string
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search skills by name in a snapshot file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := opts.logger()
			if err != nil {
				return err
			}
			defer log.Sync()

			store, err := filestore.Load(snapshot)
			if err != nil {
				return err
			}
			found, err := services.NewSkillService(log, store).Search(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{"skills": found})
		},
	}
	cmd.Flags().StringVar(&snapshot, "snapshot", envutil.String("SNAPSHOT_PATH", ""), "graph snapshot file")
	return cmd
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	var (
		snapshot string
		dsn      string
		reset    bool
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load a snapshot file into postgres",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := opts.logger()
			if err != nil {
				return err
			}
			defer log.Sync()

			src, err := filestore.Load(snapshot)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			db, err := pgdb.Open(ctx, log, pgdb.Config{DSN: dsn})
			if err != nil {
				return err
			}
			defer db.Close()

			store := pgstore.New(db.Gorm, log)
			if reset {
				if err := store.DropSchema(ctx); err != nil {
					return err
				}
			}
			if err := store.CreateSchema(ctx); err != nil {
				return err
			}
			nodes, edges, mentions := src.Dataset()
			if err := store.Import(ctx, nodes, edges, mentions); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d nodes, %d edges from %s\n", len(nodes), len(edges), src.Path())
			return nil
		},
	}
	cmd.Flags().StringVar(&snapshot, "snapshot", envutil.String("SNAPSHOT_PATH", ""), "graph snapshot file")
	cmd.Flags().StringVar(&dsn, "dsn", envutil.String("DATABASE_URL", ""), "postgres connection string")
	cmd.Flags().BoolVar(&reset, "reset", false, "drop existing tables first")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
