package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/0xjjjjjj/sortbox/internal/cluster"
	"github.com/0xjjjjjj/sortbox/internal/config"
	"github.com/0xjjjjjj/sortbox/internal/history"
	"github.com/0xjjjjjj/sortbox/internal/logging"
	"github.com/0xjjjjjj/sortbox/internal/organizer"
	"github.com/0xjjjjjj/sortbox/internal/rules"
	"github.com/0xjjjjjj/sortbox/internal/session"
)

var (
	cfg    *config.Config
	logger *slog.Logger

	jsonOut    bool
	dryRun     bool
	useCluster bool
	limit      int
)

var rootCmd = &cobra.Command{
	Use:               "sortbox",
	Short:             "Sort a folder into category subfolders",
	Long:              `Move the files of one folder into subfolders by extension, and undo it when you change your mind.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initConfig,
}

var listCmd = &cobra.Command{
	Use:   "list [path]",
	Short: "List the top level of a folder",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := rootArg(args)
		if err != nil {
			return err
		}
		s, closeFn, err := openSession(false)
		if err != nil {
			return err
		}
		defer closeFn()

		entries, err := s.ListTopLevel(root)
		if err != nil {
			return err
		}
		if jsonOut {
			return writeListingJSON(root, entries)
		}
		printListing(root, entries)
		return nil
	},
}

var planCmd = &cobra.Command{
	Use:   "plan [path]",
	Short: "Show where each file would go",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := rootArg(args)
		if err != nil {
			return err
		}
		s, closeFn, err := openSession(false)
		if err != nil {
			return err
		}
		defer closeFn()

		p, err := makePlan(cmd.Context(), s, root)
		if err != nil {
			return err
		}
		return outputPlan(p)
	},
}

var sortCmd = &cobra.Command{
	Use:     "sort [path]",
	Aliases: []string{"organize"},
	Short:   "Move files into category folders",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := rootArg(args)
		if err != nil {
			return err
		}
		s, closeFn, err := openSession(dryRun)
		if err != nil {
			return err
		}
		defer closeFn()

		p, err := makePlan(cmd.Context(), s, root)
		if err != nil {
			return err
		}

		events, err := s.Sort(cmd.Context(), p)
		if errors.Is(err, session.ErrNoFiles) {
			fmt.Println(dimStyle.Render("Nothing to sort in " + root))
			return nil
		}
		if err != nil {
			return err
		}
		return renderSort(events, len(p.Files))
	},
}

var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Put the files of the last sort back",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, closeFn, err := openSession(false)
		if err != nil {
			return err
		}
		defer closeFn()

		events, err := s.Undo(cmd.Context())
		if errors.Is(err, organizer.ErrNothingToUndo) {
			fmt.Println(dimStyle.Render("Nothing to undo"))
			return nil
		}
		if err != nil {
			return err
		}
		return renderUndo(events)
	},
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Show the extension rules",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, closeFn, err := openSession(false)
		if err != nil {
			return err
		}
		defer closeFn()
		return printRules(s.Rules())
	},
}

var rulesSetCmd = &cobra.Command{
	Use:   "set <extensions> <folder>",
	Short: `Send extensions to a folder, e.g. set "jpg, png" Pictures`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, closeFn, err := openSession(false)
		if err != nil {
			return err
		}
		defer closeFn()

		rows := append(s.Rules().Rows(), rules.Row{Extensions: args[0], Folder: args[1]})
		if err := s.UpdateRules(rules.FromRows(rows)); err != nil {
			return err
		}
		return printRules(s.Rules())
	},
}

var rulesRemoveCmd = &cobra.Command{
	Use:   "rm <extension>...",
	Short: "Drop rules so those extensions go to " + rules.Fallback,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, closeFn, err := openSession(false)
		if err != nil {
			return err
		}
		defer closeFn()

		mapping := s.Rules().Mapping()
		for _, ext := range args {
			delete(mapping, rules.Normalize(ext))
		}
		if err := s.UpdateRules(mapping); err != nil {
			return err
		}
		return printRules(s.Rules())
	},
}

var rulesResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the built-in rules",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, closeFn, err := openSession(false)
		if err != nil {
			return err
		}
		defer closeFn()

		if err := s.UpdateRules(rules.Default().Mapping()); err != nil {
			return err
		}
		return printRules(s.Rules())
	},
}

var historyCmd = &cobra.Command{
	Use:   "history [query]",
	Short: "Show past sorts or search moved files",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := history.Open(cfg.HistoryPath)
		if err != nil {
			return err
		}
		defer db.Close()

		if len(args) > 0 {
			moves, err := db.Search(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printMoves(moves)
		}

		batches, err := db.List(cmd.Context(), limit)
		if err != nil {
			return err
		}
		return printBatches(batches)
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default ~/.config/sortbox/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (console, json)")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))

	listCmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON")
	rootCmd.AddCommand(listCmd)

	planCmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON")
	planCmd.Flags().BoolVar(&useCluster, "cluster", false, "group by name similarity instead of rules")
	rootCmd.AddCommand(planCmd)

	sortCmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would happen")
	sortCmd.Flags().BoolVar(&useCluster, "cluster", false, "group by name similarity instead of rules")
	rootCmd.AddCommand(sortCmd)

	rootCmd.AddCommand(undoCmd)

	rulesCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output as JSON")
	rulesCmd.AddCommand(rulesSetCmd, rulesRemoveCmd, rulesResetCmd)
	rootCmd.AddCommand(rulesCmd)

	historyCmd.Flags().IntVar(&limit, "limit", 20, "number of sorts to show (0 for all)")
	historyCmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON")
	rootCmd.AddCommand(historyCmd)
}

func initConfig(_ *cobra.Command, _ []string) error {
	viper.SetEnvPrefix("SORTBOX")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	path := viper.GetString("config")
	if path == "" {
		path = config.DefaultPath()
	}

	var err error
	cfg, err = config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	viper.SetDefault("logging.level", cfg.Logging.Level)
	viper.SetDefault("logging.format", cfg.Logging.Format)
	logger, err = logging.New(logging.Options{
		Level:  viper.GetString("logging.level"),
		Format: viper.GetString("logging.format"),
	})
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	slog.SetDefault(logger)
	return nil
}

// openSession wires the rules file, the history database and the lock
// file into a session. The returned func closes the database.
func openSession(dry bool) (*session.Session, func(), error) {
	table, err := rules.Load(cfg.RulesPath)
	if err != nil {
		logger.Warn("using default rules", "path", cfg.RulesPath, "error", err)
	}

	db, err := history.Open(cfg.HistoryPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open history: %w", err)
	}

	s := session.New(session.Options{
		Rules:     table,
		RulesPath: cfg.RulesPath,
		Log:       db,
		Ignore:    cfg.Ignore,
		LockPath:  cfg.LockPath,
		DryRun:    dry,
		Logger:    logger,
	})
	return s, func() { db.Close() }, nil
}

func makePlan(ctx context.Context, s *session.Session, root string) (*organizer.Plan, error) {
	if !useCluster {
		return s.PlanSort(ctx, root)
	}
	planner := cluster.New(
		cluster.NgramEmbedder{Dim: cfg.Cluster.Dimensions},
		cluster.TokenNamer{},
		cluster.Options{Ignore: cfg.Ignore, MaxIterations: cfg.Cluster.MaxIterations, Logger: logger},
	)
	return s.PlanWith(ctx, planner, root)
}

func rootArg(args []string) (string, error) {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}
	return filepath.Abs(path)
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Interrupted, stopping after the current file...")
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		os.Exit(1)
	}
}
