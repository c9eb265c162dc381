// Command schedgrid runs a terminal scheduling board: drag tasks
// from the backlog onto lanes of a timeline.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/schedgrid/schedgrid/internal/app"
	"github.com/schedgrid/schedgrid/internal/config"
	"github.com/schedgrid/schedgrid/internal/render/backend"
	"github.com/schedgrid/schedgrid/internal/sched"
	"github.com/schedgrid/schedgrid/internal/sched/store"
)

var (
	version = "dev"

	configPath string
	dataPath   string
	debug      bool
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "schedgrid",
		Short:   "Terminal scheduling board",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(nil)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to configuration file")
	root.PersistentFlags().StringVarP(&dataPath, "data", "d", "", "path to the board database")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "log debug output to schedgrid.log")
	root.SilenceUsage = true

	root.AddCommand(&cobra.Command{
		Use:   "demo",
		Short: "Run with a seeded sample board",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(seedDemo)
		},
	})
	root.AddCommand(exportCmd(), importCmd())
	return root
}

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write the board as a JSON dataset",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, closeStore, err := openProject()
			if err != nil {
				return err
			}
			defer closeStore()

			data, err := sched.ExportDataset(p)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			return os.WriteFile(args[0], data, 0o644)
		},
	}
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Load a JSON dataset into the board database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			p, closeStore, db, err := openProjectRW()
			if err != nil {
				return err
			}
			defer closeStore()

			if err := sched.ImportDataset(p, data); err != nil {
				return err
			}
			for _, lane := range p.Lanes() {
				if err := db.SaveLane(lane); err != nil {
					return err
				}
			}
			for _, task := range p.Tasks() {
				if err := db.SaveTask(task); err != nil {
					return err
				}
			}
			for _, dep := range p.Dependencies() {
				if err := db.SaveDependency(dep); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d lanes, %d tasks, %d dependencies\n",
				len(p.Lanes()), len(p.Tasks()), len(p.Dependencies()))
			return nil
		},
	}
}

// openProject loads the configured database into a fresh project.
func openProject() (*sched.Project, func(), error) {
	p, closeStore, _, err := openProjectRW()
	return p, closeStore, err
}

func openProjectRW() (*sched.Project, func(), *store.Bolt, error) {
	cfg, err := config.Load(configLocation())
	if err != nil {
		return nil, nil, nil, err
	}
	path := cfg.Store
	if dataPath != "" {
		path = dataPath
	}
	if path == "" {
		return nil, nil, nil, errors.New("no board database configured; pass --data or set store in the config file")
	}
	db, err := store.Open(path)
	if err != nil {
		return nil, nil, nil, err
	}
	p := sched.NewProject()
	if err := db.LoadInto(p); err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	return p, func() { _ = db.Close() }, db, nil
}

func run(seed func(*sched.Project)) error {
	cfg, err := config.Load(configLocation())
	if err != nil {
		return err
	}
	if dataPath != "" {
		cfg.Store = dataPath
	}

	logger := zap.NewNop()
	if debug {
		fileCfg := zap.NewDevelopmentConfig()
		fileCfg.OutputPaths = []string{"schedgrid.log"}
		if logger, err = fileCfg.Build(); err != nil {
			return fmt.Errorf("building logger: %w", err)
		}
		defer func() {
			_ = logger.Sync()
		}()
	}

	term, err := backend.NewTerminal()
	if err != nil {
		return fmt.Errorf("creating terminal: %w", err)
	}
	if err := term.Init(); err != nil {
		return fmt.Errorf("initializing terminal: %w", err)
	}
	defer term.Fini()

	board, err := app.New(app.Options{
		Config:  cfg,
		Backend: term,
		Logger:  logger,
		Seed:    seed,
	})
	if err != nil {
		return err
	}
	defer board.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := board.Run(ctx); err != nil && !errors.Is(err, app.ErrQuit) {
		return err
	}
	return nil
}

func configLocation() string {
	if configPath != "" {
		return configPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "schedgrid.toml"
	}
	return home + "/.config/schedgrid/schedgrid.toml"
}

// seedDemo fills an empty board with a morning of sample work.
func seedDemo(p *sched.Project) {
	if len(p.Lanes()) > 0 {
		return
	}
	base := time.Now().Truncate(time.Hour)

	rooms := []*sched.Lane{
		sched.NewLane("room-a", 8),
		sched.NewLane("room-b", 4),
		sched.NewLane("focus", 1),
	}
	rooms[0].Color = "#3366cc"
	rooms[1].Color = "#2f8f4f"
	rooms[2].Color = "#8f6f2f"
	for _, lane := range rooms {
		p.AddLane(lane)
	}

	standup := sched.NewTask("standup", 30*time.Minute)
	standup.Start = base
	standup.LaneID = rooms[0].ID
	standup.Scheduled = true
	standup.Participants = 6
	p.AddTask(standup)

	review := sched.NewTask("design review", time.Hour)
	review.Start = base.Add(time.Hour)
	review.LaneID = rooms[1].ID
	review.Scheduled = true
	review.Participants = 3
	p.AddTask(review)

	for _, name := range []string{"sprint planning", "retrospective", "1:1 sam", "deep work"} {
		t := sched.NewTask(name, time.Hour)
		t.Participants = 2
		p.AddTask(t)
	}
}
