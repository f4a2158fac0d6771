package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dori/focuscycle/internal/app"
	"github.com/dori/focuscycle/internal/config"
	"github.com/dori/focuscycle/internal/db"
	"github.com/dori/focuscycle/internal/engine"
	"github.com/dori/focuscycle/internal/model"
	"github.com/dori/focuscycle/internal/ui"
	"github.com/dori/focuscycle/internal/ui/views"
)

var (
	version = "0.1.0"
)

func main() {
	// Subcommand handling
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "run":
			exitOnError(runHeadless(os.Args[2:]))
			return
		case "history":
			exitOnError(showHistory(os.Args[2:]))
			return
		case "init-config":
			exitOnError(initConfig(os.Args[2:]))
			return
		case "version":
			fmt.Printf("focuscycle v%s\n", version)
			return
		case "help", "-h", "--help":
			printHelp()
			return
		}
	}

	// Parse flags for TUI mode
	fs := flag.NewFlagSet("focuscycle", flag.ExitOnError)
	configFlag := fs.String("config", "", "Config file (default ~/.config/focuscycle/config.yaml)")
	autoFlag := fs.Bool("auto", false, "Advance to the next stage without asking")
	fs.Parse(os.Args[1:])

	cfg, err := loadConfig(fs, *configFlag, *autoFlag)
	exitOnError(err)
	exitOnError(runTUI(cfg))
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	help := `focuscycle - focus and break session timer

Usage:
  focuscycle [flags]              Start the TUI
  focuscycle run [flags]          Run headless, printing ticks
  focuscycle history [-n N]       Show recent stages and today's totals
  focuscycle history --today      Show every stage recorded today
  focuscycle history --prune D    Delete stages older than D days
  focuscycle init-config [flags]  Write a config file with the defaults
  focuscycle version              Show version
  focuscycle help                 Show this help

Flags:
  --config <path>   Config file (env FOCUSCYCLE_CONFIG)
  --auto            Advance to the next stage without asking

Stages:
  Focus Session (45m) -> Short Break (5m), three times,
  then Focus Session -> Long Break (15m) and the cycle restarts.

Keybindings:
  space   Start / pause / resume
  n       Next stage
  e       Extend the current stage
  r       Restart the current stage
  x       Stop
  a       Toggle auto-advance
  m       Toggle notifications
  ?       Help
  q       Quit

When a stage ends without auto-advance:
  enter   Move to the next stage
  e       Extend
  esc     Dismiss

Settings can be overridden with FOCUSCYCLE_<KEY>, e.g. FOCUSCYCLE_FOCUS_MINUTES=25.`

	fmt.Println(help)
}

// loadConfig reads the config file and applies --auto only when it was given
func loadConfig(fs *flag.FlagSet, path string, auto bool) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "auto" {
			cfg.AutoAdvance = auto
		}
	})
	return cfg, nil
}

func runTUI(cfg config.Config) error {
	application, err := app.New(cfg, app.Options{})
	if err != nil {
		return err
	}
	defer application.Close()

	// subscribe before Start so the initial snapshot is not missed
	sub := application.Loop.Events().Subscribe(64)
	defer sub.Close()
	application.Start(context.Background())

	model := ui.NewRootModel(ui.Deps{
		Controller:     application.Controller,
		Events:         sub,
		Notifier:       application.Notifier,
		History:        application.DB,
		LongBreakAfter: cfg.LongBreakAfter,
	})

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	_, err = p.Run()
	return err
}

func runHeadless(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configFlag := fs.String("config", "", "Config file")
	autoFlag := fs.Bool("auto", false, "Advance to the next stage without asking")
	fs.Parse(args)

	cfg, err := loadConfig(fs, *configFlag, *autoFlag)
	if err != nil {
		return err
	}

	application, err := app.New(cfg, app.Options{LogOutput: os.Stderr})
	if err != nil {
		return err
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sub := application.Loop.Events().Subscribe(64)
	application.Start(ctx)

	ctrl := application.Controller
	if err := ctrl.Start(ctx, uint32(cfg.SessionConfig().Focus/time.Second)); err != nil {
		return err
	}

	fmt.Println("commands: enter/n next stage, e extend, p pause, r resume, x stop, q quit")
	go readCommands(ctx, ctrl, stop)

	for ev := range sub.Events() {
		switch ev.Kind {
		case engine.EventTick:
			fmt.Printf("\r%-18s %s  ", ev.Stage, views.FormatRemaining(ev.Seconds()))
		case engine.EventFinished:
			fmt.Printf("\r%-18s ended\n", ev.Stage)
			if ev.Pending {
				fmt.Println("move to the next stage? [enter = next, e = extend]")
			}
		case engine.EventStageChanged:
			fmt.Printf("\r%-18s started (%s)\n", ev.Stage, views.FormatRemaining(ev.Seconds()))
		}
	}
	fmt.Println()
	return nil
}

// readCommands maps stdin lines onto loop commands
func readCommands(ctx context.Context, ctrl *engine.Controller, quit func()) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		var err error
		switch strings.TrimSpace(scanner.Text()) {
		case "", "n":
			err = ctrl.NextStage(ctx)
		case "e":
			err = ctrl.Extend(ctx, 0)
		case "p":
			err = ctrl.Pause(ctx)
		case "r":
			err = ctrl.Resume(ctx)
		case "x":
			err = ctrl.Stop(ctx)
		case "q":
			quit()
			return
		default:
			fmt.Println("unknown command")
		}
		if errors.Is(err, engine.ErrClosed) {
			return
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
}

func showHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	configFlag := fs.String("config", "", "Config file")
	limit := fs.Int("n", 20, "Number of records to show")
	today := fs.Bool("today", false, "Show every record from today, oldest first")
	prune := fs.Int("prune", 0, "Delete records older than this many days")
	fs.Parse(args)

	cfg, err := config.Load(*configFlag)
	if err != nil {
		return err
	}

	// Open database (no lock needed; WAL allows a running timer to keep writing)
	database, err := db.OpenDir(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	now := time.Now()
	if *prune > 0 {
		removed, err := database.DeleteRecordsBefore(now.AddDate(0, 0, -*prune))
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d records older than %d days\n", removed, *prune)
		return nil
	}

	var records []model.StageRecord
	if *today {
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		records, err = database.RecordsBetween(start, start.AddDate(0, 0, 1))
	} else {
		records, err = database.RecentRecords(*limit)
	}
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No stages recorded yet.")
	}
	for _, r := range records {
		status := "done"
		if !r.Completed {
			status = "skipped"
		}
		if r.Extended {
			status += ", extended"
		}
		fmt.Printf("%s  %-18s %6s  %s\n",
			r.EndedAt.Local().Format("Mon Jan 2 15:04"),
			r.Label,
			views.FormatDuration(r.Duration()),
			status,
		)
	}

	summary, err := database.DaySummary(now)
	if err != nil {
		return err
	}
	fmt.Printf("\nToday: %d focus sessions completed, %s focused, %s on breaks\n",
		summary.FocusCompleted,
		views.FormatDuration(summary.FocusTime),
		views.FormatDuration(summary.BreakTime),
	)
	return nil
}

func initConfig(args []string) error {
	fs := flag.NewFlagSet("init-config", flag.ExitOnError)
	configFlag := fs.String("config", "", "Config file to write")
	force := fs.Bool("force", false, "Overwrite an existing file")
	fs.Parse(args)

	path := *configFlag
	if path == "" {
		path = config.DefaultPath()
	}
	if _, err := os.Stat(path); err == nil && !*force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := config.Save(path, config.Default()); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
