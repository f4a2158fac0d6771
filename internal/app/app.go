package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/dori/focuscycle/internal/clock"
	"github.com/dori/focuscycle/internal/config"
	"github.com/dori/focuscycle/internal/db"
	"github.com/dori/focuscycle/internal/engine"
	"github.com/dori/focuscycle/internal/history"
	"github.com/dori/focuscycle/internal/notify"
	"github.com/gofrs/flock"
)

// App holds the application state and dependencies
type App struct {
	Config     config.Config
	DB         *db.DB
	Notifier   *notify.Notifier
	Loop       *engine.Loop
	Controller *engine.Controller
	Logger     *log.Logger
	DataDir    string

	lockFile *flock.Flock
	logFile  *os.File
	wg       sync.WaitGroup
	cancel   context.CancelFunc
}

// Options contains runtime options that do not come from the config file
type Options struct {
	Clock clock.Clock
	// LogOutput receives log output when debug logging to file is off
	LogOutput io.Writer
}

// New creates a new application instance. The scheduler loop is built but
// not started; call Start once every observer has subscribed.
func New(cfg config.Config, opts Options) (*App, error) {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.LogOutput == nil {
		opts.LogOutput = io.Discard
	}

	// Ensure data directory exists
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	app := &App{
		Config:   cfg,
		DataDir:  cfg.DataDir,
		Notifier: notify.NewNotifier(cfg.Notify),
	}

	if err := app.openLog(opts.LogOutput); err != nil {
		return nil, err
	}

	// Acquire lock to ensure single instance
	if err := app.acquireLock(); err != nil {
		app.closeLog()
		return nil, err
	}

	database, err := db.OpenDir(cfg.DataDir)
	if err != nil {
		app.releaseLock()
		app.closeLog()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	app.DB = database
	if version, err := database.Version(context.Background()); err == nil {
		app.Logger.Printf("db: %s at schema version %d", db.Path(cfg.DataDir), version)
	}

	app.Loop = engine.New(opts.Clock, cfg.SessionConfig(), engine.Options{
		TickInterval: cfg.TickInterval,
		Logger:       app.Logger,
	})
	app.Controller = app.Loop.Controller()

	return app, nil
}

// Start runs the scheduler loop together with the history recorder and the
// notifier. Subscribe UI observers before calling Start so they see the
// initial snapshot.
func (a *App) Start(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)

	recorder := history.NewRecorder(a.DB, a.Logger)
	recorderSub := a.Loop.Events().Subscribe(64)
	notifySub := a.Loop.Events().Subscribe(16)

	a.wg.Add(3)
	go func() {
		defer a.wg.Done()
		recorder.Run(recorderSub)
	}()
	go func() {
		defer a.wg.Done()
		a.Notifier.Watch(notifySub, func(err error) {
			a.Logger.Printf("notify: %v", err)
		})
	}()
	go func() {
		defer a.wg.Done()
		if err := a.Loop.Run(ctx); err != nil {
			a.Logger.Printf("engine: %v", err)
		}
	}()
}

// openLog sends debug output to <data_dir>/focuscycle.log when debug is on
func (a *App) openLog(fallback io.Writer) error {
	if !a.Config.Debug {
		a.Logger = log.New(fallback, "focuscycle: ", log.LstdFlags)
		return nil
	}

	path := filepath.Join(a.DataDir, "focuscycle.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	a.logFile = f
	a.Logger = log.New(f, "", log.LstdFlags|log.Lmicroseconds)
	return nil
}

func (a *App) closeLog() {
	if a.logFile != nil {
		a.logFile.Close()
		a.logFile = nil
	}
}

// acquireLock acquires an exclusive file lock to prevent multiple instances
func (a *App) acquireLock() error {
	lockPath := filepath.Join(a.DataDir, "focuscycle.lock")
	a.lockFile = flock.New(lockPath)

	locked, err := a.lockFile.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	if !locked {
		return fmt.Errorf("another instance of focuscycle is already running")
	}

	return nil
}

// releaseLock releases the file lock
func (a *App) releaseLock() {
	if a.lockFile != nil {
		a.lockFile.Unlock()
	}
}

// Close stops the loop, waits for the observers to drain and cleans up
// application resources
func (a *App) Close() error {
	var errs []error

	if a.Controller != nil {
		a.Controller.Close()
	}
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	a.releaseLock()
	a.closeLog()

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
