package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/username/hurma-bot/internal/calendar"
	"github.com/username/hurma-bot/pkg/dateutil"
)

// ErrRunInProgress is returned when a run is requested while another one is active
var ErrRunInProgress = errors.New("run already in progress")

// RunFunc performs one full collection and delivery for the target date
type RunFunc func(ctx context.Context, target dateutil.Target) error

// Options configures the daemon
type Options struct {
	Schedule     string // cron expression, evaluated in Location
	NextDay      bool
	WorkdaysOnly bool
	Location     *time.Location
	SystemTray   bool // Windows only
}

// Daemon represents the daemon process
type Daemon struct {
	run      RunFunc
	calendar calendar.Calendar
	opts     Options
	cron     *cron.Cron
	entryID  cron.EntryID
	logger   *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	trayApp  *TrayApp
	now      func() time.Time

	mu          sync.Mutex // protects the fields below
	running     bool
	lastRunTime time.Time
	lastErr     error
}

// NewDaemon creates a new daemon instance; cal may be nil when WorkdaysOnly is off
func NewDaemon(run RunFunc, cal calendar.Calendar, opts Options, logger *zap.Logger) (*Daemon, error) {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.WorkdaysOnly && cal == nil {
		cal = calendar.WeekendCalendar{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &Daemon{
		run:      run,
		calendar: cal,
		opts:     opts,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		now:      time.Now,
	}

	cl := cronLogger{logger.Sugar()}
	d.cron = cron.New(
		cron.WithLocation(opts.Location),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	id, err := d.cron.AddFunc(opts.Schedule, d.runScheduled)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("invalid schedule %q: %w", opts.Schedule, err)
	}
	d.entryID = id

	return d, nil
}

// Start starts the daemon and blocks until it is stopped
func (d *Daemon) Start() error {
	// Initialize system tray if enabled (Windows only)
	if d.opts.SystemTray {
		d.logger.Info("Initializing system tray")
		trayApp, err := NewTrayApp(d, d.logger)
		if err != nil {
			d.logger.Warn("Failed to initialize system tray", zap.Error(err))
			d.runScheduledLogic()
			return nil
		}
		d.trayApp = trayApp
		// Run tray (blocks until Quit)
		d.trayApp.Run()
		return nil
	}

	d.logger.Info("Running without system tray")
	d.runScheduledLogic()
	return nil
}

// runScheduledLogic runs the cron scheduler until a signal or Stop (called from tray or standalone)
func (d *Daemon) runScheduledLogic() {
	d.cron.Start()

	d.logger.Info("Daemon started",
		zap.String("schedule", d.opts.Schedule),
		zap.String("timezone", d.opts.Location.String()),
		zap.Bool("next_day", d.opts.NextDay),
		zap.Bool("workdays_only", d.opts.WorkdaysOnly),
		zap.Time("next_run", d.NextRun()))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-d.ctx.Done():
	case sig := <-sigChan:
		d.logger.Info("Received signal, shutting down",
			zap.String("signal", sig.String()))
		d.Stop()
	}

	// wait for a running job to finish
	<-d.cron.Stop().Done()
	if d.trayApp != nil {
		d.trayApp.Stop()
	}
	d.logger.Info("Daemon stopped")
}

// Stop stops the daemon
func (d *Daemon) Stop() {
	d.cancel()
}

// NextRun returns the next scheduled run time (zero before Start)
func (d *Daemon) NextRun() time.Time {
	return d.cron.Entry(d.entryID).Next
}

func (d *Daemon) runScheduled() {
	if err := d.runSync(d.ctx); err != nil {
		d.logger.Error("Scheduled run failed", zap.Error(err))
		d.notifyTray("Run failed", fmt.Sprintf("Error: %v", err))
		return
	}
	d.logger.Info("Next run scheduled", zap.Time("next_run", d.NextRun()))
}

// RunNow triggers an immediate run (called from tray menu)
func (d *Daemon) RunNow() {
	d.logger.Info("Manual run triggered")
	if err := d.runSync(d.ctx); err != nil {
		d.logger.Error("Manual run failed", zap.Error(err))
		d.notifyTray("Run failed", fmt.Sprintf("Error: %v", err))
		return
	}
	d.notifyTray("Run completed", "Digest sent")
}

// runSync executes one run for the current target date.
// Concurrent calls are rejected with ErrRunInProgress.
func (d *Daemon) runSync(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		d.logger.Warn("Run already in progress, skipping")
		return ErrRunInProgress
	}
	d.running = true
	d.mu.Unlock()

	err := d.execute(ctx)

	d.mu.Lock()
	d.running = false
	d.lastRunTime = d.now()
	d.lastErr = err
	d.mu.Unlock()

	return err
}

func (d *Daemon) execute(ctx context.Context) error {
	target := dateutil.NewTarget(d.now().In(d.opts.Location), d.opts.NextDay)

	if d.opts.WorkdaysOnly {
		workday, err := d.calendar.IsWorkday(ctx, target.Date)
		if err != nil {
			d.logger.Warn("Calendar lookup failed, using weekend rule",
				zap.String("date", target.ISODay()),
				zap.Error(err))
			workday = !dateutil.IsWeekend(target.Date)
		}
		if !workday {
			d.logger.Info("Target date is not a working day, skipping run",
				zap.String("date", target.ISODay()))
			return nil
		}
	}

	d.logger.Info("Starting run", zap.String("date", target.ISODay()))
	return d.run(ctx, target)
}

// GetStatus returns daemon status
func (d *Daemon) GetStatus() map[string]interface{} {
	d.mu.Lock()
	defer d.mu.Unlock()

	status := map[string]interface{}{
		"running":  d.running,
		"schedule": d.opts.Schedule,
		"next_run": d.NextRun().Format("2006-01-02 15:04"),
	}
	if !d.lastRunTime.IsZero() {
		status["last_run"] = d.lastRunTime.Format("2006-01-02 15:04")
	}
	if d.lastErr != nil {
		status["last_error"] = d.lastErr.Error()
	}
	return status
}

func (d *Daemon) notifyTray(title, message string) {
	if d.trayApp != nil {
		d.trayApp.ShowNotification(title, message)
	}
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
