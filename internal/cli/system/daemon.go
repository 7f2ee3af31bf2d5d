package system

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/julianstephens/careminder/internal/cli"
	"github.com/julianstephens/careminder/internal/constants"
	"github.com/julianstephens/careminder/internal/logger"
	"github.com/julianstephens/careminder/internal/notifier"
)

// DaemonCmd fires registered reminders as they come due.
type DaemonCmd struct {
	DryRun      bool          `help:"Print notifications to stdout instead of sending them to the tray app."`
	Poll        time.Duration `help:"How often to check for due reminders." default:"30s" env:"CAREMINDER_POLL"`
	MetricsAddr string        `help:"Serve Prometheus metrics on this address, e.g. :9464." env:"CAREMINDER_METRICS_ADDR"`
	Once        bool          `help:"Dispatch whatever is due now and exit."`
	Reschedule  bool          `help:"Rebuild the trigger set from stored reminders before starting. Occurrences already due are dropped."`
	Verbose     bool          `short:"v" help:"Log dispatcher activity to stderr."`
}

func (c *DaemonCmd) sender(ctx *cli.Context) notifier.Sender {
	if c.DryRun {
		return &notifier.StdoutSender{Out: ctx.Out, Now: ctx.Now}
	}
	return notifier.NewTraySender()
}

func (c *DaemonCmd) Run(ctx *cli.Context) error {
	if c.Verbose {
		logger.SetOutput(os.Stderr)
	}

	runCtx := ctx.Context()
	dispatcher := ctx.NewDispatcher(c.sender(ctx), c.Poll)

	if c.Reschedule {
		if data := ctx.Session.Restore(runCtx); data != nil {
			logger.Info("Rescheduled reminders", "patient", data.PatientName, "count", len(data.Reminders))
		}
	}

	if c.Once {
		sent, err := dispatcher.DispatchDue(runCtx, ctx.Now())
		if err != nil {
			return err
		}
		ctx.Printf("Dispatched %d notification(s).\n", sent)
		return nil
	}

	if c.MetricsAddr != "" {
		srv, err := c.serveMetrics(ctx)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Metrics server shutdown failed", "error", err)
			}
		}()
	}

	if !c.DryRun {
		if err := notifier.TrayStatus(); err != nil {
			logger.Warn("Tray app not reachable; notifications will fail until it starts", "error", err)
		}
	}

	ctx.Printf("%s daemon running (poll %s). Press Ctrl+C to stop.\n", constants.AppName, c.Poll)
	return dispatcher.Run(runCtx)
}

func (c *DaemonCmd) serveMetrics(ctx *cli.Context) (*http.Server, error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", ctx.Metrics.Handler())

	ln, err := net.Listen("tcp", c.MetricsAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", c.MetricsAddr, err)
	}
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server stopped", "error", err)
		}
	}()
	logger.Info("Serving metrics", "addr", ln.Addr().String())
	return srv, nil
}
