package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"legal-fee-tracker-go/internal/listener"
	"legal-fee-tracker-go/internal/models"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ANSI color helpers for console output.
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow activity on your engagements",
	Long: `Poll your engagements and print new time entries, approvals, messages
and status changes until interrupted. Activity from the lookback window
(WATCH_LOOKBACK_WINDOW) is printed on start.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "Polling interval (default WATCH_POLLING_INTERVAL)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()
	unsubscribe := cancelOnSessionEnd(services.Session, cancelWatch)
	defer unsubscribe()

	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	err := tracker.HealthCheck(checkCtx)
	cancel()
	if err != nil {
		return err
	}

	if _, ok := services.Session.Role(); !ok {
		if _, _, err := tracker.ResolveRole(ctx); err != nil {
			return err
		}
	}

	interval := services.Config.Watch.PollingInterval
	if watchInterval > 0 {
		interval = watchInterval
	}
	cleanup := services.Config.Watch.CleanupInterval
	if cleanup < interval {
		// fall back to the watcher default for long --interval values
		cleanup = 0
	}

	out := cmd.OutOrStdout()
	w, err := listener.NewWatcher(listener.WatcherConfig{
		Source:          tracker,
		Handler:         func(ev listener.Event) { printEvent(out, ev) },
		LookbackWindow:  services.Config.Watch.LookbackWindow,
		PollingInterval: interval,
		CleanupInterval: cleanup,
	})
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}

	fmt.Fprintf(out, "%sWatching engagements every %s (Ctrl+C to stop)%s\n", colorCyan, interval, colorReset)
	select {
	case <-ctx.Done():
	case <-w.Done():
	}
	w.Stop()
	zap.L().Info("Watch stopped")

	if !services.Session.Snapshot().IsAuthenticated() {
		fmt.Fprintf(out, "%sSession ended. Run 'tracker login' to continue.%s\n", colorYellow, colorReset)
	}
	return nil
}

// sessionObserver is the part of the session the watch command follows.
type sessionObserver interface {
	Subscribe(fn func(models.Session)) func()
}

// cancelOnSessionEnd calls cancel once the session is no longer
// authenticated, e.g. after an idle expiry. It returns the unsubscribe func.
func cancelOnSessionEnd(sess sessionObserver, cancel context.CancelFunc) func() {
	return sess.Subscribe(func(s models.Session) {
		if !s.IsAuthenticated() {
			zap.L().Info("Session ended, stopping watch")
			cancel()
		}
	})
}

func printEvent(w io.Writer, ev listener.Event) {
	color := colorYellow
	symbol := "•"
	switch {
	case ev.FromMe:
		color = colorGray
	case ev.Kind == listener.EventTimeApproved:
		color = colorGreen
		symbol = "✓"
	case ev.Kind == listener.EventStatusChanged:
		color = colorCyan
		symbol = "~"
	}

	when := time.Now()
	if ev.Timestamp != 0 {
		when = time.Unix(0, ev.Timestamp)
	}
	fmt.Fprintf(w, "%s[%s] %s %s | %s%s\n", color, when.Format("15:04:05"), symbol, ev.Title, ev.Text, colorReset)
}
