package refresher

import (
	"context"
	"os"
	"syscall"
	"time"

	"github.com/mcp-gateway-registry/core/pkg/logger"
	"github.com/mcp-gateway-registry/core/pkg/refresher/pidfile"
)

// gracefulTerminationTimeout bounds how long Start waits for a
// previously-running instance to exit after SIGTERM before escalating to
// SIGKILL.
const gracefulTerminationTimeout = 5 * time.Second

// Supervisor runs Cycle on a fixed interval, enforcing single-instance
// operation across the host via a PID file.
type Supervisor struct {
	Interval time.Duration
	Cycle    *Cycle
	NoKill   bool

	stop chan struct{}
	done chan struct{}
}

// NewSupervisor constructs a Supervisor.
func NewSupervisor(interval time.Duration, cycle *Cycle) *Supervisor {
	return &Supervisor{
		Interval: interval,
		Cycle:    cycle,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start terminates any previously running instance (unless NoKill is set),
// writes this process's PID file, and runs the refresh loop until ctx is
// canceled or Stop is called.
func (s *Supervisor) Start(ctx context.Context) error {
	if !s.NoKill {
		if err := s.terminatePriorInstance(); err != nil {
			logger.Warn("failed to terminate prior refresher instance", "error", err.Error())
		}
	}

	if err := pidfile.WriteCurrent(); err != nil {
		return err
	}
	defer func() {
		if err := pidfile.Remove(); err != nil {
			logger.Warn("failed to remove pid file on shutdown", "error", err.Error())
		}
		close(s.done)
	}()

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	if err := s.runCycle(ctx); err != nil {
		logger.Error("initial refresh cycle failed", "error", err.Error())
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.stop:
			return nil
		case <-ticker.C:
			if err := s.runCycle(ctx); err != nil {
				logger.Error("refresh cycle failed", "error", err.Error())
			}
		}
	}
}

func (s *Supervisor) runCycle(ctx context.Context) error {
	refreshed, err := s.Cycle.Run(ctx)
	if err != nil {
		return err
	}
	if refreshed {
		logger.Info("token refresh cycle refreshed at least one record")
	}
	return nil
}

// Stop signals the run loop to exit and waits for it to finish.
func (s *Supervisor) Stop() {
	close(s.stop)
	<-s.done
}

// terminatePriorInstance sends SIGTERM to any process recorded in the PID
// file, waits up to gracefulTerminationTimeout, then escalates to SIGKILL.
func (s *Supervisor) terminatePriorInstance() error {
	pid, err := pidfile.Read()
	if err != nil {
		return nil // no prior instance recorded
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return nil
	}

	if err := proc.Signal(syscall.SIGTERM); err != nil {
		// Process is already gone; nothing further to do.
		return nil
	}

	deadline := time.Now().Add(gracefulTerminationTimeout)
	for time.Now().Before(deadline) {
		if proc.Signal(syscall.Signal(0)) != nil {
			return nil // exited gracefully
		}
		time.Sleep(100 * time.Millisecond)
	}

	return proc.Signal(syscall.SIGKILL)
}
