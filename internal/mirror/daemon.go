package mirror

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/mirrorbox/mirrorbox/internal/config"
	"github.com/mirrorbox/mirrorbox/internal/utils"
	"golang.org/x/sync/errgroup"
)

var ErrReplicaLocked = errors.New("replica locked by another mirrorbox process")

// Daemon runs synchronization passes on a fixed interval. Passes never
// overlap: the timer is rearmed only after a pass finishes, and an
// advisory lock next to the replica keeps a second daemon out.
type Daemon struct {
	cfg  *config.Config
	sync *Synchronizer
	sink EventSink
	lock *flock.Flock
}

func NewDaemon(cfg *config.Config, sink EventSink) *Daemon {
	return &Daemon{
		cfg:  cfg,
		sync: NewSynchronizer(sink),
		sink: sink,
		// next to the replica, not inside it, or the pruner would eat it
		lock: flock.New(cfg.ReplicaDir + ".lock"),
	}
}

func (d *Daemon) Lock() error {
	if err := utils.EnsureParent(d.lock.Path()); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}

	locked, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock replica: %w", err)
	}
	if !locked {
		return ErrReplicaLocked
	}
	return nil
}

func (d *Daemon) Unlock() error {
	if !d.lock.Locked() {
		return nil
	}
	if err := d.lock.Unlock(); err != nil {
		return fmt.Errorf("unlock replica: %w", err)
	}
	return nil
}

// Start locks the replica and runs passes until the context is
// cancelled.
func (d *Daemon) Start(ctx context.Context) error {
	if err := d.Lock(); err != nil {
		return err
	}

	slog.Info("mirror daemon start",
		"source", d.cfg.SourceDir,
		"replica", d.cfg.ReplicaDir,
		"interval", d.cfg.Interval)

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		// unlock only after the loop has fully drained, so a pass in
		// flight still holds the replica
		d.run(egCtx)
		return d.Unlock()
	})

	eg.Go(func() error {
		<-egCtx.Done()
		slog.Info("stopping mirror daemon")
		return nil
	})

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("mirror daemon failure", "error", err)
		return err
	}

	slog.Info("mirror daemon stopped")
	return nil
}

func (d *Daemon) run(ctx context.Context) {
	d.RunPass()

	// a timer and not a ticker, to avoid queued ticks when a pass
	// takes longer than the interval
	timer := time.NewTimer(d.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			d.RunPass()
			timer.Reset(d.cfg.Interval)
		}
	}
}

// RunPass runs one synchronization pass. This is the run boundary:
// errors are classified, recorded and returned, never thrown further —
// a failed pass just waits for the next interval.
func (d *Daemon) RunPass() error {
	slog.Info("starting synchronization", "source", d.cfg.SourceDir, "replica", d.cfg.ReplicaDir)
	start := time.Now()

	st, err := d.sync.Sync(d.cfg.SourceDir, d.cfg.ReplicaDir)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			slog.Error("file not found", "error", err)
		case errors.Is(err, fs.ErrPermission):
			slog.Error("permission denied", "error", err)
		default:
			slog.Error("synchronization failed", "error", err)
		}
		d.sink.Record(Event{Kind: EventError, Time: time.Now(), Err: err})
		return err
	}

	slog.Info("synchronization completed",
		"took", time.Since(start).Round(time.Millisecond),
		"copied", st.FilesCopied,
		"removed", st.FilesRemoved+st.FoldersRemoved,
		"bytes", humanize.Bytes(uint64(st.BytesCopied)))
	return nil
}
