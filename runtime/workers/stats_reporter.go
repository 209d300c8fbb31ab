package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/Tropical8818/iProTalk/contract"
	"github.com/Tropical8818/iProTalk/repositories"

	"github.com/shirou/gopsutil/process"
)

// ProcessStats is a snapshot of the relay process itself.
type ProcessStats struct {
	RSS    uint64
	CPU    float64
	Status string
}

// SelfStats reads RSS, CPU usage and OS status of the current process.
func SelfStats() (ProcessStats, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return ProcessStats{}, err
	}
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return ProcessStats{}, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return ProcessStats{}, err
	}
	status, err := p.Status()
	if err != nil {
		return ProcessStats{}, err
	}
	return ProcessStats{RSS: memInfo.RSS, CPU: cpuPercent, Status: status}, nil
}

// StatsReporterWorker logs hub, storage and process figures at a fixed interval.
type StatsReporterWorker struct {
	log      *slog.Logger
	hub      contract.IHub
	messages repositories.IMessageRepository
	interval time.Duration
}

func NewStatsReporterWorker(log *slog.Logger, hub contract.IHub,
	messages repositories.IMessageRepository, interval time.Duration) *StatsReporterWorker {
	return &StatsReporterWorker{log: log, hub: hub, messages: messages, interval: interval}
}

func (w *StatsReporterWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.report()
		}
	}
}

func (w *StatsReporterWorker) report() {
	hub := w.hub.Stats()
	attrs := []any{
		"consumers", hub.Consumers,
		"published", hub.Published,
		"lagged", hub.Lagged,
	}
	if count, err := w.messages.Count(); err != nil {
		w.log.Error("Failed to count stored messages", "error", err)
	} else {
		attrs = append(attrs, "stored", count)
	}
	if self, err := SelfStats(); err != nil {
		w.log.Debug("Failed to collect self stats", "error", err)
	} else {
		attrs = append(attrs, "rss_bytes", self.RSS, "cpu_percent", self.CPU, "status", self.Status)
	}
	w.log.Info("Relay stats", attrs...)
}
