package workers

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"chat-relay/contract"

	"github.com/shirou/gopsutil/process"
)

// RouterStats is the counter surface the stats worker samples from the router.
type RouterStats interface {
	Stats() map[string]any
}

// StatsWorker periodically samples process metrics (RSS, CPU, OS status) and
// the runtime counters, and keeps the latest snapshot for the debug server.
type StatsWorker struct {
	log      *slog.Logger
	interval time.Duration
	presence contract.IPresence
	router   RouterStats

	mu     sync.RWMutex
	latest map[string]any
}

func NewStatsWorker(
	log *slog.Logger,
	interval time.Duration,
	presence contract.IPresence,
	router RouterStats,
) *StatsWorker {
	return &StatsWorker{
		log:      log,
		interval: interval,
		presence: presence,
		router:   router,
		latest:   map[string]any{},
	}
}

func (w *StatsWorker) Run(ctx context.Context) error {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping stats worker")
			return nil
		case <-ticker.C:
			w.sample(p)
		}
	}
}

func (w *StatsWorker) sample(p *process.Process) {
	rss, cpu, status, err := selfStats(p)
	if err != nil {
		w.log.Error("Failed to collect self stats", "err", err)
		return
	}

	snapshot := map[string]any{
		"pid":         os.Getpid(),
		"pid_status":  status,
		"rss_bytes":   rss,
		"cpu_percent": cpu,
		"online":      w.presence.Online(),
		"sampled_at":  time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range w.router.Stats() {
		snapshot[k] = v
	}

	w.mu.Lock()
	w.latest = snapshot
	w.mu.Unlock()

	w.log.Debug("Stats sampled", "rss_bytes", rss, "cpu_percent", cpu, "online", snapshot["online"])
}

// Snapshot returns the most recent sample, for the debug server.
func (w *StatsWorker) Snapshot() map[string]any {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make(map[string]any, len(w.latest))
	for k, v := range w.latest {
		out[k] = v
	}
	return out
}

// selfStats retrieves technical metrics (Memory, CPU, and OS Status) for the given process.
func selfStats(p *process.Process) (uint64, float64, string, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}

	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}

	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpuPercent, status, nil
}
