package console

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"mt5-bridge/src/gateway"
	"mt5-bridge/src/metrics"
	"mt5-bridge/src/models"
	"mt5-bridge/src/utils"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// -----------------------------------------------------------------------------
// Telemetry Console
//
// A passive reader of the metrics state: polls on a fixed cadence, renders,
// never mutates. Safe to run against an empty ring and a platform that has
// not connected yet.
// -----------------------------------------------------------------------------

const (
	defaultRefresh = 250 * time.Millisecond
	logPanelRows   = 20
)

// ANSI escape helpers
const (
	ansiClear  = "\033[2J\033[H"
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiDim    = "\033[2m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
)

type Console struct {
	Config  *models.MConfig
	Metrics *metrics.MetricsState
	Gateway *gateway.ProxyGateway
	Hours   *utils.MarketHours

	proc      *process.Process
	startedAt time.Time
}

// -----------------------------------------------------------------------------

func NewConsole(cfg *models.MConfig, ms *metrics.MetricsState, gw *gateway.ProxyGateway) *Console {
	proc, _ := process.NewProcess(int32(os.Getpid()))
	return &Console{
		Config:    cfg,
		Metrics:   ms,
		Gateway:   gw,
		Hours:     utils.NewMarketHours(cfg.Console.MarketMic),
		proc:      proc,
		startedAt: time.Now(),
	}
}

// -----------------------------------------------------------------------------

func (c *Console) refreshInterval() time.Duration {
	if c.Config.Console.RefreshMs > 0 {
		return time.Duration(c.Config.Console.RefreshMs) * time.Millisecond
	}
	return defaultRefresh
}

// Run redraws until the context is cancelled.
func (c *Console) Run(ctx context.Context) {
	ticker := time.NewTicker(c.refreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Print(ansiReset + "\n")
			return
		case <-ticker.C:
			fmt.Print(c.Render(time.Now()))
		}
	}
}

// -----------------------------------------------------------------------------
// Rendering
// -----------------------------------------------------------------------------

// Render builds a full frame: header, log panel, stats panel, footer.
func (c *Console) Render(now time.Time) string {
	snap := c.Metrics.Snapshot()

	var b strings.Builder
	b.WriteString(ansiClear)
	c.renderHeader(&b, now)
	c.renderLogPanel(&b, snap.Events)
	c.renderStatsPanel(&b, snap)
	c.renderFooter(&b, now)
	return b.String()
}

// -----------------------------------------------------------------------------

func (c *Console) renderHeader(b *strings.Builder, now time.Time) {
	name := c.Config.Name
	if name == "" {
		name = "mt5-bridge"
	}

	conn := ansiRed + "DISCONNECTED" + ansiReset
	if c.Gateway.Connected() {
		conn = ansiGreen + "CONNECTED" + ansiReset
	}

	market := ansiDim + "MARKET CLOSED" + ansiReset
	if c.Hours.IsOpen(now) {
		market = ansiGreen + "MARKET OPEN" + ansiReset
	}

	login := "-"
	if c.Config.Platform.Login != 0 {
		login = fmt.Sprintf("%d@%s", c.Config.Platform.Login, c.Config.Platform.Server)
	} else if c.Config.Platform.Simulated {
		login = "simulated"
	}

	fmt.Fprintf(b, "%s%s%s  %s  %s  account %s\n", ansiBold+ansiCyan, name, ansiReset, conn, market, login)
	b.WriteString(strings.Repeat("-", 78) + "\n")
}

// -----------------------------------------------------------------------------

func (c *Console) renderLogPanel(b *strings.Builder, events []models.MLogEvent) {
	if len(events) == 0 {
		b.WriteString(ansiDim + "  (no activity yet)" + ansiReset + "\n")
	}

	start := 0
	if len(events) > logPanelRows {
		start = len(events) - logPanelRows
	}
	for _, ev := range events[start:] {
		ts := time.Unix(ev.Timestamp, 0).Format("15:04:05")
		fmt.Fprintf(b, "  %s %s%-4s%s %s\n", ts, severityColor(ev.Severity), ev.Severity, ansiReset, ev.Message)
	}
	b.WriteString(strings.Repeat("-", 78) + "\n")
}

// -----------------------------------------------------------------------------

func severityColor(sev models.Severity) string {
	switch sev {
	case models.SevErr:
		return ansiRed
	case models.SevFail, models.SevWarn:
		return ansiYellow
	case models.SevOK:
		return ansiGreen
	case models.SevReq:
		return ansiCyan
	default:
		return ansiDim
	}
}

// -----------------------------------------------------------------------------

func (c *Console) renderStatsPanel(b *strings.Builder, snap models.MMetricsSnapshot) {
	cpuPct, memMB := c.systemStats()
	fmt.Fprintf(b, "  requests %-8d errors %-8d sessions %-4d cpu %5.1f%%  rss %7.1fMB\n",
		snap.TotalRequests, snap.TotalErrors, snap.ActiveSessions, cpuPct, memMB)
}

// systemStats reads process CPU and resident memory; failures render as zero
// rather than breaking the frame.
func (c *Console) systemStats() (float64, float64) {
	if c.proc == nil {
		return 0, 0
	}

	cpuPct, err := c.proc.CPUPercent()
	if err != nil {
		cpuPct = 0
	}

	var memMB float64
	if info, err := c.proc.MemoryInfo(); err == nil {
		memMB = float64(info.RSS) / 1024 / 1024
	} else if stat, err := mem.VirtualMemory(); err == nil {
		memMB = float64(stat.Used) / 1024 / 1024
	}
	return cpuPct, memMB
}

// -----------------------------------------------------------------------------

func (c *Console) renderFooter(b *strings.Builder, now time.Time) {
	uptime := now.Sub(c.startedAt).Truncate(time.Second)
	fmt.Fprintf(b, "%s  %s:%d  up %s  %s%s\n",
		ansiDim, c.Config.Host, c.Config.Port, uptime, now.Format("2006-01-02 15:04:05"), ansiReset)
}
