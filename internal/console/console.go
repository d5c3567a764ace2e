// Package console implements the interactive operator console.
package console

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	prompt "github.com/c-bata/go-prompt"

	"github.com/quakelens/quakelens/internal/analytics"
	"github.com/quakelens/quakelens/internal/logging"
	"github.com/quakelens/quakelens/internal/query"
	"github.com/quakelens/quakelens/internal/retention"
	"github.com/quakelens/quakelens/internal/snapshot"
)

// Console is an interactive shell over the analytics engine.
type Console struct {
	engine      *analytics.Engine
	retention   *retention.Controller
	query       *query.Service
	snapshotDir string
	compression snapshot.CompressionType
	log         *slog.Logger

	lastExport string
}

// New creates a console.
func New(eng *analytics.Engine, ret *retention.Controller, qs *query.Service, snapshotDir, compression string) *Console {
	return &Console{
		engine:      eng,
		retention:   ret,
		query:       qs,
		snapshotDir: snapshotDir,
		compression: snapshot.ParseCompressionType(compression),
		log:         logging.Component("console"),
	}
}

var commands = []prompt.Suggest{
	{Text: "help", Description: "Show available commands"},
	{Text: "count", Description: "Number of stored events"},
	{Text: "magdist", Description: "Magnitude distribution histogram"},
	{Text: "daily", Description: "Events per day"},
	{Text: "hourly", Description: "Events per hour of day"},
	{Text: "monthly", Description: "Events per month"},
	{Text: "weekly", Description: "Events per weekday"},
	{Text: "regions", Description: "Events per Flynn region"},
	{Text: "clusters", Description: "Half-degree coordinate clusters"},
	{Text: "bvalue", Description: "Gutenberg-Richter b-value"},
	{Text: "magfreq", Description: "Magnitude-frequency data"},
	{Text: "risk", Description: "Probabilistic risk metrics"},
	{Text: "energy", Description: "Total radiated energy"},
	{Text: "regional", Description: "Per-region summary"},
	{Text: "advanced", Description: "Full auxiliary statistics report"},
	{Text: "recompute", Description: "Force a full recompute"},
	{Text: "prune", Description: "Apply the retention policy now"},
	{Text: "dryrun", Description: "Show what prune would drop"},
	{Text: "export", Description: "Export events to a Parquet snapshot"},
	{Text: "sql", Description: "Run SQL against the last snapshot"},
	{Text: "exit", Description: "Leave the console"},
}

// Run starts the interactive prompt and blocks until exit.
func (c *Console) Run() {
	fmt.Println("quakelens console. Type 'help' for commands, 'exit' to leave.")
	p := prompt.New(
		c.execute,
		c.complete,
		prompt.OptionTitle("quakelens"),
		prompt.OptionPrefix("quakelens> "),
	)
	p.Run()
}

func (c *Console) complete(d prompt.Document) []prompt.Suggest {
	if strings.Contains(d.TextBeforeCursor(), " ") {
		return nil
	}
	return prompt.FilterHasPrefix(commands, d.GetWordBeforeCursor(), true)
}

func (c *Console) execute(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "help":
		for _, s := range commands {
			fmt.Printf("  %-10s %s\n", s.Text, s.Description)
		}
	case "count":
		fmt.Println(c.engine.EventCount())
	case "magdist":
		c.printMagDist()
	case "daily":
		c.printDaily()
	case "hourly":
		c.printHourly()
	case "monthly":
		c.printMonthly()
	case "weekly":
		c.printWeekly()
	case "regions":
		c.printRegions()
	case "clusters":
		c.printClusters()
	case "bvalue":
		if b, err := c.engine.BValue(); err != nil {
			fmt.Println("error:", err)
		} else {
			fmt.Printf("b = %.3f\n", b)
		}
	case "magfreq":
		c.printMagFreq()
	case "risk":
		c.printRisk()
	case "energy":
		if e, err := c.engine.TotalEnergy(); err != nil {
			fmt.Println("error:", err)
		} else {
			fmt.Printf("%.3e J\n", e)
		}
	case "regional":
		c.printRegional()
	case "advanced":
		c.printAdvanced()
	case "recompute":
		if err := c.engine.RecomputeAll(); err != nil {
			fmt.Println("error:", err)
		} else {
			fmt.Println("ok")
		}
	case "prune":
		res, err := c.retention.Check(c.engine)
		if err != nil {
			fmt.Println("error:", err)
		} else {
			fmt.Printf("dropped %d, %d remaining\n", res.EventsDropped, res.EventsAfter)
		}
	case "dryrun":
		res := c.retention.DryRun(c.engine)
		fmt.Printf("would drop %d of %d\n", res.EventsDropped, res.EventsBefore)
	case "export":
		c.export(arg)
	case "sql":
		c.runSQL(arg)
	case "exit", "quit":
		fmt.Println("bye")
		os.Exit(0)
	default:
		fmt.Printf("unknown command %q, try 'help'\n", cmd)
	}
}

func (c *Console) printMagDist() {
	buckets, err := c.engine.MagnitudeDistribution()
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	for _, b := range buckets {
		fmt.Printf("  %-6s %d\n", b.Label, b.Count)
	}
}

func (c *Console) printDaily() {
	days, err := c.engine.DailyFrequency()
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	for _, d := range days {
		fmt.Printf("  %s  %d\n", d.Date.Format("2006-01-02"), d.Count)
	}
}

func (c *Console) printHourly() {
	hours, err := c.engine.HourlyFrequency()
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	for _, h := range hours {
		fmt.Printf("  %02d:00  %d\n", h.Hour, h.Count)
	}
}

func (c *Console) printMonthly() {
	months, err := c.engine.MonthlyFrequency()
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	for _, m := range months {
		fmt.Printf("  %-10s %d\n", m.Month, m.Count)
	}
}

func (c *Console) printWeekly() {
	days, err := c.engine.WeeklyFrequency()
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	for _, d := range days {
		fmt.Printf("  %s  %d\n", d.Weekday, d.Count)
	}
}

func (c *Console) printRegions() {
	regions, err := c.engine.RegionHotspots()
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	for _, r := range regions {
		fmt.Printf("  %-40s %d\n", r.Region, r.Count)
	}
}

func (c *Console) printClusters() {
	cells, err := c.engine.CoordinateClusters()
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	for _, cell := range cells {
		fmt.Printf("  (%+7.1f, %+8.1f)  %d\n", cell.Lat, cell.Lon, cell.Count)
	}
}

func (c *Console) printMagFreq() {
	points, err := c.engine.MagnitudeFrequencyData()
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("  mag    count  cumulative")
	for _, pt := range points {
		fmt.Printf("  %4.1f  %6d  %10d\n", pt.Magnitude, pt.Count, pt.Cumulative)
	}
}

func (c *Console) printRisk() {
	m, err := c.engine.RiskMetrics()
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Printf("  P(M>=5, 30d)   %.4f\n", m.ProbM5In30Days)
	fmt.Printf("  P(M>=6, 365d)  %.4f\n", m.ProbM6In365Days)
	fmt.Printf("  P(M>=7, 365d)  %.4f\n", m.ProbM7In365Days)
	fmt.Printf("  total energy   %.3e J\n", m.TotalEnergyJoules)
}

func (c *Console) printRegional() {
	for _, r := range c.engine.RegionalSummary(10) {
		fmt.Printf("  %-40s %5d  mag %.2f  depth %.1f km\n",
			r.Region, r.EventCount, r.AvgMagnitude, r.AvgDepth)
	}
}

func (c *Console) printAdvanced() {
	report, err := c.engine.AdvancedAnalytics()
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	for _, block := range report.Blocks {
		fmt.Printf("%s\n", block.Title)
		keys := make([]string, 0, len(block.Data))
		for k := range block.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("  %-26s %v\n", k, block.Data[k])
		}
	}
}

func (c *Console) export(arg string) {
	path := arg
	if path == "" {
		path = filepath.Join(c.snapshotDir,
			fmt.Sprintf("events-%s.parquet", time.Now().UTC().Format("20060102-150405")))
	}
	tab := c.engine.TableSnapshot()
	if err := snapshot.Export(path, tab, snapshot.Options{Compression: c.compression}); err != nil {
		fmt.Println("error:", err)
		return
	}
	c.lastExport = path
	fmt.Printf("wrote %d events to %s\n", tab.Len(), path)
}

func (c *Console) runSQL(stmt string) {
	if stmt == "" {
		fmt.Println("usage: sql <statement>")
		return
	}
	if c.lastExport != "" {
		stmt = strings.ReplaceAll(stmt, "$snapshot", fmt.Sprintf("read_parquet('%s')", c.lastExport))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rows, err := c.query.ExecuteSQL(ctx, stmt)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	for _, row := range rows {
		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, row[k]))
		}
		fmt.Println("  " + strings.Join(parts, "  "))
	}
	fmt.Printf("%d rows\n", len(rows))
}
