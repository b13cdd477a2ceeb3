package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"bess-roi/internal/analysis"
	"bess-roi/internal/config"
	"bess-roi/internal/data"
	"bess-roi/internal/logging"
	"bess-roi/internal/model"
	"bess-roi/internal/report"
	"bess-roi/internal/simulate"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("error loading .env file", slog.Any("error", err))
	}

	switch os.Args[1] {
	case "evaluate":
		cmdEvaluate(os.Args[2:])
	case "spread":
		cmdSpread(os.Args[2:])
	case "arbitrage":
		cmdArbitrage(os.Args[2:])
	case "wind":
		cmdWind(os.Args[2:])
	case "rank":
		cmdRank(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli evaluate --client home --date 2025-06-01 [--strategy arbitrage --top-k 3] [--ledger results/ledger.csv]")
	fmt.Println("  cli evaluate --annual 5000 --pv 6 --battery 10 --start 2025-06-01 --end 2025-06-30")
	fmt.Println("  cli spread --data data/output.csv --top-n 3")
	fmt.Println("  cli arbitrage --data data/output.csv --battery 10 --efficiency 0.9")
	fmt.Println("  cli wind --data data/output.csv --threshold 8")
	fmt.Println("  cli rank --data data/output.csv --limit 10")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - prices are day-ahead PLN/MWh; every command reads the market dataset (CSV or JSON)")
	fmt.Println("  - evaluate prints costs with and without a battery and the cost of waiting")
}

// common holds the flags shared by every subcommand.
type common struct {
	cfgPath  *string
	dataPath *string
	level    *string
}

func addCommon(fs *flag.FlagSet) common {
	return common{
		cfgPath:  fs.String("config", "", "Path to YAML config (default config/config.yaml when present)"),
		dataPath: fs.String("data", "", "Market dataset path (default market.csv_path from config)"),
		level:    fs.String("log-level", "WARN", "Log level: DEBUG, INFO, WARN, ERROR"),
	}
}

// load sets up logging and returns the config and the market rows.
func (c common) load() (*config.AppConfig, []model.MarketRow) {
	logging.Setup(os.Stderr, logging.LevelFromString(c.level))

	cfg, err := config.Load(*c.cfgPath)
	if err != nil {
		if *c.cfgPath != "" {
			exitWithError(err)
		}
		slog.Debug("no config file, using defaults", slog.Any("error", err))
		cfg = &config.AppConfig{}
	}

	path := *c.dataPath
	if path == "" {
		path = cfg.Market.GetCSVPath()
	}
	rows, err := data.LoadMarket(path)
	if err != nil {
		exitWithError(fmt.Errorf("load market data %s: %w", path, err))
	}
	return cfg, rows
}

func cmdEvaluate(args []string) {
	fs := flag.NewFlagSet("evaluate", flag.ExitOnError)
	cm := addCommon(fs)
	clientName := fs.String("client", "", "Client preset (home, business or a file in scenario.clients_dir)")
	annual := fs.Float64("annual", 0, "Annual consumption, kWh")
	pv := fs.Float64("pv", 0, "PV size, kWp")
	battery := fs.Float64("battery", 0, "Battery capacity, kWh")
	city := fs.String("city", "", "Client city")
	profileName := fs.String("profile", "", "Consumption profile (flat or a column of scenario.profiles_file)")
	date := fs.String("date", "", "Day to evaluate, YYYY-MM-DD (default latest complete day)")
	start := fs.String("start", "", "Range start, YYYY-MM-DD")
	end := fs.String("end", "", "Range end, YYYY-MM-DD")
	strategyName := fs.String("strategy", "", "Battery strategy (proportional, arbitrage, chronological)")
	topK := fs.Int("top-k", 0, "Arbitrage hours (0=config or default)")
	efficiency := fs.Float64("efficiency", 0, "Round-trip efficiency (0=config)")
	months := fs.Int("months", -1, "Months of delay for the waiting cost (-1=config)")
	format := fs.String("format", "text", "Output format: text or json")
	ledgerPath := fs.String("ledger", "", "Optional path to write the hourly ledger CSV")
	_ = fs.Parse(args)

	cfg, rows := cm.load()

	clients, err := config.LoadClients(cfg.Scenario.ClientsDir)
	if err != nil {
		exitWithError(err)
	}
	client, err := config.ResolveClient(clients, *clientName, model.ClientParams{
		City:       *city,
		AnnualKWh:  *annual,
		PVKWp:      *pv,
		BatteryKWh: *battery,
		Profile:    *profileName,
	})
	if err != nil {
		exitWithError(err)
	}
	table, err := cfg.ProfileTable()
	if err != nil {
		exitWithError(err)
	}

	sc := cfg.ScenarioFor(client)
	if *efficiency > 0 {
		sc.Efficiency = *efficiency
	}
	if *months >= 0 {
		sc.MonthsDelay = *months
	}
	if *strategyName != "" {
		sc.Strategy = config.StrategyConfig{Name: *strategyName}
	}
	if *topK > 0 {
		params := map[string]any{}
		for k, v := range sc.Strategy.Params {
			params[k] = v
		}
		params["top_k"] = *topK
		sc.Strategy.Params = params
	}
	if err := sc.Validate(); err != nil {
		exitWithError(err)
	}
	strat, err := sc.BuildStrategy()
	if err != nil {
		exitWithError(err)
	}
	engine := sc.Engine()

	if *start != "" || *end != "" {
		days := data.CompleteDays(filterRows(rows, *start, *end))
		if len(days) == 0 {
			exitWithError(fmt.Errorf("%w: no complete day between %q and %q", model.ErrIncompleteDay, *start, *end))
		}
		inputs := make([]model.DayInputs, 0, len(days))
		for _, d := range days {
			in, err := cfg.DayInputs(table, sc.Client, d)
			if err != nil {
				exitWithError(err)
			}
			inputs = append(inputs, in)
		}
		results, err := engine.RunRange(context.Background(), inputs, sc.Battery(), strat)
		if err != nil {
			exitWithError(err)
		}
		totals, err := simulate.Rollup(results, sc.MonthsDelay)
		if err != nil {
			exitWithError(err)
		}
		if *ledgerPath != "" {
			var ledger []simulate.LedgerRow
			for _, r := range results {
				ledger = append(ledger, r.Ledger...)
			}
			writeLedger(*ledgerPath, ledger)
		}
		if *format == "json" {
			if err := writeJSON(report.RoundTotals(totals)); err != nil {
				exitWithError(err)
			}
			return
		}
		if err := report.WriteTotalsText(os.Stdout, totals, sc.MonthsDelay); err != nil {
			exitWithError(err)
		}
		return
	}

	var day model.DayPrices
	if *date != "" {
		day, err = data.DayPricesFor(rows, *date)
	} else {
		day, err = data.LatestCompleteDay(rows)
	}
	if err != nil {
		exitWithError(err)
	}
	in, err := cfg.DayInputs(table, sc.Client, day)
	if err != nil {
		exitWithError(err)
	}
	res, err := engine.RunDay(in, sc.Battery(), strat)
	if err != nil {
		exitWithError(err)
	}
	rep, err := report.Build(sc.Client, sc.Efficiency, sc.MonthsDelay, res)
	if err != nil {
		exitWithError(err)
	}
	if *ledgerPath != "" {
		writeLedger(*ledgerPath, res.Ledger)
	}

	if *format == "json" {
		err = report.WriteJSON(os.Stdout, rep)
	} else {
		err = report.WriteText(os.Stdout, rep)
	}
	if err != nil {
		exitWithError(err)
	}
}

func cmdSpread(args []string) {
	fs := flag.NewFlagSet("spread", flag.ExitOnError)
	cm := addCommon(fs)
	topN := fs.Int("top-n", analysis.DefaultTopN, "Cheapest/most expensive hours averaged per day")
	_ = fs.Parse(args)

	_, rows := cm.load()

	fmt.Printf("%-12s %-12s %-14s %-12s\n", "date", "cheap_avg", "expensive_avg", "spread")
	for _, d := range analysis.DaysFromRows(rows) {
		s, err := analysis.DailySpread(d, *topN)
		if err != nil {
			slog.Warn("skipping day", slog.String("date", d.Date), slog.Any("error", err))
			continue
		}
		fmt.Printf("%-12s %-12.2f %-14.2f %-12.2f\n", s.Date, s.CheapAvg, s.ExpensiveAvg, s.Spread)
	}
}

func cmdArbitrage(args []string) {
	fs := flag.NewFlagSet("arbitrage", flag.ExitOnError)
	cm := addCommon(fs)
	battery := fs.Float64("battery", 10, "Battery capacity, kWh")
	efficiency := fs.Float64("efficiency", 0, "Round-trip efficiency (0=config)")
	topN := fs.Int("top-n", analysis.DefaultTopN, "Cheapest/most expensive hours averaged per day")
	_ = fs.Parse(args)

	cfg, rows := cm.load()
	eff := *efficiency
	if eff == 0 {
		eff = cfg.Scenario.GetEfficiency()
	}

	res, err := analysis.TheoreticalProfit(analysis.DaysFromRows(rows), *battery, eff, *topN)
	if err != nil {
		exitWithError(err)
	}
	fmt.Printf("Battery %.1f kWh, efficiency %.0f%%, top %d hours\n", res.BatteryKWh, res.Efficiency*100, *topN)
	fmt.Printf("Profitable days: %d\n", res.Days)
	fmt.Printf("Total theoretical profit: %.2f PLN\n", report.Round2(res.TotalProfitPLN))
	fmt.Printf("Average daily profit: %.2f PLN\n", report.Round2(res.AvgDailyProfitPLN))
}

func cmdWind(args []string) {
	fs := flag.NewFlagSet("wind", flag.ExitOnError)
	cm := addCommon(fs)
	threshold := fs.Float64("threshold", analysis.DefaultWindThreshold, "Wind speed above which an hour counts as windy, m/s")
	columns := fs.String("columns", strings.Join(analysis.DefaultWindColumns, ","), "Comma-separated wind columns")
	_ = fs.Parse(args)

	_, rows := cm.load()

	eff, err := analysis.WindPriceEffectColumns(rows, *threshold, splitList(*columns))
	if err != nil {
		exitWithError(err)
	}
	fmt.Printf("Windy hours (> %.1f m/s): %d, avg price %.2f PLN/MWh\n", eff.ThresholdMS, eff.HighWindHours, eff.AvgPriceHigh)
	fmt.Printf("Calm hours: %d, avg price %.2f PLN/MWh\n", eff.LowWindHours, eff.AvgPriceLow)
	fmt.Printf("Difference: %.2f PLN/MWh (%.1f%%)\n", eff.PriceDeltaPLN, eff.PriceDeltaPct)
}

func cmdRank(args []string) {
	fs := flag.NewFlagSet("rank", flag.ExitOnError)
	cm := addCommon(fs)
	battery := fs.Float64("battery", 10, "Battery capacity, kWh")
	efficiency := fs.Float64("efficiency", 0, "Round-trip efficiency (0=config)")
	topN := fs.Int("top-n", analysis.DefaultTopN, "Cheapest/most expensive hours averaged per day")
	limit := fs.Int("limit", 10, "Number of days to print (0=all)")
	_ = fs.Parse(args)

	cfg, rows := cm.load()
	eff := *efficiency
	if eff == 0 {
		eff = cfg.Scenario.GetEfficiency()
	}
	if err := model.ValidateEfficiency(eff); err != nil {
		exitWithError(err)
	}

	ranked := analysis.RankDaysBySpread(analysis.DaysFromRows(rows), *battery, eff, *topN)
	if *limit > 0 && *limit < len(ranked) {
		ranked = ranked[:*limit]
	}
	fmt.Printf("%-4s %-12s %-6s %-10s %-16s %-10s\n", "rank", "date", "hours", "spread", "min/max", "profit")
	for i, r := range ranked {
		fmt.Printf(
			"%-4d %-12s %-6d %-10.2f %-7.1f/%-8.1f %-10.2f\n",
			i+1,
			r.Date,
			r.Hours,
			r.Spread.Spread,
			r.Min,
			r.Max,
			r.ProfitPLN,
		)
	}
}

// filterRows keeps rows within [from, to]; empty bounds are open.
func filterRows(rows []model.MarketRow, from, to string) []model.MarketRow {
	out := make([]model.MarketRow, 0, len(rows))
	for _, r := range rows {
		if from != "" && r.Date < from {
			continue
		}
		if to != "" && r.Date > to {
			continue
		}
		out = append(out, r)
	}
	return out
}

func writeLedger(path string, ledger []simulate.LedgerRow) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		exitWithError(err)
	}
	if err := simulate.WriteLedgerCSV(path, ledger); err != nil {
		exitWithError(err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %d rows to %s\n", len(ledger), path)
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
