package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"bess-roi/internal/config"
	"bess-roi/internal/data"
	"bess-roi/internal/logging"
	"bess-roi/internal/model"
	"bess-roi/internal/profile"
	"bess-roi/internal/report"
	"bess-roi/internal/strategy"
)

// Demo:
// - Load the market dataset and pick the latest complete day
// - Evaluate every built-in client with each battery strategy
// - Print the saving and the cost of waiting side by side
func main() {
	dataPath := flag.String("data", "data/output.csv", "Market dataset (CSV or JSON)")
	profilesPath := flag.String("profiles", "data/load_profiles.csv", "Consumption profile table; missing means flat profiles")
	date := flag.String("date", "", "Day to evaluate (default latest complete day)")
	verbose := flag.Bool("v", false, "Print the full report of every run")
	flag.Parse()

	lvl := "WARN"
	logger := logging.Setup(os.Stderr, logging.LevelFromString(&lvl))

	rows, err := data.LoadMarket(*dataPath)
	if err != nil {
		panic(err)
	}
	var day model.DayPrices
	if *date != "" {
		day, err = data.DayPricesFor(rows, *date)
	} else {
		day, err = data.LatestCompleteDay(rows)
	}
	if err != nil {
		panic(err)
	}

	table, err := profile.LoadTable(*profilesPath)
	if err != nil {
		logger.Warn("profiles table not loaded, using flat consumption", slog.Any("error", err))
		table = nil
	}

	cfg := &config.AppConfig{}
	clients := config.DefaultClients()
	names := make([]string, 0, len(clients))
	for name := range clients {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("Day %s, price range %.1f..%.1f PLN/MWh\n\n", day.Date, minOf(day.Prices), maxOf(day.Prices))
	fmt.Printf("%-10s %-14s %-12s %-12s %-10s %-12s\n", "client", "strategy", "no battery", "with", "saving", "wait cost")

	for _, name := range names {
		client := clients[name]
		if table == nil {
			client.Profile = profile.FlatProfile
		}
		for _, info := range strategy.Describe() {
			sc := cfg.ScenarioFor(client)
			sc.Strategy = config.StrategyConfig{Name: info.Name}
			strat, err := sc.BuildStrategy()
			if err != nil {
				panic(err)
			}
			in, err := cfg.DayInputs(table, sc.Client, day)
			if err != nil {
				panic(err)
			}
			res, err := sc.Engine().RunDay(in, sc.Battery(), strat)
			if err != nil {
				panic(err)
			}
			rep, err := report.Build(sc.Client, sc.Efficiency, sc.MonthsDelay, res)
			if err != nil {
				panic(err)
			}

			fmt.Printf("%-10s %-14s %-12.2f %-12.2f %-10.2f %-12.2f\n",
				name, rep.Strategy,
				rep.Summary.CostNoBattery,
				rep.Summary.CostWithBattery,
				rep.Summary.DailyProfit,
				rep.Summary.WaitingCost,
			)
			if *verbose {
				if err := report.WriteText(os.Stdout, rep); err != nil {
					panic(err)
				}
				fmt.Println()
			}
		}
	}
}

func minOf(s model.HourlySeries) float64 {
	m := s[0]
	for _, v := range s[1:] {
		m = min(m, v)
	}
	return m
}

func maxOf(s model.HourlySeries) float64 {
	m := s[0]
	for _, v := range s[1:] {
		m = max(m, v)
	}
	return m
}
