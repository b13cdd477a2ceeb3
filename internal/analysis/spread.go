// Package analysis computes dataset-level market statistics: daily price
// spreads, the theoretical arbitrage value of a battery and the effect of
// wind on prices.
package analysis

import (
	"fmt"
	"sort"

	"bess-roi/internal/model"
)

// DefaultTopN is the number of cheapest and most expensive hours averaged.
const DefaultTopN = 3

// Spread is the difference between the mean of the N most expensive and
// the N cheapest hours of one day, in PLN/MWh.
type Spread struct {
	Date         string  `json:"date"`
	CheapAvg     float64 `json:"cheap_avg"`
	ExpensiveAvg float64 `json:"expensive_avg"`
	Spread       float64 `json:"daily_spread_pln_mwh"`
}

// DaysFromRows groups rows by date, keeping whatever hours are present in
// hour order. Days need not be complete.
func DaysFromRows(rows []model.MarketRow) []model.DayPrices {
	byDate := make(map[string][]model.PricePoint)
	for _, r := range rows {
		byDate[r.Date] = append(byDate[r.Date], r.PricePoint)
	}
	out := make([]model.DayPrices, 0, len(byDate))
	for _, date := range model.Dates(rows) {
		points := byDate[date]
		sort.SliceStable(points, func(i, j int) bool { return points[i].Hour < points[j].Hour })
		prices := make(model.HourlySeries, 0, len(points))
		for _, p := range points {
			prices = append(prices, p.PricePLNPerMWh)
		}
		out = append(out, model.DayPrices{Date: date, Prices: prices})
	}
	return out
}

// DailySpread needs at least 2*topN prices.
func DailySpread(day model.DayPrices, topN int) (Spread, error) {
	if topN < 1 {
		return Spread{}, fmt.Errorf("%w: topN must be at least 1, got %d", model.ErrInvalidArgument, topN)
	}
	if len(day.Prices) < 2*topN {
		return Spread{}, fmt.Errorf("%w: %s has %d prices, need %d for top %d",
			model.ErrIncompleteDay, day.Date, len(day.Prices), 2*topN, topN)
	}

	sorted := append([]float64(nil), day.Prices...)
	sort.Float64s(sorted)

	cheap := mean(sorted[:topN])
	expensive := mean(sorted[len(sorted)-topN:])
	return Spread{
		Date:         day.Date,
		CheapAvg:     cheap,
		ExpensiveAvg: expensive,
		Spread:       expensive - cheap,
	}, nil
}

// TheoreticalProfitResult is the upper-bound value of one daily
// charge/discharge cycle over a dataset.
type TheoreticalProfitResult struct {
	Days              int     `json:"days"`
	BatteryKWh        float64 `json:"battery_kwh"`
	Efficiency        float64 `json:"efficiency"`
	TotalProfitPLN    float64 `json:"total_profit_pln"`
	AvgDailyProfitPLN float64 `json:"avg_daily_profit_pln"`
}

// TheoreticalProfit sums spread * batteryKWh/1000 * efficiency over every
// day with enough hours and a positive spread. Other days are not counted.
func TheoreticalProfit(days []model.DayPrices, batteryKWh, efficiency float64, topN int) (TheoreticalProfitResult, error) {
	if err := model.ValidateEfficiency(efficiency); err != nil {
		return TheoreticalProfitResult{}, err
	}
	if batteryKWh < 0 {
		return TheoreticalProfitResult{}, fmt.Errorf("%w: battery capacity %v", model.ErrInvalidArgument, batteryKWh)
	}
	if topN < 1 {
		return TheoreticalProfitResult{}, fmt.Errorf("%w: topN must be at least 1, got %d", model.ErrInvalidArgument, topN)
	}

	res := TheoreticalProfitResult{BatteryKWh: batteryKWh, Efficiency: efficiency}
	for _, day := range days {
		s, err := DailySpread(day, topN)
		if err != nil || s.Spread <= 0 {
			continue
		}
		res.TotalProfitPLN += s.Spread * (batteryKWh / 1000) * efficiency
		res.Days++
	}
	if res.Days > 0 {
		res.AvgDailyProfitPLN = res.TotalProfitPLN / float64(res.Days)
	}
	return res, nil
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
