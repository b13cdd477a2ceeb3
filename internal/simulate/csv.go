package simulate

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
)

var ledgerHeader = []string{
	"date",
	"hour",
	"price_pln_mwh",
	"effective_price_pln_kwh",
	"consumption_kwh",
	"pv_kwh",
	"self_consumed_kwh",
	"excess_kwh",
	"remaining_kwh",
	"action",
	"charge_kwh",
	"grid_charge_kwh",
	"delivered_kwh",
	"grid_draw_kwh",
	"soc_kwh",
	"cost_no_battery_pln",
	"cost_with_battery_pln",
	"cum_saving_pln",
}

func WriteLedgerCSV(path string, ledger []LedgerRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteLedger(f, ledger); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteLedger writes ledger rows as CSV to w.
func WriteLedger(w io.Writer, ledger []LedgerRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ledgerHeader); err != nil {
		return err
	}

	for _, r := range ledger {
		row := []string{
			r.Date,
			strconv.Itoa(r.Hour),
			fmtFloat(r.PricePLNPerMWh),
			fmtFloat(r.EffectivePrice),
			fmtFloat(r.Consumption),
			fmtFloat(r.PV),
			fmtFloat(r.SelfConsumed),
			fmtFloat(r.Excess),
			fmtFloat(r.Remaining),
			string(r.Action),
			fmtFloat(r.Charge),
			fmtFloat(r.GridCharge),
			fmtFloat(r.Delivered),
			fmtFloat(r.GridDraw),
			fmtFloat(r.SOC),
			fmtFloat(r.CostNoBattery),
			fmtFloat(r.CostWithBattery),
			fmtFloat(r.CumSaving),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
