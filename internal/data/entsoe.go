package data

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata"

	"bess-roi/internal/model"
	"bess-roi/internal/profile"
)

const (
	DefaultEntsoeBaseURL  = "https://web-api.tp.entsoe.eu/api"
	PolandBiddingZone     = "10YPL-AREA-----S"
	DayAheadDocumentType  = "A44"
	DefaultEURToPLN       = 4.4
	DefaultRequestTimeout = 10 * time.Second

	entsoePeriodLayout = "200601021504"
)

// EntsoeClient fetches day-ahead prices from the ENTSO-E transparency
// platform and converts them to hourly PLN/MWh.
type EntsoeClient struct {
	APIKey       string
	BaseURL      string
	BiddingZone  string
	DocumentType string
	EURToPLN     float64
	// Location defines the local day requested; defaults to Europe/Warsaw.
	Location *time.Location
	Retry    RetryPolicy
	Client   *http.Client
	Cache    *ResponseCache[[]model.PricePoint]

	logger *slog.Logger
}

// NewEntsoeClient creates a client for the Polish bidding zone.
// If baseURL is empty, defaults to DefaultEntsoeBaseURL.
func NewEntsoeClient(apiKey, baseURL string) *EntsoeClient {
	if baseURL == "" {
		baseURL = DefaultEntsoeBaseURL
	}
	return &EntsoeClient{
		APIKey:       apiKey,
		BaseURL:      baseURL,
		BiddingZone:  PolandBiddingZone,
		DocumentType: DayAheadDocumentType,
		EURToPLN:     DefaultEURToPLN,
		Location:     warsaw(),
		Retry:        DefaultRetryPolicy,
		Client:       &http.Client{Timeout: DefaultRequestTimeout},
		logger:       slog.Default().With(slog.String("module", "entsoe")),
	}
}

func (c *EntsoeClient) SetLogger(logger *slog.Logger) {
	c.logger = logger
}

// EURPrice is one hourly price as published, before currency conversion.
type EURPrice struct {
	Date           string
	Hour           int // 0..23
	PriceEURPerMWh float64
}

// FetchDayAhead returns the 0..23 hourly prices of date (YYYY-MM-DD) in PLN/MWh.
func (c *EntsoeClient) FetchDayAhead(ctx context.Context, date string) ([]model.PricePoint, error) {
	if c.APIKey == "" {
		return nil, &APIError{Source: "entsoe", Code: "MISSING_API_KEY", Message: "security token is required"}
	}
	day, err := time.ParseInLocation(model.DateLayout, date, c.location())
	if err != nil {
		return nil, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", date, err)
	}

	cacheKey := CacheKey("entsoe", c.BiddingZone, c.DocumentType, date)
	if cached, ok := c.Cache.Get(cacheKey); ok {
		c.logger.Debug("cache hit", slog.String("date", date))
		return cached, nil
	}

	u, err := c.requestURL(day)
	if err != nil {
		return nil, err
	}

	var eur []EURPrice
	err = c.Retry.do(ctx, c.logger, "entsoe day-ahead "+date, func(ctx context.Context) error {
		var err error
		eur, err = c.fetchOnce(ctx, u, date)
		return err
	})
	if err != nil {
		return nil, err
	}

	prices := ToPLN(eur, c.EURToPLN)
	c.logger.Info("fetched day-ahead prices",
		slog.String("date", date),
		slog.Int("hours", len(prices)))
	c.Cache.Set(cacheKey, prices)
	return prices, nil
}

func (c *EntsoeClient) requestURL(day time.Time) (string, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	q := u.Query()
	q.Set("securityToken", c.APIKey)
	q.Set("documentType", c.DocumentType)
	q.Set("in_Domain", c.BiddingZone)
	q.Set("out_Domain", c.BiddingZone)
	q.Set("periodStart", day.UTC().Format(entsoePeriodLayout))
	q.Set("periodEnd", day.AddDate(0, 0, 1).UTC().Format(entsoePeriodLayout))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *EntsoeClient) fetchOnce(ctx context.Context, u, date string) ([]EURPrice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/xml, text/xml")

	start := time.Now()
	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	c.logger.Debug("response",
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
		slog.String("date", date))

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("entsoe", resp, acknowledgementReason(body))
	}
	if reason := acknowledgementReason(body); reason != "" {
		return nil, &APIError{Source: "entsoe", StatusCode: resp.StatusCode, Code: "NO_DATA", Message: reason}
	}
	return ParseDayAheadXML(bytes.NewReader(body), date)
}

func (c *EntsoeClient) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

// ToPLN converts EUR/MWh prices at a fixed rate, rounded to 2 decimals.
func ToPLN(prices []EURPrice, eurToPLN float64) []model.PricePoint {
	out := make([]model.PricePoint, 0, len(prices))
	for _, p := range prices {
		out = append(out, model.PricePoint{
			Date:           p.Date,
			Hour:           p.Hour,
			PricePLNPerMWh: model.Round2(p.PriceEURPerMWh * eurToPLN),
		})
	}
	return out
}

type publicationDocument struct {
	XMLName    xml.Name           `xml:"Publication_MarketDocument"`
	TimeSeries []entsoeTimeSeries `xml:"TimeSeries"`
}

type entsoeTimeSeries struct {
	CurrencyUnit string         `xml:"currency_Unit.name"`
	CurveType    string         `xml:"curveType"`
	Periods      []entsoePeriod `xml:"Period"`
}

type entsoePeriod struct {
	TimeInterval struct {
		Start string `xml:"start"`
		End   string `xml:"end"`
	} `xml:"timeInterval"`
	Resolution string        `xml:"resolution"`
	Points     []entsoePoint `xml:"Point"`
}

type entsoePoint struct {
	Position int     `xml:"position"`
	Price    float64 `xml:"price.amount"`
}

type acknowledgementDocument struct {
	XMLName xml.Name `xml:"Acknowledgement_MarketDocument"`
	Reasons []struct {
		Code string `xml:"code"`
		Text string `xml:"text"`
	} `xml:"Reason"`
}

func acknowledgementReason(body []byte) string {
	if !bytes.Contains(body, []byte("Acknowledgement_MarketDocument")) {
		return ""
	}
	var ack acknowledgementDocument
	if err := xml.Unmarshal(body, &ack); err != nil || len(ack.Reasons) == 0 {
		return "acknowledgement without reason"
	}
	parts := make([]string, 0, len(ack.Reasons))
	for _, r := range ack.Reasons {
		parts = append(parts, strings.TrimSpace(r.Code+" "+r.Text))
	}
	return strings.Join(parts, "; ")
}

// ErrNoPrices is returned when a document carries no usable points.
var ErrNoPrices = errors.New("no valid day-ahead prices in response")

// ParseDayAheadXML decodes an A44 document and averages sub-hourly
// resolutions (PT15M, PT30M) into hours. Points of every period are merged.
// A period with a timeInterval places each point at start+(position-1)*step
// and buckets it by Warsaw hour of date: the repeated autumn hour is
// averaged and the skipped spring hour repeats the hour before it. Without
// a timeInterval positions count hours from midnight and hours past 23 are
// dropped.
func ParseDayAheadXML(r io.Reader, date string) ([]EURPrice, error) {
	var doc publicationDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode day-ahead XML: %w", err)
	}
	loc := warsaw()
	day, err := time.ParseInLocation(model.DateLayout, date, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", date, err)
	}

	sums := make(map[int]float64, model.HoursPerDay)
	counts := make(map[int]int, model.HoursPerDay)
	timed := false
	for _, ts := range doc.TimeSeries {
		for _, period := range ts.Periods {
			if len(period.Points) == 0 {
				continue
			}
			perHour, err := pointsPerHour(period.Resolution)
			if err != nil {
				return nil, err
			}
			step := time.Hour / time.Duration(perHour)
			start, hasStart := periodStart(period.TimeInterval.Start)
			timed = timed || hasStart

			for i, v := range periodValues(period, ts.CurveType) {
				var hour int
				if hasStart {
					at := start.Add(time.Duration(i) * step).In(loc)
					if at.Format(model.DateLayout) != date {
						continue
					}
					hour = at.Hour()
				} else {
					hour, err = profile.NormalizeHour(i/perHour+1, true)
					if err != nil {
						continue
					}
				}
				sums[hour] += v
				counts[hour]++
			}
		}
	}
	if len(counts) == 0 {
		return nil, ErrNoPrices
	}

	out := make([]EURPrice, 0, model.HoursPerDay)
	for h := 0; h < model.HoursPerDay; h++ {
		if counts[h] == 0 {
			if timed && h > 0 && counts[h-1] > 0 && !localHourExists(day, h) {
				out = append(out, EURPrice{Date: date, Hour: h, PriceEURPerMWh: out[len(out)-1].PriceEURPerMWh})
			}
			continue
		}
		out = append(out, EURPrice{
			Date:           date,
			Hour:           h,
			PriceEURPerMWh: model.Round2(sums[h] / float64(counts[h])),
		})
	}
	return out, nil
}

// periodValues returns the period's prices indexed by position-1. Missing
// positions are skipped, except on A03 curves which omit a point when the
// price repeats the previous one.
func periodValues(period entsoePeriod, curveType string) map[int]float64 {
	byPos := make(map[int]float64, len(period.Points))
	maxPos := 0
	for _, p := range period.Points {
		if p.Position < 1 {
			continue
		}
		if _, dup := byPos[p.Position]; !dup {
			byPos[p.Position] = p.Price
		}
		maxPos = max(maxPos, p.Position)
	}

	out := make(map[int]float64, maxPos)
	if curveType == "A03" {
		last, ok := 0.0, false
		for pos := 1; pos <= maxPos; pos++ {
			if v, found := byPos[pos]; found {
				last, ok = v, true
			}
			if ok {
				out[pos-1] = last
			}
		}
		return out
	}
	for pos, v := range byPos {
		out[pos-1] = v
	}
	return out
}

func periodStart(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"2006-01-02T15:04Z07:00", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// localHourExists reports whether hour h occurs on day's date, which is
// false for the hour skipped by the spring clock change.
func localHourExists(day time.Time, h int) bool {
	return time.Date(day.Year(), day.Month(), day.Day(), h, 0, 0, 0, day.Location()).Hour() == h
}

func pointsPerHour(resolution string) (int, error) {
	switch strings.TrimSpace(resolution) {
	case "PT15M":
		return 4, nil
	case "PT30M":
		return 2, nil
	case "PT60M", "PT1H", "":
		return 1, nil
	default:
		return 0, fmt.Errorf("unsupported resolution %q", resolution)
	}
}

func warsaw() *time.Location {
	loc, err := time.LoadLocation("Europe/Warsaw")
	if err != nil {
		return time.UTC
	}
	return loc
}
