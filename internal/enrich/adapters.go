package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// httpTimeout bounds every outbound enrichment call.
const httpTimeout = 10 * time.Second

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// fetchJSON performs a GET and decodes the body into out. Any failure is
// reported as an error; adapters translate errors into empty blocks.
func fetchJSON(ctx context.Context, client *http.Client, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// MarketEnricher contributes live crypto and stock prices for finance queries.
type MarketEnricher struct {
	BaseURL string
	client  *http.Client
}

// NewMarketEnricher creates a market data enricher.
func NewMarketEnricher(baseURL string) *MarketEnricher {
	return &MarketEnricher{BaseURL: baseURL, client: newHTTPClient()}
}

func (e *MarketEnricher) Name() string  { return "market" }
func (e *MarketEnricher) Label() string { return "MARKET DATA:" }

var cryptoSymbols = map[string]string{
	"bitcoin": "BTC", "btc": "BTC",
	"ethereum": "ETH", "eth": "ETH",
	"solana": "SOL", "dogecoin": "DOGE",
}

func (e *MarketEnricher) Enrich(ctx context.Context, query, assistantType string) string {
	if assistantType != "business_finance" && assistantType != "universal" {
		return ""
	}

	lower := strings.ToLower(query)
	var symbols []string
	seen := map[string]struct{}{}
	for kw, sym := range cryptoSymbols {
		if strings.Contains(lower, kw) {
			if _, ok := seen[sym]; !ok {
				symbols = append(symbols, sym)
				seen[sym] = struct{}{}
			}
		}
	}
	if len(symbols) == 0 {
		return ""
	}

	var lines []string
	for _, sym := range symbols {
		var quote struct {
			Symbol string  `json:"symbol"`
			Price  float64 `json:"price"`
		}
		u := fmt.Sprintf("%s/v1/quotes/%s", e.BaseURL, url.PathEscape(sym))
		if err := fetchJSON(ctx, e.client, u, &quote); err != nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: $%.2f", quote.Symbol, quote.Price))
	}
	return strings.Join(lines, "\n")
}

// FlightEnricher contributes live aircraft positions for aviation queries.
type FlightEnricher struct {
	BaseURL string
	client  *http.Client
}

// NewFlightEnricher creates a flight position enricher.
func NewFlightEnricher(baseURL string) *FlightEnricher {
	return &FlightEnricher{BaseURL: baseURL, client: newHTTPClient()}
}

func (e *FlightEnricher) Name() string  { return "flight" }
func (e *FlightEnricher) Label() string { return "FLIGHT POSITION:" }

var tailNumberRe = regexp.MustCompile(`\b(N[0-9][0-9A-Z]{2,})\b`)

func (e *FlightEnricher) Enrich(ctx context.Context, query, assistantType string) string {
	if assistantType != "aviation" {
		return ""
	}

	match := tailNumberRe.FindStringSubmatch(strings.ToUpper(query))
	if match == nil {
		return ""
	}
	tail := match[1]

	var pos struct {
		Tail      string  `json:"tail"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Altitude  int     `json:"altitude_ft"`
		Speed     int     `json:"ground_speed_kt"`
		OnGround  bool    `json:"on_ground"`
	}
	u := fmt.Sprintf("%s/v1/aircraft/%s/position", e.BaseURL, url.PathEscape(tail))
	if err := fetchJSON(ctx, e.client, u, &pos); err != nil {
		return ""
	}

	if pos.OnGround {
		return fmt.Sprintf("%s is on the ground at %.4f, %.4f", tail, pos.Latitude, pos.Longitude)
	}
	return fmt.Sprintf("%s is airborne at %.4f, %.4f, %d ft, %d kt",
		tail, pos.Latitude, pos.Longitude, pos.Altitude, pos.Speed)
}

// WeatherEnricher contributes current conditions when a query mentions weather.
type WeatherEnricher struct {
	BaseURL string
	client  *http.Client
}

// NewWeatherEnricher creates a weather enricher.
func NewWeatherEnricher(baseURL string) *WeatherEnricher {
	return &WeatherEnricher{BaseURL: baseURL, client: newHTTPClient()}
}

func (e *WeatherEnricher) Name() string  { return "weather" }
func (e *WeatherEnricher) Label() string { return "WEATHER:" }

func (e *WeatherEnricher) Enrich(ctx context.Context, query, assistantType string) string {
	lower := strings.ToLower(query)
	if !strings.Contains(lower, "weather") && !strings.Contains(lower, "temperature") &&
		!strings.Contains(lower, "forecast") {
		return ""
	}

	var report struct {
		Location   string  `json:"location"`
		Conditions string  `json:"conditions"`
		TempC      float64 `json:"temp_c"`
	}
	u := fmt.Sprintf("%s/v1/weather?q=%s", e.BaseURL, url.QueryEscape(query))
	if err := fetchJSON(ctx, e.client, u, &report); err != nil {
		return ""
	}
	return fmt.Sprintf("%s: %s, %.1f C", report.Location, report.Conditions, report.TempC)
}

// NewsEnricher contributes recent headlines for research and finance queries.
type NewsEnricher struct {
	BaseURL string
	client  *http.Client
}

// NewNewsEnricher creates a news headline enricher.
func NewNewsEnricher(baseURL string) *NewsEnricher {
	return &NewsEnricher{BaseURL: baseURL, client: newHTTPClient()}
}

func (e *NewsEnricher) Name() string  { return "news" }
func (e *NewsEnricher) Label() string { return "RECENT HEADLINES:" }

func (e *NewsEnricher) Enrich(ctx context.Context, query, assistantType string) string {
	if assistantType != "research_knowledge" && assistantType != "business_finance" {
		return ""
	}

	var result struct {
		Headlines []string `json:"headlines"`
	}
	u := fmt.Sprintf("%s/v1/news?q=%s&limit=3", e.BaseURL, url.QueryEscape(query))
	if err := fetchJSON(ctx, e.client, u, &result); err != nil {
		return ""
	}
	if len(result.Headlines) == 0 {
		return ""
	}
	return "- " + strings.Join(result.Headlines, "\n- ")
}
