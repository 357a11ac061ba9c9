package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-ai/assistant-core/pkg/logger"
)

type staticEnricher struct {
	name  string
	label string
	block string
}

func (e staticEnricher) Name() string  { return e.name }
func (e staticEnricher) Label() string { return e.label }
func (e staticEnricher) Enrich(ctx context.Context, query, assistantType string) string {
	return e.block
}

type panickyEnricher struct{}

func (panickyEnricher) Name() string  { return "panicky" }
func (panickyEnricher) Label() string { return "PANIC:" }
func (panickyEnricher) Enrich(ctx context.Context, query, assistantType string) string {
	panic("boom")
}

func TestComposite_ConcatenatesLabeledSections(t *testing.T) {
	c := NewComposite(logger.NewNop(),
		staticEnricher{name: "a", label: "ALPHA:", block: "one"},
		staticEnricher{name: "b", label: "BETA:", block: ""},
		staticEnricher{name: "c", label: "GAMMA:", block: "three"},
	)

	got := c.Enrich(context.Background(), "q", "universal")

	assert.Equal(t, "ALPHA: one\n\nGAMMA: three", got)
}

func TestComposite_EmptyWhenNothingContributes(t *testing.T) {
	c := NewComposite(logger.NewNop(), staticEnricher{name: "a", label: "A:"})
	assert.Empty(t, c.Enrich(context.Background(), "q", "universal"))
}

func TestComposite_PanickingEnricherContributesNothing(t *testing.T) {
	c := NewComposite(logger.NewNop(),
		panickyEnricher{},
		staticEnricher{name: "a", label: "ALPHA:", block: "one"},
	)

	got := c.Enrich(context.Background(), "q", "universal")

	assert.Equal(t, "ALPHA: one", got)
}

func TestMarketEnricher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/quotes/BTC", r.URL.Path)
		w.Write([]byte(`{"symbol":"BTC","price":65000.5}`))
	}))
	defer srv.Close()

	e := NewMarketEnricher(srv.URL)

	got := e.Enrich(context.Background(), "what is the bitcoin price", "business_finance")
	assert.Equal(t, "BTC: $65000.50", got)

	assert.Empty(t, e.Enrich(context.Background(), "bitcoin price", "aviation"),
		"market data only attaches to finance queries")
	assert.Empty(t, e.Enrich(context.Background(), "stock market outlook", "business_finance"),
		"no recognized symbol means no block")
}

func TestFlightEnricher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/aircraft/N628TS/position", r.URL.Path)
		w.Write([]byte(`{"tail":"N628TS","latitude":37.6213,"longitude":-122.379,"altitude_ft":38000,"ground_speed_kt":480,"on_ground":false}`))
	}))
	defer srv.Close()

	e := NewFlightEnricher(srv.URL)

	got := e.Enrich(context.Background(), "Where is N628TS now?", "aviation")
	assert.Equal(t, "N628TS is airborne at 37.6213, -122.3790, 38000 ft, 480 kt", got)

	assert.Empty(t, e.Enrich(context.Background(), "Where is N628TS now?", "universal"),
		"flight position only attaches for the aviation specialist")
	assert.Empty(t, e.Enrich(context.Background(), "where is my flight", "aviation"),
		"no tail number, no lookup")
}

func TestFlightEnricher_OnGround(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tail":"N628TS","latitude":33.9425,"longitude":-118.408,"on_ground":true}`))
	}))
	defer srv.Close()

	e := NewFlightEnricher(srv.URL)

	got := e.Enrich(context.Background(), "track N628TS", "aviation")
	assert.Equal(t, "N628TS is on the ground at 33.9425, -118.4080", got)
}

func TestEnrichers_BackendFailureYieldsEmptyBlock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	assert.Empty(t, NewFlightEnricher(srv.URL).Enrich(context.Background(), "track N628TS", "aviation"))
	assert.Empty(t, NewMarketEnricher(srv.URL).Enrich(context.Background(), "bitcoin", "business_finance"))
	assert.Empty(t, NewWeatherEnricher(srv.URL).Enrich(context.Background(), "weather in Austin", "universal"))
	assert.Empty(t, NewNewsEnricher(srv.URL).Enrich(context.Background(), "markets", "business_finance"))
}

func TestNewsEnricher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"headlines":["first","second"]}`))
	}))
	defer srv.Close()

	e := NewNewsEnricher(srv.URL)

	got := e.Enrich(context.Background(), "market news", "research_knowledge")
	assert.Equal(t, "- first\n- second", got)
}

func TestWeatherEnricher_OnlyForWeatherWording(t *testing.T) {
	e := NewWeatherEnricher("http://unreachable.invalid")
	assert.Empty(t, e.Enrich(context.Background(), "tell me a joke", "universal"))
}
