package specialist

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/meridian-ai/assistant-core/internal/driver"
	"github.com/meridian-ai/assistant-core/internal/model"
)

var toolHTTPClient = &http.Client{Timeout: 10 * time.Second}

func toolGet(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := toolHTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	return string(body), nil
}

// FlightTools returns the aviation toolset against the flight data API.
func FlightTools(baseURL string) []driver.Tool {
	return []driver.Tool{
		{
			Decl: model.ToolDecl{
				Name:        "get_flight_position",
				Description: "Get the current position of an aircraft by its registration (tail number).",
				InputSchema: model.InputSchema{
					Type: "object",
					Properties: map[string]model.SchemaProperty{
						"flight_id": {Type: "string", Description: "Aircraft registration, e.g. N628TS"},
					},
					Required: []string{"flight_id"},
				},
			},
			Execute: func(ctx context.Context, input json.RawMessage) (string, error) {
				var args struct {
					FlightID string `json:"flight_id"`
				}
				if err := json.Unmarshal(input, &args); err != nil {
					return "", fmt.Errorf("invalid input: %w", err)
				}
				if args.FlightID == "" {
					return "", fmt.Errorf("flight_id is required")
				}
				return toolGet(ctx, fmt.Sprintf("%s/v1/aircraft/%s/position", baseURL, url.PathEscape(args.FlightID)))
			},
		},
		{
			Decl: model.ToolDecl{
				Name:        "get_airport_info",
				Description: "Get basic information about an airport by its ICAO or IATA code.",
				InputSchema: model.InputSchema{
					Type: "object",
					Properties: map[string]model.SchemaProperty{
						"code": {Type: "string", Description: "Airport code, e.g. KSFO or SFO"},
					},
					Required: []string{"code"},
				},
			},
			Execute: func(ctx context.Context, input json.RawMessage) (string, error) {
				var args struct {
					Code string `json:"code"`
				}
				if err := json.Unmarshal(input, &args); err != nil {
					return "", fmt.Errorf("invalid input: %w", err)
				}
				return toolGet(ctx, fmt.Sprintf("%s/v1/airports/%s", baseURL, url.PathEscape(args.Code)))
			},
		},
	}
}

// F1Tools returns the motorsport toolset against the F1 data API.
func F1Tools(baseURL string) []driver.Tool {
	return []driver.Tool{
		{
			Decl: model.ToolDecl{
				Name:        "get_f1_standings",
				Description: "Get the current Formula 1 championship standings.",
				InputSchema: model.InputSchema{
					Type: "object",
					Properties: map[string]model.SchemaProperty{
						"kind": {Type: "string", Description: "Which standings to fetch", Enum: []string{"drivers", "constructors"}},
					},
					Required: []string{"kind"},
				},
			},
			Execute: func(ctx context.Context, input json.RawMessage) (string, error) {
				var args struct {
					Kind string `json:"kind"`
				}
				if err := json.Unmarshal(input, &args); err != nil {
					return "", fmt.Errorf("invalid input: %w", err)
				}
				return toolGet(ctx, fmt.Sprintf("%s/v1/f1/standings/%s", baseURL, url.PathEscape(args.Kind)))
			},
		},
		{
			Decl: model.ToolDecl{
				Name:        "get_f1_next_race",
				Description: "Get the next Formula 1 race weekend schedule.",
				InputSchema: model.InputSchema{Type: "object"},
			},
			Execute: func(ctx context.Context, input json.RawMessage) (string, error) {
				return toolGet(ctx, baseURL+"/v1/f1/next-race")
			},
		},
	}
}

// BuiltinDefinitions returns the specialist definitions for the configured
// mode. Legacy subject specialists are included only when their flag is set.
func BuiltinDefinitions(flightAPI, f1API string, legacyEnabled func(name string) bool) []Definition {
	defs := []Definition{
		{Name: "aviation", SystemPrompt: aviationPrompt, Tools: FlightTools(flightAPI)},
		{Name: "formula1", SystemPrompt: formula1Prompt, Tools: F1Tools(f1API)},
		{Name: "business_finance", SystemPrompt: businessFinancePrompt},
		{Name: "universal", SystemPrompt: universalPrompt},
		{Name: "research_knowledge", SystemPrompt: researchPrompt},
	}

	legacy := []Definition{
		{Name: "math", SystemPrompt: mathPrompt},
		{Name: "english", SystemPrompt: englishPrompt},
		{Name: "aws", SystemPrompt: awsPrompt},
		{Name: "legal", SystemPrompt: legalPrompt},
	}
	for _, def := range legacy {
		if legacyEnabled(def.Name) {
			defs = append(defs, def)
		}
	}

	return defs
}

// ToolIndex builds the name-to-tool map handed to the agent constructor.
func ToolIndex(defs []Definition) map[string]driver.Tool {
	index := make(map[string]driver.Tool)
	for _, def := range defs {
		for _, t := range def.Tools {
			index[t.Decl.Name] = t
		}
	}
	return index
}
