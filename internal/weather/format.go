// Copyright 2025 The Weather MCP Authors. All rights reserved.
// Use of this source code is governed by a Apache-2.0
// license that can be found in the LICENSE file.

package weather

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	// Separator joins formatted alert and forecast blocks.
	Separator = "\n---\n"
	// MaxPeriods is how many forecast periods are rendered; the rest are dropped.
	MaxPeriods = 5
)

// Placeholders for alert fields the upstream omitted.
const (
	unknownField   = "Unknown"
	noDescription  = "No description available."
	noInstructions = "No specific instructions provided."
)

// nullText stands in for forecast period fields the upstream sent as null.
const nullText = "None"

// Required forecast period fields.
const (
	fieldName             = "name"
	fieldTemperature      = "temperature"
	fieldTemperatureUnit  = "temperatureUnit"
	fieldWindSpeed        = "windSpeed"
	fieldWindDirection    = "windDirection"
	fieldDetailedForecast = "detailedForecast"
)

// MissingFieldError reports a forecast period without one of its required
// fields. It fails the tool call that hit it.
type MissingFieldError struct {
	Index int    // position in the periods list
	Field string // empty when the period is not a JSON object
}

func (e *MissingFieldError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("forecast period %d is not an object", e.Index)
	}
	return fmt.Sprintf("forecast period %d: missing required field %q", e.Index, e.Field)
}

// FormatAlert renders one alert feature as a labeled text block. Missing
// properties, or a missing properties object, fall back to placeholders.
func FormatAlert(feature map[string]any) string {
	props, _ := feature["properties"].(map[string]any)
	return fmt.Sprintf("\nEvent: %s\nArea: %s\nSeverity: %s\nDescription: %s\nInstruction: %s\n",
		stringOr(props, "event", unknownField),
		stringOr(props, "areaDesc", unknownField),
		stringOr(props, "severity", unknownField),
		stringOr(props, "description", noDescription),
		stringOr(props, "instruction", noInstructions),
	)
}

// FormatForecast renders the first MaxPeriods periods, in order, joined by
// Separator. Fewer periods are fine; an empty list renders as "".
func FormatForecast(periods []any) (string, error) {
	n := min(len(periods), MaxPeriods)
	blocks := make([]string, 0, n)
	for i, p := range periods[:n] {
		period, ok := p.(map[string]any)
		if !ok {
			return "", &MissingFieldError{Index: i}
		}
		block, err := formatPeriod(i, period)
		if err != nil {
			return "", err
		}
		blocks = append(blocks, block)
	}
	return strings.Join(blocks, Separator), nil
}

func formatPeriod(i int, period map[string]any) (string, error) {
	var vals [6]string
	for j, field := range []string{
		fieldName,
		fieldTemperature,
		fieldTemperatureUnit,
		fieldWindSpeed,
		fieldWindDirection,
		fieldDetailedForecast,
	} {
		v, ok := period[field]
		if !ok {
			return "", &MissingFieldError{Index: i, Field: field}
		}
		vals[j] = text(v)
	}
	return fmt.Sprintf("\n%s:\nTemperature: %s°%s\nWind: %s %s\nForecast: %s\n",
		vals[0], vals[1], vals[2], vals[3], vals[4], vals[5]), nil
}

// stringOr returns m[key] as text, or fallback when the key is absent or null.
func stringOr(m map[string]any, key, fallback string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return fallback
	}
	return text(v)
}

// text renders a decoded JSON value the way it appeared upstream. A JSON
// null renders as None.
func text(v any) string {
	switch v := v.(type) {
	case nil:
		return nullText
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}
