package tools

import (
	"fmt"
	"strings"
	"time"
)

// The weather and time lookups are canned demo tools: only "new york"
// has data, matched case-insensitively. No network access.

const newYorkWeather = "The weather in New York is sunny with a temperature of 25 degrees" +
	" Celsius (77 degrees Fahrenheit)."

// GetWeather returns the weather report for a city.
func (t *Toolkit) GetWeather(city string) (string, error) {
	if strings.EqualFold(strings.TrimSpace(city), "new york") {
		return newYorkWeather, nil
	}
	return "", notFound("weather", "Weather information for '%s' is not available.", city)
}

// GetCurrentTime returns the current time report for a city.
func (t *Toolkit) GetCurrentTime(city string) (string, error) {
	if !strings.EqualFold(strings.TrimSpace(city), "new york") {
		return "", notFound("timezone", "Sorry, I don't have timezone information for %s.", city)
	}

	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return "", fmt.Errorf("load timezone: %w", err)
	}
	now := time.Now().In(loc)
	return fmt.Sprintf("The current time in %s is %s", city, now.Format("2006-01-02 15:04:05 MST-0700")), nil
}
