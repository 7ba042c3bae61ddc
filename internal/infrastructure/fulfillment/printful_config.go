package fulfillment

import (
	"errors"
	"net/url"
	"strings"
)

// PrintfulProductionAPIURL is the production API endpoint
const PrintfulProductionAPIURL = "https://api.printful.com"

// ErrPrintfulInvalidBaseURL indicates a base URL that is not absolute http(s)
var ErrPrintfulInvalidBaseURL = errors.New("printful: invalid API base URL")

// PrintfulConfig holds configuration for the Printful API client
type PrintfulConfig struct {
	// APIBaseURL is the base URL for the Printful API, overridable for tests
	APIBaseURL string
	// TimeoutSeconds bounds every outbound request
	TimeoutSeconds int
}

// NewPrintfulConfig creates a new Printful configuration with defaults
func NewPrintfulConfig() *PrintfulConfig {
	return &PrintfulConfig{
		APIBaseURL:     PrintfulProductionAPIURL,
		TimeoutSeconds: 30,
	}
}

// Validate validates the configuration and fills in defaults
func (c *PrintfulConfig) Validate() error {
	if c.APIBaseURL == "" {
		c.APIBaseURL = PrintfulProductionAPIURL
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrPrintfulInvalidBaseURL
	}
	c.APIBaseURL = strings.TrimRight(c.APIBaseURL, "/")
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}
