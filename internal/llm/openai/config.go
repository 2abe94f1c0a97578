package openai

import "time"

// Config selects the provider endpoint and model. It is threaded in
// explicitly so a batch run is fully reproducible from its inputs.
type Config struct {
	BaseURL     string
	Model       string
	APIKey      string
	Temperature float32
	Timeout     time.Duration
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.Timeout <= 0 {
		c.Timeout = 45 * time.Second
	}
	return c
}
