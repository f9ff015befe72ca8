package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Cookie is the session cookie string copied from an authenticated
	// browser session ("name=value; name2=value2").
	Cookie string `envconfig:"COOKIE_JAR"`

	BaseURL           string        `envconfig:"RCO_BASE_URL" default:"https://app.rendacomopcoes.com.br"`
	OpportunitiesPath string        `envconfig:"RCO_OPPORTUNITIES_PATH" default:"/opportunities/__data.json"`
	PricesPath        string        `envconfig:"RCO_PRICES_PATH" default:"/api/assets/{ticker}/history"`
	HTTPTimeout       time.Duration `envconfig:"RCO_HTTP_TIMEOUT" default:"30s"`

	MetricsEnabled bool `envconfig:"METRICS_ENABLED" default:"true"`
	// MetricsFile, when set, receives a Prometheus text dump after each run.
	MetricsFile string `envconfig:"RCO_METRICS_FILE"`

	LogLevel    string `envconfig:"LOG_LEVEL" default:"warn"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"console"`
	Environment string `envconfig:"ENVIRONMENT" default:"production"`

	MockAPIAddr     string `envconfig:"MOCKAPI_ADDR" default:"127.0.0.1:8089"`
	MockAPIFixtures string `envconfig:"MOCKAPI_FIXTURES" default:"./fixtures"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("erro ao carregar configuração: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Development() bool {
	return c.Environment == "development"
}
