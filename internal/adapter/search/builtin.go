package search

import (
	"net/http"

	"github.com/xiaot623/legalflow/internal/config"
)

func init() {
	MustRegister("tavily", func(cfg config.SearchConfig) (Provider, error) {
		return NewTavily(TavilyOptions{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			MaxResults: cfg.MaxResults,
			Depth:      cfg.Depth,
			Topic:      cfg.Topic,
			TimeRange:  cfg.TimeRange,
			Client:     &http.Client{Timeout: cfg.Timeout},
		}), nil
	})
	MustRegister("mock", func(cfg config.SearchConfig) (Provider, error) {
		return NewMock(cfg.MaxResults), nil
	})
}
