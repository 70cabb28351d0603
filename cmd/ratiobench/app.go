package main

import (
	"fmt"
	"time"

	"github.com/seenimoa/ratiobench/internal/config"
	"github.com/seenimoa/ratiobench/internal/datasource"
	"github.com/seenimoa/ratiobench/internal/search"
	"github.com/seenimoa/ratiobench/internal/service"
)

// buildSources creates the configured data sources in fallback order.
func buildSources(ds config.DataSourceConfig) ([]datasource.FactsSource, error) {
	opts := datasource.Options{
		Timeout:   time.Duration(ds.TimeoutSec) * time.Second,
		UserAgent: ds.UserAgent,
		RateLimit: ds.RateLimit,
	}

	var sources []datasource.FactsSource
	for _, name := range ds.Sources() {
		switch name {
		case "yfinance":
			sources = append(sources, datasource.NewYFinance(opts))
		case "screener":
			sources = append(sources, datasource.NewScreener(opts, ds.ScreenerURL))
		default:
			return nil, fmt.Errorf("unknown data source %q", name)
		}
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no data source configured")
	}
	return sources, nil
}

// newComparer wires the comparison service from cfg. The returned function
// releases the company directory.
func newComparer(cfg *config.Config) (*service.Comparer, func(), error) {
	sources, err := buildSources(cfg.DataSource)
	if err != nil {
		return nil, nil, err
	}
	dir, err := search.Default()
	if err != nil {
		return nil, nil, fmt.Errorf("build company directory: %w", err)
	}

	comparer := service.NewComparer(service.Config{
		Aggregator: datasource.NewAggregator(cfg.DataSource.ConcurrentFetches, sources...),
		Directory:  dir,
	})
	return comparer, func() { dir.Close() }, nil
}
