package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	ProductListRequestsTotal  metric.Int64Counter
	StoreQueryDurationSeconds metric.Float64Histogram
	StoreQueryErrorsTotal     metric.Int64Counter
	BlobDeleteFailuresTotal   metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metric instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("CatalogAPI")
		var err error
		m := &AppMetrics{}

		m.ProductListRequestsTotal, err = meter.Int64Counter(
			"product_list_requests_total",
			metric.WithDescription("Total number of product listing requests completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create product_list_requests_total: %v", err)
		}

		m.StoreQueryDurationSeconds, err = meter.Float64Histogram(
			"store_query_duration_seconds",
			metric.WithDescription("Duration of document store queries in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create store_query_duration_seconds: %v", err)
		}

		m.StoreQueryErrorsTotal, err = meter.Int64Counter(
			"store_query_errors_total",
			metric.WithDescription("Total number of document store query errors"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create store_query_errors_total: %v", err)
		}

		m.BlobDeleteFailuresTotal, err = meter.Int64Counter(
			"blob_delete_failures_total",
			metric.WithDescription("Total number of best-effort blob deletions that failed"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create blob_delete_failures_total: %v", err)
		}

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

// Get returns the globally initialized AppMetrics instance.
// Panics if InitAppMetrics was not called first.
func Get() *AppMetrics {
	if appMetrics == nil {
		panic("metrics.InitAppMetrics must be called before metrics.Get")
	}
	return appMetrics
}
