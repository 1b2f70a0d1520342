/*
Package monitoring provides Prometheus metrics for the widget service.

Tracked:
  - HTTP requests served (count, latency, response size)
  - widgets built, by kind
  - widget data fetches, by kind and outcome
  - notifications displayed, by type
  - data source queries, by table and format

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	timer := monitoring.NewTimer(metrics, "bar")
	// ... fetch ...
	timer.Stop("success")
*/
package monitoring
