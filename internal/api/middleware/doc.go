// Package middleware holds the gin middleware in front of the widget API.
//
//   - CORS: dashboard pages on other origins may call the data endpoints
//   - RateLimit: per-IP token buckets, idle clients are swept
//   - GlobalRateLimit: one bucket for the whole service
//
// Rejected requests get a 429 with the same message body action endpoints use.
//
//	router.Use(middleware.CORS([]string{"https://dash.example"}))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
