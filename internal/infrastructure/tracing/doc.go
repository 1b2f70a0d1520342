/*
Package tracing provides lightweight request tracing.

Each inbound request gets a span; finished spans are logged by a buffered
collector. Trace context travels in the X-Trace-ID and X-Span-ID headers, so a
widget fetch made while serving a request carries the same trace id upstream.

# Usage

	tracer := tracing.New("widgetkit", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "render dashboard")
	defer tracer.End(span)
*/
package tracing
