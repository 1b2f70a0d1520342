/*
Package httpclient is the outbound client shared by the fetcher and the
notifier.

It layers resty over a go-retryablehttp transport, a token bucket limiter and
a circuit breaker per endpoint. The defaults match how widget pages behave in
a browser: one attempt per call, no explicit timeout, cancellation through the
context.

	client := httpclient.New(httpclient.Config{BaseURL: "http://localhost:8000"})
	resp, err := client.Get(ctx, "/api/data/users?as_chartjs=true&groupby=email,count")
*/
package httpclient
