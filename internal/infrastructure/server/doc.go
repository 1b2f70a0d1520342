// Package server assembles the widget service: configuration, logging,
// metrics, tracing, the data store, dashboards, the sandbox pool and the gin
// router with its middleware and handlers.
//
//	srv, err := server.NewServer(config.LoadOrDefault())
//	if err != nil { ... }
//	defer srv.Close()
//	err = srv.Run(ctx)
package server
