// Package server runs an http.Handler with production timeouts and graceful
// shutdown.
//
//	srv, err := server.NewFromConfig(cfg, server.WithLogger(log))
//	if err != nil {
//		return err
//	}
//	return srv.Run(ctx, adapter.New(h, nil))
//
// Run blocks until ctx is canceled, then stops accepting connections and waits
// up to the shutdown timeout for in-flight requests, including streaming
// responses, to finish. Config is loaded from PAGEKIT_SERVER_* variables.
package server
