// Package config provides type-safe environment variable loading with caching
// using Go generics. Each configuration type is loaded once and cached for
// subsequent calls.
//
// A .env file in the working directory is loaded on first use, then
// github.com/caarlos0/env parses the environment into struct fields:
//
//	var cfg request.Config
//	config.MustLoad(&cfg)
//
//	h, err := request.NewHandlerFromConfig(cfg, table, renderer)
//
// Failures wrap ErrParsingConfig. Errors are not cached, so a failed load can be
// retried after fixing the environment.
package config
