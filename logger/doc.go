// Package logger provides structured logging for the Veldt SDK using
// zerolog.
//
// SDK components are silent unless the application hands them a logger.
// Loggers are component-scoped and support JSON and console output.
//
// # Usage
//
//	log := logger.NewDefault("veldt").WithComponent("transport")
//	log.Debug("sending request", logger.Fields("method", "GET"))
package logger
