// Package logger provides structured logging for streamkit services
// using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers carrying structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.WithComponent("registry")
//	log.Info("channel created", logger.Fields("channel", key))
package logger
