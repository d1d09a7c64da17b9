// Package config loads service configuration with Viper.
//
// A YAML file is read first, then a .env file (godotenv) and the process
// environment override it. Environment keys map onto nested config keys by
// underscores: with prefix STREAMD, STREAMD_SERVER_PORT sets server.port.
//
//	var cfg streamdConfig
//	err := config.Load("streamd", &cfg, config.WithEnvPrefix("STREAMD"))
//
// Load applies defaults and validates when the target implements Defaulter
// and Validator.
package config
