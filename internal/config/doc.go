// Package config loads the testagent client configuration.
//
// Precedence, highest first:
//  1. command-line flags (applied by cmd)
//  2. TESTAGENT_* environment variables, including ones from a .env file
//  3. ~/.config/testagent/config.yaml
//  4. built-in defaults
//
// Example config.yaml:
//
//	backend:
//	  url: https://testing-agent.example.com
//	  timeout: 10m
//	output: table
//	logLevel: info
package config
