// Package main is the entry point for the authgatewayd command.
package main

import (
	"github.com/mcp-gateway-registry/core/cmd/authgatewayd/app"
	"github.com/mcp-gateway-registry/core/pkg/logger"
)

func main() {
	logger.Initialize()

	if err := app.NewRootCmd().Execute(); err != nil {
		logger.Fatalf("%v", err)
	}
}
