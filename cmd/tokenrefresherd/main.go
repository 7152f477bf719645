// Package main is the entry point for the tokenrefresherd command.
package main

import (
	"github.com/mcp-gateway-registry/core/cmd/tokenrefresherd/app"
	"github.com/mcp-gateway-registry/core/pkg/logger"
)

func main() {
	logger.Initialize()

	if err := app.NewRootCmd().Execute(); err != nil {
		logger.Fatalf("%v", err)
	}
}
