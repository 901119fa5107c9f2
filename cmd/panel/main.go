// Package main provides the entry point for the handoff panel.
package main

import (
	"fmt"
	"os"

	_ "github.com/tbourn/wa-handoff-panel/docs"
	"github.com/tbourn/wa-handoff-panel/internal/cli"
)

// @title                      WhatsApp Handoff Panel API
// @version                    1.0
// @description                Operator dashboard API: bot/human handoff, chats, manual replies and live notifications.
// @BasePath                   /api
// @securityDefinitions.apikey SessionToken
// @in                         header
// @name                       X-Auth-Token
// @securityDefinitions.apikey WorkflowToken
// @in                         header
// @name                       X-N8N-Token
func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
