package main

import (
	"log"

	"github.com/noro/vault-core/internal/cli"
)

func main() {
	if err := cli.MustInitialize(); err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}

	if err := cli.Execute(); err != nil {
		log.Fatalf("Command execution failed: %v", err)
	}
}
