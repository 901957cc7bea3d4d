package main

import (
	"os"

	"optbt/internal/optctl"
	"optbt/internal/optd"
)

// Version is injected by build scripts via -ldflags "-X main.Version=..."
var Version = "dev"

func main() {
	args := os.Args[1:]
	if shouldRouteToDaemon(args) {
		os.Exit(optd.Run(args))
	}
	os.Exit(optctl.Run(args))
}

func shouldRouteToDaemon(args []string) bool {
	for _, a := range args {
		if a == "-serve" || a == "--serve" {
			return true
		}
	}
	return false
}
