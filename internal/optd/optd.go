// Package optd is the HTTP daemon: it loads an option chain once and
// serves simulations over the REST API until interrupted.
package optd

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"optbt/api"
	"optbt/chain"
)

func Run(args []string) int {
	flags := flag.NewFlagSet("optd", flag.ContinueOnError)
	flags.SetOutput(os.Stderr)

	var (
		serve    bool
		dataPath string
		port     int
	)

	flags.BoolVar(&serve, "serve", false, "run the HTTP API server")
	flags.StringVar(&dataPath, "data", "", "option chain CSV path")
	flags.IntVar(&port, "port", 19530, "HTTP listen port")

	if err := flags.Parse(args); err != nil {
		return 2
	}

	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if dataPath == "" {
		log.Println("[ERROR] -data is required")
		return 2
	}

	data, err := chain.FromCSV(dataPath)
	if err != nil {
		log.Printf("[ERROR] load chain data: %v\n", err)
		return 1
	}
	log.Printf("[DATA] %s: %d quotes, symbols %v\n", dataPath, len(data), data.Symbols())

	server := api.NewServer(data, port)
	go func() {
		if err := server.Start(); err != nil {
			log.Printf("[ERROR] HTTP server failed: %v\n", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("shutting down...")
	if err := server.Shutdown(); err != nil {
		log.Printf("[WARN] shutdown: %v\n", err)
	}
	log.Println("stopped")
	return 0
}
