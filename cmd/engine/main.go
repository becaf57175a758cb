package main

import (
	"fmt"
	"os"

	"github.com/crowdchess/backend/internal/clog"
	"github.com/crowdchess/backend/internal/config"
	"github.com/crowdchess/backend/internal/engineserver"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "USAGE: %s <config.toml>\n", os.Args[0])
		os.Exit(1)
	}

	log := clog.New("engine")

	cfg, err := config.LoadEngineConfig(os.Args[1])
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	srv := engineserver.New(log)
	if err := srv.ListenAndServe(cfg.Host); err != nil {
		log.Fatalf("%v", err)
	}
}
