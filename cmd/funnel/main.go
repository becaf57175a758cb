package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"github.com/crowdchess/backend/internal/clog"
	"github.com/crowdchess/backend/internal/config"
	"github.com/crowdchess/backend/internal/funnel"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "USAGE: %s <config.toml>\n", os.Args[0])
		os.Exit(1)
	}

	log := clog.New("funnel")

	cfg, err := config.LoadFunnelConfig(os.Args[1])
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	var upstream funnel.Upstream
	if cfg.UpstreamIsWebsocket {
		upstream, err = funnel.DialWebsocketUpstream(cfg.Upstream)
	} else {
		upstream, err = funnel.DialLineUpstream(cfg.Upstream)
	}
	if err != nil {
		log.Fatalf("connecting to upstream: %v", err)
	}

	scheduler := funnel.NewVoteScheduler(
		time.Duration(cfg.VoteLengthMS)*time.Millisecond,
		time.Duration(cfg.VoteTimeoutMS)*time.Millisecond,
		time.Duration(cfg.TimeoutChangeMS)*time.Millisecond,
		cfg.StartVote,
	)

	f := funnel.New(log, upstream, scheduler)

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warnf("websocket upgrade failed: %v", err)
			return
		}
		f.Accept(conn)
	})

	go func() {
		if err := http.ListenAndServe(cfg.Host, nil); err != nil {
			log.Fatalf("client listener: %v", err)
		}
	}()

	if err := f.Run(); err != nil {
		log.Fatalf("%v", err)
	}
}
