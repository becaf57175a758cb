// Package engineserver implements the engine process's network side: a TCP
// listener that accepts exactly one connection and then drives a
// chess.Engine over a line-delimited JSON protocol.
package engineserver

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net"

	"github.com/crowdchess/backend/internal/chess"
	"github.com/crowdchess/backend/internal/clog"
	"github.com/crowdchess/backend/internal/wire"
)

// Server binds a listener and runs the engine's single-connection protocol
// loop against it.
type Server struct {
	engine *chess.Engine
	log    *clog.Logger
}

// New builds a Server wrapping a fresh chess.Engine.
func New(log *clog.Logger) *Server {
	return &Server{engine: chess.NewEngine(), log: log}
}

// ListenAndServe binds host, accepts the single connection it will ever
// serve, and runs the protocol loop to completion. Upstream I/O failure is
// process-fatal, since the engine is indispensable; ListenAndServe
// returns that error for the caller to treat as fatal rather than calling
// log.Fatal itself, keeping this package free of process-exit side effects.
func (s *Server) ListenAndServe(host string) error {
	ln, err := net.Listen("tcp", host)
	if err != nil {
		return fmt.Errorf("engineserver: listening on %s: %w", host, err)
	}
	defer ln.Close()

	s.log.Infof("listening on %s", host)

	conn, err := ln.Accept()
	if err != nil {
		return fmt.Errorf("engineserver: accepting connection: %w", err)
	}
	defer conn.Close()

	s.log.Infof("accepted connection from %s", conn.RemoteAddr())
	return s.serve(conn)
}

// serve runs the read-vote/apply/emit-state loop against conn until it is
// closed or a read or write fails. A malformed line is logged and skipped.
func (s *Server) serve(conn net.Conn) error {
	enc := json.NewEncoder(conn)
	reader := bufio.NewScanner(conn)
	reader.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if err := s.emitState(enc); err != nil {
		return err
	}

	for reader.Scan() {
		line := reader.Bytes()
		if len(line) == 0 {
			continue
		}

		var v wire.Vote
		if err := json.Unmarshal(line, &v); err != nil {
			s.log.Warnf("malformed vote, dropping: %v", err)
			continue
		}
		if v.Weight == 0 {
			continue
		}

		result := s.engine.Apply(v.Action)
		if !result.Accepted {
			continue
		}
		if err := s.emitState(enc); err != nil {
			return err
		}
	}
	if err := reader.Err(); err != nil && err != io.EOF {
		return fmt.Errorf("engineserver: reading from upstream: %w", err)
	}
	return nil
}

// emitState writes the engine's current StateChange as one JSON line.
func (s *Server) emitState(enc *json.Encoder) error {
	if err := enc.Encode(wire.StateChangeMessage(s.engine.State())); err != nil {
		return fmt.Errorf("engineserver: writing state change: %w", err)
	}
	return nil
}
