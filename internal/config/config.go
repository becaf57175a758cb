// Package config loads the TOML configuration files consumed by the funnel
// and engine binaries.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// FunnelConfig is the funnel process's configuration file.
type FunnelConfig struct {
	Host                string `toml:"host"`
	Upstream            string `toml:"upstream"`
	UpstreamIsWebsocket bool   `toml:"upstream_is_websocket"`
	VoteLengthMS        uint32 `toml:"vote_length"`
	VoteTimeoutMS       uint32 `toml:"vote_timeout"`
	TimeoutChangeMS     uint32 `toml:"timeout_change"`
	StartVote           bool   `toml:"start_vote"`
}

// EngineConfig is the engine process's configuration file.
type EngineConfig struct {
	Host string `toml:"host"`
}

// LoadFunnelConfig reads and decodes a FunnelConfig from path.
func LoadFunnelConfig(path string) (FunnelConfig, error) {
	var cfg FunnelConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FunnelConfig{}, fmt.Errorf("config: loading funnel config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadEngineConfig reads and decodes an EngineConfig from path.
func LoadEngineConfig(path string) (EngineConfig, error) {
	var cfg EngineConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return EngineConfig{}, fmt.Errorf("config: loading engine config %s: %w", path, err)
	}
	return cfg, nil
}
