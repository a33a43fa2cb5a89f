package config

import (
	"fmt"

	"github.com/klingnet-sim/ledgersim/pkg/tx"
	"github.com/klingnet-sim/ledgersim/pkg/types"
)

// Validate checks a node config for obvious operator mistakes. The
// protocol.* fields are not tunable: they record the values the wire
// format and block structure already fix, and Validate rejects a config
// that disagrees with them rather than silently applying a mismatched
// coinbase sentinel or genesis link.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.NodeID == "" {
		return fmt.Errorf("node.id must not be empty")
	}
	if cfg.Consensus.Engine != EnginePoW && cfg.Consensus.Engine != EngineRoundRobin {
		return fmt.Errorf("consensus.engine must be %q or %q", EnginePoW, EngineRoundRobin)
	}
	if cfg.Consensus.Difficulty < 1 {
		return fmt.Errorf("consensus.difficulty must be >= 1")
	}
	if cfg.Consensus.MinDifficulty > cfg.Consensus.MaxDifficulty {
		return fmt.Errorf("consensus.min_difficulty must be <= consensus.max_difficulty")
	}
	if cfg.Mining.BlockReward < 0 {
		return fmt.Errorf("mining.block_reward must be >= 0")
	}
	if cfg.Mempool.MaxSize < 1 {
		return fmt.Errorf("mempool.max_size must be >= 1")
	}
	if cfg.Network.ListenPort < 0 || cfg.Network.ListenPort > 65535 {
		return fmt.Errorf("network.port must be in range [0, 65535]")
	}
	if cfg.Network.DropProb < 0 || cfg.Network.DropProb > 1 {
		return fmt.Errorf("network.drop_prob must be in range [0, 1]")
	}
	if cfg.Mining.Enabled && cfg.Mining.Address == "" {
		return fmt.Errorf("mining.address is required when mining.enabled is true")
	}

	if cfg.Protocol.CoinbaseSender != string(tx.CoinbaseSender) {
		return fmt.Errorf("protocol.coinbase_sender must be %q", tx.CoinbaseSender)
	}
	if cfg.Protocol.GenesisPrevHash != (types.Hash{}).String() {
		return fmt.Errorf("protocol.genesis_prev_hash must be %q", (types.Hash{}).String())
	}

	return nil
}
