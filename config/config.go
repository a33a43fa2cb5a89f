// Package config handles node configuration for the ledger simulator.
//
// Configuration is split into two categories:
//   - Consensus rules: shared by every node in a run, fixed at genesis
//   - Node settings: per-process runtime configuration
package config

import (
	"os"
	"path/filepath"
)

// EngineKind selects which consensus engine a node runs.
type EngineKind string

const (
	EnginePoW        EngineKind = "pow"
	EngineRoundRobin EngineKind = "roundrobin"
)

// Config holds full node configuration: consensus parameters shared across
// the simulated network plus this process's own runtime settings.
type Config struct {
	// Core
	NodeID  string `conf:"node.id"`
	DataDir string `conf:"node.datadir"`

	Consensus ConsensusConfig
	Mempool   MempoolConfig
	Protocol  ProtocolConfig
	Network   NetworkConfig
	Mining    MiningConfig
	Log       LogConfig
}

// ConsensusConfig mirrors spec.md §6's Configuration options table for the
// block-sealing engine.
type ConsensusConfig struct {
	Engine             EngineKind `conf:"consensus.engine"`
	Difficulty         int        `conf:"consensus.difficulty"`
	TargetBlockTime    int        `conf:"consensus.target_block_time"` // seconds
	AdjustmentInterval int        `conf:"consensus.adjustment_interval"`
	EnableAdjustment   bool       `conf:"consensus.enable_adjustment"`
	MinDifficulty      int        `conf:"consensus.min_difficulty"`
	MaxDifficulty      int        `conf:"consensus.max_difficulty"`
}

// MempoolConfig bounds the pending-transaction pool.
type MempoolConfig struct {
	MaxSize int `conf:"mempool.max_size"`
	Expiry  int `conf:"mempool.expiry"` // seconds
}

// ProtocolConfig holds the values spec.md §6 lists alongside the tunable
// consensus parameters but which are in fact fixed by the wire format and
// block structure (pkg/tx.CoinbaseSender, the all-zero genesis prev_hash).
// They are surfaced here so an operator's config file is validated against
// them rather than silently ignored; see Validate.
type ProtocolConfig struct {
	CoinbaseSender  string `conf:"protocol.coinbase_sender"`
	GenesisPrevHash string `conf:"protocol.genesis_prev_hash"`
}

// NetworkConfig holds this node's gossip listener and initial peers.
type NetworkConfig struct {
	ListenAddr string   `conf:"network.listen"`
	ListenPort int      `conf:"network.port"`
	Seeds      []string `conf:"network.seeds"`
	DropProb   float64  `conf:"network.drop_prob"`
	DelayMs    int      `conf:"network.delay_ms"`
}

// MiningConfig holds per-node mining behaviour. AutoMine* are supplemental
// to spec.md's Configuration table (see internal/node.Controller).
type MiningConfig struct {
	Enabled           bool    `conf:"mining.enabled"`
	Address           string  `conf:"mining.address"`
	BlockReward       float64 `conf:"mining.block_reward"`
	MaxTxPerBlock     int     `conf:"mining.max_tx_per_block"`
	AutoMineEnabled   bool    `conf:"mining.auto_mine_enabled"`
	AutoMineThreshold int     `conf:"mining.auto_mine_threshold"`
}

// LogConfig holds logging settings, same shape as the teacher's.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// DefaultDataDir returns the default data directory for node state.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ledgersim"
	}
	return filepath.Join(home, ".ledgersim")
}

// NodeDataDir returns the data directory for this node's id.
func (c *Config) NodeDataDir() string {
	return filepath.Join(c.DataDir, c.NodeID)
}

// ConfigFile returns the path of the per-node config file.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.NodeDataDir(), "node.conf")
}
