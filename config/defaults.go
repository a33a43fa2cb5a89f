package config

import (
	"github.com/klingnet-sim/ledgersim/pkg/tx"
	"github.com/klingnet-sim/ledgersim/pkg/types"
)

// Default returns the default node configuration. nodeID identifies this
// process on the gossip network.
func Default(nodeID string) *Config {
	return &Config{
		NodeID:  nodeID,
		DataDir: DefaultDataDir(),
		Consensus: ConsensusConfig{
			Engine:             EnginePoW,
			Difficulty:         4,
			TargetBlockTime:    10,
			AdjustmentInterval: 10,
			EnableAdjustment:   false,
			MinDifficulty:      1,
			MaxDifficulty:      8,
		},
		Mempool: MempoolConfig{
			MaxSize: 1000,
			Expiry:  3600,
		},
		Protocol: ProtocolConfig{
			CoinbaseSender:  string(tx.CoinbaseSender),
			GenesisPrevHash: types.Hash{}.String(),
		},
		Network: NetworkConfig{
			ListenAddr: "127.0.0.1",
			ListenPort: 0,
			Seeds:      nil,
			DropProb:   0,
			DelayMs:    0,
		},
		Mining: MiningConfig{
			Enabled:           false,
			BlockReward:       50,
			MaxTxPerBlock:     100,
			AutoMineEnabled:   false,
			AutoMineThreshold: 10,
		},
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
	}
}
