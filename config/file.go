package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LoadFile loads node configuration from a .conf file.
// Format: key = value (one per line, # for comments)
func LoadFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: invalid format (expected key = value)", lineNum)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}
		values[key] = value
	}

	return values, scanner.Err()
}

// ApplyFileConfig applies file configuration to a Config struct.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	for key, value := range values {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

func setConfigValue(cfg *Config, key, value string) error {
	switch key {
	case "node.id":
		cfg.NodeID = value
	case "node.datadir":
		cfg.DataDir = value

	case "consensus.engine":
		cfg.Consensus.Engine = EngineKind(value)
	case "consensus.difficulty":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Consensus.Difficulty = n
	case "consensus.target_block_time":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Consensus.TargetBlockTime = n
	case "consensus.adjustment_interval":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Consensus.AdjustmentInterval = n
	case "consensus.enable_adjustment":
		cfg.Consensus.EnableAdjustment = parseBool(value)
	case "consensus.min_difficulty":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Consensus.MinDifficulty = n
	case "consensus.max_difficulty":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Consensus.MaxDifficulty = n

	case "mempool.max_size":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Mempool.MaxSize = n
	case "mempool.expiry":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Mempool.Expiry = n

	case "protocol.coinbase_sender":
		cfg.Protocol.CoinbaseSender = value
	case "protocol.genesis_prev_hash":
		cfg.Protocol.GenesisPrevHash = value

	case "network.listen":
		cfg.Network.ListenAddr = value
	case "network.port":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Network.ListenPort = n
	case "network.seeds":
		cfg.Network.Seeds = parseStringList(value)
	case "network.drop_prob":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		cfg.Network.DropProb = f
	case "network.delay_ms":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Network.DelayMs = n

	case "mining.enabled":
		cfg.Mining.Enabled = parseBool(value)
	case "mining.address":
		cfg.Mining.Address = value
	case "mining.block_reward":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		cfg.Mining.BlockReward = f
	case "mining.max_tx_per_block":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Mining.MaxTxPerBlock = n
	case "mining.auto_mine_enabled":
		cfg.Mining.AutoMineEnabled = parseBool(value)
	case "mining.auto_mine_threshold":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Mining.AutoMineThreshold = n

	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		cfg.Log.JSON = parseBool(value)

	default:
		// unknown keys are ignored
	}
	return nil
}

func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// WriteDefaultConfig writes a default node configuration file.
func WriteDefaultConfig(path string, cfg *Config) error {
	content := `# Ledger simulator node configuration
#
# These are per-node runtime settings. consensus.* and protocol.* must
# match across every node sharing a genesis block.

node.id = ` + cfg.NodeID + `
# node.datadir = ~/.ledgersim

# ============================================================================
# Consensus
# ============================================================================

consensus.engine = ` + string(cfg.Consensus.Engine) + `
consensus.difficulty = ` + strconv.Itoa(cfg.Consensus.Difficulty) + `
consensus.target_block_time = ` + strconv.Itoa(cfg.Consensus.TargetBlockTime) + `
consensus.adjustment_interval = ` + strconv.Itoa(cfg.Consensus.AdjustmentInterval) + `
consensus.enable_adjustment = ` + strconv.FormatBool(cfg.Consensus.EnableAdjustment) + `
consensus.min_difficulty = ` + strconv.Itoa(cfg.Consensus.MinDifficulty) + `
consensus.max_difficulty = ` + strconv.Itoa(cfg.Consensus.MaxDifficulty) + `

# ============================================================================
# Mempool
# ============================================================================

mempool.max_size = ` + strconv.Itoa(cfg.Mempool.MaxSize) + `
mempool.expiry = ` + strconv.Itoa(cfg.Mempool.Expiry) + `

# ============================================================================
# Network
# ============================================================================

network.listen = ` + cfg.Network.ListenAddr + `
network.port = ` + strconv.Itoa(cfg.Network.ListenPort) + `
# network.seeds = host1:port1,host2:port2
# network.drop_prob = 0
# network.delay_ms = 0

# ============================================================================
# Mining
# ============================================================================

mining.enabled = ` + strconv.FormatBool(cfg.Mining.Enabled) + `
# mining.address = <your-address>
mining.block_reward = ` + strconv.FormatFloat(cfg.Mining.BlockReward, 'g', -1, 64) + `
mining.max_tx_per_block = ` + strconv.Itoa(cfg.Mining.MaxTxPerBlock) + `
mining.auto_mine_enabled = ` + strconv.FormatBool(cfg.Mining.AutoMineEnabled) + `
mining.auto_mine_threshold = ` + strconv.Itoa(cfg.Mining.AutoMineThreshold) + `

# ============================================================================
# Logging
# ============================================================================

log.level = ` + cfg.Log.Level + `
# log.file =
log.json = ` + strconv.FormatBool(cfg.Log.JSON) + `
`
	return os.WriteFile(path, []byte(content), 0644)
}
