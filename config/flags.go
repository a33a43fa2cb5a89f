package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// Flags holds parsed command-line flags.
type Flags struct {
	Help    bool
	Version bool

	NodeID  string
	DataDir string
	Config  string

	Engine             string
	Difficulty         int
	TargetBlockTime    int
	AdjustmentInterval int
	EnableAdjustment   bool
	MinDifficulty      int
	MaxDifficulty      int

	MempoolMaxSize int
	MempoolExpiry  int

	ListenAddr string
	ListenPort int
	Seeds      string
	DropProb   float64
	DelayMs    int

	Mine              bool
	MinerAddress      string
	BlockReward       float64
	MaxTxPerBlock     int
	AutoMine          bool
	AutoMineThreshold int

	LogLevel string
	LogFile  string
	LogJSON  bool

	Args []string

	SetEnableAdjustment bool
	SetMine             bool
	SetAutoMine         bool
	SetLogJSON          bool
}

// ParseFlags parses command-line flags.
func ParseFlags() *Flags {
	f := &Flags{}
	fs := flag.NewFlagSet("ledgersim", flag.ContinueOnError)

	fs.BoolVar(&f.Help, "help", false, "Show help message")
	fs.BoolVar(&f.Help, "h", false, "Show help message (shorthand)")
	fs.BoolVar(&f.Version, "version", false, "Show version information")

	fs.StringVar(&f.NodeID, "node-id", "", "Node identifier on the gossip network")
	fs.StringVar(&f.DataDir, "datadir", "", "Data directory path")
	fs.StringVar(&f.Config, "config", "", "Config file path")
	fs.StringVar(&f.Config, "c", "", "Config file path (shorthand)")

	fs.StringVar(&f.Engine, "engine", "", "Consensus engine: pow or roundrobin")
	fs.IntVar(&f.Difficulty, "difficulty", 0, "Starting PoW difficulty")
	fs.IntVar(&f.TargetBlockTime, "target-block-time", 0, "Target seconds between blocks")
	fs.IntVar(&f.AdjustmentInterval, "adjustment-interval", 0, "Blocks between difficulty retargets")
	fs.BoolVar(&f.EnableAdjustment, "enable-adjustment", false, "Enable difficulty retargeting")
	fs.IntVar(&f.MinDifficulty, "min-difficulty", 0, "Minimum difficulty")
	fs.IntVar(&f.MaxDifficulty, "max-difficulty", 0, "Maximum difficulty")

	fs.IntVar(&f.MempoolMaxSize, "mempool-max-size", 0, "Mempool capacity")
	fs.IntVar(&f.MempoolExpiry, "mempool-expiry", 0, "Mempool entry expiry in seconds")

	fs.StringVar(&f.ListenAddr, "listen", "", "Gossip listen address")
	fs.IntVar(&f.ListenPort, "port", 0, "Gossip listen port (0 = auto-assign)")
	fs.StringVar(&f.Seeds, "seeds", "", "Seed peers as comma-separated host:port")
	fs.Float64Var(&f.DropProb, "drop-prob", 0, "Fault injection: fraction of inbound envelopes dropped")
	fs.IntVar(&f.DelayMs, "delay-ms", 0, "Fault injection: inbound envelope delay in milliseconds")

	fs.BoolVar(&f.Mine, "mine", false, "Enable block production")
	fs.StringVar(&f.MinerAddress, "miner-address", "", "Address to receive block rewards")
	fs.Float64Var(&f.BlockReward, "block-reward", 0, "Coinbase reward per mined block")
	fs.IntVar(&f.MaxTxPerBlock, "max-tx-per-block", 0, "Maximum mempool transactions per mined block")
	fs.BoolVar(&f.AutoMine, "auto-mine", false, "Automatically mine once the mempool reaches a threshold")
	fs.IntVar(&f.AutoMineThreshold, "auto-mine-threshold", 0, "Pending transaction count that triggers auto-mining")

	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.LogFile, "log-file", "", "Log file path")
	fs.BoolVar(&f.LogJSON, "log-json", false, "Output logs as JSON")

	fs.Usage = func() {
		printUsage()
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	f.SetEnableAdjustment = isFlagSet(fs, "enable-adjustment")
	f.SetMine = isFlagSet(fs, "mine")
	f.SetAutoMine = isFlagSet(fs, "auto-mine")
	f.SetLogJSON = isFlagSet(fs, "log-json")

	f.Args = fs.Args()
	for _, arg := range f.Args {
		if strings.HasPrefix(arg, "-") {
			fmt.Fprintf(os.Stderr, "Error: flag %q was not parsed (positional argument stopped parsing)\n", arg)
			os.Exit(1)
		}
	}

	return f
}

// ApplyFlags applies command-line flags to a Config struct.
func ApplyFlags(cfg *Config, f *Flags) {
	if f.NodeID != "" {
		cfg.NodeID = f.NodeID
	}
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}

	if f.Engine != "" {
		cfg.Consensus.Engine = EngineKind(f.Engine)
	}
	if f.Difficulty != 0 {
		cfg.Consensus.Difficulty = f.Difficulty
	}
	if f.TargetBlockTime != 0 {
		cfg.Consensus.TargetBlockTime = f.TargetBlockTime
	}
	if f.AdjustmentInterval != 0 {
		cfg.Consensus.AdjustmentInterval = f.AdjustmentInterval
	}
	if f.SetEnableAdjustment {
		cfg.Consensus.EnableAdjustment = f.EnableAdjustment
	}
	if f.MinDifficulty != 0 {
		cfg.Consensus.MinDifficulty = f.MinDifficulty
	}
	if f.MaxDifficulty != 0 {
		cfg.Consensus.MaxDifficulty = f.MaxDifficulty
	}

	if f.MempoolMaxSize != 0 {
		cfg.Mempool.MaxSize = f.MempoolMaxSize
	}
	if f.MempoolExpiry != 0 {
		cfg.Mempool.Expiry = f.MempoolExpiry
	}

	if f.ListenAddr != "" {
		cfg.Network.ListenAddr = f.ListenAddr
	}
	if f.ListenPort != 0 {
		cfg.Network.ListenPort = f.ListenPort
	}
	if f.Seeds != "" {
		cfg.Network.Seeds = parseStringList(f.Seeds)
	}
	if f.DropProb != 0 {
		cfg.Network.DropProb = f.DropProb
	}
	if f.DelayMs != 0 {
		cfg.Network.DelayMs = f.DelayMs
	}

	if f.SetMine {
		cfg.Mining.Enabled = f.Mine
	}
	if f.MinerAddress != "" {
		cfg.Mining.Address = f.MinerAddress
	}
	if f.BlockReward != 0 {
		cfg.Mining.BlockReward = f.BlockReward
	}
	if f.MaxTxPerBlock != 0 {
		cfg.Mining.MaxTxPerBlock = f.MaxTxPerBlock
	}
	if f.SetAutoMine {
		cfg.Mining.AutoMineEnabled = f.AutoMine
	}
	if f.AutoMineThreshold != 0 {
		cfg.Mining.AutoMineThreshold = f.AutoMineThreshold
	}

	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.LogFile != "" {
		cfg.Log.File = f.LogFile
	}
	if f.SetLogJSON {
		cfg.Log.JSON = f.LogJSON
	}
}

func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			found = true
		}
	})
	return found
}

func printUsage() {
	usage := `Ledger simulator node

Usage:
  klingnetd [options]
  klingnetd --help

Commands:
  --help, -h   Show this help message
  --version    Show version information

Core Options:
  --node-id     Node identifier on the gossip network
  --datadir     Data directory (default: ~/.ledgersim)
  --config, -c  Config file path (default: <datadir>/<node-id>/node.conf)

Consensus Options:
  --engine                pow (default) or roundrobin
  --difficulty            Starting PoW difficulty
  --target-block-time     Target seconds between blocks
  --adjustment-interval   Blocks between difficulty retargets
  --enable-adjustment     Enable difficulty retargeting
  --min-difficulty        Minimum difficulty
  --max-difficulty        Maximum difficulty

Mempool Options:
  --mempool-max-size   Mempool capacity
  --mempool-expiry     Mempool entry expiry in seconds

Network Options:
  --listen       Gossip listen address
  --port         Gossip listen port (0 = auto-assign)
  --seeds        Seed peers, comma-separated host:port
  --drop-prob    Fault injection: inbound drop fraction
  --delay-ms     Fault injection: inbound delay in milliseconds

Mining Options:
  --mine                  Enable block production
  --miner-address         Address to receive block rewards
  --block-reward          Coinbase reward per mined block
  --max-tx-per-block      Maximum mempool transactions per mined block
  --auto-mine             Mine automatically once the mempool fills
  --auto-mine-threshold   Pending transaction count that triggers auto-mining

Logging Options:
  --log-level   debug, info, warn, error (default: info)
  --log-file    Log file path (default: stdout)
  --log-json    Output logs as JSON
`
	fmt.Print(usage)
}

// Load loads configuration with the following precedence:
// 1. Default values
// 2. Auto-create data dir + default config (idempotent)
// 3. Config file
// 4. Command-line flags
func Load() (*Config, *Flags, error) {
	flags := ParseFlags()

	if flags.Help {
		printUsage()
		os.Exit(0)
	}
	if flags.Version {
		fmt.Println("klingnetd version 0.1.0")
		os.Exit(0)
	}

	nodeID := flags.NodeID
	if nodeID == "" {
		nodeID = "node"
	}
	cfg := Default(nodeID)

	if flags.DataDir != "" {
		cfg.DataDir = flags.DataDir
	}

	if err := EnsureDataDirs(cfg); err != nil {
		return nil, nil, fmt.Errorf("ensuring data dirs: %w", err)
	}

	configPath := flags.Config
	if configPath == "" {
		configPath = cfg.ConfigFile()
	}

	fileValues, err := LoadFile(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config file: %w", err)
	}
	if err := ApplyFileConfig(cfg, fileValues); err != nil {
		return nil, nil, fmt.Errorf("applying config file: %w", err)
	}

	ApplyFlags(cfg, flags)
	if err := Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, flags, nil
}

// EnsureDataDirs creates the node's data directory and a default config
// file if they don't already exist. Idempotent.
func EnsureDataDirs(cfg *Config) error {
	if err := os.MkdirAll(cfg.NodeDataDir(), 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", cfg.NodeDataDir(), err)
	}

	configPath := cfg.ConfigFile()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := WriteDefaultConfig(configPath, cfg); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}
	}
	return nil
}
