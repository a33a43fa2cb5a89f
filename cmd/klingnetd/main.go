// Ledger simulator node daemon.
//
// Usage:
//
//	klingnetd [--mine --miner-address=...] Run node
//	klingnetd --help                       Show help
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/klingnet-sim/ledgersim/config"
	"github.com/klingnet-sim/ledgersim/internal/chain"
	"github.com/klingnet-sim/ledgersim/internal/consensus"
	"github.com/klingnet-sim/ledgersim/internal/gossip"
	klog "github.com/klingnet-sim/ledgersim/internal/log"
	"github.com/klingnet-sim/ledgersim/internal/mempool"
	"github.com/klingnet-sim/ledgersim/internal/node"
	"github.com/klingnet-sim/ledgersim/pkg/types"
	"github.com/rs/zerolog"
)

// dispatchShim breaks the construction cycle between gossip.Layer (which
// needs a Handler at New) and node.Controller (which needs the Layer at
// New): the layer is built against the shim, and the shim is pointed at
// the controller once it exists.
type dispatchShim struct {
	target *node.Controller
}

func (d *dispatchShim) HandleEnvelope(env gossip.Envelope) {
	d.target.HandleEnvelope(env)
}

func main() {
	// ── 1. Load config (defaults → file → flags) ────────────────────────
	cfg, _, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// ── 2. Init logger ───────────────────────────────────────────────────
	if err := klog.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	logger := klog.WithComponent("node")

	logger.Info().
		Str("node_id", cfg.NodeID).
		Str("engine", string(cfg.Consensus.Engine)).
		Int("difficulty", cfg.Consensus.Difficulty).
		Msg("Starting ledgersim node")

	// ── 3. Build genesis and ledger ───────────────────────────────────────
	genesis := chain.BuildGenesis(float64(time.Now().Unix()), cfg.Consensus.Difficulty)
	ledger, err := chain.New(genesis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build genesis ledger")
	}

	// ── 4. Consensus engine ───────────────────────────────────────────────
	var engine consensus.Engine
	switch cfg.Consensus.Engine {
	case config.EngineRoundRobin:
		engine = consensus.NewRoundRobin()
	default:
		engine = consensus.NewPoW(
			cfg.Consensus.Difficulty,
			cfg.Consensus.MinDifficulty,
			cfg.Consensus.MaxDifficulty,
			time.Duration(cfg.Consensus.TargetBlockTime)*time.Second,
			cfg.Consensus.AdjustmentInterval,
			cfg.Consensus.EnableAdjustment,
		)
	}

	// ── 5. Mempool ────────────────────────────────────────────────────────
	pool := mempool.New(cfg.Mempool.MaxSize, time.Duration(cfg.Mempool.Expiry)*time.Second)

	// ── 6. Gossip layer + node controller ────────────────────────────────
	shim := &dispatchShim{}
	layer := gossip.New(cfg.NodeID, cfg.Network.ListenAddr, cfg.Network.ListenPort, shim)
	layer.SetFaultInjection(cfg.Network.DropProb, cfg.Network.DelayMs)

	minerAddress := types.Address(cfg.Mining.Address)
	ctrl := node.New(cfg.NodeID, minerAddress, ledger, pool, engine, cfg.Mining.BlockReward, cfg.Mining.MaxTxPerBlock, layer)
	shim.target = ctrl

	if err := ctrl.Start(); err != nil {
		logger.Fatal().Err(err).Msg("failed to start gossip listener")
	}
	logger.Info().Int("port", layer.Port()).Msg("gossip listener started")

	// ── 7. Connect to seed peers ──────────────────────────────────────────
	for _, seed := range cfg.Network.Seeds {
		host, port, err := splitHostPort(seed)
		if err != nil {
			logger.Warn().Err(err).Str("seed", seed).Msg("skipping malformed seed")
			continue
		}
		if err := ctrl.ConnectToPeer(host, port); err != nil {
			logger.Warn().Err(err).Str("seed", seed).Msg("failed to connect to seed")
			continue
		}
		logger.Info().Str("seed", seed).Msg("connected to seed peer")
	}

	// ── 8. Auto-mine ───────────────────────────────────────────────────────
	if cfg.Mining.AutoMineEnabled {
		ctrl.EnableAutoMine(cfg.Mining.AutoMineThreshold)
		logger.Info().Int("threshold", cfg.Mining.AutoMineThreshold).Msg("auto-mine enabled")
	}

	// ── 9. Manual mining loop ────────────────────────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	if cfg.Mining.Enabled {
		if minerAddress.IsZero() {
			logger.Fatal().Msg("mining.enabled requires mining.address")
		}
		go runMiningLoop(ctx, ctrl, logger)
	}

	// ── 10. Startup banner ────────────────────────────────────────────────
	logger.Info().
		Int("chain_length", ledger.Length()).
		Bool("mining", cfg.Mining.Enabled).
		Bool("auto_mine", cfg.Mining.AutoMineEnabled).
		Msg("node started successfully")

	// ── 11. Wait for shutdown ─────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")

	cancel()
	ctrl.Stop()
	logger.Info().Msg("goodbye")
}

// runMiningLoop repeatedly attempts to mine the next block until ctx is
// cancelled, backing off briefly after a non-cancellation failure so a
// stalled node does not spin.
func runMiningLoop(ctx context.Context, ctrl *node.Controller, logger zerolog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		b, err := ctrl.MineNext(ctx, 0)
		if err != nil {
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		logger.Info().Uint64("index", b.Index).Msg("mined block")
	}
}

func splitHostPort(hostport string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port in %q: %w", hostport, err)
	}
	return host, port, nil
}
