package node

import (
	"encoding/json"

	"github.com/klingnet-sim/ledgersim/internal/chain"
	"github.com/klingnet-sim/ledgersim/internal/gossip"
	"github.com/klingnet-sim/ledgersim/internal/log"
	"github.com/klingnet-sim/ledgersim/pkg/block"
	"github.com/klingnet-sim/ledgersim/pkg/tx"
)

// HandleEnvelope implements gossip.Handler: it is invoked for every
// envelope that survives fault injection and dedup in the gossip layer.
func (c *Controller) HandleEnvelope(env gossip.Envelope) {
	switch env.Type {
	case gossip.KindNewTx:
		c.handleNewTx(env)
	case gossip.KindNewBlock:
		c.handleNewBlock(env)
	case gossip.KindGetChain:
		c.handleGetChain(env)
	case gossip.KindChainResponse:
		c.handleChainResponse(env)
	default:
		log.Node.Warn().Str("type", string(env.Type)).Msg("node: unknown envelope type")
	}
}

func (c *Controller) handleNewTx(env gossip.Envelope) {
	var payload gossip.NewTxData
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		log.Node.Warn().Err(err).Msg("node: malformed NEW_TX envelope")
		return
	}
	var dict tx.Dict
	if err := json.Unmarshal(payload.Transaction, &dict); err != nil {
		log.Node.Warn().Err(err).Msg("node: malformed transaction dict")
		return
	}
	t := tx.FromDict(dict)

	if c.pool.Has(t.Hash()) {
		return
	}
	if err := c.ledger.CanApply(t); err != nil {
		log.Node.Debug().Err(err).Str("hash", t.Hash().String()).Msg("node: rejected gossiped transaction")
		return
	}
	if err := c.pool.Add(t); err != nil {
		log.Node.Debug().Err(err).Msg("node: failed to admit gossiped transaction")
		return
	}
	c.maybeAutoMine()
}

func (c *Controller) handleNewBlock(env gossip.Envelope) {
	var payload gossip.NewBlockData
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		log.Node.Warn().Err(err).Msg("node: malformed NEW_BLOCK envelope")
		return
	}
	var dict block.Dict
	if err := json.Unmarshal(payload.Block, &dict); err != nil {
		log.Node.Warn().Err(err).Msg("node: malformed block dict")
		return
	}
	b, err := block.FromDict(dict)
	if err != nil {
		log.Node.Warn().Err(err).Msg("node: invalid block dict")
		return
	}

	if err := c.ledger.Append(b); err != nil {
		if b.Index > uint64(c.ledger.Length()) {
			log.Node.Info().Str("peer", env.SenderID).Msg("node: peer ahead, requesting its chain")
			_ = c.gossip.SendTo(env.SenderID, gossip.KindGetChain, map[string]any{})
		} else {
			log.Node.Debug().Err(err).Msg("node: rejected gossiped block")
		}
		return
	}

	c.pool.RemoveMany(b.TxHashes())
	c.cancelCurrentMining()
}

func (c *Controller) handleGetChain(env gossip.Envelope) {
	d := c.ledger.ToDict(c.eng.CurrentDifficulty())
	_ = c.gossip.SendTo(env.SenderID, gossip.KindChainResponse, gossip.ChainResponseData{Chain: mustMarshal(d)})
}

func (c *Controller) handleChainResponse(env gossip.Envelope) {
	var payload gossip.ChainResponseData
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		log.Node.Warn().Err(err).Msg("node: malformed CHAIN_RESPONSE envelope")
		return
	}
	var d chain.Dict
	if err := json.Unmarshal(payload.Chain, &d); err != nil {
		log.Node.Warn().Err(err).Msg("node: malformed chain dict")
		return
	}
	candidate, err := chain.BlocksFromDicts(d.Chain)
	if err != nil {
		log.Node.Warn().Err(err).Msg("node: invalid candidate chain")
		return
	}

	replaced, orphans, err := c.ledger.ReplaceChain(candidate)
	if err != nil {
		log.Node.Debug().Err(err).Msg("node: did not replace chain")
		return
	}
	if !replaced {
		return
	}

	log.Node.Info().Str("peer", env.SenderID).Int("orphans", len(orphans)).Msg("node: replaced chain")
	c.purgeConfirmedTransactions(candidate)
	c.cancelCurrentMining()
}

// purgeConfirmedTransactions removes from the mempool every transaction
// now present in the accepted chain.
func (c *Controller) purgeConfirmedTransactions(chainBlocks []*block.Block) {
	for _, b := range chainBlocks {
		c.pool.RemoveMany(b.TxHashes())
	}
}
