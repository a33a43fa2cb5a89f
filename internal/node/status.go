package node

// Status is the read-only surface external observers (the dashboard, the
// metrics aggregator) poll to see a node's current view of the world.
type Status struct {
	NodeID      string   `json:"node_id"`
	ChainLength int      `json:"chain_length"`
	ChainTip    string   `json:"chain_tip"`
	MempoolSize int      `json:"mempool_size"`
	Balance     float64  `json:"balance"`
	IsMining    bool     `json:"is_mining"`
	Peers       []string `json:"peers"`
	PeerCount   int      `json:"peer_count"`
}

// Status snapshots the node's current state.
func (c *Controller) Status() Status {
	peers := c.gossip.PeerIDs()
	return Status{
		NodeID:      c.nodeID,
		ChainLength: c.ledger.Length(),
		ChainTip:    c.ledger.TipHash().String(),
		MempoolSize: c.pool.Count(),
		Balance:     c.ledger.Balance(c.minerAddress),
		IsMining:    c.isMining(),
		Peers:       peers,
		PeerCount:   len(peers),
	}
}
