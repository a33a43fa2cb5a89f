// Package gossip implements the GossipLayer: a TCP transport that
// exchanges newline-delimited JSON envelopes between peers, deduplicates
// them by message id, rebroadcasts to every peer but the sender, and
// supports per-node fault injection for testing partitions and unreliable
// links.
package gossip

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Kind enumerates the envelope types the gossip fabric carries.
type Kind string

const (
	KindHandshake     Kind = "HANDSHAKE"
	KindNewTx         Kind = "NEW_TX"
	KindNewBlock      Kind = "NEW_BLOCK"
	KindGetChain      Kind = "GET_CHAIN"
	KindChainResponse Kind = "CHAIN_RESPONSE"
)

// Handshake is the one-shot first line written on every new connection.
type Handshake struct {
	Type   Kind   `json:"type"`
	NodeID string `json:"node_id"`
	Host   string `json:"host"`
	Port   int    `json:"port"`
}

// Envelope is every line after the handshake: {type, data, msg_id, sender_id}.
type Envelope struct {
	Type     Kind            `json:"type"`
	Data     json.RawMessage `json:"data"`
	MsgID    string          `json:"msg_id"`
	SenderID string          `json:"sender_id"`
}

// NewTxData is the payload of a NEW_TX envelope.
type NewTxData struct {
	Transaction json.RawMessage `json:"transaction"`
}

// NewBlockData is the payload of a NEW_BLOCK envelope.
type NewBlockData struct {
	Block json.RawMessage `json:"block"`
}

// ChainResponseData is the payload of a CHAIN_RESPONSE envelope.
type ChainResponseData struct {
	Chain json.RawMessage `json:"chain"`
}

// newMsgID generates a fresh globally-unique message id.
func newMsgID() string {
	return uuid.NewString()
}

// newEnvelope builds an outbound envelope with a fresh msg_id.
func newEnvelope(kind Kind, data any, senderID string) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		Type:     kind,
		Data:     raw,
		MsgID:    newMsgID(),
		SenderID: senderID,
	}, nil
}
