package gossip

import (
	"encoding/json"
	"net"
	"sync"
)

// peer is one connected node: a single bidirectional TCP stream used both
// to write outbound envelopes and, by the layer's read loop, to read
// inbound ones.
type peer struct {
	id   string
	host string
	port int

	conn net.Conn
	mu   sync.Mutex // guards writes; reads happen on a single owning goroutine
	enc  *json.Encoder
}

func newPeer(id, host string, port int, conn net.Conn) *peer {
	return &peer{
		id:   id,
		host: host,
		port: port,
		conn: conn,
		enc:  json.NewEncoder(conn),
	}
}

// send writes v as a single newline-delimited JSON line. json.Encoder
// already appends the trailing newline.
func (p *peer) send(v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enc.Encode(v)
}

func (p *peer) close() {
	_ = p.conn.Close()
}
