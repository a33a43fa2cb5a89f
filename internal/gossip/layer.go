package gossip

import (
	"bufio"
	"encoding/json"
	"fmt"
	"math/rand"
	"net"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/klingnet-sim/ledgersim/internal/log"
)

// seenCacheSize bounds the dedup set. The source this is modelled on does
// not cap it; we do, per spec guidance, to avoid unbounded growth over a
// long-running node.
const seenCacheSize = 10000

const maxLineBytes = 8 << 20

// Handler receives envelopes once they have passed fault injection and
// dedup. It is the seam the NodeController implements.
type Handler interface {
	HandleEnvelope(env Envelope)
}

// Layer is the GossipLayer: a TCP listener plus one outbound stream per
// connected peer, newline-delimited JSON envelopes, msg_id dedup, and
// process-local fault injection.
type Layer struct {
	nodeID string
	host   string
	port   int

	mu       sync.Mutex
	listener net.Listener
	peers    map[string]*peer
	crashed  bool

	dropProb float64
	delayMs  int
	rng      *rand.Rand

	seen    *lru.Cache[string, struct{}]
	handler Handler

	wg sync.WaitGroup
}

// New constructs a gossip layer for nodeID, listening on host:port once
// Start is called. handler receives every envelope that survives fault
// injection and dedup.
func New(nodeID, host string, port int, handler Handler) *Layer {
	seen, err := lru.New[string, struct{}](seenCacheSize)
	if err != nil {
		panic(err) // only fails for a non-positive size, which seenCacheSize never is
	}
	return &Layer{
		nodeID:  nodeID,
		host:    host,
		port:    port,
		peers:   make(map[string]*peer),
		seen:    seen,
		handler: handler,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NodeID returns the identifier this layer presents in its handshake.
func (l *Layer) NodeID() string { return l.nodeID }

// Start opens the listener and begins accepting inbound connections.
func (l *Layer) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", l.host, l.port))
	if err != nil {
		return fmt.Errorf("gossip: listen: %w", err)
	}
	l.listener = ln
	if tcpAddr, ok := ln.Addr().(*net.TCPAddr); ok {
		l.port = tcpAddr.Port
	}
	l.crashed = false

	l.wg.Add(1)
	go l.acceptLoop(ln)
	return nil
}

// Addr returns the address the listener is bound to. Valid only after a
// successful Start.
func (l *Layer) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.listener == nil {
		return nil
	}
	return l.listener.Addr()
}

// Port returns the port the listener is bound to, resolving an
// auto-assigned port (0) to its actual value after Start.
func (l *Layer) Port() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.port
}

func (l *Layer) acceptLoop(ln net.Listener) {
	defer l.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			return // listener closed, by Stop/Crash or Restart
		}
		l.wg.Add(1)
		go l.acceptHandshake(conn)
	}
}

// acceptHandshake reads the inbound handshake, replies with our own, then
// registers the peer and starts reading its envelope stream.
func (l *Layer) acceptHandshake(conn net.Conn) {
	defer l.wg.Done()

	reader := bufio.NewReaderSize(conn, maxLineBytes)
	line, err := reader.ReadString('\n')
	if err != nil {
		log.Gossip.Warn().Err(err).Msg("gossip: failed to read inbound handshake")
		_ = conn.Close()
		return
	}
	var hs Handshake
	if err := json.Unmarshal([]byte(line), &hs); err != nil || hs.Type != KindHandshake {
		log.Gossip.Warn().Msg("gossip: malformed inbound handshake")
		_ = conn.Close()
		return
	}

	reply := Handshake{Type: KindHandshake, NodeID: l.nodeID, Host: l.host, Port: l.port}
	if err := json.NewEncoder(conn).Encode(reply); err != nil {
		_ = conn.Close()
		return
	}

	p := newPeer(hs.NodeID, hs.Host, hs.Port, conn)
	l.registerPeer(p)
	l.readLoop(p, reader)
}

// ConnectToPeer dials a peer, writes our handshake first (we are the
// initiator), reads its reply, registers it, and starts reading its
// envelope stream. It returns the peer's node id as reported in its
// handshake reply.
func (l *Layer) ConnectToPeer(host string, port int) (string, error) {
	conn, err := net.Dial("tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return "", fmt.Errorf("gossip: dial %s:%d: %w", host, port, err)
	}

	hs := Handshake{Type: KindHandshake, NodeID: l.nodeID, Host: l.host, Port: l.port}
	if err := json.NewEncoder(conn).Encode(hs); err != nil {
		_ = conn.Close()
		return "", fmt.Errorf("gossip: writing handshake: %w", err)
	}

	reader := bufio.NewReaderSize(conn, maxLineBytes)
	line, err := reader.ReadString('\n')
	if err != nil {
		_ = conn.Close()
		return "", fmt.Errorf("gossip: reading handshake reply: %w", err)
	}
	var reply Handshake
	if err := json.Unmarshal([]byte(line), &reply); err != nil || reply.Type != KindHandshake {
		_ = conn.Close()
		return "", fmt.Errorf("gossip: malformed handshake reply from %s:%d", host, port)
	}

	p := newPeer(reply.NodeID, reply.Host, reply.Port, conn)
	l.registerPeer(p)
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		l.readLoop(p, reader)
	}()
	return p.id, nil
}

func (l *Layer) registerPeer(p *peer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.peers[p.id] = p
}

// RemovePeer drops a peer from the table without closing its connection,
// modelling external partitioning (spec: partitioning is implemented as
// external removal of peer entries on both sides of the boundary).
func (l *Layer) RemovePeer(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.peers, id)
}

// readLoop consumes p's envelope stream until the connection closes. The
// caller owns wg accounting for the goroutine readLoop runs in.
func (l *Layer) readLoop(p *peer, reader *bufio.Reader) {
	defer p.close()

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		var env Envelope
		if err := json.Unmarshal(scanner.Bytes(), &env); err != nil {
			log.Gossip.Warn().Err(err).Str("peer", p.id).Msg("gossip: malformed envelope")
			continue
		}
		l.deliver(env, p.id)
	}
}

// deliver applies fault injection, dedup, and rebroadcast to an envelope
// that arrived over the connection to fromPeerID, then hands it to the
// registered Handler. fromPeerID is the immediate hop, not necessarily
// env.SenderID (the original author) — rebroadcast excludes the immediate
// hop so a message does not bounce straight back where it came from,
// matching the exclude_peer parameter of the reference implementation.
func (l *Layer) deliver(env Envelope, fromPeerID string) {
	l.mu.Lock()
	if l.crashed {
		l.mu.Unlock()
		return
	}
	dropProb, delayMs := l.dropProb, l.delayMs
	var drop bool
	if dropProb > 0 {
		drop = l.rng.Float64() < dropProb
	}
	l.mu.Unlock()

	if drop {
		return
	}
	if delayMs > 0 {
		time.Sleep(time.Duration(delayMs) * time.Millisecond)
	}

	if _, dup := l.seen.Get(env.MsgID); dup {
		return
	}
	l.seen.Add(env.MsgID, struct{}{})

	if l.handler != nil {
		l.handler.HandleEnvelope(env)
	}
	l.rebroadcast(env, fromPeerID)
}

// rebroadcast forwards env, unchanged, to every peer except the one it
// arrived from.
func (l *Layer) rebroadcast(env Envelope, exceptPeerID string) {
	for _, p := range l.connectedPeers() {
		if p.id == exceptPeerID {
			continue
		}
		l.sendTo(p, env)
	}
}

// Broadcast originates a fresh envelope (new msg_id, our own node id as
// sender) and sends it to every connected peer. The msg_id is recorded in
// our own seen-set first so a bounce-back from a peer's rebroadcast is
// dropped as a duplicate rather than redelivered to our own handler.
func (l *Layer) Broadcast(kind Kind, data any) error {
	env, err := newEnvelope(kind, data, l.nodeID)
	if err != nil {
		return err
	}

	l.mu.Lock()
	crashed := l.crashed
	l.mu.Unlock()
	if crashed {
		return nil
	}

	l.seen.Add(env.MsgID, struct{}{})
	for _, p := range l.connectedPeers() {
		l.sendTo(p, env)
	}
	return nil
}

// SendTo addresses a fresh envelope to a single peer, e.g. a CHAIN_RESPONSE
// reply to a GET_CHAIN request.
func (l *Layer) SendTo(peerID string, kind Kind, data any) error {
	env, err := newEnvelope(kind, data, l.nodeID)
	if err != nil {
		return err
	}

	l.mu.Lock()
	p, ok := l.peers[peerID]
	crashed := l.crashed
	l.mu.Unlock()
	if crashed || !ok {
		return nil
	}
	l.seen.Add(env.MsgID, struct{}{})
	l.sendTo(p, env)
	return nil
}

func (l *Layer) sendTo(p *peer, env Envelope) {
	if err := p.send(env); err != nil {
		log.Gossip.Warn().Err(err).Str("peer", p.id).Msg("gossip: send failed")
	}
}

func (l *Layer) connectedPeers() []*peer {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*peer, 0, len(l.peers))
	for _, p := range l.peers {
		out = append(out, p)
	}
	return out
}

// PeerCount returns the number of entries in the peer table.
func (l *Layer) PeerCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.peers)
}

// PeerIDs returns the ids of every peer in the table.
func (l *Layer) PeerIDs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make([]string, 0, len(l.peers))
	for id := range l.peers {
		ids = append(ids, id)
	}
	return ids
}

// Crash closes the listener and every peer connection and marks the layer
// crashed: all receive-side processing and all broadcasts become no-ops
// until Restart.
func (l *Layer) Crash() {
	l.mu.Lock()
	l.crashed = true
	if l.listener != nil {
		_ = l.listener.Close()
	}
	peers := l.peers
	l.peers = make(map[string]*peer)
	l.mu.Unlock()

	for _, p := range peers {
		p.close()
	}
}

// Restart clears the seen-set, reopens the listener on the same address,
// and accepts connections again.
func (l *Layer) Restart() error {
	l.seen.Purge()
	return l.Start()
}
