// Package p2p gossips committed token events to observers over libp2p.
//
// Every node joins one GossipSub topic per token contract. Events arrive
// wrapped in an EventMessage signed by a publisher key. A message whose
// contract, event ID or publisher signature does not check out earns the
// sending peer a ban score.
package p2p

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/libp2p/go-libp2p"
	dht "github.com/libp2p/go-libp2p-kad-dht"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	libp2pcrypto "github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/p2p/discovery/mdns"
	drouting "github.com/libp2p/go-libp2p/p2p/discovery/routing"
	dutil "github.com/libp2p/go-libp2p/p2p/discovery/util"
	"github.com/rs/zerolog"

	"github.com/Klingon-tech/feetoken/internal/events"
	"github.com/Klingon-tech/feetoken/internal/log"
	"github.com/Klingon-tech/feetoken/internal/storage"
	"github.com/Klingon-tech/feetoken/pkg/crypto"
	"github.com/Klingon-tech/feetoken/pkg/types"
)

const (
	dhtDiscoveryInterval = 30 * time.Second
	peerConnectTimeout   = 5 * time.Second
	seedRetryInterval    = 10 * time.Second
)

// Config holds P2P node configuration.
type Config struct {
	ListenAddr string
	Port       int
	Seeds      []string
	MaxPeers   int
	NoDiscover bool
	DHTServer  bool
	NetworkID  string        // isolates discovery per network
	DataDir    string        // holds node.key; empty means an ephemeral identity
	DB         storage.DB    // peer and ban persistence; nil disables it
	Contract   types.Address // token whose events this node carries

	// Signer signs published events; nil makes the node receive-only.
	// Its public key is always trusted.
	Signer     crypto.Signer
	// Publishers are the compressed public keys whose events are accepted.
	Publishers [][]byte
}

// Counter is notified of gossip traffic.
type Counter interface {
	GossipPublished()
	GossipReceived()
}

// EventHandler receives verified events from remote peers.
type EventHandler func(from peer.ID, ev events.Event)

// Node is a libp2p host carrying one token's event topic.
type Node struct {
	config Config
	ctx    context.Context
	cancel context.CancelFunc
	logger zerolog.Logger

	host   host.Host
	pubsub *pubsub.PubSub
	topic  *pubsub.Topic
	sub    *pubsub.Subscription

	handlerMu sync.RWMutex
	handlers  []EventHandler
	counter   Counter

	mu    sync.RWMutex
	peers map[peer.ID]*Peer

	trusted map[string]bool // publisher pubkeys

	Bans       *BanManager
	peerStore  *PeerStore // nil without Config.DB
	banStore   *BanStore  // nil without Config.DB
	dht        *dht.IpfsDHT
	connNotify *connNotifier
}

// New creates a node. Call Start to begin networking.
func New(cfg Config) *Node {
	ctx, cancel := context.WithCancel(context.Background())
	n := &Node{
		config:  cfg,
		ctx:     ctx,
		cancel:  cancel,
		logger:  log.WithContract("p2p", cfg.Contract.String()),
		peers:   make(map[peer.ID]*Peer),
		trusted: make(map[string]bool),
	}
	for _, pub := range cfg.Publishers {
		n.trusted[string(pub)] = true
	}
	if cfg.Signer != nil {
		n.trusted[string(cfg.Signer.PublicKey())] = true
	}
	if cfg.DB != nil {
		db := storage.NewPrefixDB(cfg.DB, []byte("p2p/"))
		n.peerStore = NewPeerStore(db)
		n.banStore = NewBanStore(db)
	}
	n.Bans = NewBanManager(n.banStore, n)
	return n
}

// PublisherKey returns the hex public key this node signs events with,
// empty for a receive-only node.
func (n *Node) PublisherKey() string {
	if n.config.Signer == nil {
		return ""
	}
	return hex.EncodeToString(n.config.Signer.PublicKey())
}

// SetCounter registers a traffic counter.
func (n *Node) SetCounter(c Counter) {
	n.counter = c
}

// Subscribe registers a handler for events received from peers.
func (n *Node) Subscribe(h EventHandler) {
	n.handlerMu.Lock()
	n.handlers = append(n.handlers, h)
	n.handlerMu.Unlock()
}

func (n *Node) rendezvous() string {
	if n.config.NetworkID != "" {
		return "feetoken/" + n.config.NetworkID + "/" + n.config.Contract.Hex()
	}
	return "feetoken/" + n.config.Contract.Hex()
}

// Start creates the libp2p host, joins the events topic and starts
// discovery.
func (n *Node) Start() error {
	if err := n.Bans.LoadBans(); err != nil {
		n.logger.Warn().Err(err).Msg("Load bans failed")
	}

	opts := []libp2p.Option{
		libp2p.ListenAddrStrings(fmt.Sprintf("/ip4/%s/tcp/%d", n.config.ListenAddr, n.config.Port)),
		libp2p.ConnectionGater(&banGater{bans: n.Bans}),
	}
	if n.config.DataDir != "" {
		key, err := loadOrCreateIdentity(n.config.DataDir)
		if err != nil {
			return fmt.Errorf("load p2p identity: %w", err)
		}
		opts = append(opts, libp2p.Identity(key))
	}

	h, err := libp2p.New(opts...)
	if err != nil {
		return fmt.Errorf("create libp2p host: %w", err)
	}
	n.host = h
	n.connNotify = &connNotifier{node: n}
	h.Network().Notify(n.connNotify)

	if !n.config.NoDiscover {
		if err := n.initDHT(); err != nil {
			h.Close()
			return fmt.Errorf("init dht: %w", err)
		}
	}

	ps, err := pubsub.NewGossipSub(n.ctx, h, pubsub.WithMaxMessageSize(MaxEventMessageSize))
	if err != nil {
		n.closeDHT()
		h.Close()
		return fmt.Errorf("create pubsub: %w", err)
	}
	n.pubsub = ps

	if n.topic, err = ps.Join(EventsTopic(n.config.Contract)); err != nil {
		n.closeDHT()
		h.Close()
		return fmt.Errorf("join events topic: %w", err)
	}
	if n.sub, err = n.topic.Subscribe(); err != nil {
		n.closeDHT()
		h.Close()
		return fmt.Errorf("subscribe events: %w", err)
	}

	go n.readLoop()
	go n.loadPersistedPeers()

	if len(n.config.Seeds) > 0 {
		n.logger.Info().Int("seeds", len(n.config.Seeds)).Msg("Connecting to seeds")
		n.connectSeeds()
		go n.seedLoop()
	}
	if !n.config.NoDiscover {
		_ = mdns.NewMdnsService(h, n.rendezvous(), &mdnsNotifee{node: n}).Start()
		go n.runDHTDiscovery()
	}
	if n.peerStore != nil {
		go n.runPersistLoop()
	}

	n.logger.Info().
		Str("id", h.ID().String()).
		Str("topic", EventsTopic(n.config.Contract)).
		Msg("P2P started")
	return nil
}

// Stop shuts the node down. It is safe to call before Start.
func (n *Node) Stop() error {
	n.persistPeers()
	n.cancel()
	if n.sub != nil {
		n.sub.Cancel()
	}
	if n.topic != nil {
		n.topic.Close()
	}
	n.closeDHT()
	if n.host != nil {
		return n.host.Close()
	}
	return nil
}

// Host returns the libp2p host, nil before Start.
func (n *Node) Host() host.Host {
	return n.host
}

// ID returns the node's peer ID, empty before Start.
func (n *Node) ID() peer.ID {
	if n.host == nil {
		return ""
	}
	return n.host.ID()
}

// Addrs returns the node's dialable multiaddrs including the peer ID.
func (n *Node) Addrs() []string {
	if n.host == nil {
		return nil
	}
	var out []string
	for _, a := range n.host.Addrs() {
		out = append(out, fmt.Sprintf("%s/p2p/%s", a, n.host.ID()))
	}
	return out
}

// DisconnectPeer closes every connection to id.
func (n *Node) DisconnectPeer(id peer.ID) error {
	if n.host == nil {
		return fmt.Errorf("p2p node not started")
	}
	n.removePeer(id)
	return n.host.Network().ClosePeer(id)
}

// PeerCount returns the number of connected peers.
func (n *Node) PeerCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.peers)
}

// PeerList returns a snapshot of connected peers.
func (n *Node) PeerList() []Peer {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]Peer, 0, len(n.peers))
	for _, p := range n.peers {
		out = append(out, *p)
	}
	return out
}

func (n *Node) addPeer(id peer.ID, source string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if p, ok := n.peers[id]; ok {
		if p.Source == "" {
			p.Source = source
		}
		return
	}
	n.peers[id] = &Peer{ID: id, ConnectedAt: time.Now(), Source: source}
}

func (n *Node) removePeer(id peer.ID) {
	n.mu.Lock()
	delete(n.peers, id)
	n.mu.Unlock()
}

func (n *Node) atPeerLimit() bool {
	return n.config.MaxPeers > 0 && n.PeerCount() >= n.config.MaxPeers
}

func (n *Node) connectSeeds() bool {
	connected := false
	for _, addr := range n.config.Seeds {
		info, err := peer.AddrInfoFromString(strings.TrimSpace(addr))
		if err != nil {
			n.logger.Warn().Str("addr", addr).Err(err).Msg("Bad seed address")
			continue
		}
		ctx, cancel := context.WithTimeout(n.ctx, peerConnectTimeout)
		err = n.host.Connect(ctx, *info)
		cancel()
		if err != nil {
			n.logger.Warn().Str("peer", shortID(info.ID)).Err(err).Msg("Seed connect failed")
			continue
		}
		n.addPeer(info.ID, SourceSeed)
		connected = true
	}
	return connected
}

// seedLoop retries the seeds while the node has no peers.
func (n *Node) seedLoop() {
	ticker := time.NewTicker(seedRetryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-n.ctx.Done():
			return
		case <-ticker.C:
			if n.PeerCount() == 0 {
				n.connectSeeds()
			}
		}
	}
}

func (n *Node) initDHT() error {
	mode := dht.ModeClient
	if n.config.DHTServer {
		mode = dht.ModeServer
	}
	kad, err := dht.New(n.ctx, n.host, dht.Mode(mode))
	if err != nil {
		return fmt.Errorf("create kad-dht: %w", err)
	}
	n.dht = kad
	return kad.Bootstrap(n.ctx)
}

func (n *Node) closeDHT() {
	if n.dht != nil {
		n.dht.Close()
		n.dht = nil
	}
}

func (n *Node) runDHTDiscovery() {
	if n.dht == nil {
		return
	}
	rd := drouting.NewRoutingDiscovery(n.dht)
	dutil.Advertise(n.ctx, rd, n.rendezvous())

	ticker := time.NewTicker(dhtDiscoveryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-n.ctx.Done():
			return
		case <-ticker.C:
			n.findDHTPeers(rd)
		}
	}
}

func (n *Node) findDHTPeers(rd *drouting.RoutingDiscovery) {
	ctx, cancel := context.WithTimeout(n.ctx, 20*time.Second)
	defer cancel()
	found, err := rd.FindPeers(ctx, n.rendezvous())
	if err != nil {
		return
	}
	for p := range found {
		if p.ID == n.host.ID() || len(p.Addrs) == 0 {
			continue
		}
		if n.atPeerLimit() {
			return
		}
		cctx, ccancel := context.WithTimeout(n.ctx, peerConnectTimeout)
		if err := n.host.Connect(cctx, p); err == nil {
			n.addPeer(p.ID, SourceDHT)
		}
		ccancel()
	}
}

func (n *Node) persistPeers() {
	if n.peerStore == nil || n.host == nil {
		return
	}
	now := time.Now().Unix()
	for _, p := range n.PeerList() {
		addrs := n.host.Peerstore().Addrs(p.ID)
		rec := PeerRecord{ID: p.ID.String(), LastSeen: now, Source: p.Source}
		for _, a := range addrs {
			rec.Addrs = append(rec.Addrs, a.String())
		}
		if err := n.peerStore.Save(rec); err != nil {
			n.logger.Debug().Err(err).Msg("Persist peer failed")
		}
	}
}

func (n *Node) loadPersistedPeers() {
	if n.peerStore == nil {
		return
	}
	_, _ = n.peerStore.PruneStale(staleThreshold)
	records, err := n.peerStore.LoadAll()
	if err != nil {
		return
	}
	for _, rec := range records {
		id, err := peer.Decode(rec.ID)
		if err != nil || id == n.host.ID() {
			continue
		}
		info := peer.AddrInfo{ID: id}
		for _, a := range rec.Addrs {
			ai, err := peer.AddrInfoFromString(fmt.Sprintf("%s/p2p/%s", a, rec.ID))
			if err != nil {
				continue
			}
			info.Addrs = append(info.Addrs, ai.Addrs...)
		}
		if len(info.Addrs) == 0 {
			continue
		}
		ctx, cancel := context.WithTimeout(n.ctx, peerConnectTimeout)
		_ = n.host.Connect(ctx, info)
		cancel()
	}
}

func (n *Node) runPersistLoop() {
	ticker := time.NewTicker(persistInterval)
	defer ticker.Stop()
	for {
		select {
		case <-n.ctx.Done():
			return
		case <-ticker.C:
			n.persistPeers()
			_, _ = n.peerStore.PruneStale(staleThreshold)
		}
	}
}

// loadOrCreateIdentity keeps the peer ID stable across restarts.
func loadOrCreateIdentity(dataDir string) (libp2pcrypto.PrivKey, error) {
	path := filepath.Join(dataDir, "node.key")
	if data, err := os.ReadFile(path); err == nil {
		raw, err := hex.DecodeString(strings.TrimSpace(string(data)))
		if err != nil {
			return nil, fmt.Errorf("decode node key: %w", err)
		}
		return libp2pcrypto.UnmarshalEd25519PrivateKey(raw)
	}

	priv, _, err := libp2pcrypto.GenerateEd25519Key(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate node key: %w", err)
	}
	raw, err := priv.Raw()
	if err != nil {
		return nil, fmt.Errorf("marshal node key: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(hex.EncodeToString(raw)), 0o600); err != nil {
		return nil, fmt.Errorf("save node key: %w", err)
	}
	return priv, nil
}
