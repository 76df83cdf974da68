// Package node provides a reusable token node that can be embedded in any
// binary (daemon, tests, tooling).
package node

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/rs/zerolog"

	"github.com/Klingon-tech/feetoken/config"
	"github.com/Klingon-tech/feetoken/internal/auth"
	"github.com/Klingon-tech/feetoken/internal/events"
	klog "github.com/Klingon-tech/feetoken/internal/log"
	"github.com/Klingon-tech/feetoken/internal/metrics"
	"github.com/Klingon-tech/feetoken/internal/p2p"
	"github.com/Klingon-tech/feetoken/internal/rpc"
	"github.com/Klingon-tech/feetoken/internal/storage"
	"github.com/Klingon-tech/feetoken/internal/token"
)

const statusInterval = time.Minute

// Node is a fully-initialized token node.
type Node struct {
	cfg    *config.Config
	logger zerolog.Logger

	// Core
	db      storage.DB
	token   *token.Token
	auth    *auth.Authenticator
	metrics *metrics.Metrics

	// Networking
	p2pNode   *p2p.Node
	rpcServer *rpc.Server

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates and initializes a new Node. It opens storage, loads or
// deploys the token and builds the P2P node and RPC server, but does NOT
// start networking. Call Start() for that.
func New(cfg *config.Config) (*Node, error) {
	// ── 1. Init logger ──────────────────────────────────────────────
	logFile := cfg.Log.File
	if logFile == "" {
		logsDir := cfg.LogsDir()
		if err := os.MkdirAll(logsDir, 0755); err != nil {
			return nil, fmt.Errorf("creating logs dir: %w", err)
		}
		logFile = filepath.Join(logsDir, "feetoken.log")
	}
	if err := klog.Init(cfg.Log.Level, cfg.Log.JSON, expandHome(logFile)); err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	logger := klog.Node

	logger.Info().
		Str("network", string(cfg.Network)).
		Str("datadir", cfg.DataDir).
		Msg("Starting FeeToken Node")

	// ── 2. Open storage ─────────────────────────────────────────────
	db, err := storage.NewBadger(cfg.DBDir())
	if err != nil {
		return nil, fmt.Errorf("open database at %s: %w", cfg.DBDir(), err)
	}
	logger.Info().Str("path", cfg.DBDir()).Msg("Database opened")

	// ── 3. Metrics ──────────────────────────────────────────────────
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	// ── 4. Token ────────────────────────────────────────────────────
	// The gossip node needs the contract address, so it is bound to the
	// sink after the token exists. Events emitted before that (the
	// deployment itself) are not gossiped.
	var gossip *p2p.Node
	sink := events.Multi{
		events.LogSink{Logger: klog.WithComponent("events")},
		events.SinkFunc(func(ev events.Event) {
			m.Publish(ev)
			if gossip != nil {
				gossip.Publish(ev)
			}
		}),
	}
	var opts []token.Option
	if m != nil {
		opts = append(opts, token.WithObserver(m))
	}

	tok, err := openToken(cfg, db, sink, opts, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	m.Track(tok)

	logger.Info().
		Str("contract", tok.Address().String()).
		Str("symbol", tok.Symbol()).
		Str("owner", tok.Owner().String()).
		Uint64("fee_bp", tok.Policy().TransferFeeBasisPoints).
		Uint64("last_event", tok.LastEventSeq()).
		Msg("Token ready")

	authn := auth.NewAuthenticator(db, tok.Address())

	// ── 5. P2P ──────────────────────────────────────────────────────
	var p2pNode *p2p.Node
	if cfg.P2P.Enabled {
		publisher, err := loadPublisherKey(cfg.NetworkDir())
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("publisher key: %w", err)
		}
		trusted, err := decodePublishers(cfg.P2P.Publishers)
		if err != nil {
			db.Close()
			return nil, err
		}
		p2pNode = p2p.New(p2p.Config{
			ListenAddr: cfg.P2P.ListenAddr,
			Port:       cfg.P2P.Port,
			Seeds:      cfg.P2P.Seeds,
			MaxPeers:   cfg.P2P.MaxPeers,
			NoDiscover: cfg.P2P.NoDiscover,
			DHTServer:  cfg.P2P.DHTServer,
			NetworkID:  string(cfg.Network),
			DataDir:    cfg.NetworkDir(),
			DB:         db,
			Contract:   tok.Address(),
			Signer:     publisher,
			Publishers: trusted,
		})
		if m != nil {
			p2pNode.SetCounter(m)
		}
		p2pLogger := klog.WithContract("p2p", tok.Address().String())
		p2pNode.Subscribe(func(from peer.ID, ev events.Event) {
			p2pLogger.Debug().
				Str("peer", from.String()).
				Uint64("seq", ev.Seq).
				Str("event", ev.Name).
				Msg("Remote event")
		})
		gossip = p2pNode
	} else {
		logger.Warn().Msg("P2P disabled by config")
	}

	// ── 6. RPC server ───────────────────────────────────────────────
	var rpcServer *rpc.Server
	if cfg.RPC.Enabled {
		rpcAddr := fmt.Sprintf("%s:%d", cfg.RPC.Addr, cfg.RPC.Port)
		rpcServer = rpc.New(rpcAddr, tok, authn, cfg.RPC)
		if p2pNode != nil {
			rpcServer.SetP2PNode(p2pNode)
		}
		if m != nil {
			rpcServer.SetMetrics(m, cfg.Metrics.Path)
		}
	} else {
		if cfg.Metrics.Enabled {
			logger.Warn().Msg("metrics.enabled is true but RPC is disabled; metrics endpoint unavailable")
		}
		logger.Warn().Msg("RPC disabled by config")
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Node{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		token:     tok,
		auth:      authn,
		metrics:   m,
		p2pNode:   p2pNode,
		rpcServer: rpcServer,
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// openToken opens the token stored in db, deploying it from the
// deployment file on first start.
func openToken(cfg *config.Config, db storage.DB, sink events.Sink, opts []token.Option, logger zerolog.Logger) (*token.Token, error) {
	tok, err := token.Open(db, sink, opts...)
	if err == nil {
		logger.Info().Msg("Token resumed from database")
		return tok, nil
	}
	if !errors.Is(err, token.ErrNotDeployed) {
		return nil, fmt.Errorf("open token: %w", err)
	}

	path := expandHome(cfg.DeploymentFile())
	dep, err := config.LoadDeployment(path)
	if err != nil {
		return nil, fmt.Errorf("no token deployed: %w", err)
	}
	params, err := dep.Params()
	if err != nil {
		return nil, fmt.Errorf("deployment %s: %w", path, err)
	}
	tok, err = token.New(db, params, sink, opts...)
	if err != nil {
		return nil, fmt.Errorf("deploy token: %w", err)
	}
	logger.Info().Str("file", path).Msg("Token deployed")
	return tok, nil
}

// Start launches networking and the background status loop.
func (n *Node) Start() error {
	if n.p2pNode != nil {
		if err := n.p2pNode.Start(); err != nil {
			return fmt.Errorf("start P2P: %w", err)
		}
		n.logger.Info().
			Str("id", n.p2pNode.ID().String()).
			Str("topic", p2p.EventsTopic(n.token.Address())).
			Str("publisher", n.p2pNode.PublisherKey()).
			Msg("P2P started")
	}

	if n.rpcServer != nil {
		if err := n.rpcServer.Start(); err != nil {
			if n.p2pNode != nil {
				n.p2pNode.Stop()
			}
			return fmt.Errorf("start RPC: %w", err)
		}
		n.logger.Info().Str("addr", n.rpcServer.Addr()).Msg("RPC server started")
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.runStatusLoop(statusInterval)
	}()

	n.logger.Info().
		Uint64("last_event", n.token.LastEventSeq()).
		Bool("paused", n.token.Policy().Paused).
		Msg("Node started successfully")
	return nil
}

// Stop performs graceful shutdown in reverse order.
func (n *Node) Stop() {
	n.cancel()
	n.wg.Wait()

	if n.rpcServer != nil {
		n.rpcServer.Stop()
	}
	if n.p2pNode != nil {
		n.p2pNode.Stop()
	}
	if n.db != nil {
		n.db.Close()
	}

	n.logger.Info().Msg("Goodbye!")
}

// RPCAddr returns the address the RPC server is listening on.
func (n *Node) RPCAddr() string {
	if n.rpcServer == nil {
		return ""
	}
	return n.rpcServer.Addr()
}

// Token returns the node's token.
func (n *Node) Token() *token.Token {
	return n.token
}

// P2P returns the gossip node, nil when P2P is disabled.
func (n *Node) P2P() *p2p.Node {
	return n.p2pNode
}

// ── Status ──────────────────────────────────────────────────────────

func (n *Node) runStatusLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-n.ctx.Done():
			return
		case <-ticker.C:
			n.logStatus()
		}
	}
}

func (n *Node) logStatus() {
	supply, err := n.token.TotalSupply()
	if err != nil {
		n.logger.Warn().Err(err).Msg("Status: read supply")
		return
	}
	peers := 0
	if n.p2pNode != nil {
		peers = n.p2pNode.PeerCount()
	}
	n.logger.Info().
		Uint64("supply", supply).
		Uint64("last_event", n.token.LastEventSeq()).
		Int("peers", peers).
		Msg("Status")
}
