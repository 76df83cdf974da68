package p2p

import (
	"context"

	"github.com/libp2p/go-libp2p/core/peer"
)

// mdnsNotifee connects to peers found on the local network.
type mdnsNotifee struct {
	node *Node
}

func (d *mdnsNotifee) HandlePeerFound(pi peer.AddrInfo) {
	if pi.ID == d.node.host.ID() || d.node.atPeerLimit() {
		return
	}
	ctx, cancel := context.WithTimeout(d.node.ctx, peerConnectTimeout)
	defer cancel()
	if err := d.node.host.Connect(ctx, pi); err == nil {
		d.node.addPeer(pi.ID, SourceMDNS)
	}
}
