package p2p

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/Klingon-tech/feetoken/internal/events"
	"github.com/Klingon-tech/feetoken/pkg/crypto"
	"github.com/Klingon-tech/feetoken/pkg/types"
)

var eventDomainTag = []byte("feetoken-event-v1")

// EventMessage is the gossip payload. The publisher signs the event ID,
// which commits to the contract, sequence number and content.
type EventMessage struct {
	Contract  types.Address `json:"contract"`
	Event     events.Event  `json:"event"`
	Publisher string        `json:"publisher"` // hex, compressed secp256k1
	Signature string        `json:"signature"` // hex, Schnorr
}

// EventDigest is the hash a publisher signs for ev.
func EventDigest(contract types.Address, ev events.Event) types.Hash {
	return crypto.HashParts(eventDomainTag, contract[:], ev.ID[:])
}

// SignEvent wraps ev in a message signed by signer.
func SignEvent(signer crypto.Signer, contract types.Address, ev events.Event) (*EventMessage, error) {
	digest := EventDigest(contract, ev)
	sig, err := signer.Sign(digest[:])
	if err != nil {
		return nil, fmt.Errorf("sign event: %w", err)
	}
	return &EventMessage{
		Contract:  contract,
		Event:     ev,
		Publisher: hex.EncodeToString(signer.PublicKey()),
		Signature: hex.EncodeToString(sig),
	}, nil
}

// Broadcast publishes ev to the events topic, signed with the node's
// publisher key.
func (n *Node) Broadcast(ev events.Event) error {
	if n.topic == nil {
		return fmt.Errorf("p2p node not started")
	}
	if n.config.Signer == nil {
		return fmt.Errorf("no publisher key")
	}
	msg, err := SignEvent(n.config.Signer, n.config.Contract, ev)
	if err != nil {
		return err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := n.topic.Publish(n.ctx, data); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	if n.counter != nil {
		n.counter.GossipPublished()
	}
	return nil
}

// Publish makes the node an events.Sink. Failures are logged, not returned;
// the event is already committed locally.
func (n *Node) Publish(ev events.Event) {
	if err := n.Broadcast(ev); err != nil {
		n.logger.Warn().Uint64("seq", ev.Seq).Err(err).Msg("Gossip publish failed")
	}
}

func (n *Node) readLoop() {
	for {
		msg, err := n.sub.Next(n.ctx)
		if err != nil {
			return
		}
		if msg.ReceivedFrom == n.host.ID() {
			continue
		}
		n.handleMessage(msg)
	}
}

func (n *Node) handleMessage(msg *pubsub.Message) {
	from := msg.ReceivedFrom
	n.addPeer(from, SourceGossip)

	ev, penalty, reason := n.decodeEvent(msg.Data)
	if penalty > 0 {
		n.Bans.RecordOffense(from, penalty, reason)
		return
	}
	if n.counter != nil {
		n.counter.GossipReceived()
	}

	n.handlerMu.RLock()
	handlers := append([]EventHandler(nil), n.handlers...)
	n.handlerMu.RUnlock()
	for _, h := range handlers {
		n.dispatch(h, from, ev)
	}
}

// decodeEvent validates a gossip payload. A non-zero penalty means the
// message must be dropped and the sender scored.
func (n *Node) decodeEvent(data []byte) (events.Event, int, string) {
	if len(data) > MaxEventMessageSize {
		return events.Event{}, PenaltyMalformedEvent, "oversized event message"
	}
	var m EventMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return events.Event{}, PenaltyMalformedEvent, "malformed event message"
	}
	if m.Contract != n.config.Contract {
		return events.Event{}, PenaltyForeignEvent, "event for another contract"
	}
	if !m.Event.Verify(n.config.Contract) {
		return events.Event{}, PenaltyCorruptEvent, "event id mismatch"
	}
	pub, err := hex.DecodeString(m.Publisher)
	if err != nil || !n.trusted[string(pub)] {
		return events.Event{}, PenaltyForgedEvent, "untrusted publisher"
	}
	sig, err := hex.DecodeString(m.Signature)
	if err != nil {
		return events.Event{}, PenaltyForgedEvent, "bad publisher signature"
	}
	digest := EventDigest(n.config.Contract, m.Event)
	if !crypto.VerifySignature(digest[:], sig, pub) {
		return events.Event{}, PenaltyForgedEvent, "bad publisher signature"
	}
	return m.Event, 0, ""
}

// dispatch isolates the read loop from panicking handlers.
func (n *Node) dispatch(h EventHandler, from peer.ID, ev events.Event) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error().Interface("panic", r).Msg("Event handler panicked")
		}
	}()
	h(from, ev)
}
