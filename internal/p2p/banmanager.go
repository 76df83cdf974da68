package p2p

import (
	"sync"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/Klingon-tech/feetoken/internal/log"
)

// Ban policy.
const (
	BanThreshold = 100
	BanDuration  = 24 * time.Hour
)

// Penalties for gossip misbehavior.
const (
	PenaltyMalformedEvent = 20  // Undecodable or oversized payload.
	PenaltyCorruptEvent   = 50  // Event ID does not match its content.
	PenaltyForgedEvent    = 100 // Not signed by a trusted publisher.
	PenaltyForeignEvent   = 100 // Event for another contract on our topic.
)

// BanManager scores peer offenses and bans peers that cross BanThreshold.
type BanManager struct {
	mu     sync.RWMutex
	scores map[peer.ID]int
	bans   map[peer.ID]*BanRecord
	store  *BanStore // nil disables persistence
	node   *Node     // nil disables disconnect-on-ban
	now    func() time.Time
}

// NewBanManager creates a ban manager. store and node may be nil.
func NewBanManager(store *BanStore, node *Node) *BanManager {
	return &BanManager{
		scores: make(map[peer.ID]int),
		bans:   make(map[peer.ID]*BanRecord),
		store:  store,
		node:   node,
		now:    time.Now,
	}
}

// LoadBans restores unexpired bans from the store.
func (bm *BanManager) LoadBans() error {
	if bm.store == nil {
		return nil
	}
	now := bm.now()
	if _, err := bm.store.PruneExpired(now); err != nil {
		return err
	}
	recs, err := bm.store.All()
	if err != nil {
		return err
	}

	bm.mu.Lock()
	defer bm.mu.Unlock()
	for i := range recs {
		id, err := peer.Decode(recs[i].ID)
		if err != nil {
			continue
		}
		bm.bans[id] = &recs[i]
	}
	return nil
}

// RecordOffense adds penalty to the peer's score and bans it once the
// score reaches BanThreshold.
func (bm *BanManager) RecordOffense(id peer.ID, penalty int, reason string) {
	bm.mu.Lock()
	if rec, ok := bm.bans[id]; ok && !rec.Expired(bm.now()) {
		bm.mu.Unlock()
		return
	}
	bm.scores[id] += penalty
	score := bm.scores[id]
	if score < BanThreshold {
		bm.mu.Unlock()
		log.P2P.Debug().Str("peer", shortID(id)).Int("score", score).Str("reason", reason).Msg("Peer offense")
		return
	}

	now := bm.now()
	rec := &BanRecord{
		ID:        id.String(),
		Reason:    reason,
		Score:     score,
		BannedAt:  now.Unix(),
		ExpiresAt: now.Add(BanDuration).Unix(),
	}
	bm.bans[id] = rec
	delete(bm.scores, id)
	bm.mu.Unlock()

	if bm.store != nil {
		if err := bm.store.Put(rec); err != nil {
			log.P2P.Warn().Err(err).Msg("Persist ban failed")
		}
	}
	log.P2P.Warn().Str("peer", shortID(id)).Str("reason", reason).Int("score", score).Msg("Peer banned")

	if bm.node != nil {
		go bm.node.DisconnectPeer(id)
	}
}

// Score returns the peer's current offense score.
func (bm *BanManager) Score(id peer.ID) int {
	bm.mu.RLock()
	defer bm.mu.RUnlock()
	return bm.scores[id]
}

// IsBanned reports whether id is banned. Expired bans are dropped.
func (bm *BanManager) IsBanned(id peer.ID) bool {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	rec, ok := bm.bans[id]
	if !ok {
		return false
	}
	if rec.Expired(bm.now()) {
		delete(bm.bans, id)
		if bm.store != nil {
			_ = bm.store.Delete(id)
		}
		return false
	}
	return true
}

// Unban lifts a ban and clears the score.
func (bm *BanManager) Unban(id peer.ID) {
	bm.mu.Lock()
	delete(bm.bans, id)
	delete(bm.scores, id)
	bm.mu.Unlock()
	if bm.store != nil {
		_ = bm.store.Delete(id)
	}
}

// BanList returns the active bans.
func (bm *BanManager) BanList() []BanRecord {
	bm.mu.RLock()
	defer bm.mu.RUnlock()
	now := bm.now()
	var out []BanRecord
	for _, rec := range bm.bans {
		if !rec.Expired(now) {
			out = append(out, *rec)
		}
	}
	return out
}

func shortID(id peer.ID) string {
	s := id.String()
	if len(s) > 16 {
		return s[:16]
	}
	return s
}
