package p2p

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Klingon-tech/feetoken/internal/storage"
	"github.com/libp2p/go-libp2p/core/peer"
)

const (
	staleThreshold    = 24 * time.Hour
	persistInterval   = 5 * time.Minute
	maxPersistedPeers = 500
)

var prefixPeer = []byte("peer/") // peer/<peer id> -> PeerRecord JSON

// PeerRecord is a remembered peer, used to reconnect after a restart.
type PeerRecord struct {
	ID       string   `json:"id"`
	Addrs    []string `json:"addrs"`
	LastSeen int64    `json:"last_seen"`
	Source   string   `json:"source,omitempty"`
}

// PeerStore persists known peers.
type PeerStore struct {
	db storage.DB
}

// NewPeerStore creates a peer store over db.
func NewPeerStore(db storage.DB) *PeerStore {
	return &PeerStore{db: db}
}

func peerKey(id string) []byte {
	return append(append([]byte{}, prefixPeer...), id...)
}

// Save stores rec. New peers are dropped once maxPersistedPeers records
// exist; known peers are always updated.
func (s *PeerStore) Save(rec PeerRecord) error {
	key := peerKey(rec.ID)
	known, err := s.db.Has(key)
	if err != nil {
		return fmt.Errorf("check peer: %w", err)
	}
	if !known {
		n, err := s.Count()
		if err != nil {
			return err
		}
		if n >= maxPersistedPeers {
			return nil
		}
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal peer: %w", err)
	}
	return s.db.Put(key, data)
}

// Load returns the record for id.
func (s *PeerStore) Load(id peer.ID) (*PeerRecord, error) {
	data, err := s.db.Get(peerKey(id.String()))
	if err != nil {
		return nil, fmt.Errorf("load peer: %w", err)
	}
	var rec PeerRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal peer: %w", err)
	}
	return &rec, nil
}

// LoadAll returns every stored peer. Corrupt records are skipped.
func (s *PeerStore) LoadAll() ([]PeerRecord, error) {
	var out []PeerRecord
	err := s.db.ForEach(prefixPeer, func(_, value []byte) error {
		var rec PeerRecord
		if json.Unmarshal(value, &rec) == nil {
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list peers: %w", err)
	}
	return out, nil
}

// Delete forgets id.
func (s *PeerStore) Delete(id peer.ID) error {
	return s.db.Delete(peerKey(id.String()))
}

// Count returns the number of stored peers.
func (s *PeerStore) Count() (int, error) {
	n := 0
	err := s.db.ForEach(prefixPeer, func(_, _ []byte) error {
		n++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count peers: %w", err)
	}
	return n, nil
}

// PruneStale deletes records not seen within threshold, and corrupt ones.
func (s *PeerStore) PruneStale(threshold time.Duration) (int, error) {
	cutoff := time.Now().Add(-threshold).Unix()
	return pruneWhere(s.db, prefixPeer, func(value []byte) bool {
		var rec PeerRecord
		return json.Unmarshal(value, &rec) != nil || rec.LastSeen < cutoff
	})
}
