package p2p

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Klingon-tech/feetoken/internal/storage"
	"github.com/libp2p/go-libp2p/core/peer"
)

var prefixBan = []byte("ban/") // ban/<peer id> -> BanRecord JSON

// BanRecord is a persisted ban.
type BanRecord struct {
	ID        string `json:"id"`
	Reason    string `json:"reason"`
	Score     int    `json:"score"`
	BannedAt  int64  `json:"banned_at"`
	ExpiresAt int64  `json:"expires_at"` // 0 = permanent
}

// Expired reports whether a temporary ban has run out at now.
func (r *BanRecord) Expired(now time.Time) bool {
	return r.ExpiresAt > 0 && now.Unix() >= r.ExpiresAt
}

// BanStore persists bans so they survive restarts.
type BanStore struct {
	db storage.DB
}

// NewBanStore creates a ban store over db.
func NewBanStore(db storage.DB) *BanStore {
	return &BanStore{db: db}
}

func banKey(id string) []byte {
	return append(append([]byte{}, prefixBan...), id...)
}

// Put saves rec.
func (s *BanStore) Put(rec *BanRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal ban: %w", err)
	}
	return s.db.Put(banKey(rec.ID), data)
}

// Get loads the ban for id.
func (s *BanStore) Get(id peer.ID) (*BanRecord, error) {
	data, err := s.db.Get(banKey(id.String()))
	if err != nil {
		return nil, err
	}
	var rec BanRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal ban: %w", err)
	}
	return &rec, nil
}

// Delete removes the ban for id.
func (s *BanStore) Delete(id peer.ID) error {
	return s.db.Delete(banKey(id.String()))
}

// All returns every stored ban. Corrupt records are skipped.
func (s *BanStore) All() ([]BanRecord, error) {
	var out []BanRecord
	err := s.db.ForEach(prefixBan, func(_, value []byte) error {
		var rec BanRecord
		if json.Unmarshal(value, &rec) == nil {
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list bans: %w", err)
	}
	return out, nil
}

// PruneExpired deletes expired and corrupt records and returns how many
// were removed.
func (s *BanStore) PruneExpired(now time.Time) (int, error) {
	return pruneWhere(s.db, prefixBan, func(value []byte) bool {
		var rec BanRecord
		return json.Unmarshal(value, &rec) != nil || rec.Expired(now)
	})
}

// pruneWhere deletes every record under prefix for which drop returns true.
func pruneWhere(db storage.DB, prefix []byte, drop func(value []byte) bool) (int, error) {
	var doomed [][]byte
	err := db.ForEach(prefix, func(key, value []byte) error {
		if drop(value) {
			doomed = append(doomed, key)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan %s: %w", prefix, err)
	}
	batch := storage.NewBatch(db)
	for _, k := range doomed {
		if err := batch.Delete(k); err != nil {
			return 0, err
		}
	}
	if err := batch.Commit(); err != nil {
		return 0, fmt.Errorf("prune %s: %w", prefix, err)
	}
	return len(doomed), nil
}
