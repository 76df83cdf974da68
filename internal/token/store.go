package token

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Klingon-tech/feetoken/internal/events"
	"github.com/Klingon-tech/feetoken/internal/policy"
	"github.com/Klingon-tech/feetoken/internal/storage"
	"github.com/Klingon-tech/feetoken/pkg/types"
)

var (
	keyMetadata     = []byte("m/meta")   // Metadata JSON
	keyEventSeq     = []byte("m/seq")    // last event seq, uint64 BE
	keyPolicy       = []byte("c/policy") // policy.Config JSON
	prefixBlacklist = []byte("l/")       // l/<addr(20)> -> 0x01
	prefixEvent     = []byte("e/")       // e/<seq(8) BE> -> Event JSON
)

// reader is satisfied by storage.DB and by a staged ledger.Tx.
type reader interface {
	Get(key []byte) ([]byte, error)
}

// writer is satisfied by a staged ledger.Tx.
type writer interface {
	Put(key, value []byte)
	Delete(key []byte)
}

// Store persists token metadata, policy configuration, the blacklist and
// the event journal.
type Store struct {
	db storage.DB
}

// NewStore creates a token store.
func NewStore(db storage.DB) *Store {
	return &Store{db: db}
}

// Deployed reports whether a token has been deployed into the store.
func (s *Store) Deployed() (bool, error) {
	return s.db.Has(keyMetadata)
}

// Metadata returns the stored token metadata.
func (s *Store) Metadata() (*Metadata, error) {
	var meta Metadata
	if err := getJSON(s.db, keyMetadata, &meta); err != nil {
		return nil, fmt.Errorf("token metadata: %w", err)
	}
	return &meta, nil
}

// Policy returns the stored policy configuration.
func (s *Store) Policy() (*policy.Config, error) {
	var cfg policy.Config
	if err := getJSON(s.db, keyPolicy, &cfg); err != nil {
		return nil, fmt.Errorf("token policy: %w", err)
	}
	return &cfg, nil
}

// LastSeq returns the sequence number of the last journaled event.
func (s *Store) LastSeq() (uint64, error) {
	data, err := s.db.Get(keyEventSeq)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("token event seq: %w", err)
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("token event seq: corrupt value")
	}
	return binary.BigEndian.Uint64(data), nil
}

// IsBlacklisted reports whether addr is on the committed blacklist.
func (s *Store) IsBlacklisted(addr types.Address) (bool, error) {
	return isBlacklisted(s.db, addr)
}

// Blacklist returns every blacklisted address in ascending order.
func (s *Store) Blacklist() ([]types.Address, error) {
	out := []types.Address{}
	err := s.db.ForEach(prefixBlacklist, func(key, _ []byte) error {
		if len(key) != len(prefixBlacklist)+types.AddressSize {
			return nil // Malformed key, skip.
		}
		var a types.Address
		copy(a[:], key[len(prefixBlacklist):])
		out = append(out, a)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("token blacklist: %w", err)
	}
	return out, nil
}

// Events returns up to limit journaled events with seq >= from.
func (s *Store) Events(from uint64, limit int) ([]events.Event, error) {
	out := []events.Event{}
	if limit <= 0 {
		return out, nil
	}
	stop := errors.New("stop")
	err := s.db.ForEach(prefixEvent, func(key, value []byte) error {
		if len(key) != len(prefixEvent)+8 {
			return nil
		}
		if binary.BigEndian.Uint64(key[len(prefixEvent):]) < from {
			return nil
		}
		var ev events.Event
		if err := json.Unmarshal(value, &ev); err != nil {
			return fmt.Errorf("decode event %x: %w", key, err)
		}
		out = append(out, ev)
		if len(out) >= limit {
			return stop
		}
		return nil
	})
	if err != nil && !errors.Is(err, stop) {
		return nil, fmt.Errorf("token events: %w", err)
	}
	return out, nil
}

func putMetadata(w writer, meta *Metadata) error {
	return putJSON(w, keyMetadata, meta)
}

func putPolicy(w writer, cfg *policy.Config) error {
	return putJSON(w, keyPolicy, cfg)
}

func putEvent(w writer, ev *events.Event) error {
	if err := putJSON(w, eventKey(ev.Seq), ev); err != nil {
		return err
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], ev.Seq)
	w.Put(keyEventSeq, buf[:])
	return nil
}

func setBlacklisted(w writer, addr types.Address, listed bool) {
	if listed {
		w.Put(blacklistKey(addr), []byte{1})
		return
	}
	w.Delete(blacklistKey(addr))
}

func isBlacklisted(r reader, addr types.Address) (bool, error) {
	_, err := r.Get(blacklistKey(addr))
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("blacklist read: %w", err)
	}
	return true, nil
}

func getJSON(r reader, key []byte, v any) error {
	data, err := r.Get(key)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func putJSON(w writer, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	w.Put(key, data)
	return nil
}

func blacklistKey(addr types.Address) []byte {
	key := make([]byte, len(prefixBlacklist)+types.AddressSize)
	copy(key, prefixBlacklist)
	copy(key[len(prefixBlacklist):], addr[:])
	return key
}

func eventKey(seq uint64) []byte {
	key := make([]byte, len(prefixEvent)+8)
	copy(key, prefixEvent)
	binary.BigEndian.PutUint64(key[len(prefixEvent):], seq)
	return key
}
