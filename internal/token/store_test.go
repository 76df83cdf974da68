package token

import (
	"testing"

	"github.com/Klingon-tech/feetoken/internal/events"
	"github.com/Klingon-tech/feetoken/internal/ledger"
	"github.com/Klingon-tech/feetoken/internal/policy"
	"github.com/Klingon-tech/feetoken/internal/storage"
	"github.com/Klingon-tech/feetoken/pkg/types"
)

func TestStore_EmptyDatabase(t *testing.T) {
	s := NewStore(storage.NewMemory())

	deployed, err := s.Deployed()
	if err != nil {
		t.Fatalf("Deployed: %v", err)
	}
	if deployed {
		t.Fatal("expected Deployed=false on empty db")
	}
	if _, err := s.Metadata(); err == nil {
		t.Error("Metadata on empty db should fail")
	}
	seq, err := s.LastSeq()
	if err != nil || seq != 0 {
		t.Errorf("LastSeq = %d, %v", seq, err)
	}
	list, err := s.Blacklist()
	if err != nil || len(list) != 0 {
		t.Errorf("Blacklist = %v, %v", list, err)
	}
	evs, err := s.Events(0, 10)
	if err != nil || len(evs) != 0 {
		t.Errorf("Events = %v, %v", evs, err)
	}
}

func TestStore_StagedWrites(t *testing.T) {
	db := storage.NewMemory()
	s := NewStore(db)
	tx := ledger.New(db).Begin()

	meta := &Metadata{Name: "T", Symbol: "T", Decimals: 6, Owner: types.Address{0xAA}}
	if err := putMetadata(tx, meta); err != nil {
		t.Fatal(err)
	}
	cfg := &policy.Config{TransferFeeBasisPoints: 25, FeeRecipient: types.Address{0xBB}}
	if err := putPolicy(tx, cfg); err != nil {
		t.Fatal(err)
	}
	setBlacklisted(tx, types.Address{0x02}, true)
	setBlacklisted(tx, types.Address{0x01}, true)

	ev := events.NewTransfer(types.Address{0x01}, types.Address{0x02}, 9)
	ev.Seq = 1
	if err := putEvent(tx, &ev); err != nil {
		t.Fatal(err)
	}

	// Staged reads see the blacklist before commit; the store does not.
	if ok, _ := isBlacklisted(tx, types.Address{0x01}); !ok {
		t.Error("staged blacklist not visible")
	}
	if ok, _ := s.IsBlacklisted(types.Address{0x01}); ok {
		t.Error("uncommitted blacklist visible")
	}

	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	got, err := s.Metadata()
	if err != nil || got.Decimals != 6 || got.Owner != meta.Owner {
		t.Errorf("Metadata = %+v, %v", got, err)
	}
	gotCfg, err := s.Policy()
	if err != nil || *gotCfg != *cfg {
		t.Errorf("Policy = %+v, %v", gotCfg, err)
	}
	list, _ := s.Blacklist()
	if len(list) != 2 || list[0] != (types.Address{0x01}) {
		t.Errorf("Blacklist = %v", list)
	}
	if seq, _ := s.LastSeq(); seq != 1 {
		t.Errorf("LastSeq = %d", seq)
	}
	evs, _ := s.Events(1, 1)
	if len(evs) != 1 || evs[0].Amount != 9 {
		t.Errorf("Events = %+v", evs)
	}
}
