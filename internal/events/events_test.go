package events

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Klingon-tech/feetoken/pkg/types"
)

var (
	contract = types.Address{0xcc}
	alice    = types.Address{0x01}
	bob      = types.Address{0x02}
)

func TestSeal_DeterministicAndVerifiable(t *testing.T) {
	a := NewTransfer(alice, bob, 10)
	b := NewTransfer(alice, bob, 10)
	if err := a.Seal(contract, 1); err != nil {
		t.Fatal(err)
	}
	if err := b.Seal(contract, 1); err != nil {
		t.Fatal(err)
	}
	if a.ID != b.ID || a.ID.IsZero() {
		t.Fatalf("IDs differ or zero: %s vs %s", a.ID, b.ID)
	}
	if !a.Verify(contract) {
		t.Error("Verify() = false for sealed event")
	}

	c := NewTransfer(alice, bob, 10)
	if err := c.Seal(contract, 2); err != nil {
		t.Fatal(err)
	}
	if c.ID == a.ID {
		t.Error("different seq produced the same ID")
	}

	a.Amount = 11
	if a.Verify(contract) {
		t.Error("Verify() = true after tampering")
	}
	if c.Verify(types.Address{0xdd}) {
		t.Error("Verify() = true for another contract")
	}
}

func TestEvent_JSON(t *testing.T) {
	ev := NewAccountUpdate(BlacklistUpdated, bob, false, true)
	if err := ev.Seal(contract, 7); err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatal(err)
	}
	var got Event
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.Name != BlacklistUpdated || got.OldValue != "false" || got.NewValue != "true" {
		t.Errorf("decoded = %+v", got)
	}
	if got.Account == nil || *got.Account != bob {
		t.Errorf("account = %v", got.Account)
	}
	if !got.Verify(contract) {
		t.Error("decoded event does not verify")
	}
}

func TestMintBurnHelpers(t *testing.T) {
	if !NewTransfer(types.ZeroAddress, bob, 1).IsMint() {
		t.Error("IsMint() = false")
	}
	if !NewTransfer(alice, types.ZeroAddress, 1).IsBurn() {
		t.Error("IsBurn() = false")
	}
	if NewTransfer(alice, bob, 1).IsMint() || NewTransfer(alice, bob, 1).IsBurn() {
		t.Error("plain transfer classified as mint or burn")
	}
}

func TestMultiAndRecorder(t *testing.T) {
	var r1, r2 Recorder
	var calls int
	m := Multi{&r1, nil, &r2, SinkFunc(func(Event) { calls++ })}

	m.Publish(NewUpdate(Paused, false, true))
	m.Publish(NewTransfer(alice, bob, 3))

	if len(r1.Events()) != 2 || len(r2.Events()) != 2 || calls != 2 {
		t.Fatalf("fan-out counts = %d, %d, %d", len(r1.Events()), len(r2.Events()), calls)
	}
	if got := r1.Named(Transfer); len(got) != 1 || got[0].Amount != 3 {
		t.Errorf("Named(Transfer) = %+v", got)
	}
	r1.Reset()
	if len(r1.Events()) != 0 {
		t.Error("Reset did not clear")
	}
	Discard.Publish(NewTransfer(alice, bob, 1))
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	s := LogSink{Logger: zerolog.New(&buf)}
	s.Publish(NewTransfer(alice, bob, 42))

	out := buf.String()
	for _, want := range []string{`"event":"Transfer"`, `"amount":42`, bob.String()} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}
}
