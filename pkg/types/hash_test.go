package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestHash_IsZero(t *testing.T) {
	var zero Hash
	if !zero.IsZero() {
		t.Error("zero-value Hash should be zero")
	}

	nonZero := Hash{0x01}
	if nonZero.IsZero() {
		t.Error("non-zero Hash should not be zero")
	}
}

func TestHash_String(t *testing.T) {
	var h Hash
	if s := h.String(); s != "0x"+strings.Repeat("0", 64) {
		t.Errorf("zero hash String() = %s, want 0x and all zeros", s)
	}

	h[0] = 0xab
	h[31] = 0xcd
	s := h.String()
	if !strings.HasPrefix(s, "0xab") || !strings.HasSuffix(s, "cd") {
		t.Errorf("String() = %s", s)
	}
}

func TestHexToHash(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", strings.Repeat("ab", 32), false},
		{"prefixed", "0x" + strings.Repeat("ab", 32), false},
		{"address length", "0x" + strings.Repeat("ab", 20), true},
		{"short", "abcd", true},
		{"bad hex", strings.Repeat("zz", 32), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := HexToHash(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("HexToHash(%q) err = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestHash_JSON(t *testing.T) {
	h := Hash{0x01, 0x02}
	data, err := json.Marshal(h)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var back Hash
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back != h {
		t.Errorf("got %x, want %x", back, h)
	}
	if want := `"` + h.String() + `"`; string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}

	var empty Hash
	if err := json.Unmarshal([]byte(`""`), &empty); err != nil || !empty.IsZero() {
		t.Errorf("empty string should decode to the zero hash, err = %v", err)
	}
	if err := json.Unmarshal([]byte(`"0x1234"`), &empty); err == nil {
		t.Error("short hash should fail")
	}
}

func TestHash_BytesIsCopy(t *testing.T) {
	h := Hash{0x01}
	b := h.Bytes()
	b[0] = 0xff
	if h[0] != 0x01 {
		t.Error("Bytes should not alias the hash")
	}
}
