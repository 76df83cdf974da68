package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestAddress_IsZero(t *testing.T) {
	var zero Address
	if !zero.IsZero() {
		t.Error("zero-value Address should be zero")
	}
	if !ZeroAddress.IsZero() {
		t.Error("ZeroAddress should be zero")
	}

	nonZero := Address{0x01}
	if nonZero.IsZero() {
		t.Error("non-zero Address should not be zero")
	}
}

func TestAddress_String(t *testing.T) {
	a := Address{0xab}
	a[19] = 0xcd
	s := a.String()
	if !strings.HasPrefix(s, "0xab") {
		t.Errorf("String() should start with '0xab', got %s", s)
	}
	if !strings.HasSuffix(s, "cd") {
		t.Errorf("String() should end with 'cd', got %s", s)
	}
	if len(s) != 42 {
		t.Errorf("String() length = %d, want 42", len(s))
	}
}

func TestParseAddress(t *testing.T) {
	want := Address{0x8f, 0x3a, 0x44, 0xb8, 0x05, 0x6c, 0xaf, 0xec, 0x36, 0x8d,
		0xea, 0x0c, 0xbe, 0x0a, 0xd1, 0xd9, 0xbc, 0x3f, 0x43, 0x05}

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"prefixed", "0x8f3a44b8056cafec368dea0cbe0ad1d9bc3f4305", false},
		{"raw hex", "8f3a44b8056cafec368dea0cbe0ad1d9bc3f4305", false},
		{"upper prefix", "0X8f3a44b8056cafec368dea0cbe0ad1d9bc3f4305", false},
		{"surrounding space", "  0x8f3a44b8056cafec368dea0cbe0ad1d9bc3f4305 ", false},
		{"empty", "", true},
		{"too short", "0x8f3a", true},
		{"too long", "0x8f3a44b8056cafec368dea0cbe0ad1d9bc3f430500", true},
		{"not hex", "0xzz3a44b8056cafec368dea0cbe0ad1d9bc3f4305", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAddress(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseAddress(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAddress(%q): %v", tt.input, err)
			}
			if got != want {
				t.Errorf("ParseAddress(%q) = %x, want %x", tt.input, got, want)
			}
		})
	}
}

func TestAddress_Roundtrip(t *testing.T) {
	a := Address{0x01, 0x02, 0x03, 0xfe}
	parsed, err := ParseAddress(a.String())
	if err != nil {
		t.Fatalf("ParseAddress: %v", err)
	}
	if parsed != a {
		t.Errorf("roundtrip mismatch: got %x, want %x", parsed, a)
	}
}

func TestAddress_Bytes_IsCopy(t *testing.T) {
	a := Address{0x01}
	b := a.Bytes()
	b[0] = 0xFF
	if a[0] == 0xFF {
		t.Error("Bytes() should return a copy")
	}
}

func TestAddress_JSON(t *testing.T) {
	type wrapper struct {
		Addr Address `json:"addr"`
	}

	in := wrapper{Addr: Address{0xaa, 0xbb}}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"0xaabb`) {
		t.Errorf("unexpected JSON: %s", data)
	}

	var out wrapper
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out.Addr != in.Addr {
		t.Errorf("got %x, want %x", out.Addr, in.Addr)
	}

	// Empty string decodes to the zero address.
	if err := json.Unmarshal([]byte(`{"addr":""}`), &out); err != nil {
		t.Fatalf("Unmarshal empty: %v", err)
	}
	if !out.Addr.IsZero() {
		t.Error("empty address should decode to zero")
	}
}

func TestAddress_MapKeyJSON(t *testing.T) {
	m := map[Address]uint64{{0x01}: 5}
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var back map[Address]uint64
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back[Address{0x01}] != 5 {
		t.Errorf("map roundtrip lost value: %v", back)
	}
}

func TestMustParseAddress_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for invalid address")
		}
	}()
	MustParseAddress("nope")
}
