package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/Klingon-tech/feetoken/internal/policy"
)

const (
	ownerHex = "0x1111111111111111111111111111111111111111"
	feeHex   = "0x2222222222222222222222222222222222222222"
)

func validDeployment() *Deployment {
	return &Deployment{
		Name:                   "Fee Token",
		Symbol:                 "FEE",
		Decimals:               18,
		Owner:                  ownerHex,
		InitialSupply:          1_000_000,
		FeeRecipient:           feeHex,
		TransferFeeBasisPoints: 100,
		SupplyCap:              2_000_000,
	}
}

func TestDeployment_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deployment.json")
	d := validDeployment()
	if err := d.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := LoadDeployment(path)
	if err != nil {
		t.Fatalf("LoadDeployment: %v", err)
	}
	if *got != *d {
		t.Errorf("got %+v, want %+v", got, d)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestDeployment_Params(t *testing.T) {
	p, err := validDeployment().Params()
	if err != nil {
		t.Fatalf("Params: %v", err)
	}
	if p.Owner.String() != ownerHex || p.FeeRecipient.String() != feeHex {
		t.Errorf("addresses = %s / %s", p.Owner, p.FeeRecipient)
	}

	d := validDeployment()
	d.FeeRecipient = ""
	p, _ = d.Params()
	if p.FeeRecipient != p.Owner {
		t.Error("empty fee recipient should default to owner")
	}
}

func TestDeployment_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Deployment)
		wantErr error
	}{
		{"bad owner", func(d *Deployment) { d.Owner = "nope" }, nil},
		{"zero owner", func(d *Deployment) { d.Owner = "0x0000000000000000000000000000000000000000" }, policy.ErrZeroAddress},
		{"fee above deploy bound", func(d *Deployment) { d.TransferFeeBasisPoints = 1001 }, policy.ErrFeeTooHigh},
		{"supply above cap", func(d *Deployment) { d.InitialSupply = 3_000_000 }, policy.ErrCapExceeded},
		{"missing symbol", func(d *Deployment) { d.Symbol = "" }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDeployment()
			tt.mutate(d)
			err := d.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadDeployment_Errors(t *testing.T) {
	if _, err := LoadDeployment(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("missing file should fail")
	}
}
