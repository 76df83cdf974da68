package wallet

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func testKeystore(t *testing.T) *Keystore {
	t.Helper()
	ks, err := NewKeystore(filepath.Join(t.TempDir(), "keys"))
	if err != nil {
		t.Fatalf("NewKeystore() error: %v", err)
	}
	return ks
}

func TestKeystore_CreateAndOpen(t *testing.T) {
	ks := testKeystore(t)
	seed := testSeed(t)

	acct, err := ks.Create("owner", seed, []byte("pw"), fastParams())
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	master, _ := NewMasterKey(seed)
	want, _ := master.DeriveAccount(0)
	if acct.Address != want.Address() || acct.Name != "default" {
		t.Errorf("default account = %+v, want address %s", acct, want.Address())
	}

	w, err := ks.Open("owner", []byte("pw"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	signer, err := w.Signer(0)
	if err != nil {
		t.Fatalf("Signer() error: %v", err)
	}
	if signer.Address() != acct.Address {
		t.Error("signer should control the default account")
	}
}

func TestKeystore_WrongPassword(t *testing.T) {
	ks := testKeystore(t)
	ks.Create("owner", testSeed(t), []byte("pw"), fastParams())
	if _, err := ks.Open("owner", []byte("nope")); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("err = %v, want ErrWrongPassword", err)
	}
}

func TestKeystore_Duplicate(t *testing.T) {
	ks := testKeystore(t)
	if _, err := ks.Create("dup", testSeed(t), []byte("pw"), fastParams()); err != nil {
		t.Fatalf("first Create() error: %v", err)
	}
	if _, err := ks.Create("dup", testSeed(t), []byte("pw"), fastParams()); err == nil {
		t.Error("second Create() should fail")
	}
}

func TestKeystore_InvalidName(t *testing.T) {
	ks := testKeystore(t)
	for _, name := range []string{"", "../x", "a/b", ".hidden"} {
		if _, err := ks.Create(name, testSeed(t), []byte("pw"), fastParams()); err == nil {
			t.Errorf("Create(%q) should fail", name)
		}
	}
}

func TestKeystore_NotFound(t *testing.T) {
	ks := testKeystore(t)
	if _, err := ks.Open("missing", []byte("pw")); !errors.Is(err, ErrWalletNotFound) {
		t.Errorf("Open err = %v, want ErrWalletNotFound", err)
	}
	if err := ks.Delete("missing"); !errors.Is(err, ErrWalletNotFound) {
		t.Errorf("Delete err = %v, want ErrWalletNotFound", err)
	}
}

func TestKeystore_ListDelete(t *testing.T) {
	ks := testKeystore(t)
	ks.Create("a", testSeed(t), []byte("pw"), fastParams())
	ks.Create("b", testSeed(t), []byte("pw"), fastParams())
	os.WriteFile(filepath.Join(ks.dir, "notes.txt"), []byte("x"), 0o600)

	names, err := ks.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("List() = %v, want 2 wallets", names)
	}
	if err := ks.Delete("a"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	names, _ = ks.List()
	if len(names) != 1 || names[0] != "b" {
		t.Errorf("List() after delete = %v", names)
	}
}

func TestWallet_NewAccount(t *testing.T) {
	ks := testKeystore(t)
	ks.Create("owner", testSeed(t), []byte("pw"), fastParams())
	w, _ := ks.Open("owner", []byte("pw"))

	acct, err := w.NewAccount("fees")
	if err != nil {
		t.Fatalf("NewAccount() error: %v", err)
	}
	if acct.Index != 1 {
		t.Errorf("index = %d, want 1", acct.Index)
	}
	if _, err := w.NewAccount("fees"); err == nil {
		t.Error("duplicate label should fail")
	}

	// Persisted without unlocking.
	accts, err := ks.Accounts("owner")
	if err != nil {
		t.Fatalf("Accounts() error: %v", err)
	}
	if len(accts) != 2 || accts[1].Address != acct.Address {
		t.Errorf("Accounts() = %+v", accts)
	}

	byName, err := w.Account("fees")
	if err != nil || byName.Index != 1 {
		t.Errorf("Account(fees) = %+v, %v", byName, err)
	}
	byIndex, err := w.Account("0")
	if err != nil || byIndex.Name != "default" {
		t.Errorf("Account(0) = %+v, %v", byIndex, err)
	}
	if _, err := w.Account("nope"); err == nil {
		t.Error("unknown account should fail")
	}
}
