package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Klingon-tech/feetoken/pkg/crypto"
	"github.com/Klingon-tech/feetoken/pkg/types"
)

const keystoreVersion = 1

// ErrWalletNotFound is returned for an unknown wallet name.
var ErrWalletNotFound = errors.New("wallet not found")

// Account is a labeled derived key.
type Account struct {
	Index   uint32        `json:"index"`
	Name    string        `json:"name"`
	Address types.Address `json:"address"`
}

type keystoreFile struct {
	Version       int       `json:"version"`
	CreatedAt     time.Time `json:"created_at"`
	EncryptedSeed []byte    `json:"encrypted_seed"`
	Accounts      []Account `json:"accounts"`
}

// Keystore is a directory of encrypted wallet files, one per name.
type Keystore struct {
	dir string
}

// NewKeystore opens dir, creating it if needed.
func NewKeystore(dir string) (*Keystore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create keystore dir: %w", err)
	}
	return &Keystore{dir: dir}, nil
}

func (ks *Keystore) path(name string) string {
	return filepath.Join(ks.dir, name+".wallet")
}

func validName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("invalid wallet name %q", name)
	}
	return nil
}

// Create stores seed under name encrypted with password. Account 0 is
// recorded as "default".
func (ks *Keystore) Create(name string, seed, password []byte, params EncryptionParams) (*Account, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	path := ks.path(name)
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("wallet %q already exists", name)
	}
	master, err := NewMasterKey(seed)
	if err != nil {
		return nil, err
	}
	first, err := master.DeriveAccount(0)
	if err != nil {
		return nil, err
	}
	sealed, err := Encrypt(seed, password, params)
	if err != nil {
		return nil, fmt.Errorf("encrypt seed: %w", err)
	}
	acct := Account{Index: 0, Name: "default", Address: first.Address()}
	kf := &keystoreFile{
		Version:       keystoreVersion,
		CreatedAt:     time.Now().UTC(),
		EncryptedSeed: sealed,
		Accounts:      []Account{acct},
	}
	if err := writeKeystore(path, kf); err != nil {
		return nil, err
	}
	return &acct, nil
}

// Open decrypts the named wallet.
func (ks *Keystore) Open(name string, password []byte) (*Wallet, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	path := ks.path(name)
	kf, err := readKeystore(path)
	if err != nil {
		return nil, err
	}
	seed, err := Decrypt(kf.EncryptedSeed, password)
	if err != nil {
		return nil, err
	}
	defer wipe(seed)
	master, err := NewMasterKey(seed)
	if err != nil {
		return nil, err
	}
	return &Wallet{path: path, master: master, file: kf}, nil
}

// Accounts lists the named wallet's accounts without decrypting it.
func (ks *Keystore) Accounts(name string) ([]Account, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	kf, err := readKeystore(ks.path(name))
	if err != nil {
		return nil, err
	}
	return kf.Accounts, nil
}

// List returns the stored wallet names.
func (ks *Keystore) List() ([]string, error) {
	entries, err := os.ReadDir(ks.dir)
	if err != nil {
		return nil, fmt.Errorf("read keystore dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".wallet" {
			names = append(names, strings.TrimSuffix(e.Name(), ".wallet"))
		}
	}
	return names, nil
}

// Delete removes the named wallet file.
func (ks *Keystore) Delete(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := os.Remove(ks.path(name)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrWalletNotFound, name)
		}
		return err
	}
	return nil
}

// Wallet is an unlocked keystore entry.
type Wallet struct {
	path   string
	master *HDKey
	file   *keystoreFile
}

// Accounts returns the recorded accounts.
func (w *Wallet) Accounts() []Account {
	return append([]Account(nil), w.file.Accounts...)
}

// Account looks up an account by name or decimal index.
func (w *Wallet) Account(ref string) (*Account, error) {
	for i := range w.file.Accounts {
		a := w.file.Accounts[i]
		if a.Name == ref || fmt.Sprint(a.Index) == ref {
			return &a, nil
		}
	}
	return nil, fmt.Errorf("account %q not found", ref)
}

// NewAccount derives the next account and records it under label.
func (w *Wallet) NewAccount(label string) (*Account, error) {
	for _, a := range w.file.Accounts {
		if a.Name == label {
			return nil, fmt.Errorf("account %q already exists", label)
		}
	}
	var next uint32
	for _, a := range w.file.Accounts {
		if a.Index >= next {
			next = a.Index + 1
		}
	}
	key, err := w.master.DeriveAccount(next)
	if err != nil {
		return nil, err
	}
	acct := Account{Index: next, Name: label, Address: key.Address()}
	w.file.Accounts = append(w.file.Accounts, acct)
	if err := writeKeystore(w.path, w.file); err != nil {
		w.file.Accounts = w.file.Accounts[:len(w.file.Accounts)-1]
		return nil, err
	}
	return &acct, nil
}

// Signer returns the signing key for account index.
func (w *Wallet) Signer(index uint32) (*crypto.PrivateKey, error) {
	key, err := w.master.DeriveAccount(index)
	if err != nil {
		return nil, err
	}
	return key.Signer()
}

func writeKeystore(path string, kf *keystoreFile) error {
	data, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal wallet: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write wallet: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write wallet: %w", err)
	}
	return nil
}

func readKeystore(path string) (*keystoreFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrWalletNotFound, strings.TrimSuffix(filepath.Base(path), ".wallet"))
		}
		return nil, fmt.Errorf("read wallet: %w", err)
	}
	var kf keystoreFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("parse wallet: %w", err)
	}
	if kf.Version != keystoreVersion {
		return nil, fmt.Errorf("unsupported wallet version: %d", kf.Version)
	}
	return &kf, nil
}
