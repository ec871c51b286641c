// Package vault implements the encrypted account store and its
// locked/unlocked session.
//
// The vault is a single JSON file holding a verification blob and a list
// of account records whose session tokens are encrypted with a key
// derived from the master password and the machine identity. The key
// lives only in memory and is wiped on Lock; the session always starts
// locked.
package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/rokio-app/rokioctl/pkg/audit"
	"github.com/rokio-app/rokioctl/pkg/crypto"
	"github.com/rokio-app/rokioctl/pkg/hwid"
)

// Constants
const (
	VaultFileName = "vault.dat"
	AuditDirName  = "audit"
	FileMode      = 0600 // Owner read/write only
	DirMode       = 0700 // Owner read/write/execute only

	// formatVersion is the vault file format version.
	formatVersion = 1

	// verificationPlaintext is the fixed plaintext whose authenticated
	// encryption proves a candidate key is correct. It is encrypted once
	// at vault creation and never rewritten. Being well-known, it lets
	// an attacker with the file test passwords offline; accepted scope
	// decision for a locally derived key.
	verificationPlaintext = "ROKIO_VAULT_V1"
)

// Errors
var (
	ErrVaultAlreadyExists = errors.New("vault: vault already exists at this path")
	ErrVaultNotFound      = errors.New("vault: vault not found at this path")
	ErrVaultParse         = errors.New("vault: vault file is malformed")
	ErrVaultLocked        = errors.New("vault: vault is locked")
	ErrAccountNotFound    = errors.New("vault: account not found")
	ErrDuplicateAccount   = errors.New("vault: account already exists")
	ErrNoResolver         = errors.New("vault: no token resolver configured")
)

// UserData is the account identity resolved from a session token.
type UserData struct {
	ID          int64
	Username    string
	DisplayName string
	Thumbnail   *string
}

// TokenResolver validates a candidate session token against the platform
// and resolves the account behind it. Implemented by roblox.Client; tests
// inject fakes. The vault itself never makes network calls.
type TokenResolver interface {
	ValidateToken(ctx context.Context, token string) (*UserData, error)
}

// Vault owns the on-disk encrypted account list and the in-memory
// session. All operations hold one mutex, which both guards the key and
// serializes whole-file writes.
type Vault struct {
	path     string
	identity hwid.Provider
	resolver TokenResolver
	audit    *audit.Logger

	mu  sync.Mutex
	key []byte
}

// New creates a Vault over the given data directory. The identity
// provider feeds key derivation; the resolver backs AddAccount and may be
// nil when accounts are never added.
func New(path string, identity hwid.Provider, resolver TokenResolver) *Vault {
	return &Vault{
		path:     path,
		identity: identity,
		resolver: resolver,
		audit:    audit.NewLogger(filepath.Join(path, AuditDirName)),
	}
}

// Path returns the vault data directory.
func (v *Vault) Path() string {
	return v.path
}

// AuditLogger exposes the audit logger for CLI audit commands.
func (v *Vault) AuditLogger() *audit.Logger {
	return v.audit
}

// Exists reports whether a vault file is present.
func (v *Vault) Exists() bool {
	_, err := os.Stat(filepath.Join(v.path, VaultFileName))
	return err == nil
}

// IsLocked reports whether the session holds a key.
func (v *Vault) IsLocked() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.key == nil
}

// Create initializes a new vault:
// 1. Derive a key from the master password and machine identity
// 2. Encrypt the verification plaintext with it
// 3. Write a vault record with an empty account list
// 4. Transition to Unlocked holding the new key
//
// Fails with ErrVaultAlreadyExists if a vault file is already present.
func (v *Vault) Create(masterPassword string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.Exists() {
		return ErrVaultAlreadyExists
	}

	if err := os.MkdirAll(v.path, DirMode); err != nil {
		return fmt.Errorf("vault: failed to create vault directory: %w", err)
	}

	key := crypto.DeriveKey(masterPassword, v.identity)

	verification, err := crypto.EncryptString(verificationPlaintext, key)
	if err != nil {
		return fmt.Errorf("vault: failed to encrypt verification: %w", err)
	}

	record := &vaultFile{
		Version:      formatVersion,
		Verification: verification,
		Accounts:     []encryptedAccount{},
	}
	if err := v.writeRecord(record); err != nil {
		crypto.SecureWipe(key)
		return err
	}

	v.key = key

	if err := v.audit.SetHMACKey(key); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to initialize audit logger: %v\n", err)
	} else {
		_ = v.audit.LogSuccess(audit.OpVaultCreate, "")
	}

	return nil
}

// Unlock derives a key from the password and tests it against the stored
// verification blob. A wrong password is an expected outcome and returns
// (false, nil); a missing or malformed vault file is a hard error. The
// vault file is never modified by an unlock attempt.
func (v *Vault) Unlock(masterPassword string) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	record, err := v.readRecord()
	if err != nil {
		return false, err
	}

	key := crypto.DeriveKey(masterPassword, v.identity)

	decrypted, err := crypto.DecryptString(record.Verification, key)
	if err != nil || decrypted != verificationPlaintext {
		crypto.SecureWipe(key)
		_ = v.audit.LogError(audit.OpVaultUnlockFailed, "", "AUTH_FAILED", "invalid master password")
		return false, nil
	}

	v.key = key

	if err := v.audit.SetHMACKey(key); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to initialize audit logger: %v\n", err)
	} else {
		_ = v.audit.LogSuccess(audit.OpVaultUnlock, "")
	}

	return true, nil
}

// Lock discards the in-memory key and returns the session to Locked.
// Always succeeds; locking a locked vault is a no-op.
func (v *Vault) Lock() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.key != nil {
		_ = v.audit.LogSuccess(audit.OpVaultLock, "")
		crypto.SecureWipe(v.key)
		v.key = nil
	}
}

// LoadAccounts decrypts and returns every account in the vault.
// A decryption failure on any single record fails the whole load: a
// record the current key cannot open points at key/data mismatch
// affecting the whole file, and partial results would mask it.
func (v *Vault) LoadAccounts() ([]Profile, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loadLocked()
}

// SaveAccounts replaces the vault's account list. The current record is
// re-read first to preserve the verification blob and version; every
// token is re-encrypted with a fresh nonce even when unchanged, and the
// file is replaced whole via an atomic rename.
func (v *Vault) SaveAccounts(accounts []Profile) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.saveLocked(accounts)
}

// AddAccount validates a session token through the resolver and stores
// the resolved account. Fails with ErrDuplicateAccount when an account
// with the same user id already exists.
func (v *Vault) AddAccount(ctx context.Context, token string) (*Profile, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.key == nil {
		return nil, ErrVaultLocked
	}
	if v.resolver == nil {
		return nil, ErrNoResolver
	}

	userData, err := v.resolver.ValidateToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("vault: token validation failed: %w", err)
	}

	accounts, err := v.loadLocked()
	if err != nil {
		return nil, err
	}

	for i := range accounts {
		if accounts[i].UserID == userData.ID {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAccount, userData.DisplayName)
		}
	}

	profile := Profile{
		ID:          uuid.NewString(),
		Cookie:      token,
		UserID:      userData.ID,
		Username:    userData.Username,
		DisplayName: userData.DisplayName,
		Thumbnail:   userData.Thumbnail,
		CreatedAt:   time.Now().Unix(),
	}

	accounts = append(accounts, profile)
	if err := v.saveLocked(accounts); err != nil {
		return nil, err
	}

	_ = v.audit.LogSuccess(audit.OpAccountAdd, profile.ID)
	return &profile, nil
}

// UpdateAccount applies the user-editable fields (alias, description,
// favorite flag, last-played timestamp) of the given profile to the
// stored account with the same id.
func (v *Vault) UpdateAccount(profile Profile) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	accounts, err := v.loadLocked()
	if err != nil {
		return err
	}

	found := false
	for i := range accounts {
		if accounts[i].ID == profile.ID {
			accounts[i].Alias = profile.Alias
			accounts[i].Description = profile.Description
			accounts[i].IsFavorite = profile.IsFavorite
			accounts[i].LastPlayedAt = profile.LastPlayedAt
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, profile.ID)
	}

	if err := v.saveLocked(accounts); err != nil {
		return err
	}

	_ = v.audit.LogSuccess(audit.OpAccountUpdate, profile.ID)
	return nil
}

// DeleteAccount removes the account with the given id.
func (v *Vault) DeleteAccount(id string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	accounts, err := v.loadLocked()
	if err != nil {
		return err
	}

	kept := accounts[:0]
	for _, account := range accounts {
		if account.ID != id {
			kept = append(kept, account)
		}
	}
	if len(kept) == len(accounts) {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, id)
	}

	if err := v.saveLocked(kept); err != nil {
		return err
	}

	_ = v.audit.LogSuccess(audit.OpAccountDelete, id)
	return nil
}

// ClearAccounts removes every account, keeping the vault itself.
func (v *Vault) ClearAccounts() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.saveLocked(nil); err != nil {
		return err
	}

	_ = v.audit.LogSuccess(audit.OpAccountClear, "")
	return nil
}

// TouchLastPlayed stamps the account's last-used time with the current
// wall clock. Called when a token is exported for launch.
func (v *Vault) TouchLastPlayed(id string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	accounts, err := v.loadLocked()
	if err != nil {
		return err
	}

	for i := range accounts {
		if accounts[i].ID == id {
			accounts[i].LastPlayedAt = time.Now().UnixMilli()
			return v.saveLocked(accounts)
		}
	}
	return fmt.Errorf("%w: %s", ErrAccountNotFound, id)
}

// ExportRaw returns the raw vault file contents for backup. Tokens stay
// encrypted; the session must still be unlocked so backups cannot be
// pulled from a locked vault.
func (v *Vault) ExportRaw() (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.key == nil {
		return "", ErrVaultLocked
	}

	content, err := os.ReadFile(filepath.Join(v.path, VaultFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrVaultNotFound
		}
		return "", fmt.Errorf("vault: failed to read vault file: %w", err)
	}
	return string(content), nil
}

// Import merges or replaces accounts from an exported vault backup.
// Records the current key cannot decrypt are skipped: a backup from a
// different machine or password contributes nothing rather than failing
// the whole import. Returns the number of accounts decrypted from the
// backup. With merge, existing user ids win.
func (v *Vault) Import(data string, merge bool) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.key == nil {
		return 0, ErrVaultLocked
	}

	var backup vaultFile
	if err := json.Unmarshal([]byte(data), &backup); err != nil {
		return 0, fmt.Errorf("%w: invalid backup: %v", ErrVaultParse, err)
	}

	var imported []Profile
	for _, enc := range backup.Accounts {
		cookie, err := crypto.DecryptString(enc.EncryptedCookie, v.key)
		if err != nil {
			continue
		}
		imported = append(imported, decryptedProfile(enc, cookie))
	}

	if merge {
		existing, err := v.loadLocked()
		if err != nil {
			return 0, err
		}
		byUserID := make(map[int64]bool, len(existing))
		for _, account := range existing {
			byUserID[account.UserID] = true
		}
		for _, account := range imported {
			if !byUserID[account.UserID] {
				existing = append(existing, account)
				byUserID[account.UserID] = true
			}
		}
		if err := v.saveLocked(existing); err != nil {
			return 0, err
		}
	} else {
		if err := v.saveLocked(imported); err != nil {
			return 0, err
		}
	}

	_ = v.audit.LogSuccess(audit.OpAccountImport, "")
	return len(imported), nil
}

// loadLocked reads and decrypts the account list. Caller holds v.mu.
func (v *Vault) loadLocked() ([]Profile, error) {
	if v.key == nil {
		return nil, ErrVaultLocked
	}

	record, err := v.readRecord()
	if err != nil {
		return nil, err
	}

	accounts := make([]Profile, 0, len(record.Accounts))
	for _, enc := range record.Accounts {
		cookie, err := crypto.DecryptString(enc.EncryptedCookie, v.key)
		if err != nil {
			return nil, fmt.Errorf("vault: failed to decrypt account %s: %w", enc.ID, err)
		}
		accounts = append(accounts, decryptedProfile(enc, cookie))
	}
	return accounts, nil
}

// saveLocked re-encrypts and writes the full account list. Caller holds
// v.mu.
func (v *Vault) saveLocked(accounts []Profile) error {
	if v.key == nil {
		return ErrVaultLocked
	}

	// Re-read so the verification blob and version survive unchanged.
	record, err := v.readRecord()
	if err != nil {
		return err
	}

	encrypted := make([]encryptedAccount, 0, len(accounts))
	for _, account := range accounts {
		blob, err := crypto.EncryptString(account.Cookie, v.key)
		if err != nil {
			return fmt.Errorf("vault: failed to encrypt account %s: %w", account.ID, err)
		}
		createdAt := account.CreatedAt
		if createdAt == 0 {
			createdAt = time.Now().Unix()
		}
		encrypted = append(encrypted, encryptedAccount{
			ID:              account.ID,
			EncryptedCookie: blob,
			UserID:          account.UserID,
			Username:        account.Username,
			DisplayName:     account.DisplayName,
			Thumbnail:       account.Thumbnail,
			Alias:           account.Alias,
			Description:     account.Description,
			IsFavorite:      account.IsFavorite,
			LastPlayedAt:    account.LastPlayedAt,
			CreatedAt:       createdAt,
		})
	}

	record.Accounts = encrypted
	return v.writeRecord(record)
}

// readRecord reads and parses the vault file.
func (v *Vault) readRecord() (*vaultFile, error) {
	content, err := os.ReadFile(filepath.Join(v.path, VaultFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrVaultNotFound
		}
		return nil, fmt.Errorf("vault: failed to read vault file: %w", err)
	}

	var record vaultFile
	if err := json.Unmarshal(content, &record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVaultParse, err)
	}
	if record.Verification == "" {
		return nil, fmt.Errorf("%w: missing verification", ErrVaultParse)
	}
	return &record, nil
}

// writeRecord replaces the vault file whole: marshal, write to a
// temporary file in the same directory, fsync, then rename over the
// original. A crash mid-save leaves the previous vault intact.
func (v *Vault) writeRecord(record *vaultFile) error {
	content, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("vault: failed to marshal vault file: %w", err)
	}

	tmp, err := os.CreateTemp(v.path, "vault-*.tmp")
	if err != nil {
		return fmt.Errorf("vault: failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("vault: failed to write vault file: %w", err)
	}
	if err := tmp.Chmod(FileMode); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("vault: failed to set vault file permissions: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("vault: failed to sync vault file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("vault: failed to close vault file: %w", err)
	}

	if err := os.Rename(tmpName, filepath.Join(v.path, VaultFileName)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("vault: failed to replace vault file: %w", err)
	}
	return nil
}

// decryptedProfile assembles a Profile from its stored record and the
// decrypted token. Text fields are NFC-normalized so accounts imported
// from backups compare consistently.
func decryptedProfile(enc encryptedAccount, cookie string) Profile {
	return Profile{
		ID:           enc.ID,
		Cookie:       cookie,
		UserID:       enc.UserID,
		Username:     norm.NFC.String(enc.Username),
		DisplayName:  norm.NFC.String(enc.DisplayName),
		Thumbnail:    enc.Thumbnail,
		Alias:        norm.NFC.String(enc.Alias),
		Description:  enc.Description,
		IsFavorite:   enc.IsFavorite,
		LastPlayedAt: enc.LastPlayedAt,
		CreatedAt:    enc.CreatedAt,
	}
}
