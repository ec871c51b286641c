// Package audit provides append-only operation logging with an HMAC chain
// for tamper detection.
//
// Events are written as JSON lines under the vault data directory. The
// HMAC key is derived from the vault key via HKDF, so audit records can
// only be verified (or forged) by someone who can already unlock the
// vault; without the key the logger still records events, just unchained.
package audit

import (
	"bufio"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"
)

// Operation types for audit logging.
const (
	OpVaultCreate       = "vault.create"
	OpVaultUnlock       = "vault.unlock"
	OpVaultUnlockFailed = "vault.unlock_failed"
	OpVaultLock         = "vault.lock"

	OpAccountAdd    = "account.add"
	OpAccountUpdate = "account.update"
	OpAccountDelete = "account.delete"
	OpAccountClear  = "account.clear"
	OpAccountImport = "account.import"

	OpCookiesExport = "cookies.export"
)

// Result indicates the outcome of an operation.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// LogFileName is the audit log file name inside the audit directory.
const LogFileName = "audit.jsonl"

// hkdfInfo domain-separates the audit HMAC key from the vault key.
const hkdfInfo = "rokioctl-audit-v1"

// ErrChainBroken indicates the HMAC chain did not verify.
var ErrChainBroken = errors.New("audit: hmac chain broken")

// Event is a single audit record.
type Event struct {
	Version   int    `json:"v"`
	ID        string `json:"id"`
	Timestamp string `json:"ts"`

	Operation string `json:"op"`
	AccountID string `json:"account,omitempty"`
	SessionID string `json:"session"`

	Result string     `json:"result"`
	Error  *ErrorInfo `json:"error,omitempty"`

	Chain Chain `json:"chain"`
}

// ErrorInfo carries error details for failed operations.
type ErrorInfo struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Chain links an event to its predecessor for tamper detection.
type Chain struct {
	Sequence int64  `json:"seq"`
	PrevHash string `json:"prev"`
	HMAC     string `json:"hmac"`
}

// VerifyResult summarizes a chain verification pass.
type VerifyResult struct {
	Valid           bool     `json:"valid"`
	RecordsTotal    int      `json:"records_total"`
	RecordsVerified int      `json:"records_verified"`
	Errors          []string `json:"errors,omitempty"`
}

// Logger appends audit events with an HMAC chain.
type Logger struct {
	path string

	mu          sync.Mutex
	hmacKey     []byte
	hmacKeySet  bool
	chainLoaded bool
	sequence    int64
	prevHash    string
	sessionID   string
}

// NewLogger creates a logger writing under the given directory.
func NewLogger(path string) *Logger {
	session := make([]byte, 8)
	_, _ = rand.Read(session)
	return &Logger{
		path:      path,
		sessionID: hex.EncodeToString(session),
	}
}

// SetHMACKey derives the audit HMAC key from the vault key. Called after
// every successful unlock; until then events are written without HMACs.
func (l *Logger) SetHMACKey(vaultKey []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	reader := hkdf.New(sha256.New, vaultKey, nil, []byte(hkdfInfo))
	key := make([]byte, 32)
	if _, err := io.ReadFull(reader, key); err != nil {
		return fmt.Errorf("audit: failed to derive hmac key: %w", err)
	}

	l.hmacKey = key
	l.hmacKeySet = true
	return l.ensureChainLoaded()
}

// LogSuccess records a successful operation. Best-effort: callers treat
// failures as warnings, never as operation failures.
func (l *Logger) LogSuccess(operation, accountID string) error {
	return l.append(operation, accountID, ResultSuccess, nil)
}

// LogError records a failed operation.
func (l *Logger) LogError(operation, accountID, code, message string) error {
	return l.append(operation, accountID, ResultError, &ErrorInfo{Code: code, Message: message})
}

func (l *Logger) append(operation, accountID, result string, errInfo *ErrorInfo) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.path, 0700); err != nil {
		return fmt.Errorf("audit: failed to create audit directory: %w", err)
	}

	// Events can arrive before the HMAC key does (a failed unlock, for
	// one), and they must still continue the existing chain.
	if err := l.ensureChainLoaded(); err != nil {
		return err
	}

	l.sequence++
	event := Event{
		Version:   1,
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Operation: operation,
		AccountID: accountID,
		SessionID: l.sessionID,
		Result:    result,
		Error:     errInfo,
		Chain: Chain{
			Sequence: l.sequence,
			PrevHash: l.prevHash,
		},
	}

	if l.hmacKeySet {
		mac, err := l.eventHMAC(&event)
		if err != nil {
			return err
		}
		event.Chain.HMAC = mac
	}

	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("audit: failed to marshal event: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(l.path, LogFileName),
		os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("audit: failed to open log: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		f.Close()
		return fmt.Errorf("audit: failed to write event: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("audit: failed to close log: %w", err)
	}

	l.prevHash = recordHash(line)
	return nil
}

// eventHMAC computes the HMAC over the event with Chain.HMAC blanked.
func (l *Logger) eventHMAC(event *Event) (string, error) {
	clone := *event
	clone.Chain.HMAC = ""
	payload, err := json.Marshal(clone)
	if err != nil {
		return "", fmt.Errorf("audit: failed to marshal event for hmac: %w", err)
	}
	mac := hmac.New(sha256.New, l.hmacKey)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// recordHash hashes a serialized record for the next event's prev link.
func recordHash(line []byte) string {
	sum := sha256.Sum256(line)
	return hex.EncodeToString(sum[:])
}

// ensureChainLoaded scans the existing log once per session so new events
// continue the chain. Runs at most once; appends made before the HMAC key
// arrives must not be re-scanned over. Caller holds l.mu.
func (l *Logger) ensureChainLoaded() error {
	if l.chainLoaded {
		return nil
	}
	if err := l.loadChainState(); err != nil {
		return err
	}
	l.chainLoaded = true
	return nil
}

// loadChainState scans the existing log so new events continue the chain.
// Missing log means a fresh chain. Caller holds l.mu.
func (l *Logger) loadChainState() error {
	f, err := os.Open(filepath.Join(l.path, LogFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("audit: failed to open log: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			continue
		}
		l.sequence = event.Chain.Sequence
		l.prevHash = recordHash(append([]byte(nil), line...))
	}
	return scanner.Err()
}

// ListEvents returns up to limit events, newest last, filtered by since.
// A zero since returns everything; limit <= 0 means no limit.
func (l *Logger) ListEvents(limit int, since time.Time) ([]Event, error) {
	f, err := os.Open(filepath.Join(l.path, LogFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("audit: failed to open log: %w", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var event Event
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			continue
		}
		if !since.IsZero() {
			ts, err := time.Parse(time.RFC3339Nano, event.Timestamp)
			if err != nil || ts.Before(since) {
				continue
			}
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("audit: failed to read log: %w", err)
	}

	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}
	return events, nil
}

// Verify walks the log and checks every HMAC and prev-hash link.
// Requires the HMAC key to be set.
func (l *Logger) Verify() (*VerifyResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.hmacKeySet {
		return nil, errors.New("audit: hmac key not set, unlock the vault first")
	}

	f, err := os.Open(filepath.Join(l.path, LogFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return &VerifyResult{Valid: true}, nil
		}
		return nil, fmt.Errorf("audit: failed to open log: %w", err)
	}
	defer f.Close()

	result := &VerifyResult{Valid: true}
	prevHash := ""

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := append([]byte(nil), scanner.Bytes()...)
		result.RecordsTotal++

		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			result.Valid = false
			result.Errors = append(result.Errors,
				fmt.Sprintf("record %d: malformed JSON", result.RecordsTotal))
			continue
		}

		if event.Chain.PrevHash != prevHash {
			result.Valid = false
			result.Errors = append(result.Errors,
				fmt.Sprintf("record %d: prev hash mismatch", result.RecordsTotal))
		}

		// Unchained records (written before the key was available) have
		// no HMAC to check but still participate in the hash chain.
		if event.Chain.HMAC != "" {
			want, err := l.eventHMAC(&event)
			if err != nil {
				return nil, err
			}
			if !hmac.Equal([]byte(want), []byte(event.Chain.HMAC)) {
				result.Valid = false
				result.Errors = append(result.Errors,
					fmt.Sprintf("record %d: %v", result.RecordsTotal, ErrChainBroken))
				prevHash = recordHash(line)
				continue
			}
			result.RecordsVerified++
		}
		prevHash = recordHash(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("audit: failed to read log: %w", err)
	}

	return result, nil
}
