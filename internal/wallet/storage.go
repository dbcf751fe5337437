package wallet

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// walletFileExtension is the extension for wallet files.
	walletFileExtension = ".wallet"

	// walletFilePermissions is the permission mode for wallet files.
	walletFilePermissions = 0o600

	// walletDirPermissions is the permission mode for the wallets directory.
	walletDirPermissions = 0o750
)

// Storage defines the interface for wallet persistence.
type Storage interface {
	// Save encrypts and writes a wallet to storage.
	// The password should be zeroed by the caller after this call returns.
	Save(wallet *Wallet, seedPayload, password []byte) error

	// Update rewrites an existing wallet's metadata without touching the
	// encrypted seed payload.
	Update(wallet *Wallet) error

	// Load reads and decrypts a wallet from storage. The returned payload
	// is the seed, still wearing the second-password layer when the
	// wallet is double encrypted.
	Load(name string, password []byte) (*Wallet, []byte, error)

	// Exists checks if a wallet exists.
	Exists(name string) (bool, error)

	// List returns all wallet names.
	List() ([]string, error)
}

// walletFile represents the encrypted wallet file structure.
type walletFile struct {
	// Wallet contains the wallet metadata (not the seed).
	Wallet *Wallet `json:"wallet"`

	// EncryptedSeed is the age-encrypted seed payload.
	EncryptedSeed []byte `json:"encrypted_seed"`
}

// FileStorage implements Storage using the filesystem.
type FileStorage struct {
	basePath string
}

// NewFileStorage creates a new file-based storage.
func NewFileStorage(basePath string) *FileStorage {
	return &FileStorage{basePath: basePath}
}

// Save encrypts and writes a wallet to storage.
// The password should be zeroed by the caller after this call returns.
func (s *FileStorage) Save(wallet *Wallet, seedPayload, password []byte) error {
	if err := ValidateWalletName(wallet.Name); err != nil {
		return err
	}

	exists, err := s.Exists(wallet.Name)
	if err != nil {
		return fmt.Errorf("checking wallet existence: %w", err)
	}
	if exists {
		return ErrWalletExists
	}

	if err := os.MkdirAll(s.basePath, walletDirPermissions); err != nil {
		return fmt.Errorf("creating wallet directory: %w", err)
	}

	encryptedSeed, err := encrypt(seedPayload, string(password))
	if err != nil {
		return fmt.Errorf("encrypting seed: %w", err)
	}

	wf := walletFile{
		Wallet:        wallet,
		EncryptedSeed: encryptedSeed,
	}

	data, err := json.MarshalIndent(wf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling wallet: %w", err)
	}

	walletPath := s.walletPath(wallet.Name)
	if err := os.WriteFile(walletPath, data, walletFilePermissions); err != nil {
		return fmt.Errorf("writing wallet file: %w", err)
	}

	return nil
}

// Update rewrites wallet metadata in place, preserving the encrypted seed.
// Used after account state changes (archive, default change, cursor moves).
func (s *FileStorage) Update(wallet *Wallet) error {
	if err := ValidateWalletName(wallet.Name); err != nil {
		return err
	}

	walletPath := s.walletPath(wallet.Name)
	//nolint:gosec // G304: Path validated by ValidateWalletName + walletPath
	data, err := os.ReadFile(walletPath)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrWalletNotFound
		}
		return fmt.Errorf("reading wallet file: %w", err)
	}

	var wf walletFile
	if err := json.Unmarshal(data, &wf); err != nil {
		return fmt.Errorf("parsing wallet file: %w", err)
	}

	wf.Wallet = wallet
	out, err := json.MarshalIndent(wf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling wallet: %w", err)
	}

	if err := os.WriteFile(walletPath, out, walletFilePermissions); err != nil {
		return fmt.Errorf("writing wallet file: %w", err)
	}
	return nil
}

// Load reads and decrypts a wallet from storage.
// The password should be zeroed by the caller after this call returns.
func (s *FileStorage) Load(name string, password []byte) (*Wallet, []byte, error) {
	if err := ValidateWalletName(name); err != nil {
		return nil, nil, err
	}

	walletPath := s.walletPath(name)
	if _, err := os.Stat(walletPath); os.IsNotExist(err) {
		return nil, nil, ErrWalletNotFound
	}

	//nolint:gosec // G304: Path validated by ValidateWalletName + walletPath
	data, err := os.ReadFile(walletPath)
	if err != nil {
		return nil, nil, fmt.Errorf("reading wallet file: %w", err)
	}

	var wf walletFile
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, nil, fmt.Errorf("parsing wallet file: %w", err)
	}

	seedPayload, err := decrypt(wf.EncryptedSeed, string(password))
	if err != nil {
		return nil, nil, err
	}

	return wf.Wallet, seedPayload, nil
}

// Exists checks if a wallet exists.
func (s *FileStorage) Exists(name string) (bool, error) {
	if err := ValidateWalletName(name); err != nil {
		return false, err
	}

	_, err := os.Stat(s.walletPath(name))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// List returns all wallet names.
func (s *FileStorage) List() ([]string, error) {
	if err := os.MkdirAll(s.basePath, walletDirPermissions); err != nil {
		return nil, fmt.Errorf("creating wallet directory: %w", err)
	}

	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("reading wallet directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, walletFileExtension) {
			names = append(names, strings.TrimSuffix(name, walletFileExtension))
		}
	}

	return names, nil
}

// walletPath returns the full path for a wallet file.
// The wallet name has already been validated by ValidateWalletName to match
// [a-zA-Z0-9_-]{1,64}, which prevents path traversal attacks.
func (s *FileStorage) walletPath(name string) string {
	path := filepath.Join(s.basePath, name+walletFileExtension)

	// Defensive check: ensure no directory traversal
	cleanPath := filepath.Clean(path)
	expectedSuffix := string(filepath.Separator) + name + walletFileExtension

	if !strings.HasSuffix(cleanPath, expectedSuffix) {
		return ""
	}

	return cleanPath
}
