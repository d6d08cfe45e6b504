// Package prefs persists the user's booth preferences: the API credential,
// the selected camera and the quality tier.
package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/zalando/go-keyring"
)

// Preference keys
const (
	KeyAPIKey      = "openai_api_key"
	KeyCameraID    = "camera_device_id"
	KeyQualityTier = "quality_tier"
)

// KeyringService is the service name credentials are stored under
const KeyringService = "product-booth"

// ErrNotFound means the key has no stored value
var ErrNotFound = errors.New("preference not set")

// Store is a string key/value store
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// FileStore keeps preferences in a JSON object on disk
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a store backed by path. The file is created on the
// first Set.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultPath returns ~/.config/product-booth/prefs.json
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./prefs.json"
	}
	return filepath.Join(home, ".config", "product-booth", "prefs.json")
}

func (s *FileStore) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := s.read()
	if err != nil {
		return "", err
	}
	v, ok := values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := s.read()
	if err != nil {
		return err
	}
	values[key] = value
	return s.write(values)
}

func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return s.write(values)
}

// Keys returns the stored keys, sorted
func (s *FileStore) Keys() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := s.read()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *FileStore) read() (map[string]string, error) {
	values := make(map[string]string)
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read preferences: %w", err)
	}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parse preferences: %w", err)
	}
	return values, nil
}

func (s *FileStore) write(values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create preferences directory: %w", err)
	}
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	return nil
}

// KeyringStore keeps values in the OS credential store
type KeyringStore struct {
	service string
	user    string
}

// NewKeyringStore creates a keyring store for the given account
func NewKeyringStore(service, user string) *KeyringStore {
	return &KeyringStore{service: service, user: user}
}

func (k *KeyringStore) account(key string) string {
	if k.user == "" {
		return key
	}
	return k.user + ":" + key
}

func (k *KeyringStore) Get(key string) (string, error) {
	v, err := keyring.Get(k.service, k.account(key))
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("keyring get %s: %w", key, err)
	}
	return v, nil
}

func (k *KeyringStore) Set(key, value string) error {
	if err := keyring.Set(k.service, k.account(key), value); err != nil {
		return fmt.Errorf("keyring set %s: %w", key, err)
	}
	return nil
}

func (k *KeyringStore) Delete(key string) error {
	err := keyring.Delete(k.service, k.account(key))
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keyring delete %s: %w", key, err)
	}
	return nil
}

// Preferences routes the credential to a secret store and everything else
// to a plain store.
type Preferences struct {
	plain  Store
	secret Store
}

// New combines a plain and a secret store. A nil secret store keeps the
// credential in the plain store.
func New(plain, secret Store) *Preferences {
	if secret == nil {
		secret = plain
	}
	return &Preferences{plain: plain, secret: secret}
}

func (p *Preferences) storeFor(key string) Store {
	if key == KeyAPIKey {
		return p.secret
	}
	return p.plain
}

// Get returns the value for key, or "" when unset
func (p *Preferences) Get(key string) (string, error) {
	v, err := p.storeFor(key).Get(key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return v, err
}

// Set stores value under key
func (p *Preferences) Set(key, value string) error {
	return p.storeFor(key).Set(key, value)
}

// Unset removes key
func (p *Preferences) Unset(key string) error {
	return p.storeFor(key).Delete(key)
}

// APIKey returns the stored credential, or "" when unavailable
func (p *Preferences) APIKey() string {
	v, err := p.Get(KeyAPIKey)
	if err != nil {
		log.Warn().Err(err).Msg("failed to read API key")
		return ""
	}
	return v
}

// SetAPIKey stores the credential
func (p *Preferences) SetAPIKey(key string) error {
	return p.Set(KeyAPIKey, key)
}

// CameraID returns the last selected device ID
func (p *Preferences) CameraID() string {
	v, err := p.Get(KeyCameraID)
	if err != nil {
		log.Warn().Err(err).Msg("failed to read camera preference")
	}
	return v
}

// SetCameraID stores the selected device ID
func (p *Preferences) SetCameraID(id string) error {
	return p.Set(KeyCameraID, id)
}

// QualityTier returns the stored tier name
func (p *Preferences) QualityTier() string {
	v, err := p.Get(KeyQualityTier)
	if err != nil {
		log.Warn().Err(err).Msg("failed to read quality preference")
	}
	return v
}

// SetQualityTier stores the tier name
func (p *Preferences) SetQualityTier(tier string) error {
	return p.Set(KeyQualityTier, tier)
}

// Known reports whether key is one of the booth preference keys
func Known(key string) bool {
	switch key {
	case KeyAPIKey, KeyCameraID, KeyQualityTier:
		return true
	}
	return false
}
