package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/dshop/backend/internal/domain/fulfillment"
	"github.com/dshop/backend/internal/domain/shared"
	"github.com/dshop/backend/internal/domain/shop"
)

// EncryptedConfigStore keeps each shop's integration settings as one sealed
// JSON object. The shop id is bound as associated data, so a blob copied to
// another shop fails to open.
type EncryptedConfigStore struct {
	repo   shop.ConfigRepository
	cipher *Cipher
}

var _ fulfillment.SecretStore = (*EncryptedConfigStore)(nil)

// NewEncryptedConfigStore creates a store over the given repository
func NewEncryptedConfigStore(repo shop.ConfigRepository, c *Cipher) *EncryptedConfigStore {
	return &EncryptedConfigStore{repo: repo, cipher: c}
}

// Get returns the string value stored under key, or "" when the shop has no
// config, the key is absent, or the value is not a string.
func (s *EncryptedConfigStore) Get(ctx context.Context, shopID int64, key string) (string, error) {
	values, err := s.load(ctx, shopID)
	if err != nil {
		return "", err
	}
	v, ok := values[key].(string)
	if !ok {
		return "", nil
	}
	return v, nil
}

// Set stores value under key. An empty value removes the key.
func (s *EncryptedConfigStore) Set(ctx context.Context, shopID int64, key, value string) error {
	values, err := s.load(ctx, shopID)
	if err != nil {
		return err
	}
	if value == "" {
		delete(values, key)
	} else {
		values[key] = value
	}

	plaintext, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("secrets: encode config: %w", err)
	}
	blob, err := s.cipher.Seal(plaintext, shopAD(shopID))
	if err != nil {
		return err
	}
	return s.repo.SaveConfig(ctx, shopID, blob)
}

func (s *EncryptedConfigStore) load(ctx context.Context, shopID int64) (map[string]any, error) {
	blob, err := s.repo.LoadConfig(ctx, shopID)
	if errors.Is(err, shared.ErrNotFound) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, err
	}
	if blob == "" {
		return map[string]any{}, nil
	}

	plaintext, err := s.cipher.Open(blob, shopAD(shopID))
	if err != nil {
		return nil, err
	}
	values := map[string]any{}
	if err := json.Unmarshal(plaintext, &values); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return values, nil
}

func shopAD(shopID int64) []byte {
	return []byte("shop:" + strconv.FormatInt(shopID, 10))
}
