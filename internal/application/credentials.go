package application

import (
	"context"
	"fmt"

	"voice-chat/internal/domain"
)

// CredentialStore keeps the two API keys in the key-value store, sealed if a Sealer is set.
type CredentialStore struct {
	store  KeyValueStore
	sealer Sealer
}

func NewCredentialStore(store KeyValueStore, sealer Sealer) *CredentialStore {
	return &CredentialStore{store: store, sealer: sealer}
}

func (c *CredentialStore) Get(ctx context.Context, name string) (string, bool, error) {
	value, ok, err := c.store.Get(ctx, name)
	if err != nil || !ok {
		return "", false, err
	}
	if c.sealer != nil {
		value, err = c.sealer.Open(value)
		if err != nil {
			return "", false, fmt.Errorf("opening %s: %w", name, err)
		}
	}
	return value, true, nil
}

func (c *CredentialStore) Set(ctx context.Context, name, value string) error {
	if c.sealer != nil {
		sealed, err := c.sealer.Seal(value)
		if err != nil {
			return fmt.Errorf("sealing %s: %w", name, err)
		}
		value = sealed
	}
	return c.store.Set(ctx, name, value)
}

func (c *CredentialStore) Credentials(ctx context.Context) (domain.Credentials, error) {
	var creds domain.Credentials
	var err error

	if creds.TranscriptionKey, _, err = c.Get(ctx, domain.TranscriptionKeyName); err != nil {
		return domain.Credentials{}, err
	}
	if creds.ChatKey, _, err = c.Get(ctx, domain.ChatKeyName); err != nil {
		return domain.Credentials{}, err
	}
	return creds, nil
}

func (c *CredentialStore) Save(ctx context.Context, creds domain.Credentials) error {
	if err := c.Set(ctx, domain.TranscriptionKeyName, creds.TranscriptionKey); err != nil {
		return fmt.Errorf("saving %s: %w", domain.TranscriptionKeyName, err)
	}
	if err := c.Set(ctx, domain.ChatKeyName, creds.ChatKey); err != nil {
		return fmt.Errorf("saving %s: %w", domain.ChatKeyName, err)
	}
	return nil
}

// Seed writes the given keys only where the store has no value yet.
func (c *CredentialStore) Seed(ctx context.Context, creds domain.Credentials) error {
	seeds := map[string]string{
		domain.TranscriptionKeyName: creds.TranscriptionKey,
		domain.ChatKeyName:          creds.ChatKey,
	}
	for name, value := range seeds {
		if value == "" {
			continue
		}
		if _, ok, err := c.Get(ctx, name); err != nil {
			return err
		} else if ok {
			continue
		}
		if err := c.Set(ctx, name, value); err != nil {
			return fmt.Errorf("seeding %s: %w", name, err)
		}
	}
	return nil
}
