package application_test

import (
	"context"
	"strings"
	"testing"

	"voice-chat/internal/application"
	"voice-chat/internal/domain"
)

type prefixSealer struct{}

func (prefixSealer) Seal(plain string) (string, error) { return "sealed:" + plain, nil }

func (prefixSealer) Open(value string) (string, error) {
	return strings.TrimPrefix(value, "sealed:"), nil
}

func TestCredentialStore_SaveAndRead(t *testing.T) {
	store := newMemStore()
	creds := application.NewCredentialStore(store, nil)
	ctx := context.Background()

	if _, ok, err := creds.Get(ctx, domain.ChatKeyName); err != nil || ok {
		t.Fatalf("absent key: ok=%v err=%v", ok, err)
	}

	want := domain.Credentials{TranscriptionKey: "lf-123", ChatKey: "or-456"}
	if err := creds.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := creds.Credentials(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != want {
		t.Errorf("credentials: got %+v, want %+v", got, want)
	}
	if store.values["lemonFoxApiKey"] != "lf-123" || store.values["openRouterApiKey"] != "or-456" {
		t.Errorf("storage keys: %v", store.values)
	}
}

func TestCredentialStore_Sealed(t *testing.T) {
	store := newMemStore()
	creds := application.NewCredentialStore(store, prefixSealer{})
	ctx := context.Background()

	if err := creds.Set(ctx, domain.TranscriptionKeyName, "secret"); err != nil {
		t.Fatal(err)
	}
	if store.values[domain.TranscriptionKeyName] != "sealed:secret" {
		t.Errorf("stored value should be sealed, got %q", store.values[domain.TranscriptionKeyName])
	}

	value, ok, err := creds.Get(ctx, domain.TranscriptionKeyName)
	if err != nil || !ok || value != "secret" {
		t.Errorf("get: value=%q ok=%v err=%v", value, ok, err)
	}
}

func TestCredentialStore_SeedKeepsExisting(t *testing.T) {
	store := newMemStore()
	creds := application.NewCredentialStore(store, nil)
	ctx := context.Background()

	if err := creds.Set(ctx, domain.ChatKeyName, "user-entered"); err != nil {
		t.Fatal(err)
	}
	if err := creds.Seed(ctx, domain.Credentials{TranscriptionKey: "from-config", ChatKey: "from-config"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := creds.Credentials(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.TranscriptionKey != "from-config" {
		t.Errorf("transcription key: got %q, want seeded value", got.TranscriptionKey)
	}
	if got.ChatKey != "user-entered" {
		t.Errorf("chat key: got %q, want existing value", got.ChatKey)
	}
}

func TestCredentials_Complete(t *testing.T) {
	tests := []struct {
		creds domain.Credentials
		want  bool
	}{
		{domain.Credentials{TranscriptionKey: "k1", ChatKey: "k2"}, true},
		{domain.Credentials{TranscriptionKey: "k1"}, false},
		{domain.Credentials{ChatKey: "k2"}, false},
		{domain.Credentials{TranscriptionKey: " ", ChatKey: "k2"}, false},
	}
	for _, tt := range tests {
		if got := tt.creds.Complete(); got != tt.want {
			t.Errorf("%+v: got %v, want %v", tt.creds, got, tt.want)
		}
	}
}
