package middleware_test

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"testing"

	"github.com/aretw0/debrief/pkg/adapters/memory"
	"github.com/aretw0/debrief/pkg/domain"
	"github.com/aretw0/debrief/pkg/persistence/middleware"
	"github.com/aretw0/debrief/pkg/ports"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, middleware.KeySize)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func encrypted(t *testing.T, config middleware.EncryptionConfig, next ports.StateStore) ports.StateStore {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(config)
	if err != nil {
		t.Fatalf("NewEncryptionMiddleware failed: %v", err)
	}
	return mw(next)
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	store := encrypted(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)}, memory.NewStore())
	ports.RunStateStoreContract(t, store)
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlyingStore := memory.NewStore()
	secureStore := encrypted(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)}, underlyingStore)

	ctx := context.Background()
	sessionID := "test-session"
	originalState := domain.NewState(sessionID)
	originalState.Record(domain.UserMessage("my-secret-sauce"))

	if err := secureStore.Save(ctx, sessionID, originalState); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// The underlying store only sees the envelope.
	storedState, err := underlyingStore.Load(ctx, sessionID)
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}
	if len(storedState.Transcript) != 0 {
		t.Fatalf("Expected transcript to be hidden, found: %v", storedState.Transcript)
	}
	if len(storedState.Sealed) == 0 {
		t.Fatal("Expected sealed payload in envelope")
	}
	if !storedState.Active || storedState.SessionID != sessionID {
		t.Errorf("Expected envelope metadata to be kept, got %+v", storedState)
	}

	loadedState, err := secureStore.Load(ctx, sessionID)
	if err != nil {
		t.Fatalf("Load via middleware failed: %v", err)
	}
	if got, _ := loadedState.LastUser(); got != "my-secret-sauce" {
		t.Errorf("Expected 'my-secret-sauce', got %q", got)
	}
	if len(loadedState.Sealed) != 0 {
		t.Error("Decrypted state should not carry a sealed payload")
	}
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlyingStore := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)

	secureStoreOld := encrypted(t, middleware.EncryptionConfig{ActiveKey: oldKey}, underlyingStore)

	ctx := context.Background()
	sessionID := "rotation-session"
	originalState := domain.NewState(sessionID)
	originalState.Record(domain.UserMessage("encrypted-with-old-key"))

	if err := secureStoreOld.Save(ctx, sessionID, originalState); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	secureStoreNew := encrypted(t, middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	}, underlyingStore)

	loadedState, err := secureStoreNew.Load(ctx, sessionID)
	if err != nil {
		t.Fatalf("Load with rotated key failed: %v", err)
	}
	if got, _ := loadedState.LastUser(); got != "encrypted-with-old-key" {
		t.Errorf("Decryption with fallback key failed, got %q", got)
	}

	// Saving again re-encrypts with the new key.
	loadedState.Record(domain.UserMessage("encrypted-with-new-key"))
	if err := secureStoreNew.Save(ctx, sessionID, loadedState); err != nil {
		t.Fatalf("Save with new key failed: %v", err)
	}

	if _, err = secureStoreOld.Load(ctx, sessionID); err == nil {
		t.Error("Expected failure when loading new-key encryption with old-key middleware")
	}
}

func TestEncryptionMiddleware_PlainState(t *testing.T) {
	underlyingStore := memory.NewStore()
	ctx := context.Background()
	if err := underlyingStore.Save(ctx, "plain", domain.NewState("plain")); err != nil {
		t.Fatal(err)
	}

	secureStore := encrypted(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)}, underlyingStore)
	_, err := secureStore.Load(ctx, "plain")
	if !errors.Is(err, middleware.ErrNotSealed) {
		t.Errorf("Expected ErrNotSealed, got %v", err)
	}
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	if _, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")}); err == nil {
		t.Error("Expected error for invalid key size")
	}

	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	if err == nil {
		t.Error("Expected error for invalid fallback key size")
	}
}
