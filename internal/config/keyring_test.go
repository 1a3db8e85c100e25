package config

import (
	stderrors "errors"
	"testing"

	"github.com/rohankatakam/gitemails/internal/logging"
	"github.com/zalando/go-keyring"
)

func TestKeyringManager_RoundTrip(t *testing.T) {
	keyring.MockInit()
	km := NewKeyringManager(logging.Discard())

	if !km.IsAvailable() {
		t.Fatal("mock keychain should be available")
	}

	tokens := []string{
		"ghp_round_trip_1",
		"ghp_round_trip_2",
		"ghp_round_trip_3",
	}

	for _, token := range tokens {
		if err := km.SetGitHubToken(token); err != nil {
			t.Fatalf("Failed to save token %s: %v", token, err)
		}

		retrieved, err := km.GetGitHubToken()
		if err != nil {
			t.Fatalf("Failed to get token: %v", err)
		}
		if retrieved != token {
			t.Errorf("Round trip failed: expected %s, got %s", token, retrieved)
		}
	}
}

func TestKeyringManager_GetGitHubToken_NotFound(t *testing.T) {
	keyring.MockInit()
	km := NewKeyringManager(logging.Discard())

	token, err := km.GetGitHubToken()
	if err != nil {
		t.Fatalf("Expected no error for a missing token, got: %v", err)
	}
	if token != "" {
		t.Errorf("Expected empty token, got %s", token)
	}
}

func TestKeyringManager_SetGitHubToken_Empty(t *testing.T) {
	keyring.MockInit()
	km := NewKeyringManager(logging.Discard())

	if err := km.SetGitHubToken(""); err == nil {
		t.Error("Expected error when saving empty token")
	}
}

func TestKeyringManager_DeleteNonExistentToken(t *testing.T) {
	keyring.MockInit()
	km := NewKeyringManager(logging.Discard())

	// deleting twice is not an error
	if err := km.DeleteGitHubToken(); err != nil {
		t.Errorf("Expected no error when deleting non-existent token, got: %v", err)
	}
	if err := km.DeleteGitHubToken(); err != nil {
		t.Errorf("Expected no error on second delete, got: %v", err)
	}
}

func TestKeyringManager_Unavailable(t *testing.T) {
	keyring.MockInitWithError(stderrors.New("no secret service"))
	km := NewKeyringManager(logging.Discard())

	if km.IsAvailable() {
		t.Error("Expected keychain to be unavailable")
	}
	if _, err := km.GetGitHubToken(); err == nil {
		t.Error("Expected error reading from an unavailable keychain")
	}
}
