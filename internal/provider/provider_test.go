package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewClientOfflineWhenUnconfigured(t *testing.T) {
	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, ErrOffline)
}

func TestNewClientOfflineWithoutAPIKey(t *testing.T) {
	_, err := NewClient(Config{Provider: "openai"})
	assert.ErrorIs(t, err, ErrOffline)
}

func TestNewClientBuildsForKnownProvider(t *testing.T) {
	c, err := NewClient(Config{Provider: "openai", APIKey: "k", BaseURL: "https://example.invalid"})
	assert.NoError(t, err)
	assert.NotNil(t, c)
}

func TestNewClientOfflineForUnknownProvider(t *testing.T) {
	_, err := NewClient(Config{Provider: "bogus", APIKey: "k"})
	assert.ErrorIs(t, err, ErrOffline)
}
