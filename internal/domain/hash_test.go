package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashIdentifier_Deterministic(t *testing.T) {
	a := HashIdentifier("secret", "device-abc")
	b := HashIdentifier("secret", "device-abc")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64) // hex-encoded SHA-256
}

func TestHashIdentifier_DiffersByValue(t *testing.T) {
	assert.NotEqual(t,
		HashIdentifier("secret", "device-abc"),
		HashIdentifier("secret", "device-def"),
	)
}

func TestHashIdentifier_DiffersBySecret(t *testing.T) {
	assert.NotEqual(t,
		HashIdentifier("secret-1", "device-abc"),
		HashIdentifier("secret-2", "device-abc"),
	)
}

func TestHashIdentifier_NeverEchoesInput(t *testing.T) {
	got := HashIdentifier("secret", "203.0.113.7")
	assert.NotContains(t, got, "203.0.113.7")
}
