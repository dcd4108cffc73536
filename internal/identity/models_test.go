package identity

//go:generate mockgen -source=models.go -destination=mocks/mocks.go -package=mocks Directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name     string
		metadata map[string]any
		expected string
	}{
		{"stored display name wins", map[string]any{"display_name": "Ada L.", "firstname": "Ada", "lastname": "Lovelace"}, "Ada L."},
		{"composed from given and family name", map[string]any{"firstname": "Ada", "lastname": "Lovelace"}, "Ada Lovelace"},
		{"signup keys", map[string]any{"first_name": "Grace", "last_name": "Hopper"}, "Grace Hopper"},
		{"given name only", map[string]any{"firstname": "Ada"}, "Ada"},
		{"blank display name falls through", map[string]any{"display_name": "  ", "lastname": "Lovelace"}, "Lovelace"},
		{"nothing set", nil, ""},
		{"non-string values ignored", map[string]any{"display_name": 42}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i := &Identity{UserMetadata: tt.metadata}
			assert.Equal(t, tt.expected, i.DisplayName())
		})
	}
}

func TestNilIdentitySummary(t *testing.T) {
	var i *Identity
	assert.Equal(t, Summary{}, i.Summary())
	assert.Empty(t, i.DisplayName())
}

func TestVerifiedTOTP(t *testing.T) {
	i := &Identity{Factors: []Factor{
		{Type: FactorTypeTOTP, Status: FactorStatusUnverified, FriendlyName: "stale"},
		{Type: FactorTypeTOTP, Status: FactorStatusVerified, FriendlyName: "phone"},
		{Type: "phone", Status: FactorStatusVerified, FriendlyName: "sms"},
	}}
	verified := i.VerifiedTOTP()
	if assert.Len(t, verified, 1) {
		assert.Equal(t, "phone", verified[0].FriendlyName)
	}
}
