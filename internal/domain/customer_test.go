package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLanguage(t *testing.T) {
	tests := []struct {
		name string
		tag  string
		want string
	}{
		{"plain english", "en", "en"},
		{"plain german", "de", "de"},
		{"austrian german", "de-AT", "de"},
		{"us english", "en-US", "en"},
		{"empty", "", "en"},
		{"garbage", "not a tag!!", "en"},
		{"unsupported language", "fr", "en"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeLanguage(tt.tag))
		})
	}
}

func TestGuestCustomerIsVerified(t *testing.T) {
	g := &GuestCustomer{}
	assert.False(t, g.IsVerified())
}
