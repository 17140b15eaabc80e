package auth

import (
	"errors"
	"strings"
	"testing"

	"github.com/tendant/simple-idm-accounts/pkg/domain"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{
			name:    "valid email",
			email:   "test@example.com",
			wantErr: false,
		},
		{
			name:    "valid email with subdomain",
			email:   "test@mail.example.com",
			wantErr: false,
		},
		{
			name:    "valid email with plus",
			email:   "test+tag@example.com",
			wantErr: false,
		},
		{
			name:    "mixed case is normalized",
			email:   "  Ann@X.com ",
			wantErr: false,
		},
		{
			name:    "empty email",
			email:   "",
			wantErr: true,
		},
		{
			name:    "invalid - no @",
			email:   "invalid.com",
			wantErr: true,
		},
		{
			name:    "invalid - no domain",
			email:   "test@",
			wantErr: true,
		},
		{
			name:    "invalid - no local part",
			email:   "@example.com",
			wantErr: true,
		},
		{
			name:    "display name rejected",
			email:   "Ann <ann@x.com>",
			wantErr: true,
		},
		{
			name:    "too long",
			email:   strings.Repeat("a", 300) + "@example.com",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrInvalidEmail) {
				t.Errorf("ValidateEmail() error = %v, want wrapped %v", err, domain.ErrInvalidEmail)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  string
	}{
		{
			name:  "lowercase",
			email: "Test@Example.COM",
			want:  "test@example.com",
		},
		{
			name:  "trim spaces",
			email: "  test@example.com  ",
			want:  "test@example.com",
		},
		{
			name:  "both",
			email: "  Test@Example.COM  ",
			want:  "test@example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeEmail(tt.email)
			if got != tt.want {
				t.Errorf("NormalizeEmail() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{name: "valid alphanumeric", username: "ann1", wantErr: false},
		{name: "valid with underscore", username: "user_name", wantErr: false},
		{name: "valid with hyphen", username: "user-name", wantErr: false},
		{name: "valid minimum length (3 chars)", username: "abc", wantErr: false},
		{name: "valid maximum length (30 chars)", username: "abcdefghij1234567890abcdefghij", wantErr: false},
		{name: "empty string", username: "", wantErr: true},
		{name: "too short (2 chars)", username: "ab", wantErr: true},
		{name: "too long (31 chars)", username: "abcdefghij1234567890abcdefghijk", wantErr: true},
		{name: "starts with underscore", username: "_username", wantErr: true},
		{name: "contains space", username: "user name", wantErr: true},
		{name: "contains @", username: "user@name", wantErr: true},
		{name: "unicode characters", username: "usér123", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateUsername(%q) error = %v, wantErr %v", tt.username, err, tt.wantErr)
			}
			if err != nil && err != domain.ErrInvalidUsername {
				t.Errorf("ValidateUsername(%q) error = %v, want %v", tt.username, err, domain.ErrInvalidUsername)
			}
		})
	}
}
