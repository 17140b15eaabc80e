package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestParseGender(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Gender
		wantErr bool
	}{
		{name: "capitalized", input: "Female", want: GenderFemale},
		{name: "lowercase", input: "male", want: GenderMale},
		{name: "upper with spaces", input: "  OTHER ", want: GenderOther},
		{name: "unknown", input: "robot", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseGender(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseGender(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseGender(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseStatus(t *testing.T) {
	if s, err := ParseStatus("Approved"); err != nil || s != StatusApproved {
		t.Errorf("ParseStatus(Approved) = %q, %v", s, err)
	}
	if _, err := ParseStatus("active"); err != ErrInvalidStatus {
		t.Errorf("ParseStatus(active) error = %v, want %v", err, ErrInvalidStatus)
	}
}

func TestAccount_CanLogin(t *testing.T) {
	tests := []struct {
		status AccountStatus
		want   bool
	}{
		{StatusCreated, false},
		{StatusApproved, true},
		{StatusBlocked, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			a := &Account{Status: tt.status}
			if got := a.CanLogin(); got != tt.want {
				t.Errorf("CanLogin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAccount_PendingTokenPairs(t *testing.T) {
	digest := "abc"
	expires := time.Now().Add(time.Minute)

	a := &Account{}
	if a.HasPendingVerification() || a.HasPendingReset() {
		t.Fatal("empty account should have no pending tokens")
	}

	a.EmailVerificationHash = &digest
	if a.HasPendingVerification() {
		t.Error("digest without expiry must not count as pending")
	}
	a.EmailVerificationExpiresAt = &expires
	if !a.HasPendingVerification() {
		t.Error("digest with expiry should be pending")
	}

	a.PasswordResetHash = &digest
	a.PasswordResetExpiresAt = &expires
	if !a.HasPendingReset() {
		t.Error("reset pair should be pending")
	}
}

func TestAccount_JSONHidesSecrets(t *testing.T) {
	digest := "secret-digest"
	expires := time.Now()
	a := Account{
		ID:                     "id-1",
		Email:                  "ann@x.com",
		PasswordHash:           "$2a$10$hash",
		EmailVerificationHash:  &digest,
		PasswordResetHash:      &digest,
		PasswordResetExpiresAt: &expires,
	}

	for _, v := range []any{a, a.Summary()} {
		b, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		out := string(b)
		if strings.Contains(out, "$2a$10$hash") || strings.Contains(out, digest) {
			t.Errorf("serialized account leaks secrets: %s", out)
		}
	}
}
