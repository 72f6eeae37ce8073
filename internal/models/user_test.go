package models

import "testing"

// TestRoleValid verifies that only the known shop roles are accepted.
func TestRoleValid(t *testing.T) {
	tests := []struct {
		name string
		role Role
		want bool
	}{
		{name: "owner role", role: RoleOwner, want: true},
		{name: "editor role", role: RoleEditor, want: true},
		{name: "empty role", role: Role(""), want: false},
		{name: "unknown role", role: Role("superadmin"), want: false},
		{name: "uppercase OWNER", role: Role("OWNER"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.role.Valid(); got != tt.want {
				t.Errorf("Role(%q).Valid() = %v, want %v", tt.role, got, tt.want)
			}
		})
	}
}

// TestUserNeeds2FASetup verifies 2FA setup detection based on TOTPEnabled.
func TestUserNeeds2FASetup(t *testing.T) {
	secret := "JBSWY3DPEHPK3PXP"

	tests := []struct {
		name        string
		totpSecret  *string
		totpEnabled bool
		want        bool
	}{
		{name: "no secret and not enabled", totpSecret: nil, totpEnabled: false, want: true},
		{name: "secret set but not enabled", totpSecret: &secret, totpEnabled: false, want: true},
		{name: "secret set and enabled", totpSecret: &secret, totpEnabled: true, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &User{TOTPSecret: tt.totpSecret, TOTPEnabled: tt.totpEnabled}
			if got := u.Needs2FASetup(); got != tt.want {
				t.Errorf("Needs2FASetup() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "correct horse" {
		t.Fatal("HashPassword returned the plaintext")
	}

	u := &User{PasswordHash: hash}
	if !u.CheckPassword("correct horse") {
		t.Error("CheckPassword rejected the right password")
	}
	if u.CheckPassword("battery staple") {
		t.Error("CheckPassword accepted a wrong password")
	}
	if u.CheckPassword("") {
		t.Error("CheckPassword accepted an empty password")
	}
}
