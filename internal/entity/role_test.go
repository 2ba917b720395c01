package entity

import "testing"

func TestParseRole(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   Role
		wantOK bool
	}{
		{name: "admin", input: "admin", want: RoleAdmin, wantOK: true},
		{name: "user", input: "user", want: RoleUser, wantOK: true},
		{name: "store owner", input: "store_owner", want: RoleStoreOwner, wantOK: true},
		{name: "mixed case with spaces", input: "  Admin ", want: RoleAdmin, wantOK: true},
		{name: "unknown", input: "superuser", wantOK: false},
		{name: "empty", input: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseRole(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseRole(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseRole(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRoleIn(t *testing.T) {
	if !RoleAdmin.In(RoleAdmin, RoleUser) {
		t.Error("expected admin to be in {admin, user}")
	}
	if RoleStoreOwner.In(RoleAdmin, RoleUser) {
		t.Error("expected store_owner not to be in {admin, user}")
	}
	if RoleUser.In() {
		t.Error("expected empty set to contain nothing")
	}
}

func TestRoleValid(t *testing.T) {
	for _, role := range []Role{RoleAdmin, RoleUser, RoleStoreOwner} {
		if !role.Valid() {
			t.Errorf("expected %q to be valid", role)
		}
	}
	if Role("guest").Valid() {
		t.Error("expected unknown role to be invalid")
	}
}
