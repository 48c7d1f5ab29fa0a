package models

import "testing"

func TestRoleRankOrdering(t *testing.T) {
	ordered := []Role{RoleEmployee, RoleDistributor, RoleExportManager, RoleAdmin, RoleSuperAdmin}
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Rank() <= ordered[i-1].Rank() {
			t.Fatalf("expected %s to outrank %s", ordered[i], ordered[i-1])
		}
	}
}

func TestRoleCanManage(t *testing.T) {
	cases := []struct {
		actor  Role
		target Role
		want   bool
	}{
		{RoleSuperAdmin, RoleAdmin, true},
		{RoleSuperAdmin, RoleEmployee, true},
		{RoleAdmin, RoleExportManager, true},
		{RoleExportManager, RoleDistributor, true},
		{RoleDistributor, RoleEmployee, true},
		{RoleEmployee, RoleEmployee, false},
		{RoleAdmin, RoleAdmin, false},
		{RoleAdmin, RoleSuperAdmin, false},
		{RoleEmployee, RoleSuperAdmin, false},
	}
	for _, tc := range cases {
		if got := tc.actor.CanManage(tc.target); got != tc.want {
			t.Fatalf("CanManage(%s, %s) = %v, want %v", tc.actor, tc.target, got, tc.want)
		}
	}
}

func TestParseRole(t *testing.T) {
	if role, ok := ParseRole("ADMIN"); !ok || role != RoleAdmin {
		t.Fatalf("expected ADMIN to parse")
	}
	if _, ok := ParseRole("WIZARD"); ok {
		t.Fatalf("expected unknown role to fail")
	}
}
