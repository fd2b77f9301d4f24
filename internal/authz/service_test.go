package authz

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthzTest(t *testing.T, name string) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	return svc
}

func TestNormalizeRole(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"support", "role:support", false},
		{"role:support", "role:support", false},
		{"  order ops  ", "role:order_ops", false},
		{"", "", true},
		{"role:", "", true},
	}
	for _, tc := range cases {
		got, err := NormalizeRole(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("NormalizeRole(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("NormalizeRole(%q) error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("NormalizeRole(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeObject(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"/api/v1/admin/orders", "/admin/orders"},
		{"/admin/orders", "/admin/orders"},
		{"admin/orders", "/admin/orders"},
		{"/api/v1", "/"},
		{"", "/"},
	}
	for _, tc := range cases {
		if got := NormalizeObject(tc.in); got != tc.want {
			t.Fatalf("NormalizeObject(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestGrantAndRevokeRolePolicy(t *testing.T) {
	svc := setupAuthzTest(t, "authz_grant_revoke")

	if err := svc.GrantRolePolicy("support", "/admin/orders", "get"); err != nil {
		t.Fatalf("grant error: %v", err)
	}
	if err := svc.SetAdminRoles(7, []string{"support"}); err != nil {
		t.Fatalf("set roles error: %v", err)
	}

	ok, err := svc.EnforceAdmin(7, "/api/v1/admin/orders", "GET")
	if err != nil {
		t.Fatalf("enforce error: %v", err)
	}
	if !ok {
		t.Fatalf("expected access granted")
	}
	ok, err = svc.EnforceAdmin(7, "/admin/orders", "DELETE")
	if err != nil {
		t.Fatalf("enforce error: %v", err)
	}
	if ok {
		t.Fatalf("expected unlisted action denied")
	}

	if err := svc.RevokeRolePolicy("support", "/admin/orders", "GET"); err != nil {
		t.Fatalf("revoke error: %v", err)
	}
	ok, err = svc.EnforceAdmin(7, "/admin/orders", "GET")
	if err != nil {
		t.Fatalf("enforce error: %v", err)
	}
	if ok {
		t.Fatalf("expected access denied after revoke")
	}
}

func TestSetAdminRolesOverwrites(t *testing.T) {
	svc := setupAuthzTest(t, "authz_set_roles")

	if err := svc.SetAdminRoles(7, []string{"support", "catalog"}); err != nil {
		t.Fatalf("set roles error: %v", err)
	}
	roles, err := svc.GetAdminRoles(7)
	if err != nil {
		t.Fatalf("get roles error: %v", err)
	}
	if len(roles) != 2 || roles[0] != "role:catalog" || roles[1] != "role:support" {
		t.Fatalf("unexpected roles: %v", roles)
	}

	if err := svc.SetAdminRoles(7, []string{"readonly_auditor"}); err != nil {
		t.Fatalf("overwrite roles error: %v", err)
	}
	roles, err = svc.GetAdminRoles(7)
	if err != nil {
		t.Fatalf("get roles error: %v", err)
	}
	if len(roles) != 1 || roles[0] != "role:readonly_auditor" {
		t.Fatalf("expected roles replaced, got %v", roles)
	}
}

func TestBootstrapBuiltinRoles(t *testing.T) {
	svc := setupAuthzTest(t, "authz_bootstrap")

	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap error: %v", err)
	}
	// 重复执行应当幂等
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("second bootstrap error: %v", err)
	}

	if err := svc.SetAdminRoles(3, []string{"catalog"}); err != nil {
		t.Fatalf("set roles error: %v", err)
	}

	ok, err := svc.EnforceAdmin(3, "/admin/products/12", "PUT")
	if err != nil {
		t.Fatalf("enforce error: %v", err)
	}
	if !ok {
		t.Fatalf("expected catalog role to manage products")
	}
	// catalog 继承只读角色
	ok, err = svc.EnforceAdmin(3, "/admin/orders/9", "GET")
	if err != nil {
		t.Fatalf("enforce error: %v", err)
	}
	if !ok {
		t.Fatalf("expected inherited read access")
	}
	ok, err = svc.EnforceAdmin(3, "/admin/orders/9/status", "POST")
	if err != nil {
		t.Fatalf("enforce error: %v", err)
	}
	if ok {
		t.Fatalf("expected catalog role denied order mutation")
	}
}

func TestEnsureRoleRejectsAnchor(t *testing.T) {
	svc := setupAuthzTest(t, "authz_anchor")

	if _, err := svc.EnsureRole("__anchor__"); err == nil {
		t.Fatalf("expected reserved role rejected")
	}
}
