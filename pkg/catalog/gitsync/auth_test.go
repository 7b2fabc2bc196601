package gitsync

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

func TestTokenAuth(t *testing.T) {
	auth := NewTokenAuth("ghp_validtoken123")
	if auth.Type() != "token" {
		t.Errorf("Type() = %q, want token", auth.Type())
	}

	method, err := auth.Auth()
	if err != nil {
		t.Fatalf("Auth() failed: %v", err)
	}
	basic, ok := method.(*http.BasicAuth)
	if !ok {
		t.Fatalf("Auth() = %T, want *http.BasicAuth", method)
	}
	if basic.Password != "ghp_validtoken123" {
		t.Errorf("password = %q, want the token", basic.Password)
	}

	if _, err := NewTokenAuth("").Auth(); err == nil {
		t.Error("Auth() with an empty token succeeded")
	}
}

func TestSSHAuth(t *testing.T) {
	dir := t.TempDir()

	privateKey := filepath.Join(dir, "id_private")
	if err := os.WriteFile(privateKey, []byte("not a key"), 0600); err != nil {
		t.Fatal(err)
	}
	openKey := filepath.Join(dir, "id_open")
	if err := os.WriteFile(openKey, []byte("not a key"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		keyPath string
	}{
		{name: "empty key path", keyPath: ""},
		{name: "missing key file", keyPath: filepath.Join(dir, "missing")},
		{name: "permissions too open", keyPath: openKey},
		{name: "malformed key", keyPath: privateKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := NewSSHAuth(tt.keyPath, "")
			if auth.Type() != "ssh" {
				t.Errorf("Type() = %q, want ssh", auth.Type())
			}
			if _, err := auth.Auth(); err == nil {
				t.Error("Auth() succeeded, want error")
			}
		})
	}
}

func TestNewAuthProvider(t *testing.T) {
	tests := []struct {
		name     string
		cfg      AuthConfig
		wantType string
		wantErr  bool
	}{
		{name: "default", cfg: AuthConfig{}, wantType: "none"},
		{name: "none", cfg: AuthConfig{Type: "none"}, wantType: "none"},
		{name: "token", cfg: AuthConfig{Type: "token", Token: "secret"}, wantType: "token"},
		{name: "token without token", cfg: AuthConfig{Type: "token"}, wantErr: true},
		{name: "ssh", cfg: AuthConfig{Type: "ssh", SSHKeyPath: "/keys/id_ed25519"}, wantType: "ssh"},
		{name: "ssh without key", cfg: AuthConfig{Type: "ssh"}, wantErr: true},
		{name: "unknown", cfg: AuthConfig{Type: "kerberos"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewAuthProvider(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewAuthProvider() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && p.Type() != tt.wantType {
				t.Errorf("Type() = %q, want %q", p.Type(), tt.wantType)
			}
		})
	}
}

func TestNoAuth(t *testing.T) {
	method, err := NoAuth{}.Auth()
	if err != nil || method != nil {
		t.Errorf("Auth() = %v, %v; want nil, nil", method, err)
	}
}
