package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	ddns "github.com/Travis-Britz/cloudflare-ddns"
)

func TestVerifyPermissions(t *testing.T) {
	tests := []struct {
		perm    os.FileMode
		wantErr bool
	}{
		{0600, false},
		{0400, false},
		{0644, true},
		{0666, true},
	}
	for _, tt := range tests {
		t.Run(tt.perm.String(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "key")
			if err := os.WriteFile(path, []byte("token\n"), tt.perm); err != nil {
				t.Fatal(err)
			}
			// WriteFile is subject to the umask
			if err := os.Chmod(path, tt.perm); err != nil {
				t.Fatal(err)
			}
			if err := verifyPermissions(path); (err != nil) != tt.wantErr {
				t.Fatalf("verifyPermissions(%s): got err=%v, wantErr %v", tt.perm, err, tt.wantErr)
			}
		})
	}
}

func TestWriteAndReadKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	if err := writeKey(path, "secret-token"); err != nil {
		t.Fatalf("writeKey failed: %s", err)
	}
	if err := verifyPermissions(path); err != nil {
		t.Fatalf("Expected key file to be created with safe permissions; got %s", err)
	}
	key, err := readKey(path)
	if err != nil {
		t.Fatalf("readKey failed: %s", err)
	}
	if expected := "secret-token"; key != expected {
		t.Fatalf("Expected %q; got %q", expected, key)
	}

	// an existing key file is never overwritten
	if err := writeKey(path, "other"); err == nil {
		t.Fatalf("Expected an error writing over an existing key; got err == nil")
	}
}

func TestAPITokenPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	if err := writeKey(path, "from-file"); err != nil {
		t.Fatal(err)
	}

	config.KeyFile = path
	config.Token = "from-env"
	t.Cleanup(func() { config.Token, config.KeyFile = "", "" })

	token, err := apiToken(context.Background())
	if err != nil {
		t.Fatalf("apiToken failed: %s", err)
	}
	if expected := "from-env"; token != expected {
		t.Fatalf("Expected %q; got %q", expected, token)
	}

	config.Token = ""
	token, err = apiToken(context.Background())
	if err != nil {
		t.Fatalf("apiToken failed: %s", err)
	}
	if expected := "from-file"; token != expected {
		t.Fatalf("Expected %q; got %q", expected, token)
	}
}

func TestNewResolver(t *testing.T) {
	if _, err := newResolver([]string{"https://api.ipify.org"}, nil); err != nil {
		t.Fatalf("newResolver failed: %s", err)
	}
	if _, err := newResolver(nil, []string{"eth0"}); err != nil {
		t.Fatalf("newResolver failed: %s", err)
	}

	_, err := newResolver([]string{"ftp://example.com"}, nil)
	var ce *ddns.ConfigError
	if !errors.As(err, &ce) || ce.Field != "ip-url" {
		t.Fatalf("Expected ip-url *ConfigError; got %v", err)
	}
}

func TestTimerValidation(t *testing.T) {
	err := newApp().Run([]string{"ddnscf", "--record", "home.example.com", "--token", "t", "--timer", "0"})
	var ce *ddns.ConfigError
	if !errors.As(err, &ce) || ce.Field != "timer" {
		t.Fatalf("Expected timer *ConfigError; got %v", err)
	}
}
