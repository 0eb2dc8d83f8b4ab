package pathutil

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestValidatePath(t *testing.T) {
	allowed := t.TempDir()
	other := t.TempDir()
	if err := os.MkdirAll(filepath.Join(allowed, "shop"), 0700); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		allowed []string
		wantErr bool
		outside bool
	}{
		{"file in allowed dir", filepath.Join(allowed, "shop.yaml"), []string{allowed}, false, false},
		{"file in subdir", filepath.Join(allowed, "shop", "checkout.yaml"), []string{allowed}, false, false},
		{"missing subdirs", filepath.Join(allowed, "a", "b", "c.yaml"), []string{allowed}, false, false},
		{"allowed dir itself", allowed, []string{allowed}, false, false},
		{"second allowed dir", filepath.Join(other, "x.yaml"), []string{allowed, other}, false, false},
		{"dot-dot traversal", filepath.Join(allowed, "..", "etc", "passwd"), []string{allowed}, true, true},
		{"other dir", filepath.Join(other, "x.yaml"), []string{allowed}, true, true},
		{"prefix sibling", allowed + "-evil/x.yaml", []string{allowed}, true, true},
		{"empty path", "", []string{allowed}, true, false},
		{"no allowed dirs", filepath.Join(allowed, "x.yaml"), nil, true, false},
		{"null byte", filepath.Join(allowed, "x\x00.yaml"), []string{allowed}, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.path, tt.allowed)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidatePath() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.outside && !errors.Is(err, ErrOutsideAllowed) {
				t.Errorf("error = %v, want ErrOutsideAllowed", err)
			}
		})
	}
}

func TestValidatePath_Symlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink test not supported on Windows")
	}

	allowed := t.TempDir()
	outside := t.TempDir()
	real := filepath.Join(allowed, "real")
	if err := os.MkdirAll(real, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(outside, filepath.Join(allowed, "escape")); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(real, filepath.Join(allowed, "link")); err != nil {
		t.Fatal(err)
	}

	if err := ValidatePath(filepath.Join(allowed, "escape", "shop.yaml"), []string{allowed}); !errors.Is(err, ErrOutsideAllowed) {
		t.Errorf("symlink out of allowed dir: error = %v, want ErrOutsideAllowed", err)
	}
	if err := ValidatePath(filepath.Join(allowed, "link", "shop.yaml"), []string{allowed}); err != nil {
		t.Errorf("symlink staying inside: unexpected error %v", err)
	}
}

func TestRedactPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"", ""},
		{"shop.yaml", "shop.yaml"},
		{"/shop.yaml", "shop.yaml"},
		{"/home/dev/.archsim/topologies/shop.yaml", ".../topologies/shop.yaml"},
		{"/home/dev/project/../shop.yaml", ".../dev/shop.yaml"},
	}
	for _, tt := range tests {
		if got := RedactPath(tt.path); got != tt.want {
			t.Errorf("RedactPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestAllowedTopologyDirs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	root := t.TempDir()

	dirs, err := AllowedTopologyDirs(root)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{root, filepath.Join(home, ".archsim", "topologies")}
	if len(dirs) != len(want) {
		t.Fatalf("dirs = %v, want %v", dirs, want)
	}
	for i := range want {
		if dirs[i] != want[i] {
			t.Errorf("dirs[%d] = %s, want %s", i, dirs[i], want[i])
		}
	}
}
