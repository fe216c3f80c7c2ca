package moddir

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestResolve_MapOnlyFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "mymod")
	path := filepath.Join(dir, "MAP_REGIONS.TGA")
	touch(t, path)
	in, err := Resolve(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !in.MapOnly() || in.MapRegions != path || in.MapTag != "mymod" {
		t.Errorf("unexpected inputs %+v", in)
	}
}

func TestResolve_ModDirectory(t *testing.T) {
	mod := filepath.Join(t.TempDir(), "europa")
	touch(t, filepath.Join(BaseDir(mod), MapRegionsFile))
	touch(t, filepath.Join(BaseDir(mod), DescrRegionsFile))
	in, err := Resolve(mod)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.MapOnly() || in.MapTag != "europa" {
		t.Errorf("unexpected inputs %+v", in)
	}
}

func TestResolve_Errors(t *testing.T) {
	root := t.TempDir()

	other := filepath.Join(root, "other.tga")
	touch(t, other)
	if _, err := Resolve(other); !errors.Is(err, ErrInvalidModDir) {
		t.Errorf("file with other name: got %v", err)
	}
	if _, err := Resolve(filepath.Join(root, "nope")); !errors.Is(err, ErrInvalidModDir) {
		t.Errorf("missing path: got %v", err)
	}

	mod := filepath.Join(root, "mod")
	if err := os.MkdirAll(mod, 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := Resolve(mod); !errors.Is(err, ErrMissingBaseDir) {
		t.Errorf("no base dir: got %v", err)
	}
	if err := os.MkdirAll(BaseDir(mod), 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := Resolve(mod); !errors.Is(err, ErrMissingMapRegions) {
		t.Errorf("no map: got %v", err)
	}
	touch(t, filepath.Join(BaseDir(mod), MapRegionsFile))
	if _, err := Resolve(mod); !errors.Is(err, ErrMissingDescrRegions) {
		t.Errorf("no descr: got %v", err)
	}
}
