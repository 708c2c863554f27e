package loader

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestFileFetcher(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "meshes"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "meshes", "tri.obj"), []byte(triangleOBJ), 0o644); err != nil {
		t.Fatal(err)
	}

	f := FileFetcher{BaseDir: dir}
	rc, err := f.Open(context.Background(), "meshes/tri.obj")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if got := readAll(t, rc); got != triangleOBJ {
		t.Errorf("read %q", got)
	}

	abs := filepath.Join(dir, "meshes", "tri.obj")
	rc, err = FileFetcher{BaseDir: "/nonexistent"}.Open(context.Background(), abs)
	if err != nil {
		t.Fatalf("absolute path: Open() error = %v", err)
	}
	rc.Close()

	if _, err := f.Open(context.Background(), "missing.obj"); !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("missing file: error = %v, want ErrSourceUnavailable", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.Open(ctx, "meshes/tri.obj"); !errors.Is(err, ErrSourceUnavailable) || !errors.Is(err, context.Canceled) {
		t.Errorf("canceled: error = %v", err)
	}
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/tri.obj":
			io.WriteString(w, triangleOBJ)
		case "/broken.obj":
			http.Error(w, "boom", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := HTTPFetcher{Client: srv.Client()}
	rc, err := f.Open(context.Background(), srv.URL+"/tri.obj")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if got := readAll(t, rc); got != triangleOBJ {
		t.Errorf("read %q", got)
	}

	for _, p := range []string{"/missing.obj", "/broken.obj"} {
		if _, err := f.Open(context.Background(), srv.URL+p); !errors.Is(err, ErrSourceUnavailable) {
			t.Errorf("%s: error = %v, want ErrSourceUnavailable", p, err)
		}
	}
}

func TestMultiFetcherRouting(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "remote")
	}))
	defer srv.Close()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "local.obj"), []byte("local"), 0o644); err != nil {
		t.Fatal(err)
	}

	f := MultiFetcher{File: FileFetcher{BaseDir: dir}, HTTP: HTTPFetcher{Client: srv.Client()}}

	rc, err := f.Open(context.Background(), srv.URL+"/x.obj")
	if err != nil {
		t.Fatalf("remote Open() error = %v", err)
	}
	if got := readAll(t, rc); got != "remote" {
		t.Errorf("remote read %q", got)
	}

	rc, err = f.Open(context.Background(), "local.obj")
	if err != nil {
		t.Fatalf("local Open() error = %v", err)
	}
	if got := readAll(t, rc); got != "local" {
		t.Errorf("local read %q", got)
	}
}

func TestIsRemote(t *testing.T) {
	tests := map[string]bool{
		"http://example.com/a.obj":  true,
		"HTTPS://example.com/a.obj": true,
		"meshes/a.obj":              false,
		"/abs/a.obj":                false,
		"file:///abs/a.obj":         false,
	}
	for in, want := range tests {
		if got := isRemote(in); got != want {
			t.Errorf("isRemote(%q) = %v, want %v", in, got, want)
		}
	}
}
