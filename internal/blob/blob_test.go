package blob

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalStoreUpload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "/uploads/")
	if err != nil {
		t.Fatal(err)
	}

	url, err := store.Upload(context.Background(), "Cửa Gỗ 01.JPG", []byte("jpeg-bytes"))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if !strings.HasPrefix(url, "/uploads/") || !strings.HasSuffix(url, "-cua-go-01.jpg") {
		t.Errorf("Unexpected url %s", url)
	}

	data, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(url, "/uploads/")))
	if err != nil {
		t.Fatalf("Uploaded file missing: %v", err)
	}
	if string(data) != "jpeg-bytes" {
		t.Errorf("Unexpected content %q", data)
	}

	again, _ := store.Upload(context.Background(), "Cửa Gỗ 01.JPG", []byte("x"))
	if again == url {
		t.Error("Two uploads with the same name must not collide")
	}
}

func TestLocalStoreRejectsEmpty(t *testing.T) {
	store, _ := NewLocalStore(t.TempDir(), "/uploads")
	if _, err := store.Upload(context.Background(), "a.jpg", nil); !errors.Is(err, ErrEmptyBlob) {
		t.Errorf("Expected ErrEmptyBlob, got %v", err)
	}
}

func TestSafeName(t *testing.T) {
	cases := map[string]string{
		"../../etc/passwd": "passwd",
		"a b.PNG":          "a-b.png",
		`dir\x.jpg`:        "x.jpg",
	}
	for in, want := range cases {
		if got := safeName(in); got != want {
			t.Errorf("safeName(%q) = %q, expected %q", in, got, want)
		}
	}
}
