package handlers

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type failingReader struct{ after int }

func (f *failingReader) Read(p []byte) (int, error) {
	if f.after == 0 {
		return 0, errors.New("connection reset")
	}
	n := min(f.after, len(p))
	for i := range n {
		p[i] = 'a'
	}
	f.after -= n
	return n, nil
}

func TestSaveUpload(t *testing.T) {
	t.Run("stores the upload", func(t *testing.T) {
		dir := t.TempDir()
		path, err := saveUpload(dir, "../../notes.txt", strings.NewReader("king queen"))
		if err != nil {
			t.Fatal(err)
		}
		if filepath.Dir(path) != dir || !strings.HasSuffix(path, "-notes.txt") {
			t.Errorf("unexpected path %s", path)
		}
		data, _ := os.ReadFile(path)
		if string(data) != "king queen" {
			t.Errorf("content = %q", data)
		}
	})

	t.Run("failed copy leaves nothing behind", func(t *testing.T) {
		dir := t.TempDir()
		if _, err := saveUpload(dir, "notes.txt", &failingReader{after: 64}); err == nil {
			t.Fatal("expected an error")
		}
		entries, _ := os.ReadDir(dir)
		if len(entries) != 0 {
			t.Errorf("partial upload left on disk: %v", entries)
		}
	})
}

var _ io.Reader = (*failingReader)(nil)
