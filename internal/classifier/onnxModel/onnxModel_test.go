package onnxModel

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadMetadata(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name     string
		body     string
		wantErr  bool
		wantIn   string
		wantSize int
	}{
		{
			name:     "defaults tensor names",
			body:     `{"input_shape":[1,4],"output_shape":[1,3],"classes":["a","b","c"]}`,
			wantIn:   "input",
			wantSize: 4,
		},
		{
			name:     "explicit names",
			body:     `{"input_name":"float_input","output_name":"probabilities","input_shape":[1,112,112,3],"output_shape":[1,17]}`,
			wantIn:   "float_input",
			wantSize: 112 * 112 * 3,
		},
		{
			name:    "missing shapes",
			body:    `{"classes":["a"]}`,
			wantErr: true,
		},
		{
			name:    "not json",
			body:    `nope`,
			wantErr: true,
		},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".json")
			if err := os.WriteFile(path, []byte(tt.body), 0o644); err != nil {
				t.Fatal(err, i)
			}
			m, err := ReadMetadata(path)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if m.InputName != tt.wantIn || Size(m.InputShape) != tt.wantSize {
				t.Errorf("unexpected metadata %+v", m)
			}
		})
	}
}
