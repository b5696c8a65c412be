package word2vec

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/akolanti/MLServe/internal/words/embedding"
	"github.com/akolanti/MLServe/pkg/logger_i"
)

var ErrBadHeader = errors.New("word2vec: malformed header")

// Model is a read-only word2vec table. Lookups are exact and case-sensitive.
type Model struct {
	dim     int
	words   []string
	index   map[string]int
	vectors [][]float32
}

// Load reads a Google News style word2vec file. Files ending in .bin (optionally
// .bin.gz) use the binary layout, anything else the text layout. limit caps the
// number of words read, zero reads all of them.
func Load(path string, limit int) (*Model, error) {
	log := logger_i.NewLogger("word2vec")

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open word2vec file: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip stream: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	isBinary := strings.HasSuffix(strings.TrimSuffix(path, ".gz"), ".bin")
	m, err := Read(bufio.NewReaderSize(r, 1<<20), isBinary, limit)
	if err != nil {
		return nil, err
	}
	log.Info("word2vec model loaded", "path", path, "words", len(m.words), "dim", m.dim)
	return m, nil
}

// Read parses a word2vec stream from r
func Read(r *bufio.Reader, isBinary bool, limit int) (*Model, error) {
	header, err := r.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadHeader, err)
	}
	fields := strings.Fields(header)
	if len(fields) != 2 {
		return nil, ErrBadHeader
	}
	count, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, ErrBadHeader
	}
	dim, err := strconv.Atoi(fields[1])
	if err != nil || dim <= 0 {
		return nil, ErrBadHeader
	}
	if limit > 0 && limit < count {
		count = limit
	}

	m := &Model{
		dim:     dim,
		words:   make([]string, 0, count),
		index:   make(map[string]int, count),
		vectors: make([][]float32, 0, count),
	}

	for i := 0; i < count; i++ {
		var word string
		var vec []float32
		if isBinary {
			word, vec, err = readBinaryEntry(r, dim)
		} else {
			word, vec, err = readTextEntry(r, dim)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("word2vec entry %d: %w", i, err)
		}
		if _, dup := m.index[word]; dup {
			continue
		}
		m.index[word] = len(m.words)
		m.words = append(m.words, word)
		m.vectors = append(m.vectors, vec)
	}
	return m, nil
}

func readBinaryEntry(r *bufio.Reader, dim int) (string, []float32, error) {
	word, err := r.ReadString(' ')
	if err != nil {
		if errors.Is(err, io.EOF) && strings.TrimSpace(word) == "" {
			return "", nil, io.EOF
		}
		return "", nil, err
	}
	// entries are separated by an optional newline that ends up in front of the next word
	word = strings.TrimLeft(strings.TrimSuffix(word, " "), "\n")

	buf := make([]byte, 4*dim)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", nil, fmt.Errorf("vector for %q: %w", word, err)
	}
	vec := make([]float32, dim)
	for j := range vec {
		vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*j:]))
	}
	return word, vec, nil
}

func readTextEntry(r *bufio.Reader, dim int) (string, []float32, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", nil, err
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil, io.EOF
	}
	if len(fields) != dim+1 {
		return "", nil, fmt.Errorf("expected %d values for %q, got %d", dim, fields[0], len(fields)-1)
	}
	vec := make([]float32, dim)
	for j, v := range fields[1:] {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return "", nil, fmt.Errorf("value %d for %q: %w", j, fields[0], err)
		}
		vec[j] = float32(f)
	}
	return fields[0], vec, nil
}

func (m *Model) Dim() int {
	return m.dim
}

// Words returns the vocabulary in file order
func (m *Model) Words() []string {
	return m.words
}

func (m *Model) Vector(word string) ([]float32, bool) {
	i, ok := m.index[word]
	if !ok {
		return nil, false
	}
	return m.vectors[i], true
}

func (m *Model) GetEmbedding(_ context.Context, word string) ([]float32, error) {
	vec, ok := m.Vector(word)
	if !ok {
		return nil, fmt.Errorf("%w: %q", embedding.ErrUnknownWord, word)
	}
	return vec, nil
}

func (m *Model) BatchEmbedding(ctx context.Context, words []string, _ bool) ([][]float32, error) {
	out := make([][]float32, len(words))
	for i, w := range words {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i], _ = m.Vector(w)
	}
	return out, nil
}
