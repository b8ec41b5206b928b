// Package roundid mints the identifiers used for tables, rounds and bets.
//
// IDs are UUIDv7 values rendered as 26 characters of Crockford base32 with an
// optional type prefix ("tbl_0j3...", "rnd_0j3..."). Because the timestamp
// leads, IDs from one generator sort by creation time.
package roundid

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/lox/tablegames/internal/randutil"
)

const (
	alphabet = "0123456789abcdefghjkmnpqrstvwxyz"
	encLen   = 26
)

// Generator mints IDs from a source of random bytes.
type Generator struct {
	reader io.Reader
}

// New returns a generator backed by crypto/rand.
func New() *Generator {
	return &Generator{reader: rand.Reader}
}

// NewFromReader returns a generator that draws its random bits from r. Tests
// use it to exercise failure paths.
func NewFromReader(r io.Reader) *Generator {
	return &Generator{reader: r}
}

// Generate returns a new bare ID.
func (g *Generator) Generate() (string, error) {
	id, err := uuid.NewV7FromReader(g.reader)
	if err != nil {
		return "", fmt.Errorf("%w: %v", randutil.ErrRandomnessUnavailable, err)
	}
	return encode(id), nil
}

// WithPrefix returns a new ID of the form prefix_xxxx.
func (g *Generator) WithPrefix(prefix string) (string, error) {
	id, err := g.Generate()
	if err != nil {
		return "", err
	}
	return prefix + "_" + id, nil
}

// encode renders the 128 bits as a 130-bit big-endian base32 number, so the
// first character is always 0-7.
func encode(id uuid.UUID) string {
	var hi, lo uint64
	for i := 0; i < 8; i++ {
		hi = hi<<8 | uint64(id[i])
		lo = lo<<8 | uint64(id[i+8])
	}
	out := make([]byte, encLen)
	for i := encLen - 1; i >= 0; i-- {
		out[i] = alphabet[lo&0x1f]
		lo = lo>>5 | hi<<59
		hi >>= 5
	}
	return string(out)
}

// Validate checks the shape of an ID, with or without a prefix.
func Validate(id string) error {
	if i := strings.LastIndexByte(id, '_'); i >= 0 {
		id = id[i+1:]
	}
	if len(id) != encLen {
		return fmt.Errorf("id must be exactly %d characters, got %d", encLen, len(id))
	}
	if id[0] > '7' {
		return fmt.Errorf("id first character must be 0-7, got %c", id[0])
	}
	for i := 0; i < len(id); i++ {
		if strings.IndexByte(alphabet, id[i]) < 0 {
			return fmt.Errorf("invalid character %c at position %d", id[i], i)
		}
	}
	return nil
}
