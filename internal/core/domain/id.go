package domain

import (
	"encoding/binary"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

const objectIDHexLen = 24

// ID is an identifier as supplied by a client. It is either a structured
// object id (24 hex characters) or an arbitrary raw string. Parsing never fails.
type ID struct {
	raw string
	hex string
}

func ParseID(raw string) ID {
	trimmed := strings.TrimSpace(raw)
	id := ID{raw: trimmed}
	if len(trimmed) == objectIDHexLen {
		if _, err := hex.DecodeString(trimmed); err == nil {
			id.hex = strings.ToLower(trimmed)
		}
	}
	return id
}

// IsStructured reports whether the identifier parsed as an object id.
func (id ID) IsStructured() bool { return id.hex != "" }

// Hex returns the canonical lowercase hex form of a structured id, or "".
func (id ID) Hex() string { return id.hex }

func (id ID) String() string { return id.raw }

func (id ID) IsEmpty() bool { return id.raw == "" }

// IsTemporary reports whether the id is a client-side placeholder for a photo
// slot that has not been uploaded yet.
func (id ID) IsTemporary() bool {
	return strings.HasPrefix(strings.ToLower(id.raw), "temp")
}

// Candidates returns the string keys to try in resolution order: the
// canonical structured form first, then the literal input.
func (id ID) Candidates() []string {
	switch {
	case id.raw == "":
		return nil
	case id.hex != "" && id.hex != id.raw:
		return []string{id.hex, id.raw}
	default:
		return []string{id.raw}
	}
}

// NewID returns a new object-id shaped identifier: 4 bytes of unix seconds
// followed by 8 random bytes.
func NewID() string {
	var b [12]byte
	binary.BigEndian.PutUint32(b[0:4], uint32(time.Now().Unix()))
	u := uuid.New()
	copy(b[4:], u[:8])
	return hex.EncodeToString(b[:])
}
