package badger

import (
	"encoding/binary"
	"math"

	"github.com/poiesic/noteshelf/core"
)

// Key prefixes for data kept outside badgerhold.
// badgerhold owns the "bh_" and "_bhIndex" namespaces.
const (
	textPostingPrefix = "txt"
)

const idSize = len(core.ID{})

// makeTermPrefix generates the prefix shared by all postings of one term.
// Format: prefix:kind:user\x00term\x00
func makeTermPrefix(kind core.EntityType, userID, term string) []byte {
	size := len(textPostingPrefix) + 1 + len(kind) + 1 + len(userID) + 1 + len(term) + 1
	buf := make([]byte, 0, size+idSize)
	buf = append(buf, textPostingPrefix...)
	buf = append(buf, ':')
	buf = append(buf, kind...)
	buf = append(buf, ':')
	buf = append(buf, userID...)
	buf = append(buf, 0)
	buf = append(buf, term...)
	buf = append(buf, 0)
	return buf
}

// makePostingKey generates the key of one posting.
// Format: prefix:kind:user\x00term\x00id
func makePostingKey(kind core.EntityType, userID, term string, id core.ID) []byte {
	return append(makeTermPrefix(kind, userID, term), id[:]...)
}

// postingID extracts the document ID from a posting key.
func postingID(key []byte) (core.ID, bool) {
	var id core.ID
	if len(key) < idSize {
		return id, false
	}
	copy(id[:], key[len(key)-idSize:])
	return id, true
}

// encodeScore stores a term score as a big-endian float64.
func encodeScore(score float64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, math.Float64bits(score))
	return buf
}

func decodeScore(val []byte) float64 {
	if len(val) != 8 {
		return 0
	}
	return math.Float64frombits(binary.BigEndian.Uint64(val))
}

// recordKey is the badgerhold key of a document.
func recordKey(id core.ID) string {
	return id.String()
}
