package analytics

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"time"

	"github.com/noah-isme/goalflow-api/internal/models"
)

// Fingerprint digests every field the engine reads, in input order, so equal
// snapshots share a memoization key and any relevant edit changes it.
func Fingerprint(goals []models.Goal, tasks []models.Task) string {
	h := sha256.New()
	writeInt(h, int64(len(goals)))
	for _, g := range goals {
		writeString(h, g.ID)
		writeString(h, FoldCategory(g.Category))
		writeBool(h, g.IsCompleted)
		writeBool(h, g.IsFavorite)
		writeTime(h, g.CreatedAt)
		writeTime(h, g.UpdatedAt)
		if g.TargetDate != nil {
			writeTime(h, *g.TargetDate)
		} else {
			writeInt(h, -1)
		}
	}
	writeInt(h, int64(len(tasks)))
	for _, t := range tasks {
		writeString(h, t.ID)
		writeString(h, t.GoalID)
		writeBool(h, t.IsCompleted)
		writeTime(h, t.CreatedAt)
		writeTime(h, t.UpdatedAt)
	}
	return hex.EncodeToString(h.Sum(nil)[:16])
}

func writeString(h hash.Hash, s string) {
	writeInt(h, int64(len(s)))
	_, _ = h.Write([]byte(s))
}

func writeInt(h hash.Hash, v int64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	_, _ = h.Write(buf[:])
}

func writeBool(h hash.Hash, b bool) {
	if b {
		_, _ = h.Write([]byte{1})
		return
	}
	_, _ = h.Write([]byte{0})
}

func writeTime(h hash.Hash, t time.Time) {
	if t.IsZero() {
		writeInt(h, 0)
		return
	}
	writeInt(h, t.UnixNano())
}
