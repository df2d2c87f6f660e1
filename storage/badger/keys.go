package badger

import (
	"encoding/binary"
	"time"

	"github.com/poiesic/sommelier/core"
)

const (
	feedbackRecordPrefix    = "fbrec:"
	feedbackDatePrefix      = "fbidx:"
	feedbackAggregatePrefix = "fbagg:"
	feedbackIDSeq           = "fbseq"
)

// makeFeedbackKey generates a key for a feedback record by ID.
// Format: prefix + BE(id)
func makeFeedbackKey(id core.ID) []byte {
	buf := make([]byte, len(feedbackRecordPrefix)+8)
	offset := copy(buf, feedbackRecordPrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeFeedbackDateKey generates a composite key for the date index.
// Format: prefix + BE(timestamp micros) + BE(id)
func makeFeedbackDateKey(timestamp time.Time, id core.ID) []byte {
	buf := make([]byte, len(feedbackDatePrefix)+16)
	offset := copy(buf, feedbackDatePrefix)
	// BigEndian so lexicographic order is chronological
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialFeedbackDateKey generates a partial key for date range queries.
// Format: prefix + BE(timestamp micros)
func makePartialFeedbackDateKey(timestamp time.Time) []byte {
	buf := make([]byte, len(feedbackDatePrefix)+8)
	offset := copy(buf, feedbackDatePrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	return buf
}

// makeAggregateKey generates the counter key of a wine.
func makeAggregateKey(wineID string) []byte {
	return append([]byte(feedbackAggregatePrefix), wineID...)
}

// wineIDFromAggregateKey is the inverse of makeAggregateKey.
func wineIDFromAggregateKey(key []byte) string {
	return string(key[len(feedbackAggregatePrefix):])
}
