package storage

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Submission filenames encode everything needed to audit a slot from
// the directory listing alone:
//
//	submit.<unix-nanos>.<nonce>.<length>.<sha256-prefix>.tgz
//
// The nanosecond timestamp orders submissions by wall clock; the random
// nonce disambiguates two uploads landing in the same instant, so names
// never collide and ordering stays total.
const (
	submissionPrefix = "submit"
	submissionExt    = "tgz"
	nonceBytes       = 4
	hashPrefixLen    = 16
)

// BuildSubmissionName constructs the final filename for an accepted
// archive.
func BuildSubmissionName(collected time.Time, nonce string, length int64, sha256Hex string) string {
	hashPrefix := sha256Hex
	if len(hashPrefix) > hashPrefixLen {
		hashPrefix = hashPrefix[:hashPrefixLen]
	}
	return fmt.Sprintf("%s.%d.%s.%d.%s.%s",
		submissionPrefix, collected.UnixNano(), nonce, length, hashPrefix, submissionExt)
}

// NewSubmissionNonce returns a short random hex string.
func NewSubmissionNonce() (string, error) {
	var b [nonceBytes]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("failed to generate submission nonce: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}

// ParseSubmissionName extracts the collected time, length and hash
// prefix from a submission filename.
func ParseSubmissionName(name string) (collected time.Time, length int64, hashPrefix string, ok bool) {
	parts := strings.Split(name, ".")
	if len(parts) != 6 || parts[0] != submissionPrefix || parts[5] != submissionExt {
		return time.Time{}, 0, "", false
	}

	nanos, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return time.Time{}, 0, "", false
	}
	length, err = strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return time.Time{}, 0, "", false
	}

	return time.Unix(0, nanos).UTC(), length, parts[4], true
}

// SubmissionNewer reports whether submission file a supersedes b:
// later embedded timestamp wins, the full name breaks exact ties.
func SubmissionNewer(a, b string) bool {
	ta, _, _, okA := ParseSubmissionName(a)
	tb, _, _, okB := ParseSubmissionName(b)
	if !okA || !okB {
		return okA
	}
	if !ta.Equal(tb) {
		return ta.After(tb)
	}
	return a > b
}
