package storage

import (
	"strings"
	"testing"
	"time"
)

func TestSubmissionName_RoundTrip(t *testing.T) {
	collected := time.Date(2026, 3, 14, 15, 9, 26, 535897932, time.UTC)
	name := BuildSubmissionName(collected, "ab12cd34", 1024, "0123456789abcdef0123456789abcdef")

	if !strings.HasPrefix(name, "submit.") || !strings.HasSuffix(name, ".tgz") {
		t.Fatalf("Unexpected name shape: %s", name)
	}

	ts, length, hashPrefix, ok := ParseSubmissionName(name)
	if !ok {
		t.Fatalf("Failed to parse %s", name)
	}
	if !ts.Equal(collected) {
		t.Errorf("Timestamp mismatch: %v != %v", ts, collected)
	}
	if length != 1024 {
		t.Errorf("Length mismatch: %d", length)
	}
	if hashPrefix != "0123456789abcdef" {
		t.Errorf("Hash prefix mismatch: %s", hashPrefix)
	}
}

func TestSubmissionName_ParseRejectsForeignFiles(t *testing.T) {
	for _, name := range []string{
		"",
		"lock",
		"slot.json",
		".upload.12345.abcd",
		"submit.notanumber.ab.12.deadbeefdeadbeef.tgz",
		"submit.123.ab.12.deadbeefdeadbeef.zip",
	} {
		if _, _, _, ok := ParseSubmissionName(name); ok {
			t.Errorf("Parsed %q as a submission name", name)
		}
	}
}

func TestSubmissionNewer_OrdersByTimestampThenName(t *testing.T) {
	early := BuildSubmissionName(time.Unix(0, 1000), "aa", 1, "hash")
	late := BuildSubmissionName(time.Unix(0, 2000), "aa", 1, "hash")

	if !SubmissionNewer(late, early) {
		t.Error("Later timestamp must supersede")
	}
	if SubmissionNewer(early, late) {
		t.Error("Earlier timestamp must not supersede")
	}

	// identical timestamps: the name itself breaks the tie, in a
	// consistent direction
	tieA := BuildSubmissionName(time.Unix(0, 1000), "aa", 1, "hash")
	tieB := BuildSubmissionName(time.Unix(0, 1000), "bb", 1, "hash")
	if SubmissionNewer(tieA, tieB) == SubmissionNewer(tieB, tieA) {
		t.Error("Tie-break must produce a total order")
	}
}

func TestNewSubmissionNonce_Varies(t *testing.T) {
	a, err := NewSubmissionNonce()
	if err != nil {
		t.Fatalf("Nonce generation failed: %v", err)
	}
	b, err := NewSubmissionNonce()
	if err != nil {
		t.Fatalf("Nonce generation failed: %v", err)
	}
	if len(a) != 8 || len(b) != 8 {
		t.Errorf("Unexpected nonce lengths: %q %q", a, b)
	}
	if a == b {
		t.Errorf("Two nonces collided: %q", a)
	}
}
