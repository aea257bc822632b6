package fingerprint

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestDeterministicAcrossCalls(t *testing.T) {
	key := []byte("public-key-bytes-for-fingerprint")
	a, err := New(key)
	if err != nil {
		t.Fatalf("fingerprint failed: %v", err)
	}
	b, err := New(key)
	if err != nil {
		t.Fatalf("fingerprint failed: %v", err)
	}
	if a.Hash != b.Hash || a.HexGrouped != b.HexGrouped || a.Emoji != b.Emoji ||
		a.Randomart != b.Randomart {
		t.Fatal("fingerprint not deterministic")
	}
	for i := range a.Words {
		if a.Words[i] != b.Words[i] {
			t.Fatal("word sequence not deterministic")
		}
	}
}

func TestDistinctKeysDistinctFingerprints(t *testing.T) {
	a, err := New([]byte("key-one"))
	if err != nil {
		t.Fatalf("fingerprint failed: %v", err)
	}
	b, err := New([]byte("key-two"))
	if err != nil {
		t.Fatalf("fingerprint failed: %v", err)
	}
	if a.Hash == b.Hash {
		t.Fatal("distinct keys produced identical hashes")
	}
}

func TestShapes(t *testing.T) {
	fp, err := New([]byte{0x01, 0x02, 0x03})
	if err != nil {
		t.Fatalf("fingerprint failed: %v", err)
	}
	if len(fp.Hash) != 64 {
		t.Fatalf("hash length %d", len(fp.Hash))
	}
	if got := len(strings.Split(fp.HexGrouped, ":")); got != 32 {
		t.Fatalf("expected 32 colon groups, got %d", got)
	}
	if len(fp.Blocks) != 16 {
		t.Fatalf("expected 16 blocks, got %d", len(fp.Blocks))
	}
	for _, blk := range fp.Blocks {
		if len(blk) != 4 {
			t.Fatalf("bad block %q", blk)
		}
	}
	if len(fp.Colors) != 8 {
		t.Fatalf("expected 8 colors, got %d", len(fp.Colors))
	}
	for _, c := range fp.Colors {
		if len(c) != 7 || c[0] != '#' {
			t.Fatalf("bad color %q", c)
		}
	}
	if got := utf8.RuneCountInString(fp.Emoji); got != 8 {
		t.Fatalf("expected 8 emoji, got %d", got)
	}
	if len(fp.Words) != 8 {
		t.Fatalf("expected 8 words, got %d", len(fp.Words))
	}
}

func TestEmojiTableHas256Entries(t *testing.T) {
	if len(emojiTable) != 256 {
		t.Fatalf("emoji table has %d entries, want 256", len(emojiTable))
	}
	if len(wordList) != 64 {
		t.Fatalf("word list has %d entries, want 64", len(wordList))
	}
}

func TestRandomartGrid(t *testing.T) {
	fp, err := New([]byte("randomart-key"))
	if err != nil {
		t.Fatalf("fingerprint failed: %v", err)
	}
	lines := strings.Split(fp.Randomart, "\n")
	if len(lines) != artHeight+2 {
		t.Fatalf("expected %d lines, got %d", artHeight+2, len(lines))
	}
	for i, line := range lines {
		if len(line) != artWidth+2 {
			t.Fatalf("line %d width %d, want %d", i, len(line), artWidth+2)
		}
	}
	if !strings.Contains(fp.Randomart, "S") {
		t.Fatal("missing start marker")
	}
	if !strings.Contains(fp.Randomart, "E") {
		t.Fatal("missing end marker")
	}
}

func TestFromHexMatchesRaw(t *testing.T) {
	raw := []byte{0xde, 0xad, 0xbe, 0xef}
	a, err := New(raw)
	if err != nil {
		t.Fatalf("fingerprint failed: %v", err)
	}
	b, err := FromHex("DEADBEEF")
	if err != nil {
		t.Fatalf("fingerprint failed: %v", err)
	}
	if a.Hash != b.Hash {
		t.Fatal("hex and raw inputs disagree")
	}
	if _, err := FromHex("not-hex"); err == nil {
		t.Fatal("expected error for invalid hex")
	}
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestCompare(t *testing.T) {
	a, err := New([]byte("same-key"))
	if err != nil {
		t.Fatalf("fingerprint failed: %v", err)
	}
	b, err := New([]byte("same-key"))
	if err != nil {
		t.Fatalf("fingerprint failed: %v", err)
	}
	c, err := New([]byte("other-key"))
	if err != nil {
		t.Fatalf("fingerprint failed: %v", err)
	}

	equal := Compare(a, b)
	if !equal.Exact || equal.Similarity != 100 || equal.MatchingColors != 8 {
		t.Fatalf("self comparison unexpected: %+v", equal)
	}

	diff := Compare(a, c)
	if diff.Exact {
		t.Fatal("distinct keys reported exact")
	}
	if diff.Similarity >= 100 {
		t.Fatalf("similarity too high: %v", diff.Similarity)
	}
	if diff.MatchingColors > 8 {
		t.Fatalf("impossible color count: %d", diff.MatchingColors)
	}
}
