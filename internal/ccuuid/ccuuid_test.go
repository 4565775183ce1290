package ccuuid

import (
	"encoding/base64"
	"encoding/hex"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/uuid"
)

// compress packs a canonical identifier the way manifest writers do.
func compress(t *testing.T, canonical string) string {
	t.Helper()
	plain := strings.ReplaceAll(canonical, "-", "")
	raw, err := hex.DecodeString(plain[2:])
	if err != nil {
		t.Fatalf("decode hex %q: %v", canonical, err)
	}
	return plain[:2] + base64.URLEncoding.EncodeToString(raw)
}

func TestDecodeKnownValues(t *testing.T) {
	tests := []struct {
		name    string
		compact string
		want    string
	}{
		{"zeros", "ab" + strings.Repeat("A", 20), "ab000000-0000-0000-0000-000000000000"},
		{"url alphabet", "cd" + strings.Repeat("_", 20), "cdffffff-ffff-ffff-ffff-ffffffffffff"},
		{"leading underscore", "_ab" + strings.Repeat("A", 20), "ab000000-0000-0000-0000-000000000000"},
		{"suffix preserved", "ab" + strings.Repeat("A", 20) + "@6c48a", "ab000000-0000-0000-0000-000000000000@6c48a"},
		{"suffix on underscore form", "_cd" + strings.Repeat("_", 20) + "@f9941", "cdffffff-ffff-ffff-ffff-ffffffffffff@f9941"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Decode(tc.compact); got != tc.want {
				t.Fatalf("Decode(%q) = %q, want %q", tc.compact, got, tc.want)
			}
		})
	}
}

func TestDecodeRoundTripsEncodedIdentifiers(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		canonical := uuid.UUID(randomBytes(rng)).String()
		compact := compress(t, canonical)
		if len(compact) != 22 {
			t.Fatalf("expected 22-char compact form, got %d (%q)", len(compact), compact)
		}
		got := Decode(compact)
		if got != canonical {
			t.Fatalf("Decode(%q) = %q, want %q", compact, got, canonical)
		}
		if _, err := uuid.Parse(got); err != nil {
			t.Fatalf("decoded value %q is not a canonical uuid: %v", got, err)
		}
		if withUnderscore := Decode("_" + compact); withUnderscore != canonical {
			t.Fatalf("underscore form decoded to %q, want %q", withUnderscore, canonical)
		}
	}
}

func TestDecodeIsIdentityForOtherLengths(t *testing.T) {
	inputs := []string{
		"",
		"a",
		"short",
		strings.Repeat("A", 21),
		strings.Repeat("A", 24),
		"fc991dd7-0033-4b80-9d41-c8a86a702e59",
		"fc991dd7-0033-4b80-9d41-c8a86a702e59@f9941",
		strings.Repeat("A", 30) + "@x",
	}
	for _, in := range inputs {
		if got := Decode(in); got != in {
			t.Fatalf("Decode(%q) = %q, want identity", in, got)
		}
	}
}

func TestDecodeFallsBackOnInvalidPayload(t *testing.T) {
	inputs := []string{
		"ab" + strings.Repeat("*", 20),
		// 23 characters without an underscore leaves 21 base64 characters.
		"ab" + strings.Repeat("A", 21),
	}
	for _, in := range inputs {
		if got := Decode(in); got != in {
			t.Fatalf("Decode(%q) = %q, want original", in, got)
		}
	}
}

func TestSplitSuffixAndPrefix(t *testing.T) {
	base, suffix := SplitSuffix("abc@def@g")
	if base != "abc" || suffix != "@def@g" {
		t.Fatalf("unexpected split: %q %q", base, suffix)
	}
	if base, suffix := SplitSuffix("plain"); base != "plain" || suffix != "" {
		t.Fatalf("unexpected split without suffix: %q %q", base, suffix)
	}
	if got := Prefix("fc991dd7"); got != "fc" {
		t.Fatalf("Prefix = %q", got)
	}
	if got := Prefix("f"); got != "f" {
		t.Fatalf("Prefix short = %q", got)
	}
}

func randomBytes(rng *rand.Rand) [16]byte {
	var out [16]byte
	for i := range out {
		out[i] = byte(rng.Intn(256))
	}
	return out
}
