package hash

import "testing"

func TestText_Deterministic(t *testing.T) {
	inputs := []string{
		"The Earth's core reaches temperatures of about 5,400°C.",
		"",
		"  padded  ",
		"ünïcode Claim",
	}

	for _, in := range inputs {
		if Text(in) != Text(in) {
			t.Errorf("Text(%q) not deterministic", in)
		}
		if len(Text(in)) != 64 {
			t.Errorf("Expected 64-char hex key, got %d chars", len(Text(in)))
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	cases := []string{
		"  The Earth's Core  ",
		"ALREADY LOWER?  no",
		"\t\nmixed whitespace\n",
		"",
	}

	for _, c := range cases {
		once := Normalize(c)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q != %q", c, once, twice)
		}
	}
}

func TestText_NormalizationSharing(t *testing.T) {
	a := Text("The Earth's core reaches temperatures of about 5,400°C.")
	b := Text("  the earth's core reaches temperatures of about 5,400°c.  ")
	if a != b {
		t.Error("Expected normalized variants to share one key")
	}

	c := Text("A different claim entirely.")
	if a == c {
		t.Error("Expected different claims to have different keys")
	}
}

func TestPair_OrderSensitive(t *testing.T) {
	ab := Pair("claim", "question")
	ba := Pair("question", "claim")
	if ab == ba {
		t.Error("Expected pair key to be order-sensitive")
	}

	if Pair(" Claim ", "QUESTION") != Pair("claim", "question") {
		t.Error("Expected pair key to normalize both components")
	}
}

func TestBytes_DistinctFromText(t *testing.T) {
	// Bytes must not normalize: file content is hashed verbatim.
	if Bytes([]byte("ABC")) == Bytes([]byte("abc")) {
		t.Error("Expected Bytes to be case-sensitive")
	}
}
