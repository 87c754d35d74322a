package pathcodec

import "testing"

func TestEncodeHiddenBoundary(t *testing.T) {
	if got := EncodeSegment(".hidden"); got != "%2Ehidden" {
		t.Errorf("EncodeSegment(.hidden) = %q, want %%2Ehidden", got)
	}
}

func TestEncodeSpaceAndSlash(t *testing.T) {
	if got := EncodeSegment("a b/c"); got != "a%20b%2Fc" {
		t.Errorf("EncodeSegment(a b/c) = %q, want a%%20b%%2Fc", got)
	}
}

func TestRoundTrip(t *testing.T) {
	cases := []string{
		"simple", ".dotfile", "a b/c", "unicode-héllo-世界",
		"", "weird%chars%%", "-_.~",
	}
	for _, c := range cases {
		encoded := EncodeSegment(c)
		decoded, err := DecodeSegment(encoded)
		if err != nil {
			t.Fatalf("DecodeSegment(%q) error: %v", encoded, err)
		}
		if decoded != c {
			t.Errorf("round trip failed: %q -> %q -> %q", c, encoded, decoded)
		}
		if len(encoded) > 0 && encoded[0] == '.' {
			t.Errorf("encoded segment %q has leading dot", encoded)
		}
	}
}

func TestDecodeInvalidPercentEscape(t *testing.T) {
	cases := []string{"%", "%2", "%2G", "abc%"}
	for _, c := range cases {
		if _, err := DecodeSegment(c); err == nil {
			t.Errorf("DecodeSegment(%q) expected error, got nil", c)
		}
	}
}

func TestEncodeDecodePath(t *testing.T) {
	path := []string{"info", "a b"}
	encoded := Encode(path)
	if encoded != "info/a%20b" {
		t.Errorf("Encode(path) = %q, want info/a%%20b", encoded)
	}
	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if len(decoded) != 2 || decoded[0] != "info" || decoded[1] != "a b" {
		t.Errorf("Decode(%q) = %v, want [info a b]", encoded, decoded)
	}
}
