package jsonvalue

import "testing"

func TestEqualReflexiveAndSymmetric(t *testing.T) {
	values := []Value{
		Null,
		NewBool(true),
		NewBool(false),
		NewInt(42),
		NewFloat(42.0),
		NewString("red"),
		NewArray(NewInt(1), NewString("a")),
		NewObject(map[string]Value{"a": NewInt(1), "b": NewString("x")}),
	}

	for _, v := range values {
		if !Equal(v, v) {
			t.Errorf("Equal(%v, %v) = false, want true (reflexivity)", v, v)
		}
	}

	for _, a := range values {
		for _, b := range values {
			if Equal(a, b) != Equal(b, a) {
				t.Errorf("Equal not symmetric for %v, %v", a, b)
			}
		}
	}
}

func TestEqualNumberNormalization(t *testing.T) {
	if !Equal(NewInt(42), NewFloat(42.0)) {
		t.Error("42 and 42.0 should compare equal after normalization")
	}
}

func TestEqualArrayIsPositionSensitive(t *testing.T) {
	a := NewArray(NewInt(1), NewInt(2))
	b := NewArray(NewInt(2), NewInt(1))
	if Equal(a, b) {
		t.Error("arrays with same elements in different order must not be equal")
	}
}

func TestEqualObjectIgnoresKeyOrder(t *testing.T) {
	a := NewObject(map[string]Value{"x": NewInt(1), "y": NewInt(2)})
	b := NewObject(map[string]Value{"y": NewInt(2), "x": NewInt(1)})
	if !Equal(a, b) {
		t.Error("objects with the same key set should be equal regardless of iteration order")
	}
}

func TestParseEncodeRoundTrip(t *testing.T) {
	cases := []string{
		`null`, `true`, `false`, `42`, `-3.5`, `"hello"`,
		`[1,2,3]`, `{"a":1,"b":[true,null]}`,
	}
	for _, c := range cases {
		v, err := Parse([]byte(c))
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", c, err)
		}
		encoded, err := v.Encode()
		if err != nil {
			t.Fatalf("Encode(%q) error: %v", c, err)
		}
		v2, err := Parse(encoded)
		if err != nil {
			t.Fatalf("re-parse error: %v", err)
		}
		if !Equal(v, v2) {
			t.Errorf("%q encoded as %q re-parsed to an unequal value", c, encoded)
		}
	}
}
