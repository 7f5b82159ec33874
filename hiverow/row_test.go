package hiverow

import "testing"

func TestIdenRoundTrip(t *testing.T) {
	i := NewIden()
	s := i.String()

	back, err := IdenFromHex(s)
	if err != nil {
		t.Fatalf("IdenFromHex(%q): %v", s, err)
	}
	if back != i {
		t.Errorf("round trip mismatch: got %v, want %v", back, i)
	}
}

func TestIdenFromHexBadLength(t *testing.T) {
	if _, err := IdenFromHex("ab"); err == nil {
		t.Error("expected error for short hex string")
	}
}

func TestIdenFromHexBadHex(t *testing.T) {
	if _, err := IdenFromHex("not-hex-zzzz-not-hex-zzzz-not-h"); err == nil {
		t.Error("expected error for invalid hex string")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want Kind
	}{
		{"nil", nil, KindNone},
		{"int", 7, KindInt},
		{"int64", int64(7), KindInt},
		{"string", "x", KindStr},
		{"float unclassified", 3.14, KindNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.v); got != tt.want {
				t.Errorf("KindOf(%v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestAsInt64Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for non-integer value")
		}
	}()
	AsInt64("nope")
}

func TestFold(t *testing.T) {
	iden := NewIden()

	iv := int64(42)
	row := Fold(iden, "size", &iv, nil, 100)
	if row.Value != int64(42) {
		t.Errorf("Fold int branch: got %v, want 42", row.Value)
	}

	sv := "hello"
	row = Fold(iden, "name", nil, &sv, 100)
	if row.Value != "hello" {
		t.Errorf("Fold string branch: got %v, want hello", row.Value)
	}
}
