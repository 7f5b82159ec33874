package hivetrigger

import (
	"errors"
	"testing"

	"github.com/hivegraph/hivecore/hiveerr"
)

func TestRuleValidate(t *testing.T) {
	tests := []struct {
		name    string
		rule    Rule
		wantErr bool
	}{
		{"valid node:add", Rule{Cond: CondNodeAdd, Form: "inet:ipv4", User: "u", Query: "q"}, false},
		{"node:add missing form", Rule{Cond: CondNodeAdd, User: "u", Query: "q"}, true},
		{"node:add with tag", Rule{Cond: CondNodeAdd, Form: "f", Tag: "foo", User: "u", Query: "q"}, true},
		{"valid prop:set", Rule{Cond: CondPropSet, Prop: "inet:ipv4:asn", User: "u", Query: "q"}, false},
		{"prop:set missing prop", Rule{Cond: CondPropSet, User: "u", Query: "q"}, true},
		{"prop:set with form", Rule{Cond: CondPropSet, Form: "f", Prop: "p", User: "u", Query: "q"}, true},
		{"valid tag:add", Rule{Cond: CondTagAdd, Tag: "foo.bar", User: "u", Query: "q"}, false},
		{"tag:add missing tag", Rule{Cond: CondTagAdd, User: "u", Query: "q"}, true},
		{"valid tag:del glob", Rule{Cond: CondTagDel, Tag: "foo.*", User: "u", Query: "q"}, false},
		{"unknown cond", Rule{Cond: "bogus", User: "u", Query: "q"}, true},
		{"stray prop on node:add", Rule{Cond: CondNodeAdd, Form: "f", Prop: "p", User: "u", Query: "q"}, true},
		{"bad version", Rule{Ver: 1, Cond: CondNodeAdd, Form: "f", User: "u", Query: "q"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
			if tt.wantErr && err != nil && !errors.Is(err, hiveerr.ErrBadOptValu) {
				t.Errorf("expected ErrBadOptValu, got %v", err)
			}
		})
	}
}

func TestIsGlob(t *testing.T) {
	if isGlob("foo.bar") {
		t.Error("foo.bar should not be detected as a glob")
	}
	if !isGlob("foo.*") {
		t.Error("foo.* should be detected as a glob")
	}
}

func TestRuleCodecRoundTrip(t *testing.T) {
	r := Rule{Cond: CondTagAdd, Tag: "foo.bar", User: "visi", Query: "[ +#foo.bar ]"}
	data, err := encode(r)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	back, err := decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if back != r {
		t.Errorf("round trip mismatch: got %+v, want %+v", back, r)
	}
}
