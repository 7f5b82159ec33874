package hivetrigger

import (
	"github.com/vmihailenco/msgpack/v5"
)

// wireRule is Rule's on-disk shape. Optional fields are omitted when
// empty so a Form-less prop:set rule round-trips without a stray empty
// string, matching the original dataclasses.asdict()/msgpack encoding
// where unset fields are simply absent or None.
type wireRule struct {
	Ver   int    `msgpack:"ver"`
	Cond  string `msgpack:"cond"`
	User  string `msgpack:"user"`
	Storm string `msgpack:"storm"`
	Form  string `msgpack:"form,omitempty"`
	Tag   string `msgpack:"tag,omitempty"`
	Prop  string `msgpack:"prop,omitempty"`
}

// encode serializes a Rule for storage, the Go analogue of Rule.en().
func encode(r Rule) ([]byte, error) {
	return msgpack.Marshal(wireRule{
		Ver:   r.Ver,
		Cond:  string(r.Cond),
		User:  r.User,
		Storm: r.Query,
		Form:  r.Form,
		Tag:   r.Tag,
		Prop:  r.Prop,
	})
}

// decode deserializes a stored Rule record.
func decode(data []byte) (Rule, error) {
	var w wireRule
	if err := msgpack.Unmarshal(data, &w); err != nil {
		return Rule{}, err
	}
	return Rule{
		Ver:   w.Ver,
		Cond:  Condition(w.Cond),
		User:  w.User,
		Query: w.Storm,
		Form:  w.Form,
		Tag:   w.Tag,
		Prop:  w.Prop,
	}, nil
}
