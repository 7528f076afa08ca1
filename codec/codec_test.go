package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type header struct {
	Name    string   `json:"name" cbor:"name"`
	Arity   int      `json:"arity" cbor:"arity"`
	Attrs   []string `json:"attrs" cbor:"attrs"`
	Skipped bool     `json:"skipped,omitempty" cbor:"skipped,omitempty"`
}

func TestCodecs(t *testing.T) {
	in := header{Name: "GSB - BIF contacts", Arity: 3, Attrs: []string{"depth"}}

	for _, name := range []string{"json", "go-json", "cbor"} {
		t.Run(name, func(t *testing.T) {
			c, ok := ByName(name)
			require.True(t, ok)
			assert.Equal(t, name, c.Name())

			b, err := c.Marshal(in)
			require.NoError(t, err)

			var out header
			require.NoError(t, c.Unmarshal(b, &out))
			assert.Equal(t, in, out)
		})
	}

	_, ok := ByName("msgpack")
	assert.False(t, ok)
}

func TestCBORDeterministic(t *testing.T) {
	m := map[string]any{"b": 1, "a": 2, "c": []int{1, 2}}
	first := MustMarshal(CBOR{}, m)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, MustMarshal(CBOR{}, m))
	}
}

func TestJSONCompatible(t *testing.T) {
	in := header{Name: "x", Arity: 2}
	a := MustMarshal(JSON{}, in)
	b := MustMarshal(GoJSON{}, in)
	assert.JSONEq(t, string(a), string(b))
}
