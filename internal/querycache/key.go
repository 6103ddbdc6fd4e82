package querycache

import (
	"fmt"
	"strings"
)

// Key identifies one cached query: a kind such as "clientLibraries" and an optional
// parameter such as the client's hwid.
type Key struct {
	Kind  string `json:"kind"`
	Param string `json:"param,omitempty"`
}

// K builds a key; params are joined with ":".
func K(kind string, params ...any) Key {
	if len(params) == 0 {
		return Key{Kind: kind}
	}
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = fmt.Sprint(p)
	}
	return Key{Kind: kind, Param: strings.Join(parts, ":")}
}

func (k Key) String() string {
	if k.Param == "" {
		return k.Kind
	}
	return k.Kind + "(" + k.Param + ")"
}

// Dep is one invalidation target of a mutation: an exact key, or every key of a kind.
type Dep struct {
	Key      Key  `json:"key"`
	Wildcard bool `json:"wildcard,omitempty"`
}

// Exact invalidates exactly k.
func Exact(k Key) Dep { return Dep{Key: k} }

// AllOf invalidates every key whose kind is kind, written kind(*) in docs.
func AllOf(kind string) Dep { return Dep{Key: Key{Kind: kind}, Wildcard: true} }

func (d Dep) String() string {
	if d.Wildcard {
		return d.Key.Kind + "(*)"
	}
	return d.Key.String()
}

func (d Dep) matches(k Key) bool {
	if d.Wildcard {
		return d.Key.Kind == k.Kind
	}
	return d.Key == k
}
