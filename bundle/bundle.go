// Package bundle provides value identity and a type-tagged JSON codec for
// task values. A task's identity is structural: the registered type name plus
// a hash of the canonical encoding of its fields. Fields that must not take
// part in identity (runtime-only state such as in-memory slots) are excluded
// with a `json:"-"` tag.
package bundle

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/zerr"
)

// prefix tags the single envelope key of an encoded bundle.
const prefix = "__bundle."

var (
	// ErrUnregisteredType is returned when encoding or decoding a type that
	// was never registered.
	ErrUnregisteredType = zerr.New("type not registered")

	// ErrMalformedBundle is returned when decoding data that is not a
	// single-key bundle envelope.
	ErrMalformedBundle = zerr.New("malformed bundle envelope")
)

type registry struct {
	mu      sync.RWMutex
	byName  map[string]reflect.Type
	byType  map[reflect.Type]string
}

var reg = &registry{
	byName: make(map[string]reflect.Type),
	byType: make(map[reflect.Type]string),
}

// Register makes T encodable and decodable under the given name. It is meant
// to be called from init or package-level vars; registering two types under
// one name panics, as does registering one type twice.
func Register[T any](name string) {
	rt := reflect.TypeOf((*T)(nil)).Elem()

	reg.mu.Lock()
	defer reg.mu.Unlock()

	if prev, ok := reg.byName[name]; ok && prev != rt {
		panic(fmt.Sprintf("bundle: name %q already registered for %v", name, prev))
	}
	if prev, ok := reg.byType[rt]; ok && prev != name {
		panic(fmt.Sprintf("bundle: type %v already registered as %q", rt, prev))
	}
	reg.byName[name] = rt
	reg.byType[rt] = name
}

// nameFor returns the identity name for a value: the registered name when the
// type is registered, the fully qualified type name otherwise. Unregistered
// values still get stable keys; only Encode/Decode require registration.
func nameFor(rt reflect.Type) (string, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	if name, ok := reg.byType[rt]; ok {
		return name, true
	}
	return rt.String(), false
}

// Key identifies a task value. Keys are comparable and two values of the same
// type with equal encodings produce equal keys.
type Key struct {
	Type string
	Sum  uint64
}

// String renders the key as "<type>#<hash>".
func (k Key) String() string {
	return fmt.Sprintf("%s#%016x", k.Type, k.Sum)
}

// KeyOf computes the identity key of a value from its canonical JSON encoding.
// The value's fields must be JSON-encodable.
func KeyOf(v any) (Key, error) {
	rt := reflect.TypeOf(v)
	if rt == nil {
		return Key{}, zerr.New("cannot key a nil value")
	}
	name, _ := nameFor(rt)

	data, err := json.Marshal(v)
	if err != nil {
		return Key{}, zerr.With(zerr.Wrap(err, "failed to encode value for identity"), "type", name)
	}

	h := xxhash.New()
	_, _ = h.WriteString(name)
	_, _ = h.Write([]byte{0})
	_, _ = h.Write(data)

	return Key{Type: name, Sum: h.Sum64()}, nil
}

// Encode serializes a registered value into its type-tagged envelope.
func Encode(v any) ([]byte, error) {
	rt := reflect.TypeOf(v)
	name, ok := nameFor(rt)
	if !ok {
		return nil, zerr.With(ErrUnregisteredType, "type", rt.String())
	}

	payload, err := json.Marshal(v)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to encode bundle payload"), "type", name)
	}

	return json.Marshal(map[string]json.RawMessage{prefix + name: payload})
}

// Decode deserializes a type-tagged envelope produced by Encode. The returned
// value has the registered type (a pointer when the type was registered as a
// pointer).
func Decode(data []byte) (any, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, zerr.Wrap(err, "failed to decode bundle envelope")
	}
	if len(envelope) != 1 {
		return nil, zerr.With(ErrMalformedBundle, "keys", len(envelope))
	}

	for tag, payload := range envelope {
		name, found := strings.CutPrefix(tag, prefix)
		if !found {
			return nil, zerr.With(ErrMalformedBundle, "tag", tag)
		}

		reg.mu.RLock()
		rt, ok := reg.byName[name]
		reg.mu.RUnlock()
		if !ok {
			return nil, zerr.With(ErrUnregisteredType, "type", name)
		}

		if rt.Kind() == reflect.Pointer {
			pv := reflect.New(rt.Elem())
			if err := json.Unmarshal(payload, pv.Interface()); err != nil {
				return nil, zerr.With(zerr.Wrap(err, "failed to decode bundle payload"), "type", name)
			}
			return pv.Interface(), nil
		}

		pv := reflect.New(rt)
		if err := json.Unmarshal(payload, pv.Interface()); err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to decode bundle payload"), "type", name)
		}
		return pv.Elem().Interface(), nil
	}

	return nil, ErrMalformedBundle
}
