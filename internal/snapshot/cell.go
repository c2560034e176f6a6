package snapshot

import (
	"fmt"
	"maps"
	"sync"

	"github.com/go-viper/mapstructure/v2"
)

// Value is a single mutable cell.
type Value interface {
	Get() any
	Set(v any) error
}

// Struct is a structured mutable cell, updated by shallow merge.
type Struct interface {
	Fields() map[string]any
	Merge(fields map[string]any) error
}

// stager is implemented by cells that can convert a value without storing
// it. commit stores the converted value.
type stager interface {
	stage(v any) (commit func() error, err error)
}

// Ref is a typed Value cell. Set converts decoded values (for example a
// float64 read from JSON into an int cell).
type Ref[T any] struct {
	mu sync.RWMutex
	v  T
}

// NewRef returns a cell holding v.
func NewRef[T any](v T) *Ref[T] {
	return &Ref[T]{v: v}
}

// Load returns the typed value.
func (r *Ref[T]) Load() T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.v
}

// Store replaces the typed value.
func (r *Ref[T]) Store(v T) {
	r.mu.Lock()
	r.v = v
	r.mu.Unlock()
}

// Get implements Value.
func (r *Ref[T]) Get() any {
	return r.Load()
}

// Set implements Value.
func (r *Ref[T]) Set(v any) error {
	out, err := r.convert(v)
	if err != nil {
		return err
	}
	r.Store(out)
	return nil
}

func (r *Ref[T]) convert(v any) (T, error) {
	if typed, ok := v.(T); ok {
		return typed, nil
	}

	var out T
	if err := decode(v, &out); err != nil {
		return out, fmt.Errorf("ref: set %T: %w", out, err)
	}
	return out, nil
}

func (r *Ref[T]) stage(v any) (func() error, error) {
	out, err := r.convert(v)
	if err != nil {
		return nil, err
	}
	return func() error {
		r.Store(out)
		return nil
	}, nil
}

// Object is a map-backed Struct cell.
type Object struct {
	mu     sync.RWMutex
	fields map[string]any
}

// NewObject returns a structured cell seeded with a copy of fields.
func NewObject(fields map[string]any) *Object {
	o := &Object{fields: make(map[string]any, len(fields))}
	maps.Copy(o.fields, fields)
	return o
}

// Fields implements Struct. The returned map is a copy.
func (o *Object) Fields() map[string]any {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return maps.Clone(o.fields)
}

// Get returns one property.
func (o *Object) Get(name string) (any, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	v, ok := o.fields[name]
	return v, ok
}

// Put sets one property.
func (o *Object) Put(name string, v any) {
	o.mu.Lock()
	o.fields[name] = v
	o.mu.Unlock()
}

// Merge implements Struct. Properties absent from fields are kept.
func (o *Object) Merge(fields map[string]any) error {
	o.mu.Lock()
	maps.Copy(o.fields, fields)
	o.mu.Unlock()
	return nil
}

func (o *Object) stage(v any) (func() error, error) {
	fields, err := toFields(v)
	if err != nil {
		return nil, err
	}
	return func() error { return o.Merge(fields) }, nil
}

// StructOf is a Struct cell over a pointer to a Go struct. Field names follow
// mapstructure rules: the `mapstructure` tag, else the field name.
type StructOf[T any] struct {
	mu  sync.RWMutex
	ptr *T
}

// NewStructOf wraps ptr. ptr must point to a struct.
func NewStructOf[T any](ptr *T) *StructOf[T] {
	return &StructOf[T]{ptr: ptr}
}

// Load returns a copy of the current struct value.
func (s *StructOf[T]) Load() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.ptr
}

// Update runs fn with exclusive access to the struct.
func (s *StructOf[T]) Update(fn func(*T)) {
	s.mu.Lock()
	fn(s.ptr)
	s.mu.Unlock()
}

// Fields implements Struct.
func (s *StructOf[T]) Fields() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]any)
	if err := mapstructure.Decode(*s.ptr, &out); err != nil {
		return map[string]any{}
	}
	return out
}

// Merge implements Struct. Only the named fields are overwritten.
func (s *StructOf[T]) Merge(fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := decode(fields, s.ptr); err != nil {
		return fmt.Errorf("struct: merge: %w", err)
	}
	return nil
}

// stage checks fields against a zero T. Type mismatches do not depend on
// the current contents, so the later merge cannot fail on them.
func (s *StructOf[T]) stage(v any) (func() error, error) {
	fields, err := toFields(v)
	if err != nil {
		return nil, err
	}
	var check T
	if err := decode(fields, &check); err != nil {
		return nil, fmt.Errorf("struct: merge: %w", err)
	}
	return func() error { return s.Merge(fields) }, nil
}

// decode converts in into out with weak typing.
func decode(in, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}
