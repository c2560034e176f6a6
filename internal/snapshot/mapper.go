package snapshot

import (
	"fmt"
	"sort"

	"github.com/go-viper/mapstructure/v2"
	"github.com/mitchellh/copystructure"
)

// Mapper converts a set of named cells into a plain record and back.
type Mapper struct {
	fields   map[string]any
	defaults map[string]any
	names    []string
}

// New creates a mapper over fields. defaults holds the value each field is
// reset to; fields without a default are left alone by Reset.
func New(fields, defaults map[string]any) *Mapper {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	return &Mapper{
		fields:   fields,
		defaults: defaults,
		names:    names,
	}
}

// Fields returns the field names in sorted order.
func (m *Mapper) Fields() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// SerializeState reads every field and returns a plain deep copy of the values.
func (m *Mapper) SerializeState() (map[string]any, error) {
	out := make(map[string]any, len(m.names))
	for _, name := range m.names {
		var current any
		switch cell := m.fields[name].(type) {
		case Value:
			current = cell.Get()
		case Struct:
			current = cell.Fields()
		default:
			current = cell
		}

		plain, err := copystructure.Copy(current)
		if err != nil {
			return nil, fmt.Errorf("snapshot: copy field %q: %w", name, err)
		}
		out[name] = plain
	}
	return out, nil
}

// RestoreState writes each key of data into the matching cell. Keys missing
// from data, keys without a field, and non-cell fields are left untouched.
// Every value is converted before any cell is written, so a record that
// fails on one field leaves all fields unchanged.
func (m *Mapper) RestoreState(data map[string]any) error {
	if err := m.write(data); err != nil {
		return fmt.Errorf("snapshot: restore %w", err)
	}
	return nil
}

// Reset writes every field back to its default.
func (m *Mapper) Reset() error {
	defaults := make(map[string]any, len(m.defaults))
	for name, def := range m.defaults {
		// Defaults may be mutable; cells must not alias them.
		v, err := copystructure.Copy(def)
		if err != nil {
			return fmt.Errorf("snapshot: copy default %q: %w", name, err)
		}
		defaults[name] = v
	}

	if err := m.write(defaults); err != nil {
		return fmt.Errorf("snapshot: reset %w", err)
	}
	return nil
}

// pendingWrite is one converted field waiting to be stored.
type pendingWrite struct {
	name   string
	commit func() error
	undo   func()
}

// write converts every present value, then stores them all. Cells defined
// outside this package cannot be checked ahead of time: they are written
// first and rolled back if one of them fails.
func (m *Mapper) write(data map[string]any) error {
	var external, staged []pendingWrite

	for _, name := range m.names {
		v, ok := data[name]
		if !ok {
			continue
		}

		switch cell := m.fields[name].(type) {
		case stager:
			commit, err := cell.stage(v)
			if err != nil {
				return fmt.Errorf("field %q: %w", name, err)
			}
			staged = append(staged, pendingWrite{name: name, commit: commit})

		case Value:
			prev, err := copystructure.Copy(cell.Get())
			if err != nil {
				return fmt.Errorf("field %q: %w", name, err)
			}
			external = append(external, pendingWrite{
				name:   name,
				commit: func() error { return cell.Set(v) },
				undo:   func() { _ = cell.Set(prev) },
			})

		case Struct:
			fields, err := toFields(v)
			if err != nil {
				return fmt.Errorf("field %q: %w", name, err)
			}
			prev := cell.Fields()
			external = append(external, pendingWrite{
				name:   name,
				commit: func() error { return cell.Merge(fields) },
				undo:   func() { _ = cell.Merge(prev) },
			})
		}
	}

	for i, w := range external {
		if err := w.commit(); err != nil {
			for j := i - 1; j >= 0; j-- {
				external[j].undo()
			}
			return fmt.Errorf("field %q: %w", w.name, err)
		}
	}
	for _, w := range staged {
		if err := w.commit(); err != nil {
			return fmt.Errorf("field %q: %w", w.name, err)
		}
	}
	return nil
}

func toFields(v any) (map[string]any, error) {
	switch f := v.(type) {
	case map[string]any:
		return f, nil
	case nil:
		return map[string]any{}, nil
	default:
		out := make(map[string]any)
		if err := mapstructure.Decode(v, &out); err != nil {
			return nil, fmt.Errorf("expected an object, got %T", v)
		}
		return out, nil
	}
}

// Decode converts a record into a typed value such as a struct pointer.
// Numbers decoded from text codecs are converted to the target field types.
func Decode(record map[string]any, out any) error {
	if err := decode(record, out); err != nil {
		return fmt.Errorf("snapshot: decode: %w", err)
	}
	return nil
}
