package sqlengine

import (
	"database/sql/driver"
	"strconv"
)

// Statement is the raw text of one SQL command.
//
// A Statement is plain data and may be reused across any number of
// executions; each execution prepares its own native statement.
type Statement string

// SQL returns the statement text.
func (s Statement) SQL() string {
	return string(s)
}

// BindingKind distinguishes the value types a Binding can carry.
type BindingKind int

const (
	// BindingInt32 binds a 32-bit integer.
	BindingInt32 BindingKind = iota + 1
	// BindingText binds a UTF-8 text value.
	BindingText
)

// Binding is one positional SQL parameter.
//
// Bindings are attached to "?" placeholders by position: the first Binding
// in a call's argument list binds ordinal 1, the second ordinal 2, and so on.
// Bindings beyond the statement's placeholder count are ignored, and
// placeholders without a Binding are left NULL, as the engine does.
type Binding struct {
	kind BindingKind
	i    int32
	s    string
}

// Int32 returns an integer Binding.
func Int32(v int32) Binding {
	return Binding{kind: BindingInt32, i: v}
}

// Text returns a text Binding.
func Text(s string) Binding {
	return Binding{kind: BindingText, s: s}
}

// Kind returns the Binding's value type.
func (b Binding) Kind() BindingKind {
	return b.kind
}

// Value returns the bound value as an int32 or a string.
func (b Binding) Value() any {
	if b.kind == BindingInt32 {
		return b.i
	}
	return b.s
}

// String implements fmt.Stringer.
func (b Binding) String() string {
	if b.kind == BindingInt32 {
		return strconv.FormatInt(int64(b.i), 10)
	}
	return strconv.Quote(b.s)
}

// attach converts the Binding into the driver value bound at ordinal.
func (b Binding) attach(ordinal int) driver.NamedValue {
	nv := driver.NamedValue{Ordinal: ordinal}
	switch b.kind {
	case BindingInt32:
		nv.Value = int64(b.i)
	case BindingText:
		nv.Value = b.s
	}
	return nv
}

// bindArgs attaches bindings to their 1-based ordinals, dropping any beyond
// the statement's placeholder count.
func bindArgs(bindings []Binding, placeholders int) []driver.NamedValue {
	if placeholders >= 0 && len(bindings) > placeholders {
		bindings = bindings[:placeholders]
	}
	args := make([]driver.NamedValue, len(bindings))
	for i, b := range bindings {
		args[i] = b.attach(i + 1)
	}
	return args
}
