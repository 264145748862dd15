package engine

import (
	"fmt"
	"strconv"
)

// ---------------------------------------------------------------------------
// Value: tagged argument values for table keys and answer slots
// ---------------------------------------------------------------------------

// TypeCategory classifies a tabled argument position. The category is fixed
// at transformation time, once per argument position, and selects the
// lookup-insert/save/restore strategy used for that position.
type TypeCategory uint8

const (
	// CatInt is a 64-bit signed integer argument.
	CatInt TypeCategory = iota
	// CatFloat is a 64-bit IEEE 754 float argument.
	CatFloat
	// CatString is an immutable string argument.
	CatString
	// CatChar is a single code point argument.
	CatChar
	// CatEnum is an enumeration argument with a known dense ordinal range.
	CatEnum
	// CatGeneric is a polymorphic argument carried with a runtime TypeInfo.
	// Keys are formed by canonical structural encoding of the term.
	CatGeneric
)

// String returns the category name used in diagnostics and trie step
// metadata.
func (c TypeCategory) String() string {
	switch c {
	case CatInt:
		return "int"
	case CatFloat:
		return "float"
	case CatString:
		return "string"
	case CatChar:
		return "char"
	case CatEnum:
		return "enum"
	case CatGeneric:
		return "gen"
	default:
		return "unknown(" + strconv.Itoa(int(c)) + ")"
	}
}

// Value is one tabled argument value: a key component during lookup-insert
// and a slot payload inside an AnswerBlock. Values are immutable once
// constructed.
type Value struct {
	cat  TypeCategory
	i    int64 // int, enum ordinal, char code point
	f    float64
	s    string
	term Term      // generic payload
	info *TypeInfo // type descriptor for generic payloads
}

// FromInt wraps an integer value.
func FromInt(v int64) Value { return Value{cat: CatInt, i: v} }

// FromFloat wraps a float value.
func FromFloat(v float64) Value { return Value{cat: CatFloat, f: v} }

// FromString wraps a string value.
func FromString(v string) Value { return Value{cat: CatString, s: v} }

// FromChar wraps a single code point.
func FromChar(v rune) Value { return Value{cat: CatChar, i: int64(v)} }

// FromEnum wraps an enum ordinal. The ordinal must lie within the range
// declared for the argument position; range checking happens in the trie.
func FromEnum(ordinal int64) Value { return Value{cat: CatEnum, i: ordinal} }

// FromTerm wraps a generic term together with its runtime type descriptor.
// The descriptor is required: the same encoded bits can mean different
// things under different types, so keys always include the type identity.
func FromTerm(t Term, info *TypeInfo) Value {
	return Value{cat: CatGeneric, term: t, info: info}
}

// Category returns the value's type category.
func (v Value) Category() TypeCategory { return v.cat }

// Int returns the integer payload. Valid for CatInt.
func (v Value) Int() int64 { return v.i }

// Float returns the float payload. Valid for CatFloat.
func (v Value) Float() float64 { return v.f }

// Str returns the string payload. Valid for CatString.
func (v Value) Str() string { return v.s }

// Char returns the code point payload. Valid for CatChar.
func (v Value) Char() rune { return rune(v.i) }

// Enum returns the enum ordinal payload. Valid for CatEnum.
func (v Value) Enum() int64 { return v.i }

// TermValue returns the generic payload and its type descriptor. Valid for
// CatGeneric.
func (v Value) TermValue() (Term, *TypeInfo) { return v.term, v.info }

// String renders the value for traces and introspection output.
func (v Value) String() string {
	switch v.cat {
	case CatInt:
		return strconv.FormatInt(v.i, 10)
	case CatFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case CatString:
		return strconv.Quote(v.s)
	case CatChar:
		return strconv.QuoteRune(rune(v.i))
	case CatEnum:
		return "enum(" + strconv.FormatInt(v.i, 10) + ")"
	case CatGeneric:
		name := "?"
		if v.info != nil {
			name = v.info.Name
		}
		return fmt.Sprintf("%s:%v", name, v.term)
	default:
		return "invalid"
	}
}
