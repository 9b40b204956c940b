package resp

import "bytes"

type ValueType int

const (
	ValueTypeInvalid ValueType = iota
	ValueTypeSimpleString
	ValueTypeSimpleError
	ValueTypeInteger
	ValueTypeBulkString
	ValueTypeArray
)

func (t ValueType) String() string {
	switch t {
	case ValueTypeSimpleString:
		return "simple string"
	case ValueTypeSimpleError:
		return "simple error"
	case ValueTypeInteger:
		return "integer"
	case ValueTypeBulkString:
		return "bulk string"
	case ValueTypeArray:
		return "array"
	}
	return "invalid"
}

// Value is a single decoded RESP value. Type determines which of the payload
// fields is meaningful: Str for simple strings and simple errors, Integer for
// integers, Bulk for bulk strings and Array for arrays
type Value struct {
	Type    ValueType
	Str     string
	Integer int64
	Bulk    []byte
	Array   []Value
}

func SimpleString(s string) Value {
	return Value{Type: ValueTypeSimpleString, Str: s}
}

func SimpleError(s string) Value {
	return Value{Type: ValueTypeSimpleError, Str: s}
}

func Integer(n int64) Value {
	return Value{Type: ValueTypeInteger, Integer: n}
}

func BulkString(data []byte) Value {
	return Value{Type: ValueTypeBulkString, Bulk: data}
}

func Array(values ...Value) Value {
	return Value{Type: ValueTypeArray, Array: values}
}

// Equal reports whether two values are structurally equal, i.e. they have the
// same type and the same payload. Arrays are compared element by element
func (v Value) Equal(other Value) bool {
	if v.Type != other.Type {
		return false
	}
	switch v.Type {
	case ValueTypeSimpleString, ValueTypeSimpleError:
		return v.Str == other.Str
	case ValueTypeInteger:
		return v.Integer == other.Integer
	case ValueTypeBulkString:
		return bytes.Equal(v.Bulk, other.Bulk)
	case ValueTypeArray:
		if len(v.Array) != len(other.Array) {
			return false
		}
		for i := range v.Array {
			if !v.Array[i].Equal(other.Array[i]) {
				return false
			}
		}
		return true
	}
	return true
}
