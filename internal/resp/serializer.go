package resp

import (
	"fmt"
	"io"
	"strconv"
)

type Serializer struct {
	writer io.Writer
	buf    []byte
}

func NewSerializer(w io.Writer) *Serializer {
	return &Serializer{writer: w}
}

func (s *Serializer) Serialize(v Value) error {
	var err error
	s.buf, err = AppendValue(s.buf[:0], v)
	if err != nil {
		return err
	}
	_, err = s.writer.Write(s.buf)
	return err
}

// AppendValue appends the wire encoding of v to dst.
func AppendValue(dst []byte, v Value) ([]byte, error) {
	switch v.Type {
	case SimpleString, Error:
		dst = append(dst, byte(v.Type))
		dst = append(dst, v.Str...)
		return append(dst, '\r', '\n'), nil
	case Integer:
		dst = append(dst, ':')
		dst = strconv.AppendInt(dst, v.Int, 10)
		return append(dst, '\r', '\n'), nil
	case BulkString:
		if v.Null {
			return append(dst, "$-1\r\n"...), nil
		}
		dst = append(dst, '$')
		dst = strconv.AppendInt(dst, int64(len(v.Str)), 10)
		dst = append(dst, '\r', '\n')
		dst = append(dst, v.Str...)
		return append(dst, '\r', '\n'), nil
	case Array:
		if v.Null {
			return append(dst, "*-1\r\n"...), nil
		}
		dst = append(dst, '*')
		dst = strconv.AppendInt(dst, int64(len(v.Array)), 10)
		dst = append(dst, '\r', '\n')
		var err error
		for _, elem := range v.Array {
			if dst, err = AppendValue(dst, elem); err != nil {
				return dst, err
			}
		}
		return dst, nil
	default:
		return dst, fmt.Errorf("%w: %c", ErrInvalidType, v.Type)
	}
}

func SimpleStringValue(str string) Value {
	return Value{Type: SimpleString, Str: str}
}

func ErrorValue(str string) Value {
	return Value{Type: Error, Str: str}
}

func IntegerValue(num int64) Value {
	return Value{Type: Integer, Int: num}
}

func BulkStringValue(str string) Value {
	return Value{Type: BulkString, Str: str}
}

func NullBulkStringValue() Value {
	return Value{Type: BulkString, Null: true}
}

func ArrayValue(values ...Value) Value {
	if values == nil {
		values = []Value{}
	}
	return Value{Type: Array, Array: values}
}

func OKValue() Value {
	return SimpleStringValue("OK")
}

func PongValue() Value {
	return SimpleStringValue("PONG")
}

// Command encodes name and args as an array of bulk strings, the form clients
// use for requests.
func Command(name string, args ...string) Value {
	values := make([]Value, 0, len(args)+1)
	values = append(values, BulkStringValue(name))
	for _, arg := range args {
		values = append(values, BulkStringValue(arg))
	}
	return ArrayValue(values...)
}
