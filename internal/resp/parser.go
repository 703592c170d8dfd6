package resp

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
)

type Type byte

const (
	SimpleString Type = '+'
	Error        Type = '-'
	Integer      Type = ':'
	BulkString   Type = '$'
	Array        Type = '*'
)

// MaxBulkLength caps bulk strings and array lengths accepted from clients.
const MaxBulkLength = 512 * 1024 * 1024

var (
	ErrInvalidType   = errors.New("invalid RESP type")
	ErrInvalidFormat = errors.New("invalid RESP format")
	ErrTooLarge      = errors.New("RESP length exceeds limit")
	// ErrIncomplete is returned by Decode when buf ends before a full value.
	ErrIncomplete = errors.New("incomplete RESP value")
)

type Value struct {
	Type  Type
	Str   string
	Int   int64
	Array []Value
	Null  bool
}

type Parser struct {
	reader *bufio.Reader
	// avail, when set, reports how many input bytes remain. Bulk strings
	// longer than that fail with io.ErrUnexpectedEOF before any allocation.
	avail func() int
}

func NewParser(r io.Reader) *Parser {
	return &Parser{
		reader: bufio.NewReader(r),
	}
}

// Decode parses the first value in buf and returns it together with the
// number of bytes it occupied. A truncated value yields ErrIncomplete so the
// caller can wait for more input.
func Decode(buf []byte) (Value, int, error) {
	src := bytes.NewReader(buf)
	p := &Parser{reader: bufio.NewReaderSize(src, min(len(buf), 4096))}
	p.avail = func() int { return src.Len() + p.reader.Buffered() }

	v, err := p.Parse()
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Value{}, 0, ErrIncomplete
		}
		return Value{}, 0, err
	}
	return v, len(buf) - src.Len() - p.reader.Buffered(), nil
}

func (p *Parser) Parse() (Value, error) {
	typeByte, err := p.reader.ReadByte()
	if err != nil {
		return Value{}, err
	}

	switch Type(typeByte) {
	case SimpleString, Error:
		line, err := p.readLine()
		if err != nil {
			return Value{}, err
		}
		return Value{Type: Type(typeByte), Str: line}, nil
	case Integer:
		return p.parseInteger()
	case BulkString:
		return p.parseBulkString()
	case Array:
		return p.parseArray()
	default:
		return Value{}, fmt.Errorf("%w: %c", ErrInvalidType, typeByte)
	}
}

func (p *Parser) parseInteger() (Value, error) {
	line, err := p.readLine()
	if err != nil {
		return Value{}, err
	}

	num, err := strconv.ParseInt(line, 10, 64)
	if err != nil {
		return Value{}, fmt.Errorf("%w: invalid integer", ErrInvalidFormat)
	}

	return Value{Type: Integer, Int: num}, nil
}

func (p *Parser) readLength(what string) (int, error) {
	line, err := p.readLine()
	if err != nil {
		return 0, err
	}

	n, err := strconv.Atoi(line)
	if err != nil || n < -1 {
		return 0, fmt.Errorf("%w: invalid %s length", ErrInvalidFormat, what)
	}
	if n > MaxBulkLength {
		return 0, fmt.Errorf("%w: %s length %d", ErrTooLarge, what, n)
	}
	return n, nil
}

func (p *Parser) parseBulkString() (Value, error) {
	length, err := p.readLength("bulk string")
	if err != nil {
		return Value{}, err
	}

	if length == -1 {
		return Value{Type: BulkString, Null: true}, nil
	}

	if p.avail != nil && p.avail() < length+2 {
		return Value{}, io.ErrUnexpectedEOF
	}

	buf := make([]byte, length+2)
	if _, err := io.ReadFull(p.reader, buf); err != nil {
		return Value{}, err
	}
	if buf[length] != '\r' || buf[length+1] != '\n' {
		return Value{}, fmt.Errorf("%w: missing CRLF after bulk string", ErrInvalidFormat)
	}

	return Value{Type: BulkString, Str: string(buf[:length])}, nil
}

func (p *Parser) parseArray() (Value, error) {
	count, err := p.readLength("array")
	if err != nil {
		return Value{}, err
	}

	if count == -1 {
		return Value{Type: Array, Null: true}, nil
	}

	array := make([]Value, 0, min(count, 1024))
	for range count {
		val, err := p.Parse()
		if err != nil {
			return Value{}, err
		}
		array = append(array, val)
	}

	return Value{Type: Array, Array: array}, nil
}

func (p *Parser) readLine() (string, error) {
	line, err := p.reader.ReadString('\n')
	if err != nil {
		return "", err
	}

	if len(line) < 2 || line[len(line)-2] != '\r' {
		return "", fmt.Errorf("%w: missing CRLF", ErrInvalidFormat)
	}

	return line[:len(line)-2], nil
}
