package resp

import (
	"errors"
	"runtime"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Value
		wantErr  error
	}{
		{
			name:     "simple string",
			input:    "+OK\r\n",
			expected: Value{Type: SimpleString, Str: "OK"},
		},
		{
			name:     "empty simple string",
			input:    "+\r\n",
			expected: Value{Type: SimpleString, Str: ""},
		},
		{
			name:     "error",
			input:    "-ERR unknown command 'FOO'\r\n",
			expected: Value{Type: Error, Str: "ERR unknown command 'FOO'"},
		},
		{
			name:     "negative integer",
			input:    ":-42\r\n",
			expected: Value{Type: Integer, Int: -42},
		},
		{
			name:    "invalid integer",
			input:   ":abc\r\n",
			wantErr: ErrInvalidFormat,
		},
		{
			name:     "bulk string",
			input:    "$5\r\nhello\r\n",
			expected: Value{Type: BulkString, Str: "hello"},
		},
		{
			name:     "empty bulk string",
			input:    "$0\r\n\r\n",
			expected: Value{Type: BulkString, Str: ""},
		},
		{
			name:     "null bulk string",
			input:    "$-1\r\n",
			expected: Value{Type: BulkString, Null: true},
		},
		{
			name:     "binary-safe bulk string",
			input:    "$11\r\nkey\r\n\x00value\r\n",
			expected: Value{Type: BulkString, Str: "key\r\n\x00value"},
		},
		{
			name:    "bulk string without trailing CRLF",
			input:   "$3\r\nabcde",
			wantErr: ErrInvalidFormat,
		},
		{
			name:    "negative bulk length",
			input:   "$-2\r\n",
			wantErr: ErrInvalidFormat,
		},
		{
			name:    "oversized bulk length",
			input:   "$999999999999\r\n",
			wantErr: ErrTooLarge,
		},
		{
			name:    "line without carriage return",
			input:   "+OK\n",
			wantErr: ErrInvalidFormat,
		},
		{
			name:    "unknown type",
			input:   "!oops\r\n",
			wantErr: ErrInvalidType,
		},
		{
			name:     "null array",
			input:    "*-1\r\n",
			expected: Value{Type: Array, Null: true},
		},
		{
			name:     "empty array",
			input:    "*0\r\n",
			expected: Value{Type: Array, Array: []Value{}},
		},
		{
			name:  "put command",
			input: "*3\r\n$3\r\nPUT\r\n$4\r\nkey1\r\n$2\r\n10\r\n",
			expected: Value{
				Type: Array,
				Array: []Value{
					{Type: BulkString, Str: "PUT"},
					{Type: BulkString, Str: "key1"},
					{Type: BulkString, Str: "10"},
				},
			},
		},
		{
			name:  "nested array with mixed types",
			input: "*2\r\n:3\r\n*2\r\n$5\r\napple\r\n$5\r\ngrape\r\n",
			expected: Value{
				Type: Array,
				Array: []Value{
					{Type: Integer, Int: 3},
					{
						Type: Array,
						Array: []Value{
							{Type: BulkString, Str: "apple"},
							{Type: BulkString, Str: "grape"},
						},
					},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := NewParser(strings.NewReader(tt.input))
			got, err := parser.Parse()

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Parse() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if !valuesEqual(got, tt.expected) {
				t.Errorf("Parse() = %+v, want %+v", got, tt.expected)
			}
		})
	}
}

func TestParseSequentialValues(t *testing.T) {
	parser := NewParser(strings.NewReader("+OK\r\n:7\r\n$-1\r\n"))

	expected := []Value{
		{Type: SimpleString, Str: "OK"},
		{Type: Integer, Int: 7},
		{Type: BulkString, Null: true},
	}
	for i, want := range expected {
		got, err := parser.Parse()
		if err != nil {
			t.Fatalf("value %d: Parse() error = %v", i, err)
		}
		if !valuesEqual(got, want) {
			t.Errorf("value %d: Parse() = %+v, want %+v", i, got, want)
		}
	}
}

func TestDecode(t *testing.T) {
	frame := "*2\r\n$3\r\nGET\r\n$4\r\nkey1\r\n"
	buf := []byte(frame + "*1\r\n$4\r\nPING\r\n")

	v, n, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if n != len(frame) {
		t.Errorf("Expected %d bytes consumed, got %d", len(frame), n)
	}
	if !valuesEqual(v, Command("GET", "key1")) {
		t.Errorf("Decode() = %+v, want GET key1", v)
	}

	v, m, err := Decode(buf[n:])
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if n+m != len(buf) {
		t.Errorf("Expected the second frame to end the buffer, consumed %d of %d", n+m, len(buf))
	}
	if !valuesEqual(v, Command("PING")) {
		t.Errorf("Decode() = %+v, want PING", v)
	}
}

func TestDecodeIncomplete(t *testing.T) {
	frame := "*3\r\n$3\r\nPUT\r\n$4\r\nkey1\r\n$2\r\n10\r\n"

	for cut := 0; cut < len(frame); cut++ {
		_, n, err := Decode([]byte(frame[:cut]))
		if !errors.Is(err, ErrIncomplete) {
			t.Fatalf("cut %d: expected ErrIncomplete, got %v", cut, err)
		}
		if n != 0 {
			t.Fatalf("cut %d: expected nothing consumed, got %d", cut, n)
		}
	}

	if _, n, err := Decode([]byte(frame)); err != nil || n != len(frame) {
		t.Errorf("Expected full frame to decode, got n=%d err=%v", n, err)
	}
}

func TestDecodePartialFrameSkipsDeclaredAllocation(t *testing.T) {
	partial := []byte("*3\r\n$3\r\nPUT\r\n$3\r\nkey\r\n$536870912\r\nabc")

	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	for i := 0; i < 4; i++ {
		if _, _, err := Decode(partial); !errors.Is(err, ErrIncomplete) {
			t.Fatalf("Expected ErrIncomplete, got %v", err)
		}
	}
	runtime.ReadMemStats(&after)

	if allocated := after.TotalAlloc - before.TotalAlloc; allocated > 1<<20 {
		t.Errorf("Expected partial frames to allocate little, got %d bytes", allocated)
	}
}

func TestDecodeMalformed(t *testing.T) {
	_, _, err := Decode([]byte("?what\r\n"))
	if !errors.Is(err, ErrInvalidType) {
		t.Errorf("Expected ErrInvalidType, got %v", err)
	}
}

func valuesEqual(a, b Value) bool {
	if a.Type != b.Type || a.Null != b.Null {
		return false
	}

	switch a.Type {
	case SimpleString, Error, BulkString:
		return a.Str == b.Str
	case Integer:
		return a.Int == b.Int
	case Array:
		if len(a.Array) != len(b.Array) {
			return false
		}
		for i := range a.Array {
			if !valuesEqual(a.Array[i], b.Array[i]) {
				return false
			}
		}
		return true
	}
	return false
}
