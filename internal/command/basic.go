package command

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lojhan/primehash/internal/resp"
	"github.com/lojhan/primehash/internal/store"
)

type Handler func(args []resp.Value) resp.Value

// Counters reports server-level counters for INFO.
type Counters func() map[string]int64

func wrongArgs(name string) resp.Value {
	return resp.ErrorValue(fmt.Sprintf("ERR wrong number of arguments for '%s' command", strings.ToLower(name)))
}

// bulkStrings converts args to plain strings, rejecting anything that is not a
// bulk string.
func bulkStrings(args []resp.Value) ([]string, bool) {
	out := make([]string, len(args))
	for i, arg := range args {
		if arg.Type != resp.BulkString || arg.Null {
			return nil, false
		}
		out[i] = arg.Str
	}
	return out, true
}

func PingCommand(args []resp.Value) resp.Value {
	switch len(args) {
	case 0:
		return resp.PongValue()
	case 1:
		if args[0].Type != resp.BulkString {
			return resp.ErrorValue("ERR invalid argument type")
		}
		return args[0]
	default:
		return wrongArgs("ping")
	}
}

func EchoCommand(args []resp.Value) resp.Value {
	if len(args) != 1 {
		return wrongArgs("echo")
	}
	if args[0].Type != resp.BulkString {
		return resp.ErrorValue("ERR invalid argument type")
	}
	return args[0]
}

func InfoCommand(s *store.Store, counters Counters) Handler {
	return func(args []resp.Value) resp.Value {
		if len(args) > 0 {
			return wrongArgs("info")
		}

		stats := s.Stats()

		var b strings.Builder
		b.WriteString("# Table\r\n")
		fmt.Fprintf(&b, "strategy:%s\r\n", stats.Strategy)
		fmt.Fprintf(&b, "size:%d\r\n", stats.Size)
		fmt.Fprintf(&b, "capacity:%d\r\n", stats.Capacity)
		fmt.Fprintf(&b, "empty_slots:%d\r\n", stats.EmptySlots)
		fmt.Fprintf(&b, "load_factor:%.2f\r\n", stats.LoadFactor)

		if counters != nil {
			values := counters()
			names := make([]string, 0, len(values))
			for name := range values {
				names = append(names, name)
			}
			sort.Strings(names)

			b.WriteString("# Server\r\n")
			for _, name := range names {
				fmt.Fprintf(&b, "%s:%d\r\n", name, values[name])
			}
		}

		return resp.BulkStringValue(b.String())
	}
}
