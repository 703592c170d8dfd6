package command

import (
	"errors"
	"strconv"

	"github.com/lojhan/primehash/internal/resp"
	"github.com/lojhan/primehash/internal/store"
)

func PutCommand(s *store.Store) Handler {
	return func(args []resp.Value) resp.Value {
		if len(args) != 2 {
			return wrongArgs("put")
		}
		kv, ok := bulkStrings(args)
		if !ok {
			return resp.ErrorValue("ERR invalid key or value type")
		}

		if s.Put(kv[0], kv[1]) {
			return resp.IntegerValue(1)
		}
		return resp.IntegerValue(0)
	}
}

func GetCommand(s *store.Store) Handler {
	return func(args []resp.Value) resp.Value {
		if len(args) != 1 {
			return wrongArgs("get")
		}
		if args[0].Type != resp.BulkString {
			return resp.ErrorValue("ERR invalid key type")
		}

		value, exists := s.Get(args[0].Str)
		if !exists {
			return resp.NullBulkStringValue()
		}
		return resp.BulkStringValue(value)
	}
}

func DelCommand(s *store.Store) Handler {
	return func(args []resp.Value) resp.Value {
		if len(args) == 0 {
			return wrongArgs("del")
		}
		keys, ok := bulkStrings(args)
		if !ok {
			return resp.ErrorValue("ERR invalid key type")
		}
		return resp.IntegerValue(int64(s.Delete(keys...)))
	}
}

func ExistsCommand(s *store.Store) Handler {
	return func(args []resp.Value) resp.Value {
		if len(args) == 0 {
			return wrongArgs("exists")
		}
		keys, ok := bulkStrings(args)
		if !ok {
			return resp.ErrorValue("ERR invalid key type")
		}
		return resp.IntegerValue(int64(s.Exists(keys...)))
	}
}

func LenCommand(s *store.Store) Handler {
	return func(args []resp.Value) resp.Value {
		if len(args) != 0 {
			return wrongArgs("len")
		}
		return resp.IntegerValue(int64(s.Len()))
	}
}

func CapacityCommand(s *store.Store) Handler {
	return func(args []resp.Value) resp.Value {
		if len(args) != 0 {
			return wrongArgs("capacity")
		}
		return resp.IntegerValue(int64(s.Stats().Capacity))
	}
}

func LoadFactorCommand(s *store.Store) Handler {
	return func(args []resp.Value) resp.Value {
		if len(args) != 0 {
			return wrongArgs("loadfactor")
		}
		return resp.BulkStringValue(strconv.FormatFloat(s.Stats().LoadFactor, 'f', 2, 64))
	}
}

func EmptySlotsCommand(s *store.Store) Handler {
	return func(args []resp.Value) resp.Value {
		if len(args) != 0 {
			return wrongArgs("emptyslots")
		}
		return resp.IntegerValue(int64(s.Stats().EmptySlots))
	}
}

func ResizeCommand(s *store.Store) Handler {
	return func(args []resp.Value) resp.Value {
		if len(args) != 1 {
			return wrongArgs("resize")
		}
		if args[0].Type != resp.BulkString {
			return resp.ErrorValue("ERR invalid capacity type")
		}

		capacity, err := strconv.Atoi(args[0].Str)
		if err != nil {
			return resp.ErrorValue("ERR value is not an integer or out of range")
		}
		switch err := s.Resize(capacity); {
		case errors.Is(err, store.ErrCapacityOutOfRange):
			return resp.ErrorValue("ERR capacity out of range")
		case err != nil:
			return resp.ErrorValue("ERR " + store.ErrResizeRejected.Error())
		}
		return resp.OKValue()
	}
}

func ClearCommand(s *store.Store) Handler {
	return func(args []resp.Value) resp.Value {
		if len(args) != 0 {
			return wrongArgs("clear")
		}
		s.Clear()
		return resp.OKValue()
	}
}

// EntriesCommand replies with a flat key, value, key, value... array in the
// table's enumeration order.
func EntriesCommand(s *store.Store) Handler {
	return func(args []resp.Value) resp.Value {
		if len(args) != 0 {
			return wrongArgs("entries")
		}

		entries := s.Entries()
		values := make([]resp.Value, 0, len(entries)*2)
		for _, e := range entries {
			values = append(values, resp.BulkStringValue(e.Key), resp.BulkStringValue(e.Value))
		}
		return resp.ArrayValue(values...)
	}
}

// ModeCommand replies with the frequency of the most common stored value
// followed by the array of values that reach it.
func ModeCommand(s *store.Store) Handler {
	return func(args []resp.Value) resp.Value {
		if len(args) != 0 {
			return wrongArgs("mode")
		}

		modes, frequency := s.Mode()
		values := make([]resp.Value, len(modes))
		for i, m := range modes {
			values[i] = resp.BulkStringValue(m)
		}
		return resp.ArrayValue(resp.IntegerValue(int64(frequency)), resp.ArrayValue(values...))
	}
}

type Registry interface {
	RegisterCommand(name string, handler Handler)
}

// Register installs every table command on r.
func Register(r Registry, s *store.Store, counters Counters) {
	r.RegisterCommand("PING", PingCommand)
	r.RegisterCommand("ECHO", EchoCommand)
	r.RegisterCommand("INFO", InfoCommand(s, counters))

	r.RegisterCommand("PUT", PutCommand(s))
	r.RegisterCommand("GET", GetCommand(s))
	r.RegisterCommand("DEL", DelCommand(s))
	r.RegisterCommand("EXISTS", ExistsCommand(s))
	r.RegisterCommand("LEN", LenCommand(s))
	r.RegisterCommand("CAPACITY", CapacityCommand(s))
	r.RegisterCommand("LOADFACTOR", LoadFactorCommand(s))
	r.RegisterCommand("EMPTYSLOTS", EmptySlotsCommand(s))
	r.RegisterCommand("RESIZE", ResizeCommand(s))
	r.RegisterCommand("CLEAR", ClearCommand(s))
	r.RegisterCommand("ENTRIES", EntriesCommand(s))
	r.RegisterCommand("MODE", ModeCommand(s))
}
