// Package client is a minimal RESP client for primehash servers.
package client

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/lojhan/primehash/internal/resp"
)

// Client sends commands over one connection. Send buffers requests so several
// can be pipelined before a Flush; replies are read back in order with Receive.
// A Client is not safe for concurrent use.
type Client struct {
	conn       net.Conn
	writer     *bufio.Writer
	serializer *resp.Serializer
	parser     *resp.Parser
	timeout    time.Duration
}

func Dial(addr string, timeout time.Duration) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	c := New(conn)
	c.timeout = timeout
	return c, nil
}

// New wraps an established connection.
func New(conn net.Conn) *Client {
	writer := bufio.NewWriter(conn)
	return &Client{
		conn:       conn,
		writer:     writer,
		serializer: resp.NewSerializer(writer),
		parser:     resp.NewParser(conn),
	}
}

func (c *Client) Send(name string, args ...string) error {
	return c.serializer.Serialize(resp.Command(name, args...))
}

func (c *Client) Flush() error {
	if err := c.extendDeadline(); err != nil {
		return err
	}
	return c.writer.Flush()
}

func (c *Client) Receive() (resp.Value, error) {
	if err := c.extendDeadline(); err != nil {
		return resp.Value{}, err
	}
	return c.parser.Parse()
}

// Do sends one command and waits for its reply. Error replies are returned as
// values, not as errors.
func (c *Client) Do(name string, args ...string) (resp.Value, error) {
	if err := c.Send(name, args...); err != nil {
		return resp.Value{}, err
	}
	if err := c.Flush(); err != nil {
		return resp.Value{}, err
	}
	return c.Receive()
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) extendDeadline() error {
	if c.timeout <= 0 {
		return nil
	}
	return c.conn.SetDeadline(time.Now().Add(c.timeout))
}

// Format renders a reply the way an interactive client prints it.
func Format(v resp.Value) string {
	var b strings.Builder
	format(&b, v, "")
	return b.String()
}

func format(b *strings.Builder, v resp.Value, indent string) {
	switch v.Type {
	case resp.SimpleString:
		b.WriteString(v.Str)
	case resp.Error:
		b.WriteString("(error) " + v.Str)
	case resp.Integer:
		b.WriteString("(integer) " + strconv.FormatInt(v.Int, 10))
	case resp.BulkString:
		if v.Null {
			b.WriteString("(nil)")
			return
		}
		b.WriteString(strconv.Quote(v.Str))
	case resp.Array:
		if v.Null {
			b.WriteString("(nil)")
			return
		}
		if len(v.Array) == 0 {
			b.WriteString("(empty array)")
			return
		}
		for i, elem := range v.Array {
			if i > 0 {
				b.WriteString("\n" + indent)
			}
			label := strconv.Itoa(i+1) + ") "
			b.WriteString(label)
			format(b, elem, indent+strings.Repeat(" ", len(label)))
		}
	default:
		fmt.Fprintf(b, "(unknown type %q)", byte(v.Type))
	}
}
