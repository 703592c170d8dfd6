package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/xyproto/env/v2"

	"github.com/lojhan/primehash/internal/client"
)

func main() {
	host := flag.String("host", env.Str("PRIMEHASH_HOST", "127.0.0.1"), "Server host")
	port := flag.String("port", env.Str("PRIMEHASH_PORT", "6380"), "Server port")
	timeout := flag.Duration("timeout", 5*time.Second, "Dial and reply timeout")
	flag.Parse()

	c, err := client.Dial(net.JoinHostPort(*host, *port), *timeout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer c.Close()

	if flag.NArg() > 0 {
		if err := run(c, flag.Args()); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	// Without arguments, read one command per line from stdin.
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if err := run(c, fields); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}

func run(c *client.Client, words []string) error {
	reply, err := c.Do(words[0], words[1:]...)
	if err != nil {
		return err
	}
	fmt.Println(client.Format(reply))
	return nil
}
