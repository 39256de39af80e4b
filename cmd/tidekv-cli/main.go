package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tidekv/engine/internal/client"
	"github.com/tidekv/engine/internal/version"
)

// errServerReply marks a one-shot command answered with an error reply
var errServerReply = errors.New("server replied with an error")

func main() {
	err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr, isTerminal(os.Stdin))
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
	case errors.Is(err, errServerReply):
		os.Exit(1)
	default:
		fmt.Fprintf(os.Stderr, "tidekv-cli: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer, prompt bool) error {
	fs := flag.NewFlagSet("tidekv-cli", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", "127.0.0.1:6379", "Server address")
	timeout := fs.Duration("timeout", client.DefaultTimeout, "Per-request timeout")
	showVersion := fs.Bool("version", false, "Print version and exit")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: tidekv-cli [flags] [VERB args...]\n\n")
		fmt.Fprintf(stderr, "Without a verb, commands are read line by line from stdin.\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *showVersion {
		fmt.Fprintln(stdout, version.String())
		return nil
	}

	ctx := context.Background()
	c, err := client.Dial(ctx, *addr, client.WithTimeout(*timeout))
	if err != nil {
		return err
	}
	defer c.Close()

	if fs.NArg() > 0 {
		reply, err := c.Do(ctx, strings.Join(fs.Args(), " "))
		var serverErr *client.Error
		if errors.As(err, &serverErr) {
			fmt.Fprintln(stdout, reply)
			return errServerReply
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, reply)
		return nil
	}

	return repl(ctx, c, stdin, stdout, prompt)
}

// repl forwards stdin lines until EOF. Error replies are printed, not fatal.
func repl(ctx context.Context, c *client.Client, stdin io.Reader, stdout io.Writer, prompt bool) error {
	scanner := bufio.NewScanner(stdin)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)

	for {
		if prompt {
			fmt.Fprintf(stdout, "%s> ", c.Addr())
		}
		if !scanner.Scan() {
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "quit", "exit":
			return nil
		}

		reply, err := c.Do(ctx, line)
		var serverErr *client.Error
		if err != nil && !errors.As(err, &serverErr) {
			return err
		}
		fmt.Fprintln(stdout, reply)
	}
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
