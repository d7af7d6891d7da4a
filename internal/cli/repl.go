package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// execIface is the command surface the REPL dispatches to. App satisfies it;
// tests provide a lightweight stub.
type execIface interface {
	isUnlocked() bool
	Login(ctx context.Context) error
	Lock(ctx context.Context) error
	Add(ctx context.Context, args []string) error
	Get(ctx context.Context, args []string) error
	Search(ctx context.Context, args []string) error
	List(ctx context.Context, args []string) error
	Update(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	ChangeMaster(ctx context.Context) error
	Generate(ctx context.Context, args []string) error
}

var needsUnlock = map[string]bool{
	"add": true, "get": true, "show": true, "search": true, "l": true, "list": true,
	"update": true, "delete": true, "passwd": true, "lock": true,
}

const (
	helpLocked   = "Available commands: login, gen, help, exit"
	helpUnlocked = "Available commands: add, get <id>, search <term>, (l)ist, update <id>, delete <id>, passwd, gen [length] [nosym], lock, help, exit"
)

// runREPL reads one command per line from reader and dispatches it to a.
//
// Commands that need an unlocked vault are refused while locked. Errors from
// handlers are not fatal: handlers report them to the user themselves. The
// loop ends on "exit"/"quit", end of input, or context cancellation.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		if ctx.Err() != nil {
			return
		}
		fmt.Fprintf(w, "vault (%s)> ", statusFn())
		line, err := readLine(reader)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				fmt.Fprintln(w, "Error:", err)
			}
			fmt.Fprintln(w)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if needsUnlock[cmd] && !a.isUnlocked() {
			fmt.Fprintln(w, "Vault is locked. Use 'login' first.")
			continue
		}

		switch cmd {
		case "help":
			if a.isUnlocked() {
				fmt.Fprintln(w, helpUnlocked)
			} else {
				fmt.Fprintln(w, helpLocked)
			}
		case "login":
			_ = a.Login(ctx)
		case "gen":
			_ = a.Generate(ctx, args)
		case "add":
			_ = a.Add(ctx, args)
		case "get", "show":
			_ = a.Get(ctx, args)
		case "search":
			_ = a.Search(ctx, args)
		case "l", "list":
			_ = a.List(ctx, args)
		case "update":
			_ = a.Update(ctx, args)
		case "delete":
			_ = a.Delete(ctx, args)
		case "passwd":
			_ = a.ChangeMaster(ctx)
		case "lock":
			_ = a.Lock(ctx)
		case "exit", "quit", "q":
			fmt.Fprintln(w, "Bye!")
			return
		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}
	}
}
