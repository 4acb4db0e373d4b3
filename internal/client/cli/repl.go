package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for REPL output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. Arguments are
// the words typed after the command.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) error
	DeleteAccount(ctx context.Context) error
	Teams(ctx context.Context, args []string) error
	Team(ctx context.Context, args []string) error
	Member(ctx context.Context, args []string) error
}

const (
	guestHelp = "Available commands: register, login, whoami, exit"
	userHelp  = `Available commands:
  whoami                          show the signed-in user
  teams [member]                  list owned teams, or every team you are on
  team create                     create a team
  team show <id>                  show a team
  team rename <id>                change a team's name or description
  team delete <id>                delete a team
  member add <team-id> <email>    add a member
  member remove <team-id> <email> remove a member
  logout                          forget the stored session
  delete-account                  delete your account
  exit                            leave the program`
)

// runREPL reads commands from reader until EOF, "exit" or "quit".
// Commands that need a session are refused while signed out. Handlers
// report their own errors, so the returned values are dropped here.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("tk [%s] > ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(userHelp)
			} else {
				printlnFn(guestHelp)
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "whoami":
			_ = a.Whoami(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		case "logout", "delete-account", "teams", "team", "member":
			if !a.isLoggedIn() {
				printlnFn("Please log in first")
				continue
			}
			switch cmd {
			case "logout":
				_ = a.Logout(ctx)
			case "delete-account":
				_ = a.DeleteAccount(ctx)
			case "teams":
				_ = a.Teams(ctx, args)
			case "team":
				_ = a.Team(ctx, args)
			case "member":
				_ = a.Member(ctx, args)
			}

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
