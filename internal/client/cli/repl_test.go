package cli

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool
	calls    []string
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }

func (f *fakeExec) record(name string, args ...string) error {
	if len(args) > 0 {
		name += " " + strings.Join(args, " ")
	}
	f.calls = append(f.calls, name)
	return nil
}

func (f *fakeExec) Register(context.Context) error      { return f.record("register") }
func (f *fakeExec) Login(context.Context) error         { return f.record("login") }
func (f *fakeExec) Logout(context.Context) error        { return f.record("logout") }
func (f *fakeExec) Whoami(context.Context) error        { return f.record("whoami") }
func (f *fakeExec) DeleteAccount(context.Context) error { return f.record("delete-account") }
func (f *fakeExec) Teams(_ context.Context, args []string) error {
	return f.record("teams", args...)
}
func (f *fakeExec) Team(_ context.Context, args []string) error {
	return f.record("team", args...)
}
func (f *fakeExec) Member(_ context.Context, args []string) error {
	return f.record("member", args...)
}

func captureREPL(t *testing.T) *[]string {
	t.Helper()
	var out []string
	old := printlnFn
	printlnFn = func(a ...any) (int, error) {
		out = append(out, fmt.Sprint(a...))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = old })
	return &out
}

func TestRunREPL_Guest(t *testing.T) {
	out := captureREPL(t)
	f := &fakeExec{}

	runREPL(context.Background(), f, func() string { return "guest, online" },
		rdr("help\nregister\nlogin\nteams\nwhoami\nfoo\n\nexit\nlogin\n"))

	assert.Equal(t, []string{"register", "login", "whoami"}, f.calls)
	joined := strings.Join(*out, "\n")
	assert.Contains(t, joined, guestHelp)
	assert.Contains(t, joined, "Please log in first")
	assert.Contains(t, joined, "Unknown command:foo")
	assert.Contains(t, joined, "tk [guest, online] > ")
	assert.Equal(t, "Bye!", (*out)[len(*out)-1])
}

func TestRunREPL_LoggedIn(t *testing.T) {
	out := captureREPL(t)
	f := &fakeExec{loggedIn: true}

	runREPL(context.Background(), f, func() string { return "a@b.c, online" },
		rdr("help\nteams member\nteam show 42\nmember add 42 bob@example.com\nlogout\ndelete-account\nquit\n"))

	assert.Equal(t, []string{
		"teams member",
		"team show 42",
		"member add 42 bob@example.com",
		"logout",
		"delete-account",
	}, f.calls)
	assert.Contains(t, strings.Join(*out, "\n"), userHelp)
}

func TestRunREPL_StopsOnEOF(t *testing.T) {
	captureREPL(t)
	f := &fakeExec{loggedIn: true}

	runREPL(context.Background(), f, func() string { return "" }, rdr("teams"))

	assert.Equal(t, []string{"teams"}, f.calls)
}
