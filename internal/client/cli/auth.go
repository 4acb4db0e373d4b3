package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/teamkeeper/internal/client/services"
	"github.com/dmitrijs2005/teamkeeper/internal/common"
)

// getSimpleText and getPassword are indirections for tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
)

var errAborted = errors.New("aborted")

// stateError turns a failed transition into an error. The message itself
// has already been printed by onAuthEvent.
func stateError(st services.AuthState) error {
	if st.Status == services.StatusError {
		return errors.New(st.Error)
	}
	return nil
}

func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	return stateError(a.auth.Register(ctx, name, email, string(password)))
}

func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	return stateError(a.auth.Login(ctx, email, string(password)))
}

func (a *App) Logout(ctx context.Context) error {
	a.auth.Logout(ctx)
	return nil
}

func (a *App) Whoami(_ context.Context) error {
	st := a.auth.State()
	if !st.Authenticated() {
		a.println("Not logged in")
		return nil
	}
	a.println(fmt.Sprintf("%s <%s> (id %s)", st.User.Name, st.User.Email, st.User.ID))
	return nil
}

// DeleteAccount asks for confirmation and the password before deleting.
func (a *App) DeleteAccount(ctx context.Context) error {
	yes, err := Confirm(a.reader, "This permanently deletes your account and the teams you own. Continue?", a.out)
	if err != nil {
		return err
	}
	if !yes {
		a.println("Cancelled")
		return errAborted
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	return stateError(a.auth.DeleteAccount(ctx, string(password)))
}
