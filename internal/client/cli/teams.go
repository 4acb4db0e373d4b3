package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/teamkeeper/internal/client/models"
	"github.com/dmitrijs2005/teamkeeper/internal/client/services"
)

var errUsage = errors.New("usage")

func (a *App) usage(text string) error {
	a.println("Usage:", text)
	return errUsage
}

// report prints the message for a failed team call.
func (a *App) report(err error) error {
	a.println("Error:", services.ErrorMessage(err))
	return err
}

func (a *App) userID() string {
	if u := a.auth.State().User; u != nil {
		return u.ID
	}
	return ""
}

func (a *App) printTeam(t *models.Team) {
	a.println(fmt.Sprintf("%s  %s (%s)", t.ID, t.Name, t.RoleOf(a.userID())))
	if t.Description != "" {
		a.println("  " + t.Description)
	}
	a.println(fmt.Sprintf("  owner: %s", t.OwnerID))
	if len(t.Admins) > 0 {
		a.println("  admins: " + strings.Join(t.Admins, ", "))
	}
	a.println(fmt.Sprintf("  members (%d): %s", len(t.Members), strings.Join(t.Members, ", ")))
}

// Teams lists owned teams, or every membership with "member".
func (a *App) Teams(ctx context.Context, args []string) error {
	memberships := false
	switch {
	case len(args) == 0:
	case len(args) == 1 && args[0] == "member":
		memberships = true
	default:
		return a.usage("teams [member]")
	}

	teams, err := a.teams.Fetch(ctx, memberships)
	if err != nil {
		return a.report(err)
	}
	if len(teams) == 0 {
		a.println("No teams")
		return nil
	}
	for _, t := range teams {
		a.println(fmt.Sprintf("%s  %-20s %-6s %d member(s)", t.ID, t.Name, t.RoleOf(a.userID()), len(t.Members)))
	}
	return nil
}

func (a *App) Team(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return a.usage("team create | show <id> | rename <id> | delete <id>")
	}
	sub, rest := args[0], args[1:]

	if sub == "create" {
		return a.teamCreate(ctx)
	}
	if len(rest) != 1 {
		return a.usage("team " + sub + " <id>")
	}
	id := rest[0]

	switch sub {
	case "show":
		return a.teamShow(ctx, id)
	case "rename":
		return a.teamRename(ctx, id)
	case "delete":
		return a.teamDelete(ctx, id)
	default:
		return a.usage("team create | show <id> | rename <id> | delete <id>")
	}
}

func (a *App) teamCreate(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Team name", a.out)
	if err != nil {
		return err
	}
	desc, err := getSimpleText(a.reader, "Description", a.out)
	if err != nil {
		return err
	}

	team, err := a.teams.Create(ctx, name, desc)
	if err != nil {
		return a.report(err)
	}
	a.println("Team successfully created!")
	a.printTeam(team)
	return nil
}

func (a *App) teamShow(ctx context.Context, id string) error {
	team, err := a.teams.Get(ctx, id)
	if err != nil {
		return a.report(err)
	}
	a.printTeam(team)
	return nil
}

func (a *App) teamRename(ctx context.Context, id string) error {
	name, nameSet, err := GetOptionalText(a.reader, "New name", a.out)
	if err != nil {
		return err
	}
	desc, descSet, err := GetOptionalText(a.reader, "New description", a.out)
	if err != nil {
		return err
	}
	if !nameSet && !descSet {
		a.println("Nothing to change")
		return nil
	}

	var namePtr, descPtr *string
	if nameSet {
		namePtr = &name
	}
	if descSet {
		descPtr = &desc
	}

	team, err := a.teams.Update(ctx, id, namePtr, descPtr)
	if err != nil {
		return a.report(err)
	}
	a.println("Team updated!")
	a.printTeam(team)
	return nil
}

func (a *App) teamDelete(ctx context.Context, id string) error {
	yes, err := Confirm(a.reader, "Delete team "+id+"?", a.out)
	if err != nil {
		return err
	}
	if !yes {
		a.println("Cancelled")
		return errAborted
	}

	if err := a.teams.Delete(ctx, id); err != nil {
		return a.report(err)
	}
	a.println("Team successfully deleted!")
	return nil
}

func (a *App) Member(ctx context.Context, args []string) error {
	if len(args) != 3 || (args[0] != "add" && args[0] != "remove") {
		return a.usage("member add|remove <team-id> <email>")
	}
	id, email := args[1], args[2]

	if args[0] == "add" {
		team, err := a.teams.AddMember(ctx, id, email)
		if err != nil {
			return a.report(err)
		}
		a.println("Member successfully added!")
		a.printTeam(team)
		return nil
	}

	team, notice, err := a.teams.RemoveMember(ctx, id, email)
	if err != nil {
		return a.report(err)
	}
	if notice != "" {
		a.println(notice)
	}
	if team != nil {
		a.printTeam(team)
	}
	return nil
}
