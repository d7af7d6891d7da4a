package cli

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/models"
	"github.com/dmitrijs2005/gophvault/internal/passgen"
)

// Add prompts for a new credential and stores it.
func (a *App) Add(ctx context.Context, args []string) error {
	service, err := GetSimpleText(a.reader, "Service", a.out)
	if err != nil {
		return err
	}
	if service == "" {
		a.println("Service must not be empty.")
		return common.E(common.KindInvalidArgument, "add", nil)
	}
	username, err := GetSimpleText(a.reader, "Username", a.out)
	if err != nil {
		return err
	}
	secret, err := a.password("Password")
	if err != nil {
		return err
	}
	defer wipe(secret)
	notes, err := GetSimpleText(a.reader, "Notes (optional)", a.out)
	if err != nil {
		return err
	}

	id, err := a.vault.AddCredential(ctx, service, username, secret, notes)
	if err != nil {
		a.println("Error:", err)
		return err
	}
	a.printf("Added credential with id %d\n", id)
	return nil
}

// Get shows one credential including its decrypted password.
func (a *App) Get(ctx context.Context, args []string) error {
	id, err := a.idArg(args, "Enter record id to show")
	if err != nil {
		return err
	}
	c, err := a.vault.GetCredential(ctx, id)
	if err != nil {
		a.reportRecordError(err)
		return err
	}
	secret, err := a.vault.RevealSecret(ctx, c)
	if err != nil {
		a.println("Decrypt failed:", err)
		return err
	}
	defer wipe(secret)

	a.println("-----")
	a.println("Service :", c.Service)
	a.println("Username:", c.Username)
	a.println("Notes   :", c.Notes)
	a.println("Created :", c.CreatedAt)
	a.println("Password:", string(secret))
	a.println("-----")
	return nil
}

// Search lists credentials whose service contains the given term.
func (a *App) Search(ctx context.Context, args []string) error {
	term := strings.Join(args, " ")
	if term == "" {
		var err error
		if term, err = GetSimpleText(a.reader, "Search service", a.out); err != nil {
			return err
		}
	}
	list, err := a.vault.SearchByService(ctx, term)
	if err != nil {
		a.println("Error:", err)
		return err
	}
	if len(list) == 0 {
		a.println("No matches.")
		return nil
	}
	a.printList(list)
	return nil
}

// List prints every credential, newest first.
func (a *App) List(ctx context.Context, args []string) error {
	list, err := a.vault.ListAll(ctx)
	if err != nil {
		a.println("Error:", err)
		return err
	}
	if len(list) == 0 {
		a.println("No credentials stored.")
		return nil
	}
	a.printList(list)
	return nil
}

// Update edits username, password or notes. Empty answers keep the
// current value.
func (a *App) Update(ctx context.Context, args []string) error {
	id, err := a.idArg(args, "Enter record id to update")
	if err != nil {
		return err
	}
	c, err := a.vault.GetCredential(ctx, id)
	if err != nil {
		a.reportRecordError(err)
		return err
	}

	var u models.CredentialUpdate
	username, err := GetSimpleText(a.reader, "New username (empty to keep '"+c.Username+"')", a.out)
	if err != nil {
		return err
	}
	if username != "" && username != c.Username {
		u.Username = &username
	}

	change, err := a.confirm("Change password?")
	if err != nil {
		return err
	}
	if change {
		if u.Secret, err = a.password("New password"); err != nil {
			return err
		}
		defer wipe(u.Secret)
	}

	notes, err := GetSimpleText(a.reader, "New notes (empty to keep)", a.out)
	if err != nil {
		return err
	}
	if notes != "" {
		u.Notes = &notes
	}

	if u.Empty() {
		a.println("Nothing to update.")
		return nil
	}
	if err := a.vault.UpdateCredential(ctx, id, u); err != nil {
		a.reportRecordError(err)
		return err
	}
	a.println("Updated.")
	return nil
}

// Delete removes a credential after an explicit YES.
func (a *App) Delete(ctx context.Context, args []string) error {
	id, err := a.idArg(args, "Enter record id to delete")
	if err != nil {
		return err
	}
	if _, err := a.vault.GetCredential(ctx, id); err != nil {
		a.reportRecordError(err)
		return err
	}
	answer, err := GetSimpleText(a.reader, "Type 'YES' to confirm deletion", a.out)
	if err != nil {
		return err
	}
	if answer != "YES" {
		a.println("Aborted.")
		return nil
	}
	if err := a.vault.DeleteCredential(ctx, id); err != nil {
		a.reportRecordError(err)
		return err
	}
	a.printf("Deleted id %d.\n", id)
	return nil
}

// Generate prints a random password. Usage: gen [length] [nosym].
func (a *App) Generate(ctx context.Context, args []string) error {
	length := a.genLength
	classes := passgen.All
	for _, arg := range args {
		if arg == "nosym" {
			classes &^= passgen.Symbols
			continue
		}
		n, err := strconv.Atoi(arg)
		if err != nil || n <= 0 {
			a.println("Usage: gen [length] [nosym]")
			return common.E(common.KindInvalidArgument, "gen", err)
		}
		length = n
	}

	pw, err := a.gen.Generate(length, classes)
	if err != nil {
		a.println("Generator error:", err)
		return err
	}
	a.println("Generated:", pw)
	a.println("Tip: paste this when adding a credential.")
	return nil
}

func (a *App) idArg(args []string, prompt string) (int64, error) {
	raw := ""
	if len(args) > 0 {
		raw = args[0]
	} else {
		var err error
		if raw, err = GetSimpleText(a.reader, prompt, a.out); err != nil {
			return 0, err
		}
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		a.println("Invalid id.")
		return 0, common.E(common.KindInvalidArgument, "parse id", err)
	}
	return id, nil
}

func (a *App) printList(list []models.Credential) {
	for _, c := range list {
		a.printf("  [%d] %s | %s | %s\n", c.ID, c.Service, c.Username, c.CreatedAt)
	}
}

func (a *App) reportRecordError(err error) {
	switch {
	case errors.Is(err, common.ErrNotFound):
		a.println("Not found.")
	case errors.Is(err, common.ErrAuthenticationFailure):
		a.println("Decrypt failed: record does not authenticate.")
	default:
		a.println("Error:", err)
	}
}
