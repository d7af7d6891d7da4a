package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/services"
	"github.com/nbutton23/zxcvbn-go"
)

// Login unlocks the vault. On the first run it asks for a new master password
// twice; otherwise for the existing one. Every attempt first waits on the
// login limiter.
func (a *App) Login(ctx context.Context) error {
	initialized, err := a.vault.IsInitialized(ctx)
	if err != nil {
		a.println("Error:", err)
		return err
	}

	if err := a.limiter.Wait(ctx); err != nil {
		a.log.Warn(ctx, "login throttled", "error", err)
		return err
	}
	a.log.Debug(ctx, "login attempt", "first_run", !initialized)

	if !initialized {
		return a.firstRun(ctx)
	}

	password, err := a.password("Master password")
	if err != nil {
		return err
	}
	if err := a.vault.Login(ctx, password); err != nil {
		a.reportLoginError(err)
		return err
	}
	a.println("Login successful.")
	return nil
}

func (a *App) firstRun(ctx context.Context) error {
	a.println("No master password found (first run).")

	password, err := a.newPassword()
	if err != nil {
		return err
	}
	if err := a.vault.Login(ctx, password); err != nil {
		a.reportLoginError(err)
		return err
	}
	a.println("Master password set. Vault unlocked.")
	return nil
}

// newPassword reads a new master password and its confirmation. The
// confirmation is wiped here; the caller owns the returned password.
func (a *App) newPassword() ([]byte, error) {
	first, err := a.password("New master password")
	if err != nil {
		return nil, err
	}
	second, err := a.password("Repeat master password")
	if err != nil {
		wipe(first)
		return nil, err
	}
	defer wipe(second)

	if len(first) == 0 {
		wipe(first)
		a.println("Empty password not allowed.")
		return nil, common.E(common.KindInvalidArgument, "new password", services.ErrEmptyPassword)
	}
	if string(first) != string(second) {
		wipe(first)
		a.println("Passwords do not match.")
		return nil, common.E(common.KindInvalidArgument, "new password", services.ErrPasswordMismatch)
	}
	a.println(strengthHint(first))
	return first, nil
}

// Lock discards the session key.
func (a *App) Lock(ctx context.Context) error {
	a.vault.Lock()
	a.println("Vault locked.")
	return nil
}

// ChangeMaster re-encrypts the vault under a new master password.
func (a *App) ChangeMaster(ctx context.Context) error {
	current, err := a.password("Current master password")
	if err != nil {
		return err
	}
	next, err := a.password("New master password")
	if err != nil {
		wipe(current)
		return err
	}
	confirm, err := a.password("Repeat new master password")
	if err != nil {
		wipe(current, next)
		return err
	}
	if len(next) > 0 {
		a.println(strengthHint(next))
	}

	if err := a.vault.ChangeMasterPassword(ctx, current, next, confirm); err != nil {
		a.log.Debug(ctx, "change master failed", "kind", common.KindOf(err).String())
		switch {
		case errors.Is(err, common.ErrTransactionAborted):
			a.println("Change failed, rolled back. Nothing was modified.")
		case errors.Is(err, services.ErrLocked):
			a.println("Vault is locked. Use 'login' first.")
		case errors.Is(err, services.ErrPasswordMismatch):
			a.println("Passwords do not match.")
		case errors.Is(err, services.ErrEmptyPassword):
			a.println("Empty password not allowed.")
		case errors.Is(err, common.ErrAuthenticationFailure):
			a.println("Current password incorrect. Aborting.")
		default:
			a.println("Error:", err)
		}
		return err
	}
	a.println("Master password changed. Re-encrypted all credentials.")
	return nil
}

func (a *App) reportLoginError(err error) {
	switch {
	case errors.Is(err, services.ErrEmptyPassword):
		a.println("Empty password not allowed.")
	case errors.Is(err, common.ErrAuthenticationFailure):
		a.println("Invalid master password.")
	default:
		a.println("Error:", err)
	}
}

// isRetryable reports whether a failed login should leave the console
// running so the user can try again.
func isRetryable(err error) bool {
	switch common.KindOf(err) {
	case common.KindAuthenticationFailure, common.KindInvalidArgument:
		return true
	}
	return false
}

var strengthLabels = [...]string{"very weak", "weak", "fair", "strong", "very strong"}

// strengthHint returns an advisory line about password strength. It never
// blocks the chosen password.
func strengthHint(password []byte) string {
	res := zxcvbn.PasswordStrength(string(password), nil)
	score := res.Score
	if score < 0 || score >= len(strengthLabels) {
		score = 0
	}
	return fmt.Sprintf("Password strength: %s (%d/4)", strengthLabels[score], score)
}

func wipe(bufs ...[]byte) {
	common.WipeAll(bufs...)
}
