// Package cli implements the interactive console of the vault: prompts,
// hidden password entry, login throttling and the command loop that drives a
// services.Session.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/gophvault/internal/config"
	"github.com/dmitrijs2005/gophvault/internal/logging"
	"github.com/dmitrijs2005/gophvault/internal/models"
	"github.com/dmitrijs2005/gophvault/internal/passgen"
	"github.com/dmitrijs2005/gophvault/internal/services"
	"golang.org/x/time/rate"
)

// Vault is the session surface the console drives. *services.Session
// implements it.
type Vault interface {
	State() services.State
	IsInitialized(ctx context.Context) (bool, error)
	Login(ctx context.Context, password []byte) error
	Lock()
	AddCredential(ctx context.Context, service, username string, secret []byte, notes string) (int64, error)
	GetCredential(ctx context.Context, id int64) (*models.Credential, error)
	RevealSecret(ctx context.Context, c *models.Credential) ([]byte, error)
	SearchByService(ctx context.Context, term string) ([]models.Credential, error)
	ListAll(ctx context.Context) ([]models.Credential, error)
	UpdateCredential(ctx context.Context, id int64, u models.CredentialUpdate) error
	DeleteCredential(ctx context.Context, id int64) error
	ChangeMasterPassword(ctx context.Context, current, next, confirm []byte) error
}

var _ Vault = (*services.Session)(nil)

// App is the interactive console.
type App struct {
	vault     Vault
	reader    *bufio.Reader
	out       io.Writer
	log       logging.Logger
	limiter   *rate.Limiter
	gen       *passgen.Generator
	genLength int

	// password reads a secret after printing prompt. Defaults to hidden
	// terminal input, falling back to a plain line when stdin is not a tty.
	password func(prompt string) ([]byte, error)
}

// NewApp builds a console reading commands from in and writing to out.
func NewApp(v Vault, cfg *config.Config, in io.Reader, out io.Writer, log logging.Logger) *App {
	a := &App{
		vault:     v,
		reader:    bufio.NewReader(in),
		out:       out,
		log:       log,
		limiter:   newLoginLimiter(cfg.LoginRetryInterval, cfg.LoginBurst),
		gen:       passgen.New(nil),
		genLength: cfg.PasswordLength,
	}
	a.password = a.readSecret
	return a
}

func newLoginLimiter(interval time.Duration, burst int) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, burst)
	}
	return rate.NewLimiter(rate.Every(interval), burst)
}

// Run logs in and then serves commands until exit or end of input.
func (a *App) Run(ctx context.Context) error {
	a.println("Welcome to GophVault (type 'help' for commands)")

	if err := a.Login(ctx); err != nil && !isRetryable(err) {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	runREPL(ctx, a, a.status, a.reader, a.out)
	a.vault.Lock()
	return nil
}

func (a *App) status() string {
	return a.vault.State().String()
}

func (a *App) isUnlocked() bool {
	return a.vault.State() == services.StateUnlocked
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
