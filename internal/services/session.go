// Package services contains the vault's business logic. This file implements
// Session, the explicit handle that owns the session key: login, lock and the
// state machine every other operation checks.
package services

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"sync"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/cryptox"
	"github.com/dmitrijs2005/gophvault/internal/dbx"
	"github.com/dmitrijs2005/gophvault/internal/logging"
	"github.com/dmitrijs2005/gophvault/internal/models"
	"github.com/dmitrijs2005/gophvault/internal/repositories/repomanager"
	"github.com/dmitrijs2005/gophvault/internal/timex"
	"github.com/google/uuid"
)

// State of a Session.
type State int

const (
	StateLocked State = iota
	StateAuthenticating
	StateUnlocked
	StateChangingMaster
)

func (s State) String() string {
	switch s {
	case StateLocked:
		return "locked"
	case StateAuthenticating:
		return "authenticating"
	case StateUnlocked:
		return "unlocked"
	case StateChangingMaster:
		return "changing_master"
	default:
		return "unknown"
	}
}

var (
	// ErrLocked is returned by credential operations while the session is not
	// unlocked. It carries common.KindAuthenticationFailure.
	ErrLocked = errors.New("vault is locked")

	// ErrPasswordMismatch is returned when a new password and its
	// confirmation differ.
	ErrPasswordMismatch = errors.New("passwords do not match")

	// ErrEmptyPassword is returned when a master password would be empty.
	ErrEmptyPassword = errors.New("password must not be empty")
)

// Session is one user's handle on an open vault. It holds the data key for as
// long as it is unlocked and serializes all operations.
//
// A Session is safe for concurrent use but runs one operation at a time.
type Session struct {
	mu sync.Mutex

	db          *sql.DB
	repomanager repomanager.RepositoryManager
	auth        *cryptox.Authenticator
	rand        io.Reader
	clock       timex.Clock
	baseLog     logging.Logger
	log         logging.Logger

	state  State
	cipher *cryptox.Cipher
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger. Defaults to logging.Nop.
func WithLogger(l logging.Logger) Option {
	return func(s *Session) { s.baseLog = l }
}

// WithRandom sets the source of salts and IVs. Defaults to crypto/rand.
func WithRandom(r io.Reader) Option {
	return func(s *Session) { s.rand = r }
}

// WithClock sets the clock that stamps created_at. Defaults to the system clock.
func WithClock(c timex.Clock) Option {
	return func(s *Session) { s.clock = c }
}

// NewSession returns a locked Session over db. db must already be migrated.
func NewSession(db *sql.DB, m repomanager.RepositoryManager, opts ...Option) *Session {
	s := &Session{
		db:          db,
		repomanager: m,
		clock:       timex.SystemClock(),
		baseLog:     logging.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	s.auth = cryptox.NewAuthenticator(s.rand)
	s.log = s.baseLog
	return s
}

// State reports the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsInitialized reports whether a master password has been set.
func (s *Session) IsInitialized(ctx context.Context) (bool, error) {
	m, err := s.repomanager.Settings(s.db).GetMaster(ctx)
	if err != nil {
		return false, wrapErr("is initialized", err)
	}
	return m != nil, nil
}

// Login authenticates password and unlocks the session. On a vault without a
// master record it performs first-run setup with password as the new master
// password. A wrong password leaves the session in StateAuthenticating.
//
// password is zeroed before Login returns.
func (s *Session) Login(ctx context.Context, password []byte) error {
	defer common.WipeByteArray(password)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lockLocked()
	s.state = StateAuthenticating

	key, err := s.authenticate(ctx, password)
	if err != nil {
		s.log.Warn(ctx, "login failed", "kind", common.KindOf(err).String())
		return err
	}

	c, err := cryptox.NewCipher(key, s.rand)
	if err != nil {
		common.WipeByteArray(key)
		return wrapErr("login", err)
	}
	s.unlock(ctx, c)
	return nil
}

// authenticate returns the data key for password.
func (s *Session) authenticate(ctx context.Context, password []byte) ([]byte, error) {
	m, err := s.repomanager.Settings(s.db).GetMaster(ctx)
	if err != nil {
		return nil, wrapErr("login", err)
	}

	if m == nil {
		key, created, err := s.setup(ctx, password)
		if err != nil || created {
			return key, err
		}
		// Another writer initialised the vault first; verify against its record.
		if m, err = s.repomanager.Settings(s.db).GetMaster(ctx); err != nil {
			return nil, wrapErr("login", err)
		}
		if m == nil {
			return nil, common.E(common.KindStorage, "login", errors.New("master record vanished"))
		}
	}

	if !s.auth.Verify(password, cryptox.Proof(*m)) {
		return nil, common.E(common.KindAuthenticationFailure, "login", nil)
	}

	salt, err := s.kdfSalt(ctx)
	if err != nil {
		return nil, err
	}
	return cryptox.DeriveKey(password, salt)
}

// setup performs first-run initialisation. created is false when a master
// record appeared between the caller's check and the transaction.
func (s *Session) setup(ctx context.Context, password []byte) (key []byte, created bool, err error) {
	if len(password) == 0 {
		return nil, false, common.E(common.KindInvalidArgument, "login", ErrEmptyPassword)
	}

	proof, err := s.auth.CreateProof(password)
	if err != nil {
		return nil, false, err
	}
	salt, err := cryptox.NewSalt(s.rand)
	if err != nil {
		return nil, false, err
	}

	err = dbx.WithTx(ctx, s.db, s.repomanager.TxOptions(), func(ctx context.Context, tx dbx.DBTX) error {
		settings := s.repomanager.Settings(tx)
		existing, err := settings.GetMaster(ctx)
		if err != nil || existing != nil {
			return err
		}
		if err := settings.SetMaster(ctx, models.MasterAuth(proof)); err != nil {
			return err
		}
		if err := settings.SetKDFSalt(ctx, salt); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, wrapErr("initialize vault", err)
	}
	if !created {
		return nil, false, nil
	}

	s.log.Info(ctx, "vault initialized")
	key, err = cryptox.DeriveKey(password, salt)
	return key, true, err
}

// kdfSalt loads the data-key salt, creating it inside a transaction when an
// older vault has none yet.
func (s *Session) kdfSalt(ctx context.Context) ([]byte, error) {
	salt, err := s.repomanager.Settings(s.db).GetKDFSalt(ctx)
	if err != nil {
		return nil, wrapErr("load kdf salt", err)
	}
	if salt != nil {
		return salt, nil
	}

	fresh, err := cryptox.NewSalt(s.rand)
	if err != nil {
		return nil, err
	}
	err = dbx.WithTx(ctx, s.db, s.repomanager.TxOptions(), func(ctx context.Context, tx dbx.DBTX) error {
		settings := s.repomanager.Settings(tx)
		current, err := settings.GetKDFSalt(ctx)
		if err != nil {
			return err
		}
		if current != nil {
			salt = current
			return nil
		}
		salt = fresh
		return settings.SetKDFSalt(ctx, fresh)
	})
	if err != nil {
		return nil, wrapErr("create kdf salt", err)
	}
	s.log.Info(ctx, "kdf salt created")
	return salt, nil
}

// Lock discards the session key and returns to StateLocked.
func (s *Session) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateUnlocked {
		s.log.Info(context.Background(), "session locked")
	}
	s.lockLocked()
}

func (s *Session) lockLocked() {
	if s.cipher != nil {
		s.cipher.Close()
		s.cipher = nil
	}
	s.state = StateLocked
	s.log = s.baseLog
}

// unlock installs c as the session cipher under a fresh correlation id.
func (s *Session) unlock(ctx context.Context, c *cryptox.Cipher) {
	if s.cipher != nil {
		s.cipher.Close()
	}
	s.cipher = c
	s.state = StateUnlocked
	s.log = s.baseLog.With("session", uuid.NewString())
	s.log.Info(ctx, "session unlocked")
}

func (s *Session) requireUnlocked(op string) error {
	if s.state != StateUnlocked || s.cipher == nil {
		return common.E(common.KindAuthenticationFailure, op, ErrLocked)
	}
	return nil
}

// wrapErr classifies err for callers. Errors that already carry a kind keep
// it; anything else is a storage failure.
func wrapErr(op string, err error) error {
	var e *common.Error
	if errors.As(err, &e) {
		return err
	}
	if k := common.KindOf(err); k != common.KindUnknown {
		return common.E(k, op, err)
	}
	return common.E(common.KindStorage, op, err)
}
