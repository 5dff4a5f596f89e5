package forex

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type AuthService struct {
	accountRepository AccountRepository
	hasher            PasswordHasher
	sessionStore      SessionStore
	idService         IDService
	initialBalance    decimal.Decimal
	logger            Logger
}

func NewAuthService(
	accountRepository AccountRepository,
	hasher PasswordHasher,
	sessionStore SessionStore,
	idService IDService,
	initialBalance decimal.Decimal,
	logger Logger,
) *AuthService {
	return &AuthService{
		accountRepository: accountRepository,
		hasher:            hasher,
		sessionStore:      sessionStore,
		idService:         idService,
		initialBalance:    initialBalance,
		logger:            logger.WithField("component", "auth"),
	}
}

func (as *AuthService) Register(
	ctx context.Context,
	username string,
	password string,
) (*Account, error) {
	if len(strings.TrimSpace(username)) == 0 {
		return nil, ErrInvalidUsername
	}

	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := as.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("could not hash password: [%w]", err)
	}

	account := &Account{
		Username:     username,
		PasswordHash: hash,
		Balance:      as.initialBalance,
		CreatedAt:    time.Now(),
	}

	if err := as.accountRepository.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, ErrDuplicateUsername) {
			return nil, err
		}

		return nil, fmt.Errorf(
			"could not create account [%v]: [%w]",
			username,
			err,
		)
	}

	as.logger.WithField("username", username).Infof("registered account")

	return account, nil
}

// Login verifies the credentials and remembers the identity in the session
// store. Unknown usernames and wrong passwords are indistinguishable.
func (as *AuthService) Login(
	ctx context.Context,
	username string,
	password string,
) (*Session, error) {
	account, err := as.accountRepository.Account(ctx, username)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}

		return nil, fmt.Errorf("could not get account: [%w]", err)
	}

	if err := as.hasher.Compare(account.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	return as.startSession(ctx, account.Username)
}

func (as *AuthService) Logout(ctx context.Context, session *Session) error {
	username, ok := session.Identity()
	if !ok {
		return ErrNotAuthenticated
	}

	session.invalidate()

	if err := as.sessionStore.Clear(ctx); err != nil {
		return fmt.Errorf("could not clear session store: [%w]", err)
	}

	as.logger.WithField("username", username).Infof("logged out")

	return nil
}

func (as *AuthService) CurrentIdentity(ctx context.Context) (string, bool, error) {
	return as.sessionStore.Load(ctx)
}

// RestoreIdentity resumes a session for a remembered username. The account
// must still exist.
func (as *AuthService) RestoreIdentity(
	ctx context.Context,
	username string,
) (*Session, error) {
	account, err := as.accountRepository.Account(ctx, username)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrNotAuthenticated
		}

		return nil, fmt.Errorf("could not get account: [%w]", err)
	}

	return as.startSession(ctx, account.Username)
}

func (as *AuthService) RestoreSession(ctx context.Context) (*Session, error) {
	username, ok, err := as.CurrentIdentity(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not load session store: [%w]", err)
	}

	if !ok {
		return nil, ErrNotAuthenticated
	}

	return as.RestoreIdentity(ctx, username)
}

func (as *AuthService) startSession(
	ctx context.Context,
	username string,
) (*Session, error) {
	if err := as.sessionStore.Save(ctx, username); err != nil {
		return nil, fmt.Errorf("could not save session: [%w]", err)
	}

	session := newSession(as.idService.NewID(), username)

	as.logger.WithField("username", username).Infof(
		"started session [%v]",
		session.ID,
	)

	return session, nil
}
