// Package services contains server-side business logic. This file implements
// AccountService, which reconciles first-time logins (activation against the
// provisioner-set temporary password) with returning logins, and issues/
// refreshes JWTs plus server-stored refresh tokens.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mkrasovska/nutritrack/internal/common"
	"github.com/mkrasovska/nutritrack/internal/dbx"
	"github.com/mkrasovska/nutritrack/internal/server/auth"
	"github.com/mkrasovska/nutritrack/internal/server/config"
	"github.com/mkrasovska/nutritrack/internal/server/models"
	"github.com/mkrasovska/nutritrack/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AccountService provides authentication-related operations:
// - SignIn: first-login activation or returning-login credential check
// - RefreshToken: rotate refresh tokens and mint new access tokens
// - SignOut: revoke a refresh token
type AccountService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

// NewAccountService constructs an AccountService using repositories and server config.
func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *AccountService {
	return &AccountService{
		db:                           db,
		repomanager:                  m,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// SignIn authenticates email/password. When a credential registration already
// exists the password is checked against it (returning login). Otherwise the
// account metadata's temporary password selects the first-login path: on
// match, the credential registration is created, the account is marked
// verified, and the temporary password is cleared — all in one transaction.
//
// Error mapping: unknown email → common.ErrorMissingUser; wrong password →
// common.ErrorInvalidCredentials; an account in a shape that cannot be
// signed in (verified but without registration, or unverified without a
// temporary password) → common.ErrorMissingData.
func (s *AccountService) SignIn(ctx context.Context, email string, password []byte) (*TokenPair, *auth.Identity, error) {
	accountRepo := s.repomanager.Accounts(s.db)

	account, err := accountRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrorMissingUser
		}
		return nil, nil, common.ErrorInternal
	}

	credRepo := s.repomanager.Credentials(s.db)

	cred, err := credRepo.GetByEmail(ctx, email)
	if err == nil {
		// Returning login: defer entirely to the stored registration.
		if bcrypt.CompareHashAndPassword(cred.PasswordHash, password) != nil {
			return nil, nil, common.ErrorInvalidCredentials
		}
		return s.finishSignIn(ctx, cred.UID, account)
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, nil, common.ErrorInternal
	}

	return s.activate(ctx, account, password)
}

// activate performs the first-login handshake against the temporary password.
func (s *AccountService) activate(ctx context.Context, account *models.Account, password []byte) (*TokenPair, *auth.Identity, error) {
	if account.Verified {
		// Verified but no registration: the activation update ran without
		// its credential insert. Surface as missing data, not a bad password.
		return nil, nil, common.ErrorMissingData
	}
	if account.TempPasswordHash == nil {
		return nil, nil, common.ErrorMissingData
	}

	if bcrypt.CompareHashAndPassword(account.TempPasswordHash, password) != nil {
		return nil, nil, common.ErrorInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword(password, bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, common.ErrorInternal
	}

	var uid string
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		cred, err := s.repomanager.Credentials(tx).Create(ctx, &models.Credential{
			Email:        account.Email,
			PasswordHash: hash,
		})
		if err != nil {
			return fmt.Errorf("error creating credential: %v", err)
		}
		uid = cred.UID

		if err := s.repomanager.Accounts(tx).Activate(ctx, account.Email); err != nil {
			return fmt.Errorf("error activating account: %v", err)
		}
		return nil
	}); err != nil {
		return nil, nil, err
	}

	account.Verified = true
	account.TempPasswordHash = nil

	return s.finishSignIn(ctx, uid, account)
}

func (s *AccountService) finishSignIn(ctx context.Context, uid string, account *models.Account) (*TokenPair, *auth.Identity, error) {
	identity := &auth.Identity{UID: uid, Email: account.Email, Role: account.Role}

	pair, err := s.generateTokenPair(ctx, identity, s.db)
	if err != nil {
		return nil, nil, err
	}
	return pair, identity, nil
}

// Metadata returns the account metadata row for an email. Used by clients to
// observe the verified flag independently of sign-in.
func (s *AccountService) Metadata(ctx context.Context, email string) (*models.Account, error) {
	account, err := s.repomanager.Accounts(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorMissingUser
		}
		return nil, common.ErrorInternal
	}
	return account, nil
}

// RefreshToken validates a refresh token, rotates it transactionally, and
// returns a fresh TokenPair. Expired tokens yield ErrRefreshTokenExpired.
func (s *AccountService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, *auth.Identity, error) {
	repo := s.repomanager.RefreshTokens(s.db)

	token, err := repo.Find(ctx, refreshToken)
	if err != nil {
		return nil, nil, fmt.Errorf("error searching refresh token: %v", err)
	}
	if token.Expires.Before(time.Now()) {
		return nil, nil, common.ErrRefreshTokenExpired
	}

	cred, err := s.repomanager.Credentials(s.db).GetByUID(ctx, token.UID)
	if err != nil {
		return nil, nil, common.ErrorInternal
	}
	account, err := s.repomanager.Accounts(s.db).GetByEmail(ctx, cred.Email)
	if err != nil {
		return nil, nil, common.ErrorInternal
	}

	identity := &auth.Identity{UID: cred.UID, Email: cred.Email, Role: account.Role}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repomanager.RefreshTokens(tx)
		if err := repoTx.Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %v", err)
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, identity, tx)
		return genErr
	}); err != nil {
		return nil, nil, err
	}
	return pair, identity, nil
}

// SignOut revokes the given refresh token.
func (s *AccountService) SignOut(ctx context.Context, refreshToken string) error {
	repo := s.repomanager.RefreshTokens(s.db)
	if err := repo.Delete(ctx, refreshToken); err != nil {
		return fmt.Errorf("error deleting refresh token: %v", err)
	}
	return nil
}

// --- helpers below ---

func (s *AccountService) generateAccessToken(identity *auth.Identity) (string, error) {
	return auth.GenerateToken(*identity, s.jwtSecret, s.accessTokenValidityDuration)
}

func (s *AccountService) generateRefreshToken() (string, error) {
	return common.MakeRandHexString(32)
}

func (s *AccountService) generateTokenPair(ctx context.Context, identity *auth.Identity, tx dbx.DBTX) (*TokenPair, error) {
	access, err := s.generateAccessToken(identity)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := s.generateRefreshToken()
	if err != nil {
		return nil, common.ErrorInternal
	}
	refreshRepo := s.repomanager.RefreshTokens(tx)
	if err := refreshRepo.Create(ctx, identity.UID, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, common.ErrorInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
