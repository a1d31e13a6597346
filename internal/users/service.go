package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/m4ssya/warehouse-backend/internal/sales"
	"github.com/m4ssya/warehouse-backend/pkg/auth"
	"github.com/m4ssya/warehouse-backend/pkg/auth/session"
	"github.com/m4ssya/warehouse-backend/pkg/config"
	"github.com/m4ssya/warehouse-backend/pkg/db"
	"github.com/m4ssya/warehouse-backend/pkg/db/models"
	"github.com/m4ssya/warehouse-backend/pkg/enums"
	pkgerrors "github.com/m4ssya/warehouse-backend/pkg/errors"
	"github.com/m4ssya/warehouse-backend/pkg/logger"
	"github.com/m4ssya/warehouse-backend/pkg/security"
)

const (
	loginAttemptLimit  = 10
	loginAttemptWindow = time.Minute
)

// RegisterInput carries the fields needed to open an account.
type RegisterInput struct {
	Username    string
	Email       *string
	DisplayName *string
	Password    string
	Role        enums.UserRole
}

// ProfileInput carries the self-service profile fields. Nil means unchanged.
type ProfileInput struct {
	Email       *string
	DisplayName *string
	Password    *string
}

// LoginResult is a successful authentication.
type LoginResult struct {
	User      *models.User
	Token     string
	SessionID string
}

type sessionManager interface {
	Start(ctx context.Context, sessionID, username string) error
	Revoke(ctx context.Context, sessionID string) error
}

type loginLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Service exposes account management and authentication.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Authenticate(ctx context.Context, login, password string) (*LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, input ProfileInput) (*models.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role enums.UserRole) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo     Repository
	sales    sales.Repository
	dbClient *db.Client
	sessions sessionManager
	limiter  loginLimiter
	jwtCfg   config.JWTConfig
	passCfg  config.PasswordConfig
	logg     *logger.Logger
}

// NewService constructs a users service instance. The limiter is optional;
// when nil, login throttling is disabled.
func NewService(repo Repository, salesRepo sales.Repository, dbClient *db.Client, sessions sessionManager, limiter loginLimiter, jwtCfg config.JWTConfig, passCfg config.PasswordConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if salesRepo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		sales:    salesRepo,
		dbClient: dbClient,
		sessions: sessions,
		limiter:  limiter,
		jwtCfg:   jwtCfg,
		passCfg:  passCfg,
		logg:     logg,
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}
	if len(input.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}
	role := input.Role
	if role == "" {
		role = enums.UserRoleUser
	}
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid role %q", input.Role))
	}

	hash, err := security.HashPassword(input.Password, s.passCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password")
	}

	user := &models.User{
		Username:     username,
		Email:        normalizeEmail(input.Email),
		DisplayName:  input.DisplayName,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("user %q already exists", username))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert user")
	}
	return user, nil
}

// Authenticate verifies credentials and opens a session. The login may be a
// username or an email address. The returned token carries the session ID as
// its jti, so revoking the session invalidates the token.
func (s *service) Authenticate(ctx context.Context, login, password string) (*LoginResult, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "login and password are required")
	}

	if s.limiter != nil {
		allowed, _, err := s.limiter.FixedWindowAllow(ctx, "login:"+strings.ToLower(login), loginAttemptLimit, loginAttemptWindow)
		if err != nil {
			s.logg.Error(ctx, "login rate limit check failed", err)
		} else if !allowed {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "too many login attempts, try again later")
		}
	}

	user, err := s.lookup(ctx, login)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account is disabled")
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verifying password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	now := time.Now().UTC()
	sessionID := session.NewSessionID()
	token, err := auth.MintAccessToken(s.jwtCfg, now, auth.AccessTokenPayload{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		JTI:      sessionID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting token")
	}

	if err := s.sessions.Start(ctx, sessionID, user.Username); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "starting session")
	}
	if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logg.Error(ctx, "failed to record last login", err)
	}

	return &LoginResult{User: user, Token: token, SessionID: sessionID}, nil
}

func (s *service) Logout(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoking session")
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load user")
	}
	return user, nil
}

func (s *service) List(ctx context.Context) ([]models.User, error) {
	return s.repo.List(ctx)
}

func (s *service) UpdateProfile(ctx context.Context, id uuid.UUID, input ProfileInput) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Email != nil {
		user.Email = normalizeEmail(input.Email)
	}
	if input.DisplayName != nil {
		user.DisplayName = input.DisplayName
	}
	if input.Password != nil {
		if len(*input.Password) < 8 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
		}
		hash, err := security.HashPassword(*input.Password, s.passCfg)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password")
		}
		user.PasswordHash = hash
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update user")
	}
	return user, nil
}

func (s *service) UpdateRole(ctx context.Context, id uuid.UUID, role enums.UserRole) error {
	if !role.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid role %q", role))
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.UpdateRole(ctx, id, role); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update role")
	}
	return nil
}

// Delete removes the account and its sale rows in one transaction. Movement
// history keeps the username and is left alone.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := s.sales.WithTx(tx).DeleteByUsername(ctx, user.Username); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete user sales")
		}
		if err := txRepo.Delete(ctx, user.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete user")
		}
		return nil
	})
}

func (s *service) lookup(ctx context.Context, login string) (*models.User, error) {
	user, err := s.repo.FindByUsername(ctx, login)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load user")
	}
	if strings.Contains(login, "@") {
		user, err = s.repo.FindByEmail(ctx, strings.ToLower(login))
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load user")
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
}

func normalizeEmail(email *string) *string {
	if email == nil {
		return nil
	}
	trimmed := strings.ToLower(strings.TrimSpace(*email))
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
