package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"movietracker/proj/internal/domain/models"
	"movietracker/proj/internal/events"
	"movietracker/proj/internal/storage"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type MailProvider interface {
	Send(recipient string, tmplName string, tmplData any) error
}

type UsersStorage interface {
	Insert(ctx context.Context, user *models.User) error
	Get(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
}

type TaskExecutor interface {
	Add(task func())
}

type EventPublisher interface {
	Publish(ctx context.Context, name string, payload any)
}

type AuthService struct {
	log          *slog.Logger
	Mailer       MailProvider
	storage      UsersStorage
	tokens       *TokenProvider
	taskExecutor TaskExecutor
	events       EventPublisher
	bcryptCost   int
}

func New(
	log *slog.Logger,
	mailer MailProvider,
	storage UsersStorage,
	tokens *TokenProvider,
	taskExecutor TaskExecutor,
	publisher EventPublisher,
) *AuthService {
	return &AuthService{
		log:          log,
		Mailer:       mailer,
		storage:      storage,
		tokens:       tokens,
		taskExecutor: taskExecutor,
		events:       publisher,
		bcryptCost:   bcrypt.DefaultCost,
	}
}

// WithBcryptCost is meant for tests, where the default cost is needlessly slow.
func (a *AuthService) WithBcryptCost(cost int) *AuthService {
	a.bcryptCost = cost
	return a
}

func (a *AuthService) sendWelcomeEmail(user *models.User) {
	a.log.Info("sending welcome email", "user_id", user.ID)
	err := a.Mailer.Send(
		user.Email,
		"user_welcome.html",
		map[string]any{
			"username": user.Username,
			"userID":   user.ID,
		})
	if err != nil {
		a.log.Error("Error sending welcome email", "errMsg", err.Error())
	}
}

// bcrypt rejects longer passwords; validation tags count runes, not bytes.
const maxPasswordBytes = 72

func (a *AuthService) createUser(ctx context.Context, email, username, password, role string) (*models.User, error) {
	if len(password) > maxPasswordBytes {
		return nil, ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		Username:     username,
		Email:        strings.ToLower(email),
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if err := a.storage.Insert(ctx, user); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}
	return user, nil
}

func (a *AuthService) Signup(ctx context.Context, email, username, password string) (*models.User, error) {
	const op = "auth.AuthService.Signup"
	log := a.log.With("op", op, "email", email, "username", username)
	user, err := a.createUser(ctx, email, username, password, models.RoleUser)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserAlreadyExists):
			log.Info("user already exists")
		case errors.Is(err, ErrPasswordTooLong):
			log.Info("password too long")
		default:
			log.Error("Error creating user", "errMsg", err.Error())
		}
		return nil, err
	}
	if a.Mailer != nil && a.taskExecutor != nil {
		a.taskExecutor.Add(func() {
			a.sendWelcomeEmail(user)
		})
	}
	if a.events != nil {
		a.events.Publish(ctx, events.UserRegistered, map[string]any{"user_id": user.ID, "username": user.Username})
	}
	return user, nil
}

func (a *AuthService) Login(ctx context.Context, username, password string) (*models.AuthTokens, error) {
	const op = "auth.AuthService.Login"
	log := a.log.With("op", op, "username", username)
	user, err := a.storage.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("user not found")
			return nil, ErrInvalidCredentials
		}
		log.Error("Error getting user", "errMsg", err.Error())
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		log.Info("password mismatch")
		return nil, ErrInvalidCredentials
	}
	if err := a.storage.UpdateLastLogin(ctx, user.ID, time.Now().UTC()); err != nil {
		log.Error("Error updating last login", "errMsg", err.Error())
		return nil, err
	}
	token, err := a.tokens.NewAccessToken(user.ID, user.Role)
	if err != nil {
		log.Error("Error issuing token", "errMsg", err.Error())
		return nil, err
	}
	return &models.AuthTokens{AccessToken: token, TokenType: TokenType}, nil
}

func (a *AuthService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := a.storage.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// VerifyToken returns the id of the user the token was issued to.
func (a *AuthService) VerifyToken(token string) (int64, error) {
	claims, err := a.tokens.Parse(token)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}

// EnsureAdmin creates the administrator account unless a user with that name exists.
func (a *AuthService) EnsureAdmin(ctx context.Context, username, email, password string) (*models.User, error) {
	const op = "auth.AuthService.EnsureAdmin"
	log := a.log.With("op", op, "username", username)
	existing, err := a.storage.GetByUsername(ctx, username)
	if err == nil {
		if !existing.IsAdmin() {
			log.Warn("user exists but is not an administrator")
		}
		return existing, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	admin, err := a.createUser(ctx, email, username, password, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	log.Info("administrator created", "user_id", admin.ID)
	return admin, nil
}
