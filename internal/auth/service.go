package auth

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"regexp"
	"time"

	"github.com/abduss/clinstudy/internal/metrics"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	msgPasswordChanged = "password updated successfully"
	msgUserDeleted     = "user deleted successfully"
)

var documentNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// userStore abstracts the persistence layer.
type userStore interface {
	CreateUser(ctx context.Context, in NewUser) (User, error)
	FindUserByEmail(ctx context.Context, email string) (User, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, user User) (User, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateDocuments(ctx context.Context, id uuid.UUID, docs Documents) (User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type passwordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type tokenIssuer interface {
	IssueAccessToken(user User) (string, time.Time, error)
	IssueRefreshToken(user User) (string, time.Time, error)
	Verify(token string, kind TokenKind) (Claims, error)
}

// Service encapsulates authentication and user management use cases.
type Service struct {
	store     userStore
	hasher    passwordHasher
	tokens    tokenIssuer
	documents *DocumentStorage
	log       *zap.Logger
}

// NewService creates a Service with its collaborators. documents may be nil,
// in which case uploads fail with ErrDocumentsUnavailable.
func NewService(store userStore, hasher passwordHasher, tokens tokenIssuer, documents *DocumentStorage) *Service {
	return &Service{
		store:     store,
		hasher:    hasher,
		tokens:    tokens,
		documents: documents,
		log:       zap.L().Named("auth"),
	}
}

// LoginInput carries login credentials.
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult contains the authenticated user and the issued tokens.
type LoginResult struct {
	User   User
	Tokens TokenPair
}

// AccessToken is a freshly minted access token.
type AccessToken struct {
	Token     string
	ExpiresAt time.Time
}

// RegisterInput carries data for user registration.
type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Role      Role   `json:"role"`
}

// Validate checks the registration payload.
func (in RegisterInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, is.Email),
		validation.Field(&in.Password, validation.Required, validation.Length(8, maxPasswordLength)),
		validation.Field(&in.FirstName, validation.Length(0, 100)),
		validation.Field(&in.LastName, validation.Length(0, 100)),
		validation.Field(&in.Phone, validation.Length(0, 32), phoneRule),
		validation.Field(&in.Role, validation.In(RoleAdmin, RoleUser)),
	)
}

// ChangePasswordInput carries a password change request.
type ChangePasswordInput struct {
	Email           string `json:"email"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Validate checks the password change payload.
func (in ChangePasswordInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, is.Email),
		validation.Field(&in.CurrentPassword, validation.Required),
		validation.Field(&in.NewPassword,
			validation.Required,
			validation.Length(8, maxPasswordLength),
			validation.By(func(value interface{}) error {
				if value.(string) == in.CurrentPassword {
					return errors.New("must differ from the current password")
				}
				return nil
			}),
		),
	)
}

// Validate checks the user patch.
func (p UserPatch) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email, validation.NilOrNotEmpty, is.Email),
		validation.Field(&p.FirstName, validation.Length(0, 100)),
		validation.Field(&p.LastName, validation.Length(0, 100)),
		validation.Field(&p.Phone, validation.Length(0, 32), phoneRule),
		validation.Field(&p.Role, validation.NilOrNotEmpty, validation.In(RoleAdmin, RoleUser)),
	)
}

// Validate checks the documents patch.
func (p DocumentsPatch) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.IdentityType, validation.Length(0, 64)),
		validation.Field(&p.IdentityNumber, validation.Length(0, 128)),
		validation.Field(&p.LicenseNumber, validation.Length(0, 128)),
	)
}

// Login authenticates credentials and issues an access and refresh token.
func (s *Service) Login(ctx context.Context, input LoginInput) (LoginResult, error) {
	result, err := s.login(ctx, input)
	metrics.AuthEvent("login", err == nil)
	return result, err
}

func (s *Service) login(ctx context.Context, input LoginInput) (LoginResult, error) {
	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("find user: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, input.Password); err != nil {
		if !errors.Is(err, ErrInvalidCredentials) {
			s.log.Warn("password comparison failed", zap.String("user_id", user.ID.String()), zap.Error(err))
		}
		return LoginResult{}, ErrInvalidCredentials
	}

	accessToken, accessExpiry, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue access token: %w", err)
	}
	refreshToken, refreshExpiry, err := s.tokens.IssueRefreshToken(user)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue refresh token: %w", err)
	}

	return LoginResult{
		User: user.SafeUser(),
		Tokens: TokenPair{
			AccessToken:        accessToken,
			AccessTokenExpiry:  accessExpiry,
			RefreshToken:       refreshToken,
			RefreshTokenExpiry: refreshExpiry,
		},
	}, nil
}

// Register creates a new user with a hashed password. The store is not touched
// when the email is already taken.
func (s *Service) Register(ctx context.Context, input RegisterInput) (User, error) {
	input.Email = normalizeEmail(input.Email)
	if err := input.Validate(); err != nil {
		return User{}, err
	}

	if _, err := s.store.FindUserByEmail(ctx, input.Email); err == nil {
		return User{}, ErrEmailAlreadyExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return User{}, fmt.Errorf("find user: %w", err)
	}

	hashedPassword, err := s.hasher.Hash(input.Password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	role := input.Role
	if role == "" {
		role = DefaultRole
	}

	user, err := s.store.CreateUser(ctx, NewUser{
		Email:        input.Email,
		PasswordHash: hashedPassword,
		Role:         role,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Phone:        formatPhone(input.Phone),
	})
	if err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			return User{}, ErrEmailAlreadyExists
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}

	return user.SafeUser(), nil
}

// Refresh verifies a refresh token and mints a new access token for its subject.
// The refresh token itself is not rotated.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (AccessToken, error) {
	token, err := s.refresh(ctx, refreshToken)
	metrics.AuthEvent("refresh", err == nil)
	return token, err
}

func (s *Service) refresh(ctx context.Context, refreshToken string) (AccessToken, error) {
	claims, err := s.tokens.Verify(refreshToken, TokenRefresh)
	if err != nil {
		return AccessToken{}, ErrInvalidToken
	}

	userID, err := claims.UserID()
	if err != nil {
		return AccessToken{}, ErrInvalidToken
	}

	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return AccessToken{}, ErrInvalidToken
		}
		return AccessToken{}, fmt.Errorf("find user: %w", err)
	}

	token, expiresAt, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return AccessToken{}, fmt.Errorf("issue access token: %w", err)
	}
	return AccessToken{Token: token, ExpiresAt: expiresAt}, nil
}

// ChangePassword replaces the password after verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, input ChangePasswordInput) (string, error) {
	input.Email = normalizeEmail(input.Email)
	if err := input.Validate(); err != nil {
		return "", err
	}

	user, err := s.store.FindUserByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("find user: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, input.CurrentPassword); err != nil {
		metrics.AuthEvent("change_password", false)
		return "", ErrInvalidCredentials
	}

	hashedPassword, err := s.hasher.Hash(input.NewPassword)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	if err := s.store.UpdatePasswordHash(ctx, user.ID, hashedPassword); err != nil {
		return "", fmt.Errorf("update password: %w", err)
	}

	metrics.AuthEvent("change_password", true)
	return msgPasswordChanged, nil
}

// GetUserByEmail returns the user or nil when none matches.
func (s *Service) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	user, err := s.store.FindUserByEmail(ctx, normalizeEmail(email))
	return optionalUser(user, err)
}

// GetUserByID returns the user or nil when none matches.
func (s *Service) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	user, err := s.store.FindUserByID(ctx, id)
	return optionalUser(user, err)
}

// ListUsers returns all users; never nil.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	safe := make([]User, 0, len(users))
	for _, u := range users {
		safe = append(safe, u.SafeUser())
	}
	return safe, nil
}

// UpdateUser merges patch onto the stored user.
func (s *Service) UpdateUser(ctx context.Context, id uuid.UUID, patch UserPatch) (User, error) {
	if err := patch.Validate(); err != nil {
		return User{}, err
	}

	user, err := s.store.FindUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	patch.Apply(&user)

	updated, err := s.store.UpdateUser(ctx, user)
	if err != nil {
		return User{}, err
	}
	return updated.SafeUser(), nil
}

// DeleteUser removes the user and any uploaded documents.
func (s *Service) DeleteUser(ctx context.Context, id uuid.UUID) (string, error) {
	user, err := s.store.FindUserByID(ctx, id)
	if err != nil {
		return "", err
	}

	if err := s.store.DeleteUser(ctx, id); err != nil {
		return "", err
	}

	if s.documents != nil {
		for name, doc := range user.Documents.Files {
			if err := s.documents.Remove(ctx, doc.ObjectName); err != nil {
				s.log.Warn("orphaned document", zap.String("user_id", id.String()), zap.String("document", name), zap.Error(err))
			}
		}
	}

	return msgUserDeleted, nil
}

// UpdateUserDocuments merges patch onto the user's documents section.
func (s *Service) UpdateUserDocuments(ctx context.Context, id uuid.UUID, patch DocumentsPatch) (User, error) {
	if err := patch.Validate(); err != nil {
		return User{}, err
	}

	user, err := s.store.FindUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	docs := user.Documents
	patch.Apply(&docs)

	updated, err := s.store.UpdateDocuments(ctx, id, docs)
	if err != nil {
		return User{}, err
	}
	return updated.SafeUser(), nil
}

// UploadUserDocument stores a document scan under name, replacing any previous one.
func (s *Service) UploadUserDocument(ctx context.Context, id uuid.UUID, name string, fileHeader *multipart.FileHeader) (User, error) {
	if s.documents == nil {
		return User{}, ErrDocumentsUnavailable
	}
	if err := validateDocumentName(name); err != nil {
		return User{}, err
	}

	user, err := s.store.FindUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	stored, err := s.documents.Save(ctx, id, name, fileHeader)
	if err != nil {
		return User{}, err
	}

	docs := user.Documents
	previous, hadPrevious := docs.Files[name]
	files := make(map[string]StoredDocument, len(docs.Files)+1)
	for k, v := range docs.Files {
		files[k] = v
	}
	files[name] = stored
	docs.Files = files

	updated, err := s.store.UpdateDocuments(ctx, id, docs)
	if err != nil {
		_ = s.documents.Remove(ctx, stored.ObjectName)
		return User{}, err
	}

	if hadPrevious {
		if err := s.documents.Remove(ctx, previous.ObjectName); err != nil {
			s.log.Warn("orphaned document", zap.String("user_id", id.String()), zap.String("document", name), zap.Error(err))
		}
	}

	return updated.SafeUser(), nil
}

// DocumentURL returns a presigned download URL for the named document.
func (s *Service) DocumentURL(ctx context.Context, id uuid.UUID, name string) (string, time.Time, error) {
	if s.documents == nil {
		return "", time.Time{}, ErrDocumentsUnavailable
	}

	user, err := s.store.FindUserByID(ctx, id)
	if err != nil {
		return "", time.Time{}, err
	}

	doc, ok := user.Documents.Files[name]
	if !ok {
		return "", time.Time{}, ErrDocumentNotFound
	}
	return s.documents.URL(ctx, doc)
}

// EnsureAdmin creates an admin account with the given credentials unless the email
// is already registered. It reports whether a user was created.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	_, err := s.Register(ctx, RegisterInput{Email: email, Password: password, Role: RoleAdmin})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrEmailAlreadyExists):
		return false, nil
	default:
		return false, err
	}
}

func validateDocumentName(name string) error {
	if err := validation.Validate(name, validation.Required, validation.Match(documentNamePattern)); err != nil {
		return validation.Errors{"name": err}
	}
	return nil
}

func optionalUser(user User, err error) (*User, error) {
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}
	safe := user.SafeUser()
	return &safe, nil
}
