package auth

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/abduss/clinstudy/internal/config"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "StrongPass1!"

func newTestService(t *testing.T) (*Service, *memoryStore, *TokenIssuer) {
	t.Helper()
	store := newMemoryStore()
	issuer := NewTokenIssuer(testAuthConfig())
	return NewService(store, NewBcryptHasher(4), issuer, nil), store, issuer
}

func seedUser(t *testing.T, service *Service, email string, role Role) User {
	t.Helper()
	user, err := service.Register(context.Background(), RegisterInput{
		Email:    email,
		Password: testPassword,
		Role:     role,
	})
	require.NoError(t, err)
	return user
}

func TestRegisterSuccess(t *testing.T) {
	service, store, _ := newTestService(t)

	user, err := service.Register(context.Background(), RegisterInput{
		Email:     "User@Example.com ",
		Password:  testPassword,
		FirstName: "Ana",
	})
	require.NoError(t, err)

	assert.Empty(t, user.PasswordHash, "expected password hash to be stripped from response")
	assert.Equal(t, "user@example.com", user.Email)
	assert.Equal(t, RoleUser, user.Role)
	assert.Len(t, store.users, 1)
	assert.NotEmpty(t, store.users[user.ID].PasswordHash)
	assert.NotEqual(t, testPassword, store.users[user.ID].PasswordHash)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	service, store, _ := newTestService(t)
	seedUser(t, service, "a@x.com", "")
	creates := store.creates

	_, err := service.Register(context.Background(), RegisterInput{
		Email:    "a@x.com",
		Password: "AnotherPass2!",
	})

	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
	assert.Equal(t, creates, store.creates, "store must not be mutated")
	assert.Len(t, store.users, 1)
}

func TestRegisterRejectsInvalidPayload(t *testing.T) {
	service, store, _ := newTestService(t)

	_, err := service.Register(context.Background(), RegisterInput{
		Email:    "not-an-email",
		Password: "short",
		Role:     "superuser",
	})

	var fieldErrs validation.Errors
	require.True(t, errors.As(err, &fieldErrs), "expected validation errors, got %v", err)
	assert.Contains(t, fieldErrs, "email")
	assert.Contains(t, fieldErrs, "password")
	assert.Contains(t, fieldErrs, "role")
	assert.Empty(t, store.users)
}

func TestLogin(t *testing.T) {
	service, _, issuer := newTestService(t)
	registered := seedUser(t, service, "user@example.com", RoleAdmin)

	result, err := service.Login(context.Background(), LoginInput{
		Email:    "user@example.com",
		Password: testPassword,
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.Tokens.AccessToken)
	require.NotEmpty(t, result.Tokens.RefreshToken)
	assert.True(t, result.Tokens.RefreshTokenExpiry.After(result.Tokens.AccessTokenExpiry))

	claims, err := issuer.Verify(result.Tokens.AccessToken, TokenAccess)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, registered.ID, id)
	assert.Equal(t, RoleAdmin, claims.Role)
}

func TestLoginInvalidPassword(t *testing.T) {
	service, _, _ := newTestService(t)
	seedUser(t, service, "user@example.com", "")

	_, err := service.Login(context.Background(), LoginInput{
		Email:    "user@example.com",
		Password: "WrongPass",
	})

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	service, _, _ := newTestService(t)

	_, err := service.Login(context.Background(), LoginInput{
		Email:    "ghost@example.com",
		Password: testPassword,
	})

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshIssuesAccessToken(t *testing.T) {
	service, store, issuer := newTestService(t)
	user := seedUser(t, service, "user@example.com", "")

	refresh, _, err := issuer.IssueRefreshToken(user)
	require.NoError(t, err)

	// role changes are reflected in the refreshed token
	stored := store.users[user.ID]
	stored.Role = RoleAdmin
	store.users[user.ID] = stored

	access, err := service.Refresh(context.Background(), refresh)
	require.NoError(t, err)

	claims, err := issuer.Verify(access.Token, TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, claims.Role)
}

func TestRefreshRejectsBadTokens(t *testing.T) {
	service, _, issuer := newTestService(t)
	user := seedUser(t, service, "user@example.com", "")

	access, _, err := issuer.IssueAccessToken(user)
	require.NoError(t, err)

	expiredIssuer := NewTokenIssuer(testAuthConfig())
	expiredIssuer.nowFunc = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, err := expiredIssuer.IssueRefreshToken(user)
	require.NoError(t, err)

	valid, _, err := issuer.IssueRefreshToken(user)
	require.NoError(t, err)

	cases := map[string]string{
		"empty":        "",
		"garbage":      "not-a-jwt",
		"access token": access,
		"expired":      expired,
		"tampered":     valid[:len(valid)-2] + "xx",
	}

	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			result, err := service.Refresh(context.Background(), token)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Empty(t, result.Token)
		})
	}
}

func TestRefreshRejectsDeletedUser(t *testing.T) {
	service, _, issuer := newTestService(t)
	user := seedUser(t, service, "user@example.com", "")

	refresh, _, err := issuer.IssueRefreshToken(user)
	require.NoError(t, err)

	_, err = service.DeleteUser(context.Background(), user.ID)
	require.NoError(t, err)

	_, err = service.Refresh(context.Background(), refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestChangePasswordWrongCurrentKeepsHash(t *testing.T) {
	service, store, _ := newTestService(t)
	user := seedUser(t, service, "user@example.com", "")
	before := store.users[user.ID].PasswordHash

	_, err := service.ChangePassword(context.Background(), ChangePasswordInput{
		Email:           "user@example.com",
		CurrentPassword: "WrongPass!",
		NewPassword:     "BrandNewPass3!",
	})

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, before, store.users[user.ID].PasswordHash)
}

func TestChangePasswordSuccess(t *testing.T) {
	service, _, _ := newTestService(t)
	seedUser(t, service, "user@example.com", "")

	msg, err := service.ChangePassword(context.Background(), ChangePasswordInput{
		Email:           "user@example.com",
		CurrentPassword: testPassword,
		NewPassword:     "BrandNewPass3!",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, msg)

	_, err = service.Login(context.Background(), LoginInput{Email: "user@example.com", Password: testPassword})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = service.Login(context.Background(), LoginInput{Email: "user@example.com", Password: "BrandNewPass3!"})
	assert.NoError(t, err)
}

func TestChangePasswordRejectsSamePassword(t *testing.T) {
	service, _, _ := newTestService(t)
	seedUser(t, service, "user@example.com", "")

	_, err := service.ChangePassword(context.Background(), ChangePasswordInput{
		Email:           "user@example.com",
		CurrentPassword: testPassword,
		NewPassword:     testPassword,
	})

	var fieldErrs validation.Errors
	require.True(t, errors.As(err, &fieldErrs))
	assert.Contains(t, fieldErrs, "new_password")
}

func TestLookupsReturnNilWhenMissing(t *testing.T) {
	service, _, _ := newTestService(t)

	byEmail, err := service.GetUserByEmail(context.Background(), "missing@example.com")
	require.NoError(t, err)
	assert.Nil(t, byEmail)

	byID, err := service.GetUserByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, byID)

	users, err := service.ListUsers(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func TestUpdateUserAppliesOnlyProvidedFields(t *testing.T) {
	service, _, _ := newTestService(t)
	user, err := service.Register(context.Background(), RegisterInput{
		Email:     "user@example.com",
		Password:  testPassword,
		FirstName: "Ana",
		LastName:  "Lopez",
	})
	require.NoError(t, err)

	newLast := "Garcia"
	updated, err := service.UpdateUser(context.Background(), user.ID, UserPatch{LastName: &newLast})
	require.NoError(t, err)

	assert.Equal(t, "Ana", updated.FirstName)
	assert.Equal(t, "Garcia", updated.LastName)
	assert.Equal(t, "user@example.com", updated.Email)
	assert.Empty(t, updated.PasswordHash)
}

func TestUpdateUserNotFound(t *testing.T) {
	service, _, _ := newTestService(t)
	name := "x"

	_, err := service.UpdateUser(context.Background(), uuid.New(), UserPatch{FirstName: &name})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateUserEmailCollision(t *testing.T) {
	service, _, _ := newTestService(t)
	seedUser(t, service, "first@example.com", "")
	second := seedUser(t, service, "second@example.com", "")

	taken := "FIRST@example.com"
	_, err := service.UpdateUser(context.Background(), second.ID, UserPatch{Email: &taken})
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestDeleteUser(t *testing.T) {
	service, store, _ := newTestService(t)
	user := seedUser(t, service, "user@example.com", "")

	msg, err := service.DeleteUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, msg)
	assert.Empty(t, store.users)

	_, err = service.DeleteUser(context.Background(), user.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateUserDocumentsKeepsUploadedFiles(t *testing.T) {
	service, store, _ := newTestService(t)
	user := seedUser(t, service, "user@example.com", "")

	stored := store.users[user.ID]
	stored.Documents = Documents{
		IdentityType: "passport",
		Files:        map[string]StoredDocument{"cv": {ObjectName: "users/cv"}},
	}
	store.users[user.ID] = stored

	number := "X123"
	updated, err := service.UpdateUserDocuments(context.Background(), user.ID, DocumentsPatch{IdentityNumber: &number})
	require.NoError(t, err)

	assert.Equal(t, "passport", updated.Documents.IdentityType)
	assert.Equal(t, "X123", updated.Documents.IdentityNumber)
	assert.Contains(t, updated.Documents.Files, "cv")

	_, err = service.UpdateUserDocuments(context.Background(), uuid.New(), DocumentsPatch{IdentityNumber: &number})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUploadUserDocumentReplacesPrevious(t *testing.T) {
	store := newMemoryStore()
	objects := newFakeObjectStore()
	docs := NewDocumentStorage(objects, config.MinIOConfig{Bucket: "docs", MaxDocumentSize: 1024, PresignTTL: time.Minute})
	service := NewService(store, NewBcryptHasher(4), NewTokenIssuer(testAuthConfig()), docs)
	user := seedUser(t, service, "user@example.com", "")

	first, err := service.UploadUserDocument(context.Background(), user.ID, "cv", buildFileHeader(t, "cv.pdf", []byte("v1")))
	require.NoError(t, err)
	firstObject := first.Documents.Files["cv"].ObjectName
	assert.Equal(t, int64(2), first.Documents.Files["cv"].SizeBytes)
	assert.NotEmpty(t, first.Documents.Files["cv"].Checksum)

	second, err := service.UploadUserDocument(context.Background(), user.ID, "cv", buildFileHeader(t, "cv.pdf", []byte("v2!")))
	require.NoError(t, err)
	assert.NotEqual(t, firstObject, second.Documents.Files["cv"].ObjectName)
	assert.NotContains(t, objects.objects, firstObject, "previous object must be removed")

	link, expiresAt, err := service.DocumentURL(context.Background(), user.ID, "cv")
	require.NoError(t, err)
	assert.Contains(t, link, second.Documents.Files["cv"].ObjectName)
	assert.True(t, expiresAt.After(time.Now()))

	_, _, err = service.DocumentURL(context.Background(), user.ID, "license")
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestUploadUserDocumentValidation(t *testing.T) {
	store := newMemoryStore()
	docs := NewDocumentStorage(newFakeObjectStore(), config.MinIOConfig{Bucket: "docs", MaxDocumentSize: 4})
	service := NewService(store, NewBcryptHasher(4), NewTokenIssuer(testAuthConfig()), docs)
	user := seedUser(t, service, "user@example.com", "")

	_, err := service.UploadUserDocument(context.Background(), user.ID, "../etc", buildFileHeader(t, "a.txt", []byte("a")))
	var fieldErrs validation.Errors
	assert.True(t, errors.As(err, &fieldErrs))

	_, err = service.UploadUserDocument(context.Background(), user.ID, "cv", buildFileHeader(t, "a.txt", []byte("too large")))
	assert.ErrorIs(t, err, ErrDocumentTooLarge)
}

func TestUploadWithoutStorage(t *testing.T) {
	service, _, _ := newTestService(t)
	user := seedUser(t, service, "user@example.com", "")

	_, err := service.UploadUserDocument(context.Background(), user.ID, "cv", buildFileHeader(t, "a.txt", []byte("a")))
	assert.ErrorIs(t, err, ErrDocumentsUnavailable)
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	service, store, _ := newTestService(t)

	created, err := service.EnsureAdmin(context.Background(), "root@example.com", testPassword)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = service.EnsureAdmin(context.Background(), "root@example.com", testPassword)
	require.NoError(t, err)
	assert.False(t, created)

	require.Len(t, store.users, 1)
	for _, u := range store.users {
		assert.Equal(t, RoleAdmin, u.Role)
	}
}

// --- helpers & fakes ---

func buildFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(int64(len(content))+1024))

	return req.MultipartForm.File["file"][0]
}

// memoryStore implements userStore for tests.
type memoryStore struct {
	users   map[uuid.UUID]User
	creates int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{users: make(map[uuid.UUID]User)}
}

func (m *memoryStore) CreateUser(ctx context.Context, in NewUser) (User, error) {
	if _, err := m.FindUserByEmail(ctx, in.Email); err == nil {
		return User{}, ErrEmailAlreadyExists
	}
	now := time.Now()
	user := User{
		ID:           uuid.New(),
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		Role:         in.Role,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        in.Phone,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.users[user.ID] = user
	m.creates++
	return user, nil
}

func (m *memoryStore) FindUserByEmail(ctx context.Context, email string) (User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (m *memoryStore) FindUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	user, ok := m.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (m *memoryStore) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	for _, u := range m.users {
		users = append(users, u)
	}
	return users, nil
}

func (m *memoryStore) UpdateUser(ctx context.Context, user User) (User, error) {
	if _, ok := m.users[user.ID]; !ok {
		return User{}, ErrUserNotFound
	}
	for _, u := range m.users {
		if u.ID != user.ID && u.Email == user.Email {
			return User{}, ErrEmailAlreadyExists
		}
	}
	user.UpdatedAt = time.Now()
	m.users[user.ID] = user
	return user, nil
}

func (m *memoryStore) UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error {
	user, ok := m.users[id]
	if !ok {
		return ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	m.users[id] = user
	return nil
}

func (m *memoryStore) UpdateDocuments(ctx context.Context, id uuid.UUID, docs Documents) (User, error) {
	user, ok := m.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	user.Documents = docs
	m.users[id] = user
	return user, nil
}

func (m *memoryStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.users[id]; !ok {
		return ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

type fakeObjectStore struct {
	objects map[string][]byte
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: make(map[string][]byte)}
}

func (f *fakeObjectStore) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.objects[objectName] = data
	return minio.UploadInfo{Bucket: bucketName, Key: objectName, Size: int64(len(data))}, nil
}

func (f *fakeObjectStore) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	delete(f.objects, objectName)
	return nil
}

func (f *fakeObjectStore) PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error) {
	return url.Parse("https://objects.local/" + bucketName + "/" + objectName)
}

func TestRegisterNormalizesPhone(t *testing.T) {
	service, _, _ := newTestService(t)

	user, err := service.Register(context.Background(), RegisterInput{
		Email:    "user@example.com",
		Password: testPassword,
		Phone:    "+1 650-253-0000",
	})
	require.NoError(t, err)
	assert.Equal(t, "+16502530000", user.Phone)

	_, err = service.Register(context.Background(), RegisterInput{
		Email:    "other@example.com",
		Password: testPassword,
		Phone:    "12345",
	})
	var fieldErrs validation.Errors
	require.True(t, errors.As(err, &fieldErrs))
	assert.Contains(t, fieldErrs, "phone")
}
