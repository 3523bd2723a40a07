package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"devconnector/internal/model"
)

// =============================================================================
// MOCK REPOSITORY
// =============================================================================
//
// UserService depends on the UserRepository interface, so each test swaps in
// a mock whose behavior it controls.

type mockUserRepository struct {
	createFn     func(ctx context.Context, user *model.User) error
	getByIDFn    func(ctx context.Context, id int64) (*model.User, error)
	getByEmailFn func(ctx context.Context, email string) (*model.User, error)

	// Track calls for assertions
	createCalls []createCall
}

type createCall struct {
	User *model.User
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	m.createCalls = append(m.createCalls, createCall{User: user})
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) Delete(ctx context.Context, id int64) error {
	return nil
}

// =============================================================================
// REGISTER TESTS
// =============================================================================

func TestUserService_Register_Success(t *testing.T) {
	mockRepo := &mockUserRepository{
		createFn: func(ctx context.Context, user *model.User) error {
			// Simulate database setting ID and timestamps
			user.ID = 1
			user.Date = time.Now()
			return nil
		},
	}
	service := NewUserService(mockRepo, "")

	req := &model.RegisterRequest{
		Name:     " Alice ",
		Email:    "Alice@Example.com",
		Password: "secret123",
	}
	user, err := service.Register(context.Background(), req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if user.ID != 1 {
		t.Errorf("expected user ID 1, got %d", user.ID)
	}
	if user.Name != "Alice" {
		t.Errorf("expected trimmed name 'Alice', got %q", user.Name)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("expected lowercased email, got %q", user.Email)
	}
	if len(mockRepo.createCalls) != 1 {
		t.Fatalf("expected Create to be called once, got %d", len(mockRepo.createCalls))
	}

	// The stored password must be a bcrypt hash of the plain password
	if user.PasswordHashed == "secret123" {
		t.Error("password should be hashed, not stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte("secret123")); err != nil {
		t.Errorf("password hash doesn't match: %v", err)
	}

	if want := GravatarURL("alice@example.com"); user.Avatar != want {
		t.Errorf("expected gravatar %q, got %q", want, user.Avatar)
	}
}

func TestUserService_Register_AvatarSource(t *testing.T) {
	uploaded := "https://cdn.example.com/avatars/x.jpg"
	key := "avatars/x.jpg"

	tests := []struct {
		name          string
		defaultAvatar string
		avatarURL     *string
		avatarKey     *string
		want          string
	}{
		{name: "upload wins", defaultAvatar: "https://cdn.example.com/default.png", avatarURL: &uploaded, avatarKey: &key, want: uploaded},
		{name: "configured default", defaultAvatar: "https://cdn.example.com/default.png", want: "https://cdn.example.com/default.png"},
		{name: "gravatar fallback", want: GravatarURL("bob@example.com")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewUserService(&mockUserRepository{}, tt.defaultAvatar)
			user, err := service.Register(context.Background(), &model.RegisterRequest{
				Name:      "Bob",
				Email:     "bob@example.com",
				Password:  "secret123",
				AvatarURL: tt.avatarURL,
				AvatarKey: tt.avatarKey,
			})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if user.Avatar != tt.want {
				t.Errorf("avatar = %q, want %q", user.Avatar, tt.want)
			}
			if (user.AvatarKey != nil) != (tt.avatarKey != nil) {
				t.Errorf("avatar key presence = %t, want %t", user.AvatarKey != nil, tt.avatarKey != nil)
			}
		})
	}
}

func TestUserService_Register_EmailExists(t *testing.T) {
	mockRepo := &mockUserRepository{
		getByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: 9, Email: email}, nil
		},
	}
	service := NewUserService(mockRepo, "")

	_, err := service.Register(context.Background(), &model.RegisterRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "secret123",
	})

	if !errors.Is(err, model.ErrEmailExists) {
		t.Errorf("expected ErrEmailExists, got %v", err)
	}
	if len(mockRepo.createCalls) != 0 {
		t.Error("Create should not be called when the email is taken")
	}
}

func TestUserService_Register_ValidationReportsEveryField(t *testing.T) {
	service := NewUserService(&mockUserRepository{}, "")

	_, err := service.Register(context.Background(), &model.RegisterRequest{
		Name:     "  ",
		Email:    "not-an-email",
		Password: "123",
	})

	var verrs model.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}

	fields := map[string]string{}
	for _, fe := range verrs {
		fields[fe.Field] = fe.Message
	}
	want := map[string]string{
		"name":     "Name is required",
		"email":    "Please include a valid email",
		"password": "Please enter a password with 6 or more characters",
	}
	for field, msg := range want {
		if fields[field] != msg {
			t.Errorf("field %s: got %q, want %q", field, fields[field], msg)
		}
	}
}

func TestUserService_Register_CreateError(t *testing.T) {
	mockRepo := &mockUserRepository{
		createFn: func(ctx context.Context, user *model.User) error {
			return errors.New("insert failed")
		},
	}
	service := NewUserService(mockRepo, "")

	_, err := service.Register(context.Background(), &model.RegisterRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "secret123",
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if errors.Is(err, model.ErrEmailExists) {
		t.Error("a store failure must not be reported as a duplicate email")
	}
}

// =============================================================================
// LOGIN TESTS
// =============================================================================

func TestUserService_Login(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash: %v", err)
	}
	stored := &model.User{ID: 1, Name: "Alice", Email: "alice@example.com", PasswordHashed: string(hashed)}

	mockRepo := &mockUserRepository{
		getByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			if email == stored.Email {
				return stored, nil
			}
			return nil, model.ErrUserNotFound
		},
	}
	service := NewUserService(mockRepo, "")

	tests := []struct {
		name    string
		email   string
		pass    string
		wantErr error
	}{
		{name: "valid credentials", email: "alice@example.com", pass: "correct"},
		{name: "email is case insensitive", email: "ALICE@example.com", pass: "correct"},
		{name: "wrong password", email: "alice@example.com", pass: "wrong", wantErr: model.ErrInvalidCredentials},
		{name: "unknown email", email: "nobody@example.com", pass: "correct", wantErr: model.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := service.Login(context.Background(), &model.LoginRequest{Email: tt.email, Password: tt.pass})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if user.ID != stored.ID {
				t.Errorf("expected user %d, got %d", stored.ID, user.ID)
			}
		})
	}
}

// =============================================================================
// GET BY ID TESTS
// =============================================================================

func TestUserService_GetByID(t *testing.T) {
	mockRepo := &mockUserRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			if id == 42 {
				return &model.User{ID: 42, Name: "Alice"}, nil
			}
			return nil, model.ErrUserNotFound
		},
	}
	service := NewUserService(mockRepo, "")

	user, err := service.GetByID(context.Background(), 42)
	if err != nil || user.Name != "Alice" {
		t.Errorf("expected Alice, got %v (err %v)", user, err)
	}

	if _, err := service.GetByID(context.Background(), 7); !errors.Is(err, model.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestGravatarURL(t *testing.T) {
	// md5("myemailaddress@example.com"), the example from Gravatar's docs
	want := "//www.gravatar.com/avatar/0bc83cb571cd1c50ba6f3e8a78ef1346?s=200&r=pg&d=mm"
	if got := GravatarURL("  MyEmailAddress@example.com "); got != want {
		t.Errorf("GravatarURL = %q, want %q", got, want)
	}
}
