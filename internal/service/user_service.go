package service

import (
	"context"
	"strings"

	"pulse/internal/gateway"
	"pulse/internal/models"
	"pulse/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"
)

// UserService covers sign-up and profile reads and updates. Session
// management beyond issuing the credential record is out of scope here.
type UserService struct {
	users      gateway.UserStore
	identities gateway.IdentityStore
}

// RegisterInput carries the fields for a new account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// UpdateProfileInput carries the mutable profile fields. Empty strings leave
// the current value in place.
type UpdateProfileInput struct {
	UserID         string
	Bio            string
	Location       string
	WebsiteURL     string
	Pronouns       string
	ProfilePicture string
}

// NewUserService creates a UserService over the given stores.
func NewUserService(users gateway.UserStore, identities gateway.IdentityStore) *UserService {
	return &UserService{users: users, identities: identities}
}

// Register creates the profile row and its backing credential record.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	ctx, span := observability.Tracer.Start(ctx, "UserService.Register")
	defer span.End()

	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)

	if len(username) < 3 {
		return nil, models.NewValidationError("Username must be at least 3 characters long")
	}
	if strings.ContainsAny(username, " \t") {
		return nil, models.NewValidationError("Username cannot contain spaces")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, models.NewValidationError("A valid email address is required")
	}
	if len(in.Password) < 6 {
		return nil, models.NewValidationError("Password must be at least 6 characters long")
	}

	user := &models.User{
		Username: username,
		Email:    email,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	identity := &models.Identity{
		UserID:       user.ID,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.identities.Create(ctx, identity); err != nil {
		return nil, err
	}

	return user, nil
}

// Authenticate checks a credential pair and returns the matching user.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	ctx, span := observability.Tracer.Start(ctx, "UserService.Authenticate")
	defer span.End()

	identity, err := s.identities.GetByEmail(ctx, email)
	if err != nil {
		if models.IsNotFound(err) {
			return nil, models.NewUnauthorizedError("Invalid email or password")
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)) != nil {
		return nil, models.NewUnauthorizedError("Invalid email or password")
	}
	return s.users.GetByID(ctx, identity.UserID)
}

// GetUser fetches a profile by id.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// GetUserByUsername fetches a profile through the username index.
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.users.GetByUsername(ctx, username)
}

// UpdateProfile patches the caller's own profile.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	ctx, span := observability.Tracer.Start(ctx, "UserService.UpdateProfile")
	defer span.End()
	span.SetAttributes(attribute.String("user_id", in.UserID))

	user, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Bio != "" {
		user.Bio = in.Bio
	}
	if in.Location != "" {
		user.Location = in.Location
	}
	if in.WebsiteURL != "" {
		user.WebsiteURL = in.WebsiteURL
	}
	if in.Pronouns != "" {
		user.Pronouns = in.Pronouns
	}
	if in.ProfilePicture != "" {
		user.ProfilePicture = in.ProfilePicture
	}

	if err := s.users.Update(ctx, user, gateway.Owner(in.UserID)); err != nil {
		return nil, err
	}
	return user, nil
}
