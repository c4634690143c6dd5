package services

import (
	"context"
	"time"

	"github.com/idesign4u1/ShoppingListApp/models"
	"github.com/idesign4u1/ShoppingListApp/store"
	"github.com/idesign4u1/ShoppingListApp/utils"

	"github.com/google/uuid"
)

// UserService manages accounts and refresh sessions. Email uniqueness is a
// query-then-write check, same trade-off as pending invitations.
type UserService struct {
	store store.Store
}

func NewUserService(st store.Store) *UserService {
	return &UserService{store: st}
}

func (s *UserService) GetByID(ctx context.Context, userID string) (*models.User, error) {
	doc, err := s.store.Get(ctx, store.Users, userID)
	if err == store.ErrNotFound {
		return nil, models.NotFound("user")
	}
	if err != nil {
		return nil, models.StoreUnavailable(err)
	}
	var user models.User
	if err := doc.Decode(&user); err != nil {
		return nil, models.StoreUnavailable(err)
	}
	return &user, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	docs, err := s.store.Query(ctx, store.Query{
		Collection: store.Users,
		Conds:      []store.Cond{store.Where("email", store.Eq, email)},
		Limit:      1,
	})
	if err != nil {
		return nil, models.StoreUnavailable(err)
	}
	if len(docs) == 0 {
		return nil, models.NotFound("user")
	}
	var user models.User
	if err := docs[0].Decode(&user); err != nil {
		return nil, models.StoreUnavailable(err)
	}
	return &user, nil
}

// Identity resolves the full acting identity (including display name) for
// a user id, used by write paths that denormalize the actor's name.
func (s *UserService) Identity(ctx context.Context, userID string) (models.Identity, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return models.Identity{}, err
	}
	return models.Identity{UserID: user.ID, Email: user.Email, Name: user.Name}, nil
}

// Signup creates an account with a hashed password.
func (s *UserService) Signup(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	if _, err := s.GetByEmail(ctx, req.Email); err == nil {
		return nil, models.ValidationFailed("email already registered")
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, models.StoreUnavailable(err)
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Set(ctx, store.Users, user.ID, user); err != nil {
		return nil, models.StoreUnavailable(err)
	}
	return user, nil
}

// Authenticate checks password and, when enabled, the TOTP code.
func (s *UserService) Authenticate(ctx context.Context, req models.LoginRequest) (*models.User, error) {
	user, err := s.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, models.NotAuthenticated()
	}
	if !utils.CheckPassword(req.Password, user.PasswordHash) {
		return nil, models.NotAuthenticated()
	}
	if user.TOTPEnabled {
		if req.TOTPCode == "" {
			return nil, models.ValidationFailed("2FA code required")
		}
		valid, err := utils.VerifyTOTP(user.TOTPSecret, req.TOTPCode)
		if err != nil || !valid {
			return nil, models.NotAuthenticated()
		}
	}
	return user, nil
}

// CreateSession issues a refresh session valid for 7 days.
func (s *UserService) CreateSession(ctx context.Context, userID string) (*models.Session, error) {
	token, err := utils.GenerateRefreshToken()
	if err != nil {
		return nil, models.StoreUnavailable(err)
	}
	session := &models.Session{
		ID:           uuid.New().String(),
		UserID:       userID,
		RefreshToken: token,
		ExpiresAt:    time.Now().Add(7 * 24 * time.Hour),
		CreatedAt:    time.Now(),
	}
	if err := s.store.Set(ctx, store.Sessions, session.ID, session); err != nil {
		return nil, models.StoreUnavailable(err)
	}
	return session, nil
}

// Refresh trades a valid refresh token for its user.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*models.User, error) {
	docs, err := s.store.Query(ctx, store.Query{
		Collection: store.Sessions,
		Conds:      []store.Cond{store.Where("refreshToken", store.Eq, refreshToken)},
		Limit:      1,
	})
	if err != nil {
		return nil, models.StoreUnavailable(err)
	}
	if len(docs) == 0 {
		return nil, models.NotAuthenticated()
	}
	var session models.Session
	if err := docs[0].Decode(&session); err != nil {
		return nil, models.StoreUnavailable(err)
	}
	if time.Now().After(session.ExpiresAt) {
		return nil, models.NotAuthenticated()
	}
	return s.GetByID(ctx, session.UserID)
}

// Logout revokes every session carrying the given refresh token.
func (s *UserService) Logout(ctx context.Context, refreshToken string) error {
	docs, err := s.store.Query(ctx, store.Query{
		Collection: store.Sessions,
		Conds:      []store.Cond{store.Where("refreshToken", store.Eq, refreshToken)},
	})
	if err != nil {
		return models.StoreUnavailable(err)
	}
	for _, doc := range docs {
		if err := s.store.Delete(ctx, store.Sessions, doc.ID); err != nil {
			return models.StoreUnavailable(err)
		}
	}
	return nil
}

// UpdateProfile edits display name and avatar.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) error {
	patch := store.Patch{"updatedAt": store.Set(time.Now())}
	if req.Name != nil {
		if *req.Name == "" {
			return models.ValidationFailed("name is required")
		}
		patch["name"] = store.Set(*req.Name)
	}
	if req.Avatar != nil {
		patch["avatar"] = store.Set(*req.Avatar)
	}
	return s.patchUser(ctx, userID, patch)
}

// ChangePassword verifies the current password before replacing it.
func (s *UserService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !utils.CheckPassword(currentPassword, user.PasswordHash) {
		return models.NotAuthenticated()
	}
	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return models.StoreUnavailable(err)
	}
	return s.patchUser(ctx, userID, store.Patch{
		"passwordHash": store.Set(hash),
		"updatedAt":    store.Set(time.Now()),
	})
}

// SetupTOTP generates and stores a secret; 2FA stays disabled until the
// first code is verified.
func (s *UserService) SetupTOTP(ctx context.Context, userID string) (*models.TOTPSetupResponse, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	secret, url, err := utils.GenerateTOTPSecret(user.Email)
	if err != nil {
		return nil, models.StoreUnavailable(err)
	}
	if err := s.patchUser(ctx, userID, store.Patch{
		"totpSecret": store.Set(secret),
		"updatedAt":  store.Set(time.Now()),
	}); err != nil {
		return nil, err
	}
	return &models.TOTPSetupResponse{Secret: secret, URL: url}, nil
}

// EnableTOTP turns on 2FA after verifying one code against the secret.
func (s *UserService) EnableTOTP(ctx context.Context, userID, code string) error {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.TOTPSecret == "" {
		return models.ValidationFailed("TOTP not set up")
	}
	valid, err := utils.VerifyTOTP(user.TOTPSecret, code)
	if err != nil || !valid {
		return models.NotAuthenticated()
	}
	return s.patchUser(ctx, userID, store.Patch{
		"totpEnabled": store.Set(true),
		"updatedAt":   store.Set(time.Now()),
	})
}

// DisableTOTP requires the password and a valid code.
func (s *UserService) DisableTOTP(ctx context.Context, userID, password, code string) error {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !utils.CheckPassword(password, user.PasswordHash) {
		return models.NotAuthenticated()
	}
	if user.TOTPSecret != "" {
		valid, err := utils.VerifyTOTP(user.TOTPSecret, code)
		if err != nil || !valid {
			return models.NotAuthenticated()
		}
	}
	return s.patchUser(ctx, userID, store.Patch{
		"totpEnabled": store.Set(false),
		"totpSecret":  store.Set(""),
		"updatedAt":   store.Set(time.Now()),
	})
}

// DeleteAccount removes the user and their sessions after a password check.
func (s *UserService) DeleteAccount(ctx context.Context, userID, password string) error {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !utils.CheckPassword(password, user.PasswordHash) {
		return models.NotAuthenticated()
	}

	sessions, err := s.store.Query(ctx, store.Query{
		Collection: store.Sessions,
		Conds:      []store.Cond{store.Where("userId", store.Eq, userID)},
	})
	if err != nil {
		return models.StoreUnavailable(err)
	}

	batch := s.store.Batch()
	for _, doc := range sessions {
		batch.Delete(store.Sessions, doc.ID)
	}
	batch.Delete(store.Users, userID)
	if err := batch.Commit(ctx); err != nil {
		return models.StoreUnavailable(err)
	}
	return nil
}

func (s *UserService) patchUser(ctx context.Context, userID string, patch store.Patch) error {
	err := s.store.Update(ctx, store.Users, userID, patch)
	if err == store.ErrNotFound {
		return models.NotFound("user")
	}
	if err != nil {
		return models.StoreUnavailable(err)
	}
	return nil
}
