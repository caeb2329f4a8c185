package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/KnMBursary/bursary_backend/internal/apperrors"
	"github.com/KnMBursary/bursary_backend/internal/core/domain"
	portssvc "github.com/KnMBursary/bursary_backend/internal/core/ports/services"
	"github.com/KnMBursary/bursary_backend/internal/core/services"
	"github.com/KnMBursary/bursary_backend/internal/dto"
	"github.com/KnMBursary/bursary_backend/internal/utils"
)

// --- Mock UserRepository ---
type MockUserRepository struct {
	mock.Mock
	FindUserByEmailFn func(ctx context.Context, email string) (*domain.User, error)
	UpdateUserFn      func(ctx context.Context, user domain.User) error
}

func (m *MockUserRepository) SaveUser(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	var user *domain.User
	if args.Get(0) != nil {
		user = args.Get(0).(*domain.User)
	}
	return user, args.Error(1)
}

func (m *MockUserRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.FindUserByEmailFn != nil {
		return m.FindUserByEmailFn(ctx, email)
	}
	args := m.Called(ctx, email)
	var user *domain.User
	if args.Get(0) != nil {
		user = args.Get(0).(*domain.User)
	}
	return user, args.Error(1)
}

func (m *MockUserRepository) UpdateUser(ctx context.Context, user domain.User) error {
	if m.UpdateUserFn != nil {
		return m.UpdateUserFn(ctx, user)
	}
	args := m.Called(ctx, user)
	return args.Error(0)
}

// --- Fake Notifier ---
type sentMail struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type fakeNotifier struct {
	sent    []sentMail
	failErr error
}

func (n *fakeNotifier) Send(_ context.Context, to, subject, textBody, htmlBody string) error {
	if n.failErr != nil {
		return n.failErr
	}
	n.sent = append(n.sent, sentMail{To: to, Subject: subject, Text: textBody, HTML: htmlBody})
	return nil
}

// --- Test Suite ---
type UserServiceTestSuite struct {
	suite.Suite
	mockUserRepo *MockUserRepository
	notifier     *fakeNotifier
	service      portssvc.UserSvcFacade
}

func (suite *UserServiceTestSuite) SetupTest() {
	suite.mockUserRepo = new(MockUserRepository)
	suite.notifier = &fakeNotifier{}
	suite.service = services.NewUserServiceImpl(suite.mockUserRepo, suite.notifier, 10*time.Minute)
}

// --- RegisterUser ---

func (suite *UserServiceTestSuite) TestRegisterUser_Success() {
	ctx := context.Background()
	req := dto.RegisterRequest{
		FirstName: "Sipho",
		LastName:  "Dlamini",
		Email:     "sipho@example.com",
		Password:  "correct-horse-battery",
	}

	suite.mockUserRepo.On("SaveUser", ctx, mock.MatchedBy(func(user domain.User) bool {
		return user.Email == req.Email &&
			user.Role == domain.RoleApplicant &&
			user.PasswordHash != req.Password &&
			utils.CheckPasswordHash(req.Password, user.PasswordHash)
	})).Return(nil).Once()

	user, err := suite.service.RegisterUser(ctx, req)

	suite.Require().NoError(err)
	suite.Require().NotNil(user)
	suite.NotEmpty(user.UserID)
	suite.Equal(domain.RoleApplicant, user.Role)
	suite.Equal("Sipho Dlamini", user.FullName())
	suite.mockUserRepo.AssertExpectations(suite.T())
}

func (suite *UserServiceTestSuite) TestRegisterUser_DuplicateEmail() {
	ctx := context.Background()
	req := dto.RegisterRequest{
		FirstName: "Sipho",
		LastName:  "Dlamini",
		Email:     "sipho@example.com",
		Password:  "correct-horse-battery",
	}

	suite.mockUserRepo.On("SaveUser", ctx, mock.AnythingOfType("domain.User")).Return(apperrors.ErrDuplicate).Once()

	user, err := suite.service.RegisterUser(ctx, req)

	suite.Require().Error(err)
	suite.Nil(user)
	suite.ErrorIs(err, apperrors.ErrDuplicate)
}

// --- Authenticate ---

func (suite *UserServiceTestSuite) TestAuthenticate_Success() {
	ctx := context.Background()
	password := "s3cret-enough"
	hash, err := utils.HashPassword(password)
	suite.Require().NoError(err)

	stored := &domain.User{
		UserID:       uuid.NewString(),
		Email:        "admin@knmbursary.org",
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
	}
	suite.mockUserRepo.On("FindUserByEmail", ctx, stored.Email).Return(stored, nil).Once()

	user, err := suite.service.Authenticate(ctx, stored.Email, password)

	suite.Require().NoError(err)
	suite.Equal(stored.UserID, user.UserID)
	suite.True(user.IsAdmin())
}

func (suite *UserServiceTestSuite) TestAuthenticate_WrongPassword() {
	ctx := context.Background()
	hash, err := utils.HashPassword("the-real-password")
	suite.Require().NoError(err)

	stored := &domain.User{UserID: uuid.NewString(), Email: "sipho@example.com", PasswordHash: hash}
	suite.mockUserRepo.On("FindUserByEmail", ctx, stored.Email).Return(stored, nil).Once()

	user, err := suite.service.Authenticate(ctx, stored.Email, "a-guess")

	suite.Require().Error(err)
	suite.Nil(user)
	suite.ErrorIs(err, apperrors.ErrForbidden)
}

func (suite *UserServiceTestSuite) TestAuthenticate_UnknownEmailSameError() {
	ctx := context.Background()
	suite.mockUserRepo.On("FindUserByEmail", ctx, "nobody@example.com").Return(nil, apperrors.ErrNotFound).Once()

	user, err := suite.service.Authenticate(ctx, "nobody@example.com", "whatever")

	suite.Require().Error(err)
	suite.Nil(user)
	// Indistinguishable from a wrong password.
	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.NotErrorIs(err, apperrors.ErrNotFound)
}

// --- Password reset flow ---

func (suite *UserServiceTestSuite) TestStartPasswordReset_StoresHashAndSendsCode() {
	ctx := context.Background()
	stored := &domain.User{
		UserID:    uuid.NewString(),
		FirstName: "Thandi",
		Email:     "thandi@example.com",
	}

	var saved domain.User
	suite.mockUserRepo.FindUserByEmailFn = func(context.Context, string) (*domain.User, error) {
		u := *stored
		return &u, nil
	}
	suite.mockUserRepo.UpdateUserFn = func(_ context.Context, user domain.User) error {
		saved = user
		return nil
	}

	err := suite.service.StartPasswordReset(ctx, stored.Email)

	suite.Require().NoError(err)
	suite.Require().Len(suite.notifier.sent, 1)
	mail := suite.notifier.sent[0]
	suite.Equal(stored.Email, mail.To)
	suite.Contains(mail.Subject, "Password Reset")

	// The stored hash must correspond to the emailed code, and the raw code
	// must never be persisted.
	suite.NotEmpty(saved.ResetCodeHash)
	suite.NotContains(mail.Text, saved.ResetCodeHash)
	suite.Require().NotNil(saved.ResetCodeExpires)
	suite.False(saved.IsCodeVerified)

	code := extractSixDigitCode(mail.Text)
	suite.Require().Len(code, 6)
	suite.Equal(utils.HashResetCode(code), saved.ResetCodeHash)
}

func (suite *UserServiceTestSuite) TestStartPasswordReset_UnknownEmailReportsSuccess() {
	ctx := context.Background()
	suite.mockUserRepo.On("FindUserByEmail", ctx, "nobody@example.com").Return(nil, apperrors.ErrNotFound).Once()

	err := suite.service.StartPasswordReset(ctx, "nobody@example.com")

	suite.Require().NoError(err)
	suite.Empty(suite.notifier.sent)
}

func (suite *UserServiceTestSuite) TestStartPasswordReset_DeliveryFailureStillSucceeds() {
	ctx := context.Background()
	stored := &domain.User{UserID: uuid.NewString(), Email: "thandi@example.com"}

	suite.mockUserRepo.FindUserByEmailFn = func(context.Context, string) (*domain.User, error) {
		u := *stored
		return &u, nil
	}
	suite.mockUserRepo.UpdateUserFn = func(context.Context, domain.User) error { return nil }
	suite.notifier.failErr = apperrors.ErrDeliveryFailed

	err := suite.service.StartPasswordReset(ctx, stored.Email)

	// The code is stored; the caller sees success and may retry delivery.
	suite.Require().NoError(err)
}

func (suite *UserServiceTestSuite) TestVerifyResetCode_Flow() {
	ctx := context.Background()
	code := "421357"
	expires := time.Now().Add(5 * time.Minute)
	stored := &domain.User{
		UserID:           uuid.NewString(),
		Email:            "thandi@example.com",
		ResetCodeHash:    utils.HashResetCode(code),
		ResetCodeExpires: &expires,
	}

	var saved domain.User
	suite.mockUserRepo.FindUserByEmailFn = func(context.Context, string) (*domain.User, error) {
		u := *stored
		return &u, nil
	}
	suite.mockUserRepo.UpdateUserFn = func(_ context.Context, user domain.User) error {
		saved = user
		return nil
	}

	// Wrong code first.
	err := suite.service.VerifyResetCode(ctx, stored.Email, "000000")
	suite.ErrorIs(err, apperrors.ErrForbidden)

	// Then the right one.
	err = suite.service.VerifyResetCode(ctx, stored.Email, code)
	suite.Require().NoError(err)
	suite.True(saved.IsCodeVerified)
}

func (suite *UserServiceTestSuite) TestVerifyResetCode_Expired() {
	ctx := context.Background()
	code := "421357"
	expires := time.Now().Add(-time.Minute)
	stored := &domain.User{
		UserID:           uuid.NewString(),
		Email:            "thandi@example.com",
		ResetCodeHash:    utils.HashResetCode(code),
		ResetCodeExpires: &expires,
	}
	suite.mockUserRepo.FindUserByEmailFn = func(context.Context, string) (*domain.User, error) {
		u := *stored
		return &u, nil
	}

	err := suite.service.VerifyResetCode(ctx, stored.Email, code)
	suite.ErrorIs(err, apperrors.ErrForbidden)
}

func (suite *UserServiceTestSuite) TestResetPassword_RequiresVerifiedCode() {
	ctx := context.Background()
	expires := time.Now().Add(5 * time.Minute)
	stored := &domain.User{
		UserID:           uuid.NewString(),
		Email:            "thandi@example.com",
		ResetCodeHash:    utils.HashResetCode("421357"),
		ResetCodeExpires: &expires,
		IsCodeVerified:   false,
	}
	suite.mockUserRepo.FindUserByEmailFn = func(context.Context, string) (*domain.User, error) {
		u := *stored
		return &u, nil
	}

	err := suite.service.ResetPassword(ctx, stored.Email, "brand-new-password")
	suite.ErrorIs(err, apperrors.ErrForbidden)
}

func (suite *UserServiceTestSuite) TestResetPassword_Success() {
	ctx := context.Background()
	expires := time.Now().Add(5 * time.Minute)
	oldHash, err := utils.HashPassword("old-password")
	suite.Require().NoError(err)
	stored := &domain.User{
		UserID:           uuid.NewString(),
		Email:            "thandi@example.com",
		PasswordHash:     oldHash,
		ResetCodeHash:    utils.HashResetCode("421357"),
		ResetCodeExpires: &expires,
		IsCodeVerified:   true,
	}

	var saved domain.User
	suite.mockUserRepo.FindUserByEmailFn = func(context.Context, string) (*domain.User, error) {
		u := *stored
		return &u, nil
	}
	suite.mockUserRepo.UpdateUserFn = func(_ context.Context, user domain.User) error {
		saved = user
		return nil
	}

	err = suite.service.ResetPassword(ctx, stored.Email, "brand-new-password")

	suite.Require().NoError(err)
	suite.True(utils.CheckPasswordHash("brand-new-password", saved.PasswordHash))
	suite.Empty(saved.ResetCodeHash)
	suite.Nil(saved.ResetCodeExpires)
	suite.False(saved.IsCodeVerified)
}

// extractSixDigitCode pulls the first standalone 6-digit run out of an email body.
func extractSixDigitCode(body string) string {
	for _, field := range strings.Fields(body) {
		if len(field) == 6 {
			allDigits := true
			for _, r := range field {
				if r < '0' || r > '9' {
					allDigits = false
					break
				}
			}
			if allDigits {
				return field
			}
		}
	}
	return ""
}

func TestUserServiceTestSuite(t *testing.T) {
	suite.Run(t, new(UserServiceTestSuite))
}
