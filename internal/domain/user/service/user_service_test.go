package service

import (
	"testing"

	"linenloft/internal/domain/user/model"
	"linenloft/internal/pkg/config"
	"linenloft/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// MockUserRepository is a mock of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *model.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(id string) (*model.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(email string) (*model.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetList(offset, limit int) ([]model.User, int64, error) {
	args := m.Called(offset, limit)
	return args.Get(0).([]model.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) Update(user *model.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func TestMain(m *testing.M) {
	config.GlobalConfig.JWT.Secret = "test-secret"
	config.GlobalConfig.JWT.Expire = 24
	m.Run()
}

func hashOf(password string) string {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(hash)
}

func TestRegister(t *testing.T) {
	t.Run("New email registers and gets a token", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		svc := NewUserService(mockRepo)

		mockRepo.On("GetByEmail", "new@example.com").Return(nil, gorm.ErrRecordNotFound)
		mockRepo.On("Create", mock.AnythingOfType("*model.User")).Return(nil)

		token, err := svc.Register("new@example.com", "password123", "Jamie")

		assert.NoError(t, err)
		assert.NotEmpty(t, token)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Duplicate email is rejected", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		svc := NewUserService(mockRepo)

		existing := &model.User{Email: "dup@example.com"}
		mockRepo.On("GetByEmail", "dup@example.com").Return(existing, nil)

		_, err := svc.Register("dup@example.com", "password123", "Jamie")

		assert.True(t, apperrors.Is(err, apperrors.KindValidation))
		mockRepo.AssertNotCalled(t, "Create", mock.Anything)
	})
}

func TestLogin(t *testing.T) {
	t.Run("Valid credentials return a token", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		svc := NewUserService(mockRepo)

		user := &model.User{Email: "a@example.com", Password: hashOf("secret1"), Role: model.RoleCustomer, Status: model.StatusNormal}
		user.ID = "u1"
		mockRepo.On("GetByEmail", "a@example.com").Return(user, nil)

		token, err := svc.Login("a@example.com", "secret1")

		assert.NoError(t, err)
		assert.NotEmpty(t, token)
	})

	t.Run("Wrong password and unknown email are indistinguishable", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		svc := NewUserService(mockRepo)

		user := &model.User{Email: "a@example.com", Password: hashOf("secret1"), Status: model.StatusNormal}
		mockRepo.On("GetByEmail", "a@example.com").Return(user, nil)
		mockRepo.On("GetByEmail", "nobody@example.com").Return(nil, gorm.ErrRecordNotFound)

		_, errWrongPass := svc.Login("a@example.com", "wrong")
		_, errNoUser := svc.Login("nobody@example.com", "whatever")

		assert.Equal(t, errWrongPass.Error(), errNoUser.Error())
		assert.True(t, apperrors.Is(errWrongPass, apperrors.KindUnauthenticated))
		assert.True(t, apperrors.Is(errNoUser, apperrors.KindUnauthenticated))
	})

	t.Run("Banned account cannot log in", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		svc := NewUserService(mockRepo)

		user := &model.User{Email: "a@example.com", Password: hashOf("secret1"), Status: model.StatusBanned}
		mockRepo.On("GetByEmail", "a@example.com").Return(user, nil)

		_, err := svc.Login("a@example.com", "secret1")

		assert.True(t, apperrors.Is(err, apperrors.KindUnauthenticated))
	})
}

func TestUpdateProfile(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := NewUserService(mockRepo)

	user := &model.User{Email: "a@example.com", Name: "Old"}
	user.ID = "u1"
	mockRepo.On("GetByID", "u1").Return(user, nil)
	mockRepo.On("Update", mock.AnythingOfType("*model.User")).Return(nil)

	got, err := svc.UpdateProfile("u1", "New Name")

	assert.NoError(t, err)
	assert.Equal(t, "New Name", got.Name)
	mockRepo.AssertExpectations(t)
}

func TestGetUserNotFound(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := NewUserService(mockRepo)

	mockRepo.On("GetByID", "nope").Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.GetUser("nope")

	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}
