package service

import (
	"errors"

	"linenloft/internal/domain/user/model"
	"linenloft/internal/domain/user/repository"
	"linenloft/pkg/apperrors"
	"linenloft/pkg/utils"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserService 用户服务接口
type UserService interface {
	Register(email, password, name string) (string, error)
	Login(email, password string) (string, error)
	GetUser(id string) (*model.User, error)
	GetUsers(page, limit int) ([]model.User, int64, error)
	UpdateProfile(id string, name string) (*model.User, error)
}

// userService 实现
type userService struct {
	repo repository.UserRepository
}

// NewUserService 创建用户服务
func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

// Register 注册并返回 Token
func (s *userService) Register(email, password, name string) (string, error) {
	// 1. 邮箱查重
	if _, err := s.repo.GetByEmail(email); err == nil {
		return "", apperrors.New(apperrors.KindValidation, "email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	// 2. 密码哈希
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	user := &model.User{
		Email:    email,
		Password: string(hash),
		Name:     name,
		Role:     model.RoleCustomer,
		Status:   model.StatusNormal,
	}
	if err := s.repo.Create(user); err != nil {
		return "", err
	}

	// 3. 生成 Token
	token, _, err := utils.GenerateToken(user.ID, user.Role)
	return token, err
}

// Login 登录并返回 Token
func (s *userService) Login(email, password string) (string, error) {
	user, err := s.repo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 不区分"账号不存在"和"密码错误"
			return "", apperrors.New(apperrors.KindUnauthenticated, "invalid email or password")
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", apperrors.New(apperrors.KindUnauthenticated, "invalid email or password")
	}

	if user.Status == model.StatusBanned {
		return "", apperrors.New(apperrors.KindUnauthenticated, "account is banned")
	}

	token, _, err := utils.GenerateToken(user.ID, user.Role)
	return token, err
}

// GetUser 获取单个用户
func (s *userService) GetUser(id string) (*model.User, error) {
	user, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// GetUsers 获取用户列表（分页，后台用）
func (s *userService) GetUsers(page, limit int) ([]model.User, int64, error) {
	p := utils.Pagination{Page: page, Limit: limit}
	offset, limit := p.GetPageOffset()
	return s.repo.GetList(offset, limit)
}

// UpdateProfile 更新用户资料
func (s *userService) UpdateProfile(id string, name string) (*model.User, error) {
	user, err := s.GetUser(id)
	if err != nil {
		return nil, err
	}

	user.Name = name
	if err := s.repo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}
