package services

import (
	"fmt"

	"github.com/Tropical8818/iProTalk/auth"
	"github.com/Tropical8818/iProTalk/errors"
	"github.com/Tropical8818/iProTalk/repositories"
)

type IAuthService interface {
	Register(req auth.RegisterRequest) (Session, error)
	Login(req auth.LoginRequest) (Session, error)
}

// Session is what a client gets back after registering or logging in.
type Session struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

type AuthService struct {
	userRepository repositories.IUserRepository
	tokens         *auth.TokenManager
}

func NewAuthService(repo repositories.IUserRepository, tokens *auth.TokenManager) *AuthService {
	return &AuthService{userRepository: repo, tokens: tokens}
}

func (s *AuthService) Register(req auth.RegisterRequest) (Session, error) {
	// 1. Validate business rules before any expensive cryptographic operation.
	if err := auth.ValidateRegister(req); err != nil {
		return Session{}, err
	}

	// 2. Hash here so the repository never sees plain passwords.
	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return Session{}, fmt.Errorf("hashing failed: %w", err)
	}

	// 3. Persist, propagating ErrUserAlreadyExists.
	user, err := s.userRepository.CreateUser(req.Email, req.Name, hashedPassword)
	if err != nil {
		return Session{}, err
	}

	return s.issue(user)
}

func (s *AuthService) Login(req auth.LoginRequest) (Session, error) {
	if err := auth.Validate(req); err != nil {
		return Session{}, errors.ErrInvalidCredentials
	}
	user, err := s.userRepository.GetUserByEmail(req.Email)
	if err != nil {
		// Same error whether the user exists or not, no enumeration.
		return Session{}, errors.ErrInvalidCredentials
	}
	match, err := auth.ComparePassword(req.Password, user.PasswordHash)
	if err != nil || !match {
		return Session{}, errors.ErrInvalidCredentials
	}
	return s.issue(user)
}

func (s *AuthService) issue(user repositories.User) (Session, error) {
	token, err := s.tokens.GenerateToken(user.ID, user.Name)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", errors.ErrTokenGeneration, err)
	}
	return Session{Token: token, UserID: user.ID, Name: user.Name}, nil
}
