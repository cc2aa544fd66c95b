// Package authenticating cuida do ciclo de vida de usuários e sessões:
// cadastro, login com JWT, validação de token e gestão de senhas.
package authenticating

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/vfarias/sales-analytics-api/infrastructure/repository"
	"github.com/vfarias/sales-analytics-api/internal/config"
	"github.com/vfarias/sales-analytics-api/internal/domain"
	errorcodes "github.com/vfarias/sales-analytics-api/pkg/apiErrors"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenTTL = 24 * time.Hour

	lowerChars   = "abcdefghijklmnopqrstuvwxyz"
	upperChars   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	numberChars  = "0123456789"
	specialChars = "!@#$%^&*()-_=+[]{}|;:,.<>?"
)

type Authenticator interface {
	CreateUser(user *domain.User) (*domain.User, error)
	UpdateUser(user *domain.UpdateUserRequest) error
	ListUser() ([]*domain.User, error)
	LoginUser(email, password string) (string, error)
	GetUserProfile(userID int) (*domain.User, error)
	ValidateToken(tokenString string) (*domain.Claims, error)
	GenerateStrongPassword(requestUserID, targetUserID int) (string, error)
	ChangePassword(userID int, currentPassword, newPassword string) error
	ValidatePasswordStrength(password string) error
}

type Service struct {
	userRepo repository.UserRepository
	cfg      *config.Config
}

func NewService(userRepo repository.UserRepository, cfg *config.Config) Authenticator {
	return &Service{
		userRepo: userRepo,
		cfg:      cfg,
	}
}

// CreateUser cadastra o usuário com email normalizado e senha em bcrypt.
// Contas novas nascem inativas e com papel de analista, salvo indicação.
func (s *Service) CreateUser(user *domain.User) (*domain.User, error) {
	if user.Email == "" || user.Name == "" || user.Lastname == "" || user.PasswordHash == "" {
		return nil, NewAuthError(ErrMissingRequiredData, errorcodes.ErrMissingRequiredData, "Email, nome, sobrenome e senha são obrigatórios")
	}

	user.Email = normalizeEmail(user.Email)

	existing, err := s.userRepo.GetUserByEmail(user.Email)
	if err != nil {
		return nil, NewAuthError(err, errorcodes.ErrDatabaseOperation, "Erro ao consultar usuário no banco de dados")
	}
	if existing != nil {
		return nil, NewAuthError(ErrUserAlreadyExists, errorcodes.ErrUserAlreadyExists, "Email já cadastrado")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(user.PasswordHash), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = string(hashed)

	if user.RoleID == 0 {
		user.RoleID = domain.RoleAnalyst
	}
	user.Active = false

	created, err := s.userRepo.CreateUser(user)
	if err != nil {
		return nil, NewAuthError(err, errorcodes.ErrDatabaseOperation, "Erro ao criar usuário")
	}

	return created, nil
}

// UpdateUser aplica apenas os campos presentes na requisição sobre o
// registro atual.
func (s *Service) UpdateUser(user *domain.UpdateUserRequest) error {
	if user.ID == 0 {
		return errors.New("ID is required")
	}

	current, err := s.userRepo.GetUserByID(user.ID)
	if err != nil {
		return err
	}
	if current == nil {
		return fmt.Errorf("user not found to ID: %d", user.ID)
	}

	if user.Name != nil {
		current.Name = *user.Name
	}
	if user.Lastname != nil {
		current.Lastname = *user.Lastname
	}
	if user.Email != nil {
		current.Email = normalizeEmail(*user.Email)
	}
	if user.Active != nil {
		current.Active = *user.Active
	}
	if user.RoleID != nil {
		current.RoleID = *user.RoleID
	}
	if user.Deleted != nil {
		now := time.Now()
		current.Deleted = *user.Deleted
		current.DeletedAt = &now
	}

	return s.userRepo.UpdateUser(current)
}

func (s *Service) ListUser() ([]*domain.User, error) {
	return s.userRepo.ListUser()
}

// LoginUser valida as credenciais e emite o token JWT da sessão.
func (s *Service) LoginUser(email, password string) (string, error) {
	if email == "" || password == "" {
		return "", NewAuthError(ErrMissingRequiredData, errorcodes.ErrMissingRequiredData, "Email e senha são obrigatórios")
	}

	user, err := s.userRepo.GetUserByEmail(normalizeEmail(email))
	if err != nil {
		return "", NewAuthError(err, errorcodes.ErrDatabaseOperation, "Erro ao consultar usuário no banco de dados")
	}
	if user == nil {
		return "", NewAuthError(ErrUserNotFound, errorcodes.ErrUserNotFound, "Usuário não encontrado")
	}
	if !user.Active {
		return "", NewUserAuthError(ErrUserDisabled, errorcodes.ErrUserDisabled, user.ID, "Conta desativada")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", NewUserAuthError(ErrInvalidCredentials, errorcodes.ErrInvalidCredentials, user.ID, "Senha incorreta")
	}

	token, err := s.signToken(user)
	if err != nil {
		return "", NewAuthError(err, errorcodes.ErrInternalServer, "Erro ao gerar token de autenticação")
	}

	return token, nil
}

func (s *Service) GetUserProfile(userID int) (*domain.User, error) {
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		logrus.Error(err)
		return nil, err
	}
	if user != nil {
		user.PasswordHash = ""
	}

	return user, nil
}

func (s *Service) signToken(user *domain.User) (string, error) {
	claims := domain.Claims{
		UserID:     user.ID,
		UserName:   user.Name,
		UserEmail:  user.Email,
		UserActive: user.Active,
		UserRoleID: user.RoleID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.SecretKey))
}

// ValidateToken verifica assinatura e validade do JWT e devolve as claims.
func (s *Service) ValidateToken(tokenString string) (*domain.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &domain.Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*domain.Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

// GenerateStrongPassword redefine a senha do usuário alvo com uma senha
// gerada; exige que o solicitante seja administrador.
func (s *Service) GenerateStrongPassword(requestUserID, targetUserID int) (string, error) {
	requester, err := s.userRepo.GetUserByID(requestUserID)
	if err != nil {
		return "", err
	}
	if requester == nil {
		return "", errors.New("usuário solicitante não encontrado")
	}
	if requester.RoleID != domain.RoleAdmin {
		return "", ErrNoAdminPrivileges
	}

	target, err := s.userRepo.GetUserByID(targetUserID)
	if err != nil {
		return "", err
	}
	if target == nil {
		return "", errors.New("usuário alvo não encontrado")
	}

	newPassword, err := randomPassword(12)
	if err != nil {
		return "", err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	target.PasswordHash = string(hashed)
	if err := s.userRepo.UpdateUser(target); err != nil {
		return "", err
	}

	return newPassword, nil
}

// ChangePassword troca a senha do próprio usuário após conferir a atual e
// a força da nova.
func (s *Service) ChangePassword(userID int, currentPassword, newPassword string) error {
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return errors.New("usuário não encontrado")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return errors.New("senha atual incorreta")
	}

	if err := s.ValidatePasswordStrength(newPassword); err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user.PasswordHash = string(hashed)
	return s.userRepo.UpdateUser(user)
}

// ValidatePasswordStrength exige no mínimo 8 caracteres com maiúscula,
// minúscula, número e caractere especial.
func (s *Service) ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return errors.New("a senha deve conter pelo menos 8 caracteres")
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, char := range password {
		switch {
		case strings.ContainsRune(lowerChars, char):
			hasLower = true
		case strings.ContainsRune(upperChars, char):
			hasUpper = true
		case strings.ContainsRune(numberChars, char):
			hasNumber = true
		case strings.ContainsRune(specialChars, char):
			hasSpecial = true
		}
	}

	switch {
	case !hasUpper:
		return errors.New("a senha deve conter pelo menos uma letra maiúscula")
	case !hasLower:
		return errors.New("a senha deve conter pelo menos uma letra minúscula")
	case !hasNumber:
		return errors.New("a senha deve conter pelo menos um número")
	case !hasSpecial:
		return errors.New("a senha deve conter pelo menos um caractere especial")
	}

	return nil
}

func normalizeEmail(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(strings.ToLower(s)), " ", "")
}

// randomPassword gera uma senha com pelo menos um caractere de cada classe,
// embaralhada com aleatoriedade criptográfica.
func randomPassword(length int) (string, error) {
	if length < 8 {
		length = 8
	}

	classes := []string{lowerChars, upperChars, numberChars, specialChars}
	allChars := strings.Join(classes, "")

	password := make([]byte, length)
	for i := range password {
		charset := allChars
		if i < len(classes) {
			charset = classes[i]
		}
		char, err := randomChar(charset)
		if err != nil {
			return "", err
		}
		password[i] = char
	}

	for i := range password {
		j, err := randomInt(int64(len(password)))
		if err != nil {
			return "", err
		}
		password[i], password[j] = password[j], password[i]
	}

	return string(password), nil
}

func randomChar(charset string) (byte, error) {
	n, err := randomInt(int64(len(charset)))
	if err != nil {
		return 0, err
	}
	return charset[n], nil
}

func randomInt(max int64) (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(max))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()), nil
}
