package authenticating

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rmonteiro89/sales-analytics-api/infrastructure/repository"
	"github.com/rmonteiro89/sales-analytics-api/internal/config"
	"github.com/rmonteiro89/sales-analytics-api/internal/domain"
	"github.com/rmonteiro89/sales-analytics-api/internal/session"
	errorcodes "github.com/rmonteiro89/sales-analytics-api/pkg/apiErrors"
	"golang.org/x/crypto/bcrypt"
)

// Authenticator registra usuários e autentica sessões. A verificação de
// senha acontece aqui; o núcleo analítico recebe a identidade já pronta.
type Authenticator interface {
	RegisterUser(username, password string, role domain.Role) (*domain.User, error)
	LoginUser(username, password string) (string, *session.Session, error)
	Logout(sessionID string)
	ValidateToken(tokenString string) (*domain.Claims, error)
}

type Service struct {
	userRepo  repository.UserRepository
	sessions  *session.Manager
	sanitizer *bluemonday.Policy
	cfg       *config.Config
}

func NewService(userRepo repository.UserRepository, sessions *session.Manager, cfg *config.Config) Authenticator {
	return &Service{
		userRepo: userRepo,
		sessions: sessions,
		// Política estrita: remove qualquer marcação do nome de usuário
		// antes de armazenar ou consultar
		sanitizer: bluemonday.StrictPolicy(),
		cfg:       cfg,
	}
}

// sanitizeUsername remove caracteres significativos de marcação do nome
// de usuário. Entrada hostil nunca chega ao armazenamento nem à consulta
// de forma interpretável como marcação.
func (s *Service) sanitizeUsername(username string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(username))
}

// RegisterUser cria uma conta nova. Nomes duplicados falham sem mutação.
func (s *Service) RegisterUser(username, password string, role domain.Role) (*domain.User, error) {
	username = s.sanitizeUsername(username)
	if username == "" || password == "" {
		return nil, NewAuthError(ErrMissingRequiredData, errorcodes.ErrMissingRequiredData, "Nome de usuário e senha são obrigatórios")
	}

	if _, err := domain.ParseRole(string(role)); err != nil {
		return nil, NewAuthError(ErrInvalidRole, errorcodes.ErrInvalidFormat, err.Error())
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(hashedPassword),
		Role:         role,
	}

	created, err := s.userRepo.CreateUser(user)
	if err != nil {
		return nil, NewAuthError(err, errorcodes.ErrDatabaseOperation, "Erro ao criar usuário")
	}
	if !created {
		return nil, NewAuthError(ErrUserAlreadyExists, errorcodes.ErrUserAlreadyExists, "Nome de usuário já cadastrado")
	}

	return user, nil
}

// LoginUser verifica as credenciais, abre a sessão e emite o token JWT
func (s *Service) LoginUser(username, password string) (string, *session.Session, error) {
	username = s.sanitizeUsername(username)
	if username == "" || password == "" {
		return "", nil, NewAuthError(ErrMissingRequiredData, errorcodes.ErrMissingRequiredData, "Nome de usuário e senha são obrigatórios")
	}

	user, err := s.userRepo.GetUserByUsername(username)
	if err != nil {
		return "", nil, NewAuthError(err, errorcodes.ErrDatabaseOperation, "Erro ao consultar usuário")
	}
	if user == nil {
		return "", nil, NewAuthError(ErrUserNotFound, errorcodes.ErrUserNotFound, "Usuário não encontrado")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, NewAuthError(ErrInvalidCredentials, errorcodes.ErrInvalidCredentials, "Senha incorreta")
	}

	sess, err := s.sessions.Create(domain.Identity{
		Username: user.Username,
		Role:     user.Role,
	})
	if err != nil {
		return "", nil, NewAuthError(err, errorcodes.ErrInternalServer, "Erro ao abrir sessão")
	}

	token, err := generateJWT(user, sess.ID, s.cfg.SecretKey)
	if err != nil {
		s.sessions.Discard(sess.ID)
		return "", nil, NewAuthError(err, errorcodes.ErrInternalServer, "Erro ao gerar token de autenticação")
	}

	return token, sess, nil
}

// Logout descarta a sessão e seu cache
func (s *Service) Logout(sessionID string) {
	s.sessions.Discard(sessionID)
}

func generateJWT(user *domain.User, sessionID, secretKey string) (string, error) {
	claims := domain.Claims{
		Username:  user.Username,
		Role:      string(user.Role),
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secretKey))
}

// ValidateToken verifica a assinatura e devolve as claims
func (s *Service) ValidateToken(tokenString string) (*domain.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &domain.Claims{}, func(token *jwt.Token) (interface{}, error) {
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
		return nil, ErrInvalidToken
	}

	return claims, nil
}
