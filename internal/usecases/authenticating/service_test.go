package authenticating

import (
	"testing"

	"github.com/rmonteiro89/sales-analytics-api/infrastructure/repository/mocks"
	"github.com/rmonteiro89/sales-analytics-api/internal/config"
	"github.com/rmonteiro89/sales-analytics-api/internal/domain"
	"github.com/rmonteiro89/sales-analytics-api/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuthenticator(t *testing.T) (Authenticator, *mocks.MockUserRepository, *session.Manager) {
	ctrl := gomock.NewController(t)
	userRepo := mocks.NewMockUserRepository(ctrl)
	sessions := session.NewManager()

	cfg := &config.Config{SecretKey: "test-secret"}

	return NewService(userRepo, sessions, cfg), userRepo, sessions
}

func hashOf(t *testing.T, password string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestRegisterUser(t *testing.T) {
	t.Run("Registro bem-sucedido", func(t *testing.T) {
		service, userRepo, _ := newTestAuthenticator(t)

		userRepo.EXPECT().
			CreateUser(gomock.Any()).
			DoAndReturn(func(user *domain.User) (bool, error) {
				assert.Equal(t, "maria", user.Username)
				assert.Equal(t, domain.RoleSalesRep, user.Role)
				assert.NotEqual(t, "senha123", user.PasswordHash)
				return true, nil
			})

		user, err := service.RegisterUser("maria", "senha123", domain.RoleSalesRep)
		require.NoError(t, err)
		assert.Equal(t, "maria", user.Username)
	})

	t.Run("Nome duplicado falha sem mutação", func(t *testing.T) {
		service, userRepo, _ := newTestAuthenticator(t)

		userRepo.EXPECT().CreateUser(gomock.Any()).Return(false, nil)

		_, err := service.RegisterUser("maria", "senha123", domain.RoleSalesRep)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUserAlreadyExists)
	})

	t.Run("Marcação hostil é removida do nome antes de armazenar", func(t *testing.T) {
		service, userRepo, _ := newTestAuthenticator(t)

		userRepo.EXPECT().
			CreateUser(gomock.Any()).
			DoAndReturn(func(user *domain.User) (bool, error) {
				assert.Equal(t, "mallory", user.Username)
				return true, nil
			})

		_, err := service.RegisterUser("<script>alert(1)</script>mallory", "senha123", domain.RoleOwner)
		require.NoError(t, err)
	})

	t.Run("Papel fora do enum fechado é rejeitado", func(t *testing.T) {
		service, _, _ := newTestAuthenticator(t)

		_, err := service.RegisterUser("maria", "senha123", domain.Role("Admin"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidRole)
	})

	t.Run("Dados obrigatórios ausentes", func(t *testing.T) {
		service, _, _ := newTestAuthenticator(t)

		_, err := service.RegisterUser("", "senha123", domain.RoleOwner)
		assert.ErrorIs(t, err, ErrMissingRequiredData)

		_, err = service.RegisterUser("maria", "", domain.RoleOwner)
		assert.ErrorIs(t, err, ErrMissingRequiredData)
	})
}

func TestLoginUser(t *testing.T) {
	t.Run("Login bem-sucedido abre sessão e emite token válido", func(t *testing.T) {
		service, userRepo, sessions := newTestAuthenticator(t)

		userRepo.EXPECT().GetUserByUsername("maria").Return(&domain.User{
			Username:     "maria",
			PasswordHash: hashOf(t, "senha123"),
			Role:         domain.RoleSalesRep,
		}, nil)

		token, sess, err := service.LoginUser("maria", "senha123")
		require.NoError(t, err)
		require.NotNil(t, sess)
		assert.Equal(t, domain.RoleSalesRep, sess.Identity.Role)

		// A sessão fica registrada no gerenciador
		found, err := sessions.Get(sess.ID)
		require.NoError(t, err)
		assert.Equal(t, sess, found)

		// O token carrega a identidade e o ID da sessão
		claims, err := service.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, "maria", claims.Username)
		assert.Equal(t, string(domain.RoleSalesRep), claims.Role)
		assert.Equal(t, sess.ID, claims.SessionID)
	})

	t.Run("Senha incorreta", func(t *testing.T) {
		service, userRepo, _ := newTestAuthenticator(t)

		userRepo.EXPECT().GetUserByUsername("maria").Return(&domain.User{
			Username:     "maria",
			PasswordHash: hashOf(t, "senha123"),
			Role:         domain.RoleSalesRep,
		}, nil)

		_, _, err := service.LoginUser("maria", "outra-senha")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("Usuário inexistente", func(t *testing.T) {
		service, userRepo, _ := newTestAuthenticator(t)

		userRepo.EXPECT().GetUserByUsername("fantasma").Return(nil, nil)

		_, _, err := service.LoginUser("fantasma", "senha123")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestLogout(t *testing.T) {
	service, userRepo, sessions := newTestAuthenticator(t)

	userRepo.EXPECT().GetUserByUsername("maria").Return(&domain.User{
		Username:     "maria",
		PasswordHash: hashOf(t, "senha123"),
		Role:         domain.RoleOwner,
	}, nil)

	_, sess, err := service.LoginUser("maria", "senha123")
	require.NoError(t, err)

	service.Logout(sess.ID)

	// Sessão e cache descartados
	_, err = sessions.Get(sess.ID)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestValidateToken(t *testing.T) {
	service, _, _ := newTestAuthenticator(t)

	t.Run("Token adulterado é rejeitado", func(t *testing.T) {
		_, err := service.ValidateToken("cabecalho.corpo.assinatura")
		assert.Error(t, err)
	})

	t.Run("Token vazio é rejeitado", func(t *testing.T) {
		_, err := service.ValidateToken("")
		assert.Error(t, err)
	})
}
