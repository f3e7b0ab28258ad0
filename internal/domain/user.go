package domain

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role é o papel de acesso de um usuário. Enum fechado: qualquer valor fora
// de Owner/SalesRep é erro de construção, nunca um acesso permissivo.
type Role string

const (
	RoleOwner    Role = "Owner"
	RoleSalesRep Role = "SalesRep"
)

// ParseRole converte uma string em Role, falhando para valores desconhecidos
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleOwner:
		return RoleOwner, nil
	case RoleSalesRep:
		return RoleSalesRep, nil
	default:
		return "", fmt.Errorf("papel desconhecido: %q", s)
	}
}

// User representa uma conta de usuário para controle de acesso
type User struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity é a identidade já autenticada que escopa toda consulta
type Identity struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// Claims são as claims do token JWT emitido no login
type Claims struct {
	Username  string `json:"username"`
	Role      string `json:"role"`
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}
