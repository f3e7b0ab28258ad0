package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/rmonteiro89/sales-analytics-api/infrastructure/database/postgres"
	"github.com/rmonteiro89/sales-analytics-api/internal/domain"
)

const usersTable = "users"

// Código de violação de unicidade do postgres
const uniqueViolationCode = "23505"

type UserRepository interface {
	// CreateUser insere o usuário e retorna false, sem mutação,
	// quando o nome de usuário já existe
	CreateUser(user *domain.User) (bool, error)
	GetUserByUsername(username string) (*domain.User, error)
}

type userRepository struct {
	conn *postgres.Connection
}

func NewUserRepository(conn *postgres.Connection) UserRepository {
	return &userRepository{
		conn: conn,
	}
}

func (r *userRepository) CreateUser(user *domain.User) (bool, error) {
	query, args, err := squirrel.
		Insert(usersTable).
		Columns("username", "password_hash", "role").
		Values(user.Username, user.PasswordHash, string(user.Role)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("erro ao construir a query: %w", err)
	}

	_, err = r.conn.Exec(query, args...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolationCode {
			return false, nil
		}
		return false, fmt.Errorf("erro ao inserir usuário: %w", err)
	}

	return true, nil
}

func (r *userRepository) GetUserByUsername(username string) (*domain.User, error) {
	var user domain.User
	var role string

	err := r.conn.QueryRow(
		"SELECT username, password_hash, role, created_at FROM users WHERE username = $1",
		username,
	).Scan(
		&user.Username,
		&user.PasswordHash,
		&role,
		&user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("erro ao consultar usuário: %w", err)
	}

	parsed, err := domain.ParseRole(role)
	if err != nil {
		// Papel fora do enum fechado é erro de construção, nunca acesso permissivo
		return nil, fmt.Errorf("papel inválido armazenado para %q: %w", username, err)
	}
	user.Role = parsed

	return &user, nil
}
