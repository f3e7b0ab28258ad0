package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	"github.com/rmonteiro89/sales-analytics-api/infrastructure/database/postgres"
	"github.com/rmonteiro89/sales-analytics-api/internal/domain"
	"github.com/rmonteiro89/sales-analytics-api/pkg/utils"
)

const salesTable = "sales"

// ErrSaleNotFound indica que o ID alvo de uma mutação não existe.
// Mutações rejeitadas não têm efeito parcial.
var ErrSaleNotFound = errors.New("venda não encontrada")

type SaleRepository interface {
	CreateSale(sale *domain.SaleRecord) (int64, error)
	GetSaleByID(id int64) (*domain.SaleRecord, error)
	ListSales() ([]*domain.SaleRecord, error)
	UpdateSale(id int64, sale *domain.SaleRecord) error
	DeleteSale(id int64) error
	ReplaceAll(ctx context.Context, sales []*domain.SaleRecord) error
}

type saleRepository struct {
	conn *postgres.Connection
}

func NewSaleRepository(conn *postgres.Connection) SaleRepository {
	return &saleRepository{
		conn: conn,
	}
}

func (r *saleRepository) CreateSale(sale *domain.SaleRecord) (int64, error) {
	query, args, err := squirrel.
		Insert(salesTable).
		Columns("sales_person", "country", "product", "date", "amount", "boxes_shipped", "sale_type").
		Values(
			sale.SalesPerson,
			sale.Country,
			sale.Product,
			sale.Date.Format(time.DateOnly),
			sale.Amount,
			sale.BoxesShipped,
			string(sale.SaleType),
		).
		Suffix("RETURNING id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("erro ao construir a query: %w", err)
	}

	var id int64
	if err := r.conn.QueryRow(query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("erro ao inserir venda: %w", err)
	}

	sale.ID = id
	return id, nil
}

func (r *saleRepository) GetSaleByID(id int64) (*domain.SaleRecord, error) {
	query, args, err := squirrel.
		Select("id", "sales_person", "country", "product", "date", "amount", "boxes_shipped", "sale_type").
		From(salesTable).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	sale, err := scanSale(r.conn.QueryRow(query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSaleNotFound
		}
		return nil, fmt.Errorf("erro ao escanear venda: %w", err)
	}

	return sale, nil
}

func (r *saleRepository) ListSales() ([]*domain.SaleRecord, error) {
	query, args, err := squirrel.
		Select("id", "sales_person", "country", "product", "date", "amount", "boxes_shipped", "sale_type").
		From(salesTable).
		OrderBy("id ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	rows, err := r.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("erro ao executar a query: %w", err)
	}
	defer rows.Close()

	sales := make([]*domain.SaleRecord, 0)
	for rows.Next() {
		sale, err := scanSaleRows(rows)
		if err != nil {
			return nil, fmt.Errorf("erro ao escanear vendas: %w", err)
		}
		sales = append(sales, sale)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro durante a iteração de linhas: %w", err)
	}

	return sales, nil
}

func (r *saleRepository) UpdateSale(id int64, sale *domain.SaleRecord) error {
	query, args, err := squirrel.
		Update(salesTable).
		Set("sales_person", sale.SalesPerson).
		Set("country", sale.Country).
		Set("product", sale.Product).
		Set("date", sale.Date.Format(time.DateOnly)).
		Set("amount", sale.Amount).
		Set("boxes_shipped", sale.BoxesShipped).
		Set("sale_type", string(sale.SaleType)).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("erro ao construir a query: %w", err)
	}

	result, err := r.conn.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("erro ao atualizar venda: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("erro ao obter número de linhas afetadas: %w", err)
	}
	if affected == 0 {
		return ErrSaleNotFound
	}

	return nil
}

func (r *saleRepository) DeleteSale(id int64) error {
	query, args, err := squirrel.
		Delete(salesTable).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("erro ao construir a query: %w", err)
	}

	result, err := r.conn.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("erro ao excluir venda: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("erro ao obter número de linhas afetadas: %w", err)
	}
	if affected == 0 {
		return ErrSaleNotFound
	}

	return nil
}

// ReplaceAll substitui o conteúdo inteiro da tabela de vendas em uma única
// transação. É a sincronização full-replace da ingestão, não um merge.
func (r *saleRepository) ReplaceAll(ctx context.Context, sales []*domain.SaleRecord) error {
	return r.conn.RunInTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM sales"); err != nil {
			return fmt.Errorf("erro ao limpar tabela de vendas: %w", err)
		}

		stmt, err := tx.Prepare(`
			INSERT INTO sales (sales_person, country, product, date, amount, boxes_shipped, sale_type)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id
		`)
		if err != nil {
			return fmt.Errorf("erro ao preparar statement: %w", err)
		}
		defer stmt.Close()

		for _, sale := range sales {
			err := stmt.QueryRow(
				sale.SalesPerson,
				sale.Country,
				sale.Product,
				sale.Date.Format(time.DateOnly),
				sale.Amount,
				sale.BoxesShipped,
				string(sale.SaleType),
			).Scan(&sale.ID)
			if err != nil {
				return fmt.Errorf("erro ao inserir venda: %w", err)
			}
		}

		return nil
	})
}

func scanSale(row *sql.Row) (*domain.SaleRecord, error) {
	sale := &domain.SaleRecord{}
	var date time.Time
	var saleType string

	err := row.Scan(
		&sale.ID,
		&sale.SalesPerson,
		&sale.Country,
		&sale.Product,
		&date,
		&sale.Amount,
		&sale.BoxesShipped,
		&saleType,
	)
	if err != nil {
		return nil, err
	}

	return fillSale(sale, date, saleType)
}

func scanSaleRows(rows *sql.Rows) (*domain.SaleRecord, error) {
	sale := &domain.SaleRecord{}
	var date time.Time
	var saleType string

	err := rows.Scan(
		&sale.ID,
		&sale.SalesPerson,
		&sale.Country,
		&sale.Product,
		&date,
		&sale.Amount,
		&sale.BoxesShipped,
		&saleType,
	)
	if err != nil {
		return nil, err
	}

	return fillSale(sale, date, saleType)
}

func fillSale(sale *domain.SaleRecord, date time.Time, saleType string) (*domain.SaleRecord, error) {
	sale.Date = utils.TruncateToDay(date)

	parsed, err := domain.ParseSaleType(saleType)
	if err != nil {
		return nil, fmt.Errorf("erro ao converter tipo de venda: %w", err)
	}
	sale.SaleType = parsed

	return sale, nil
}
