package scoping

import (
	"github.com/rmonteiro89/sales-analytics-api/internal/domain"
	"github.com/sirupsen/logrus"
)

// Resolver restringe o conjunto canônico ao que a identidade pode ver.
// É a fronteira de autorização de leitura: roda antes de qualquer filtro,
// agregação, exportação ou projeção.
type Resolver interface {
	Scope(records []*domain.SaleRecord, identity domain.Identity) []*domain.SaleRecord
}

type Service struct{}

func NewService() Resolver {
	return &Service{}
}

// Scope aplica a regra de visibilidade por papel. Owner enxerga tudo;
// SalesRep enxerga apenas as próprias vendas (match exato do nome).
// Papel não reconhecido falha fechado: resultado vazio, nunca acesso total.
func (s *Service) Scope(records []*domain.SaleRecord, identity domain.Identity) []*domain.SaleRecord {
	switch identity.Role {
	case domain.RoleOwner:
		return records

	case domain.RoleSalesRep:
		scoped := make([]*domain.SaleRecord, 0)
		for _, record := range records {
			if record.SalesPerson == identity.Username {
				scoped = append(scoped, record)
			}
		}
		return scoped

	default:
		logrus.Warnf("Papel não reconhecido %q para %q: escopo vazio", identity.Role, identity.Username)
		return []*domain.SaleRecord{}
	}
}
