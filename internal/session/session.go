package session

import (
	"errors"
	"sync"

	"github.com/rmonteiro89/sales-analytics-api/internal/domain"
	"github.com/rmonteiro89/sales-analytics-api/pkg/utils"
	"github.com/sirupsen/logrus"
)

// ErrSessionNotFound indica sessão inexistente ou já encerrada
var ErrSessionNotFound = errors.New("sessão não encontrada")

// Session é o contexto explícito de uma sessão autenticada: identidade,
// conjunto canônico em cache e o estado do cache. Criada no login,
// descartada no logout. Nada aqui é estado global ambiente.
type Session struct {
	ID       string
	Identity domain.Identity

	mu      sync.RWMutex
	records []*domain.SaleRecord
	loaded  bool
	dirty   bool
}

// Records retorna o conjunto em cache e se ele está utilizável
// (carregado e não invalidado por uma mutação local)
func (s *Session) Records() ([]*domain.SaleRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.loaded || s.dirty {
		return nil, false
	}
	return s.records, true
}

// Loaded informa se a sessão já carregou o conjunto canônico alguma vez.
// Distingue a primeira carga (ingestão da fonte) das recargas pós-mutação
// (leitura direta do repositório).
func (s *Session) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// SetRecords substitui o cache da sessão e limpa o flag de invalidação
func (s *Session) SetRecords(records []*domain.SaleRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = records
	s.loaded = true
	s.dirty = false
}

// Invalidate marca o cache como sujo após uma mutação local; a próxima
// leitura recarrega do repositório (consistência leia-suas-escritas,
// local à sessão — mutações de outras sessões só aparecem após recarga)
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = true
}

// Manager guarda as sessões ativas do processo
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

// Create abre uma sessão para a identidade autenticada
func (m *Manager) Create(identity domain.Identity) (*Session, error) {
	id, err := utils.GenerateID()
	if err != nil {
		return nil, err
	}

	session := &Session{
		ID:       id,
		Identity: identity,
	}

	m.mu.Lock()
	m.sessions[id] = session
	m.mu.Unlock()

	logrus.Debugf("Sessão %s criada para %q (%s)", id, identity.Username, identity.Role)
	return session, nil
}

// Get retorna a sessão ativa pelo ID
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Discard encerra a sessão, descartando o cache
func (m *Manager) Discard(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}
