package session

import (
	"testing"

	"github.com/rmonteiro89/sales-analytics-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionCacheLifecycle(t *testing.T) {
	manager := NewManager()

	sess, err := manager.Create(domain.Identity{Username: "maria", Role: domain.RoleOwner})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)

	// Sessão recém-criada não tem cache utilizável
	_, ok := sess.Records()
	assert.False(t, ok)
	assert.False(t, sess.Loaded())

	records := []*domain.SaleRecord{{ID: 1}, {ID: 2}}
	sess.SetRecords(records)

	cached, ok := sess.Records()
	assert.True(t, ok)
	assert.Len(t, cached, 2)
	assert.True(t, sess.Loaded())

	// Mutação local invalida o cache, mas a sessão continua carregada:
	// a próxima carga é uma recarga, não uma nova ingestão
	sess.Invalidate()
	_, ok = sess.Records()
	assert.False(t, ok)
	assert.True(t, sess.Loaded())

	sess.SetRecords(records[:1])
	cached, ok = sess.Records()
	assert.True(t, ok)
	assert.Len(t, cached, 1)
}

func TestManager(t *testing.T) {
	manager := NewManager()

	first, err := manager.Create(domain.Identity{Username: "a", Role: domain.RoleOwner})
	require.NoError(t, err)
	second, err := manager.Create(domain.Identity{Username: "a", Role: domain.RoleOwner})
	require.NoError(t, err)

	// Cada login abre uma sessão independente, mesmo para o mesmo usuário
	assert.NotEqual(t, first.ID, second.ID)

	found, err := manager.Get(first.ID)
	require.NoError(t, err)
	assert.Equal(t, first, found)

	manager.Discard(first.ID)
	_, err = manager.Get(first.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// Descartar a primeira não afeta a segunda
	_, err = manager.Get(second.ID)
	assert.NoError(t, err)
}
