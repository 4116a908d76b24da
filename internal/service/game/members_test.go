package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMembershipJoinAndLeader(t *testing.T) {
	m := NewMembership()

	joined, leader := m.Join(newTestConn("A"), "Alice", false)
	assert.True(t, joined)
	assert.False(t, leader)
	assert.Empty(t, m.LeaderID())

	joined, leader = m.Join(newTestConn("B"), "Bob", true)
	assert.True(t, joined)
	assert.True(t, leader)

	// 已有房主时不能再声明房主
	_, leader = m.Join(newTestConn("C"), "Carol", true)
	assert.False(t, leader)
	assert.Equal(t, "B", m.LeaderID())

	// 重复加入只更新昵称
	joined, _ = m.Join(m.Conn("A"), "Alicia", false)
	assert.False(t, joined)
	assert.Equal(t, 3, m.Len())
	assert.Equal(t, "Alicia", m.Name("A"))
}

func TestMembershipListSkipsUnnamed(t *testing.T) {
	m := NewMembership()
	m.Join(newTestConn("A"), "Alice", true)
	m.Join(newTestConn("B"), "", false)
	m.Join(newTestConn("C"), "Carol", false)

	assert.Equal(t, []Member{
		{ID: "A", Name: "Alice", IsLeader: true},
		{ID: "C", Name: "Carol"},
	}, m.List())
	assert.Equal(t, 3, m.Len())
	assert.Len(t, m.Conns(), 3)
}

func TestMembershipSuccession(t *testing.T) {
	m := NewMembership()
	m.Join(newTestConn("A"), "Alice", true)
	m.Join(newTestConn("B"), "Bob", false)
	m.Join(newTestConn("C"), "Carol", false)

	// 非房主离开不交接
	removed, next := m.Leave("B")
	assert.True(t, removed)
	assert.Empty(t, next)
	assert.Equal(t, "A", m.LeaderID())

	m.Join(newTestConn("D"), "Dave", false)

	// 由最早加入的剩余成员接任
	_, next = m.Leave("A")
	assert.Equal(t, "C", next)
	assert.True(t, m.IsLeader("C"))

	_, next = m.Leave("C")
	assert.Equal(t, "D", next)

	_, next = m.Leave("D")
	assert.Empty(t, next)
	assert.Empty(t, m.LeaderID())
	assert.Zero(t, m.Len())

	removed, _ = m.Leave("D")
	assert.False(t, removed)
}

func TestMembershipKick(t *testing.T) {
	m := NewMembership()
	m.Join(newTestConn("A"), "Alice", true)
	m.Join(newTestConn("B"), "Bob", false)
	m.Join(newTestConn("C"), "", false)

	require.ErrorIs(t, m.Kick("B", "A"), ErrNotLeader)
	require.ErrorIs(t, m.Kick("A", "A"), ErrInvalidTarget)
	require.ErrorIs(t, m.Kick("A", "C"), ErrInvalidTarget)
	require.ErrorIs(t, m.Kick("A", "nobody"), ErrInvalidTarget)

	require.NoError(t, m.Kick("A", "B"))
	assert.False(t, m.Has("B"))
	assert.Equal(t, "A", m.LeaderID())
}
