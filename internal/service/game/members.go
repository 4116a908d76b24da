package game

import "slices"

// Membership 记录房间成员（按加入顺序）与房主。
// 只在房间协程中访问
type Membership struct {
	order    []string
	names    map[string]string
	conns    map[string]*Conn
	leaderID string
}

func NewMembership() *Membership {
	return &Membership{
		order: make([]string, 0),
		names: make(map[string]string),
		conns: make(map[string]*Conn),
	}
}

// Join 加入房间。重复加入只更新昵称；房间尚无房主且 claimLeader 时成为房主
func (m *Membership) Join(conn *Conn, name string, claimLeader bool) (joined bool, becameLeader bool) {
	if _, exists := m.conns[conn.ID]; !exists {
		m.order = append(m.order, conn.ID)
		m.conns[conn.ID] = conn
		joined = true
	}

	m.names[conn.ID] = name

	if m.leaderID == "" && claimLeader {
		m.leaderID = conn.ID
		becameLeader = true
	}

	return joined, becameLeader
}

// Leave 移除成员。离开的是房主时，由最早加入的剩余成员接任；
// 返回新房主 ID，未发生交接时为空
func (m *Membership) Leave(id string) (removed bool, newLeaderID string) {
	if !m.remove(id) {
		return false, ""
	}

	if m.leaderID == id {
		m.leaderID = ""
		if len(m.order) > 0 {
			m.leaderID = m.order[0]
			newLeaderID = m.leaderID
		}
	}

	return true, newLeaderID
}

// Kick 由房主移除一名成员，不会触发房主交接
func (m *Membership) Kick(requesterID, targetID string) error {
	if !m.IsLeader(requesterID) {
		return ErrNotLeader
	}

	if targetID == m.leaderID || m.Name(targetID) == "" {
		return ErrInvalidTarget
	}

	m.remove(targetID)

	return nil
}

func (m *Membership) remove(id string) bool {
	idx := slices.Index(m.order, id)
	if idx < 0 {
		return false
	}

	m.order = slices.Delete(m.order, idx, idx+1)
	delete(m.names, id)
	delete(m.conns, id)

	return true
}

func (m *Membership) Has(id string) bool {
	_, ok := m.conns[id]
	return ok
}

func (m *Membership) Name(id string) string {
	return m.names[id]
}

func (m *Membership) Conn(id string) *Conn {
	return m.conns[id]
}

func (m *Membership) LeaderID() string {
	return m.leaderID
}

func (m *Membership) IsLeader(id string) bool {
	return id != "" && id == m.leaderID
}

func (m *Membership) Len() int {
	return len(m.order)
}

// List 返回有昵称的成员，顺序与加入顺序一致
func (m *Membership) List() []Member {
	members := make([]Member, 0, len(m.order))

	for _, id := range m.order {
		name := m.names[id]
		if name == "" {
			continue
		}

		members = append(members, Member{
			ID:       id,
			Name:     name,
			IsLeader: id == m.leaderID,
		})
	}

	return members
}

// Conns 按加入顺序返回全部成员连接
func (m *Membership) Conns() []*Conn {
	conns := make([]*Conn, 0, len(m.order))
	for _, id := range m.order {
		conns = append(conns, m.conns[id])
	}

	return conns
}
