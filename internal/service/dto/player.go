package dto

import "sketchbluff-be/internal/service/game"

// 房间成员信息，仅包含已设置昵称的成员
type Member struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsLeader bool   `json:"isLeader"`
}

func FromMembers(members []game.Member) []Member {
	out := make([]Member, 0, len(members))
	for _, m := range members {
		out = append(out, Member{
			ID:       m.ID,
			Name:     m.Name,
			IsLeader: m.IsLeader,
		})
	}

	return out
}
