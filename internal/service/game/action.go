package game

import "encoding/json"

type JoinRoomRequest struct {
	RoomID   string `json:"roomId"`
	UserName string `json:"userName"`
	IsLeader bool   `json:"isLeader"`
}

type LeaveRoomRequest struct {
	RoomID   string `json:"roomId"`
	UserName string `json:"userName"`
}

type KickUserRequest struct {
	RoomID       string `json:"roomId"`
	UserToKickID string `json:"userToKickId"`
}

type StartGameRequest struct {
	RoomID   string   `json:"roomId"`
	Settings Settings `json:"settings"`
}

type SelectPromptRequest struct {
	RoomID string `json:"roomId"`
	Prompt string `json:"prompt"`
}

type DrawingUpdateRequest struct {
	RoomID  string `json:"roomId"`
	DataURL string `json:"dataUrl"`
}

// 作者以发送连接为准，SubmitterID 仅为兼容旧客户端而保留
type SubmitLieRequest struct {
	RoomID        string `json:"roomId"`
	Lie           string `json:"lie"`
	SubmitterID   string `json:"submitterId"`
	SubmitterName string `json:"submitterName"`
}

// 投票者以发送连接为准，VoterID 仅为兼容旧客户端而保留
type VoteRequest struct {
	RoomID    string `json:"roomId"`
	LieID     string `json:"lieId"`
	VoterID   string `json:"voterId"`
	VoterName string `json:"voterName"`
}

type NextRoundRequest struct {
	RoomID string `json:"roomId"`
}

type EndGameRequest struct {
	RoomID string `json:"roomId"`
}

type SignalRequest struct {
	To       string          `json:"to"`
	From     string          `json:"from"`
	Signal   json.RawMessage `json:"signal"`
	UserName string          `json:"userName"`
}

type TimeoutRequest struct {
	Stage string
}

type ErrorResponse struct {
	Message string `json:"message"`
}

type ConnectedResponse struct {
	ID string `json:"id"`
}

type GameStateUpdate struct {
	Phase          string   `json:"phase"`
	ActivePlayer   *Player  `json:"activePlayer,omitempty"`
	Round          int      `json:"round"`
	TotalRounds    int      `json:"totalRounds"`
	Countdown      int      `json:"countdown"`
	Prompt         string   `json:"prompt,omitempty"`
	DrawingPrompts []string `json:"drawingPrompts,omitempty"`
}

// 提交阶段只公开已提交者的身份
type LieProgress struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

// 投票阶段只公开候选答案的文字
type LieChoice struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type RoundResults struct {
	Prompt       string           `json:"prompt"`
	Drawing      string           `json:"drawing"`
	Submissions  []Submission     `json:"submissions"`
	Scores       map[string]Score `json:"scores"`
	Round        int              `json:"round"`
	TotalRounds  int              `json:"totalRounds"`
	IsFinalRound bool             `json:"isFinalRound"`
}

type KickedFromRoomResponse struct {
	RoomID string `json:"roomId"`
	Reason string `json:"reason"`
}

// SocketID 为 nil 表示系统消息
type ChatMessage struct {
	UserName  string  `json:"userName"`
	Text      string  `json:"text"`
	Timestamp string  `json:"timestamp"`
	SocketID  *string `json:"socketId"`
}

type UserConnectedResponse struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

type SignalResponse struct {
	Signal   json.RawMessage `json:"signal"`
	From     string          `json:"from"`
	UserName string          `json:"userName"`
}
