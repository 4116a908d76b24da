package game

import (
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// GameContext 是一个房间的全部可变状态，只由房间协程访问。
// Session 为 nil 时房间处于 waiting 阶段
type GameContext struct {
	RoomID    string
	GameStage string
	Members   *Membership
	Session   *Session
	Timer     *Countdown

	Defaults            Settings
	PromptSelectionTime int
	MaxPhaseTime        int
	Prompts             PromptSource
	Rand                *rand.Rand
	NewID               func() string

	log *zap.Logger
}

// BroadcastResp 向房间内全部成员推送同一事件
func (gc *GameContext) BroadcastResp(resp ResponseWrapper) {
	for _, c := range gc.Members.Conns() {
		c.Send(resp)
	}

	gc.log.Debug("广播响应", zap.String("event", resp.Event))
}

// BroadcastExcept 向除 exceptID 之外的成员推送事件
func (gc *GameContext) BroadcastExcept(exceptID string, resp ResponseWrapper) {
	for _, c := range gc.Members.Conns() {
		if c.ID != exceptID {
			c.Send(resp)
		}
	}
}

// BroadcastPersonalized 为每个成员单独生成事件内容
func (gc *GameContext) BroadcastPersonalized(render func(memberID string) ResponseWrapper) {
	for _, c := range gc.Members.Conns() {
		c.Send(render(c.ID))
	}
}

func (gc *GameContext) UnicastResp(connID string, resp ResponseWrapper) {
	c := gc.Members.Conn(connID)
	if c == nil {
		gc.log.Warn(
			"无法找到成员进行单播响应",
			zap.String("conn_id", connID),
			zap.String("event", resp.Event),
		)
		return
	}

	c.Send(resp)
}

func (gc *GameContext) BroadcastMembers() {
	gc.BroadcastResp(WrapResponse(RESP_ROOM_MEMBERS, gc.Members.List()))
}

// SystemNotice 以系统身份发送聊天消息
func (gc *GameContext) SystemNotice(text string) {
	gc.BroadcastResp(WrapResponse(
		RESP_CHAT_MESSAGE,
		ChatMessage{
			UserName:  "System",
			Text:      text,
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		},
	))
}

// SetTimeout 为当前阶段启动倒计时，并立即推送初始剩余秒数
func (gc *GameContext) SetTimeout(seconds int) {
	gc.Timer.Start(gc.GameStage, seconds)

	if gc.Session != nil {
		gc.Session.Countdown = seconds
	}

	gc.BroadcastResp(WrapResponse(RESP_TIMER_UPDATE, seconds))
}

func (gc *GameContext) ClearTimeout() {
	if gc.Timer.Cancel() {
		gc.log.Debug("取消倒计时", zap.String("stage", gc.GameStage))
	}
}

// Responders 返回本回合仍在房间内、且不是绘画者的玩家
func (gc *GameContext) Responders() map[string]bool {
	ids := make(map[string]bool)
	if gc.Session == nil {
		return ids
	}

	activeID := gc.Session.ActivePlayer().ID

	for _, p := range gc.Session.Players {
		if p.ID != activeID && gc.Members.Has(p.ID) {
			ids[p.ID] = true
		}
	}

	return ids
}

// BroadcastGameState 推送阶段状态；题目与备选题目只发给绘画者
func (gc *GameContext) BroadcastGameState() {
	s := gc.Session
	if s == nil {
		return
	}

	active := s.ActivePlayer()
	base := GameStateUpdate{
		Phase:        gc.GameStage,
		ActivePlayer: &active,
		Round:        s.CurrentRound,
		TotalRounds:  s.TotalRounds,
		Countdown:    s.Countdown,
	}

	gc.BroadcastPersonalized(func(memberID string) ResponseWrapper {
		update := base
		if memberID == active.ID {
			switch gc.GameStage {
			case STAGE_PROMPT_SELECTION:
				update.DrawingPrompts = append([]string(nil), s.PromptChoices...)
			case STAGE_DRAWING:
				update.Prompt = s.Prompt
			}
		}

		return WrapResponse(RESP_GAME_STATE, update)
	})
}
