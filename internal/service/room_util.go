package service

import (
	"context"
	"errors"
	"time"

	"sketchbluff-be/internal/config"
	"sketchbluff-be/internal/service/game"
)

var (
	ErrUnknownRoom   = errors.New("unknown_room")
	ErrUnknownConn   = errors.New("unknown_conn")
	ErrRoomBusy      = errors.New("room_busy")
	ErrInternalEvent = errors.New("internal_event")
	ErrBadRoomID     = errors.New("bad_room_id")
)

const (
	maxRoomIDLen = 64
	// 断线事件等待房间队列的最长时间
	disconnectPostTimeout = 5 * time.Second
)

type Options struct {
	Room          game.Options
	SendBuffer    int
	SweepInterval time.Duration
}

func OptionsFromConfig(cfg *config.AppConfig) Options {
	room := game.DefaultOptions()
	room.Defaults = game.Settings{
		DrawingTime:    cfg.Game.DrawingTime,
		SubmittingTime: cfg.Game.SubmittingTime,
		VotingTime:     cfg.Game.VotingTime,
	}
	room.PromptSelectionTime = cfg.Game.PromptSelectionTime
	room.MaxPhaseTime = cfg.Game.MaxPhaseTime

	return Options{
		Room:          room,
		SendBuffer:    cfg.Websocket.SendBuffer,
		SweepInterval: time.Minute,
	}
}

type roomEntry struct {
	room   *game.Room
	cancel context.CancelFunc
}

// 路由到房间协程的客户端事件，第一次 join 时创建房间
var roomEvents = map[string]bool{
	game.REQ_JOIN_ROOM:      true,
	game.REQ_JOIN_CHAT:      true,
	game.REQ_LEAVE_ROOM:     false,
	game.REQ_KICK_USER:      false,
	game.REQ_START_GAME:     false,
	game.REQ_SELECT_PROMPT:  false,
	game.REQ_DRAWING_UPDATE: false,
	game.REQ_SUBMIT_LIE:     false,
	game.REQ_VOTE:           false,
	game.REQ_NEXT_ROUND:     false,
	game.REQ_END_GAME:       false,
	game.REQ_SEND_MESSAGE:   false,
}

// isRoomExpired 判断房间是否可以回收：没有成员也没有待处理的请求
func isRoomExpired(entry *roomEntry) bool {
	if entry == nil || entry.room == nil {
		return true
	}

	return entry.room.Idle()
}
