package game

import (
	"encoding/json"

	"go.uber.org/zap"
)

// 客户端请求事件
const (
	REQ_JOIN_ROOM       = "join-room"
	REQ_JOIN_CHAT       = "join-chat"
	REQ_LEAVE_ROOM      = "leave-room"
	REQ_KICK_USER       = "kick-user"
	REQ_GET_RANDOM_ROOM = "get-random-room"
	REQ_START_GAME      = "start-game"
	REQ_SELECT_PROMPT   = "select-prompt"
	REQ_DRAWING_UPDATE  = "drawing-update"
	REQ_SUBMIT_LIE      = "submit-lie"
	REQ_VOTE            = "vote"
	REQ_NEXT_ROUND      = "next-round"
	REQ_END_GAME        = "end-game"
	REQ_SEND_MESSAGE    = "send-message"
	REQ_SIGNAL          = "signal"
)

// 服务端内部事件，不接受来自客户端的同名请求
const (
	REQ_DISCONNECT      = "internal:disconnect"
	REQ_TIMEOUT         = "internal:timeout"
	REQ_MEMBERS_CHANGED = "internal:members-changed"
)

type RequestWrapper struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Ack   string          `json:"ack,omitempty"`

	// 由服务端填充：发送者连接与内部请求的原生数据
	Sender     *Conn `json:"-"`
	NativeData any   `json:"-"`
}

func (w RequestWrapper) SenderID() string {
	if w.Sender == nil {
		return ""
	}

	return w.Sender.ID
}

func IsInternalEvent(event string) bool {
	switch event {
	case REQ_DISCONNECT, REQ_TIMEOUT, REQ_MEMBERS_CHANGED:
		return true
	}

	return false
}

// TryUnwrap 在事件类型匹配时解析请求数据，类型不匹配或解析失败时返回 nil
func TryUnwrap[T any](wrapper RequestWrapper, event string) *T {
	if wrapper.Event != event {
		return nil
	}

	if native, ok := wrapper.NativeData.(*T); ok {
		return native
	}

	var req T

	if len(wrapper.Data) == 0 {
		return &req
	}

	if err := json.Unmarshal(wrapper.Data, &req); err != nil {
		zap.L().Debug(
			"解析请求数据失败",
			zap.String("event", event),
			zap.Error(err),
		)
		return nil
	}

	return &req
}

// PeekRoomID 读取请求数据中的 roomId，用于把请求路由到对应房间
func PeekRoomID(wrapper RequestWrapper) string {
	var target struct {
		RoomID string `json:"roomId"`
	}

	if len(wrapper.Data) == 0 {
		return ""
	}

	if err := json.Unmarshal(wrapper.Data, &target); err != nil {
		return ""
	}

	return target.RoomID
}

// 服务端推送事件
const (
	RESP_ERROR             = "error"
	RESP_CONNECTED         = "connected"
	RESP_ROOM_MEMBERS      = "room-members"
	RESP_GAME_STATE        = "game-state-update"
	RESP_DRAWING_UPDATE    = "drawing-update"
	RESP_LIES_UPDATE       = "lies-update"
	RESP_ROUND_RESULTS     = "round-results"
	RESP_TIMER_UPDATE      = "timer-update"
	RESP_GAME_RESET        = "game-reset"
	RESP_KICKED_FROM_ROOM  = "kicked-from-room"
	RESP_CHAT_MESSAGE      = "chat-message"
	RESP_USER_CONNECTED    = "user-connected"
	RESP_USER_DISCONNECTED = "user-disconnected"
	RESP_SIGNAL            = "signal"
	RESP_RANDOM_ROOM       = "get-random-room"
)

type ResponseWrapper struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
	Ack   string `json:"ack,omitempty"`
}

func WrapResponse(event string, data any) ResponseWrapper {
	return ResponseWrapper{
		Event: event,
		Data:  data,
	}
}

// WrapAckResponse 回复带确认号的请求，客户端据此匹配回调
func WrapAckResponse(event, ack string, data any) ResponseWrapper {
	return ResponseWrapper{
		Event: event,
		Data:  data,
		Ack:   ack,
	}
}

func WrapErrResponse(errMsg string) ResponseWrapper {
	return ResponseWrapper{
		Event: RESP_ERROR,
		Data:  ErrorResponse{Message: errMsg},
	}
}
