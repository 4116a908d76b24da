package game

import (
	"strings"

	"go.uber.org/zap"
)

const kickReason = "You have been kicked by the room leader."

// handleRoomRequest 处理与阶段无关的房间请求（成员、聊天、结束对局）。
// 其余请求返回 ErrUnknownRequest，交给当前阶段处理器
func (r *Room) handleRoomRequest(req RequestWrapper) error {
	switch req.Event {
	case REQ_JOIN_ROOM, REQ_JOIN_CHAT:
		jreq := TryUnwrap[JoinRoomRequest](req, req.Event)
		if jreq == nil {
			return ErrMalformedRequest
		}
		return r.onJoin(req, jreq)

	case REQ_LEAVE_ROOM:
		if !r.ctx.Members.Has(req.SenderID()) {
			return ErrNotMember
		}
		r.onMemberGone(req.SenderID(), "has left the room")
		return nil

	case REQ_DISCONNECT:
		if !r.ctx.Members.Has(req.SenderID()) {
			return ErrNotMember
		}
		r.onMemberGone(req.SenderID(), "has disconnected")
		return nil

	case REQ_KICK_USER:
		kreq := TryUnwrap[KickUserRequest](req, REQ_KICK_USER)
		if kreq == nil {
			return ErrMalformedRequest
		}
		return r.onKick(req.SenderID(), kreq.UserToKickID)

	case REQ_SEND_MESSAGE:
		if !r.ctx.Members.Has(req.SenderID()) {
			return ErrNotMember
		}
		// 聊天内容原样转发
		r.ctx.BroadcastResp(WrapResponse(RESP_CHAT_MESSAGE, req.Data))
		return nil

	case REQ_END_GAME:
		if !r.ctx.Members.IsLeader(req.SenderID()) {
			return ErrNotLeader
		}
		if r.ctx.Session == nil {
			return ErrNoSession
		}
		r.onEndGame()
		return nil
	}

	return ErrUnknownRequest
}

func (r *Room) onJoin(req RequestWrapper, jreq *JoinRoomRequest) error {
	conn := req.Sender
	if conn == nil {
		return ErrNotMember
	}

	// 连接已经断开的加入请求直接丢弃
	if !conn.trackRoom(r.ctx.RoomID) {
		return ErrConnClosed
	}

	name := strings.TrimSpace(jreq.UserName)
	conn.setName(name)

	joined, becameLeader := r.ctx.Members.Join(conn, name, jreq.IsLeader)

	r.ctx.log.Info(
		"成员加入房间",
		zap.String("conn_id", conn.ID),
		zap.String("name", name),
		zap.Bool("rejoin", !joined),
		zap.Bool("leader", becameLeader),
	)

	r.ctx.BroadcastMembers()

	if req.Event == REQ_JOIN_CHAT {
		r.ctx.SystemNotice(name + " has joined the chat")
	} else if joined {
		r.ctx.BroadcastExcept(conn.ID, WrapResponse(
			RESP_USER_CONNECTED,
			UserConnectedResponse{UserID: conn.ID, UserName: name},
		))
	}

	return nil
}

// onMemberGone 处理主动离开与断线，房主离开时由剩余成员接任
func (r *Room) onMemberGone(id, verb string) {
	members := r.ctx.Members
	name := members.Name(id)
	conn := members.Conn(id)

	_, newLeaderID := members.Leave(id)
	if conn != nil {
		conn.untrackRoom(r.ctx.RoomID)
	}

	r.ctx.log.Info(
		"成员离开房间",
		zap.String("conn_id", id),
		zap.String("name", name),
		zap.String("reason", verb),
		zap.String("new_leader", newLeaderID),
	)

	if newLeaderID != "" {
		r.ctx.SystemNotice(members.Name(newLeaderID) + " is now the room leader")
	}

	r.ctx.BroadcastMembers()

	if name != "" {
		r.ctx.SystemNotice(name + " " + verb)
	}

	r.ctx.BroadcastResp(WrapResponse(RESP_USER_DISCONNECTED, id))

	r.afterMembershipChange()
}

func (r *Room) onKick(requesterID, targetID string) error {
	members := r.ctx.Members
	name := members.Name(targetID)
	conn := members.Conn(targetID)

	if err := members.Kick(requesterID, targetID); err != nil {
		return err
	}

	conn.untrackRoom(r.ctx.RoomID)

	// 被踢出的成员已不在房间广播范围内，单独通知
	conn.Send(WrapResponse(
		RESP_KICKED_FROM_ROOM,
		KickedFromRoomResponse{RoomID: r.ctx.RoomID, Reason: kickReason},
	))

	r.ctx.log.Info(
		"成员被踢出房间",
		zap.String("conn_id", targetID),
		zap.String("name", name),
	)

	r.ctx.SystemNotice(name + " has been kicked from the room")
	r.ctx.BroadcastMembers()

	r.afterMembershipChange()

	return nil
}

func (r *Room) onEndGame() {
	r.resetGame()

	r.ctx.BroadcastResp(WrapResponse(RESP_GAME_RESET, nil))
	r.ctx.SystemNotice("The game has ended")

	r.ctx.log.Info("对局结束")
}

// afterMembershipChange 在成员减少后调用：房间清空时结束对局，
// 否则让当前阶段重新检查提交与投票是否已经齐全
func (r *Room) afterMembershipChange() {
	if r.ctx.Members.Len() == 0 {
		if r.ctx.GameStage != STAGE_WAITING {
			r.ctx.log.Info("房间已空，结束对局")
		}
		r.resetGame()
		return
	}

	if r.ctx.Session != nil {
		_ = r.handler.OnHandle(r.ctx, RequestWrapper{Event: REQ_MEMBERS_CHANGED})
	}
}
