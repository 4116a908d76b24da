package service

import (
	"encoding/json"
	"testing"
	"time"

	"sketchbluff-be/internal/service/game"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *RoomService {
	t.Helper()

	rs := NewRoomServiceWithOptions(Options{
		Room:          game.DefaultOptions(),
		SendBuffer:    256,
		SweepInterval: time.Hour,
	})
	t.Cleanup(rs.Close)

	return rs
}

func request(t *testing.T, event string, data any) game.RequestWrapper {
	t.Helper()

	raw, err := json.Marshal(data)
	require.NoError(t, err)

	return game.RequestWrapper{Event: event, Data: raw}
}

// waitFor 读取连接上的事件直到出现指定事件
func waitFor(t *testing.T, conn *game.Conn, event string) game.ResponseWrapper {
	t.Helper()

	timeout := time.After(2 * time.Second)
	for {
		select {
		case resp := <-conn.RespCh():
			if resp.Event == event {
				return resp
			}
		case <-timeout:
			t.Fatalf("did not receive %s", event)
			return game.ResponseWrapper{}
		}
	}
}

func joinRoom(t *testing.T, rs *RoomService, conn *game.Conn, roomID, name string, leader bool) {
	t.Helper()

	err := rs.Dispatch(conn, request(t, game.REQ_JOIN_ROOM, game.JoinRoomRequest{
		RoomID:   roomID,
		UserName: name,
		IsLeader: leader,
	}))
	require.NoError(t, err)
}

func TestDispatchCreatesRoomOnJoin(t *testing.T) {
	rs := newTestService(t)
	a, b := rs.Connect(), rs.Connect()

	roomID := rs.NewRoomID()
	joinRoom(t, rs, a, roomID, "Alice", true)
	joinRoom(t, rs, b, roomID, "Bob", false)

	resp := waitFor(t, b, game.RESP_ROOM_MEMBERS)
	assert.Len(t, resp.Data.([]game.Member), 2)

	require.Eventually(t, func() bool {
		members, ok := rs.RoomMembers(roomID)
		return ok && len(members) == 2
	}, 2*time.Second, 10*time.Millisecond)

	rooms, conns := rs.Stats()
	assert.Equal(t, 1, rooms)
	assert.Equal(t, 2, conns)
}

func TestDispatchRejections(t *testing.T) {
	rs := newTestService(t)
	a := rs.Connect()

	err := rs.Dispatch(a, game.RequestWrapper{Event: game.REQ_DISCONNECT})
	assert.ErrorIs(t, err, ErrInternalEvent)

	err = rs.Dispatch(a, request(t, "no-such-event", map[string]string{"roomId": "x"}))
	assert.ErrorIs(t, err, game.ErrUnknownRequest)

	err = rs.Dispatch(a, request(t, game.REQ_START_GAME, map[string]string{"roomId": "missing"}))
	assert.ErrorIs(t, err, ErrUnknownRoom)

	err = rs.Dispatch(a, request(t, game.REQ_JOIN_ROOM, map[string]string{"userName": "Alice"}))
	assert.ErrorIs(t, err, ErrBadRoomID)

	rooms, _ := rs.Stats()
	assert.Zero(t, rooms)
}

func TestRandomRoom(t *testing.T) {
	rs := newTestService(t)
	a := rs.Connect()

	req := request(t, game.REQ_GET_RANDOM_ROOM, nil)
	req.Ack = "1"
	require.NoError(t, rs.Dispatch(a, req))

	resp := waitFor(t, a, game.RESP_RANDOM_ROOM)
	assert.Equal(t, "1", resp.Ack)
	assert.Nil(t, resp.Data)

	joinRoom(t, rs, a, "R1", "Alice", true)
	require.Eventually(t, func() bool {
		return rs.RandomRoom() == "R1"
	}, 2*time.Second, 10*time.Millisecond)

	req.Ack = "2"
	require.NoError(t, rs.Dispatch(a, req))

	resp = waitFor(t, a, game.RESP_RANDOM_ROOM)
	assert.Equal(t, "2", resp.Ack)
	assert.Equal(t, "R1", resp.Data)
}

func TestSignalRelay(t *testing.T) {
	rs := newTestService(t)
	a, b := rs.Connect(), rs.Connect()

	err := rs.Dispatch(a, request(t, game.REQ_SIGNAL, map[string]any{
		"to":       b.ID,
		"from":     "spoofed",
		"signal":   map[string]string{"type": "offer"},
		"userName": "Alice",
	}))
	require.NoError(t, err)

	sig := waitFor(t, b, game.RESP_SIGNAL).Data.(game.SignalResponse)
	assert.Equal(t, a.ID, sig.From)
	assert.Equal(t, "Alice", sig.UserName)
	assert.JSONEq(t, `{"type":"offer"}`, string(sig.Signal))

	err = rs.Dispatch(a, request(t, game.REQ_SIGNAL, map[string]any{"to": "nobody"}))
	assert.ErrorIs(t, err, ErrUnknownConn)
}

func TestDisconnectAndSweep(t *testing.T) {
	rs := newTestService(t)
	a, b := rs.Connect(), rs.Connect()

	joinRoom(t, rs, a, "R1", "Alice", true)
	joinRoom(t, rs, b, "R1", "Bob", false)
	waitFor(t, a, game.RESP_USER_CONNECTED)

	// 房间有成员时不会被回收
	assert.Zero(t, rs.sweep())

	rs.Disconnect(a.ID)
	assert.Nil(t, rs.Lookup(a.ID))

	notice := waitFor(t, b, game.RESP_USER_DISCONNECTED)
	assert.Equal(t, a.ID, notice.Data)

	require.Eventually(t, func() bool {
		members, _ := rs.RoomMembers("R1")
		return len(members) == 1 && members[0].IsLeader
	}, 2*time.Second, 10*time.Millisecond)

	rs.Disconnect(b.ID)

	require.Eventually(t, func() bool {
		return rs.sweep() == 1
	}, 2*time.Second, 10*time.Millisecond)

	rooms, conns := rs.Stats()
	assert.Zero(t, rooms)
	assert.Zero(t, conns)
	assert.Empty(t, rs.RandomRoom())
}

func TestDisconnectSurvivesBusyRoom(t *testing.T) {
	roomOpts := game.DefaultOptions()
	roomOpts.InboxSize = 1

	rs := NewRoomServiceWithOptions(Options{
		Room:          roomOpts,
		SendBuffer:    1024,
		SweepInterval: time.Hour,
	})
	t.Cleanup(rs.Close)

	a, b := rs.Connect(), rs.Connect()
	joinRoom(t, rs, a, "R1", "Alice", true)
	waitFor(t, a, game.RESP_ROOM_MEMBERS)
	joinRoom(t, rs, b, "R1", "Bob", false)
	waitFor(t, a, game.RESP_USER_CONNECTED)

	// 占满房间队列，部分请求会因房间繁忙被丢弃
	chat := request(t, game.REQ_SEND_MESSAGE, map[string]string{"roomId": "R1", "text": "spam"})
	for range 200 {
		_ = rs.Dispatch(b, chat)
	}

	rs.Disconnect(a.ID)

	require.Eventually(t, func() bool {
		members, _ := rs.RoomMembers("R1")
		return len(members) == 1 && members[0].ID == b.ID
	}, 2*time.Second, 10*time.Millisecond)
}
