package game

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// manualTickers 返回永不触发的滴答源，测试通过 tick 手动推进时间
type manualTickers struct{}

func (manualTickers) Create(time.Duration) (<-chan time.Time, func()) {
	return make(chan time.Time), func() {}
}

var testPrompts = WordList{"A flying elephant", "A dancing penguin", "A dog driving a car"}

func newTestRoom(t *testing.T) *Room {
	t.Helper()

	seq := 0
	opts := DefaultOptions()
	opts.Tickers = manualTickers{}
	opts.Prompts = testPrompts
	opts.Rand = NewRand(1, 2)
	opts.NewID = func() string {
		seq++
		return fmt.Sprintf("sub-%d", seq)
	}

	r := NewRoom("R1", opts)
	t.Cleanup(func() { r.ctx.Timer.Cancel() })

	return r
}

func newTestConn(id string) *Conn {
	return NewConn(id, 1024)
}

func mustMarshal(t *testing.T, v any) json.RawMessage {
	t.Helper()

	data, err := json.Marshal(v)
	require.NoError(t, err)

	return data
}

func send(t *testing.T, r *Room, from *Conn, event string, data any) {
	t.Helper()

	r.handle(RequestWrapper{
		Event:  event,
		Data:   mustMarshal(t, data),
		Sender: from,
	})
}

func join(t *testing.T, r *Room, c *Conn, name string, leader bool) {
	t.Helper()

	send(t, r, c, REQ_JOIN_ROOM, JoinRoomRequest{RoomID: r.ID(), UserName: name, IsLeader: leader})
}

func tick(r *Room) {
	r.handleTick(r.ctx.Timer.Generation())
}

// expire 推进倒计时直到到期
func expire(t *testing.T, r *Room) {
	t.Helper()

	require.True(t, r.ctx.Timer.Active(), "no active countdown in stage %s", r.ctx.GameStage)

	for i := 0; r.ctx.Timer.Active(); i++ {
		require.Less(t, i, 10000)
		tick(r)
	}
}

func drain(c *Conn) []ResponseWrapper {
	var out []ResponseWrapper

	for {
		select {
		case resp := <-c.respCh:
			out = append(out, resp)
		default:
			return out
		}
	}
}

func eventsNamed(resps []ResponseWrapper, event string) []ResponseWrapper {
	var out []ResponseWrapper
	for _, r := range resps {
		if r.Event == event {
			out = append(out, r)
		}
	}

	return out
}

func lastEvent(t *testing.T, resps []ResponseWrapper, event string) ResponseWrapper {
	t.Helper()

	matched := eventsNamed(resps, event)
	require.NotEmpty(t, matched, "no %s event received", event)

	return matched[len(matched)-1]
}

// startThreePlayerGame 建立 A(房主)、B、C 三人房间并开始对局
func startThreePlayerGame(t *testing.T, r *Room, settings Settings) (a, b, c *Conn) {
	t.Helper()

	a, b, c = newTestConn("A"), newTestConn("B"), newTestConn("C")
	join(t, r, a, "Alice", true)
	join(t, r, b, "Bob", false)
	join(t, r, c, "Carol", false)

	send(t, r, a, REQ_START_GAME, StartGameRequest{RoomID: r.ID(), Settings: settings})
	require.Equal(t, STAGE_PROMPT_SELECTION, r.ctx.GameStage)

	return a, b, c
}
