package service

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"sketchbluff-be/internal/config"
	"sketchbluff-be/internal/metrics"
	"sketchbluff-be/internal/service/game"

	"github.com/sasha-s/go-deadlock"
	"go.uber.org/zap"
)

// RoomService 维护全部连接与房间，并把客户端请求路由到对应的房间协程
type RoomService struct {
	state *roomServiceState
	opts  Options
}

type roomServiceState struct {
	mu deadlock.RWMutex

	// 均为从 ID 到实体的映射
	rooms map[string]*roomEntry
	conns map[string]*game.Conn

	baseCtx    context.Context
	cancelAll  context.CancelFunc
	roomsGroup sync.WaitGroup

	cleanUpDone chan struct{}
	closeOnce   sync.Once
}

func NewRoomService(cfg *config.AppConfig) *RoomService {
	return NewRoomServiceWithOptions(OptionsFromConfig(cfg))
}

func NewRoomServiceWithOptions(opts Options) *RoomService {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 64
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = time.Minute
	}

	// 每个房间使用独立的随机数源
	opts.Room.Rand = nil

	baseCtx, cancelAll := context.WithCancel(context.Background())

	state := &roomServiceState{
		rooms:       make(map[string]*roomEntry),
		conns:       make(map[string]*game.Conn),
		baseCtx:     baseCtx,
		cancelAll:   cancelAll,
		cleanUpDone: make(chan struct{}),
	}

	rs := &RoomService{
		state: state,
		opts:  opts,
	}

	// 启动一个 goroutine 定期清理空房间
	go rs.startCleanupLoop()

	return rs
}

func (rs *RoomService) startCleanupLoop() {
	ticker := time.NewTicker(rs.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rs.state.cleanUpDone:
			return

		case <-ticker.C:
			rs.sweep()
		}
	}
}

// sweep 回收空房间。持有写锁期间不会有新请求投递到房间，
// 因此 Idle 的判断不会与投递交错
func (rs *RoomService) sweep() int {
	rs.state.mu.Lock()
	defer rs.state.mu.Unlock()

	reaped := 0
	for roomID, entry := range rs.state.rooms {
		if !isRoomExpired(entry) {
			continue
		}

		zap.S().Infof("房间 %s 已空，开始清理", roomID)

		entry.cancel()
		delete(rs.state.rooms, roomID)
		metrics.RoomsActive.Dec()
		reaped++
	}

	return reaped
}

// Close 停止清理协程与全部房间协程
func (rs *RoomService) Close() {
	rs.state.closeOnce.Do(func() {
		close(rs.state.cleanUpDone)

		rs.state.mu.Lock()
		rs.state.cancelAll()
		for roomID := range rs.state.rooms {
			delete(rs.state.rooms, roomID)
			metrics.RoomsActive.Dec()
		}
		rs.state.mu.Unlock()

		rs.state.roomsGroup.Wait()

		zap.L().Info("房间服务已关闭")
	})
}

// Connect 登记一个新连接并分配连接 ID
func (rs *RoomService) Connect() *game.Conn {
	conn := game.NewConn(game.GenID(), rs.opts.SendBuffer)

	rs.state.mu.Lock()
	rs.state.conns[conn.ID] = conn
	rs.state.mu.Unlock()

	metrics.ConnectionsActive.Inc()

	zap.L().Debug("连接已登记", zap.String("conn_id", conn.ID))

	return conn
}

// Disconnect 注销连接，并通知它加入过的每个房间
func (rs *RoomService) Disconnect(connID string) {
	rs.state.mu.Lock()
	conn := rs.state.conns[connID]
	delete(rs.state.conns, connID)
	rs.state.mu.Unlock()

	if conn == nil {
		return
	}

	// 先关闭连接，此后该连接的加入请求都会被房间拒绝
	conn.Close()
	metrics.ConnectionsActive.Dec()

	for _, roomID := range conn.Rooms() {
		err := rs.postDisconnect(roomID, conn)
		if err != nil {
			zap.L().Warn(
				"无法通知房间连接断开",
				zap.String("conn_id", connID),
				zap.String("room_id", roomID),
				zap.Error(err),
			)
		}
	}

	zap.L().Debug("连接已注销", zap.String("conn_id", connID))
}

func (rs *RoomService) Lookup(connID string) *game.Conn {
	rs.state.mu.RLock()
	defer rs.state.mu.RUnlock()

	return rs.state.conns[connID]
}

// Dispatch 处理一条客户端请求。
// 返回的错误只用于记录，房间内的规则校验失败不会在这里体现
func (rs *RoomService) Dispatch(conn *game.Conn, req game.RequestWrapper) error {
	if game.IsInternalEvent(req.Event) {
		return ErrInternalEvent
	}

	req.Sender = conn
	req.NativeData = nil

	switch req.Event {
	case game.REQ_GET_RANDOM_ROOM:
		var roomID any
		if id := rs.RandomRoom(); id != "" {
			roomID = id
		}

		conn.Send(game.WrapAckResponse(game.RESP_RANDOM_ROOM, req.Ack, roomID))
		return nil

	case game.REQ_SIGNAL:
		return rs.relaySignal(conn, req)
	}

	create, ok := roomEvents[req.Event]
	if !ok {
		return game.ErrUnknownRequest
	}

	roomID := game.PeekRoomID(req)
	if roomID == "" || len(roomID) > maxRoomIDLen {
		return ErrBadRoomID
	}

	return rs.post(roomID, req, create)
}

// relaySignal 把 WebRTC 信令原样转发给目标连接
func (rs *RoomService) relaySignal(from *game.Conn, req game.RequestWrapper) error {
	sreq := game.TryUnwrap[game.SignalRequest](req, game.REQ_SIGNAL)
	if sreq == nil {
		return game.ErrMalformedRequest
	}

	target := rs.Lookup(sreq.To)
	if target == nil {
		return ErrUnknownConn
	}

	target.Send(game.WrapResponse(game.RESP_SIGNAL, game.SignalResponse{
		Signal:   sreq.Signal,
		From:     from.ID,
		UserName: sreq.UserName,
	}))

	return nil
}

// post 把请求投递到房间；create 为 true 时房间不存在则创建
func (rs *RoomService) post(roomID string, req game.RequestWrapper, create bool) error {
	rs.state.mu.RLock()
	if entry := rs.state.rooms[roomID]; entry != nil {
		err := postTo(entry, req)
		rs.state.mu.RUnlock()
		return err
	}
	rs.state.mu.RUnlock()

	if !create {
		return ErrUnknownRoom
	}

	rs.state.mu.Lock()
	defer rs.state.mu.Unlock()

	entry := rs.state.rooms[roomID]
	if entry == nil {
		if rs.state.baseCtx.Err() != nil {
			return ErrUnknownRoom
		}
		entry = rs.startRoomLocked(roomID)
	}

	return postTo(entry, req)
}

// postDisconnect 在房间队列已满时等待，断线事件丢失会留下无法清理的成员
func (rs *RoomService) postDisconnect(roomID string, conn *game.Conn) error {
	rs.state.mu.RLock()
	entry := rs.state.rooms[roomID]
	rs.state.mu.RUnlock()

	if entry == nil {
		return ErrUnknownRoom
	}

	ctx, cancel := context.WithTimeout(rs.state.baseCtx, disconnectPostTimeout)
	defer cancel()

	req := game.RequestWrapper{
		Event:  game.REQ_DISCONNECT,
		Sender: conn,
	}

	if !entry.room.PostWait(ctx, req) {
		return ErrRoomBusy
	}

	return nil
}

func postTo(entry *roomEntry, req game.RequestWrapper) error {
	if !entry.room.Post(req) {
		zap.L().Warn(
			"房间请求队列已满，丢弃请求",
			zap.String("room_id", entry.room.ID()),
			zap.String("event", req.Event),
		)
		return ErrRoomBusy
	}

	return nil
}

func (rs *RoomService) startRoomLocked(roomID string) *roomEntry {
	room := game.NewRoom(roomID, rs.opts.Room)
	ctx, cancel := context.WithCancel(rs.state.baseCtx)

	entry := &roomEntry{room: room, cancel: cancel}
	rs.state.rooms[roomID] = entry

	rs.state.roomsGroup.Add(1)
	go func() {
		defer rs.state.roomsGroup.Done()
		room.Run(ctx)
	}()

	metrics.RoomsActive.Inc()

	zap.S().Infof("房间 %s 已创建", roomID)

	return entry
}

// RandomRoom 在有成员的房间中均匀随机选择一个，没有时返回空字符串
func (rs *RoomService) RandomRoom() string {
	rs.state.mu.RLock()
	defer rs.state.mu.RUnlock()

	candidates := make([]string, 0, len(rs.state.rooms))
	for roomID, entry := range rs.state.rooms {
		if entry.room.MemberCount() > 0 {
			candidates = append(candidates, roomID)
		}
	}

	if len(candidates) == 0 {
		return ""
	}

	return candidates[rand.IntN(len(candidates))]
}

// RoomMembers 返回房间成员快照
func (rs *RoomService) RoomMembers(roomID string) ([]game.Member, bool) {
	rs.state.mu.RLock()
	entry := rs.state.rooms[roomID]
	rs.state.mu.RUnlock()

	if entry == nil {
		return nil, false
	}

	return entry.room.Members(), true
}

// NewRoomID 生成一个当前未被占用的短房间号，房间在第一次加入时创建
func (rs *RoomService) NewRoomID() string {
	rs.state.mu.RLock()
	defer rs.state.mu.RUnlock()

	for {
		roomID := game.ShortID()
		if _, exists := rs.state.rooms[roomID]; !exists {
			return roomID
		}
	}
}

func (rs *RoomService) Stats() (rooms int, conns int) {
	rs.state.mu.RLock()
	defer rs.state.mu.RUnlock()

	return len(rs.state.rooms), len(rs.state.conns)
}
