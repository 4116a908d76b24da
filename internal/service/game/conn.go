package game

import (
	"sync"

	"sketchbluff-be/internal/metrics"

	"go.uber.org/zap"
)

// Conn 是一个参与者连接在服务端的出站一侧。
// 连接 ID 在连接存活期间不变；房间协程通过它向客户端推送事件
type Conn struct {
	ID string

	respCh    chan ResponseWrapper
	done      chan struct{}
	closeOnce sync.Once

	mu     sync.Mutex
	name   string
	rooms  map[string]struct{}
	closed bool
}

func NewConn(id string, buffer int) *Conn {
	return &Conn{
		ID:     id,
		respCh: make(chan ResponseWrapper, buffer),
		done:   make(chan struct{}),
		rooms:  make(map[string]struct{}),
	}
}

// RespCh 供写协程读取待发送的事件
func (c *Conn) RespCh() <-chan ResponseWrapper {
	return c.respCh
}

func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Send 以非阻塞方式投递事件，连接已关闭或缓冲区已满时丢弃
func (c *Conn) Send(resp ResponseWrapper) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.respCh <- resp:
		return true
	default:
		metrics.BroadcastOverflow.Inc()
		zap.L().Warn(
			"发送响应失败：连接响应通道已满",
			zap.String("conn_id", c.ID),
			zap.String("event", resp.Event),
		)
		return false
	}
}

func (c *Conn) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.closeOnce.Do(func() {
		close(c.done)
	})
}

func (c *Conn) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.name
}

func (c *Conn) setName(name string) {
	c.mu.Lock()
	c.name = name
	c.mu.Unlock()
}

// trackRoom 记录连接加入了某个房间；连接已关闭时返回 false，
// 这样断线清理与加入请求之间不会留下幽灵成员
func (c *Conn) trackRoom(roomID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	c.rooms[roomID] = struct{}{}

	return true
}

func (c *Conn) untrackRoom(roomID string) {
	c.mu.Lock()
	delete(c.rooms, roomID)
	c.mu.Unlock()
}

func (c *Conn) Rooms() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	rooms := make([]string, 0, len(c.rooms))
	for id := range c.rooms {
		rooms = append(rooms, id)
	}

	return rooms
}
