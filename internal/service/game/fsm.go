package game

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"sketchbluff-be/internal/metrics"

	"go.uber.org/zap"
)

// 单次请求内允许的最大连续阶段切换次数
const maxStageCascade = 8

type Options struct {
	Defaults            Settings
	PromptSelectionTime int
	MaxPhaseTime        int
	InboxSize           int

	Tickers TickerFactory
	Prompts PromptSource
	Rand    *rand.Rand
	NewID   func() string
}

func DefaultOptions() Options {
	return Options{
		Defaults: Settings{
			DrawingTime:    60,
			SubmittingTime: 45,
			VotingTime:     30,
		},
		PromptSelectionTime: 30,
		MaxPhaseTime:        600,
		InboxSize:           256,
	}
}

// Room 是单个房间的状态机与事件循环。
// 成员操作、对局操作与倒计时滴答都在 Run 所在的协程中依次处理，
// 同一房间内不存在并发修改
type Room struct {
	ctx     *GameContext
	handler StageHandler

	// 客户端请求与内部请求汇总的通道
	inbox chan RequestWrapper
	// 倒计时滴答，携带倒计时代次
	ticks chan uint64
	// Run 退出时关闭
	done chan struct{}

	members   atomic.Int32
	pending   atomic.Int32
	snapshot  atomic.Pointer[[]Member]
	createdAt time.Time
}

func NewRoom(roomID string, opts Options) *Room {
	if opts.InboxSize <= 0 {
		opts.InboxSize = 256
	}
	if opts.Tickers == nil {
		opts.Tickers = NewTickerFactory()
	}
	if opts.Prompts == nil {
		opts.Prompts = DefaultPrompts
	}
	if opts.Rand == nil {
		opts.Rand = NewRand(rand.Uint64(), rand.Uint64())
	}
	if opts.NewID == nil {
		opts.NewID = genSubmissionID
	}

	r := &Room{
		inbox:     make(chan RequestWrapper, opts.InboxSize),
		ticks:     make(chan uint64, 8),
		done:      make(chan struct{}),
		createdAt: time.Now(),
	}

	r.ctx = &GameContext{
		RoomID:              roomID,
		GameStage:           STAGE_WAITING,
		Members:             NewMembership(),
		Timer:               newCountdown(opts.Tickers, r.postTick),
		Defaults:            opts.Defaults,
		PromptSelectionTime: opts.PromptSelectionTime,
		MaxPhaseTime:        opts.MaxPhaseTime,
		Prompts:             opts.Prompts,
		Rand:                opts.Rand,
		NewID:               opts.NewID,
		log:                 zap.L().With(zap.String("room_id", roomID)),
	}

	r.handler = r.newHandler(STAGE_WAITING)
	r.handler.OnEnter(r.ctx)
	r.publish()

	return r
}

func (r *Room) ID() string {
	return r.ctx.RoomID
}

func (r *Room) CreatedAt() time.Time {
	return r.createdAt
}

// Post 把请求放入房间队列；队列已满时返回 false
func (r *Room) Post(req RequestWrapper) bool {
	r.pending.Add(1)

	select {
	case r.inbox <- req:
		return true
	default:
		r.pending.Add(-1)
		return false
	}
}

// PostWait 阻塞投递请求，直到房间接收、房间协程退出或 ctx 结束。
// 用于不能丢失的内部事件
func (r *Room) PostWait(ctx context.Context, req RequestWrapper) bool {
	r.pending.Add(1)

	select {
	case r.inbox <- req:
		return true
	case <-r.done:
	case <-ctx.Done():
	}

	r.pending.Add(-1)

	return false
}

func (r *Room) postTick(generation uint64, stop <-chan struct{}) bool {
	select {
	case r.ticks <- generation:
		return true
	case <-stop:
		return false
	case <-r.done:
		return false
	}
}

// MemberCount 可在任意协程调用
func (r *Room) MemberCount() int {
	return int(r.members.Load())
}

// Members 返回最近一次处理完请求后的成员快照，可在任意协程调用
func (r *Room) Members() []Member {
	if snap := r.snapshot.Load(); snap != nil {
		return *snap
	}

	return []Member{}
}

// Idle 表示房间没有成员且没有待处理的请求，可以被回收
func (r *Room) Idle() bool {
	return r.members.Load() == 0 && r.pending.Load() == 0
}

func (r *Room) Run(ctx context.Context) {
	defer func() {
		r.ctx.ClearTimeout()
		close(r.done)

		r.ctx.log.Info("房间协程退出")
	}()

	for {
		select {
		case req := <-r.inbox:
			r.handle(req)
			r.pending.Add(-1)

		case gen := <-r.ticks:
			r.handleTick(gen)

		case <-ctx.Done():
			r.ctx.log.Info("收到退出信号，结束房间状态机")
			return
		}
	}
}

func (r *Room) handle(req RequestWrapper) {
	err := r.handleRoomRequest(req)
	if errors.Is(err, ErrUnknownRequest) {
		err = r.handler.OnHandle(r.ctx, req)
	}

	if err != nil {
		metrics.ActionsDropped.WithLabelValues(req.Event, err.Error()).Inc()

		r.ctx.log.Debug(
			"忽略请求",
			zap.String("event", req.Event),
			zap.String("conn_id", req.SenderID()),
			zap.String("stage", r.handler.Stage()),
			zap.Error(err),
		)
	}

	r.syncStage()
	r.publish()
}

func (r *Room) handleTick(gen uint64) {
	remaining, expired, ok := r.ctx.Timer.Tick(gen)
	if !ok {
		r.ctx.log.Debug("忽略已作废倒计时的滴答", zap.Uint64("generation", gen))
		return
	}

	if r.ctx.Session != nil {
		r.ctx.Session.Countdown = remaining
	}

	r.ctx.BroadcastResp(WrapResponse(RESP_TIMER_UPDATE, remaining))

	if !expired {
		return
	}

	r.ctx.log.Debug("倒计时到期", zap.String("stage", r.ctx.Timer.Stage()))

	r.handle(RequestWrapper{
		Event:      REQ_TIMEOUT,
		NativeData: &TimeoutRequest{Stage: r.ctx.Timer.Stage()},
	})
}

// syncStage 在阶段发生变化时依次执行旧阶段的 OnExit 与新阶段的 OnEnter
func (r *Room) syncStage() {
	for i := 0; r.ctx.GameStage != r.handler.Stage(); i++ {
		if i >= maxStageCascade {
			r.ctx.log.Error(
				"阶段切换次数过多，停止切换",
				zap.String("stage", r.ctx.GameStage),
			)
			return
		}

		r.switchStage()
		r.handler.OnEnter(r.ctx)
	}
}

func (r *Room) switchStage() {
	r.handler.OnExit(r.ctx)

	from := r.handler.Stage()
	r.handler = r.newHandler(r.ctx.GameStage)

	metrics.PhaseTransitions.WithLabelValues(r.ctx.GameStage).Inc()

	r.ctx.log.Debug(
		"切换阶段",
		zap.String("from", from),
		zap.String("to", r.ctx.GameStage),
	)
}

func (r *Room) newHandler(stage string) StageHandler {
	var handler StageHandler

	switch stage {
	case STAGE_PROMPT_SELECTION:
		handler = NewPromptStageHandler()
	case STAGE_DRAWING:
		handler = NewDrawStageHandler()
	case STAGE_SUBMITTING_LIES:
		handler = NewSubmitStageHandler()
	case STAGE_VOTING:
		handler = NewVoteStageHandler()
	case STAGE_RESULTS:
		handler = NewResultStageHandler()
	default:
		if stage != STAGE_WAITING {
			r.ctx.log.Error("未知的游戏阶段", zap.String("stage", stage))
			r.ctx.GameStage = STAGE_WAITING
		}
		handler = NewWaitStageHandler()
	}

	handler.SetOnSwitch(func(nextStage string) {
		r.ctx.GameStage = nextStage
	})

	return handler
}

// resetGame 结束对局回到等待阶段
func (r *Room) resetGame() {
	r.ctx.GameStage = STAGE_WAITING
	r.syncStage()
}

func (r *Room) publish() {
	r.members.Store(int32(r.ctx.Members.Len()))

	list := r.ctx.Members.List()
	r.snapshot.Store(&list)
}
