package game

import "time"

// TickerFactory 创建周期性的滴答源，测试中可替换为手动驱动的实现
type TickerFactory interface {
	Create(interval time.Duration) (ticks <-chan time.Time, stop func())
}

type timeTickers struct{}

func (timeTickers) Create(interval time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(interval)
	return t.C, t.Stop
}

func NewTickerFactory() TickerFactory {
	return timeTickers{}
}

// Countdown 是房间内唯一的倒计时。
// 每次 Start 都会作废之前的倒计时：旧滴答协程退出，
// 已经在途的旧滴答因代次不符而被 Tick 忽略
type Countdown struct {
	tickers TickerFactory
	post    func(generation uint64, stop <-chan struct{}) bool

	generation uint64
	remaining  int
	stage      string
	stop       chan struct{}
}

func newCountdown(
	tickers TickerFactory,
	post func(generation uint64, stop <-chan struct{}) bool,
) *Countdown {
	return &Countdown{
		tickers: tickers,
		post:    post,
	}
}

func (cd *Countdown) Start(stage string, seconds int) uint64 {
	cd.Cancel()

	cd.generation++
	cd.remaining = seconds
	cd.stage = stage

	stop := make(chan struct{})
	cd.stop = stop

	gen := cd.generation
	ticks, stopTicker := cd.tickers.Create(time.Second)
	post := cd.post

	go func() {
		defer stopTicker()

		for {
			select {
			case <-stop:
				return
			case <-ticks:
				if !post(gen, stop) {
					return
				}
			}
		}
	}()

	return gen
}

// Cancel 释放当前倒计时，空闲时调用无副作用
func (cd *Countdown) Cancel() bool {
	if cd.stop == nil {
		return false
	}

	close(cd.stop)
	cd.stop = nil

	return true
}

// Tick 处理一次滴答。ok 为 false 表示滴答来自已作废的倒计时；
// 归零时倒计时被释放且 expired 为 true
func (cd *Countdown) Tick(generation uint64) (remaining int, expired bool, ok bool) {
	if cd.stop == nil || generation != cd.generation {
		return 0, false, false
	}

	cd.remaining--
	if cd.remaining <= 0 {
		cd.remaining = 0
		cd.Cancel()
		return 0, true, true
	}

	return cd.remaining, false, true
}

func (cd *Countdown) Active() bool {
	return cd.stop != nil
}

func (cd *Countdown) Generation() uint64 {
	return cd.generation
}

func (cd *Countdown) Remaining() int {
	return cd.remaining
}

// Stage 返回倒计时所属的阶段
func (cd *Countdown) Stage() string {
	return cd.stage
}
