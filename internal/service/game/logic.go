package game

import (
	"strings"

	"sketchbluff-be/internal/metrics"

	"go.uber.org/zap"
)

// 一局游戏由若干回合组成，每回合依次经过：
// 1. 选题阶段（prompt_selection）：绘画者从 3 个备选题目中选择一个
// 2. 绘画阶段（drawing）：绘画者作画，画面实时转发给房间
// 3. 编造阶段（submitting_lies）：其他玩家为画作编造以假乱真的题目
// 4. 投票阶段（voting）：所有候选答案打乱后公开，玩家投出认为真实的一项
// 5. 结算阶段（results）：公布答案与得分，由房主进入下一回合
// 没有对局时房间处于等待阶段（waiting）
type StageHandler interface {
	Stage() string

	OnEnter(ctx *GameContext)
	OnHandle(ctx *GameContext, req RequestWrapper) error
	OnExit(ctx *GameContext)

	SetOnSwitch(func(nextStage string))
}

// timeoutFor 判断请求是否为本阶段倒计时的到期事件。
// 其他阶段遗留的到期事件返回 ErrStaleTimeout
func timeoutFor(stage string, req RequestWrapper) (bool, error) {
	tmo := TryUnwrap[TimeoutRequest](req, REQ_TIMEOUT)
	if tmo == nil {
		return false, nil
	}

	if tmo.Stage != stage {
		return false, ErrStaleTimeout
	}

	metrics.TimerExpirations.WithLabelValues(stage).Inc()

	return true, nil
}

// 等待阶段：房间内没有进行中的对局
type waitStageHandler struct {
	onSwitch func(string)
}

func NewWaitStageHandler() *waitStageHandler {
	return &waitStageHandler{}
}

func (wsh *waitStageHandler) Stage() string {
	return STAGE_WAITING
}

func (wsh *waitStageHandler) OnEnter(ctx *GameContext) {
	ctx.ClearTimeout()
	ctx.Session = nil
}

func (wsh *waitStageHandler) OnHandle(ctx *GameContext, req RequestWrapper) error {
	if req.Event == REQ_MEMBERS_CHANGED {
		return nil
	}

	sreq := TryUnwrap[StartGameRequest](req, REQ_START_GAME)
	if sreq == nil {
		if req.Event == REQ_START_GAME {
			return ErrMalformedRequest
		}
		return ErrNoSession
	}

	if !ctx.Members.IsLeader(req.SenderID()) {
		return ErrNotLeader
	}

	members := ctx.Members.List()
	if len(members) < MIN_PLAYERS {
		return ErrNotEnoughPlayers
	}

	players := make([]Player, 0, len(members))
	for _, m := range members {
		players = append(players, Player{ID: m.ID, Name: m.Name})
	}

	settings := sreq.Settings.normalize(ctx.Defaults, ctx.MaxPhaseTime)
	ctx.Session = newSession(players, settings)

	metrics.GamesStarted.Inc()

	ctx.log.Info(
		"对局开始",
		zap.Int("players", len(players)),
		zap.Int("total_rounds", ctx.Session.TotalRounds),
		zap.Any("settings", settings),
	)

	wsh.onSwitch(STAGE_PROMPT_SELECTION)

	return nil
}

func (wsh *waitStageHandler) OnExit(ctx *GameContext) {
}

func (wsh *waitStageHandler) SetOnSwitch(onSwitch func(string)) {
	wsh.onSwitch = onSwitch
}

// 选题阶段处理器
type promptStageHandler struct {
	onSwitch func(string)
}

func NewPromptStageHandler() *promptStageHandler {
	return &promptStageHandler{}
}

func (psh *promptStageHandler) Stage() string {
	return STAGE_PROMPT_SELECTION
}

func (psh *promptStageHandler) OnEnter(ctx *GameContext) {
	// 新回合开始，清空上一回合的数据
	ctx.Session.resetRound()
	ctx.Session.PromptChoices = ctx.Prompts.Pick(ctx.Rand, PROMPT_CHOICES)
	ctx.Session.Countdown = ctx.PromptSelectionTime

	ctx.BroadcastGameState()

	ctx.SetTimeout(ctx.PromptSelectionTime)
}

func (psh *promptStageHandler) OnHandle(ctx *GameContext, req RequestWrapper) error {
	if expired, err := timeoutFor(STAGE_PROMPT_SELECTION, req); expired || err != nil {
		if err != nil {
			return err
		}

		// 绘画者没有及时选题，从备选题目中随机选一个
		choices := ctx.Session.PromptChoices
		if len(choices) == 0 {
			choices = ctx.Prompts.Pick(ctx.Rand, 1)
		}
		ctx.Session.Prompt = choices[ctx.Rand.IntN(len(choices))]

		psh.onSwitch(STAGE_DRAWING)
		return nil
	}

	if req.Event == REQ_MEMBERS_CHANGED {
		return nil
	}

	sreq := TryUnwrap[SelectPromptRequest](req, REQ_SELECT_PROMPT)
	if sreq == nil {
		return ErrWrongStage
	}

	if req.SenderID() != ctx.Session.ActivePlayer().ID {
		return ErrNotActivePlayer
	}

	prompt := strings.TrimSpace(sreq.Prompt)
	if prompt == "" {
		return ErrEmptyText
	}

	ctx.Session.Prompt = prompt

	psh.onSwitch(STAGE_DRAWING)

	return nil
}

func (psh *promptStageHandler) OnExit(ctx *GameContext) {
	ctx.ClearTimeout()
}

func (psh *promptStageHandler) SetOnSwitch(onSwitch func(string)) {
	psh.onSwitch = onSwitch
}

// 绘画阶段处理器
type drawStageHandler struct {
	onSwitch func(string)
}

func NewDrawStageHandler() *drawStageHandler {
	return &drawStageHandler{}
}

func (dsh *drawStageHandler) Stage() string {
	return STAGE_DRAWING
}

func (dsh *drawStageHandler) OnEnter(ctx *GameContext) {
	ctx.Session.Countdown = ctx.Session.Settings.DrawingTime

	ctx.BroadcastGameState()

	ctx.SetTimeout(ctx.Session.Settings.DrawingTime)
}

func (dsh *drawStageHandler) OnHandle(ctx *GameContext, req RequestWrapper) error {
	if expired, err := timeoutFor(STAGE_DRAWING, req); expired || err != nil {
		if err != nil {
			return err
		}

		dsh.onSwitch(STAGE_SUBMITTING_LIES)
		return nil
	}

	if req.Event == REQ_MEMBERS_CHANGED {
		return nil
	}

	dreq := TryUnwrap[DrawingUpdateRequest](req, REQ_DRAWING_UPDATE)
	if dreq == nil {
		return ErrWrongStage
	}

	if req.SenderID() != ctx.Session.ActivePlayer().ID {
		return ErrNotActivePlayer
	}

	// 画面原样保存并转发，服务端不解析其内容
	ctx.Session.Drawing = dreq.DataURL

	ctx.BroadcastResp(WrapResponse(RESP_DRAWING_UPDATE, dreq.DataURL))

	return nil
}

func (dsh *drawStageHandler) OnExit(ctx *GameContext) {
	ctx.ClearTimeout()
}

func (dsh *drawStageHandler) SetOnSwitch(onSwitch func(string)) {
	dsh.onSwitch = onSwitch
}

// 编造阶段处理器
type submitStageHandler struct {
	onSwitch func(string)
}

func NewSubmitStageHandler() *submitStageHandler {
	return &submitStageHandler{}
}

func (ssh *submitStageHandler) Stage() string {
	return STAGE_SUBMITTING_LIES
}

func (ssh *submitStageHandler) OnEnter(ctx *GameContext) {
	s := ctx.Session
	active := s.ActivePlayer()

	// 真实题目作为唯一的正确答案加入候选列表
	s.Submissions = []*Submission{
		{
			ID:         ctx.NewID(),
			Text:       s.Prompt,
			AuthorID:   active.ID,
			AuthorName: active.Name,
			IsTruth:    true,
			Votes:      []Vote{},
		},
	}
	s.Countdown = s.Settings.SubmittingTime

	ctx.BroadcastGameState()
	broadcastLieProgress(ctx)

	ctx.SetTimeout(s.Settings.SubmittingTime)
}

func (ssh *submitStageHandler) OnHandle(ctx *GameContext, req RequestWrapper) error {
	if expired, err := timeoutFor(STAGE_SUBMITTING_LIES, req); expired || err != nil {
		if err != nil {
			return err
		}

		// 无论是否所有人都已提交，到期即进入投票
		ssh.onSwitch(STAGE_VOTING)
		return nil
	}

	if req.Event == REQ_MEMBERS_CHANGED {
		ssh.advanceIfComplete(ctx)
		return nil
	}

	lreq := TryUnwrap[SubmitLieRequest](req, REQ_SUBMIT_LIE)
	if lreq == nil {
		return ErrWrongStage
	}

	s := ctx.Session
	senderID := req.SenderID()

	if !ctx.Members.Has(senderID) {
		return ErrNotMember
	}

	if senderID == s.ActivePlayer().ID {
		return ErrActivePlayerSubmit
	}

	text := strings.TrimSpace(lreq.Lie)
	if text == "" {
		return ErrEmptyText
	}

	// 同一作者重复提交只覆盖文字
	if existing := s.LieBy(senderID); existing != nil {
		existing.Text = text
	} else {
		name := ctx.Members.Name(senderID)
		if name == "" {
			name = lreq.SubmitterName
		}

		s.Submissions = append(s.Submissions, &Submission{
			ID:         ctx.NewID(),
			Text:       text,
			AuthorID:   senderID,
			AuthorName: name,
			Votes:      []Vote{},
		})
	}

	broadcastLieProgress(ctx)

	ssh.advanceIfComplete(ctx)

	return nil
}

// advanceIfComplete 只统计仍在房间内的玩家的提交，已离开玩家的谎言保留但不计数
func (ssh *submitStageHandler) advanceIfComplete(ctx *GameContext) {
	responders := ctx.Responders()
	if len(responders) > 0 && ctx.Session.LiesFrom(responders) >= len(responders) {
		ssh.onSwitch(STAGE_VOTING)
	}
}

func (ssh *submitStageHandler) OnExit(ctx *GameContext) {
	ctx.ClearTimeout()
}

func (ssh *submitStageHandler) SetOnSwitch(onSwitch func(string)) {
	ssh.onSwitch = onSwitch
}

func broadcastLieProgress(ctx *GameContext) {
	progress := make([]LieProgress, 0, len(ctx.Session.Submissions))

	for _, sub := range ctx.Session.Submissions {
		if sub.IsTruth {
			continue
		}

		progress = append(progress, LieProgress{
			PlayerID:   sub.AuthorID,
			PlayerName: sub.AuthorName,
		})
	}

	ctx.BroadcastResp(WrapResponse(RESP_LIES_UPDATE, progress))
}

// 投票阶段处理器
type voteStageHandler struct {
	onSwitch func(string)
}

func NewVoteStageHandler() *voteStageHandler {
	return &voteStageHandler{}
}

func (vsh *voteStageHandler) Stage() string {
	return STAGE_VOTING
}

func (vsh *voteStageHandler) OnEnter(ctx *GameContext) {
	s := ctx.Session

	// 打乱顺序，避免真实答案的位置可被推断
	shuffleSubmissions(ctx.Rand, s.Submissions)

	s.Countdown = s.Settings.VotingTime

	ctx.BroadcastGameState()

	// 公开的候选答案只包含文字，作者信息保留在服务端用于结算
	choices := make([]LieChoice, 0, len(s.Submissions))
	for _, sub := range s.Submissions {
		choices = append(choices, LieChoice{ID: sub.ID, Text: sub.Text})
	}

	ctx.BroadcastResp(WrapResponse(RESP_LIES_UPDATE, choices))

	ctx.SetTimeout(s.Settings.VotingTime)
}

func (vsh *voteStageHandler) OnHandle(ctx *GameContext, req RequestWrapper) error {
	if expired, err := timeoutFor(STAGE_VOTING, req); expired || err != nil {
		if err != nil {
			return err
		}

		vsh.onSwitch(STAGE_RESULTS)
		return nil
	}

	if req.Event == REQ_MEMBERS_CHANGED {
		vsh.advanceIfComplete(ctx)
		return nil
	}

	vreq := TryUnwrap[VoteRequest](req, REQ_VOTE)
	if vreq == nil {
		return ErrWrongStage
	}

	s := ctx.Session
	voterID := req.SenderID()

	if !ctx.Members.Has(voterID) {
		return ErrNotMember
	}

	target := s.FindSubmission(vreq.LieID)
	if target == nil {
		return ErrUnknownSubmission
	}

	// 每名玩家每回合只能投一票
	if s.HasVoted(voterID) {
		return ErrAlreadyVoted
	}

	name := ctx.Members.Name(voterID)
	if name == "" {
		name = vreq.VoterName
	}

	target.Votes = append(target.Votes, Vote{VoterID: voterID, VoterName: name})

	ctx.log.Debug(
		"记录投票",
		zap.String("voter_id", voterID),
		zap.Int("total_votes", s.TotalVotes()),
	)

	vsh.advanceIfComplete(ctx)

	return nil
}

func (vsh *voteStageHandler) advanceIfComplete(ctx *GameContext) {
	responders := ctx.Responders()
	if len(responders) > 0 && ctx.Session.VotesFrom(responders) >= len(responders) {
		vsh.onSwitch(STAGE_RESULTS)
	}
}

func (vsh *voteStageHandler) OnExit(ctx *GameContext) {
	ctx.ClearTimeout()
}

func (vsh *voteStageHandler) SetOnSwitch(onSwitch func(string)) {
	vsh.onSwitch = onSwitch
}

// 结算阶段处理器
type resultStageHandler struct {
	onSwitch func(string)
}

func NewResultStageHandler() *resultStageHandler {
	return &resultStageHandler{}
}

func (rsh *resultStageHandler) Stage() string {
	return STAGE_RESULTS
}

func (rsh *resultStageHandler) OnEnter(ctx *GameContext) {
	s := ctx.Session

	ScoreRound(s.Submissions, s.Scores)
	s.Countdown = 0

	ctx.BroadcastGameState()

	ctx.BroadcastResp(WrapResponse(
		RESP_ROUND_RESULTS,
		RoundResults{
			Prompt:       s.Prompt,
			Drawing:      s.Drawing,
			Submissions:  snapshotSubmissions(s.Submissions),
			Scores:       snapshotScores(s.Scores),
			Round:        s.CurrentRound,
			TotalRounds:  s.TotalRounds,
			IsFinalRound: s.CurrentRound >= s.TotalRounds,
		},
	))

	ctx.log.Info(
		"回合结算",
		zap.Int("round", s.CurrentRound),
		zap.Int("total_votes", s.TotalVotes()),
	)
}

func (rsh *resultStageHandler) OnHandle(ctx *GameContext, req RequestWrapper) error {
	if req.Event == REQ_MEMBERS_CHANGED {
		return nil
	}

	if _, err := timeoutFor(STAGE_RESULTS, req); err != nil {
		return err
	}

	if TryUnwrap[NextRoundRequest](req, REQ_NEXT_ROUND) == nil {
		return ErrWrongStage
	}

	if !ctx.Members.IsLeader(req.SenderID()) {
		return ErrNotLeader
	}

	if ctx.Session.CurrentRound >= ctx.Session.TotalRounds {
		return ErrLastRound
	}

	ctx.Session.advanceRound()

	rsh.onSwitch(STAGE_PROMPT_SELECTION)

	return nil
}

func (rsh *resultStageHandler) OnExit(ctx *GameContext) {
}

func (rsh *resultStageHandler) SetOnSwitch(onSwitch func(string)) {
	rsh.onSwitch = onSwitch
}
