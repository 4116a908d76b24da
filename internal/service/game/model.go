package game

import "slices"

// 对局阶段。没有进行中的对局时房间处于 waiting
const (
	STAGE_WAITING          = "waiting"
	STAGE_PROMPT_SELECTION = "prompt_selection"
	STAGE_DRAWING          = "drawing"
	STAGE_SUBMITTING_LIES  = "submitting_lies"
	STAGE_VOTING           = "voting"
	STAGE_RESULTS          = "results"
)

const (
	MIN_PLAYERS    = 2
	MAX_ROUNDS     = 10
	PROMPT_CHOICES = 3

	TRUTH_POINTS_PER_VOTE = 500
	LIE_POINTS_PER_VOTE   = 100
	TRUTH_GUESS_POINTS    = 200
)

type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Member struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsLeader bool   `json:"isLeader"`
}

// 各阶段时长，单位秒
type Settings struct {
	DrawingTime    int `json:"drawingTime"`
	SubmittingTime int `json:"submittingTime"`
	VotingTime     int `json:"votingTime"`
}

// normalize 用默认值补齐非正数的时长，并将超出上限的时长截断
func (s Settings) normalize(defaults Settings, maxSeconds int) Settings {
	fix := func(v, def int) int {
		if v <= 0 {
			v = def
		}
		if maxSeconds > 0 && v > maxSeconds {
			v = maxSeconds
		}
		return v
	}

	return Settings{
		DrawingTime:    fix(s.DrawingTime, defaults.DrawingTime),
		SubmittingTime: fix(s.SubmittingTime, defaults.SubmittingTime),
		VotingTime:     fix(s.VotingTime, defaults.VotingTime),
	}
}

type Vote struct {
	VoterID   string `json:"voterId"`
	VoterName string `json:"voterName"`
}

// 候选答案：真实题目（IsTruth）或玩家编造的谎言
type Submission struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	AuthorID   string `json:"authorId"`
	AuthorName string `json:"authorName"`
	IsTruth    bool   `json:"isTruth"`
	Votes      []Vote `json:"votes"`
}

func (s *Submission) clone() Submission {
	c := *s
	c.Votes = slices.Clone(s.Votes)
	if c.Votes == nil {
		c.Votes = []Vote{}
	}
	return c
}

type Score struct {
	Name       string `json:"name"`
	Total      int    `json:"total"`
	RoundScore int    `json:"roundScore"`
}

// Session 是一局游戏的全部状态，只在房间协程中读写
type Session struct {
	Players           []Player
	CurrentRound      int
	TotalRounds       int
	ActivePlayerIndex int
	Countdown         int
	Settings          Settings

	Prompt        string
	PromptChoices []string
	Drawing       string
	Submissions   []*Submission
	Scores        map[string]*Score
}

func TotalRounds(playerCount int) int {
	return min(playerCount*2, MAX_ROUNDS)
}

func newSession(players []Player, settings Settings) *Session {
	scores := make(map[string]*Score, len(players))
	for _, p := range players {
		scores[p.ID] = &Score{Name: p.Name}
	}

	return &Session{
		Players:      players,
		CurrentRound: 1,
		TotalRounds:  TotalRounds(len(players)),
		Settings:     settings,
		Scores:       scores,
	}
}

func (s *Session) ActivePlayer() Player {
	return s.Players[s.ActivePlayerIndex]
}

// advanceRound 进入下一回合并轮换绘画者
func (s *Session) advanceRound() {
	s.CurrentRound++
	s.ActivePlayerIndex = (s.ActivePlayerIndex + 1) % len(s.Players)
}

func (s *Session) resetRound() {
	s.Prompt = ""
	s.PromptChoices = nil
	s.Drawing = ""
	s.Submissions = nil

	for _, score := range s.Scores {
		score.RoundScore = 0
	}
}

func (s *Session) Truth() *Submission {
	for _, sub := range s.Submissions {
		if sub.IsTruth {
			return sub
		}
	}

	return nil
}

func (s *Session) FindSubmission(id string) *Submission {
	for _, sub := range s.Submissions {
		if sub.ID == id {
			return sub
		}
	}

	return nil
}

func (s *Session) LieBy(authorID string) *Submission {
	for _, sub := range s.Submissions {
		if !sub.IsTruth && sub.AuthorID == authorID {
			return sub
		}
	}

	return nil
}

func (s *Session) LieCount() int {
	n := 0
	for _, sub := range s.Submissions {
		if !sub.IsTruth {
			n++
		}
	}

	return n
}

// LiesFrom 统计 ids 中玩家提交的谎言数量
func (s *Session) LiesFrom(ids map[string]bool) int {
	n := 0
	for _, sub := range s.Submissions {
		if !sub.IsTruth && ids[sub.AuthorID] {
			n++
		}
	}

	return n
}

// VotesFrom 统计 ids 中玩家投出的票数
func (s *Session) VotesFrom(ids map[string]bool) int {
	n := 0
	for _, sub := range s.Submissions {
		for _, v := range sub.Votes {
			if ids[v.VoterID] {
				n++
			}
		}
	}

	return n
}

func (s *Session) TotalVotes() int {
	n := 0
	for _, sub := range s.Submissions {
		n += len(sub.Votes)
	}

	return n
}

func (s *Session) HasVoted(voterID string) bool {
	for _, sub := range s.Submissions {
		for _, v := range sub.Votes {
			if v.VoterID == voterID {
				return true
			}
		}
	}

	return false
}

func (s *Session) IsPlayer(id string) bool {
	return slices.ContainsFunc(s.Players, func(p Player) bool {
		return p.ID == id
	})
}
