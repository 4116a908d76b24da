package game

// ScoreRound 按本回合的投票结算分数：
// 真实答案每得一票，绘画者得 500；谎言每得一票，作者得 100；
// 投中真实答案的玩家各得 200。没有分数记录的玩家（例如中途离开）被跳过
func ScoreRound(subs []*Submission, scores map[string]*Score) {
	award := func(playerID string, points int) {
		score, ok := scores[playerID]
		if !ok {
			return
		}

		score.RoundScore += points
		score.Total += points
	}

	for _, sub := range subs {
		votes := len(sub.Votes)
		if votes == 0 {
			continue
		}

		if !sub.IsTruth {
			award(sub.AuthorID, votes*LIE_POINTS_PER_VOTE)
			continue
		}

		award(sub.AuthorID, votes*TRUTH_POINTS_PER_VOTE)

		for _, v := range sub.Votes {
			award(v.VoterID, TRUTH_GUESS_POINTS)
		}
	}
}

func snapshotScores(scores map[string]*Score) map[string]Score {
	snap := make(map[string]Score, len(scores))
	for id, s := range scores {
		snap[id] = *s
	}

	return snap
}

func snapshotSubmissions(subs []*Submission) []Submission {
	snap := make([]Submission, 0, len(subs))
	for _, s := range subs {
		snap = append(snap, s.clone())
	}

	return snap
}
