package game

import (
	"math/rand/v2"

	"github.com/google/uuid"
)

// GenID 生成按时间有序的连接 ID
func GenID() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic("Failed to generate UUID: " + err.Error())
	}

	return id.String()
}

// ShortID 生成 8 位房间号
func ShortID() string {
	return uuid.NewString()[:8]
}

// genSubmissionID 使用随机 UUID：按时间有序的 ID 会暴露真实答案最先创建
func genSubmissionID() string {
	return uuid.NewString()
}

func NewRand(seed1, seed2 uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed1, seed2))
}

// shuffleSubmissions 对候选答案做均匀随机排列
func shuffleSubmissions(rng *rand.Rand, subs []*Submission) {
	rng.Shuffle(len(subs), func(i, j int) {
		subs[i], subs[j] = subs[j], subs[i]
	})
}
