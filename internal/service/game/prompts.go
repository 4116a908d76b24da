package game

import "math/rand/v2"

// PromptSource 为绘画者提供备选题目
type PromptSource interface {
	Pick(rng *rand.Rand, n int) []string
}

type WordList []string

var DefaultPrompts = WordList{
	"A dancing penguin",
	"A space alien eating pizza",
	"A flying elephant",
	"A cat riding a skateboard",
	"A monkey taking a selfie",
	"A robot playing basketball",
	"A submarine in the sky",
	"A dragon drinking coffee",
	"A zombie at the beach",
	"A pineapple wearing sunglasses",
	"A giraffe on a unicycle",
	"A dog driving a car",
	"A banana with arms and legs",
	"A frog playing a guitar",
	"A cow jumping over the moon",
	"A snowman at the beach",
	"A teddy bear lifting weights",
	"A pig flying a kite",
	"A turtle wearing roller skates",
	"A chicken crossing the road",
}

// Pick 无放回地随机抽取 n 个题目
func (w WordList) Pick(rng *rand.Rand, n int) []string {
	n = min(n, len(w))
	picked := make([]string, 0, n)

	for _, idx := range rng.Perm(len(w))[:n] {
		picked = append(picked, w[idx])
	}

	return picked
}
