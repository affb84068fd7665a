package quiz

import (
	"math/rand/v2"
	"time"
)

const (
	MaxItems       = 5 // per generated quiz
	OptionsPerItem = 4

	distractorCount = OptionsPerItem - 1
	minKeywords     = OptionsPerItem
)

// Generator turns free text into fill-in-the-blank items.
// A Generator is not safe for concurrent use: create one per request.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator returns a Generator drawing from rng, or from a time-seeded source when rng is nil.
func NewGenerator(rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), uint64(time.Now().UnixNano())))
	}
	return &Generator{rng: rng}
}

// NewSeededGenerator returns a reproducible Generator.
func NewSeededGenerator(seed uint64) *Generator {
	return NewGenerator(rand.New(rand.NewPCG(seed, seed)))
}

// Generate builds up to MaxItems items from the sentences of text, in sentence order.
// The returned Quiz is empty when no sentence qualifies.
func (g *Generator) Generate(text string) Quiz {
	quiz := make(Quiz, 0, MaxItems)
	for sentence := range Sentences(text) {
		if item, ok := g.BuildItem(sentence); ok {
			quiz = append(quiz, item)
			if len(quiz) == MaxItems {
				break
			}
		}
	}
	return quiz
}

// BuildItem makes one item out of sentence.
// The answer is drawn uniformly from the keyword list (repeated keywords weigh more);
// the 3 distractors are drawn without replacement from the other distinct keywords.
// It reports false when the sentence has fewer than 4 keywords or fewer than 3 distractors.
func (g *Generator) BuildItem(sentence string) (Item, bool) {
	keywords := Keywords(sentence)
	if len(keywords) < minKeywords {
		return Item{}, false
	}

	answer := keywords[g.rng.IntN(len(keywords))]
	pool := distinctExcept(keywords, answer)
	if len(pool) < distractorCount {
		return Item{}, false
	}

	// partial Fisher-Yates: pool[:distractorCount] becomes a uniform sample
	for i := 0; i < distractorCount; i++ {
		j := i + g.rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	options := append(pool[:distractorCount:distractorCount], answer)
	g.rng.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	return Item{
		Question: Blank(sentence, answer),
		Options:  options,
		Answer:   answer,
	}, true
}

// distinctExcept returns the distinct words (exact match) other than answer, in first-seen order.
func distinctExcept(words []string, answer string) []string {
	seen := map[string]struct{}{answer: {}}
	var out []string
	for _, w := range words {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
