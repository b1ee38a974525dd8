package game

import (
	"math/rand"
	"strings"
	"sync"
)

const hintPlaceholder = "_"

// DefaultWords is the built-in pool used when no word storage is configured.
var DefaultWords = []string{
	"cat", "dog", "house", "tree", "car", "phone", "book", "chair", "table", "computer",
	"pizza", "apple", "flower", "sun", "moon", "star", "fish", "bird", "butterfly", "rainbow",
	"mountain", "ocean", "beach", "forest", "city", "bridge", "castle", "rocket", "airplane", "bicycle",
	"guitar", "piano", "camera", "glasses", "hat", "shoes", "clock", "key", "door", "window",
	"elephant", "lion", "tiger", "monkey", "giraffe", "penguin", "dolphin", "shark", "snake", "rabbit",
}

// WordBank holds the fixed word pool shared by every room. Each room keeps
// its own set of used words and passes it in.
type WordBank struct {
	words  []string
	locker sync.Mutex
	rng    *rand.Rand
}

// NewWordBank copies words so later changes by the caller don't leak into the
// pool. words must not be empty.
func NewWordBank(words []string, rng *rand.Rand) *WordBank {
	pool := make([]string, len(words))
	copy(pool, words)
	return &WordBank{words: pool, rng: rng}
}

func (wb *WordBank) Size() int {
	return len(wb.words)
}

// PickWord draws a word not in used, falling back to the whole pool once
// every word has been used. The pick is recorded in used.
func (wb *WordBank) PickWord(used map[string]struct{}) string {
	candidates := make([]string, 0, len(wb.words))
	for _, w := range wb.words {
		if _, taken := used[w]; !taken {
			candidates = append(candidates, w)
		}
	}
	if len(candidates) == 0 {
		candidates = wb.words
	}

	wb.locker.Lock()
	word := candidates[wb.rng.Intn(len(candidates))]
	wb.locker.Unlock()

	used[word] = struct{}{}
	return word
}

// BuildHint reveals max(1, len/2) random positions of word and blanks the
// rest, e.g. "c _ t".
func (wb *WordBank) BuildHint(word string) string {
	letters := []rune(word)
	if len(letters) == 0 {
		return ""
	}

	wb.locker.Lock()
	positions := wb.rng.Perm(len(letters))[:revealCount(len(letters))]
	wb.locker.Unlock()

	revealed := make(map[int]bool, len(positions))
	for _, p := range positions {
		revealed[p] = true
	}

	parts := make([]string, len(letters))
	for i, r := range letters {
		if revealed[i] {
			parts[i] = string(r)
		} else {
			parts[i] = hintPlaceholder
		}
	}
	return strings.Join(parts, " ")
}

func revealCount(length int) int {
	return max(1, length/2)
}
