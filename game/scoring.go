package game

import (
	"fmt"
	"strings"
)

// EvaluateGuess reports whether text matches answer, ignoring case and
// surrounding whitespace.
func EvaluateGuess(text, answer string) bool {
	if answer == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(text), strings.TrimSpace(answer))
}

// GuesserPoints rewards faster guesses: a third of the seconds left, at least 1.
func GuesserPoints(timeLeft int) int {
	return max(1, timeLeft/3)
}

func DrawerPoints(correctGuessers int) int {
	return 2 * correctGuessers
}

type Standings struct {
	MaxScore int
	Winners  []User
}

// DetermineWinners returns every user sharing the top score.
func DetermineWinners(users []User) Standings {
	s := Standings{}
	for i, u := range users {
		switch {
		case i == 0 || u.Score > s.MaxScore:
			s.MaxScore = u.Score
			s.Winners = []User{u}
		case u.Score == s.MaxScore:
			s.Winners = append(s.Winners, u)
		}
	}
	return s
}

func (s Standings) IsTie() bool {
	return len(s.Winners) > 1
}

func (s Standings) Announcement() string {
	if len(s.Winners) == 1 {
		return fmt.Sprintf("🏆 Game Over! Winner: %s with %d points!", s.Winners[0].Name, s.MaxScore)
	}
	return fmt.Sprintf("🤝 Game Over! It's a tie with %d points!", s.MaxScore)
}
