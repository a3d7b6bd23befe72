package prompt

import (
	"context"
	"sync"
)

// Scripted answers questions from queues and records what it was asked.
// An empty queue declines. It is safe for concurrent use.
type Scripted struct {
	mu sync.Mutex

	YesNo  []bool
	Texts  []string
	Names  []string
	Scores []int

	// Hook, when set, runs before each answer; a non-nil error is returned
	// to the caller.
	Hook func(ctx context.Context, kind, message string) error

	Asked []Question
}

// Question is one recorded question.
type Question struct {
	Kind    string
	Message string
	Title   string
	Score   int
}

// Question kinds recorded by Scripted.
const (
	KindYesNo = "yesno"
	KindText  = "text"
	KindName  = "name"
	KindScore = "score"
)

// AskYesNo pops the next yes/no answer.
func (s *Scripted) AskYesNo(ctx context.Context, message, title string) (bool, error) {
	if err := s.record(ctx, Question{Kind: KindYesNo, Message: message, Title: title}); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.YesNo) == 0 {
		return false, nil
	}
	yes := s.YesNo[0]
	s.YesNo = s.YesNo[1:]
	return yes, nil
}

// AskText pops the next text answer; ok is false when none is queued.
func (s *Scripted) AskText(ctx context.Context, message string) (string, bool, error) {
	if err := s.record(ctx, Question{Kind: KindText, Message: message}); err != nil {
		return "", false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Texts) == 0 {
		return "", false, nil
	}
	text := s.Texts[0]
	s.Texts = s.Texts[1:]
	return text, true, nil
}

// AskName pops the next name.
func (s *Scripted) AskName(ctx context.Context, score int, prompt string) (string, error) {
	if err := s.record(ctx, Question{Kind: KindName, Message: prompt, Score: score}); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Names) == 0 {
		return DeclinedName, nil
	}
	name := s.Names[0]
	s.Names = s.Names[1:]
	return normalizeName(name, true), nil
}

// AskScore pops the next score; 0 when none is queued.
func (s *Scripted) AskScore(ctx context.Context, prompt string) (int, error) {
	if err := s.record(ctx, Question{Kind: KindScore, Message: prompt}); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Scores) == 0 {
		return 0, nil
	}
	score := s.Scores[0]
	s.Scores = s.Scores[1:]
	return score, nil
}

// Count returns how many questions of kind were asked.
func (s *Scripted) Count(kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, q := range s.Asked {
		if q.Kind == kind {
			n++
		}
	}
	return n
}

func (s *Scripted) record(ctx context.Context, q Question) error {
	if err := ctx.Err(); err != nil {
		return interrupted(q.Kind)
	}
	s.mu.Lock()
	s.Asked = append(s.Asked, q)
	hook := s.Hook
	s.mu.Unlock()
	if hook != nil {
		return hook(ctx, q.Kind, q.Message)
	}
	return nil
}
