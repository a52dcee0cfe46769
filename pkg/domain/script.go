package domain

import (
	"fmt"
	"strings"
)

// Script is the fixed reflection flow of a session.
// The last question is the closing "anything else?" question.
type Script struct {
	Questions          []string `json:"questions" yaml:"questions"`
	TransitionQuestion string   `json:"transition_question" yaml:"transition_question"`
	Listening          string   `json:"listening" yaml:"listening"`
	Farewell           string   `json:"farewell" yaml:"farewell"`
}

// DefaultScript returns the built-in end-of-day reflection script.
func DefaultScript() Script {
	return Script{
		Questions: []string{
			"What is one success you had today?",
			"What is one struggle you had today?",
			"What one thing you are grateful for today?",
			"What are one or two things that stood out to you today?",
			"Great, I have asked all of my questions! Is there anything else that you want to talk about with me?",
		},
		TransitionQuestion: "That's great. Do you want to move on to the next question?",
		Listening:          "Go ahead, I'm listening.",
		Farewell:           "Thank you for sharing. Saving our conversation...",
	}
}

// Len returns the number of scripted questions.
func (s Script) Len() int {
	return len(s.Questions)
}

// IsClosing reports whether index points at the closing question.
func (s Script) IsClosing(index int) bool {
	return index == len(s.Questions)-1
}

// Validate checks that the script can drive a session.
func (s Script) Validate() error {
	if len(s.Questions) == 0 {
		return fmt.Errorf("%w: at least one question is required", ErrInvalidScript)
	}
	for i, q := range s.Questions {
		if strings.TrimSpace(q) == "" {
			return fmt.Errorf("%w: question %d is empty", ErrInvalidScript, i)
		}
		if q == s.TransitionQuestion {
			return fmt.Errorf("%w: question %d equals the transition question", ErrInvalidScript, i)
		}
	}
	if strings.TrimSpace(s.TransitionQuestion) == "" {
		return fmt.Errorf("%w: transition question is empty", ErrInvalidScript)
	}
	if strings.TrimSpace(s.Listening) == "" || strings.TrimSpace(s.Farewell) == "" {
		return fmt.Errorf("%w: listening and farewell messages are required", ErrInvalidScript)
	}
	return nil
}
