package domain

// View is the read-only projection of a State handed to presentation layers.
type View struct {
	SessionID      string    `json:"session_id"`
	Phase          Phase     `json:"phase"`
	Active         bool      `json:"active"`
	Awaiting       Awaiting  `json:"awaiting"`
	ShowYesNo      bool      `json:"show_yes_no"`
	Cursor         int       `json:"cursor"`
	TotalQuestions int       `json:"total_questions"`
	Pending        bool      `json:"pending"`
	Transcript     []Message `json:"transcript"`
}

// NewView projects a state for a script of total questions.
func NewView(s *State, total int) *View {
	return &View{
		SessionID:      s.SessionID,
		Phase:          s.Phase(total),
		Active:         s.Active,
		Awaiting:       s.Awaiting,
		ShowYesNo:      s.Active && !s.Pending && s.Awaiting != AwaitingNone,
		Cursor:         s.Cursor,
		TotalQuestions: total,
		Pending:        s.Pending,
		Transcript:     append([]Message(nil), s.Transcript...),
	}
}

// LastAssistant returns the most recent coach message, if any.
func (v *View) LastAssistant() (string, bool) {
	return LastAssistant(v.Transcript)
}
