package domain

import "strings"

// SummaryParseFailure is the sentinel entry used when the model summary cannot be decoded.
const SummaryParseFailure = "Unable to parse summary"

// Summary is the structured outcome of a finished session.
// FollowUpOpportunities holds at most two entries by prompt contract; it is not enforced here.
type Summary struct {
	Goals                 []string `json:"Goals" mapstructure:"Goals"`
	FollowUpOpportunities []string `json:"Follow_Up_Opportunities" mapstructure:"Follow_Up_Opportunities"`
}

// FallbackSummary is returned when the model output could not be parsed.
func FallbackSummary() Summary {
	return Summary{
		Goals:                 []string{SummaryParseFailure},
		FollowUpOpportunities: []string{SummaryParseFailure},
	}
}

// Markdown renders the summary as a short markdown document.
func (s Summary) Markdown() string {
	var b strings.Builder
	b.WriteString("## Conversation Summary\n\n### Goals\n")
	writeList(&b, s.Goals)
	b.WriteString("\n### Follow-up Opportunities\n")
	writeList(&b, s.FollowUpOpportunities)
	return b.String()
}

func writeList(b *strings.Builder, items []string) {
	if len(items) == 0 {
		b.WriteString("- (none)\n")
		return
	}
	for _, item := range items {
		b.WriteString("- " + item + "\n")
	}
}
