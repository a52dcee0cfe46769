// Package parser normalizes raw model output into typed replies.
//
// Models are asked for strict JSON but frequently wrap it in code fences or
// answer in plain text. Every parser here degrades to a default value instead
// of failing; the returned domain.Reply carries Fallback=true in that case.
package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/debrief/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

const fence = "```"

// Clean trims the text and drops the first and last line when it is fenced.
func Clean(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, fence) && strings.HasSuffix(text, fence) {
		lines := strings.Split(text, "\n")
		if len(lines) < 2 {
			return ""
		}
		text = strings.Join(lines[1:len(lines)-1], "\n")
	}
	return text
}

// decode unmarshals text keeping numbers as json.Number.
func decode(text string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after JSON value")
	}
	return v, nil
}

// FollowUp extracts the follow-up question.
// Anything but an object with a "question" field yields the cleaned text verbatim.
func FollowUp(raw string) domain.Reply[string] {
	text := Clean(raw)
	v, err := decode(text)
	if err != nil {
		return domain.Degraded(text, raw)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return domain.Degraded(text, raw)
	}
	q, ok := obj["question"]
	if !ok || q == nil {
		return domain.Degraded(text, raw)
	}
	if s, ok := q.(string); ok {
		return domain.Parsed(s, raw)
	}
	return domain.Parsed(fmt.Sprint(q), raw)
}

// Transition extracts the binary move-on decision. Ambiguous output means false.
func Transition(raw string) domain.Reply[bool] {
	text := Clean(raw)
	v, err := decode(text)
	if err != nil {
		return domain.Degraded(literalTrue(text), raw)
	}

	switch val := v.(type) {
	case map[string]any:
		bv, ok := val["binary_value"]
		if !ok {
			return domain.Degraded(false, raw)
		}
		return domain.Parsed(equalsOne(bv), raw)
	case json.Number:
		return domain.Parsed(equalsOne(val), raw)
	case string:
		if n, err := strconv.Atoi(val); err == nil {
			return domain.Parsed(n == 1, raw)
		}
	}
	return domain.Degraded(literalTrue(text), raw)
}

func equalsOne(v any) bool {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return err == nil && f == 1
	case bool:
		return n
	}
	return false
}

func literalTrue(text string) bool {
	switch strings.TrimSpace(text) {
	case "1", "true", "True":
		return true
	}
	return false
}

// Summary decodes the goals and follow-up opportunities.
// On failure both lists hold the domain.SummaryParseFailure sentinel.
func Summary(raw string) domain.Reply[domain.Summary] {
	text := Clean(raw)
	v, err := decode(text)
	if err != nil {
		return domain.Degraded(domain.FallbackSummary(), raw)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return domain.Degraded(domain.FallbackSummary(), raw)
	}

	var out domain.Summary
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return domain.Degraded(domain.FallbackSummary(), raw)
	}
	if err := dec.Decode(obj); err != nil {
		return domain.Degraded(domain.FallbackSummary(), raw)
	}
	if out.Goals == nil {
		out.Goals = []string{}
	}
	if out.FollowUpOpportunities == nil {
		out.FollowUpOpportunities = []string{}
	}
	return domain.Parsed(out, raw)
}

// Compact re-encodes a JSON payload on a single line for logging.
func Compact(raw string) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(Clean(raw))); err != nil {
		return Clean(raw)
	}
	return buf.String()
}
