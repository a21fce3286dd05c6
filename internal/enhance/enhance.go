// Package enhance wraps canonical answers in short conversational prose.
//
// Everything here is a pure function of its inputs: identical inputs give
// identical text, so enhanced answers can be rebuilt from cached rankings.
package enhance

import (
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"

	"github.com/agrisense/advisor/internal/knowledge"
	"github.com/agrisense/advisor/internal/session"
)

// MaxFollowUps is the number of related questions suggested per answer.
const MaxFollowUps = 2

// Mood is the tone detected in a question and its answer.
type Mood string

const (
	MoodProblem       Mood = "problem"
	MoodSuccess       Mood = "success"
	MoodInformational Mood = "informational"
)

var problemKeywords = []string{
	"disease", "pest", "insect", "bug", "worm", "aphid", "fungus", "fungal", "mold", "mould",
	"blight", "rotting", "rotten", "root rot", "wilt", "spot", "yellow", "brown", "curl", "dying",
	"dead", "damage", "infect", "problem", "issue", "deficien", "drought", "not growing", "stunted",
	"बीमारी", "रोग", "कीट", "समस्या", "सूख",
	"plaga", "enfermedad", "problema", "hongo", "amarill", "podrid",
}

var successKeywords = []string{
	"thank", "great", "success", "worked", "working well", "healthy", "improved", "good yield",
	"bumper", "harvested", "solved",
	"धन्यवाद", "शुक्रिया", "सफल", "अच्छी फसल",
	"gracias", "éxito", "funcionó", "sano", "buena cosecha",
}

// ClassifyMood picks a mood from keyword hits. Problem wins over success,
// and the question is checked before the answer.
func ClassifyMood(question, answer string) Mood {
	q := words(question)
	a := words(answer)

	switch {
	case containsAny(q, problemKeywords):
		return MoodProblem
	case containsAny(q, successKeywords):
		return MoodSuccess
	case containsAny(a, problemKeywords):
		return MoodProblem
	default:
		return MoodInformational
	}
}

// words lowercases s and reduces it to space-separated words, padded so
// that keywords only match at the start of a word.
func words(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && !unicode.IsMark(r)
	})
	return " " + strings.Join(fields, " ") + " "
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, " "+k) {
			return true
		}
	}
	return false
}

// FollowUps returns up to limit questions from pool that share a tag with
// matched, excluding matched itself. Pool order is preserved.
func FollowUps(matched knowledge.Entry, pool []knowledge.Entry, limit int) []string {
	var out []string
	seen := map[string]bool{strings.ToLower(strings.TrimSpace(matched.Question)): true}
	for _, e := range pool {
		if len(out) >= limit {
			break
		}
		if e.ID == matched.ID || !e.SharesTag(matched) {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(e.Question))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e.Question)
	}
	return out
}

// Input is everything the enhancer looks at.
type Input struct {
	Question string
	Language string
	Matched  knowledge.Entry
	Related  []knowledge.Entry
	Turns    []session.Turn
}

// Output is an enhanced answer.
type Output struct {
	Text      string
	Mood      Mood
	Language  string
	FollowUps []string
}

// Enhance builds the conversational answer: an opener chosen by mood and by
// whether the session is new, the canonical answer unchanged, related
// questions, and a closing line.
func Enhance(in Input) Output {
	lang := ResolveLanguage(in.Language)
	pb := phrasesFor(lang)
	mood := ClassifyMood(in.Question, in.Matched.Answer)

	openers := pb.continuations[mood]
	if len(in.Turns) == 0 {
		openers = pb.greetings[mood]
	}
	seed := xxhash.Sum64String(in.Question)

	followUps := FollowUps(in.Matched, in.Related, MaxFollowUps)

	var sb strings.Builder
	sb.WriteString(pick(openers, seed))
	sb.WriteString("\n\n")
	sb.WriteString(in.Matched.Answer)
	if len(followUps) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(pb.followUpLead)
		for _, q := range followUps {
			sb.WriteString("\n- ")
			sb.WriteString(q)
		}
	}
	sb.WriteString("\n\n")
	sb.WriteString(pick(pb.closings[mood], seed>>1))

	return Output{
		Text:      sb.String(),
		Mood:      mood,
		Language:  lang,
		FollowUps: followUps,
	}
}

func pick(options []string, seed uint64) string {
	if len(options) == 0 {
		return ""
	}
	return options[seed%uint64(len(options))]
}
