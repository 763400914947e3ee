// internal/models/question.go
package models

import (
	"encoding/json"
	"sort"
)

const (
	TrueOptionText  = "True"
	FalseOptionText = "False"
)

// ShortAnswerMeta is stored JSON-encoded in the text of the single answer
// option a short_answer question may have.
type ShortAnswerMeta struct {
	SampleAnswer     string `json:"sampleAnswer"`
	AnswerGuidelines string `json:"answerGuidelines"`
}

func (m ShortAnswerMeta) Empty() bool {
	return m.SampleAnswer == "" && m.AnswerGuidelines == ""
}

func (m ShortAnswerMeta) Encode() (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func DecodeShortAnswerMeta(text string) (ShortAnswerMeta, error) {
	var m ShortAnswerMeta
	err := json.Unmarshal([]byte(text), &m)
	return m, err
}

type QuestionWithOptions struct {
	Question
	AnswerOptions []AnswerOption `json:"answer_options"`
}

// SortOptions orders the options by order index, keeping insertion order on ties.
func (q *QuestionWithOptions) SortOptions() {
	sort.SliceStable(q.AnswerOptions, func(i, j int) bool {
		return q.AnswerOptions[i].OrderIndex < q.AnswerOptions[j].OrderIndex
	})
}

// CorrectAnswer reports the stored answer of a true_false question. ok is
// false for other types or when the option pair is missing.
func (q QuestionWithOptions) CorrectAnswer() (answer bool, ok bool) {
	if q.QuestionType != TrueFalse {
		return false, false
	}
	for _, opt := range q.AnswerOptions {
		if opt.OptionText == TrueOptionText {
			return opt.IsCorrect, true
		}
	}
	return false, false
}

// ShortAnswer decodes the metadata row of a short_answer question.
func (q QuestionWithOptions) ShortAnswer() (ShortAnswerMeta, bool) {
	if q.QuestionType != ShortAnswer || len(q.AnswerOptions) == 0 {
		return ShortAnswerMeta{}, false
	}
	meta, err := DecodeShortAnswerMeta(q.AnswerOptions[0].OptionText)
	if err != nil {
		return ShortAnswerMeta{}, false
	}
	return meta, true
}

// CorrectOptionCount counts options flagged correct.
func (q QuestionWithOptions) CorrectOptionCount() int {
	n := 0
	for _, opt := range q.AnswerOptions {
		if opt.IsCorrect {
			n++
		}
	}
	return n
}

// Redacted returns a copy safe to show to quiz takers: correctness flags are
// cleared and short-answer metadata is dropped.
func (q QuestionWithOptions) Redacted() QuestionWithOptions {
	out := QuestionWithOptions{Question: q.Question, AnswerOptions: []AnswerOption{}}
	if q.QuestionType == ShortAnswer {
		return out
	}
	for _, opt := range q.AnswerOptions {
		opt.IsCorrect = false
		out.AnswerOptions = append(out.AnswerOptions, opt)
	}
	return out
}
