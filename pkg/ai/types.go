package ai

import (
	"context"
	"strings"
)

// ShortlistInput carries everything the scorer may use to judge a resume
// against a job role.
type ShortlistInput struct {
	Role          string
	Skills        []string
	CandidateName string
	ResumeText    string
}

// ShortlistDecision is the scorer's verdict for one candidate.
type ShortlistDecision struct {
	Shortlist bool    `json:"shortlist"`
	Score     float64 `json:"score"`
	Reason    string  `json:"reason,omitempty"`
}

// ShortlistScorer decides whether a candidate proceeds past resume screening.
type ShortlistScorer interface {
	Score(ctx context.Context, input ShortlistInput) (ShortlistDecision, error)
}

// KeywordScorer is the baseline scorer: the fraction of required skills found
// in the resume text, shortlisting at or above the threshold.
type KeywordScorer struct {
	Threshold float64
}

// NewKeywordScorer builds the baseline scorer. A zero threshold defaults to
// requiring half of the listed skills.
func NewKeywordScorer(threshold float64) KeywordScorer {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.5
	}
	return KeywordScorer{Threshold: threshold}
}

// Score matches the drive's skill keywords against the resume text.
func (s KeywordScorer) Score(_ context.Context, input ShortlistInput) (ShortlistDecision, error) {
	if len(input.Skills) == 0 {
		// Nothing to match against; let everyone through.
		return ShortlistDecision{Shortlist: true, Score: 1, Reason: "no skill criteria configured"}, nil
	}

	resume := strings.ToLower(input.ResumeText)
	matched := 0
	for _, skill := range input.Skills {
		keyword := strings.ToLower(strings.TrimSpace(skill))
		if keyword != "" && strings.Contains(resume, keyword) {
			matched++
		}
	}

	score := float64(matched) / float64(len(input.Skills))
	return ShortlistDecision{
		Shortlist: score >= s.Threshold,
		Score:     score,
	}, nil
}
