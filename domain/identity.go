package domain

import "github.com/google/uuid"

// EnsureQuestionIDs returns a copy of questions where every question and talking
// point carries an id. Only empty ids are filled; any other id is kept verbatim.
// A nil input yields an empty slice, as does a question without talking points.
func EnsureQuestionIDs(questions []Question) []Question {
	out := make([]Question, 0, len(questions))
	for _, q := range questions {
		if q.ID == "" {
			q.ID = uuid.NewString()
		}

		points := make([]TalkingPoint, 0, len(q.TalkingPoints))
		for _, p := range q.TalkingPoints {
			if p.ID == "" {
				p.ID = uuid.NewString()
			}
			points = append(points, p)
		}
		q.TalkingPoints = points

		out = append(out, q)
	}
	return out
}
