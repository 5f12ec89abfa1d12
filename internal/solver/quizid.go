package solver

import (
	"net/url"
	"strings"
)

// QuizIDs extracts the course and quiz identifiers from a quiz page URL.
// Recognized shapes:
//
//	/learn/{course}/{kind}/{id}/...      (kind: quiz, exam, assignment-submission, ...)
//	/courses/{course}/quizzes/{id}/...
func QuizIDs(rawURL string) (courseID, quizID string, ok bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", false
	}

	var segs []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	if len(segs) < 4 {
		return "", "", false
	}

	switch {
	case segs[0] == "learn":
		return segs[1], segs[3], true
	case segs[0] == "courses" && segs[2] == "quizzes":
		return segs[1], segs[3], true
	}
	return "", "", false
}
