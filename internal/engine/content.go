package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// QuizQuestion is one scored question inside a quiz's body file.
type QuizQuestion struct {
	ID            string   `json:"id"`
	Prompt        string   `json:"prompt"`
	Choices       []string `json:"choices"`
	CorrectAnswer string   `json:"correct_answer"`
}

// QuizBody is a quiz node's structured body content, per spec.md
// section 6 ("structured JSON for quizzes and challenges").
type QuizBody struct {
	Questions []QuizQuestion `json:"questions"`
}

func (e *Engine) loadQuizBody(bodyPath string) (*QuizBody, error) {
	raw, err := os.ReadFile(filepath.Join(e.contentRoot, bodyPath))
	if err != nil {
		return nil, fmt.Errorf("read quiz body %s: %w", bodyPath, err)
	}
	var body QuizBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("parse quiz body %s: %w", bodyPath, err)
	}
	return &body, nil
}

// scoreQuiz returns the percentage of questions answered correctly.
func scoreQuiz(body *QuizBody, answers map[string]string) float64 {
	if len(body.Questions) == 0 {
		return 0
	}
	correct := 0
	for _, q := range body.Questions {
		if answers[q.ID] == q.CorrectAnswer {
			correct++
		}
	}
	return 100 * float64(correct) / float64(len(body.Questions))
}

// ChallengeBody is a MiniChallenge node's structured body content: the
// sandbox image to run against and the build manifest/test harness the
// orchestrator mounts alongside the student's submitted code.
type ChallengeBody struct {
	Image         string `json:"image"`
	BuildManifest string `json:"build_manifest"`
	TestCode      string `json:"test_code"`
}

func (e *Engine) loadChallengeBody(bodyPath string) (*ChallengeBody, error) {
	raw, err := os.ReadFile(filepath.Join(e.contentRoot, bodyPath))
	if err != nil {
		return nil, fmt.Errorf("read challenge body %s: %w", bodyPath, err)
	}
	var body ChallengeBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("parse challenge body %s: %w", bodyPath, err)
	}
	return &body, nil
}

// RubricCategory mirrors judge.Category's JSON shape in a checkpoint's
// rubric_path_per_kind file.
type RubricCategory struct {
	Name        string `json:"name"`
	MaxPoints   int    `json:"max_points"`
	Descriptors string `json:"descriptors"`
}

// RubricFile is the on-disk shape of one artifact kind's rubric.
type RubricFile struct {
	Categories []RubricCategory `json:"categories"`
}

func (e *Engine) loadRubricFile(path string) (*RubricFile, error) {
	raw, err := os.ReadFile(filepath.Join(e.contentRoot, path))
	if err != nil {
		return nil, fmt.Errorf("read rubric %s: %w", path, err)
	}
	var rf RubricFile
	if err := json.Unmarshal(raw, &rf); err != nil {
		return nil, fmt.Errorf("parse rubric %s: %w", path, err)
	}
	return &rf, nil
}
