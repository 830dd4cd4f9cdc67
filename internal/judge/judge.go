package judge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/coursekit/engine/internal/config"
	"github.com/coursekit/engine/internal/llm"
	"github.com/coursekit/engine/internal/store"
)

const systemPrompt = `You are a rigorous, consistent grading assistant for a programming
curriculum. Score submissions strictly against the provided rubric categories.
Award partial credit only where the rubric's quality-band descriptors justify it.
Be terse and specific in feedback; do not restate the rubric.`

// judgeSchemaName is the structured-output schema handed to the
// provider for every grading call.
const judgeSchemaName = "rubric-verdict"

var judgeSchemaDefinition = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"total_score":     map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
		"category_scores": map[string]any{"type": "object"},
		"feedback":        map[string]any{"type": "string"},
	},
	"required":             []string{"total_score", "category_scores", "feedback"},
	"additionalProperties": false,
}

// rawVerdict mirrors the judge's required JSON shape before semantic
// validation.
type rawVerdict struct {
	TotalScore     int            `json:"total_score"`
	CategoryScores map[string]int `json:"category_scores"`
	Feedback       string         `json:"feedback"`
}

// Config tunes quota and sampling behavior.
type Config struct {
	Enabled        bool
	DailyLimitUser int
	Temperature    float64
}

// DefaultConfig matches spec.md's documented defaults.
func DefaultConfig() Config {
	return Config{Enabled: true, DailyLimitUser: 20, Temperature: 0.0}
}

// FromConfig adapts the loaded application configuration's judge section
// into a judge Config, the same way sandbox.FromConfig adapts its
// section.
func FromConfig(c config.JudgeConfig) Config {
	return Config{
		Enabled:        c.Enabled,
		DailyLimitUser: c.DailyLimitUser,
		Temperature:    c.Temperature,
	}
}

// Judge grades artifacts against rubrics, caching verdicts by content
// digest and enforcing a per-user daily call quota.
type Judge struct {
	store    *store.Store
	provider llm.Client
	cfg      Config
}

// New builds a Judge over an already-retry-wrapped llm.Client (see
// llm.NewClient) and the application's persistence store.
func New(s *store.Store, provider llm.Client, cfg Config) *Judge {
	return &Judge{store: s, provider: provider, cfg: cfg}
}

// Grade grades one artifact against a rubric for a user, consulting the
// cache first and enforcing the daily quota on a miss. now is injected
// for deterministic date bucketing.
func (j *Judge) Grade(ctx context.Context, tx *store.Tx, userID string, rubric Rubric, artifact string, now time.Time) (*Verdict, error) {
	if !j.cfg.Enabled {
		return nil, ErrDisabled{}
	}
	if err := rubric.Validate(); err != nil {
		return nil, err
	}

	var repos store.Repos

	normalized := Normalize(artifact)
	if len(normalized) > MaxArtifactBytes {
		return nil, &ErrInvalidArtifact{SizeBytes: len(normalized), MaxBytes: MaxArtifactBytes}
	}
	digest := Digest(rubric.Kind, normalized)

	if cached, err := repos.GradeCache.Get(ctx, tx, digest, rubric.Kind); err != nil {
		return nil, err
	} else if cached != nil {
		if err := repos.GradeCache.IncrementHit(ctx, tx, digest, rubric.Kind); err != nil {
			return nil, err
		}
		var v Verdict
		if err := json.Unmarshal([]byte(cached.RationaleJSON), &v); err != nil {
			return nil, fmt.Errorf("decode cached verdict: %w", err)
		}
		v.TotalScore = int(cached.Grade)
		v.CacheHit = true
		return &v, nil
	}

	date := now.Format("2006-01-02")
	count, err := repos.LLM.CountForUserOnDate(ctx, tx, userID, date)
	if err != nil {
		return nil, err
	}
	if count >= j.cfg.DailyLimitUser {
		return nil, &ErrQuotaExceeded{UserID: userID, Limit: j.cfg.DailyLimitUser, Date: date}
	}

	verdict, usage, callErr := j.call(ctx, rubric, normalized)

	record := &store.LLMCallRecord{
		ID:        newID(),
		UserID:    userID,
		CallDate:  date,
		Provider:  j.provider.ModelID(),
		Model:     j.provider.ModelID(),
		Purpose:   "grade:" + rubric.Kind,
		CreatedAt: now,
		CacheHit:  false,
	}
	if usage != nil {
		record.InputTokens = int64(usage.InputTokens)
		record.OutputTokens = int64(usage.OutputTokens)
		if cost := llm.LookupCost(j.provider.ModelID()); cost != nil {
			record.CostCents = cost.Cost(usage.InputTokens, usage.OutputTokens) * 100
		}
	}
	record.Success = callErr == nil
	if callErr != nil {
		record.ErrorMessage = callErr.Error()
	}
	if err := repos.LLM.Insert(ctx, tx, record); err != nil {
		return nil, err
	}

	if callErr != nil {
		return nil, classifyCallError(callErr)
	}

	rationale, err := json.Marshal(verdict)
	if err != nil {
		return nil, fmt.Errorf("marshal verdict: %w", err)
	}
	entry := &store.GradeCacheEntry{
		ContentDigest: digest,
		Kind:          rubric.Kind,
		Grade:         float64(verdict.TotalScore),
		RationaleJSON: string(rationale),
		CachedAt:      now,
		HitCount:      0,
	}
	if err := repos.GradeCache.Put(ctx, tx, entry); err != nil {
		return nil, err
	}

	return verdict, nil
}

// call issues the judge request, applying the single in-protocol
// reparse retry spec.md section 4.7 allows before surfacing ParseError.
func (j *Judge) call(ctx context.Context, rubric Rubric, normalized string) (*Verdict, *llm.Usage, error) {
	req := buildRequest(rubric, normalized, j.cfg.Temperature)

	resp, err := j.provider.Generate(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	verdict, verr := parseAndValidate(rubric, resp.Content)
	if verr == nil {
		return verdict, &resp.Usage, nil
	}

	req.Messages = append(req.Messages,
		llm.Message{Role: llm.RoleAssistant, Content: string(resp.Content)},
		llm.Message{Role: llm.RoleUser, Content: fmt.Sprintf(
			"Your previous response was invalid: %s. Respond again with strictly valid JSON matching the schema.", verr)},
	)
	resp, err = j.provider.Generate(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	verdict, verr = parseAndValidate(rubric, resp.Content)
	if verr != nil {
		return nil, &resp.Usage, &ErrParseError{Reason: verr.Error(), Raw: string(resp.Content)}
	}
	return verdict, &resp.Usage, nil
}

func buildRequest(rubric Rubric, normalized string, temperature float64) llm.Request {
	return llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: renderUserPrompt(rubric, normalized)},
		},
		Schema: &llm.Schema{
			Name:        judgeSchemaName,
			Description: "Strict rubric verdict: total score, per-category scores, feedback.",
			Definition:  judgeSchemaDefinition,
		},
		MaxTokens:   1024,
		Temperature: temperature,
	}
}

func renderUserPrompt(rubric Rubric, normalized string) string {
	table := "Rubric categories:\n"
	for _, c := range rubric.Categories {
		table += fmt.Sprintf("- %s (max %d points): %s\n", c.Name, c.MaxPoints, c.Descriptors)
	}
	return fmt.Sprintf("%s\nArtifact kind: %s\n\nArtifact:\n%s\n", table, rubric.Kind, normalized)
}

// parseAndValidate decodes the judge response and rejects it per
// spec.md section 4.7's required checks: malformed JSON, category sum
// mismatch beyond ±1, a category over its maximum, or missing fields.
func parseAndValidate(rubric Rubric, raw json.RawMessage) (*Verdict, error) {
	var rv rawVerdict
	if err := json.Unmarshal(raw, &rv); err != nil {
		return nil, fmt.Errorf("malformed JSON: %w", err)
	}
	if rv.Feedback == "" {
		return nil, errors.New("missing feedback")
	}
	if rv.CategoryScores == nil {
		return nil, errors.New("missing category_scores")
	}
	if rv.TotalScore < 0 || rv.TotalScore > 100 {
		return nil, fmt.Errorf("total_score %d out of range", rv.TotalScore)
	}

	maxByName := make(map[string]int, len(rubric.Categories))
	for _, c := range rubric.Categories {
		maxByName[c.Name] = c.MaxPoints
	}

	sum := 0
	for name, score := range rv.CategoryScores {
		max, known := maxByName[name]
		if !known {
			return nil, fmt.Errorf("unknown category %q", name)
		}
		if score > max || score < 0 {
			return nil, fmt.Errorf("category %q score %d exceeds max %d", name, score, max)
		}
		sum += score
	}
	diff := sum - rv.TotalScore
	if diff < -1 || diff > 1 {
		return nil, fmt.Errorf("category scores sum to %d, total_score is %d", sum, rv.TotalScore)
	}

	return &Verdict{
		TotalScore:     rv.TotalScore,
		CategoryScores: rv.CategoryScores,
		Feedback:       rv.Feedback,
	}, nil
}

func classifyCallError(err error) error {
	var rl *llm.ErrRateLimit
	if errors.As(err, &rl) {
		return &ErrRateLimited{Err: err}
	}
	var unavail *llm.ErrClientUnavailable
	if errors.As(err, &unavail) {
		return &ErrUnavailable{Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ErrTimeout{Err: err}
	}
	var invalid *llm.ErrInvalidResponse
	if errors.As(err, &invalid) {
		return &ErrParseError{Reason: invalid.Error(), Raw: string(invalid.Content)}
	}
	return &ErrUnavailable{Err: err}
}
