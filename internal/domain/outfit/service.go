package outfit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/weatherwear/internal/infra/llm/chatgpt"
	apperrors "github.com/yanqian/weatherwear/pkg/errors"
	"github.com/yanqian/weatherwear/pkg/util"
)

// Service exposes outfit recommendation capabilities.
type Service interface {
	Recommend(ctx context.Context, req Request) (Recommendation, error)
	Recent(ctx context.Context, limit int) ([]LogEntry, error)
	CheckModel(ctx context.Context) (bool, string)
}

type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error)
}

// LogRepository persists served recommendations.
type LogRepository interface {
	Append(ctx context.Context, entry LogEntry) error
	Recent(ctx context.Context, limit int) ([]LogEntry, error)
}

type service struct {
	cfg    Config
	client ChatClient
	log    LogRepository
	logger *slog.Logger
	now    func() time.Time
	newID  func() uuid.UUID
}

// NewService wires up the outfit domain. client may be nil, in which case
// only rule based recommendations are produced.
func NewService(cfg Config, client ChatClient, log LogRepository, logger *slog.Logger) Service {
	return &service{
		cfg:    cfg,
		client: client,
		log:    log,
		logger: logger.With("component", "outfit.service"),
		now:    util.NowUTC,
		newID:  uuid.New,
	}
}

func (s *service) Recommend(ctx context.Context, req Request) (Recommendation, error) {
	if strings.TrimSpace(req.Weather.Location) == "" {
		return Recommendation{}, apperrors.Wrap("invalid_input", "weather.location cannot be empty", nil)
	}
	if req.Weather.PrecipitationProbability < 0 || req.Weather.PrecipitationProbability > 100 {
		return Recommendation{}, apperrors.Wrap("invalid_input", "weather.precipitation_probability must be between 0 and 100", nil)
	}

	baseline := RuleBased(req.Weather, req.Preferences)
	result := baseline
	if refined, err := s.refine(ctx, req, baseline); err != nil {
		s.logger.Warn("llm refinement unavailable, using rule based recommendation", "location", req.Weather.Location, "error", err)
	} else {
		result = refined
	}

	s.record(ctx, req, result)
	return result, nil
}

func (s *service) Recent(ctx context.Context, limit int) ([]LogEntry, error) {
	if s.log == nil {
		return nil, nil
	}
	if limit <= 0 || (s.cfg.LogLimit > 0 && limit > s.cfg.LogLimit) {
		limit = s.cfg.LogLimit
	}
	entries, err := s.log.Recent(ctx, limit)
	if err != nil {
		return nil, apperrors.Wrap("log_error", "failed to list recommendations", err)
	}
	return entries, nil
}

// CheckModel sends a tiny prompt to confirm the configured key and model work.
func (s *service) CheckModel(ctx context.Context) (bool, string) {
	if !s.llmEnabled() {
		return false, "LLM disabled: LLM_API_KEY is not set. Recommendations will use rule-based fallback."
	}
	_, err := s.client.CreateChatCompletion(ctx, chatgpt.ChatCompletionRequest{
		Model:     s.cfg.Model,
		Messages:  []chatgpt.Message{{Role: "user", Content: "Reply with OK."}},
		MaxTokens: 8,
	})
	if err != nil {
		return false, fmt.Sprintf("LLM key/model check failed for '%s': %v", s.cfg.Model, err)
	}
	return true, fmt.Sprintf("LLM enabled: model '%s' validated.", s.cfg.Model)
}

func (s *service) llmEnabled() bool {
	return s.cfg.LLMEnabled && s.client != nil
}

var errLLMDisabled = errors.New("llm disabled")

func (s *service) refine(ctx context.Context, req Request, baseline Recommendation) (Recommendation, error) {
	if !s.llmEnabled() {
		return Recommendation{}, errLLMDisabled
	}
	prompt, err := buildUserPrompt(req, baseline)
	if err != nil {
		return Recommendation{}, err
	}
	completion, err := s.client.CreateChatCompletion(ctx, chatgpt.ChatCompletionRequest{
		Model: s.cfg.Model,
		Messages: []chatgpt.Message{
			{Role: "system", Content: s.buildSystemPrompt()},
			{Role: "user", Content: prompt},
		},
		Temperature:    s.cfg.Temperature,
		ResponseFormat: &chatgpt.ResponseFormat{Type: "json_object"},
	})
	if err != nil {
		return Recommendation{}, apperrors.Wrap("llm_error", "chat completion request failed", err)
	}
	if len(completion.Choices) == 0 {
		return Recommendation{}, apperrors.Wrap("llm_error", "chat completion returned no choices", nil)
	}
	content := completion.Choices[0].Message.Content
	s.logger.Debug("llm recommendation received", "content", content)

	rec, err := parseLLMRecommendation(content)
	if err != nil {
		return Recommendation{}, apperrors.Wrap("llm_error", "llm response malformed", err)
	}
	return rec, nil
}

func (s *service) record(ctx context.Context, req Request, rec Recommendation) {
	if s.log == nil {
		return
	}
	entry := LogEntry{
		ID:          s.newID(),
		Location:    req.Weather.Location,
		Preferences: req.Preferences,
		Source:      rec.Source,
		Confidence:  rec.Confidence,
		CreatedAt:   s.now(),
	}
	if err := s.log.Append(ctx, entry); err != nil {
		s.logger.Error("failed to record recommendation", "id", entry.ID, "error", err)
	}
}

func (s *service) buildSystemPrompt() string {
	base := strings.TrimSpace(s.cfg.Prompt)
	if base == "" {
		base = "You are a weather stylist assistant."
	}
	enforcer := " Return only valid JSON with keys: top, bottom, outerwear, footwear, accessories, rationale, confidence. Do not include markdown or extra text."
	return base + enforcer
}

func buildUserPrompt(req Request, baseline Recommendation) (string, error) {
	weather, err := json.Marshal(req.Weather)
	if err != nil {
		return "", err
	}
	prefs, err := json.Marshal(req.Preferences)
	if err != nil {
		return "", err
	}
	base, err := json.Marshal(baseline)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Weather: %s\n", weather)
	fmt.Fprintf(&b, "Preferences: %s\n", prefs)
	fmt.Fprintf(&b, "Baseline recommendation: %s\n", base)
	b.WriteString("Generate a concise outfit recommendation tuned to the user preferences.\n")
	b.WriteString("Rules:\n")
	b.WriteString("- Confidence must be a number between 0 and 1.\n")
	b.WriteString("- Accessories must be an array of strings.\n")
	b.WriteString("- Keep rationale to one sentence.\n")
	return b.String(), nil
}

func parseLLMRecommendation(raw string) (Recommendation, error) {
	payload, err := extractJSONObject(raw)
	if err != nil {
		return Recommendation{}, err
	}

	var wire struct {
		Top         string          `json:"top"`
		Bottom      string          `json:"bottom"`
		Outerwear   string          `json:"outerwear"`
		Footwear    string          `json:"footwear"`
		Accessories json.RawMessage `json:"accessories"`
		Rationale   string          `json:"rationale"`
		Confidence  Confidence      `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		return Recommendation{}, err
	}
	accessories, err := coerceStringArray(wire.Accessories)
	if err != nil {
		return Recommendation{}, err
	}

	rec := Recommendation{
		Top:         strings.TrimSpace(wire.Top),
		Bottom:      strings.TrimSpace(wire.Bottom),
		Outerwear:   strings.TrimSpace(wire.Outerwear),
		Footwear:    strings.TrimSpace(wire.Footwear),
		Accessories: normalizeList(accessories),
		Rationale:   strings.TrimSpace(wire.Rationale),
		Source:      SourceLLM,
	}
	if rec.Top == "" || rec.Bottom == "" || rec.Outerwear == "" || rec.Footwear == "" {
		return Recommendation{}, errors.New("garment fields missing")
	}
	confidence, ok := wire.Confidence.Float64()
	if !ok || confidence < 0 || confidence > 1 {
		return Recommendation{}, errors.New("confidence must be a number between 0 and 1")
	}
	rec.Confidence = NumericConfidence(confidence)
	return rec, nil
}

func extractJSONObject(text string) (string, error) {
	candidate := strings.TrimSpace(text)
	if strings.HasPrefix(candidate, "```") {
		lines := strings.Split(candidate, "\n")
		if len(lines) >= 3 {
			candidate = strings.TrimSpace(strings.Join(lines[1:len(lines)-1], "\n"))
		}
	}
	start := strings.Index(candidate, "{")
	end := strings.LastIndex(candidate, "}")
	if start == -1 || end == -1 || end < start {
		return "", errors.New("no JSON object found in model output")
	}
	return candidate[start : end+1], nil
}

func coerceStringArray(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	switch raw[0] {
	case '"':
		var single string
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil, err
		}
		if strings.TrimSpace(single) == "" {
			return nil, nil
		}
		return []string{single}, nil
	case '[':
		var many []string
		if err := json.Unmarshal(raw, &many); err != nil {
			return nil, err
		}
		return many, nil
	default:
		return nil, errors.New("unsupported accessories format")
	}
}

func normalizeList(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{})
	for _, item := range items {
		clean := strings.TrimSpace(item)
		if clean == "" {
			continue
		}
		if _, ok := seen[clean]; ok {
			continue
		}
		seen[clean] = struct{}{}
		out = append(out, clean)
	}
	return out
}
