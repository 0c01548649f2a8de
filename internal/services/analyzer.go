package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/windowcatalog-backend/internal/logger"
	"github.com/yungbote/windowcatalog-backend/internal/repos"
	"github.com/yungbote/windowcatalog-backend/internal/types"
)

const (
	fallbackDescription = "Window detected - analysis unavailable"
	maxDescriptionLen   = 500

	analysisPrompt = "Analyze this window image. Return JSON with: description (short text) " +
		"and structured_data with fields: daytime (day/night/unknown), " +
		"location (interior/exterior/unknown), type (fixed/sliding/casement/awning/hung/pivot/unknown), " +
		"material (wood/aluminum/pvc/unknown), panes (1/2/3/unknown), " +
		"covering (curtains/blinds/none/unknown), openState (open/closed/ajar/unknown)"
)

// AnalysisResult is what analysis always produces: either the model's
// normalized answer or the deterministic fallback. There is no error variant.
type AnalysisResult struct {
	Description string
	Attributes  types.StructuredAttributes
}

// Analyzer derives a description and structured attributes from image bytes.
// Failures of any kind collapse into FallbackResult; Analyze never errors.
type Analyzer interface {
	Analyze(ctx context.Context, imageData []byte) AnalysisResult
}

type analyzer struct {
	log     *logger.Logger
	client  VisionClient
	callLog repos.AnalysisCallLogRepo
}

func NewAnalyzer(log *logger.Logger, client VisionClient, callLog repos.AnalysisCallLogRepo) Analyzer {
	return &analyzer{
		log:     log.With("service", "Analyzer"),
		client:  client,
		callLog: callLog,
	}
}

// FallbackResult is returned whenever analysis cannot complete.
func FallbackResult() AnalysisResult {
	return AnalysisResult{
		Description: fallbackDescription,
		Attributes:  types.UnknownAttributes(),
	}
}

func (a *analyzer) Analyze(ctx context.Context, imageData []byte) AnalysisResult {
	if !a.client.Configured() {
		a.log.Debug("Vision credential absent, using fallback result")
		return FallbackResult()
	}

	start := time.Now()
	answer, usage, err := a.client.Describe(ctx, imageData, analysisPrompt)
	duration := time.Since(start).Milliseconds()

	if err != nil {
		a.log.Warn("Vision call failed, using fallback result", "error", err, "duration_ms", duration)
		a.recordCall(ctx, answer, usage, duration, false, err.Error())
		return FallbackResult()
	}

	result, ok := parseAnalysisAnswer(answer)
	if !ok {
		a.log.Warn("Vision answer unparsable, using fallback result", "duration_ms", duration)
		a.recordCall(ctx, answer, usage, duration, false, "no decodable JSON payload in answer")
		return FallbackResult()
	}

	a.recordCall(ctx, answer, usage, duration, true, "")
	return result
}

// recordCall appends an audit row. Best effort: a write failure must not turn
// an otherwise fine analysis into a pipeline failure.
func (a *analyzer) recordCall(ctx context.Context, answer string, usage json.RawMessage, durationMS int64, success bool, errText string) {
	if a.callLog == nil {
		return
	}
	entry := &types.AnalysisCallLog{
		ID:         uuid.New(),
		Model:      a.client.Model(),
		Prompt:     analysisPrompt,
		Response:   answer,
		Success:    success,
		Error:      errText,
		DurationMS: durationMS,
	}
	if len(usage) > 0 {
		entry.Usage = datatypes.JSON(usage)
	}
	if _, err := a.callLog.Create(ctx, nil, entry); err != nil {
		a.log.Warn("Failed to persist analysis call log", "error", err)
	}
}

type analysisPayload struct {
	Description    string            `json:"description"`
	StructuredData map[string]string `json:"structured_data"`
}

// parseAnalysisAnswer extracts the embedded JSON object from the model's mixed
// text answer, decodes it, and normalizes every field to its domain.
func parseAnalysisAnswer(answer string) (AnalysisResult, bool) {
	payload, ok := extractJSON(answer)
	if !ok {
		return AnalysisResult{}, false
	}

	var decoded analysisPayload
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		return AnalysisResult{}, false
	}

	attrs := types.UnknownAttributes()
	if decoded.StructuredData != nil {
		attrs = types.StructuredAttributes{
			Daytime:   types.NormalizeAttribute("daytime", decoded.StructuredData["daytime"]),
			Location:  types.NormalizeAttribute("location", decoded.StructuredData["location"]),
			Type:      types.NormalizeAttribute("type", decoded.StructuredData["type"]),
			Material:  types.NormalizeAttribute("material", decoded.StructuredData["material"]),
			Panes:     types.NormalizeAttribute("panes", decoded.StructuredData["panes"]),
			Covering:  types.NormalizeAttribute("covering", decoded.StructuredData["covering"]),
			OpenState: types.NormalizeAttribute("openState", decoded.StructuredData["openState"]),
		}
	}

	description := strings.TrimSpace(decoded.Description)
	if runes := []rune(description); len(runes) > maxDescriptionLen {
		description = string(runes[:maxDescriptionLen])
	}

	return AnalysisResult{Description: description, Attributes: attrs}, true
}

// extractJSON locates the JSON object embedded in a mixed text answer.
// A fenced ```json block wins; otherwise the span from the first '{' to the
// last '}' is taken. Returns ok=false instead of guessing when neither exists.
func extractJSON(text string) (string, bool) {
	if fenced, ok := extractFencedBlock(text); ok {
		text = fenced
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

func extractFencedBlock(text string) (string, bool) {
	for _, fence := range []string{"```json", "```"} {
		open := strings.Index(text, fence)
		if open == -1 {
			continue
		}
		rest := text[open+len(fence):]
		closing := strings.Index(rest, "```")
		if closing == -1 {
			// Truncated fence: fall back to brace scanning over the remainder.
			return rest, true
		}
		return rest[:closing], true
	}
	return "", false
}
