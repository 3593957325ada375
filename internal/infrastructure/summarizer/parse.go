package summarizer

import (
	"encoding/json"
	"regexp"
	"strings"
)

type parsedSummary struct {
	Narrative string   `json:"narrative"`
	KeyPoints []string `json:"key_points"`
}

// parseStructured extracts a summary from raw model output. JSON is the
// requested format; plain prose with optional bullet lists is accepted as
// a lenient fallback. Output that attempts JSON but fails to parse is
// rejected outright so garbage never becomes a narrative.
func parseStructured(text string) (parsedSummary, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return parsedSummary{}, false
	}
	if p, ok := parseJSON(trimmed); ok {
		return p, true
	}
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "```") {
		return parsedSummary{}, false
	}
	return parseBullets(trimmed)
}

func parseJSON(text string) (parsedSummary, bool) {
	candidate := text
	if strings.HasPrefix(candidate, "```") {
		candidate = strings.TrimPrefix(candidate, "```json")
		candidate = strings.TrimPrefix(candidate, "```")
		if idx := strings.LastIndex(candidate, "```"); idx >= 0 {
			candidate = candidate[:idx]
		}
		candidate = strings.TrimSpace(candidate)
	}
	if !strings.HasPrefix(candidate, "{") {
		start := strings.Index(candidate, "{")
		end := strings.LastIndex(candidate, "}")
		if start < 0 || end <= start {
			return parsedSummary{}, false
		}
		candidate = candidate[start : end+1]
	}

	var p parsedSummary
	if err := json.Unmarshal([]byte(candidate), &p); err != nil {
		return parsedSummary{}, false
	}
	p.Narrative = strings.TrimSpace(p.Narrative)
	if p.Narrative == "" {
		return parsedSummary{}, false
	}
	p.KeyPoints = capPoints(p.KeyPoints)
	return p, true
}

var bulletPrefix = regexp.MustCompile(`^(?:[•\-\*]|\d{1,2}[.)])\s+`)

func parseBullets(text string) (parsedSummary, bool) {
	var narrative []string
	var points []string

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if bulletPrefix.MatchString(trimmed) {
			point := strings.TrimSpace(bulletPrefix.ReplaceAllString(trimmed, ""))
			if point != "" {
				points = append(points, point)
			}
			continue
		}
		if isSectionLabel(trimmed) {
			continue
		}
		narrative = append(narrative, trimmed)
	}

	if len(narrative) == 0 {
		return parsedSummary{}, false
	}
	return parsedSummary{
		Narrative: strings.Join(narrative, "\n\n"),
		KeyPoints: capPoints(points),
	}, true
}

func isSectionLabel(line string) bool {
	switch strings.ToLower(strings.Trim(line, ":#* ")) {
	case "key points", "keypoints", "summary", "narrative", "highlights":
		return true
	}
	return false
}

func capPoints(points []string) []string {
	cleaned := make([]string, 0, len(points))
	for _, p := range points {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		cleaned = append(cleaned, p)
		if len(cleaned) == maxKeyPoints {
			break
		}
	}
	return cleaned
}
