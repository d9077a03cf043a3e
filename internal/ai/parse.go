package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kiranshivaraju/jobdesk/internal/ai/llm"
	"github.com/kiranshivaraju/jobdesk/pkg/models"
)

const (
	maxChecklistItems = 25
	maxItemBytes      = 200
)

// Field aliases seen in model output. The first key is the one we ask for.
var (
	referenceKeys   = []string{"reference", "job_id", "work_order"}
	customerKeys    = []string{"customer", "customer_name", "client", "site"}
	descriptionKeys = []string{"description", "scope", "issue", "summary"}
	tradesKeys      = []string{"trades", "required_trades"}
	dueDateKeys     = []string{"due_date", "due", "deadline"}
	checklistKeys   = []string{"checklist", "tasks", "steps"}
)

// parseExtraction decodes the model's reply into an Extraction. It fails
// only when no JSON object can be found; every individual field degrades to
// blank instead.
func parseExtraction(text string) (models.Extraction, error) {
	obj, err := decodeObject(text)
	if err != nil {
		return models.Extraction{}, err
	}

	ext := models.Extraction{
		Reference:   firstString(obj, referenceKeys),
		Customer:    firstString(obj, customerKeys),
		Description: firstString(obj, descriptionKeys),
		Trades:      firstList(obj, tradesKeys),
		Checklist:   cleanItems(firstList(obj, checklistKeys)),
	}
	if d, ok := parseLooseDate(firstString(obj, dueDateKeys)); ok {
		ext.DueDate = &d
	}
	return ext, nil
}

// decodeObject decodes the first JSON object in text, tolerating code
// fences and prose on either side of it.
func decodeObject(text string) (map[string]any, error) {
	start := strings.Index(text, "{")
	if start < 0 {
		return nil, fmt.Errorf("%w: no JSON object in reply", llm.ErrInvalidResponse)
	}
	var obj map[string]any
	if err := json.NewDecoder(strings.NewReader(text[start:])).Decode(&obj); err != nil {
		return nil, fmt.Errorf("%w: %v", llm.ErrInvalidResponse, err)
	}
	return obj, nil
}

func firstString(obj map[string]any, keys []string) string {
	for _, k := range keys {
		v, ok := obj[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64)
		}
	}
	return ""
}

// firstList accepts a JSON array of strings (or of {"text": ...} objects) or
// a comma-separated string.
func firstList(obj map[string]any, keys []string) []string {
	for _, k := range keys {
		v, ok := obj[k]
		if !ok || v == nil {
			continue
		}
		var out []string
		switch t := v.(type) {
		case string:
			for _, part := range strings.Split(t, ",") {
				if s := strings.TrimSpace(part); s != "" {
					out = append(out, s)
				}
			}
		case []any:
			for _, item := range t {
				if s := itemText(item); s != "" {
					out = append(out, s)
				}
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

func itemText(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]any:
		for _, k := range []string{"text", "task", "item", "step"} {
			if s, ok := t[k].(string); ok {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

func parseLooseDate(s string) (time.Time, bool) {
	if len(s) < len(models.DateLayout) {
		return time.Time{}, false
	}
	d, err := models.ParseDate(s[:len(models.DateLayout)])
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

var listMarker = regexp.MustCompile(`^(?:[-*•]|\d+[.)]|\[[ xX]?\])\s*`)

// parseChecklist turns a numbered or bulleted list into task strings.
// Headings (lines ending in ':' or starting with '#') are skipped.
func parseChecklist(text string) []string {
	var items []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasSuffix(line, ":") {
			continue
		}
		items = append(items, line)
	}
	return cleanItems(items)
}

// cleanItems strips list markers and markdown emphasis, drops empties and
// bounds the list.
func cleanItems(items []string) []string {
	var out []string
	for _, item := range items {
		s := strings.TrimSpace(item)
		for {
			stripped := listMarker.ReplaceAllString(s, "")
			if stripped == s {
				break
			}
			s = strings.TrimSpace(stripped)
		}
		s = strings.TrimSpace(strings.Trim(s, "*_"))
		if s == "" {
			continue
		}
		out = append(out, truncateString(s, maxItemBytes))
		if len(out) == maxChecklistItems {
			break
		}
	}
	return out
}

// truncateString truncates s to maxBytes without splitting UTF-8 runes.
func truncateString(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	for maxBytes > 0 && !utf8.RuneStart(s[maxBytes]) {
		maxBytes--
	}
	return s[:maxBytes]
}
