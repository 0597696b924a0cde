package slides

import (
	"strings"

	"github.com/tidwall/gjson"

	"slidegen/internal/domain"
)

// Part is the canonical shape of one sub-task's output after field-name and
// shape reconciliation. Only the fields for the sub-task's type are set.
type Part struct {
	Title            string
	Subtitle         string
	KeyPoints        []string
	VisualType       string
	VisualHighlights []string
	Recommendations  []string
}

const (
	defaultTitle      = "Analysis Results"
	defaultVisualType = "bar"
)

var (
	defaultKeyPoints       = []string{"Key findings are being compiled"}
	defaultRecommendations = []string{"Review the underlying data"}
)

// Normalize reconciles the raw JSON a backend returned for one sub-task into
// the canonical Part shape. It is total: it never fails, and for the four
// known types it never leaves the type's required field empty. Unknown types
// pass through as a zero Part.
func Normalize(t domain.SubTaskType, raw string) Part {
	var p Part
	switch t {
	case domain.SubTaskTitle:
		p.Title = firstString(raw, "title", "slide_title", "heading", "headline")
		p.Subtitle = firstString(raw, "subtitle", "sub_title", "tagline", "subheading")
		if p.Title == "" {
			p.Title = defaultTitle
		}
	case domain.SubTaskKeyPoints:
		p.KeyPoints = firstList(raw, "key_points", "keyPoints", "points", "bullets", "items")
		if len(p.KeyPoints) == 0 {
			p.KeyPoints = append([]string(nil), defaultKeyPoints...)
		}
	case domain.SubTaskVisualization:
		p.VisualType = firstString(raw, "visual_type", "visualType", "chart_type", "chartType", "type", "visualization")
		p.VisualHighlights = firstList(raw, "highlights", "visual_highlights", "visualHighlights", "callouts", "annotations")
		if p.VisualType == "" {
			p.VisualType = defaultVisualType
		}
		if p.VisualHighlights == nil {
			p.VisualHighlights = []string{}
		}
	case domain.SubTaskRecommendations:
		p.Recommendations = firstList(raw, "recommendations", "recommendation", "actions", "next_steps", "nextSteps")
		if len(p.Recommendations) == 0 {
			p.Recommendations = append([]string(nil), defaultRecommendations...)
		}
	}
	return p
}

// firstString returns the first non-empty scalar among the candidate paths.
func firstString(raw string, paths ...string) string {
	for _, path := range paths {
		v := gjson.Get(raw, path)
		if !v.Exists() || v.IsArray() || v.IsObject() {
			continue
		}
		if s := strings.TrimSpace(v.String()); s != "" {
			return s
		}
	}
	return ""
}

// firstList returns the first non-empty list among the candidate paths. A
// scalar value is promoted to a one-element list; array elements may be plain
// strings or objects carrying the text under a well-known key.
func firstList(raw string, paths ...string) []string {
	for _, path := range paths {
		v := gjson.Get(raw, path)
		if !v.Exists() {
			continue
		}
		var out []string
		if v.IsArray() {
			v.ForEach(func(_, item gjson.Result) bool {
				if s := itemText(item); s != "" {
					out = append(out, s)
				}
				return true
			})
		} else if !v.IsObject() {
			if s := strings.TrimSpace(v.String()); s != "" {
				out = []string{s}
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

func itemText(item gjson.Result) string {
	if item.IsObject() {
		for _, key := range []string{"text", "point", "item", "value", "description"} {
			if s := strings.TrimSpace(item.Get(key).String()); s != "" {
				return s
			}
		}
		return ""
	}
	if item.IsArray() {
		return ""
	}
	return strings.TrimSpace(item.String())
}
