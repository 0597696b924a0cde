package domain

import "time"

// SubTaskType enumerates the atomic generation units one slide request is
// decomposed into.
type SubTaskType string

const (
	SubTaskTitle           SubTaskType = "title"
	SubTaskKeyPoints       SubTaskType = "key_points"
	SubTaskVisualization   SubTaskType = "visualization"
	SubTaskRecommendations SubTaskType = "recommendations"
)

// SubTask is one prompt destined for a text-generation backend, tagged with a
// scheduling priority. Higher priority dispatches sooner; it is not a
// sequencing constraint.
type SubTask struct {
	Type     SubTaskType
	Prompt   string
	Priority int
}

// SlideTask is the user-facing input for one slide generation request. It is
// immutable for the duration of the request.
type SlideTask struct {
	Title       string
	RawData     string
	SoWhat      string
	Source      string
	Audience    string
	Style       string
	FocusArea   string
	DataContext string
}

// Slide is the normalized output assembled from the merged sub-task results.
type Slide struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Subtitle         string    `json:"subtitle"`
	VisualType       string    `json:"visualType"`
	VisualHighlights []string  `json:"visualHighlights"`
	KeyPoints        []string  `json:"keyPoints"`
	Recommendations  []string  `json:"recommendations"`
	Source           string    `json:"source"`
	Audience         string    `json:"audience"`
	Style            string    `json:"style"`
	Degraded         bool      `json:"degraded,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// MaxKeyPoints and MaxRecommendations cap the assembled slide regardless of
// how many items a backend returns.
const (
	MaxKeyPoints       = 3
	MaxRecommendations = 2
)

// MaxRawDataBytes is the inbound payload guard; oversized raw data is
// rejected before any decomposition or backend call.
const MaxRawDataBytes = 100_000
