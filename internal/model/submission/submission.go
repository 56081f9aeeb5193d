package submission

// Submission captures one participant's contact details and stopwatch result.
// JSON keys match the documents written by earlier versions of the service.
type Submission struct {
	Name          string `json:"Name"`
	Email         string `json:"Email"`
	Phone         string `json:"Phone"`
	GitHubLink    string `json:"GitHubLink"`
	StopwatchTime string `json:"StopwatchTime"` // stored verbatim, never parsed
}

// Document is the persisted form of the whole collection.
type Document struct {
	Submissions []Submission `json:"submissions"`
}

// Payload is a decoded JSON request body prior to validation.
type Payload map[string]any

// FromPayload copies the required fields out of an accepted payload.
// Non-string values become empty strings; run Validate first.
func FromPayload(p Payload) Submission {
	return Submission{
		Name:          p.str(FieldName),
		Email:         p.str(FieldEmail),
		Phone:         p.str(FieldPhone),
		GitHubLink:    p.str(FieldGitHubLink),
		StopwatchTime: p.str(FieldStopwatchTime),
	}
}

func (p Payload) str(key string) string {
	s, _ := p[key].(string)
	return s
}

// IndexOf returns the position of the first submission named name, or -1.
func IndexOf(items []Submission, name string) int {
	for i, item := range items {
		if item.Name == name {
			return i
		}
	}
	return -1
}

// RemoveNamed filters out every submission named name, preserving order.
func RemoveNamed(items []Submission, name string) ([]Submission, int) {
	kept := make([]Submission, 0, len(items))
	for _, item := range items {
		if item.Name != name {
			kept = append(kept, item)
		}
	}
	return kept, len(items) - len(kept)
}
