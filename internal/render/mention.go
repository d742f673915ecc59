package render

import "strings"

// Segment is a run of body text; Mention marks a run that matched the handle.
type Segment struct {
	Text    string
	Mention bool
}

// SplitMentions cuts body into plain and mention segments. Matching is a plain
// forward substring scan: after a match the scan resumes past its full length,
// so occurrences never overlap. Concatenating the segments yields body.
func SplitMentions(body, handle string) []Segment {
	if handle == "" || body == "" {
		return []Segment{{Text: body}}
	}

	var segs []Segment
	rest := body
	for {
		i := strings.Index(rest, handle)
		if i < 0 {
			break
		}
		if i > 0 {
			segs = append(segs, Segment{Text: rest[:i]})
		}
		segs = append(segs, Segment{Text: handle, Mention: true})
		rest = rest[i+len(handle):]
	}
	if rest != "" || len(segs) == 0 {
		segs = append(segs, Segment{Text: rest})
	}
	return segs
}

// Handle returns the mention token for a display name.
func Handle(name string) string {
	if name == "" {
		return ""
	}
	return "@" + name
}
