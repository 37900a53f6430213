package gateway

import "encoding/json"

// NoTextSentinel is returned when no known response shape carries text. The
// remote service's schema is not stable across model versions, so extraction
// must never hard-fail on an unrecognized body.
const NoTextSentinel = "could not extract analysis text from model response"

// The three response shapes observed in the wild: a results array carrying
// outputText, a flat outputText field, and a content array of text parts.
type resultsShape struct {
	Results []struct {
		OutputText string `json:"outputText"`
	} `json:"results"`
}

type flatShape struct {
	OutputText string `json:"outputText"`
}

type contentShape struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

// shapeExtractors are tried in order; the first that yields text wins.
var shapeExtractors = []func([]byte) (string, bool){
	func(body []byte) (string, bool) {
		var s resultsShape
		if err := json.Unmarshal(body, &s); err == nil && len(s.Results) > 0 && s.Results[0].OutputText != "" {
			return s.Results[0].OutputText, true
		}
		return "", false
	},
	func(body []byte) (string, bool) {
		var s flatShape
		if err := json.Unmarshal(body, &s); err == nil && s.OutputText != "" {
			return s.OutputText, true
		}
		return "", false
	},
	func(body []byte) (string, bool) {
		var s contentShape
		if err := json.Unmarshal(body, &s); err == nil && len(s.Content) > 0 && s.Content[0].Text != "" {
			return s.Content[0].Text, true
		}
		return "", false
	},
}

// extractText probes the known response shapes and reports whether any
// matched. On no match the sentinel is returned with matched=false.
func extractText(body []byte) (string, bool) {
	for _, extract := range shapeExtractors {
		if text, ok := extract(body); ok {
			return text, true
		}
	}
	return NoTextSentinel, false
}
