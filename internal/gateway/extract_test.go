package gateway

import (
	"errors"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestExtractText(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		want    string
		matched bool
	}{
		{
			"results array shape",
			`{"results":[{"outputText":"from results"}]}`,
			"from results", true,
		},
		{
			"flat outputText shape",
			`{"outputText":"flat text"}`,
			"flat text", true,
		},
		{
			"content array shape",
			`{"content":[{"text":"content text"}]}`,
			"content text", true,
		},
		{
			"results shape wins over content shape",
			`{"results":[{"outputText":"a"}],"content":[{"text":"b"}]}`,
			"a", true,
		},
		{
			"empty results falls through to content",
			`{"results":[],"content":[{"text":"b"}]}`,
			"b", true,
		},
		{
			"unknown shape yields sentinel",
			`{"completion":"nope"}`,
			NoTextSentinel, false,
		},
		{
			"invalid json yields sentinel",
			`not json at all`,
			NoTextSentinel, false,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, matched := extractText([]byte(c.body))
			if got != c.want || matched != c.matched {
				t.Errorf("extractText(%q) = (%q, %v), want (%q, %v)", c.body, got, matched, c.want, c.matched)
			}
		})
	}
}

func TestIsThrottlingError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"grpc resource exhausted", status.Error(codes.ResourceExhausted, "slow down"), true},
		{"http 429 text", errors.New("model returned HTTP 429: limit"), true},
		{"throttling exception text", errors.New("ThrottlingException: rate exceeded"), true},
		{"quota text", errors.New("quota exceeded for model"), true},
		{"permanent failure", errors.New("invalid request body"), false},
		{"grpc invalid argument", status.Error(codes.InvalidArgument, "bad"), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := IsThrottlingError(c.err); got != c.want {
				t.Errorf("IsThrottlingError(%v) = %v, want %v", c.err, got, c.want)
			}
		})
	}
}
