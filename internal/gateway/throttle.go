package gateway

import (
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// IsThrottlingError reports whether err signals rate limiting, i.e. the
// caller should back off and retry. Both transports are covered: the SDK
// surfaces gRPC ResourceExhausted, the raw-HTTP path surfaces 429 /
// ThrottlingException strings.
func IsThrottlingError(err error) bool {
	if err == nil {
		return false
	}
	if s, ok := status.FromError(err); ok && s.Code() == codes.ResourceExhausted {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED") ||
		strings.Contains(msg, "ThrottlingException") ||
		strings.Contains(msg, "quota")
}
