package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"pixly/internal/services"
)

// statusError maps an HTTP failure onto a services marker. Rate limits and
// server errors are ErrTransient, which the classifier may retry after its
// next limiter slot; rejected credentials are ErrConfiguration.
func statusError(code int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody] + "..."
	}
	detail := fmt.Sprintf("http %d: %s", code, msg)
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return services.Wrap(services.ErrConfiguration, "classify", "llm request", "credentials rejected: "+detail, nil)
	case code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || code >= http.StatusInternalServerError:
		return services.Wrap(services.ErrTransient, "classify", "llm request", detail, nil)
	default:
		return services.Wrap(services.ErrExternalTool, "classify", "llm request", detail, nil)
	}
}

func transportError(err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return services.Wrap(services.ErrTimeout, "classify", "llm request", "request timed out", err)
	default:
		return services.Wrap(services.ErrExternalTool, "classify", "llm request", "", err)
	}
}
