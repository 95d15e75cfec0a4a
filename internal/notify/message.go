package notify

import (
	"fmt"
	"strings"
	"time"
)

// Outage describes a period where the push connection was not open.
type Outage struct {
	URL    string
	State  string
	Since  time.Time
	Topics []string
}

// FormatLostMessage creates the body for a connection-lost alert.
func FormatLostMessage(o Outage, now time.Time) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Endpoint: %s\n", o.URL))
	sb.WriteString(fmt.Sprintf("State: %s\n", o.State))
	sb.WriteString(fmt.Sprintf("Down for: %s", now.Sub(o.Since).Round(time.Second)))
	writeTopics(&sb, o.Topics)

	return sb.String()
}

// FormatRestoredMessage creates the body for a connection-restored alert.
func FormatRestoredMessage(o Outage, now time.Time) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Endpoint: %s\n", o.URL))
	sb.WriteString(fmt.Sprintf("Downtime: %s", now.Sub(o.Since).Round(time.Second)))
	writeTopics(&sb, o.Topics)

	return sb.String()
}

func writeTopics(sb *strings.Builder, topics []string) {
	if len(topics) == 0 {
		return
	}
	limit := min(len(topics), 5)
	sb.WriteString(fmt.Sprintf("\nGates: %s", strings.Join(topics[:limit], ", ")))
	if len(topics) > limit {
		sb.WriteString(fmt.Sprintf(" ... and %d more", len(topics)-limit))
	}
}
