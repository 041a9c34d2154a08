package passthrough

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"
)

// flusher is satisfied by http.Flusher; kept as a narrow local interface so
// this package never imports net/http for something this small.
type flusher interface {
	Flush()
}

// NormalizeStream copies Server-Sent Events from r to w, applying the §4.5
// streaming normalization rules: a bodyless "event: error" gains a type
// discriminator, and the upstream's terminal [DONE] becomes a message_stop
// event. Every other event is forwarded byte-for-byte. w is flushed after
// every event if it implements Flush(), so partial output reaches the client
// promptly.
//
// Grounded on the teacher's sseUsageParser/nextSSEEvent buffered-line idiom
// and on lodos2005-antimatter's mappers/streaming.go chunk rewriting.
func NormalizeStream(w io.Writer, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var eventType string
	var dataLines []string

	flush := func() error {
		if eventType == "" && len(dataLines) == 0 {
			return nil
		}
		err := emitEvent(w, eventType, dataLines)
		eventType = ""
		dataLines = nil
		return err
	}

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if err := flush(); err != nil {
				return err
			}
		case strings.HasPrefix(line, "event:"):
			eventType = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			dataLines = append(dataLines, strings.TrimPrefix(line, "data:"))
		default:
			if _, err := fmt.Fprintf(w, "%s\n", line); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}
	if f, ok := w.(flusher); ok {
		f.Flush()
	}
	return scanner.Err()
}

func emitEvent(w io.Writer, eventType string, dataLines []string) error {
	data := strings.TrimSpace(strings.Join(dataLines, "\n"))

	if data == "[DONE]" {
		return writeEvent(w, "message_stop", `{"type":"message_stop"}`)
	}

	if eventType == "error" && !gjson.Get(data, "type").Exists() {
		return writeEvent(w, "error", fmt.Sprintf(`{"type":"error","error":%s}`, data))
	}

	var b strings.Builder
	if eventType != "" {
		b.WriteString("event: " + eventType + "\n")
	}
	for _, d := range dataLines {
		b.WriteString("data:" + d + "\n")
	}
	b.WriteString("\n")
	_, err := io.WriteString(w, b.String())
	if f, ok := w.(flusher); ok {
		f.Flush()
	}
	return err
}

func writeEvent(w io.Writer, eventType, data string) error {
	_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, data)
	if f, ok := w.(flusher); ok {
		f.Flush()
	}
	return err
}
