package logger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const redacted = "[REDACTED]"

// sensitiveKeys never reach the log output, whatever the caller attached.
var sensitiveKeys = map[string]bool{
	"password":           true,
	"passwordconfirm":    true,
	"passwordcurrent":    true,
	"token":              true,
	"authorization":      true,
	"jwt":                true,
	"resettoken":         true,
	"passwordresettoken": true,
}

// CustomJSONFormatter writes one JSON object per entry with a stable set of
// top-level keys (timestamp, level, message, app, version, caller).
type CustomJSONFormatter struct {
	TimestampFormat string
	AppName         string
	Version         string
}

func (f *CustomJSONFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	data := make(map[string]interface{}, len(entry.Data)+6)

	for k, v := range entry.Data {
		if isSensitive(k) {
			data[k] = redacted
			continue
		}
		if err, ok := v.(error); ok {
			data[k] = err.Error()
			continue
		}
		data[k] = v
	}

	timestampFormat := f.TimestampFormat
	if timestampFormat == "" {
		timestampFormat = time.RFC3339
	}
	data["timestamp"] = entry.Time.Format(timestampFormat)
	data["level"] = entry.Level.String()
	data["message"] = entry.Message

	if f.AppName != "" {
		data["app"] = f.AppName
	}
	if f.Version != "" {
		data["version"] = f.Version
	}

	if entry.HasCaller() {
		data["caller"] = fmt.Sprintf("%s:%d", entry.Caller.File, entry.Caller.Line)
	}

	b := entry.Buffer
	if b == nil {
		b = &bytes.Buffer{}
	}
	if err := json.NewEncoder(b).Encode(data); err != nil {
		return nil, fmt.Errorf("failed to marshal log entry: %w", err)
	}
	return b.Bytes(), nil
}

func isSensitive(key string) bool {
	k := strings.ToLower(strings.NewReplacer("_", "", "-", "").Replace(key))
	return sensitiveKeys[k]
}
