package logging

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/kilntools/kiln/tui/theme"
)

// TextFormatter renders entries as
//
//	2006-01-02 15:04:05 [LEVEL] [component] message key=value
//
// with the component colored when the sink supports it.
type TextFormatter struct {
	Config FormatConfig
}

func (f *TextFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var buf bytes.Buffer

	if !f.Config.DisableTimestamp {
		buf.WriteString(entry.Time.Format("2006-01-02 15:04:05"))
		buf.WriteByte(' ')
	}

	fmt.Fprintf(&buf, "[%s]", strings.ToUpper(levelTag(entry.Level)))

	if component, ok := entry.Data["component"]; ok && !f.Config.DisableComponent {
		fmt.Fprintf(&buf, " [%s]", theme.DefaultTheme.Accent.Render(fmt.Sprintf("%v", component)))
	}

	if entry.HasCaller() {
		fmt.Fprintf(&buf, " [%s:%d %s]",
			filepath.Base(entry.Caller.File),
			entry.Caller.Line,
			filepath.Base(entry.Caller.Function))
	}

	buf.WriteByte(' ')
	buf.WriteString(entry.Message)

	// Trailing fields in a fixed order so repeated runs diff cleanly.
	keys := make([]string, 0, len(entry.Data))
	for key := range entry.Data {
		if key != "component" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&buf, " %s=%v", key, entry.Data[key])
	}

	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// levelTag shortens logrus's "warning" to match the width of the other
// level names.
func levelTag(level logrus.Level) string {
	if level == logrus.WarnLevel {
		return "warn"
	}
	return level.String()
}
