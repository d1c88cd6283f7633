package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/hpcloud/tail"
	"github.com/spf13/cobra"

	"github.com/kilntools/kiln/cli"
	"github.com/kilntools/kiln/pkg/daemon"
	"github.com/kilntools/kiln/tui/theme"
)

// TailedLine is one line of log output attributed to the workspace root
// and component that produced it.
type TailedLine struct {
	Root      string
	Component string
	Line      string
}

// NewLogsCmd creates the `logs` command.
func NewLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs [component]",
		Short: "Show kiln log output for the workspace roots",
		Long: `Print log lines written under <root>/.kiln/logs. By default the newest
log file of every component is shown for every registered root; pass a
component name (cli, kilnd, compdb, ...) to narrow it.

Examples:
  # Last 50 kilnd lines across the workspace set
  kiln logs kilnd --tail 50

  # Follow everything
  kiln logs -f

  # One root only, as JSON lines
  kiln logs --root ~/src/app --json
`,
		Args: cobra.MaximumNArgs(1),
		RunE: runLogsE,
	}

	cmd.Flags().StringP("root", "r", "", "Only show logs for this workspace root")
	cmd.Flags().BoolP("follow", "f", false, "Follow log output")
	cmd.Flags().Int("tail", -1, "Number of lines to show from the end (default: all)")

	return cmd
}

func runLogsE(cmd *cobra.Command, args []string) error {
	opts := cli.GetOptions(cmd)
	handler := cli.NewErrorHandler(opts.Verbose)

	component := ""
	if len(args) == 1 {
		component = args[0]
	}
	rootFilter, _ := cmd.Flags().GetString("root")
	follow, _ := cmd.Flags().GetBool("follow")
	tailLines, _ := cmd.Flags().GetInt("tail")

	client, err := daemon.NewClient()
	if err != nil {
		return handler.Handle(err)
	}
	defer client.Close()

	var roots []string
	if rootFilter != "" {
		roots = []string{rootFilter}
	} else {
		roots, err = client.GetRoots(cmd.Context())
		if err != nil {
			return handler.Handle(err)
		}
	}
	if len(roots) == 0 {
		fmt.Println("No workspace roots registered.")
		return nil
	}

	lineChan := make(chan TailedLine, 100)
	var wg sync.WaitGroup

	started := 0
	for _, root := range roots {
		files, err := latestLogFiles(filepath.Join(root, ".kiln", "logs"), component)
		if err != nil {
			// Roots that never logged anything are skipped silently.
			continue
		}
		for comp, path := range files {
			wg.Add(1)
			started++
			if follow {
				go followLogFile(root, comp, path, lineChan, &wg, tailLines)
			} else {
				go readLogTail(root, comp, path, lineChan, &wg, tailLines)
			}
		}
	}
	if started == 0 {
		fmt.Println("No log files found.")
		return nil
	}

	go func() {
		wg.Wait()
		close(lineChan)
	}()

	for line := range lineChan {
		if opts.JSONOutput {
			printLogJSON(line)
		} else {
			printLogText(line)
		}
	}
	return nil
}

// latestLogFiles returns the newest log file per component under dir.
// The logging package names files <component>-YYYY-MM-DD.log.
func latestLogFiles(dir, component string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	type candidate struct {
		path string
		mod  time.Time
	}
	latest := make(map[string]candidate)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".log") {
			continue
		}
		comp := componentFromLogName(entry.Name())
		if comp == "" {
			continue
		}
		if component != "" && comp != component {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if cur, ok := latest[comp]; !ok || info.ModTime().After(cur.mod) {
			latest[comp] = candidate{path: filepath.Join(dir, entry.Name()), mod: info.ModTime()}
		}
	}

	if len(latest) == 0 {
		return nil, fmt.Errorf("no log files in %s", dir)
	}
	files := make(map[string]string, len(latest))
	for comp, c := range latest {
		files[comp] = c.path
	}
	return files, nil
}

// componentFromLogName strips the -YYYY-MM-DD.log suffix. Files that do
// not follow the naming scheme yield "".
func componentFromLogName(name string) string {
	base := strings.TrimSuffix(name, ".log")
	cut := len(base) - len("-2006-01-02")
	if cut <= 0 || base[cut] != '-' {
		return ""
	}
	if _, err := time.Parse("2006-01-02", base[cut+1:]); err != nil {
		return ""
	}
	return base[:cut]
}

// followLogFile streams path with the tail library, which reopens the
// file across the daily rotation.
func followLogFile(root, component, path string, lineChan chan<- TailedLine, wg *sync.WaitGroup, tailLines int) {
	defer wg.Done()

	location := &tail.SeekInfo{Offset: 0, Whence: io.SeekStart}
	if tailLines >= 0 {
		// Emit the requested backlog, then follow from the end.
		for _, line := range lastLines(path, tailLines) {
			lineChan <- TailedLine{Root: root, Component: component, Line: line}
		}
		location = &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd}
	}

	t, err := tail.TailFile(path, tail.Config{
		Follow:   true,
		ReOpen:   true,
		Location: location,
		Logger:   stdlog.New(io.Discard, "", 0), // suppress the library's own output
	})
	if err != nil {
		return
	}

	for line := range t.Lines {
		if line.Err != nil {
			continue
		}
		lineChan <- TailedLine{Root: root, Component: component, Line: line.Text}
	}
}

func readLogTail(root, component, path string, lineChan chan<- TailedLine, wg *sync.WaitGroup, tailLines int) {
	defer wg.Done()
	for _, line := range lastLines(path, tailLines) {
		lineChan <- TailedLine{Root: root, Component: component, Line: line}
	}
}

// lastLines returns the final n non-empty lines of path, or every line
// when n is negative.
func lastLines(path string, n int) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimRight(scanner.Text(), "\r"); line != "" {
			lines = append(lines, line)
		}
	}
	if n >= 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}

// printLogJSON prints a log line as JSON, enriched with its origin.
func printLogJSON(tl TailedLine) {
	var logMap map[string]interface{}
	if err := json.Unmarshal([]byte(tl.Line), &logMap); err != nil {
		logMap = map[string]interface{}{"raw_line": tl.Line}
	}
	logMap["root"] = tl.Root
	logMap["component"] = tl.Component
	jsonData, _ := json.Marshal(logMap)
	fmt.Println(string(jsonData))
}

// printLogText pretty-prints one line. File sinks default to the text
// formatter, so non-JSON lines are the common case; they pass through
// behind an attribution prefix.
func printLogText(tl TailedLine) {
	prefix := fmt.Sprintf("[%s/%s]",
		theme.DefaultTheme.Accent.Render(filepath.Base(tl.Root)),
		theme.DefaultTheme.Muted.Render(tl.Component),
	)

	var logMap map[string]interface{}
	if err := json.Unmarshal([]byte(tl.Line), &logMap); err != nil {
		fmt.Printf("%s %s\n", prefix, tl.Line)
		return
	}

	ts, _ := logMap["time"].(string)
	level, _ := logMap["level"].(string)
	msg, _ := logMap["msg"].(string)

	parsedTime, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		parsedTime, _ = time.Parse(time.RFC3339, ts)
	}
	timeStr := parsedTime.Format("15:04:05")

	var levelStyle lipgloss.Style
	switch strings.ToLower(level) {
	case "error", "fatal", "panic":
		levelStyle = theme.DefaultTheme.Error
	case "warning":
		levelStyle = theme.DefaultTheme.Warning
	case "info":
		levelStyle = theme.DefaultTheme.Info
	default:
		levelStyle = theme.DefaultTheme.Muted
	}

	var extra []string
	var keys []string
	for k := range logMap {
		switch k {
		case "time", "level", "msg", "component":
		default:
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		extra = append(extra, fmt.Sprintf("%s=%v", theme.DefaultTheme.Muted.Render(k), logMap[k]))
	}

	fmt.Printf("%s %s %s %s %s\n",
		timeStr, prefix, levelStyle.Render(strings.ToUpper(level)), msg, strings.Join(extra, " "))
}
