package adb

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mj1618/droidtile/internal/model"
)

var (
	// RootTask id=12 bounds=[0,0][1080,2400] displayId=0 userId=0
	// Stack id=5 bounds=[0,0][1080,2400] displayId=0 userId=0
	stackHeaderRe = regexp.MustCompile(`^\s*(?:RootTask|Stack) id=-?\d+.*\bdisplayId=(-?\d+)`)
	// taskId=12: com.android.chrome/org.chromium.Main bounds=[0,0][540,2400] userId=0 visible=true ...
	taskLineRe = regexp.MustCompile(`^\s*taskId=(\d+): ([^/\s]+)/(\S+) bounds=\[(-?\d+),(-?\d+)\]\[(-?\d+),(-?\d+)\]`)
	visibleRe  = regexp.MustCompile(`\bvisible=(true|false)\b`)
	// Physical size: 1080x2400 / Override size: 1000x2000
	wmSizeRe = regexp.MustCompile(`^\s*(Physical|Override) size:\s*(\d+x\d+)`)
)

// parseStackList turns `am stack list` output into visible windows. Tasks
// that precede any stack header are attributed to display 0.
func parseStackList(out string, ignore map[string]bool) ([]model.Window, error) {
	var windows []model.Window
	display := 0

	sc := bufio.NewScanner(strings.NewReader(out))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if m := stackHeaderRe.FindStringSubmatch(line); m != nil {
			display, _ = strconv.Atoi(m[1])
			continue
		}
		m := taskLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if v := visibleRe.FindStringSubmatch(line); v != nil && v[1] == "false" {
			continue
		}
		pkg := m[2]
		if ignore[pkg] {
			continue
		}
		id, _ := strconv.Atoi(m[1])
		edges := make([]int, 4)
		for i := range edges {
			edges[i], _ = strconv.Atoi(m[4+i])
		}
		windows = append(windows, model.Window{
			Package:   pkg,
			Title:     activityTitle(pkg, m[3]),
			ID:        id,
			DisplayID: display,
			Bounds:    model.LTRB(edges[0], edges[1], edges[2], edges[3]),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("parse stack list: %w", err)
	}
	return windows, nil
}

// activityTitle shortens "org.pkg/.ui.MainActivity" to "MainActivity".
func activityTitle(pkg, activity string) string {
	activity = strings.TrimPrefix(activity, pkg)
	if i := strings.LastIndex(activity, "."); i >= 0 {
		activity = activity[i+1:]
	}
	if activity == "" {
		return pkg
	}
	return activity
}

// parseDisplays returns the display ids mentioned by stack headers, always
// including display 0, in first-seen order.
func parseDisplays(out string) []int {
	ids := []int{0}
	seen := map[int]bool{0: true}
	for _, line := range strings.Split(out, "\n") {
		m := stackHeaderRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		id, err := strconv.Atoi(m[1])
		if err != nil || id < 0 || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// parseWMSize reads `wm size`. An override size wins over the physical one.
func parseWMSize(out string) (model.Rect, error) {
	var physical, override string
	for _, line := range strings.Split(out, "\n") {
		m := wmSizeRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if m[1] == "Override" {
			override = m[2]
		} else {
			physical = m[2]
		}
	}
	size := override
	if size == "" {
		size = physical
	}
	if size == "" {
		return model.Rect{}, fmt.Errorf("no size in wm output %q", strings.TrimSpace(out))
	}
	return model.ParseSize(size)
}

// parseResolvedActivity extracts the component from
// `cmd package resolve-activity --brief`, whose last line is "pkg/activity".
func parseResolvedActivity(pkg, out string) (string, error) {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	if !strings.Contains(last, "/") || strings.Contains(last, " ") {
		return "", fmt.Errorf("no launchable activity for %s", pkg)
	}
	return last, nil
}
