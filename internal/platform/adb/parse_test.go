package adb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mj1618/droidtile/internal/model"
)

const stackList = `RootTask id=1 bounds=[0,0][1080,2400] displayId=0 userId=0
  configuration={1.0 ?mcc?mnc [en_US] ldltr sw411dp w411dp h890dp}
  taskId=1: com.google.android.apps.nexuslauncher/.NexusLauncherActivity bounds=[0,0][1080,2400] userId=0 visible=true topActivity=ComponentInfo{com.google.android.apps.nexuslauncher/com.google.android.apps.nexuslauncher.NexusLauncherActivity}
RootTask id=21 bounds=[0,100][540,1200] displayId=0 userId=0
  taskId=21: com.android.chrome/org.chromium.chrome.browser.ChromeTabbedActivity bounds=[0,100][540,1200] userId=0 visible=true topActivity=ComponentInfo{com.android.chrome/org.chromium.chrome.browser.ChromeTabbedActivity}
RootTask id=22 bounds=[540,100][1080,1200] displayId=0 userId=0
  taskId=22: org.videolan.vlc/.StartActivity bounds=[540,100][1080,1200] userId=0 visible=true topActivity=ComponentInfo{org.videolan.vlc/org.videolan.vlc.StartActivity}
RootTask id=23 bounds=[0,0][1080,2400] displayId=0 userId=0
  taskId=23: com.android.settings/.Settings bounds=[0,0][1080,2400] userId=0 visible=false topActivity=ComponentInfo{com.android.settings/com.android.settings.Settings}
RootTask id=30 bounds=[0,0][1920,1080] displayId=2 userId=0
  taskId=30: com.termux/.app.TermuxActivity bounds=[10,10][960,1070] userId=0 visible=true
`

func ignoreSet() map[string]bool {
	m := make(map[string]bool)
	for _, p := range defaultIgnore {
		m[p] = true
	}
	return m
}

func TestParseStackList(t *testing.T) {
	windows, err := parseStackList(stackList, ignoreSet())
	require.NoError(t, err)
	require.Len(t, windows, 3)

	assert.Equal(t, model.Window{
		Package:   "com.android.chrome",
		Title:     "ChromeTabbedActivity",
		ID:        21,
		DisplayID: 0,
		Bounds:    model.LTRB(0, 100, 540, 1200),
	}, windows[0])
	assert.Equal(t, "org.videolan.vlc", windows[1].Package)
	assert.Equal(t, "StartActivity", windows[1].Title)
	assert.Equal(t, "com.termux", windows[2].Package)
	assert.Equal(t, 2, windows[2].DisplayID)
	assert.Equal(t, "TermuxActivity", windows[2].Title)
}

func TestParseStackList_LegacyStackHeader(t *testing.T) {
	out := "Stack id=4 bounds=[0,0][800,600] displayId=1 userId=0\n" +
		"  taskId=9: a.b/.Main bounds=[0,0][400,600] userId=0 visible=true\n"
	windows, err := parseStackList(out, nil)
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, 1, windows[0].DisplayID)
	assert.Equal(t, model.Rect{Width: 400, Height: 600}, windows[0].Bounds)
}

func TestParseStackList_Empty(t *testing.T) {
	windows, err := parseStackList("", nil)
	require.NoError(t, err)
	assert.Empty(t, windows)
}

func TestParseDisplays(t *testing.T) {
	assert.Equal(t, []int{0, 2}, parseDisplays(stackList))
	assert.Equal(t, []int{0}, parseDisplays(""))
}

func TestParseWMSize(t *testing.T) {
	r, err := parseWMSize("Physical size: 1080x2400\n")
	require.NoError(t, err)
	assert.Equal(t, model.Rect{Width: 1080, Height: 2400}, r)

	r, err = parseWMSize("Physical size: 1080x2400\nOverride size: 1000x2000\n")
	require.NoError(t, err)
	assert.Equal(t, model.Rect{Width: 1000, Height: 2000}, r)

	_, err = parseWMSize("error: no display\n")
	assert.Error(t, err)
}

func TestParseResolvedActivity(t *testing.T) {
	out := "priority=0 preferredOrder=0 match=0x108000 specificIndex=-1 isDefault=true\n" +
		"com.android.chrome/com.google.android.apps.chrome.Main\n"
	comp, err := parseResolvedActivity("com.android.chrome", out)
	require.NoError(t, err)
	assert.Equal(t, "com.android.chrome/com.google.android.apps.chrome.Main", comp)

	_, err = parseResolvedActivity("x.y", "No activity found\n")
	assert.Error(t, err)
}

func TestActivityTitle(t *testing.T) {
	assert.Equal(t, "Main", activityTitle("a.b", ".ui.Main"))
	assert.Equal(t, "Main", activityTitle("a.b", "a.b.Main"))
	assert.Equal(t, "Other", activityTitle("a.b", "c.d.Other"))
}
