package tui

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/pders01/flick/internal/config"
)

func TestShowBanner(t *testing.T) {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	outC := make(chan string)
	go func() {
		var buf bytes.Buffer
		io.Copy(&buf, r)
		outC <- buf.String()
	}()

	ShowBanner("1.0.0-test")

	w.Close()
	os.Stdout = old
	out := <-outC

	if !strings.Contains(out, "Movie discovery v1.0.0-test") {
		t.Errorf("Expected banner to contain the version tagline, got: %s", out)
	}
	if !strings.Contains(out, "╔") || !strings.Contains(out, "╝") {
		t.Errorf("Expected banner to contain border characters, got: %s", out)
	}
	if !strings.Contains(out, "◆") {
		t.Errorf("Expected banner to contain separator, got: %s", out)
	}
}

func TestBanner_DevVersion(t *testing.T) {
	out := Banner("dev")
	assert.Contains(t, out, "Movie discovery")
	assert.NotContains(t, out, "vdev")
}

func TestGetCompactBanner(t *testing.T) {
	out := GetCompactBanner(MsgNoResults)
	assert.Contains(t, out, MsgNoResults)
	assert.Contains(t, out, "██")
}

func TestApplyTheme(t *testing.T) {
	orig := PrimaryColor
	t.Cleanup(func() {
		PrimaryColor = orig
		buildStyles()
	})

	ApplyTheme(config.UIColors{Primary: "#123456"})
	assert.Equal(t, lipgloss.Color("#123456"), PrimaryColor)

	// Empty values keep what is there.
	ApplyTheme(config.UIColors{})
	assert.Equal(t, lipgloss.Color("#123456"), PrimaryColor)
}
