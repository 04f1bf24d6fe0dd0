package platform

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/Avflux/Av-sub001/internal/idle"
)

type xdotoolCursor struct {
	path string
}

func newCursorSource() idle.CursorSource {
	if isWayland() {
		return unsupportedCursor{}
	}
	path, err := exec.LookPath("xdotool")
	if err != nil {
		return unsupportedCursor{}
	}
	return &xdotoolCursor{path: path}
}

func (c *xdotoolCursor) CursorPosition(ctx context.Context) (int, int, error) {
	output, err := exec.CommandContext(ctx, c.path, "getmouselocation", "--shell").Output()
	if err != nil {
		return 0, 0, fmt.Errorf("xdotool: %w", err)
	}
	return parseMouseLocation(string(output))
}

// parseMouseLocation reads the X= and Y= lines of `xdotool getmouselocation --shell`.
func parseMouseLocation(output string) (int, int, error) {
	x, y := -1, -1
	for _, line := range strings.Split(output, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			continue
		}
		switch key {
		case "X":
			x = n
		case "Y":
			y = n
		}
	}
	if x < 0 || y < 0 {
		return 0, 0, fmt.Errorf("parse mouse location: %q", output)
	}
	return x, y, nil
}

type xprintidleProber struct {
	path string
}

func newIdleProber() IdleProber {
	if isWayland() {
		return unsupportedProber{}
	}
	path, err := exec.LookPath("xprintidle")
	if err != nil {
		return unsupportedProber{}
	}
	return &xprintidleProber{path: path}
}

func (p *xprintidleProber) IdleDuration(ctx context.Context) (time.Duration, error) {
	output, err := exec.CommandContext(ctx, p.path).Output()
	if err != nil {
		return 0, fmt.Errorf("xprintidle: %w", err)
	}
	idleMillis, err := strconv.ParseInt(strings.TrimSpace(string(output)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse idle milliseconds: %w", err)
	}
	if idleMillis < 0 {
		idleMillis = 0
	}
	return time.Duration(idleMillis) * time.Millisecond, nil
}

func isWayland() bool {
	return strings.ToLower(os.Getenv("XDG_SESSION_TYPE")) == "wayland"
}
