package platform

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Avflux/Av-sub001/internal/idle"
)

func newCursorSource() idle.CursorSource {
	return unsupportedCursor{}
}

// HIDIdleTime is reported in nanoseconds since the last input.
var hidIdleRe = regexp.MustCompile(`HIDIdleTime"\s*=\s*([0-9]+)`)

type ioregProber struct{}

func newIdleProber() IdleProber {
	return ioregProber{}
}

func (ioregProber) IdleDuration(ctx context.Context) (time.Duration, error) {
	output, err := exec.CommandContext(ctx, "/usr/sbin/ioreg", "-c", "IOHIDSystem").Output()
	if err != nil {
		return 0, fmt.Errorf("ioreg: %w", err)
	}
	scanner := bufio.NewScanner(strings.NewReader(string(output)))
	for scanner.Scan() {
		m := hidIdleRe.FindStringSubmatch(scanner.Text())
		if len(m) != 2 {
			continue
		}
		ns, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse HIDIdleTime: %w", err)
		}
		return time.Duration(ns), nil
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	return 0, fmt.Errorf("HIDIdleTime not found")
}
