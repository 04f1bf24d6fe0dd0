package platform

import (
	"context"
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/Avflux/Av-sub001/internal/idle"
)

var (
	user32           = windows.NewLazySystemDLL("user32.dll")
	getCursorPos     = user32.NewProc("GetCursorPos")
	getLastInputInfo = user32.NewProc("GetLastInputInfo")
)

type point struct {
	x int32
	y int32
}

type lastInputInfo struct {
	cbSize uint32
	dwTime uint32
}

type win32Cursor struct{}

func newCursorSource() idle.CursorSource {
	return win32Cursor{}
}

func (win32Cursor) CursorPosition(context.Context) (int, int, error) {
	var pt point
	result, _, err := getCursorPos.Call(uintptr(unsafe.Pointer(&pt)))
	if result == 0 {
		return 0, 0, fmt.Errorf("get cursor pos: %w", err)
	}
	return int(pt.x), int(pt.y), nil
}

type win32Prober struct{}

func newIdleProber() IdleProber {
	return win32Prober{}
}

func (win32Prober) IdleDuration(context.Context) (time.Duration, error) {
	info := lastInputInfo{cbSize: uint32(unsafe.Sizeof(lastInputInfo{}))}
	result, _, err := getLastInputInfo.Call(uintptr(unsafe.Pointer(&info)))
	if result == 0 {
		return 0, fmt.Errorf("get last input info: %w", err)
	}

	// dwTime is the low 32 bits of the tick count and wraps every ~49.7 days.
	idleMillis := uint32(windows.GetTickCount64()) - info.dwTime
	return time.Duration(idleMillis) * time.Millisecond, nil
}
