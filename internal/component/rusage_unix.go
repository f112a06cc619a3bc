//go:build unix

package component

import (
	"runtime"

	"golang.org/x/sys/unix"
)

func rusage() (*unix.Rusage, error) {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return nil, unavailable("rusage", err.Error())
	}
	return &ru, nil
}

func cpuClock() (Value, error) {
	ru, err := rusage()
	if err != nil {
		return 0, err
	}
	return Value(unix.TimevalToNsec(ru.Utime) + unix.TimevalToNsec(ru.Stime)), nil
}

func userClock() (Value, error) {
	ru, err := rusage()
	if err != nil {
		return 0, err
	}
	return Value(unix.TimevalToNsec(ru.Utime)), nil
}

func systemClock() (Value, error) {
	ru, err := rusage()
	if err != nil {
		return 0, err
	}
	return Value(unix.TimevalToNsec(ru.Stime)), nil
}

// peakRSS reads the resident set high-water mark in bytes.
// Darwin reports ru_maxrss in bytes, everything else in kilobytes.
func peakRSS() (Value, error) {
	ru, err := rusage()
	if err != nil {
		return 0, err
	}
	maxrss := int64(ru.Maxrss)
	if runtime.GOOS != "darwin" && runtime.GOOS != "ios" {
		maxrss *= 1024
	}
	return Value(maxrss), nil
}
