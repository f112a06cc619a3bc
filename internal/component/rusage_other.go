//go:build !unix

package component

func cpuClock() (Value, error) {
	return 0, unavailable("cpu_clock", "getrusage not supported")
}

func userClock() (Value, error) {
	return 0, unavailable("user_clock", "getrusage not supported")
}

func systemClock() (Value, error) {
	return 0, unavailable("system_clock", "getrusage not supported")
}

func peakRSS() (Value, error) {
	return 0, unavailable("peak_rss", "getrusage not supported")
}
