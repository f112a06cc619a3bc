package component

import (
	"bytes"
	"os"
	"strconv"
)

const statmPath = "/proc/self/statm"

// pageRSS reads the current resident set size from procfs.
func pageRSS() (Value, error) {
	data, err := os.ReadFile(statmPath)
	if err != nil {
		return 0, unavailable("page_rss", err.Error())
	}
	fields := bytes.Fields(data)
	if len(fields) < 2 {
		return 0, unavailable("page_rss", "malformed "+statmPath)
	}
	pages, err := strconv.ParseInt(string(fields[1]), 10, 64)
	if err != nil {
		return 0, unavailable("page_rss", err.Error())
	}
	return Value(pages * int64(os.Getpagesize())), nil
}
