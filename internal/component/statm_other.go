//go:build !linux

package component

func pageRSS() (Value, error) {
	return 0, unavailable("page_rss", "procfs not available")
}
