package gateway

import "strings"

// FormatAddress renders a display name and address as "Name <address>".
func FormatAddress(name, addr string) string {
	if name == "" {
		return addr
	}
	return name + " <" + addr + ">"
}

// SplitAddress is the inverse of FormatAddress. A bare address yields an
// empty name.
func SplitAddress(from string) (name, addr string) {
	open := strings.LastIndexByte(from, '<')
	end := strings.LastIndexByte(from, '>')
	if open < 0 || end < open {
		return "", strings.TrimSpace(from)
	}
	return strings.TrimSpace(from[:open]), strings.TrimSpace(from[open+1 : end])
}
