// Package device turns raw User-Agent headers into short display names for
// audit metadata.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

// ParseUserAgent returns "<browser> on <os>", for example "Chrome on Linux".
// Mobile devices report their platform ("Safari on iPhone").
func ParseUserAgent(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "Unknown Device"
	}
	ua := useragent.New(raw)

	browser, _ := ua.Browser()
	browser = strings.TrimSpace(browser)
	if browser == "" {
		browser = "Unknown Browser"
	}

	osName := strings.TrimSpace(ua.OSInfo().Name)
	if platform := strings.TrimSpace(ua.Platform()); ua.Mobile() && platform != "" {
		osName = platform
	}
	if osName == "" {
		osName = "Unknown OS"
	}
	return browser + " on " + osName
}
