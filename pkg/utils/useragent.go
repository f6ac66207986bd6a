package utils

import (
	"fmt"
	"strings"

	"github.com/avct/uasurfer"
)

// UserAgentInfo is the parsed view of a client identifier, attached to
// visit records for dashboard segmentation.
type UserAgentInfo struct {
	Device  string `json:"device"`
	OS      string `json:"os"`
	Browser string `json:"browser"`
	Locale  string `json:"locale,omitempty"`
}

// ParseUserAgent extracts device, OS and browser from a user-agent
// string. Returns nil for agents that do not look like a real client
// (crawlers, scripts, empty strings).
func ParseUserAgent(uaString string, acceptLanguage string) *UserAgentInfo {
	if uaString == "" {
		return nil
	}
	ua := uasurfer.Parse(uaString)

	device := ""
	switch ua.DeviceType {
	case uasurfer.DeviceComputer:
		device = "Computer"
	case uasurfer.DeviceTablet:
		device = "Tablet"
	case uasurfer.DevicePhone:
		device = "Phone"
	case uasurfer.DeviceConsole:
		device = "Console"
	case uasurfer.DeviceWearable:
		device = "Wearable"
	case uasurfer.DeviceTV:
		device = "TV"
	default:
		return nil
	}

	info := &UserAgentInfo{
		Device:  device,
		OS:      fmt.Sprintf("%s %d.%d", ua.OS.Name.String(), ua.OS.Version.Major, ua.OS.Version.Minor),
		Browser: fmt.Sprintf("%s %d.%d", ua.Browser.Name.String(), ua.Browser.Version.Major, ua.Browser.Version.Minor),
	}

	if acceptLanguage != "" {
		locale := acceptLanguage
		if idx := strings.IndexByte(acceptLanguage, ','); idx != -1 {
			locale = acceptLanguage[:idx]
		}
		info.Locale = strings.TrimSpace(locale)
	}

	return info
}
