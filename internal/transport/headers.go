package transport

import (
	"net/http"

	"github.com/google/uuid"
)

// Per-source device fingerprints. A101, ŞOK and Tarım Kredi block the
// desktop fingerprint but accept a mobile Safari one.
const (
	desktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/131.0.0.0 Safari/537.36"
	iphoneUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 18_6_2 like Mac OS X) " +
		"AppleWebKit/605.1.15 (KHTML, like Gecko) " +
		"Version/18.6 Mobile/15E148 Safari/604.1"
)

// deviceID is stable for the process lifetime so one run presents one
// device to mobile endpoints.
var deviceID = uuid.New().String()

// DesktopHeaders returns a realistic desktop Chrome header set.
func DesktopHeaders(referer, accept string) http.Header {
	h := http.Header{}
	h.Set("User-Agent", desktopUserAgent)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	h.Set("Accept-Language", "tr-TR,tr;q=0.9,en-US;q=0.8,en;q=0.7")
	h.Set("Sec-Ch-Ua", `"Google Chrome";v="131", "Chromium";v="131", "Not_A Brand";v="24"`)
	h.Set("Sec-Ch-Ua-Mobile", "?0")
	h.Set("Sec-Ch-Ua-Platform", `"Windows"`)
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Site", "none")
	h.Set("Sec-Fetch-User", "?1")
	h.Set("Upgrade-Insecure-Requests", "1")
	if accept != "" {
		h.Set("Accept", accept)
	}
	if referer != "" {
		h.Set("Referer", referer)
	}
	return h
}

// IPhoneHeaders returns a mobile Safari header set with a per-process
// device id.
func IPhoneHeaders(referer, accept string) http.Header {
	h := http.Header{}
	h.Set("User-Agent", iphoneUserAgent)
	h.Set("Accept", "application/json")
	h.Set("Accept-Language", "tr-TR,tr;q=0.9")
	h.Set("X-Device-Id", deviceID)
	if accept != "" {
		h.Set("Accept", accept)
	}
	if referer != "" {
		h.Set("Referer", referer)
	}
	return h
}
