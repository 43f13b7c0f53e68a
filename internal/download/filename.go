package download

import (
	"net/url"
	"regexp"
	"strings"
)

// filenamePattern extracts the quoted filename token from a
// Content-Disposition header.
var filenamePattern = regexp.MustCompile(`filename="(.+)"`)

// disallowedChars matches every character that may not appear in a local
// filename. Everything outside [A-Za-z0-9_.-] becomes an underscore.
var disallowedChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// FilenameFromHeader resolves a local filename from a Content-Disposition
// header value. Returns false when the header carries no usable filename
// token, in which case the download is skipped.
//
// The value is URL-decoded first because the service percent-encodes
// non-ASCII names, then sanitized for the local filesystem.
func FilenameFromHeader(contentDisposition string) (string, bool) {
	if contentDisposition == "" || !strings.Contains(contentDisposition, "filename") {
		return "", false
	}

	match := filenamePattern.FindStringSubmatch(contentDisposition)
	if match == nil {
		return "", false
	}

	name := match[1]
	if decoded, err := url.QueryUnescape(name); err == nil {
		name = decoded
	}

	name = SanitizeFilename(name)
	if name == "" {
		return "", false
	}
	return name, true
}

// SanitizeFilename replaces every disallowed character with an underscore
// and strips any surrounding literal quote characters.
func SanitizeFilename(name string) string {
	name = disallowedChars.ReplaceAllString(name, "_")
	return strings.Trim(name, `"`)
}
