package caption

import "regexp"

var (
	videoURLPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:https?://)?(?:www\.|m\.)?youtube\.com/watch\?(?:[^#]*&)?v=([^&#]+)`),
		regexp.MustCompile(`(?:https?://)?(?:www\.)?youtu\.be/([^?&#/]+)`),
		regexp.MustCompile(`(?:https?://)?(?:www\.)?youtube\.com/embed/([^?&#/]+)`),
		regexp.MustCompile(`(?:https?://)?(?:www\.)?youtube\.com/v/([^?&#/]+)`),
	}
	bareID = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
)

// ExtractVideoID returns the video id of a YouTube watch, short, embed or
// legacy URL, or of a bare 11-character id.
func ExtractVideoID(url string) (string, bool) {
	for _, re := range videoURLPatterns {
		if m := re.FindStringSubmatch(url); m != nil {
			return m[1], true
		}
	}
	if bareID.MatchString(url) {
		return url, true
	}
	return "", false
}
