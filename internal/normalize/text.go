package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

var linkPattern = regexp.MustCompile(`Link:\s(https?://\S+)`)

// SplitMessageLink separates a chat message body from its embedded
// "Link: <url>" marker. The message is the trimmed text before the marker;
// the link is empty when no marker is present.
func SplitMessageLink(input string) (message, link string) {
	if m := linkPattern.FindStringSubmatch(input); m != nil {
		link = m[1]
	}
	message = strings.TrimSpace(strings.SplitN(input, "Link:", 2)[0])
	return message, link
}

// DurationSeconds parses an "HH:MM:SS" call duration into seconds.
func DurationSeconds(duration string) (int, error) {
	parts := strings.Split(duration, ":")
	if len(parts) != 3 {
		return 0, eris.Errorf("normalize: malformed duration %q", duration)
	}

	var total int
	for i, mul := range []int{3600, 60, 1} {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return 0, eris.Wrapf(err, "normalize: malformed duration %q", duration)
		}
		total += n * mul
	}
	return total, nil
}

// PropertyURL builds the public property-details URL for a portal property
// id; empty when the id is empty.
func PropertyURL(propertyID string) string {
	if propertyID == "" {
		return ""
	}
	return fmt.Sprintf("https://www.bayut.com/property/details-%s.html", propertyID)
}
