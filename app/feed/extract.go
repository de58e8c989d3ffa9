package feed

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	bracketTitleRe = regexp.MustCompile(`【([^】]*)】`)
	imageURLRe     = regexp.MustCompile(`(?i)https?://[^\s<>"']+\.(?:jpe?g|png|gif|webp)`)
)

const (
	titleFallbackTokens = 8
	titleFallbackRunes  = 100
)

// ExtractTitle recovers a short title from an item's composed text. The
// first line is the clock time and is skipped; a 【...】 pair wins, otherwise
// the first few tokens capped at a rune limit. The rune cap is what bounds
// space-free CJK bodies, which always come back as a single token.
func ExtractTitle(text string) string {
	body := dropTimeLine(text)

	if m := bracketTitleRe.FindStringSubmatch(body); m != nil {
		return strings.TrimSpace(m[1])
	}

	tokens := strings.Fields(body)
	if len(tokens) > titleFallbackTokens {
		tokens = tokens[:titleFallbackTokens]
	}

	runes := []rune(strings.Join(tokens, " "))
	if len(runes) > titleFallbackRunes {
		runes = runes[:titleFallbackRunes]
	}
	return string(runes)
}

// ExtractBody returns the main content of an item's composed text: the time
// line and the 【...】 title span removed, full-width parentheses stripped,
// doubled spaces collapsed.
func ExtractBody(text string) string {
	body := dropTimeLine(text)

	if loc := bracketTitleRe.FindStringIndex(body); loc != nil {
		body = body[:loc[0]] + body[loc[1]:]
	}

	body = strings.ReplaceAll(body, "（", "")
	body = strings.ReplaceAll(body, "）", "")

	for strings.Contains(body, "  ") {
		body = strings.ReplaceAll(body, "  ", " ")
	}

	return strings.TrimSpace(body)
}

func dropTimeLine(text string) string {
	if _, rest, found := strings.Cut(text, "\n"); found {
		return rest
	}
	return text
}

// Structured multimedia payload shapes. The field can arrive as an object,
// as a JSON-encoded string, or be absent entirely.

type multimediaPayload struct {
	ImgURL []string `json:"img_url"`
	Image  string   `json:"image"`
	Images []struct {
		URL string `json:"url"`
	} `json:"images"`
}

// collectImageURLs merges image URLs from the anchor field, the multimedia
// payload in either of its forms, and pattern matches against the raw body.
func collectImageURLs(raw RawItem) []string {
	var urls []string
	seen := make(map[string]struct{})

	add := func(u string) {
		u = strings.TrimSpace(u)
		if u == "" {
			return
		}
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}

	add(raw.ShareImage)

	if len(raw.Multimedia) > 0 {
		var payload multimediaPayload
		if err := json.Unmarshal(raw.Multimedia, &payload); err != nil {
			// Not an object; retry as a JSON-encoded string payload.
			var encoded string
			if err := json.Unmarshal(raw.Multimedia, &encoded); err == nil && encoded != "" {
				_ = json.Unmarshal([]byte(encoded), &payload)
			}
		}
		for _, u := range payload.ImgURL {
			add(u)
		}
		for _, img := range payload.Images {
			add(img.URL)
		}
		add(payload.Image)
	}

	for _, u := range imageURLRe.FindAllString(raw.RichText, -1) {
		add(u)
	}

	return urls
}
