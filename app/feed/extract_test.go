package feed

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{
			name:     "bracket title",
			text:     "18:19:51\n【美联储决议】利率维持不变",
			expected: "美联储决议",
		},
		{
			name:     "bracket title with surrounding space",
			text:     "09:00:00\n【 早间要闻 】正文",
			expected: "早间要闻",
		},
		{
			name:     "token fallback truncates to eight words",
			text:     "09:00:00\none two three four five six seven eight nine ten",
			expected: "one two three four five six seven eight",
		},
		{
			name:     "short text kept whole",
			text:     "09:00:00\nmarkets rally",
			expected: "markets rally",
		},
		{
			name:     "empty bracket pair",
			text:     "09:00:00\n【】正文",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractTitle(tt.text); got != tt.expected {
				t.Errorf("Expected title %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestExtractTitleRunePrefix(t *testing.T) {
	// A space-free CJK body is a single token, so the rune cap is what
	// bounds it.
	body := strings.Repeat("长", 150)
	got := ExtractTitle("09:00:00\n" + body)

	if len([]rune(got)) != 100 {
		t.Errorf("Expected 100-rune prefix, got %d runes", len([]rune(got)))
	}
	if !strings.HasPrefix(body, got) {
		t.Error("Expected the prefix to preserve the original runes")
	}
}

func TestExtractTitleRuneCapAfterTokenJoin(t *testing.T) {
	// Eight long tokens join to more than the rune limit; the cap applies
	// to the joined result too.
	token := strings.Repeat("x", 20)
	body := strings.TrimSpace(strings.Repeat(token+" ", 10))
	got := ExtractTitle("09:00:00\n" + body)

	if len([]rune(got)) != 100 {
		t.Errorf("Expected 100-rune title, got %d runes", len([]rune(got)))
	}
}

func TestExtractBody(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{
			name:     "strips time line and title span",
			text:     "18:19:51\n【美联储决议】利率维持不变",
			expected: "利率维持不变",
		},
		{
			name:     "strips full-width parentheses",
			text:     "09:00:00\n内容（来源：某社）结束",
			expected: "内容来源：某社结束",
		},
		{
			name:     "collapses doubled spaces",
			text:     "09:00:00\n【标题】a    b  c",
			expected: "a b c",
		},
		{
			name:     "text without time line",
			text:     "【标题】正文",
			expected: "正文",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractBody(tt.text); got != tt.expected {
				t.Errorf("Expected body %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestCollectImageURLs(t *testing.T) {
	raw := RawItem{
		RichText:   `看图 https://img.example.com/inline.png 结束`,
		ShareImage: "https://img.example.com/share.jpg",
		Multimedia: json.RawMessage(`{"img_url":["https://img.example.com/a.webp"],"images":[{"url":"https://img.example.com/b.gif"}]}`),
	}

	urls := collectImageURLs(raw)

	expected := []string{
		"https://img.example.com/share.jpg",
		"https://img.example.com/a.webp",
		"https://img.example.com/b.gif",
		"https://img.example.com/inline.png",
	}
	if !reflect.DeepEqual(urls, expected) {
		t.Errorf("Expected %v, got %v", expected, urls)
	}
}

func TestCollectImageURLsStringEncodedPayload(t *testing.T) {
	// The multimedia field sometimes arrives as a JSON-encoded string.
	raw := RawItem{
		Multimedia: json.RawMessage(`"{\"img_url\":[\"https://img.example.com/nested.jpeg\"]}"`),
	}

	urls := collectImageURLs(raw)

	if len(urls) != 1 || urls[0] != "https://img.example.com/nested.jpeg" {
		t.Errorf("Expected nested payload URL, got %v", urls)
	}
}

func TestCollectImageURLsDedup(t *testing.T) {
	raw := RawItem{
		RichText:   "https://img.example.com/x.png",
		ShareImage: "https://img.example.com/x.png",
	}

	if urls := collectImageURLs(raw); len(urls) != 1 {
		t.Errorf("Expected duplicate URL collected once, got %v", urls)
	}
}

func TestCollectImageURLsEmpty(t *testing.T) {
	if urls := collectImageURLs(RawItem{RichText: "无图快讯"}); len(urls) != 0 {
		t.Errorf("Expected no URLs, got %v", urls)
	}
}
