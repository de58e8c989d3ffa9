package feed

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

const telegraphSource = "telegraph"

// Normalizer converts raw telegraph records into canonical items. Run is a
// pure mapping apart from the generated display id.
type Normalizer struct {
	focusTag string
}

func NewNormalizer(focusTag string) *Normalizer {
	return &Normalizer{focusTag: focusTag}
}

func (n *Normalizer) Run(raw RawItem) Item {
	itemTime := extractClockTime(raw.CreateTime)
	text := norm.NFC.String(itemTime + "\n" + raw.RichText)

	item := Item{
		ID:          uuid.NewString(),
		Source:      telegraphSource,
		Text:        text,
		Time:        itemTime,
		IsImportant: n.isImportant(raw.Tags),
		ImageURLs:   collectImageURLs(raw),
		Fingerprint: Fingerprint(text),
		PublishedAt: parsePublishedAt(raw.CreateTime),
	}

	return item
}

func (n *Normalizer) isImportant(tags []RawTag) bool {
	for _, tag := range tags {
		if tag.Name == n.focusTag {
			return true
		}
	}
	return false
}

// Fingerprint derives the dedup identity from an item's composed text.
func Fingerprint(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:])
}

// extractClockTime pulls the HH:MM:SS component out of a "YYYY-MM-DD
// HH:MM:SS" timestamp, defaulting when the shape is unexpected.
func extractClockTime(createTime string) string {
	parts := strings.Split(createTime, " ")
	if len(parts) >= 2 {
		return parts[1]
	}
	return "00:00:00"
}

func parsePublishedAt(createTime string) time.Time {
	if t, err := time.ParseInLocation("2006-01-02 15:04:05", createTime, time.Local); err == nil {
		return t
	}
	return time.Now().In(time.Local)
}
