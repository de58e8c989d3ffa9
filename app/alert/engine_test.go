package alert

import (
	"testing"

	"github.com/smolin/newswatch/app/feed"
)

func makeItem(text string, important bool) feed.Item {
	return feed.Item{
		ID:          text,
		Source:      "telegraph",
		Text:        text,
		IsImportant: important,
		Fingerprint: feed.Fingerprint(text),
	}
}

func TestClassifyImportant(t *testing.T) {
	engine := NewEngine()
	settings := Settings{Keywords: []string{"股市"}}

	items := []feed.Item{
		makeItem("10:00:00\n【要闻】重大消息", true),
		makeItem("10:00:05\n普通消息", false),
	}

	c := engine.Classify(items, settings)

	if len(c.NewlyImportant) != 1 {
		t.Fatalf("Expected 1 newly important item, got %d", len(c.NewlyImportant))
	}
	if len(c.KeywordMatches) != 0 {
		t.Errorf("Expected no keyword matches, got %d", len(c.KeywordMatches))
	}
}

func TestClassifyKeywordCaseInsensitive(t *testing.T) {
	engine := NewEngine()
	settings := Settings{Keywords: []string{"Fed"}}

	c := engine.Classify([]feed.Item{makeItem("10:00:00\nthe fed holds rates", false)}, settings)

	if len(c.KeywordMatches) != 1 {
		t.Fatalf("Expected 1 keyword match, got %d", len(c.KeywordMatches))
	}
	if c.KeywordMatches[0].Keyword != "Fed" {
		t.Errorf("Expected matched keyword Fed, got %q", c.KeywordMatches[0].Keyword)
	}
}

func TestClassifyCJKKeyword(t *testing.T) {
	engine := NewEngine()
	settings := Settings{Keywords: []string{"股市"}}

	c := engine.Classify([]feed.Item{makeItem("10:00:00\n今日股市大涨", false)}, settings)

	if len(c.KeywordMatches) != 1 {
		t.Fatalf("Expected 1 keyword match, got %d", len(c.KeywordMatches))
	}
}

func TestClassifyAtMostOnce(t *testing.T) {
	engine := NewEngine()
	settings := Settings{Keywords: []string{"股市"}}

	items := []feed.Item{
		makeItem("10:00:00\n【要闻】重大", true),
		makeItem("10:00:05\n股市动态", false),
	}

	first := engine.Classify(items, settings)
	if len(first.NewlyImportant) != 1 || len(first.KeywordMatches) != 1 {
		t.Fatalf("Expected first pass to classify both items, got %+v", first)
	}

	second := engine.Classify(items, settings)
	if len(second.NewlyImportant) != 0 || len(second.KeywordMatches) != 0 {
		t.Errorf("Expected second pass to classify nothing, got %+v", second)
	}
}

func TestClassifyImportanceSuppressesKeyword(t *testing.T) {
	engine := NewEngine()
	settings := Settings{Keywords: []string{"股市"}}

	// The item is both important and keyword-matching; importance wins and
	// the shared seen set keeps it out of the keyword category.
	c := engine.Classify([]feed.Item{makeItem("10:00:00\n【要闻】股市暴涨", true)}, settings)

	if len(c.NewlyImportant) != 1 {
		t.Fatalf("Expected 1 newly important item, got %d", len(c.NewlyImportant))
	}
	if len(c.KeywordMatches) != 0 {
		t.Errorf("Expected importance to suppress the keyword match, got %d", len(c.KeywordMatches))
	}
}

func TestClassifyEmptyKeywordNeverMatches(t *testing.T) {
	engine := NewEngine()
	settings := Settings{Keywords: []string{"", "   "}}

	c := engine.Classify([]feed.Item{makeItem("10:00:00\n任意内容", false)}, settings)

	if len(c.KeywordMatches) != 0 {
		t.Errorf("Expected whitespace-only keywords to never match, got %d matches", len(c.KeywordMatches))
	}
}

func TestSeedInitialSuppressesAlerts(t *testing.T) {
	engine := NewEngine()
	settings := Settings{Keywords: []string{"股市"}}

	items := []feed.Item{
		makeItem("10:00:00\n【要闻】开盘", true),
		makeItem("10:00:05\n股市行情", false),
		makeItem("10:00:10\n无关内容", false),
	}

	engine.SeedInitial(items, settings)

	if !engine.Seeded() {
		t.Fatal("Expected engine to report seeded")
	}
	if engine.SeenCount() != 2 {
		t.Errorf("Expected 2 seeded fingerprints, got %d", engine.SeenCount())
	}

	// Re-classifying the seeded batch must stay silent.
	c := engine.Classify(items, settings)
	if len(c.NewlyImportant) != 0 || len(c.KeywordMatches) != 0 {
		t.Errorf("Expected seeded items to produce no alerts, got %+v", c)
	}
}

func TestSeedInitialIdempotent(t *testing.T) {
	engine := NewEngine()
	settings := Settings{}

	engine.SeedInitial([]feed.Item{makeItem("10:00:00\n【要闻】a", true)}, settings)
	engine.SeedInitial([]feed.Item{makeItem("10:00:05\n【要闻】b", true)}, settings)

	if engine.SeenCount() != 1 {
		t.Errorf("Expected second seed to be ignored, seen count %d", engine.SeenCount())
	}
}

func TestMergePrepend(t *testing.T) {
	engine := NewEngine()

	a := makeItem("10:00:00\na", false)
	b := makeItem("10:00:05\nb", false)
	engine.MergePrepend([]feed.Item{a, b})

	c := makeItem("10:00:10\nc", false)
	inserted := engine.MergePrepend([]feed.Item{c, a})

	if len(inserted) != 1 || inserted[0].Text != c.Text {
		t.Fatalf("Expected only the new item inserted, got %v", inserted)
	}

	items := engine.Items()
	if len(items) != 3 {
		t.Fatalf("Expected 3 displayed items, got %d", len(items))
	}
	if items[0].Text != c.Text || items[1].Text != a.Text || items[2].Text != b.Text {
		t.Errorf("Expected newest-first order c,a,b, got %q,%q,%q",
			items[0].Text, items[1].Text, items[2].Text)
	}
}

func TestMergeAppend(t *testing.T) {
	engine := NewEngine()

	a := makeItem("10:00:00\na", false)
	engine.MergePrepend([]feed.Item{a})

	b := makeItem("09:59:00\nb", false)
	appended := engine.MergeAppend([]feed.Item{a, b})

	if len(appended) != 1 || appended[0].Text != b.Text {
		t.Fatalf("Expected only the unseen item appended, got %v", appended)
	}

	items := engine.Items()
	if len(items) != 2 || items[1].Text != b.Text {
		t.Errorf("Expected page appended at the tail, got %v", items)
	}
	if !engine.HasMore() {
		t.Error("Expected pagination to continue after a useful page")
	}
}

func TestMergeAppendExhaustsPagination(t *testing.T) {
	engine := NewEngine()

	a := makeItem("10:00:00\na", false)
	engine.MergePrepend([]feed.Item{a})

	if appended := engine.MergeAppend([]feed.Item{a}); appended != nil {
		t.Errorf("Expected fully-duplicate page to append nothing, got %v", appended)
	}
	if engine.HasMore() {
		t.Error("Expected pagination to stop after a page with no usable items")
	}
}

func TestNextPage(t *testing.T) {
	engine := NewEngine()

	if page := engine.NextPage(); page != 2 {
		t.Errorf("Expected first advance to request page 2, got %d", page)
	}
	if page := engine.NextPage(); page != 3 {
		t.Errorf("Expected second advance to request page 3, got %d", page)
	}
}

func TestStopPagination(t *testing.T) {
	engine := NewEngine()
	engine.StopPagination()

	if engine.HasMore() {
		t.Error("Expected HasMore to be false after StopPagination")
	}
}
