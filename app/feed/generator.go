package feed

import (
	"bytes"
	"fmt"
	"html"
	"time"

	"github.com/smolin/newswatch/app/cfg"
	"github.com/smolin/newswatch/app/database"
)

// Generator renders the archived telegraph stream as an RSS 2.0 document so
// ordinary feed readers can follow it.
type Generator struct {
	BaseUrl string
	Port    string
	Version string
}

func NewGenerator() *Generator {
	c := cfg.Get()
	return &Generator{
		BaseUrl: c.BaseUrl,
		Port:    c.Port,
		Version: c.Version,
	}
}

func (g *Generator) Run(items []database.Item) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", "newswatch telegraph", 4)
	g.writeElement(&buf, "description", "Financial telegraph stream with importance and keyword classification", 4)

	var selfLink string
	if g.BaseUrl != "" {
		selfLink = fmt.Sprintf("%s/feed", g.BaseUrl)
	} else {
		selfLink = fmt.Sprintf("http://localhost:%s/feed", g.Port)
	}
	g.writeElement(&buf, "link", selfLink, 4)
	buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
		html.EscapeString(selfLink)))

	lastBuildDate := time.Now().In(time.Local)
	if len(items) > 0 && !items[0].PublishedAt.IsZero() {
		lastBuildDate = items[0].PublishedAt
	}

	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("newswatch/%s", g.Version), 4)

	for _, item := range items {
		g.writeItem(&buf, item)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, item database.Item) {
	buf.WriteString("    <item>\n")

	title := item.Title
	if title == "" {
		title = ExtractTitle(item.Text)
	}
	g.writeElement(buf, "title", title, 6)

	if item.Link != "" {
		g.writeElement(buf, "link", item.Link, 6)
	}

	body := item.Body
	if body == "" {
		body = ExtractBody(item.Text)
	}
	g.writeElement(buf, "description", body, 6)

	if !item.PublishedAt.IsZero() {
		g.writeElement(buf, "pubDate", item.PublishedAt.Format(time.RFC1123Z), 6)
	}

	buf.WriteString(fmt.Sprintf("      <guid isPermaLink=\"false\">%s</guid>\n",
		html.EscapeString(item.ContentHash)))

	if item.IsImportant {
		g.writeElement(buf, "category", "important", 6)
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, name, value string, indent int) {
	if value == "" {
		return
	}
	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}
	buf.WriteString(fmt.Sprintf("<%s>%s</%s>\n", name, html.EscapeString(value), name))
}
