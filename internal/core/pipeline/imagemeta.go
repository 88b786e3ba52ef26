package pipeline

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// imageFromMeta pulls a representative image URL out of page metadata when
// the extraction itself produced none. Checked in order of reliability.
var imageMetaSelectors = []string{
	`meta[property="og:image"]`,
	`meta[name="twitter:image"]`,
	`meta[itemprop="image"]`,
	`link[rel="image_src"]`,
}

func imageFromMeta(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	for _, sel := range imageMetaSelectors {
		node := doc.Find(sel).First()
		if v, ok := node.Attr("content"); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		if v, ok := node.Attr("href"); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
