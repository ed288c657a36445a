package website

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Summary holds what a single tokenizer pass learns about a generated HTML document.
type Summary struct {
	Title         string
	LinksStyle    bool // references style.css
	LinksScript   bool // references script.js
	HeadingCounts map[string]int
}

// Summarize tokenizes an HTML document and extracts its title, heading counts
// and whether it references the bundled stylesheet and script.
func Summarize(document string) (*Summary, error) {
	summary := &Summary{HeadingCounts: map[string]int{}}

	z := html.NewTokenizer(strings.NewReader(document))
	var inTitle bool
	var title strings.Builder

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				summary.Title = strings.Join(strings.Fields(title.String()), " ")
				return summary, nil
			}
			return nil, z.Err()

		case html.StartTagToken, html.SelfClosingTagToken:
			tn, hasAttr := z.TagName()
			tag := string(tn)

			switch {
			case tag == "title":
				inTitle = true
			case len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6':
				summary.HeadingCounts[tag]++
			case tag == "link" && hasAttr:
				if refersTo(attr(z, "href"), CSSFileName) {
					summary.LinksStyle = true
				}
			case tag == "script" && hasAttr:
				if refersTo(attr(z, "src"), JSFileName) {
					summary.LinksScript = true
				}
			}

		case html.EndTagToken:
			tn, _ := z.TagName()
			if string(tn) == "title" {
				inTitle = false
			}

		case html.TextToken:
			if inTitle {
				title.Write(z.Text())
			}
		}
	}
}

// Title returns the document title, or an empty string when there is none.
func Title(document string) string {
	summary, err := Summarize(document)
	if err != nil {
		return ""
	}
	return summary.Title
}

func attr(z *html.Tokenizer, name string) string {
	for {
		key, val, more := z.TagAttr()
		if string(key) == name {
			return string(val)
		}
		if !more {
			return ""
		}
	}
}

func refersTo(ref, fileName string) bool {
	ref = strings.TrimSpace(ref)
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	return ref == fileName || strings.HasSuffix(ref, "/"+fileName)
}
