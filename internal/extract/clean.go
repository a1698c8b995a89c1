package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// maxContentChars caps how much cleaned page text goes into the prompt.
// Contact pages fit comfortably; anything past this is boilerplate and
// only inflates token cost.
const maxContentChars = 100_000

var (
	bodyRe    = regexp.MustCompile(`(?is)<body[^>]*>(.*)</body>`)
	commentRe = regexp.MustCompile(`(?s)<!--.*?-->`)
	tagRe     = regexp.MustCompile(`<[^>]+>`)
	spaceRe   = regexp.MustCompile(`[ \t]+`)
	nlRe      = regexp.MustCompile(`\n{3,}`)
)

// CleanHTML reduces raw page HTML to plaintext suitable for LLM extraction.
// Scripts, styles and comments are removed, tags stripped, entities decoded,
// and whitespace collapsed. Output is truncated to maxContentChars.
func CleanHTML(html string) string {
	// Keep only the body when present; head markup never holds contacts.
	if m := bodyRe.FindStringSubmatch(html); len(m) > 1 {
		html = m[1]
	}

	html = commentRe.ReplaceAllString(html, "")

	// Remove script, style, noscript blocks entirely.
	for _, tag := range []string{"script", "style", "noscript"} {
		re := regexp.MustCompile(`(?is)<` + tag + `[^>]*>.*?</` + tag + `>`)
		html = re.ReplaceAllString(html, "")
	}

	// Block-level closers become newlines so rows and list items stay
	// separated after tag stripping.
	for _, tag := range []string{"</tr>", "</p>", "</li>", "</div>", "</h1>", "</h2>", "</h3>", "<br>", "<br/>", "<br />"} {
		html = strings.ReplaceAll(html, tag, tag+"\n")
	}

	html = tagRe.ReplaceAllString(html, " ")

	// Decode common HTML entities.
	r := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	)
	html = r.Replace(html)

	html = spaceRe.ReplaceAllString(html, " ")
	html = nlRe.ReplaceAllString(html, "\n\n")
	html = strings.TrimSpace(html)

	if len(html) > maxContentChars {
		// Cut on a rune boundary; Sinhala and Tamil pages are multi-byte
		// throughout and a split rune corrupts the prompt tail.
		cut := maxContentChars
		for cut > 0 && !utf8.RuneStart(html[cut]) {
			cut--
		}
		html = html[:cut]
	}

	return html
}

// cleanJSON strips markdown code fences and leading/trailing prose from a
// model response, leaving the JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
