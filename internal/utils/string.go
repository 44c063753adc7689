package utils

import (
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TruncateTitle cuts title to max runes and appends an ellipsis.
func TruncateTitle(title string, max int) string {
	if utf8.RuneCountInString(title) <= max {
		return title
	}
	runes := []rune(title)
	return string(runes[:max]) + "..."
}

// FitBlocks joins blocks with blank lines and keeps the result under max
// bytes by dropping whole trailing blocks, marking the cut with "\n...".
// Blocks are never split, so markup inside each one stays balanced.
func FitBlocks(blocks []string, max int) string {
	const sep, more = "\n\n", "\n..."

	kept := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b = strings.TrimSpace(b); b != "" {
			kept = append(kept, b)
		}
	}
	if all := strings.Join(kept, sep); len(all) <= max {
		return all
	}

	var sb strings.Builder
	for _, b := range kept {
		n := len(b)
		if sb.Len() > 0 {
			n += len(sep)
		}
		if sb.Len()+n+len(more) > max {
			break
		}
		if sb.Len() > 0 {
			sb.WriteString(sep)
		}
		sb.WriteString(b)
	}
	if sb.Len() == 0 {
		return "..."
	}
	return sb.String() + more
}

func ExtractDomain(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}

	host := u.Hostname()
	parts := strings.Split(host, ".")

	// economictimes.indiatimes.com -> indiatimes, bbc.co.uk -> bbc
	if len(parts) >= 3 && (parts[len(parts)-2] == "co" || parts[len(parts)-2] == "com") {
		return parts[len(parts)-3]
	} else if len(parts) >= 2 {
		return parts[len(parts)-2]
	}

	return host
}

// ResolveURL makes href absolute against base.
func ResolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return ref.String()
	}
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	return b.ResolveReference(ref).String()
}

func CapitalizeSentence(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}

	runes := []rune(input)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// CollapseSpaces squashes runs of whitespace into single spaces.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
