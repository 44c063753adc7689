package telegram_bot

import (
	"fmt"
	"html"
	"strings"
	"time"

	"golang-market-news-bot/internal/models"
	"golang-market-news-bot/internal/utils"
)

// FormatDigest renders a digest as Telegram HTML within the message limit.
func FormatDigest(d *models.NewsDigest, now time.Time) string {
	return utils.FitBlocks(digestBlocks(d, now), maxMessageLength)
}

// digestBlocks renders each section as a self-contained HTML block. Plain
// text is capped before escaping so no block needs cutting later.
func digestBlocks(d *models.NewsDigest, now time.Time) []string {
	updated := d.GeneratedAt
	if updated.IsZero() {
		updated = now
	}
	blocks := []string{fmt.Sprintf("<b>%s</b>\n<i>Updated: %s</i>",
		html.EscapeString(utils.TruncateTitle(d.Title, maxTitleLength)), utils.PrettyDateTime(updated))}

	if d.Empty() {
		return append(blocks, "No news articles available at this time.")
	}

	if a := d.Analysis; a != nil {
		if a.Summary != "" {
			blocks = append(blocks, escapeCapped(a.Summary, maxSectionLength))
		}
		if a.Insights != "" {
			blocks = append(blocks, "💡 <b>Key Market Insights:</b>\n"+escapeCapped(a.Insights, maxSectionLength))
		}
		if len(a.TrendingTopics) > 0 {
			blocks = append(blocks, "🔥 <b>Trending Topics:</b> "+escapeCapped(strings.Join(a.TrendingTopics, ", "), maxTitleLength))
		}
	}

	blocks = append(blocks, "📰 <b>Latest Articles:</b>")
	for i, item := range d.Items {
		blocks = append(blocks, formatItem(i+1, item, now))
	}
	return blocks
}

func escapeCapped(text string, max int) string {
	return html.EscapeString(utils.TruncateTitle(text, max))
}

func formatItem(n int, item models.NewsItem, now time.Time) string {
	var sb strings.Builder

	title := html.EscapeString(utils.TruncateTitle(item.Title, maxTitleLength))
	if item.URL != "" {
		sb.WriteString(fmt.Sprintf("<b>%d.</b> <a href=\"%s\">%s</a>", n, html.EscapeString(item.URL), title))
	} else {
		sb.WriteString(fmt.Sprintf("<b>%d.</b> %s", n, title))
	}

	var meta []string
	source := item.Source
	if source == "" {
		source = utils.ExtractDomain(item.URL)
	}
	if source != "" {
		meta = append(meta, "<i>"+escapeCapped(source, maxTitleLength)+"</i>")
	}
	if item.TimeText != "" {
		meta = append(meta, escapeCapped(item.TimeText, maxTitleLength))
	} else if age := utils.RelativeAge(now, item.PublishedAt); age != "" {
		meta = append(meta, age)
	}
	if len(meta) > 0 {
		sb.WriteString("\n   " + strings.Join(meta, " | "))
	}

	if item.Summary != "" && !strings.EqualFold(item.Summary, item.Title) {
		sb.WriteString("\n   " + escapeCapped(item.Summary, maxSummaryLength))
	}
	return sb.String()
}

// FormatDailyUpdate prefixes the digest with the daily header.
func FormatDailyUpdate(header string, d *models.NewsDigest, now time.Time) string {
	blocks := append([]string{"<b>" + html.EscapeString(header) + "</b>"}, digestBlocks(d, now)...)
	return utils.FitBlocks(blocks, maxMessageLength)
}
