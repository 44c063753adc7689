package telegram_bot

import "gopkg.in/telebot.v3"

// UI elements for telegram bot
var (
	btnNewsIndia       telebot.Btn = telebot.Btn{Text: "🇮🇳 Indian Markets", Unique: "news_india"}
	btnNewsUS          telebot.Btn = telebot.Btn{Text: "🇺🇸 US Markets", Unique: "news_us"}
	btnNewsGlobal      telebot.Btn = telebot.Btn{Text: "🌍 Global Markets", Unique: "news_global"}
	btnNewsCommodities telebot.Btn = telebot.Btn{Text: "🛢️ Commodities", Unique: "news_commodities"}
	btnNewsBreaking    telebot.Btn = telebot.Btn{Text: "⚡ Breaking News", Unique: "news_breaking"}
	btnNewsAll         telebot.Btn = telebot.Btn{Text: "💡 Market Insights", Unique: "news_all"}
)

const (
	maxMessageLength = 4000
	maxTitleLength   = 200
	maxSummaryLength = 300
	maxSectionLength = 1000
)

var (
	messageStart = "Hello %s! I'm your Market Intelligence Assistant.\n" +
		"I provide meaningful market insights and breaking news to keep you ahead of the curve.\n" +
		"What would you like to know about today?"

	messageHelp = `<b>📊 Market Intelligence Assistant</b>

<b>Commands</b>
/start - Show the main menu
/news [query] - Latest market news, optionally about a topic
/news_india - Indian market news
/news_us - US market news
/news_global - Global market news
/news_commodities - Commodities news
/news_breaking - Breaking market news
/technical - Technical analysis headlines
/topicnews [topic] - News about a topic (crypto, forex, ipo, earnings...)
/subscribe - Daily market update every morning
/unsubscribe - Stop the daily update
/help - Show this message

<b>Or just ask</b>
• Sensex kitna hai abhi?
• Aaj ka market kaisa hai?
• What's happening with gold prices?
• Latest crypto news`

	messageSubscribed   = "You are now subscribed to daily market insights at %s %s.\nYou'll receive a comprehensive analysis of market trends and breaking news every morning."
	messageAlreadySub   = "You are already subscribed to daily market insights at %s %s."
	messageUnsubscribed = "You have been unsubscribed from daily market insights. Use /subscribe to turn them back on."
	messageNotSub       = "You are not subscribed to daily market insights. Use /subscribe to start."
	messageTopicUsage   = "Please specify a topic.\nExample: /topicnews crypto\nTry: commodities, crypto, forex, mergers, ipo, earnings, us, india"

	messageProcessingError = "Sorry, aapke message ko process karne mein error aa gaya hai. Please try again or use one of the specific commands like /news or /help."
	messageNoNewsCommand   = "No recent market updates found on this topic. Try being more specific or check general market news with /news."

	greetingReplies = []string{
		"Namaste %s! Market ke baare mein kya jaanna chahte ho? Use /help for available commands.",
		"Hello %s! Market updates ke liye kya poochna chahte ho?",
		"Hi %s! Aaj market ke baare mein kya jaanna hai? Try /news for latest updates.",
	}

	noResultsReplies = []string{
		"Is topic par abhi koi news nahi mil rahi hai. Please try a different question or use /news for the latest market updates.",
		"Sorry, '%s' ke baare mein koi recent updates nahi hain. Koi aur topic try karein?",
		"No recent market updates found on this topic. Try being more specific or check general market news with /news.",
	}
)

func mainMenu() *telebot.ReplyMarkup {
	menu := &telebot.ReplyMarkup{}
	menu.Inline(
		menu.Row(btnNewsIndia, btnNewsUS),
		menu.Row(btnNewsGlobal, btnNewsCommodities),
		menu.Row(btnNewsBreaking, btnNewsAll),
	)
	return menu
}
