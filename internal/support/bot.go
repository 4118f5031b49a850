package support

import "strings"

// topic is one row of the responder table: the first topic whose keyword
// list has a substring match wins, so table order is the tie-break and is
// part of the contract.
type topic struct {
	Name     string
	Keywords []string
	Response string
}

// escalationPhrases hand the conversation to a human before any topic is
// considered.
var escalationPhrases = []string{
	"talk to a human",
	"speak to a human",
	"real person",
	"human support",
	"live agent",
	"talk to someone",
	"speak to an agent",
}

var botTopics = []topic{
	{
		Name:     "upload",
		Keywords: []string{"upload", "wav", "mp3", "flac", "release", "submit"},
		Response: "To upload a track, head to your dashboard and click Upload. We accept WAV, FLAC and MP3 files up to 200MB. Your release usually goes live on all platforms within a few minutes of processing.",
	},
	{
		Name:     "earnings",
		Keywords: []string{"earnings", "royalty", "royalties", "payout", "payment", "money", "paid"},
		Response: "Earnings are calculated from streams across all platforms and update daily. Payouts run monthly once your balance passes $10. You can see a full breakdown on your dashboard.",
	},
	{
		Name:     "platforms",
		Keywords: []string{"spotify", "apple", "youtube", "deezer", "tidal", "amazon", "platform", "store"},
		Response: "We distribute to Spotify, Apple Music, YouTube Music, Amazon Music, Deezer and Tidal. Every new release goes out to the full set automatically.",
	},
	{
		Name:     "account",
		Keywords: []string{"account", "password", "login", "email", "profile", "plan", "subscription"},
		Response: "You can manage your profile, plan and login details from the account settings page. If you're locked out, use the password reset link on the login screen.",
	},
	{
		Name:     "takedown",
		Keywords: []string{"takedown", "remove", "delete", "copyright", "claim"},
		Response: "You can delete a release from your dashboard at any time; stores usually remove it within 24 hours. For copyright claims, please escalate to our support team.",
	},
}

const botWelcome = "Hi! I'm the Soundrift assistant. Ask me about uploads, earnings, platforms or your account - or say \"talk to a human\" to reach our support team."

const botFallback = "I'm not sure I caught that. I can help with uploads, earnings, platforms and account questions - how can I help? You can also ask for human support at any time."

// wantsHuman reports whether the message contains an escalation trigger.
func wantsHuman(content string) bool {
	lower := strings.ToLower(content)
	for _, phrase := range escalationPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// botReply scans the topic table in order and returns the first match, or
// the fallback when nothing matches.
func botReply(content string) string {
	lower := strings.ToLower(content)
	for _, t := range botTopics {
		for _, kw := range t.Keywords {
			if strings.Contains(lower, kw) {
				return t.Response
			}
		}
	}
	return botFallback
}
