package chat

import (
	"regexp"
	"strings"

	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/bus"
	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/extract"
	"github.com/Team1-AD-project/EcoGoProject-sub000/chat/internal/strutil"
)

var (
	// Emoji variation selectors and ZWJ sit outside \p{So}, so they
	// are listed explicitly.
	emojiOnlyRe   = regexp.MustCompile(`^[\s\p{So}\x{1F000}-\x{1FAFF}\x{FE00}-\x{FE0F}\x{200D}]+$`)
	emojiPrefixRe = regexp.MustCompile(`^[\s\p{So}\x{1F000}-\x{1FAFF}\x{FE00}-\x{FE0F}\x{200D}]+`)
	bookPrefixRe  = regexp.MustCompile(`(?i).*\bbook\s+`)

	greetingPrefixRe = regexp.MustCompile(`^(你好|hi|hello|嗨|hey|howdy).*`)
	routeTokenRe     = regexp.MustCompile(`(?i)([A-Z]\d[A-Z]?)`)
	latinDigitRe     = regexp.MustCompile(`.*[a-z]\d.*`)
)

var greetings = map[string]struct{}{
	"你好": {}, "hi": {}, "hello": {}, "嗨": {}, "hey": {},
	"早上好": {}, "下午好": {}, "晚上好": {},
	"在吗": {}, "在不在": {}, "有人吗": {},
	"good morning": {}, "good afternoon": {}, "good evening": {},
	"hi there": {}, "hey there": {}, "howdy": {}, "greetings": {},
}

var resetCommands = map[string]struct{}{
	"取消": {}, "重新开始": {}, "cancel": {}, "reset": {}, "重置": {}, "back to menu": {},
}

var confirmCommands = map[string]struct{}{
	"确认": {}, "好的确认": {}, "确认修改": {}, "confirm": {}, "yes": {}, "ok": {},
}

func isGreeting(text string) bool {
	lower := strings.TrimSpace(strings.ToLower(text))
	if _, ok := greetings[lower]; ok {
		return true
	}
	return greetingPrefixRe.MatchString(lower)
}

func isResetCommand(text string) bool {
	_, ok := resetCommands[strings.TrimSpace(strings.ToLower(text))]
	return ok
}

func isConfirmCommand(text string) bool {
	_, ok := confirmCommands[strings.TrimSpace(strings.ToLower(text))]
	return ok
}

// isBookingIntent requires an explicit booking verb, an explicit
// from...to / 从...到 route, or "book" next to trip context. Vague
// mentions of 行程 or 路线 alone do not trigger.
func isBookingIntent(text string) bool {
	lower := strings.ToLower(text)
	if strutil.ContainsAny(text, "预订", "预定", "订票", "帮我订", "我要订", "我想订") {
		return true
	}
	if strutil.ContainsAny(lower, "book a trip", "book trip", "book a ride") {
		return true
	}
	if strutil.ContainsAny(lower, "i want to book", "i'd like to book") {
		return true
	}
	// The strict route tier only matches the explicit connectives, so
	// a bare "from A to B" statement is a booking ask, unless the
	// utterance asks for advice instead. The loose tier stays out of
	// classification.
	if !isRecommendationIntent(text) {
		if _, _, ok := extract.Route(text); ok {
			return true
		}
	}
	if strings.Contains(lower, "book") && strutil.ContainsAny(lower, "trip", "ride", "travel", "行程", "路线") {
		return true
	}
	return false
}

// isBusQueryIntent requires specific keyword combinations so casual
// mentions of 公交 in general questions fall through to retrieval.
func isBusQueryIntent(text string) bool {
	lower := strings.ToLower(text)
	if strutil.ContainsAny(lower, "到站时间", "到站信息", "公交到站", "公交查询", "下一班", "几分钟到") {
		return true
	}
	if strutil.ContainsAny(lower, "bus arrival", "next bus", "bus schedule") {
		return true
	}
	if strings.Contains(lower, "when is the") && strings.Contains(lower, "bus") {
		return true
	}
	if strutil.ContainsAny(lower, "check bus", "bus eta", "bus time") {
		return true
	}
	if strings.Contains(lower, "shuttle") && strutil.ContainsAny(text, "when", "time", "到站", "arrival", "next") {
		return true
	}

	// Route token plus bus context, e.g. "D2线公交" or "A1到站".
	if latinDigitRe.MatchString(lower) && strutil.ContainsAny(text, "线", "路", "到站", "公交", "bus") {
		if m := routeTokenRe.FindStringSubmatch(text); m != nil && bus.IsRouteName(m[1]) {
			return true
		}
	}

	// 查询/查看 plus 公交/巴士, but only for short messages so general
	// knowledge questions still reach retrieval.
	if strutil.ContainsAny(text, "查询", "查看", "查") && strutil.ContainsAny(text, "公交", "巴士", "shuttle") {
		return len([]rune(text)) < 30
	}

	return false
}

// isRecommendationIntent triggers only on explicit route advice asks;
// open-ended questions go to retrieval instead.
func isRecommendationIntent(text string) bool {
	lower := strings.ToLower(text)
	if strutil.ContainsAny(text, "推荐", "建议一下", "suggest", "recommend") {
		return true
	}
	if strutil.ContainsAny(text, "怎么去", "怎样去", "如何去") {
		return true
	}
	if strutil.ContainsAny(lower, "how to get", "how do i get", "best way to", "best route") {
		return true
	}
	if strutil.ContainsAny(text, "最佳路线", "最好的路线") {
		return true
	}
	if strutil.ContainsAny(lower, "travel advice", "travel tip") {
		return true
	}
	if strutil.ContainsAny(text, "出行方式", "交通方式") {
		return len([]rune(text)) < 15 && !strutil.ContainsAny(text, "哪些", "什么", "有哪", "有什么")
	}
	return false
}

var nusCampusLocations = map[string]struct{}{
	"com3": {}, "com2": {}, "pgp": {}, "pgpr": {}, "utown": {}, "clb": {},
	"yih": {}, "biz2": {}, "kr-mrt": {}, "kr mrt": {}, "it": {}, "museum": {},
	"raffles": {}, "kv": {}, "lt13": {}, "lt27": {}, "as5": {}, "s17": {},
	"uhc": {}, "uhall": {}, "krb": {}, "tcoms": {}, "nuss": {}, "nus": {},
}

func isNusCampusLocation(location string) bool {
	if location == "" {
		return false
	}
	lower := strings.ToLower(location)
	if _, ok := nusCampusLocations[lower]; ok {
		return true
	}
	return strings.Contains(lower, "nus") || strings.Contains(lower, "utown")
}
