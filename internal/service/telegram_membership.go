package service

import (
	"context"
	"strconv"
	"strings"

	"mining_webapp/internal/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

// ChatMemberGetter is the part of *tgbotapi.BotAPI used for membership checks.
type ChatMemberGetter interface {
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
}

// TelegramMembership checks chat membership through the Bot API. Calls are throttled
// client-side and bounded by the bot's HTTP client timeout; every failure means "not a member".
type TelegramMembership struct {
	bot     ChatMemberGetter
	limiter *rate.Limiter
}

func NewTelegramMembership(bot ChatMemberGetter, limiter *rate.Limiter) *TelegramMembership {
	return &TelegramMembership{bot: bot, limiter: limiter}
}

// Status returns the raw member status, or "none" when it cannot be determined.
func (m *TelegramMembership) Status(ctx context.Context, userID int64, chatID string) string {
	if m == nil || m.bot == nil || chatID == "" {
		return "none"
	}
	if err := m.limiter.Wait(ctx); err != nil {
		MembershipChecks.WithLabelValues("throttled").Inc()
		return "none"
	}

	cfg := tgbotapi.GetChatMemberConfig{ChatConfigWithUser: tgbotapi.ChatConfigWithUser{UserID: userID}}
	if id, err := strconv.ParseInt(chatID, 10, 64); err == nil {
		cfg.ChatID = id
	} else {
		cfg.SuperGroupUsername = "@" + strings.TrimPrefix(chatID, "@")
	}

	type result struct {
		member tgbotapi.ChatMember
		err    error
	}
	ch := make(chan result, 1)
	go func() {
		member, err := m.bot.GetChatMember(cfg)
		ch <- result{member, err}
	}()

	select {
	case <-ctx.Done():
		MembershipChecks.WithLabelValues("timeout").Inc()
		return "none"
	case r := <-ch:
		if r.err != nil {
			logger.Warn("getChatMember failed", "chat", chatID, "user_id", userID, "error", r.err)
			MembershipChecks.WithLabelValues("error").Inc()
			return "none"
		}
		MembershipChecks.WithLabelValues(r.member.Status).Inc()
		return r.member.Status
	}
}

func (m *TelegramMembership) IsMember(ctx context.Context, userID int64, chatID string) bool {
	switch m.Status(ctx, userID, chatID) {
	case "member", "administrator", "creator":
		return true
	}
	return false
}
