package bot

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"mining_webapp/internal/domain"
	"mining_webapp/internal/logger"
	"mining_webapp/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const refPrefix = "ref_"

const (
	// PollTimeout is how long Telegram may hold one getUpdates call open.
	PollTimeout = 60 * time.Second
	pollSlack   = 10 * time.Second
)

// NewAPI returns the client for the update loop. Its HTTP timeout outlives a full long poll,
// so it must not be shared with the short-timeout client used for membership checks.
func NewAPI(token, endpoint string) (*tgbotapi.BotAPI, error) {
	return tgbotapi.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: PollTimeout + pollSlack})
}

// pollTimeout keeps the long poll inside the HTTP client's own timeout.
func pollTimeout(api *tgbotapi.BotAPI) time.Duration {
	hc, ok := api.Client.(*http.Client)
	if !ok || hc.Timeout == 0 {
		return PollTimeout
	}
	return max(time.Second, min(PollTimeout, hc.Timeout-pollSlack))
}

// Registrar creates or returns the user behind a /start.
type Registrar interface {
	Register(ctx context.Context, r service.Registration) (*domain.User, bool, error)
}

// Sender is the part of the Bot API used for replies.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot is the identity issuer: /start registers the user and replies with a personal
// Mini App link carrying the auth key.
type Bot struct {
	api         *tgbotapi.BotAPI
	sender      Sender
	registrar   Registrar
	webAppURL   string
	botUsername string
	poll        time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
	log         *slog.Logger
}

func New(api *tgbotapi.BotAPI, registrar Registrar, webAppURL, botUsername string) *Bot {
	b := newBot(api, registrar, webAppURL, botUsername)
	b.poll = pollTimeout(api)
	b.log.Info("bot authorized", "username", api.Self.UserName, "poll_timeout", b.poll)
	return b
}

func newBot(sender Sender, registrar Registrar, webAppURL, botUsername string) *Bot {
	b := &Bot{
		sender:      sender,
		registrar:   registrar,
		webAppURL:   webAppURL,
		botUsername: botUsername,
		poll:        PollTimeout,
		stopCh:      make(chan struct{}),
		log:         logger.With("component", "bot"),
	}
	if api, ok := sender.(*tgbotapi.BotAPI); ok {
		b.api = api
	}
	return b
}

// Start blocks on the long-polling update loop until Stop.
func (b *Bot) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = int(b.poll / time.Second)

	updates := b.api.GetUpdatesChan(u)
	b.log.Info("starting bot update loop")

	for {
		select {
		case <-b.stopCh:
			b.log.Info("stopping bot update loop")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			msg := update.Message
			if msg == nil || msg.From == nil || !msg.IsCommand() || msg.Command() != "start" {
				continue
			}

			b.wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer b.wg.Done()
				b.handleStart(msg)
			}(msg)
		}
	}
}

// Stop gracefully stops the bot
func (b *Bot) Stop() {
	b.stopOnce.Do(func() {
		b.log.Info("stopping bot...")
		close(b.stopCh)
		if b.api != nil {
			b.api.StopReceivingUpdates()
		}
	})

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.log.Info("bot stopped gracefully")
	case <-time.After(10 * time.Second):
		b.log.Warn("bot shutdown timeout, some handlers may not have completed")
	}
}

func (b *Bot) handleStart(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	u, created, err := b.registrar.Register(ctx, service.Registration{
		ID:         msg.From.ID,
		FirstName:  msg.From.FirstName,
		LastName:   msg.From.LastName,
		Username:   msg.From.UserName,
		ReferrerID: ParseStartPayload(msg.CommandArguments()),
	})
	if err != nil {
		b.log.Error("registration failed", "user_id", msg.From.ID, "error", err)
		b.reply(tgbotapi.NewMessage(msg.Chat.ID, "❌ Something went wrong. Please try again later."))
		return
	}
	if created {
		b.log.Info("user registered", "user_id", u.ID, "referred_by", u.ReferredBy)
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, welcomeText(u.FirstName, created))
	reply.ReplyMarkup = b.keyboard(u)
	b.reply(reply)
}

func (b *Bot) reply(c tgbotapi.Chattable) {
	if _, err := b.sender.Send(c); err != nil {
		b.log.Error("error sending message", "error", err)
	}
}

func welcomeText(name string, created bool) string {
	if created {
		return fmt.Sprintf("🎮 Welcome to DRX Mining, %s!\n\n⛏️ Start mining DRX\n💎 Complete missions for rewards\n👥 Invite friends to earn more!", name)
	}
	return fmt.Sprintf("🎮 Welcome back, %s!\n\n⛏️ Continue your DRX mining journey!", name)
}

func (b *Bot) keyboard(u *domain.User) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("🎮 Open DRX Mining", LaunchURL(b.webAppURL, u))),
	}
	if b.botUsername != "" {
		invite := fmt.Sprintf("🎮 Join DRX Mining and start earning!\nhttps://t.me/%s?start=%s%d", b.botUsername, refPrefix, u.ID)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonSwitch("👥 Invite Friends", invite)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// ParseStartPayload returns the referrer id from a "ref_<id>" start parameter, or 0.
func ParseStartPayload(arg string) int64 {
	arg = strings.TrimSpace(arg)
	if !strings.HasPrefix(arg, refPrefix) {
		return 0
	}
	id, err := strconv.ParseInt(arg[len(refPrefix):], 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}

// LaunchURL builds the personal Mini App link: id and authKey, plus ref and refauth for
// referred users.
func LaunchURL(base string, u *domain.User) string {
	q := url.Values{}
	q.Set("id", strconv.FormatInt(u.ID, 10))
	q.Set("authKey", u.AuthKey)
	if u.HasReferrer() {
		q.Set("ref", strconv.FormatInt(u.ReferredBy, 10))
		q.Set("refauth", u.RefAuthUsed)
	}

	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + q.Encode()
}
