package application

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"telegram-ecommerce-bot/internal/config"
	"telegram-ecommerce-bot/internal/domain"
	"telegram-ecommerce-bot/internal/domain/model"
	"telegram-ecommerce-bot/internal/domain/ports/adapter"
	"telegram-ecommerce-bot/internal/infra/i18n"
	"telegram-ecommerce-bot/internal/infra/logging"
	"telegram-ecommerce-bot/internal/infra/metrics"
	red "telegram-ecommerce-bot/internal/infra/redis"
	"telegram-ecommerce-bot/internal/usecase"

	"github.com/rs/zerolog"
)

// BotFacade is the single entry point for inbound chat events. It runs the
// auth gate, routes commands and callbacks to the use cases and turns any
// failure into one generic reply.
type BotFacade struct {
	Sessions SessionReaderIface
	Account  AccountUseCaseIface
	Catalog  CatalogUseCaseIface
	Cart     CartUseCaseIface
	Engine   ConversationIface

	chat    adapter.ChatAdapter
	t       *i18n.Translator
	log     *zerolog.Logger
	timeout time.Duration
	now     func() time.Time

	limiter RateLimiter
	limits  config.RateLimitConfig
}

func NewBotFacade(
	sessions SessionReaderIface,
	account AccountUseCaseIface,
	catalog CatalogUseCaseIface,
	cart CartUseCaseIface,
	engine ConversationIface,
	chat adapter.ChatAdapter,
	translator *i18n.Translator,
	logger *zerolog.Logger,
) *BotFacade {
	return &BotFacade{
		Sessions: sessions,
		Account:  account,
		Catalog:  catalog,
		Cart:     cart,
		Engine:   engine,
		chat:     chat,
		t:        translator,
		log:      logger,
		timeout:  30 * time.Second,
		now:      time.Now,
	}
}

// WithTimeout bounds the handling of a single event.
func (f *BotFacade) WithTimeout(d time.Duration) *BotFacade {
	if d > 0 {
		f.timeout = d
	}
	return f
}

// WithRateLimiter enables per-user limits. A nil limiter disables them.
func (f *BotFacade) WithRateLimiter(l RateLimiter, limits config.RateLimitConfig) *BotFacade {
	f.limiter = l
	f.limits = limits
	return f
}

// HandleEvent processes one event end to end. The returned error has already
// been logged and reported to the user.
func (f *BotFacade) HandleEvent(ctx context.Context, ev model.Event) (err error) {
	if ev == nil {
		return nil
	}
	if logging.TraceIDFrom(ctx) == "" {
		ctx = logging.WithTraceID(ctx, logging.NewTraceID())
	}
	ctx = logging.WithTgID(ctx, ev.User())
	ctx = logging.WithEvent(ctx, ev.Kind())
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	log := logging.With(ctx, f.log)
	metrics.IncTelegramEvent(ev.Kind())

	defer func() {
		if rec := recover(); rec != nil {
			log.Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("panic while handling event")
			err = fmt.Errorf("panic: %v", rec)
			f.reportFailure(ctx, log, ev, "panic")
		}
	}()

	if !f.allow(ctx, log, ev) {
		return nil
	}

	decision, err := usecase.Authorize(ctx, ev, f.Sessions.Lookup, f.now())
	if err != nil {
		log.Error().Err(err).Msg("session lookup failed")
		f.reportFailure(ctx, log, ev, "storage")
		return err
	}
	if !decision.Allowed {
		metrics.IncAuthDenial(string(decision.Reason))
		log.Debug().Str("reason", string(decision.Reason)).Msg("event denied")
		return f.deny(ctx, ev, decision.Reason)
	}

	switch e := ev.(type) {
	case model.MessageEvent:
		err = f.handleMessage(ctx, e)
	case model.CallbackEvent:
		err = f.handleCallback(ctx, log, e)
	case model.LocationEvent:
		err = f.handleLocation(ctx, e)
	}
	if err != nil {
		log.Error().Err(err).Msg("event handling failed")
		f.reportFailure(ctx, log, ev, causeOf(err))
		return err
	}
	return nil
}

func (f *BotFacade) handleMessage(ctx context.Context, ev model.MessageEvent) error {
	if cmd, ok := commandName(ev.Text); ok {
		if fn, found := f.commandRoutes()[cmd]; found {
			metrics.IncTelegramCommand(cmd)
			return fn(ctx, ev)
		}
		metrics.IncTelegramCommand("unknown")
		return f.chat.SendMessage(ctx, ev.ChatID, f.t.T("help"))
	}

	handled, err := f.Engine.HandleText(ctx, ev)
	if err != nil || handled {
		return err
	}
	return f.chat.SendMessage(ctx, ev.ChatID, f.t.T("help"))
}

func (f *BotFacade) handleLocation(ctx context.Context, ev model.LocationEvent) error {
	handled, err := f.Engine.HandleLocation(ctx, ev)
	if err != nil || handled {
		return err
	}
	return f.chat.SendMessage(ctx, ev.ChatID, f.t.T("location_hint"))
}

func (f *BotFacade) handleCallback(ctx context.Context, log *zerolog.Logger, ev model.CallbackEvent) error {
	data := strings.TrimSpace(ev.Data)
	err := f.routeCallback(ctx, log, ev, data)

	// stop the client spinner whatever happened
	if aerr := f.chat.AnswerCallback(ctx, ev.CallbackID, "", false); aerr != nil {
		log.Debug().Err(aerr).Msg("answer callback failed")
	}
	return err
}

func (f *BotFacade) routeCallback(ctx context.Context, log *zerolog.Logger, ev model.CallbackEvent, data string) error {
	if fn, ok := f.cbRoutes()[data]; ok {
		return fn(ctx, ev, data)
	}
	for _, pr := range f.cbPrefixRoutes() {
		if arg, ok := strings.CutPrefix(data, pr.Prefix); ok {
			return pr.Fn(ctx, ev, arg)
		}
	}
	log.Warn().Str("data", data).Msg("unknown callback data")
	return nil
}

// allow applies the per-user rate limit. Limiter failures let the event through.
func (f *BotFacade) allow(ctx context.Context, log *zerolog.Logger, ev model.Event) bool {
	if f.limiter == nil || ev.User() == 0 {
		return true
	}
	limit := f.limits.Messages
	if _, ok := ev.(model.CallbackEvent); ok {
		limit = f.limits.Callbacks
	}
	if limit <= 0 {
		return true
	}

	ok, err := f.limiter.Allow(ctx, red.UserEventKey(ev.User(), ev.Kind()), limit, f.limits.Window)
	if err != nil {
		log.Warn().Err(err).Msg("rate limiter unavailable")
		return true
	}
	if ok {
		return true
	}

	metrics.IncRateLimitTriggered()
	log.Info().Msg("rate limit exceeded")
	if cb, isCb := ev.(model.CallbackEvent); isCb {
		_ = f.chat.AnswerCallback(ctx, cb.CallbackID, f.t.T("rate_limited"), true)
		return false
	}
	_ = f.chat.SendMessage(ctx, ev.Chat(), f.t.T("rate_limited"))
	return false
}

func (f *BotFacade) deny(ctx context.Context, ev model.Event, reason usecase.DenyReason) error {
	key := "auth_login_first"
	if reason == usecase.DenyExpired {
		key = "auth_session_expired"
	}
	if cb, ok := ev.(model.CallbackEvent); ok {
		return f.chat.AnswerCallback(ctx, cb.CallbackID, f.t.T(key+"_alert"), true)
	}
	return f.chat.SendMessage(ctx, ev.Chat(), f.t.T(key))
}

// reportFailure sends the generic error reply and clears the spinner for
// callbacks. Send errors are only logged.
func (f *BotFacade) reportFailure(ctx context.Context, log *zerolog.Logger, ev model.Event, cause string) {
	metrics.IncHandlerError(ev.Kind(), cause)

	// the event context may already be spent
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if cb, ok := ev.(model.CallbackEvent); ok && cause == "panic" {
		_ = f.chat.AnswerCallback(sendCtx, cb.CallbackID, "", false)
	}
	if ev.Chat() == 0 {
		return
	}
	if err := f.chat.SendMessage(sendCtx, ev.Chat(), f.t.T("error_generic")); err != nil {
		log.Warn().Err(err).Msg("failed to send error reply")
	}
}

func causeOf(err error) string {
	var ue *domain.UpstreamError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, domain.ErrMalformedResponse):
		return "malformed"
	case errors.As(err, &ue):
		return "upstream"
	default:
		return "internal"
	}
}

// commandName extracts "/cmd" from a message, dropping a "@botname" suffix.
func commandName(text string) (string, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", false
	}
	cmd, _, _ := strings.Cut(fields[0], "@")
	return cmd, true
}
