package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"telegram-ecommerce-bot/internal/domain"
	"telegram-ecommerce-bot/internal/domain/model"
	"telegram-ecommerce-bot/internal/domain/ports/adapter"
	"telegram-ecommerce-bot/internal/infra/i18n"
	"telegram-ecommerce-bot/internal/infra/logging"
	"telegram-ecommerce-bot/internal/infra/metrics"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// AccountUseCase handles /start, /register and /login.
type AccountUseCase struct {
	shop     adapter.ShopAPI
	sessions SessionUseCase
	chat     adapter.ChatAdapter
	t        *i18n.Translator
	log      *zerolog.Logger
	now      func() time.Time
}

func NewAccountUseCase(shop adapter.ShopAPI, sessions SessionUseCase, chat adapter.ChatAdapter, translator *i18n.Translator, logger *zerolog.Logger) *AccountUseCase {
	return &AccountUseCase{shop: shop, sessions: sessions, chat: chat, t: translator, log: logger, now: time.Now}
}

func (u *AccountUseCase) Start(ctx context.Context, chatID, userID int64) error {
	defer logging.TraceDuration(u.log, "AccountUC.Start")()

	s, err := u.sessions.GetOrCreate(ctx, userID)
	if err != nil {
		return err
	}
	if s.IsAuthenticated(u.now()) {
		return u.chat.SendMessage(ctx, chatID, u.t.T("welcome_logged_in", u.sessions.LifetimeHours()))
	}
	return u.chat.SendMessage(ctx, chatID, u.t.T("welcome_anonymous"))
}

// Register validates the three arguments locally before calling the API.
func (u *AccountUseCase) Register(ctx context.Context, chatID, userID int64, args []string) error {
	defer logging.TraceDuration(u.log, "AccountUC.Register")()

	if len(args) != 3 {
		return u.chat.SendMessage(ctx, chatID, u.t.T("register_usage"))
	}
	email, password, confirm := args[0], args[1], args[2]
	switch {
	case !emailRe.MatchString(email):
		metrics.IncAccount("register", "invalid")
		return u.chat.SendMessage(ctx, chatID, u.t.T("register_invalid_email"))
	case utf8.RuneCountInString(password) < minPasswordLen:
		metrics.IncAccount("register", "invalid")
		return u.chat.SendMessage(ctx, chatID, u.t.T("register_password_short", minPasswordLen))
	case password != confirm:
		metrics.IncAccount("register", "invalid")
		return u.chat.SendMessage(ctx, chatID, u.t.T("register_password_mismatch"))
	}

	if _, err := u.sessions.GetOrCreate(ctx, userID); err != nil {
		return err
	}

	err := u.shop.Register(ctx, email, password, confirm)
	var ue *domain.UpstreamError
	switch {
	case err == nil:
		metrics.IncAccount("register", "ok")
		return u.chat.SendMessage(ctx, chatID, u.t.T("register_success"))
	case errors.As(err, &ue):
		metrics.IncAccount("register", "rejected")
		msg := truncateRunes(ue.Flatten(), maxRegisterErrRunes)
		if msg == "" {
			msg = u.t.T("register_failed")
		}
		return u.chat.SendMessage(ctx, chatID, msg)
	default:
		metrics.IncAccount("register", "error")
		return fmt.Errorf("register: %w", err)
	}
}

func (u *AccountUseCase) Login(ctx context.Context, chatID, userID int64, args []string) error {
	defer logging.TraceDuration(u.log, "AccountUC.Login")()

	if len(args) != 2 {
		return u.chat.SendMessage(ctx, chatID, u.t.T("login_usage"))
	}

	token, err := u.shop.ObtainToken(ctx, args[0], args[1])
	var ue *domain.UpstreamError
	switch {
	case errors.As(err, &ue):
		metrics.IncAccount("login", "rejected")
		if nf := ue.NonField(); nf != "" {
			return u.chat.SendMessage(ctx, chatID, nf)
		}
		if m := ue.Message(); m != "" {
			return u.chat.SendMessage(ctx, chatID, m)
		}
		return u.chat.SendMessage(ctx, chatID, u.t.T("login_failed"))
	case err != nil:
		metrics.IncAccount("login", "error")
		return fmt.Errorf("obtain token: %w", err)
	}

	s, err := u.sessions.StoreToken(ctx, userID, token)
	if err != nil {
		return err
	}
	u.checkTokenExpiry(userID, token, s)
	metrics.IncAccount("login", "ok")
	return u.chat.SendMessage(ctx, chatID, u.t.T("login_success"))
}

// checkTokenExpiry logs when the access token itself expires before the
// local session window. The window is never shortened.
func (u *AccountUseCase) checkTokenExpiry(userID int64, token string, s *model.Session) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		u.log.Debug().Err(err).Int64("tg_id", userID).Msg("access token is not a JWT")
		return
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return
	}
	local, ok := s.ExpiresAt()
	if ok && exp.Time.Before(local) {
		u.log.Info().
			Int64("tg_id", userID).
			Time("token_exp", exp.Time).
			Time("session_exp", local).
			Msg("access token expires before the local session window")
	}
}

// CommandArgs splits a command message into its arguments.
func CommandArgs(text string) []string {
	f := strings.Fields(text)
	if len(f) <= 1 {
		return nil
	}
	return f[1:]
}
