package rest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/djportal/accounts"
	"github.com/gofiber/fiber/v2"
)

const sessionLocalsKey = "session"

var errUnauthenticated = fiber.NewError(fiber.StatusUnauthorized, "User not authenticated")

type AuthController struct {
	SessionStore accounts.SessionStore
	UserStore    accounts.UserStore
}

func (c *AuthController) InstallTo(requestAuthorizer fiber.Handler, router fiber.Router) {
	router.Post("/auth/logout", combineHandlers(requestAuthorizer, c.serveLogout))
}

func (c *AuthController) serveLogout(ctx *fiber.Ctx) error {
	session, ok := ctx.Locals(sessionLocalsKey).(accounts.Session)
	if !ok {
		return errUnauthenticated
	}
	err := c.SessionStore.InvalidateByAuthToken(session.Token)
	if err != nil {
		if errors.Is(err, accounts.ErrSessionNotFound) {
			return errUnauthenticated
		}
		return fmt.Errorf("invalidate session: %w", err)
	}
	return ctx.JSON(&Response{Status: StatusSuccess, Msg: "Successfully logged out"})
}

// RequestAuthorizer resolves the bearer session and its active user into
// request locals.
func RequestAuthorizer(sessionStore accounts.SessionStore, userStore accounts.UserStore) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		auth := ctx.Get(fiber.HeaderAuthorization)
		if auth == "" {
			return errUnauthenticated
		}
		if !strings.HasPrefix(auth, "Bearer ") {
			return fiber.NewError(fiber.StatusBadRequest, "invalid auth type")
		}
		token := strings.TrimPrefix(auth, "Bearer ")

		session, err := sessionStore.AcquireAndRefresh(ctx.Context(), token, ctx.IP(),
			string(ctx.Request().Header.UserAgent()))
		if err != nil {
			if errors.Is(err, accounts.ErrSessionNotFound) {
				return errUnauthenticated
			}
			return fmt.Errorf("acquire and refresh session: %w", err)
		}
		user, err := userStore.ById(ctx.Context(), session.UserId)
		if err != nil {
			if errors.Is(err, accounts.ErrUserNotFound) {
				return errUnauthenticated
			}
			return fmt.Errorf("retrieve user by id: %w", err)
		}
		if !user.IsActive {
			RequestLog(ctx).
				WithField("user_id", user.Id).
				Infoln("Rejected inactive user.")
			return errUnauthenticated
		}

		RequestLog(ctx).
			WithField("user_id", user.Id).
			Debugln("Authorized access.")

		ctx.Locals(sessionLocalsKey, session)
		ctx.Locals(userLocalsKey, user)
		return nil
	}
}
