package rest

import (
	"fmt"

	"github.com/djportal/accounts"
	"github.com/gofiber/fiber/v2"
)

type SessionController struct {
	Profiles accounts.ProfileStore
	Images   accounts.ImageStore
}

func (c *SessionController) InstallTo(requestAuthorizer fiber.Handler, router fiber.Router) {
	router.Get("/session", c.sessionHandler(requestAuthorizer))
}

// sessionHandler answers anonymous callers with a soft failure instead of 401.
func (c *SessionController) sessionHandler(requestAuthorizer fiber.Handler) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if ctx.Get(fiber.HeaderAuthorization) == "" {
			return ctx.JSON(&Response{
				Status: StatusFail,
				Msg:    "Invalid credentials",
				Data:   map[string]interface{}{"isAuthenticated": false},
			})
		}
		if err := requestAuthorizer(ctx); err != nil {
			return err
		}
		return c.serveCurrentSession(ctx)
	}
}

func (c *SessionController) serveCurrentSession(ctx *fiber.Ctx) error {
	user, ok := ctx.Locals(userLocalsKey).(accounts.User)
	if !ok {
		return errUnauthenticated
	}
	p, err := c.Profiles.ByUserId(ctx.Context(), user.Id)
	if err != nil {
		return fmt.Errorf("get profile by user id: %w", err)
	}

	return ctx.JSON(&Response{
		Status: StatusSuccess,
		Msg:    "Login successful",
		Data: map[string]interface{}{
			"isAuthenticated": true,
			"profile": map[string]interface{}{
				"id":            user.Id,
				"username":      user.Username,
				"email":         user.Email,
				"first_name":    p.FirstName,
				"last_name":     p.LastName,
				"profile_image": imageURL(c.Images, p.ProfileImage),
				"thumbnail":     imageURL(c.Images, p.Thumbnail),
				"cover":         imageURL(c.Images, p.Cover),
			},
			"theme_mode":   p.ThemeMode,
			"last_updated": accounts.FormatTimestamp(p.LastUpdated),
		},
	})
}
