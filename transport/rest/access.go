package rest

import (
	"github.com/djportal/accounts"
	"github.com/gofiber/fiber/v2"
)

func requirePermissions(permission accounts.PermissionName) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		user, ok := ctx.Locals(userLocalsKey).(accounts.User)
		if !ok {
			return errUnauthenticated
		}
		if user.Roles.Access(permission) != accounts.AccessAllowed {
			return fiber.NewError(fiber.StatusForbidden, "Permission denied")
		}
		return nil
	}
}
