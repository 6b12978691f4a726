package rest

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusFail    = "fail"
)

const userLocalsKey = "user"

// Response is the envelope of every reply.
type Response struct {
	Status        string                 `json:"status"`
	Msg           string                 `json:"msg"`
	Data          map[string]interface{} `json:"data,omitempty"`
	InvalidFields []string               `json:"invalid_fields,omitempty"`
}

func RequestLog(ctx *fiber.Ctx) *logrus.Entry {
	return logrus.
		WithField("remote_addr", ctx.Context().RemoteAddr()).
		WithField("path", ctx.Path()).
		WithField("z_referer", string(ctx.Request().Header.Peek("Referer"))).
		WithField("z_user_agent", string(ctx.Request().Header.Peek("User-Agent"))).
		WithField("z_x_forwared_for", string(ctx.Request().Header.Peek("X-Forwarded-For")))
}

func ErrorHandler(ctx *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return ctx.
			Status(fe.Code).
			JSON(&Response{Status: errorStatus(fe.Code), Msg: fe.Message})
	}
	RequestLog(ctx).WithError(err).Errorln("Internal server error.")
	// keep internal server errors private. reply with generic error message.
	return ctx.
		Status(fiber.StatusInternalServerError).
		JSON(&Response{Status: StatusError, Msg: fiber.ErrInternalServerError.Message})
}

func errorStatus(code int) string {
	switch code {
	case fiber.StatusMethodNotAllowed, fiber.StatusNotFound:
		return StatusFail
	default:
		return StatusError
	}
}

func NotFoundHandler(ctx *fiber.Ctx) error {
	return fiber.NewError(fiber.StatusNotFound)
}

func MethodNotAllowedHandler(ctx *fiber.Ctx) error {
	return fiber.NewError(fiber.StatusMethodNotAllowed, "Invalid request method")
}

func combineHandlers(handlers ...fiber.Handler) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		for _, handler := range handlers {
			err := handler(ctx)
			if err != nil {
				return err
			}
		}
		return nil
	}
}
