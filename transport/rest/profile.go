package rest

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"

	"github.com/djportal/accounts"
	"github.com/djportal/accounts/profile"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

type ProfileController struct {
	Updater  *profile.Updater
	Profiles accounts.ProfileStore
	Changes  accounts.ChangeStore
	Images   accounts.ImageStore
}

func (c *ProfileController) InstallTo(requestAuthorizer fiber.Handler, router fiber.Router) {
	canEdit := combineHandlers(requestAuthorizer, requirePermissions(accounts.PermissionProfileEdit))
	router.Post("/update_profile", combineHandlers(canEdit, c.serveUpdateProfile))
	router.All("/update_profile", MethodNotAllowedHandler)
	router.Post("/update_profile_image", combineHandlers(canEdit, c.serveUpdateProfileImage))
	router.All("/update_profile_image", MethodNotAllowedHandler)

	router.Get("/profile/history", combineHandlers(requestAuthorizer,
		requirePermissions(accounts.PermissionHistoryView), c.serveHistory))
	router.Get("/profile/:user_id", c.servePublicProfile)
}

func (c *ProfileController) serveUpdateProfile(ctx *fiber.Ctx) error {
	user := ctx.Locals(userLocalsKey).(accounts.User)

	req := profile.FieldsRequest{}
	if body := ctx.Body(); len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			RequestLog(ctx).WithError(err).Infoln("Invalid body.")
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
	}

	result, err := c.Updater.UpdateFields(ctx.Context(), user.Id, req)
	if err != nil {
		return updateError(ctx, err)
	}
	return sendResult(ctx, result)
}

func (c *ProfileController) serveUpdateProfileImage(ctx *fiber.Ctx) error {
	user := ctx.Locals(userLocalsKey).(accounts.User)

	req := profile.ImagesRequest{
		Values: map[string]string{},
		Files:  map[string]profile.Upload{},
	}
	form, err := ctx.MultipartForm()
	if err != nil {
		// treated as an empty form
		RequestLog(ctx).WithError(err).Debugln("No multipart form.")
	} else {
		for name, values := range form.Value {
			if len(values) > 0 {
				req.Values[name] = values[0]
			}
		}
		for name, headers := range form.File {
			if len(headers) > 0 {
				req.Files[name] = upload(headers[0])
			}
		}
	}

	result, err := c.Updater.UpdateImages(ctx.Context(), user.Id, req)
	if err != nil {
		return updateError(ctx, err)
	}
	return sendResult(ctx, result)
}

func upload(header *multipart.FileHeader) profile.Upload {
	return profile.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get(fiber.HeaderContentType),
		Open: func() (io.ReadCloser, error) {
			return header.Open()
		},
	}
}

func updateError(ctx *fiber.Ctx, err error) error {
	var storageErr *profile.StorageError
	switch {
	case errors.Is(err, profile.ErrMissingData),
		errors.Is(err, profile.ErrNoValidAction),
		errors.Is(err, profile.ErrNoValidFile):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, accounts.ErrProfileNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Profile not found")
	case errors.As(err, &storageErr):
		RequestLog(ctx).WithError(storageErr.Err).Errorln("Image storage failed.")
		return fiber.NewError(fiber.StatusInternalServerError, storageErr.Error())
	default:
		return err
	}
}

func sendResult(ctx *fiber.Ctx, result profile.Result) error {
	if result.Conflict {
		return ctx.Status(fiber.StatusConflict).JSON(&Response{
			Status: StatusError,
			Msg:    result.Message,
			Data:   result.Data,
		})
	}
	return ctx.JSON(&Response{
		Status:        StatusSuccess,
		Msg:           result.Message,
		Data:          result.Data,
		InvalidFields: result.InvalidFields,
	})
}

func (c *ProfileController) servePublicProfile(ctx *fiber.Ctx) error {
	userId, err := strconv.ParseInt(ctx.Params("user_id"), 10, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid user id")
	}

	p, err := c.Profiles.ByUserId(ctx.Context(), accounts.UserId(userId))
	if err != nil {
		if errors.Is(err, accounts.ErrProfileNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Profile not found")
		}
		return fmt.Errorf("get profile by user id: %w", err)
	}
	return ctx.JSON(&Response{
		Status: StatusSuccess,
		Msg:    "Profile",
		Data: map[string]interface{}{
			"user_id":       p.UserId,
			"first_name":    p.FirstName,
			"last_name":     p.LastName,
			"profile_image": imageURL(c.Images, p.ProfileImage),
			"thumbnail":     imageURL(c.Images, p.Thumbnail),
			"cover":         imageURL(c.Images, p.Cover),
		},
	})
}

func (c *ProfileController) serveHistory(ctx *fiber.Ctx) error {
	user := ctx.Locals(userLocalsKey).(accounts.User)

	beforeId, err := strconv.ParseInt(ctx.Query("before_id", "-1"), 10, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid before_id")
	}
	limit, err := strconv.Atoi(ctx.Query("limit", strconv.Itoa(defaultHistoryLimit)))
	if err != nil || limit < 1 || limit > maxHistoryLimit {
		return fiber.NewError(fiber.StatusBadRequest, "invalid limit")
	}

	changes, err := c.Changes.ByUserId(ctx.Context(), user.Id, beforeId, int32(limit))
	if err != nil {
		return fmt.Errorf("get changes by user id: %w", err)
	}

	type Change struct {
		Id        int64   `json:"id"`
		CreatedAt string  `json:"created_at"`
		ChangedBy int64   `json:"changed_by"`
		Field     string  `json:"field"`
		OldValue  *string `json:"old_value"`
		NewValue  *string `json:"new_value"`
	}
	mapped := make([]Change, len(changes))
	for i, change := range changes {
		mapped[i] = Change{
			Id:        change.Id,
			CreatedAt: accounts.FormatTimestamp(change.CreatedAt),
			ChangedBy: int64(change.ChangedBy),
			Field:     string(change.Field),
			OldValue:  change.OldValue,
			NewValue:  change.NewValue,
		}
	}
	return ctx.JSON(&Response{
		Status: StatusSuccess,
		Msg:    "Profile history",
		Data:   map[string]interface{}{"changes": mapped},
	})
}

func imageURL(images accounts.ImageStore, key string) interface{} {
	if key == "" {
		return nil
	}
	return images.URL(key)
}
