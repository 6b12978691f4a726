package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/djportal/accounts"
	"github.com/google/uuid"
)

const (
	profileImagePrefix = "profile_pics/"
	coverPrefix        = "covers/"
	thumbnailPrefix    = "thumbnails/"

	nullSentinel = "null"
)

// Upload is an attached image file.
type Upload struct {
	Filename    string
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// ImagesRequest is a multipart form. Values must carry "last_updated".
// A value of "null" for "cover" or "profile_image" removes that image.
type ImagesRequest struct {
	Values map[string]string
	Files  map[string]Upload
}

// UpdateImages uploads or removes the profile image or the cover of actor.
// Only the first applicable action is performed: an upload, removing the
// cover, removing the profile image.
func (u *Updater) UpdateImages(ctx context.Context, actor accounts.UserId, req ImagesRequest) (Result, error) {
	result, err := u.updateImages(ctx, actor, req)
	countOutcome(operationImages, outcomeOf(result, err))
	return result, err
}

func (u *Updater) updateImages(ctx context.Context, actor accounts.UserId, req ImagesRequest) (Result, error) {
	clientLastUpdated, ok := req.Values[lastUpdatedField]
	if !ok {
		return Result{}, ErrMissingData
	}

	current, err := u.Profiles.ByUserId(ctx, actor)
	if err != nil {
		return Result{}, fmt.Errorf("get profile: %w", err)
	}
	if clientLastUpdated != accounts.FormatTimestamp(current.LastUpdated) {
		return u.imagesConflict(current), nil
	}

	switch {
	case len(req.Files) > 0:
		if upload, ok := req.Files[string(accounts.FieldProfileImage)]; ok {
			return u.uploadProfileImage(ctx, actor, current, req.Values, upload)
		}
		if upload, ok := req.Files[string(accounts.FieldCover)]; ok {
			return u.uploadCover(ctx, actor, current, req.Values, upload)
		}
		return Result{}, ErrNoValidFile
	case req.Values[string(accounts.FieldCover)] == nullSentinel:
		return u.removeCover(ctx, actor, current, req.Values)
	case req.Values[string(accounts.FieldProfileImage)] == nullSentinel:
		return u.removeProfileImage(ctx, actor, current, req.Values)
	default:
		return Result{}, ErrNoValidAction
	}
}

func (u *Updater) uploadProfileImage(ctx context.Context, actor accounts.UserId, current accounts.Profile,
	values map[string]string, upload Upload) (Result, error) {
	const action = "update profile photo"

	data, err := readUpload(upload)
	if err != nil {
		return Result{}, &StorageError{Action: action, Err: err}
	}
	key := u.blobKey(profileImagePrefix, actor, upload.Filename)
	if err := u.Images.Put(ctx, key, data, upload.ContentType); err != nil {
		return Result{}, &StorageError{Action: action, Err: fmt.Errorf("store image: %w", err)}
	}
	thumbnailKey := u.storeThumbnail(ctx, actor, key, data, upload.ContentType)

	next := current
	next.ProfileImage = key
	next.Thumbnail = thumbnailKey
	updated, conflict, err := u.save(ctx, actor, current, next, action)
	if err != nil || conflict != nil {
		u.discard(ctx, actor, key, thumbnailKey)
		if conflict != nil {
			return *conflict, nil
		}
		return Result{}, err
	}
	u.discardReplaced(ctx, actor, current, updated)

	response := u.echo(values, updated)
	response[string(accounts.FieldProfileImage)] = u.url(updated.ProfileImage)
	return Result{
		Changed:     true,
		Message:     MsgPhotoUpdated,
		Data:        response,
		LastUpdated: updated.LastUpdated,
	}, nil
}

func (u *Updater) uploadCover(ctx context.Context, actor accounts.UserId, current accounts.Profile,
	values map[string]string, upload Upload) (Result, error) {
	const action = "update cover photo"

	data, err := readUpload(upload)
	if err != nil {
		return Result{}, &StorageError{Action: action, Err: err}
	}
	key := u.blobKey(coverPrefix, actor, upload.Filename)
	if err := u.Images.Put(ctx, key, data, upload.ContentType); err != nil {
		return Result{}, &StorageError{Action: action, Err: fmt.Errorf("store image: %w", err)}
	}

	next := current
	next.Cover = key
	updated, conflict, err := u.save(ctx, actor, current, next, action)
	if err != nil || conflict != nil {
		u.discard(ctx, actor, key)
		if conflict != nil {
			return *conflict, nil
		}
		return Result{}, err
	}
	u.discardReplaced(ctx, actor, current, updated)

	response := u.echo(values, updated)
	response[string(accounts.FieldCover)] = u.url(updated.Cover)
	return Result{
		Changed:     true,
		Message:     MsgCoverUpdated,
		Data:        response,
		LastUpdated: updated.LastUpdated,
	}, nil
}

func (u *Updater) removeCover(ctx context.Context, actor accounts.UserId, current accounts.Profile,
	values map[string]string) (Result, error) {
	next := current
	next.Cover = ""
	updated, conflict, err := u.save(ctx, actor, current, next, "remove cover photo")
	if err != nil {
		return Result{}, err
	}
	if conflict != nil {
		return *conflict, nil
	}
	u.discardReplaced(ctx, actor, current, updated)

	response := u.echo(values, updated)
	response[string(accounts.FieldCover)] = nil
	return Result{
		Changed:     !updated.LastUpdated.Equal(current.LastUpdated),
		Message:     MsgCoverRemoved,
		Data:        response,
		LastUpdated: updated.LastUpdated,
	}, nil
}

func (u *Updater) removeProfileImage(ctx context.Context, actor accounts.UserId, current accounts.Profile,
	values map[string]string) (Result, error) {
	next := current
	next.ProfileImage = ""
	next.Thumbnail = ""
	updated, conflict, err := u.save(ctx, actor, current, next, "remove profile photo")
	if err != nil {
		return Result{}, err
	}
	if conflict != nil {
		return *conflict, nil
	}
	u.discardReplaced(ctx, actor, current, updated)

	response := u.echo(values, updated)
	response[string(accounts.FieldProfileImage)] = nil
	return Result{
		Changed:     !updated.LastUpdated.Equal(current.LastUpdated),
		Message:     MsgPhotoRemoved,
		Data:        response,
		LastUpdated: updated.LastUpdated,
	}, nil
}

// save persists next unless nothing changed. A concurrent write is reported
// as a conflict result built from the stored profile.
func (u *Updater) save(ctx context.Context, actor accounts.UserId, current, next accounts.Profile,
	action string) (accounts.Profile, *Result, error) {
	changes := accounts.Diff(current, next, actor)
	if len(changes) == 0 {
		return current, nil, nil
	}

	updated, err := u.Profiles.Update(ctx, next, current.LastUpdated, changes)
	if errors.Is(err, accounts.ErrProfileStale) {
		u.log().WithField("user_id", actor).Infoln("Profile changed during image update, reporting conflict.")
		fresh, err := u.Profiles.ByUserId(ctx, actor)
		if err != nil {
			return accounts.Profile{}, nil, &StorageError{Action: action, Err: fmt.Errorf("get profile: %w", err)}
		}
		conflict := u.imagesConflict(fresh)
		return accounts.Profile{}, &conflict, nil
	}
	if err != nil {
		return accounts.Profile{}, nil, &StorageError{Action: action, Err: err}
	}
	u.publish(ctx, accounts.EventProfileImageUpdated, updated, changes)
	return updated, nil, nil
}

// storeThumbnail derives and stores a thumbnail of the image stored under
// key. On any failure the image itself is used as the thumbnail.
func (u *Updater) storeThumbnail(ctx context.Context, actor accounts.UserId, key string, data []byte,
	contentType string) string {
	thumbnailKey := thumbnailPrefix + ownerDir(actor) + path.Base(key)
	thumbnail, err := u.Thumbnailer.Thumbnail(data, key)
	if err == nil {
		err = u.Images.Put(ctx, thumbnailKey, thumbnail, contentType)
	}
	if err != nil {
		thumbnailFallbacks.Inc()
		u.log().
			WithError(err).
			WithField("user_id", actor).
			WithField("image", key).
			Warnln("Could not create thumbnail, using original image.")
		return key
	}
	return thumbnailKey
}

func (u *Updater) imagesConflict(current accounts.Profile) Result {
	return Result{
		Conflict: true,
		Message:  MsgConflict,
		Data: map[string]interface{}{
			lastUpdatedField:                   accounts.FormatTimestamp(current.LastUpdated),
			string(accounts.FieldProfileImage): u.url(current.ProfileImage),
			string(accounts.FieldCover):        u.url(current.Cover),
		},
		LastUpdated: current.LastUpdated,
	}
}

func (u *Updater) echo(values map[string]string, updated accounts.Profile) map[string]interface{} {
	data := make(map[string]interface{}, len(values)+1)
	for name, value := range values {
		data[name] = value
	}
	data[lastUpdatedField] = accounts.FormatTimestamp(updated.LastUpdated)
	return data
}

// discardReplaced deletes the images of current that updated no longer
// references.
func (u *Updater) discardReplaced(ctx context.Context, actor accounts.UserId, current, updated accounts.Profile) {
	kept := map[string]bool{updated.ProfileImage: true, updated.Thumbnail: true, updated.Cover: true}
	var replaced []string
	for _, key := range []string{current.ProfileImage, current.Thumbnail, current.Cover} {
		if !kept[key] {
			replaced = append(replaced, key)
		}
	}
	u.discard(ctx, actor, replaced...)
}

// discard deletes blobs uploaded by actor. Keys outside the actor's own
// directories, such as the shared default cover, are never deleted.
// Failures are only logged.
func (u *Updater) discard(ctx context.Context, actor accounts.UserId, keys ...string) {
	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		if !ownsBlob(actor, key) || seen[key] {
			continue
		}
		seen[key] = true
		if err := u.Images.Delete(ctx, key); err != nil {
			u.log().WithError(err).WithField("image", key).Warnln("Could not delete image.")
		}
	}
}

func (u *Updater) url(key string) interface{} {
	if key == "" {
		return nil
	}
	return u.Images.URL(key)
}

// blobKey names a new blob as <prefix><user id>/<name><ext>.
func (u *Updater) blobKey(prefix string, actor accounts.UserId, filename string) string {
	name := uuid.NewString()
	if u.NewName != nil {
		name = u.NewName()
	}
	return prefix + ownerDir(actor) + name + strings.ToLower(path.Ext(filename))
}

func ownerDir(actor accounts.UserId) string {
	return strconv.FormatInt(int64(actor), 10) + "/"
}

// ownsBlob reports whether key names a blob stored in one of actor's image
// directories.
func ownsBlob(actor accounts.UserId, key string) bool {
	for _, prefix := range []string{profileImagePrefix, coverPrefix, thumbnailPrefix} {
		name, ok := strings.CutPrefix(key, prefix+ownerDir(actor))
		if ok && name != "" && name != "." && name != ".." && !strings.Contains(name, "/") {
			return true
		}
	}
	return false
}

func readUpload(upload Upload) ([]byte, error) {
	file, err := upload.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("empty file")
	}
	return data, nil
}
