package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"math"
	"net/http"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"go-bookshelf-api/internal/model"
	"go-bookshelf-api/internal/storage"
	"go-bookshelf-api/internal/util"
	"go-bookshelf-api/pkg/apierror"
)

const avatarDir = "profile_photos"

type AvatarService struct {
	users   UserStore
	profile *UserService
	store   storage.Storage
	maxSize int64
	size    int
}

func NewAvatarService(users UserStore, profile *UserService, store storage.Storage, maxSize int64, size int) *AvatarService {
	if size <= 0 {
		size = 256
	}
	return &AvatarService{users: users, profile: profile, store: store, maxSize: maxSize, size: size}
}

// Upload validates and rescales an image to a JPEG no larger than the
// configured edge length, stores it and replaces the user's previous avatar.
func (s *AvatarService) Upload(ctx context.Context, userID int64, filename string, content io.ReadSeeker, size int64) (model.UserResponse, error) {
	if s.maxSize > 0 && size > s.maxSize {
		return model.UserResponse{}, apierror.Validation(map[string]string{
			"picture": fmt.Sprintf("Image file too large. Maximum size is %dMB.", s.maxSize/(1024*1024)),
		})
	}
	if ext := filepath.Ext(filename); ext != "" && !util.IsDecodableImageExtension(ext) {
		return model.UserResponse{}, apierror.Validation(map[string]string{"picture": "Unsupported image file extension."})
	}

	mimeType, err := util.DetectMIME(content)
	if err != nil {
		return model.UserResponse{}, fmt.Errorf("detect avatar type: %w", err)
	}
	if !util.IsDecodableImageMIME(mimeType) {
		return model.UserResponse{}, apierror.Validation(map[string]string{
			"picture": "Upload a valid image. The file you uploaded was either not an image or a corrupted image.",
		})
	}

	encoded, err := s.render(content)
	if err != nil {
		return model.UserResponse{}, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return model.UserResponse{}, err
	}

	// Usernames made only of punctuation have no usable segment.
	dir, err := util.MediaSegment(user.Username)
	if err != nil {
		dir = strconv.FormatInt(user.ID, 10)
	}
	target := path.Join(avatarDir, dir, "avatar_"+uuid.NewString()[:8]+".jpg")
	if err := s.store.Save(target, bytes.NewReader(encoded)); err != nil {
		return model.UserResponse{}, fmt.Errorf("store avatar: %w", err)
	}

	previous := user.ProfilePicture
	user.ProfilePicture = target
	if _, err := s.users.UpdateProfile(ctx, user); err != nil {
		if removeErr := s.store.Remove(target); removeErr != nil {
			slog.Warn("failed to clean up avatar", "path", target, "error", removeErr)
		}
		return model.UserResponse{}, err
	}

	s.removeFile(previous)
	return s.profile.Profile(ctx, userID)
}

func (s *AvatarService) Delete(ctx context.Context, userID int64) (model.UserResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return model.UserResponse{}, err
	}

	if user.ProfilePicture != "" {
		previous := user.ProfilePicture
		user.ProfilePicture = ""
		if _, err := s.users.UpdateProfile(ctx, user); err != nil {
			return model.UserResponse{}, err
		}
		s.removeFile(previous)
	}

	return s.profile.Profile(ctx, userID)
}

func (s *AvatarService) removeFile(clientPath string) {
	if clientPath == "" || !strings.HasPrefix(clientPath, avatarDir+"/") {
		return
	}
	if err := s.store.Remove(clientPath); err != nil {
		slog.Warn("failed to remove old avatar", "path", clientPath, "error", err)
	}
}

// render decodes src, scales it to fit within s.size on its longest edge
// over a white background and encodes the result as JPEG.
func (s *AvatarService) render(src io.Reader) ([]byte, error) {
	decoded, _, err := image.Decode(src)
	if err != nil {
		return nil, apierror.New("UNSUPPORTED_TYPE", "cannot decode image", err.Error(), http.StatusUnsupportedMediaType)
	}

	bounds := decoded.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, apierror.New("UNSUPPORTED_TYPE", "invalid image dimensions", "", http.StatusUnsupportedMediaType)
	}

	maxDim := width
	if height > maxDim {
		maxDim = height
	}

	scale := float64(s.size) / float64(maxDim)
	if scale > 1 {
		scale = 1
	}

	targetWidth := max(int(math.Round(float64(width)*scale)), 1)
	targetHeight := max(int(math.Round(float64(height)*scale)), 1)

	dst := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), decoded, bounds, draw.Over, nil)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: 95}); err != nil {
		return nil, fmt.Errorf("encode avatar: %w", err)
	}
	return out.Bytes(), nil
}
