// Package storage uploads candidate resumes to external object storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
)

// ErrUnsupportedResumeType indicates the uploaded file is not a resume format.
var ErrUnsupportedResumeType = errors.New("unsupported resume file type")

var allowedResumeTypes = map[string]struct{}{
	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"text/plain": {},
}

// Config contains credentials for the upload backend.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// ResumeUploader validates and stores resume files, returning a secure URL.
type ResumeUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// CloudinaryUploader implements ResumeUploader against Cloudinary.
type CloudinaryUploader struct {
	client *cloudinary.Cloudinary
	folder string
	logger zerolog.Logger
}

// NewCloudinaryUploader constructs a resume uploader.
func NewCloudinaryUploader(cfg Config, logger zerolog.Logger) (*CloudinaryUploader, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials must be provided")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &CloudinaryUploader{
		client: cld,
		folder: cfg.Folder,
		logger: logger.With().Str("component", "resume_uploader").Logger(),
	}, nil
}

// Upload sniffs the file type, rejects non-resume formats, and stores the file.
func (u *CloudinaryUploader) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read resume: %w", err)
	}

	detected := mimetype.Detect(content)
	if _, ok := allowedResumeTypes[detected.String()]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedResumeType, detected.String())
	}

	params := uploader.UploadParams{
		Folder:       strings.Trim(u.folder, "/"),
		PublicID:     buildPublicID(name),
		ResourceType: "auto",
	}

	result, err := u.client.Upload.Upload(ctx, bytes.NewReader(content), params)
	if err != nil {
		return "", fmt.Errorf("failed to upload resume: %w", err)
	}

	u.logger.Info().Str("public_id", result.PublicID).Str("mime", detected.String()).Msg("resume uploaded")
	return result.SecureURL, nil
}

func buildPublicID(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, base)

	base = strings.Trim(base, "-")
	if base == "" {
		base = fmt.Sprintf("resume-%d", time.Now().Unix())
	}

	return fmt.Sprintf("%s-%d", base, time.Now().Unix())
}
