package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"

	"adcraft/internal/workflow"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// uploadToCloudinaryWithID uploads a file under a controlled public ID
// so a re-upload for the same session replaces the previous asset.
func (app *application) uploadToCloudinaryWithID(ctx context.Context, file io.Reader, publicID string) (string, error) {
	resp, err := app.cld.Upload.Upload(
		ctx,
		file,
		uploader.UploadParams{
			Folder:    "adcraft",
			PublicID:  publicID,
			Overwrite: api.Bool(true),
		},
	)
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	return resp.SecureURL, nil
}

// cleanupSessionAssets destroys the session's uploaded imagery once
// its state is discarded, so nothing outlives the session. Generated
// imagery is inline data and has nothing to destroy.
func (app *application) cleanupSessionAssets(brand workflow.BrandProfile) {
	if app.cld == nil {
		return
	}
	for _, imageURL := range []string{brand.LogoImage, brand.ProductImage} {
		if !strings.Contains(imageURL, "cloudinary.com") {
			continue
		}
		go func(imageURL string) {
			if err := app.deleteFromCloudinary(imageURL); err != nil {
				app.logger.Warnw("session asset cleanup failed", "url", imageURL, "error", err.Error())
			}
		}(imageURL)
	}
}

func (app *application) deleteFromCloudinary(imageURL string) error {
	publicID, err := extractPublicIDFromURL(imageURL)
	if err != nil {
		return fmt.Errorf("failed to extract public ID: %w", err)
	}

	_, err = app.cld.Upload.Destroy(context.Background(), uploader.DestroyParams{
		PublicID: publicID,
	})
	if err != nil {
		return fmt.Errorf("failed to delete image from Cloudinary: %w", err)
	}

	return nil
}

var versionSegment = regexp.MustCompile(`^v[0-9]+$`)

// extractPublicIDFromURL recovers the public ID from a Cloudinary
// delivery URL.
func extractPublicIDFromURL(imageURL string) (string, error) {
	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}

	pathParts := strings.Split(parsedURL.Path, "/")
	for i, part := range pathParts {
		if part == "upload" && i+1 < len(pathParts) {
			rest := pathParts[i+1:]
			// Delivery URLs may carry a version segment after /upload/;
			// it is not part of the public ID.
			if len(rest) > 1 && versionSegment.MatchString(rest[0]) {
				rest = rest[1:]
			}
			id := strings.Join(rest, "/")
			if dot := strings.LastIndex(id, "."); dot > 0 {
				id = id[:dot]
			}
			return id, nil
		}
	}

	return "", errors.New("failed to extract public ID from URL")
}
