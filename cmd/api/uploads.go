package main

import (
	"fmt"
	"mime/multipart"
	"net/http"

	"adcraft/internal/workflow"
)

const maxUploadBytes = 8 * 1024 * 1024

var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
}

// openUploadedImage parses the multipart form and validates the single
// "image" part.
func openUploadedImage(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, nil, fmt.Errorf("parse form: %w", err)
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		return nil, nil, fmt.Errorf("missing image file: %w", err)
	}

	contentType := header.Header.Get("Content-Type")
	if !allowedImageTypes[contentType] {
		file.Close()
		return nil, nil, fmt.Errorf("unsupported image type %q", contentType)
	}

	return file, header, nil
}

// uploadLogoHandler godoc
//
//	@Summary		Upload a logo
//	@Description	Accepts a multipart image, stores it on Cloudinary and attaches it to the brand profile.
//	@Tags			brand
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			image	formData	file	true	"Logo image (png, jpeg or webp, max 8MB)"
//	@Success		200		{object}	workflow.Snapshot
//	@Failure		400		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/brand/logo [post]
func (app *application) uploadLogoHandler(w http.ResponseWriter, r *http.Request) {
	app.uploadBrandImageHandler(w, r, "logo", app.engine.SetLogoImage)
}

// uploadProductImageHandler godoc
//
//	@Summary		Upload a product image
//	@Tags			brand
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			image	formData	file	true	"Product image (png, jpeg or webp, max 8MB)"
//	@Success		200		{object}	workflow.Snapshot
//	@Failure		400		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/brand/product [post]
func (app *application) uploadProductImageHandler(w http.ResponseWriter, r *http.Request) {
	app.uploadBrandImageHandler(w, r, "product", app.engine.SetProductImage)
}

func (app *application) uploadBrandImageHandler(
	w http.ResponseWriter,
	r *http.Request,
	kind string,
	attach func(*workflow.Session, string),
) {
	file, _, err := openUploadedImage(w, r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	defer file.Close()

	sess := getSessionFromContext(r)

	publicID := fmt.Sprintf("%s_%s", kind, sess.ID)
	secureURL, err := app.uploadToCloudinaryWithID(r.Context(), file, publicID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	attach(sess, secureURL)
	app.logger.Infow("brand image uploaded", "session", sess.ID, "kind", kind)

	if err := app.jsonResponse(w, http.StatusOK, sess.Snapshot()); err != nil {
		app.internalServerError(w, r, err)
	}
}
