package product

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/mlopezr/catalog-api/internal/api"
)

// maxUploadSize caps product images at 5 MB.
const maxUploadSize = 5 << 20

// UploadHandler accepts a multipart product payload with an optional image
// file, stores the image as a public blob, and then runs the regular
// create/update path with the blob URL injected as imageUrl.
//
// The multipart form carries the image under the "image" field and the
// product payload as JSON under the "data" field.
type UploadHandler struct {
	logger     *slog.Logger
	handler    *Handler
	bucket     *storage.BucketHandle
	bucketName string
}

func NewUploadHandler(handler *Handler, bucket *storage.BucketHandle, bucketName string, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{
		logger:     logger,
		handler:    handler,
		bucket:     bucket,
		bucketName: bucketName,
	}
}

// Create handles POST /products/upload (admin only).
func (u *UploadHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("UploadHandler").Start(r.Context(), "Create")
	defer span.End()
	r = r.WithContext(ctx)

	var req CreateProductRequest
	imageURL, ok := u.processForm(w, r, &req)
	if !ok {
		return
	}
	if imageURL != "" {
		req.ImageURL = imageURL
	}

	u.handler.createFromRequest(w, r, req)
}

// Update handles PUT /products/upload/{id} (admin only).
func (u *UploadHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("UploadHandler").Start(r.Context(), "Update")
	defer span.End()
	r = r.WithContext(ctx)

	var req UpdateProductRequest
	imageURL, ok := u.processForm(w, r, &req)
	if !ok {
		return
	}
	if imageURL != "" {
		req.ImageURL = &imageURL
	}

	u.handler.updateFromRequest(w, r, req)
}

// processForm parses the multipart form, decodes the JSON payload into dst
// and uploads the image file when one is attached. It writes the error
// response itself and returns ok=false when the request cannot proceed.
func (u *UploadHandler) processForm(w http.ResponseWriter, r *http.Request, dst any) (imageURL string, ok bool) {
	ctx := r.Context()
	l := u.logger.With(slog.String("method", "processForm"))

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1<<20)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		l.WarnContext(ctx, "Failed to parse multipart form", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid multipart form or file too large")
		return "", false
	}

	if data := r.FormValue("data"); data != "" {
		if err := json.Unmarshal([]byte(data), dst); err != nil {
			l.WarnContext(ctx, "Invalid product payload in form", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusBadRequest, "Form field 'data' must contain a valid JSON product payload")
			return "", false
		}
	}

	file, header, err := r.FormFile("image")
	if err == http.ErrMissingFile {
		// No file attached; the regular payload path handles the rest.
		return "", true
	}
	if err != nil {
		l.WarnContext(ctx, "Failed to read image file", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Could not read image file")
		return "", false
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Image file must not exceed 5MB")
		return "", false
	}

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Only image files are allowed")
		return "", false
	}

	if u.bucket == nil {
		api.ErrorResponse(w, r, http.StatusServiceUnavailable, "Storage is not configured; use the JSON endpoint with an external imageUrl")
		return "", false
	}

	url, err := u.uploadImage(ctx, file, header.Filename, contentType)
	if err != nil {
		l.ErrorContext(ctx, "Image upload failed", slog.Any("error", err))
		api.ServerErrorResponse(w, r, err)
		return "", false
	}

	l.InfoContext(ctx, "Image uploaded", slog.String("url", url))
	return url, true
}

func (u *UploadHandler) uploadImage(ctx context.Context, file multipart.File, filename, contentType string) (string, error) {
	objectName := fmt.Sprintf("products/%s_%s", uuid.NewString(), filename)

	writer := u.bucket.Object(objectName).NewWriter(ctx)
	writer.ContentType = contentType
	writer.PredefinedACL = "publicRead"

	if _, err := io.Copy(writer, file); err != nil {
		writer.Close()
		return "", fmt.Errorf("failed to write image to storage: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize image upload: %w", err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", u.bucketName, objectName), nil
}
