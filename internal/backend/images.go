package backend

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"

	"github.com/epi-platform/admin-api/internal/model"
	"github.com/epi-platform/admin-api/pkg/errors"
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// Upload is one image file received from the console.
type Upload struct {
	Filename string
	Data     []byte
	AltText  string
}

// DetectImageType sniffs the leading bytes instead of trusting the declared
// content type, and rejects anything that is not an accepted image.
func DetectImageType(data []byte) (string, error) {
	n := len(data)
	if n > 512 {
		n = 512
	}
	mime := http.DetectContentType(data[:n])
	if !allowedImageTypes[mime] {
		return "", errors.BadRequest(fmt.Sprintf("invalid image type: %s", mime), nil)
	}
	return mime, nil
}

func (c *Client) UploadProductImages(ctx context.Context, id string, uploads []Upload) (*model.Product, error) {
	body, contentType, err := multipartBody(uploads, "images", func(i int) string {
		return fmt.Sprintf("altText[%d]", i)
	})
	if err != nil {
		return nil, err
	}

	status, raw, err := c.do(ctx, request{
		method:      http.MethodPost,
		endpoint:    Endpoints.ProductImages,
		path:        path(Endpoints.ProductImages, id),
		body:        body,
		contentType: contentType,
	})
	if err != nil {
		return nil, translate("product", err)
	}
	res, err := decode[model.Product](status, raw)
	if err != nil {
		return nil, translate("product", err)
	}
	return &res.Data, nil
}

func (c *Client) UploadCategoryImage(ctx context.Context, id string, upload Upload) (*model.Category, error) {
	body, contentType, err := multipartBody([]Upload{upload}, "image", func(int) string {
		return "altText"
	})
	if err != nil {
		return nil, err
	}

	status, raw, err := c.do(ctx, request{
		method:      http.MethodPut,
		endpoint:    Endpoints.CategoryImages,
		path:        path(Endpoints.CategoryImages, id),
		body:        body,
		contentType: contentType,
	})
	if err != nil {
		return nil, translate("category", err)
	}
	res, err := decode[model.Category](status, raw)
	if err != nil {
		return nil, translate("category", err)
	}
	return &res.Data, nil
}

func multipartBody(uploads []Upload, field string, altField func(int) string) (*bytes.Buffer, string, error) {
	if len(uploads) == 0 {
		return nil, "", errors.BadRequest("at least one image is required", nil)
	}

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	for i, u := range uploads {
		mime, err := DetectImageType(u.Data)
		if err != nil {
			return nil, "", err
		}

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filepath.Base(u.Filename)))
		h.Set("Content-Type", mime)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create multipart part: %w", err)
		}
		if _, err := part.Write(u.Data); err != nil {
			return nil, "", fmt.Errorf("write multipart part: %w", err)
		}

		if u.AltText != "" {
			if err := w.WriteField(altField(i), u.AltText); err != nil {
				return nil, "", fmt.Errorf("write alt text: %w", err)
			}
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return buf, w.FormDataContentType(), nil
}
