// Package handler holds helpers shared by the resource handlers below it.
package handler

import (
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gin-gonic/gin"

	"github.com/epi-platform/admin-api/internal/backend"
	"github.com/epi-platform/admin-api/internal/middleware"
	"github.com/epi-platform/admin-api/internal/model"
	"github.com/epi-platform/admin-api/internal/store"
	"github.com/epi-platform/admin-api/pkg/errors"
	"github.com/epi-platform/admin-api/pkg/httputil"
	"github.com/epi-platform/admin-api/pkg/validator"
)

// BindJSON decodes and validates the body. On failure the 400 has already
// been written and false is returned.
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(validator.Message(err), err))
		return false
	}
	return true
}

// ListQuery reads the filter, sort and page parameters plus the region chosen
// by the region middleware.
func ListQuery(c *gin.Context) (store.Query, bool) {
	var q model.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httputil.RespondWithError(c, errors.BadRequest(validator.Message(err), err))
		return store.Query{}, false
	}
	return store.QueryFrom(q, middleware.RegionFrom(c)), true
}

// Uploads reads the files of a multipart field together with their alt texts.
// Alt text i is taken from "altText[i]", falling back to the i-th "altText".
func Uploads(c *gin.Context, field string) ([]backend.Upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, errors.BadRequest("expected a multipart form", err)
	}

	files := form.File[field]
	plain := form.Value["altText"]

	uploads := make([]backend.Upload, 0, len(files))
	for i, fh := range files {
		data, err := readFile(fh)
		if err != nil {
			return nil, errors.BadRequest(fmt.Sprintf("could not read %s", fh.Filename), err)
		}

		alt := ""
		if v := form.Value[fmt.Sprintf("altText[%d]", i)]; len(v) > 0 {
			alt = v[0]
		} else if i < len(plain) {
			alt = plain[i]
		}

		uploads = append(uploads, backend.Upload{
			Filename: fh.Filename,
			Data:     data,
			AltText:  alt,
		})
	}
	return uploads, nil
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
