package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"dealerstock/internal/apierror"
	"dealerstock/internal/service"

	"github.com/gin-gonic/gin"
)

// maxUploadMemory bounds the multipart form kept in memory; larger parts
// spill to temp files.
const maxUploadMemory = 32 << 20

// openUploads opens every file header. The returned closer must be
// called once the service is done reading.
func openUploads(headers []*multipart.FileHeader) ([]service.Upload, func(), error) {
	opened := make([]io.Closer, 0, len(headers))
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}
	uploads := make([]service.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		opened = append(opened, f)
		uploads = append(uploads, service.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		})
	}
	return uploads, closeAll, nil
}

// formFiles parses the multipart form and returns the files under field,
// answering 400 when the request is not a usable form.
func formFiles(c *gin.Context, field string) ([]*multipart.FileHeader, bool) {
	if err := c.Request.ParseMultipartForm(maxUploadMemory); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid multipart form: "+err.Error()))
		return nil, false
	}
	files := c.Request.MultipartForm.File[field]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, apierror.New("no files under '"+field+"'"))
		return nil, false
	}
	return files, true
}

// streamObject copies a stored object to the response.
func streamObject(c *gin.Context, rc io.ReadCloser, contentType, filename string) {
	defer rc.Close()
	if filename != "" {
		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	}
	c.DataFromReader(http.StatusOK, -1, contentType, rc, nil)
}
