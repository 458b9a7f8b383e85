package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"dealerstock/internal/apierror"
	"dealerstock/internal/infra"
	"dealerstock/internal/middleware"
	"dealerstock/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	// Report fields by their JSON / query names.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
		return false
	}
	return runValidation(c, req)
}

// bindQuery is bindAndValidate for query strings.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid query: "+err.Error()))
		return false
	}
	return runValidation(c, req)
}

func runValidation(c *gin.Context, req interface{}) bool {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return false
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// paramID parses a UUID path parameter, answering 400 when it is malformed.
func paramID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

// bodyID parses a UUID taken from a request body, answering 422 on field
// when it is malformed.
func bodyID(c *gin.Context, field, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(map[string]string{field: "uuid"}))
		return uuid.Nil, false
	}
	return id, true
}

// errorStatus maps domain errors to HTTP statuses. Anything not listed is a 500.
var errorStatus = []struct {
	err    error
	status int
}{
	{service.ErrUnitUnavailable, http.StatusNotFound},
	{service.ErrSaleNotFound, http.StatusNotFound},
	{service.ErrUnitNotFound, http.StatusNotFound},
	{service.ErrCategoryNotFound, http.StatusNotFound},
	{service.ErrAccountNotFound, http.StatusNotFound},
	{service.ErrFileNotFound, http.StatusNotFound},
	{service.ErrUnauthorized, http.StatusForbidden},
	{service.ErrPasswordChangePending, http.StatusForbidden},
	{service.ErrInvalidCredentials, http.StatusUnauthorized},
	{service.ErrWarrantyExpired, http.StatusConflict},
	{service.ErrPartialAvailability, http.StatusConflict},
	{service.ErrDuplicateSerialNumber, http.StatusConflict},
	{service.ErrDuplicateBarcode, http.StatusConflict},
	{service.ErrDuplicateCategory, http.StatusConflict},
	{service.ErrCategoryInUse, http.StatusConflict},
	{service.ErrDuplicateUsername, http.StatusConflict},
	{service.ErrAdminExists, http.StatusConflict},
	{service.ErrUnitNotDeletable, http.StatusConflict},
	{service.ErrInvalidWarranty, http.StatusUnprocessableEntity},
	{service.ErrInvalidPower, http.StatusUnprocessableEntity},
	{service.ErrInvalidSerialNumber, http.StatusUnprocessableEntity},
	{service.ErrBatchTooLarge, http.StatusUnprocessableEntity},
	{service.ErrUnsupportedImage, http.StatusUnprocessableEntity},
	{service.ErrTooManyImages, http.StatusUnprocessableEntity},
	{service.ErrUnknownExport, http.StatusUnprocessableEntity},
	{infra.ErrStorageNotConfigured, http.StatusServiceUnavailable},
	{infra.ErrCircuitOpen, http.StatusServiceUnavailable},
}

// respondError writes the envelope for err. Unknown errors are logged and
// answered with a generic message.
func respondError(c *gin.Context, err error) {
	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			c.JSON(m.status, apierror.New(m.err.Error()))
			return
		}
	}
	log.Error().
		Err(err).
		Str("request_id", c.GetString(middleware.RequestIDKey)).
		Str("method", c.Request.Method).
		Str("path", c.FullPath()).
		Msg("request failed")
	c.JSON(http.StatusInternalServerError, apierror.New("internal server error"))
}
