package handler

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/martinsuhendra/manta/internal/domain/freeze"
	"github.com/martinsuhendra/manta/pkg/domain"
	"github.com/martinsuhendra/manta/pkg/middleware"
	"github.com/martinsuhendra/manta/pkg/response"
)

var registerOnce sync.Once

// RegisterValidators installs the custom rules on gin's validator. It is safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(jsonFieldName)
		v.RegisterStructValidation(validateFreezeDuration, approveFreezeBody{})
	})
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return f.Name
	}
	return name
}

// approveFreezeBody accepts freezeEndDate as YYYY-MM-DD or RFC 3339.
type approveFreezeBody struct {
	PresetDays    *int    `json:"presetDays"`
	CustomDays    *int    `json:"customDays"`
	FreezeEndDate *string `json:"freezeEndDate"`
}

func (b approveFreezeBody) duration() (freeze.Duration, error) {
	d := freeze.Duration{PresetDays: b.PresetDays, CustomDays: b.CustomDays}
	if b.FreezeEndDate != nil {
		end, err := parseDate(*b.FreezeEndDate)
		if err != nil {
			return d, domain.NewValidationError("freezeEndDate", "freezeEndDate must be YYYY-MM-DD or RFC 3339")
		}
		d.FreezeEndDate = &end
	}
	return d, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// validateFreezeDuration reports a "duration" error unless exactly one of the three inputs is set and in range.
func validateFreezeDuration(sl validator.StructLevel) {
	body := sl.Current().Interface().(approveFreezeBody)
	d, err := body.duration()
	if err == nil {
		err = d.Validate()
	}
	if err != nil {
		var field string
		if domErr, ok := domain.AsDomainError(err); ok {
			field, _ = domErr.Details["field"].(string)
		}
		if field == "" {
			field = "duration"
		}
		sl.ReportError(body, field, field, "freeze_duration", "")
	}
}

// bindJSON binds the body into req, writing a 400 with per-field details on failure.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		writeBindError(c, err)
		return false
	}
	return true
}

func bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		writeBindError(c, err)
		return false
	}
	return true
}

func writeBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		response.BadRequest(c, "invalid request body")
		return
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	verr := domain.NewValidationError("body", "validation failed").WithDetail("fields", fields)
	if _, ok := fields["duration"]; ok {
		verr.Message = "Provide exactly one of presetDays, customDays or freezeEndDate"
	}
	response.Error(c, verr)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of " + fe.Param()
	case "gt", "gte", "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "datetime":
		return "must match " + fe.Param()
	case "freeze_duration":
		return "invalid freeze duration"
	default:
		return "is invalid"
	}
}

// uuidParam parses a path parameter, writing a 400 when it is not a UUID.
func uuidParam(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, "invalid "+label+" ID")
		return uuid.Nil, false
	}
	return id, true
}

// currentUser returns the caller's ID, writing a 401 when the token carried none.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return uuid.Nil, false
	}
	return userID, true
}

// orPass returns mw, or a pass-through handler when mw is nil.
func orPass(mw gin.HandlerFunc) gin.HandlerFunc {
	if mw != nil {
		return mw
	}
	return func(c *gin.Context) { c.Next() }
}
