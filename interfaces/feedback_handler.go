package interfaces

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"interview-prep/domain"
)

type FeedbackHandler struct {
	Repo     domain.FeedbackRepository
	Log      logrus.FieldLogger
	validate *validator.Validate
}

func NewFeedbackHandler(router *gin.Engine, repo domain.FeedbackRepository, log logrus.FieldLogger) {
	h := &FeedbackHandler{Repo: repo, Log: log, validate: newValidator()}
	router.POST("/api/feedback", h.Submit)
}

// newValidator reports field errors under their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (h *FeedbackHandler) Submit(c *gin.Context) {
	in, err := h.bind(c)
	if err != nil {
		if domain.IsValidation(err) {
			c.JSON(http.StatusBadRequest, gin.H{
				"message": "Invalid feedback data",
				"errors":  err,
			})
			return
		}
		h.Log.WithError(err).Error("error reading feedback request")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to submit feedback"})
		return
	}

	fb := in.ToFeedback()
	if err := h.Repo.Create(c.Request.Context(), fb); err != nil {
		h.Log.WithError(err).Error("error submitting feedback")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to submit feedback"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Feedback submitted successfully",
		"feedback": fb,
	})
}

// bind decodes and validates the request body. Client mistakes come back as
// domain.ValidationErrors.
func (h *FeedbackHandler) bind(c *gin.Context) (domain.FeedbackInput, error) {
	var in domain.FeedbackInput
	if err := c.ShouldBindJSON(&in); err != nil {
		return in, domain.ValidationErrors{{Message: err.Error()}}
	}
	in.Normalize()

	if err := h.validate.Struct(in); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return in, err
		}
		return in, toValidationErrors(err)
	}
	return in, nil
}

func toValidationErrors(err error) domain.ValidationErrors {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domain.ValidationErrors{{Message: err.Error()}}
	}

	out := make(domain.ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, &domain.ValidationError{
			Field:   fe.Field(),
			Message: describeRule(fe),
		})
	}
	return out
}

func describeRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
