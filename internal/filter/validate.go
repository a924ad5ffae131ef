package filter

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	apperrors "mortgagepulse/internal/errors"
	"mortgagepulse/pkg/contracts/domain"
)

// ErrInvalidSpec is wrapped by every error returned for a malformed FilterSpec.
var ErrInvalidSpec = errors.New("invalid filter specification")

// FieldProblem describes one rejected FilterSpec field.
type FieldProblem struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var (
	specValidator     *validator.Validate
	specValidatorOnce sync.Once
)

func getValidator() *validator.Validate {
	specValidatorOnce.Do(func() {
		v := validator.New()
		_ = v.RegisterValidation("ltv_bucket", isLTVBucket)
		v.RegisterStructValidation(validateSpecStruct, domain.FilterSpec{})
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		specValidator = v
	})
	return specValidator
}

func isLTVBucket(fl validator.FieldLevel) bool {
	return domain.LTVBucket(fl.Field().String()).Valid()
}

// validateSpecStruct checks the rules that span fields: an ordered date range
// and sentinel exclusivity on the set dimensions.
func validateSpecStruct(sl validator.StructLevel) {
	spec := sl.Current().Interface().(domain.FilterSpec)

	if spec.DateRange.Complete() && dayOf(*spec.DateRange.Start).After(dayOf(*spec.DateRange.End)) {
		sl.ReportError(spec.DateRange, "date_range", "DateRange", "date_order", "")
	}
	if mixesSentinel(spec.Lenders, domain.AllLenders) {
		sl.ReportError(spec.Lenders, "lenders", "Lenders", "sentinel_exclusive", domain.AllLenders)
	}
	if mixesSentinel(spec.PurchaseTypes, domain.AllPurchaseTypes) {
		sl.ReportError(spec.PurchaseTypes, "purchase_types", "PurchaseTypes", "sentinel_exclusive", domain.AllPurchaseTypes)
	}
}

func mixesSentinel(selection []string, sentinel string) bool {
	return len(selection) > 1 && contains(selection, sentinel)
}

// Validate checks a FilterSpec. The returned error wraps ErrInvalidSpec and
// carries the individual problems in its "fields" context.
func Validate(spec domain.FilterSpec) error {
	err := getValidator().Struct(spec)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewValidationError("filter specification could not be validated", fmt.Errorf("%w: %v", ErrInvalidSpec, err))
	}

	problems := make([]FieldProblem, 0, len(fieldErrs))
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		p := FieldProblem{Field: fe.Field(), Message: formatFieldError(fe)}
		problems = append(problems, p)
		messages = append(messages, p.Message)
	}
	return apperrors.NewValidationError(strings.Join(messages, "; "), ErrInvalidSpec).WithContext("fields", problems)
}

func formatFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "ltv_bucket":
		return fmt.Sprintf("%s must be one of: %s", field, joinBuckets())
	case "date_order":
		return fmt.Sprintf("%s start must not be after end", field)
	case "sentinel_exclusive":
		return fmt.Sprintf("%s cannot combine %s with explicit members", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

func joinBuckets() string {
	names := make([]string, len(domain.LTVBuckets))
	for i, b := range domain.LTVBuckets {
		names[i] = string(b)
	}
	return strings.Join(names, ", ")
}
