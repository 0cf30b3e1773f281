package app

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"quizmaker-service/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("quiz_category", func(fl validator.FieldLevel) bool {
		return domain.Category(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("quiz_difficulty", func(fl validator.FieldLevel) bool {
		return domain.Difficulty(fl.Field().String()).Valid()
	})
	v.RegisterStructValidation(questionStructLevel, domain.QuestionInput{})
	v.RegisterStructValidation(quizStructLevel, domain.QuizInput{})
	return v
}

// questionStructLevel checks the answer key points at an existing option.
func questionStructLevel(sl validator.StructLevel) {
	q := sl.Current().Interface().(domain.QuestionInput)
	if q.CorrectAnswer == nil {
		return
	}
	if *q.CorrectAnswer >= len(q.Options) {
		sl.ReportError(*q.CorrectAnswer, "correctAnswer", "CorrectAnswer", "option_index", "")
	}
}

// quizStructLevel enforces question id uniqueness within a quiz.
func quizStructLevel(sl validator.StructLevel) {
	in := sl.Current().Interface().(domain.QuizInput)
	seen := make(map[string]struct{}, len(in.Questions))
	for _, q := range in.Questions {
		if q.ID == "" {
			continue
		}
		if _, dup := seen[q.ID]; dup {
			sl.ReportError(in.Questions, "questions", "Questions", "unique_ids", "")
			return
		}
		seen[q.ID] = struct{}{}
	}
}

// validateStruct runs the validator and converts failures into *domain.ValidationError.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("validate: %w", err)
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fieldPath(fe.Namespace())] = fieldMessage(fe)
	}
	return &domain.ValidationError{Fields: fields}
}

// fieldPath drops the root struct name: "QuizInput.questions[0].options" -> "questions[0].options".
func fieldPath(ns string) string {
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return "must have at least " + fe.Param() + " items"
		}
		return "must be at least " + fe.Param() + " characters"
	case "max":
		if fe.Kind() == reflect.Slice {
			return "must have at most " + fe.Param() + " items"
		}
		return "must be at most " + fe.Param() + " characters"
	case "gt", "gte", "lt", "lte":
		return "is out of range"
	case "quiz_category":
		return "is not a valid category"
	case "quiz_difficulty":
		return "must be Easy, Medium, or Hard"
	case "option_index":
		return "must reference an existing option"
	case "unique_ids":
		return "question ids must be unique"
	default:
		return "failed " + fe.Tag() + " check"
	}
}
