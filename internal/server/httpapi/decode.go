package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/dmitrijs2005/housing/internal/common"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report fields by their JSON names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// normalizer is implemented by request bodies that clean up their fields
// before validation.
type normalizer interface {
	normalize()
}

// DecodeValidBody reads a JSON body into B, normalizes it and runs its
// validate tags. Every failure is an InvalidArgument error.
func DecodeValidBody[B any](w http.ResponseWriter, r *http.Request) (B, error) {
	var body B

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return body, common.InvalidArgument("request body is empty")
		}
		return body, &common.Error{Kind: common.KindInvalidArgument, Message: "malformed JSON body", Err: err}
	}

	if n, ok := any(&body).(normalizer); ok {
		n.normalize()
	}
	if err := validate.Struct(body); err != nil {
		return body, validationError(err)
	}
	return body, nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return common.Internal(err)
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
		}
	}
	return common.InvalidArgument("invalid request: " + strings.Join(parts, ", "))
}
