package httpapi

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PabloPavan/data_explorer/internal/apperrors"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// maxFormBytes bounds transition request bodies.
const maxFormBytes = 16 << 10

type formDTO interface {
	fromForm(form url.Values)
	Validate() error
}

// decodeRequest fills dto from a JSON body or from form values, then
// validates it.
func decodeRequest(w http.ResponseWriter, r *http.Request, dto formDTO) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(dto); err != nil {
			return apperrors.Wrap(apperrors.KindInvalidInput, "invalid json", err)
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return apperrors.Wrap(apperrors.KindInvalidInput, "invalid form", err)
		}
		dto.fromForm(r.Form)
	}

	if err := dto.Validate(); err != nil {
		return apperrors.Wrap(apperrors.KindInvalidInput, err.Error(), err)
	}
	return nil
}

// SearchDTO caps the text far above anything typed by hand; the cap only
// bounds the query string sent upstream.
type SearchDTO struct {
	Search string `json:"search" validate:"max=1024"`
}

func (r *SearchDTO) fromForm(form url.Values) {
	r.Search = form.Get("search")
}

func (r *SearchDTO) Validate() error {
	if err := validate.Struct(r); err != nil {
		return validationMessage(err, map[string]map[string]string{
			"Search": {
				"max": "search is too long",
			},
		}, "invalid request")
	}
	return nil
}

type AgeDTO struct {
	Age string `json:"age" validate:"omitempty,oneof=all 18-25 26-35 36-45 46+"`
}

func (r *AgeDTO) fromForm(form url.Values) {
	r.Age = strings.TrimSpace(form.Get("age"))
}

func (r *AgeDTO) Validate() error {
	if err := validate.Struct(r); err != nil {
		return validationMessage(err, map[string]map[string]string{
			"Age": {
				"oneof": "invalid age filter",
			},
		}, "invalid request")
	}
	return nil
}

type SortDTO struct {
	Key string `json:"key" validate:"required,oneof=id username name email age"`
}

func (r *SortDTO) fromForm(form url.Values) {
	r.Key = strings.TrimSpace(form.Get("key"))
}

func (r *SortDTO) Validate() error {
	if err := validate.Struct(r); err != nil {
		return validationMessage(err, map[string]map[string]string{
			"Key": {
				"required": "sort key is required",
				"oneof":    "invalid sort key",
			},
		}, "invalid request")
	}
	return nil
}

// PageDTO moves one page with Direction or jumps to Page.
type PageDTO struct {
	Direction string `json:"direction,omitempty" validate:"required_without=Page,omitempty,oneof=prev next"`
	Page      *int   `json:"page,omitempty" validate:"required_without=Direction,omitempty,min=1"`
}

func (r *PageDTO) fromForm(form url.Values) {
	r.Direction = strings.TrimSpace(form.Get("direction"))
	if raw := strings.TrimSpace(form.Get("page")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			n = 0
		}
		r.Page = &n
	}
}

func (r *PageDTO) Validate() error {
	if err := validate.Struct(r); err != nil {
		return validationMessage(err, map[string]map[string]string{
			"Direction": {
				"required_without": "direction or page is required",
				"oneof":            "invalid direction",
			},
			"Page": {
				"required_without": "direction or page is required",
				"min":              "invalid page",
			},
		}, "invalid request")
	}
	return nil
}

func validationMessage(err error, messages map[string]map[string]string, fallback string) error {
	var valErrs validator.ValidationErrors
	if !errors.As(err, &valErrs) {
		return errors.New(fallback)
	}
	for _, valErr := range valErrs {
		if fieldMessages, ok := messages[valErr.Field()]; ok {
			if msg, ok := fieldMessages[valErr.Tag()]; ok {
				return errors.New(msg)
			}
			if msg, ok := fieldMessages["*"]; ok {
				return errors.New(msg)
			}
		}
	}
	return errors.New(fallback)
}
