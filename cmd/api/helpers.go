package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"movietracker/proj/internal/domain/models"
	"movietracker/proj/internal/lib/validator"
	"movietracker/proj/internal/services/movies"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func (app *Application) extractIDParam(w http.ResponseWriter, r *http.Request) (id int64, extracted bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		app.Http.BadRequest(w, r, "invalid ID")
		return 0, false
	}
	if id < 1 {
		app.Http.BadRequest(w, r, "id must be greater than zero")
		return 0, false
	}
	return id, true
}

func (app *Application) currentUser(r *http.Request) *models.User {
	user, ok := r.Context().Value(CtxKeyUser).(*models.User)
	if !ok || user == nil {
		return models.AnonymousUser
	}
	return user
}

func (app *Application) readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	src := http.MaxBytesReader(w, r.Body, int64(maxBytes))
	defer io.Copy(io.Discard, src)
	dec := json.NewDecoder(src)
	dec.DisallowUnknownFields()
	err := dec.Decode(dst)
	if err != nil {
		return handleJsonErr(err)
	}
	err = dec.Decode(&struct{}{})
	if err != io.EOF {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func handleJsonErr(err error) error {
	var syntaxError *json.SyntaxError
	var unmarshalTypeError *json.UnmarshalTypeError
	var invalidUnmarshalError *json.InvalidUnmarshalError
	var maxBytesError *http.MaxBytesError
	switch {
	case errors.As(err, &syntaxError):
		return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)

	case errors.Is(err, io.ErrUnexpectedEOF):
		return errors.New("body contains badly-formed JSON")

	case errors.As(err, &unmarshalTypeError):
		if unmarshalTypeError.Field != "" {
			return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
		}
		return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)

	case errors.Is(err, io.EOF):
		return errors.New("body must not be empty")

	case errors.As(err, &maxBytesError):
		return fmt.Errorf("body must not be larger than %d bytes", maxBytesError.Limit)

	case errors.As(err, &invalidUnmarshalError):
		panic(err)
	default:
		return err
	}
}

// readBody decodes a JSON body, writing the error response itself on failure.
func (app *Application) readBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := app.readJSON(w, r, dst); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return false
	}
	return app.validate(w, r, dst)
}

func (app *Application) validate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if errs := validator.ValidateStruct(app.validator, dst); errs != nil {
		app.Http.UnprocessableEntity(w, r, errs)
		return false
	}
	return true
}

// readQuery decodes and validates query string parameters into dst.
func (app *Application) readQuery(w http.ResponseWriter, r *http.Request, dst any) bool {
	fieldErrs, err := app.decoder.Decode(dst, r.URL.Query())
	if err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return false
	}
	if fieldErrs != nil {
		app.Http.UnprocessableEntity(w, r, fieldErrs)
		return false
	}
	return app.validate(w, r, dst)
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// readMovieForm accepts either a JSON body or a multipart form with an optional
// "photo" file. The returned photo, if any, must be closed by the caller.
func (app *Application) readMovieForm(w http.ResponseWriter, r *http.Request, dst any) (*movies.Photo, io.Closer, bool) {
	if !isMultipart(r) {
		return nil, nil, app.readBody(w, r, dst)
	}
	r.Body = http.MaxBytesReader(w, r.Body, app.cfg.Storage.MaxUploadSize)
	if err := r.ParseMultipartForm(app.cfg.Storage.MaxUploadSize); err != nil {
		app.Http.BadRequest(w, r, "invalid multipart form: "+err.Error())
		return nil, nil, false
	}
	fieldErrs, err := app.decoder.Decode(dst, r.MultipartForm.Value)
	if err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return nil, nil, false
	}
	if fieldErrs != nil {
		app.Http.UnprocessableEntity(w, r, fieldErrs)
		return nil, nil, false
	}
	if !app.validate(w, r, dst) {
		return nil, nil, false
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil, true
		}
		app.Http.BadRequest(w, r, "invalid photo: "+err.Error())
		return nil, nil, false
	}
	return &movies.Photo{Filename: header.Filename, Content: file}, file, true
}
