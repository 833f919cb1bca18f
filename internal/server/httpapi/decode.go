package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
	"github.com/dmitrijs2005/notekeeper/internal/server/services"
	"github.com/dmitrijs2005/notekeeper/internal/server/storage"
)

const (
	multipartMemory = 4 << 20
	// formOverhead is the body allowance on top of the image limit for the
	// remaining form fields and multipart framing.
	formOverhead = 1 << 20
)

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

func (h *Handler) limitBody(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+formOverhead)
}

func isMaxBytes(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		switch {
		case isMaxBytes(err):
			return err
		case errors.Is(err, io.EOF):
			return common.Validation("request body is empty")
		default:
			return common.Validation("malformed JSON body")
		}
	}
	return nil
}

func parseMultipart(r *http.Request) error {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if isMaxBytes(err) {
			return err
		}
		return common.Validation("malformed multipart body")
	}
	return nil
}

// formValue reports whether key was sent as a plain form field.
func formValue(r *http.Request, key string) (string, bool) {
	vals, ok := r.MultipartForm.Value[key]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

// formImage inspects the file part named field, or returns nil if absent.
func (h *Handler) formImage(r *http.Request, field string) (*storage.Image, error) {
	files := r.MultipartForm.File[field]
	if len(files) == 0 {
		return nil, nil
	}
	return storage.InspectFile(files[0], h.maxUploadSize)
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) decodeRegistration(w http.ResponseWriter, r *http.Request) (services.Registration, error) {
	h.limitBody(w, r)

	if !isMultipart(r) {
		var req registerRequest
		if err := decodeJSON(r, &req); err != nil {
			return services.Registration{}, err
		}
		return services.Registration{Name: req.Name, Email: req.Email, Password: req.Password}, nil
	}

	if err := parseMultipart(r); err != nil {
		return services.Registration{}, err
	}
	img, err := h.formImage(r, "profileImage")
	if err != nil {
		return services.Registration{}, err
	}
	name, _ := formValue(r, "name")
	email, _ := formValue(r, "email")
	password, _ := formValue(r, "password")

	return services.Registration{Name: name, Email: email, Password: password, ProfileImage: img}, nil
}

type noteRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Color string `json:"color"`
}

func (h *Handler) decodeNoteInput(w http.ResponseWriter, r *http.Request) (models.NoteInput, *storage.Image, error) {
	h.limitBody(w, r)

	if !isMultipart(r) {
		var req noteRequest
		if err := decodeJSON(r, &req); err != nil {
			return models.NoteInput{}, nil, err
		}
		return models.NoteInput{Title: req.Title, Body: req.Body, Color: req.Color}, nil, nil
	}

	if err := parseMultipart(r); err != nil {
		return models.NoteInput{}, nil, err
	}
	img, err := h.formImage(r, "image")
	if err != nil {
		return models.NoteInput{}, nil, err
	}
	title, _ := formValue(r, "title")
	body, _ := formValue(r, "body")
	color, _ := formValue(r, "color")

	return models.NoteInput{Title: title, Body: body, Color: color}, img, nil
}

func isNull(msg json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(msg), []byte("null"))
}

func decodeField[T any](key string, msg json.RawMessage) (*T, error) {
	var v T
	if err := json.Unmarshal(msg, &v); err != nil {
		return nil, common.Validation(fmt.Sprintf("invalid %s", key))
	}
	return &v, nil
}

// patchFromJSON treats every recognised key present in the object as
// supplied. "image" may only be null, which clears the image. The flags
// must be true or false.
func patchFromJSON(raw map[string]json.RawMessage) (models.NotePatch, error) {
	var (
		p   models.NotePatch
		err error
	)
	for key, msg := range raw {
		switch key {
		case "title":
			p.Title, err = decodeField[string](key, msg)
		case "body":
			p.Body, err = decodeField[string](key, msg)
		case "color":
			p.Color, err = decodeField[string](key, msg)
		case "pinned", "archived":
			if isNull(msg) {
				return p, common.Validation(fmt.Sprintf("invalid %s", key))
			}
			if key == "pinned" {
				p.Pinned, err = decodeField[bool](key, msg)
			} else {
				p.Archived, err = decodeField[bool](key, msg)
			}
		case "image":
			if !isNull(msg) {
				return p, common.Validation("image must be uploaded as a file")
			}
			p.SetImage = true
		}
		if err != nil {
			return p, err
		}
	}
	return p, nil
}

func formBool(r *http.Request, key string) (*bool, error) {
	v, ok := formValue(r, key)
	if !ok {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, common.Validation(fmt.Sprintf("invalid %s", key))
	}
	return &b, nil
}

// patchFromForm treats every recognised form field present as supplied.
// An empty "image" field clears the image; an "image" file replaces it.
func patchFromForm(r *http.Request) (models.NotePatch, error) {
	var (
		p   models.NotePatch
		err error
	)
	if v, ok := formValue(r, "title"); ok {
		p.Title = &v
	}
	if v, ok := formValue(r, "body"); ok {
		p.Body = &v
	}
	if v, ok := formValue(r, "color"); ok {
		p.Color = &v
	}
	if p.Pinned, err = formBool(r, "pinned"); err != nil {
		return p, err
	}
	if p.Archived, err = formBool(r, "archived"); err != nil {
		return p, err
	}
	if v, ok := formValue(r, "image"); ok {
		if v != "" {
			return p, common.Validation("image must be uploaded as a file")
		}
		p.SetImage = true
	}
	return p, nil
}

func (h *Handler) decodeNotePatch(w http.ResponseWriter, r *http.Request) (models.NotePatch, *storage.Image, error) {
	h.limitBody(w, r)

	if !isMultipart(r) {
		raw := map[string]json.RawMessage{}
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
			if isMaxBytes(err) {
				return models.NotePatch{}, nil, err
			}
			return models.NotePatch{}, nil, common.Validation("malformed JSON body")
		}
		p, err := patchFromJSON(raw)
		return p, nil, err
	}

	if err := parseMultipart(r); err != nil {
		return models.NotePatch{}, nil, err
	}
	p, err := patchFromForm(r)
	if err != nil {
		return p, nil, err
	}
	img, err := h.formImage(r, "image")
	if err != nil {
		return p, nil, err
	}
	return p, img, nil
}
