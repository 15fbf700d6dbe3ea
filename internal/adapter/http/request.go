package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/sightings/internal/domain"
	"github.com/couchcryptid/sightings/internal/media"
	"github.com/couchcryptid/sightings/internal/submission"
)

// reportRequest is the wire form of a submission. Coordinates are pointers
// so a missing value can be told apart from zero.
type reportRequest struct {
	Location    string   `json:"location"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Description string   `json:"description"`
	Timestamp   string   `json:"timestamp"`
}

func (req reportRequest) submission(decodeErrs []domain.FieldError) submission.Submission {
	in := domain.ReportInput{
		Location:    req.Location,
		Description: req.Description,
		Timestamp:   req.Timestamp,
	}
	if req.Latitude == nil {
		decodeErrs = appendMissing(decodeErrs, "latitude", "Latitude is required")
	} else {
		in.Latitude = *req.Latitude
	}
	if req.Longitude == nil {
		decodeErrs = appendMissing(decodeErrs, "longitude", "Longitude is required")
	} else {
		in.Longitude = *req.Longitude
	}
	return submission.Submission{Input: in, DecodeErrors: decodeErrs}
}

func appendMissing(errs []domain.FieldError, field, msg string) []domain.FieldError {
	for _, e := range errs {
		if e.Field == field {
			return errs
		}
	}
	return append(errs, domain.FieldError{Field: field, Message: msg})
}

func isJSON(r *http.Request) bool {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return ct == "application/json"
}

// maxBodyBytes leaves room for one image past the limit so an oversized
// batch is read far enough to be rejected with its own message.
func maxBodyBytes(limits media.Limits) int64 {
	return int64(limits.MaxImages+1)*(limits.MaxImageBytes+1) + 1<<20
}

// decodeReport reads a JSON or form-encoded submission. Image problems found
// while streaming the form come back as decode errors on the images field.
func decodeReport(w http.ResponseWriter, r *http.Request, limits media.Limits) (submission.Submission, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes(limits))

	if isJSON(r) {
		var req reportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return submission.Submission{}, fmt.Errorf("invalid JSON body: %w", err)
		}
		return req.submission(nil), nil
	}

	form, err := readUpload(r, limits)
	if err != nil {
		return submission.Submission{}, err
	}

	var decodeErrs []domain.FieldError
	req := reportRequest{
		Location:    form.Values.Get("location"),
		Description: form.Values.Get("description"),
		Timestamp:   form.Values.Get("timestamp"),
	}
	req.Latitude, decodeErrs = formCoordinate(form.Values.Get("latitude"), "latitude", decodeErrs)
	req.Longitude, decodeErrs = formCoordinate(form.Values.Get("longitude"), "longitude", decodeErrs)

	sub := req.submission(decodeErrs)
	sel := media.NewSelection(limits, 0)
	if err := form.stage(sel); err != nil {
		sub.DecodeErrors = append(sub.DecodeErrors, domain.FieldError{Field: "images", Message: err.Error()})
		return sub, nil
	}
	sub.Files = sel.Files()
	return sub, nil
}

// formCoordinate parses an optional coordinate form value. An empty value
// yields nil so the caller reports it as missing.
func formCoordinate(raw, field string, errs []domain.FieldError) (*float64, []domain.FieldError) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errs
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		name := strings.ToUpper(field[:1]) + field[1:]
		return nil, append(errs, domain.FieldError{Field: field, Message: name + " must be a number"})
	}
	return &v, errs
}

const maxFieldBytes = 64 << 10

// uploadForm is a form read part by part. Rejected is set when the image
// parts broke a limit; reading stops at that point, so fields posted after
// the offending part are absent.
type uploadForm struct {
	Values   url.Values
	Files    []media.File
	Rejected error
}

// stage adds the files to sel, or returns the rejection found while reading.
func (f uploadForm) stage(sel *media.Selection) error {
	if f.Rejected != nil {
		return f.Rejected
	}
	return sel.Add(f.Files...)
}

// readUpload streams a multipart form, buffering each "images" part up to
// one byte past the size limit. A part beyond limits.MaxImages or over the
// size limit ends the read with Rejected set. Urlencoded bodies fall back to
// ParseForm.
func readUpload(r *http.Request, limits media.Limits) (uploadForm, error) {
	mr, err := r.MultipartReader()
	if errors.Is(err, http.ErrNotMultipart) {
		if err := r.ParseForm(); err != nil {
			return uploadForm{}, fmt.Errorf("invalid form: %w", err)
		}
		return uploadForm{Values: r.PostForm}, nil
	}
	if err != nil {
		return uploadForm{}, fmt.Errorf("invalid form: %w", err)
	}

	form := uploadForm{Values: url.Values{}}
	r.Form, r.PostForm = form.Values, form.Values
	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return form, nil
		}
		if err != nil {
			return form, fmt.Errorf("invalid form: %w", err)
		}

		if p.FileName() == "" {
			v, err := readField(p)
			if err != nil {
				return form, err
			}
			form.Values.Add(p.FormName(), v)
			continue
		}
		if p.FormName() != "images" {
			continue
		}
		if len(form.Files) == limits.MaxImages {
			form.Rejected = media.CountError(limits)
			return form, nil
		}

		f, err := readImage(p, limits.MaxImageBytes)
		if err != nil {
			return form, err
		}
		form.Files = append(form.Files, f)
		if f.Size > limits.MaxImageBytes {
			form.Rejected = media.ValidateFile(f, limits)
			return form, nil
		}
	}
}

func readField(p *multipart.Part) (string, error) {
	b, err := io.ReadAll(io.LimitReader(p, maxFieldBytes+1))
	if err != nil {
		return "", fmt.Errorf("read field %s: %w", p.FormName(), err)
	}
	if len(b) > maxFieldBytes {
		return "", fmt.Errorf("field %s is too large", p.FormName())
	}
	return string(b), nil
}

// readImage buffers at most maxBytes+1 bytes of p. A larger part reports
// Size as maxBytes+1, which is enough to fail validation.
func readImage(p *multipart.Part, maxBytes int64) (media.File, error) {
	data, err := io.ReadAll(io.LimitReader(p, maxBytes+1))
	if err != nil {
		return media.File{}, fmt.Errorf("read %s: %w", p.FileName(), err)
	}
	return media.File{
		Name:        p.FileName(),
		ContentType: partContentType(p),
		Size:        int64(len(data)),
		Content:     bytes.NewReader(data),
	}, nil
}

func partContentType(p *multipart.Part) string {
	if ct := p.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		return ct
	}
	if ct := mime.TypeByExtension(filepath.Ext(p.FileName())); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// parseDateRange reads optional from/to query values. Each accepts RFC 3339
// or a bare date; a bare "to" date covers the whole day.
func parseDateRange(q url.Values) (domain.DateRange, error) {
	from, err := parseDate(q.Get("from"), false)
	if err != nil {
		return domain.DateRange{}, err
	}
	to, err := parseDate(q.Get("to"), true)
	if err != nil {
		return domain.DateRange{}, err
	}
	r := domain.DateRange{From: from, To: to}
	return r, r.Validate()
}

func parseDate(s string, endOfDay bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use RFC 3339 or YYYY-MM-DD", s)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Millisecond)
	}
	return t, nil
}

// parseLimit reads a positive limit capped at maxLimit.
func parseLimit(s string, def, maxLimit int) (int, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid limit %q", s)
	}
	return min(n, maxLimit), nil
}

// queryCoordinates reads lat/lon query values for the locate endpoint.
func queryCoordinates(q url.Values) (lat, lon float64, verr *domain.ValidationError) {
	verr = &domain.ValidationError{}
	var errs []domain.FieldError
	latp, errs := formCoordinate(q.Get("lat"), "latitude", errs)
	lonp, errs := formCoordinate(q.Get("lon"), "longitude", errs)
	for _, e := range errs {
		verr.Add(e.Field, e.Message)
	}
	if latp == nil && verr.Message("latitude") == "" {
		verr.Add("latitude", "Latitude is required")
	}
	if lonp == nil && verr.Message("longitude") == "" {
		verr.Add("longitude", "Longitude is required")
	}
	if len(verr.Fields) > 0 {
		return 0, 0, verr
	}
	return *latp, *lonp, nil
}
