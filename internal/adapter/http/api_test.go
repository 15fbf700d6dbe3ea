package http_test

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/sightings/internal/domain"
	"github.com/couchcryptid/sightings/internal/submission"
)

type upload struct {
	name        string
	contentType string
	body        []byte
}

func multipartRequest(t *testing.T, target string, fields map[string]string, files ...upload) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename=%q`, f.name))
		hdr.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write(f.body)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestCreateReportJSON(t *testing.T) {
	h := newHarness(t)
	h.submitter.result = submission.Result{
		Report: domain.Report{ID: "abc", Location: "Union Station"},
		Notice: submission.Notice{Title: "Report submitted successfully"},
	}

	rec := h.do(jsonRequest(http.MethodPost, "/api/reports",
		`{"location":"Union Station","latitude":34.056,"longitude":-118.2368,"description":"Two vehicles parked out front"}`))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Union Station", h.submitter.got.Input.Location)
	assert.InDelta(t, 34.056, h.submitter.got.Input.Latitude, 1e-9)
	assert.Empty(t, h.submitter.got.DecodeErrors)

	body := decodeBody(t, rec)
	assert.Equal(t, "abc", body["report"].(map[string]any)["id"])
	assert.Equal(t, "Report submitted successfully", body["notice"].(map[string]any)["title"])
}

func TestCreateReportJSONMissingCoordinates(t *testing.T) {
	h := newHarness(t)
	h.do(jsonRequest(http.MethodPost, "/api/reports", `{"location":"Somewhere","description":"Something seen"}`))

	require.Equal(t, 1, h.submitter.calls)
	assert.Equal(t, []domain.FieldError{
		{Field: "latitude", Message: "Latitude is required"},
		{Field: "longitude", Message: "Longitude is required"},
	}, h.submitter.got.DecodeErrors)
}

func TestCreateReportInvalidJSON(t *testing.T) {
	h := newHarness(t)
	rec := h.do(jsonRequest(http.MethodPost, "/api/reports", `{"location":`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, h.submitter.calls)
	assert.Contains(t, decodeBody(t, rec)["error"], "invalid JSON body")
}

func TestCreateReportValidationError(t *testing.T) {
	h := newHarness(t)
	verr := &domain.ValidationError{}
	verr.Add("location", "Location is required")
	verr.Add("location", "Location must be at least 3 characters")
	verr.Add("description", "Description is required")
	h.submitter.err = verr

	rec := h.do(jsonRequest(http.MethodPost, "/api/reports", `{"latitude":1,"longitude":2}`))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "validation failed", body["error"])
	assert.Equal(t, map[string]any{
		"location":    "Location is required",
		"description": "Description is required",
	}, body["fields"])
}

func TestCreateReportStoreFailure(t *testing.T) {
	h := newHarness(t)
	h.submitter.err = errors.New("failed to submit report: connection refused")

	rec := h.do(jsonRequest(http.MethodPost, "/api/reports", `{"location":"abc","latitude":1,"longitude":2,"description":"seen"}`))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "failed to submit report: connection refused", decodeBody(t, rec)["error"])
}

func TestCreateReportMultipart(t *testing.T) {
	h := newHarness(t)
	req := multipartRequest(t, "/api/reports", map[string]string{
		"location":    "Koreatown",
		"latitude":    "34.0619",
		"longitude":   "-118.309",
		"description": "Vehicles at the complex",
	},
		upload{name: "one.jpg", contentType: "image/jpeg", body: []byte("jpeg-bytes")},
		upload{name: "two.png", contentType: "application/octet-stream", body: []byte("png-bytes")},
	)

	rec := h.do(req)

	require.Equal(t, http.StatusCreated, rec.Code)
	got := h.submitter.got
	assert.Equal(t, "Koreatown", got.Input.Location)
	assert.InDelta(t, -118.309, got.Input.Longitude, 1e-9)
	require.Len(t, got.Files, 2)
	assert.Equal(t, "one.jpg", got.Files[0].Name)
	assert.Equal(t, "image/jpeg", got.Files[0].ContentType)
	assert.Equal(t, int64(len("jpeg-bytes")), got.Files[0].Size)
	assert.Equal(t, "image/png", got.Files[1].ContentType, "content type falls back to the extension")
}

func TestCreateReportFormBadCoordinate(t *testing.T) {
	h := newHarness(t)
	req := multipartRequest(t, "/api/reports", map[string]string{
		"location":    "Koreatown",
		"latitude":    "north",
		"description": "Vehicles at the complex",
	})

	h.do(req)

	assert.Equal(t, []domain.FieldError{
		{Field: "latitude", Message: "Latitude must be a number"},
		{Field: "longitude", Message: "Longitude is required"},
	}, h.submitter.got.DecodeErrors)
}

// photos returns n JPEG uploads of size bytes each.
func photos(n, size int) []upload {
	out := make([]upload, n)
	for i := range out {
		out[i] = upload{name: fmt.Sprintf("photo-%d.jpg", i+1), contentType: "image/jpeg", body: bytes.Repeat([]byte{0xff}, size)}
	}
	return out
}

var reportFields = map[string]string{
	"location":    "Koreatown",
	"latitude":    "34.0619",
	"longitude":   "-118.309",
	"description": "Vehicles at the complex",
}

func TestCreateReportTooManyLargeImages(t *testing.T) {
	h := newHarness(t)
	rec := h.do(multipartRequest(t, "/api/reports", reportFields, photos(4, 4_500_000)...))

	require.NotEqual(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, 1, h.submitter.calls)
	assert.Empty(t, h.submitter.got.Files)
	assert.Equal(t, []domain.FieldError{{Field: "images", Message: "Maximum 3 images allowed"}}, h.submitter.got.DecodeErrors)
	assert.Equal(t, "Koreatown", h.submitter.got.Input.Location)
}

func TestCreateReportOversizedImage(t *testing.T) {
	h := newHarness(t)
	rec := h.do(multipartRequest(t, "/api/reports", reportFields, photos(1, 17<<20)...))

	require.NotEqual(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, 1, h.submitter.calls)
	assert.Empty(t, h.submitter.got.Files)
	assert.Equal(t, []domain.FieldError{{Field: "images", Message: "Image size must be less than 5MB"}}, h.submitter.got.DecodeErrors)
}

func TestListReports(t *testing.T) {
	h := newHarness(t)
	h.store.list = domain.ResultOf(domain.SampleReports(testNow), nil)

	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/reports?from=2024-05-01&to=2024-05-31", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Len(t, body["reports"], 5)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), h.store.lastRange.From)
	assert.Equal(t, time.Date(2024, 5, 31, 23, 59, 59, int(999*time.Millisecond), time.UTC), h.store.lastRange.To)
}

func TestListReportsEmpty(t *testing.T) {
	h := newHarness(t)
	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/reports", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "empty", body["status"])
	assert.Empty(t, body["reports"])
	assert.True(t, h.store.lastRange.IsZero())
}

func TestListReportsUnavailable(t *testing.T) {
	h := newHarness(t)
	h.store.list = domain.ResultOf(nil, errors.New("timeout"))

	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/reports", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "unavailable", body["status"])
	assert.Equal(t, "Failed to load reports", body["error"])
}

func TestListReportsBadRange(t *testing.T) {
	h := newHarness(t)

	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/reports?from=yesterday", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(httptest.NewRequest(http.MethodGet, "/api/reports?from=2024-06-02&to=2024-06-01", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecentReportsLimit(t *testing.T) {
	h := newHarness(t)

	h.do(httptest.NewRequest(http.MethodGet, "/api/reports/recent", nil))
	assert.Equal(t, 5, h.store.lastLimit)

	h.do(httptest.NewRequest(http.MethodGet, "/api/reports/recent?limit=500", nil))
	assert.Equal(t, 100, h.store.lastLimit)

	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/reports/recent?limit=0", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFeedEndpoints(t *testing.T) {
	h := newHarness(t)

	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/feed", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["sample"])
	assert.Len(t, body["reports"], 2)
	assert.Zero(t, h.feed.refreshes)

	rec = h.do(httptest.NewRequest(http.MethodPost, "/api/feed/refresh", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, h.feed.refreshes)
}

func TestMapHeatUsesSamplesWhenEmpty(t *testing.T) {
	h := newHarness(t)
	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/map", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "heat", body["mode"])
	assert.Equal(t, true, body["sample"])
	assert.Len(t, body["reports"], 5)
	assert.NotNil(t, body["heat"])
	assert.Nil(t, body["markers"])
}

func TestMapMarkersFallbackWhenUnavailable(t *testing.T) {
	h := newHarness(t)
	h.store.list = domain.ResultOf(nil, errors.New("down"))

	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/map?mode=markers", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "markers", body["mode"])
	assert.Equal(t, "Using fallback map data", body["error"])
	markers := body["markers"].([]any)
	require.Len(t, markers, 1)
	assert.Equal(t, "fallback-1", markers[0].(map[string]any)["id"])
}

func TestMapBadMode(t *testing.T) {
	h := newHarness(t)
	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/map?mode=satellite", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMapDisabledWithoutKey(t *testing.T) {
	h := newHarness(t, withoutMap())
	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/map", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "map visualization is not configured", body["error"])
	assert.Equal(t, false, body["settings"].(map[string]any)["enabled"])
}

func TestLocate(t *testing.T) {
	h := newHarness(t)
	h.submitter.location = submission.Location{Label: "Union Station, Los Angeles", Resolved: true}

	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/locate?lat=34.056&lon=-118.2368", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Union Station, Los Angeles", body["label"])
	assert.InDelta(t, 34.056, body["latitude"], 1e-9)
}

func TestLocateValidation(t *testing.T) {
	h := newHarness(t)
	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/locate?lat=abc", nil))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, map[string]any{
		"latitude":  "Latitude must be a number",
		"longitude": "Longitude is required",
	}, decodeBody(t, rec)["fields"])
}

func TestLocateRejectsNonFiniteCoordinates(t *testing.T) {
	h := newHarness(t)
	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/locate?lat=NaN&lon=Inf", nil))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, map[string]any{
		"latitude":  "Latitude must be a number",
		"longitude": "Longitude must be a number",
	}, decodeBody(t, rec)["fields"])
}

func TestLocateGeocoderFailure(t *testing.T) {
	h := newHarness(t)
	h.submitter.locateErr = errors.New("could not resolve your current location: timeout")

	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/locate?lat=1&lon=2", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestGeocode(t *testing.T) {
	h := newHarness(t)
	h.submitter.resolved = submission.Location{Latitude: 45.5152, Longitude: -122.6784, Label: "Portland, Oregon", Resolved: true}

	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/geocode?q=portland", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "portland", h.submitter.query)
	body := decodeBody(t, rec)
	assert.Equal(t, "Portland, Oregon", body["label"])
	assert.InDelta(t, -122.6784, body["longitude"], 1e-9)
}

func TestGeocodeErrors(t *testing.T) {
	blank := &domain.ValidationError{}
	blank.Add("q", "Search text is required")

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "blank query", err: blank, want: http.StatusUnprocessableEntity},
		{name: "not configured", err: submission.ErrGeocodingDisabled, want: http.StatusServiceUnavailable},
		{name: "no match", err: submission.ErrNoMatch, want: http.StatusNotFound},
		{name: "provider failure", err: errors.New("could not search: timeout"), want: http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.submitter.searchErr = tt.err
			rec := h.do(httptest.NewRequest(http.MethodGet, "/api/geocode?q=x", nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestValidateMedia(t *testing.T) {
	h := newHarness(t)
	req := multipartRequest(t, "/api/media/validate", map[string]string{"existing": "1"},
		upload{name: "a.jpg", contentType: "image/jpeg", body: []byte("a")},
	)

	rec := h.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["valid"])
	assert.InDelta(t, 1, body["count"], 0)
	assert.InDelta(t, 1, body["remaining"], 0)
}

func TestValidateMediaRejects(t *testing.T) {
	tests := []struct {
		name     string
		existing string
		files    []upload
		want     string
	}{
		{
			name:     "too many",
			existing: "3",
			files:    []upload{{name: "a.jpg", contentType: "image/jpeg", body: []byte("a")}},
			want:     "Maximum 3 images allowed",
		},
		{
			name:  "not an image",
			files: []upload{{name: "notes.pdf", contentType: "application/pdf", body: []byte("%PDF")}},
			want:  "Please upload only image files",
		},
		{
			name:  "four large images",
			files: photos(4, 4_500_000),
			want:  "Maximum 3 images allowed",
		},
		{
			name:  "one image over the size limit",
			files: photos(1, 17<<20),
			want:  "Image size must be less than 5MB",
		},
		{
			name:     "held entries fill the selection",
			existing: "2",
			files:    photos(2, 10),
			want:     "Maximum 3 images allowed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			fields := map[string]string{}
			if tt.existing != "" {
				fields["existing"] = tt.existing
			}
			rec := h.do(multipartRequest(t, "/api/media/validate", fields, tt.files...))

			require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Equal(t, tt.want, decodeBody(t, rec)["error"])
		})
	}
}

func TestCreateContact(t *testing.T) {
	h := newHarness(t)
	rec := h.do(jsonRequest(http.MethodPost, "/api/contact",
		`{"name":"  Ana  ","email":"ana@example.com","message":"Hello there"}`))

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "contact-1", body["id"])
	assert.Equal(t, "Your message has been sent successfully. We'll get back to you soon.", body["message"])
	require.Len(t, h.store.contacts, 1)
	assert.Equal(t, "Ana", h.store.contacts[0].Name)
}

func TestCreateContactValidation(t *testing.T) {
	h := newHarness(t)
	rec := h.do(jsonRequest(http.MethodPost, "/api/contact", `{"name":"Ana","email":"not-an-email","message":""}`))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	fields := decodeBody(t, rec)["fields"].(map[string]any)
	assert.Equal(t, "Please enter a valid email address", fields["email"])
	assert.Equal(t, "Message is required", fields["message"])
	assert.Empty(t, h.store.contacts)
}

func TestCreateContactStoreFailure(t *testing.T) {
	h := newHarness(t)
	h.store.contactErr = errors.New("failed to send message: no primary")

	rec := h.do(jsonRequest(http.MethodPost, "/api/contact", `{"name":"Ana","email":"ana@example.com","message":"Hi"}`))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "failed to send message: no primary", decodeBody(t, rec)["error"])
}
