package http

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/couchcryptid/sightings/internal/domain"
	"github.com/couchcryptid/sightings/internal/feed"
	"github.com/couchcryptid/sightings/internal/gallery"
	"github.com/couchcryptid/sightings/internal/mapview"
	"github.com/couchcryptid/sightings/internal/media"
	"github.com/couchcryptid/sightings/internal/submission"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"home", "about", "contact", "gallery"}

type pageRenderer struct {
	pages map[string]*template.Template
}

func newPageRenderer() *pageRenderer {
	funcs := template.FuncMap{
		"coords":     domain.CoordinateLabel,
		"thumbnails": gallery.Thumbnails,
		"caption":    gallery.Caption,
		"when":       formatWhen,
		"galleryURL": galleryURL,
	}
	p := &pageRenderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		p.pages[name] = template.Must(template.New("layout.html").Funcs(funcs).ParseFS(
			templateFS, "templates/layout.html", "templates/"+name+".html",
		))
	}
	return p
}

// render executes into a buffer first so a template error never leaves a
// half-written page.
func (p *pageRenderer) render(w http.ResponseWriter, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := p.pages[name].ExecuteTemplate(&buf, "layout.html", data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

func (s *Server) renderPage(w http.ResponseWriter, status int, name string, data any) {
	if err := s.pages.render(w, status, name, data); err != nil {
		s.logger.Error("render page failed", "page", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func formatWhen(ts string) string {
	t, err := domain.ParseTimestamp(ts)
	if err != nil {
		return ts
	}
	return t.UTC().Format("Monday, January 2 at 3:04 PM")
}

func galleryURL(id string, index int) string {
	return "/gallery/" + url.PathEscape(id) + "?i=" + strconv.Itoa(index)
}

// --- home ---

type reportForm struct {
	Location    string
	Latitude    string
	Longitude   string
	Description string
}

func defaultReportForm() reportForm {
	return reportForm{
		Latitude:  strconv.FormatFloat(mapview.DefaultCenterLat, 'f', -1, 64),
		Longitude: strconv.FormatFloat(mapview.DefaultCenterLon, 'f', -1, 64),
	}
}

type homePage struct {
	Title       string
	Form        reportForm
	Errors      map[string]string
	SubmitError string
	UploadError string
	Notice      *submission.Notice
	Feed        feed.Snapshot
	Map         mapview.Settings
	Limits      media.Limits
	MaxImageMB  int64
}

func (s *Server) newHomePage() homePage {
	return homePage{
		Title:      "Home",
		Form:       defaultReportForm(),
		Errors:     map[string]string{},
		Feed:       s.deps.Feed.Snapshot(),
		Map:        s.deps.Map.Settings(),
		Limits:     s.deps.Limits,
		MaxImageMB: s.deps.Limits.MaxImageBytes >> 20,
	}
}

func (s *Server) handleHome(w http.ResponseWriter, _ *http.Request) {
	s.renderPage(w, http.StatusOK, "home", s.newHomePage())
}

func (s *Server) handleHomeSubmit(w http.ResponseWriter, r *http.Request) {
	page := s.newHomePage()

	sub, err := decodeReport(w, r, s.deps.Limits)
	page.Form = reportForm{
		Location:    r.FormValue("location"),
		Latitude:    r.FormValue("latitude"),
		Longitude:   r.FormValue("longitude"),
		Description: r.FormValue("description"),
	}
	if err != nil {
		page.SubmitError = err.Error()
		s.renderPage(w, http.StatusBadRequest, "home", page)
		return
	}

	ctx, cancel := s.submitContext(r)
	defer cancel()

	res, err := s.deps.Submitter.Submit(ctx, sub)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			page.Errors = fieldMap(verr)
			s.renderPage(w, http.StatusUnprocessableEntity, "home", page)
			return
		}
		page.SubmitError = err.Error()
		s.renderPage(w, http.StatusBadGateway, "home", page)
		return
	}

	page.Form = defaultReportForm()
	page.Notice = &res.Notice
	page.UploadError = res.UploadError
	page.Feed = s.refreshFeed(r.Context())
	s.renderPage(w, http.StatusOK, "home", page)
}

func (s *Server) refreshFeed(ctx context.Context) feed.Snapshot {
	ctx, cancel := context.WithTimeout(ctx, s.deps.StoreTimeout)
	defer cancel()
	return s.deps.Feed.Refresh(ctx)
}

// --- about ---

func (s *Server) handleAbout(w http.ResponseWriter, _ *http.Request) {
	s.renderPage(w, http.StatusOK, "about", map[string]string{"Title": "About"})
}

// --- contact ---

type contactPage struct {
	Title  string
	Form   domain.ContactMessage
	Errors map[string]string
	Error  string
	Sent   bool
	Reply  string
}

func (s *Server) handleContactPage(w http.ResponseWriter, _ *http.Request) {
	s.renderPage(w, http.StatusOK, "contact", contactPage{Title: "Contact Us", Errors: map[string]string{}})
}

func (s *Server) handleContactForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	page := contactPage{Title: "Contact Us", Errors: map[string]string{}}
	if err := r.ParseForm(); err != nil {
		page.Error = "invalid form: " + err.Error()
		s.renderPage(w, http.StatusBadRequest, "contact", page)
		return
	}
	page.Form = domain.ContactMessage{
		Name:    r.PostFormValue("name"),
		Email:   r.PostFormValue("email"),
		Message: r.PostFormValue("message"),
	}

	if _, err := s.submitContact(r, page.Form); err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			page.Errors = fieldMap(verr)
			s.renderPage(w, http.StatusUnprocessableEntity, "contact", page)
			return
		}
		page.Error = err.Error()
		s.renderPage(w, http.StatusBadGateway, "contact", page)
		return
	}

	s.renderPage(w, http.StatusOK, "contact", contactPage{Title: "Thank You!", Sent: true, Reply: contactSentReply})
}

// --- gallery ---

type galleryPage struct {
	Title      string
	Report     domain.Report
	Current    string
	Index      int
	Counter    string
	Prev       int
	Next       int
	Multiple   bool
	Thumbnails []gallery.Thumbnail
}

// lookupReport resolves stored reports first and falls back to the sample
// records shown while the store is empty or down.
func (s *Server) lookupReport(r *http.Request, id string) (domain.Report, error) {
	ctx, cancel := s.storeContext(r)
	defer cancel()
	report, err := s.deps.Store.Get(ctx, id)
	if err == nil {
		return report, nil
	}
	if sample, ok := domain.FindSample(id, s.deps.Clock.Now()); ok {
		return sample, nil
	}
	return domain.Report{}, err
}

func (s *Server) handleGallery(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	report, err := s.lookupReport(r, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		s.logger.Warn("gallery lookup failed", "id", id, "error", err)
		http.Error(w, "Failed to load report", http.StatusBadGateway)
		return
	}

	q := r.URL.Query()
	index := 0
	if v := q.Get("i"); v != "" {
		if index, err = strconv.Atoi(v); err != nil {
			http.Error(w, "invalid image index", http.StatusBadRequest)
			return
		}
	}

	viewer := gallery.NewViewer(report.Images)
	if !viewer.Open(index) {
		http.NotFound(w, r)
		return
	}

	if q.Has("backdrop") {
		viewer.ClickBackdrop()
	}
	if key := q.Get("key"); key != "" {
		viewer.HandleKey(key)
	}
	if q.Has("backdrop") || q.Has("key") {
		target := "/"
		if viewer.IsOpen() {
			target = galleryURL(report.ID, viewer.Index())
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}

	s.renderPage(w, http.StatusOK, "gallery", galleryPage{
		Title:      report.Location,
		Report:     report,
		Current:    viewer.Current(),
		Index:      viewer.Index(),
		Counter:    viewer.Counter(),
		Prev:       viewer.PrevIndex(),
		Next:       viewer.NextIndex(),
		Multiple:   len(report.Images) > 1,
		Thumbnails: gallery.Thumbnails(report.Images),
	})
}
