package main

import (
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/gatekeeper"
	"github.com/dmitrymomot/gatekeeper/pkg/auth"
)

var pageTmpl = template.Must(template.New("page").Parse(`<!doctype html>
<html>
<head><title>{{.Title}} | Eazy School</title></head>
<body>
<nav>
<a href="/">Home</a> <a href="/courses">Courses</a> <a href="/holidays/all">Holidays</a>
<a href="/contact">Contact</a> <a href="/about">About</a>
{{if .User}}<a href="/dashboard">Dashboard</a> <a href="/logout">Logout</a>{{else}}<a href="/login">Login</a>{{end}}
</nav>
<h1>{{.Title}}</h1>
{{if .Message}}<p class="message">{{.Message}}</p>{{end}}
{{range .Lines}}<p>{{.}}</p>
{{end}}
{{if .LoginForm}}<form method="post" action="/login">
<input name="username" placeholder="Username">
<input name="password" type="password" placeholder="Password">
<button type="submit">Login</button>
</form>{{end}}
{{if .ContactForm}}<form method="post" action="/saveMsg">
<input name="name" placeholder="Name">
<input name="email" placeholder="Email">
<textarea name="message"></textarea>
<button type="submit">Send</button>
</form>{{end}}
</body>
</html>
`))

type page struct {
	Title       string
	User        string
	Message     string
	Lines       []string
	LoginForm   bool
	ContactForm bool
}

type holiday struct {
	Day    string
	Reason string
	Kind   string
}

var holidays = []holiday{
	{"Jan 1", "New Year's Day", "festival"},
	{"Oct 31", "Halloween", "festival"},
	{"Nov 24", "Thanksgiving Day", "festival"},
	{"Dec 25", "Christmas", "festival"},
	{"Jan 17", "Martin Luther King Jr. Day", "federal"},
	{"July 4", "Independence Day", "federal"},
	{"Sep 5", "Labor Day", "federal"},
	{"Nov 11", "Veterans Day", "federal"},
}

type site struct {
	log *slog.Logger
}

func (s *site) routes(r chi.Router) {
	r.Get("/", s.static("Home", "Welcome to Eazy School."))
	r.Get("/home", s.static("Home", "Welcome to Eazy School."))
	r.Get("/courses", s.static("Courses", "Math, Science, Art and Music."))
	r.Get("/about", s.static("About", "Eazy School has been teaching since 2001."))
	r.Get("/contact", s.contact)
	r.Post("/saveMsg", s.saveMsg)
	r.Get("/holidays", s.holidays)
	r.Get("/holidays/{display}", s.holidays)
	r.Get("/login", s.login)
	r.Get("/dashboard", s.dashboard)
	r.Get("/admin", s.admin)
	r.Get("/admin/*", s.admin)
}

func (s *site) static(title string, lines ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, r, page{Title: title, Lines: lines})
	}
}

func (s *site) contact(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, page{Title: "Contact", ContactForm: true})
}

func (s *site) saveMsg(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	s.log.InfoContext(r.Context(), "contact message received",
		slog.String("name", r.PostForm.Get("name")),
		slog.String("email", r.PostForm.Get("email")),
	)
	http.Redirect(w, r, "/contact", http.StatusFound)
}

func (s *site) holidays(w http.ResponseWriter, r *http.Request) {
	display := chi.URLParam(r, "display")
	var lines []string
	for _, h := range holidays {
		if display == "" || display == "all" || display == h.Kind {
			lines = append(lines, h.Day+": "+h.Reason)
		}
	}
	s.render(w, r, page{Title: "Holidays", Lines: lines})
}

func (s *site) login(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, page{Title: "Login", Message: auth.Message(r.URL.Query()), LoginForm: true})
}

func (s *site) dashboard(w http.ResponseWriter, r *http.Request) {
	sess := gatekeeper.SessionFrom(r.Context())
	s.render(w, r, page{
		Title: "Dashboard",
		Lines: []string{
			"Username: " + sess.Identity,
			"Roles: [" + strings.Join(sess.Roles, ", ") + "]",
		},
	})
}

func (s *site) admin(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, page{Title: "Admin", Lines: []string{"Signed in as " + gatekeeper.Principal(r.Context())}})
}

func (s *site) render(w http.ResponseWriter, r *http.Request, p page) {
	p.User = gatekeeper.Principal(r.Context())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTmpl.Execute(w, p); err != nil {
		s.log.ErrorContext(r.Context(), "failed to render page", slog.Any("error", err))
	}
}
