package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names
const (
	PageLogin          = "login"
	PageRegister       = "register"
	PageRegisterTOTP   = "register_totp"
	PageForceReset     = "force_reset"
	PageForgotPassword = "forgot_password"
	PageResetPassword  = "reset_password"
	PageDashboard      = "dashboard"
	PageLogout         = "logout"
)

var pages = []string{
	PageLogin,
	PageRegister,
	PageRegisterTOTP,
	PageForceReset,
	PageForgotPassword,
	PageResetPassword,
	PageDashboard,
	PageLogout,
}

// PageData is what every page template receives
type PageData struct {
	Title       string
	Error       string
	Info        string
	FieldErrors map[string]string
	CSRFToken   string
	Form        map[string]string

	// Page specific
	ResetToken    string
	QRCodeDataURI template.URL
	TOTPSecret    string
	Dashboard     any
}

// Renderer executes the embedded page templates
type Renderer struct {
	templates map[string]*template.Template
	logger    *slog.Logger
}

func NewRenderer(logger *slog.Logger) (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]*template.Template, len(pages)),
		logger:    logger,
	}
	for _, page := range pages {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", page, err)
		}
		r.templates[page] = t
	}
	return r, nil
}

// Render writes page with the given status. The template is executed into a buffer
// first so a failing template never leaves a half-written response.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data PageData) {
	t, ok := r.templates[page]
	if !ok {
		r.logger.Error("unknown page template", slog.String("page", page))
		http.Error(w, "Something went wrong. Please try again later.", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		r.logger.Error("failed to render page", slog.String("page", page), slog.Any("error", err))
		http.Error(w, "Something went wrong. Please try again later.", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
