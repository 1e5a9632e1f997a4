package handlers

import (
	"net/http"
	"strings"

	"github.com/faysalsarker-dev/piercing-cms/internal/apiclient"
	"github.com/faysalsarker-dev/piercing-cms/internal/preferences"
	"github.com/faysalsarker-dev/piercing-cms/internal/resources"
	"github.com/faysalsarker-dev/piercing-cms/pkg/logging"
)

// NavItem is one sidebar link.
type NavItem struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

// ShellResponse is what the layout shell renders around every page.
type ShellResponse struct {
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	DarkMode bool      `json:"darkMode"`
	Nav      []NavItem `json:"nav"`
}

// ShellHandler serves the layout shell and the dark-mode preference.
type ShellHandler struct {
	prefs     *preferences.Store
	catalog   resources.Catalog
	adminRole string
	logger    *logging.Logger
}

func NewShellHandler(prefs *preferences.Store, catalog resources.Catalog, adminRole string, logger *logging.Logger) *ShellHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ShellHandler{prefs: prefs, catalog: catalog, adminRole: adminRole, logger: logger.Component("shell")}
}

var navLayout = []struct {
	NavItem
	entity string
}{
	{NavItem{"Weekly schedule", "/schedule/weekly"}, ""},
	{NavItem{"Override schedule", "/schedule/overrides"}, ""},
	{NavItem{"Booking calendar", "/bookings/calendar"}, ""},
	{NavItem{"Bookings", "/bookings"}, ""},
	{NavItem{"Stocks", "/stocks"}, "stocks"},
	{NavItem{"Sales", "/sales"}, "sales"},
	{NavItem{"Sales report", "/reports/sales"}, "sales"},
	{NavItem{"Orders", "/orders"}, "orders"},
	{NavItem{"Categories", "/categories"}, "categories"},
	{NavItem{"Users", "/users"}, "users"},
	{NavItem{"Blogs", "/blogs"}, "blogs"},
	{NavItem{"Gallery", "/gallery"}, "gallery"},
	{NavItem{"Price lists", "/price-lists"}, "price-lists"},
	{NavItem{"FAQs", "/faqs"}, "faqs"},
	{NavItem{"Offer banners", "/banners"}, "banners"},
}

func (h *ShellHandler) nav(isAdmin bool) []NavItem {
	items := make([]NavItem, 0, len(navLayout))
	for _, it := range navLayout {
		if it.entity != "" {
			def, err := h.catalog.Lookup(it.entity)
			if err != nil || (def.AdminOnly && !isAdmin) {
				continue
			}
		}
		items = append(items, it.NavItem)
	}
	return items
}

// Shell handles GET /api/shell.
func (h *ShellHandler) Shell(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspace(w, r)
	if !ok {
		return
	}
	role, err := ws.Role(r.Context())
	if apiclient.IsAuthError(err) {
		respondError(w, h.logger, err, nil)
		return
	}
	if err != nil {
		// The shell still renders; admin-only links stay hidden.
		h.logger.Warn("role lookup failed", "email", ws.Identity.Email, "error", err)
	}
	prefs, err := h.prefs.Get(r.Context(), ws.Identity.Subject)
	if err != nil {
		h.logger.Warn("preferences lookup failed", "email", ws.Identity.Email, "error", err)
	}
	writeJSON(w, http.StatusOK, ShellResponse{
		Email:    ws.Identity.Email,
		Role:     role,
		DarkMode: prefs.DarkMode,
		Nav:      h.nav(strings.EqualFold(role, h.adminRole)),
	})
}

// GetPreferences handles GET /api/preferences.
func (h *ShellHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspace(w, r)
	if !ok {
		return
	}
	prefs, err := h.prefs.Get(r.Context(), ws.Identity.Subject)
	if err != nil {
		h.logger.Error("preferences lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not load preferences")
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

// PutPreferences handles PUT /api/preferences.
func (h *ShellHandler) PutPreferences(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspace(w, r)
	if !ok {
		return
	}
	var prefs preferences.Preferences
	if !decodeJSON(w, r, &prefs) {
		return
	}
	if err := h.prefs.Put(r.Context(), ws.Identity.Subject, prefs); err != nil {
		h.logger.Error("preferences save failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not save preferences")
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}
