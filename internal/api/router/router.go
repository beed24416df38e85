package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/arcticflow-dispatch/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/arcticflow-dispatch/internal/http/middleware"
	"github.com/wolfman30/arcticflow-dispatch/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger       *logging.Logger
	Bookings     *handlers.BookingsHandler
	Staff        *handlers.StaffHandler
	Availability *handlers.AvailabilityHandler
	Finance      *handlers.FinanceHandler
	Chat         *handlers.ChatHandler
	Outbound     *handlers.OutboundHandler

	AuthSecret         string
	WebhookSecret      string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// Public chat limits per client IP. Zero rate disables limiting.
	ChatRatePerSecond float64
	ChatBurst         int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints (customer chat, provider webhooks, health checks)
	r.Group(func(public chi.Router) {
		public.Get("/health", health)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.Outbound != nil {
			public.With(requireWebhookSecret(cfg.WebhookSecret)).Post("/webhooks/vapi", cfg.Outbound.Webhook)
		}
		if cfg.Chat != nil {
			public.Group(func(chat chi.Router) {
				if cfg.ChatRatePerSecond > 0 {
					chat.Use(httpmiddleware.RateLimit(cfg.ChatRatePerSecond, cfg.ChatBurst))
				}
				chat.Post("/chat/sessions", cfg.Chat.Start)
				chat.Post("/chat/sessions/{id}/messages", cfg.Chat.Message)
				chat.Delete("/chat/sessions/{id}", cfg.Chat.End)
				chat.Get("/voice/ws", cfg.Chat.Voice)
			})
		}
	})

	if cfg.AuthSecret == "" {
		return r
	}

	// Admin routes (dashboard)
	r.Route("/admin", func(admin chi.Router) {
		admin.Use(httpmiddleware.AdminJWT(cfg.AuthSecret))
		if b := cfg.Bookings; b != nil {
			admin.Get("/bookings", b.List)
			admin.Post("/bookings", b.Create)
			admin.Route("/bookings/{id}", func(job chi.Router) {
				job.Get("/", b.Get)
				job.Put("/", b.Update)
				job.Delete("/", b.Delete)
				job.Post("/assign", b.Reassign)
				job.Post("/cancel", b.Cancel)
				job.Post("/notes", b.AddNote)
				job.Post("/payments", b.RecordPayment)
				job.Post("/line-items", b.AddLineItem)
				job.Put("/labor", b.SetLabor)
				job.Put("/equipment", b.SetEquipment)
				job.Post("/attachments", b.AddAttachment)
				if f := cfg.Finance; f != nil {
					job.Get("/financials", f.Summary)
					job.Get("/invoice", f.Invoice)
					job.Post("/invoice", f.CommitCharges)
				}
			})
			admin.Get("/staff/{id}/jobs", b.StaffJobs)
		}
		if s := cfg.Staff; s != nil {
			admin.Get("/staff", s.List)
			admin.Post("/staff", s.Enlist)
			admin.Get("/staff/{id}", s.Get)
			admin.Post("/staff/{id}/toggle", s.Toggle)
			admin.Put("/staff/{id}/status", s.SetStatus)
		}
		if a := cfg.Availability; a != nil {
			admin.Get("/availability", a.Available)
			admin.Get("/availability/summary", a.Summary)
		}
		if f := cfg.Finance; f != nil {
			admin.Get("/settings", f.GetSettings)
			admin.Put("/settings", f.PutSettings)
		}
		if c := cfg.Chat; c != nil {
			admin.Get("/directive", c.GetDirective)
			admin.Put("/directive", c.PutDirective)
			admin.Get("/conversations/{id}", c.Transcript)
		}
		if o := cfg.Outbound; o != nil {
			admin.Post("/calls", o.Start)
			admin.Get("/calls", o.Recent)
			admin.Get("/calls/{id}", o.Get)
		}
	})

	// Technician routes (field app)
	if b := cfg.Bookings; b != nil {
		r.Route("/staff", func(staff chi.Router) {
			staff.Use(httpmiddleware.StaffJWT(cfg.AuthSecret))
			staff.Get("/jobs", b.MyJobs)
			staff.Route("/jobs/{id}", func(job chi.Router) {
				job.Get("/", b.Get)
				job.Post("/start", b.Start)
				job.Post("/complete", b.Complete)
				job.Post("/notes", b.AddNote)
				job.Post("/payments", b.RecordPayment)
				job.Put("/labor", b.SetLabor)
				job.Put("/equipment", b.SetEquipment)
				job.Post("/attachments", b.AddAttachment)
			})
		})
	}

	return r
}

func health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
