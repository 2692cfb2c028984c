// Package rest exposes the user and listing services over HTTP with gin.
package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/rentals/internal/logging"
	"github.com/dmitrijs2005/rentals/internal/server/models"
	"github.com/dmitrijs2005/rentals/internal/server/services"
	"github.com/dmitrijs2005/rentals/internal/server/uploads"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

// UserService is the part of services.UserService used by the handlers.
type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	GetUser(ctx context.Context, id string) (*models.PublicUser, error)
	UserIDFromToken(token string) (string, error)
}

// ListingService is the part of services.ListingService used by the handlers.
type ListingService interface {
	Create(ctx context.Context, creatorID string, in models.ListingInput, photos []uploads.Attachment) (*models.Listing, error)
	Update(ctx context.Context, id string, in models.ListingInput, photos []uploads.Attachment) (*models.Listing, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*models.Listing, error)
	List(ctx context.Context, category string) ([]*models.Listing, error)
	Search(ctx context.Context, term string) ([]*models.Listing, error)
}

// Options tune the middleware stack.
type Options struct {
	RequireAuth    bool
	RequestTimeout time.Duration
	AuthRateLimit  float64
	AuthRateBurst  int
}

type HTTPServer struct {
	address  string
	logger   logging.Logger
	users    UserService
	listings ListingService
	photos   uploads.Store
	opts     Options
}

func NewHTTPServer(address string, l logging.Logger, us UserService, ls ListingService, photos uploads.Store, opts Options) *HTTPServer {
	useWireFieldNames()
	return &HTTPServer{
		address:  address,
		logger:   l.With("module", "http_server"),
		users:    us,
		listings: ls,
		photos:   photos,
		opts:     opts,
	}
}

// Router builds the gin engine with every route registered.
func (s *HTTPServer) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), requestTimeout(s.opts.RequestTimeout))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authGroup := r.Group("/auth")
	if s.opts.AuthRateLimit > 0 {
		authGroup.Use(newIPRateLimiter(s.opts.AuthRateLimit, s.opts.AuthRateBurst).middleware())
	}
	authGroup.POST("/register", s.register)
	authGroup.POST("/login", s.login)
	authGroup.GET("/me", s.bearerAuth(), s.me)

	props := r.Group("/properties")
	props.GET("", s.listListings)
	props.GET("/search/:search", s.searchListings)
	props.GET("/:listingId", s.getListing)

	guarded := props.Group("")
	if s.opts.RequireAuth {
		guarded.Use(s.bearerAuth())
	}
	guarded.POST("/create", s.createListing)
	guarded.PUT("/:listingId/edit", s.updateListing)
	guarded.DELETE("/:listingId/delete", s.deleteListing)

	r.GET("/uploads/*path", s.servePhoto)

	return r
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	done := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		done <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return <-done
}
