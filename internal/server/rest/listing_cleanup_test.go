package rest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/dmitrijs2005/rentals/internal/common"
	"github.com/dmitrijs2005/rentals/internal/logging"
	"github.com/dmitrijs2005/rentals/internal/server/config"
	"github.com/dmitrijs2005/rentals/internal/server/models"
	"github.com/dmitrijs2005/rentals/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/rentals/internal/server/services"
	"github.com/dmitrijs2005/rentals/internal/server/uploads"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rejectingListings fails every write after the photos have been stored.
type rejectingListings struct {
	ListingService
	err error
}

func (r rejectingListings) Create(context.Context, string, models.ListingInput, []uploads.Attachment) (*models.Listing, error) {
	return nil, r.err
}

func (r rejectingListings) Update(context.Context, string, models.ListingInput, []uploads.Attachment) (*models.Listing, error) {
	return nil, r.err
}

func (r rejectingListings) Get(_ context.Context, id string) (*models.Listing, error) {
	return &models.Listing{ID: id}, nil
}

func newRejectingServer(t *testing.T, err error) (*gin.Engine, *uploads.DiskStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m := repomanager.NewInMemoryRepositoryManager()
	photos, perr := uploads.NewDiskStore(t.TempDir())
	require.NoError(t, perr)

	srv := NewHTTPServer("127.0.0.1:0", logging.NewJSONSlogLogger(io.Discard, slog.LevelError),
		services.NewUserService(m, &config.Config{SecretKey: testSecret}), rejectingListings{ListingService: services.NewListingService(m), err: err}, photos, Options{})
	return srv.Router(), photos
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func assertNoUploads(t *testing.T, photos *uploads.DiskStore) {
	t.Helper()
	stored, err := os.ReadDir(photos.Dir())
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestCreateListing_StoreFailureRemovesPhotos(t *testing.T) {
	router, photos := newRejectingServer(t, fmt.Errorf("%w: %w", common.ErrorConflict, assert.AnError))

	w := serve(router, multipartRequest(t, http.MethodPost, "/properties/create",
		listingFields(uuid.NewString(), "category", "Cabin"), photo{"a.jpg", "A"}, photo{"b.jpg", "B"}))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Fail to create Listing", decode[errorResponse](t, w).Message)
	assertNoUploads(t, photos)
}

func TestUpdateListing_StoreFailureRemovesPhotos(t *testing.T) {
	router, photos := newRejectingServer(t, common.ErrorNotFound)

	w := serve(router, multipartRequest(t, http.MethodPut, "/properties/"+uuid.NewString()+"/edit",
		listingFields("", "category", "Loft"), photo{"c.jpg", "C"}))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assertNoUploads(t, photos)
}
