package rest

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/dmitrijs2005/rentals/internal/common"
	"github.com/dmitrijs2005/rentals/internal/server/models"
	"github.com/dmitrijs2005/rentals/internal/server/uploads"
	"github.com/gin-gonic/gin"
)

// bindListing parses the multipart form. It writes the 400 response itself
// and reports false when the form is unusable.
func bindListing(c *gin.Context) (listingForm, models.ListingInput, bool) {
	var f listingForm
	if err := c.ShouldBind(&f); err != nil {
		writeError(c, http.StatusBadRequest, "Invalid listing data", errors.New(validationMessage(err)))
		return f, models.ListingInput{}, false
	}
	in, err := f.input()
	if err != nil {
		writeError(c, http.StatusBadRequest, "Invalid listing data", err)
		return f, models.ListingInput{}, false
	}
	return f, in, true
}

func photoFiles(c *gin.Context) []*multipart.FileHeader {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	return form.File[photosField]
}

func (s *HTTPServer) saveAttachments(ctx context.Context, files []*multipart.FileHeader) ([]uploads.Attachment, error) {
	out := make([]uploads.Attachment, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		att, err := s.photos.Save(ctx, fh.Filename, f)
		_ = f.Close()
		if err != nil {
			s.discardAttachments(ctx, out)
			return nil, err
		}
		out = append(out, att)
	}
	return out, nil
}

// discardAttachments removes uploads that no stored listing refers to.
func (s *HTTPServer) discardAttachments(ctx context.Context, atts []uploads.Attachment) {
	ctx = context.WithoutCancel(ctx)
	for _, a := range atts {
		if err := s.photos.Remove(ctx, a.Path); err != nil {
			s.logger.Warn(ctx, "orphaned upload", "path", a.Path, "error", err)
		}
	}
}

func (s *HTTPServer) createListing(c *gin.Context) {
	ctx := c.Request.Context()

	f, in, ok := bindListing(c)
	if !ok {
		return
	}

	creator := f.Creator
	if creator == "" {
		creator = userIDFromContext(c)
	}
	if creator == "" {
		writeError(c, http.StatusBadRequest, "Invalid listing data", errors.New("creator is required"))
		return
	}

	photos, err := s.saveAttachments(ctx, photoFiles(c))
	if err != nil {
		writeError(c, http.StatusInternalServerError, "Fail to upload photos", err)
		return
	}

	l, err := s.listings.Create(ctx, creator, in, photos)
	if err != nil {
		s.discardAttachments(ctx, photos)
		if errors.Is(err, common.ErrorBadRequest) {
			writeError(c, http.StatusBadRequest, "No file uploaded.", err)
			return
		}
		writeError(c, http.StatusConflict, "Fail to create Listing", err)
		return
	}

	s.logger.Info(ctx, "listing created", "id", l.ID, "photos", len(l.PhotoPaths))
	c.JSON(http.StatusOK, l)
}

func (s *HTTPServer) updateListing(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("listingId")

	_, in, ok := bindListing(c)
	if !ok {
		return
	}

	files := photoFiles(c)
	if len(files) > 0 {
		// avoid storing photos for a listing that does not exist
		if _, err := s.listings.Get(ctx, id); err != nil {
			s.writeUpdateError(c, err)
			return
		}
	}

	photos, err := s.saveAttachments(ctx, files)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "Fail to upload photos", err)
		return
	}

	l, err := s.listings.Update(ctx, id, in, photos)
	if err != nil {
		s.discardAttachments(ctx, photos)
		s.writeUpdateError(c, err)
		return
	}

	c.JSON(http.StatusOK, l)
}

func (s *HTTPServer) writeUpdateError(c *gin.Context, err error) {
	if errors.Is(err, common.ErrorNotFound) {
		writeError(c, http.StatusNotFound, "Listing not found", err)
		return
	}
	writeError(c, http.StatusInternalServerError, "Failed to update listing", err)
}

func (s *HTTPServer) deleteListing(c *gin.Context) {
	err := s.listings.Delete(c.Request.Context(), c.Param("listingId"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, messageResponse{Message: "Listing deleted successfully"})
	case errors.Is(err, common.ErrorNotFound):
		writeError(c, http.StatusNotFound, "Listing not found", err)
	default:
		writeError(c, http.StatusInternalServerError, "Internal server error", err)
	}
}

func (s *HTTPServer) getListing(c *gin.Context) {
	l, err := s.listings.Get(c.Request.Context(), c.Param("listingId"))
	if err != nil {
		writeError(c, http.StatusNotFound, "Listing can not found!", err)
		return
	}
	c.JSON(http.StatusAccepted, l)
}

func (s *HTTPServer) listListings(c *gin.Context) {
	ls, err := s.listings.List(c.Request.Context(), c.Query("category"))
	if err != nil {
		writeError(c, http.StatusNotFound, "Fail to fetch listings", err)
		return
	}
	c.JSON(http.StatusOK, ls)
}

func (s *HTTPServer) searchListings(c *gin.Context) {
	ls, err := s.listings.Search(c.Request.Context(), c.Param("search"))
	if err != nil {
		writeError(c, http.StatusNotFound, "Fail to fetch listings", err)
		return
	}
	c.JSON(http.StatusOK, ls)
}

func (s *HTTPServer) servePhoto(c *gin.Context) {
	loc, err := s.photos.Locate(c.Request.Context(), c.Param("path"))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeError(c, http.StatusNotFound, "Photo not found", err)
			return
		}
		writeError(c, http.StatusInternalServerError, "Failed to load photo", err)
		return
	}

	if loc.URL != "" {
		c.Redirect(http.StatusFound, loc.URL)
		return
	}
	c.File(loc.File)
}
