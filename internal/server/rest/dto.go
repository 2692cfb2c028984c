package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/dmitrijs2005/rentals/internal/server/models"
	"github.com/dmitrijs2005/rentals/internal/server/services"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type registerRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
}

func (r registerRequest) input() services.RegisterInput {
	return services.RegisterInput{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Password:  r.Password,
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type registerResponse struct {
	Message string             `json:"message"`
	User    *models.PublicUser `json:"user"`
}

type loginResponse struct {
	Token string             `json:"token"`
	User  *models.PublicUser `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// listingForm is the multipart body of the create and edit routes. Photos
// travel in the same form under photosField.
type listingForm struct {
	Creator       string   `form:"creator"`
	Category      string   `form:"category"`
	StreetAddress string   `form:"streetAddress"`
	City          string   `form:"city"`
	Province      string   `form:"province"`
	Country       string   `form:"country"`
	GuestCount    int      `form:"guestCount" binding:"gte=0"`
	BedroomCount  int      `form:"bedroomCount" binding:"gte=0"`
	BedCount      int      `form:"bedCount" binding:"gte=0"`
	BathroomCount int      `form:"bathroomCount" binding:"gte=0"`
	Amenities     []string `form:"amenities"`
	Title         string   `form:"title"`
	Description   string   `form:"description"`
	Highlight     string   `form:"highlight"`
	HighlightDesc string   `form:"highlightDesc"`
	Price         float64  `form:"price" binding:"gte=0"`
}

const photosField = "listingPhotos"

func (f listingForm) input() (models.ListingInput, error) {
	amenities, err := parseAmenities(f.Amenities)
	if err != nil {
		return models.ListingInput{}, err
	}
	return models.ListingInput{
		Category:      f.Category,
		StreetAddress: f.StreetAddress,
		City:          f.City,
		Province:      f.Province,
		Country:       f.Country,
		GuestCount:    f.GuestCount,
		BedroomCount:  f.BedroomCount,
		BedCount:      f.BedCount,
		BathroomCount: f.BathroomCount,
		Amenities:     amenities,
		Title:         f.Title,
		Description:   f.Description,
		Highlight:     f.Highlight,
		HighlightDesc: f.HighlightDesc,
		Price:         f.Price,
	}, nil
}

// parseAmenities accepts repeated form values or a single JSON array.
func parseAmenities(values []string) ([]string, error) {
	if len(values) == 1 && strings.HasPrefix(strings.TrimSpace(values[0]), "[") {
		var out []string
		if err := json.Unmarshal([]byte(values[0]), &out); err != nil {
			return nil, fmt.Errorf("amenities: %w", err)
		}
		return out, nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out, nil
}

var registerTagNames sync.Once

// useWireFieldNames makes validation errors report json/form names.
func useWireFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
	})
}

// validationMessage turns binding errors into a short readable message.
func validationMessage(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}

	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fe.Field()+" is required")
		case "email":
			parts = append(parts, fe.Field()+" must be a valid email")
		case "gte":
			parts = append(parts, fe.Field()+" must be at least "+fe.Param())
		default:
			parts = append(parts, fe.Field()+" is invalid")
		}
	}
	return strings.Join(parts, "; ")
}
