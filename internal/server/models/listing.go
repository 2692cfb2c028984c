package models

import "time"

// Listing is a rentable property. Creator is filled in on read from
// CreatorID and is never persisted.
type Listing struct {
	ID        string      `json:"_id" bson:"_id"`
	CreatorID string      `json:"creatorId" bson:"creator"`
	Creator   *PublicUser `json:"creator" bson:"-"`

	Category      string `json:"category" bson:"category"`
	StreetAddress string `json:"streetAddress" bson:"streetAddress"`
	City          string `json:"city" bson:"city"`
	Province      string `json:"province" bson:"province"`
	Country       string `json:"country" bson:"country"`

	GuestCount    int `json:"guestCount" bson:"guestCount"`
	BedroomCount  int `json:"bedroomCount" bson:"bedroomCount"`
	BedCount      int `json:"bedCount" bson:"bedCount"`
	BathroomCount int `json:"bathroomCount" bson:"bathroomCount"`

	Amenities  []string `json:"amenities" bson:"amenities"`
	PhotoPaths []string `json:"listingPhotoPaths" bson:"listingPhotoPaths"`

	Title         string  `json:"title" bson:"title"`
	Description   string  `json:"description" bson:"description"`
	Highlight     string  `json:"highlight" bson:"highlight"`
	HighlightDesc string  `json:"highlightDesc" bson:"highlightDesc"`
	Price         float64 `json:"price" bson:"price"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// ListingInput holds every caller-replaceable listing field. Update writes
// all of them, so a field left at its zero value clears the stored one.
type ListingInput struct {
	Category      string
	StreetAddress string
	City          string
	Province      string
	Country       string
	GuestCount    int
	BedroomCount  int
	BedCount      int
	BathroomCount int
	Amenities     []string
	Title         string
	Description   string
	Highlight     string
	HighlightDesc string
	Price         float64
}

// Apply overwrites the replaceable fields of l with in.
func (in ListingInput) Apply(l *Listing) {
	l.Category = in.Category
	l.StreetAddress = in.StreetAddress
	l.City = in.City
	l.Province = in.Province
	l.Country = in.Country
	l.GuestCount = in.GuestCount
	l.BedroomCount = in.BedroomCount
	l.BedCount = in.BedCount
	l.BathroomCount = in.BathroomCount
	l.Amenities = append([]string{}, in.Amenities...)
	l.Title = in.Title
	l.Description = in.Description
	l.Highlight = in.Highlight
	l.HighlightDesc = in.HighlightDesc
	l.Price = in.Price
}

// Clone returns a deep copy of l.
func (l *Listing) Clone() *Listing {
	c := *l
	c.Amenities = append([]string(nil), l.Amenities...)
	c.PhotoPaths = append([]string(nil), l.PhotoPaths...)
	if l.Creator != nil {
		creator := *l.Creator
		c.Creator = &creator
	}
	return &c
}
