package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Price       float64            `bson:"price" json:"price"`
	Category    string             `bson:"category" json:"category"`
	SubCategory string             `bson:"subCategory" json:"subCategory"`
	Brand       string             `bson:"brand,omitempty" json:"brand,omitempty"`
	Type        string             `bson:"type,omitempty" json:"type,omitempty"`
	Image1      string             `bson:"image1" json:"image1"`
	Image2      string             `bson:"image2" json:"image2"`
	Image3      string             `bson:"image3" json:"image3"`
	Image4      string             `bson:"image4" json:"image4"`
	BestSeller  bool               `bson:"bestSeller" json:"bestSeller"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// SetImage sets the image URL for slot 1..4.
func (p *Product) SetImage(slot int, url string) {
	switch slot {
	case 1:
		p.Image1 = url
	case 2:
		p.Image2 = url
	case 3:
		p.Image3 = url
	case 4:
		p.Image4 = url
	}
}

// ProductFilter narrows a product listing. Zero values mean "any".
type ProductFilter struct {
	Category    string
	SubCategory string
	BestSeller  *bool
	Keywords    []string
	SortField   string
	SortDesc    bool
	Page        int
	PerPage     int
}

type ProductPage struct {
	Products []Product `json:"products"`
	Total    int64     `json:"total"`
	Page     int       `json:"page"`
	PerPage  int       `json:"perPage"`
}
