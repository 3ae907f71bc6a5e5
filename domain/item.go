package domain

import (
	"fmt"
	"strings"
)

// Category values accepted by the backend.
const (
	CategoryPizza     = "pizza"
	CategoryBebida    = "bebida"
	CategorySobremesa = "sobremesa"
	CategoryEntrada   = "entrada"
	CategoryCombo     = "combo"
)

// CategoryAll disables category filtering in catalog views.
const CategoryAll = "all"

var (
	validCategories = []string{CategoryPizza, CategoryBebida, CategorySobremesa, CategoryEntrada, CategoryCombo}
	validSizes      = []string{"pequena", "media", "grande", "familia", "unico", "350ml", "500ml", "1l", "2l"}
)

// MenuItem is the read-only projection of a menu entry.
type MenuItem struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	Category        string    `json:"category"`
	Size            string    `json:"size,omitempty"`
	Price           float64   `json:"price"`
	IsAvailable     bool      `json:"is_available"`
	Calories        *int      `json:"calories,omitempty"`
	PreparationTime *int      `json:"preparation_time,omitempty"`
	ImageURL        string    `json:"image_url,omitempty"`
	Ingredients     string    `json:"ingredients,omitempty"`
	Allergens       string    `json:"allergens,omitempty"`
	CreatedAt       Timestamp `json:"created_at"`
	UpdatedAt       Timestamp `json:"updated_at"`
}

// Category is a menu category with its item count.
type Category struct {
	Name  string `json:"name"`
	Count int    `json:"count,omitempty"`
}

// ItemInput is the admin payload for creating or editing a menu item.
type ItemInput struct {
	Name            string  `json:"name"`
	Description     string  `json:"description,omitempty"`
	Category        string  `json:"category"`
	Size            string  `json:"size"`
	Price           float64 `json:"price"`
	IsAvailable     bool    `json:"is_available"`
	Calories        *int    `json:"calories,omitempty"`
	PreparationTime *int    `json:"preparation_time,omitempty"`
	ImageURL        string  `json:"image_url,omitempty"`
	Ingredients     string  `json:"ingredients,omitempty"`
	Allergens       string  `json:"allergens,omitempty"`
}

// Validate applies the same constraints the backend enforces so obviously
// bad input never leaves the client.
func (in ItemInput) Validate() error {
	if len(strings.TrimSpace(in.Name)) < 2 {
		return NewError(ErrCodeValidation, "item name must have at least 2 characters")
	}
	if in.Price <= 0 {
		return NewError(ErrCodeValidation, "item price must be greater than zero")
	}
	if !IsValidCategory(in.Category) {
		return NewError(ErrCodeValidation, fmt.Sprintf("unknown category %q", in.Category))
	}
	if in.Size != "" && !contains(validSizes, in.Size) {
		return NewError(ErrCodeValidation, fmt.Sprintf("unknown size %q", in.Size))
	}
	if in.PreparationTime != nil && *in.PreparationTime <= 0 {
		return NewError(ErrCodeValidation, "preparation time must be positive")
	}
	if in.Calories != nil && *in.Calories <= 0 {
		return NewError(ErrCodeValidation, "calories must be positive")
	}
	return nil
}

// InputFromItem copies the editable fields of an existing item.
func InputFromItem(item MenuItem) ItemInput {
	return ItemInput{
		Name:            item.Name,
		Description:     item.Description,
		Category:        item.Category,
		Size:            item.Size,
		Price:           item.Price,
		IsAvailable:     item.IsAvailable,
		Calories:        item.Calories,
		PreparationTime: item.PreparationTime,
		ImageURL:        item.ImageURL,
		Ingredients:     item.Ingredients,
		Allergens:       item.Allergens,
	}
}

func IsValidCategory(category string) bool {
	return contains(validCategories, category)
}

// Categories lists the categories known to the backend.
func Categories() []string {
	return append([]string(nil), validCategories...)
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// ItemRemoval is the outcome of deleting a menu item. Items referenced by
// past orders are deactivated instead of removed.
type ItemRemoval struct {
	Message     string
	Deactivated bool
}
