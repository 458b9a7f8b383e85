package dto

type SubcategoryDTO struct {
	Name             string   `json:"name"              validate:"required,min=1,max=100"`
	SubSubcategories []string `json:"sub_subcategories" validate:"omitempty,dive,min=1,max=100"`
}

type CategoryRequest struct {
	Name          string           `json:"name"          validate:"required,min=1,max=100"`
	Subcategories []SubcategoryDTO `json:"subcategories" validate:"omitempty,dive"`
}

type CategoryResponse struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	ImageKey      *string          `json:"image_key"`
	Subcategories []SubcategoryDTO `json:"subcategories"`
}
