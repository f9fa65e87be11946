package types

import "time"

// Project represents a crowdfunding campaign post.
type Project struct {
	// ID is the unique identifier of the project.
	ID int `json:"id" db:"id"`

	// Title is the campaign headline.
	Title string `json:"title" db:"title"`

	// Content is the campaign body text.
	Content string `json:"content" db:"content"`

	// ImagePath is the fully-qualified public URL of the campaign
	// image produced by the upload handler.
	ImagePath string `json:"imagePath" db:"image_path"`

	// Creator is the ID of the user who created the project. It is
	// set once at creation and never reassigned; mutations match on
	// it for the ownership check but never dereference it.
	Creator int `json:"creator" db:"creator"`

	// CreatedAt is the timestamp when the project was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the project.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
