// Package types defines the domain entities, request parameters and error
// kinds shared by every toi package.
package types

import (
	"strings"
	"time"
)

// Note is free-form text the user asked to remember.
type Note struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Todo is an actionable item with optional due and completion times.
type Todo struct {
	ID          int64      `json:"id"`
	Item        string     `json:"item"`
	CreatedAt   time.Time  `json:"created_at"`
	DueAt       *time.Time `json:"due_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

// Contact is a person the user knows.
type Contact struct {
	ID           int64     `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     *string   `json:"last_name"`
	Email        *string   `json:"email"`
	Phone        *string   `json:"phone"`
	Birthday     *Date     `json:"birthday"`
	Relationship *string   `json:"relationship"`
	CreatedAt    time.Time `json:"created_at"`
}

// Text is the canonical projection used for embedding and reranking.
// Unset fields are skipped.
func (c Contact) Text() string {
	return ContactText(c.FirstName, c.LastName, c.Email, c.Phone, c.Birthday, c.Relationship)
}

// ContactText builds the contact projection from its parts.
func ContactText(firstName string, lastName, email, phone *string, birthday *Date, relationship *string) string {
	lines := []string{"First Name: " + firstName}
	if lastName != nil {
		lines = append(lines, "Last Name: "+*lastName)
	}
	if email != nil {
		lines = append(lines, "Email: "+*email)
	}
	if phone != nil {
		lines = append(lines, "Phone: "+*phone)
	}
	if birthday != nil {
		lines = append(lines, "Birthday: "+birthday.String())
	}
	if relationship != nil {
		lines = append(lines, "Relationship: "+*relationship)
	}
	return strings.Join(lines, "\n")
}

// Event is a calendar entry.
type Event struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// Place is a location the user cares about.
type Place struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Address     *string   `json:"address"`
	Phone       *string   `json:"phone"`
	CreatedAt   time.Time `json:"created_at"`
}

// Text is the canonical projection used for embedding and reranking.
func (p Place) Text() string {
	return PlaceText(p.Name, p.Description, p.Address, p.Phone)
}

// PlaceText builds the place projection from its parts.
func PlaceText(name, description string, address, phone *string) string {
	lines := []string{"Name: " + name, "Description: " + description}
	if address != nil {
		lines = append(lines, "Address: "+*address)
	}
	if phone != nil {
		lines = append(lines, "Phone: "+*phone)
	}
	return strings.Join(lines, "\n")
}

// Tag is a short label attached to recipes.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Recipe is a full recipe.
type Recipe struct {
	ID           int64     `json:"id"`
	Description  string    `json:"description"`
	Ingredients  string    `json:"ingredients"`
	Instructions string    `json:"instructions"`
	CreatedAt    time.Time `json:"created_at"`
}

// RecipePreview is a recipe without its ingredients and instructions.
type RecipePreview struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// RecipeTags pairs a recipe with some of its tags.
type RecipeTags struct {
	RecipePreview RecipePreview `json:"recipe_preview"`
	Tags          []Tag         `json:"tags"`
}

// BankAccount is a named account.
type BankAccount struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Transaction is a posted amount in a bank account.
type Transaction struct {
	ID            int64     `json:"id"`
	BankAccountID int64     `json:"bank_account_id"`
	Description   string    `json:"description"`
	Amount        float32   `json:"amount"`
	PostedAt      time.Time `json:"posted_at"`
}

// BankAccountTransaction is the result of adding a transaction to an account.
type BankAccountTransaction struct {
	BankAccount BankAccount `json:"bank_account"`
	Transaction Transaction `json:"transaction"`
}

// BankAccountHistory pairs an account with some of its transactions.
type BankAccountHistory struct {
	BankAccount  BankAccount   `json:"bank_account"`
	Transactions []Transaction `json:"transactions"`
}

// Attendees pairs an event with some of the contacts attending it.
type Attendees struct {
	Event    Event     `json:"event"`
	Contacts []Contact `json:"contacts"`
}

// NewsItem is a headline whose link points at an aliased redirect.
type NewsItem struct {
	Title       string     `json:"title"`
	Source      string     `json:"source,omitempty"`
	URL         string     `json:"url"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}
