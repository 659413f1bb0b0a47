package types

import (
	"strconv"
	"strings"
	"time"
)

// required rejects blank text fields.
func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return Validation("%s is required", field)
	}
	return nil
}

// notBlank rejects a field that is present but blank.
func notBlank(field string, value *string) error {
	if value != nil && strings.TrimSpace(*value) == "" {
		return Validation("%s must not be empty", field)
	}
	return nil
}

func requiredTime(field string, value time.Time) error {
	if value.IsZero() {
		return Validation("%s is required", field)
	}
	return nil
}

func ordered(startsAt, endsAt *time.Time) error {
	if startsAt != nil && endsAt != nil && endsAt.Before(*startsAt) {
		return Validation("ends_at must not be before starts_at")
	}
	return nil
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (r NewNoteRequest) Validate() error {
	return required("content", r.Content)
}

func (r UpdateNoteRequest) Validate() error {
	return notBlank("note_updates.content", r.NoteUpdates.Content)
}

func (r NewTodoRequest) Validate() error {
	return required("item", r.Item)
}

func (r UpdateTodoRequest) Validate() error {
	return notBlank("todo_updates.item", r.TodoUpdates.Item)
}

func (r NewContactRequest) Validate() error {
	return required("first_name", r.FirstName)
}

func (r UpdateContactRequest) Validate() error {
	return notBlank("contact_updates.first_name", r.ContactUpdates.FirstName)
}

// Validate requires a description and both ends of the event.
func (r NewEventRequest) Validate() error {
	return firstError(
		required("description", r.Description),
		requiredTime("starts_at", r.StartsAt),
		requiredTime("ends_at", r.EndsAt),
		ordered(&r.StartsAt, &r.EndsAt),
	)
}

func (r UpdateEventRequest) Validate() error {
	u := r.EventUpdates
	return firstError(
		notBlank("event_updates.description", u.Description),
		ordered(u.StartsAt, u.EndsAt),
	)
}

func (r NewPlaceRequest) Validate() error {
	return firstError(
		required("name", r.Name),
		required("description", r.Description),
	)
}

func (r UpdatePlaceRequest) Validate() error {
	return firstError(
		notBlank("place_updates.name", r.PlaceUpdates.Name),
		notBlank("place_updates.description", r.PlaceUpdates.Description),
	)
}

func (r NewTagRequest) Validate() error {
	return required("name", r.Name)
}

func (r UpdateTagRequest) Validate() error {
	return notBlank("tag_updates.name", r.TagUpdates.Name)
}

func (r NewRecipeRequest) Validate() error {
	if err := firstError(
		required("description", r.Description),
		required("ingredients", r.Ingredients),
		required("instructions", r.Instructions),
	); err != nil {
		return err
	}
	for i, name := range r.Tags {
		if err := required("tags["+strconv.Itoa(i)+"]", name); err != nil {
			return err
		}
	}
	return nil
}

func (r UpdateRecipeRequest) Validate() error {
	u := r.RecipeUpdates
	return firstError(
		notBlank("recipe_updates.description", u.Description),
		notBlank("recipe_updates.ingredients", u.Ingredients),
		notBlank("recipe_updates.instructions", u.Instructions),
	)
}

// Validate requires at least one tag name.
func (r NewRecipeTagsRequest) Validate() error {
	if len(r.Tags) == 0 {
		return Validation("tags is required")
	}
	for i, name := range r.Tags {
		if err := required("tags["+strconv.Itoa(i)+"]", name); err != nil {
			return err
		}
	}
	return nil
}

func (r NewBankAccountRequest) Validate() error {
	return required("description", r.Description)
}

func (r UpdateBankAccountRequest) Validate() error {
	return notBlank("bank_account_updates.description", r.BankAccountUpdates.Description)
}

func (r NewBankAccountTransactionRequest) Validate() error {
	return required("transaction_description", r.TransactionDescription)
}

func (r UpdateTransactionRequest) Validate() error {
	return notBlank("transaction_updates.description", r.TransactionUpdates.Description)
}
