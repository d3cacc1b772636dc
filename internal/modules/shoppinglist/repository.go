package shoppinglist

import "context"

// Repository persists the whole document. Load returns the defaults when no
// document exists yet or the stored one cannot be parsed; an error means the
// storage itself could not be reached. Save overwrites whatever is stored.
type Repository interface {
	Load(ctx context.Context) (*Document, error)
	Save(ctx context.Context, doc *Document) error
}
