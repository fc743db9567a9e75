package analysis

// ColumnNames maps header names to row fields.
type ColumnNames struct {
	ID     string
	Name   string
	Price  string
	Rating string
	// QuantityMatch is matched as a substring of the header after removing
	// whitespace and lower-casing, so "Quantité", "quantite" and "Quantit é" all bind.
	QuantityMatch string
}

// Options controls how a dataset is normalized and checked.
type Options struct {
	Columns ColumnNames
	// StrictHeaders fails the parse when more than one header matches the quantity rule.
	// Otherwise the first matching header wins.
	StrictHeaders bool
	// FlagUnparseable reports non-numeric price and rating cells as anomalies and reads a
	// non-numeric quantity as 0. When false, such cells are silently excluded.
	FlagUnparseable bool
}

// DefaultOptions returns the column layout of the product export
// (ID, Nom, Prix, Quantité, Note_Client).
func DefaultOptions() Options {
	return Options{
		Columns: ColumnNames{
			ID:            "ID",
			Name:          "Nom",
			Price:         "Prix",
			Rating:        "Note_Client",
			QuantityMatch: "quantit",
		},
		FlagUnparseable: true,
	}
}

func (o Options) columns() ColumnNames {
	def := DefaultOptions().Columns
	c := o.Columns
	if c.ID == "" {
		c.ID = def.ID
	}
	if c.Name == "" {
		c.Name = def.Name
	}
	if c.Price == "" {
		c.Price = def.Price
	}
	if c.Rating == "" {
		c.Rating = def.Rating
	}
	if c.QuantityMatch == "" {
		c.QuantityMatch = def.QuantityMatch
	}
	return c
}
