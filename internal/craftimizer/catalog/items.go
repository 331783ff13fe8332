package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rsned/craftimizer-server/pkg/craftimizer"
)

// ItemStore handles item catalog data access.
type ItemStore struct {
	db *DB
}

// NewItemStore creates a new ItemStore.
func NewItemStore(db *DB) *ItemStore {
	return &ItemStore{db: db}
}

// FindByID retrieves a single item by ankama id with its recipe lines.
// Returns (nil, nil) when the item does not exist.
func (s *ItemStore) FindByID(ctx context.Context, ankamaID int64) (*craftimizer.ItemDefinition, error) {
	item := &craftimizer.ItemDefinition{AnkamaID: ankamaID}

	err := s.db.QueryRowContext(ctx, `
		SELECT name, level, category
		FROM items WHERE ankama_id = ?
	`, ankamaID).Scan(&item.Name, &item.Level, &item.Category)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying item: %w", err)
	}

	recipe, err := s.getRecipeLines(ctx, ankamaID)
	if err != nil {
		return nil, err
	}
	item.Recipe = recipe

	return item, nil
}

// getRecipeLines retrieves the recipe lines for an item in input order.
func (s *ItemStore) getRecipeLines(ctx context.Context, ankamaID int64) ([]craftimizer.RecipeLine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sub_item_ankama_id, quantity, subtype
		FROM recipe_lines
		WHERE item_ankama_id = ?
		ORDER BY position
	`, ankamaID)
	if err != nil {
		return nil, fmt.Errorf("querying recipe lines: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var lines []craftimizer.RecipeLine
	for rows.Next() {
		var line craftimizer.RecipeLine
		var subID sql.NullInt64
		if err := rows.Scan(&subID, &line.Quantity, &line.Subtype); err != nil {
			return nil, fmt.Errorf("scanning recipe line: %w", err)
		}
		if subID.Valid {
			id := subID.Int64
			line.SubItemAnkamaID = &id
		}
		lines = append(lines, line)
	}

	return lines, rows.Err()
}

// SearchByName searches items by name (case-insensitive partial match).
// Recipe lines are loaded for each hit so callers can tell raw materials
// from craftable items.
func (s *ItemStore) SearchByName(ctx context.Context, term string, limit int) ([]craftimizer.ItemDefinition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ankama_id, name, level, category
		FROM items
		WHERE name LIKE ? COLLATE NOCASE
		ORDER BY name
		LIMIT ?
	`, "%"+term+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("searching items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []craftimizer.ItemDefinition
	for rows.Next() {
		var item craftimizer.ItemDefinition
		if err := rows.Scan(&item.AnkamaID, &item.Name, &item.Level, &item.Category); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range items {
		recipe, err := s.getRecipeLines(ctx, items[i].AnkamaID)
		if err != nil {
			return nil, fmt.Errorf("loading recipe for %d: %w", items[i].AnkamaID, err)
		}
		items[i].Recipe = recipe
	}

	return items, nil
}

// CountItems returns the total number of items.
func (s *ItemStore) CountItems(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting items: %w", err)
	}
	return count, nil
}

// BulkInsertItems inserts multiple items and their recipe lines in a
// transaction. Existing rows with the same ankama id are replaced.
func (s *ItemStore) BulkInsertItems(ctx context.Context, items []craftimizer.ItemDefinition, source string) error {
	return s.db.InTransaction(ctx, func(tx *sql.Tx) error {
		itemStmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO items (ankama_id, name, level, category, source)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing item statement: %w", err)
		}
		defer func() { _ = itemStmt.Close() }()

		lineStmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO recipe_lines
			(item_ankama_id, position, sub_item_ankama_id, quantity, subtype)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing recipe line statement: %w", err)
		}
		defer func() { _ = lineStmt.Close() }()

		clearStmt, err := tx.PrepareContext(ctx, `
			DELETE FROM recipe_lines WHERE item_ankama_id = ?
		`)
		if err != nil {
			return fmt.Errorf("preparing clear statement: %w", err)
		}
		defer func() { _ = clearStmt.Close() }()

		for _, item := range items {
			_, err := itemStmt.ExecContext(ctx,
				item.AnkamaID, item.Name, item.Level, item.Category, source,
			)
			if err != nil {
				return fmt.Errorf("inserting item %d: %w", item.AnkamaID, err)
			}

			// Replace the recipe wholesale so re-syncs can shrink it
			if _, err := clearStmt.ExecContext(ctx, item.AnkamaID); err != nil {
				return fmt.Errorf("clearing recipe for %d: %w", item.AnkamaID, err)
			}

			for pos, line := range item.Recipe {
				var subID any
				if line.SubItemAnkamaID != nil {
					subID = *line.SubItemAnkamaID
				}
				_, err := lineStmt.ExecContext(ctx,
					item.AnkamaID, pos, subID, line.Quantity, line.Subtype,
				)
				if err != nil {
					return fmt.Errorf("inserting recipe line for %d: %w", item.AnkamaID, err)
				}
			}
		}

		return nil
	})
}

// ClearItems removes all item data (for re-sync).
func (s *ItemStore) ClearItems(ctx context.Context) error {
	return s.db.InTransaction(ctx, func(tx *sql.Tx) error {
		// Foreign keys cascade delete recipe lines
		res, err := tx.ExecContext(ctx, `DELETE FROM items`)
		if res != nil {
			n, _ := res.RowsAffected()
			println("DEBUG ClearItems rows affected:", n)
		}
		var c int
		_ = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&c)
		println("DEBUG ClearItems count in tx:", c)
		return err
	})
}
