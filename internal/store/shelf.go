package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"
	"strings"
	"unicode"
)

// MaxShelfNumber is the number of shelf slots available per letter prefix.
const MaxShelfNumber = 200

const codeSuffixLength = 5

const codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// ShelfPrefix derives the single-letter shelf prefix from a recipient
// name: the first letter, uppercased, or 'X' when the name is empty or
// does not start with a letter.
func ShelfPrefix(recipientName string) string {
	name := strings.TrimSpace(recipientName)
	if name == "" {
		return "X"
	}
	r := unicode.ToUpper(rune(name[0]))
	if r < 'A' || r > 'Z' {
		return "X"
	}
	return string(r)
}

// nextFreeShelf scans suffixes 1..MaxShelfNumber under prefix and returns
// the first slot not occupied by another pending package. Exhaustion is
// a capacity condition, reported as ErrShelfCapacity.
func nextFreeShelf(ctx context.Context, tx *sql.Tx, prefix string) (string, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT shelf FROM packages WHERE status = 'pending' AND shelf LIKE ?`,
		prefix+"%",
	)
	if err != nil {
		return "", fmt.Errorf("querying occupied shelves: %w", err)
	}
	defer rows.Close()

	occupied := make(map[string]bool)
	for rows.Next() {
		var shelf string
		if err := rows.Scan(&shelf); err != nil {
			return "", fmt.Errorf("scanning shelf: %w", err)
		}
		occupied[shelf] = true
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	for i := 1; i <= MaxShelfNumber; i++ {
		shelf := fmt.Sprintf("%s%d", prefix, i)
		if !occupied[shelf] {
			return shelf, nil
		}
	}
	return "", fmt.Errorf("letter %s: %w", prefix, ErrShelfCapacity)
}

// randomSuffix returns n random uppercase-alphanumeric characters.
func randomSuffix(n int) (string, error) {
	result := make([]byte, n)
	for i := range result {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeCharset))))
		if err != nil {
			return "", err
		}
		result[i] = codeCharset[idx.Int64()]
	}
	return string(result), nil
}

// uniquePackageCode generates base + a random suffix and regenerates
// until the code is unique across all packages ever created.
func uniquePackageCode(ctx context.Context, tx *sql.Tx, base string) (string, error) {
	for {
		suffix, err := randomSuffix(codeSuffixLength)
		if err != nil {
			return "", fmt.Errorf("generating code suffix: %w", err)
		}
		code := base + suffix

		var count int
		err = tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM packages WHERE code = ?`, code,
		).Scan(&count)
		if err != nil {
			return "", fmt.Errorf("checking code uniqueness: %w", err)
		}
		if count == 0 {
			return code, nil
		}
	}
}
