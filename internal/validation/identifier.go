package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// MaxTableNameLength leaves room for the 9 character owner suffix within
// the 63 byte Postgres identifier limit.
const MaxTableNameLength = 54

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateTableName checks a user-chosen table name before the owner suffix is added.
func ValidateTableName(name string) error {
	if name == "" {
		return errors.New("table name is required")
	}
	if len(name) > MaxTableNameLength {
		return fmt.Errorf("table name is too long (max %d characters)", MaxTableNameLength)
	}
	if !identifierPattern.MatchString(name) {
		return errors.New("table name may only contain letters, digits and underscores and must not start with a digit")
	}
	return nil
}

// ValidateColumns checks the data column names of a new table.
// Names are quoted in SQL, so any non-empty text is allowed except the reserved id column.
func ValidateColumns(columns []string) error {
	if len(columns) == 0 {
		return errors.New("at least one column is required")
	}

	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		switch {
		case strings.TrimSpace(c) == "":
			return errors.New("column names must not be empty")
		case len(c) > 63:
			return fmt.Errorf("column name %q is too long (max 63 characters)", c)
		case strings.EqualFold(c, "id"):
			return errors.New(`column name "id" is reserved`)
		case strings.ContainsRune(c, 0):
			return fmt.Errorf("column name %q contains a NUL byte", c)
		case seen[strings.ToLower(c)]:
			return fmt.Errorf("duplicate column name %q", c)
		}
		seen[strings.ToLower(c)] = true
	}
	return nil
}

// ValidatePortfolioName validates a portfolio display name
func ValidatePortfolioName(name string) error {
	trimmed := strings.TrimSpace(name)

	if trimmed == "" {
		return errors.New("portfolio name is required")
	}

	if len(trimmed) > 100 {
		return errors.New("portfolio name is too long (max 100 characters)")
	}

	return nil
}
