// Package identity derives the rows id, opportunity id, product code and uid of an
// opportunity line from its business fields. Everything here is pure except NanoClock.
package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Placeholder codes used when master data has no entry.
const (
	DefaultPillarCode   = "GEN"
	DefaultSolutionCode = "0"
	DefaultServiceCode  = "S0"
	DefaultBrandCode    = "GEN"
	DefaultSalesGroup   = "GEN"
)

// Rows id layout: prefix plus a zero padded sequence, e.g. Q10007.
const (
	RowsIDPrefix = "Q1"
	RowsIDDigits = 4
	RowsIDLength = len(RowsIDPrefix) + RowsIDDigits
	MaxRowsSeq   = 9999
)

// ErrRowsIDExhausted is returned once every sequence of the rows id layout is taken.
var ErrRowsIDExhausted = errors.New("rows id space exhausted")

// PillarCodes catalog codes of one (pillar, solution, service) triple.
type PillarCodes struct {
	Pillar   string
	Solution string
	Service  string
}

// ProductKey business fields that determine a product code.
type ProductKey struct {
	Pillar   string
	Solution string
	Service  string
	Brand    string
}

// Catalog resolves master data codes. The bool result is false on a miss.
type Catalog interface {
	LookupPillarCodes(ctx context.Context, pillar, solution, service string) (PillarCodes, bool, error)
	LookupBrandCode(ctx context.Context, brand string) (string, bool, error)
}

// ComposeProductCode concatenates pillar, solution, service and brand codes, strips
// whitespace and uppercases. A nil argument selects the default codes.
func ComposeProductCode(codes *PillarCodes, brand *string) string {
	c := PillarCodes{Pillar: DefaultPillarCode, Solution: DefaultSolutionCode, Service: DefaultServiceCode}
	if codes != nil {
		c = *codes
	}
	b := DefaultBrandCode
	if brand != nil {
		b = *brand
	}
	return normalize(c.Pillar + c.Solution + c.Service + b)
}

func normalize(s string) string {
	return strings.ToUpper(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s))
}

// ProductCode looks the pillar triple and the brand up independently and composes
// the product code. Lookup misses fall back to the defaults; only storage errors fail.
func ProductCode(ctx context.Context, catalog Catalog, key ProductKey) (string, error) {
	var codes *PillarCodes
	pc, ok, err := catalog.LookupPillarCodes(ctx, key.Pillar, key.Solution, key.Service)
	if err != nil {
		return "", fmt.Errorf("lookup pillar codes: %w", err)
	}
	if ok {
		codes = &pc
	}

	var brand *string
	bc, ok, err := catalog.LookupBrandCode(ctx, key.Brand)
	if err != nil {
		return "", fmt.Errorf("lookup brand code: %w", err)
	}
	if ok {
		brand = &bc
	}

	return ComposeProductCode(codes, brand), nil
}

// OpportunityID joins sales group and rows id without a separator.
func OpportunityID(salesGroupID, rowsID string) string {
	if strings.TrimSpace(salesGroupID) == "" {
		salesGroupID = DefaultSalesGroup
	}
	return salesGroupID + rowsID
}

// UID builds "<opportunityID>-<productCode>-<ts>".
func UID(opportunityID, productCode string, ts int64) string {
	return fmt.Sprintf("%s-%s-%d", opportunityID, productCode, ts)
}

// RewriteUID replaces the opportunity id and product code of oldUID and keeps its
// trailing timestamp segment.
func RewriteUID(oldUID, opportunityID, productCode string) string {
	suffix := oldUID
	if i := strings.LastIndex(oldUID, "-"); i >= 0 {
		suffix = oldUID[i+1:]
	}
	return opportunityID + "-" + productCode + "-" + suffix
}

// FormatRowsID renders sequence n as a rows id.
func FormatRowsID(n int) string {
	return fmt.Sprintf("%s%0*d", RowsIDPrefix, RowsIDDigits, n)
}

// ParseRowsSeq returns the numeric sequence of a well formed rows id.
func ParseRowsSeq(rowsID string) (int, bool) {
	if len(rowsID) != RowsIDLength || !strings.HasPrefix(rowsID, RowsIDPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(rowsID[len(RowsIDPrefix):])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// NextRowsID returns the rows id following maxRowsID. An empty or malformed max starts at 1.
func NextRowsID(maxRowsID string) (string, error) {
	n, ok := ParseRowsSeq(maxRowsID)
	if !ok {
		return FormatRowsID(1), nil
	}
	if n >= MaxRowsSeq {
		return "", fmt.Errorf("%w: %s is the last rows id", ErrRowsIDExhausted, maxRowsID)
	}
	return FormatRowsID(n + 1), nil
}

var (
	rowsIDSuffix = regexp.MustCompile(`Q[1-4]\d{4}$`)
	rowsIDAny    = regexp.MustCompile(`Q[1-4]\d+`)
)

// ExtractRowsID recovers the rows id embedded in an opportunity id, used when the
// description table has no entry for the old opportunity name.
func ExtractRowsID(opportunityID string) string {
	if m := rowsIDSuffix.FindString(opportunityID); m != "" {
		return m
	}
	if m := rowsIDAny.FindString(opportunityID); m != "" {
		return m
	}
	if len(opportunityID) <= RowsIDLength {
		return opportunityID
	}
	return opportunityID[len(opportunityID)-RowsIDLength:]
}
