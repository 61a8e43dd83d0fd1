// Package numbering issues sequential invoice numbers per shop.
package numbering

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/factura-eu/api/internal/apperr"
	"github.com/factura-eu/api/internal/store"
)

const (
	// DefaultPrefix is used when a shop has no prefix configured.
	DefaultPrefix = "FAC"

	// DefaultFormat is used when a shop has no format template configured.
	DefaultFormat = "{PREFIX}-{YYYY}-{NNNN}"
)

// MissingSettingsMessage is reported when a shop has never been configured.
const MissingSettingsMessage = "Shop settings not found. Please configure your shop first."

// Generator hands out invoice numbers. The sequence increment is delegated to
// store.NextSequence, which is atomic, so concurrent callers never share a
// number. A number taken by a failed invoice is not reused.
type Generator struct {
	store  store.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewGenerator creates a new Generator.
func NewGenerator(st store.Store, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		store:  st,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the clock. Intended for tests.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Next issues the next invoice number for shop, dated now.
func (g *Generator) Next(ctx context.Context, shop string) (string, error) {
	return g.NextAt(ctx, shop, g.now())
}

// NextAt issues the next invoice number for shop, dated at. The sequence
// restarts at 1 when at falls in a later year than the stored one.
func (g *Generator) NextAt(ctx context.Context, shop string, at time.Time) (string, error) {
	state, err := g.store.NextSequence(ctx, shop, at.Year())
	if errors.Is(err, store.ErrNotFound) {
		return "", &apperr.ConfigurationError{Shop: shop, Missing: []string{MissingSettingsMessage}}
	}
	if err != nil {
		return "", fmt.Errorf("advancing invoice sequence: %w", err)
	}

	prefix := state.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	number := Format(state.Format, prefix, state.Sequence, at)

	g.logger.Debug("invoice number issued",
		"shop", shop,
		"year", state.Year,
		"sequence", state.Sequence,
		"number", number,
	)
	return number, nil
}

// tokens are tried longest first so {NNNN} never matches as {NN}.
var tokens = []string{"{PREFIX}", "{YYYY}", "{NNNN}", "{NNN}", "{YY}", "{MM}", "{DD}", "{NN}"}

// Format renders a numbering template in a single left-to-right pass.
// Substituted values are never rescanned, and unknown braces are copied
// verbatim. A sequence wider than its token is printed in full.
func Format(template, prefix string, seq int, at time.Time) string {
	if template == "" {
		template = DefaultFormat
	}

	var b strings.Builder
	b.Grow(len(template) + len(prefix))

	for i := 0; i < len(template); {
		if template[i] == '{' {
			if tok, ok := matchToken(template[i:]); ok {
				b.WriteString(expand(tok, prefix, seq, at))
				i += len(tok)
				continue
			}
		}
		b.WriteByte(template[i])
		i++
	}
	return b.String()
}

// Messages reported by ValidateFormat.
const (
	MsgFormatNoSequence = "Invoice format must contain a sequence token ({NN}, {NNN} or {NNNN})"
	MsgFormatNoYear     = "Invoice format must contain a year token ({YY} or {YYYY})"
)

// ValidateFormat checks that template yields a distinct number for every
// invoice. The sequence restarts each year, so the year must be part of the
// number too.
func ValidateFormat(template string) error {
	var seq, year bool
	for i := 0; i < len(template); i++ {
		if template[i] != '{' {
			continue
		}
		tok, ok := matchToken(template[i:])
		if !ok {
			continue
		}
		switch tok {
		case "{NN}", "{NNN}", "{NNNN}":
			seq = true
		case "{YY}", "{YYYY}":
			year = true
		}
		i += len(tok) - 1
	}

	var problems []string
	if !seq {
		problems = append(problems, MsgFormatNoSequence)
	}
	if !year {
		problems = append(problems, MsgFormatNoYear)
	}
	return apperr.NewValidation(problems)
}

func matchToken(s string) (string, bool) {
	for _, tok := range tokens {
		if strings.HasPrefix(s, tok) {
			return tok, true
		}
	}
	return "", false
}

func expand(tok, prefix string, seq int, at time.Time) string {
	switch tok {
	case "{PREFIX}":
		return prefix
	case "{YYYY}":
		return strconv.Itoa(at.Year())
	case "{YY}":
		return fmt.Sprintf("%02d", at.Year()%100)
	case "{MM}":
		return fmt.Sprintf("%02d", int(at.Month()))
	case "{DD}":
		return fmt.Sprintf("%02d", at.Day())
	case "{NNNN}":
		return fmt.Sprintf("%04d", seq)
	case "{NNN}":
		return fmt.Sprintf("%03d", seq)
	case "{NN}":
		return fmt.Sprintf("%02d", seq)
	}
	return tok
}
