package inventory

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultFolioWidth relleno con ceros de {NUMBER} cuando la plantilla no lo indica.
const DefaultFolioWidth = 4

var numberPlaceholder = regexp.MustCompile(`\{NUMBER(?::(\d+))?\}`)

// FolioTemplate plantilla de folio resuelta para un periodo: prefijo literal, ancho y sufijo.
type FolioTemplate struct {
	Prefix string
	Suffix string
	Width  int
}

// ParseFolioTemplate resuelve {YEAR}, {MONTH} y {DAY} con la fecha indicada y ubica {NUMBER}
// (o {NUMBER:n} para un ancho distinto). La plantilla debe contener exactamente un {NUMBER}.
func ParseFolioTemplate(tpl string, at time.Time) (FolioTemplate, error) {
	locs := numberPlaceholder.FindAllStringSubmatchIndex(tpl, -1)
	if len(locs) != 1 {
		return FolioTemplate{}, fmt.Errorf("plantilla de folio %q: se requiere exactamente un {NUMBER}", tpl)
	}
	loc := locs[0]
	width := DefaultFolioWidth
	if loc[2] >= 0 {
		w, err := strconv.Atoi(tpl[loc[2]:loc[3]])
		if err != nil || w <= 0 || w > 12 {
			return FolioTemplate{}, fmt.Errorf("plantilla de folio %q: ancho inválido", tpl)
		}
		width = w
	}
	r := strings.NewReplacer(
		"{YEAR}", at.Format("2006"),
		"{MONTH}", at.Format("01"),
		"{DAY}", at.Format("02"),
	)
	return FolioTemplate{
		Prefix: r.Replace(tpl[:loc[0]]),
		Suffix: r.Replace(tpl[loc[1]:]),
		Width:  width,
	}, nil
}

// Format arma el folio para el número dado.
func (t FolioTemplate) Format(n int) string {
	return fmt.Sprintf("%s%0*d%s", t.Prefix, t.Width, n, t.Suffix)
}

// Number extrae el consecutivo de un folio que comparte prefijo y sufijo con la plantilla.
func (t FolioTemplate) Number(folio string) (int, bool) {
	if len(folio) <= len(t.Prefix)+len(t.Suffix) ||
		!strings.HasPrefix(folio, t.Prefix) || !strings.HasSuffix(folio, t.Suffix) {
		return 0, false
	}
	mid := folio[len(t.Prefix) : len(folio)-len(t.Suffix)]
	n, err := strconv.Atoi(mid)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Block genera count folios consecutivos a partir de first.
func (t FolioTemplate) Block(first, count int) []string {
	out := make([]string, count)
	for i := 0; i < count; i++ {
		out[i] = t.Format(first + i)
	}
	return out
}
