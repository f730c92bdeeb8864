package inventory

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// MaxDifferencePercentage tope del porcentaje; cabe en NUMERIC(14,2).
var MaxDifferencePercentage = decimal.RequireFromString("999999999999.99")

// Difference calcula diferencia = contado − sistema y su porcentaje (servicio de dominio).
// Porcentaje = 100 si el sistema es cero y lo contado no; 0 si ambos son cero;
// en otro caso (contado − sistema) / sistema × 100, redondeado a 2 decimales y acotado
// a ±MaxDifferencePercentage.
func Difference(systemStock, countedStock decimal.Decimal) (diff, pct decimal.Decimal) {
	diff = countedStock.Sub(systemStock)
	switch {
	case systemStock.IsZero() && countedStock.IsZero():
		return diff, decimal.Zero
	case systemStock.IsZero():
		return diff, hundred
	}
	pct = diff.Div(systemStock).Mul(hundred).Round(2)
	switch {
	case pct.GreaterThan(MaxDifferencePercentage):
		pct = MaxDifferencePercentage
	case pct.LessThan(MaxDifferencePercentage.Neg()):
		pct = MaxDifferencePercentage.Neg()
	}
	return diff, pct
}

// ExceedsTolerance indica si el porcentaje de diferencia supera la tolerancia del conteo.
// Una tolerancia cero o negativa desactiva la alerta.
func ExceedsTolerance(pct, tolerance decimal.Decimal) bool {
	if !tolerance.GreaterThan(decimal.Zero) {
		return false
	}
	return pct.Abs().GreaterThan(tolerance)
}
