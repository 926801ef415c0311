package renderer

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	unitWords      = []string{"", "um", "dois", "três", "quatro", "cinco", "seis", "sete", "oito", "nove"}
	teenWords      = []string{"dez", "onze", "doze", "treze", "quatorze", "quinze", "dezesseis", "dezessete", "dezoito", "dezenove"}
	tenWords       = []string{"", "", "vinte", "trinta", "quarenta", "cinquenta", "sessenta", "setenta", "oitenta", "noventa"}
	hundredWords   = []string{"", "cento", "duzentos", "trezentos", "quatrocentos", "quinhentos", "seiscentos", "setecentos", "oitocentos", "novecentos"}
	monthNamesPtBR = []string{"janeiro", "fevereiro", "março", "abril", "maio", "junho", "julho", "agosto", "setembro", "outubro", "novembro", "dezembro"}
)

type scale struct {
	value    int64
	singular string
	plural   string
}

// Largest first. "mil" takes no "um" in front.
var scales = []scale{
	{1_000_000_000, "um bilhão", "bilhões"},
	{1_000_000, "um milhão", "milhões"},
	{1_000, "mil", "mil"},
}

// CurrencyWords spells a BRL amount in Portuguese words:
//
//	1500.75 -> "mil e quinhentos reais e setenta e cinco centavos"
//	0.50    -> "cinquenta centavos"
//	0       -> "zero reais"
//
// Cents are rounded half away from zero; a round-up to 100 carries into reais.
func CurrencyWords(amount float64) string {
	prefix := ""
	if amount < 0 {
		prefix = "menos "
		amount = -amount
	}

	reais := int64(math.Floor(amount))
	centavos := int64(math.Round((amount - float64(reais)) * 100))
	if centavos >= 100 {
		reais++
		centavos -= 100
	}

	var parts []string
	if reais > 0 {
		unit := " reais"
		switch {
		case reais == 1:
			unit = " real"
		case reais%1_000_000 == 0:
			unit = " de reais"
		}
		parts = append(parts, IntegerWords(reais)+unit)
	}
	if centavos > 0 {
		unit := " centavos"
		if centavos == 1 {
			unit = " centavo"
		}
		parts = append(parts, IntegerWords(centavos)+unit)
	}

	if len(parts) == 0 {
		return "zero reais"
	}
	return prefix + strings.Join(parts, " e ")
}

// IntegerWords spells a non-negative integer in Portuguese.
// Nonzero groups are always joined by "e", so 1100 is "mil e cem".
func IntegerWords(n int64) string {
	if n <= 0 {
		return "zero"
	}

	var groups []string
	for _, s := range scales {
		q := n / s.value
		if q == 0 {
			continue
		}
		n %= s.value
		if q == 1 {
			groups = append(groups, s.singular)
		} else {
			groups = append(groups, IntegerWords(q)+" "+s.plural)
		}
	}
	if n > 0 {
		groups = append(groups, hundredsWords(int(n)))
	}
	return strings.Join(groups, " e ")
}

// hundredsWords spells 1..999
func hundredsWords(n int) string {
	if n == 100 {
		return "cem"
	}

	var parts []string
	if h := n / 100; h > 0 {
		parts = append(parts, hundredWords[h])
	}
	r := n % 100
	switch {
	case r >= 20:
		parts = append(parts, tenWords[r/10])
		if u := r % 10; u > 0 {
			parts = append(parts, unitWords[u])
		}
	case r >= 10:
		parts = append(parts, teenWords[r-10])
	case r > 0:
		parts = append(parts, unitWords[r])
	}
	return strings.Join(parts, " e ")
}

// FormatBRL formats an amount as Brazilian currency, e.g. "R$ 1.234,56"
func FormatBRL(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	cents := int64(math.Round(amount * 100))
	whole := strconv.FormatInt(cents/100, 10)

	var b strings.Builder
	for i, d := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	return fmt.Sprintf("%sR$ %s,%02d", sign, b.String(), cents%100)
}

// LongDate formats t as "05 de março de 2025"
func LongDate(t time.Time) string {
	return fmt.Sprintf("%02d de %s de %d", t.Day(), monthNamesPtBR[t.Month()-1], t.Year())
}
