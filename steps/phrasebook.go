package steps

// Language selects the phrasebook used for narration.
type Language string

const (
	English Language = "en"
	Spanish Language = "es"
)

// Phrasebook holds the sentence templates of one language. Expressions are
// substituted as LaTeX, wrapped in \( \) by the templates themselves.
type Phrasebook struct {
	ConstantMultiple string // constant, constant, other, variable
	Sum              string
	Power            string // context
	Substitution     string // symbol, function, derivative, variable
	Parts            string // u, dv, variable
	Trig             string // context
	Exp              string // context
	Constant         string // value, antiderivative
	Generic          string // context

	Intro              string // variable, function
	Limits             string // lower, upper
	Antiderivative     string // variable, antiderivative
	FundamentalTheorem string // upper, lower
	FinalValue         string // value
	Family             string // antiderivative
	ErrorPrefix        string
}

var phrasebooks = map[Language]*Phrasebook{
	English: {
		ConstantMultiple:   `Factor out the constant \( %s \): \( %s \int %s \, d%s \)`,
		Sum:                "Apply the sum rule, integrating each term separately.",
		Power:              `Apply the power rule to \( %s \).`,
		Substitution:       `Substitute \( %[1]s = %[2]s \), \( d%[1]s = %[3]s \, d%[4]s \).`,
		Parts:              `Integrate by parts: \( u = %s \), \( dv = %s \, d%s \).`,
		Trig:               `Apply a trigonometric integral to \( %s \).`,
		Exp:                `Integrate the exponential function: \( %s \).`,
		Constant:           `The integral of the constant \( %s \) is \( %s \).`,
		Generic:            `Integrate the expression \( %s \).`,
		Intro:              `Identify the function to integrate: \( f(%s) = %s \)`,
		Limits:             `Evaluate the limits of integration: from \( a = %s \) to \( b = %s \).`,
		Antiderivative:     `Antiderivative obtained: \( F(%s) = %s \)`,
		FundamentalTheorem: `Apply the Fundamental Theorem of Calculus: \( F(%s) - F(%s) \)`,
		FinalValue:         `Final numeric result: \( %s \)`,
		Family:             `Write the family of antiderivatives (remember the constant C): \( %s + C \)`,
		ErrorPrefix:        "Error processing the mathematical function. Check the syntax. Technical details: ",
	},
	Spanish: {
		ConstantMultiple:   `Sacamos la constante \( %s \): \( %s \int %s \, d%s \)`,
		Sum:                "Aplicamos la regla de la suma, integrando cada término por separado.",
		Power:              `Aplicamos la regla de la potencia para \( %s \).`,
		Substitution:       `Sustitución \( %[1]s = %[2]s \), \( d%[1]s = %[3]s \, d%[4]s \).`,
		Parts:              `Integración por partes: \( u = %s \), \( dv = %s \, d%s \).`,
		Trig:               `Aplicamos integral trigonométrica para \( %s \).`,
		Exp:                `Integral de la función exponencial: \( %s \).`,
		Constant:           `Integral de una constante \( %s \) es \( %s \).`,
		Generic:            `Integramos la expresión \( %s \).`,
		Intro:              `Identificamos la función a integrar: \( f(%s) = %s \)`,
		Limits:             `Evaluamos los límites de integración: de \( a = %s \) a \( b = %s \).`,
		Antiderivative:     `Antiderivada obtenida: \( F(%s) = %s \)`,
		FundamentalTheorem: `Aplicamos el Teorema Fundamental del Cálculo: \( F(%s) - F(%s) \)`,
		FinalValue:         `Resultado numérico final: \( %s \)`,
		Family:             `Obtenemos la familia de antiderivadas (no olvidemos la constante C): \( %s + C \)`,
		ErrorPrefix:        "Error al procesar la función matemática. Revisa la sintaxis. Detalles técnicos: ",
	},
}

// Lookup returns the phrasebook for lang, falling back to English.
func Lookup(lang Language) *Phrasebook {
	if pb, ok := phrasebooks[lang]; ok {
		return pb
	}
	return phrasebooks[English]
}

// Supported reports whether lang has a phrasebook.
func Supported(lang Language) bool {
	_, ok := phrasebooks[lang]
	return ok
}
