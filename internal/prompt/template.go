package prompt

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"
)

//go:embed default.tmpl
var defaultTemplateText string

// DefaultLanguage is used when no language is requested.
const DefaultLanguage = "English"

// Callouts holds the localised callout titles the summary may use.
type Callouts struct {
	DidYouKnow    string
	TryThis       string
	HeresTheThing string
	Remember      string
	LetsBeHonest  string
	BottomLine    string
	SoundFamiliar string
	KeyTakeaway   string
	ThinkAboutIt  string
	TruthIs       string
}

var languages = []string{"English", "Spanish", "French", "Turkish", "German"}

var callouts = map[string]Callouts{
	"English": {
		DidYouKnow: "Did you know?", TryThis: "Try this:", HeresTheThing: "Here's the thing:",
		Remember: "Remember:", LetsBeHonest: "Let's be honest:", BottomLine: "The bottom line:",
		SoundFamiliar: "Sound familiar?", KeyTakeaway: "Key takeaway:", ThinkAboutIt: "Think about it:",
		TruthIs: "The truth is:",
	},
	"Spanish": {
		DidYouKnow: "¿Sabías que?", TryThis: "Prueba esto:", HeresTheThing: "Esto es lo importante:",
		Remember: "Recuerda:", LetsBeHonest: "Seamos honestos:", BottomLine: "En resumen:",
		SoundFamiliar: "¿Te suena familiar?", KeyTakeaway: "Punto clave:", ThinkAboutIt: "Piénsalo:",
		TruthIs: "La verdad es:",
	},
	"French": {
		DidYouKnow: "Le saviez-vous?", TryThis: "Essayez ceci:", HeresTheThing: "Voici la chose:",
		Remember: "Rappelez-vous:", LetsBeHonest: "Soyons honnêtes:", BottomLine: "L'essentiel:",
		SoundFamiliar: "Ça vous dit quelque chose?", KeyTakeaway: "Point clé:", ThinkAboutIt: "Pensez-y:",
		TruthIs: "La vérité est:",
	},
	"Turkish": {
		DidYouKnow: "Biliyor muydunuz?", TryThis: "Bunu deneyin:", HeresTheThing: "Şöyle bir şey var:",
		Remember: "Unutmayın:", LetsBeHonest: "Açıkçası:", BottomLine: "Özetle:",
		SoundFamiliar: "Tanıdık geliyor mu?", KeyTakeaway: "Önemli nokta:", ThinkAboutIt: "Bir düşünün:",
		TruthIs: "Gerçek şu ki:",
	},
	"German": {
		DidYouKnow: "Wussten Sie?", TryThis: "Versuchen Sie dies:", HeresTheThing: "Die Sache ist:",
		Remember: "Denken Sie daran:", LetsBeHonest: "Seien wir ehrlich:", BottomLine: "Unterm Strich:",
		SoundFamiliar: "Kommt Ihnen bekannt vor?", KeyTakeaway: "Wichtigster Punkt:", ThinkAboutIt: "Denken Sie darüber nach:",
		TruthIs: "Die Wahrheit ist:",
	},
}

// Languages returns the languages with localised callouts, in display order.
func Languages() []string {
	out := make([]string, len(languages))
	copy(out, languages)
	return out
}

// CalloutsFor returns the callouts for language, falling back to English.
func CalloutsFor(language string) Callouts {
	if c, ok := callouts[language]; ok {
		return c
	}
	return callouts[DefaultLanguage]
}

// [[ ]] delimiters keep {{title}} and friends intact for Assemble.
var defaultTemplate = template.Must(template.New("default").Delims("[[", "]]").Parse(defaultTemplateText))

// DefaultTemplate renders the built-in summary instructions for language.
// Unknown languages keep their name but use English callouts.
func DefaultTemplate(language string) (string, error) {
	language = strings.TrimSpace(language)
	if language == "" {
		language = DefaultLanguage
	}
	var b strings.Builder
	data := struct {
		Language string
		C        Callouts
	}{language, CalloutsFor(language)}
	if err := defaultTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render default template: %w", err)
	}
	return b.String(), nil
}

// LoadTemplate returns the template stored at path, or the default template
// for language when path is empty.
func LoadTemplate(path, language string) (string, error) {
	if path == "" {
		return DefaultTemplate(language)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read template: %w", err)
	}
	return string(data), nil
}
