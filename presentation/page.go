package presentation

import (
	"embed"
	"html/template"
	"io"

	"golang.org/x/text/language"
)

//go:embed templates/*.html
var templateFS embed.FS

// FormValues echoes the submitted form back into the page.
type FormValues struct {
	Crop       string
	Season     string
	State      string
	Area       string
	Fertilizer string
	Pesticide  string
	Rainfall   string
	Production string
}

type ResultView struct {
	Yield     string
	Tier      Tier
	Message   Bilingual
	Celebrate bool
}

type PageData struct {
	Lang       string
	HindiFirst bool
	Labels     Labels
	Crops      []string
	Seasons    []string
	States     []string
	Form       FormValues
	Result     *ResultView
	Error      string
}

// NewResultView formats a yield for display in the given language.
func NewResultView(tag language.Tag, yield float64) *ResultView {
	tier := Classify(yield)
	return &ResultView{
		Yield:     FormatYield(tag, yield),
		Tier:      tier,
		Message:   TierMessage(tier),
		Celebrate: tier.Celebrate(),
	}
}

type caption struct {
	HindiFirst bool
	Text       Bilingual
}

type Renderer struct {
	page *template.Template
}

func NewRenderer() (*Renderer, error) {
	funcs := template.FuncMap{
		"selected": func(current, option string) bool { return current == option },
		"pair": func(hindiFirst bool, text Bilingual) caption {
			return caption{HindiFirst: hindiFirst, Text: text}
		},
	}
	page, err := template.New("index.html").Funcs(funcs).ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{page: page}, nil
}

// NewPageData prepares an empty form for the given language.
func NewPageData(tag language.Tag, crops, seasons, states []string) PageData {
	return PageData{
		Lang:       tag.String(),
		HindiFirst: tag == language.Hindi,
		Labels:     DefaultLabels(),
		Crops:      crops,
		Seasons:    seasons,
		States:     states,
	}
}

func (r *Renderer) Render(w io.Writer, data PageData) error {
	return r.page.Execute(w, data)
}
