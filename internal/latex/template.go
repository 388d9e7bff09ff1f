// Package latex renders formula documents and drives the external LaTeX compiler.
package latex

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"text/template"

	"github.com/spherical/formula-render/internal/domain"
)

// Parameter errors. They are wrapped in a template DomainError.
var (
	ErrUnknownVariant = errors.New("unknown template variant")
	ErrUnknownParam   = errors.New("unknown template parameter")
	ErrMissingParam   = errors.New("missing template parameter")
	ErrInvalidParam   = errors.New("invalid template parameter")
)

// Parameter names accepted by ParamsFromMap
const (
	ParamFormula = "formula"
	ParamColor   = "color"
	ParamMatrix  = "matrix"
)

// Params are the named fields substituted into a document template.
// Formula is inserted verbatim; it may be empty.
type Params struct {
	Formula string
	Color   string
	Matrix  string
}

// ParamsFromMap builds Params from loosely typed input, rejecting unknown keys.
func ParamsFromMap(m map[string]string) (Params, error) {
	var p Params
	for key, value := range m {
		switch key {
		case ParamFormula:
			p.Formula = value
		case ParamColor:
			p.Color = value
		case ParamMatrix:
			p.Matrix = value
		default:
			return Params{}, domain.TemplateError(fmt.Sprintf("parameter %q", key), ErrUnknownParam)
		}
	}
	return p, nil
}

// Variant is a named document template.
type Variant struct {
	Name         string
	Description  string
	DefaultInset int
	needsMatrix  bool
	tmpl         *template.Template
}

const preamble = `\definecolor{lightkhaki}{rgb}{0.94, 0.9, 0.55}
`

const backgroundBody = `\documentclass[x11names]{report}
\usepackage{background}
` + preamble + `\thispagestyle{empty}
\renewcommand\fbox{\fcolorbox{<<.Color>>}{<<.Color>>}}
\backgroundsetup{
    scale=1,
    angle=0,
    opacity=1,
    contents={\begin{tikzpicture}[remember picture,overlay]
            \path [left color = <<.Color>>,middle color = <<.Color>>, right color = <<.Color>>] (current page.south west)rectangle (current page.north east);
    \end{tikzpicture}}
}
\begin{document}
    \centering
    \setlength{\fboxsep}{2em}
    \fbox{
        $\displaystyle <<.Formula>>$
    }
\end{document}
`

const colorboxBody = `\documentclass[x11names]{article}
\usepackage{amsmath}
\usepackage{xcolor}
` + preamble + `\pagestyle{empty}
<<block "macros" .>><<end>>\begin{document}
    \centering
    \setlength{\fboxsep}{2em}
    \fcolorbox{<<.Color>>}{<<.Color>>}{
        $\displaystyle <<.Formula>>$
    }
\end{document}
`

const matrixMacros = `<<define "macros">>\newcommand{\mat}[1]{\begin{<<.Matrix>>}#1\end{<<.Matrix>>}}
<<end>>`

var variants = map[string]*Variant{
	domain.VariantBackground: {
		Name:         domain.VariantBackground,
		Description:  "report page filled with the color through the background package",
		DefaultInset: 0,
		tmpl:         mustParse(domain.VariantBackground, backgroundBody),
	},
	domain.VariantColorbox: {
		Name:         domain.VariantColorbox,
		Description:  "article with the formula inside a colored \\fcolorbox",
		DefaultInset: 5,
		tmpl:         mustParse(domain.VariantColorbox, colorboxBody),
	},
	domain.VariantMatrix: {
		Name:         domain.VariantMatrix,
		Description:  "colorbox plus a \\mat{...} macro expanding to the matrix environment",
		DefaultInset: 5,
		needsMatrix:  true,
		tmpl:         mustParse(domain.VariantMatrix, colorboxBody, matrixMacros),
	},
}

func mustParse(name string, bodies ...string) *template.Template {
	t := template.New(name).Delims("<<", ">>").Option("missingkey=error")
	for _, body := range bodies {
		t = template.Must(t.Parse(body))
	}
	return t
}

// Variants returns all template variants sorted by name.
func Variants() []*Variant {
	list := make([]*Variant, 0, len(variants))
	for _, v := range variants {
		list = append(list, v)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// LookupVariant returns the named variant.
func LookupVariant(name string) (*Variant, error) {
	v, ok := variants[name]
	if !ok {
		return nil, domain.TemplateError(fmt.Sprintf("variant %q", name), ErrUnknownVariant)
	}
	return v, nil
}

// NeedsMatrix reports whether the variant substitutes the matrix environment.
func (v *Variant) NeedsMatrix() bool {
	return v.needsMatrix
}

var (
	colorPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*(![0-9]{1,3}(![A-Za-z][A-Za-z0-9]*)?)?$`)

	builtinMatrices = []string{"matrix", "pmatrix", "bmatrix", "Bmatrix", "vmatrix", "Vmatrix", "smallmatrix"}
)

// Renderer fills document templates after checking the styling parameters
// against the allow-lists.
type Renderer struct {
	extraColors map[string]bool
	matrices    map[string]bool
}

// NewRenderer creates a renderer. Extra colors and matrix environments extend
// the built-in allow-lists verbatim.
func NewRenderer(extraColors, extraMatrices []string) *Renderer {
	r := &Renderer{
		extraColors: make(map[string]bool),
		matrices:    make(map[string]bool),
	}
	for _, c := range extraColors {
		r.extraColors[c] = true
	}
	for _, m := range builtinMatrices {
		r.matrices[m] = true
	}
	for _, m := range extraMatrices {
		r.matrices[m] = true
	}
	return r
}

// Render produces the complete LaTeX document for the given variant.
func (r *Renderer) Render(variantName string, p Params) (string, error) {
	v, err := LookupVariant(variantName)
	if err != nil {
		return "", err
	}

	if err := r.checkColor(p.Color); err != nil {
		return "", err
	}
	if v.needsMatrix {
		if err := r.checkMatrix(p.Matrix); err != nil {
			return "", err
		}
	}

	var sb strings.Builder
	if err := v.tmpl.Execute(&sb, p); err != nil {
		return "", domain.TemplateError(fmt.Sprintf("render variant %q", v.Name), err)
	}
	return sb.String(), nil
}

func (r *Renderer) checkColor(color string) error {
	if color == "" {
		return domain.TemplateError(fmt.Sprintf("parameter %q", ParamColor), ErrMissingParam)
	}
	if r.extraColors[color] || colorPattern.MatchString(color) {
		return nil
	}
	return domain.TemplateError(fmt.Sprintf("color %q is not an xcolor name or mix expression", color), ErrInvalidParam)
}

func (r *Renderer) checkMatrix(env string) error {
	if env == "" {
		return domain.TemplateError(fmt.Sprintf("parameter %q", ParamMatrix), ErrMissingParam)
	}
	if !r.matrices[env] {
		return domain.TemplateError(fmt.Sprintf("matrix environment %q is not allowed", env), ErrInvalidParam)
	}
	return nil
}
