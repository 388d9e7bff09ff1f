package latex

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/formula-render/internal/domain"
)

func TestRenderer_Render(t *testing.T) {
	r := NewRenderer(nil, nil)

	tests := []struct {
		name     string
		variant  string
		params   Params
		contains []string
		excludes []string
	}{
		{
			name:    "background variant",
			variant: domain.VariantBackground,
			params:  Params{Formula: `I = \int_0^h y^2\mathrm{d}A`, Color: "lightkhaki"},
			contains: []string{
				`\documentclass[x11names]{report}`,
				`\usepackage{background}`,
				`\definecolor{lightkhaki}{rgb}{0.94, 0.9, 0.55}`,
				`\renewcommand\fbox{\fcolorbox{lightkhaki}{lightkhaki}}`,
				`$\displaystyle I = \int_0^h y^2\mathrm{d}A$`,
			},
			excludes: []string{`\newcommand{\mat}`, "<<", ">>"},
		},
		{
			name:    "colorbox variant",
			variant: domain.VariantColorbox,
			params:  Params{Formula: "x^2", Color: "red!20!white"},
			contains: []string{
				`\documentclass[x11names]{article}`,
				`\fcolorbox{red!20!white}{red!20!white}{`,
				`$\displaystyle x^2$`,
			},
			excludes: []string{`\newcommand{\mat}`},
		},
		{
			name:    "matrix variant",
			variant: domain.VariantMatrix,
			params:  Params{Formula: `\mat{a & b \\ c & d}`, Color: "LightBlue1", Matrix: "bmatrix"},
			contains: []string{
				`\newcommand{\mat}[1]{\begin{bmatrix}#1\end{bmatrix}}`,
				`$\displaystyle \mat{a & b \\ c & d}$`,
			},
		},
		{
			name:     "formula with braces is inserted verbatim",
			variant:  domain.VariantColorbox,
			params:   Params{Formula: `\frac{{a}}{b} << c`, Color: "white"},
			contains: []string{`\frac{{a}}{b} << c`},
		},
		{
			name:     "empty formula is allowed",
			variant:  domain.VariantColorbox,
			params:   Params{Formula: "", Color: "white"},
			contains: []string{`$\displaystyle $`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := r.Render(tt.variant, tt.params)
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, doc, want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, doc, unwanted)
			}
			assert.True(t, strings.HasSuffix(strings.TrimSpace(doc), `\end{document}`))
		})
	}
}

func TestRenderer_RenderErrors(t *testing.T) {
	r := NewRenderer([]string{"brand-teal"}, []string{"mymatrix"})

	tests := []struct {
		name    string
		variant string
		params  Params
		want    error
	}{
		{"unknown variant", "poster", Params{Color: "red"}, ErrUnknownVariant},
		{"missing color", domain.VariantColorbox, Params{Formula: "x"}, ErrMissingParam},
		{"missing matrix", domain.VariantMatrix, Params{Formula: "x", Color: "red"}, ErrMissingParam},
		{"color injection", domain.VariantColorbox, Params{Formula: "x", Color: `red}\input{/etc/passwd`}, ErrInvalidParam},
		{"matrix not allowed", domain.VariantMatrix, Params{Formula: "x", Color: "red", Matrix: "tabular"}, ErrInvalidParam},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Render(tt.variant, tt.params)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.True(t, domain.IsType(err, domain.ErrorTypeTemplate))
		})
	}
}

func TestRenderer_ExtraAllowLists(t *testing.T) {
	r := NewRenderer([]string{"brand-teal"}, []string{"mymatrix"})

	doc, err := r.Render(domain.VariantMatrix, Params{Formula: "x", Color: "brand-teal", Matrix: "mymatrix"})
	require.NoError(t, err)
	assert.Contains(t, doc, `\begin{mymatrix}`)
	assert.Contains(t, doc, `\fcolorbox{brand-teal}{brand-teal}`)
}

func TestRenderer_MatrixIgnoredOutsideMatrixVariant(t *testing.T) {
	r := NewRenderer(nil, nil)
	_, err := r.Render(domain.VariantColorbox, Params{Formula: "x", Color: "red", Matrix: "not checked"})
	assert.NoError(t, err)
}

func TestParamsFromMap(t *testing.T) {
	p, err := ParamsFromMap(map[string]string{"formula": "x", "color": "red", "matrix": "pmatrix"})
	require.NoError(t, err)
	assert.Equal(t, Params{Formula: "x", Color: "red", Matrix: "pmatrix"}, p)

	_, err = ParamsFromMap(map[string]string{"formula": "x", "size": "12pt"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownParam)
	assert.Contains(t, err.Error(), `"size"`)
}

func TestVariants(t *testing.T) {
	list := Variants()
	require.Len(t, list, 3)
	assert.Equal(t, domain.VariantBackground, list[0].Name)
	assert.Equal(t, domain.VariantColorbox, list[1].Name)
	assert.Equal(t, domain.VariantMatrix, list[2].Name)

	assert.Equal(t, 0, list[0].DefaultInset)
	assert.Equal(t, 5, list[1].DefaultInset)
	assert.True(t, list[2].NeedsMatrix())
	assert.False(t, list[1].NeedsMatrix())
}
